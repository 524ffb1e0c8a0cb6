package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/api"
	"github.com/nhle/notification-center/internal/app"
	"github.com/nhle/notification-center/internal/credential"
	"github.com/nhle/notification-center/internal/dispatch"
	"github.com/nhle/notification-center/internal/logging"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/notify"
	"github.com/nhle/notification-center/internal/session"
	appsync "github.com/nhle/notification-center/internal/sync"
	"github.com/nhle/notification-center/internal/theme"
)

var (
	configPath string
	demoMode   bool
	demoRole   string
)

var rootCmd = &cobra.Command{
	Use:          "notifications",
	Short:        "Notification center for patients and therapists",
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to the config file")
	rootCmd.Flags().BoolVar(&demoMode, "demo", false, "run against a seeded in-process backend")
	rootCmd.Flags().StringVar(&demoRole, "role", string(model.RolePatient), "acting role in demo mode (patient or therapist)")

	rootCmd.AddCommand(loginCmd, logoutCmd, configCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	theme.Apply(cfg.Display.Theme)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	baseURL, token := cfg.API.BaseURL, ""
	if demoMode {
		role := model.Role(demoRole)
		if role != model.RolePatient && role != model.RoleTherapist {
			return fmt.Errorf("unknown role %q", demoRole)
		}
		demo, err := startDemo(ctx, role, logger)
		if err != nil {
			return err
		}
		defer demo.Close()
		baseURL, token = demo.URL, demo.Token
	} else {
		token, err = resolveToken(cfg.Session)
		if err != nil {
			return err
		}
	}

	sess, err := session.FromToken(token, time.Now())
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}
	user := sess.User()
	logger.Info("starting",
		zap.String("user", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("api", baseURL),
	)

	reg := prometheus.NewRegistry()
	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer stop()
	}

	client := api.NewClient(baseURL, token, api.WithTimeout(cfg.API.Timeout()))
	store := notify.NewStore(client,
		notify.WithLogger(logger.Named("store")),
		notify.WithMetrics(notify.NewMetrics(reg)),
	)
	defer store.Close()

	router := app.NewRouter(logger.Named("router"))
	disp := dispatch.New(router, store, user.Role, logger.Named("dispatch"))
	defer disp.Wait()

	var poller *appsync.Poller
	if cfg.Sync.PollIntervalSec > 0 {
		poller = appsync.New(store, time.Duration(cfg.Sync.PollIntervalSec)*time.Second, logger.Named("sync"))
	}

	m := app.New(app.Deps{
		Store:      store,
		Dispatcher: disp,
		Router:     router,
		Poller:     poller,
		User:       user,
		Display:    cfg.Display,
		Logger:     logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// resolveToken reads the API token from the configured environment
// variable, then from the system keyring.
func resolveToken(cfg model.SessionConfig) (string, error) {
	if cfg.TokenEnv != "" {
		if t := os.Getenv(cfg.TokenEnv); t != "" {
			return t, nil
		}
	}
	t, err := credential.Token()
	if errors.Is(err, credential.ErrNoToken) {
		return "", fmt.Errorf("no API token: set %s or run `notifications login`", cfg.TokenEnv)
	}
	if err != nil {
		return "", err
	}
	return t, nil
}

// serveMetrics exposes reg on addr until the returned stop is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

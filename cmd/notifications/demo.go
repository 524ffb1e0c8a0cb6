package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/backend"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/session"
)

// demoTokenTTL is long enough for any interactive session.
const demoTokenTTL = 12 * time.Hour

// demoBackend is the seeded reference backend served on a loopback port.
type demoBackend struct {
	URL   string
	Token string

	db  *backend.Store
	srv *http.Server
}

// startDemo seeds an in-memory backend and serves it on 127.0.0.1.
func startDemo(ctx context.Context, role model.Role, logger *zap.Logger) (*demoBackend, error) {
	db, err := backend.NewStore(":memory:")
	if err != nil {
		return nil, err
	}
	if err := backend.Seed(ctx, db, time.Now()); err != nil {
		_ = db.Close()
		return nil, err
	}

	user := model.User{ID: "demo-" + uuid.NewString()[:8], Role: role}
	token, err := session.Mint(user, []byte(uuid.NewString()), demoTokenTTL, time.Now())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("minting demo token: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("listening for demo backend: %w", err)
	}

	srv := &http.Server{
		Handler:           backend.NewServer(db, token, logger.Named("backend")).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("demo backend stopped", zap.Error(err))
		}
	}()

	logger.Info("demo backend listening", zap.String("addr", ln.Addr().String()))
	return &demoBackend{
		URL:   "http://" + ln.Addr().String(),
		Token: token,
		db:    db,
		srv:   srv,
	}, nil
}

// Close stops the server and releases the database.
func (d *demoBackend) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = d.srv.Shutdown(ctx)
	_ = d.db.Close()
}

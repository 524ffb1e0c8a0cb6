// Package logging builds the application logger. The terminal belongs to the
// UI, so logs go to a file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/notification-center/internal/model"
)

// New returns a JSON file logger configured from cfg. An empty file path
// disables logging.
func New(cfg model.LogConfig) (*zap.Logger, error) {
	if cfg.File == "" {
		return zap.NewNop(), nil
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Level != "" {
		lvl, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = lvl
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.OutputPaths = []string{cfg.File}
	zc.ErrorOutputPaths = []string{cfg.File}
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.Sampling = nil

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

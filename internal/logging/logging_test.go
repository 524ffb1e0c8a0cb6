package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-center/internal/model"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := New(model.LogConfig{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Debug("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(model.LogConfig{Level: "warn", File: path})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(model.LogConfig{Level: "chatty", File: filepath.Join(t.TempDir(), "x.log")})
	assert.Error(t, err)
}

func TestNew_NoFileIsNop(t *testing.T) {
	logger, err := New(model.LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

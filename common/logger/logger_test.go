package logger

import (
	"os"
	"path/filepath"
	"testing"

	"postcare/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewLogger_JSON(t *testing.T) {
	logger, err := NewLogger("debug", "json", "postcare")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_WritesToRotatingFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "postcare.log")

	logger, err := New(config.LogConfig{Level: "info", Format: "json", File: file, MaxSizeMB: 1}, "postcare")
	require.NoError(t, err)

	logger.Info("check-in scored")
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "check-in scored")
	assert.Contains(t, string(data), `"service_name":"postcare"`)
}

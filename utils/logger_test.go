package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFormatsMessages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFrom(zap.New(core))

	l.Info("[push] %d rows pushed to %s", 3, "https://hooks.example.com")
	l.Warn("[push] row %d failed", 7)
	l.Error("boom: %v", "disk full")
	l.Debug("detail")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "[push] 3 rows pushed to https://hooks.example.com", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "boom: disk full", entries[2].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
}

func TestLoggerRespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewLoggerFrom(zap.New(core))

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	assert.Equal(t, 1, logs.Len())
}

func TestNewLoggerUnknownLevel(t *testing.T) {
	l := NewLogger("chatty")
	require.NotNil(t, l)
	NewNopLogger().Info("nothing %s", "here")
}

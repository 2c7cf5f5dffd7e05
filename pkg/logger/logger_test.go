package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
	}
	for name, want := range cases {
		l, err := New(name, "json")
		require.NoError(t, err, name)
		assert.True(t, l.Core().Enabled(want), name)
		if want > zapcore.DebugLevel {
			assert.False(t, l.Core().Enabled(want-1), name)
		}
	}
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapAdapter(zap.New(core))

	l.With(map[string]any{"component": "test"}).
		WithError(errors.New("boom")).
		Warn("lookup failed", map[string]any{"number": "123456789"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "lookup failed", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "test", ctx["component"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "123456789", ctx["number"])
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Info("ignored", nil)
	l.With(nil).Error("ignored", map[string]any{"k": 1})
}

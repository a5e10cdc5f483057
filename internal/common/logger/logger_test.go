package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]any{"floorplan_id", "fp-1", "api_key", "sk-123", "Authorization", "Bearer x", "dangling"})
	assert.Equal(t, []any{"floorplan_id", "fp-1", "api_key", "[REDACTED]", "Authorization", "[REDACTED]", "dangling"}, out)
}

func TestLoggerRedactsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("service", "analysis").Info("calling model", "api_key", "sk-secret", "model", "gpt-4o")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "[REDACTED]", fields["api_key"])
		assert.Equal(t, "gpt-4o", fields["model"])
		assert.Equal(t, "analysis", fields["service"])
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Info("ignored", "k", "v")
		l.Sync()
	})
}

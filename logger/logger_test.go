package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedact_MasksSecretKeys(t *testing.T) {
	out := redact([]interface{}{"admin_api_key", "hunter2", "state", "CA", "dangling"})

	assert.Equal(t, []interface{}{"admin_api_key", "[REDACTED]", "state", "CA", "dangling"}, out)
}

func TestLogger_WritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "test").Info("upserted", "state", "CA", "password", "x")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "upserted", entries[0].Message)
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, "CA", fields["state"])
	assert.Equal(t, "[REDACTED]", fields["password"])
}

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"development", "production"} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l.SugaredLogger)
	}
}

package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 3}, Int("n", 3))
	assert.Equal(t, Field{Key: "ok", Value: true}, Bool("ok", true))
	assert.Equal(t, Field{Key: "d", Value: time.Second}, Duration("d", time.Second))
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
}

func TestZapLoggerEmitsFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core)

	log.Info("note processed",
		String("note_id", "n1"),
		Int("total_created", 2),
		Float64("confidence", 0.92),
	)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "note processed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "n1", fields["note_id"])
	assert.Equal(t, int64(2), fields["total_created"])
}

func TestWithAddsPersistentFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core).With(String("stage", "resolver"))

	log.Warn("fuzzy match below threshold")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "resolver", entries[0].ContextMap()["stage"])
}

func TestNamedNestsLoggerName(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core).Named("pipeline").Named("merge")

	log.Info("merged")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "pipeline.merge", entries[0].LoggerName)
}

func TestNewLoggerDefaults(t *testing.T) {
	log, err := NewLogger(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNopLoggerIsSilent(t *testing.T) {
	log := NewNopLogger()
	// Must not panic.
	log.Debug("a")
	log.Info("b")
	log.Warn("c")
	log.Error("d")
	assert.NotNil(t, log.With(String("k", "v")))
}

func TestDefaultLoggerSwap(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	core, observed := observer.New(zapcore.DebugLevel)
	SetDefault(NewLoggerFromCore(core))
	Default().Info("hello")
	assert.Len(t, observed.All(), 1)

	// nil is ignored.
	SetDefault(nil)
	assert.NotNil(t, Default())
}

package prometheus

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "archintel", Subsystem: "test"})
	require.NoError(t, err)
	return c
}

func TestNewMetricsCollectorRequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{})
	assert.Error(t, err)
}

func TestRegisterCounterIsIdempotent(t *testing.T) {
	c := newTestCollector(t)
	a := c.RegisterCounter("notes_total", "help", "outcome")
	b := c.RegisterCounter("notes_total", "help", "outcome")
	assert.Same(t, a, b)
}

func TestMetricsExposedOverHandler(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("notes_processed_total", "Notes processed", "outcome")
	vec.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "archintel_test_notes_processed_total")
}

func TestNewAppMetricsRegistersFullSet(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	require.NotNil(t, m)

	m.NotesProcessedTotal.WithLabelValues("ok").Inc()
	m.EntitiesCreatedTotal.WithLabelValues("office").Inc()
	m.StageDuration.WithLabelValues("resolver").Observe(0.02)
	m.StoreOpsTotal.WithLabelValues("create", "offices", "ok").Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "entities_created_total")
	assert.Contains(t, body, "stage_duration_seconds")
}

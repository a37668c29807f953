package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Histogram bucket presets.  Oracle calls are slow (LLM latency), store
// calls are fast, so they get separate bucket layouts.
var (
	DefaultStageDurationBuckets  = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultOracleDurationBuckets = []float64{.25, .5, 1, 2, 5, 10, 30, 60, 120}
	DefaultStoreDurationBuckets  = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// AppMetrics holds every metric the ingestion pipeline and its
// infrastructure emit.
type AppMetrics struct {
	// Pipeline
	NotesProcessedTotal  *prometheus.CounterVec // labels: outcome (ok|failed)
	NoteProcessDuration  *prometheus.HistogramVec
	StageDuration        *prometheus.HistogramVec // labels: stage
	EntitiesCreatedTotal *prometheus.CounterVec   // labels: kind
	EntitiesMergedTotal  *prometheus.CounterVec   // labels: kind
	CandidatesSkipped    *prometheus.CounterVec   // labels: reason
	RelationshipsTotal   *prometheus.CounterVec   // labels: relationship_type
	LocalFallbackTotal   *prometheus.CounterVec   // labels: kind

	// Oracles
	OracleCallsTotal   *prometheus.CounterVec // labels: oracle, outcome
	OracleCallDuration *prometheus.HistogramVec
	TranslationsTotal  *prometheus.CounterVec // labels: outcome
	EnrichmentTotal    *prometheus.CounterVec // labels: outcome (hit|miss|skipped|failed)

	// Store & cache
	StoreOpsTotal    *prometheus.CounterVec // labels: op, collection, outcome
	StoreOpDuration  *prometheus.HistogramVec
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec // labels: method, path, status
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewAppMetrics registers the full metric set on collector.
func NewAppMetrics(c MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.NotesProcessedTotal = c.RegisterCounter("notes_processed_total", "Notes processed by the ingestion pipeline", "outcome")
	m.NoteProcessDuration = c.RegisterHistogram("note_process_duration_seconds", "End-to-end note processing duration", DefaultStageDurationBuckets)
	m.StageDuration = c.RegisterHistogram("stage_duration_seconds", "Per-stage processing duration", DefaultStageDurationBuckets, "stage")
	m.EntitiesCreatedTotal = c.RegisterCounter("entities_created_total", "Entities created by the identity resolver", "kind")
	m.EntitiesMergedTotal = c.RegisterCounter("entities_merged_total", "Entities merged by the merge engine", "kind")
	m.CandidatesSkipped = c.RegisterCounter("candidates_skipped_total", "Candidates skipped by validation", "reason")
	m.RelationshipsTotal = c.RegisterCounter("relationships_inferred_total", "Relationships proposed by the inferencer", "relationship_type")
	m.LocalFallbackTotal = c.RegisterCounter("local_fallback_entities_total", "Entities kept in-memory after store write failure", "kind")

	m.OracleCallsTotal = c.RegisterCounter("oracle_calls_total", "External oracle invocations", "oracle", "outcome")
	m.OracleCallDuration = c.RegisterHistogram("oracle_call_duration_seconds", "Oracle call latency", DefaultOracleDurationBuckets, "oracle")
	m.TranslationsTotal = c.RegisterCounter("translations_total", "Translation attempts", "outcome")
	m.EnrichmentTotal = c.RegisterCounter("enrichment_total", "Location enrichment outcomes", "outcome")

	m.StoreOpsTotal = c.RegisterCounter("store_ops_total", "Document store operations", "op", "collection", "outcome")
	m.StoreOpDuration = c.RegisterHistogram("store_op_duration_seconds", "Document store operation latency", DefaultStoreDurationBuckets, "op")
	m.CacheHitsTotal = c.RegisterCounter("cache_hits_total", "Cache hits")
	m.CacheMissesTotal = c.RegisterCounter("cache_misses_total", "Cache misses")

	m.HTTPRequestsTotal = c.RegisterCounter("http_requests_total", "HTTP requests served", "method", "path", "status")
	m.HTTPRequestDuration = c.RegisterHistogram("http_request_duration_seconds", "HTTP request latency", nil, "method", "path")

	return m
}

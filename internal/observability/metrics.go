package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Question outcomes
const (
	OutcomeAnswered     = "answered"
	OutcomeAnswerFailed = "answer_failed"
	OutcomeFailed       = "failed"
)

// Metrics collects question pipeline metrics.
type Metrics interface {
	ObserveStage(stage string, duration time.Duration, err error)
	RecordQuestion(outcome string)
	ObserveMatches(count int)
	RecordEmbeddingCache(hit bool)
}

// PrometheusMetrics implements Metrics on a Prometheus registry
type PrometheusMetrics struct {
	stageDuration  *prometheus.HistogramVec
	questions      *prometheus.CounterVec
	matches        prometheus.Histogram
	embeddingCache *prometheus.CounterVec
}

// NewPrometheusMetrics registers the pipeline collectors on reg
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "room_qa",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each question pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "status"}),
		questions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "room_qa",
			Name:      "questions_total",
			Help:      "Questions processed by outcome",
		}, []string{"outcome"}),
		matches: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "room_qa",
			Name:      "retrieval_matches",
			Help:      "Number of transcript fragments retrieved per question",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),
		embeddingCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "room_qa",
			Name:      "embedding_cache_requests_total",
			Help:      "Embedding cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveStage records how long a stage took
func (m *PrometheusMetrics) ObserveStage(stage string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// RecordQuestion counts a finished question
func (m *PrometheusMetrics) RecordQuestion(outcome string) {
	m.questions.WithLabelValues(outcome).Inc()
}

// ObserveMatches records the retrieval result size
func (m *PrometheusMetrics) ObserveMatches(count int) {
	m.matches.Observe(float64(count))
}

// RecordEmbeddingCache counts a cache hit or miss
func (m *PrometheusMetrics) RecordEmbeddingCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.embeddingCache.WithLabelValues(result).Inc()
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) ObserveStage(string, time.Duration, error) {}
func (NopMetrics) RecordQuestion(string)                     {}
func (NopMetrics) ObserveMatches(int)                        {}
func (NopMetrics) RecordEmbeddingCache(bool)                 {}

package metrics

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ai_impression"

// Metrics 流水线指标，每个实例持有独立的 registry
type Metrics struct {
	registry *prometheus.Registry

	outcomes         *prometheus.CounterVec
	oracleFailures   *prometheus.CounterVec
	weightFallbacks  prometheus.Counter
	pipelineDuration *prometheus.HistogramVec
	queueDropped     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages handled by the pipeline, by outcome.",
		}, []string{"outcome"}),
		oracleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_failures_total",
			Help:      "Failed or malformed oracle calls, by oracle and template.",
		}, []string{"oracle", "template"}),
		weightFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weight_fallbacks_total",
			Help:      "Messages scored with the configured fallback weight.",
		}),
		pipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of one pipeline invocation, by outcome.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		queueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_dropped_total",
			Help:      "Async message events rejected because the queue was full.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.outcomes,
		m.oracleFailures,
		m.weightFallbacks,
		m.pipelineDuration,
		m.queueDropped,
	)
	return m
}

// ObserveOutcome 记录一次流水线执行结果与耗时
func (m *Metrics) ObserveOutcome(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
	m.pipelineDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) OracleFailure(oracle, template string) {
	if m == nil {
		return
	}
	m.oracleFailures.WithLabelValues(oracle, template).Inc()
}

func (m *Metrics) WeightFallback() {
	if m == nil {
		return
	}
	m.weightFallbacks.Inc()
}

func (m *Metrics) QueueDropped() {
	if m == nil {
		return
	}
	m.queueDropped.Inc()
}

// RegisterDBStats 暴露数据库连接池指标
func (m *Metrics) RegisterDBStats(db *sql.DB, dbName string) error {
	if m == nil || db == nil {
		return nil
	}
	return m.registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

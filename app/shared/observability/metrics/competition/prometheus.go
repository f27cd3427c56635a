package competitionmetrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricOperationsTotal   = "competition_operations_total"
	MetricOperationDuration = "competition_operation_duration_seconds"
	MetricRecomputesTotal   = "competition_recomputes_total"
	MetricRecomputeDuration = "competition_recompute_duration_seconds"
	MetricRankingEntries    = "competition_ranking_entries"
	MetricPlaceQueriesTotal = "competition_place_queries_total"
)

// PrometheusMetrics records competition metrics into Prometheus collectors.
type PrometheusMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	recomputes        *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	rankingEntries    *prometheus.GaugeVec
	placeQueries      *prometheus.CounterVec
}

// NewPrometheusMetrics creates the collectors. Call Register to expose them.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricOperationsTotal,
				Help: "Competition service operations by operation, service and result",
			},
			[]string{"operation", "service", "result"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricOperationDuration,
				Help:    "Competition service operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "service"},
		),
		recomputes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRecomputesTotal,
				Help: "Ranking recomputes by metric and status",
			},
			[]string{"metric", "status"},
		),
		recomputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRecomputeDuration,
				Help:    "Ranking recompute duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"metric"},
		),
		rankingEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricRankingEntries,
				Help: "Entries stored by the last applied recompute",
			},
			[]string{"metric", "pool"},
		),
		placeQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPlaceQueriesTotal,
				Help: "PlaceOf lookups by outcome",
			},
			[]string{"outcome", "cached"},
		),
	}
}

// Register registers all collectors with reg.
func (m *PrometheusMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns every collector owned by m.
func (m *PrometheusMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.operations,
		m.operationDuration,
		m.recomputes,
		m.recomputeDuration,
		m.rankingEntries,
		m.placeQueries,
	}
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(operation, service, "attempt").Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(operation, service, "success").Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(operation, service, "failure").Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordRecompute(_ context.Context, metric, status string, duration time.Duration) {
	m.recomputes.WithLabelValues(metric, status).Inc()
	m.recomputeDuration.WithLabelValues(metric).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordRankingSize(_ context.Context, metric, pool string, size int) {
	m.rankingEntries.WithLabelValues(metric, pool).Set(float64(size))
}

func (m *PrometheusMetrics) RecordPlaceQuery(_ context.Context, outcome string, cached bool) {
	m.placeQueries.WithLabelValues(outcome, strconv.FormatBool(cached)).Inc()
}

var _ CompetitionMetrics = (*PrometheusMetrics)(nil)

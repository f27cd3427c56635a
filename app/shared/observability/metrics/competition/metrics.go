// Package competitionmetrics defines the metrics recorded by the competition module.
package competitionmetrics

import (
	"context"
	"time"
)

// Pool labels.
const (
	PoolSolo   = "solo"
	PoolTandem = "tandem"
)

// CompetitionMetrics is implemented by the Prometheus recorder and by NoOpMetrics.
type CompetitionMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)

	// RecordRecompute counts a finished recompute by metric and outcome status.
	RecordRecompute(ctx context.Context, metric, status string, duration time.Duration)
	// RecordRankingSize tracks how many entries the last applied recompute stored per pool.
	RecordRankingSize(ctx context.Context, metric, pool string, size int)
	// RecordPlaceQuery counts PlaceOf lookups by outcome and cache usage.
	RecordPlaceQuery(ctx context.Context, outcome string, cached bool)
}

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

func NewNoop() *NoOpMetrics { return &NoOpMetrics{} }

func (*NoOpMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (*NoOpMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (*NoOpMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (*NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (*NoOpMetrics) RecordRecompute(context.Context, string, string, time.Duration)         {}
func (*NoOpMetrics) RecordRankingSize(context.Context, string, string, int)                 {}
func (*NoOpMetrics) RecordPlaceQuery(context.Context, string, bool)                         {}

var _ CompetitionMetrics = (*NoOpMetrics)(nil)

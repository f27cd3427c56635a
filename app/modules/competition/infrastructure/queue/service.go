package competitionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	"github.com/d2avids/rso-sub000/app/shared/observability/attr"
	competitionmetrics "github.com/d2avids/rso-sub000/app/shared/observability/metrics/competition"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

const metricsService = "river"

// Config tunes the ranking queue.
type Config struct {
	SweepInterval    time.Duration
	RecomputeTimeout time.Duration
	Workers          int
}

// QueueService defines the contract for ranking job scheduling.
type QueueService interface {
	// EnqueueRecompute schedules a recompute unless an identical one is pending.
	EnqueueRecompute(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) error
	// SweepNow runs one sweep immediately.
	SweepNow(ctx context.Context) (int, error)
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service handles ranking job scheduling using River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	service Recomputer
	logger  *slog.Logger
	metrics competitionmetrics.CompetitionMetrics
}

// NewService creates the River client, its workers and the periodic sweep.
func NewService(ctx context.Context, dsn string, service Recomputer, logger *slog.Logger, metrics competitionmetrics.CompetitionMetrics, cfg Config) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_ranking_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", metricsService)

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, err
	}

	sweep := NewSweepWorker(service, ctxLogger)
	workers := river.NewWorkers()
	river.AddWorker(workers, NewRecomputeWorker(service, ctxLogger, cfg.RecomputeTimeout))
	river.AddWorker(workers, sweep)

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger: ctxLogger,
		Queues: map[string]river.QueueConfig{
			QueueRanking: {MaxWorkers: max(cfg.Workers, 1)},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.SweepInterval),
				func() (river.JobArgs, *river.InsertOpts) { return SweepJob{}, nil },
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	s := &Service{
		client:  riverClient,
		pool:    pool,
		service: service,
		logger:  ctxLogger,
		metrics: metrics,
	}
	sweep.enqueuer = s

	metrics.RecordOperationSuccess(ctx, "initialize_service", metricsService)
	metrics.RecordOperationDuration(ctx, "initialize_service", metricsService, time.Since(start))

	ctxLogger.Info("Ranking queue service initialized",
		attr.Duration("sweep_interval", cfg.SweepInterval),
		attr.Duration("recompute_timeout", cfg.RecomputeTimeout),
	)
	return s, nil
}

// Migrate brings the river schema up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("failed to migrate river schema: %w", err)
	}
	return nil
}

func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting ranking queue service")
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		return fmt.Errorf("failed to start River client: %w", err)
	}
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping ranking queue service")
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	return nil
}

func (s *Service) EnqueueRecompute(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) error {
	_, err := s.EnqueueRecomputes(ctx, []RecomputeJob{{CompetitionID: int64(competitionID), Metric: string(metric)}})
	return err
}

// EnqueueRecomputes inserts jobs in one batch. Jobs already pending with the
// same args are skipped and not counted.
func (s *Service) EnqueueRecomputes(ctx context.Context, jobs []RecomputeJob) (int, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "enqueue_recompute", metricsService)

	params := make([]river.InsertManyParams, 0, len(jobs))
	for _, j := range jobs {
		params = append(params, river.InsertManyParams{Args: j})
	}

	res, err := s.client.InsertMany(ctx, params)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "enqueue_recompute", metricsService)
		return 0, fmt.Errorf("failed to insert recompute jobs: %w", err)
	}

	inserted := 0
	for _, r := range res {
		if !r.UniqueSkippedAsDuplicate {
			inserted++
		}
	}

	s.metrics.RecordOperationSuccess(ctx, "enqueue_recompute", metricsService)
	s.metrics.RecordOperationDuration(ctx, "enqueue_recompute", metricsService, time.Since(start))
	return inserted, nil
}

func (s *Service) SweepNow(ctx context.Context) (int, error) {
	return Sweep(ctx, s.service, s, s.logger)
}

// HealthCheck verifies the queue database is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("river client is nil")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	return nil
}

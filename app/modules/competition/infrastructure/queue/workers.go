package competitionqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	competitionservice "github.com/d2avids/rso-sub000/app/modules/competition/application"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	competitiondb "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories"
	"github.com/d2avids/rso-sub000/app/shared/observability/attr"
	"github.com/riverqueue/river"
)

// Recomputer is the part of the competition service the workers drive.
type Recomputer interface {
	Recompute(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) (*competitiondomain.RecomputeOutcome, error)
	ListOpenMetrics(ctx context.Context) ([]competitionservice.OpenMetric, error)
}

// Enqueuer inserts recompute jobs and reports how many were new.
type Enqueuer interface {
	EnqueueRecomputes(ctx context.Context, jobs []RecomputeJob) (int, error)
}

// RecomputeWorker runs one recompute per job.
type RecomputeWorker struct {
	river.WorkerDefaults[RecomputeJob]
	service Recomputer
	logger  *slog.Logger
	timeout time.Duration
}

func NewRecomputeWorker(service Recomputer, logger *slog.Logger, timeout time.Duration) *RecomputeWorker {
	return &RecomputeWorker{service: service, logger: logger, timeout: timeout}
}

func (w *RecomputeWorker) Timeout(*river.Job[RecomputeJob]) time.Duration {
	return w.timeout
}

func (w *RecomputeWorker) Work(ctx context.Context, job *river.Job[RecomputeJob]) error {
	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.Int64("competition_id", job.Args.CompetitionID),
		attr.String("metric", job.Args.Metric),
	)

	outcome, err := w.service.Recompute(ctx, competitiondomain.CompetitionID(job.Args.CompetitionID), competitiondomain.MetricID(job.Args.Metric))
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) || errors.Is(err, competitiondomain.ErrUnknownMetric) {
			logger.WarnContext(ctx, "Cancelling recompute job that cannot succeed", attr.Error(err))
			return river.JobCancel(err)
		}
		logger.ErrorContext(ctx, "Recompute job failed", attr.Int("attempt", job.Attempt), attr.Error(err))
		return err
	}

	logger.InfoContext(ctx, "Recompute job finished", attr.String("status", string(outcome.Status)))
	return nil
}

// SweepWorker fans the periodic sweep out into per-metric recompute jobs.
type SweepWorker struct {
	river.WorkerDefaults[SweepJob]
	service  Recomputer
	enqueuer Enqueuer
	logger   *slog.Logger
}

func NewSweepWorker(service Recomputer, logger *slog.Logger) *SweepWorker {
	return &SweepWorker{service: service, logger: logger}
}

func (w *SweepWorker) Work(ctx context.Context, _ *river.Job[SweepJob]) error {
	if w.enqueuer == nil {
		return fmt.Errorf("sweep worker has no enqueuer")
	}
	_, err := Sweep(ctx, w.service, w.enqueuer, w.logger)
	return err
}

// Sweep enqueues a recompute job for every open (competition, metric) and
// returns the number of jobs that were not already pending.
func Sweep(ctx context.Context, service Recomputer, enqueuer Enqueuer, logger *slog.Logger) (int, error) {
	open, err := service.ListOpenMetrics(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list open metrics: %w", err)
	}
	if len(open) == 0 {
		logger.DebugContext(ctx, "Ranking sweep found nothing open")
		return 0, nil
	}

	jobs := make([]RecomputeJob, 0, len(open))
	for _, m := range open {
		jobs = append(jobs, RecomputeJob{CompetitionID: int64(m.CompetitionID), Metric: string(m.Metric)})
	}

	inserted, err := enqueuer.EnqueueRecomputes(ctx, jobs)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue recomputes: %w", err)
	}

	logger.InfoContext(ctx, "Ranking sweep enqueued recomputes",
		attr.Int("open_metrics", len(open)),
		attr.Int("inserted", inserted),
	)
	return inserted, nil
}

package competitionqueue

import (
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// QueueRanking is the dedicated river queue for ranking jobs.
const QueueRanking = "ranking"

// uniqueWhilePending collapses identical jobs only while one is still waiting
// or running. River's default set also matches completed jobs until the
// cleaner removes them.
func uniqueWhilePending() river.UniqueOpts {
	return river.UniqueOpts{
		ByArgs: true,
		ByState: []rivertype.JobState{
			rivertype.JobStateAvailable,
			rivertype.JobStatePending,
			rivertype.JobStateRetryable,
			rivertype.JobStateRunning,
			rivertype.JobStateScheduled,
		},
	}
}

// RecomputeJob recomputes one (competition, metric). Identical pending jobs
// are collapsed by their args.
type RecomputeJob struct {
	CompetitionID int64  `json:"competition_id"`
	Metric        string `json:"metric"`
}

// Kind returns the job type identifier for River
func (RecomputeJob) Kind() string { return "ranking_recompute" }

func (RecomputeJob) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueRanking,
		MaxAttempts: 5,
		UniqueOpts:  uniqueWhilePending(),
	}
}

// SweepJob enqueues a RecomputeJob for every open metric.
type SweepJob struct{}

// Kind returns the job type identifier for River
func (SweepJob) Kind() string { return "ranking_sweep" }

func (SweepJob) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueRanking,
		MaxAttempts: 1,
		UniqueOpts:  uniqueWhilePending(),
	}
}

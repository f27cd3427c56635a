package competitiondb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository defines the contract for competition persistence.
// Every method accepts an optional bun.IDB so callers can run it inside a
// transaction; nil selects the repository's own connection.
//
// Error semantics:
//   - ErrNotFound: the row does not exist, or a guarded delete matched nothing
//   - ErrDuplicateReport: a report for (competition, detachment, metric) exists
//   - ErrPairingConflict: one of the detachments is already paired
type Repository interface {
	CreateCompetition(ctx context.Context, db bun.IDB, c *Competition) error
	GetCompetition(ctx context.Context, db bun.IDB, id int64) (*Competition, error)
	UpdateCompetition(ctx context.Context, db bun.IDB, c *Competition) error
	ListCompetitions(ctx context.Context, db bun.IDB) ([]Competition, error)

	GetCutoff(ctx context.Context, db bun.IDB, competitionID int64, metric string) (*MetricCutoff, error)
	ListCutoffs(ctx context.Context, db bun.IDB, competitionID int64) ([]MetricCutoff, error)
	UpsertCutoff(ctx context.Context, db bun.IDB, cutoff *MetricCutoff) error

	UpsertDetachment(ctx context.Context, db bun.IDB, d *Detachment) error
	GetDetachments(ctx context.Context, db bun.IDB, ids []int64) ([]Detachment, error)

	CreateReport(ctx context.Context, db bun.IDB, r *MetricReport) error
	GetReport(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*MetricReport, error)
	UpdateReport(ctx context.Context, db bun.IDB, r *MetricReport) error
	// DeleteUnverifiedReport removes the report only while it is unverified.
	DeleteUnverifiedReport(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) error
	ListVerifiedReports(ctx context.Context, db bun.IDB, competitionID int64, metric string) ([]MetricReport, error)
	// AnyReport reports whether any of the detachments holds a report in any state.
	AnyReport(ctx context.Context, db bun.IDB, competitionID int64, metric string, detachmentIDs ...int64) (bool, error)
	CountReports(ctx context.Context, db bun.IDB, competitionID int64) (int, error)

	CreatePairing(ctx context.Context, db bun.IDB, p *TandemPairing) error
	DeletePairing(ctx context.Context, db bun.IDB, competitionID, mentorID, juniorID int64) error
	GetPairingFor(ctx context.Context, db bun.IDB, competitionID, detachmentID int64) (*TandemPairing, error)
	ListPairings(ctx context.Context, db bun.IDB, competitionID int64) ([]TandemPairing, error)

	// AcquireRankingLock takes a transaction scoped advisory lock for the
	// (competition, metric) key. Must be called within a transaction.
	AcquireRankingLock(ctx context.Context, db bun.IDB, competitionID int64, metric string) error
	// AcquirePairingLock serialises pairing writes within a competition.
	AcquirePairingLock(ctx context.Context, db bun.IDB, competitionID int64) error
	// ReplaceRankings deletes both stored pools of the key and inserts the new rows.
	ReplaceRankings(ctx context.Context, db bun.IDB, competitionID int64, metric string, solo []Ranking, tandem []TandemRanking, computedAt time.Time) error
	GetSoloPlace(ctx context.Context, db bun.IDB, competitionID int64, metric string, detachmentID int64) (*Ranking, error)
	GetTandemPlace(ctx context.Context, db bun.IDB, competitionID int64, metric string, mentorID, juniorID int64) (*TandemRanking, error)
	ListRankings(ctx context.Context, db bun.IDB, competitionID int64, metric string) ([]Ranking, []TandemRanking, error)
}

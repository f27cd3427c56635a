package competitionservice

import (
	"context"
	"time"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
)

// Service is the competition ranking application service.
type Service interface {
	// Ranking
	Recompute(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) (*competitiondomain.RecomputeOutcome, error)
	PlaceOf(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID, detachmentID competitiondomain.DetachmentID) (competitiondomain.PlaceResult, error)
	GetStandings(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) (*competitiondomain.Standings, error)
	ListOpenMetrics(ctx context.Context) ([]OpenMetric, error)

	// Reports
	SubmitReport(ctx context.Context, req ReportRequest) (*competitiondomain.Report, error)
	EditReport(ctx context.Context, req ReportRequest) (*competitiondomain.Report, error)
	VerifyReport(ctx context.Context, key ReportKey) (*competitiondomain.Report, error)
	DeleteReport(ctx context.Context, key ReportKey) error
	GetReport(ctx context.Context, key ReportKey) (*competitiondomain.Report, error)

	// Pairings
	CreatePairing(ctx context.Context, pairing competitiondomain.Pairing) (*competitiondomain.Pairing, error)
	DeletePairing(ctx context.Context, pairing competitiondomain.Pairing) error
	ResolvePairing(ctx context.Context, competitionID competitiondomain.CompetitionID, detachmentID competitiondomain.DetachmentID) (competitiondomain.Resolution, error)

	// Competitions and registry
	CreateCompetition(ctx context.Context, c competitiondomain.Competition) (*competitiondomain.Competition, error)
	UpdateCompetition(ctx context.Context, c competitiondomain.Competition) (*competitiondomain.Competition, error)
	SetMetricCutoff(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID, input string) (time.Time, error)
	UpsertDetachment(ctx context.Context, d competitiondomain.Detachment) (*competitiondomain.Detachment, error)
}

// ReportKey addresses one report.
type ReportKey struct {
	CompetitionID competitiondomain.CompetitionID
	DetachmentID  competitiondomain.DetachmentID
	Metric        competitiondomain.MetricID
}

// ReportRequest carries the data of a submitted or edited report.
type ReportRequest struct {
	ReportKey
	Data competitiondomain.ReportData
}

// OpenMetric is a (competition, metric) pair that still recomputes.
type OpenMetric struct {
	CompetitionID competitiondomain.CompetitionID
	Metric        competitiondomain.MetricID
	Cutoff        time.Time
}

// PlaceKey addresses a cached place lookup.
type PlaceKey struct {
	CompetitionID competitiondomain.CompetitionID
	Metric        competitiondomain.MetricID
	DetachmentID  competitiondomain.DetachmentID
}

// PlaceCache stores ranked PlaceOf answers between recomputes.
type PlaceCache interface {
	// GetPlace looks key up in the current generation and also returns that
	// generation, so a miss can be filled for the state it observed.
	GetPlace(ctx context.Context, key PlaceKey) (competitiondomain.PlaceResult, int64, bool, error)
	// SetPlace stores result under generation. Writes for a superseded
	// generation are never served.
	SetPlace(ctx context.Context, key PlaceKey, generation int64, result competitiondomain.PlaceResult) error
	// Invalidate drops every cached place of the (competition, metric).
	Invalidate(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

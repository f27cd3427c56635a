package competitionhandlers

import (
	"context"
	"sync"
	"time"

	competitionservice "github.com/d2avids/rso-sub000/app/modules/competition/application"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
)

// ------------------------
// Fake Competition Service
// ------------------------

type FakeCompetitionService struct {
	mu    sync.Mutex
	trace []string

	RecomputeFunc         func(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) (*competitiondomain.RecomputeOutcome, error)
	PlaceOfFunc           func(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID, detachmentID competitiondomain.DetachmentID) (competitiondomain.PlaceResult, error)
	GetStandingsFunc      func(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) (*competitiondomain.Standings, error)
	ListOpenMetricsFunc   func(ctx context.Context) ([]competitionservice.OpenMetric, error)
	SubmitReportFunc      func(ctx context.Context, req competitionservice.ReportRequest) (*competitiondomain.Report, error)
	EditReportFunc        func(ctx context.Context, req competitionservice.ReportRequest) (*competitiondomain.Report, error)
	VerifyReportFunc      func(ctx context.Context, key competitionservice.ReportKey) (*competitiondomain.Report, error)
	DeleteReportFunc      func(ctx context.Context, key competitionservice.ReportKey) error
	GetReportFunc         func(ctx context.Context, key competitionservice.ReportKey) (*competitiondomain.Report, error)
	CreatePairingFunc     func(ctx context.Context, pairing competitiondomain.Pairing) (*competitiondomain.Pairing, error)
	DeletePairingFunc     func(ctx context.Context, pairing competitiondomain.Pairing) error
	ResolvePairingFunc    func(ctx context.Context, competitionID competitiondomain.CompetitionID, detachmentID competitiondomain.DetachmentID) (competitiondomain.Resolution, error)
	CreateCompetitionFunc func(ctx context.Context, c competitiondomain.Competition) (*competitiondomain.Competition, error)
	UpdateCompetitionFunc func(ctx context.Context, c competitiondomain.Competition) (*competitiondomain.Competition, error)
	SetMetricCutoffFunc   func(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID, input string) (time.Time, error)
	UpsertDetachmentFunc  func(ctx context.Context, d competitiondomain.Detachment) (*competitiondomain.Detachment, error)
}

func NewFakeCompetitionService() *FakeCompetitionService {
	return &FakeCompetitionService{trace: []string{}}
}

func (f *FakeCompetitionService) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeCompetitionService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.trace...)
}

// --- Service Interface Implementation ---

func (f *FakeCompetitionService) Recompute(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) (*competitiondomain.RecomputeOutcome, error) {
	f.record("Recompute")
	if f.RecomputeFunc != nil {
		return f.RecomputeFunc(ctx, competitionID, metric)
	}
	return nil, nil
}

func (f *FakeCompetitionService) PlaceOf(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID, detachmentID competitiondomain.DetachmentID) (competitiondomain.PlaceResult, error) {
	f.record("PlaceOf")
	if f.PlaceOfFunc != nil {
		return f.PlaceOfFunc(ctx, competitionID, metric, detachmentID)
	}
	return competitiondomain.PlaceResult{}, nil
}

func (f *FakeCompetitionService) GetStandings(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) (*competitiondomain.Standings, error) {
	f.record("GetStandings")
	if f.GetStandingsFunc != nil {
		return f.GetStandingsFunc(ctx, competitionID, metric)
	}
	return nil, nil
}

func (f *FakeCompetitionService) ListOpenMetrics(ctx context.Context) ([]competitionservice.OpenMetric, error) {
	f.record("ListOpenMetrics")
	if f.ListOpenMetricsFunc != nil {
		return f.ListOpenMetricsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeCompetitionService) SubmitReport(ctx context.Context, req competitionservice.ReportRequest) (*competitiondomain.Report, error) {
	f.record("SubmitReport")
	if f.SubmitReportFunc != nil {
		return f.SubmitReportFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeCompetitionService) EditReport(ctx context.Context, req competitionservice.ReportRequest) (*competitiondomain.Report, error) {
	f.record("EditReport")
	if f.EditReportFunc != nil {
		return f.EditReportFunc(ctx, req)
	}
	return nil, nil
}

func (f *FakeCompetitionService) VerifyReport(ctx context.Context, key competitionservice.ReportKey) (*competitiondomain.Report, error) {
	f.record("VerifyReport")
	if f.VerifyReportFunc != nil {
		return f.VerifyReportFunc(ctx, key)
	}
	return nil, nil
}

func (f *FakeCompetitionService) DeleteReport(ctx context.Context, key competitionservice.ReportKey) error {
	f.record("DeleteReport")
	if f.DeleteReportFunc != nil {
		return f.DeleteReportFunc(ctx, key)
	}
	return nil
}

func (f *FakeCompetitionService) GetReport(ctx context.Context, key competitionservice.ReportKey) (*competitiondomain.Report, error) {
	f.record("GetReport")
	if f.GetReportFunc != nil {
		return f.GetReportFunc(ctx, key)
	}
	return nil, nil
}

func (f *FakeCompetitionService) CreatePairing(ctx context.Context, pairing competitiondomain.Pairing) (*competitiondomain.Pairing, error) {
	f.record("CreatePairing")
	if f.CreatePairingFunc != nil {
		return f.CreatePairingFunc(ctx, pairing)
	}
	return nil, nil
}

func (f *FakeCompetitionService) DeletePairing(ctx context.Context, pairing competitiondomain.Pairing) error {
	f.record("DeletePairing")
	if f.DeletePairingFunc != nil {
		return f.DeletePairingFunc(ctx, pairing)
	}
	return nil
}

func (f *FakeCompetitionService) ResolvePairing(ctx context.Context, competitionID competitiondomain.CompetitionID, detachmentID competitiondomain.DetachmentID) (competitiondomain.Resolution, error) {
	f.record("ResolvePairing")
	if f.ResolvePairingFunc != nil {
		return f.ResolvePairingFunc(ctx, competitionID, detachmentID)
	}
	return competitiondomain.Resolution{}, nil
}

func (f *FakeCompetitionService) CreateCompetition(ctx context.Context, c competitiondomain.Competition) (*competitiondomain.Competition, error) {
	f.record("CreateCompetition")
	if f.CreateCompetitionFunc != nil {
		return f.CreateCompetitionFunc(ctx, c)
	}
	return nil, nil
}

func (f *FakeCompetitionService) UpdateCompetition(ctx context.Context, c competitiondomain.Competition) (*competitiondomain.Competition, error) {
	f.record("UpdateCompetition")
	if f.UpdateCompetitionFunc != nil {
		return f.UpdateCompetitionFunc(ctx, c)
	}
	return nil, nil
}

func (f *FakeCompetitionService) SetMetricCutoff(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID, input string) (time.Time, error) {
	f.record("SetMetricCutoff")
	if f.SetMetricCutoffFunc != nil {
		return f.SetMetricCutoffFunc(ctx, competitionID, metric, input)
	}
	return time.Time{}, nil
}

func (f *FakeCompetitionService) UpsertDetachment(ctx context.Context, d competitiondomain.Detachment) (*competitiondomain.Detachment, error) {
	f.record("UpsertDetachment")
	if f.UpsertDetachmentFunc != nil {
		return f.UpsertDetachmentFunc(ctx, d)
	}
	return nil, nil
}

var _ competitionservice.Service = (*FakeCompetitionService)(nil)

package competitionservice

import (
	"context"
	"errors"
	"slices"
	"testing"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	competitiondb "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func sportData(participants int) competitiondomain.ReportData {
	return competitiondomain.ReportData{Events: []competitiondomain.EventEntry{{
		Name:         "Спартакиада",
		Category:     competitiondomain.CategorySport,
		Participants: participants,
		Links:        []string{"https://vk.com/wall-1_100"},
	}}}
}

func reportKey(d competitiondomain.DetachmentID) ReportKey {
	return ReportKey{CompetitionID: testCompetitionID, DetachmentID: d, Metric: "q17"}
}

func TestSubmitReport(t *testing.T) {
	tests := []struct {
		name      string
		req       ReportRequest
		setupRepo func(*FakeCompetitionRepo)
		wantErr   error
		wantField string
		wantTrace []string
	}{
		{
			name:      "stores an unverified report",
			req:       ReportRequest{ReportKey: reportKey(1), Data: sportData(5)},
			setupRepo: withCompetition,
			wantTrace: []string{"GetCompetition", "GetCutoff", "CreateReport"},
		},
		{
			name:      "invalid data",
			req:       ReportRequest{ReportKey: reportKey(1)},
			setupRepo: withCompetition,
			wantField: "events",
			wantTrace: []string{"GetCompetition", "GetCutoff"},
		},
		{
			name:      "unknown metric",
			req:       ReportRequest{ReportKey: ReportKey{CompetitionID: testCompetitionID, DetachmentID: 1, Metric: "q3"}, Data: sportData(1)},
			setupRepo: withCompetition,
			wantField: "metric",
			wantTrace: []string{},
		},
		{
			name: "after cutoff",
			req:  ReportRequest{ReportKey: reportKey(1), Data: sportData(5)},
			setupRepo: func(f *FakeCompetitionRepo) {
				withCompetition(f)
				f.GetCutoffFunc = func(ctx context.Context, db bun.IDB, competitionID int64, metric string) (*competitiondb.MetricCutoff, error) {
					return &competitiondb.MetricCutoff{CutoffDate: date(2026, 10, 1)}, nil
				}
			},
			wantErr:   competitiondomain.ErrReportingClosed,
			wantTrace: []string{"GetCompetition", "GetCutoff"},
		},
		{
			name: "before the competition starts",
			req:  ReportRequest{ReportKey: reportKey(1), Data: sportData(5)},
			setupRepo: func(f *FakeCompetitionRepo) {
				f.GetCompetitionFunc = func(ctx context.Context, db bun.IDB, id int64) (*competitiondb.Competition, error) {
					c := testCompetition()
					c.StartsAt = date(2026, 11, 1)
					return c, nil
				}
			},
			wantErr:   competitiondomain.ErrReportingClosed,
			wantTrace: []string{"GetCompetition", "GetCutoff"},
		},
		{
			name: "duplicate report",
			req:  ReportRequest{ReportKey: reportKey(1), Data: sportData(5)},
			setupRepo: func(f *FakeCompetitionRepo) {
				withCompetition(f)
				f.CreateReportFunc = func(ctx context.Context, db bun.IDB, r *competitiondb.MetricReport) error {
					return competitiondb.ErrDuplicateReport
				}
			},
			wantErr:   competitiondb.ErrDuplicateReport,
			wantTrace: []string{"GetCompetition", "GetCutoff", "CreateReport"},
		},
		{
			name:      "unknown competition",
			req:       ReportRequest{ReportKey: ReportKey{CompetitionID: 99, DetachmentID: 1, Metric: "q17"}, Data: sportData(5)},
			setupRepo: withCompetition,
			wantErr:   competitiondb.ErrNotFound,
			wantTrace: []string{"GetCompetition"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeCompetitionRepo()
			tt.setupRepo(repo)

			report, err := newTestService(repo, nil, nil).SubmitReport(context.Background(), tt.req)
			assert.Equal(t, tt.wantTrace, repo.Trace())

			switch {
			case tt.wantField != "":
				var verr *competitiondomain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, tt.wantField)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.False(t, report.IsVerified)
				assert.Nil(t, report.Score)
				assert.Equal(t, competitiondomain.MetricID("q17"), report.Metric)
			}
		})
	}
}

func TestVerifyReport(t *testing.T) {
	t.Run("scores, stores and recomputes", func(t *testing.T) {
		repo := NewFakeCompetitionRepo()
		withCompetition(repo)
		stored := sportReport(1, 6, false)
		repo.GetReportFunc = func(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*competitiondb.MetricReport, error) {
			r := stored
			return &r, nil
		}
		var updated *competitiondb.MetricReport
		repo.UpdateReportFunc = func(ctx context.Context, db bun.IDB, r *competitiondb.MetricReport) error {
			updated = r
			return nil
		}

		report, err := newTestService(repo, nil, nil).VerifyReport(context.Background(), reportKey(1))
		require.NoError(t, err)

		require.NotNil(t, updated)
		assert.True(t, updated.IsVerified)
		require.NotNil(t, updated.Score)
		assert.Equal(t, 6.0, *updated.Score)
		assert.Equal(t, testNow.UTC(), *updated.VerifiedAt)
		assert.True(t, report.IsVerified)

		trace := repo.Trace()
		assert.Equal(t, []string{"GetReport", "UpdateReport"}, trace[:2])
		assert.Contains(t, trace, "AcquireRankingLock")
	})

	t.Run("already verified is a no-op", func(t *testing.T) {
		repo := NewFakeCompetitionRepo()
		repo.GetReportFunc = func(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*competitiondb.MetricReport, error) {
			r := sportReport(1, 6, true)
			return &r, nil
		}

		report, err := newTestService(repo, nil, nil).VerifyReport(context.Background(), reportKey(1))
		require.NoError(t, err)
		assert.True(t, report.IsVerified)
		assert.Equal(t, []string{"GetReport"}, repo.Trace())
	})

	t.Run("recompute failure does not fail verification", func(t *testing.T) {
		repo := NewFakeCompetitionRepo()
		withCompetition(repo)
		repo.GetReportFunc = func(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*competitiondb.MetricReport, error) {
			r := sportReport(1, 6, false)
			return &r, nil
		}
		repo.ListVerifiedReportsFunc = func(ctx context.Context, db bun.IDB, competitionID int64, metric string) ([]competitiondb.MetricReport, error) {
			return nil, errors.New("statement timeout")
		}

		report, err := newTestService(repo, nil, nil).VerifyReport(context.Background(), reportKey(1))
		require.NoError(t, err)
		assert.True(t, report.IsVerified)
	})

	t.Run("missing report", func(t *testing.T) {
		_, err := newTestService(NewFakeCompetitionRepo(), nil, nil).VerifyReport(context.Background(), reportKey(1))
		assert.ErrorIs(t, err, competitiondb.ErrNotFound)
	})
}

func TestEditReport(t *testing.T) {
	tests := []struct {
		name          string
		verified      bool
		wantScore     *float64
		wantRecompute bool
	}{
		{name: "unverified report does not recompute", verified: false},
		{name: "verified report is rescored and recomputed", verified: true, wantScore: ptrFloat(9), wantRecompute: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeCompetitionRepo()
			withCompetition(repo)
			repo.GetReportFunc = func(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*competitiondb.MetricReport, error) {
				r := sportReport(1, 2, tt.verified)
				return &r, nil
			}
			var updated *competitiondb.MetricReport
			repo.UpdateReportFunc = func(ctx context.Context, db bun.IDB, r *competitiondb.MetricReport) error {
				updated = r
				return nil
			}

			_, err := newTestService(repo, nil, nil).EditReport(context.Background(), ReportRequest{ReportKey: reportKey(1), Data: sportData(9)})
			require.NoError(t, err)

			require.NotNil(t, updated)
			assert.Equal(t, 9, updated.Data.Events[0].Participants)
			assert.Equal(t, tt.wantScore, updated.Score)
			assert.Equal(t, tt.wantRecompute, slices.Contains(repo.Trace(), "AcquireRankingLock"))
		})
	}
}

func TestDeleteReport(t *testing.T) {
	t.Run("unverified report is deleted", func(t *testing.T) {
		repo := NewFakeCompetitionRepo()
		repo.GetReportFunc = func(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*competitiondb.MetricReport, error) {
			r := sportReport(1, 2, false)
			return &r, nil
		}
		require.NoError(t, newTestService(repo, nil, nil).DeleteReport(context.Background(), reportKey(1)))
		assert.Equal(t, []string{"GetReport", "DeleteUnverifiedReport"}, repo.Trace())
	})

	t.Run("verified report is kept", func(t *testing.T) {
		repo := NewFakeCompetitionRepo()
		repo.GetReportFunc = func(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*competitiondb.MetricReport, error) {
			r := sportReport(1, 2, true)
			return &r, nil
		}
		err := newTestService(repo, nil, nil).DeleteReport(context.Background(), reportKey(1))
		assert.ErrorIs(t, err, competitiondomain.ErrReportVerified)
		assert.Equal(t, []string{"GetReport"}, repo.Trace())
	})
}

func TestGetReport(t *testing.T) {
	repo := NewFakeCompetitionRepo()
	repo.GetReportFunc = func(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*competitiondb.MetricReport, error) {
		r := sportReport(detachmentID, 3, true)
		return &r, nil
	}
	report, err := newTestService(repo, nil, nil).GetReport(context.Background(), reportKey(4))
	require.NoError(t, err)
	assert.Equal(t, competitiondomain.DetachmentID(4), report.DetachmentID)
}

func ptrFloat(f float64) *float64 { return &f }

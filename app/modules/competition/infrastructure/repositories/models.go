package competitiondb

import (
	"time"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	"github.com/uptrace/bun"
)

// Competition is a ranking contest with a reporting window.
type Competition struct {
	bun.BaseModel `bun:"table:competitions,alias:c"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull"`
	StartsAt      time.Time `bun:"starts_at,type:date,notnull"`
	EndsAt        time.Time `bun:"ends_at,type:date,notnull"`
	CreatedAt     time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// MetricCutoff overrides the competition end date for one metric.
type MetricCutoff struct {
	bun.BaseModel `bun:"table:competition_metric_cutoffs,alias:mc"`
	CompetitionID int64     `bun:"competition_id,pk"`
	Metric        string    `bun:"metric,pk"`
	CutoffDate    time.Time `bun:"cutoff_date,type:date,notnull"`
	UpdatedAt     time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// Detachment is the local registry copy of a team.
type Detachment struct {
	bun.BaseModel `bun:"table:detachments,alias:d"`
	ID            int64      `bun:"id,pk"`
	Name          string     `bun:"name,notnull"`
	FoundedAt     *time.Time `bun:"founded_at,type:date"`
	UpdatedAt     time.Time  `bun:",nullzero,notnull,default:current_timestamp"`
}

// TandemPairing joins a mentor and a junior detachment in one competition.
type TandemPairing struct {
	bun.BaseModel `bun:"table:tandem_pairings,alias:tp"`
	ID            int64     `bun:"id,pk,autoincrement"`
	CompetitionID int64     `bun:"competition_id,notnull"`
	MentorID      int64     `bun:"mentor_id,notnull"`
	JuniorID      int64     `bun:"junior_id,notnull"`
	CreatedAt     time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// MetricReport is one detachment's report for one metric.
type MetricReport struct {
	bun.BaseModel `bun:"table:metric_reports,alias:mr"`
	ID            int64                        `bun:"id,pk,autoincrement"`
	CompetitionID int64                        `bun:"competition_id,notnull"`
	DetachmentID  int64                        `bun:"detachment_id,notnull"`
	Metric        string                       `bun:"metric,notnull"`
	Data          competitiondomain.ReportData `bun:"data,type:jsonb,notnull"`
	IsVerified    bool                         `bun:"is_verified,notnull,default:false"`
	Score         *float64                     `bun:"score"`
	VerifiedAt    *time.Time                   `bun:"verified_at"`
	CreatedAt     time.Time                    `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time                    `bun:",nullzero,notnull,default:current_timestamp"`
}

// Ranking is a stored solo place.
type Ranking struct {
	bun.BaseModel `bun:"table:competition_rankings,alias:cr"`
	CompetitionID int64     `bun:"competition_id,pk"`
	Metric        string    `bun:"metric,pk"`
	DetachmentID  int64     `bun:"detachment_id,pk"`
	Place         int       `bun:"place,notnull"`
	Score         float64   `bun:"score,notnull"`
	ComputedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// TandemRanking is a stored tandem place.
type TandemRanking struct {
	bun.BaseModel `bun:"table:competition_tandem_rankings,alias:ctr"`
	CompetitionID int64     `bun:"competition_id,pk"`
	Metric        string    `bun:"metric,pk"`
	MentorID      int64     `bun:"mentor_id,pk"`
	JuniorID      int64     `bun:"junior_id,pk"`
	Place         int       `bun:"place,notnull"`
	Score         float64   `bun:"score,notnull"`
	ComputedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

func (c *Competition) ToDomain() competitiondomain.Competition {
	return competitiondomain.Competition{
		ID:        competitiondomain.CompetitionID(c.ID),
		Name:      c.Name,
		StartsAt:  c.StartsAt,
		EndsAt:    c.EndsAt,
		CreatedAt: c.CreatedAt,
	}
}

func (d *Detachment) ToDomain() competitiondomain.Detachment {
	return competitiondomain.Detachment{
		ID:        competitiondomain.DetachmentID(d.ID),
		Name:      d.Name,
		FoundedAt: d.FoundedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (p *TandemPairing) ToDomain() competitiondomain.Pairing {
	return competitiondomain.Pairing{
		CompetitionID: competitiondomain.CompetitionID(p.CompetitionID),
		Mentor:        competitiondomain.DetachmentID(p.MentorID),
		Junior:        competitiondomain.DetachmentID(p.JuniorID),
	}
}

func (r *MetricReport) ToDomain() competitiondomain.Report {
	return competitiondomain.Report{
		ID:            r.ID,
		CompetitionID: competitiondomain.CompetitionID(r.CompetitionID),
		DetachmentID:  competitiondomain.DetachmentID(r.DetachmentID),
		Metric:        competitiondomain.MetricID(r.Metric),
		Data:          r.Data,
		IsVerified:    r.IsVerified,
		Score:         r.Score,
		VerifiedAt:    r.VerifiedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ReportFromDomain maps a domain report onto its row.
func ReportFromDomain(r competitiondomain.Report) *MetricReport {
	return &MetricReport{
		ID:            r.ID,
		CompetitionID: int64(r.CompetitionID),
		DetachmentID:  int64(r.DetachmentID),
		Metric:        string(r.Metric),
		Data:          r.Data,
		IsVerified:    r.IsVerified,
		Score:         r.Score,
		VerifiedAt:    r.VerifiedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

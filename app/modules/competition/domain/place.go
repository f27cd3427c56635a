package competitiondomain

import "time"

// ProcessingSentinel is the literal returned to clients while a
// participant's place has not been computed yet.
const ProcessingSentinel = "Показатель в обработке"

type Pool string

const (
	PoolSolo   Pool = "solo"
	PoolTandem Pool = "tandem"
)

type PlaceKind int

const (
	PlaceRanked PlaceKind = iota + 1
	PlaceNotYetComputed
	PlaceNotAParticipant
)

func (k PlaceKind) String() string {
	switch k {
	case PlaceRanked:
		return "ranked"
	case PlaceNotYetComputed:
		return "not_yet_computed"
	case PlaceNotAParticipant:
		return "not_a_participant"
	default:
		return "unknown"
	}
}

// PlaceResult answers a place query. Place is set only for PlaceRanked.
type PlaceResult struct {
	Kind  PlaceKind `json:"kind"`
	Place int       `json:"place,omitempty"`
	Pool  Pool      `json:"pool,omitempty"`
}

func Ranked(pool Pool, place int) PlaceResult {
	return PlaceResult{Kind: PlaceRanked, Place: place, Pool: pool}
}

func NotYetComputed(pool Pool) PlaceResult {
	return PlaceResult{Kind: PlaceNotYetComputed, Pool: pool}
}

func NotAParticipant() PlaceResult {
	return PlaceResult{Kind: PlaceNotAParticipant}
}

// DecidePlace maps what is stored for a resolved competitor to a result.
// entry is the stored place, if any; participates is true when the
// competitor or its partner holds a report in any state.
func DecidePlace(res Resolution, entry *int, participates bool) PlaceResult {
	pool := PoolSolo
	if res.Tandem {
		pool = PoolTandem
	}
	switch {
	case entry != nil:
		return Ranked(pool, *entry)
	case participates:
		return NotYetComputed(pool)
	default:
		return NotAParticipant()
	}
}

// RecomputeStatus is the outcome of one Recompute call.
type RecomputeStatus string

const (
	RecomputeApplied   RecomputeStatus = "applied"
	RecomputeFrozen    RecomputeStatus = "frozen"
	RecomputeNoReports RecomputeStatus = "no_reports"
	RecomputeFailed    RecomputeStatus = "failed"
)

// RecomputeOutcome summarises a recompute for logs, metrics and events.
type RecomputeOutcome struct {
	CompetitionID CompetitionID
	Metric        MetricID
	Status        RecomputeStatus
	SoloEntries   int
	TandemEntries int
	Cutoff        time.Time
}

// StandingRow is one line of a published ranking.
type StandingRow struct {
	Place          int          `json:"place"`
	Score          float64      `json:"score"`
	Detachment     DetachmentID `json:"detachment_id"`
	DetachmentName string       `json:"detachment_name"`
	Mentor         DetachmentID `json:"mentor_id,omitempty"`
	MentorName     string       `json:"mentor_name,omitempty"`
}

// Standings is the stored ranking of one metric, both pools.
type Standings struct {
	CompetitionID   CompetitionID `json:"competition_id"`
	CompetitionName string        `json:"competition_name"`
	Metric          MetricID      `json:"metric"`
	Title           string        `json:"title"`
	BetterIsHigher  bool          `json:"better_is_higher"`
	Solo            []StandingRow `json:"solo"`
	Tandem          []StandingRow `json:"tandem"`
}

// RankingEntry is a stored solo place.
type RankingEntry struct {
	CompetitionID CompetitionID
	Metric        MetricID
	Detachment    DetachmentID
	Place         int
	Score         float64
}

// TandemRankingEntry is a stored tandem place.
type TandemRankingEntry struct {
	CompetitionID CompetitionID
	Metric        MetricID
	Mentor        DetachmentID
	Junior        DetachmentID
	Place         int
	Score         float64
}

// Entries converts ranked pools into storable rows.
func Entries(c CompetitionID, m MetricID, solo, tandem []Placed) ([]RankingEntry, []TandemRankingEntry) {
	soloRows := make([]RankingEntry, 0, len(solo))
	for _, p := range solo {
		soloRows = append(soloRows, RankingEntry{
			CompetitionID: c, Metric: m, Detachment: p.Detachment, Place: p.Place, Score: p.Score,
		})
	}
	tandemRows := make([]TandemRankingEntry, 0, len(tandem))
	for _, p := range tandem {
		tandemRows = append(tandemRows, TandemRankingEntry{
			CompetitionID: c, Metric: m, Mentor: p.Mentor, Junior: p.Detachment, Place: p.Place, Score: p.Score,
		})
	}
	return soloRows, tandemRows
}

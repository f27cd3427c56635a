// Package competitionevents declares the topics and payloads the competition
// module consumes and publishes.
package competitionevents

import "time"

const (
	// ReportVerifiedV1 is published when a reviewer verifies a report.
	ReportVerifiedV1 = "competition.report.verified.v1"
	// RecomputeRequestedV1 asks for a ranking recompute of one metric.
	RecomputeRequestedV1 = "competition.ranking.recompute.requested.v1"
	// RankingRecomputedV1 is published after every recompute attempt.
	RankingRecomputedV1 = "competition.ranking.recomputed.v1"
	// DetachmentUpsertedV1 carries registry updates from the hierarchy service.
	DetachmentUpsertedV1 = "detachment.upserted.v1"
)

type ReportVerifiedPayloadV1 struct {
	CompetitionID int64     `json:"competition_id"`
	DetachmentID  int64     `json:"detachment_id"`
	Metric        string    `json:"metric"`
	VerifiedAt    time.Time `json:"verified_at"`
}

type RecomputeRequestedPayloadV1 struct {
	CompetitionID int64  `json:"competition_id"`
	Metric        string `json:"metric"`
	Reason        string `json:"reason,omitempty"`
}

type RankingRecomputedPayloadV1 struct {
	CompetitionID int64     `json:"competition_id"`
	Metric        string    `json:"metric"`
	Status        string    `json:"status"`
	SoloEntries   int       `json:"solo_entries"`
	TandemEntries int       `json:"tandem_entries"`
	ComputedAt    time.Time `json:"computed_at"`
}

type DetachmentUpsertedPayloadV1 struct {
	DetachmentID int64      `json:"detachment_id"`
	Name         string     `json:"name"`
	FoundedAt    *time.Time `json:"founded_at,omitempty"`
}

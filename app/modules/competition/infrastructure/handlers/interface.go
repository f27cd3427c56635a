package competitionhandlers

import (
	"context"

	competitionevents "github.com/d2avids/rso-sub000/app/modules/competition/domain/events"
	"github.com/d2avids/rso-sub000/app/shared/handlerwrapper"
)

// Handlers defines the interface for competition event handlers.
type Handlers interface {
	// HandleReportVerified recomputes the metric of a report verified elsewhere.
	HandleReportVerified(ctx context.Context, payload *competitionevents.ReportVerifiedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleRecomputeRequested recomputes one (competition, metric) on demand.
	HandleRecomputeRequested(ctx context.Context, payload *competitionevents.RecomputeRequestedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleDetachmentUpserted keeps the local detachment registry in sync.
	HandleDetachmentUpserted(ctx context.Context, payload *competitionevents.DetachmentUpsertedPayloadV1) ([]handlerwrapper.Result, error)
}

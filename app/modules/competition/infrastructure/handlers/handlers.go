package competitionhandlers

import (
	"context"
	"errors"
	"log/slog"

	competitionservice "github.com/d2avids/rso-sub000/app/modules/competition/application"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	competitionevents "github.com/d2avids/rso-sub000/app/modules/competition/domain/events"
	competitiondb "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories"
	"github.com/d2avids/rso-sub000/app/shared/handlerwrapper"
	"github.com/d2avids/rso-sub000/app/shared/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// CompetitionHandlers implements the Handlers interface.
type CompetitionHandlers struct {
	service competitionservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewCompetitionHandlers creates a new CompetitionHandlers instance.
func NewCompetitionHandlers(
	service competitionservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &CompetitionHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

func (h *CompetitionHandlers) HandleReportVerified(ctx context.Context, payload *competitionevents.ReportVerifiedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "CompetitionHandlers.HandleReportVerified")
	defer span.End()

	h.logger.InfoContext(ctx, "Report verified event received",
		attr.ExtractCorrelationID(ctx),
		attr.Int64("competition_id", payload.CompetitionID),
		attr.Int64("detachment_id", payload.DetachmentID),
		attr.String("metric", payload.Metric),
	)

	return nil, h.recompute(ctx, payload.CompetitionID, payload.Metric)
}

func (h *CompetitionHandlers) HandleRecomputeRequested(ctx context.Context, payload *competitionevents.RecomputeRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "CompetitionHandlers.HandleRecomputeRequested")
	defer span.End()

	h.logger.InfoContext(ctx, "Recompute requested",
		attr.ExtractCorrelationID(ctx),
		attr.Int64("competition_id", payload.CompetitionID),
		attr.String("metric", payload.Metric),
		attr.String("reason", payload.Reason),
	)

	return nil, h.recompute(ctx, payload.CompetitionID, payload.Metric)
}

// recompute acks payloads that can never succeed and returns infrastructure
// errors so the router retries.
func (h *CompetitionHandlers) recompute(ctx context.Context, competitionID int64, rawMetric string) error {
	metric, err := competitiondomain.ParseMetricID(rawMetric)
	if err != nil {
		h.logger.WarnContext(ctx, "Dropping recompute for unknown metric",
			attr.ExtractCorrelationID(ctx),
			attr.String("metric", rawMetric),
		)
		return nil
	}

	outcome, err := h.service.Recompute(ctx, competitiondomain.CompetitionID(competitionID), metric)
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			h.logger.WarnContext(ctx, "Dropping recompute for missing competition",
				attr.ExtractCorrelationID(ctx),
				attr.Int64("competition_id", competitionID),
				attr.Error(err),
			)
			return nil
		}
		h.logger.ErrorContext(ctx, "Recompute failed",
			attr.ExtractCorrelationID(ctx),
			attr.Int64("competition_id", competitionID),
			attr.String("metric", string(metric)),
			attr.Error(err),
		)
		return err
	}

	h.logger.InfoContext(ctx, "Recompute finished",
		attr.ExtractCorrelationID(ctx),
		attr.Int64("competition_id", competitionID),
		attr.String("metric", string(metric)),
		attr.String("status", string(outcome.Status)),
	)
	return nil
}

func (h *CompetitionHandlers) HandleDetachmentUpserted(ctx context.Context, payload *competitionevents.DetachmentUpsertedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "CompetitionHandlers.HandleDetachmentUpserted")
	defer span.End()

	_, err := h.service.UpsertDetachment(ctx, competitiondomain.Detachment{
		ID:        competitiondomain.DetachmentID(payload.DetachmentID),
		Name:      payload.Name,
		FoundedAt: payload.FoundedAt,
	})
	if err != nil {
		var verr *competitiondomain.ValidationError
		if errors.As(err, &verr) {
			h.logger.WarnContext(ctx, "Dropping invalid detachment update",
				attr.ExtractCorrelationID(ctx),
				attr.Int64("detachment_id", payload.DetachmentID),
				attr.Error(err),
			)
			return nil, nil
		}
		h.logger.ErrorContext(ctx, "Failed to upsert detachment",
			attr.ExtractCorrelationID(ctx),
			attr.Int64("detachment_id", payload.DetachmentID),
			attr.Error(err),
		)
		return nil, err
	}

	return nil, nil
}

package competitionrouter

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/d2avids/rso-sub000/app/eventbus"
	competitionevents "github.com/d2avids/rso-sub000/app/modules/competition/domain/events"
	competitionhandlers "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/handlers"
	"github.com/d2avids/rso-sub000/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// CompetitionRouter handles Watermill handler registration for competition events.
type CompetitionRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	tracer     trace.Tracer
}

// NewCompetitionRouter creates a new CompetitionRouter.
func NewCompetitionRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
) *CompetitionRouter {
	return &CompetitionRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *CompetitionRouter) Configure(_ context.Context, handlers competitionhandlers.Handlers) error {
	r.registerHandlers(handlers)
	return nil
}

type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
}

// registerHandlers wires topics to handler methods.
func (r *CompetitionRouter) registerHandlers(handlers competitionhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	r.logger.Info("Registering competition module handlers",
		slog.String("report_verified_subject", competitionevents.ReportVerifiedV1),
		slog.String("recompute_requested_subject", competitionevents.RecomputeRequestedV1),
		slog.String("detachment_upserted_subject", competitionevents.DetachmentUpsertedV1),
	)

	registerHandler(deps, competitionevents.ReportVerifiedV1, handlers.HandleReportVerified)
	registerHandler(deps, competitionevents.RecomputeRequestedV1, handlers.HandleRecomputeRequested)
	registerHandler(deps, competitionevents.DetachmentUpsertedV1, handlers.HandleDetachmentUpserted)

	r.logger.Info("Competition module handlers registered successfully")
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "competition." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"",
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			handler,
		),
	)
}

// Close shuts down the router.
func (r *CompetitionRouter) Close() error {
	return r.router.Close()
}

package competition

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/d2avids/rso-sub000/app/eventbus"
	authhandlers "github.com/d2avids/rso-sub000/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/d2avids/rso-sub000/app/modules/auth/infrastructure/jwt"
	competitionservice "github.com/d2avids/rso-sub000/app/modules/competition/application"
	competitioncache "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/cache"
	competitionhandlers "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/handlers"
	competitionhttp "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/http"
	competitionqueue "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/queue"
	competitiondb "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories"
	competitionrouter "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/router"
	"github.com/d2avids/rso-sub000/app/shared/observability"
	"github.com/d2avids/rso-sub000/app/shared/observability/attr"
	"github.com/d2avids/rso-sub000/config"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

// Module represents the competition ranking module.
type Module struct {
	Service    competitionservice.Service
	Queue      competitionqueue.QueueService
	router     *competitionrouter.CompetitionRouter
	redis      *redis.Client
	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// Options carries the optional surfaces of the module. A nil HTTPRouter
// skips the REST API; WithQueue false skips the river scheduler.
type Options struct {
	HTTPRouter  chi.Router
	JWTProvider authjwt.Provider
	WithQueue   bool
}

// NewCompetitionModule wires the repository, cache, service, event handlers,
// scheduler and HTTP routes.
func NewCompetitionModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
	router *message.Router,
	opts Options,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer
	metrics := obs.Registry.CompetitionMetrics

	logger.InfoContext(ctx, "competition.NewCompetitionModule called")

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	m := &Module{logger: logger}

	var placeCache competitionservice.PlaceCache
	if cfg.Redis.URL != "" {
		client, err := competitioncache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		m.redis = client
		placeCache = competitioncache.NewPlaceCache(client, cfg.Ranking.CacheTTL)
	} else {
		logger.WarnContext(ctx, "Redis URL not configured, place cache disabled")
	}

	repo := competitiondb.NewRepository(db)
	service := competitionservice.NewCompetitionService(repo, logger, metrics, tracer, db, placeCache, eventBus, loc)
	m.Service = service

	if router != nil {
		handlers := competitionhandlers.NewCompetitionHandlers(service, logger, tracer)
		m.router = competitionrouter.NewCompetitionRouter(logger, router, eventBus, eventBus, tracer)
		if err := m.router.Configure(ctx, handlers); err != nil {
			m.closeRedis()
			return nil, fmt.Errorf("failed to configure competition router: %w", err)
		}
	}

	if opts.WithQueue {
		queue, err := competitionqueue.NewService(ctx, cfg.Postgres.DSN, service, logger, metrics, competitionqueue.Config{
			SweepInterval:    cfg.Ranking.SweepInterval,
			RecomputeTimeout: cfg.Ranking.RecomputeTimeout,
			Workers:          cfg.Ranking.QueueWorkers,
		})
		if err != nil {
			m.closeRedis()
			return nil, fmt.Errorf("failed to create ranking queue: %w", err)
		}
		m.Queue = queue
	}

	if opts.HTTPRouter != nil {
		api := competitionhttp.NewCompetitionHandlers(service, logger)
		api.Register(opts.HTTPRouter, opts.JWTProvider, logger, competitionhttp.RouteConfig{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Limiter:        authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst),
		})
	}

	return m, nil
}

// Run starts the scheduler and blocks until ctx is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting competition module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.Queue != nil {
		if err := m.Queue.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start ranking queue", attr.Error(err))
			return
		}
	}

	<-ctx.Done()
	m.logger.Info("Competition module goroutine stopped")
}

// Close stops the scheduler and releases connections.
func (m *Module) Close() error {
	m.logger.Info("Stopping competition module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	var firstErr error
	if m.Queue != nil {
		if err := m.Queue.Stop(context.Background()); err != nil {
			firstErr = err
		}
	}
	if m.router != nil {
		if err := m.router.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.closeRedis()

	m.logger.Info("Competition module stopped")
	return firstErr
}

func (m *Module) closeRedis() {
	if m.redis == nil {
		return
	}
	if err := m.redis.Close(); err != nil {
		m.logger.Warn("Failed to close redis client", attr.Error(err))
	}
	m.redis = nil
}

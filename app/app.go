package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/d2avids/rso-sub000/app/eventbus"
	"github.com/d2avids/rso-sub000/app/modules/auth"
	"github.com/d2avids/rso-sub000/app/modules/competition"
	"github.com/d2avids/rso-sub000/app/shared/observability"
	"github.com/d2avids/rso-sub000/app/shared/observability/attr"
	"github.com/d2avids/rso-sub000/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// App wires infrastructure and modules into one process.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	Logger        *slog.Logger
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router

	AuthModule        *auth.Module
	CompetitionModule *competition.Module

	httpServer    *http.Server
	metricsServer *http.Server
	wg            sync.WaitGroup
}

// Options selects the surfaces started by Initialize.
type Options struct {
	// Serve enables the watermill router, scheduler and HTTP servers.
	// Operator commands leave it false and only use the service.
	Serve bool
	// Queue creates the river client without serving, so jobs can be enqueued.
	Queue bool
}

// OpenDB connects bun to Postgres and checks the connection.
func OpenDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// NewEventBus picks JetStream when a NATS URL is configured and the
// in-process bus otherwise.
func NewEventBus(cfg *config.Config, logger *slog.Logger) (eventbus.EventBus, error) {
	if cfg.NATS.URL == "" {
		logger.Warn("NATS URL not configured, using in-memory event bus")
		return eventbus.NewInMemory(logger), nil
	}
	return eventbus.NewNATS(eventbus.NATSConfig{
		URL:      cfg.NATS.URL,
		NKeySeed: cfg.NATS.NKeySeed,
		Stream:   cfg.NATS.Stream,
	}, logger)
}

// NewRouter builds the watermill router with the standard middleware stack
// and Prometheus handler metrics.
func NewRouter(obs observability.Observability) (*message.Router, error) {
	wmLogger := watermill.NewSlogLogger(obs.Provider.Logger)
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
		middleware.Recoverer,
	)

	metrics.NewPrometheusMetricsBuilder(obs.Registry.Prometheus, "rso", "events").AddPrometheusRouterMetrics(router)
	return router, nil
}

// Initialize connects infrastructure and builds the modules.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, obs observability.Observability, opts Options) error {
	app.Config = cfg
	app.Observability = obs
	app.Logger = obs.Provider.Logger

	db, err := OpenDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	app.DB = db

	bus, err := NewEventBus(cfg, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = bus

	app.AuthModule, err = auth.NewModule(cfg, app.Logger)
	if err != nil {
		return err
	}

	moduleOpts := competition.Options{
		JWTProvider: app.AuthModule.Provider(),
		WithQueue:   opts.Queue,
	}
	if opts.Serve {
		if app.Router, err = NewRouter(obs); err != nil {
			return err
		}
		mux := chi.NewRouter()
		mux.Get("/healthz", app.handleHealth)
		moduleOpts.HTTPRouter = mux
		moduleOpts.WithQueue = true

		app.httpServer = &http.Server{Addr: cfg.HTTP.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		if cfg.Observability.MetricsAddress != "" {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", promhttp.HandlerFor(obs.Registry.Prometheus, promhttp.HandlerOpts{}))
			app.metricsServer = &http.Server{Addr: cfg.Observability.MetricsAddress, Handler: metricsMux, ReadHeaderTimeout: 10 * time.Second}
		}
	}

	app.CompetitionModule, err = competition.NewCompetitionModule(ctx, cfg, obs, db, bus, app.Router, moduleOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize competition module: %w", err)
	}
	return nil
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := app.DB.PingContext(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	if app.CompetitionModule != nil && app.CompetitionModule.Queue != nil {
		if err := app.CompetitionModule.Queue.HealthCheck(r.Context()); err != nil {
			http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// Run starts the router, module and servers, and blocks until ctx is done
// or one of them fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 3)

	app.wg.Add(1)
	go app.CompetitionModule.Run(ctx, &app.wg)

	if app.Router != nil {
		go func() {
			if err := app.Router.Run(ctx); err != nil {
				errCh <- fmt.Errorf("watermill router: %w", err)
			}
		}()
	}

	for _, srv := range []*http.Server{app.httpServer, app.metricsServer} {
		if srv == nil {
			continue
		}
		go func(srv *http.Server) {
			app.Logger.InfoContext(ctx, "HTTP server listening", attr.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Close shuts everything down in reverse order of startup.
func (app *App) Close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, srv := range []*http.Server{app.httpServer, app.metricsServer} {
		if srv != nil {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Error("HTTP server shutdown failed", attr.Error(err))
			}
		}
	}
	if app.CompetitionModule != nil {
		if err := app.CompetitionModule.Close(); err != nil {
			app.Logger.Error("Error closing competition module", attr.Error(err))
		}
	}
	app.wg.Wait()
	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			app.Logger.Error("Error closing watermill router", attr.Error(err))
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			app.Logger.Error("Error closing event bus", attr.Error(err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Error closing database", attr.Error(err))
		}
	}
	if err := app.Observability.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Error shutting down observability", attr.Error(err))
	}
}

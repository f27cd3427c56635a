package competitionhttp

import (
	"log/slog"
	"net/http"

	authdomain "github.com/d2avids/rso-sub000/app/modules/auth/domain"
	authhandlers "github.com/d2avids/rso-sub000/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/d2avids/rso-sub000/app/modules/auth/infrastructure/jwt"
	"github.com/d2avids/rso-sub000/app/shared/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const CorrelationHeader = "X-Correlation-ID"

// RouteConfig holds the cross-cutting HTTP settings of the competition API.
type RouteConfig struct {
	AllowedOrigins []string
	Limiter        *authhandlers.IPRateLimiter
}

// CorrelationMiddleware propagates X-Correlation-ID into the request context,
// minting one when the caller sent none.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(attr.WithCorrelationID(r.Context(), id)))
	})
}

// Register mounts the competition API under /api/competitions.
func (h *CompetitionHandlers) Register(r chi.Router, provider authjwt.Provider, logger *slog.Logger, cfg RouteConfig) {
	r.Route("/api/competitions", func(r chi.Router) {
		r.Use(otelhttp.NewMiddleware("competition-api"))
		r.Use(CorrelationMiddleware)
		r.Use(authhandlers.CORSMiddleware(cfg.AllowedOrigins))
		if cfg.Limiter != nil {
			r.Use(authhandlers.RateLimitMiddleware(cfg.Limiter))
		}
		r.Use(authhandlers.BearerAuthMiddleware(provider, logger))

		r.With(authhandlers.RequireRole(authdomain.RoleAdmin)).Post("/", h.HandleCreateCompetition)

		r.Route("/{id}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authhandlers.RequireRole(authdomain.RoleAdmin))
				r.Put("/", h.HandleUpdateCompetition)
				r.Put("/metrics/{metric}/cutoff", h.HandleSetCutoff)
				r.Post("/metrics/{metric}/recompute", h.HandleRecompute)
				r.Post("/pairings", h.HandleCreatePairing)
				r.Delete("/pairings", h.HandleDeletePairing)
			})
			r.Get("/pairings/{detachment}", h.HandleResolvePairing)

			r.Route("/reports/{metric}", func(r chi.Router) {
				r.Get("/get_place/", h.HandleGetPlace)
				r.Get("/standings", h.HandleGetStandings)

				r.Route("/detachments/{detachment}", func(r chi.Router) {
					r.Get("/", h.HandleGetReport)
					r.Post("/", h.HandleSubmitReport)
					r.Put("/", h.HandleEditReport)
					r.Delete("/", h.HandleDeleteReport)
					r.With(authhandlers.RequireRole(authdomain.RoleReviewer)).Post("/verify", h.HandleVerifyReport)
				})
			})
		})
	})
}

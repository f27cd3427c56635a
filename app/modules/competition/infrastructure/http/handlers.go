package competitionhttp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	authdomain "github.com/d2avids/rso-sub000/app/modules/auth/domain"
	authhandlers "github.com/d2avids/rso-sub000/app/modules/auth/infrastructure/handlers"
	competitionservice "github.com/d2avids/rso-sub000/app/modules/competition/application"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	competitiondb "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories"
	"github.com/d2avids/rso-sub000/app/shared/observability/attr"
	"github.com/go-chi/chi/v5"
)

// CompetitionHandlers serves the competition REST API.
type CompetitionHandlers struct {
	service competitionservice.Service
	logger  *slog.Logger
}

func NewCompetitionHandlers(service competitionservice.Service, logger *slog.Logger) *CompetitionHandlers {
	return &CompetitionHandlers{service: service, logger: logger}
}

// badRequestErrors are domain failures reported as non-field validation errors.
var badRequestErrors = []error{
	competitiondb.ErrDuplicateReport,
	competitiondb.ErrPairingConflict,
	competitiondomain.ErrReportingClosed,
	competitiondomain.ErrReportVerified,
	competitiondomain.ErrCompetitionLocked,
	competitiondomain.ErrPairingsFrozen,
	competitiondomain.ErrUnknownMetric,
	competitiondomain.ErrSelfPairing,
	competitionservice.ErrUnparsableDate,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (h *CompetitionHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *competitiondomain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, verr.Fields)
		return
	}
	if errors.Is(err, competitiondb.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "not found")
		return
	}
	for _, known := range badRequestErrors {
		if errors.Is(err, known) {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				competitiondomain.NonFieldErrors: {err.Error()},
			})
			return
		}
	}

	h.logger.ErrorContext(r.Context(), "Competition request failed",
		attr.String("path", r.URL.Path),
		attr.ExtractCorrelationID(r.Context()),
		attr.Error(err),
	)
	writeDetail(w, http.StatusInternalServerError, "internal error")
}

func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, competitiondomain.FieldError(name, "must be a positive integer")
	}
	return v, nil
}

func competitionID(r *http.Request) (competitiondomain.CompetitionID, error) {
	id, err := pathInt64(r, "id")
	return competitiondomain.CompetitionID(id), err
}

func metricID(r *http.Request) (competitiondomain.MetricID, error) {
	m, err := competitiondomain.ParseMetricID(chi.URLParam(r, "metric"))
	if err != nil {
		return "", competitiondomain.FieldError("metric", err.Error())
	}
	return m, nil
}

func reportKey(r *http.Request) (competitionservice.ReportKey, error) {
	cid, err := competitionID(r)
	if err != nil {
		return competitionservice.ReportKey{}, err
	}
	m, err := metricID(r)
	if err != nil {
		return competitionservice.ReportKey{}, err
	}
	d, err := pathInt64(r, "detachment")
	if err != nil {
		return competitionservice.ReportKey{}, err
	}
	return competitionservice.ReportKey{
		CompetitionID: cid,
		DetachmentID:  competitiondomain.DetachmentID(d),
		Metric:        m,
	}, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return competitiondomain.FieldError(competitiondomain.NonFieldErrors, "malformed JSON body")
	}
	return nil
}

// claims is only called behind BearerAuthMiddleware.
func claims(r *http.Request) *authdomain.Claims {
	c, _ := authhandlers.ClaimsFromContext(r.Context())
	if c == nil {
		return &authdomain.Claims{}
	}
	return c
}

// canWrite reports whether the caller may change reports of detachment d.
func canWrite(c *authdomain.Claims, d competitiondomain.DetachmentID) bool {
	return c.IsMemberOf(int64(d)) || c.Role.AtLeast(authdomain.RoleAdmin)
}

type reportResponse struct {
	CompetitionID competitiondomain.CompetitionID `json:"competition_id"`
	DetachmentID  competitiondomain.DetachmentID  `json:"detachment_id"`
	Metric        competitiondomain.MetricID      `json:"metric"`
	Data          competitiondomain.ReportData    `json:"data"`
	IsVerified    bool                            `json:"is_verified"`
	Score         *float64                        `json:"score"`
	VerifiedAt    *time.Time                      `json:"verified_at,omitempty"`
}

func toReportResponse(r *competitiondomain.Report) reportResponse {
	return reportResponse{
		CompetitionID: r.CompetitionID,
		DetachmentID:  r.DetachmentID,
		Metric:        r.Metric,
		Data:          r.Data,
		IsVerified:    r.IsVerified,
		Score:         r.Score,
		VerifiedAt:    r.VerifiedAt,
	}
}

type competitionRequest struct {
	Name     string `json:"name"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

func (req competitionRequest) toDomain(id competitiondomain.CompetitionID) (competitiondomain.Competition, error) {
	verr := competitiondomain.NewValidationError()
	c := competitiondomain.Competition{ID: id, Name: req.Name}
	for field, raw := range map[string]string{"starts_at": req.StartsAt, "ends_at": req.EndsAt} {
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			verr.Add(field, "expected YYYY-MM-DD")
			continue
		}
		if field == "starts_at" {
			c.StartsAt = t
		} else {
			c.EndsAt = t
		}
	}
	return c, verr.OrNil()
}

type competitionResponse struct {
	ID       competitiondomain.CompetitionID `json:"id"`
	Name     string                          `json:"name"`
	StartsAt string                          `json:"starts_at"`
	EndsAt   string                          `json:"ends_at"`
}

func toCompetitionResponse(c *competitiondomain.Competition) competitionResponse {
	return competitionResponse{
		ID:       c.ID,
		Name:     c.Name,
		StartsAt: c.StartsAt.Format(time.DateOnly),
		EndsAt:   c.EndsAt.Format(time.DateOnly),
	}
}

type pairingBody struct {
	Mentor competitiondomain.DetachmentID `json:"mentor_id"`
	Junior competitiondomain.DetachmentID `json:"junior_id"`
}

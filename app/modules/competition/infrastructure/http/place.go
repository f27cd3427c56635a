package competitionhttp

import (
	"net/http"
	"strconv"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	competitionexport "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/export"
)

// HandleGetPlace answers with the detachment's place as a JSON number, or
// with the processing sentinel while it is not computed yet. The detachment
// defaults to the caller's own when the caller belongs to exactly one.
func (h *CompetitionHandlers) HandleGetPlace(w http.ResponseWriter, r *http.Request) {
	cid, err := competitionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := metricID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	c := claims(r)
	var d competitiondomain.DetachmentID
	if raw := r.URL.Query().Get("detachment"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			h.writeError(w, r, competitiondomain.FieldError("detachment", "must be a positive integer"))
			return
		}
		d = competitiondomain.DetachmentID(v)
	} else if len(c.Detachments) == 1 {
		d = competitiondomain.DetachmentID(c.Detachments[0])
	} else {
		h.writeError(w, r, competitiondomain.FieldError("detachment", "this field is required"))
		return
	}

	if !c.CanSee(int64(d)) {
		writeDetail(w, http.StatusForbidden, "not a member of this detachment")
		return
	}

	result, err := h.service.PlaceOf(r.Context(), cid, m, d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	switch result.Kind {
	case competitiondomain.PlaceRanked:
		writeJSON(w, http.StatusOK, result.Place)
	case competitiondomain.PlaceNotYetComputed:
		writeJSON(w, http.StatusOK, competitiondomain.ProcessingSentinel)
	default:
		writeDetail(w, http.StatusNotFound, "detachment does not participate in this metric")
	}
}

// HandleGetStandings renders the stored ranking as JSON, XLSX or PNG
// depending on the format query parameter.
func (h *CompetitionHandlers) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	cid, err := competitionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := metricID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	standings, err := h.service.GetStandings(r.Context(), cid, m)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var (
		body        []byte
		contentType string
		ext         string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, standings)
		return
	case "xlsx":
		body, err = competitionexport.Workbook(standings)
		contentType, ext = competitionexport.ContentTypeXLSX, "xlsx"
	case "png":
		body, err = competitionexport.Chart(standings)
		contentType, ext = competitionexport.ContentTypePNG, "png"
	default:
		h.writeError(w, r, competitiondomain.FieldError("format", "expected one of json, xlsx, png"))
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+competitionexport.FileName(standings, ext)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

package competitionhttp

import (
	"net/http"
	"time"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
)

func (h *CompetitionHandlers) HandleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	var body competitionRequest
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := body.toDomain(0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.service.CreateCompetition(r.Context(), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompetitionResponse(created))
}

func (h *CompetitionHandlers) HandleUpdateCompetition(w http.ResponseWriter, r *http.Request) {
	cid, err := competitionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body competitionRequest
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := body.toDomain(cid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.service.UpdateCompetition(r.Context(), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompetitionResponse(updated))
}

// HandleSetCutoff accepts {"date": "..."} in any form the date parser knows.
func (h *CompetitionHandlers) HandleSetCutoff(w http.ResponseWriter, r *http.Request) {
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
	var body struct {
		Date string `json:"date"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	cutoff, err := h.service.SetMetricCutoff(r.Context(), cid, m, body.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cutoff_date": cutoff.Format(time.DateOnly)})
}

// HandleRecompute runs a recompute synchronously for operators.
func (h *CompetitionHandlers) HandleRecompute(w http.ResponseWriter, r *http.Request) {
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

	outcome, err := h.service.Recompute(r.Context(), cid, m)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         outcome.Status,
		"solo_entries":   outcome.SoloEntries,
		"tandem_entries": outcome.TandemEntries,
	})
}

func (h *CompetitionHandlers) HandleCreatePairing(w http.ResponseWriter, r *http.Request) {
	cid, err := competitionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body pairingBody
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.service.CreatePairing(r.Context(), competitiondomain.Pairing{
		CompetitionID: cid,
		Mentor:        body.Mentor,
		Junior:        body.Junior,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pairingBody{Mentor: created.Mentor, Junior: created.Junior})
}

func (h *CompetitionHandlers) HandleDeletePairing(w http.ResponseWriter, r *http.Request) {
	cid, err := competitionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body pairingBody
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	err = h.service.DeletePairing(r.Context(), competitiondomain.Pairing{
		CompetitionID: cid,
		Mentor:        body.Mentor,
		Junior:        body.Junior,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CompetitionHandlers) HandleResolvePairing(w http.ResponseWriter, r *http.Request) {
	cid, err := competitionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := pathInt64(r, "detachment")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.service.ResolvePairing(r.Context(), cid, competitiondomain.DetachmentID(d))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !res.Tandem {
		writeJSON(w, http.StatusOK, map[string]any{"tandem": false, "detachment_id": res.Detachment()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tandem": true, "mentor_id": res.Mentor, "junior_id": res.Junior})
}

package competitionhttp

import (
	"context"
	"net/http"

	competitionservice "github.com/d2avids/rso-sub000/app/modules/competition/application"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
)

type reportMutation func(ctx context.Context, req competitionservice.ReportRequest) (*competitiondomain.Report, error)

func (h *CompetitionHandlers) HandleSubmitReport(w http.ResponseWriter, r *http.Request) {
	h.mutateReport(w, r, http.StatusCreated, h.service.SubmitReport)
}

func (h *CompetitionHandlers) HandleEditReport(w http.ResponseWriter, r *http.Request) {
	h.mutateReport(w, r, http.StatusOK, h.service.EditReport)
}

func (h *CompetitionHandlers) mutateReport(w http.ResponseWriter, r *http.Request, status int, op reportMutation) {
	key, err := reportKey(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !canWrite(claims(r), key.DetachmentID) {
		writeDetail(w, http.StatusForbidden, "not a member of this detachment")
		return
	}

	var data competitiondomain.ReportData
	if err := decode(r, &data); err != nil {
		h.writeError(w, r, err)
		return
	}

	report, err := op(r.Context(), competitionservice.ReportRequest{ReportKey: key, Data: data})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, status, toReportResponse(report))
}

func (h *CompetitionHandlers) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	key, err := reportKey(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !claims(r).CanSee(int64(key.DetachmentID)) {
		writeDetail(w, http.StatusForbidden, "not a member of this detachment")
		return
	}

	report, err := h.service.GetReport(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (h *CompetitionHandlers) HandleDeleteReport(w http.ResponseWriter, r *http.Request) {
	key, err := reportKey(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !canWrite(claims(r), key.DetachmentID) {
		writeDetail(w, http.StatusForbidden, "not a member of this detachment")
		return
	}

	if err := h.service.DeleteReport(r.Context(), key); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerifyReport is mounted behind RequireRole(RoleReviewer).
func (h *CompetitionHandlers) HandleVerifyReport(w http.ResponseWriter, r *http.Request) {
	key, err := reportKey(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	report, err := h.service.VerifyReport(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

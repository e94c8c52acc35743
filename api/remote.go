package api

import (
	"net/http"

	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
)

// =============================================================================
// REMOTE STORE HANDLERS - Relational mirror of the dataset
// =============================================================================

// SyncRemote publishes the current dataset into the remote store.
func (h *Handler) SyncRemote(w http.ResponseWriter, r *http.Request) {
	if !h.requireRemote(w) {
		return
	}

	res, err := allocation.Publish(r.Context(), h.Remote, h.Store.Snapshot())
	if err != nil {
		h.writeDomainError(w, "Failed to publish dataset", err)
		return
	}

	h.Log.Info().
		Int("consultants", res.Consultants).
		Int("projects", res.Projects).
		Int("allocations", res.Allocations).
		Msg("dataset published")
	writeJSON(w, http.StatusOK, res)
}

// ListRemoteConsultants returns the remote consultant rows.
func (h *Handler) ListRemoteConsultants(w http.ResponseWriter, r *http.Request) {
	if !h.requireRemote(w) {
		return
	}

	consultants, err := h.Remote.ListConsultants(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list consultants", err)
		return
	}

	dtos := make([]RemoteConsultantDTO, len(consultants))
	for i, c := range consultants {
		dtos[i] = toRemoteConsultantDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListRemoteProjects returns the remote project rows.
func (h *Handler) ListRemoteProjects(w http.ResponseWriter, r *http.Request) {
	if !h.requireRemote(w) {
		return
	}

	projects, err := h.Remote.ListProjects(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list projects", err)
		return
	}

	dtos := make([]RemoteProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toRemoteProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// QueryRemoteAllocations returns one consultant's rows of one period type
// whose period start is within [start, end].
func (h *Handler) QueryRemoteAllocations(w http.ResponseWriter, r *http.Request) {
	if !h.requireRemote(w) {
		return
	}

	consultantID := r.URL.Query().Get("consultant_id")
	if consultantID == "" {
		writeError(w, http.StatusBadRequest, "consultant_id is required", nil)
		return
	}
	pt, err := calendar.ParsePeriodType(r.URL.Query().Get("period_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_type", err)
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	rows, err := h.Remote.QueryAllocations(r.Context(), allocation.AllocationQuery{
		ConsultantID: consultantID,
		PeriodType:   pt,
		Start:        start,
		End:          end,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to query allocations", err)
		return
	}

	dtos := make([]RemoteAllocationDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toRemoteAllocationDTO(row)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) requireRemote(w http.ResponseWriter) bool {
	if h.Remote == nil {
		writeError(w, http.StatusNotImplemented, "Remote store is not configured", nil)
		return false
	}
	return true
}

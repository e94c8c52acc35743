/*
handlers.go - HTTP API handlers for the allocation engine

PURPOSE:
  Exposes the allocation engine via REST API. Handles HTTP request and
  response, JSON serialization, and delegates to the allocation package.
  Every mutation runs inside Store.Update so a failing request leaves the
  dataset untouched.

ENDPOINTS:
  Dataset:
    GET    /api/dataset                          Whole dataset with colours

  Consultants:
    GET    /api/consultants                      List consultants
    POST   /api/consultants                      Add consultant
    DELETE /api/consultants/{name}               Remove consultant
    GET    /api/consultants/{name}/projects      Projects with nonzero time
    GET    /api/consultants/{name}/timeline      Per period percents (editor)
    PUT    /api/consultants/{name}/allocations   Batch cell edits

  Projects:
    GET    /api/projects                         List projects
    POST   /api/projects                         Add project
    GET    /api/projects/{name}                  Range and assignments
    PUT    /api/projects/{name}                  Range change + assignment set
    DELETE /api/projects/{name}                  Remove project

  Reporting:
    GET    /api/summary?start=&end=&period_type= Averages per consultant
    GET    /api/grid?start=&end=                 Weekly breakdown
    GET    /api/export?start=&end=               CSV download
    GET    /api/years                            Years with periods
    GET    /api/periods?period_type=&year=       Period ids

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, inverted ranges
  - 404: Consultant or project not found
  - 409: Duplicate consultant or project
  - 500: Internal errors, failed saves (the change is kept in memory)

SECURITY NOTE:
  No authentication or authorization. The engine is single user.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Seed roster loading
  - remote.go: Relational mirror endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
	"github.com/warp/allocation-engine/roster"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *allocation.Store
	Remote allocation.RemoteStore // nil disables the /api/remote endpoints
	Log    zerolog.Logger

	mu              sync.RWMutex
	scenarios       []roster.Roster
	currentScenario string
}

// NewHandler creates a handler. scenarios lists the loadable rosters;
// current is the id of the one the store was seeded from.
func NewHandler(store *allocation.Store, remote allocation.RemoteStore, scenarios []roster.Roster, current string, log zerolog.Logger) *Handler {
	return &Handler{
		Store:           store,
		Remote:          remote,
		Log:             log,
		scenarios:       scenarios,
		currentScenario: current,
	}
}

// =============================================================================
// DATASET
// =============================================================================

// GetDataset returns the whole dataset.
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds := h.Store.Snapshot()
	writeJSON(w, http.StatusOK, DatasetDTO{Dataset: ds, Colors: h.colors(ds)})
}

// =============================================================================
// CONSULTANT HANDLERS
// =============================================================================

// ListConsultants returns all consultants in roster order.
func (h *Handler) ListConsultants(w http.ResponseWriter, r *http.Request) {
	ds := h.Store.Snapshot()

	dtos := make([]ConsultantDTO, len(ds.Consultants))
	for i, c := range ds.Consultants {
		dtos[i] = consultantDTO(ds, c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateConsultant adds a consultant with zero allocations everywhere.
func (h *Handler) CreateConsultant(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var dto ConsultantDTO
	err := h.Store.Update(r.Context(), func(ds *allocation.Dataset) error {
		if err := ds.AddConsultant(req.Name); err != nil {
			return err
		}
		dto = consultantDTO(ds, ds.Consultants[len(ds.Consultants)-1])
		return nil
	})
	if err != nil {
		h.writeDomainError(w, "Failed to add consultant", err)
		return
	}

	h.Log.Info().Str("consultant", dto.Name).Msg("consultant added")
	writeJSON(w, http.StatusCreated, dto)
}

// DeleteConsultant removes a consultant and all its allocations. Removing
// an unknown consultant succeeds without changes.
func (h *Handler) DeleteConsultant(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)

	var removed bool
	err := h.Store.Update(r.Context(), func(ds *allocation.Dataset) error {
		removed = ds.RemoveConsultant(name)
		return nil
	})
	if err != nil {
		h.writeDomainError(w, "Failed to remove consultant", err)
		return
	}

	if removed {
		h.Log.Info().Str("consultant", name).Msg("consultant removed")
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetConsultantProjects returns the projects a consultant has time on.
func (h *Handler) GetConsultantProjects(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	ds := h.Store.Snapshot()
	if !ds.HasConsultant(name) {
		writeError(w, http.StatusNotFound, "Consultant not found", nil)
		return
	}

	projects := ds.AssignedProjects(name)
	if projects == nil {
		projects = []string{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// GetConsultantTimeline returns the consultant's percents for every period
// of a year with row totals.
func (h *Handler) GetConsultantTimeline(w http.ResponseWriter, r *http.Request) {
	pt, err := calendar.ParsePeriodType(r.URL.Query().Get("period_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_type", err)
		return
	}

	rows, err := allocation.Timeline(h.Store.Snapshot(), pt, nameParam(r), r.URL.Query().Get("year"))
	if err != nil {
		h.writeDomainError(w, "Failed to build timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// UpdateConsultantAllocations applies a batch of cell edits. Either every
// edit is applied or none.
func (h *Handler) UpdateConsultantAllocations(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)

	var req CellEditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var dto ConsultantDTO
	err := h.Store.Update(r.Context(), func(ds *allocation.Dataset) error {
		if !ds.HasConsultant(name) {
			return &allocation.NotFoundError{Kind: allocation.KindConsultant, Name: name}
		}
		if err := ds.SetAllocations(name, req.Edits); err != nil {
			return err
		}
		dto = consultantDTO(ds, name)
		return nil
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update allocations", err)
		return
	}

	h.Log.Info().Str("consultant", name).Int("edits", len(req.Edits)).Msg("allocations updated")
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns all projects with ranges and assignments.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ds := h.Store.Snapshot()
	colors := h.colors(ds)

	dtos := make([]ProjectDTO, len(ds.Projects))
	for i, p := range ds.Projects {
		dtos[i] = projectDTO(ds, p, colors[p])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProject adds a project spanning the whole dataset.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var name string
	err := h.Store.Update(r.Context(), func(ds *allocation.Dataset) error {
		if err := ds.AddProject(req.Name); err != nil {
			return err
		}
		name = ds.Projects[len(ds.Projects)-1]
		return nil
	})
	if err != nil {
		h.writeDomainError(w, "Failed to add project", err)
		return
	}

	ds := h.Store.Snapshot()
	h.Log.Info().Str("project", name).Msg("project added")
	writeJSON(w, http.StatusCreated, projectDTO(ds, name, h.colors(ds)[name]))
}

// GetProject returns one project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	ds := h.Store.Snapshot()
	if !ds.HasProject(name) {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, projectDTO(ds, name, h.colors(ds)[name]))
}

// UpdateProject saves the project editor: an optional range change, then
// an optional complete assignment set over the (new) range.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	edit := allocation.ProjectEdit{Project: name, Assignments: req.Assignments}
	if req.Start != "" || req.End != "" {
		rng, err := parseProjectRange(req.Start, req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid project range", err)
			return
		}
		edit.Range = &rng
	}

	if err := h.Store.Update(r.Context(), func(ds *allocation.Dataset) error {
		return ds.ApplyProjectEdit(edit)
	}); err != nil {
		h.writeDomainError(w, "Failed to update project", err)
		return
	}

	ds := h.Store.Snapshot()
	h.Log.Info().
		Str("project", name).
		Bool("range_changed", edit.Range != nil).
		Int("assignments", len(req.Assignments)).
		Msg("project updated")
	writeJSON(w, http.StatusOK, projectDTO(ds, name, h.colors(ds)[name]))
}

// DeleteProject removes a project and its allocations. Removing an unknown
// project succeeds without changes.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)

	var removed bool
	err := h.Store.Update(r.Context(), func(ds *allocation.Dataset) error {
		removed = ds.RemoveProject(name)
		return nil
	})
	if err != nil {
		h.writeDomainError(w, "Failed to remove project", err)
		return
	}

	if removed {
		h.Log.Info().Str("project", name).Msg("project removed")
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

// GetSummary returns every consultant's average percent per project over
// the periods overlapping [start, end].
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	pt, err := calendar.ParsePeriodType(r.URL.Query().Get("period_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_type", err)
		return
	}

	ds := h.Store.Snapshot()
	sel, err := allocation.PeriodsOverlapping(ds, pt, start, end)
	if err != nil {
		h.writeDomainError(w, "Failed to select periods", err)
		return
	}

	summaries := allocation.SummarizeAll(ds, sel)
	resp := SummaryResponse{
		Start:      start.String(),
		End:        end.String(),
		PeriodType: pt,
		Periods:    sel.Periods,
		Summaries:  make([]SummaryDTO, len(summaries)),
	}
	for i, s := range summaries {
		resp.Summaries[i] = toSummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetGrid returns the week by consultant breakdown over [start, end].
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	ds := h.Store.Snapshot()
	sel, err := allocation.PeriodsOverlapping(ds, calendar.Week, start, end)
	if err != nil {
		h.writeDomainError(w, "Failed to select periods", err)
		return
	}
	writeJSON(w, http.StatusOK, allocation.WeeklyGrid(ds, sel))
}

// ExportCSV downloads the weekly summary of [start, end] as CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	pt, err := calendar.ParsePeriodType(r.URL.Query().Get("period_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_type", err)
		return
	}

	ds := h.Store.Snapshot()
	sel, err := allocation.PeriodsOverlapping(ds, pt, start, end)
	if err != nil {
		h.writeDomainError(w, "Failed to select periods", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", allocation.ExportFilename(start, end)))
	w.WriteHeader(http.StatusOK)
	if err := allocation.ExportTable(ds, sel).WriteCSV(w); err != nil {
		h.Log.Error().Err(err).Msg("csv export interrupted")
	}
}

// ListYears returns the years that have periods.
func (h *Handler) ListYears(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, allocation.Years(h.Store.Snapshot()))
}

// ListPeriods returns the period ids of one type, optionally one year.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	pt, err := calendar.ParsePeriodType(r.URL.Query().Get("period_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_type", err)
		return
	}
	year := r.URL.Query().Get("year")

	periods := allocation.PeriodsInYear(h.Store.Snapshot(), pt, year)
	if periods == nil {
		periods = []calendar.PeriodID{}
	}
	writeJSON(w, http.StatusOK, PeriodsResponse{PeriodType: pt, Year: year, Periods: periods})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors to status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case allocation.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, allocation.ErrDuplicateEntity):
		status = http.StatusConflict
	case allocation.IsClientError(err):
		status = http.StatusBadRequest
	case errors.Is(err, allocation.ErrSaveFailed):
		h.Log.Error().Err(err).Msg("change kept in memory but not persisted")
	default:
		h.Log.Error().Err(err).Msg(message)
	}
	writeError(w, status, message, err)
}

// nameParam returns the unescaped {name} URL parameter. Names may contain
// spaces, commas and slashes.
func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// parseDateRange reads the required start and end query parameters.
func parseDateRange(r *http.Request) (calendar.Date, calendar.Date, error) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		return calendar.Date{}, calendar.Date{}, errors.New("start and end are required (YYYY-MM-DD)")
	}
	start, err := calendar.ParseDate(q.Get("start"))
	if err != nil {
		return calendar.Date{}, calendar.Date{}, err
	}
	end, err := calendar.ParseDate(q.Get("end"))
	if err != nil {
		return calendar.Date{}, calendar.Date{}, err
	}
	return start, end, nil
}

// parseProjectRange accepts ISO week ids or dates for both bounds.
func parseProjectRange(start, end string) (allocation.ProjectInfo, error) {
	if start == "" || end == "" {
		return allocation.ProjectInfo{}, errors.New("start and end must be set together")
	}
	s, err := weekOrDate(start)
	if err != nil {
		return allocation.ProjectInfo{}, err
	}
	e, err := weekOrDate(end)
	if err != nil {
		return allocation.ProjectInfo{}, err
	}
	return allocation.ProjectInfo{Start: s, End: e}, nil
}

func weekOrDate(s string) (calendar.PeriodID, error) {
	if _, _, err := calendar.ParseWeek(calendar.PeriodID(s)); err == nil {
		return calendar.PeriodID(s), nil
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q is neither YYYY-Www nor YYYY-MM-DD", calendar.ErrInvalidPeriodID, s)
	}
	return calendar.WeekOf(d), nil
}

func consultantDTO(ds *allocation.Dataset, name string) ConsultantDTO {
	projects := ds.AssignedProjects(name)
	if projects == nil {
		projects = []string{}
	}
	return ConsultantDTO{Name: name, Projects: projects}
}

func projectDTO(ds *allocation.Dataset, name, color string) ProjectDTO {
	info := ds.ProjectsInfo[name]
	dto := ProjectDTO{
		Name:        name,
		Start:       info.Start,
		End:         info.End,
		Color:       color,
		Assignments: []AssignmentDTO{},
	}
	for _, c := range ds.AssignedConsultants(name) {
		dto.Assignments = append(dto.Assignments, AssignmentDTO{
			Consultant: c,
			Percent:    ds.DefaultAllocation(name, c),
		})
	}
	return dto
}

// colors resolves every project's colour from the current scenario.
func (h *Handler) colors(ds *allocation.Dataset) map[string]string {
	current, _ := h.current()
	out := make(map[string]string, len(ds.Projects))
	for _, p := range ds.Projects {
		out[p] = current.Color(p)
	}
	return out
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types from the
  allocation package are returned as is where their JSON shape is already
  the contract (Dataset, Grid, TimelineRow); everything else goes through
  a DTO here.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Entities:   ConsultantDTO, ProjectDTO, AssignmentDTO, CreateRequest
  Editing:    UpdateProjectRequest, CellEditsRequest
  Reporting:  SummaryResponse, SummaryDTO, PeriodsResponse
  Scenarios:  ScenarioDTO, LoadScenarioRequest
  Remote:     RemoteConsultantDTO, RemoteProjectDTO, RemoteAllocationDTO

AVERAGES:
  Averages and totals are strings with exactly two decimals, the same
  rendering the CSV export uses.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
	"github.com/warp/allocation-engine/roster"
)

// =============================================================================
// ENTITIES
// =============================================================================

// DatasetDTO is the whole dataset plus the colour of each project.
type DatasetDTO struct {
	*allocation.Dataset
	Colors map[string]string `json:"colors"`
}

// CreateRequest adds a consultant or project by name.
type CreateRequest struct {
	Name string `json:"name"`
}

// ConsultantDTO is a consultant and the projects it has nonzero time on.
type ConsultantDTO struct {
	Name     string   `json:"name"`
	Projects []string `json:"projects"`
}

// AssignmentDTO is one consultant on a project with its editor default.
type AssignmentDTO struct {
	Consultant string `json:"consultant"`
	Percent    int    `json:"percent"`
}

// ProjectDTO is a project with its range and current assignments.
type ProjectDTO struct {
	Name        string            `json:"name"`
	Start       calendar.PeriodID `json:"start"`
	End         calendar.PeriodID `json:"end"`
	Color       string            `json:"color"`
	Assignments []AssignmentDTO   `json:"assignments"`
}

// UpdateProjectRequest is one save of the project editor. Start and End
// accept ISO weeks ("2025-W43") or dates ("2025-10-20"); both or neither
// must be set. A missing assignments field leaves assignments alone; an
// empty object unassigns everyone.
type UpdateProjectRequest struct {
	Start       string         `json:"start,omitempty"`
	End         string         `json:"end,omitempty"`
	Assignments map[string]int `json:"assignments,omitempty"`
}

// CellEditsRequest is a batch of cell edits for one consultant.
type CellEditsRequest struct {
	Edits []allocation.CellEdit `json:"edits"`
}

// =============================================================================
// REPORTING
// =============================================================================

// SummaryDTO is one consultant's averages over the selected range.
type SummaryDTO struct {
	Consultant string            `json:"consultant"`
	Averages   map[string]string `json:"averages"`
	Total      string            `json:"total"`
	Overbooked bool              `json:"overbooked"`
}

// SummaryResponse wraps the per consultant summaries of one range.
type SummaryResponse struct {
	Start      string              `json:"start"`
	End        string              `json:"end"`
	PeriodType calendar.PeriodType `json:"period_type"`
	Periods    []calendar.PeriodID `json:"periods"`
	Summaries  []SummaryDTO        `json:"summaries"`
}

// PeriodsResponse lists period ids of one type.
type PeriodsResponse struct {
	PeriodType calendar.PeriodType `json:"period_type"`
	Year       string              `json:"year,omitempty"`
	Periods    []calendar.PeriodID `json:"periods"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a seed roster that can be loaded.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Consultants int    `json:"consultants"`
	Projects    int    `json:"projects"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

// LoadScenarioRequest selects a scenario by id.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// REMOTE STORE
// =============================================================================

type RemoteConsultantDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type RemoteProjectDTO struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Start     calendar.PeriodID `json:"start,omitempty"`
	End       calendar.PeriodID `json:"end,omitempty"`
	CreatedAt string            `json:"created_at"`
}

type RemoteAllocationDTO struct {
	ConsultantID   string              `json:"consultant_id"`
	ConsultantName string              `json:"consultant_name"`
	ProjectID      string              `json:"project_id"`
	ProjectName    string              `json:"project_name"`
	PeriodType     calendar.PeriodType `json:"period_type"`
	PeriodStart    string              `json:"period_start"`
	Percent        int                 `json:"percent"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toSummaryDTO(s allocation.Summary) SummaryDTO {
	dto := SummaryDTO{
		Consultant: s.Consultant,
		Averages:   make(map[string]string, len(s.Projects)),
		Total:      s.Total.StringFixed(2),
		Overbooked: s.Overbooked,
	}
	for _, ps := range s.Projects {
		dto.Averages[ps.Project] = ps.Average.StringFixed(2)
	}
	return dto
}

func toScenarioDTO(r roster.Roster) ScenarioDTO {
	return ScenarioDTO{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Consultants: len(r.Consultants),
		Projects:    len(r.Projects),
		Start:       r.Start.String(),
		End:         r.End.String(),
	}
}

func toRemoteConsultantDTO(c allocation.Consultant) RemoteConsultantDTO {
	return RemoteConsultantDTO{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt.Format(time.RFC3339)}
}

func toRemoteProjectDTO(p allocation.Project) RemoteProjectDTO {
	return RemoteProjectDTO{ID: p.ID, Name: p.Name, Start: p.Start, End: p.End, CreatedAt: p.CreatedAt.Format(time.RFC3339)}
}

func toRemoteAllocationDTO(r allocation.AllocationRow) RemoteAllocationDTO {
	return RemoteAllocationDTO{
		ConsultantID:   r.ConsultantID,
		ConsultantName: r.ConsultantName,
		ProjectID:      r.ProjectID,
		ProjectName:    r.ProjectName,
		PeriodType:     r.PeriodType,
		PeriodStart:    r.PeriodStart.String(),
		Percent:        r.Percent,
	}
}

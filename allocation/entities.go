package allocation

import (
	"fmt"
	"strings"

	"github.com/warp/allocation-engine/calendar"
)

// =============================================================================
// CONSULTANTS
// =============================================================================

// AddConsultant appends a consultant and backfills a zero allocation for
// every existing project in every existing period of both granularities.
func (ds *Dataset) AddConsultant(name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if ds.HasConsultant(name) {
		return &DuplicateEntityError{Kind: KindConsultant, Name: name}
	}

	ds.Consultants = append(ds.Consultants, name)
	for _, pt := range calendar.PeriodTypes {
		t := ds.Table(pt)
		for id := range t {
			cell := t.ensure(id, name)
			for _, p := range ds.Projects {
				cell[p] = 0
			}
		}
	}
	return nil
}

// RemoveConsultant deletes the consultant and all of its allocation entries.
// Removing an absent consultant is a no-op; the result reports whether
// anything was removed.
func (ds *Dataset) RemoveConsultant(name string) bool {
	i := indexOf(ds.Consultants, name)
	if i < 0 {
		return false
	}
	ds.Consultants = append(ds.Consultants[:i:i], ds.Consultants[i+1:]...)
	for _, t := range ds.Periods {
		for _, row := range t {
			delete(row, name)
		}
	}
	return true
}

// =============================================================================
// PROJECTS
// =============================================================================

// AddProject appends a project active over the dataset's whole week range
// (an empty ProjectInfo when there are no weeks) and backfills a zero allocation for every consultant in every period.
func (ds *Dataset) AddProject(name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if ds.HasProject(name) {
		return &DuplicateEntityError{Kind: KindProject, Name: name}
	}

	ds.Projects = append(ds.Projects, name)
	if ds.ProjectsInfo == nil {
		ds.ProjectsInfo = make(map[string]ProjectInfo)
	}
	// Zero-valued when the dataset has no weeks yet.
	full, _ := ds.FullRange()
	ds.ProjectsInfo[name] = full
	for _, pt := range calendar.PeriodTypes {
		t := ds.Table(pt)
		for id := range t {
			for _, c := range ds.Consultants {
				t.ensure(id, c)[name] = 0
			}
		}
	}
	return nil
}

// RemoveProject deletes the project, its ProjectInfo and every allocation
// entry referencing it. Removing an absent project is a no-op.
func (ds *Dataset) RemoveProject(name string) bool {
	i := indexOf(ds.Projects, name)
	if i < 0 {
		return false
	}
	ds.Projects = append(ds.Projects[:i:i], ds.Projects[i+1:]...)
	delete(ds.ProjectsInfo, name)
	for _, t := range ds.Periods {
		for _, row := range t {
			for _, cell := range row {
				delete(cell, name)
			}
		}
	}
	return true
}

// =============================================================================
// CELLS
// =============================================================================

// SetAllocation writes one percent. Levels are created as needed. The
// consultant and project must exist; the percent is not bounded here, the
// aggregator flags overbooking instead.
func (ds *Dataset) SetAllocation(pt calendar.PeriodType, id calendar.PeriodID, consultant, project string, percent int) error {
	if _, err := calendar.Bounds(pt, id); err != nil {
		return err
	}
	if !ds.HasConsultant(consultant) {
		return &NotFoundError{Kind: KindConsultant, Name: consultant}
	}
	if !ds.HasProject(project) {
		return &NotFoundError{Kind: KindProject, Name: project}
	}
	ds.Table(pt).set(id, consultant, project, percent)
	return nil
}

// GetAllocation returns the percent, or 0 when any level is absent.
func (ds *Dataset) GetAllocation(pt calendar.PeriodType, id calendar.PeriodID, consultant, project string) int {
	return ds.Periods[pt].Get(id, consultant, project)
}

// CellEdit is one cell of the per-consultant editor.
type CellEdit struct {
	PeriodType calendar.PeriodType `json:"period_type"`
	PeriodID   calendar.PeriodID   `json:"period_id"`
	Project    string              `json:"project"`
	Percent    int                 `json:"percent"`
}

// SetAllocations applies a batch of cell edits for one consultant. The
// batch stops at the first failing edit; run it inside Store.Update so a
// failure leaves nothing committed.
func (ds *Dataset) SetAllocations(consultant string, edits []CellEdit) error {
	for _, e := range edits {
		if err := ds.SetAllocation(e.PeriodType, e.PeriodID, consultant, e.Project, e.Percent); err != nil {
			return fmt.Errorf("edit %s %s %q: %w", e.PeriodType, e.PeriodID, e.Project, err)
		}
	}
	return nil
}

// =============================================================================
// ASSIGNMENT LOOKUPS
// =============================================================================

// AssignedConsultants returns consultants with a nonzero percent on the
// project in any period of either granularity, in roster order.
func (ds *Dataset) AssignedConsultants(project string) []string {
	var out []string
	for _, c := range ds.Consultants {
		if ds.hasNonzero(c, project) {
			out = append(out, c)
		}
	}
	return out
}

// AssignedProjects returns projects the consultant has a nonzero percent
// on in any period, in project order.
func (ds *Dataset) AssignedProjects(consultant string) []string {
	var out []string
	for _, p := range ds.Projects {
		if ds.hasNonzero(consultant, p) {
			out = append(out, p)
		}
	}
	return out
}

func (ds *Dataset) hasNonzero(consultant, project string) bool {
	for _, t := range ds.Periods {
		for _, row := range t {
			if row[consultant][project] > 0 {
				return true
			}
		}
	}
	return false
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	}
	return name, nil
}

/*
Package allocation is the consultant allocation engine.

PURPOSE:
  Tracks what percentage of each consultant's time goes to which project,
  per week and per month. The package owns the dataset model and every
  operation on it: entity lifecycle (store.go/entities.go), propagation of
  project range and assignment edits (propagate.go), aggregation and
  export (aggregate.go, export.go) and seed generation (seed.go).

KEY CONCEPTS IN THIS FILE (dataset.go):
  - Dataset:     The aggregate root (consultants, projects, project info,
                 and the allocation tables for both granularities)
  - PeriodTable: period id -> consultant -> project -> percent
  - ProjectInfo: a project's active range as two week ids

DESIGN PRINCIPLES:
  1. Sparse: an absent entry reads as 0
  2. Lockstep: week and month tables cover the same span and every
     range operation touches both
  3. Owned: a Dataset is mutated only through its owner (see Store);
     other components receive it as an argument and keep no copy

JSON:
  The dataset serialises with the keys consultants, projects,
  projectsInfo, periods.week and periods.month.

SEE ALSO:
  - calendar: period ids and bounds
  - store.go: single-owner handle with staging and persistence
*/
package allocation

import (
	"fmt"
	"sort"

	"github.com/warp/allocation-engine/calendar"
)

// =============================================================================
// TYPES
// =============================================================================

// ProjectInfo is a project's active range, start <= end by week order.
type ProjectInfo struct {
	Start calendar.PeriodID `json:"start"`
	End   calendar.PeriodID `json:"end"`
}

// ProjectPercents maps project name to percent for one consultant in one period.
type ProjectPercents map[string]int

// ConsultantTable maps consultant name to that consultant's project percents.
type ConsultantTable map[string]ProjectPercents

// PeriodTable maps period id to the consultants' allocations in that period.
type PeriodTable map[calendar.PeriodID]ConsultantTable

// Dataset is the aggregate root.
type Dataset struct {
	Consultants  []string                             `json:"consultants"`
	Projects     []string                             `json:"projects"`
	ProjectsInfo map[string]ProjectInfo               `json:"projectsInfo"`
	Periods      map[calendar.PeriodType]PeriodTable `json:"periods"`
}

// NewDataset returns an empty dataset with both period tables present.
func NewDataset() *Dataset {
	return &Dataset{
		Consultants:  []string{},
		Projects:     []string{},
		ProjectsInfo: make(map[string]ProjectInfo),
		Periods: map[calendar.PeriodType]PeriodTable{
			calendar.Week:  make(PeriodTable),
			calendar.Month: make(PeriodTable),
		},
	}
}

// =============================================================================
// TABLE ACCESSORS
// =============================================================================

// Get returns the percent for (period, consultant, project), 0 if absent.
func (t PeriodTable) Get(id calendar.PeriodID, consultant, project string) int {
	return t[id][consultant][project]
}

// ensure returns the project map for (period, consultant), creating levels.
func (t PeriodTable) ensure(id calendar.PeriodID, consultant string) ProjectPercents {
	row, ok := t[id]
	if !ok {
		row = make(ConsultantTable)
		t[id] = row
	}
	cell, ok := row[consultant]
	if !ok {
		cell = make(ProjectPercents)
		row[consultant] = cell
	}
	return cell
}

// set writes a percent, creating levels as needed.
func (t PeriodTable) set(id calendar.PeriodID, consultant, project string, percent int) {
	t.ensure(id, consultant)[project] = percent
}

// remove deletes (consultant, project) from every period of the table.
func (t PeriodTable) remove(consultant, project string) {
	for _, row := range t {
		if cell, ok := row[consultant]; ok {
			delete(cell, project)
		}
	}
}

// Table returns the period table for pt, creating it if missing.
func (ds *Dataset) Table(pt calendar.PeriodType) PeriodTable {
	if ds.Periods == nil {
		ds.Periods = make(map[calendar.PeriodType]PeriodTable)
	}
	t, ok := ds.Periods[pt]
	if !ok {
		t = make(PeriodTable)
		ds.Periods[pt] = t
	}
	return t
}

// PeriodIDs returns the period ids of type pt in chronological order.
func (ds *Dataset) PeriodIDs(pt calendar.PeriodType) []calendar.PeriodID {
	t := ds.Periods[pt]
	ids := make([]calendar.PeriodID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	calendar.SortPeriods(ids)
	return ids
}

func (ds *Dataset) WeekPeriods() []calendar.PeriodID  { return ds.PeriodIDs(calendar.Week) }
func (ds *Dataset) MonthPeriods() []calendar.PeriodID { return ds.PeriodIDs(calendar.Month) }

// HasPeriod reports whether the dataset has a row for the period.
func (ds *Dataset) HasPeriod(pt calendar.PeriodType, id calendar.PeriodID) bool {
	_, ok := ds.Periods[pt][id]
	return ok
}

func (ds *Dataset) HasConsultant(name string) bool { return indexOf(ds.Consultants, name) >= 0 }
func (ds *Dataset) HasProject(name string) bool    { return indexOf(ds.Projects, name) >= 0 }

// FullRange returns the first and last week of the dataset as a ProjectInfo.
// ok is false when the dataset has no weeks.
func (ds *Dataset) FullRange() (ProjectInfo, bool) {
	weeks := ds.WeekPeriods()
	if len(weeks) == 0 {
		return ProjectInfo{}, false
	}
	return ProjectInfo{Start: weeks[0], End: weeks[len(weeks)-1]}, true
}

// AddPeriods extends the horizon with zero rows for every consultant and
// project. Existing periods are left untouched.
func (ds *Dataset) AddPeriods(pt calendar.PeriodType, ids ...calendar.PeriodID) error {
	for _, id := range ids {
		if _, err := calendar.Bounds(pt, id); err != nil {
			return err
		}
	}
	t := ds.Table(pt)
	for _, id := range ids {
		if _, ok := t[id]; ok {
			continue
		}
		t[id] = make(ConsultantTable)
		for _, c := range ds.Consultants {
			cell := t.ensure(id, c)
			for _, p := range ds.Projects {
				cell[p] = 0
			}
		}
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the structure a loaded dataset must have. Any failure
// wraps ErrMalformedState.
func (ds *Dataset) Validate() error {
	if ds == nil {
		return fmt.Errorf("%w: dataset is empty", ErrMalformedState)
	}
	if ds.Consultants == nil {
		return fmt.Errorf("%w: missing consultants", ErrMalformedState)
	}
	if ds.Projects == nil {
		return fmt.Errorf("%w: missing projects", ErrMalformedState)
	}
	if ds.Periods == nil {
		return fmt.Errorf("%w: missing periods", ErrMalformedState)
	}
	for _, pt := range calendar.PeriodTypes {
		t, ok := ds.Periods[pt]
		if !ok || t == nil {
			return fmt.Errorf("%w: missing %s periods", ErrMalformedState, pt)
		}
		for id := range t {
			if _, err := calendar.Bounds(pt, id); err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedState, err)
			}
		}
	}
	if err := uniqueNames(KindConsultant, ds.Consultants); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if err := uniqueNames(KindProject, ds.Projects); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return nil
}

// Normalize backfills what a valid dataset may lack: every project gets a
// ProjectInfo (the full week range when absent, empty without weeks) and
// period rows exist for every consultant.
func (ds *Dataset) Normalize() {
	if ds.ProjectsInfo == nil {
		ds.ProjectsInfo = make(map[string]ProjectInfo)
	}
	full, _ := ds.FullRange()
	for _, p := range ds.Projects {
		if _, ok := ds.ProjectsInfo[p]; !ok {
			ds.ProjectsInfo[p] = full
		}
	}
	for _, pt := range calendar.PeriodTypes {
		t := ds.Table(pt)
		for id := range t {
			for _, c := range ds.Consultants {
				t.ensure(id, c)
			}
		}
	}
}

func uniqueNames(kind EntityKind, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return &DuplicateEntityError{Kind: kind, Name: n}
		}
		seen[n] = true
	}
	return nil
}

// =============================================================================
// COPYING
// =============================================================================

// Clone returns a deep copy. Store stages every mutation on a clone.
func (ds *Dataset) Clone() *Dataset {
	out := &Dataset{
		Consultants:  append([]string{}, ds.Consultants...),
		Projects:     append([]string{}, ds.Projects...),
		ProjectsInfo: make(map[string]ProjectInfo, len(ds.ProjectsInfo)),
		Periods:      make(map[calendar.PeriodType]PeriodTable, len(ds.Periods)),
	}
	for k, v := range ds.ProjectsInfo {
		out.ProjectsInfo[k] = v
	}
	for pt, t := range ds.Periods {
		tc := make(PeriodTable, len(t))
		for id, row := range t {
			rc := make(ConsultantTable, len(row))
			for c, cell := range row {
				cc := make(ProjectPercents, len(cell))
				for p, v := range cell {
					cc[p] = v
				}
				rc[c] = cc
			}
			tc[id] = rc
		}
		out.Periods[pt] = tc
	}
	return out
}

// sortedKeys is used wherever map iteration must be deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(list []string, name string) int {
	for i, v := range list {
		if v == name {
			return i
		}
	}
	return -1
}

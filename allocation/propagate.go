/*
propagate.go - Assignment propagation across week and month tables

PURPOSE:
  Keeps "consultant X works on project P at N% between weeks A and B"
  consistent in both granularities whenever a project's range or its
  assignments change. Every editing surface goes through ApplyProjectEdit
  (or the single-step helpers below); none re-implements the rules.

RULES:
  - Assignment is range-scoped: the percent is written into every target
    week and every target month of the project's range.
  - Unassignment is global: the (consultant, project) entry is deleted
    from every period of both tables, inside or outside the range.
  - A range change is applied before assignments, which then use the
    new range.

TARGET PERIODS:
  weeks:  the sorted week list sliced from start to end (whole list if
          either bound is not a dataset week)
  months: every dataset month whose days overlap start's Monday through
          end's Sunday
*/
package allocation

import (
	"fmt"

	"github.com/warp/allocation-engine/calendar"
)

// TargetRange is the set of periods a project range covers.
type TargetRange struct {
	Weeks  []calendar.PeriodID
	Months []calendar.PeriodID
}

// TargetPeriods computes the weeks and months covered by [start, end].
func (ds *Dataset) TargetPeriods(start, end calendar.PeriodID) TargetRange {
	weeks := ds.WeekPeriods()
	months := ds.MonthPeriods()

	target := TargetRange{Weeks: weeks, Months: months}
	si, ei := periodIndex(weeks, start), periodIndex(weeks, end)
	if si >= 0 && ei >= si {
		target.Weeks = weeks[si : ei+1]
	}

	first, errStart := calendar.WeekBounds(start)
	last, errEnd := calendar.WeekBounds(end)
	if errStart != nil || errEnd != nil {
		return target
	}
	span := calendar.Period{Start: first.Start, End: last.End}
	target.Months = nil
	for _, m := range months {
		bounds, err := calendar.MonthBounds(m)
		if err != nil {
			continue
		}
		if bounds.End.AfterOrEqual(span.Start) && bounds.Start.BeforeOrEqual(span.End) {
			target.Months = append(target.Months, m)
		}
	}
	return target
}

// projectRange returns the project's range, falling back to the full range.
func (ds *Dataset) projectRange(project string) ProjectInfo {
	if info, ok := ds.ProjectsInfo[project]; ok {
		return info
	}
	full, _ := ds.FullRange()
	return full
}

// =============================================================================
// SINGLE-STEP OPERATIONS
// =============================================================================

// ChangeRange sets the project's active range and re-propagates every
// currently assigned consultant at their existing percent (read from the
// old range) over the new range. Entries outside the new range are kept.
func (ds *Dataset) ChangeRange(project string, start, end calendar.PeriodID) error {
	if !ds.HasProject(project) {
		return &NotFoundError{Kind: KindProject, Name: project}
	}
	if err := validateRange(start, end); err != nil {
		return err
	}

	assigned := ds.AssignedConsultants(project)
	percents := make(map[string]int, len(assigned))
	for _, c := range assigned {
		percents[c] = ds.currentPercent(project, c)
	}

	if ds.ProjectsInfo == nil {
		ds.ProjectsInfo = make(map[string]ProjectInfo)
	}
	ds.ProjectsInfo[project] = ProjectInfo{Start: start, End: end}

	target := ds.TargetPeriods(start, end)
	for _, c := range assigned {
		ds.write(target, c, project, percents[c])
	}
	return nil
}

// Assign writes percent for (consultant, project) into every period of the
// project's current range, in both granularities.
func (ds *Dataset) Assign(project, consultant string, percent int) error {
	if err := ds.requirePair(project, consultant); err != nil {
		return err
	}
	info := ds.projectRange(project)
	ds.write(ds.TargetPeriods(info.Start, info.End), consultant, project, percent)
	return nil
}

// Unassign deletes (consultant, project) from every period of both
// granularities, not only the active range.
func (ds *Dataset) Unassign(project, consultant string) error {
	if err := ds.requirePair(project, consultant); err != nil {
		return err
	}
	for _, pt := range calendar.PeriodTypes {
		ds.Table(pt).remove(consultant, project)
	}
	return nil
}

func (ds *Dataset) write(target TargetRange, consultant, project string, percent int) {
	weeks := ds.Table(calendar.Week)
	for _, id := range target.Weeks {
		weeks.set(id, consultant, project, percent)
	}
	months := ds.Table(calendar.Month)
	for _, id := range target.Months {
		months.set(id, consultant, project, percent)
	}
}

// =============================================================================
// PROJECT EDIT - The one editor every presentation variant uses
// =============================================================================

// ProjectEdit describes one save of the project editor.
type ProjectEdit struct {
	Project string

	// Range, when set, replaces the project's active range first.
	Range *ProjectInfo

	// Assignments, when non-nil, is the complete assignment set: listed
	// consultants are assigned at their percent over the (new) range and
	// every other roster consultant is unassigned.
	Assignments map[string]int
}

// ApplyProjectEdit applies a range change and then the assignment set.
// Run it inside Store.Update so a failure leaves nothing committed.
func (ds *Dataset) ApplyProjectEdit(edit ProjectEdit) error {
	if !ds.HasProject(edit.Project) {
		return &NotFoundError{Kind: KindProject, Name: edit.Project}
	}
	for c := range edit.Assignments {
		if !ds.HasConsultant(c) {
			return &NotFoundError{Kind: KindConsultant, Name: c}
		}
	}

	if edit.Range != nil {
		if err := ds.ChangeRange(edit.Project, edit.Range.Start, edit.Range.End); err != nil {
			return err
		}
	}
	if edit.Assignments == nil {
		return nil
	}

	for _, c := range ds.Consultants {
		var err error
		if percent, ok := edit.Assignments[c]; ok {
			err = ds.Assign(edit.Project, c, percent)
		} else {
			err = ds.Unassign(edit.Project, c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// DefaultAllocation seeds the editor for a pair: the first nonzero percent
// found scanning weeks then months in chronological order, else 0.
func (ds *Dataset) DefaultAllocation(project, consultant string) int {
	for _, pt := range calendar.PeriodTypes {
		t := ds.Periods[pt]
		for _, id := range ds.PeriodIDs(pt) {
			if v := t.Get(id, consultant, project); v > 0 {
				return v
			}
		}
	}
	return 0
}

// =============================================================================
// HELPERS
// =============================================================================

// currentPercent is the pair's percent inside the project's current range,
// falling back to DefaultAllocation when the range holds no nonzero value.
func (ds *Dataset) currentPercent(project, consultant string) int {
	info := ds.projectRange(project)
	target := ds.TargetPeriods(info.Start, info.End)
	weeks := ds.Periods[calendar.Week]
	for _, id := range target.Weeks {
		if v := weeks.Get(id, consultant, project); v > 0 {
			return v
		}
	}
	months := ds.Periods[calendar.Month]
	for _, id := range target.Months {
		if v := months.Get(id, consultant, project); v > 0 {
			return v
		}
	}
	return ds.DefaultAllocation(project, consultant)
}

func (ds *Dataset) requirePair(project, consultant string) error {
	if !ds.HasProject(project) {
		return &NotFoundError{Kind: KindProject, Name: project}
	}
	if !ds.HasConsultant(consultant) {
		return &NotFoundError{Kind: KindConsultant, Name: consultant}
	}
	return nil
}

// validateRange checks both ids are weeks and start <= end.
func validateRange(start, end calendar.PeriodID) error {
	if _, _, err := calendar.ParseWeek(start); err != nil {
		return err
	}
	if _, _, err := calendar.ParseWeek(end); err != nil {
		return err
	}
	if calendar.ComparePeriods(start, end) > 0 {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	return nil
}

func periodIndex(ids []calendar.PeriodID, id calendar.PeriodID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

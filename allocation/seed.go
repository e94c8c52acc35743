package allocation

import (
	"fmt"

	"github.com/warp/allocation-engine/calendar"
)

// =============================================================================
// SEED - Building a dataset from assignment records
// =============================================================================

// AssignmentRecord says a consultant works on a project at Percent between
// two calendar dates (both inclusive).
type AssignmentRecord struct {
	Consultant string        `json:"consultant" yaml:"consultant"`
	Project    string        `json:"project" yaml:"project"`
	Start      calendar.Date `json:"start" yaml:"start"`
	End        calendar.Date `json:"end" yaml:"end"`
	Percent    int           `json:"percent" yaml:"percent"`
}

// SeedSpec is everything needed to generate a dataset: the roster, the
// global span the period tables cover, and the assignment records.
type SeedSpec struct {
	Consultants []string
	Projects    []string
	Start       calendar.Date
	End         calendar.Date
	Assignments []AssignmentRecord
}

// Seeder produces the dataset used when nothing valid is persisted.
type Seeder func() (*Dataset, error)

// Seed generates zeroed week and month tables over the global span, then
// expands every assignment record into its weeks and months. Each
// project's range becomes the union (earliest start week, latest end
// week) of its records; projects without records span the whole range.
func Seed(spec SeedSpec) (*Dataset, error) {
	weeks, err := calendar.WeeksBetween(spec.Start, spec.End)
	if err != nil {
		return nil, fmt.Errorf("seed span: %w", err)
	}
	months, err := calendar.MonthsBetween(spec.Start, spec.End)
	if err != nil {
		return nil, fmt.Errorf("seed span: %w", err)
	}

	ds := NewDataset()
	for _, c := range spec.Consultants {
		if err := ds.AddConsultant(c); err != nil {
			return nil, err
		}
	}
	for _, p := range spec.Projects {
		if err := ds.AddProject(p); err != nil {
			return nil, err
		}
	}
	if err := ds.AddPeriods(calendar.Week, weeks...); err != nil {
		return nil, err
	}
	if err := ds.AddPeriods(calendar.Month, months...); err != nil {
		return nil, err
	}
	// AddProject ran before any week existed and recorded empty ranges
	ds.ProjectsInfo = make(map[string]ProjectInfo)

	for i, rec := range spec.Assignments {
		if err := ds.applyRecord(rec); err != nil {
			return nil, fmt.Errorf("assignment %d (%s on %s): %w", i, rec.Consultant, rec.Project, err)
		}
	}

	ds.Normalize()
	return ds, nil
}

func (ds *Dataset) applyRecord(rec AssignmentRecord) error {
	if err := ds.requirePair(rec.Project, rec.Consultant); err != nil {
		return err
	}
	weeks, err := calendar.WeeksBetween(rec.Start, rec.End)
	if err != nil {
		return err
	}
	months, err := calendar.MonthsBetween(rec.Start, rec.End)
	if err != nil {
		return err
	}

	// Records may reach past the global span; those periods are added.
	if err := ds.AddPeriods(calendar.Week, weeks...); err != nil {
		return err
	}
	if err := ds.AddPeriods(calendar.Month, months...); err != nil {
		return err
	}
	ds.write(TargetRange{Weeks: weeks, Months: months}, rec.Consultant, rec.Project, rec.Percent)

	start, end := calendar.WeekOf(rec.Start), calendar.WeekOf(rec.End)
	info, ok := ds.ProjectsInfo[rec.Project]
	if !ok {
		ds.ProjectsInfo[rec.Project] = ProjectInfo{Start: start, End: end}
		return nil
	}
	if calendar.ComparePeriods(start, info.Start) < 0 {
		info.Start = start
	}
	if calendar.ComparePeriods(end, info.End) > 0 {
		info.End = end
	}
	ds.ProjectsInfo[rec.Project] = info
	return nil
}

/*
aggregate.go - Summaries over a date range

PURPOSE:
  Turns the allocation tables into the figures the dashboard shows: per
  consultant average percent per project over the selected periods, the
  total of those averages, and whether the consultant is overbooked.

AVERAGES:
  A consultant on a project at 20% every week averages 20 over any number
  of weeks. Averages are decimals; callers render them with two places.

SELECTION:
  PeriodsOverlapping is the only way periods are picked for a date range.
  Summary, grid and export all consume its Selection so they agree on
  which periods contribute.
*/
package allocation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/allocation-engine/calendar"
)

// OverbookingThreshold is the total percent above which a consultant is overbooked.
var OverbookingThreshold = decimal.NewFromInt(100)

// Selection is an ordered set of periods of one type.
type Selection struct {
	Type    calendar.PeriodType `json:"period_type"`
	Periods []calendar.PeriodID `json:"periods"`
}

// PeriodsOverlapping selects the dataset periods of type pt that overlap
// [start, end]: the period's start or end falls inside the range, or the
// period contains the whole range.
func PeriodsOverlapping(ds *Dataset, pt calendar.PeriodType, start, end calendar.Date) (Selection, error) {
	rng, err := calendar.NewPeriod(start, end)
	if err != nil {
		return Selection{}, err
	}
	sel := Selection{Type: pt, Periods: []calendar.PeriodID{}}
	for _, id := range ds.PeriodIDs(pt) {
		bounds, err := calendar.Bounds(pt, id)
		if err != nil {
			return Selection{}, err
		}
		if bounds.Overlaps(rng) {
			sel.Periods = append(sel.Periods, id)
		}
	}
	return sel, nil
}

// =============================================================================
// SUMMARY
// =============================================================================

// ProjectShare is one project's average percent over a selection.
type ProjectShare struct {
	Project string          `json:"project"`
	Average decimal.Decimal `json:"average"`
}

// Summary is one consultant's aggregated allocation over a selection.
type Summary struct {
	Consultant string          `json:"consultant"`
	Periods    int             `json:"periods"`
	Projects   []ProjectShare  `json:"projects"`
	Total      decimal.Decimal `json:"total"`
	Overbooked bool            `json:"overbooked"`
}

// Average returns the project's average, zero if the project is unknown.
func (s Summary) Average(project string) decimal.Decimal {
	for _, ps := range s.Projects {
		if ps.Project == project {
			return ps.Average
		}
	}
	return decimal.Zero
}

// Summarize averages the consultant's percent per project over the
// selected periods (sum / period count, 0 for an empty selection). Total
// is the sum of every project's percents divided once by the period
// count, not the sum of the rounded averages.
func Summarize(ds *Dataset, consultant string, sel Selection) Summary {
	t := ds.Periods[sel.Type]
	count := decimal.NewFromInt(int64(len(sel.Periods)))

	s := Summary{
		Consultant: consultant,
		Periods:    len(sel.Periods),
		Projects:   make([]ProjectShare, 0, len(ds.Projects)),
		Total:      decimal.Zero,
	}
	total := 0
	for _, p := range ds.Projects {
		avg := decimal.Zero
		if len(sel.Periods) > 0 {
			sum := 0
			for _, id := range sel.Periods {
				sum += t.Get(id, consultant, p)
			}
			avg = decimal.NewFromInt(int64(sum)).Div(count)
			total += sum
		}
		s.Projects = append(s.Projects, ProjectShare{Project: p, Average: avg})
	}
	if len(sel.Periods) > 0 {
		s.Total = decimal.NewFromInt(int64(total)).Div(count)
	}
	// total > 100 * periods is total/periods > 100 without rounding.
	s.Overbooked = int64(total) > OverbookingThreshold.IntPart()*int64(len(sel.Periods))
	return s
}

// SummarizeAll summarizes every consultant in roster order.
func SummarizeAll(ds *Dataset, sel Selection) []Summary {
	out := make([]Summary, 0, len(ds.Consultants))
	for _, c := range ds.Consultants {
		out = append(out, Summarize(ds, c, sel))
	}
	return out
}

// Overbooked reports total > 100.
func Overbooked(total decimal.Decimal) bool {
	return total.GreaterThan(OverbookingThreshold)
}

// =============================================================================
// WEEKLY GRID - per week, per consultant breakdown
// =============================================================================

// ProjectPercent is one nonzero entry of a grid cell.
type ProjectPercent struct {
	Project string `json:"project"`
	Percent int    `json:"percent"`
}

// GridCell is one consultant in one period.
type GridCell struct {
	Period      calendar.PeriodID `json:"period"`
	Allocations []ProjectPercent  `json:"allocations"`
	Total       int               `json:"total"`
	Overbooked  bool              `json:"overbooked"`
}

// GridRow is one consultant across the selected periods.
type GridRow struct {
	Consultant string     `json:"consultant"`
	Cells      []GridCell `json:"cells"`
}

// Grid is the period-by-consultant breakdown. Labels are the Friday of
// each week ("Oct 24") or the month id.
type Grid struct {
	Type    calendar.PeriodType `json:"period_type"`
	Periods []calendar.PeriodID `json:"periods"`
	Labels  []string            `json:"labels"`
	Rows    []GridRow           `json:"rows"`
}

// WeeklyGrid builds the breakdown for a selection. Only nonzero
// allocations appear in a cell, in project order.
func WeeklyGrid(ds *Dataset, sel Selection) Grid {
	t := ds.Periods[sel.Type]
	g := Grid{
		Type:    sel.Type,
		Periods: sel.Periods,
		Labels:  make([]string, len(sel.Periods)),
		Rows:    make([]GridRow, 0, len(ds.Consultants)),
	}
	for i, id := range sel.Periods {
		g.Labels[i] = periodLabel(sel.Type, id)
	}

	for _, c := range ds.Consultants {
		row := GridRow{Consultant: c, Cells: make([]GridCell, 0, len(sel.Periods))}
		for _, id := range sel.Periods {
			cell := GridCell{Period: id, Allocations: []ProjectPercent{}}
			for _, p := range ds.Projects {
				if v := t.Get(id, c, p); v > 0 {
					cell.Allocations = append(cell.Allocations, ProjectPercent{Project: p, Percent: v})
					cell.Total += v
				}
			}
			cell.Overbooked = cell.Total > 100
			row.Cells = append(row.Cells, cell)
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

func periodLabel(pt calendar.PeriodType, id calendar.PeriodID) string {
	if pt == calendar.Week {
		if friday, err := calendar.WeekFriday(id); err == nil {
			return friday.Time.Format("Jan 2")
		}
	}
	return string(id)
}

// =============================================================================
// TIMELINE - one consultant, every period of a year
// =============================================================================

// TimelineRow is one period of a consultant's editor table.
type TimelineRow struct {
	Period     calendar.PeriodID `json:"period"`
	Label      string            `json:"label"`
	Percents   map[string]int    `json:"percents"`
	Total      int               `json:"total"`
	Overbooked bool              `json:"overbooked"`
}

// Timeline lists the consultant's percents for every period of type pt in
// year (all years when year is empty), with the row total flagged when it
// exceeds 100.
func Timeline(ds *Dataset, pt calendar.PeriodType, consultant, year string) ([]TimelineRow, error) {
	if !ds.HasConsultant(consultant) {
		return nil, &NotFoundError{Kind: KindConsultant, Name: consultant}
	}
	t := ds.Periods[pt]
	rows := []TimelineRow{}
	for _, id := range PeriodsInYear(ds, pt, year) {
		row := TimelineRow{Period: id, Label: string(id), Percents: make(map[string]int, len(ds.Projects))}
		if pt == calendar.Week {
			row.Label = calendar.WeekLabel(id)
		}
		for _, p := range ds.Projects {
			v := t.Get(id, consultant, p)
			row.Percents[p] = v
			row.Total += v
		}
		row.Overbooked = row.Total > 100
		rows = append(rows, row)
	}
	return rows, nil
}

// PeriodsInYear returns the sorted ids of type pt whose year prefix is
// year. An empty year returns every period.
func PeriodsInYear(ds *Dataset, pt calendar.PeriodType, year string) []calendar.PeriodID {
	all := ds.PeriodIDs(pt)
	if year == "" {
		return all
	}
	var out []calendar.PeriodID
	for _, id := range all {
		if id.Year() == year {
			out = append(out, id)
		}
	}
	return out
}

// Years returns the distinct years across week and month ids, sorted.
func Years(ds *Dataset) []string {
	seen := make(map[string]bool)
	for _, pt := range calendar.PeriodTypes {
		for id := range ds.Periods[pt] {
			seen[id.Year()] = true
		}
	}
	return sortedKeys(seen)
}

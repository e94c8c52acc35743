package allocation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

const (
	standTogether = "Stand Together"
	omniSource    = "OmniSource"
	opos          = "OPOS, Inc."
)

func date(year int, month time.Month, day int) calendar.Date {
	return calendar.NewDate(year, month, day)
}

// newQuarter returns a dataset covering Oct 1 - Dec 31 2025 (weeks
// 2025-W40..2026-W01, months 2025-10..2025-12) with no allocations.
func newQuarter(t *testing.T) *allocation.Dataset {
	t.Helper()
	ds, err := allocation.Seed(allocation.SeedSpec{
		Consultants: []string{"Ginny", "Kit", "Jeff"},
		Projects:    []string{standTogether, omniSource, opos},
		Start:       date(2025, time.October, 1),
		End:         date(2025, time.December, 31),
	})
	require.NoError(t, err)
	return ds
}

// requireLockstep checks, for every project range, that each target week
// and each target month overlapping it hold the same percent for every
// consultant.
func requireLockstep(t *testing.T, ds *allocation.Dataset) {
	t.Helper()
	weeks := ds.Periods[calendar.Week]
	months := ds.Periods[calendar.Month]

	for _, p := range ds.Projects {
		info := ds.ProjectsInfo[p]
		target := ds.TargetPeriods(info.Start, info.End)
		for _, w := range target.Weeks {
			wb, err := calendar.WeekBounds(w)
			require.NoError(t, err)
			for _, c := range ds.Consultants {
				v := weeks.Get(w, c, p)
				if v == 0 {
					continue
				}
				for _, m := range target.Months {
					mb, err := calendar.MonthBounds(m)
					require.NoError(t, err)
					if wb.Overlaps(mb) {
						require.Equal(t, v, months.Get(m, c, p), "%s/%s week %s vs month %s", c, p, w, m)
					}
				}
			}
		}
		for _, m := range target.Months {
			mb, err := calendar.MonthBounds(m)
			require.NoError(t, err)
			for _, c := range ds.Consultants {
				v := months.Get(m, c, p)
				if v == 0 {
					continue
				}
				for _, w := range target.Weeks {
					wb, err := calendar.WeekBounds(w)
					require.NoError(t, err)
					if mb.Contains(wb.Start) && mb.Contains(wb.End) {
						require.Equal(t, v, weeks.Get(w, c, p), "%s/%s month %s vs week %s", c, p, m, w)
					}
				}
			}
		}
	}
}

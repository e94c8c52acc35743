package allocation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
)

func TestSeed_ZeroFilledTables(t *testing.T) {
	ds := newQuarter(t)

	weeks := ds.WeekPeriods()
	assert.Len(t, weeks, 14)
	assert.Equal(t, calendar.PeriodID("2025-W40"), weeks[0])
	assert.Equal(t, calendar.PeriodID("2026-W01"), weeks[13])
	assert.Equal(t, []calendar.PeriodID{"2025-10", "2025-11", "2025-12"}, ds.MonthPeriods())
	assert.Equal(t, 0, ds.GetAllocation(calendar.Week, "2025-W45", "Kit", omniSource))
	require.NoError(t, ds.Validate())
}

func TestSeed_ProjectRangeIsUnionOfRecords(t *testing.T) {
	// GIVEN: Two OmniSource records with a gap between them
	ds, err := allocation.Seed(allocation.SeedSpec{
		Consultants: []string{"Kit", "Jeff"},
		Projects:    []string{omniSource, opos},
		Start:       date(2025, time.October, 1),
		End:         date(2025, time.December, 31),
		Assignments: []allocation.AssignmentRecord{
			{Consultant: "Kit", Project: omniSource, Start: date(2025, time.November, 10), End: date(2025, time.November, 21), Percent: 40},
			{Consultant: "Jeff", Project: omniSource, Start: date(2025, time.October, 6), End: date(2025, time.October, 17), Percent: 60},
		},
	})
	require.NoError(t, err)

	// THEN: The range spans from the earliest start week to the latest end week
	assert.Equal(t, allocation.ProjectInfo{Start: "2025-W41", End: "2025-W47"}, ds.ProjectsInfo[omniSource])
	// Projects without records span everything
	assert.Equal(t, allocation.ProjectInfo{Start: "2025-W40", End: "2026-W01"}, ds.ProjectsInfo[opos])

	assert.Equal(t, 60, ds.GetAllocation(calendar.Week, "2025-W41", "Jeff", omniSource))
	assert.Equal(t, 60, ds.GetAllocation(calendar.Month, "2025-10", "Jeff", omniSource))
	assert.Zero(t, ds.GetAllocation(calendar.Week, "2025-W43", "Jeff", omniSource))
	assert.Equal(t, 40, ds.GetAllocation(calendar.Week, "2025-W47", "Kit", omniSource))
	assert.Equal(t, 40, ds.GetAllocation(calendar.Month, "2025-11", "Kit", omniSource))
}

func TestSeed_RecordBeyondSpanAddsPeriods(t *testing.T) {
	ds, err := allocation.Seed(allocation.SeedSpec{
		Consultants: []string{"Kit"},
		Projects:    []string{opos},
		Start:       date(2025, time.October, 1),
		End:         date(2025, time.December, 31),
		Assignments: []allocation.AssignmentRecord{
			{Consultant: "Kit", Project: opos, Start: date(2026, time.January, 5), End: date(2026, time.January, 16), Percent: 30},
		},
	})
	require.NoError(t, err)

	assert.True(t, ds.HasPeriod(calendar.Week, "2026-W03"))
	assert.True(t, ds.HasPeriod(calendar.Month, "2026-01"))
	assert.Equal(t, 30, ds.GetAllocation(calendar.Week, "2026-W02", "Kit", opos))
	assert.Equal(t, 30, ds.GetAllocation(calendar.Month, "2026-01", "Kit", opos))
}

func TestSeed_Errors(t *testing.T) {
	base := allocation.SeedSpec{
		Consultants: []string{"Kit"},
		Projects:    []string{opos},
		Start:       date(2025, time.October, 1),
		End:         date(2025, time.December, 31),
	}

	spec := base
	spec.Assignments = []allocation.AssignmentRecord{
		{Consultant: "Nobody", Project: opos, Start: date(2025, time.October, 6), End: date(2025, time.October, 10), Percent: 10},
	}
	_, err := allocation.Seed(spec)
	assert.True(t, allocation.IsNotFound(err))

	spec = base
	spec.Start, spec.End = spec.End, spec.Start
	_, err = allocation.Seed(spec)
	assert.ErrorIs(t, err, allocation.ErrInvalidRange)

	spec = base
	spec.Consultants = []string{"Kit", "Kit"}
	_, err = allocation.Seed(spec)
	assert.ErrorIs(t, err, allocation.ErrDuplicateEntity)
}

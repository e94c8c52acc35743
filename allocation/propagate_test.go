package allocation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
)

func TestTargetPeriods(t *testing.T) {
	ds := newQuarter(t)

	target := ds.TargetPeriods("2025-W40", "2025-W43")

	assert.Equal(t, []calendar.PeriodID{"2025-W40", "2025-W41", "2025-W42", "2025-W43"}, target.Weeks)
	// W40 starts Sep 29 but September is not part of the dataset
	assert.Equal(t, []calendar.PeriodID{"2025-10"}, target.Months)

	target = ds.TargetPeriods("2025-W44", "2025-W44")
	assert.Equal(t, []calendar.PeriodID{"2025-W44"}, target.Weeks)
	assert.Equal(t, []calendar.PeriodID{"2025-10", "2025-11"}, target.Months, "Oct 27 - Nov 2 straddles two months")
}

func TestTargetPeriods_UnknownBoundsUseWholeWeekList(t *testing.T) {
	ds := newQuarter(t)

	target := ds.TargetPeriods("2024-W01", "2025-W41")

	assert.Equal(t, ds.WeekPeriods(), target.Weeks)
}

func TestChangeRange_ExtendsAssignment(t *testing.T) {
	// GIVEN: Stand Together runs W40..W43 with Ginny at 20%
	// WHEN: Extending the range to W50
	// THEN: W44..W50 and the Oct/Nov/Dec months all hold 20 for Ginny
	ds := newQuarter(t)
	require.NoError(t, ds.ChangeRange(standTogether, "2025-W40", "2025-W43"))
	require.NoError(t, ds.Assign(standTogether, "Ginny", 20))
	assert.Zero(t, ds.GetAllocation(calendar.Week, "2025-W44", "Ginny", standTogether))
	assert.Zero(t, ds.GetAllocation(calendar.Month, "2025-11", "Ginny", standTogether))

	require.NoError(t, ds.ChangeRange(standTogether, "2025-W40", "2025-W50"))

	assert.Equal(t, allocation.ProjectInfo{Start: "2025-W40", End: "2025-W50"}, ds.ProjectsInfo[standTogether])
	for _, w := range []calendar.PeriodID{"2025-W44", "2025-W45", "2025-W46", "2025-W47", "2025-W48", "2025-W49", "2025-W50"} {
		assert.Equal(t, 20, ds.GetAllocation(calendar.Week, w, "Ginny", standTogether), w)
	}
	for _, m := range []calendar.PeriodID{"2025-10", "2025-11", "2025-12"} {
		assert.Equal(t, 20, ds.GetAllocation(calendar.Month, m, "Ginny", standTogether), m)
	}
	assert.Zero(t, ds.GetAllocation(calendar.Week, "2025-W51", "Ginny", standTogether))
	requireLockstep(t, ds)
}

func TestChangeRange_ShrinkKeepsEntriesOutsideRange(t *testing.T) {
	ds := newQuarter(t)
	require.NoError(t, ds.ChangeRange(omniSource, "2025-W40", "2025-W50"))
	require.NoError(t, ds.Assign(omniSource, "Kit", 50))

	require.NoError(t, ds.ChangeRange(omniSource, "2025-W42", "2025-W44"))

	assert.Equal(t, 50, ds.GetAllocation(calendar.Week, "2025-W48", "Kit", omniSource))
	assert.Equal(t, 50, ds.GetAllocation(calendar.Week, "2025-W43", "Kit", omniSource))
}

func TestChangeRange_UsesPercentFromCurrentRange(t *testing.T) {
	// GIVEN: A stale 10% left over before the current range and 60% inside it
	ds := newQuarter(t)
	require.NoError(t, ds.SetAllocation(calendar.Week, "2025-W40", "Jeff", opos, 10))
	require.NoError(t, ds.ChangeRange(opos, "2025-W45", "2025-W47"))
	require.NoError(t, ds.Assign(opos, "Jeff", 60))

	// WHEN: Extending the range
	require.NoError(t, ds.ChangeRange(opos, "2025-W45", "2025-W49"))

	// THEN: The new weeks carry the in-range percent
	assert.Equal(t, 60, ds.GetAllocation(calendar.Week, "2025-W49", "Jeff", opos))
	assert.Equal(t, 10, ds.GetAllocation(calendar.Week, "2025-W40", "Jeff", opos))
}

func TestChangeRange_Errors(t *testing.T) {
	ds := newQuarter(t)
	before := ds.Clone()

	err := ds.ChangeRange(omniSource, "2025-W50", "2025-W40")
	assert.ErrorIs(t, err, allocation.ErrInvalidRange)

	err = ds.ChangeRange(omniSource, "2025-10", "2025-W40")
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriodID)

	err = ds.ChangeRange("Nothing", "2025-W40", "2025-W41")
	assert.True(t, allocation.IsNotFound(err))

	assert.Equal(t, before, ds)
}

func TestAssign_WritesBothGranularities(t *testing.T) {
	ds := newQuarter(t)
	require.NoError(t, ds.ChangeRange(omniSource, "2025-W45", "2025-W46"))

	require.NoError(t, ds.Assign(omniSource, "Kit", 35))

	assert.Equal(t, 35, ds.GetAllocation(calendar.Week, "2025-W45", "Kit", omniSource))
	assert.Equal(t, 35, ds.GetAllocation(calendar.Week, "2025-W46", "Kit", omniSource))
	assert.Zero(t, ds.GetAllocation(calendar.Week, "2025-W47", "Kit", omniSource))
	assert.Equal(t, 35, ds.GetAllocation(calendar.Month, "2025-11", "Kit", omniSource))
	assert.Zero(t, ds.GetAllocation(calendar.Month, "2025-10", "Kit", omniSource))
	requireLockstep(t, ds)

	assert.True(t, allocation.IsNotFound(ds.Assign(omniSource, "Nobody", 10)))
}

func TestUnassign_IsGlobal(t *testing.T) {
	// GIVEN: Kit on OmniSource over two separate ranges
	ds := newQuarter(t)
	require.NoError(t, ds.ChangeRange(omniSource, "2025-W40", "2025-W41"))
	require.NoError(t, ds.Assign(omniSource, "Kit", 40))
	require.NoError(t, ds.ChangeRange(omniSource, "2025-W50", "2025-W51"))
	require.NoError(t, ds.Assign(omniSource, "Kit", 40))

	// WHEN: Unassigning while the range only covers the second block
	require.NoError(t, ds.Unassign(omniSource, "Kit"))

	// THEN: Every entry is gone, the earlier block included
	for _, pt := range calendar.PeriodTypes {
		for id, row := range ds.Periods[pt] {
			_, ok := row["Kit"][omniSource]
			assert.False(t, ok, "%s %s still has an entry", pt, id)
		}
	}
	assert.Empty(t, ds.AssignedConsultants(omniSource))
}

func TestApplyProjectEdit_RangeThenAssignments(t *testing.T) {
	ds := newQuarter(t)
	require.NoError(t, ds.Assign(opos, "Jeff", 25))

	err := ds.ApplyProjectEdit(allocation.ProjectEdit{
		Project:     opos,
		Range:       &allocation.ProjectInfo{Start: "2025-W48", End: "2025-W49"},
		Assignments: map[string]int{"Ginny": 45},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ginny"}, ds.AssignedConsultants(opos))
	assert.Equal(t, 45, ds.GetAllocation(calendar.Week, "2025-W48", "Ginny", opos))
	assert.Equal(t, 45, ds.GetAllocation(calendar.Month, "2025-12", "Ginny", opos))
	assert.Zero(t, ds.GetAllocation(calendar.Week, "2025-W47", "Ginny", opos))
	requireLockstep(t, ds)
}

func TestApplyProjectEdit_NilAssignmentsKeepsRoster(t *testing.T) {
	ds := newQuarter(t)
	require.NoError(t, ds.Assign(opos, "Jeff", 25))

	err := ds.ApplyProjectEdit(allocation.ProjectEdit{
		Project: opos,
		Range:   &allocation.ProjectInfo{Start: "2025-W40", End: "2025-W42"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Jeff"}, ds.AssignedConsultants(opos))
}

func TestApplyProjectEdit_UnknownConsultantLeavesDatasetUntouched(t *testing.T) {
	ds := newQuarter(t)
	before := ds.Clone()

	err := ds.ApplyProjectEdit(allocation.ProjectEdit{
		Project:     opos,
		Range:       &allocation.ProjectInfo{Start: "2025-W48", End: "2025-W49"},
		Assignments: map[string]int{"Nobody": 45},
	})

	assert.True(t, allocation.IsNotFound(err))
	assert.Equal(t, before, ds)
}

func TestDefaultAllocation(t *testing.T) {
	ds := newQuarter(t)
	assert.Zero(t, ds.DefaultAllocation(omniSource, "Kit"))

	require.NoError(t, ds.SetAllocation(calendar.Week, "2025-W47", "Kit", omniSource, 30))
	require.NoError(t, ds.SetAllocation(calendar.Week, "2025-W45", "Kit", omniSource, 15))
	require.NoError(t, ds.SetAllocation(calendar.Month, "2025-10", "Kit", omniSource, 90))

	assert.Equal(t, 15, ds.DefaultAllocation(omniSource, "Kit"), "earliest week wins over months")
}

package allocation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/allocation/store"
	"github.com/warp/allocation-engine/calendar"
)

func quarterSeeder(t *testing.T) allocation.Seeder {
	return func() (*allocation.Dataset, error) {
		return newQuarter(t), nil
	}
}

func openStore(t *testing.T, mem *store.Memory) *allocation.Store {
	t.Helper()
	s, err := allocation.Open(context.Background(), mem, quarterSeeder(t), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestOpen_SeedsEmptyPersistence(t *testing.T) {
	mem := store.NewMemory()

	s := openStore(t, mem)

	assert.Equal(t, []string{"Ginny", "Kit", "Jeff"}, s.Snapshot().Consultants)
	assert.Equal(t, 1, mem.Saves())
	assert.False(t, s.Dirty())
}

func TestOpen_ReloadsSavedDataset(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := openStore(t, mem)
	require.NoError(t, s.Update(ctx, func(ds *allocation.Dataset) error {
		if err := ds.AddConsultant("Lauren"); err != nil {
			return err
		}
		return ds.Assign(omniSource, "Lauren", 40)
	}))

	reopened := openStore(t, mem)

	assert.Equal(t, s.Snapshot(), reopened.Snapshot())
	assert.Equal(t, 40, reopened.Snapshot().GetAllocation(calendar.Month, "2025-11", "Lauren", omniSource))
}

func TestOpen_MalformedStateRegenerates(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "not json", blob: `{"consultants": [`},
		{name: "missing month table", blob: `{"consultants":[],"projects":[],"periods":{"week":{}}}`},
		{name: "bad period id", blob: `{"consultants":[],"projects":[],"periods":{"week":{"2025-10":{}},"month":{}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			mem.SetRaw([]byte(tt.blob))

			s := openStore(t, mem)

			assert.Equal(t, []string{"Ginny", "Kit", "Jeff"}, s.Snapshot().Consultants)
			assert.NotEqual(t, tt.blob, string(mem.Raw()), "regenerated dataset is persisted")
		})
	}
}

func TestOpen_NormalizesMissingProjectInfo(t *testing.T) {
	mem := store.NewMemory()
	mem.SetRaw([]byte(`{"consultants":["Kit"],"projects":["Vacation"],"periods":{"week":{"2025-W40":{},"2025-W41":{}},"month":{"2025-10":{}}}}`))

	s := openStore(t, mem)

	ds := s.Snapshot()
	assert.Equal(t, allocation.ProjectInfo{Start: "2025-W40", End: "2025-W41"}, ds.ProjectsInfo["Vacation"])
	assert.Contains(t, ds.Periods[calendar.Week]["2025-W40"], "Kit")
}

func TestUpdate_FailureLeavesStateUnchanged(t *testing.T) {
	// GIVEN: A project edit whose second step fails
	ctx := context.Background()
	mem := store.NewMemory()
	s := openStore(t, mem)
	before := s.Snapshot()
	saves := mem.Saves()

	// WHEN: The range change succeeds but an assignment fails
	err := s.Update(ctx, func(ds *allocation.Dataset) error {
		if err := ds.ChangeRange(opos, "2025-W44", "2025-W46"); err != nil {
			return err
		}
		return ds.Assign(opos, "Nobody", 10)
	})

	// THEN: Nothing was committed or saved
	assert.True(t, allocation.IsNotFound(err))
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, saves, mem.Saves())
}

func TestUpdate_SaveFailureKeepsChangeAndFlushRetries(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := openStore(t, mem)
	mem.FailSaves(true)

	err := s.Update(ctx, func(ds *allocation.Dataset) error {
		return ds.AddConsultant("Regina")
	})

	require.ErrorIs(t, err, allocation.ErrSaveFailed)
	assert.True(t, errors.Is(err, store.ErrSaveRejected))
	assert.True(t, s.Snapshot().HasConsultant("Regina"))
	assert.True(t, s.Dirty())

	// Still failing
	assert.ErrorIs(t, s.Flush(ctx), allocation.ErrSaveFailed)

	mem.FailSaves(false)
	require.NoError(t, s.Flush(ctx))
	assert.False(t, s.Dirty())

	reopened := openStore(t, mem)
	assert.True(t, reopened.Snapshot().HasConsultant("Regina"))
}

func TestOpen_InitialSaveFailureIsNotFatal(t *testing.T) {
	mem := store.NewMemory()
	mem.FailSaves(true)

	s := openStore(t, mem)

	assert.True(t, s.Dirty())
	assert.Len(t, s.Snapshot().Consultants, 3)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := openStore(t, mem)
	require.NoError(t, s.Update(ctx, func(ds *allocation.Dataset) error {
		ds.RemoveConsultant("Kit")
		return nil
	}))

	require.NoError(t, s.Reset(ctx, nil))
	assert.True(t, s.Snapshot().HasConsultant("Kit"))

	custom := allocation.NewDataset()
	require.NoError(t, custom.AddConsultant("Solo"))
	require.NoError(t, s.Reset(ctx, custom))
	assert.Equal(t, []string{"Solo"}, s.Snapshot().Consultants)

	bad := allocation.NewDataset()
	bad.Periods = nil
	assert.ErrorIs(t, s.Reset(ctx, bad), allocation.ErrMalformedState)
	assert.Equal(t, []string{"Solo"}, s.Snapshot().Consultants)
}

func TestView(t *testing.T) {
	s := openStore(t, store.NewMemory())

	var n int
	require.NoError(t, s.View(func(ds *allocation.Dataset) error {
		n = len(ds.Projects)
		return nil
	}))
	assert.Equal(t, 3, n)
}

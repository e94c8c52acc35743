package api

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/allocation"
)

func dirtyStore(t *testing.T, env *testEnv) {
	t.Helper()
	env.mem.FailSaves(true)
	err := env.handler.Store.Update(context.Background(), func(ds *allocation.Dataset) error {
		return ds.AddConsultant("Regina")
	})
	require.ErrorIs(t, err, allocation.ErrSaveFailed)
	require.True(t, env.handler.Store.Dirty())
}

func TestAutosave_RunNow(t *testing.T) {
	// GIVEN: A store whose last save failed
	env := newTestEnv(t)
	dirtyStore(t, env)
	as := NewAutosaveScheduler(env.handler.Store, zerolog.Nop())

	// WHEN: Persistence is still failing
	// THEN: The store stays dirty
	assert.False(t, as.RunNow())
	assert.True(t, env.handler.Store.Dirty())

	// WHEN: Persistence recovers
	env.mem.FailSaves(false)
	saves := env.mem.Saves()

	// THEN: The pending change is written
	assert.True(t, as.RunNow())
	assert.False(t, env.handler.Store.Dirty())
	assert.Equal(t, saves+1, env.mem.Saves())

	// A clean store is not saved again
	assert.True(t, as.RunNow())
	assert.Equal(t, saves+1, env.mem.Saves())
}

func TestAutosave_Background(t *testing.T) {
	env := newTestEnv(t)
	dirtyStore(t, env)

	as := NewAutosaveScheduler(env.handler.Store, zerolog.Nop())
	as.CheckInterval = 10 * time.Millisecond
	as.Start()
	defer as.Stop()

	env.mem.FailSaves(false)
	assert.Eventually(t, func() bool { return !env.handler.Store.Dirty() }, time.Second, 10*time.Millisecond)
}

func TestAutosave_StopFlushes(t *testing.T) {
	env := newTestEnv(t)
	dirtyStore(t, env)

	as := NewAutosaveScheduler(env.handler.Store, zerolog.Nop())
	as.CheckInterval = time.Hour
	as.Start()
	env.mem.FailSaves(false)

	as.Stop()

	assert.False(t, env.handler.Store.Dirty())
	as.Stop() // second stop is a no-op
}

func TestAutosave_Disabled(t *testing.T) {
	env := newTestEnv(t)
	dirtyStore(t, env)

	as := NewAutosaveScheduler(env.handler.Store, zerolog.Nop())
	as.Enabled = false
	as.Start()
	as.Stop()

	assert.True(t, env.handler.Store.Dirty())
}

package api

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/calendar"
	"github.com/warp/allocation-engine/roster"
)

func TestListScenarios(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/scenarios", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	scenarios := decode[[]ScenarioDTO](t, rec)
	require.Len(t, scenarios, 2)
	assert.Equal(t, ScenarioDTO{
		ID:          "quarter",
		Name:        "Q4 2025",
		Consultants: 3,
		Projects:    3,
		Start:       "2025-10-01",
		End:         "2025-12-31",
	}, scenarios[0])
	assert.Equal(t, roster.DefaultID, scenarios[1].ID)
}

func TestLoadScenario(t *testing.T) {
	// GIVEN: The quarter roster is loaded
	env := newTestEnv(t)
	assert.Equal(t, "quarter", decode[ScenarioDTO](t, env.do(t, http.MethodGet, "/api/scenarios/current", nil)).ID)

	// WHEN: Loading the default roster
	rec := env.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: roster.DefaultID})

	// THEN: The dataset is regenerated from it
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ds := env.handler.Store.Snapshot()
	assert.Len(t, ds.Consultants, 14)
	assert.Len(t, ds.Projects, 12)
	assert.True(t, ds.HasPeriod(calendar.Week, "2026-W53"))
	assert.Equal(t, roster.DefaultID, decode[ScenarioDTO](t, env.do(t, http.MethodGet, "/api/scenarios/current", nil)).ID)
}

func TestLoadScenario_Unknown(t *testing.T) {
	env := newTestEnv(t)
	before := env.handler.Store.Snapshot()

	rec := env.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before, env.handler.Store.Snapshot())
}

func TestResetDataset(t *testing.T) {
	// GIVEN: An edited dataset
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/consultants", CreateRequest{Name: "Regina"}).Code)

	// WHEN: Resetting
	rec := env.do(t, http.MethodPost, "/api/scenarios/reset", nil)

	// THEN: The edit is gone
	require.Equal(t, http.StatusOK, rec.Code)
	ds := env.handler.Store.Snapshot()
	assert.Equal(t, []string{"Ginny", "Kit", "Jeff"}, ds.Consultants)
	assert.Equal(t, 20, ds.GetAllocation(calendar.Week, "2025-W45", "Ginny", "Stand Together"))
}

func TestResetDataset_NoScenario(t *testing.T) {
	// GIVEN: A handler with no current scenario
	env := newTestEnv(t)
	env.router = NewRouter(NewHandler(env.handler.Store, nil, nil, "", zerolog.Nop()), RouterOptions{})

	// THEN: There is nothing to report or reset to
	assert.Equal(t, "null\n", env.do(t, http.MethodGet, "/api/scenarios/current", nil).Body.String())
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/scenarios/reset", nil).Code)

	// Colours fall back when no scenario is current
	ds := decode[DatasetDTO](t, env.do(t, http.MethodGet, "/api/dataset", nil))
	assert.Equal(t, roster.FallbackColor, ds.Colors["Stand Together"])
}

package api

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
)

func TestSyncRemote(t *testing.T) {
	// GIVEN: Ginny at 20% over W43..W47 (two months)
	env := newTestEnv(t)

	// WHEN: Publishing twice
	first := env.do(t, http.MethodPost, "/api/remote/sync", nil)
	second := env.do(t, http.MethodPost, "/api/remote/sync", nil)

	// THEN: Entities are created once, allocation rows are upserted
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, allocation.PublishResult{Consultants: 3, Projects: 3, Allocations: 7}, decode[allocation.PublishResult](t, first))
	assert.Equal(t, allocation.PublishResult{Consultants: 0, Projects: 0, Allocations: 7}, decode[allocation.PublishResult](t, second))

	consultants := decode[[]RemoteConsultantDTO](t, env.do(t, http.MethodGet, "/api/remote/consultants", nil))
	require.Len(t, consultants, 3)
	projects := decode[[]RemoteProjectDTO](t, env.do(t, http.MethodGet, "/api/remote/projects", nil))
	require.Len(t, projects, 3)

	var ginny string
	for _, c := range consultants {
		if c.Name == "Ginny" {
			ginny = c.ID
		}
	}
	require.NotEmpty(t, ginny)

	rec := env.do(t, http.MethodGet, "/api/remote/allocations?consultant_id="+ginny+"&period_type=week&start=2025-10-01&end=2025-12-31", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := decode[[]RemoteAllocationDTO](t, rec)
	require.Len(t, rows, 5)
	assert.Equal(t, "2025-10-20", rows[0].PeriodStart)
	assert.Equal(t, "Stand Together", rows[0].ProjectName)
	assert.Equal(t, 20, rows[0].Percent)
	assert.Equal(t, calendar.Week, rows[0].PeriodType)
}

func TestQueryRemoteAllocations_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"missing consultant", "period_type=week&start=2025-10-01&end=2025-12-31", http.StatusBadRequest},
		{"bad period type", "consultant_id=x&period_type=year&start=2025-10-01&end=2025-12-31", http.StatusBadRequest},
		{"missing dates", "consultant_id=x", http.StatusBadRequest},
		{"inverted range", "consultant_id=x&start=2025-12-31&end=2025-10-01", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/remote/allocations?"+tt.query, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRemoteNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.router = NewRouter(NewHandler(env.handler.Store, nil, nil, "", zerolog.Nop()), RouterOptions{})

	for _, target := range []string{"/api/remote/consultants", "/api/remote/projects", "/api/remote/allocations"} {
		assert.Equal(t, http.StatusNotImplemented, env.do(t, http.MethodGet, target, nil).Code, target)
	}
	assert.Equal(t, http.StatusNotImplemented, env.do(t, http.MethodPost, "/api/remote/sync", nil).Code)
}

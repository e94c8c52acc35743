/*
scenarios.go - Seed roster loading

PURPOSE:
  Exposes the seed rosters the server knows about as scenarios. Loading a
  scenario regenerates the dataset from that roster and replaces the
  current one wholesale; resetting regenerates from the current scenario.

AVAILABLE SCENARIOS:
  default:  the built-in roster (always present)
  <file>:   the YAML roster given by ALLOC_ROSTER, when configured

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "default"}

NOTE:
  Loading or resetting discards every edit made since the last load.

SEE ALSO:
  - roster/roster.go: Roster type and seeding
  - roster/file.go: YAML roster schema
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/warp/allocation-engine/roster"
)

// ListScenarios returns the loadable scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dtos := make([]ScenarioDTO, len(h.scenarios))
	for i, s := range h.scenarios {
		dtos[i] = toScenarioDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the scenario the dataset was generated from.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current, ok := h.current()
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, toScenarioDTO(current))
}

// LoadScenario replaces the dataset with one generated from a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	scenario, ok := h.find(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}
	if err := h.load(r, scenario); err != nil {
		h.writeDomainError(w, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Scenario loaded successfully",
		"scenario": toScenarioDTO(scenario),
	})
}

// ResetDataset regenerates the dataset from the current scenario.
func (h *Handler) ResetDataset(w http.ResponseWriter, r *http.Request) {
	scenario, ok := h.current()
	if !ok {
		writeError(w, http.StatusNotFound, "No scenario is loaded", nil)
		return
	}
	if err := h.load(r, scenario); err != nil {
		h.writeDomainError(w, "Failed to reset dataset", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Dataset reset to scenario " + scenario.ID,
	})
}

func (h *Handler) load(r *http.Request, scenario roster.Roster) error {
	ds, err := scenario.Seeder()()
	if err != nil {
		return err
	}
	if err := h.Store.Reset(r.Context(), ds); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = scenario.ID
	h.mu.Unlock()

	h.Log.Info().
		Str("scenario", scenario.ID).
		Int("consultants", len(ds.Consultants)).
		Int("projects", len(ds.Projects)).
		Msg("scenario loaded")
	return nil
}

func (h *Handler) find(id string) (roster.Roster, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return roster.Roster{}, false
}

func (h *Handler) current() (roster.Roster, bool) {
	h.mu.RLock()
	id := h.currentScenario
	h.mu.RUnlock()

	if id == "" {
		return roster.Roster{}, false
	}
	return h.find(id)
}

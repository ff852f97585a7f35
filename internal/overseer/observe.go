// Package overseer implements the autonomous colony caretaker.
// It watches the simulation through the public HTTP surface, triages
// colony health, picks at most one food drop per cycle (via Claude
// Haiku when a key is configured, deterministically otherwise), and
// acts through the same drop endpoint a human player would use.
package overseer

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	State   StateView    `json:"state"`
	Heatmap HeatmapView  `json:"heatmap"`
	History []HistoryRow `json:"history"`
}

// StateView mirrors GET /api/state.
type StateView struct {
	Step        uint64        `json:"step"`
	AgentsAlive int           `json:"agents_alive"`
	AgentsDead  int           `json:"agents_dead"`
	Agents      []AgentDetail `json:"agents_details"`
	FoodPatches []FoodPatch   `json:"food_patches_summary"`
}

// AgentDetail is one live agent as reported by the API.
type AgentDetail struct {
	ID      int     `json:"id"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Energy  float64 `json:"energy"`
	Temp    float64 `json:"temp"`
	Valence float64 `json:"valence"`
}

// FoodPatch is one significant food cell from the state summary.
type FoodPatch struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Amount float64 `json:"amount"`
}

// HeatmapView mirrors GET /api/grid/heatmap. Cells are [x, y, intensity].
type HeatmapView struct {
	Cells [][3]float64 `json:"heatmap"`
	Dims  [2]int       `json:"dims"`
}

// HistoryRow mirrors items from GET /api/stats/history.
type HistoryRow struct {
	Tick          uint64  `json:"tick"`
	Alive         int     `json:"alive"`
	Dead          int     `json:"dead"`
	MeanEnergy    float64 `json:"mean_energy"`
	MinEnergy     float64 `json:"min_energy"`
	MeanTemp      float64 `json:"mean_temp"`
	MeanValence   float64 `json:"mean_valence"`
	FoodAvailable float64 `json:"food_available"`
}

// Observer fetches colony state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
	RetryDelay time.Duration
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		RetryDelay: time.Second,
	}
}

// Observe fetches the read endpoints and returns a Snapshot. State and
// heatmap are required; a server running without telemetry serves no
// stats history, so that fetch degrades to an empty trend.
func (o *Observer) Observe() (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON("/api/state", &snap.State, 3); err != nil {
		return nil, fmt.Errorf("fetch state: %w", err)
	}
	if err := o.fetchJSON("/api/grid/heatmap", &snap.Heatmap, 2); err != nil {
		return nil, fmt.Errorf("fetch heatmap: %w", err)
	}
	if err := o.fetchJSON("/api/stats/history?limit=10", &snap.History, 1); err != nil {
		slog.Debug("stats history unavailable", "error", err)
		snap.History = nil
	}

	return snap, nil
}

// fetchJSON GETs a path with bounded retries and decodes into target.
func (o *Observer) fetchJSON(path string, target any, attempts int) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			slog.Warn("retrying fetch", "path", path, "attempt", i+1)
			time.Sleep(o.RetryDelay)
		}
		lastErr = o.getOnce(path, target)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (o *Observer) getOnce(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

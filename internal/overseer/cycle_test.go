package overseer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// fakeColony serves the read endpoints the observer needs and captures
// food drops.
type fakeColony struct {
	state      StateView
	stateFails int32 // requests to fail before serving state
	drops      []map[string]float64
}

func newFakeColony(state StateView) *fakeColony {
	return &fakeColony{state: state}
}

func (f *fakeColony) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&f.stateFails, -1) >= 0 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(f.state)
	})
	mux.HandleFunc("/api/grid/heatmap", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(HeatmapView{Cells: [][3]float64{}, Dims: [2]int{40, 40}})
	})
	mux.HandleFunc("/api/stats/history", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "stats history unavailable", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/api/action/drop_food", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]float64
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad drop payload: %v", err)
		}
		f.drops = append(f.drops, payload)
		json.NewEncoder(w).Encode(DropResult{Status: "success", Message: "ok"})
	})
	return mux
}

func testOverseer(t *testing.T, ts *httptest.Server) *Overseer {
	obs := NewObserver(ts.URL)
	obs.RetryDelay = 0
	return &Overseer{
		Observer:   obs,
		Actor:      NewActor(ts.URL),
		Memory:     LoadMemory(filepath.Join(t.TempDir(), "mem.json")),
		DropAmount: 25,
	}
}

func TestObserverRetriesState(t *testing.T) {
	colony := newFakeColony(StateView{Step: 3, AgentsAlive: 1,
		Agents: []AgentDetail{{ID: 0, Energy: 70}}})
	colony.stateFails = 1
	ts := httptest.NewServer(colony.handler(t))
	defer ts.Close()

	obs := NewObserver(ts.URL)
	obs.RetryDelay = 0

	snap, err := obs.Observe()
	if err != nil {
		t.Fatalf("Observe after one transient failure: %v", err)
	}
	if snap.State.Step != 3 {
		t.Errorf("state.Step = %d, want 3", snap.State.Step)
	}
	// The missing history endpoint must not fail the observation.
	if len(snap.History) != 0 {
		t.Errorf("history = %v, want empty", snap.History)
	}
}

func TestObserverGivesUpAfterRetries(t *testing.T) {
	colony := newFakeColony(StateView{})
	colony.stateFails = 10
	ts := httptest.NewServer(colony.handler(t))
	defer ts.Close()

	obs := NewObserver(ts.URL)
	obs.RetryDelay = 0

	if _, err := obs.Observe(); err == nil {
		t.Fatal("Observe should fail once retries are exhausted")
	}
	// Three attempts consumed, no more.
	if remaining := atomic.LoadInt32(&colony.stateFails); remaining != 7 {
		t.Errorf("state attempts = %d, want 3", 10-remaining)
	}
}

func TestRunCycleFeedsStarvingAgent(t *testing.T) {
	colony := newFakeColony(StateView{
		Step:        7,
		AgentsAlive: 1,
		Agents:      []AgentDetail{{ID: 0, X: 3, Y: 4, Energy: 11.5, Temp: 22, Valence: -0.8}},
	})
	ts := httptest.NewServer(colony.handler(t))
	defer ts.Close()

	ov := testOverseer(t, ts)
	if err := ov.RunCycle(); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if len(colony.drops) != 1 {
		t.Fatalf("drops = %d, want 1", len(colony.drops))
	}
	drop := colony.drops[0]
	if drop["x"] != 3 || drop["y"] != 4 || drop["amount"] != 25 {
		t.Errorf("drop = %v, want 25 at (3, 4)", drop)
	}

	if len(ov.Memory.Records) != 1 {
		t.Fatalf("memory records = %d, want 1", len(ov.Memory.Records))
	}
	rec := ov.Memory.Records[0]
	if rec.Step != 7 || rec.Action != ActionDropFood || rec.Crisis != CrisisCritical {
		t.Errorf("record = %+v", rec)
	}
}

func TestRunCycleWaitsOnHealthyColony(t *testing.T) {
	colony := newFakeColony(StateView{
		Step:        9,
		AgentsAlive: 2,
		Agents: []AgentDetail{
			{ID: 0, X: 1, Y: 1, Energy: 88, Valence: 0.4},
			{ID: 1, X: 2, Y: 2, Energy: 91, Valence: 0.2},
		},
	})
	ts := httptest.NewServer(colony.handler(t))
	defer ts.Close()

	ov := testOverseer(t, ts)
	if err := ov.RunCycle(); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if len(colony.drops) != 0 {
		t.Fatalf("healthy colony got fed: %v", colony.drops)
	}
	if rec := ov.Memory.Records[0]; rec.Action != ActionWait {
		t.Errorf("record action = %s, want %s", rec.Action, ActionWait)
	}
}

func TestRunCycleSurvivesFailedDrop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(StateView{Step: 2, AgentsAlive: 1,
			Agents: []AgentDetail{{ID: 0, X: 5, Y: 5, Energy: 8}}})
	})
	mux.HandleFunc("/api/grid/heatmap", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(HeatmapView{Dims: [2]int{40, 40}})
	})
	mux.HandleFunc("/api/stats/history", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]HistoryRow{})
	})
	mux.HandleFunc("/api/action/drop_food", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many drops", http.StatusTooManyRequests)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	ov := testOverseer(t, ts)
	if err := ov.RunCycle(); err != nil {
		t.Fatalf("RunCycle should survive a rejected drop: %v", err)
	}

	// The attempt is still on record for the next prompt.
	if rec := ov.Memory.Records[0]; rec.Action != ActionDropFood || rec.X != 5 {
		t.Errorf("record = %+v", rec)
	}
}

func TestActorDropFood(t *testing.T) {
	var got map[string]float64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/action/drop_food", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(DropResult{Status: "success", Message: "Dropped 30.0 food at (6, 7)"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	res, err := NewActor(ts.URL).DropFood(6, 7, 30)
	if err != nil {
		t.Fatalf("DropFood: %v", err)
	}
	if res.Status != "success" {
		t.Errorf("status = %q", res.Status)
	}
	if got["x"] != 6 || got["y"] != 7 || got["amount"] != 30 {
		t.Errorf("payload = %v", got)
	}
}

// Package api serves the simulation over HTTP: read-only state and
// heatmap projections, the food drop action, run history, and a small
// admin control plane for the tick loop. POST control endpoints require
// a bearer token.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/talgya/grid-world/internal/engine"
	"github.com/talgya/grid-world/internal/telemetry"
)

// HistorySource supplies recorded tick statistics, newest first.
type HistorySource interface {
	History(limit int) ([]telemetry.TickStats, error)
}

// Server exposes one simulation over HTTP.
type Server struct {
	Sim      *engine.Guarded
	Loop     *engine.Loop  // nil disables the control endpoints
	History  HistorySource // nil disables /api/stats/history
	Hub      *Hub          // nil disables /ws
	AdminKey string        // bearer token for control POSTs; empty = control disabled

	DropLimit *RateLimiter // optional limiter on /api/action/drop_food

	srv *http.Server
}

// Handler builds the route table. Split out from Start so tests can
// drive the full stack through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// The legacy surface: these four routes and their wire shapes are
	// what existing dashboards and feeders speak.
	drop := s.handleDropFood
	if s.DropLimit != nil {
		drop = RateLimitMiddleware(s.DropLimit, drop)
	}
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/grid/heatmap", s.handleHeatmap)
	mux.HandleFunc("/api/grid/description", s.handleDescription)
	mux.HandleFunc("/api/action/drop_food", drop)

	mux.HandleFunc("/api/stats/history", s.handleStatsHistory)

	// Control plane (POST, bearer token).
	mux.HandleFunc("/api/control/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("/api/control/resume", s.adminOnly(s.handleResume))
	mux.HandleFunc("/api/control/speed", s.adminOnly(s.handleSpeed))

	if s.Hub != nil {
		mux.HandleFunc("/ws", s.Hub.HandleWS)
	}

	return corsMiddleware(mux)
}

// Start begins serving in a goroutine. Use Shutdown to stop.
func (s *Server) Start(addr string) {
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins. Set
// CORS_ORIGINS to a comma-separated list; localhost dev servers are
// always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires bearer token auth on POST requests. GET passes
// through for endpoints that also report state.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "control endpoints disabled (no GRIDWORLD_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st := s.Sim.Snapshot()

	type agentDetail struct {
		ID      int     `json:"id"`
		X       int     `json:"x"`
		Y       int     `json:"y"`
		Energy  float64 `json:"energy"`
		Temp    float64 `json:"temp"`
		Valence float64 `json:"valence"`
	}
	type foodPatch struct {
		X      int     `json:"x"`
		Y      int     `json:"y"`
		Amount float64 `json:"amount"`
	}

	details := make([]agentDetail, 0, len(st.Agents))
	for _, a := range st.Agents {
		details = append(details, agentDetail{
			ID:      a.ID,
			X:       a.X,
			Y:       a.Y,
			Energy:  round2(a.Energy),
			Temp:    round2(a.Temp),
			Valence: round2(a.Valence),
		})
	}

	patches := make([]foodPatch, 0, len(st.FoodCells))
	for _, c := range st.FoodCells {
		patches = append(patches, foodPatch{X: c.X, Y: c.Y, Amount: c.Amount})
	}

	writeJSON(w, map[string]any{
		"step":                 st.Tick,
		"agents_alive":         st.Alive,
		"agents_dead":          st.Dead,
		"agents_details":       details,
		"food_patches_summary": patches,
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	hm := s.Sim.ScentHeatmap()

	cells := make([][3]float64, 0, len(hm.Cells))
	for _, c := range hm.Cells {
		cells = append(cells, [3]float64{float64(c.X), float64(c.Y), round2(c.Value)})
	}

	writeJSON(w, map[string]any{
		"heatmap": cells,
		"dims":    [2]int{hm.Width, hm.Height},
	})
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st := s.Sim.Snapshot()

	desc := fmt.Sprintf("Simulation Step. Agents alive: %d. \n", st.Alive)
	if len(st.Agents) > 0 {
		var sum float64
		for _, a := range st.Agents {
			sum += a.Temp
		}
		desc += fmt.Sprintf("Average Agent Temperature: %.2f. ", sum/float64(len(st.Agents)))
	}

	writeJSON(w, map[string]string{"description": desc})
}

func (s *Server) handleDropFood(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		X      *float64 `json:"x"`
		Y      *float64 `json:"y"`
		Amount *float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONStatus(w, http.StatusBadRequest, map[string]any{"error": "Invalid JSON"})
		return
	}
	if req.X == nil || req.Y == nil {
		writeJSONStatus(w, http.StatusBadRequest, map[string]any{"error": "Missing x or y coordinates"})
		return
	}

	amount := 20.0
	if req.Amount != nil {
		amount = *req.Amount
	}
	x, y := int(*req.X), int(*req.Y)

	s.Sim.DepositFood(x, y, amount)
	slog.Info("food dropped", "x", x, "y", y, "amount", amount)

	writeJSON(w, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Dropped %.1f food at (%d, %d)", amount, x, y),
	})
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		http.Error(w, "history not available", http.StatusServiceUnavailable)
		return
	}

	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	rows, err := s.History.History(limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		// Empty array rather than an error; the table may have no rows yet.
		writeJSON(w, []telemetry.TickStats{})
		return
	}
	if rows == nil {
		rows = []telemetry.TickStats{}
	}
	writeJSON(w, rows)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.Loop == nil {
		http.Error(w, "loop not available", http.StatusServiceUnavailable)
		return
	}

	s.Loop.Pause()
	slog.Info("simulation paused")
	writeJSON(w, map[string]any{"paused": true, "tick": s.Sim.Snapshot().Tick})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.Loop == nil {
		http.Error(w, "loop not available", http.StatusServiceUnavailable)
		return
	}

	s.Loop.Resume()
	slog.Info("simulation resumed")
	writeJSON(w, map[string]any{"paused": false, "tick": s.Sim.Snapshot().Tick})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Loop == nil {
		http.Error(w, "loop not available", http.StatusServiceUnavailable)
		return
	}

	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed <= 0 || req.Speed > 1000 {
			http.Error(w, "speed must be in (0, 1000]", http.StatusBadRequest)
			return
		}
		s.Loop.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Loop.Speed()})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

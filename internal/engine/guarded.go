package engine

import "sync"

// Guarded is the one handle external callers share. Fields and the agent
// slice mutate in place during a tick, so every query and the food
// deposit serialize behind a single mutex. The tick loop, HTTP handlers,
// websocket broadcaster, and telemetry hook all funnel through here.
type Guarded struct {
	mu sync.Mutex
	w  *World
}

// NewGuarded wraps a freshly built world. The world must not be touched
// directly afterward.
func NewGuarded(w *World) *Guarded {
	return &Guarded{w: w}
}

// Advance runs one tick and returns the new tick counter.
func (g *Guarded) Advance() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.w.Advance()
	return g.w.tick
}

// DepositFood applies the one external mutation: a bounds-checked additive
// food drop.
func (g *Guarded) DepositFood(x, y int, amount float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.w.DepositFood(x, y, amount)
}

// Snapshot returns a consistent state projection.
func (g *Guarded) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.w.Snapshot()
}

// ScentHeatmap returns a consistent scent projection.
func (g *Guarded) ScentHeatmap() Heatmap {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.w.ScentHeatmap()
}

// Size returns the grid dimensions. These never change after creation.
func (g *Guarded) Size() (width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.w.width, g.w.height
}

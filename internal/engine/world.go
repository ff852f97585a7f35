// Package engine owns the simulation world: the four scalar fields, the
// live agent population, and the tick algorithm that advances them. The
// Guarded handle serializes all outside access; the Loop drives ticks at a
// fixed cadence.
package engine

import (
	"log/slog"

	"github.com/talgya/grid-world/internal/agents"
	"github.com/talgya/grid-world/internal/entropy"
	"github.com/talgya/grid-world/internal/world"
)

const (
	decayFloor      = 0.05 // decayed field values below this snap to zero
	significantFood = 10.0 // food cells above this appear in the projection
	scentVisibility = 0.1  // scent cells above this appear in the heatmap
)

// TemperatureMode selects the landscape builder.
const (
	TempGaussian = "gaussian"
	TempNoise    = "noise"
)

// Config holds everything needed to build a world.
type Config struct {
	Width  int
	Height int
	Seed   int64 // 0 picks a time-derived seed

	NumAgents     int
	InitEnergyMin float64
	InitEnergyMax float64
	InitTemp      float64

	FoodPatches     int
	TemperatureMode string // TempGaussian (default) or TempNoise
	Gen             world.GenParams

	ScentDecay  float64
	SharedDecay float64

	Agent agents.Params
}

// World is the simulation state machine. It is not safe for concurrent
// use; wrap it in a Guarded handle for anything outside the tick loop.
type World struct {
	width  int
	height int

	Temperature *world.Field
	Food        *world.Field
	Scent       *world.Field
	Shared      *world.Field

	agents    []*agents.Agent
	tick      uint64
	deadCount int

	scentDecay  float64
	sharedDecay float64

	rng *entropy.Source
}

// NewWorld builds the landscape and spawns the starting population. All
// randomness flows from one seeded source, so equal configs give equal
// runs.
func NewWorld(cfg Config) *World {
	rng := entropy.NewSource(cfg.Seed)

	var temp *world.Field
	switch cfg.TemperatureMode {
	case TempNoise:
		temp = world.TemperatureNoise(cfg.Width, cfg.Height, cfg.Gen, rng.Seed())
	default:
		temp = world.Temperature(cfg.Width, cfg.Height, cfg.Gen)
	}

	w := &World{
		width:       cfg.Width,
		height:      cfg.Height,
		Temperature: temp,
		Food:        world.Food(cfg.Width, cfg.Height, cfg.FoodPatches, cfg.Gen, rng),
		Scent:       world.NewField(cfg.Width, cfg.Height),
		Shared:      world.NewField(cfg.Width, cfg.Height),
		scentDecay:  cfg.ScentDecay,
		sharedDecay: cfg.SharedDecay,
		rng:         rng,
	}

	for i := 0; i < cfg.NumAgents; i++ {
		x := rng.IntN(cfg.Width)
		y := rng.IntN(cfg.Height)
		energy := rng.Uniform(cfg.InitEnergyMin, cfg.InitEnergyMax)
		w.agents = append(w.agents, agents.New(i+1, x, y, energy, cfg.InitTemp, cfg.Agent))
	}

	slog.Info("world created",
		"size", cfg.Width*cfg.Height,
		"width", cfg.Width,
		"height", cfg.Height,
		"agents", cfg.NumAgents,
		"seed", rng.Seed(),
		"temperature", temp.At(cfg.Width/2, cfg.Height/2),
	)
	return w
}

// Advance runs exactly one tick: a shuffled agent sweep, removal of the
// newly dead, then field decay. Later agents in the sweep see the field
// effects of earlier ones.
func (w *World) Advance() {
	w.tick++

	order := make([]*agents.Agent, len(w.agents))
	copy(order, w.agents)
	w.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	env := agents.Env{
		Temperature: w.Temperature,
		Food:        w.Food,
		Scent:       w.Scent,
		Shared:      w.Shared,
	}
	for _, a := range order {
		a.Step(env, w.rng)
	}

	// The active set held only live agents at sweep start, so anything
	// dead now died this tick. Removal is irreversible.
	live := w.agents[:0]
	for _, a := range w.agents {
		if a.Alive {
			live = append(live, a)
			continue
		}
		w.deadCount++
		slog.Info("agent starved", "agent", a.ID, "tick", w.tick, "x", a.X, "y", a.Y)
	}
	w.agents = live

	w.Scent.Decay(w.scentDecay, decayFloor)
	w.Shared.Decay(w.sharedDecay, decayFloor)
}

// DepositFood adds amount to the food field at (x,y). Out-of-bounds
// coordinates and non-positive amounts are silently ignored; an in-bounds
// deposit is strictly additive.
func (w *World) DepositFood(x, y int, amount float64) {
	if amount <= 0 || !w.Food.InBounds(x, y) {
		return
	}
	w.Food.Add(x, y, amount)
}

// Tick returns the number of completed ticks.
func (w *World) Tick() uint64 { return w.tick }

// Width returns the grid width.
func (w *World) Width() int { return w.width }

// Height returns the grid height.
func (w *World) Height() int { return w.height }

// Seed returns the effective random seed of this run.
func (w *World) Seed() int64 { return w.rng.Seed() }

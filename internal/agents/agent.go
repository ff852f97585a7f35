// Package agents implements the allostatic agent: per-tick physiology
// (thermal relaxation, metabolism, eating, death), the mood-modulated
// free-energy action scorer, and the private visit memory with its
// amortized compaction.
package agents

import (
	"math"

	"github.com/talgya/grid-world/internal/entropy"
	"github.com/talgya/grid-world/internal/world"
)

// Structural constants of the model, distinct from the tunable Params.
const (
	eatThreshold    = 0.1  // food below this is ignored
	signalThreshold = 1.0  // minimum intake that raises the food signal
	scentScale      = 2.0  // scent deposited at a full signal timer
	precisionFloor  = 0.5  // lower clamp on the softmax inverse temperature
	visitPruneEvery = 50   // memory updates between compaction passes
	visitPruneFloor = 0.05 // visit weights below this are dropped at compaction

	initialValenceBound = 2.0
)

// Params are the physiological and decision parameters shared by every
// agent in a simulation. Values come from configuration; DefaultParams
// holds the canonical set.
type Params struct {
	Metabolism     float64 // energy burned per tick
	MaxEnergy      float64 // stomach capacity
	CriticalEnergy float64 // hunger threshold
	FoodIntake     float64 // per-tick intake cap
	IdealTemp      float64 // preferred internal temperature
	SignalDuration float64 // ticks of scent emission after a real meal

	SocialWeight      float64 // pull toward others' scent when hungry
	WeightTemp        float64 // thermal error weight
	WeightEnergy      float64 // energy error weight
	WeightEpistemic   float64 // curiosity weight
	ExplorationFactor float64 // aversion to collectively visited cells
	BetaBase          float64 // neutral-mood precision
	BetaMax           float64 // precision ceiling

	Inertia        float64 // thermal conductivity toward ambient
	AffectRate     float64 // valence integration rate
	AffectCoupling float64 // precision sensitivity to valence
	MemoryDecay    float64 // private visit map decay per tick
}

// DefaultParams returns the canonical parameter set.
func DefaultParams() Params {
	return Params{
		Metabolism:     0.15,
		MaxEnergy:      100,
		CriticalEnergy: 50,
		FoodIntake:     10,
		IdealTemp:      25,
		SignalDuration: 15,

		SocialWeight:      3.0,
		WeightTemp:        1.0,
		WeightEnergy:      4.0,
		WeightEpistemic:   1.5,
		ExplorationFactor: 10.0,
		BetaBase:          6.0,
		BetaMax:           30.0,

		Inertia:        0.1,
		AffectRate:     0.4,
		AffectCoupling: 0.8,
		MemoryDecay:    0.90,
	}
}

// Env bundles the shared fields an agent reads and writes during a step.
// The engine owns the fields; agents touch them only through this view.
type Env struct {
	Temperature *world.Field
	Food        *world.Field
	Scent       *world.Field
	Shared      *world.Field
}

type cell struct {
	x, y int
}

// Agent is one allostatic individual. Dead is terminal: once Alive flips
// false the agent never steps again and holds precision zero.
type Agent struct {
	ID    int
	X, Y  int
	Alive bool

	// Physiology
	Temp   float64 // internal temperature
	Energy float64

	// Affect
	Valence      float64 // integrated valence, the mood signal
	ValenceBound float64 // running max |Valence|, kept for display scaling only
	Precision    float64 // softmax inverse temperature, modulated by mood

	prevTotalError float64
	errorSeeded    bool

	// Signaling and private memory
	SignalTimer  float64
	visits       map[cell]float64
	visitCleanup int

	params Params
}

// New creates a live agent at the given cell with the given birth energy
// and starting internal temperature.
func New(id, x, y int, energy, temp float64, p Params) *Agent {
	return &Agent{
		ID:           id,
		X:            x,
		Y:            y,
		Alive:        true,
		Temp:         temp,
		Energy:       energy,
		ValenceBound: initialValenceBound,
		Precision:    p.BetaBase,
		visits:       make(map[cell]float64),
		params:       p,
	}
}

// Step runs one full tick: physiology, then a stochastic move, then memory
// and scent deposits at the new cell. A dead agent's step is a no-op, and
// an agent that dies during physiology skips the move and all writes.
func (a *Agent) Step(env Env, rng *entropy.Source) {
	if !a.Alive {
		return
	}
	a.updatePhysiology(env)
	if !a.Alive {
		return
	}
	a.X, a.Y = a.chooseAction(env, rng)
	a.updateMemoryAndScent(env)
}

func (a *Agent) updatePhysiology(env Env) {
	p := a.params

	// Thermal relaxation toward the ambient temperature.
	ambient := env.Temperature.At(a.X, a.Y)
	a.Temp += p.Inertia * (ambient - a.Temp)

	// Flat metabolic cost.
	a.Energy -= p.Metabolism

	// Eat what the cell offers, capped by appetite, supply, and stomach
	// room. A real meal restarts the scent broadcast.
	food := env.Food.At(a.X, a.Y)
	if food > eatThreshold && a.Energy < p.MaxEnergy {
		room := p.MaxEnergy - a.Energy
		intake := math.Min(p.FoodIntake, math.Min(food, room))
		a.Energy += intake
		env.Food.Add(a.X, a.Y, -intake)
		if intake > signalThreshold {
			a.SignalTimer = p.SignalDuration
		}
	}
	if a.SignalTimer > 0 {
		a.SignalTimer--
	}

	if a.Energy <= 0 {
		a.Energy = 0
		a.Alive = false
		a.Precision = 0
		return
	}

	// Valence tracks the change in total survival error; the first update
	// seeds the baseline so it starts neutral.
	errT := math.Abs(a.Temp - p.IdealTemp)
	errE := math.Max(0, p.CriticalEnergy-a.Energy)
	total := p.WeightTemp*errT + p.WeightEnergy*errE
	if !a.errorSeeded {
		a.prevTotalError = total
		a.errorSeeded = true
	}
	inst := -(total - a.prevTotalError)
	a.prevTotalError = total

	a.Valence += p.AffectRate * (inst - a.Valence)

	// Mood modulates decision precision.
	a.Precision = clamp(p.BetaBase*math.Exp(p.AffectCoupling*a.Valence), precisionFloor, p.BetaMax)

	if v := math.Abs(a.Valence); v > a.ValenceBound {
		a.ValenceBound = v
	}
}

// Hungry reports whether energy has fallen below the critical threshold.
func (a *Agent) Hungry() bool {
	return a.Energy < a.params.CriticalEnergy
}

// VisitWeight returns the private visit memory for a cell, zero if the
// agent has no surviving record of it. The decision rules never read this;
// it exists for outside inspection.
func (a *Agent) VisitWeight(x, y int) float64 {
	return a.visits[cell{x, y}]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

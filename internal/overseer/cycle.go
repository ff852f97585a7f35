package overseer

import (
	"fmt"
	"log/slog"

	"github.com/talgya/grid-world/internal/llm"
)

// Overseer ties the observe, triage, decide, act steps of one cycle
// together and records the outcome in the cycle ring.
type Overseer struct {
	Observer *Observer
	Actor    *Actor
	Client   *llm.Client
	Memory   *CycleMemory

	// DropAmount is the food size used by the deterministic fallback.
	DropAmount float64
}

// RunCycle executes a single cycle. Observation failures abort the
// cycle; a failed drop is logged and still recorded, so the next prompt
// knows it was attempted.
func (o *Overseer) RunCycle() error {
	snap, err := o.Observer.Observe()
	if err != nil {
		return fmt.Errorf("observe: %w", err)
	}

	health := Triage(snap)
	slog.Info("colony observed",
		"step", snap.State.Step,
		"alive", snap.State.AgentsAlive,
		"dead", snap.State.AgentsDead,
		"avg_energy", fmt.Sprintf("%.1f", health.AvgEnergy),
		"critical", len(health.Critical),
		"crisis", health.CrisisLevel,
	)

	decision := Decide(o.Client, snap, health, o.Memory, o.DropAmount)
	slog.Info("decision made", "action", decision.Action, "thought", decision.Thought)

	rec := CycleRecord{
		Step:    snap.State.Step,
		Action:  decision.Action,
		Crisis:  health.CrisisLevel,
		Thought: decision.Thought,
	}

	if decision.Action == ActionDropFood {
		rec.X, rec.Y, rec.Amount = decision.X, decision.Y, decision.Amount

		result, err := o.Actor.DropFood(decision.X, decision.Y, decision.Amount)
		if err != nil {
			slog.Error("food drop failed", "x", decision.X, "y", decision.Y, "error", err)
		} else {
			slog.Info("food dropped",
				"x", decision.X,
				"y", decision.Y,
				"amount", decision.Amount,
				"message", result.Message,
			)
		}
	}

	o.Memory.Record(rec)
	o.Memory.Save()
	return nil
}

package overseer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talgya/grid-world/internal/llm"
)

// Actions the overseer may take in a cycle.
const (
	ActionDropFood = "drop_food"
	ActionWait     = "wait"
)

// Defaults applied when a model reply omits fields.
const (
	defaultDropX      = 40
	defaultDropY      = 20
	defaultDropAmount = 30.0
)

const (
	maxCriticalInPrompt = 10
	maxHeatmapCells     = 20
)

const systemPrompt = `You are the benevolent Overseer of a digital ant farm simulation.

A colony of agents wanders a bounded grid, regulating internal energy and temperature. An agent whose energy reaches zero starves and is gone for good. You cannot move agents or change the weather; your only lever is dropping food onto grid cells.

Your goal: PRIORITIZE keeping agents alive. Study the CRITICAL ALERTS. An agent with low energy (<50) or negative valence is suffering — drop food NEAR its (x, y) position so it can reach the meal before it starves. Agents follow scent trails, so the active areas tell you where the colony is foraging. If nobody is in trouble, wait; unneeded food distorts foraging.

Response format (JSON only, no markdown fences, no prose outside the JSON):
{
  "thought": "Your reasoning here...",
  "action": "drop_food" or "wait",
  "x": <integer> (only if drop_food),
  "y": <integer> (only if drop_food),
  "amount": <float> (only if drop_food, default 30.0)
}`

// Decision is the overseer's chosen action for one cycle.
type Decision struct {
	Thought string
	Action  string
	X       int
	Y       int
	Amount  float64
}

// Decide picks this cycle's action. With a configured client it asks the
// model; an unreachable model or unusable reply falls through to the
// deterministic policy, so a cycle always yields a decision.
func Decide(client *llm.Client, snap *Snapshot, health *ColonyHealth, mem *CycleMemory, dropAmount float64) *Decision {
	if client.Enabled() {
		prompt := buildPrompt(snap, health, mem)
		slog.Debug("overseer prompt", "length", len(prompt))

		resp, err := client.Complete(systemPrompt, prompt, 512)
		if err == nil {
			d, perr := parseDecision(resp)
			if perr == nil {
				return d
			}
			slog.Warn("unusable model reply, falling back", "error", perr)
		} else {
			slog.Warn("model call failed, falling back", "error", err)
		}
	}
	return Fallback(health, dropAmount)
}

// Fallback is the deterministic policy: feed the worst-off critical
// agent during a crisis, otherwise wait.
func Fallback(health *ColonyHealth, amount float64) *Decision {
	if health.CrisisLevel == CrisisHealthy || len(health.Critical) == 0 {
		return &Decision{Action: ActionWait, Thought: "colony stable, nothing to do"}
	}

	worst := health.Critical[0]
	for _, a := range health.Critical[1:] {
		if a.Energy < worst.Energy {
			worst = a
		}
	}
	if amount <= 0 {
		amount = defaultDropAmount
	}
	return &Decision{
		Action:  ActionDropFood,
		Thought: fmt.Sprintf("agent %d down to %.1f energy, feeding it directly", worst.ID, worst.Energy),
		X:       worst.X,
		Y:       worst.Y,
		Amount:  amount,
	}
}

// parseDecision interprets a raw model reply. Coordinates arrive as JSON
// numbers and are truncated to cell indices; anything that is not a food
// drop is treated as waiting.
func parseDecision(text string) (*Decision, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Thought string   `json:"thought"`
		Action  string   `json:"action"`
		X       *float64 `json:"x"`
		Y       *float64 `json:"y"`
		Amount  *float64 `json:"amount"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("parse decision (raw: %s): %w", raw, err)
	}

	d := &Decision{Thought: wire.Thought, Action: wire.Action}
	if d.Action != ActionDropFood {
		d.Action = ActionWait
		return d, nil
	}

	d.X, d.Y, d.Amount = defaultDropX, defaultDropY, defaultDropAmount
	if wire.X != nil {
		d.X = int(*wire.X)
	}
	if wire.Y != nil {
		d.Y = int(*wire.Y)
	}
	if wire.Amount != nil && *wire.Amount > 0 {
		d.Amount = *wire.Amount
	}
	return d, nil
}

// buildPrompt condenses the snapshot for the model: a status block, the
// critical list, the busiest scent cells, known food, trends, and the
// recent cycle ring.
func buildPrompt(snap *Snapshot, health *ColonyHealth, mem *CycleMemory) string {
	var b strings.Builder

	s := snap.State
	fmt.Fprintf(&b, "## Colony Status\n")
	fmt.Fprintf(&b, "Step: %d | Agents Alive: %d | Agents Dead: %d\n", s.Step, s.AgentsAlive, s.AgentsDead)
	fmt.Fprintf(&b, "Global Avg Energy: %.2f | Avg Mood (Valence): %.2f | Avg Temp: %.2f\n",
		health.AvgEnergy, health.AvgValence, health.AvgTemp)
	fmt.Fprintf(&b, "Crisis Level: %s\n\n", health.CrisisLevel)

	if len(health.Critical) > 0 {
		b.WriteString("CRITICAL ALERTS:\n")
		for i, a := range health.Critical {
			if i >= maxCriticalInPrompt {
				fmt.Fprintf(&b, "(%d more not shown)\n", len(health.Critical)-maxCriticalInPrompt)
				break
			}
			fmt.Fprintf(&b, "- Agent %d at (%d, %d): Energy=%.2f, Valence=%.2f\n",
				a.ID, a.X, a.Y, a.Energy, a.Valence)
		}
	} else {
		b.WriteString("Status OK: No agents in critical condition.\n")
	}
	b.WriteString("\n")

	cells := snap.Heatmap.Cells
	if cells == nil {
		cells = [][3]float64{}
	}
	if len(cells) > maxHeatmapCells {
		cells = cells[:maxHeatmapCells]
	}
	hm, _ := json.Marshal(cells)
	fmt.Fprintf(&b, "Significant Active Areas (x, y, intensity): %s\n\n", hm)

	if len(s.FoodPatches) > 0 {
		b.WriteString("Known Food Patches:\n")
		for _, p := range s.FoodPatches {
			fmt.Fprintf(&b, "- (%d, %d): %.1f\n", p.X, p.Y, p.Amount)
		}
		b.WriteString("\n")
	}

	if n := len(health.AliveTrend); n > 1 {
		fmt.Fprintf(&b, "## Trends (last %d snapshots)\n", n)
		fmt.Fprintf(&b, "Alive: %d → %d\n", health.AliveTrend[0], health.AliveTrend[n-1])
		fmt.Fprintf(&b, "Mean Energy: %.1f → %.1f\n\n", health.EnergyTrend[0], health.EnergyTrend[n-1])
	}

	if recent := mem.FormatForPrompt(); recent != "" {
		b.WriteString(recent)
		b.WriteString("\n")
	}

	w, hgt := snap.Heatmap.Dims[0], snap.Heatmap.Dims[1]
	if w <= 0 || hgt <= 0 {
		w, hgt = 40, 40
	}
	fmt.Fprintf(&b, "Grid bounds: x in [0, %d], y in [0, %d].\n", w-1, hgt-1)

	return b.String()
}

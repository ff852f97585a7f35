package engine

import "github.com/talgya/grid-world/internal/world"

// AgentState is the external projection of one live agent.
type AgentState struct {
	ID        int     `json:"id"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Energy    float64 `json:"energy"`
	Temp      float64 `json:"temp"`
	Valence   float64 `json:"valence"`
	Precision float64 `json:"precision"`
}

// FoodCell is a food deposit large enough to matter to observers.
type FoodCell struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Amount float64 `json:"amount"`
}

// State is the read-only world projection external observers consume.
type State struct {
	Tick      uint64       `json:"tick"`
	Alive     int          `json:"alive"`
	Dead      int          `json:"dead"`
	Agents    []AgentState `json:"agents"`
	FoodCells []FoodCell   `json:"food_cells"`
}

// Heatmap is the sparse scent projection for visualization consumers.
type Heatmap struct {
	Cells  []world.Cell `json:"cells"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
}

// Snapshot projects the current tick counter, population counts, live
// agents, and significant food cells. The result shares nothing with the
// world and stays valid after further ticks.
func (w *World) Snapshot() State {
	st := State{
		Tick:   w.tick,
		Alive:  len(w.agents),
		Dead:   w.deadCount,
		Agents: make([]AgentState, 0, len(w.agents)),
	}
	for _, a := range w.agents {
		st.Agents = append(st.Agents, AgentState{
			ID:        a.ID,
			X:         a.X,
			Y:         a.Y,
			Energy:    a.Energy,
			Temp:      a.Temp,
			Valence:   a.Valence,
			Precision: a.Precision,
		})
	}
	for _, c := range w.Food.Above(significantFood) {
		st.FoodCells = append(st.FoodCells, FoodCell{X: c.X, Y: c.Y, Amount: c.Value})
	}
	return st
}

// ScentHeatmap projects scent cells above the visibility threshold plus
// the grid dimensions.
func (w *World) ScentHeatmap() Heatmap {
	return Heatmap{
		Cells:  w.Scent.Above(scentVisibility),
		Width:  w.width,
		Height: w.height,
	}
}

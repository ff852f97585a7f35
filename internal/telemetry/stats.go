// Package telemetry records per-tick colony statistics: a SQLite-backed
// run history, an optional CSV export, and end-of-run summaries.
package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/talgya/grid-world/internal/engine"
)

// TickStats is one row of the run history, derived from a state snapshot.
type TickStats struct {
	Tick          uint64  `db:"tick" csv:"tick" json:"tick"`
	Alive         int     `db:"alive" csv:"alive" json:"alive"`
	Dead          int     `db:"dead" csv:"dead" json:"dead"`
	MeanEnergy    float64 `db:"mean_energy" csv:"mean_energy" json:"mean_energy"`
	MinEnergy     float64 `db:"min_energy" csv:"min_energy" json:"min_energy"`
	MeanTemp      float64 `db:"mean_temp" csv:"mean_temp" json:"mean_temp"`
	MeanValence   float64 `db:"mean_valence" csv:"mean_valence" json:"mean_valence"`
	MeanPrecision float64 `db:"mean_precision" csv:"mean_precision" json:"mean_precision"`
	FoodAvailable float64 `db:"food_available" csv:"food_available" json:"food_available"`
}

// FromState reduces a snapshot to its tick statistics. Means are over the
// living population and zero when nobody is left.
func FromState(st engine.State) TickStats {
	ts := TickStats{
		Tick:  st.Tick,
		Alive: st.Alive,
		Dead:  st.Dead,
	}

	for _, c := range st.FoodCells {
		ts.FoodAvailable += c.Amount
	}

	if len(st.Agents) == 0 {
		return ts
	}

	energy := make([]float64, len(st.Agents))
	temp := make([]float64, len(st.Agents))
	valence := make([]float64, len(st.Agents))
	precision := make([]float64, len(st.Agents))
	ts.MinEnergy = st.Agents[0].Energy
	for i, a := range st.Agents {
		energy[i] = a.Energy
		temp[i] = a.Temp
		valence[i] = a.Valence
		precision[i] = a.Precision
		if a.Energy < ts.MinEnergy {
			ts.MinEnergy = a.Energy
		}
	}
	ts.MeanEnergy = stat.Mean(energy, nil)
	ts.MeanTemp = stat.Mean(temp, nil)
	ts.MeanValence = stat.Mean(valence, nil)
	ts.MeanPrecision = stat.Mean(precision, nil)
	return ts
}

package telemetry

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/stat"
)

// RunSummary condenses a run's history into the numbers worth logging
// at shutdown.
type RunSummary struct {
	Ticks        uint64
	FinalAlive   int
	FinalDead    int
	MeanAlive    float64
	MeanEnergy   float64
	EnergyStdDev float64
	PeakFood     float64
}

// Summarize reduces a history (any order) to a run summary. An empty
// history yields the zero summary.
func Summarize(history []TickStats) RunSummary {
	var s RunSummary
	if len(history) == 0 {
		return s
	}

	alive := make([]float64, len(history))
	energy := make([]float64, len(history))
	latest := history[0]
	for i, ts := range history {
		alive[i] = float64(ts.Alive)
		energy[i] = ts.MeanEnergy
		if ts.FoodAvailable > s.PeakFood {
			s.PeakFood = ts.FoodAvailable
		}
		if ts.Tick > latest.Tick {
			latest = ts
		}
	}

	s.Ticks = latest.Tick
	s.FinalAlive = latest.Alive
	s.FinalDead = latest.Dead
	s.MeanAlive = stat.Mean(alive, nil)
	s.MeanEnergy = stat.Mean(energy, nil)
	s.EnergyStdDev = stat.StdDev(energy, nil)
	return s
}

func (s RunSummary) String() string {
	return fmt.Sprintf(
		"%s ticks, %d alive / %d dead, mean energy %.1f (stddev %.1f), peak food %.0f",
		humanize.Comma(int64(s.Ticks)), s.FinalAlive, s.FinalDead,
		s.MeanEnergy, s.EnergyStdDev, s.PeakFood,
	)
}

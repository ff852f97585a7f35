package overseer

// Thresholds for flagging an agent as suffering. These match the
// simulation's defaults; the overseer reads them off the wire only.
const (
	criticalEnergy = 50.0
	lowValence     = -0.5
)

// Crisis levels, worst first.
const (
	CrisisCritical = "CRITICAL"
	CrisisWarning  = "WARNING"
	CrisisHealthy  = "HEALTHY"
)

// ColonyHealth holds derived diagnostic signals computed from a Snapshot.
// Runs before any model call, deterministic and free.
type ColonyHealth struct {
	AvgEnergy  float64
	AvgTemp    float64
	AvgValence float64

	// Critical lists agents below the energy line or with strongly
	// negative valence, in API order.
	Critical []AgentDetail

	// Trends read oldest-first, reversed from the newest-first history.
	AliveTrend  []int
	EnergyTrend []float64
	Declining   bool

	CrisisLevel string
}

// Triage computes a ColonyHealth from the snapshot's data.
func Triage(snap *Snapshot) *ColonyHealth {
	h := &ColonyHealth{CrisisLevel: CrisisHealthy}

	agents := snap.State.Agents
	if n := len(agents); n > 0 {
		for _, a := range agents {
			h.AvgEnergy += a.Energy
			h.AvgTemp += a.Temp
			h.AvgValence += a.Valence
			if a.Energy < criticalEnergy || a.Valence < lowValence {
				h.Critical = append(h.Critical, a)
			}
		}
		h.AvgEnergy /= float64(n)
		h.AvgTemp /= float64(n)
		h.AvgValence /= float64(n)
	}

	for i := len(snap.History) - 1; i >= 0; i-- {
		h.AliveTrend = append(h.AliveTrend, snap.History[i].Alive)
		h.EnergyTrend = append(h.EnergyTrend, snap.History[i].MeanEnergy)
	}
	if n := len(h.AliveTrend); n >= 2 {
		h.Declining = h.AliveTrend[n-1] < h.AliveTrend[0]
	}

	alive := snap.State.AgentsAlive
	switch {
	case alive == 0:
		h.CrisisLevel = CrisisCritical
	case h.Declining:
		h.CrisisLevel = CrisisCritical
	case len(h.Critical)*2 >= alive && len(h.Critical) > 0:
		h.CrisisLevel = CrisisCritical
	case len(h.Critical) > 0:
		h.CrisisLevel = CrisisWarning
	}

	return h
}

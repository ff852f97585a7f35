package agents

// updateMemoryAndScent records the agent's presence at its current cell:
// the private visit weight, the shared stigmergic trail, and, while the
// food signal is up, a scent deposit scaled by the remaining timer
// fraction. The private map decays every call and is compacted in batches
// rather than per tick.
func (a *Agent) updateMemoryAndScent(env Env) {
	if !a.Alive {
		return
	}

	here := cell{a.X, a.Y}
	a.visits[here] += 1.0
	env.Shared.Add(a.X, a.Y, 1.0)

	// The fresh increment decays along with everything else.
	for k := range a.visits {
		a.visits[k] *= a.params.MemoryDecay
	}

	a.visitCleanup++
	if a.visitCleanup >= visitPruneEvery {
		for k, v := range a.visits {
			if v < visitPruneFloor {
				delete(a.visits, k)
			}
		}
		a.visitCleanup = 0
	}

	if a.SignalTimer > 0 {
		env.Scent.Add(a.X, a.Y, (a.SignalTimer/a.params.SignalDuration)*scentScale)
	}
}

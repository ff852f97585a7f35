package agents

import (
	"math"

	"github.com/talgya/grid-world/internal/entropy"
)

// The 8 neighbor offsets; "stay" is appended as a ninth candidate when
// scoring.
var directions = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

// chooseAction scores every bounds-legal neighbor plus staying put, then
// samples one cell from the precision-weighted softmax over the scores.
// Stay is always legal, so the candidate set is never empty.
func (a *Agent) chooseAction(env Env, rng *entropy.Source) (int, int) {
	if !a.Alive {
		return a.X, a.Y
	}

	hungry := a.Hungry()

	moves := make([]cell, 0, 9)
	scores := make([]float64, 0, 9)

	consider := func(nx, ny int) {
		if !env.Temperature.InBounds(nx, ny) {
			return
		}
		moves = append(moves, cell{nx, ny})
		scores = append(scores, a.scoreMove(env, nx, ny, hungry))
	}
	for _, d := range directions {
		consider(a.X+d[0], a.Y+d[1])
	}
	consider(a.X, a.Y)

	probs := softmaxProbs(scores, a.Precision)
	picked := moves[sampleIndex(probs, rng)]
	return picked.x, picked.y
}

// scoreMove computes the value of occupying (nx,ny) next tick: pragmatic
// survival lookahead, epistemic novelty against the shared trail, and
// scent attraction when hungry.
func (a *Agent) scoreMove(env Env, nx, ny int, hungry bool) float64 {
	p := a.params

	// One inertia step toward the candidate's ambient temperature.
	tPred := a.Temp + p.Inertia*(env.Temperature.At(nx, ny)-a.Temp)
	errT := math.Abs(tPred - p.IdealTemp)

	// Predicted intake is capped by appetite and the cell's supply; the
	// lookahead does not model remaining stomach room.
	foodThere := env.Food.At(nx, ny)
	intakePred := 0.0
	if foodThere > eatThreshold && a.Energy-p.Metabolism < p.MaxEnergy {
		intakePred = math.Min(p.FoodIntake, foodThere)
	}
	ePred := a.Energy - p.Metabolism + intakePred
	errE := math.Max(0, p.CriticalEnergy-ePred)

	pragmatic := -(p.WeightTemp*errT + p.WeightEnergy*errE)

	// Novelty reads the shared cross-agent trail, never the private map.
	epistemic := 1.0 / (1.0 + p.ExplorationFactor*env.Shared.At(nx, ny))

	social := 0.0
	if hungry {
		social = p.SocialWeight * env.Scent.At(nx, ny)
	}

	return pragmatic + p.WeightEpistemic*epistemic + social
}

// softmaxProbs turns scores into a distribution with beta as inverse
// temperature. Scores are shifted by their maximum before exponentiating
// so large beta values cannot overflow.
func softmaxProbs(scores []float64, beta float64) []float64 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	probs := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		e := math.Exp(beta * (s - maxScore))
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// sampleIndex draws one index from the distribution.
func sampleIndex(probs []float64, rng *entropy.Source) int {
	r := rng.Float64()
	acc := 0.0
	for i, p := range probs {
		acc += p
		if r < acc {
			return i
		}
	}
	return len(probs) - 1
}

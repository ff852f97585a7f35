// Landscape builders for the initial temperature and food fields.
// Temperature is a fixed Gaussian plateau with two offset spots (or layered
// simplex noise in the alternate mode); food is a small number of randomly
// placed Gaussian patches.

package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/grid-world/internal/entropy"
)

// GenParams holds the landscape generation amplitudes.
type GenParams struct {
	TempBaseMax    float64 // central plateau peak
	TempSpot1      float64 // warm spot near (0.2w, 0.8h)
	TempSpot2      float64 // warm spot near (0.75w, 0.25h)
	PatchAmountMin float64
	PatchAmountMax float64
}

const (
	patchMargin   = 5    // patch centers keep this many cells from every edge
	patchRadiusSq = 30.0 // squared-distance cutoff for patch contribution
	patchSigmaMin = 2.0
	patchSigmaMax = 4.0
)

// Temperature builds the ambient temperature field: one broad plateau
// centered on the grid plus two narrower fixed-offset spots. Deterministic
// in the dimensions and amplitudes; computed once per world.
func Temperature(width, height int, p GenParams) *Field {
	f := NewField(width, height)
	w := float64(width)
	h := float64(height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			fx := float64(x)
			fy := float64(y)
			v := p.TempBaseMax * math.Exp(-(sq(fx-w/2)+sq(fy-h/2))/(w*7.5))
			v += p.TempSpot1 * math.Exp(-(sq(fx-0.2*w)+sq(fy-0.8*h))/70)
			v += p.TempSpot2 * math.Exp(-(sq(fx-0.75*w)+sq(fy-0.25*h))/60)
			f.Set(x, y, v)
		}
	}
	return f
}

// TemperatureNoise builds the alternate temperature landscape from layered
// simplex noise, scaled into [0, base+spot1]. Selected by configuration;
// like the Gaussian mode, the result is immutable after init.
func TemperatureNoise(width, height int, p GenParams, seed int64) *Field {
	noise := opensimplex.NewNormalized(seed)
	ceiling := p.TempBaseMax + p.TempSpot1

	f := NewField(width, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			v := octaveNoise(noise, float64(x), float64(y), 4, 0.08, 0.5)
			f.Set(x, y, v*ceiling)
		}
	}
	return f
}

// Food builds the depletable food field: nPatches Gaussian heaps with
// random centers (kept off the edges), amplitudes, and spreads. All
// randomness comes from the simulation's source.
func Food(width, height, nPatches int, p GenParams, rng *entropy.Source) *Field {
	f := NewField(width, height)
	for i := 0; i < nPatches; i++ {
		cx := rng.IntRange(patchMargin, width-patchMargin)
		cy := rng.IntRange(patchMargin, height-patchMargin)
		amp := rng.Uniform(p.PatchAmountMin, p.PatchAmountMax)
		sigma := rng.Uniform(patchSigmaMin, patchSigmaMax)

		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				d := sq(float64(x-cx)) + sq(float64(y-cy))
				if d < patchRadiusSq {
					f.Add(x, y, amp*math.Exp(-d/(2*sigma*sigma)))
				}
			}
		}
	}
	return f
}

// octaveNoise layers multiple noise frequencies into fractal detail.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func sq(v float64) float64 { return v * v }

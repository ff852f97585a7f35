package world

import (
	"math"
	"testing"

	"github.com/talgya/grid-world/internal/entropy"
)

var testGen = GenParams{
	TempBaseMax:    28,
	TempSpot1:      14,
	TempSpot2:      12,
	PatchAmountMin: 30,
	PatchAmountMax: 80,
}

func TestTemperatureDeterministic(t *testing.T) {
	a := Temperature(40, 40, testGen)
	b := Temperature(40, 40, testGen)
	for x := 0; x < 40; x++ {
		for y := 0; y < 40; y++ {
			if a.At(x, y) != b.At(x, y) {
				t.Fatalf("temperature not deterministic at (%d,%d)", x, y)
			}
		}
	}
}

func TestTemperatureShape(t *testing.T) {
	f := Temperature(40, 40, testGen)

	center := f.At(20, 20)
	corner := f.At(0, 0)

	// Plateau peaks at the grid center; the offset spots add under half a
	// degree there.
	if center < 28 || center > 29 {
		t.Errorf("center = %v, want within [28, 29]", center)
	}
	if corner > 5 {
		t.Errorf("corner = %v, want the plateau mostly faded out", corner)
	}
	if corner >= center {
		t.Errorf("corner %v should be cooler than center %v", corner, center)
	}
	for x := 0; x < 40; x++ {
		for y := 0; y < 40; y++ {
			if f.At(x, y) < 0 {
				t.Fatalf("negative temperature %v at (%d,%d)", f.At(x, y), x, y)
			}
		}
	}
}

func TestFoodPatchGeometry(t *testing.T) {
	const w, h = 40, 40
	f := Food(w, h, 1, testGen, entropy.NewSource(42))

	// Locate the patch peak.
	px, py, peak := 0, 0, 0.0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if v := f.At(x, y); v > peak {
				px, py, peak = x, y, v
			}
		}
	}

	if peak < 30 || peak >= 80 {
		t.Errorf("peak amplitude = %v, want within [30, 80)", peak)
	}
	if px < 5 || px >= w-5 || py < 5 || py >= h-5 {
		t.Errorf("patch center (%d,%d) violates the 5-cell edge margin", px, py)
	}

	// Every fed cell sits inside the squared-distance cutoff from the peak.
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			v := f.At(x, y)
			if v < 0 {
				t.Fatalf("negative food %v at (%d,%d)", v, x, y)
			}
			if v > 0 {
				d := float64((x-px)*(x-px) + (y-py)*(y-py))
				if d >= 30 {
					t.Errorf("food %v at (%d,%d), squared distance %v from peak", v, x, y, d)
				}
			}
		}
	}
}

func TestFoodReproducible(t *testing.T) {
	a := Food(40, 40, 2, testGen, entropy.NewSource(7))
	b := Food(40, 40, 2, testGen, entropy.NewSource(7))
	for x := 0; x < 40; x++ {
		for y := 0; y < 40; y++ {
			if math.Abs(a.At(x, y)-b.At(x, y)) > 1e-12 {
				t.Fatalf("same seed differs at (%d,%d): %v vs %v", x, y, a.At(x, y), b.At(x, y))
			}
		}
	}
}

func TestTemperatureNoiseRange(t *testing.T) {
	const ceiling = 28.0 + 14.0
	a := TemperatureNoise(40, 40, testGen, 99)
	b := TemperatureNoise(40, 40, testGen, 99)
	for x := 0; x < 40; x++ {
		for y := 0; y < 40; y++ {
			v := a.At(x, y)
			if v < 0 || v > ceiling {
				t.Fatalf("noise temperature %v at (%d,%d) outside [0, %v]", v, x, y, ceiling)
			}
			if v != b.At(x, y) {
				t.Fatalf("same seed differs at (%d,%d)", x, y)
			}
		}
	}
}

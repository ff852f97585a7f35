// Package world holds the dense scalar fields a simulation runs on and the
// generators that build the initial landscape.
package world

// Cell is one sparse field sample, used by threshold projections.
type Cell struct {
	X     int
	Y     int
	Value float64
}

// Field is a dense 2D grid of float64 values over [0,width) × [0,height).
// Storage is x-major so threshold scans walk cells in (x,y) order.
type Field struct {
	width  int
	height int
	cells  []float64
}

// NewField creates a zeroed field of the given dimensions.
func NewField(width, height int) *Field {
	return &Field{
		width:  width,
		height: height,
		cells:  make([]float64, width*height),
	}
}

func (f *Field) Width() int  { return f.width }
func (f *Field) Height() int { return f.height }

// InBounds reports whether (x,y) lies on the grid.
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && x < f.width && y >= 0 && y < f.height
}

// At returns the value at (x,y). Panics out of bounds, like a slice index.
func (f *Field) At(x, y int) float64 {
	return f.cells[x*f.height+y]
}

// Set overwrites the value at (x,y).
func (f *Field) Set(x, y int, v float64) {
	f.cells[x*f.height+y] = v
}

// Add accumulates v into the value at (x,y).
func (f *Field) Add(x, y int, v float64) {
	f.cells[x*f.height+y] += v
}

// Decay multiplies every cell by factor, hard-zeroing any result below
// floor. Keeps decaying fields sparse and never lets float drift push a
// value negative.
func (f *Field) Decay(factor, floor float64) {
	for i, v := range f.cells {
		v *= factor
		if v < floor {
			v = 0
		}
		f.cells[i] = v
	}
}

// Above returns the cells whose value strictly exceeds threshold, in (x,y)
// scan order.
func (f *Field) Above(threshold float64) []Cell {
	var out []Cell
	i := 0
	for x := 0; x < f.width; x++ {
		for y := 0; y < f.height; y++ {
			if v := f.cells[i]; v > threshold {
				out = append(out, Cell{X: x, Y: y, Value: v})
			}
			i++
		}
	}
	return out
}

package world

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidDimensions is returned when a grid is requested with a non-positive side.
	ErrInvalidDimensions = errors.New("invalid dimensions")
	// ErrDegenerateFault is returned when fault growth cannot produce a non-zero segment.
	ErrDegenerateFault = errors.New("degenerate fault")
)

// HeightGrid is a dense 2D elevation field stored row-major (x varies fastest).
// Min and Max are the header range used when the grid is persisted.
type HeightGrid struct {
	Name   string
	Width  int
	Height int
	Min    float32
	Max    float32
	Values []float32
}

// NewHeightGrid allocates a zeroed grid with the default [0,1] header range.
func NewHeightGrid(width, height int) (*HeightGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("height grid %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	return &HeightGrid{
		Width:  width,
		Height: height,
		Min:    0,
		Max:    1,
		Values: make([]float32, width*height),
	}, nil
}

func (g *HeightGrid) index(x, y int) int {
	return y*g.Width + x
}

// InBounds reports whether (x, y) addresses a cell of the grid.
func (g *HeightGrid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// At returns the elevation at (x, y). Out-of-range reads return 0.
func (g *HeightGrid) At(x, y int) float32 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.Values[g.index(x, y)]
}

// Set writes the elevation at (x, y). Out-of-range writes are ignored.
func (g *HeightGrid) Set(x, y int, v float32) {
	if !g.InBounds(x, y) {
		return
	}
	g.Values[g.index(x, y)] = v
}

// Fill sets every cell to v.
func (g *HeightGrid) Fill(v float32) {
	for i := range g.Values {
		g.Values[i] = v
	}
}

// Clone returns a deep copy.
func (g *HeightGrid) Clone() *HeightGrid {
	c := *g
	c.Values = make([]float32, len(g.Values))
	copy(c.Values, g.Values)
	return &c
}

// Sub copies the w x h rectangle starting at (x0, y0) into a new grid.
// The rectangle must lie inside the grid.
func (g *HeightGrid) Sub(x0, y0, w, h int) (*HeightGrid, error) {
	if w <= 0 || h <= 0 || x0 < 0 || y0 < 0 || x0+w > g.Width || y0+h > g.Height {
		return nil, fmt.Errorf("sub-grid (%d,%d) %dx%d of %dx%d: %w", x0, y0, w, h, g.Width, g.Height, ErrInvalidDimensions)
	}
	sub := &HeightGrid{
		Name:   g.Name,
		Width:  w,
		Height: h,
		Min:    g.Min,
		Max:    g.Max,
		Values: make([]float32, w*h),
	}
	for y := range h {
		src := g.index(x0, y0+y)
		copy(sub.Values[y*w:(y+1)*w], g.Values[src:src+w])
	}
	return sub, nil
}

// Range returns the smallest and largest stored elevation.
func (g *HeightGrid) Range() (lo, hi float32) {
	if len(g.Values) == 0 {
		return 0, 0
	}
	lo, hi = g.Values[0], g.Values[0]
	for _, v := range g.Values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// HasInvalid reports whether any cell holds NaN or an infinity.
func (g *HeightGrid) HasInvalid() bool {
	for _, v := range g.Values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return true
		}
	}
	return false
}

// FitRange sets the header range to the stored extremes.
func (g *HeightGrid) FitRange() {
	g.Min, g.Max = g.Range()
}

// Normalize rescales all values linearly into [0,1] and sets the header to match.
// A constant grid becomes all zeros.
func (g *HeightGrid) Normalize() {
	lo, hi := g.Range()
	span := hi - lo
	for i, v := range g.Values {
		if span == 0 {
			g.Values[i] = 0
			continue
		}
		g.Values[i] = (v - lo) / span
	}
	g.Min, g.Max = 0, 1
}

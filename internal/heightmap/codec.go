// Package heightmap persists height grids in the little-endian .hm format:
//
//	int32 width, int32 height, float32 min, float32 max, float32[width*height]
//
// with values row-major, x varying fastest.
package heightmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"world-explorer/internal/world"
)

// ErrCorruptHeightmap is returned for a malformed header or truncated data.
var ErrCorruptHeightmap = errors.New("corrupt heightmap")

const (
	headerSize = 16
	// maxCells bounds the allocation a header can ask for.
	maxCells = 1 << 28
)

// encoder accumulates the first write error; check Err after writing.
type encoder struct {
	w   io.Writer
	buf [4]byte
	err error
}

func (e *encoder) putUint32(v uint32) {
	if e.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(e.buf[:], v)
	_, e.err = e.w.Write(e.buf[:])
}

func (e *encoder) putInt32(v int32)     { e.putUint32(uint32(v)) }
func (e *encoder) putFloat32(v float32) { e.putUint32(math.Float32bits(v)) }

func (e *encoder) Err() error {
	return e.err
}

// Encode writes g to w.
func Encode(w io.Writer, g *world.HeightGrid) error {
	if g.Width <= 0 || g.Height <= 0 || len(g.Values) != g.Width*g.Height {
		return fmt.Errorf("encode %dx%d grid with %d values: %w", g.Width, g.Height, len(g.Values), world.ErrInvalidDimensions)
	}
	e := &encoder{w: w}
	e.putInt32(int32(g.Width))
	e.putInt32(int32(g.Height))
	e.putFloat32(g.Min)
	e.putFloat32(g.Max)
	for _, v := range g.Values {
		e.putFloat32(v)
	}
	return e.Err()
}

// Decode reads one grid from r. A min greater than max is swapped, and values
// outside [min, max] are clamped to the nearer bound. A non-finite range or a NaN
// cell makes the file corrupt.
func Decode(r io.Reader) (*world.HeightGrid, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read header: %w: %w", ErrCorruptHeightmap, err)
	}
	w := int32(binary.LittleEndian.Uint32(header[0:4]))
	h := int32(binary.LittleEndian.Uint32(header[4:8]))
	lo := math.Float32frombits(binary.LittleEndian.Uint32(header[8:12]))
	hi := math.Float32frombits(binary.LittleEndian.Uint32(header[12:16]))

	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("header size %dx%d: %w", w, h, ErrCorruptHeightmap)
	}
	if int64(w)*int64(h) > maxCells {
		return nil, fmt.Errorf("header size %dx%d exceeds %d cells: %w", w, h, maxCells, ErrCorruptHeightmap)
	}
	if !finite(lo) || !finite(hi) {
		return nil, fmt.Errorf("header range [%v,%v]: %w", lo, hi, ErrCorruptHeightmap)
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	g, err := world.NewHeightGrid(int(w), int(h))
	if err != nil {
		return nil, err
	}
	g.Min, g.Max = lo, hi

	data := make([]byte, len(g.Values)*4)
	if n, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read values: got %d of %d cells: %w: %w", n/4, len(g.Values), ErrCorruptHeightmap, err)
	}
	for i := range g.Values {
		v := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		if math.IsNaN(float64(v)) {
			return nil, fmt.Errorf("cell %d is NaN: %w", i, ErrCorruptHeightmap)
		}
		g.Values[i] = min(max(v, lo), hi)
	}
	return g, nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

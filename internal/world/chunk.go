package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMapChunkSize is the vertex count along one side of a map chunk mesh.
const DefaultMapChunkSize = 241

// ChunkCoord addresses a chunk in chunk units.
type ChunkCoord struct {
	X, Y int
}

// MapChunk is one stitched block of a larger map together with its colour map.
type MapChunk struct {
	Coord   ChunkCoord
	Heights *HeightGrid
	Colors  *ColorGrid
}

// WorldOrigin returns the chunk's placement in world units. Neighbours are spaced
// one cell closer than their size so their shared boundary vertices coincide.
func (c *MapChunk) WorldOrigin() mgl32.Vec2 {
	step := float32(c.Heights.Width - 1)
	return mgl32.Vec2{float32(c.Coord.X) * step, float32(c.Coord.Y) * step}
}

// ChunkStitcher splits a full map into equally sized chunks whose shared edges agree.
type ChunkStitcher struct {
	// Edge is the side of each chunk in cells.
	Edge   int
	Biomes BiomeTable
}

// NewChunkStitcher creates a stitcher for meshes of mapChunkSize vertices per side.
func NewChunkStitcher(mapChunkSize int, biomes BiomeTable) (*ChunkStitcher, error) {
	if mapChunkSize < 3 {
		return nil, fmt.Errorf("map chunk size %d: %w", mapChunkSize, ErrInvalidDimensions)
	}
	return &ChunkStitcher{Edge: mapChunkSize - 1, Biomes: biomes}, nil
}

// Grid returns how many whole chunks fit across and down a map. Partial chunks
// on the right and bottom are dropped.
func (s *ChunkStitcher) Grid(width, height int) (nx, ny int) {
	return width / s.Edge, height / s.Edge
}

// Split stitches a copy of full and cuts it into chunks, classifying colours after
// stitching. full itself is left untouched. Chunks are returned row by row.
func (s *ChunkStitcher) Split(full *HeightGrid) ([]*MapChunk, error) {
	nx, ny := s.Grid(full.Width, full.Height)
	if nx == 0 || ny == 0 {
		return nil, fmt.Errorf("map %dx%d is smaller than one %d-cell chunk: %w",
			full.Width, full.Height, s.Edge, ErrInvalidDimensions)
	}

	stitched := s.Stitch(full)
	chunks := make([]*MapChunk, 0, nx*ny)
	for cy := range ny {
		for cx := range nx {
			heights, err := stitched.Sub(cx*s.Edge, cy*s.Edge, s.Edge, s.Edge)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, &MapChunk{
				Coord:   ChunkCoord{X: cx, Y: cy},
				Heights: heights,
				Colors:  s.Biomes.Colorize(heights),
			})
		}
	}
	return chunks, nil
}

// Stitch returns a copy of full in which the two cells either side of every interior
// chunk seam hold their average, and the four cells around every interior corner hold
// theirs.
func (s *ChunkStitcher) Stitch(full *HeightGrid) *HeightGrid {
	out := full.Clone()
	nx, ny := s.Grid(full.Width, full.Height)
	c := s.Edge

	for k := 1; k < nx; k++ {
		a, b := k*c-1, k*c
		for y := range out.Height {
			avg := (out.At(a, y) + out.At(b, y)) / 2
			out.Set(a, y, avg)
			out.Set(b, y, avg)
		}
	}
	for m := 1; m < ny; m++ {
		a, b := m*c-1, m*c
		for x := range out.Width {
			avg := (out.At(x, a) + out.At(x, b)) / 2
			out.Set(x, a, avg)
			out.Set(x, b, avg)
		}
	}
	for k := 1; k < nx; k++ {
		for m := 1; m < ny; m++ {
			x0, x1 := k*c-1, k*c
			y0, y1 := m*c-1, m*c
			avg := (out.At(x0, y0) + out.At(x1, y0) + out.At(x0, y1) + out.At(x1, y1)) / 4
			out.Set(x0, y0, avg)
			out.Set(x1, y0, avg)
			out.Set(x0, y1, avg)
			out.Set(x1, y1, avg)
		}
	}
	return out
}

// SplitChunks is shorthand for NewChunkStitcher(mapChunkSize, biomes).Split(full).
func SplitChunks(full *HeightGrid, mapChunkSize int, biomes BiomeTable) ([]*MapChunk, error) {
	s, err := NewChunkStitcher(mapChunkSize, biomes)
	if err != nil {
		return nil, err
	}
	return s.Split(full)
}

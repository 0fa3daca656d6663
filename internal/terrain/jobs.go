package terrain

import (
	"context"
	"fmt"

	"world-explorer/internal/world"
)

// HeightJob synthesises one chunk of an endless map. Chunks are sampled one cell
// closer than their size so neighbours share their boundary row and column.
type HeightJob struct {
	Coord  world.ChunkCoord
	Edge   int
	Gen    world.Generator
	Biomes world.BiomeTable
	// Done receives the chunk on the worker goroutine.
	Done func(*world.MapChunk, error)
}

// Process generates the chunk and hands it to Done. It is never cancelled.
func (j HeightJob) Process() {
	chunk, err := j.build()
	if j.Done != nil {
		j.Done(chunk, err)
	}
}

func (j HeightJob) build() (*world.MapChunk, error) {
	x0 := j.Coord.X * (j.Edge - 1)
	y0 := j.Coord.Y * (j.Edge - 1)
	heights, err := j.Gen.GenerateRegion(context.Background(), x0, y0, j.Edge, j.Edge)
	if err != nil {
		return nil, fmt.Errorf("chunk %v: %w", j.Coord, err)
	}
	return &world.MapChunk{
		Coord:   j.Coord,
		Heights: heights,
		Colors:  j.Biomes.Colorize(heights),
	}, nil
}

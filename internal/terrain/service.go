// Package terrain ties the generation stages together and runs chunk-level work
// on a worker pool, handing results back through drainable queues.
package terrain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"world-explorer/internal/config"
	"world-explorer/internal/meshing"
	"world-explorer/internal/profiling"
	"world-explorer/internal/world"
)

// FlatMapSize is the side of maps written by GenerateFlatMap.
const FlatMapSize = world.DefaultMapChunkSize

// Service is the entry point of the terrain core.
type Service struct {
	cfg    *config.Config
	log    *slog.Logger
	biomes world.BiomeTable

	pool          *meshing.WorkerPool
	heightResults ResultQueue
	meshResults   ResultQueue

	chunks  *world.ChunkStore
	endless world.Generator
}

// NewService creates a service and starts its workers. cfg must have been validated.
func NewService(cfg *config.Config, biomes world.BiomeTable, log *slog.Logger) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		log:    log.With("component", "terrain"),
		biomes: biomes,
		chunks: world.NewChunkStore(),
	}

	gen, err := s.generator(cfg.Strategy, cfg.Seed, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	s.endless = gen
	s.pool = meshing.NewWorkerPool(cfg.Workers, cfg.QueueSize)

	s.log.Debug("service started", "workers", cfg.Workers, "queueSize", cfg.QueueSize, "strategy", cfg.Strategy)
	return s, nil
}

// Close stops accepting work and waits for queued jobs. Results still waiting in
// the queues can be drained afterwards.
func (s *Service) Close() {
	s.pool.Shutdown()
	s.log.Debug("service stopped",
		"pendingHeights", s.heightResults.Len(),
		"pendingMeshes", s.meshResults.Len(),
	)
}

// Chunks returns the store holding every chunk produced so far.
func (s *Service) Chunks() *world.ChunkStore {
	return s.chunks
}

// Chunk returns a stored chunk.
func (s *Service) Chunk(coord world.ChunkCoord) (*world.MapChunk, bool) {
	return s.chunks.Get(coord)
}

// ChunkEdge returns the side of a chunk in cells.
func (s *Service) ChunkEdge() int {
	return s.cfg.MapChunkSize - 1
}

// generator builds the strategy with the configured noise kinds and fault settings.
func (s *Service) generator(strategy string, seed int64, extentW, extentH int) (world.Generator, error) {
	detail, err := world.ParseNoiseKind(s.cfg.DetailNoise)
	if err != nil {
		return nil, fmt.Errorf("detail noise: %w", err)
	}

	switch strategy {
	case "noise", "perlin":
		p := world.DetailNoise(seed)
		p.Kind = detail
		return world.NewNoiseGeneratorWith(p), nil
	case "tectonic":
		base, err := world.ParseNoiseKind(s.cfg.BaseNoise)
		if err != nil {
			return nil, fmt.Errorf("base noise: %w", err)
		}
		tc := world.DefaultTectonicConfig()
		tc.Detail.Kind = detail
		tc.Base.Kind = base
		tc.Lithosphere = world.LithosphereConfig{
			FaultCount: s.cfg.FaultCount,
			StepLength: s.cfg.FaultStep,
		}
		tc.ExtentW, tc.ExtentH = extentW, extentH
		return world.NewTectonicGenerator(seed, tc), nil
	default:
		return world.NewStrategy(strategy, seed)
	}
}

// GenerateFlatMap returns the standard flat placeholder map.
func (s *Service) GenerateFlatMap(name string) *world.HeightGrid {
	g, _ := world.NewFlatGenerator(world.FlatValue).Generate(context.Background(), FlatMapSize, FlatMapSize)
	g.Name = name
	return g
}

// GenerateNoiseMap synthesises raw noise terrain using the configured detail noise kind.
func (s *Service) GenerateNoiseMap(ctx context.Context, width, height int, seed int64) (*world.HeightGrid, error) {
	defer profiling.Track("terrain.GenerateNoiseMap")()
	gen, err := s.generator("noise", seed, width, height)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, gen, "noise", width, height)
}

// GenerateTectonicMap grows faults for the map and blends ridges along them.
func (s *Service) GenerateTectonicMap(ctx context.Context, width, height int, seed int64) (*world.HeightGrid, error) {
	defer profiling.Track("terrain.GenerateTectonicMap")()
	gen, err := s.generator("tectonic", seed, width, height)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, gen, "tectonic", width, height)
}

// GenerateMap runs the named strategy.
func (s *Service) GenerateMap(ctx context.Context, strategy string, width, height int, seed int64) (*world.HeightGrid, error) {
	switch strategy {
	case "flat":
		g, err := world.NewFlatGenerator(world.FlatValue).Generate(ctx, width, height)
		if err != nil {
			return nil, err
		}
		g.Name = "flat"
		return g, nil
	case "noise", "perlin":
		return s.GenerateNoiseMap(ctx, width, height, seed)
	case "tectonic":
		return s.GenerateTectonicMap(ctx, width, height, seed)
	default:
		return nil, fmt.Errorf("%q: %w", strategy, world.ErrUnknownStrategy)
	}
}

func (s *Service) generate(ctx context.Context, gen world.Generator, strategy string, width, height int) (*world.HeightGrid, error) {
	start := time.Now()
	g, err := gen.Generate(ctx, width, height)
	if err != nil {
		return nil, fmt.Errorf("generate %s map: %w", strategy, err)
	}
	g.Name = strategy
	g.FitRange()
	s.log.Info("map generated",
		"strategy", strategy,
		"width", width,
		"height", height,
		"min", g.Min,
		"max", g.Max,
		"elapsed", time.Since(start),
	)
	return g, nil
}

// SimulateErosion runs dropCount raindrops over grid in place using the configured
// lifespan, decrement and mode. It returns the eroded grid with the run's stats.
func (s *Service) SimulateErosion(grid *world.HeightGrid, dropCount int, seed int64) (*world.HeightGrid, world.ErosionStats) {
	defer profiling.Track("terrain.SimulateErosion")()

	cfg := world.ErosionConfig{
		Drops:         dropCount,
		Lifespan:      s.cfg.DropLifespan,
		Decrement:     s.cfg.ErosionAmount,
		Mode:          world.DecrementPerCell,
		FillIncrement: s.cfg.ErosionFill,
	}
	if s.cfg.ErosionMode == "visit" {
		cfg.Mode = world.DecrementPerVisit
	}
	stats := world.Erode(grid, cfg, seed)
	s.log.Info("erosion finished",
		"drops", stats.Drops,
		"steps", stats.Steps,
		"visits", stats.Visits,
		"cells", stats.DistinctCells,
		"stationary", stats.Ended[world.DropStationary],
		"exhausted", stats.Ended[world.DropExhausted],
	)
	return grid, stats
}

// GenerateChunkedMap stitches full into chunks of mapChunkSize vertices per side,
// colours them with biomes and stores them.
func (s *Service) GenerateChunkedMap(full *world.HeightGrid, mapChunkSize int, biomes world.BiomeTable) ([]*world.MapChunk, error) {
	defer profiling.Track("terrain.GenerateChunkedMap")()
	chunks, err := world.SplitChunks(full, mapChunkSize, biomes)
	if err != nil {
		return nil, fmt.Errorf("chunk map %q: %w", full.Name, err)
	}
	s.chunks.PutAll(chunks)
	s.log.Info("map chunked", "map", full.Name, "chunks", len(chunks), "mapChunkSize", mapChunkSize)
	return chunks, nil
}

// BuildMesh meshes grid at the given level of detail.
func (s *Service) BuildMesh(grid *world.HeightGrid, heightMultiplier float32, lod int) *meshing.MeshData {
	return meshing.BuildMesh(grid, heightMultiplier, meshing.LODStep(lod))
}

// RequestHeightData synthesises the chunk at coord in the background. cb runs during
// a later DrainHeightResults. Returns false if the work queue is full or closed.
func (s *Service) RequestHeightData(coord world.ChunkCoord, cb func(*world.MapChunk, error)) bool {
	return s.pool.SubmitJob(HeightJob{
		Coord:  coord,
		Edge:   s.ChunkEdge(),
		Gen:    s.endless,
		Biomes: s.biomes,
		Done: func(c *world.MapChunk, err error) {
			if err == nil {
				c = s.chunks.PutIfAbsent(c)
			}
			s.heightResults.Push(func() { cb(c, err) })
		},
	})
}

// RequestMeshData meshes chunk at the given level of detail in the background.
// cb runs during a later DrainMeshResults. Returns false if the work queue is full or closed.
func (s *Service) RequestMeshData(chunk *world.MapChunk, lod int, cb func(meshing.MeshResult)) bool {
	return s.pool.SubmitJob(meshing.MeshJob{
		Coord:            chunk.Coord,
		Heights:          chunk.Heights,
		HeightMultiplier: s.cfg.HeightMultiplier,
		LOD:              lod,
		Done: func(r meshing.MeshResult) {
			s.meshResults.Push(func() { cb(r) })
		},
	})
}

// DrainHeightResults delivers finished height requests on the calling goroutine.
func (s *Service) DrainHeightResults() int {
	return s.heightResults.Drain()
}

// DrainMeshResults delivers finished mesh requests on the calling goroutine.
func (s *Service) DrainMeshResults() int {
	return s.meshResults.Drain()
}

// Pending returns the number of accepted background jobs that have not finished.
func (s *Service) Pending() int {
	return s.pool.InFlight()
}

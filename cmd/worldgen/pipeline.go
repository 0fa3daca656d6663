package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"time"

	"world-explorer/internal/config"
	"world-explorer/internal/heightmap"
	"world-explorer/internal/meshing"
	"world-explorer/internal/preview"
	"world-explorer/internal/profiling"
	"world-explorer/internal/terrain"
	"world-explorer/internal/world"

	"github.com/xlab/closer"
)

func parseFloat32(s string, dst *float32) error {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return err
	}
	*dst = float32(v)
	return nil
}

func run(cfg *config.Config, opts options, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	resolver := heightmap.NewResolver(cfg.MapDir, cfg.CacheDir)
	if opts.list {
		names, err := resolver.List()
		if err != nil {
			return err
		}
		log.Info("stored maps", "dir", cfg.MapDir, "count", len(names))
		for _, name := range names {
			log.Info("map", "name", name)
		}
		return nil
	}

	biomes := world.DefaultBiomes()
	svc, err := terrain.NewService(cfg, biomes, log)
	if err != nil {
		return err
	}
	closer.Bind(svc.Close)

	if opts.newMap != "" {
		path := resolver.Path(opts.newMap)
		if err := heightmap.WriteFile(path, svc.GenerateFlatMap(opts.newMap)); err != nil {
			return err
		}
		log.Info("placeholder map written", "path", path)
		return nil
	}

	grid, err := loadOrGenerate(ctx, svc, resolver, cfg, opts, log)
	if err != nil {
		return err
	}

	if opts.normalize {
		if lo, hi := grid.Range(); lo < 0 || hi > 1 {
			grid.Normalize()
			log.Debug("heights normalised", "min", lo, "max", hi)
		}
	}
	if cfg.ErosionDrops > 0 {
		grid, _ = svc.SimulateErosion(grid, cfg.ErosionDrops, cfg.Seed)
		grid.FitRange()
	}

	if opts.out != "" {
		path := resolver.Path(opts.out)
		if err := heightmap.WriteFile(path, grid); err != nil {
			return err
		}
		log.Info("map saved", "path", path)
	}

	var chunks []*world.MapChunk
	if !opts.endless {
		chunks, err = svc.GenerateChunkedMap(grid, cfg.MapChunkSize, biomes)
		switch {
		case errors.Is(err, world.ErrInvalidDimensions):
			log.Warn("map smaller than one chunk, skipping meshes", "width", grid.Width, "height", grid.Height)
		case err != nil:
			return err
		default:
			if err := meshAll(ctx, svc, chunks, cfg.LODs, log); err != nil {
				return err
			}
		}
	}

	if opts.explore > 0 {
		if err := explore(ctx, svc, cfg, opts, log); err != nil {
			return err
		}
		if opts.endless {
			chunks = storedChunks(svc)
		}
	}

	if opts.preview != "" {
		if err := writePreview(opts, cfg, grid, chunks, log); err != nil {
			return err
		}
	}

	log.Info("done", "chunks", svc.Chunks().Len(), "profile", profiling.TopN(5))
	return nil
}

func loadOrGenerate(ctx context.Context, svc *terrain.Service, resolver *heightmap.Resolver, cfg *config.Config, opts options, log *slog.Logger) (*world.HeightGrid, error) {
	if opts.load == "" {
		return svc.GenerateMap(ctx, cfg.Strategy, cfg.Width, cfg.Height, cfg.Seed)
	}
	path, err := resolver.Resolve(ctx, opts.load)
	if err != nil {
		return nil, err
	}
	grid, err := heightmap.ReadOrFailure(path)
	if err != nil {
		return nil, err
	}
	log.Info("map loaded", "name", grid.Name, "path", path, "width", grid.Width, "height", grid.Height)
	return grid, nil
}

// meshAll builds every chunk at every level of detail in the background and waits for
// the results, draining them on this goroutine.
func meshAll(ctx context.Context, svc *terrain.Service, chunks []*world.MapChunk, lods []config.LOD, log *slog.Logger) error {
	start := time.Now()
	want := len(chunks) * len(lods)
	var triangles int
	done := 0
	onMesh := func(r meshing.MeshResult) {
		triangles += r.Mesh.TriangleCount()
		done++
	}

	for _, c := range chunks {
		for _, lod := range lods {
			for !svc.RequestMeshData(c, lod.Level, onMesh) {
				// queue full: hand back finished work before retrying
				if err := pause(ctx); err != nil {
					return err
				}
				svc.DrainMeshResults()
			}
		}
	}
	for done < want {
		if err := pause(ctx); err != nil {
			return err
		}
		svc.DrainMeshResults()
	}

	log.Info("meshes built",
		"chunks", len(chunks),
		"lods", len(lods),
		"triangles", triangles,
		"elapsed", time.Since(start),
	)
	return nil
}

func pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Millisecond):
		return nil
	}
}

func storedChunks(svc *terrain.Service) []*world.MapChunk {
	var out []*world.MapChunk
	for _, coord := range svc.Chunks().Coords() {
		if c, ok := svc.Chunk(coord); ok {
			out = append(out, c)
		}
	}
	return out
}

func writePreview(opts options, cfg *config.Config, grid *world.HeightGrid, chunks []*world.MapChunk, log *slog.Logger) error {
	var img image.Image
	switch {
	case opts.heightView:
		img = preview.HeightImage(grid)
	case len(chunks) > 0:
		img = preview.Mosaic(chunks)
	default:
		img = preview.ColorImage(world.DefaultBiomes().Colorize(grid))
	}
	img = preview.Scale(img, cfg.PreviewScale, opts.smooth)
	if err := preview.WriteFile(opts.preview, img); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	log.Info("preview written", "path", opts.preview, "size", img.Bounds().Size().String())
	return nil
}

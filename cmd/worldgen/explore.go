package main

import (
	"context"
	"log/slog"

	"world-explorer/internal/config"
	"world-explorer/internal/meshing"
	"world-explorer/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

// explore moves a viewer diagonally across the world in steps just over the
// refresh threshold, settling all requested work after each step.
func explore(ctx context.Context, svc *terrain.Service, cfg *config.Config, opts options, log *slog.Logger) error {
	lods := make([]meshing.LODLevel, len(cfg.LODs))
	for i, l := range cfg.LODs {
		lods[i] = meshing.LODLevel{Level: l.Level, MinViewDistance: l.MinViewDistance}
	}
	vm := terrain.NewVisibilityManager(svc, lods, svc.ChunkEdge(), opts.endless)

	step := float32(terrain.MoveThreshold + 1)
	pos := mgl32.Vec2{}
	for i := 0; i < opts.explore; i++ {
		vm.Update(terrain.ViewState{Position: pos})
		if err := settle(ctx, svc); err != nil {
			return err
		}

		meshed := 0
		for _, coord := range vm.Visible() {
			if v, ok := vm.View(coord); ok && v.Mesh() != nil {
				meshed++
			}
		}
		log.Debug("viewer moved",
			"step", i,
			"x", pos.X(),
			"y", pos.Y(),
			"visible", len(vm.Visible()),
			"meshed", meshed,
		)
		pos = pos.Add(mgl32.Vec2{step, step})
	}
	log.Info("exploration finished", "steps", opts.explore, "visible", len(vm.Visible()), "stored", svc.Chunks().Len())
	return nil
}

// settle drains results until no background work is left. Height results may
// queue mesh requests, so both queues are drained until both stay empty.
func settle(ctx context.Context, svc *terrain.Service) error {
	for {
		n := svc.DrainHeightResults() + svc.DrainMeshResults()
		if n == 0 && svc.Pending() == 0 {
			// a job may have finished between the drains and the pending check
			if svc.DrainHeightResults()+svc.DrainMeshResults() == 0 {
				return nil
			}
			continue
		}
		if err := pause(ctx); err != nil {
			return err
		}
	}
}

package meshing

import (
	"sync"
	"sync/atomic"
	"testing"

	"world-explorer/internal/world"
)

type funcJob func()

func (f funcJob) Process() { f() }

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	p := NewWorkerPool(4, 64)
	var ran atomic.Int32
	for i := 0; i < 50; i++ {
		if !p.SubmitJobBlocking(funcJob(func() { ran.Add(1) })) {
			t.Fatalf("job %d rejected", i)
		}
	}
	p.Shutdown()
	if ran.Load() != 50 {
		t.Errorf("ran %d jobs, want 50", ran.Load())
	}
	if p.InFlight() != 0 {
		t.Errorf("in flight after shutdown = %d", p.InFlight())
	}
}

func TestWorkerPoolRejectsAfterShutdown(t *testing.T) {
	p := NewWorkerPool(1, 1)
	p.Shutdown()
	p.Shutdown()
	if p.SubmitJob(funcJob(func() {})) {
		t.Errorf("SubmitJob accepted a job after shutdown")
	}
	if p.SubmitJobBlocking(funcJob(func() {})) {
		t.Errorf("SubmitJobBlocking accepted a job after shutdown")
	}
}

// TestWorkerPoolQueueFull verifies non-blocking submit fails when no slot is free
func TestWorkerPoolQueueFull(t *testing.T) {
	p := NewWorkerPool(1, 1)
	release := make(chan struct{})
	started := make(chan struct{})

	// occupy the only worker
	p.SubmitJobBlocking(funcJob(func() {
		close(started)
		<-release
	}))
	<-started
	// fill the only queue slot
	if !p.SubmitJob(funcJob(func() {})) {
		t.Fatalf("queue slot should be free")
	}
	if p.SubmitJob(funcJob(func() {})) {
		t.Errorf("SubmitJob should fail on a full queue")
	}
	if p.QueueLength() != 1 {
		t.Errorf("queue length = %d, want 1", p.QueueLength())
	}
	close(release)
	p.Shutdown()
}

func TestMeshJobDeliversResult(t *testing.T) {
	p := NewWorkerPool(2, 8)
	defer p.Shutdown()

	g := rampGrid(t, 9, 9)
	var (
		mu      sync.Mutex
		results []MeshResult
		wg      sync.WaitGroup
	)
	for lod := 0; lod < 3; lod++ {
		wg.Add(1)
		p.SubmitJobBlocking(MeshJob{
			Coord:            world.ChunkCoord{X: 1, Y: 2},
			Heights:          g,
			HeightMultiplier: 1,
			LOD:              lod,
			Done: func(r MeshResult) {
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
				wg.Done()
			},
		})
	}
	wg.Wait()

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, r := range results {
		step := LODStep(r.LOD)
		n := 8/step + 1
		if r.Coord != (world.ChunkCoord{X: 1, Y: 2}) || len(r.Mesh.Vertices) != n*n {
			t.Errorf("lod %d: coord %v, %d vertices, want %d", r.LOD, r.Coord, len(r.Mesh.Vertices), n*n)
		}
	}
}

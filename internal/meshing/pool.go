package meshing

import (
	"sync"
	"sync/atomic"

	"world-explorer/internal/world"
)

// Job is a unit of background work run by a WorkerPool. Process delivers its own
// result, usually through a callback captured in the job.
type Job interface {
	Process()
}

// MeshJob builds the mesh of one chunk at one level of detail
type MeshJob struct {
	Coord            world.ChunkCoord
	Heights          *world.HeightGrid
	HeightMultiplier float32
	LOD              int
	// Done receives the result on the worker goroutine.
	Done func(MeshResult)
}

// MeshResult contains the result of a meshing job
type MeshResult struct {
	Coord world.ChunkCoord
	LOD   int
	Mesh  *MeshData
}

// Process builds the mesh and hands it to Done.
func (j MeshJob) Process() {
	mesh := BuildMesh(j.Heights, j.HeightMultiplier, LODStep(j.LOD))
	if j.Done != nil {
		j.Done(MeshResult{Coord: j.Coord, LOD: j.LOD, Mesh: mesh})
	}
}

// WorkerPool runs jobs on a fixed set of goroutines fed by a bounded queue.
// Jobs are never cancelled: once queued they run to completion, even across Shutdown.
type WorkerPool struct {
	jobQueue chan Job
	workers  int
	wg       sync.WaitGroup

	mu       sync.RWMutex
	closed   bool
	inFlight atomic.Int64
}

// NewWorkerPool creates a pool and starts its workers
func NewWorkerPool(workers int, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	pool := &WorkerPool{
		jobQueue: make(chan Job, queueSize),
		workers:  workers,
	}

	for range workers {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

// SubmitJob queues a job without blocking.
// Returns false if the queue is full or the pool is shut down.
func (p *WorkerPool) SubmitJob(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.inFlight.Add(1)
	select {
	case p.jobQueue <- job:
		return true
	default:
		p.inFlight.Add(-1)
		return false // queue is full
	}
}

// SubmitJobBlocking waits for room in the queue. Returns false if the pool is shut down.
func (p *WorkerPool) SubmitJobBlocking(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.inFlight.Add(1)
	p.jobQueue <- job
	return true
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for job := range p.jobQueue {
		job.Process()
		p.inFlight.Add(-1)
	}
}

// Shutdown stops accepting jobs and waits for every queued job to finish.
// Safe to call more than once.
func (p *WorkerPool) Shutdown() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// QueueLength returns the number of jobs waiting for a worker
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}

// InFlight returns the number of accepted jobs that have not finished yet.
func (p *WorkerPool) InFlight() int {
	return int(p.inFlight.Load())
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int {
	return p.workers
}

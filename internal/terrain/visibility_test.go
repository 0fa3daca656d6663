package terrain

import (
	"errors"
	"testing"

	"world-explorer/internal/meshing"
	"world-explorer/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

type meshRequest struct {
	coord world.ChunkCoord
	lod   int
	cb    func(meshing.MeshResult)
}

type heightRequest struct {
	coord world.ChunkCoord
	cb    func(*world.MapChunk, error)
}

// fakeSource records requests instead of running them
type fakeSource struct {
	chunks  map[world.ChunkCoord]*world.MapChunk
	heights []heightRequest
	meshes  []meshRequest
	reject  bool
}

func newFakeSource(edge, n int) *fakeSource {
	src := &fakeSource{chunks: make(map[world.ChunkCoord]*world.MapChunk)}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			src.chunks[world.ChunkCoord{X: x, Y: y}] = testChunk(edge, x, y)
		}
	}
	return src
}

func testChunk(edge, x, y int) *world.MapChunk {
	g, _ := world.NewHeightGrid(edge, edge)
	return &world.MapChunk{Coord: world.ChunkCoord{X: x, Y: y}, Heights: g}
}

func (f *fakeSource) Chunk(coord world.ChunkCoord) (*world.MapChunk, bool) {
	c, ok := f.chunks[coord]
	return c, ok
}

func (f *fakeSource) RequestHeightData(coord world.ChunkCoord, cb func(*world.MapChunk, error)) bool {
	if f.reject {
		return false
	}
	f.heights = append(f.heights, heightRequest{coord, cb})
	return true
}

func (f *fakeSource) RequestMeshData(chunk *world.MapChunk, lod int, cb func(meshing.MeshResult)) bool {
	if f.reject {
		return false
	}
	f.meshes = append(f.meshes, meshRequest{chunk.Coord, lod, cb})
	return true
}

// chunks of 11 cells span 10 world units; LOD 0 up to 15, LOD 1 up to 30
func testLODs() []meshing.LODLevel {
	return []meshing.LODLevel{{Level: 0, MinViewDistance: 15}, {Level: 1, MinViewDistance: 30}}
}

func at(x, y float32) ViewState {
	return ViewState{Position: mgl32.Vec2{x, y}}
}

func TestRingOrder(t *testing.T) {
	c := world.ChunkCoord{X: 5, Y: -2}
	if got := ring(c, 0); len(got) != 1 || got[0] != c {
		t.Fatalf("ring 0 = %v", got)
	}
	for r := 1; r <= 4; r++ {
		got := ring(c, r)
		if len(got) != 8*r {
			t.Fatalf("ring %d has %d cells, want %d", r, len(got), 8*r)
		}
		seen := make(map[world.ChunkCoord]bool)
		for _, p := range got {
			dx, dy := p.X-c.X, p.Y-c.Y
			if max(abs(dx), abs(dy)) != r {
				t.Errorf("ring %d contains %v at distance %d", r, p, max(abs(dx), abs(dy)))
			}
			if seen[p] {
				t.Errorf("ring %d repeats %v", r, p)
			}
			seen[p] = true
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestVisibilityFirstUpdate(t *testing.T) {
	src := newFakeSource(11, 3)
	m := NewVisibilityManager(src, testLODs(), 11, false)

	if !m.Update(at(0, 0)) {
		t.Fatalf("first update did not refresh")
	}
	if got := len(m.Visible()); got != 9 {
		t.Fatalf("%d visible chunks, want 9", got)
	}
	if len(src.heights) != 0 {
		t.Errorf("stored chunks should not request height data")
	}
	if len(src.meshes) != 9 {
		t.Fatalf("%d mesh requests, want 9", len(src.meshes))
	}
	if src.meshes[0].coord != (world.ChunkCoord{}) {
		t.Errorf("first mesh request for %v, want the centre chunk", src.meshes[0].coord)
	}

	// (2,0) is 15 units away, (2,2) about 21
	near, _ := m.View(world.ChunkCoord{X: 2, Y: 0})
	far, _ := m.View(world.ChunkCoord{X: 2, Y: 2})
	if near.LODIndex != 0 || far.LODIndex != 1 {
		t.Errorf("LOD indexes = %d, %d; want 0, 1", near.LODIndex, far.LODIndex)
	}
	for _, r := range src.meshes {
		if r.coord == far.Coord && r.lod != 1 {
			t.Errorf("far chunk meshed at level %d", r.lod)
		}
	}
}

func TestVisibilityMoveThreshold(t *testing.T) {
	src := newFakeSource(11, 3)
	m := NewVisibilityManager(src, testLODs(), 11, false)
	m.Update(at(0, 0))
	requests := len(src.meshes)

	if m.Update(at(MoveThreshold/2, MoveThreshold/2)) {
		t.Errorf("small move triggered a refresh")
	}
	if !m.Update(at(100, 100)) {
		t.Fatalf("large move did not refresh")
	}
	if got := len(m.Visible()); got != 0 {
		t.Errorf("%d chunks visible from far away", got)
	}
	if v, _ := m.View(world.ChunkCoord{}); v.Visible {
		t.Errorf("chunk left visible after moving away")
	}
	if len(src.meshes) != requests {
		t.Errorf("moving away issued new mesh requests")
	}

	// coming back reuses the known views and does not repeat requests
	m.Update(at(0, 0))
	if len(m.Visible()) != 9 || len(src.meshes) != requests {
		t.Errorf("return: %d visible, %d requests", len(m.Visible()), len(src.meshes))
	}
}

func TestVisibilityMeshDelivery(t *testing.T) {
	src := newFakeSource(11, 1)
	m := NewVisibilityManager(src, testLODs(), 11, false)
	m.Update(at(0, 0))

	v, ok := m.View(world.ChunkCoord{})
	if !ok || v.Mesh() != nil {
		t.Fatalf("mesh present before delivery")
	}
	mesh := meshing.BuildMesh(v.Chunk.Heights, 1, 1)
	src.meshes[0].cb(meshing.MeshResult{Coord: v.Coord, Mesh: mesh})
	if v.Mesh() != mesh {
		t.Errorf("delivered mesh not attached to the view")
	}
}

func TestVisibilityRetriesRejectedRequests(t *testing.T) {
	src := newFakeSource(11, 1)
	src.reject = true
	m := NewVisibilityManager(src, testLODs(), 11, false)
	m.Update(at(0, 0))
	if len(m.Visible()) != 1 {
		t.Fatalf("chunk should be visible even without a mesh")
	}

	src.reject = false
	m.Update(at(50, 0))
	m.Update(at(0, 0))
	if len(src.meshes) != 1 {
		t.Errorf("rejected mesh request not retried: %d requests", len(src.meshes))
	}
}

func TestVisibilityEndless(t *testing.T) {
	src := &fakeSource{chunks: make(map[world.ChunkCoord]*world.MapChunk)}
	m := NewVisibilityManager(src, testLODs(), 11, true)
	m.Update(at(0, 0))

	if len(src.heights) == 0 || len(src.heights) > maxRequestsPerUpdate {
		t.Fatalf("%d height requests", len(src.heights))
	}
	if src.heights[0].coord != (world.ChunkCoord{}) {
		t.Errorf("first height request for %v, want the centre chunk", src.heights[0].coord)
	}
	if len(m.Visible()) != 0 {
		t.Errorf("chunks visible before their heights arrived")
	}

	// refreshing does not request pending chunks twice
	m.Update(at(20, 0))
	m.Update(at(0, 0))
	seen := make(map[world.ChunkCoord]bool)
	for _, r := range src.heights {
		if seen[r.coord] {
			t.Errorf("pending chunk %v requested again", r.coord)
		}
		seen[r.coord] = true
	}

	src.heights[0].cb(testChunk(11, 0, 0), nil)
	v, _ := m.View(world.ChunkCoord{})
	if !v.Visible || v.Chunk == nil {
		t.Fatalf("chunk not shown after height data arrived")
	}
	if len(src.meshes) != 1 || src.meshes[0].coord != (world.ChunkCoord{}) {
		t.Errorf("expected one mesh request for the delivered chunk, got %d", len(src.meshes))
	}

	boom := errors.New("boom")
	src.heights[1].cb(nil, boom)
	failed, _ := m.View(src.heights[1].coord)
	if !errors.Is(failed.Err(), boom) || failed.Visible {
		t.Errorf("failed chunk: err %v, visible %v", failed.Err(), failed.Visible)
	}
}

func TestVisibilityReset(t *testing.T) {
	src := &fakeSource{chunks: make(map[world.ChunkCoord]*world.MapChunk)}
	m := NewVisibilityManager(src, testLODs(), 11, true)
	m.Update(at(0, 0))
	stale := src.heights[0]

	m.Reset()
	if _, ok := m.View(world.ChunkCoord{}); ok {
		t.Fatalf("view survived Reset")
	}
	stale.cb(testChunk(11, 0, 0), nil)
	if len(m.Visible()) != 0 || len(src.meshes) != 0 {
		t.Errorf("stale callback revived a forgotten chunk")
	}

	if !m.Update(at(0, 0)) {
		t.Errorf("update after Reset did not refresh")
	}
}

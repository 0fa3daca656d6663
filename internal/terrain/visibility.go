package terrain

import (
	"math"

	"world-explorer/internal/meshing"
	"world-explorer/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// MoveThreshold is how far the viewer must move before visibility is recomputed.
const MoveThreshold = 10

// maxRequestsPerUpdate caps the background jobs one Update may start.
const maxRequestsPerUpdate = 64

// ViewState is the viewer position on the map plane (x right, y down), in cells.
type ViewState struct {
	Position mgl32.Vec2
}

// ChunkSource is what the visibility manager needs from the terrain service.
type ChunkSource interface {
	Chunk(coord world.ChunkCoord) (*world.MapChunk, bool)
	RequestHeightData(coord world.ChunkCoord, cb func(*world.MapChunk, error)) bool
	RequestMeshData(chunk *world.MapChunk, lod int, cb func(meshing.MeshResult)) bool
}

// ChunkView is the visibility state of one chunk.
type ChunkView struct {
	Coord    world.ChunkCoord
	Chunk    *world.MapChunk
	Visible  bool
	LODIndex int

	meshes          map[int]*meshing.MeshData // by LOD index
	meshRequested   map[int]bool
	heightRequested bool
	err             error
}

// Mesh returns the mesh for the current LOD, or nil while it is being built.
func (v *ChunkView) Mesh() *meshing.MeshData {
	return v.meshes[v.LODIndex]
}

// Err returns the error of a failed height request.
func (v *ChunkView) Err() error {
	return v.err
}

// VisibilityManager decides which chunks are visible from a viewer and at which
// level of detail, requesting missing data from its source. Callbacks arrive through
// the source's drain calls, so a manager must be used from a single goroutine.
type VisibilityManager struct {
	source    ChunkSource
	lods      []meshing.LODLevel
	maxView   float32
	chunkSpan float32 // world distance between neighbouring chunk centres
	endless   bool

	views   map[world.ChunkCoord]*ChunkView
	visible []world.ChunkCoord

	last    ViewState
	updated bool
}

// NewVisibilityManager creates a manager for chunks of edge cells per side. In endless
// mode missing chunks are requested from the source; otherwise only stored chunks show.
func NewVisibilityManager(source ChunkSource, lods []meshing.LODLevel, edge int, endless bool) *VisibilityManager {
	if len(lods) == 0 {
		lods = meshing.DefaultLODTable()
	}
	return &VisibilityManager{
		source:    source,
		lods:      lods,
		maxView:   lods[len(lods)-1].MinViewDistance,
		chunkSpan: float32(edge - 1),
		endless:   endless,
		views:     make(map[world.ChunkCoord]*ChunkView),
	}
}

// Update recomputes visibility if the viewer moved more than MoveThreshold since the
// last update, or on the first call. It reports whether anything was recomputed.
func (m *VisibilityManager) Update(view ViewState) bool {
	if m.updated && view.Position.Sub(m.last.Position).Len() <= MoveThreshold {
		return false
	}
	m.last = view
	m.updated = true
	m.refresh()
	return true
}

func (m *VisibilityManager) refresh() {
	for _, c := range m.visible {
		m.views[c].Visible = false
	}
	m.visible = m.visible[:0]

	centre := world.ChunkCoord{
		X: int(math.Round(float64(m.last.Position.X() / m.chunkSpan))),
		Y: int(math.Round(float64(m.last.Position.Y() / m.chunkSpan))),
	}
	radius := int(math.Round(float64(m.maxView / m.chunkSpan)))

	budget := maxRequestsPerUpdate
	// walk outward ring by ring so near chunks are requested first
	for r := 0; r <= radius; r++ {
		for _, coord := range ring(centre, r) {
			m.updateChunk(coord, &budget)
		}
	}
}

// ring returns the chunk coordinates at Chebyshev distance r from c.
func ring(c world.ChunkCoord, r int) []world.ChunkCoord {
	if r == 0 {
		return []world.ChunkCoord{c}
	}
	out := make([]world.ChunkCoord, 0, 8*r)
	x0, x1 := c.X-r, c.X+r
	y0, y1 := c.Y-r, c.Y+r
	for x := x0; x <= x1; x++ {
		out = append(out, world.ChunkCoord{X: x, Y: y0})
	}
	for y := y0 + 1; y <= y1-1; y++ {
		out = append(out, world.ChunkCoord{X: x1, Y: y})
	}
	for x := x1; x >= x0; x-- {
		out = append(out, world.ChunkCoord{X: x, Y: y1})
	}
	for y := y1 - 1; y >= y0+1; y-- {
		out = append(out, world.ChunkCoord{X: x0, Y: y})
	}
	return out
}

// boundsDistance is the distance from the viewer to the nearest point of the chunk.
func (m *VisibilityManager) boundsDistance(coord world.ChunkCoord) float32 {
	half := m.chunkSpan / 2
	cx := float32(coord.X) * m.chunkSpan
	cy := float32(coord.Y) * m.chunkSpan
	dx := max(abs32(m.last.Position.X()-cx)-half, 0)
	dy := max(abs32(m.last.Position.Y()-cy)-half, 0)
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// lodIndex picks the first LOD whose distance covers d.
func (m *VisibilityManager) lodIndex(d float32) int {
	idx := 0
	for i := 0; i < len(m.lods)-1; i++ {
		if d > m.lods[i].MinViewDistance {
			idx = i + 1
		} else {
			break
		}
	}
	return idx
}

func (m *VisibilityManager) updateChunk(coord world.ChunkCoord, budget *int) {
	d := m.boundsDistance(coord)
	if d > m.maxView {
		return
	}
	v := m.view(coord)
	if v == nil {
		return
	}
	if v.Chunk == nil {
		m.requestHeight(v, budget)
		return
	}
	m.show(v, d, budget)
}

// view returns the state for coord, creating it on first sight. Outside endless
// mode only stored chunks get a view.
func (m *VisibilityManager) view(coord world.ChunkCoord) *ChunkView {
	if v, ok := m.views[coord]; ok {
		return v
	}
	c, found := m.source.Chunk(coord)
	if !found && !m.endless {
		return nil
	}
	v := &ChunkView{
		Coord:         coord,
		Chunk:         c,
		meshes:        make(map[int]*meshing.MeshData),
		meshRequested: make(map[int]bool),
	}
	m.views[coord] = v
	return v
}

func (m *VisibilityManager) requestHeight(v *ChunkView, budget *int) {
	if v.heightRequested || v.err != nil || *budget <= 0 {
		return
	}
	ok := m.source.RequestHeightData(v.Coord, func(c *world.MapChunk, err error) {
		m.onHeightData(v, c, err)
	})
	if ok {
		v.heightRequested = true
		*budget--
	}
}

func (m *VisibilityManager) show(v *ChunkView, d float32, budget *int) {
	v.LODIndex = m.lodIndex(d)
	if !v.Visible {
		v.Visible = true
		m.visible = append(m.visible, v.Coord)
	}

	idx := v.LODIndex
	if v.meshes[idx] != nil || v.meshRequested[idx] || *budget <= 0 {
		return
	}
	ok := m.source.RequestMeshData(v.Chunk, m.lods[idx].Level, func(r meshing.MeshResult) {
		v.meshes[idx] = r.Mesh
	})
	if ok {
		v.meshRequested[idx] = true
		*budget--
	}
}

func (m *VisibilityManager) onHeightData(v *ChunkView, c *world.MapChunk, err error) {
	v.heightRequested = false
	if err != nil {
		v.err = err
		return
	}
	v.Chunk = c
	// the viewer may not move again, so place the chunk now
	if m.views[v.Coord] != v {
		return // forgotten by Reset
	}
	if d := m.boundsDistance(v.Coord); d <= m.maxView {
		budget := 1
		m.show(v, d, &budget)
	}
}

// Visible returns the coordinates of the chunks visible after the last update.
func (m *VisibilityManager) Visible() []world.ChunkCoord {
	out := make([]world.ChunkCoord, len(m.visible))
	copy(out, m.visible)
	return out
}

// View returns the state of a chunk the manager has seen.
func (m *VisibilityManager) View(coord world.ChunkCoord) (*ChunkView, bool) {
	v, ok := m.views[coord]
	return v, ok
}

// Reset forgets every chunk; the next Update recomputes from scratch.
func (m *VisibilityManager) Reset() {
	clear(m.views)
	m.visible = m.visible[:0]
	m.updated = false
}

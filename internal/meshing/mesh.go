package meshing

import (
	"world-explorer/internal/profiling"
	"world-explorer/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// MeshData is a renderer-agnostic triangle mesh for one chunk at one LOD.
type MeshData struct {
	Vertices  []mgl32.Vec3
	Triangles []uint32
	UVs       []mgl32.Vec2
}

// TriangleCount returns the number of triangles in the mesh.
func (m *MeshData) TriangleCount() int {
	return len(m.Triangles) / 3
}

func (m *MeshData) addTriangle(a, b, c uint32) {
	m.Triangles = append(m.Triangles, a, b, c)
}

// LODLevel pairs a level of detail with the view distance it starts at.
type LODLevel struct {
	Level           int
	MinViewDistance float32
}

// DefaultLODTable is the detail ladder used when none is configured. The last
// entry's distance is the furthest a chunk is shown.
func DefaultLODTable() []LODLevel {
	return []LODLevel{
		{Level: 0, MinViewDistance: 200},
		{Level: 2, MinViewDistance: 400},
		{Level: 4, MinViewDistance: 600},
	}
}

// LODStep converts a level of detail to a sampling step: 1 for level 0, level*2 above.
func LODStep(level int) int {
	if level <= 0 {
		return 1
	}
	return level * 2
}

// BuildMesh samples every step-th cell of grid into a vertex grid centred on the
// origin. Vertex height is cell height times heightMultiplier. Steps below 1 are
// treated as 1.
func BuildMesh(grid *world.HeightGrid, heightMultiplier float32, step int) *MeshData {
	defer profiling.Track("meshing.BuildMesh")()

	if step < 1 {
		step = 1
	}
	w, h := grid.Width, grid.Height
	perLine := (w-1)/step + 1
	perColumn := (h-1)/step + 1

	topLeftX := float32(w-1) / -2
	topLeftZ := float32(h-1) / 2

	mesh := &MeshData{
		Vertices:  make([]mgl32.Vec3, 0, perLine*perColumn),
		UVs:       make([]mgl32.Vec2, 0, perLine*perColumn),
		Triangles: make([]uint32, 0, (perLine-1)*(perColumn-1)*6),
	}

	n := uint32(perLine)
	var v uint32
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			mesh.Vertices = append(mesh.Vertices, mgl32.Vec3{
				topLeftX + float32(x),
				grid.At(x, y) * heightMultiplier,
				topLeftZ - float32(y),
			})
			mesh.UVs = append(mesh.UVs, mgl32.Vec2{float32(x) / float32(w), float32(y) / float32(h)})

			// no quad beyond the last sampled row or column
			if x < w-step && y < h-step {
				mesh.addTriangle(v, v+n+1, v+n)
				mesh.addTriangle(v+n+1, v, v+1)
			}
			v++
		}
	}
	return mesh
}

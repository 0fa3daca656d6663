package meshing

import (
	"testing"

	"world-explorer/internal/world"
)

func rampGrid(t testing.TB, w, h int) *world.HeightGrid {
	t.Helper()
	g, err := world.NewHeightGrid(w, h)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, float32(x+y)/float32(w+h))
		}
	}
	return g
}

func TestLODStep(t *testing.T) {
	cases := map[int]int{-1: 1, 0: 1, 1: 2, 2: 4, 4: 8, 6: 12}
	for lod, want := range cases {
		if got := LODStep(lod); got != want {
			t.Errorf("LODStep(%d) = %d, want %d", lod, got, want)
		}
	}
}

func TestBuildMeshCounts(t *testing.T) {
	cases := []struct {
		w, h, step int
	}{
		{241, 241, 1},
		{241, 241, 2},
		{241, 241, 8},
		{240, 240, 4},
		{10, 6, 3},
		{2, 2, 1},
	}
	for _, tc := range cases {
		m := BuildMesh(rampGrid(t, tc.w, tc.h), 1, tc.step)
		nx := (tc.w-1)/tc.step + 1
		ny := (tc.h-1)/tc.step + 1
		if len(m.Vertices) != nx*ny {
			t.Errorf("%dx%d step %d: %d vertices, want %d", tc.w, tc.h, tc.step, len(m.Vertices), nx*ny)
		}
		if len(m.UVs) != len(m.Vertices) {
			t.Errorf("%dx%d step %d: %d uvs for %d vertices", tc.w, tc.h, tc.step, len(m.UVs), len(m.Vertices))
		}
		if want := (nx - 1) * (ny - 1) * 2; m.TriangleCount() != want {
			t.Errorf("%dx%d step %d: %d triangles, want %d", tc.w, tc.h, tc.step, m.TriangleCount(), want)
		}
		for _, idx := range m.Triangles {
			if int(idx) >= len(m.Vertices) {
				t.Fatalf("%dx%d step %d: triangle index %d out of range", tc.w, tc.h, tc.step, idx)
			}
		}
	}
}

func TestBuildMeshStepBelowOne(t *testing.T) {
	g := rampGrid(t, 5, 5)
	a := BuildMesh(g, 1, 0)
	b := BuildMesh(g, 1, 1)
	if len(a.Vertices) != len(b.Vertices) || len(a.Triangles) != len(b.Triangles) {
		t.Errorf("step 0 should behave like step 1")
	}
}

func TestBuildMeshGeometry(t *testing.T) {
	g := rampGrid(t, 3, 3)
	g.Set(2, 2, 0.5)
	m := BuildMesh(g, 10, 1)

	// centred on the origin, z decreasing with y
	if first := m.Vertices[0]; first.X() != -1 || first.Z() != 1 {
		t.Errorf("first vertex = %v, want x=-1 z=1", first)
	}
	last := m.Vertices[len(m.Vertices)-1]
	if last.X() != 1 || last.Z() != -1 || last.Y() != 5 {
		t.Errorf("last vertex = %v, want (1,5,-1)", last)
	}
	if uv := m.UVs[4]; uv.X() != float32(1)/3 || uv.Y() != float32(1)/3 {
		t.Errorf("centre uv = %v, want (1/3,1/3)", uv)
	}

	// first quad: (v, v+n+1, v+n) and (v+n+1, v, v+1) with n=3
	want := []uint32{0, 4, 3, 4, 0, 1}
	for i, idx := range want {
		if m.Triangles[i] != idx {
			t.Fatalf("triangles[%d] = %d, want %d (%v)", i, m.Triangles[i], idx, m.Triangles[:6])
		}
	}
}

func TestDefaultLODTableAscending(t *testing.T) {
	table := DefaultLODTable()
	for i := 1; i < len(table); i++ {
		if table[i].MinViewDistance <= table[i-1].MinViewDistance {
			t.Errorf("LOD table not ascending at %d", i)
		}
	}
}

func BenchmarkBuildMesh(b *testing.B) {
	g := rampGrid(b, 241, 241)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildMesh(g, 20, 1)
	}
}

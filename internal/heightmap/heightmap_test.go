package heightmap

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"world-explorer/internal/world"
)

func rawMap(w, h int32, lo, hi float32, values ...float32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, w)
	binary.Write(&buf, binary.LittleEndian, h)
	binary.Write(&buf, binary.LittleEndian, lo)
	binary.Write(&buf, binary.LittleEndian, hi)
	binary.Write(&buf, binary.LittleEndian, values)
	return buf.Bytes()
}

func TestEncodeLayout(t *testing.T) {
	g, _ := world.NewHeightGrid(2, 1)
	g.Set(0, 0, 0.25)
	g.Set(1, 0, 0.75)

	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		t.Fatal(err)
	}
	want := rawMap(2, 1, 0, 1, 0.25, 0.75)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("encoded bytes\n got %x\nwant %x", buf.Bytes(), want)
	}
}

// TestFlatMapRoundTrip writes a constant map with header [0,1] and reads it back unchanged
func TestFlatMapRoundTrip(t *testing.T) {
	flat, err := world.NewFlatGenerator(world.FlatValue).Generate(context.Background(), 241, 241)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "flat"+Ext)
	if err := WriteFile(path, flat); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 241 || got.Height != 241 || got.Min != 0 || got.Max != 1 {
		t.Fatalf("header = %dx%d [%f,%f]", got.Width, got.Height, got.Min, got.Max)
	}
	if got.Name != "flat" {
		t.Errorf("name = %q, want flat", got.Name)
	}
	for i, v := range got.Values {
		if v != float32(world.FlatValue) {
			t.Fatalf("cell %d = %f, want %f", i, v, world.FlatValue)
		}
	}
}

func TestDecodeClampsAndSwaps(t *testing.T) {
	data := rawMap(3, 1, 1, -1, -5, 0.5, 7)
	g, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if g.Min != -1 || g.Max != 1 {
		t.Errorf("range = [%f,%f], want [-1,1]", g.Min, g.Max)
	}
	want := []float32{-1, 0.5, 1}
	for i, v := range want {
		if g.Values[i] != v {
			t.Errorf("value %d = %f, want %f", i, g.Values[i], v)
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	cases := map[string][]byte{
		"empty":          nil,
		"short header":   rawMap(2, 2, 0, 1)[:10],
		"zero width":     rawMap(0, 2, 0, 1),
		"negative size":  rawMap(-3, 2, 0, 1, 1, 2, 3),
		"truncated data": rawMap(2, 2, 0, 1, 0.1, 0.2, 0.3),
		"huge header":    rawMap(math.MaxInt32, math.MaxInt32, 0, 1),
		"NaN min":        rawMap(2, 1, float32(math.NaN()), 1, 0.25, 0.5),
		"NaN max":        rawMap(2, 1, 0, float32(math.NaN()), 0.25, 0.5),
		"infinite max":   rawMap(2, 1, 0, float32(math.Inf(1)), 0.25, 0.5),
		"infinite min":   rawMap(2, 1, float32(math.Inf(-1)), 1, 0.25, 0.5),
		"NaN cell":       rawMap(2, 1, 0, 1, 0.25, float32(math.NaN())),
	}
	for name, data := range cases {
		if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, ErrCorruptHeightmap) {
			t.Errorf("%s: expected ErrCorruptHeightmap, got %v", name, err)
		}
	}
}

func TestReadOrFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad"+Ext)
	if err := os.WriteFile(bad, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{bad, filepath.Join(dir, "missing"+Ext)} {
		g, err := ReadOrFailure(path)
		if err == nil {
			t.Fatalf("%s: expected an error", path)
		}
		if g.Width != 1 || g.Height != 1 || g.Values[0] != FailureValue {
			t.Errorf("%s: expected the 1x1 failure grid, got %dx%d", path, g.Width, g.Height)
		}
	}
	if _, err := ReadOrFailure(bad); !errors.Is(err, ErrCorruptHeightmap) {
		t.Errorf("corrupt file should surface ErrCorruptHeightmap, got %v", err)
	}
}

func TestEncodeRejectsBadGrid(t *testing.T) {
	g := &world.HeightGrid{Width: 2, Height: 2, Values: make([]float32, 3)}
	if err := Encode(&bytes.Buffer{}, g); !errors.Is(err, world.ErrInvalidDimensions) {
		t.Errorf("expected ErrInvalidDimensions, got %v", err)
	}
}

func TestResolverLocal(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, "")
	if r.CacheDir != filepath.Join(dir, ".cache") {
		t.Errorf("cache dir = %s", r.CacheDir)
	}

	path, err := r.Resolve(context.Background(), "alps")
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "alps.hm") {
		t.Errorf("path = %s", path)
	}
	if r.Path("alps.hm") != path {
		t.Errorf("names with the extension should resolve to the same file")
	}
	if _, err := r.Resolve(context.Background(), ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestResolverRemoteUsesCache(t *testing.T) {
	r := NewResolver(t.TempDir(), t.TempDir())
	src := "https://example.invalid/maps/alps.hm"
	cached := r.cachePath(src)
	if err := os.WriteFile(cached, rawMap(1, 1, 0, 1, 0.5), 0o644); err != nil {
		t.Fatal(err)
	}
	path, err := r.Resolve(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if path != cached {
		t.Errorf("path = %s, want cached %s", path, cached)
	}
	if r.cachePath(src) != r.cachePath(src) || r.cachePath(src) == r.cachePath(src+"x") {
		t.Errorf("cache paths should be stable and distinct")
	}
}

func TestIsRemote(t *testing.T) {
	cases := map[string]bool{
		"alps":                     false,
		"maps/alps.hm":             false,
		"https://host/alps.hm":     true,
		"s3::https://bucket/alps":  true,
		"git::https://host/repo//": true,
	}
	for name, want := range cases {
		if IsRemote(name) != want {
			t.Errorf("IsRemote(%q) = %v, want %v", name, !want, want)
		}
	}
}

func TestResolverList(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, "")
	g, _ := world.NewHeightGrid(1, 1)
	for _, n := range []string{"b", "a"} {
		if err := WriteFile(r.Path(n), g); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	names, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("List = %v, want [a b]", names)
	}

	empty := NewResolver(filepath.Join(dir, "nope"), "")
	if names, err := empty.List(); err != nil || len(names) != 0 {
		t.Errorf("missing dir: %v, %v", names, err)
	}
}

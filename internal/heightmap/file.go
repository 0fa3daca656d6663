package heightmap

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"world-explorer/internal/world"
)

// Ext is the file extension of persisted height maps.
const Ext = ".hm"

// FailureValue fills the grid returned by ReadOrFailure when a file cannot be read.
const FailureValue = -1

// FailureGrid returns the 1x1 placeholder grid handed out for unreadable maps.
func FailureGrid() *world.HeightGrid {
	g, _ := world.NewHeightGrid(1, 1)
	g.Name = "failure"
	g.Min, g.Max = FailureValue, FailureValue
	g.Fill(FailureValue)
	return g
}

// WriteFile writes g to path, creating parent directories. The file is written to a
// temporary name first and renamed into place.
func WriteFile(path string, g *world.HeightGrid) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create map dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp map file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := Encode(bw, g); err != nil {
		tmp.Close()
		return fmt.Errorf("write map %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush map %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close map %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename map %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes the map at path. The grid is named after the file.
func ReadFile(path string) (*world.HeightGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	g, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	g.Name = strings.TrimSuffix(filepath.Base(path), Ext)
	return g, nil
}

// ReadOrFailure is ReadFile for callers that always need a grid: on error it
// returns FailureGrid together with the error.
func ReadOrFailure(path string) (*world.HeightGrid, error) {
	g, err := ReadFile(path)
	if err != nil {
		return FailureGrid(), err
	}
	return g, nil
}

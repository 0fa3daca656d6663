package world

import "image/color"

// Biome is one elevation band of the colour ramp.
type Biome struct {
	Name      string
	MinHeight float32 // band starts at this elevation (inclusive)
	Color     color.RGBA
}

// BiomeTable is a list of bands ordered by ascending MinHeight.
type BiomeTable []Biome

// DefaultBiomes returns the standard seven-band ramp for [0,1]-ish heights.
func DefaultBiomes() BiomeTable {
	return BiomeTable{
		{Name: "Deep Water", MinHeight: 0.0, Color: color.RGBA{R: 22, G: 52, B: 120, A: 255}},
		{Name: "Shallow Water", MinHeight: 0.3, Color: color.RGBA{R: 52, G: 98, B: 180, A: 255}},
		{Name: "Sand", MinHeight: 0.4, Color: color.RGBA{R: 210, G: 200, B: 130, A: 255}},
		{Name: "Grass", MinHeight: 0.45, Color: color.RGBA{R: 86, G: 152, B: 33, A: 255}},
		{Name: "Forest", MinHeight: 0.6, Color: color.RGBA{R: 62, G: 106, B: 26, A: 255}},
		{Name: "Rock", MinHeight: 0.75, Color: color.RGBA{R: 92, G: 76, B: 68, A: 255}},
		{Name: "Snow", MinHeight: 0.9, Color: color.RGBA{R: 250, G: 250, B: 250, A: 255}},
	}
}

// Classify returns the last biome whose MinHeight is <= h. Heights below every band
// fall back to the first biome; an empty table yields the zero Biome.
func (t BiomeTable) Classify(h float32) Biome {
	if len(t) == 0 {
		return Biome{}
	}
	picked := t[0]
	for _, b := range t {
		if b.MinHeight <= h {
			picked = b
		}
	}
	return picked
}

// ColorGrid is a row-major colour map matching a HeightGrid's layout.
type ColorGrid struct {
	Width  int
	Height int
	Pixels []color.RGBA
}

// At returns the colour at (x, y), or transparent black out of range.
func (c *ColorGrid) At(x, y int) color.RGBA {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return color.RGBA{}
	}
	return c.Pixels[y*c.Width+x]
}

// Colorize classifies every cell of grid.
func (t BiomeTable) Colorize(grid *HeightGrid) *ColorGrid {
	out := &ColorGrid{
		Width:  grid.Width,
		Height: grid.Height,
		Pixels: make([]color.RGBA, len(grid.Values)),
	}
	for i, h := range grid.Values {
		out.Pixels[i] = t.Classify(h).Color
	}
	return out
}

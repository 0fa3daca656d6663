// Package preview turns height grids and their colour maps into images.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"world-explorer/internal/world"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

// ErrUnknownFormat is returned for output paths with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown image format")

// Format is an output image encoding.
type Format int

const (
	PNG Format = iota
	BMP
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case BMP:
		return "bmp"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	default:
		return 0, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// ColorImage copies a colour map into an RGBA image.
func ColorImage(cg *world.ColorGrid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cg.Width, cg.Height))
	for y := 0; y < cg.Height; y++ {
		for x := 0; x < cg.Width; x++ {
			img.SetRGBA(x, y, cg.At(x, y))
		}
	}
	return img
}

// HeightImage renders g as grayscale, black at the header minimum and white at the maximum.
func HeightImage(g *world.HeightGrid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	span := g.Max - g.Min
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			var t float32
			if span > 0 {
				t = (g.At(x, y) - g.Min) / span
			}
			t = min(max(t, 0), 1)
			img.SetGray(x, y, color.Gray{Y: uint8(t*255 + 0.5)})
		}
	}
	return img
}

// Mosaic lays chunk colour maps out on one canvas by chunk coordinate. Chunks
// must all have the same size; the canvas starts at the smallest coordinate.
func Mosaic(chunks []*world.MapChunk) *image.RGBA {
	if len(chunks) == 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	w, h := chunks[0].Colors.Width, chunks[0].Colors.Height
	lo, hi := chunks[0].Coord, chunks[0].Coord
	for _, c := range chunks[1:] {
		lo.X, lo.Y = min(lo.X, c.Coord.X), min(lo.Y, c.Coord.Y)
		hi.X, hi.Y = max(hi.X, c.Coord.X), max(hi.Y, c.Coord.Y)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, (hi.X-lo.X+1)*w, (hi.Y-lo.Y+1)*h))
	for _, c := range chunks {
		at := image.Pt((c.Coord.X-lo.X)*w, (c.Coord.Y-lo.Y)*h)
		tile := ColorImage(c.Colors)
		xdraw.Draw(canvas, tile.Bounds().Add(at), tile, image.Point{}, xdraw.Src)
	}
	return canvas
}

// Scale enlarges src by factor. Smooth scaling uses Catmull-Rom, otherwise
// nearest neighbour keeps biome borders crisp.
func Scale(src image.Image, factor int, smooth bool) image.Image {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	var scaler xdraw.Interpolator = xdraw.NearestNeighbor
	if smooth {
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("format %d: %w", f, ErrUnknownFormat)
	}
}

// WriteFile encodes img to path, choosing the format from the extension.
func WriteFile(path string, img image.Image) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return fmt.Errorf("encode %s preview: %w", f, err)
	}
	return out.Close()
}

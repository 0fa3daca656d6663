package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// NoiseKind selects the coherent-noise primitive behind a NoiseField.
type NoiseKind int

const (
	// NoisePerlin is smooth gradient noise, used for base terrain.
	NoisePerlin NoiseKind = iota
	// NoiseRidged is ridged multifractal noise, used for mountain ridges.
	NoiseRidged
	// NoiseCellular is Voronoi noise with a constant value per cell (plate-like regions).
	NoiseCellular
	// NoiseValue is hashed lattice value noise summed over octaves.
	NoiseValue
)

func (k NoiseKind) String() string {
	switch k {
	case NoisePerlin:
		return "perlin"
	case NoiseRidged:
		return "ridged"
	case NoiseCellular:
		return "cellular"
	case NoiseValue:
		return "value"
	default:
		return "unknown"
	}
}

// ErrUnknownNoise is returned by ParseNoiseKind for an unrecognised name.
var ErrUnknownNoise = errors.New("unknown noise kind")

// ParseNoiseKind returns the kind whose String form is name.
func ParseNoiseKind(name string) (NoiseKind, error) {
	for _, k := range []NoiseKind{NoisePerlin, NoiseRidged, NoiseCellular, NoiseValue} {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownNoise)
}

// NoiseParams configures a NoiseField. Identical params always produce identical samples.
type NoiseParams struct {
	Kind        NoiseKind
	Seed        int64
	Frequency   float64
	Lacunarity  float64
	Persistence float64
	Octaves     int
}

// NoiseField samples a scalar at a 2D coordinate. Output is roughly in [-1, 1].
type NoiseField interface {
	Sample(x, y float64) float64
}

func (p NoiseParams) normalized() NoiseParams {
	if p.Frequency == 0 {
		p.Frequency = 1
	}
	if p.Lacunarity <= 0 {
		p.Lacunarity = 2
	}
	if p.Persistence <= 0 {
		p.Persistence = 0.5
	}
	if p.Octaves < 1 {
		p.Octaves = 1
	}
	return p
}

// NewNoiseField builds the field described by p.
func NewNoiseField(p NoiseParams) NoiseField {
	p = p.normalized()
	switch p.Kind {
	case NoiseRidged:
		return newRidgedField(p)
	case NoiseCellular:
		return &cellularField{seed: p.Seed, frequency: p.Frequency}
	case NoiseValue:
		return &valueField{p: p}
	default:
		return &perlinField{
			// go-perlin divides each octave by alpha, so alpha is the inverse persistence.
			noise:     perlin.NewPerlin(1/p.Persistence, p.Lacunarity, int32(p.Octaves), p.Seed),
			frequency: p.Frequency,
		}
	}
}

type perlinField struct {
	noise     *perlin.Perlin
	frequency float64
}

func (f *perlinField) Sample(x, y float64) float64 {
	return f.noise.Noise2D(x*f.frequency, y*f.frequency)
}

const (
	ridgedOffset = 1.0
	ridgedGain   = 2.0
)

type ridgedField struct {
	noise     opensimplex.Noise
	p         NoiseParams
	spectral  []float64
	octaveOff []float64
}

func newRidgedField(p NoiseParams) *ridgedField {
	f := &ridgedField{
		noise:     opensimplex.New(p.Seed),
		p:         p,
		spectral:  make([]float64, p.Octaves),
		octaveOff: make([]float64, p.Octaves),
	}
	freq := 1.0
	for i := range p.Octaves {
		f.spectral[i] = 1 / freq
		freq *= p.Lacunarity
		// shift each octave so they do not sample the same lattice
		f.octaveOff[i] = float64(hash2(int64(i), 0, p.Seed)&0xFFFF) / 64
	}
	return f
}

func (f *ridgedField) Sample(x, y float64) float64 {
	x *= f.p.Frequency
	y *= f.p.Frequency

	value := 0.0
	weight := 1.0
	for i := range f.p.Octaves {
		off := f.octaveOff[i]
		signal := ridgedOffset - math.Abs(f.noise.Eval2(x+off, y+off))
		signal *= signal
		signal *= weight

		weight = signal * ridgedGain
		if weight > 1 {
			weight = 1
		} else if weight < 0 {
			weight = 0
		}

		value += signal * f.spectral[i]
		x *= f.p.Lacunarity
		y *= f.p.Lacunarity
	}
	return value*1.25 - 1
}

type cellularField struct {
	seed      int64
	frequency float64
}

// Sample returns the value of the cell owning the nearest jittered feature point.
func (f *cellularField) Sample(x, y float64) float64 {
	x *= f.frequency
	y *= f.frequency
	ix := int64(math.Floor(x))
	iy := int64(math.Floor(y))

	best := math.MaxFloat64
	var bestX, bestY int64
	for dy := int64(-1); dy <= 1; dy++ {
		for dx := int64(-1); dx <= 1; dx++ {
			cx, cy := ix+dx, iy+dy
			px := float64(cx) + latticeValue(cx, cy, f.seed)
			py := float64(cy) + latticeValue(cx, cy, f.seed+1)
			d := (px-x)*(px-x) + (py-y)*(py-y)
			if d < best {
				best = d
				bestX, bestY = cx, cy
			}
		}
	}
	return latticeValue(bestX, bestY, f.seed+2)*2 - 1
}

type valueField struct {
	p NoiseParams
}

// Sample sums octaves of smoothed lattice noise, each octave reseeded, and maps
// the weighted mean from [0,1] to [-1,1].
func (f *valueField) Sample(x, y float64) float64 {
	x *= f.p.Frequency
	y *= f.p.Frequency

	var sum, norm float64
	amp := 1.0
	for i := range f.p.Octaves {
		sum += f.lattice(x, y, f.p.Seed+int64(i)*131) * amp
		norm += amp
		amp *= f.p.Persistence
		x *= f.p.Lacunarity
		y *= f.p.Lacunarity
	}
	return sum/norm*2 - 1
}

// lattice blends the hashed values of the four lattice corners around (x, y).
// The result is in [0,1].
func (f *valueField) lattice(x, y float64, seed int64) float64 {
	fx, fy := math.Floor(x), math.Floor(y)
	ix, iy := int64(fx), int64(fy)
	tx, ty := smootherstep(x-fx), smootherstep(y-fy)

	top := mix(latticeValue(ix, iy, seed), latticeValue(ix+1, iy, seed), tx)
	bottom := mix(latticeValue(ix, iy+1, seed), latticeValue(ix+1, iy+1, seed), tx)
	return mix(top, bottom, ty)
}

// smootherstep is 6t^5 - 15t^4 + 10t^3.
func smootherstep(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func mix(a, b, t float64) float64 {
	return a + t*(b-a)
}

func hash2(x int64, z int64, seed int64) uint64 {
	// SplitMix64 style integer hash, stable across runs for same inputs
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	v = v ^ (v >> 31)
	return v
}

// latticeValue maps a lattice point to [0,1].
func latticeValue(x int64, z int64, seed int64) float64 {
	h := hash2(x, z, seed)
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

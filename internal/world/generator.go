package world

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrUnknownStrategy is returned by NewStrategy for an unrecognised name.
var ErrUnknownStrategy = errors.New("unknown synthesis strategy")

// FlatValue is the elevation written by the flat strategy.
const FlatValue = 0.7

// Generator synthesises height grids. GenerateRegion samples the w x h window whose
// top-left cell sits at world cell (x0, y0), so neighbouring regions line up.
type Generator interface {
	Generate(ctx context.Context, width, height int) (*HeightGrid, error)
	GenerateRegion(ctx context.Context, x0, y0, width, height int) (*HeightGrid, error)
}

// NewStrategy returns the generator registered under name.
func NewStrategy(name string, seed int64) (Generator, error) {
	switch name {
	case "flat":
		return NewFlatGenerator(FlatValue), nil
	case "noise", "perlin":
		return NewNoiseGenerator(seed), nil
	case "tectonic":
		return NewTectonicGenerator(seed, DefaultTectonicConfig()), nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownStrategy)
	}
}

// FlatGenerator writes a constant elevation everywhere.
type FlatGenerator struct {
	Value float32
}

// NewFlatGenerator creates a flat generator at the given elevation.
func NewFlatGenerator(value float32) *FlatGenerator {
	return &FlatGenerator{Value: value}
}

func (g *FlatGenerator) Generate(ctx context.Context, width, height int) (*HeightGrid, error) {
	return g.GenerateRegion(ctx, 0, 0, width, height)
}

func (g *FlatGenerator) GenerateRegion(_ context.Context, _, _, width, height int) (*HeightGrid, error) {
	grid, err := NewHeightGrid(width, height)
	if err != nil {
		return nil, err
	}
	grid.Fill(g.Value)
	return grid, nil
}

// NoiseGenerator writes raw Perlin noise.
type NoiseGenerator struct {
	field NoiseField
}

// DetailNoise returns the Perlin settings shared by the pure-noise strategy and
// the tectonic detail layer.
func DetailNoise(seed int64) NoiseParams {
	return NoiseParams{
		Kind:        NoisePerlin,
		Seed:        seed,
		Frequency:   0.006,
		Lacunarity:  5.5,
		Persistence: 0.15,
		Octaves:     6,
	}
}

// NewNoiseGenerator creates a pure-noise generator.
func NewNoiseGenerator(seed int64) *NoiseGenerator {
	return NewNoiseGeneratorWith(DetailNoise(seed))
}

// NewNoiseGeneratorWith creates a pure-noise generator over an arbitrary field.
func NewNoiseGeneratorWith(p NoiseParams) *NoiseGenerator {
	return &NoiseGenerator{field: NewNoiseField(p)}
}

func (g *NoiseGenerator) Generate(ctx context.Context, width, height int) (*HeightGrid, error) {
	return g.GenerateRegion(ctx, 0, 0, width, height)
}

func (g *NoiseGenerator) GenerateRegion(ctx context.Context, x0, y0, width, height int) (*HeightGrid, error) {
	grid, err := NewHeightGrid(width, height)
	if err != nil {
		return nil, err
	}
	err = synthesize(ctx, grid, x0, y0, func(x, y float64) float32 {
		return float32(g.field.Sample(x, y))
	})
	if err != nil {
		return nil, err
	}
	return grid, nil
}

// TectonicConfig tunes the tectonic strategy.
type TectonicConfig struct {
	Ridged      NoiseParams
	Detail      NoiseParams
	Base        NoiseParams
	Lithosphere LithosphereConfig
	WeightRange float64
	BaseCoeff   float64
	Scale       float64
	// ExtentW and ExtentH fix the box faults are grown in for GenerateRegion.
	// Zero means the requested region's own size.
	ExtentW, ExtentH int
}

// DefaultTectonicConfig returns the tuned constants of the tectonic strategy.
// Seeds are filled in by NewTectonicGenerator.
func DefaultTectonicConfig() TectonicConfig {
	return TectonicConfig{
		Ridged: NoiseParams{
			Kind:       NoiseRidged,
			Frequency:  0.01,
			Lacunarity: 2,
			Octaves:    4,
		},
		Detail: DetailNoise(0),
		Base: NoiseParams{
			Kind:        NoisePerlin,
			Frequency:   0.001,
			Lacunarity:  2,
			Persistence: 0.05,
			Octaves:     6,
		},
		Lithosphere: DefaultLithosphereConfig(),
		WeightRange: DefaultWeightRange,
		BaseCoeff:   0.9,
		Scale:       1.8,
	}
}

// TectonicGenerator blends ridged noise near fault lines into Perlin base terrain.
type TectonicGenerator struct {
	cfg       TectonicConfig
	faultSeed int64

	ridged NoiseField
	detail NoiseField
	base   NoiseField

	mu     sync.Mutex
	plates map[[2]int]*Lithosphere
}

// NewTectonicGenerator derives an independent seed for every layer from seed.
func NewTectonicGenerator(seed int64, cfg TectonicConfig) *TectonicGenerator {
	rng := rand.New(rand.NewSource(seed))
	cfg.Ridged.Seed = rng.Int63()
	cfg.Detail.Seed = rng.Int63()
	cfg.Base.Seed = rng.Int63()
	return &TectonicGenerator{
		cfg:       cfg,
		faultSeed: rng.Int63(),
		ridged:    NewNoiseField(cfg.Ridged),
		detail:    NewNoiseField(cfg.Detail),
		base:      NewNoiseField(cfg.Base),
		plates:    make(map[[2]int]*Lithosphere),
	}
}

// Lithosphere returns the faults grown for a width x height map, growing them on first use.
func (g *TectonicGenerator) Lithosphere(width, height int) (*Lithosphere, error) {
	key := [2]int{width, height}
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.plates[key]; ok {
		return l, nil
	}
	l, err := NewLithosphere(width, height, g.faultSeed, g.cfg.Lithosphere)
	if err != nil {
		return nil, err
	}
	g.plates[key] = l
	return l, nil
}

func (g *TectonicGenerator) Generate(ctx context.Context, width, height int) (*HeightGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("tectonic map %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	litho, err := g.Lithosphere(width, height)
	if err != nil {
		return nil, err
	}
	return g.sample(ctx, litho, 0, 0, width, height)
}

func (g *TectonicGenerator) GenerateRegion(ctx context.Context, x0, y0, width, height int) (*HeightGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("tectonic region %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	ew, eh := g.cfg.ExtentW, g.cfg.ExtentH
	if ew <= 0 || eh <= 0 {
		ew, eh = width, height
	}
	litho, err := g.Lithosphere(ew, eh)
	if err != nil {
		return nil, err
	}
	return g.sample(ctx, litho, x0, y0, width, height)
}

func (g *TectonicGenerator) sample(ctx context.Context, litho *Lithosphere, x0, y0, width, height int) (*HeightGrid, error) {
	grid, err := NewHeightGrid(width, height)
	if err != nil {
		return nil, err
	}
	err = synthesize(ctx, grid, x0, y0, func(x, y float64) float32 {
		return float32(g.elevation(litho, x, y))
	})
	if err != nil {
		return nil, err
	}
	return grid, nil
}

// elevation = (ridged*weight + detail*baseCoeff + base) * scale, with every layer
// remapped from [-1,1] to [0,1].
func (g *TectonicGenerator) elevation(litho *Lithosphere, x, y float64) float64 {
	ridged := g.ridged.Sample(x, y)/2 + 0.5
	detail := g.detail.Sample(x, y)/2 + 0.5
	base := g.base.Sample(x, y)/2 + 0.5
	weight := litho.Weight(x, y, g.cfg.WeightRange)
	return (ridged*weight + detail*g.cfg.BaseCoeff + base) * g.cfg.Scale
}

// synthesize evaluates fn for every cell, splitting rows into bands that run in parallel.
// fn receives world coordinates.
func synthesize(ctx context.Context, grid *HeightGrid, x0, y0 int, fn func(x, y float64) float32) error {
	workers := max(runtime.NumCPU(), 1)
	band := (grid.Height + workers - 1) / workers

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for start := 0; start < grid.Height; start += band {
		end := min(start+band, grid.Height)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for y := start; y < end; y++ {
				row := grid.Values[y*grid.Width : (y+1)*grid.Width]
				for x := range row {
					row[x] = fn(float64(x0+x), float64(y0+y))
				}
			}
			return nil
		})
	}
	return eg.Wait()
}

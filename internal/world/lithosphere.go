package world

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Edge identifies the map border a fault starts from.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeTop
	EdgeRight
	EdgeBottom
)

// BaseAngle returns the inward heading, in degrees, of faults starting on e.
// Angles are measured from +x towards +y, with y growing away from the top edge.
func (e Edge) BaseAngle() int {
	switch e {
	case EdgeTop:
		return 90
	case EdgeRight:
		return 180
	case EdgeBottom:
		return 270
	default:
		return 0
	}
}

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeTop:
		return "top"
	case EdgeRight:
		return "right"
	case EdgeBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// FaultState is the growth state of a single fault.
type FaultState int

const (
	FaultGrowing FaultState = iota
	FaultTerminated
)

const (
	// DefaultFaultStep is the length of one fault segment in cells.
	DefaultFaultStep = 100.0
	// DefaultWeightRange is the distance at which the fault weight falls to zero.
	DefaultWeightRange = 200.0

	angleSpread     = 45
	maxAngleRetries = 32
)

// GrowFault grows a fault from start, heading roughly along baseAngle, until it
// leaves the [0,width]x[0,height] box. The last point is clamped to the boundary.
func GrowFault(rng *rand.Rand, width, height int, start mgl64.Vec2, baseAngle int, step float64) (*FaultLine, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("fault on %dx%d map: %w", width, height, ErrInvalidDimensions)
	}
	if step <= 0 {
		return nil, fmt.Errorf("fault step %.2f: %w", step, ErrDegenerateFault)
	}

	w, h := float64(width), float64(height)
	// Each accepted step advances at least step*cos(45deg) along the base heading.
	maxSteps := int(math.Ceil(math.Max(w, h)/(step*math.Cos(math.Pi/4)))) + 2

	fault := &FaultLine{}
	current := start
	state := FaultGrowing
	for n := 0; state == FaultGrowing; n++ {
		if n >= maxSteps {
			return nil, fmt.Errorf("fault from %v did not reach the map edge after %d steps: %w", start, n, ErrDegenerateFault)
		}

		var (
			seg  Segment
			next mgl64.Vec2
			err  error
		)
		for try := 0; ; try++ {
			if try >= maxAngleRetries {
				return nil, fmt.Errorf("fault step from %v: %w", current, err)
			}
			next, state = advance(current, pickAngle(rng, baseAngle), step, w, h)
			seg, err = NewSegment(current, next)
			if err == nil {
				break
			}
		}
		fault.Segments = append(fault.Segments, seg)
		current = next
	}
	return fault, nil
}

// pickAngle draws an integer heading in [base-45, base+45) other than base itself.
func pickAngle(rng *rand.Rand, base int) int {
	for {
		a := base - angleSpread + rng.Intn(2*angleSpread)
		if a != base {
			return a
		}
	}
}

func advance(from mgl64.Vec2, angle int, step, w, h float64) (mgl64.Vec2, FaultState) {
	rad := float64(angle) * math.Pi / 180
	dx := step * math.Cos(rad)
	dy := step * math.Sin(rad)
	if math.Abs(dx) < minRun {
		dx = 0
	}
	if math.Abs(dy) < minRun {
		dy = 0
	}

	x, y := from.X()+dx, from.Y()+dy
	state := FaultGrowing
	if x < 0 {
		x, state = 0, FaultTerminated
	} else if x > w {
		x, state = w, FaultTerminated
	}
	if y < 0 {
		y, state = 0, FaultTerminated
	} else if y > h {
		y, state = h, FaultTerminated
	}
	return mgl64.Vec2{x, y}, state
}

// LithosphereConfig controls fault generation.
type LithosphereConfig struct {
	FaultCount int
	StepLength float64
}

// DefaultLithosphereConfig grows a single fault with 100-cell steps.
func DefaultLithosphereConfig() LithosphereConfig {
	return LithosphereConfig{
		FaultCount: 1,
		StepLength: DefaultFaultStep,
	}
}

// Lithosphere is the set of faults grown for one map.
type Lithosphere struct {
	Width  int
	Height int
	Faults []*FaultLine
}

// NewLithosphere grows cfg.FaultCount faults from random edge points.
func NewLithosphere(width, height int, seed int64, cfg LithosphereConfig) (*Lithosphere, error) {
	if cfg.FaultCount < 1 {
		cfg.FaultCount = 1
	}
	if cfg.StepLength <= 0 {
		cfg.StepLength = DefaultFaultStep
	}

	rng := rand.New(rand.NewSource(seed))
	l := &Lithosphere{Width: width, Height: height}
	for i := range cfg.FaultCount {
		edge, start := pickStart(rng, width, height)
		faultRng := rand.New(rand.NewSource(rng.Int63()))
		fault, err := GrowFault(faultRng, width, height, start, edge.BaseAngle(), cfg.StepLength)
		if err != nil {
			return nil, fmt.Errorf("fault %d from %s edge: %w", i, edge, err)
		}
		l.Faults = append(l.Faults, fault)
	}
	return l, nil
}

// pickStart picks an edge and a point in the middle third of it.
func pickStart(rng *rand.Rand, width, height int) (Edge, mgl64.Vec2) {
	edge := Edge(rng.Intn(4))
	switch edge {
	case EdgeTop:
		return edge, mgl64.Vec2{float64(middleThird(rng, width)), 0}
	case EdgeRight:
		return edge, mgl64.Vec2{float64(width), float64(middleThird(rng, height))}
	case EdgeBottom:
		return edge, mgl64.Vec2{float64(middleThird(rng, width)), float64(height)}
	default:
		return edge, mgl64.Vec2{0, float64(middleThird(rng, height))}
	}
}

// middleThird picks an offset in the middle third of an edge of length n that is
// never an endpoint for n >= 2. A single-cell edge has no interior offset and gets 0.
func middleThird(rng *rand.Rand, n int) int {
	lo, hi := max(n/3, 1), n*2/3
	if hi <= lo {
		return n / 2
	}
	return lo + rng.Intn(hi-lo)
}

// DistanceTo returns the smallest distance from (x, y) to any fault, or NoDistance.
func (l *Lithosphere) DistanceTo(x, y float64) float64 {
	best := NoDistance
	for _, f := range l.Faults {
		d := f.DistanceTo(x, y)
		if d == NoDistance {
			continue
		}
		if best == NoDistance || d < best {
			best = d
		}
	}
	return best
}

// Weight is 1 on a fault and falls off linearly to 0 at distance r.
// Points outside every segment's domain get 0.
func (l *Lithosphere) Weight(x, y, r float64) float64 {
	if r <= 0 {
		return 0
	}
	d := l.DistanceTo(x, y)
	if d == NoDistance || d > r {
		return 0
	}
	return (r - d) / r
}

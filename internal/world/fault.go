package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NoDistance is returned by a distance query that falls outside a segment's domain.
const NoDistance = -1.0

const (
	flatSlope  = 1e-5
	steepSlope = 1e5
	minRun     = 1e-9
)

// SegmentKind tags the distance form used by a fault segment.
type SegmentKind int

const (
	SegmentVertical SegmentKind = iota
	SegmentHorizontal
	SegmentOblique
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentVertical:
		return "vertical"
	case SegmentHorizontal:
		return "horizontal"
	case SegmentOblique:
		return "oblique"
	default:
		return "unknown"
	}
}

// Segment is one bounded piece of a fault polyline.
type Segment interface {
	// DistanceTo returns the distance from (x, y) to the segment, or NoDistance
	// when the point lies outside the segment's domain.
	DistanceTo(x, y float64) float64
	Kind() SegmentKind
	Start() mgl64.Vec2
	End() mgl64.Vec2
}

// VerticalSegment is the segment x = X for y in [MinY, MaxY].
type VerticalSegment struct {
	X          float64
	MinY, MaxY float64
	from, to   mgl64.Vec2
}

func (s *VerticalSegment) DistanceTo(x, y float64) float64 {
	if y < s.MinY || y > s.MaxY {
		return NoDistance
	}
	return math.Abs(x - s.X)
}

func (s *VerticalSegment) Kind() SegmentKind { return SegmentVertical }
func (s *VerticalSegment) Start() mgl64.Vec2 { return s.from }
func (s *VerticalSegment) End() mgl64.Vec2   { return s.to }

// HorizontalSegment is the segment y = Y for x in [MinX, MaxX].
type HorizontalSegment struct {
	Y          float64
	MinX, MaxX float64
	from, to   mgl64.Vec2
}

func (s *HorizontalSegment) DistanceTo(x, y float64) float64 {
	if x < s.MinX || x > s.MaxX {
		return NoDistance
	}
	return math.Abs(y - s.Y)
}

func (s *HorizontalSegment) Kind() SegmentKind { return SegmentHorizontal }
func (s *HorizontalSegment) Start() mgl64.Vec2 { return s.from }
func (s *HorizontalSegment) End() mgl64.Vec2   { return s.to }

// ObliqueSegment is a sloped segment y = Slope*x + Intercept between two endpoints.
type ObliqueSegment struct {
	Slope     float64
	Intercept float64
	// lo is the endpoint with the smaller x, hi the one with the larger x.
	lo, hi   mgl64.Vec2
	from, to mgl64.Vec2
}

// DistanceTo drops a perpendicular from (x, y) onto the line. When its foot falls
// outside the segment's x-extent the nearer endpoint is used instead.
func (s *ObliqueSegment) DistanceTo(x, y float64) float64 {
	perp := -1 / s.Slope
	perpIntercept := y - perp*x
	footX := (perpIntercept - s.Intercept) / (s.Slope - perp)

	p := mgl64.Vec2{x, y}
	switch {
	case footX < s.lo.X():
		return p.Sub(s.lo).Len()
	case footX > s.hi.X():
		return p.Sub(s.hi).Len()
	}
	foot := mgl64.Vec2{footX, s.Slope*footX + s.Intercept}
	return p.Sub(foot).Len()
}

func (s *ObliqueSegment) Kind() SegmentKind { return SegmentOblique }
func (s *ObliqueSegment) Start() mgl64.Vec2 { return s.from }
func (s *ObliqueSegment) End() mgl64.Vec2   { return s.to }

// NewSegment classifies the segment a->b. Near-flat and near-vertical slopes
// fall back to the axis-aligned forms.
func NewSegment(a, b mgl64.Vec2) (Segment, error) {
	dx := b.X() - a.X()
	dy := b.Y() - a.Y()
	if dx == 0 && dy == 0 {
		return nil, fmt.Errorf("segment %v -> %v has zero length: %w", a, b, ErrDegenerateFault)
	}

	if math.Abs(dx) < minRun {
		return &VerticalSegment{
			X:    a.X(),
			MinY: math.Min(a.Y(), b.Y()),
			MaxY: math.Max(a.Y(), b.Y()),
			from: a,
			to:   b,
		}, nil
	}

	slope := dy / dx
	switch {
	case math.Abs(slope) < flatSlope:
		return &HorizontalSegment{
			Y:    a.Y(),
			MinX: math.Min(a.X(), b.X()),
			MaxX: math.Max(a.X(), b.X()),
			from: a,
			to:   b,
		}, nil
	case math.Abs(slope) > steepSlope:
		return &VerticalSegment{
			X:    a.X(),
			MinY: math.Min(a.Y(), b.Y()),
			MaxY: math.Max(a.Y(), b.Y()),
			from: a,
			to:   b,
		}, nil
	}

	lo, hi := a, b
	if hi.X() < lo.X() {
		lo, hi = hi, lo
	}
	return &ObliqueSegment{
		Slope:     slope,
		Intercept: a.Y() - slope*a.X(),
		lo:        lo,
		hi:        hi,
		from:      a,
		to:        b,
	}, nil
}

// FaultLine is an ordered polyline of segments. It is immutable once grown.
type FaultLine struct {
	Segments []Segment
}

// DistanceTo returns the smallest in-domain distance over all segments, or
// NoDistance if (x, y) lies outside every segment's domain.
func (f *FaultLine) DistanceTo(x, y float64) float64 {
	best := NoDistance
	for _, s := range f.Segments {
		d := s.DistanceTo(x, y)
		if d == NoDistance {
			continue
		}
		if best == NoDistance || d < best {
			best = d
		}
	}
	return best
}

// Start returns the first point of the fault.
func (f *FaultLine) Start() mgl64.Vec2 {
	if len(f.Segments) == 0 {
		return mgl64.Vec2{}
	}
	return f.Segments[0].Start()
}

// End returns the last point of the fault.
func (f *FaultLine) End() mgl64.Vec2 {
	if len(f.Segments) == 0 {
		return mgl64.Vec2{}
	}
	return f.Segments[len(f.Segments)-1].End()
}

package world

import "math/rand"

// DropState is the lifecycle state of a raindrop agent.
type DropState int

const (
	DropAlive DropState = iota
	// DropOffMap: the drop was placed outside the grid.
	DropOffMap
	// DropExhausted: lifespan ran out while the drop was still moving.
	DropExhausted
	// DropStationary: lifespan ran out while the drop sat in a local minimum.
	DropStationary
)

func (s DropState) String() string {
	switch s {
	case DropAlive:
		return "alive"
	case DropOffMap:
		return "off-map"
	case DropExhausted:
		return "exhausted"
	case DropStationary:
		return "stationary"
	default:
		return "unknown"
	}
}

// DefaultDropLifespan is the number of steps a raindrop lives.
const DefaultDropLifespan = 100

// neighbourScan is the order neighbours are examined in. The first strictly
// lowest neighbour wins, so on plateaus this order decides the direction.
// y-1 is "top".
var neighbourScan = [8][2]int{
	{-1, -1}, // top-left
	{-1, +1}, // bottom-left
	{-1, 0},  // middle-left
	{+1, 0},  // middle-right
	{+1, -1}, // top-right
	{+1, +1}, // bottom-right
	{0, +1},  // bottom
	{0, -1},  // top
}

// Raindrop walks downhill on a height grid one cell per step.
type Raindrop struct {
	X, Y       int
	Lifespan   int
	State      DropState
	Stationary bool

	fill float32
}

// NewRaindrop places a drop at (x, y).
func NewRaindrop(grid *HeightGrid, x, y, lifespan int) *Raindrop {
	d := &Raindrop{X: x, Y: y, Lifespan: lifespan}
	switch {
	case !grid.InBounds(x, y):
		d.State = DropOffMap
	case lifespan <= 0:
		d.Lifespan = 0
		d.State = DropExhausted
	}
	return d
}

// Alive reports whether the drop can still step.
func (d *Raindrop) Alive() bool {
	return d.State == DropAlive
}

// Step moves the drop to its lowest strictly-lower neighbour and reports whether
// it moved. fillIncrement > 0 lets a stuck drop gradually climb out of a pit.
func (d *Raindrop) Step(grid *HeightGrid, fillIncrement float32) bool {
	if !d.Alive() {
		return false
	}

	threshold := grid.At(d.X, d.Y) + d.fill
	bestX, bestY := -1, -1
	for _, off := range neighbourScan {
		nx, ny := d.X+off[0], d.Y+off[1]
		if !grid.InBounds(nx, ny) {
			continue
		}
		if h := grid.At(nx, ny); h < threshold {
			threshold = h
			bestX, bestY = nx, ny
		}
	}

	moved := bestX >= 0
	if moved {
		d.X, d.Y = bestX, bestY
		d.fill = 0
		d.Stationary = false
	} else {
		d.Stationary = true
		d.fill += fillIncrement
	}

	d.Lifespan--
	if d.Lifespan <= 0 {
		if d.Stationary {
			d.State = DropStationary
		} else {
			d.State = DropExhausted
		}
	}
	return moved
}

// DecrementMode decides how repeat visits to a cell are charged.
type DecrementMode int

const (
	// DecrementPerCell lowers every distinct visited cell once.
	DecrementPerCell DecrementMode = iota
	// DecrementPerVisit lowers a cell once for every recorded visit.
	DecrementPerVisit
)

// ErosionConfig configures a rain simulation run.
type ErosionConfig struct {
	Drops         int
	Lifespan      int
	Decrement     float32
	Mode          DecrementMode
	FillIncrement float32
}

// DefaultErosionConfig returns a single-drop run with the standard lifespan.
func DefaultErosionConfig() ErosionConfig {
	return ErosionConfig{
		Drops:     1,
		Lifespan:  DefaultDropLifespan,
		Decrement: 1.0,
		Mode:      DecrementPerCell,
	}
}

// ErosionStats summarises a simulation run.
type ErosionStats struct {
	Drops         int
	Steps         int
	Visits        int
	DistinctCells int
	Ended         map[DropState]int
}

// Erode runs cfg.Drops raindrops from random cells, then lowers the visited cells
// in one pass. Heights are read-only while the drops walk.
func Erode(grid *HeightGrid, cfg ErosionConfig, seed int64) ErosionStats {
	stats := ErosionStats{Ended: make(map[DropState]int)}
	if cfg.Drops <= 0 {
		return stats
	}

	rng := rand.New(rand.NewSource(seed))
	drops := make([]*Raindrop, cfg.Drops)
	for i := range drops {
		drops[i] = NewRaindrop(grid, rng.Intn(grid.Width), rng.Intn(grid.Height), cfg.Lifespan)
	}

	var visits []int
	for _, d := range drops {
		for d.Alive() {
			if d.Step(grid, cfg.FillIncrement) {
				visits = append(visits, d.Y*grid.Width+d.X)
			}
			stats.Steps++
		}
		stats.Ended[d.State]++
	}

	seen := make(map[int]struct{}, len(visits))
	for _, idx := range visits {
		_, dup := seen[idx]
		seen[idx] = struct{}{}
		if dup && cfg.Mode == DecrementPerCell {
			continue
		}
		grid.Values[idx] -= cfg.Decrement
	}

	stats.Drops = len(drops)
	stats.Visits = len(visits)
	stats.DistinctCells = len(seen)
	return stats
}

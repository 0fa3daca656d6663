package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Lightweight stage timer for pipeline runs.

var (
	mu     sync.Mutex
	totals = make(map[string]time.Duration)
	calls  = make(map[string]int)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("world.Erode")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		totals[name] += d
		calls[name]++
		mu.Unlock()
	}
}

// Reset clears all recorded totals.
func Reset() {
	mu.Lock()
	clear(totals)
	clear(calls)
	mu.Unlock()
}

// Stat is the accumulated time of one tracked name.
type Stat struct {
	Name  string
	Total time.Duration
	Calls int
}

// Snapshot returns all stats, slowest first.
func Snapshot() []Stat {
	mu.Lock()
	out := make([]Stat, 0, len(totals))
	for k, v := range totals {
		out = append(out, Stat{Name: k, Total: v, Calls: calls[k]})
	}
	mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n slowest stages.
// Example: "terrain.GenerateTectonicMap:412.3ms, world.Erode:8.1ms(x3)"
func TopN(n int) string {
	stats := Snapshot()
	n = min(n, len(stats))
	parts := make([]string, 0, n)
	for _, s := range stats[:n] {
		part := s.Name + ":" + formatMs(s.Total)
		if s.Calls > 1 {
			part += "(x" + strconv.Itoa(s.Calls) + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	return strconv.FormatFloat(ms, 'f', 1, 64) + "ms"
}

// Package perf keeps a bounded in-memory record of request, query and chart render timings.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes what was timed.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
	KindRender
)

// Entry is a single timing record.
type Entry struct {
	Kind       EntryKind
	Path       string // "GET /path", "SELECT table" or "png 480x480"
	StatusCode int    // requests only
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer of timing entries; when full the oldest entry is overwritten.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	count   atomic.Int64
}

// NewCollector creates a collector holding the last size entries.
// PRE: size > 0, otherwise DefaultRingSize is used
// POST: Returns a ready-to-use collector
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	c.count.Add(1)
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.count.Load()
}

// Snapshot holds aggregated timings computed on read.
type Snapshot struct {
	TotalRecorded  int64      `json:"total_recorded"`
	Requests       int        `json:"requests"`
	RequestP50Ms   float64    `json:"request_p50_ms"`
	RequestP95Ms   float64    `json:"request_p95_ms"`
	RequestP99Ms   float64    `json:"request_p99_ms"`
	SlowestPaths   []PathStat `json:"slowest_paths"`
	SlowestQueries []PathStat `json:"slowest_queries"`
	SlowestRenders []PathStat `json:"slowest_renders"`
}

// PathStat aggregates timing for one path, statement or render size.
type PathStat struct {
	Path    string  `json:"path"`
	Count   int     `json:"count"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	TotalMs float64 `json:"total_ms"`
}

// Snapshot aggregates entries recorded at or after since.
// PRE: topN > 0
// POST: Each Slowest list holds at most topN entries ordered by average duration
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	var requestDurations []float64
	byKind := map[EntryKind]map[string]*PathStat{
		KindRequest: {},
		KindQuery:   {},
		KindRender:  {},
	}
	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		stats, ok := byKind[e.Kind]
		if !ok {
			continue
		}
		if e.Kind == KindRequest {
			requestDurations = append(requestDurations, e.DurationMs)
		}
		s, ok := stats[e.Path]
		if !ok {
			s = &PathStat{Path: e.Path}
			stats[e.Path] = s
		}
		s.Count++
		s.TotalMs += e.DurationMs
		s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
	}

	snap := Snapshot{
		TotalRecorded:  c.TotalRecorded(),
		Requests:       len(requestDurations),
		SlowestPaths:   topByAvg(byKind[KindRequest], topN),
		SlowestQueries: topByAvg(byKind[KindQuery], topN),
		SlowestRenders: topByAvg(byKind[KindRender], topN),
	}
	if len(requestDurations) > 0 {
		sort.Float64s(requestDurations)
		snap.RequestP50Ms = percentile(requestDurations, 50)
		snap.RequestP95Ms = percentile(requestDurations, 95)
		snap.RequestP99Ms = percentile(requestDurations, 99)
	}
	return snap
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower, upper := int(math.Floor(idx)), int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func topByAvg(stats map[string]*PathStat, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs == list[j].AvgMs {
			return list[i].Path < list[j].Path
		}
		return list[i].AvgMs > list[j].AvgMs
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}

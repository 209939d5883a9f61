package metrics

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// Registry holds metrics by name. Metrics are created on first access, so
// callers never check for nil.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

// DefaultRegistry is the process-wide registry behind DefaultVerify.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

// getOrCreate is the read-lock fast path with a double-checked slow path.
func getOrCreate[M any](r *Registry, m map[string]*M, name string, create func() *M) *M {
	r.mu.RLock()
	v, ok := m[name]
	r.mu.RUnlock()
	if ok {
		return v
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok = m[name]; ok {
		return v
	}
	v = create()
	m[name] = v
	return v
}

// Counter returns the Counter registered under name.
func (r *Registry) Counter(name string) *Counter {
	return getOrCreate(r, r.counters, name, func() *Counter { return &Counter{name: name} })
}

// Gauge returns the Gauge registered under name.
func (r *Registry) Gauge(name string) *Gauge {
	return getOrCreate(r, r.gauges, name, func() *Gauge { return &Gauge{name: name} })
}

// Histogram returns the Histogram registered under name. New histograms
// use DurationBuckets.
func (r *Registry) Histogram(name string) *Histogram {
	return getOrCreate(r, r.histograms, name, func() *Histogram { return newHistogram(name, DurationBuckets) })
}

// Snapshot returns a point-in-time copy of every value: int64 for counters
// and gauges, and for histograms a map with count, sum and buckets.
func (r *Registry) Snapshot() map[string]any {
	snap := make(map[string]any)
	r.each(
		func(c *Counter) { snap[c.name] = c.Value() },
		func(g *Gauge) { snap[g.name] = g.Value() },
		func(h *Histogram) {
			snap[h.name] = map[string]any{"count": h.Count(), "sum": h.Sum(), "buckets": h.Buckets()}
		},
	)
	return snap
}

// each calls the visitors for every metric, sorted by name within a kind.
func (r *Registry) each(counter func(*Counter), gauge func(*Gauge), hist func(*Histogram)) {
	r.mu.RLock()
	counters := slices.SortedFunc(maps.Values(r.counters), func(a, b *Counter) int { return strings.Compare(a.name, b.name) })
	gauges := slices.SortedFunc(maps.Values(r.gauges), func(a, b *Gauge) int { return strings.Compare(a.name, b.name) })
	hists := slices.SortedFunc(maps.Values(r.histograms), func(a, b *Histogram) int { return strings.Compare(a.name, b.name) })
	r.mu.RUnlock()
	for _, c := range counters {
		counter(c)
	}
	for _, g := range gauges {
		gauge(g)
	}
	for _, h := range hists {
		hist(h)
	}
}

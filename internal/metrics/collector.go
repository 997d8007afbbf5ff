// Package metrics tallies probe outcomes over one interactive session.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Outcome is the result class of a single probe.
type Outcome int

const (
	Success Outcome = iota
	Failure
	Skipped
)

// maxSamples caps the latency samples kept per endpoint.
const maxSamples = 1000

// EndpointStats is a point-in-time view of one endpoint's probes.
type EndpointStats struct {
	Name         string  `json:"name"`
	Attempts     int64   `json:"attempts"` // skipped probes are not attempts
	Successes    int64   `json:"successes"`
	Failures     int64   `json:"failures"`
	Skipped      int64   `json:"skipped"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// Snapshot is a point-in-time view of the session — safe to marshal to JSON.
type Snapshot struct {
	Runs          int64           `json:"runs"`
	Endpoints     []EndpointStats `json:"endpoints"` // sorted by name
	UptimeSeconds float64         `json:"uptime_seconds"`
}

// Collector is a thread-safe metrics store.
type Collector struct {
	startTime time.Time

	runs atomic.Int64

	mu        sync.Mutex
	endpoints map[string]*endpoint
}

type endpoint struct {
	stats   EndpointStats
	samples []float64
}

// NewCollector creates and starts a Collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		endpoints: make(map[string]*endpoint),
	}
}

// RecordRun increments the test-run counter. One run may probe several endpoints.
func (c *Collector) RecordRun() {
	c.runs.Add(1)
}

// Record adds one probe outcome for the named endpoint.
func (c *Collector) Record(name string, o Outcome, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ep, ok := c.endpoints[name]
	if !ok {
		ep = &endpoint{stats: EndpointStats{Name: name}}
		c.endpoints[name] = ep
	}

	switch o {
	case Skipped:
		ep.stats.Skipped++
		return
	case Success:
		ep.stats.Successes++
	case Failure:
		ep.stats.Failures++
	}
	ep.stats.Attempts++

	if elapsed > 0 {
		ep.samples = append(ep.samples, float64(elapsed)/float64(time.Millisecond))
		if len(ep.samples) > maxSamples {
			ep.samples = ep.samples[len(ep.samples)-maxSamples:]
		}
	}
}

// Snapshot returns current metrics as an immutable value.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	eps := make([]EndpointStats, 0, len(c.endpoints))
	for _, ep := range c.endpoints {
		s := ep.stats
		s.AvgLatencyMs = average(ep.samples)
		eps = append(eps, s)
	}
	sort.Slice(eps, func(i, j int) bool { return eps[i].Name < eps[j].Name })

	return Snapshot{
		Runs:          c.runs.Load(),
		Endpoints:     eps,
		UptimeSeconds: time.Since(c.startTime).Seconds(),
	}
}

func average(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

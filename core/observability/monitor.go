package observability

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// latencyBounds are the upper bounds of the latency buckets; the last bucket
// is unbounded.
var latencyBounds = [...]time.Duration{
	time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	5 * time.Second,
	10 * time.Second,
}

const numBuckets = len(latencyBounds) + 1

// Thresholds used by Bottlenecks
const (
	SlowRouteThreshold = 100 * time.Millisecond
	ErrorRateThreshold = 0.05
)

// PerformanceMonitor aggregates per-route request metrics. Recording is
// lock-free and safe from any connection goroutine.
type PerformanceMonitor struct {
	enabled atomic.Bool
	routes  *xsync.MapOf[string, *RouteMetrics]
	global  struct {
		totalRequests atomic.Uint64
		totalErrors   atomic.Uint64
		totalDuration atomic.Uint64
	}
}

// RouteMetrics stores per-route metrics
type RouteMetrics struct {
	Name           string
	Count          atomic.Uint64
	Errors         atomic.Uint64
	TotalDuration  atomic.Uint64
	MinDuration    atomic.Uint64
	MaxDuration    atomic.Uint64
	latencyBuckets [numBuckets]atomic.Uint64
}

// Bottleneck represents a performance issue
type Bottleneck struct {
	Type     string  `json:"type"`
	Location string  `json:"location"`
	Severity int     `json:"severity"`
	Impact   float64 `json:"impact"`
	Details  string  `json:"details"`
}

// NewPerformanceMonitor creates an enabled monitor
func NewPerformanceMonitor() *PerformanceMonitor {
	pm := &PerformanceMonitor{
		routes: xsync.NewMapOf[string, *RouteMetrics](),
	}
	pm.enabled.Store(true)
	return pm
}

// SetEnabled turns recording on or off
func (pm *PerformanceMonitor) SetEnabled(on bool) {
	pm.enabled.Store(on)
}

// RecordRequest records one request against route. isError marks 5xx
// responses and handler faults.
func (pm *PerformanceMonitor) RecordRequest(route string, duration time.Duration, isError bool) {
	if !pm.enabled.Load() {
		return
	}

	metrics, _ := pm.routes.LoadOrCompute(route, func() *RouteMetrics {
		return &RouteMetrics{Name: route}
	})

	metrics.Count.Add(1)
	if isError {
		metrics.Errors.Add(1)
		pm.global.totalErrors.Add(1)
	}

	durationNs := uint64(duration.Nanoseconds())
	metrics.TotalDuration.Add(durationNs)
	updateMinMax(metrics, durationNs)
	metrics.latencyBuckets[bucketFor(duration)].Add(1)

	pm.global.totalRequests.Add(1)
	pm.global.totalDuration.Add(durationNs)
}

func updateMinMax(m *RouteMetrics, d uint64) {
	for {
		min := m.MinDuration.Load()
		if min != 0 && d >= min {
			break
		}
		if m.MinDuration.CompareAndSwap(min, d) {
			break
		}
	}
	for {
		max := m.MaxDuration.Load()
		if d <= max {
			break
		}
		if m.MaxDuration.CompareAndSwap(max, d) {
			break
		}
	}
}

func bucketFor(d time.Duration) int {
	for i, bound := range latencyBounds {
		if d < bound {
			return i
		}
	}
	return numBuckets - 1
}

// RouteSnapshot is a point-in-time copy of one route's metrics
type RouteSnapshot struct {
	Route       string        `json:"route"`
	Count       uint64        `json:"count"`
	Errors      uint64        `json:"errors"`
	AvgDuration time.Duration `json:"avg_ns"`
	MinDuration time.Duration `json:"min_ns"`
	MaxDuration time.Duration `json:"max_ns"`
	Buckets     []uint64      `json:"latency_buckets"`
}

// Snapshot is a point-in-time copy of all metrics
type Snapshot struct {
	TotalRequests uint64          `json:"total_requests"`
	TotalErrors   uint64          `json:"total_errors"`
	AvgDuration   time.Duration   `json:"avg_ns"`
	Routes        []RouteSnapshot `json:"routes"`
}

// Snapshot copies the current metrics, routes sorted by name
func (pm *PerformanceMonitor) Snapshot() Snapshot {
	s := Snapshot{
		TotalRequests: pm.global.totalRequests.Load(),
		TotalErrors:   pm.global.totalErrors.Load(),
	}
	if s.TotalRequests > 0 {
		s.AvgDuration = time.Duration(pm.global.totalDuration.Load() / s.TotalRequests)
	}

	pm.routes.Range(func(name string, m *RouteMetrics) bool {
		rs := RouteSnapshot{
			Route:       name,
			Count:       m.Count.Load(),
			Errors:      m.Errors.Load(),
			MinDuration: time.Duration(m.MinDuration.Load()),
			MaxDuration: time.Duration(m.MaxDuration.Load()),
			Buckets:     make([]uint64, numBuckets),
		}
		if rs.Count > 0 {
			rs.AvgDuration = time.Duration(m.TotalDuration.Load() / rs.Count)
		}
		for i := range m.latencyBuckets {
			rs.Buckets[i] = m.latencyBuckets[i].Load()
		}
		s.Routes = append(s.Routes, rs)
		return true
	})
	sort.Slice(s.Routes, func(i, j int) bool { return s.Routes[i].Route < s.Routes[j].Route })
	return s
}

// Bottlenecks reports routes that are slow on average or fail too often
func (pm *PerformanceMonitor) Bottlenecks() []Bottleneck {
	bottlenecks := make([]Bottleneck, 0)

	for _, r := range pm.Snapshot().Routes {
		if r.Count == 0 {
			continue
		}

		if r.AvgDuration > SlowRouteThreshold {
			bottlenecks = append(bottlenecks, Bottleneck{
				Type:     "latency",
				Location: r.Route,
				Severity: 8,
				Impact:   100.0,
				Details:  fmt.Sprintf("High latency (%v avg)", r.AvgDuration),
			})
		}

		rate := float64(r.Errors) / float64(r.Count)
		if r.Errors > 0 && rate > ErrorRateThreshold {
			bottlenecks = append(bottlenecks, Bottleneck{
				Type:     "errors",
				Location: r.Route,
				Severity: 10,
				Impact:   rate * 100,
				Details:  fmt.Sprintf("%.1f%% error rate", rate*100),
			})
		}
	}

	return bottlenecks
}

// StartTrace starts timing
func (pm *PerformanceMonitor) StartTrace() time.Time {
	if !pm.enabled.Load() {
		return time.Time{}
	}
	return time.Now()
}

// EndTrace ends timing and records
func (pm *PerformanceMonitor) EndTrace(route string, start time.Time, isError bool) {
	if start.IsZero() {
		return
	}
	pm.RecordRequest(route, time.Since(start), isError)
}

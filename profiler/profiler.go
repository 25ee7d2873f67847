// Package profiler - Background runtime profiling for the frame pipeline.
package profiler

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Operation and metric names recorded by the pipeline.
const (
	OperationFrame  = "frame"
	OperationDetect = "detect"
	MetricPersons   = "persons"
	MetricAnomaly   = "anomaly"
)

// RuntimeProfiler samples process state and aggregates per-frame timings and counters, then
// logs a summary every report interval.
//
// All methods are safe for concurrent use. Recording is cheap; sampling and reporting run in
// their own goroutines between Start and Stop.
type RuntimeProfiler struct {
	reportInterval time.Duration
	sampleInterval time.Duration
	maxSamples     int
	log            logrus.FieldLogger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started time.Time
	running bool

	memStats    runtime.MemStats
	goroutines  []int
	lastGCCount uint32

	metrics    map[string]*MetricTracker
	operations map[string]*TimeTracker
}

// MetricTracker keeps a sliding window of metric values.
type MetricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

func (t *MetricTracker) add(value float64, window int) {
	if t.count == 0 || value < t.min {
		t.min = value
	}
	if t.count == 0 || value > t.max {
		t.max = value
	}
	t.values = append(t.values, value)
	t.sum += value
	if len(t.values) > window {
		t.sum -= t.values[0]
		t.values = t.values[1:]
	}
	t.count++
}

// TimeTracker keeps a sliding window of operation durations.
type TimeTracker struct {
	durations []time.Duration
	total     time.Duration
	min       time.Duration
	max       time.Duration
	count     int64
}

func (t *TimeTracker) add(d time.Duration, window int) {
	if t.count == 0 || d < t.min {
		t.min = d
	}
	if t.count == 0 || d > t.max {
		t.max = d
	}
	t.durations = append(t.durations, d)
	t.total += d
	if len(t.durations) > window {
		t.total -= t.durations[0]
		t.durations = t.durations[1:]
	}
	t.count++
}

// MetricStats summarizes a metric's window.
type MetricStats struct {
	Avg     float64
	Min     float64
	Max     float64
	Samples int
	Count   int64
}

// OperationStats summarizes an operation's timing window.
type OperationStats struct {
	Avg     time.Duration
	Min     time.Duration
	Max     time.Duration
	Samples int
	Count   int64
}

// Stats is a point-in-time snapshot of the profiler.
type Stats struct {
	Uptime     time.Duration
	Goroutines int
	// PeakGoroutines is the highest goroutine count across the sample window.
	PeakGoroutines int
	HeapAlloc  uint64
	NumGC      uint32
	Metrics    map[string]MetricStats
	Operations map[string]OperationStats
}

// ProfilingOptions configures the runtime profiler.
type ProfilingOptions struct {
	// ReportInterval specifies how often to log a report (default: 5s).
	ReportInterval time.Duration
	// SampleInterval specifies how often to sample process state (default: 250ms).
	SampleInterval time.Duration
	// MaxSamples bounds every sliding window (default: 600).
	MaxSamples int
	// Logger receives the reports. Nil uses the logrus standard logger.
	Logger logrus.FieldLogger
}

// NewRuntimeProfiler creates a profiler. It does nothing until Start.
//
// Arguments:
// - opts: Configuration options for the profiler.
//
// Returns:
// - A configured RuntimeProfiler instance.
func NewRuntimeProfiler(opts ProfilingOptions) *RuntimeProfiler {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 5 * time.Second
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 250 * time.Millisecond
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &RuntimeProfiler{
		reportInterval: opts.ReportInterval,
		sampleInterval: opts.SampleInterval,
		maxSamples:     opts.MaxSamples,
		log:            opts.Logger.WithField("component", "profiler"),
		started:        time.Now(),
		metrics:        make(map[string]*MetricTracker),
		operations:     make(map[string]*TimeTracker),
	}
}

// Start launches the sampling and reporting goroutines. They stop when ctx is done or Stop is
// called. Calling Start on a running profiler does nothing.
func (rp *RuntimeProfiler) Start(ctx context.Context) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.running {
		return
	}
	rp.running = true
	rp.started = time.Now()

	ctx, rp.cancel = context.WithCancel(ctx)

	rp.wg.Add(2)
	go rp.every(ctx, rp.sampleInterval, rp.sample)
	go rp.every(ctx, rp.reportInterval, rp.report)
}

// Stop stops the background goroutines, waits for them and logs a final report.
func (rp *RuntimeProfiler) Stop() {
	rp.mu.Lock()
	if !rp.running {
		rp.mu.Unlock()
		return
	}
	rp.running = false
	cancel := rp.cancel
	rp.mu.Unlock()

	cancel()
	rp.wg.Wait()
	rp.report()
}

func (rp *RuntimeProfiler) every(ctx context.Context, interval time.Duration, fn func()) {
	defer rp.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// RecordMetric records a metric value.
func (rp *RuntimeProfiler) RecordMetric(name string, value float64) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.recordMetricLocked(name, value)
}

func (rp *RuntimeProfiler) recordMetricLocked(name string, value float64) {
	tracker, ok := rp.metrics[name]
	if !ok {
		tracker = &MetricTracker{}
		rp.metrics[name] = tracker
	}
	tracker.add(value, rp.maxSamples)
}

// StartOperation begins timing an operation.
//
// Returns:
// - A function to call when the operation completes.
//
// @example
// done := rp.StartOperation(profiler.OperationDetect)
// detections, err := d.Detect(frame)
// done()
func (rp *RuntimeProfiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		rp.RecordOperation(name, time.Since(start))
	}
}

// RecordOperation records one completed operation.
func (rp *RuntimeProfiler) RecordOperation(name string, d time.Duration) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	tracker, ok := rp.operations[name]
	if !ok {
		tracker = &TimeTracker{}
		rp.operations[name] = tracker
	}
	tracker.add(d, rp.maxSamples)
}

func (rp *RuntimeProfiler) sample() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	runtime.ReadMemStats(&rp.memStats)
	rp.goroutines = append(rp.goroutines, runtime.NumGoroutine())
	if len(rp.goroutines) > rp.maxSamples {
		rp.goroutines = rp.goroutines[1:]
	}
}

// Snapshot returns the current statistics.
func (rp *RuntimeProfiler) Snapshot() Stats {
	rp.mu.RLock()
	defer rp.mu.RUnlock()

	stats := Stats{
		Uptime:     time.Since(rp.started),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  rp.memStats.HeapAlloc,
		NumGC:      rp.memStats.NumGC,
		Metrics:    make(map[string]MetricStats, len(rp.metrics)),
		Operations: make(map[string]OperationStats, len(rp.operations)),
	}
	for _, n := range rp.goroutines {
		stats.PeakGoroutines = max(stats.PeakGoroutines, n)
	}
	for name, t := range rp.metrics {
		if len(t.values) == 0 {
			continue
		}
		stats.Metrics[name] = MetricStats{
			Avg:     t.sum / float64(len(t.values)),
			Min:     t.min,
			Max:     t.max,
			Samples: len(t.values),
			Count:   t.count,
		}
	}
	for name, t := range rp.operations {
		if len(t.durations) == 0 {
			continue
		}
		stats.Operations[name] = OperationStats{
			Avg:     t.total / time.Duration(len(t.durations)),
			Min:     t.min,
			Max:     t.max,
			Samples: len(t.durations),
			Count:   t.count,
		}
	}
	return stats
}

// report logs one line for process state and one per metric and operation.
func (rp *RuntimeProfiler) report() {
	stats := rp.Snapshot()

	rp.mu.Lock()
	newGC := stats.NumGC - rp.lastGCCount
	rp.lastGCCount = stats.NumGC
	rp.mu.Unlock()

	rp.log.WithFields(logrus.Fields{
		"uptime":     stats.Uptime.Truncate(time.Millisecond),
		"goroutines": stats.Goroutines,
		"peak":       stats.PeakGoroutines,
		"heap":       formatBytes(stats.HeapAlloc),
		"gc":         stats.NumGC,
		"gc_new":     newGC,
	}).Info("runtime")

	for _, name := range sortedKeys(stats.Operations) {
		op := stats.Operations[name]
		rp.log.WithFields(logrus.Fields{
			"operation": name,
			"avg":       op.Avg.Truncate(time.Microsecond),
			"min":       op.Min.Truncate(time.Microsecond),
			"max":       op.Max.Truncate(time.Microsecond),
			"count":     op.Count,
		}).Info("timing")
	}

	for _, name := range sortedKeys(stats.Metrics) {
		m := stats.Metrics[name]
		rp.log.WithFields(logrus.Fields{
			"metric":  name,
			"avg":     fmt.Sprintf("%.2f", m.Avg),
			"min":     m.Min,
			"max":     m.Max,
			"samples": m.Samples,
		}).Info("metric")
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

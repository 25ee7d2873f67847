package profiler

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRecordMetricWindow(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{MaxSamples: 3})

	for _, v := range []float64{5, 1, 2, 3, 4} {
		rp.RecordMetric(MetricPersons, v)
	}

	stats := rp.Snapshot().Metrics[MetricPersons]
	assert.Equal(t, 3, stats.Samples)
	assert.Equal(t, int64(5), stats.Count)
	assert.InDelta(t, 3.0, stats.Avg, 1e-9)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 5.0, stats.Max)
}

func TestRecordOperation(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})

	rp.RecordOperation(OperationDetect, 10*time.Millisecond)
	rp.RecordOperation(OperationDetect, 30*time.Millisecond)
	done := rp.StartOperation(OperationFrame)
	done()

	stats := rp.Snapshot()
	require.Contains(t, stats.Operations, OperationDetect)
	require.Contains(t, stats.Operations, OperationFrame)

	detect := stats.Operations[OperationDetect]
	assert.Equal(t, 20*time.Millisecond, detect.Avg)
	assert.Equal(t, 10*time.Millisecond, detect.Min)
	assert.Equal(t, 30*time.Millisecond, detect.Max)
	assert.Equal(t, int64(2), detect.Count)
}

func TestStartStopReportsAndLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	logger, hook := test.NewNullLogger()
	rp := NewRuntimeProfiler(ProfilingOptions{
		SampleInterval: time.Millisecond,
		ReportInterval: time.Hour,
		Logger:         logger,
	})
	rp.RecordMetric(MetricAnomaly, 1)
	rp.RecordMetric(MetricPersons, 4)
	assert.Zero(t, rp.Snapshot().PeakGoroutines)

	rp.Start(context.Background())
	rp.Start(context.Background())
	require.Eventually(t, func() bool {
		return rp.Snapshot().PeakGoroutines > 0
	}, time.Second, time.Millisecond)
	rp.Stop()
	rp.Stop()

	var runtimeLines, metricLines int
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.InfoLevel, e.Level)
		switch e.Message {
		case "runtime":
			runtimeLines++
		case "metric":
			metricLines++
		}
	}
	assert.Equal(t, 1, runtimeLines, "final report on Stop")
	assert.Equal(t, 2, metricLines)
}

func TestStopsWithParentContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	logger, _ := test.NewNullLogger()
	rp := NewRuntimeProfiler(ProfilingOptions{SampleInterval: time.Millisecond, Logger: logger})

	ctx, cancel := context.WithCancel(context.Background())
	rp.Start(ctx)
	cancel()
	rp.Stop()
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}

package prometheus

import (
	"strconv"

	"github.com/marmos91/dittovfs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// deviceMetrics is the Prometheus implementation of metrics.DeviceMetrics.
type deviceMetrics struct {
	writesTotal    prometheus.Counter
	bytesRequested prometheus.Counter
	bytesWritten   prometheus.Counter
	writeSize      prometheus.Histogram
	noSpaceTotal   prometheus.Counter
	lockRequests   *prometheus.CounterVec
	usedBytes      prometheus.Gauge
	quotaBytes     prometheus.Gauge
}

// NewDeviceMetrics creates a new Prometheus-backed DeviceMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewDeviceMetrics() metrics.DeviceMetrics {
	return NewDeviceMetricsWith(metrics.GetRegistry())
}

// NewDeviceMetricsWith registers the device collectors on reg. A nil reg
// yields the no-op implementation.
func NewDeviceMetricsWith(reg *prometheus.Registry) metrics.DeviceMetrics {
	if reg == nil {
		return metrics.NewNoopDeviceMetrics()
	}

	return &deviceMetrics{
		writesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittovfs_device_writes_total",
				Help: "Total number of file writes",
			},
		),
		bytesRequested: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittovfs_device_write_requested_bytes_total",
				Help: "Total bytes callers asked to write",
			},
		),
		bytesWritten: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittovfs_device_written_bytes_total",
				Help: "Total bytes actually stored",
			},
		),
		writeSize: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "dittovfs_device_write_size_bytes",
				Help: "Distribution of write sizes",
				Buckets: []float64{
					64,      // 64B
					1024,    // 1KB
					4096,    // 4KB
					65536,   // 64KB
					1048576, // 1MB
				},
			},
		),
		noSpaceTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittovfs_device_no_space_total",
				Help: "Total number of writes cut short by the device quota",
			},
		),
		lockRequests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittovfs_device_lock_requests_total",
				Help: "Total advisory lock requests by operation and outcome",
			},
			[]string{"op", "granted"},
		),
		usedBytes: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittovfs_device_used_bytes",
				Help: "Aggregate size of files on the device",
			},
		),
		quotaBytes: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittovfs_device_quota_bytes",
				Help: "Device quota in bytes, -1 when unlimited",
			},
		),
	}
}

func (m *deviceMetrics) RecordWrite(requested, written int64) {
	m.writesTotal.Inc()
	m.bytesRequested.Add(float64(requested))
	m.bytesWritten.Add(float64(written))
	m.writeSize.Observe(float64(written))
}

func (m *deviceMetrics) RecordNoSpace() {
	m.noSpaceTotal.Inc()
}

func (m *deviceMetrics) RecordLock(op string, granted bool) {
	m.lockRequests.WithLabelValues(op, strconv.FormatBool(granted)).Inc()
}

func (m *deviceMetrics) SetUsage(used, quota int64) {
	m.usedBytes.Set(float64(used))
	m.quotaBytes.Set(float64(quota))
}

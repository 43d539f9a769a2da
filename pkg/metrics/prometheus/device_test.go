package prometheus

import (
	"testing"

	"github.com/marmos91/dittovfs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeviceMetricsWith_NilRegistry(t *testing.T) {
	m := NewDeviceMetricsWith(nil)
	assert.Equal(t, metrics.NewNoopDeviceMetrics(), m)
}

func TestDeviceMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDeviceMetricsWith(reg)
	dm, ok := m.(*deviceMetrics)
	require.True(t, ok)

	m.RecordWrite(10, 6)
	m.RecordWrite(4, 4)
	m.RecordNoSpace()
	m.RecordLock("exclusive", true)
	m.RecordLock("shared", false)
	m.RecordLock("shared", false)
	m.SetUsage(10, 100)

	assert.Equal(t, 2.0, testutil.ToFloat64(dm.writesTotal))
	assert.Equal(t, 14.0, testutil.ToFloat64(dm.bytesRequested))
	assert.Equal(t, 10.0, testutil.ToFloat64(dm.bytesWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(dm.noSpaceTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(dm.lockRequests.WithLabelValues("exclusive", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(dm.lockRequests.WithLabelValues("shared", "false")))
	assert.Equal(t, 10.0, testutil.ToFloat64(dm.usedBytes))
	assert.Equal(t, 100.0, testutil.ToFloat64(dm.quotaBytes))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["dittovfs_device_writes_total"])
	assert.True(t, names["dittovfs_device_write_size_bytes"])
	assert.True(t, names["dittovfs_device_quota_bytes"])
}

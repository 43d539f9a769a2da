package metrics

// DeviceMetrics provides observability for a virtual device.
//
// Implementations can collect metrics about writes, quota pressure and
// advisory lock contention. This interface is optional - if not provided to
// a device, a no-op implementation is used with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	dev := vfs.NewDevice(quota, vfs.WithMetrics(prometheus.NewDeviceMetrics()))
//
//	// Without metrics (no-op)
//	dev := vfs.NewDevice(quota)
type DeviceMetrics interface {
	// RecordWrite records a file write.
	//
	// Parameters:
	//   - requested: Bytes the caller asked to write
	//   - written: Bytes actually stored (smaller when the quota was hit)
	RecordWrite(requested, written int64)

	// RecordNoSpace records a write that did not fully fit on the device.
	RecordNoSpace()

	// RecordLock records an advisory lock request and its outcome.
	//
	// Parameters:
	//   - op: "shared", "exclusive", "unlock" or "invalid"
	//   - granted: Whether the request was granted
	RecordLock(op string, granted bool)

	// SetUsage updates the usage gauges.
	//
	// Parameters:
	//   - used: Aggregate file size below the root
	//   - quota: Byte ceiling, -1 when unlimited
	SetUsage(used, quota int64)
}

// noopDeviceMetrics discards everything.
type noopDeviceMetrics struct{}

// NewNoopDeviceMetrics returns a DeviceMetrics that records nothing.
func NewNoopDeviceMetrics() DeviceMetrics {
	return noopDeviceMetrics{}
}

func (noopDeviceMetrics) RecordWrite(int64, int64) {}
func (noopDeviceMetrics) RecordNoSpace()           {}
func (noopDeviceMetrics) RecordLock(string, bool)  {}
func (noopDeviceMetrics) SetUsage(int64, int64)    {}

package vfs

import (
	"github.com/marmos91/dittovfs/internal/logger"
	"github.com/marmos91/dittovfs/pkg/metrics"
)

// Unlimited is the quota value meaning "no capacity limit".
const Unlimited int64 = -1

// Device is a capacity-limited volume owning exactly one root directory.
//
// The quota bounds the aggregate size of all file contents below the root.
// Directory.AddChild and File.Write consult the device of the tree they
// belong to; detached trees are never limited.
type Device struct {
	// quota is the byte ceiling, or Unlimited
	quota int64

	// root is the current root directory
	root *Directory

	// rootOpts are applied to every root directory the device creates
	rootOpts []Option

	// noSpace receives short-write notices
	noSpace NoSpaceHandler

	// metrics is never nil (no-op when disabled)
	metrics metrics.DeviceMetrics

	// trackUsage pushes usage to metrics after every size change
	trackUsage bool
}

// DeviceOption customizes a Device.
type DeviceOption func(*Device)

// WithRootOptions sets the options (owner, mode, clock) used to build the
// root directory.
func WithRootOptions(opts ...Option) DeviceOption {
	return func(d *Device) {
		d.rootOpts = opts
	}
}

// WithNoSpaceHandler replaces the default handler, which logs a warning.
func WithNoSpaceHandler(h NoSpaceHandler) DeviceOption {
	return func(d *Device) {
		d.noSpace = h
	}
}

// WithMetrics attaches a metrics collector. nil keeps the no-op collector.
func WithMetrics(m metrics.DeviceMetrics) DeviceOption {
	return func(d *Device) {
		if m != nil {
			d.metrics = m
			d.trackUsage = true
		}
	}
}

// NewDevice creates a device with the given quota in bytes. Any negative
// quota means Unlimited.
func NewDevice(quota int64, opts ...DeviceOption) *Device {
	d := &Device{
		quota:   normalizeQuota(quota),
		noSpace: LogNoSpace,
		metrics: metrics.NewNoopDeviceMetrics(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.root = newRootDirectory(d, d.rootOpts)
	d.metrics.SetUsage(0, d.quota)
	return d
}

func normalizeQuota(quota int64) int64 {
	if quota < 0 {
		return Unlimited
	}
	return quota
}

// Root returns the device's root directory.
func (d *Device) Root() *Directory { return d.root }

// Quota returns the byte ceiling, or Unlimited.
func (d *Device) Quota() int64 { return d.quota }

// IsUnlimited reports whether the device has no quota.
func (d *Device) IsUnlimited() bool { return d.quota == Unlimited }

// Used returns the aggregate size of the files below the root.
func (d *Device) Used() int64 { return d.root.Size() }

// SetQuota changes the byte ceiling. Shrinking it below the current usage
// fails with ErrInsufficientStorage carrying the requested quota as
// Available and the current usage as Required.
func (d *Device) SetQuota(quota int64) error {
	quota = normalizeQuota(quota)
	if quota != Unlimited {
		if used := d.Used(); quota < used {
			return newInsufficientStorage(quota, used)
		}
	}

	d.quota = quota
	d.ReportUsage()
	logger.Debug("vfs: device quota set to %d", quota)
	return nil
}

// AvailableSize returns the remaining capacity, or Unlimited. The result
// can be negative when seeks padded files past the quota.
func (d *Device) AvailableSize() int64 {
	if d.IsUnlimited() {
		return Unlimited
	}
	return d.quota - d.Used()
}

// CanFitBytes reports whether n more bytes fit on the device.
func (d *Device) CanFitBytes(n int64) bool {
	if d.IsUnlimited() {
		return true
	}
	return n <= d.AvailableSize()
}

// CanFitAsset reports whether asset's whole size fits on the device.
func (d *Device) CanFitAsset(asset Asset) bool {
	return d.CanFitBytes(asset.Size())
}

// ReportUsage pushes the current usage and quota to the metrics collector.
func (d *Device) ReportUsage() {
	d.metrics.SetUsage(d.Used(), d.quota)
}

// usageChanged is called by files and directories after any change that can
// alter the device's usage. Walking the tree is skipped without a collector.
func (d *Device) usageChanged() {
	if d.trackUsage {
		d.ReportUsage()
	}
}

// replaceRoot installs a fresh root. The old tree keeps its contents but no
// longer belongs to the device.
func (d *Device) replaceRoot() *Directory {
	if d.root != nil {
		d.root.device = nil
	}
	d.root = newRootDirectory(d, d.rootOpts)
	return d.root
}

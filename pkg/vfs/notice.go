package vfs

import "github.com/marmos91/dittovfs/internal/logger"

// NoSpaceNotice describes a write that did not fully fit on its device.
// It is a recoverable condition: the leading Written bytes were stored.
type NoSpaceNotice struct {
	File      *File
	Requested int64
	Written   int64
	Available int64
}

// NoSpaceHandler receives short-write notices from a Device.
type NoSpaceHandler func(NoSpaceNotice)

// LogNoSpace is the default handler. It logs the notice as a warning.
func LogNoSpace(n NoSpaceNotice) {
	logger.Warn("vfs: no space left on device writing %q: requested=%d written=%d available=%d",
		n.File.Name(), n.Requested, n.Written, n.Available)
}

func (d *Device) notifyNoSpace(n NoSpaceNotice) {
	d.metrics.RecordNoSpace()
	if d.noSpace != nil {
		d.noSpace(n)
	}
}

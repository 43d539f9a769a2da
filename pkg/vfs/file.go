package vfs

import (
	"io"
)

// File is a byte buffer with a cursor.
//
// The read/write enable flags and append mode are persistent per-file state,
// set by whoever currently has the file open (see Handle), rather than
// per-call parameters.
//
// Size Tracking:
// The buffer length is the file size. Seeking or truncating past the end pads
// the buffer with NUL bytes immediately. Truncate does not move the cursor,
// so the cursor may sit past the end until the next write pads the gap.
type File struct {
	node

	// contents holds the file bytes; len(contents) is the file size
	contents []byte

	// offset is the cursor used by Read and Write
	offset int64

	readEnabled  bool
	writeEnabled bool
	appendMode   bool

	// Advisory lock state, see lock.go
	exclusive     HolderID
	exclusiveHeld bool
	shared        map[HolderID]struct{}
}

// NewFile creates a detached file holding a copy of content, with mode
// DefaultFileMode and reading and writing enabled.
func NewFile(name string, content []byte, opts ...Option) (*File, error) {
	f := &File{
		readEnabled:  true,
		writeEnabled: true,
		shared:       make(map[HolderID]struct{}),
	}
	if err := f.init(f, name, DefaultFileMode, buildOptions(opts)); err != nil {
		return nil, err
	}
	f.contents = append([]byte(nil), content...)
	return f, nil
}

// Type returns TypeFile.
func (f *File) Type() AssetType { return TypeFile }

// Size returns the length of the buffer.
func (f *File) Size() int64 { return int64(len(f.contents)) }

// Contents returns a copy of the buffer.
func (f *File) Contents() []byte {
	return append([]byte(nil), f.contents...)
}

// SetContents replaces the buffer. The cursor is kept.
//
// When the file belongs to a device, growth beyond the available capacity
// fails with ErrInsufficientStorage and leaves the file untouched.
func (f *File) SetContents(content []byte) error {
	growth := int64(len(content)) - f.Size()
	if dev := f.Device(); dev != nil && growth > 0 && !dev.CanFitBytes(growth) {
		return newInsufficientStorage(dev.AvailableSize(), growth)
	}

	f.contents = append([]byte(nil), content...)
	f.mtime = f.now()
	f.usageChanged()
	return nil
}

// Offset returns the cursor position.
func (f *File) Offset() int64 { return f.offset }

func (f *File) ReadEnabled() bool       { return f.readEnabled }
func (f *File) SetReadEnabled(on bool)  { f.readEnabled = on }
func (f *File) WriteEnabled() bool      { return f.writeEnabled }
func (f *File) SetWriteEnabled(on bool) { f.writeEnabled = on }
func (f *File) AppendMode() bool        { return f.appendMode }
func (f *File) SetAppendMode(on bool)   { f.appendMode = on }

// ============================================================================
// Content Operations
// ============================================================================

// Read returns up to n bytes starting at the cursor and advances the cursor
// by the number of bytes returned.
//
// Reads are refused, returning nil with no side effects, while the file is in
// append mode or reading is disabled. Otherwise atime is updated even when
// nothing is left to read.
func (f *File) Read(n int) []byte {
	if f.appendMode || !f.readEnabled {
		return nil
	}
	if n < 0 {
		n = 0
	}

	size := f.Size()
	start := min(f.offset, size)
	end := min(start+int64(n), size)

	out := make([]byte, end-start)
	copy(out, f.contents[start:end])

	f.offset += end - start
	f.atime = f.now()
	return out
}

// EOF reports whether the cursor has reached the end. It is always false in
// append mode.
func (f *File) EOF() bool {
	return !f.appendMode && f.offset >= f.Size()
}

// Write overwrites bytes at the cursor and returns how many were written.
//
// Behaviour, in order:
//  1. write disabled: nothing happens and 0 is returned
//  2. append mode: the cursor jumps to the end, ignoring earlier seeks
//  3. cursor past the end (after a Truncate): the gap is NUL padded
//  4. data larger than the owning device's available capacity: only the
//     leading bytes that fit are written and the device's no-space handler
//     is notified, whether the write overwrites or extends the buffer
//  5. data is written over the buffer, growing it if needed, mtime is
//     updated and the cursor advances past the written bytes
func (f *File) Write(data []byte) int {
	if !f.writeEnabled {
		return 0
	}

	if f.appendMode {
		f.offset = f.Size()
	}

	if f.offset > f.Size() {
		f.pad(f.offset)
	}

	requested := int64(len(data))
	n := requested
	dev := f.Device()
	if dev != nil && !dev.CanFitBytes(n) {
		available := dev.AvailableSize()
		fit := max(available, 0)
		dev.notifyNoSpace(NoSpaceNotice{
			File:      f,
			Requested: requested,
			Written:   fit,
			Available: available,
		})
		n = fit
		data = data[:n]
	}

	f.mtime = f.now()

	end := f.offset + n
	if end > f.Size() {
		f.pad(end)
	}
	copy(f.contents[f.offset:end], data)
	f.offset = end

	if dev != nil {
		dev.metrics.RecordWrite(requested, n)
		dev.usageChanged()
	}
	return int(n)
}

// Truncate resizes the buffer, NUL padding when growing. The cursor is
// left where it is. It returns false when writing is disabled
// or size is negative.
func (f *File) Truncate(size int64) bool {
	if !f.writeEnabled || size < 0 {
		return false
	}

	if size > f.Size() {
		f.pad(size)
	} else {
		f.contents = f.contents[:size]
	}
	f.mtime = f.now()
	f.usageChanged()
	return true
}

// Seek moves the cursor. whence is one of io.SeekStart, io.SeekCurrent or
// io.SeekEnd; anything else fails with ErrInvalidWhence.
//
// Seeking is refused (false, nil) in append mode and when the resulting
// offset would be negative. Seeking past the end NUL pads the buffer up to
// the new offset and updates mtime.
func (f *File) Seek(offset int64, whence int) (bool, error) {
	if f.appendMode {
		return false, nil
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = f.offset + offset
	case io.SeekEnd:
		target = f.Size() + offset
	default:
		return false, &Error{Code: ErrInvalidWhence, Message: "invalid whence", Name: f.name}
	}

	if target < 0 {
		return false, nil
	}

	if target > f.Size() {
		f.pad(target)
		f.mtime = f.now()
		f.usageChanged()
	}
	f.offset = target
	return true, nil
}

// Rewind moves the cursor to the start.
func (f *File) Rewind() bool {
	ok, _ := f.Seek(0, io.SeekStart)
	return ok
}

// Forward moves the cursor to the end.
func (f *File) Forward() bool {
	ok, _ := f.Seek(0, io.SeekEnd)
	return ok
}

// usageChanged refreshes the owning device's usage gauges.
func (f *File) usageChanged() {
	if dev := f.Device(); dev != nil {
		dev.usageChanged()
	}
}

// pad grows the buffer to size with NUL bytes.
func (f *File) pad(size int64) {
	if grow := size - f.Size(); grow > 0 {
		f.contents = append(f.contents, make([]byte, grow)...)
	}
}

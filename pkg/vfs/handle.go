package vfs

import (
	"errors"
	"io"
	"io/fs"

	"github.com/google/uuid"
)

// OpenFlag selects how a Handle uses its file.
type OpenFlag int

const (
	OpenRead OpenFlag = 1 << iota
	OpenWrite
	OpenAppend
	OpenTruncate
)

var (
	// ErrNotReadable is returned by Handle.Read on handles opened without
	// OpenRead, or in append mode.
	ErrNotReadable = errors.New("vfs: handle not open for reading")

	// ErrNotWritable is returned by Handle.Write on handles opened without
	// OpenWrite or OpenAppend.
	ErrNotWritable = errors.New("vfs: handle not open for writing")

	// ErrSeekRefused is returned by Handle.Seek in append mode or when the
	// target offset is negative.
	ErrSeekRefused = errors.New("vfs: seek refused")
)

// Handle is an open stream over a File. It implements io.Reader, io.Writer,
// io.Seeker and io.Closer, and owns a HolderID for advisory locking.
//
// A file's mode flags and cursor are shared state. Every Handle call loads
// the handle's own flags and offset into the file before touching it and
// saves the cursor back afterwards, so interleaved handles on the same file
// behave as independently opened streams.
type Handle struct {
	file   *File
	id     HolderID
	flags  OpenFlag
	offset int64
	closed bool
}

var (
	_ io.ReadWriteSeeker = (*Handle)(nil)
	_ io.Closer          = (*Handle)(nil)
)

// Open returns a new handle on f. OpenTruncate empties writable files. The
// handle's cursor starts at 0 (or at the end in append mode); cursors of
// other handles on f are not affected.
func Open(f *File, flags OpenFlag) *Handle {
	h := &Handle{
		file:  f,
		id:    HolderID(uuid.NewString()),
		flags: flags,
	}

	if flags&OpenTruncate != 0 {
		h.activate()
		f.Truncate(0)
	}
	if flags&OpenAppend != 0 {
		h.offset = f.Size()
	}
	return h
}

// ID returns the handle's lock holder id.
func (h *Handle) ID() HolderID { return h.id }

// File returns the underlying file.
func (h *Handle) File() *File { return h.file }

// Offset returns the handle's own cursor position.
func (h *Handle) Offset() int64 { return h.offset }

func (h *Handle) activate() {
	h.file.SetReadEnabled(h.flags&OpenRead != 0)
	h.file.SetWriteEnabled(h.flags&(OpenWrite|OpenAppend) != 0)
	h.file.SetAppendMode(h.flags&OpenAppend != 0)
	h.file.offset = h.offset
}

// save records the file cursor as the handle's own.
func (h *Handle) save() {
	h.offset = h.file.Offset()
}

// Read implements io.Reader.
func (h *Handle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, fs.ErrClosed
	}
	h.activate()

	if !h.file.ReadEnabled() || h.file.AppendMode() {
		return 0, ErrNotReadable
	}
	if len(p) == 0 {
		return 0, nil
	}

	data := h.file.Read(len(p))
	h.save()
	if len(data) == 0 {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

// Write implements io.Writer. A write cut short by the device quota returns
// io.ErrShortWrite alongside the number of bytes stored.
func (h *Handle) Write(p []byte) (int, error) {
	if h.closed {
		return 0, fs.ErrClosed
	}
	h.activate()

	if !h.file.WriteEnabled() {
		return 0, ErrNotWritable
	}

	n := h.file.Write(p)
	h.save()
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Seek implements io.Seeker.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	if h.closed {
		return 0, fs.ErrClosed
	}
	h.activate()

	ok, err := h.file.Seek(offset, whence)
	h.save()
	if err != nil {
		return h.offset, err
	}
	if !ok {
		return h.offset, ErrSeekRefused
	}
	return h.offset, nil
}

// Lock applies op on the file on behalf of this handle.
func (h *Handle) Lock(op LockOp) bool {
	if h.closed {
		return false
	}
	return h.file.Lock(h.id, op)
}

// Close releases the handle's lock. Closing twice returns fs.ErrClosed.
func (h *Handle) Close() error {
	if h.closed {
		return fs.ErrClosed
	}
	h.file.Unlock(h.id)
	h.closed = true
	return nil
}

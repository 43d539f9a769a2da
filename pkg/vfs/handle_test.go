package vfs

import (
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle(t *testing.T) {
	t.Run("ReadAll", func(t *testing.T) {
		f := mustFile(t, "f", "hello world")
		h := Open(f, OpenRead)
		defer h.Close()

		data, err := io.ReadAll(h)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello world"), data)
	})

	t.Run("WriteRequiresFlag", func(t *testing.T) {
		f := mustFile(t, "f", "abc")
		h := Open(f, OpenRead)

		_, err := h.Write([]byte("x"))
		assert.ErrorIs(t, err, ErrNotWritable)
		assert.Equal(t, []byte("abc"), f.Contents())
	})

	t.Run("ReadRequiresFlag", func(t *testing.T) {
		h := Open(mustFile(t, "f", "abc"), OpenWrite)
		_, err := h.Read(make([]byte, 3))
		assert.ErrorIs(t, err, ErrNotReadable)
	})

	t.Run("Truncate", func(t *testing.T) {
		f := mustFile(t, "f", "abc")
		h := Open(f, OpenWrite|OpenTruncate)

		n, err := h.Write([]byte("xy"))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []byte("xy"), f.Contents())
	})

	t.Run("AppendRefusesSeek", func(t *testing.T) {
		f := mustFile(t, "f", "content")
		h := Open(f, OpenAppend)

		_, err := h.Seek(0, io.SeekStart)
		assert.ErrorIs(t, err, ErrSeekRefused)

		_, err = io.WriteString(h, "some data")
		require.NoError(t, err)
		assert.Equal(t, []byte("contentsome data"), f.Contents())
	})

	t.Run("Seek", func(t *testing.T) {
		h := Open(mustFile(t, "f", "0123456789"), OpenRead)

		pos, err := h.Seek(-4, io.SeekEnd)
		require.NoError(t, err)
		assert.Equal(t, int64(6), pos)

		buf := make([]byte, 2)
		n, err := h.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "67", string(buf[:n]))

		_, err = h.Seek(0, 99)
		assert.ErrorIs(t, err, ErrWhence)
	})

	t.Run("InterleavedHandles", func(t *testing.T) {
		f := mustFile(t, "f", "abc")
		reader := Open(f, OpenRead)
		appender := Open(f, OpenAppend)

		_, err := appender.Write([]byte("def"))
		require.NoError(t, err)

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, []byte("abcdef"), data)
	})

	t.Run("IndependentCursors", func(t *testing.T) {
		f := mustFile(t, "f", "abcdef")
		first := Open(f, OpenRead)

		buf := make([]byte, 3)
		n, err := first.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(buf[:n]))

		second := Open(f, OpenRead)
		n, err = second.Read(buf[:2])
		require.NoError(t, err)
		assert.Equal(t, "ab", string(buf[:n]))

		n, err = first.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "def", string(buf[:n]))
		assert.Equal(t, int64(6), first.Offset())

		rest, err := io.ReadAll(second)
		require.NoError(t, err)
		assert.Equal(t, []byte("cdef"), rest)
	})

	t.Run("WriterDoesNotMoveReader", func(t *testing.T) {
		f := mustFile(t, "f", "abcdef")
		reader := Open(f, OpenRead)
		_, err := reader.Seek(4, io.SeekStart)
		require.NoError(t, err)

		writer := Open(f, OpenWrite)
		_, err = io.WriteString(writer, "XY")
		require.NoError(t, err)
		assert.Equal(t, int64(2), writer.Offset())

		rest, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, []byte("ef"), rest)
		assert.Equal(t, []byte("XYcdef"), f.Contents())
	})

	t.Run("ShortWrite", func(t *testing.T) {
		dev := NewDevice(4, WithNoSpaceHandler(nil))
		f := mustFile(t, "f", "")
		require.NoError(t, dev.Root().AddChild(f))

		n, err := Open(f, OpenWrite).Write([]byte("abcdef"))
		assert.ErrorIs(t, err, io.ErrShortWrite)
		assert.Equal(t, 4, n)
	})

	t.Run("CloseReleasesLock", func(t *testing.T) {
		f := mustFile(t, "f", "")
		a := Open(f, OpenRead)
		b := Open(f, OpenRead)
		assert.NotEqual(t, a.ID(), b.ID())
		assert.Same(t, f, a.File())

		require.True(t, a.Lock(LockExclusive))
		assert.False(t, b.Lock(LockShared))

		require.NoError(t, a.Close())
		assert.False(t, f.IsLocked())
		assert.True(t, b.Lock(LockShared))

		assert.ErrorIs(t, a.Close(), fs.ErrClosed)
		assert.False(t, a.Lock(LockShared))
		_, err := a.Read(make([]byte, 1))
		assert.ErrorIs(t, err, fs.ErrClosed)
	})
}

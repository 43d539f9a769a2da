package vfs

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSourceFs(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/src/sub/deeper", 0750))
	require.NoError(t, fsys.MkdirAll("/src/empty", 0700))
	require.NoError(t, afero.WriteFile(fsys, "/src/a.txt", []byte("hello"), 0640))
	require.NoError(t, afero.WriteFile(fsys, "/src/sub/b.txt", []byte("world!"), 0600))
	require.NoError(t, afero.WriteFile(fsys, "/src/sub/deeper/c.bin", []byte{0, 1, 2}, 0644))
	return fsys
}

func TestBuildFromDirectory(t *testing.T) {
	t.Run("StructureOnly", func(t *testing.T) {
		dev := NewDevice(Unlimited)
		require.NoError(t, dev.BuildFromDirectory(newSourceFs(t), "/src", false))

		root := dev.Root()
		assert.True(t, root.HasDirectory("sub"))
		assert.True(t, root.HasDirectory("empty"))
		assert.True(t, root.HasFile("a.txt"))

		b, err := root.Resolve("sub/b.txt")
		require.NoError(t, err)
		assert.Equal(t, int64(0), b.Size())
		assert.Equal(t, int64(0), dev.Used())
	})

	t.Run("WithContents", func(t *testing.T) {
		dev := NewDevice(Unlimited)
		require.NoError(t, dev.BuildFromDirectory(newSourceFs(t), "/src", true))

		c, err := dev.Root().Resolve("sub/deeper/c.bin")
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 1, 2}, c.(*File).Contents())
		assert.Equal(t, int64(14), dev.Used())
	})

	t.Run("CopiesPermissions", func(t *testing.T) {
		dev := NewDevice(Unlimited)
		require.NoError(t, dev.BuildFromDirectory(newSourceFs(t), "/src", false))

		root := dev.Root()
		assert.Equal(t, uint32(0640), root.GetFile("a.txt").Mode())
		assert.Equal(t, uint32(0750), root.GetDirectory("sub").Mode())
		assert.Equal(t, uint32(0700), root.GetDirectory("empty").Mode())
	})

	t.Run("DirectoriesFirst", func(t *testing.T) {
		dev := NewDevice(Unlimited)
		require.NoError(t, dev.BuildFromDirectory(newSourceFs(t), "/src", false))

		var kinds []AssetType
		for _, child := range dev.Root().Children() {
			kinds = append(kinds, child.Type())
		}
		assert.Equal(t, []AssetType{TypeDirectory, TypeDirectory, TypeFile}, kinds)
	})

	t.Run("ReplacesRoot", func(t *testing.T) {
		dev := NewDevice(Unlimited)
		old := dev.Root()
		require.NoError(t, old.AddChild(mustFile(t, "stale", "x")))

		require.NoError(t, dev.BuildFromDirectory(newSourceFs(t), "/src", false))
		assert.NotSame(t, old, dev.Root())
		assert.False(t, dev.Root().HasChild("stale"))
		assert.Nil(t, old.Device())
	})

	t.Run("MissingPath", func(t *testing.T) {
		dev := NewDevice(Unlimited)
		root := dev.Root()

		err := dev.BuildFromDirectory(newSourceFs(t), "/nope", false)
		assert.ErrorIs(t, err, ErrPath)
		assert.Same(t, root, dev.Root())
	})

	t.Run("NotADirectory", func(t *testing.T) {
		dev := NewDevice(Unlimited)
		err := dev.BuildFromDirectory(newSourceFs(t), "/src/a.txt", false)
		assert.ErrorIs(t, err, ErrPath)
		assert.Equal(t, ErrInvalidPath, CodeOf(err))
	})

	t.Run("QuotaFailuresAggregated", func(t *testing.T) {
		dev := NewDevice(6)
		err := dev.BuildFromDirectory(newSourceFs(t), "/src", true)
		require.Error(t, err)

		var merr *multierror.Error
		require.ErrorAs(t, err, &merr)
		assert.NotEmpty(t, merr.Errors)
		assert.ErrorIs(t, err, ErrNoSpace)

		// Partial import stays within the quota
		assert.LessOrEqual(t, dev.Used(), int64(6))
		assert.True(t, dev.Root().HasDirectory("sub"))
	})
}

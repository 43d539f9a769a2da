package vfs

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDir(t *testing.T, name string) *Directory {
	t.Helper()
	d, err := NewDirectory(name)
	require.NoError(t, err)
	return d
}

func mustFile(t *testing.T, name, content string) *File {
	t.Helper()
	f, err := NewFile(name, []byte(content))
	require.NoError(t, err)
	return f
}

// ============================================================================
// AddChild / RemoveChild
// ============================================================================

func TestAddChild(t *testing.T) {
	t.Run("LinksBothWays", func(t *testing.T) {
		dir := mustDir(t, "dir")
		f := mustFile(t, "f", "")
		require.NoError(t, dir.AddChild(f))

		assert.Same(t, dir, f.Parent())
		assert.True(t, dir.HasChild("f"))
		assert.True(t, dir.HasFile("f"))
		assert.False(t, dir.HasDirectory("f"))
		assert.True(t, dir.HasAsset(f))
		assert.Same(t, f, dir.GetChild("f"))
	})

	t.Run("Idempotent", func(t *testing.T) {
		dir := mustDir(t, "dir")
		f := mustFile(t, "f", "")
		require.NoError(t, dir.AddChild(f))
		require.NoError(t, dir.AddChild(f))

		assert.Len(t, dir.Children(), 1)
		assert.Same(t, dir, f.Parent())
	})

	t.Run("DuplicateName", func(t *testing.T) {
		dir := mustDir(t, "dir")
		require.NoError(t, dir.AddChild(mustFile(t, "f", "")))

		other := mustDir(t, "f")
		err := dir.AddChild(other)
		assert.ErrorIs(t, err, ErrNameTaken)
		assert.Nil(t, other.Parent())
		assert.Len(t, dir.Children(), 1)
	})

	t.Run("MovesBetweenParents", func(t *testing.T) {
		a := mustDir(t, "a")
		b := mustDir(t, "b")
		f := mustFile(t, "f", "")
		require.NoError(t, a.AddChild(f))
		require.NoError(t, b.AddChild(f))

		assert.False(t, a.HasChild("f"))
		assert.True(t, b.HasAsset(f))
		assert.Same(t, b, f.Parent())
	})

	t.Run("FailedMoveKeepsOldParent", func(t *testing.T) {
		a := mustDir(t, "a")
		b := mustDir(t, "b")
		f := mustFile(t, "f", "")
		require.NoError(t, a.AddChild(f))
		require.NoError(t, b.AddChild(mustFile(t, "f", "")))

		assert.ErrorIs(t, b.AddChild(f), ErrNameTaken)
		assert.Same(t, a, f.Parent())
		assert.True(t, a.HasAsset(f))
	})

	t.Run("RejectsCycles", func(t *testing.T) {
		a := mustDir(t, "a")
		b := mustDir(t, "b")
		c := mustDir(t, "c")
		require.NoError(t, a.AddChild(b))
		require.NoError(t, b.AddChild(c))

		assert.ErrorIs(t, c.AddChild(a), ErrCycle)
		assert.ErrorIs(t, a.AddChild(a), ErrCycle)
		assert.Nil(t, a.Parent())
	})

	t.Run("RejectsRoot", func(t *testing.T) {
		dev := NewDevice(Unlimited)
		dir := mustDir(t, "dir")
		assert.ErrorIs(t, dir.AddChild(dev.Root()), ErrRootCannotBeChanged)
		assert.Nil(t, dev.Root().Parent())
	})

	t.Run("PreservesInsertionOrder", func(t *testing.T) {
		dir := mustDir(t, "dir")
		c := mustFile(t, "c", "")
		a := mustFile(t, "a", "")
		b := mustDir(t, "b")
		for _, asset := range []Asset{c, a, b} {
			require.NoError(t, dir.AddChild(asset))
		}
		assert.Equal(t, []Asset{c, a, b}, dir.Children())
	})
}

func TestRemoveChild(t *testing.T) {
	dir := mustDir(t, "dir")
	a := mustFile(t, "a", "")
	b := mustFile(t, "b", "")
	c := mustFile(t, "c", "")
	for _, f := range []*File{a, b, c} {
		require.NoError(t, dir.AddChild(f))
	}

	require.NoError(t, dir.RemoveChild("b"))
	assert.Nil(t, b.Parent())
	assert.Equal(t, []Asset{a, c}, dir.Children())

	err := dir.RemoveChild("b")
	require.ErrorIs(t, err, ErrNotFound)

	var vfsErr *Error
	require.ErrorAs(t, err, &vfsErr)
	assert.Equal(t, "b", vfsErr.Name)
}

// ============================================================================
// Lookup
// ============================================================================

func TestTypedLookup(t *testing.T) {
	dir := mustDir(t, "dir")
	f := mustFile(t, "f", "")
	sub := mustDir(t, "sub")
	require.NoError(t, dir.AddChild(f))
	require.NoError(t, dir.AddChild(sub))

	assert.Same(t, f, dir.GetFile("f"))
	assert.Nil(t, dir.GetFile("sub"))
	assert.Same(t, sub, dir.GetDirectory("sub"))
	assert.Nil(t, dir.GetDirectory("f"))
	assert.Nil(t, dir.GetChild("missing"))
	assert.False(t, dir.HasChild("missing"))

	stranger := mustFile(t, "f", "")
	assert.False(t, dir.HasAsset(stranger))
}

func TestDirectorySize(t *testing.T) {
	dir := mustDir(t, "dir")
	sub := mustDir(t, "sub")
	require.NoError(t, dir.AddChild(mustFile(t, "a", "12345")))
	require.NoError(t, dir.AddChild(sub))
	require.NoError(t, sub.AddChild(mustFile(t, "b", "123")))

	assert.Equal(t, int64(8), dir.Size())
	assert.Equal(t, int64(3), sub.Size())

	require.NoError(t, sub.GetFile("b").SetContents([]byte("1234567")))
	assert.Equal(t, int64(12), dir.Size())
}

// ============================================================================
// Paths
// ============================================================================

func TestResolve(t *testing.T) {
	dir := mustDir(t, "dir")
	sub, err := dir.MkdirAll("a/b")
	require.NoError(t, err)
	f := mustFile(t, "f", "")
	require.NoError(t, sub.AddChild(f))

	got, err := dir.Resolve("a/b/f")
	require.NoError(t, err)
	assert.Same(t, f, got)

	got, err = dir.Resolve("./a//b/../b/f")
	require.NoError(t, err)
	assert.Same(t, f, got)

	got, err = dir.Resolve("")
	require.NoError(t, err)
	assert.Same(t, dir, got)

	got, err = dir.Resolve("../..")
	require.NoError(t, err)
	assert.Same(t, dir, got)

	_, err = dir.Resolve("a/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = dir.Resolve("a/b/f/x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMkdirAll(t *testing.T) {
	dir := mustDir(t, "dir")

	leaf, err := dir.MkdirAll("a/b/c", WithMode(0700))
	require.NoError(t, err)
	assert.Equal(t, "c", leaf.Name())
	assert.Equal(t, uint32(0700), leaf.Mode())

	again, err := dir.MkdirAll("/a/b/c/")
	require.NoError(t, err)
	assert.Same(t, leaf, again)

	require.NoError(t, leaf.AddChild(mustFile(t, "f", "")))
	_, err = dir.MkdirAll("a/b/c/f/g")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestWalk(t *testing.T) {
	dir := mustDir(t, "dir")
	_, err := dir.MkdirAll("b/inner")
	require.NoError(t, err)
	require.NoError(t, dir.AddChild(mustFile(t, "c", "")))
	require.NoError(t, dir.AddChild(mustFile(t, "a", "")))
	require.NoError(t, dir.GetDirectory("b").AddChild(mustFile(t, "x", "")))

	t.Run("SortedDepthFirst", func(t *testing.T) {
		var paths []string
		err := dir.Walk(func(path string, _ Asset) error {
			paths = append(paths, path)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "b/inner", "b/x", "c"}, paths)
	})

	t.Run("SkipDir", func(t *testing.T) {
		var paths []string
		err := dir.Walk(func(path string, asset Asset) error {
			paths = append(paths, path)
			if asset.Type() == TypeDirectory {
				return fs.SkipDir
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, paths)
	})

	t.Run("StopsOnError", func(t *testing.T) {
		var paths []string
		err := dir.Walk(func(path string, _ Asset) error {
			paths = append(paths, path)
			if path == "b/inner" {
				return assert.AnError
			}
			return nil
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, []string{"a", "b", "b/inner"}, paths)
	})
}

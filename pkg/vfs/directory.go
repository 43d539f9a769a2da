package vfs

import (
	"errors"
	"io/fs"
	"sort"
	"strings"

	"github.com/marmos91/dittovfs/internal/logger"
)

// RootName is the fixed name of every root directory. It contains the
// separator, so no ordinary asset can ever share it.
const RootName = "/"

// Directory is an ordered container of uniquely named assets.
//
// Children keep their insertion order for iteration (Children) while
// rendering and walking present them sorted by name.
//
// A Directory created by a Device is that device's root: its name is
// RootName, it never has a parent, and it cannot be renamed or attached
// anywhere.
type Directory struct {
	node

	// children in insertion order
	children []Asset

	// root marks a device root directory
	root bool

	// device is the owning device of a root directory. It is cleared when the
	// device replaces its root, which detaches the old tree from the quota.
	device *Device
}

// NewDirectory creates a detached directory with mode DefaultDirectoryMode.
func NewDirectory(name string, opts ...Option) (*Directory, error) {
	d := &Directory{}
	if err := d.init(d, name, DefaultDirectoryMode, buildOptions(opts)); err != nil {
		return nil, err
	}
	return d, nil
}

func newRootDirectory(dev *Device, opts []Option) *Directory {
	d := &Directory{root: true, device: dev}
	// init validates names, so the root is initialized under a placeholder.
	_ = d.init(d, "root", DefaultDirectoryMode, buildOptions(opts))
	d.name = RootName
	return d
}

// Type returns TypeDirectory.
func (d *Directory) Type() AssetType { return TypeDirectory }

// IsRoot reports whether d is a device root directory.
func (d *Directory) IsRoot() bool { return d.root }

// Size returns the recursive sum of the sizes of all files below d.
// It is recomputed on every call.
func (d *Directory) Size() int64 {
	var total int64
	for _, child := range d.children {
		total += child.Size()
	}
	return total
}

// ============================================================================
// Structural Operations
// ============================================================================

// AddChild inserts asset into d, moving it out of any current parent.
//
// Adding an asset that is already a direct child is a no-op. Otherwise the
// checks run in this order:
//  1. asset must not be a root directory (ErrRootImmutable)
//  2. asset must not be d or one of d's ancestors (ErrCyclicTree)
//  3. the owning device must be able to fit the asset's whole size
//     (ErrInsufficientStorage), even when the asset already lives on it
//  4. no other child may share the asset's name (ErrDuplicateName)
func (d *Directory) AddChild(asset Asset) error {
	if asset.Parent() == d {
		return nil
	}

	if sub, ok := asset.(*Directory); ok {
		if sub.IsRoot() {
			return &Error{Code: ErrRootImmutable, Message: "root directory cannot be attached", Name: sub.Name()}
		}
		if sub.isAncestorOf(d) {
			return &Error{
				Code:    ErrCyclicTree,
				Message: "directory cannot be moved below itself",
				Name:    sub.Name(),
				Parent:  d.Name(),
			}
		}
	}

	dev := d.Device()
	if dev != nil && !dev.CanFitAsset(asset) {
		return newInsufficientStorage(dev.AvailableSize(), asset.Size())
	}

	if existing := d.GetChild(asset.Name()); existing != nil {
		return newDuplicateName(d, asset.Name())
	}

	if err := asset.base().attach(d); err != nil {
		return err
	}
	d.children = append(d.children, asset)
	if dev != nil {
		dev.usageChanged()
	}

	logger.Debug("vfs: added %s %q to %q", asset.Type(), asset.Name(), d.Name())
	return nil
}

// RemoveChild detaches the child called name, keeping the relative order of
// the remaining children.
func (d *Directory) RemoveChild(name string) error {
	child := d.GetChild(name)
	if child == nil {
		return newUnknownAsset(d, name)
	}

	child.Detach()

	logger.Debug("vfs: removed %s %q from %q", child.Type(), name, d.Name())
	return nil
}

// removeAsset drops asset from the children list by identity.
func (d *Directory) removeAsset(asset Asset) {
	for i, child := range d.children {
		if child == asset {
			d.children = append(d.children[:i], d.children[i+1:]...)
			return
		}
	}
}

// isAncestorOf reports whether d is other or one of other's ancestors.
func (d *Directory) isAncestorOf(other *Directory) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == d {
			return true
		}
	}
	return false
}

// ============================================================================
// Lookup
// ============================================================================

// GetChild returns the direct child called name, or nil.
func (d *Directory) GetChild(name string) Asset {
	for _, child := range d.children {
		if child.Name() == name {
			return child
		}
	}
	return nil
}

// GetFile returns the direct child called name if it is a file, or nil.
func (d *Directory) GetFile(name string) *File {
	f, _ := d.GetChild(name).(*File)
	return f
}

// GetDirectory returns the direct child called name if it is a directory, or nil.
func (d *Directory) GetDirectory(name string) *Directory {
	sub, _ := d.GetChild(name).(*Directory)
	return sub
}

func (d *Directory) HasChild(name string) bool {
	return d.GetChild(name) != nil
}

func (d *Directory) HasFile(name string) bool {
	return d.GetFile(name) != nil
}

func (d *Directory) HasDirectory(name string) bool {
	return d.GetDirectory(name) != nil
}

// HasAsset reports whether asset is a direct child of d, by identity.
func (d *Directory) HasAsset(asset Asset) bool {
	for _, child := range d.children {
		if child == asset {
			return true
		}
	}
	return false
}

// Children returns a snapshot of the direct children in insertion order.
func (d *Directory) Children() []Asset {
	out := make([]Asset, len(d.children))
	copy(out, d.children)
	return out
}

// sortedChildren returns a snapshot of the direct children ordered by name.
func (d *Directory) sortedChildren() []Asset {
	out := d.Children()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}

// ============================================================================
// Path Helpers
// ============================================================================

// splitPath breaks a slash-separated relative path into its elements,
// dropping empty and "." elements.
func splitPath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, string(Separator)) {
		if part == "" || part == "." {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

// Resolve looks up a slash-separated path relative to d. ".." moves to the
// parent and stops at the top of the tree. An empty path resolves to d.
func (d *Directory) Resolve(path string) (Asset, error) {
	var cur Asset = d
	for _, part := range splitPath(path) {
		dir, ok := cur.(*Directory)
		if !ok {
			return nil, newUnknownAsset(nil, path)
		}

		if part == ".." {
			if dir.parent != nil {
				cur = dir.parent
			}
			continue
		}

		next := dir.GetChild(part)
		if next == nil {
			return nil, newUnknownAsset(dir, part)
		}
		cur = next
	}
	return cur, nil
}

// MkdirAll creates every missing directory along path below d and returns
// the last one. opts apply to the directories it creates.
func (d *Directory) MkdirAll(path string, opts ...Option) (*Directory, error) {
	cur := d
	for _, part := range splitPath(path) {
		existing := cur.GetChild(part)
		if existing == nil {
			sub, err := NewDirectory(part, opts...)
			if err != nil {
				return nil, err
			}
			if err := cur.AddChild(sub); err != nil {
				return nil, err
			}
			cur = sub
			continue
		}

		sub, ok := existing.(*Directory)
		if !ok {
			return nil, newDuplicateName(cur, part)
		}
		cur = sub
	}
	return cur, nil
}

// WalkFunc is called for every asset below the walked directory. path is
// relative to that directory. Returning fs.SkipDir from a directory skips its
// contents; any other error stops the walk.
type WalkFunc func(path string, asset Asset) error

// Walk visits every descendant of d depth-first, siblings sorted by name.
func (d *Directory) Walk(fn WalkFunc) error {
	err := d.walk("", fn)
	if errors.Is(err, fs.SkipDir) {
		return nil
	}
	return err
}

func (d *Directory) walk(prefix string, fn WalkFunc) error {
	for _, child := range d.sortedChildren() {
		path := child.Name()
		if prefix != "" {
			path = prefix + string(Separator) + path
		}

		err := fn(path, child)
		sub, isDir := child.(*Directory)
		if err != nil {
			if isDir && errors.Is(err, fs.SkipDir) {
				continue
			}
			return err
		}

		if isDir {
			if err := sub.walk(path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

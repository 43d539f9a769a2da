// Package vfs implements an in-memory hierarchical filesystem emulator.
//
// The package gives test code filesystem-like objects without touching real
// storage:
//   - Directory: an ordered container of uniquely named children
//   - File: a byte buffer with a cursor, mode flags and advisory locks
//   - Device: a capacity-limited volume owning a single root directory
//
// Thread Safety:
// The tree is single-threaded by contract. Every operation runs to completion
// on the caller's goroutine and no internal synchronization is performed.
// Advisory locks are bookkeeping only and never touch OS primitives.
//
// Identity:
// The package never reads ambient user state. The owner of a new asset is
// passed explicitly with WithOwner, and permission checks take uid/gid
// parameters.
package vfs

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Separator is the path separator; it may never appear in an asset name.
const Separator = '/'

// AssetType identifies the concrete kind of an Asset.
type AssetType int

const (
	TypeFile AssetType = iota + 1
	TypeDirectory
)

func (t AssetType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Default permission bits applied at construction.
const (
	DefaultFileMode      uint32 = 0644
	DefaultDirectoryMode uint32 = 0777
)

// Identity is a uid/gid pair. The zero value is the superuser.
type Identity struct {
	UID int
	GID int
}

// Asset is any node of the tree. It is implemented only by *File and
// *Directory.
type Asset interface {
	ID() uuid.UUID
	Name() string
	SetName(name string) error
	Type() AssetType
	Size() int64

	Mode() uint32
	SetMode(mode uint32)
	UID() int
	SetUID(uid int)
	GID() int
	SetGID(gid int)

	LastAccessed() int64
	LastModified() int64
	MetadataModified() int64
	UpdateLastAccessed(ts int64)
	UpdateLastModified(ts int64)
	UpdateMetadataModified(ts int64)

	Parent() *Directory
	Detach()
	Device() *Device

	IsReadable(uid, gid int) bool
	IsWritable(uid, gid int) bool
	IsExecutable(uid, gid int) bool
	IsOwnedByUser(uid int) bool

	base() *node
}

// Option customizes a newly constructed asset.
type Option func(*options)

type options struct {
	owner Identity
	mode  *uint32
	clock func() time.Time
}

// WithOwner sets the uid/gid captured at construction.
func WithOwner(id Identity) Option {
	return func(o *options) {
		o.owner = id
	}
}

// WithMode overrides the type's default permission bits.
func WithMode(mode uint32) Option {
	return func(o *options) {
		o.mode = &mode
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	return o
}

// node holds the state shared by files and directories.
type node struct {
	self   Asset
	id     uuid.UUID
	name   string
	uid    int
	gid    int
	mode   uint32
	atime  int64
	mtime  int64
	ctime  int64
	parent *Directory
	clock  func() time.Time
}

func (n *node) init(self Asset, name string, defaultMode uint32, o options) error {
	name, err := validateName(name)
	if err != nil {
		return err
	}

	now := o.clock().Unix()

	n.self = self
	n.id = uuid.New()
	n.name = name
	n.uid = o.owner.UID
	n.gid = o.owner.GID
	n.mode = defaultMode
	if o.mode != nil {
		n.mode = *o.mode
	}
	n.atime = now
	n.mtime = now
	n.ctime = now
	n.clock = o.clock
	return nil
}

// validateName trims surrounding whitespace and rejects empty names and names
// containing the separator.
func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.ContainsRune(trimmed, Separator) {
		return "", newNameError(name)
	}
	return trimmed, nil
}

func (n *node) base() *node { return n }

func (n *node) now() int64 { return n.clock().Unix() }

// ID returns the stable identity of the asset.
func (n *node) ID() uuid.UUID { return n.id }

// Name returns the asset's name.
func (n *node) Name() string { return n.name }

// SetName renames the asset in place.
//
// The name is trimmed first. Renaming fails with ErrInvalidName for empty or
// separator-containing names and with ErrDuplicateName when a sibling already
// uses the name.
func (n *node) SetName(name string) error {
	if d, ok := n.self.(*Directory); ok && d.IsRoot() {
		return &Error{Code: ErrRootImmutable, Message: "root directory cannot be renamed", Name: n.name}
	}

	name, err := validateName(name)
	if err != nil {
		return err
	}

	if n.parent != nil {
		if sibling := n.parent.GetChild(name); sibling != nil && sibling != n.self {
			return newDuplicateName(n.parent, name)
		}
	}

	n.name = name
	return nil
}

func (n *node) Mode() uint32 { return n.mode }

// SetMode replaces the permission bits and bumps the metadata timestamp.
func (n *node) SetMode(mode uint32) {
	n.mode = mode
	n.ctime = n.now()
}

func (n *node) UID() int { return n.uid }

// SetUID changes the owner and bumps the metadata timestamp.
func (n *node) SetUID(uid int) {
	n.uid = uid
	n.ctime = n.now()
}

func (n *node) GID() int { return n.gid }

// SetGID changes the group and bumps the metadata timestamp.
func (n *node) SetGID(gid int) {
	n.gid = gid
	n.ctime = n.now()
}

func (n *node) LastAccessed() int64     { return n.atime }
func (n *node) LastModified() int64     { return n.mtime }
func (n *node) MetadataModified() int64 { return n.ctime }

// UpdateLastAccessed sets atime; a zero ts means now.
func (n *node) UpdateLastAccessed(ts int64) { n.atime = n.stamp(ts) }

// UpdateLastModified sets mtime; a zero ts means now.
func (n *node) UpdateLastModified(ts int64) { n.mtime = n.stamp(ts) }

// UpdateMetadataModified sets ctime; a zero ts means now.
func (n *node) UpdateMetadataModified(ts int64) { n.ctime = n.stamp(ts) }

func (n *node) stamp(ts int64) int64 {
	if ts == 0 {
		return n.now()
	}
	return ts
}

// Parent returns the containing directory, or nil for detached assets and roots.
func (n *node) Parent() *Directory { return n.parent }

// Detach removes the asset from its parent. It is a no-op for detached assets.
func (n *node) Detach() {
	if n.parent == nil {
		return
	}
	dev := n.parent.Device()
	n.parent.removeAsset(n.self)
	n.parent = nil
	if dev != nil {
		dev.usageChanged()
	}
}

// attach records parent as the new container, detaching from any current one.
// The caller is responsible for adding the asset to parent's children.
func (n *node) attach(parent *Directory) error {
	if n.parent == parent {
		return nil
	}

	if existing := parent.GetChild(n.name); existing != nil && existing != n.self {
		return newDuplicateName(parent, n.name)
	}

	n.Detach()
	n.parent = parent
	return nil
}

// Device walks up to the top of the tree and returns the owning device, or
// nil when the top is not an attached root directory.
func (n *node) Device() *Device {
	top := n.self
	for top.Parent() != nil {
		top = top.Parent()
	}

	if d, ok := top.(*Directory); ok && d.device != nil {
		return d.device
	}
	return nil
}

// IsOwnedByUser reports whether uid owns the asset.
func (n *node) IsOwnedByUser(uid int) bool {
	return n.uid == uid
}

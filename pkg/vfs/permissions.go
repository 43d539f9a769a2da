package vfs

// ============================================================================
// Permission Helper Functions
// ============================================================================

// Permission bit classes, indexed by the kind of access being checked.
const (
	permRead    uint32 = 04
	permWrite   uint32 = 02
	permExecute uint32 = 01
)

// hasPermission checks a single access class against the asset's mode.
//
// Permission check logic:
//   - Superuser (uid 0 or gid 0): Always granted
//   - Owner: Check owner bit (mode & 0400/0200/0100)
//   - Group member: Check group bit (mode & 0040/0020/0010)
//   - Other: Check other bit (mode & 0004/0002/0001)
//
// Only one class applies: an owner whose owner bit is clear is denied even
// if the group or other bit is set.
func (n *node) hasPermission(uid, gid int, bit uint32) bool {
	// Root user bypasses all permission checks
	if uid == 0 || gid == 0 {
		return true
	}

	// Owner permissions
	if uid == n.uid {
		return n.mode&(bit<<6) != 0
	}

	// Group permissions
	if gid == n.gid {
		return n.mode&(bit<<3) != 0
	}

	// Other permissions
	return n.mode&bit != 0
}

// IsReadable reports whether uid/gid may read the asset.
//
// Reading also requires read permission on every ancestor directory, so a
// world-readable file inside an unreadable directory is not readable.
func (n *node) IsReadable(uid, gid int) bool {
	if !n.hasPermission(uid, gid, permRead) {
		return false
	}
	if n.parent == nil {
		return true
	}
	return n.parent.IsReadable(uid, gid)
}

// IsWritable reports whether uid/gid may write the asset. Ancestors are not
// consulted.
func (n *node) IsWritable(uid, gid int) bool {
	return n.hasPermission(uid, gid, permWrite)
}

// IsExecutable reports whether uid/gid may execute (or, for directories,
// search) the asset. Ancestors are not consulted.
func (n *node) IsExecutable(uid, gid int) bool {
	return n.hasPermission(uid, gid, permExecute)
}

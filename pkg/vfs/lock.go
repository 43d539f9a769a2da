package vfs

// HolderID identifies the owner of an advisory lock, typically one per open
// Handle.
type HolderID string

// LockOp is a lock request. The values follow flock(2).
type LockOp int

const (
	LockShared      LockOp = 1
	LockExclusive   LockOp = 2
	LockNonBlocking LockOp = 4
	LockUnlock      LockOp = 8
)

func (op LockOp) String() string {
	switch op &^ LockNonBlocking {
	case LockShared:
		return "shared"
	case LockExclusive:
		return "exclusive"
	case LockUnlock:
		return "unlock"
	default:
		return "invalid"
	}
}

// ============================================================================
// Advisory Locking
// ============================================================================

// Lock applies op on behalf of holder and reports whether it was granted.
//
// Lock Rules:
//   - Shared and exclusive requests carrying LockNonBlocking are rejected
//     without any state change
//   - Any other shared or exclusive request first releases whatever holder
//     already had, then is checked against the remaining holders
//   - Exclusive is refused while anyone still has any lock
//   - Shared is refused while anyone still has the exclusive lock
//   - Unlock always succeeds
//
// A holder therefore moves between shared and exclusive without unlocking,
// and a refused move leaves it holding nothing. Locks are bookkeeping only;
// nothing ever blocks.
func (f *File) Lock(holder HolderID, op LockOp) bool {
	granted := f.lock(holder, op)
	if dev := f.Device(); dev != nil {
		dev.metrics.RecordLock(op.String(), granted)
	}
	return granted
}

func (f *File) lock(holder HolderID, op LockOp) bool {
	if op&LockNonBlocking != 0 && op != LockUnlock|LockNonBlocking {
		return false
	}

	switch op &^ LockNonBlocking {
	case LockUnlock:
		f.Unlock(holder)
		return true

	case LockExclusive:
		f.Unlock(holder)
		if f.IsLocked() {
			return false
		}
		f.exclusive = holder
		f.exclusiveHeld = true
		return true

	case LockShared:
		f.Unlock(holder)
		if f.exclusiveHeld {
			return false
		}
		f.shared[holder] = struct{}{}
		return true
	}

	return false
}

// Unlock releases any lock held by holder.
func (f *File) Unlock(holder HolderID) {
	if f.exclusiveHeld && f.exclusive == holder {
		f.exclusive = ""
		f.exclusiveHeld = false
	}
	delete(f.shared, holder)
}

// IsLocked reports whether anyone holds any lock.
func (f *File) IsLocked() bool {
	return f.HasExclusiveLock() || f.HasSharedLock()
}

// IsLockedBy reports whether holder holds any lock.
func (f *File) IsLockedBy(holder HolderID) bool {
	return f.HasExclusiveLockBy(holder) || f.HasSharedLockBy(holder)
}

// HasExclusiveLock reports whether anyone holds the exclusive lock.
func (f *File) HasExclusiveLock() bool {
	return f.exclusiveHeld
}

// HasExclusiveLockBy reports whether holder holds the exclusive lock.
func (f *File) HasExclusiveLockBy(holder HolderID) bool {
	return f.exclusiveHeld && f.exclusive == holder
}

// HasSharedLock reports whether anyone holds a shared lock.
func (f *File) HasSharedLock() bool {
	return len(f.shared) > 0
}

// HasSharedLockBy reports whether holder holds a shared lock.
func (f *File) HasSharedLockBy(holder HolderID) bool {
	_, ok := f.shared[holder]
	return ok
}

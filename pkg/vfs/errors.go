package vfs

import (
	"errors"
	"fmt"
)

// Error represents a domain error raised by a tree, file or device operation.
//
// These are synchronous failures raised at the exact point of violation.
// Adapters translate Code into whatever native diagnostic their boundary
// requires, such as an errno or an HTTP status.
//
// Only the fields relevant to Code are populated:
//   - ErrDuplicateName: Name and Parent
//   - ErrUnknownAsset: Name (and Parent when known)
//   - ErrInsufficientStorage: Available and Required
//   - ErrInvalidPath: Name holds the offending path
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Name is the asset name or path related to the error (if applicable)
	Name string

	// Parent is the name of the directory involved (if applicable)
	Parent string

	// Available is the number of bytes that were available
	Available int64

	// Required is the number of bytes that were required
	Required int64
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case ErrDuplicateName:
		return fmt.Sprintf("%s: %q already exists in %q", e.Message, e.Name, e.Parent)
	case ErrInsufficientStorage:
		return fmt.Sprintf("%s: %d bytes available, %d bytes required", e.Message, e.Available, e.Required)
	}
	if e.Name != "" {
		return e.Message + ": " + e.Name
	}
	return e.Message
}

// Is makes errors.Is match any *Error carrying the same Code, so callers can
// write errors.Is(err, vfs.ErrNotFound) style checks against the sentinels below.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// ErrorCode represents the category of an Error.
type ErrorCode int

const (
	// ErrInvalidName indicates an empty name or one containing a separator
	ErrInvalidName ErrorCode = iota + 1

	// ErrDuplicateName indicates an insertion or rename collided with a sibling
	ErrDuplicateName

	// ErrUnknownAsset indicates a lookup or removal miss
	ErrUnknownAsset

	// ErrInsufficientStorage indicates an insert or resize would breach the quota
	ErrInsufficientStorage

	// ErrInvalidWhence indicates a seek with an unknown whence value
	ErrInvalidWhence

	// ErrInvalidPath indicates an import source that is missing or not a directory
	ErrInvalidPath

	// ErrCyclicTree indicates a directory would become its own ancestor
	ErrCyclicTree

	// ErrRootImmutable indicates an attempt to rename or reparent a root directory
	ErrRootImmutable
)

func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidName:
		return "InvalidName"
	case ErrDuplicateName:
		return "DuplicateName"
	case ErrUnknownAsset:
		return "UnknownAsset"
	case ErrInsufficientStorage:
		return "InsufficientStorage"
	case ErrInvalidWhence:
		return "InvalidWhence"
	case ErrInvalidPath:
		return "InvalidPath"
	case ErrCyclicTree:
		return "CyclicTree"
	case ErrRootImmutable:
		return "RootImmutable"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrNameInvalid         = &Error{Code: ErrInvalidName, Message: "invalid name"}
	ErrNameTaken           = &Error{Code: ErrDuplicateName, Message: "duplicate name"}
	ErrNotFound            = &Error{Code: ErrUnknownAsset, Message: "unknown asset"}
	ErrNoSpace             = &Error{Code: ErrInsufficientStorage, Message: "insufficient storage"}
	ErrWhence              = &Error{Code: ErrInvalidWhence, Message: "invalid whence"}
	ErrPath                = &Error{Code: ErrInvalidPath, Message: "invalid path"}
	ErrCycle               = &Error{Code: ErrCyclicTree, Message: "cyclic tree"}
	ErrRootCannotBeChanged = &Error{Code: ErrRootImmutable, Message: "root directory is immutable"}
)

// CodeOf returns the ErrorCode carried by err, or 0 if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

func newNameError(name string) *Error {
	return &Error{
		Code:    ErrInvalidName,
		Message: "name must be non-empty and must not contain " + string(Separator),
		Name:    name,
	}
}

func newDuplicateName(parent *Directory, name string) *Error {
	return &Error{
		Code:    ErrDuplicateName,
		Message: "duplicate name",
		Name:    name,
		Parent:  parent.Name(),
	}
}

func newUnknownAsset(parent *Directory, name string) *Error {
	e := &Error{
		Code:    ErrUnknownAsset,
		Message: "unknown asset",
		Name:    name,
	}
	if parent != nil {
		e.Parent = parent.Name()
	}
	return e
}

func newInsufficientStorage(available, required int64) *Error {
	return &Error{
		Code:      ErrInsufficientStorage,
		Message:   "insufficient storage",
		Available: available,
		Required:  required,
	}
}

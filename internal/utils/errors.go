// Package utils provides shared low-level helpers for the idbtree library:
// structured errors, endian-aware reads, overflow-checked arithmetic and a
// scratch buffer pool for page-sized reads.
package utils

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, matched with errors.Is against a wrapped *Error.
var (
	ErrBadMagic            = errors.New("bad magic")
	ErrBadVersion          = errors.New("bad version")
	ErrUnsupportedEncoding = errors.New("unsupported section encoding")
	ErrBadOffset           = errors.New("offset outside window")
	ErrShortRead           = errors.New("short read")
	ErrBadPage             = errors.New("malformed page")
	ErrBadInt              = errors.New("value length unsupported for int decode")
	ErrNotFound            = errors.New("record not found")
	ErrNotImplemented      = errors.New("not implemented")
)

// Error is a structured, contextual error. It wraps one of the sentinel
// kinds above (or an arbitrary cause) with the operation that produced it.
type Error struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap() / errors.Is() / errors.As().
func (e *Error) Unwrap() error {
	return e.Cause
}

// WrapError creates a contextual error. Returns nil if cause is nil, so
// callers can write `return utils.WrapError("...", err)` unconditionally.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Context: context, Cause: cause}
}

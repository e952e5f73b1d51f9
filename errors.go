package parena

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by Index.Get when the requested key has
// no entry (Index.Lookup itself reports absence with a boolean). It is
// a normal return value, not a sign of a malfunctioning Arena — check
// with errors.Is.
var ErrKeyNotFound = errors.New("parena: key not found")

// ErrPoisoned is returned by Arena.Allocate, Grow, Sync and Close
// after a prior operation failed with an IoError or CapacityError.
// Once poisoned, an Arena no longer syncs or grows its file; Close only
// unmaps the region and closes the file. Abandon and the methods that
// return no error (Deref, Size, Metrics, and the read-only Index
// accessors) do not check the poisoned state.
var ErrPoisoned = errors.New("parena: arena poisoned by a prior fatal error")

// IoError wraps a failure from an underlying filesystem or mmap
// syscall (open, truncate, mmap, munmap, msync, close, fstat). It is
// always fatal to the Arena that produced it: the Arena is marked
// poisoned (see ErrPoisoned for which operations then fail).
type IoError struct {
	Op  string // the syscall or operation that failed, e.g. "mmap", "truncate"
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("parena: io error during %s: %v", e.Op, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

func newIoError(op string, err error) *IoError {
	return &IoError{Op: op, Err: err}
}

// CapacityError reports an arithmetic overflow of an offset or size
// while computing a growth target. Like IoError, it is fatal to the
// Arena.
type CapacityError struct {
	Requested uint64
	Current   uint64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("parena: capacity overflow: requested %d bytes from a %d-byte region", e.Requested, e.Current)
}

func newCapacityError(requested, current uint64) *CapacityError {
	return &CapacityError{Requested: requested, Current: current}
}

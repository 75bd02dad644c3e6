package traverser

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNoInputs is returned by New when no input path was given.
	ErrNoInputs = errors.New("at least one input path is required")

	// ErrStarted is returned when a handler is registered, or a traversal
	// started, after the traverser has already started.
	ErrStarted = errors.New("traversal already started")

	// ErrSealed is returned when an acknowledgement is added to a pending
	// set that no longer accepts entries.
	ErrSealed = errors.New("pending set is sealed")

	// ErrNotSealed is returned when waiting on a pending set that can
	// still grow.
	ErrNotSealed = errors.New("pending set is not sealed")

	errRejected = errors.New("rejected")
)

// RejectedError is the failure a consumer reported for one file.
type RejectedError struct {
	Path string
	Err  error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("handling %s: %v", e.Path, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// ScopeError reports a scope that does not compile.
type ScopeError struct {
	Scope string
	Err   error
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("invalid scope %q: %v", e.Scope, e.Err)
}

func (e *ScopeError) Unwrap() error {
	return e.Err
}

// rejectionCount returns how many consumer rejections err carries.
func rejectionCount(err error) int {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		n := 0
		for _, e := range merr.Errors {
			var rejected *RejectedError
			if errors.As(e, &rejected) {
				n++
			}
		}
		return n
	}

	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return 1
	}
	return 0
}

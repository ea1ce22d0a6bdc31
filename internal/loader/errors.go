package loader

import (
	"errors"
	"fmt"
)

// ErrLoadFailure matches every error returned by Loader.Load
var ErrLoadFailure = errors.New("dashboard snapshot load failed")

// Op names the load stage that failed
type Op string

const (
	OpFetch    Op = "fetch"
	OpStatus   Op = "status"
	OpRead     Op = "read"
	OpSchema   Op = "schema"
	OpDecode   Op = "decode"
	OpValidate Op = "validate"
)

// LoadError describes a failed snapshot load. No dataset is produced when a
// LoadError is returned.
type LoadError struct {
	Op         Op
	Source     string
	StatusCode int
	Err        error
}

func (e *LoadError) Error() string {
	switch {
	case e.Op == OpStatus:
		return fmt.Sprintf("failed to load dashboard data from %s: server responded %d", e.Source, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("failed to load dashboard data from %s (%s): %v", e.Source, e.Op, e.Err)
	default:
		return fmt.Sprintf("failed to load dashboard data from %s (%s)", e.Source, e.Op)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is makes every LoadError match ErrLoadFailure
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailure
}

// StatusError is returned by sources whose transport reports a non-success
// status. The loader turns it into an OpStatus LoadError.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func newLoadError(op Op, src Source, err error) *LoadError {
	le := &LoadError{Op: op, Source: src.String(), Err: err}
	var se *StatusError
	if errors.As(err, &se) {
		le.Op = OpStatus
		le.StatusCode = se.Code
	}
	return le
}

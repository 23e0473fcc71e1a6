package template

import (
	"errors"
	"fmt"
)

// LoadReason classifies a LoadError.
type LoadReason int

const (
	ReasonNotFound LoadReason = iota
	ReasonUnreadable
	ReasonMalformed
)

func (r LoadReason) String() string {
	switch r {
	case ReasonNotFound:
		return "not_found"
	case ReasonUnreadable:
		return "unreadable"
	case ReasonMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("LoadReason(%d)", int(r))
	}
}

// LoadError reports a template that could not be fetched or decoded.
type LoadError struct {
	Template string
	Reason   LoadReason
	Err      error
}

func (e *LoadError) Error() string {
	if e.Reason == ReasonNotFound || e.Err == nil {
		return fmt.Sprintf("template %q: %s", e.Template, e.Reason)
	}
	return fmt.Sprintf("template %q: %s: %v", e.Template, e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is matches ErrNotFound for not-found errors regardless of the cause.
func (e *LoadError) Is(target error) bool {
	return target == ErrNotFound && e.Reason == ReasonNotFound
}

func malformed(id string, err error) *LoadError {
	return &LoadError{Template: id, Reason: ReasonMalformed, Err: err}
}

// IsMalformed reports whether err is a LoadError caused by undecodable content.
func IsMalformed(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Reason == ReasonMalformed
}

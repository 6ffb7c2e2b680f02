package kind

import (
	"errors"
	"fmt"
)

// ValidationError reports a value that violates a data model invariant.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrorGridError is returned by CheckResponseMeta when a server responds with
// an error grid (meta carries the err marker).
type ErrorGridError struct {
	Dis   string
	Trace string
}

func (e *ErrorGridError) Error() string {
	return "server returned an error grid: " + e.Dis
}

// IncompleteDataError is returned by CheckResponseMeta when a server marks a
// response as incomplete.
type IncompleteDataError struct {
	Reason string
}

func (e *IncompleteDataError) Error() string {
	return "incomplete data returned: " + e.Reason
}

// CheckResponseMeta inspects the meta of a response grid for the err and
// incomplete tags.
func CheckResponseMeta(g Grid) error {
	meta := g.Meta()
	if meta.Has("err") {
		e := &ErrorGridError{}
		if dis, ok := meta.Get("dis"); ok {
			e.Dis = dis.String()
		}
		if trace, ok := meta.Get("errTrace"); ok {
			e.Trace = trace.String()
		}
		return e
	}
	if reason, ok := meta.Get("incomplete"); ok {
		return &IncompleteDataError{Reason: reason.String()}
	}
	return nil
}

// IsErrorGrid reports whether err is (or wraps) an ErrorGridError.
func IsErrorGrid(err error) bool {
	var eg *ErrorGridError
	return errors.As(err, &eg)
}

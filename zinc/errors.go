package zinc

import (
	"errors"
	"fmt"
)

// TokenizeError reports malformed input at the character level: an
// unterminated string or uri, a bad escape, an empty ref, an unparsable
// number or date literal.
type TokenizeError struct {
	// Line is the 1-based line where the token started.
	Line int

	// Text is the raw text consumed for the failing token.
	Text string

	// Msg is a human-readable description.
	Msg string

	// Cause is the underlying error, if any (e.g. tz.NotFoundError).
	Cause error
}

func (e *TokenizeError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("zinc: line %d: %s: %q", e.Line, e.Msg, e.Text)
	}
	return fmt.Sprintf("zinc: line %d: %s", e.Line, e.Msg)
}

func (e *TokenizeError) Unwrap() error { return e.Cause }

// ParseError reports a token sequence that does not form a valid value.
type ParseError struct {
	Line     int
	Expected string
	Actual   string
	Msg      string

	Cause error
}

func (e *ParseError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("zinc: line %d: expected %s, got %s", e.Line, e.Expected, e.Actual)
	}
	return fmt.Sprintf("zinc: line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// EncodeError reports a value the Writer refuses to encode.
type EncodeError struct {
	// Path locates the value, e.g. "rows[2].area".
	Path string
	Msg  string

	Cause error
}

func (e *EncodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("zinc: cannot encode %s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("zinc: cannot encode: %s", e.Msg)
}

func (e *EncodeError) Unwrap() error { return e.Cause }

// IsSyntaxError reports whether err is a TokenizeError or ParseError.
// Uses errors.As to handle wrapped errors.
func IsSyntaxError(err error) bool {
	var te *TokenizeError
	if errors.As(err, &te) {
		return true
	}
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsEncodeError reports whether err is an EncodeError.
func IsEncodeError(err error) bool {
	var ee *EncodeError
	return errors.As(err, &ee)
}

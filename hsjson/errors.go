package hsjson

import (
	"errors"
	"strconv"
	"strings"
)

// DecodeError reports JSON that does not describe a valid kind value.
type DecodeError struct {
	// Path locates the value, e.g. "rows[2].ts".
	Path string

	// Kind is the _kind being decoded, if known.
	Kind string

	// Field is the offending field of Kind, if any.
	Field string

	Msg   string
	Cause error
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString("hsjson: ")
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	if e.Kind != "" {
		sb.WriteString(e.Kind)
		if e.Field != "" {
			sb.WriteByte('.')
			sb.WriteString(e.Field)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Msg)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// EncodeError reports a value the Encoder refuses to encode.
type EncodeError struct {
	Path  string
	Msg   string
	Cause error
}

func (e *EncodeError) Error() string {
	if e.Path != "" {
		return "hsjson: cannot encode " + e.Path + ": " + e.Msg
	}
	return "hsjson: cannot encode: " + e.Msg
}

func (e *EncodeError) Unwrap() error { return e.Cause }

// IsDecodeError reports whether err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsEncodeError reports whether err is (or wraps) an EncodeError.
func IsEncodeError(err error) bool {
	var ee *EncodeError
	return errors.As(err, &ee)
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

package scram

import (
	"errors"
	"fmt"
)

// ErrSignatureMismatch is wrapped by SignatureError.
var ErrSignatureMismatch = errors.New("server signature mismatch")

// ProtocolError reports a server response that is malformed or lacks an
// expected field.
type ProtocolError struct {
	// Step is the state the handshake was in when the response arrived.
	Step State
	Msg  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("scram: %s: %s", e.Step, e.Msg)
}

// SignatureError reports a server whose final signature does not match the
// one derived from the password. The auth token it sent is discarded.
type SignatureError struct{}

func (e *SignatureError) Error() string {
	return "scram: " + ErrSignatureMismatch.Error()
}

func (e *SignatureError) Unwrap() error { return ErrSignatureMismatch }

// CredentialError reports a server that rejected the credentials outright.
type CredentialError struct {
	Step   State
	Status int
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("scram: %s: server rejected credentials (HTTP %d)", e.Step, e.Status)
}

// IsProtocolError reports whether err is (or wraps) a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsCredentialError reports whether err is (or wraps) a CredentialError.
func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

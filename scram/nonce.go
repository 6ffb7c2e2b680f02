package scram

import (
	"crypto/rand"
	"encoding/hex"
)

// NonceGenerator produces client nonces. Each handshake asks for exactly
// one.
type NonceGenerator interface {
	Nonce() (string, error)
}

// RandomNonce generates 128-bit nonces from crypto/rand, hex encoded.
//
// Thread-safety: RandomNonce is stateless and safe for concurrent use.
type RandomNonce struct{}

// Nonce returns 32 hex characters.
func (RandomNonce) Nonce() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

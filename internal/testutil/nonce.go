package testutil

import "sync"

// FixedNonce returns predetermined SCRAM client nonces.
//
// This makes handshake transcripts reproducible: the same server and the
// same FixedNonce produce byte-identical Authorization headers.
//
// Thread-safety: FixedNonce is safe for concurrent use via internal mutex.
type FixedNonce struct {
	mu     sync.Mutex
	nonces []string
	idx    int
}

// NewFixedNonce creates a generator that returns nonces in order and then
// keeps repeating the last one.
//
// If no nonce is given, Nonce() returns "test-nonce-default".
func NewFixedNonce(nonces ...string) *FixedNonce {
	if len(nonces) == 0 {
		nonces = []string{"test-nonce-default"}
	}
	return &FixedNonce{nonces: nonces}
}

// Nonce returns the next predetermined nonce.
//
// Implements scram.NonceGenerator.
func (g *FixedNonce) Nonce() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.nonces[g.idx]
	if g.idx < len(g.nonces)-1 {
		g.idx++
	}
	return n, nil
}

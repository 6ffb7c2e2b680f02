package testutil

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

// ScramServer is an httptest server that plays the server side of the
// Haystack SCRAM handshake on /about.
//
// Each behaviour can be broken on purpose with a ScramServerOption to
// exercise client error paths.
type ScramServer struct {
	*httptest.Server

	username   string
	password   string
	salt       []byte
	iterations int
	hashName   string
	token      string
	nonceTail  string

	corruptSignature bool
	rejectStep       string
	overrides        map[string]string

	mu       sync.Mutex
	requests []string
}

// ScramServerOption configures a ScramServer.
type ScramServerOption func(*ScramServer)

// WithServerHash sets the hash name announced in the hello response,
// e.g. "SHA-512".
func WithServerHash(name string) ScramServerOption {
	return func(s *ScramServer) { s.hashName = name }
}

// WithIterations sets the PBKDF2 iteration count.
func WithIterations(n int) ScramServerOption {
	return func(s *ScramServer) { s.iterations = n }
}

// WithCorruptSignature makes the final response carry a wrong server
// signature.
func WithCorruptSignature() ScramServerOption {
	return func(s *ScramServer) { s.corruptSignature = true }
}

// WithReject makes the server answer 403 at step "hello", "first" or
// "final".
func WithReject(step string) ScramServerOption {
	return func(s *ScramServer) { s.rejectStep = step }
}

// WithHeaderOverride replaces the WWW-Authenticate (hello, first) or
// Authentication-Info (final) header sent at step with value.
func WithHeaderOverride(step, value string) ScramServerOption {
	return func(s *ScramServer) { s.overrides[step] = value }
}

// NewScramServer starts a ScramServer for one user. The server is closed
// when the test ends.
func NewScramServer(t testing.TB, username, password string, opts ...ScramServerOption) *ScramServer {
	t.Helper()
	s := &ScramServer{
		username:   username,
		password:   password,
		salt:       []byte("haystack-test-salt"),
		iterations: 4096,
		hashName:   "SHA-256",
		token:      "web-test-token-01",
		nonceTail:  "-srv-7f3a",
		overrides:  map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/demo/about", s.handle)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// URI returns the project uri to hand to scram.New.
func (s *ScramServer) URI() string { return s.URL + "/api/demo" }

// Token returns the auth token issued on success.
func (s *ScramServer) Token() string { return s.token }

// Requests returns the Authorization headers received, in order.
func (s *ScramServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *ScramServer) newHash() func() hash.Hash {
	if strings.EqualFold(s.hashName, "SHA-512") {
		return sha512.New
	}
	return sha256.New
}

func (s *ScramServer) handle(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	s.mu.Lock()
	s.requests = append(s.requests, auth)
	s.mu.Unlock()

	scheme, rest, _ := strings.Cut(auth, " ")
	params := authParams(rest)

	switch {
	case strings.EqualFold(scheme, "HELLO"):
		s.hello(w, params)
	case strings.EqualFold(scheme, "scram") && params["hash"] != "":
		s.first(w, params)
	case strings.EqualFold(scheme, "scram"):
		s.final(w, params)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (s *ScramServer) respond(w http.ResponseWriter, step, header, value string, status int) {
	if s.rejectStep == step {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if v, ok := s.overrides[step]; ok {
		value = v
	}
	w.Header().Set(header, value)
	w.WriteHeader(status)
}

func (s *ScramServer) hello(w http.ResponseWriter, params map[string]string) {
	user, err := b64decode(params["username"])
	if err != nil || string(user) != s.username {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	s.respond(w, "hello", "WWW-Authenticate",
		"SCRAM handshakeToken="+b64(s.username)+", hash="+s.hashName, http.StatusUnauthorized)
}

func (s *ScramServer) first(w http.ResponseWriter, params map[string]string) {
	data, err := b64decode(params["data"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	attrs := scramAttrs(strings.TrimPrefix(string(data), "n,,"))
	serverFirst := "r=" + attrs["r"] + s.nonceTail +
		",s=" + base64.StdEncoding.EncodeToString(s.salt) +
		",i=" + strconv.Itoa(s.iterations)
	s.respond(w, "first", "WWW-Authenticate",
		"scram data="+b64(serverFirst)+", handshakeToken="+params["handshaketoken"]+", hash="+s.hashName,
		http.StatusUnauthorized)
}

func (s *ScramServer) final(w http.ResponseWriter, params map[string]string) {
	data, err := b64decode(params["data"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	attrs := scramAttrs(string(data))
	clientFinalNoProof := "c=" + attrs["c"] + ",r=" + attrs["r"]

	nonce := strings.TrimSuffix(attrs["r"], s.nonceTail)
	authMessage := "n=" + s.username + ",r=" + nonce +
		",r=" + attrs["r"] +
		",s=" + base64.StdEncoding.EncodeToString(s.salt) +
		",i=" + strconv.Itoa(s.iterations) +
		"," + clientFinalNoProof

	newHash := s.newHash()
	salted := pbkdf2.Key([]byte(s.password), s.salt, s.iterations, newHash().Size(), newHash)
	mac := func(key []byte, msg string) []byte {
		m := hmac.New(newHash, key)
		m.Write([]byte(msg))
		return m.Sum(nil)
	}

	clientKey := mac(salted, "Client Key")
	h := newHash()
	h.Write(clientKey)
	storedKey := h.Sum(nil)
	clientSig := mac(storedKey, authMessage)
	proof, err := b64decode(attrs["p"])
	if err != nil || len(proof) != len(clientSig) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	recovered := make([]byte, len(proof))
	for i := range proof {
		recovered[i] = proof[i] ^ clientSig[i]
	}
	check := newHash()
	check.Write(recovered)
	if !hmac.Equal(check.Sum(nil), storedKey) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	sig := mac(mac(salted, "Server Key"), authMessage)
	if s.corruptSignature {
		sig[0] ^= 0xff
	}
	s.respond(w, "final", "Authentication-Info",
		"authToken="+s.token+", data="+b64("v="+base64.StdEncoding.EncodeToString(sig))+", hash="+s.hashName,
		http.StatusOK)
}

// authParams splits "k=v, k2=v2" into a map with lower-cased keys.
func authParams(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok {
			out[strings.ToLower(k)] = v
		}
	}
	return out
}

// scramAttrs splits "a=1,b=2" keeping everything after the first '='.
func scramAttrs(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		if k, v, ok := strings.Cut(part, "="); ok {
			out[k] = v
		}
	}
	return out
}

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func b64decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

package scram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// State is a step of the handshake.
type State int

const (
	Init State = iota
	HelloSent
	FirstSent
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case HelloSent:
		return "hello-sent"
	case FirstSent:
		return "first-sent"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Transport sends one HTTP request. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLogger sets the logger for handshake progress. Credentials, keys,
// proofs and tokens are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTransport sets the HTTP transport. Defaults to http.DefaultClient.
func WithTransport(t Transport) Option {
	return func(a *Authenticator) {
		if t != nil {
			a.transport = t
		}
	}
}

// WithNonce sets the client nonce source. Defaults to RandomNonce.
func WithNonce(g NonceGenerator) Option {
	return func(a *Authenticator) {
		if g != nil {
			a.nonce = g
		}
	}
}

// WithNormalize applies Unicode NFKC normalisation to the username and
// password before use, approximating SASLprep.
func WithNormalize() Option {
	return func(a *Authenticator) {
		a.normalize = true
	}
}

// Authenticator obtains bearer tokens from a Haystack server.
//
// Thread-safety: an Authenticator holds no per-attempt state, so
// concurrent Authenticate calls are independent.
type Authenticator struct {
	endpoint  string
	username  string
	password  string
	transport Transport
	nonce     NonceGenerator
	logger    *slog.Logger
	normalize bool
}

// New creates an Authenticator for the server at uri, e.g.
// "http://host/api/demo". Requests go to uri + "/about".
func New(uri, username, password string, opts ...Option) *Authenticator {
	a := &Authenticator{
		endpoint:  strings.TrimRight(uri, "/") + "/about",
		username:  username,
		password:  password,
		transport: http.DefaultClient,
		nonce:     RandomNonce{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.normalize {
		a.username = norm.NFKC.String(a.username)
		a.password = norm.NFKC.String(a.password)
	}
	return a
}

// session is the state of one attempt. It is discarded when Authenticate
// returns.
type session struct {
	a      *Authenticator
	state  State
	logger *slog.Logger

	handshakeToken string
	hashName       string
	c1Bare         string
	proof          *proof
}

// Authenticate runs the full handshake and returns the auth token.
//
// Transport errors, including context cancellation, are returned wrapped
// and abort the attempt immediately. No step is retried.
func (a *Authenticator) Authenticate(ctx context.Context) (string, error) {
	s := &session{
		a:      a,
		state:  Init,
		logger: a.logger.With("attempt", uuid.Must(uuid.NewV7()).String()),
	}
	token, err := s.run(ctx)
	if err != nil {
		s.logger.Warn("scram authentication failed", "step", s.state.String(), "error", err)
		s.state = Failed
		return "", err
	}
	s.transition(Complete)
	return token, nil
}

func (s *session) transition(to State) {
	s.logger.Debug("scram state change", "from", s.state.String(), "to", to.String())
	s.state = to
}

func (s *session) fail(format string, args ...any) error {
	return &ProtocolError{Step: s.state, Msg: fmt.Sprintf(format, args...)}
}

func (s *session) run(ctx context.Context) (string, error) {
	if err := s.hello(ctx); err != nil {
		return "", err
	}
	if err := s.first(ctx); err != nil {
		return "", err
	}
	return s.final(ctx)
}

// send issues a GET to the about endpoint with the given Authorization
// header and returns the response headers and status.
func (s *session) send(ctx context.Context, authorization string) (http.Header, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.a.endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("scram %s: %w", s.state, err)
	}
	req.Header.Set("Authorization", authorization)

	resp, err := s.a.transport.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("scram %s: %w", s.state, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	s.logger.Debug("scram response", "step", s.state.String(), "status", resp.StatusCode)
	if resp.StatusCode == http.StatusForbidden {
		return nil, 0, &CredentialError{Step: s.state, Status: resp.StatusCode}
	}
	return resp.Header, resp.StatusCode, nil
}

func (s *session) hello(ctx context.Context) error {
	s.transition(HelloSent)
	h, status, err := s.send(ctx, "HELLO username="+toBase64([]byte(s.a.username)))
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return s.fail("expected HTTP 401, got %d", status)
	}

	header := h.Get("WWW-Authenticate")
	token, ok := param(reHandshake, header)
	if !ok {
		return s.fail("handshake token not found in WWW-Authenticate header")
	}
	name, ok := param(reHash, header)
	if !ok {
		return s.fail("hash not found in WWW-Authenticate header")
	}
	if _, ok := hashes[normaliseHash(name)]; !ok {
		return s.fail("unsupported hash %q", name)
	}
	s.handshakeToken = token
	s.hashName = name
	s.logger.Debug("scram hello accepted", "hash", name)
	return nil
}

func (s *session) first(ctx context.Context) error {
	nonce, err := s.a.nonce.Nonce()
	if err != nil {
		return fmt.Errorf("scram: generating nonce: %w", err)
	}
	s.c1Bare = "n=" + s.a.username + ",r=" + nonce

	s.transition(FirstSent)
	h, status, err := s.send(ctx, "scram handshakeToken="+s.handshakeToken+
		", hash="+s.hashName+
		", data="+toBase64([]byte("n,,"+s.c1Bare)))
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return s.fail("expected HTTP 401, got %d", status)
	}

	sf, msg := parseServerFirst(h.Get("WWW-Authenticate"))
	if msg != "" {
		return s.fail("%s", msg)
	}
	if !strings.HasPrefix(sf.nonce, nonce) {
		return s.fail("server nonce does not extend client nonce")
	}
	s.logger.Debug("scram server challenge", "iterations", sf.iterations)

	p, err := newProof(hashes[normaliseHash(s.hashName)], s.a.password, s.c1Bare, sf)
	if err != nil {
		return s.fail("salt is not base64")
	}
	s.proof = p
	return nil
}

func (s *session) final(ctx context.Context) (string, error) {
	h, status, err := s.send(ctx, "scram handshaketoken="+s.handshakeToken+
		",data="+s.proof.clientFinal())
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", s.fail("expected HTTP 200, got %d", status)
	}

	// The token may arrive in Authentication-Info or WWW-Authenticate.
	header := strings.Join(slices.Concat(h.Values("Authentication-Info"), h.Values("WWW-Authenticate")), ", ")
	token, ok := param(reAuthToken, header)
	if !ok {
		return "", s.fail("auth token not found in response headers")
	}
	data, ok := param(reData, header)
	if !ok {
		return "", s.fail("server signature not found in response headers")
	}
	raw, err := fromBase64(data)
	if err != nil {
		return "", s.fail("server signature data is not base64")
	}
	sig, ok := strings.CutPrefix(string(raw), "v=")
	if !ok {
		return "", s.fail("server final message lacks v=")
	}
	if !s.proof.verify(sig) {
		return "", &SignatureError{}
	}
	return token, nil
}

package scram

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// toBase64 encodes with the unpadded URL-safe alphabet (RFC 4648 section 5).
func toBase64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// fromBase64 accepts either alphabet, padded or not. Servers are not
// consistent about which they send.
func fromBase64(s string) ([]byte, error) {
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	s = strings.TrimRight(s, "=")
	return base64.RawStdEncoding.DecodeString(s)
}

// hashes maps normalised hash ids to their constructors.
var hashes = map[string]func() hash.Hash{
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// normaliseHash turns a server hash name such as SHA-256 into the id used
// to look up the primitive.
func normaliseHash(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "")
}

// BearerHeader returns the Authorization header value that presents an auth
// token on subsequent requests.
func BearerHeader(token string) string {
	return "BEARER authToken=" + token
}

var (
	reHandshake = regexp.MustCompile(`(?i)\bhandshakeToken=([^,\s]+)`)
	reHash      = regexp.MustCompile(`(?i)\bhash=([^,\s]+)`)
	reData      = regexp.MustCompile(`(?i)\bdata=([^,\s]+)`)
	reAuthToken = regexp.MustCompile(`(?i)\bauthToken=([^,\s]+)`)
)

func param(re *regexp.Regexp, header string) (string, bool) {
	m := re.FindStringSubmatch(header)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// serverFirst is the decoded data of the server-first message.
type serverFirst struct {
	nonce      string
	salt       string
	iterations int
}

// parseServerFirst extracts r, s and i from the data parameter of a
// WWW-Authenticate header. Unknown attributes are ignored.
func parseServerFirst(header string) (serverFirst, string) {
	data, ok := param(reData, header)
	if !ok {
		return serverFirst{}, "scram data not found in WWW-Authenticate header"
	}
	raw, err := fromBase64(data)
	if err != nil {
		return serverFirst{}, "scram data is not base64"
	}

	var sf serverFirst
	var haveIter bool
	for _, attr := range strings.Split(strings.ReplaceAll(string(raw), " ", ""), ",") {
		k, v, ok := strings.Cut(attr, "=")
		if !ok {
			continue
		}
		switch k {
		case "r":
			sf.nonce = v
		case "s":
			sf.salt = v
		case "i":
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return serverFirst{}, "invalid iteration count " + strconv.Quote(v)
			}
			sf.iterations = n
			haveIter = true
		}
	}
	switch {
	case sf.nonce == "":
		return serverFirst{}, "server nonce not found"
	case sf.salt == "":
		return serverFirst{}, "salt not found"
	case !haveIter:
		return serverFirst{}, "iteration count not found"
	}
	return sf, ""
}

// proof holds the values derived from the password for one attempt.
type proof struct {
	newHash     func() hash.Hash
	salted      []byte
	authMessage string
	finalNoPf   string
}

// clientFinalNoProof is constant for the channel-binding-free "n,," GS2
// header.
func clientFinalNoProof(serverNonce string) string {
	return "c=" + toBase64([]byte("n,,")) + ",r=" + serverNonce
}

// newProof derives the salted password and auth message. The iteration
// count is taken as sent by the server.
func newProof(newHash func() hash.Hash, password, c1Bare string, sf serverFirst) (*proof, error) {
	salt, err := fromBase64(sf.salt)
	if err != nil {
		return nil, err
	}
	final := clientFinalNoProof(sf.nonce)
	return &proof{
		newHash: newHash,
		salted:  pbkdf2.Key([]byte(password), salt, sf.iterations, newHash().Size(), newHash),
		authMessage: c1Bare + ",r=" + sf.nonce + ",s=" + sf.salt +
			",i=" + strconv.Itoa(sf.iterations) + "," + final,
		finalNoPf: final,
	}, nil
}

func (p *proof) hmac(key []byte, msg string) []byte {
	mac := hmac.New(p.newHash, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}

// clientProof returns base64url(ClientKey XOR HMAC(StoredKey, AuthMessage)).
func (p *proof) clientProof() string {
	clientKey := p.hmac(p.salted, "Client Key")
	h := p.newHash()
	h.Write(clientKey)
	storedKey := h.Sum(nil)
	sig := p.hmac(storedKey, p.authMessage)

	out := make([]byte, len(clientKey))
	for i := range clientKey {
		out[i] = clientKey[i] ^ sig[i]
	}
	return toBase64(out)
}

// clientFinal is the data parameter of the final request.
func (p *proof) clientFinal() string {
	return toBase64([]byte(p.finalNoPf + ",p=" + p.clientProof()))
}

// serverSignature returns the raw HMAC(ServerKey, AuthMessage).
func (p *proof) serverSignature() []byte {
	return p.hmac(p.hmac(p.salted, "Server Key"), p.authMessage)
}

// verify compares a server-sent signature, in either base64 alphabet,
// against the expected one in constant time.
func (p *proof) verify(sig string) bool {
	got, err := fromBase64(sig)
	if err != nil {
		return false
	}
	return hmac.Equal(got, p.serverSignature())
}

package scram

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 7677 section 3 example exchange.
const (
	rfcClientNonce = "rOprNGfwEbeRWgbNEkqO"
	rfcServerNonce = "rOprNGfwEbeRWgbNEkqO%hvYDpWUa2RaTCAfuxFIlj)hNlF$k0"
	rfcSalt        = "W22ZaJ0SNY7soEsUEjb6gQ=="
	rfcProof       = "dHzbZapWIk4jUhN-Ute9ytag9zjfMHgsqmmiz7AndVQ"
	rfcServerSig   = "6rriTRBi23WpRR/wtup+mMhUZUn/dB5nLTJRsjl95G4="
)

func rfcProofState(t *testing.T) *proof {
	t.Helper()
	p, err := newProof(sha256.New, "pencil", "n=user,r="+rfcClientNonce,
		serverFirst{nonce: rfcServerNonce, salt: rfcSalt, iterations: 4096})
	require.NoError(t, err)
	return p
}

func TestBase64(t *testing.T) {
	assert.Equal(t, "ZXhhbXBsZQ", toBase64([]byte("example")))

	for _, in := range []string{"ZXhhbXBsZQ", "ZXhhbXBsZQ==", "ZXhhbXBsZQ="} {
		out, err := fromBase64(in)
		require.NoError(t, err, in)
		assert.Equal(t, "example", string(out))
	}

	// Both alphabets decode to the same bytes.
	std, err := fromBase64("+/+/")
	require.NoError(t, err)
	url, err := fromBase64("-_-_")
	require.NoError(t, err)
	assert.Equal(t, std, url)

	_, err = fromBase64("not base64!")
	assert.Error(t, err)
}

func TestParseHelloParams(t *testing.T) {
	header := "scram data=cj0xODI2YzEwY2VlZDMxYWNjOWYyYmFiY2IxMDAzZjdiNT" +
		"UyNjhhOWFkYTk2NGRhNzhlYmNmYzAxOWIyY2ViNTVkLHM9d1luT3FYc1VTMUZKRHpwTmN3K09FQk9OV3lSTWJMY" +
		"UFrWkpCVUtnZ3RIMD0saT0xMDAwMA, handshakeToken=c3U, hash=SHA-256"

	token, ok := param(reHandshake, header)
	require.True(t, ok)
	assert.Equal(t, "c3U", token)

	name, ok := param(reHash, header)
	require.True(t, ok)
	assert.Equal(t, "SHA-256", name)
	assert.Equal(t, "sha256", normaliseHash(name))
	assert.Equal(t, "sha512", normaliseHash("sha-512"))

	_, ok = param(reHandshake, "This is an invalid input!")
	assert.False(t, ok)
	_, ok = param(reHash, "This is an invalid input!")
	assert.False(t, ok)

	lower, ok := param(reHandshake, "scram handshaketoken=abc,data=xyz")
	require.True(t, ok)
	assert.Equal(t, "abc", lower)
}

func TestParseServerFirst(t *testing.T) {
	header := "scram data=cj0xODI2YzEwY2VlZDMxYWNjOWYyYmFiY2IxMDAzZjdiNT" +
		"UyNjhhOWFkYTk2NGRhNzhlYmNmYzAxOWIyY2ViNTVkLHM9d1luT3FYc1VTMUZKRHpwTmN3K09FQk9OV3lSTWJMY" +
		"UFrWkpCVUtnZ3RIMD0saT0xMDAwMA, handshakeToken=c3U, hash=SHA-256"

	sf, msg := parseServerFirst(header)
	require.Empty(t, msg)
	assert.Equal(t, "1826c10ceed31acc9f2babcb1003f7b55268a9ada964da78ebcfc019b2ceb55d", sf.nonce)
	assert.Equal(t, "wYnOqXsUS1FJDzpNcw+OEBONWyRMbLaAkZJBUKggtH0=", sf.salt)
	assert.Equal(t, 10000, sf.iterations)
}

func TestParseServerFirstErrors(t *testing.T) {
	cases := []struct {
		header string
		msg    string
	}{
		{"This is an invalid input!", "scram data not found in WWW-Authenticate header"},
		{"scram data=!!!", "scram data is not base64"},
		{"scram data=" + toBase64([]byte("s=abc,i=1")), "server nonce not found"},
		{"scram data=" + toBase64([]byte("r=abc,i=1")), "salt not found"},
		{"scram data=" + toBase64([]byte("r=abc,s=abc")), "iteration count not found"},
		{"scram data=" + toBase64([]byte("r=abc,s=abc,i=ten")), `invalid iteration count "ten"`},
		{"scram data=" + toBase64([]byte("r=abc,s=abc,i=0")), `invalid iteration count "0"`},
	}
	for _, tc := range cases {
		_, msg := parseServerFirst(tc.header)
		assert.Equal(t, tc.msg, msg, tc.header)
	}
}

func TestParseServerFinal(t *testing.T) {
	header := "authToken=web-syPGBhoPY0XhKi6EXUG62BMACc0Ot7xuq4PShtjI47c-38," +
		"data=dj1ENDJEbS9kckRiSUN1NXpvTHd2OWloSlJiWkxzMFBRNllibm5EY2NNU1M4PQ,hash=SHA-256"

	token, ok := param(reAuthToken, header)
	require.True(t, ok)
	assert.Equal(t, "web-syPGBhoPY0XhKi6EXUG62BMACc0Ot7xuq4PShtjI47c-38", token)

	data, ok := param(reData, header)
	require.True(t, ok)
	raw, err := fromBase64(data)
	require.NoError(t, err)
	assert.Equal(t, "v=D42Dm/drDbICu5zoLwv9ihJRbZLs0PQ6YbnnDccMSS8=", string(raw))
}

func TestParamsIgnoreCase(t *testing.T) {
	header := "SCRAM HandshakeToken=abc, HASH=SHA-512, DATA=ZGF0YQ, AuthToken=tok-9"
	cases := []struct {
		re   *regexp.Regexp
		want string
	}{
		{reHandshake, "abc"},
		{reHash, "SHA-512"},
		{reData, "ZGF0YQ"},
		{reAuthToken, "tok-9"},
	}
	for _, tc := range cases {
		got, ok := param(tc.re, header)
		require.True(t, ok, tc.re.String())
		assert.Equal(t, tc.want, got)
	}
}

func TestProofVectors(t *testing.T) {
	p := rfcProofState(t)

	assert.Equal(t, "c=biws,r="+rfcServerNonce, p.finalNoPf)
	assert.Equal(t, "n=user,r="+rfcClientNonce+",r="+rfcServerNonce+",s="+rfcSalt+",i=4096,c=biws,r="+rfcServerNonce,
		p.authMessage)
	assert.Equal(t, rfcProof, p.clientProof())
	assert.Equal(t, rfcServerSig, base64.StdEncoding.EncodeToString(p.serverSignature()))

	final, err := fromBase64(p.clientFinal())
	require.NoError(t, err)
	assert.Equal(t, "c=biws,r="+rfcServerNonce+",p="+rfcProof, string(final))
}

func TestProofVerify(t *testing.T) {
	p := rfcProofState(t)

	assert.True(t, p.verify(rfcServerSig))
	assert.True(t, p.verify("6rriTRBi23WpRR_wtup-mMhUZUn_dB5nLTJRsjl95G4"))
	assert.False(t, p.verify("7rriTRBi23WpRR/wtup+mMhUZUn/dB5nLTJRsjl95G4="))
	assert.False(t, p.verify(""))
	assert.False(t, p.verify("%%%"))
}

func TestBearerHeader(t *testing.T) {
	assert.Equal(t, "BEARER authToken=abc-123", BearerHeader("abc-123"))
}

func TestRandomNonce(t *testing.T) {
	a, err := RandomNonce{}.Nonce()
	require.NoError(t, err)
	b, err := RandomNonce{}.Nonce()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

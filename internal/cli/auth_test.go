package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/haystack/internal/testutil"
	"github.com/roach88/haystack/scram"
)

// runAuthCommand runs auth against srv and returns stdout.
func runAuthCommand(t *testing.T, srv *testutil.ScramServer, format string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newAuthCommand(&AuthOptions{
		RootOptions: &RootOptions{Format: format},
		Transport:   srv.Client(),
	})
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestAuthWithProfile(t *testing.T) {
	srv := testutil.NewScramServer(t, "su", "s3cret")
	t.Setenv("HAYSTACK_TEST_AUTH_PW", "s3cret")
	path := writeProfile(t, "uri: "+srv.URI()+"\nusername: su\npassword_env: HAYSTACK_TEST_AUTH_PW\ntimeout: 5s\n")

	out, err := runAuthCommand(t, srv, "text", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, srv.Token()+"\n", out)
}

func TestAuthFlagsAndEnv(t *testing.T) {
	srv := testutil.NewScramServer(t, "su", "s3cret")
	t.Setenv(PasswordEnv, "s3cret")

	out, err := runAuthCommand(t, srv, "text", "--uri", srv.URI(), "-u", "su", "--bearer")
	require.NoError(t, err)
	assert.Equal(t, scram.BearerHeader(srv.Token())+"\n", out)
}

func TestAuthFlagsOverrideProfile(t *testing.T) {
	srv := testutil.NewScramServer(t, "admin", "pw")
	path := writeProfile(t, "uri: http://unused.invalid/api/x\nusername: nobody\npassword: pw\n")

	out, err := runAuthCommand(t, srv, "json", "--config", path, "--uri", srv.URI(), "--username", "admin")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   AuthResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, AuthResult{
		URI:           srv.URI(),
		Username:      "admin",
		Token:         srv.Token(),
		Authorization: "BEARER authToken=" + srv.Token(),
	}, resp.Data)
}

func TestAuthRejected(t *testing.T) {
	srv := testutil.NewScramServer(t, "su", "s3cret")
	path := writeProfile(t, "uri: "+srv.URI()+"\nusername: su\npassword: wrong\n")

	out, err := runAuthCommand(t, srv, "text", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, scram.IsCredentialError(err))
	assert.Contains(t, out, "Error ["+ErrCodeAuth+"]")
	assert.NotContains(t, out, "wrong")
}

func TestAuthSignatureMismatch(t *testing.T) {
	srv := testutil.NewScramServer(t, "su", "s3cret", testutil.WithCorruptSignature())
	path := writeProfile(t, "uri: "+srv.URI()+"\nusername: su\npassword: s3cret\n")

	out, err := runAuthCommand(t, srv, "text", "--config", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, scram.ErrSignatureMismatch)
	assert.NotContains(t, out, srv.Token())
}

func TestAuthConfigErrors(t *testing.T) {
	srv := testutil.NewScramServer(t, "su", "s3cret")
	cases := []struct {
		name string
		args func(t *testing.T) []string
	}{
		{"missing profile", func(t *testing.T) []string {
			return []string{"--config", filepath.Join(t.TempDir(), "none.yaml")}
		}},
		{"no uri", func(t *testing.T) []string {
			return []string{"--username", "su"}
		}},
		{"unknown profile key", func(t *testing.T) []string {
			return []string{"--config", writeProfile(t, "uri: "+srv.URI()+"\nusername: su\nuser: typo\n")}
		}},
		{"password env unset", func(t *testing.T) []string {
			return []string{"--config", writeProfile(t, "uri: "+srv.URI()+"\nusername: su\npassword_env: HAYSTACK_TEST_NEVER_SET\n")}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := runAuthCommand(t, srv, "text", tc.args(t)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.True(t, strings.HasPrefix(out, "Error ["+ErrCodeConfig+"]"), out)
			assert.Empty(t, srv.Requests())
		})
	}
}

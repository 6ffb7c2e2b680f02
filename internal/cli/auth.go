package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/roach88/haystack/internal/config"
	"github.com/roach88/haystack/scram"
)

// PasswordEnv is read for the password when no profile is given.
const PasswordEnv = "HAYSTACK_PASSWORD"

// AuthOptions holds flags for the auth command.
type AuthOptions struct {
	*RootOptions
	Config    string // profile path
	URI       string // overrides the profile uri
	Username  string // overrides the profile username
	Bearer    bool   // print the Authorization header instead of the bare token
	Normalize bool

	// Transport replaces the HTTP client. Tests point it at a fake server.
	Transport scram.Transport
}

// AuthResult is the JSON payload of a successful auth command.
type AuthResult struct {
	URI           string `json:"uri"`
	Username      string `json:"username"`
	Token         string `json:"token"`
	Authorization string `json:"authorization"`
}

// NewAuthCommand creates the auth command.
func NewAuthCommand(rootOpts *RootOptions) *cobra.Command {
	return newAuthCommand(&AuthOptions{RootOptions: rootOpts})
}

func newAuthCommand(opts *AuthOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Run the SCRAM handshake and print the auth token",
		Long: `Authenticate against a Haystack server and print the bearer token.

Connection details come from a profile (--config). Without a profile,
--uri and --username are required and the password is read from
$` + PasswordEnv + `.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "client profile (YAML)")
	cmd.Flags().StringVar(&opts.URI, "uri", "", "project uri, e.g. http://host/api/demo")
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "user name")
	cmd.Flags().BoolVar(&opts.Bearer, "bearer", false, "print the full Authorization header")
	cmd.Flags().BoolVar(&opts.Normalize, "normalize", false, "NFKC-normalise credentials before use")

	return cmd
}

func runAuth(opts *AuthOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	profile, err := opts.profile()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "loading profile", err)
	}
	password, err := profile.Secret()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "resolving password", err)
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Client{Timeout: profile.TimeoutDuration()}
	}
	authOpts := []scram.Option{
		scram.WithTransport(transport),
		scram.WithLogger(opts.logger()),
	}
	if opts.Normalize {
		authOpts = append(authOpts, scram.WithNormalize())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, profile.TimeoutDuration())
	defer cancel()

	token, err := scram.New(profile.URI, profile.Username, password, authOpts...).Authenticate(ctx)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeAuth, "authentication failed", err)
	}

	res := AuthResult{
		URI:           profile.URI,
		Username:      profile.Username,
		Token:         token,
		Authorization: scram.BearerHeader(token),
	}
	text := token
	if opts.Bearer {
		text = res.Authorization
	}
	return f.Success(text, res)
}

// profile loads the profile named by --config and applies flag overrides.
func (o *AuthOptions) profile() (*config.Profile, error) {
	p := &config.Profile{PasswordEnv: PasswordEnv}
	if o.Config != "" {
		loaded, err := config.Load(o.Config)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	if o.URI != "" {
		p.URI = o.URI
	}
	if o.Username != "" {
		p.Username = o.Username
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

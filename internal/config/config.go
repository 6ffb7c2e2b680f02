// Package config loads Haystack client profiles.
//
// A profile is a YAML file naming the server project uri and credentials:
//
//	uri: http://localhost:8080/api/demo
//	username: su
//	password_env: HAYSTACK_PASSWORD
//	timeout: 30s
//	format: zinc
//
// Profiles are decoded strictly (unknown keys are rejected) and then
// checked against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// DefaultTimeout applies when a profile sets no timeout.
const DefaultTimeout = 30 * time.Second

// Profile is one server connection.
//
// The json tags are what the CUE schema sees.
type Profile struct {
	URI         string `yaml:"uri" json:"uri"`
	Username    string `yaml:"username" json:"username"`
	Password    string `yaml:"password,omitempty" json:"password,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty" json:"password_env,omitempty"`
	Timeout     string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Format      string `yaml:"format,omitempty" json:"format,omitempty"`
}

// Error reports a profile that could not be read or is invalid.
type Error struct {
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err is (or wraps) a config Error.
func IsError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Load reads and validates the profile at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Msg: "failed to read profile", Err: err}
	}
	p, err := Parse(data)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return p, nil
}

// Parse decodes and validates a profile held in memory.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, &Error{Path: "<input>", Msg: "failed to parse YAML", Err: err}
	}
	if err := p.Validate(); err != nil {
		return nil, &Error{Path: "<input>", Msg: "invalid profile", Err: err}
	}
	return &p, nil
}

// Validate checks p against the profile schema.
func (p *Profile) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Profile")).Unify(ctx.Encode(p))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	if p.Password != "" && p.PasswordEnv != "" {
		return errors.New("password and password_env are mutually exclusive")
	}
	return nil
}

// Secret resolves the password, reading password_env when set.
func (p *Profile) Secret() (string, error) {
	if p.PasswordEnv == "" {
		return p.Password, nil
	}
	v, ok := os.LookupEnv(p.PasswordEnv)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", p.PasswordEnv)
	}
	return v, nil
}

// TimeoutDuration returns the request timeout, DefaultTimeout if unset.
func (p *Profile) TimeoutDuration() time.Duration {
	if p.Timeout == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		// Validate only admits parseable values.
		return DefaultTimeout
	}
	return d
}

// WireFormat returns "zinc" or "json", defaulting to zinc.
func (p *Profile) WireFormat() string {
	if p.Format == "" {
		return "zinc"
	}
	return p.Format
}

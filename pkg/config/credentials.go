package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	EnvTokenID      = "MUX_TOKEN_ID"
	EnvTokenSecret  = "MUX_TOKEN_SECRET"
	EnvLiveStreamID = "MUX_LIVE_STREAM_ID"
)

var ErrMissingCredentials = errors.New("missing credentials")

// Credentials identify this process to the live-video platform.
type Credentials struct {
	TokenID     string
	TokenSecret string
}

func (c Credentials) Complete() bool {
	return c.TokenID != "" && c.TokenSecret != ""
}

// Missing lists the environment variables that were not provided.
func (c Credentials) Missing() []string {
	var missing []string
	if c.TokenID == "" {
		missing = append(missing, EnvTokenID)
	}
	if c.TokenSecret == "" {
		missing = append(missing, EnvTokenSecret)
	}
	return missing
}

// String never includes the secret.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{TokenID:%t TokenSecret:%t}", c.TokenID != "", c.TokenSecret != "")
}

// LoadCredentials reads the token pair. In strict mode any missing value is an
// error wrapping ErrMissingCredentials that names the missing variables.
func LoadCredentials(getenv func(string) string, strict bool) (Credentials, error) {
	creds := Credentials{
		TokenID:     strings.TrimSpace(getenv(EnvTokenID)),
		TokenSecret: strings.TrimSpace(getenv(EnvTokenSecret)),
	}

	if strict && !creds.Complete() {
		return creds, fmt.Errorf("%w: %s not set", ErrMissingCredentials, strings.Join(creds.Missing(), " and "))
	}
	return creds, nil
}

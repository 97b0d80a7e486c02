package config

import (
	"fmt"

	"github.com/glorpus-work/zpkg/pkg/auth"
)

// AuthConfigContainer defines the interface for authentication configuration types that can be converted to an Authenticator.
type AuthConfigContainer interface {
	ToAuthenticator() auth.Authenticator
}

// AuthConfig holds the authentication for a source or host. At most one
// method may be set.
type AuthConfig struct {
	BasicAuth  *BasicAuth  `yaml:"basic,omitempty"`
	HeaderAuth *HeaderAuth `yaml:"header,omitempty"`
	BearerAuth *BearerAuth `yaml:"bearer,omitempty"`
}

// BasicAuth holds configuration for HTTP Basic Authentication.
type BasicAuth struct {
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password"`
}

// HeaderAuth holds configuration for custom header-based authentication.
type HeaderAuth struct {
	Headers map[string]string `yaml:"headers" validate:"min=1"`
}

// BearerAuth holds configuration for Bearer token authentication.
type BearerAuth struct {
	Token string `yaml:"token" validate:"required"`
}

// ToAuthenticator converts the BasicAuth configuration to an Authenticator.
func (b *BasicAuth) ToAuthenticator() auth.Authenticator {
	return &auth.BasicAuth{
		Username: b.Username,
		Password: b.Password,
	}
}

// ToAuthenticator converts the HeaderAuth configuration to an Authenticator.
func (h *HeaderAuth) ToAuthenticator() auth.Authenticator {
	return &auth.HeaderAuth{
		Headers: h.Headers,
	}
}

// ToAuthenticator converts the BearerAuth configuration to an Authenticator.
func (b *BearerAuth) ToAuthenticator() auth.Authenticator {
	return &auth.BearerAuth{
		Token: b.Token,
	}
}

// ToAuthenticator returns the configured method, or nil when none is set.
func (a *AuthConfig) ToAuthenticator() auth.Authenticator {
	if a == nil {
		return nil
	}
	switch {
	case a.BasicAuth != nil:
		return a.BasicAuth.ToAuthenticator()
	case a.HeaderAuth != nil:
		return a.HeaderAuth.ToAuthenticator()
	case a.BearerAuth != nil:
		return a.BearerAuth.ToAuthenticator()
	default:
		return nil
	}
}

func (a *AuthConfig) validate() error {
	if a == nil {
		return nil
	}
	set := 0
	for _, present := range []bool{a.BasicAuth != nil, a.HeaderAuth != nil, a.BearerAuth != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("expected one authentication method, got %d", set)
	}
	return nil
}

// ToCredentials collects the configured authentication keyed by host.
// Explicit host credentials override those derived from source URLs.
// Returns nil if no authentication is configured.
func (c *Config) ToCredentials() auth.Credentials {
	results := make(auth.Credentials)
	for _, src := range c.Sources {
		a := src.Auth.ToAuthenticator()
		host := auth.HostOf(src.URL)
		if a == nil || host == "" {
			continue
		}
		results[host] = a
	}
	for _, cred := range c.Credentials {
		if a := cred.Auth.ToAuthenticator(); a != nil {
			results[cred.Host] = a
		}
	}

	if len(results) == 0 {
		return nil
	}
	return results
}

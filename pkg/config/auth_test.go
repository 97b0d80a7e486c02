package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glorpus-work/zpkg/pkg/auth"
)

func TestToCredentials(t *testing.T) {
	tests := []struct {
		name        string
		sources     []*SourceConfig
		credentials []*HostCredential
		expected    auth.Credentials
	}{
		{
			name:     "no sources",
			expected: nil,
		},
		{
			name:     "source without auth",
			sources:  []*SourceConfig{{Name: "a", URL: "https://example.com/repo"}},
			expected: nil,
		},
		{
			name: "basic auth",
			sources: []*SourceConfig{{
				Name: "a",
				URL:  "https://example.com/repo",
				Auth: &AuthConfig{BasicAuth: &BasicAuth{Username: "user", Password: "pass"}},
			}},
			expected: auth.Credentials{
				"example.com": &auth.BasicAuth{Username: "user", Password: "pass"},
			},
		},
		{
			name: "header and bearer on different hosts",
			sources: []*SourceConfig{
				{
					Name: "a",
					URL:  "https://one.example.com/idx.git",
					Auth: &AuthConfig{HeaderAuth: &HeaderAuth{Headers: map[string]string{"X-API-Key": "k"}}},
				},
				{
					Name: "b",
					URL:  "https://two.example.com:8443/idx.tar.gz",
					Auth: &AuthConfig{BearerAuth: &BearerAuth{Token: "token123"}},
				},
			},
			expected: auth.Credentials{
				"one.example.com":      &auth.HeaderAuth{Headers: map[string]string{"X-API-Key": "k"}},
				"two.example.com:8443": &auth.BearerAuth{Token: "token123"},
			},
		},
		{
			name: "host credential overrides source",
			sources: []*SourceConfig{{
				Name: "a",
				URL:  "https://example.com/repo",
				Auth: &AuthConfig{BearerAuth: &BearerAuth{Token: "source"}},
			}},
			credentials: []*HostCredential{
				{Host: "example.com", Auth: &AuthConfig{BearerAuth: &BearerAuth{Token: "host"}}},
				{Host: "pkgs.example.org", Auth: &AuthConfig{BasicAuth: &BasicAuth{Username: "u"}}},
			},
			expected: auth.Credentials{
				"example.com":      &auth.BearerAuth{Token: "host"},
				"pkgs.example.org": &auth.BasicAuth{Username: "u"},
			},
		},
		{
			name: "ssh source has no host credentials",
			sources: []*SourceConfig{{
				Name: "a",
				URL:  "git@github.com:example/idx.git",
				Auth: &AuthConfig{BearerAuth: &BearerAuth{Token: "t"}},
			}},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Sources: tt.sources, Credentials: tt.credentials}
			assert.Equal(t, tt.expected, cfg.ToCredentials())
		})
	}
}

func TestAuthConfigValidation(t *testing.T) {
	var nilAuth *AuthConfig
	assert.NoError(t, nilAuth.validate())
	assert.Nil(t, nilAuth.ToAuthenticator())

	assert.Error(t, (&AuthConfig{}).validate())
	assert.Error(t, (&AuthConfig{
		BasicAuth:  &BasicAuth{Username: "u"},
		BearerAuth: &BearerAuth{Token: "t"},
	}).validate())
	assert.NoError(t, (&AuthConfig{BearerAuth: &BearerAuth{Token: "t"}}).validate())
}

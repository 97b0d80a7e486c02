// Package auth provides credentials for source and package fetches over
// HTTP and git.
//
//go:generate mockgen -destination=./mocks/auth.go . Authenticator
package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Authenticator defines the interface for applying authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// BasicAuth represents HTTP Basic Authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// HeaderAuth represents authentication via custom HTTP headers.
type HeaderAuth struct {
	Headers map[string]string
}

// BearerAuth represents Bearer token authentication.
type BearerAuth struct {
	Token string
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	BasicAuthType  Type = "basic"
	HeaderAuthType Type = "header"
	BearerAuthType Type = "bearer"
)

// Apply adds Basic Authentication headers to the HTTP request.
func (b BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Type returns the authentication type (BasicAuthType).
func (b BasicAuth) Type() Type { return BasicAuthType }

// Apply adds custom headers to the HTTP request.
func (h HeaderAuth) Apply(req *http.Request) error {
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	return nil
}

// Type returns the authentication type (HeaderAuthType).
func (h HeaderAuth) Type() Type { return HeaderAuthType }

// Apply adds a Bearer token to the Authorization header of the HTTP request.
func (b BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type returns the authentication type (BearerAuthType).
func (b BearerAuth) Type() Type { return BearerAuthType }

// GitAuthMethod converts an authenticator into a go-git auth method for
// smart HTTP remotes. Header authentication has no git equivalent and
// yields nil, as does a nil authenticator.
func GitAuthMethod(a Authenticator) transport.AuthMethod {
	switch v := a.(type) {
	case BasicAuth:
		return &githttp.BasicAuth{Username: v.Username, Password: v.Password}
	case *BasicAuth:
		return &githttp.BasicAuth{Username: v.Username, Password: v.Password}
	case BearerAuth:
		return &githttp.TokenAuth{Token: v.Token}
	case *BearerAuth:
		return &githttp.TokenAuth{Token: v.Token}
	default:
		return nil
	}
}

// Credentials maps hosts to authenticators.
type Credentials map[string]Authenticator

// ForURL returns the authenticator registered for the host of rawURL, or nil.
// SSH and scp-style URLs never match; they authenticate through the agent.
func (c Credentials) ForURL(rawURL string) Authenticator {
	if len(c) == 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || !strings.HasPrefix(u.Scheme, "http") {
		return nil
	}
	if a, ok := c[u.Host]; ok {
		return a
	}
	return c[u.Hostname()]
}

// HostOf returns the host part of an HTTP(S) URL.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

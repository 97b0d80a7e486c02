package auth_test

import (
	"net/http"
	"testing"

	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/zpkg/pkg/auth"
)

func TestAuthenticators(t *testing.T) {
	tests := []struct {
		name     string
		auth     auth.Authenticator
		kind     auth.Type
		expected map[string]string
	}{
		{
			name:     "basic",
			auth:     auth.BasicAuth{Username: "user", Password: "pass"},
			kind:     auth.BasicAuthType,
			expected: map[string]string{"Authorization": "Basic dXNlcjpwYXNz"},
		},
		{
			name:     "basic with empty credentials",
			auth:     auth.BasicAuth{},
			kind:     auth.BasicAuthType,
			expected: map[string]string{"Authorization": "Basic Og=="},
		},
		{
			name: "headers are canonicalized",
			auth: auth.HeaderAuth{Headers: map[string]string{"X-API-Key": "test-key", "X-Client-ID": "client-123"}},
			kind: auth.HeaderAuthType,
			expected: map[string]string{
				"X-Api-Key":   "test-key",
				"X-Client-Id": "client-123",
			},
		},
		{
			name:     "bearer",
			auth:     auth.BearerAuth{Token: "test-token-123"},
			kind:     auth.BearerAuthType,
			expected: map[string]string{"Authorization": "Bearer test-token-123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "https://example.com", http.NoBody)
			require.NoError(t, err)

			require.NoError(t, tt.auth.Apply(req))
			for k, v := range tt.expected {
				assert.Equal(t, v, req.Header.Get(k))
			}
			assert.Equal(t, tt.kind, tt.auth.Type())
		})
	}
}

func TestGitAuthMethod(t *testing.T) {
	basic := auth.GitAuthMethod(auth.BasicAuth{Username: "u", Password: "p"})
	require.IsType(t, &githttp.BasicAuth{}, basic)
	assert.Equal(t, "u", basic.(*githttp.BasicAuth).Username)

	token := auth.GitAuthMethod(&auth.BearerAuth{Token: "t"})
	require.IsType(t, &githttp.TokenAuth{}, token)
	assert.Equal(t, "t", token.(*githttp.TokenAuth).Token)

	assert.Nil(t, auth.GitAuthMethod(auth.HeaderAuth{}))
	assert.Nil(t, auth.GitAuthMethod(nil))
}

func TestCredentials_ForURL(t *testing.T) {
	creds := auth.Credentials{
		"git.example.org":      auth.BearerAuth{Token: "a"},
		"mirror.example.org:8": auth.BasicAuth{Username: "b"},
	}

	assert.Equal(t, auth.BearerAuth{Token: "a"}, creds.ForURL("https://git.example.org/team/pkg.git"))
	assert.Equal(t, auth.BasicAuth{Username: "b"}, creds.ForURL("http://mirror.example.org:8/x.tar.gz"))
	assert.Nil(t, creds.ForURL("https://other.example.org/x"))
	assert.Nil(t, creds.ForURL("git@git.example.org:team/pkg.git"))
	assert.Nil(t, auth.Credentials(nil).ForURL("https://git.example.org/x"))
}

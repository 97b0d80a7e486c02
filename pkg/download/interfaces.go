//go:generate mockgen -destination=./mocks/download.go . Manager

// Package download fetches remote files (source index archives and package
// archives) over HTTP with retries, per-host circuit breaking and optional
// checksum verification.
package download

import (
	"context"
	"net/url"

	"github.com/glorpus-work/zpkg/pkg/auth"
)

// Manager downloads remote files into a local directory.
type Manager interface {
	// Fetch downloads a single item to a deterministic location within
	// opts.Dir and returns the absolute local file path.
	Fetch(ctx context.Context, item Item, opts Options) (string, error)
}

// Item represents one remote resource to download.
type Item struct {
	ID       string             // stable identifier used in log output
	URL      *url.URL           // source URL to download
	Checksum string             // optional hex-encoded SHA-256 checksum; verified when set
	Filename string             // optional preferred filename; derived from the URL otherwise
	Auth     auth.Authenticator // optional credentials applied to the request
}

// Options control the behavior of a single download.
type Options struct {
	Dir   string // destination directory. Must be absolute.
	Fresh bool   // ignore an already downloaded file with the same name
}

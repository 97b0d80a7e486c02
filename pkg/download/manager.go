package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
	"github.com/rs/dnscache"

	"github.com/glorpus-work/zpkg/internal/logger"
	pkgerrors "github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/fsutil"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "zpkg/1.0"

// retryableError marks failures worth another attempt (5xx, 429, network).
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// ManagerImpl is the HTTP download manager.
type ManagerImpl struct {
	client     *http.Client
	userAgent  string
	maxRetries uint64
	baseDelay  time.Duration

	breakersMu sync.RWMutex
	breakers   map[string]*circuit.Breaker
}

// Option configures a ManagerImpl.
type Option func(*ManagerImpl)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *ManagerImpl) { m.client = c }
}

// WithRetries sets the number of retries and the initial backoff delay.
func WithRetries(n int, baseDelay time.Duration) Option {
	return func(m *ManagerImpl) {
		if n >= 0 {
			m.maxRetries = uint64(n)
		}
		if baseDelay > 0 {
			m.baseDelay = baseDelay
		}
	}
}

var (
	sharedResolver     *dnscache.Resolver
	sharedResolverOnce sync.Once
)

// resolver returns the process wide DNS cache, refreshed every five minutes.
func resolver() *dnscache.Resolver {
	sharedResolverOnce.Do(func() {
		sharedResolver = &dnscache.Resolver{}
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				sharedResolver.Refresh(true)
			}
		}()
	})
	return sharedResolver
}

// NewHTTPClient returns an HTTP client dialing through the shared DNS cache.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	r := resolver()

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := r.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				var lastErr error
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
					lastErr = err
				}
				return nil, fmt.Errorf("failed to dial any resolved IP for %s: %w", host, lastErr)
			},
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// NewManager creates a new download manager with the given timeout and user agent.
func NewManager(timeout time.Duration, userAgent string, opts ...Option) *ManagerImpl {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	m := &ManagerImpl{
		client:     NewHTTPClient(timeout),
		userAgent:  userAgent,
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		breakers:   make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fetch downloads a single item and returns the path to the downloaded file.
func (m *ManagerImpl) Fetch(ctx context.Context, item Item, opts Options) (string, error) {
	if opts.Dir == "" || !filepath.IsAbs(opts.Dir) {
		return "", fmt.Errorf("download dir must be absolute: %s: %w", opts.Dir, pkgerrors.ErrInvalidPath)
	}
	if item.URL == nil {
		return "", fmt.Errorf("item %s has no URL: %w", item.ID, pkgerrors.ErrFetch)
	}
	if err := os.MkdirAll(opts.Dir, fsutil.DirModeSecure); err != nil {
		return "", pkgerrors.Wrap(err, "could not create download dir")
	}

	absPath := filepath.Join(opts.Dir, selectFilename(item))
	if !opts.Fresh {
		if reuse, ok := tryReuseExisting(absPath, item.Checksum); ok {
			return reuse, nil
		}
	}

	tmpPath, err := m.download(ctx, item, absPath)
	if err != nil {
		return "", err
	}
	if item.Checksum != "" {
		ok, err := verifySHA256(tmpPath, item.Checksum)
		if err != nil {
			_ = os.Remove(tmpPath)
			return "", err
		}
		if !ok {
			_ = os.Remove(tmpPath)
			return "", fmt.Errorf("%w: checksum mismatch for %s", pkgerrors.ErrFetch, item.URL.Redacted())
		}
	}
	if err := finalizeFile(tmpPath, absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// download retries transient failures with exponential backoff and writes
// the body to a temporary file next to absPath.
func (m *ManagerImpl) download(ctx context.Context, item Item, absPath string) (string, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = m.baseDelay
	expBackoff.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, m.maxRetries), ctx)

	var (
		tmpPath  string
		terminal error
		attempt  int
	)
	err := backoff.Retry(func() error {
		attempt++
		path, err := m.attempt(ctx, item, absPath)
		if err == nil {
			tmpPath = path
			return nil
		}
		if _, ok := err.(*retryableError); ok && ctx.Err() == nil {
			logger.Debug("Retrying download", logger.Fields{"id": item.ID, "attempt": attempt, "error": err.Error()})
			return err
		}
		terminal = err
		return nil
	}, policy)

	switch {
	case terminal != nil:
		return "", terminal
	case ctx.Err() != nil:
		return "", ctx.Err()
	case err != nil:
		return "", fmt.Errorf("%w: %s after %d attempts: %w", pkgerrors.ErrFetch, item.URL.Redacted(), attempt, err)
	}
	return tmpPath, nil
}

func (m *ManagerImpl) attempt(ctx context.Context, item Item, absPath string) (string, error) {
	host := item.URL.Host
	breaker := m.breaker(host)
	if !breaker.Ready() {
		return "", fmt.Errorf("%w: circuit breaker open for %s", pkgerrors.ErrFetch, host)
	}

	// Only transport failures and server errors count against the host.
	var (
		resp      *http.Response
		clientErr error
	)
	err := breaker.Call(func() error {
		var reqErr error
		resp, reqErr = m.doRequest(ctx, item)
		if reqErr == nil {
			return nil
		}
		if _, ok := reqErr.(*retryableError); ok {
			return reqErr
		}
		clientErr = reqErr
		return nil
	}, 0)
	switch {
	case clientErr != nil:
		return "", clientErr
	case err != nil:
		if _, ok := err.(*retryableError); ok {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", pkgerrors.ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	tmpPath, err := writeBodyToTemp(resp, absPath)
	if err != nil {
		return "", &retryableError{err}
	}
	return tmpPath, nil
}

// breaker returns or creates the circuit breaker for host. It trips after
// five consecutive failures.
func (m *ManagerImpl) breaker(host string) *circuit.Breaker {
	m.breakersMu.RLock()
	b, ok := m.breakers[host]
	m.breakersMu.RUnlock()
	if ok {
		return b
	}

	m.breakersMu.Lock()
	defer m.breakersMu.Unlock()
	if b, ok := m.breakers[host]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
	m.breakers[host] = b
	return b
}

// BreakerStates reports "open" or "closed" per host seen so far.
func (m *ManagerImpl) BreakerStates() map[string]string {
	m.breakersMu.RLock()
	defer m.breakersMu.RUnlock()

	states := make(map[string]string, len(m.breakers))
	for host, b := range m.breakers {
		if b.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

func selectFilename(item Item) string {
	if item.Filename != "" {
		return item.Filename
	}
	if item.Checksum != "" {
		return normalizeHex(item.Checksum)
	}
	h := sha256.Sum256([]byte(item.URL.String()))
	return hex.EncodeToString(h[:])
}

func tryReuseExisting(absPath, checksum string) (string, bool) {
	st, err := os.Stat(absPath)
	if err != nil || st.Size() == 0 {
		return "", false
	}
	if checksum == "" {
		return absPath, true
	}
	if ok, err := verifySHA256(absPath, checksum); err == nil && ok {
		return absPath, true
	}
	return "", false
}

func (m *ManagerImpl) doRequest(ctx context.Context, item Item) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL.String(), http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)
	if item.Auth != nil {
		if err := item.Auth.Apply(req); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to apply credentials")
		}
	}

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{fmt.Errorf("%w: %w", pkgerrors.ErrFetch, err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		_ = resp.Body.Close()
		return nil, &retryableError{fmt.Errorf("%w: unexpected status code: %d", pkgerrors.ErrFetch, resp.StatusCode)}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status code: %d: %s", pkgerrors.ErrFetch, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

func writeBodyToTemp(resp *http.Response, absPath string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(absPath), "dl-*.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

func finalizeFile(tmpPath, absPath string) error {
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return pkgerrors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeSecure); err != nil {
		return pkgerrors.Wrap(err, "could not set permissions")
	}
	return nil
}

func verifySHA256(path string, wantHex string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, pkgerrors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, pkgerrors.Wrap(err, "hashing")
	}
	return hex.EncodeToString(h.Sum(nil)) == normalizeHex(wantHex), nil
}

func normalizeHex(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Package errors holds the error taxonomy shared by every zpkg package.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Package lifecycle errors. They are reported per operation and never abort a batch.
var (
	ErrAmbiguous        = fmt.Errorf("ambiguous package name")
	ErrNotFound         = fmt.Errorf("package not found")
	ErrNoSuchVersion    = fmt.Errorf("no such version")
	ErrFetch            = fmt.Errorf("fetch failed")
	ErrManifestInvalid  = fmt.Errorf("invalid package manifest")
	ErrAlreadyInstalled = fmt.Errorf("package already installed")
	ErrNotInstalled     = fmt.Errorf("package not installed")
	ErrPinnedConflict   = fmt.Errorf("package is pinned")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrAlreadyLoaded    = fmt.Errorf("package already loaded")
	ErrNotLoaded        = fmt.Errorf("package not loaded")
	ErrAlreadyPinned    = fmt.Errorf("package already pinned")
	ErrNotPinned        = fmt.Errorf("package not pinned")
	ErrHookFailed       = fmt.Errorf("hook script failed")

	ErrUnsupportedPlatform = fmt.Errorf("package does not support this platform")
)

// Source errors.
var (
	ErrInvalidSource  = fmt.Errorf("invalid source location")
	ErrSourceExists   = fmt.Errorf("source already exists")
	ErrSourceNotFound = fmt.Errorf("source not found")
)

// Local environment errors. These are fatal for a whole invocation.
var (
	ErrStateUnwritable = fmt.Errorf("installed package state is not writable")
	ErrInvalidPath     = fmt.Errorf("invalid path")
)

// Config errors.
var (
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")
)

// Cache errors.
var (
	ErrCacheClean     = fmt.Errorf("failed to clean cache")
	ErrCacheInfo      = fmt.Errorf("failed to get cache info")
	ErrCacheDirectory = fmt.Errorf("cache directory cannot be empty")
)

// AmbiguityError reports a reference matching several packages.
type AmbiguityError struct {
	Ref     string
	Matches []string
}

// NewAmbiguityError builds an AmbiguityError with the matches sorted.
func NewAmbiguityError(ref string, matches []string) *AmbiguityError {
	sorted := append([]string(nil), matches...)
	sort.Strings(sorted)
	return &AmbiguityError{Ref: ref, Matches: sorted}
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("%s: %q matches %s; use the source/path form to disambiguate",
		ErrAmbiguous, e.Ref, strings.Join(e.Matches, ", "))
}

// Is makes errors.Is(err, ErrAmbiguous) hold.
func (e *AmbiguityError) Is(target error) bool { return target == ErrAmbiguous }

// NotFoundError reports a reference matching no known package.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrNotFound, e.Ref)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Kind returns a short stable label for err, suitable for structured output.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case stderrors.Is(err, ErrAmbiguous):
		return "ambiguous"
	case stderrors.Is(err, ErrNotFound):
		return "not-found"
	case stderrors.Is(err, ErrNoSuchVersion):
		return "no-such-version"
	case stderrors.Is(err, ErrTimeout):
		return "timeout"
	case stderrors.Is(err, ErrFetch):
		return "fetch"
	case stderrors.Is(err, ErrManifestInvalid):
		return "manifest-invalid"
	case stderrors.Is(err, ErrUnsupportedPlatform):
		return "unsupported-platform"
	case stderrors.Is(err, ErrAlreadyInstalled):
		return "already-installed"
	case stderrors.Is(err, ErrNotInstalled):
		return "not-installed"
	case stderrors.Is(err, ErrPinnedConflict):
		return "pinned"
	case stderrors.Is(err, ErrAlreadyLoaded), stderrors.Is(err, ErrNotLoaded),
		stderrors.Is(err, ErrAlreadyPinned), stderrors.Is(err, ErrNotPinned):
		return "no-op"
	case stderrors.Is(err, ErrHookFailed):
		return "hook"
	default:
		return "error"
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Join returns an error that wraps the given errors.
func Join(errs ...error) error { return stderrors.Join(errs...) }

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

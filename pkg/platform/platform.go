// Package platform names operating system and architecture pairs that a
// package manifest can restrict itself to.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Any matches every OS or every architecture.
const Any = "any"

// Platform is an OS/architecture pair. Either half may be Any.
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// Current returns the platform zpkg is running on.
func Current() Platform {
	return Platform{OS: NormalizeOS(runtime.GOOS), Arch: NormalizeArch(runtime.GOARCH)}
}

// Parse reads "os/arch", "os" (any architecture) or "any".
func Parse(s string) (Platform, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Platform{}, fmt.Errorf("empty platform")
	}
	osName, arch, found := strings.Cut(s, "/")
	if !found {
		arch = Any
	}
	if osName == "" || arch == "" || strings.Contains(arch, "/") {
		return Platform{}, fmt.Errorf("invalid platform %q, want os/arch", s)
	}
	return Platform{OS: NormalizeOS(osName), Arch: NormalizeArch(arch)}, nil
}

// Matches reports whether p and target agree, treating Any as a wildcard on
// either side.
func (p Platform) Matches(target Platform) bool {
	return (p.OS == Any || target.OS == Any || p.OS == target.OS) &&
		(p.Arch == Any || target.Arch == Any || p.Arch == target.Arch)
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// NormalizeOS maps common OS spellings onto GOOS names.
func NormalizeOS(os string) string {
	os = strings.ToLower(strings.TrimSpace(os))
	switch os {
	case "macos", "osx":
		return "darwin"
	case "win":
		return "windows"
	default:
		return os
	}
}

// NormalizeArch maps common architecture spellings onto GOARCH names.
func NormalizeArch(arch string) string {
	arch = strings.ToLower(strings.TrimSpace(arch))
	switch {
	case arch == "x86_64" || arch == "x64":
		return "amd64"
	case arch == "x86" || (len(arch) == 4 && arch[0] == 'i' && strings.HasSuffix(arch, "86")):
		return "386"
	case arch == "aarch64":
		return "arm64"
	case strings.HasPrefix(arch, "armv"):
		return "arm"
	default:
		return arch
	}
}

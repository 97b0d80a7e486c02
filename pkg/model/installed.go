package model

import (
	"path/filepath"
	"time"
)

// Status is the mutable state of an installed package.
type Status struct {
	CurrentVersion string      `json:"current_version"`
	CurrentHash    string      `json:"current_hash"`
	VersionKind    VersionKind `json:"version_kind,omitempty"`
	IsLoaded       bool        `json:"is_loaded"`
	IsPinned       bool        `json:"is_pinned"`
	IsOutdated     bool        `json:"is_outdated"`
}

// InstalledPackage is the durable record of an installed package.
type InstalledPackage struct {
	Package     Package   `json:"package"`
	Status      Status    `json:"status"`
	InstallPath string    `json:"install_path"`
	ScriptDir   string    `json:"script_dir,omitempty"`
	InstalledAt time.Time `json:"installed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Name returns the canonical name the record is keyed by.
func (ip *InstalledPackage) Name() string {
	return ip.Package.QualifiedName()
}

// LoadPath is the directory the host application loads the package from.
func (ip *InstalledPackage) LoadPath() string {
	if ip.ScriptDir == "" {
		return ip.InstallPath
	}
	return filepath.Join(ip.InstallPath, ip.ScriptDir)
}

// Selection returns the installed version as a selection.
func (ip *InstalledPackage) Selection() Selection {
	return Selection{Label: ip.Status.CurrentVersion, Hash: ip.Status.CurrentHash, Kind: ip.Status.VersionKind}
}

// Clone returns a deep copy of the record.
func (ip *InstalledPackage) Clone() *InstalledPackage {
	if ip == nil {
		return nil
	}
	c := *ip
	c.Package = *ip.Package.Clone()
	return &c
}

// PackageSource is a configured, named remote index of packages.
type PackageSource struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

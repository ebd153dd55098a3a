// Package platform describes the host the wrapper runs on.
//
// It turns runtime.GOOS and runtime.GOARCH into the OS family and
// architecture tags the release publisher embeds in asset names (for example
// "Windows_NT" and "x64"), collects Linux distribution details through gopsutil
// for diagnostics, and exposes the result to Lua configuration as a read-only
// table.
package platform

import (
	"context"
	"fmt"
)

// OS family tags used in published asset names.
const (
	OSFamilyLinux   = "Linux"
	OSFamilyDarwin  = "Darwin"
	OSFamilyWindows = "Windows_NT"
)

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Descriptor is the (OS family, CPU architecture) pair used to pick a release asset.
type Descriptor struct {
	OSFamily string // "Linux", "Darwin", "Windows_NT", ...
	Arch     string // "x64", "arm64", "ia32", ...
}

// String renders the descriptor for diagnostics.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%s", d.OSFamily, d.Arch)
}

// IsWindows reports whether the descriptor names the Windows family.
func (d Descriptor) IsWindows() bool {
	return d.OSFamily == OSFamilyWindows
}

// Info contains platform detection information.
type Info struct {
	OS       string // runtime.GOOS
	Arch     string // runtime.GOARCH
	Platform string // distro ID (Linux only, e.g., "ubuntu")
	Family   string // canonical family (e.g., "debian")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// Descriptor maps the Go platform names to the publisher's naming scheme.
func (i *Info) Descriptor() Descriptor {
	return Descriptor{
		OSFamily: OSFamily(i.OS),
		Arch:     PublisherArch(i.Arch),
	}
}

// GetDistro returns distro information on Linux, nil elsewhere or when detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsAMD64 returns true if the architecture is amd64.
func (i *Info) IsAMD64() bool {
	return i.Arch == "amd64"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. Used when the caller overrides detection.
type StaticDetector struct {
	Info *Info
}

// Detect returns a copy of the configured Info.
func (d StaticDetector) Detect(_ context.Context) (*Info, error) {
	if d.Info == nil {
		return nil, fmt.Errorf("static platform info is not set")
	}
	info := *d.Info
	return &info, nil
}

package platform

import (
	"time"
)

// OSFamily represents the broad operating system family of a host
type OSFamily string

const (
	FamilyWindows OSFamily = "windows"
	FamilyMacOS   OSFamily = "macos"
	FamilyLinux   OSFamily = "linux"
	FamilyBSD     OSFamily = "bsd"
	FamilyUnknown OSFamily = "unknown"
)

// DistroFamily represents a Linux distribution family
type DistroFamily string

const (
	DistroDebian    DistroFamily = "debian"
	DistroRHEL      DistroFamily = "rhel"
	DistroArch      DistroFamily = "arch"
	DistroSUSE      DistroFamily = "suse"
	DistroAlpine    DistroFamily = "alpine"
	DistroGentoo    DistroFamily = "gentoo"
	DistroVoid      DistroFamily = "void"
	DistroNixOS     DistroFamily = "nixos"
	DistroSlackware DistroFamily = "slackware"
	DistroUnknown   DistroFamily = "unknown"
	// DistroNone is used on non-Linux hosts
	DistroNone DistroFamily = ""
)

// Profile is an immutable snapshot of the detected host platform.
// Re-detection creates a new Profile; fields are never mutated in place.
type Profile struct {
	OSFamily       OSFamily     `json:"os_family"`
	DistroFamily   DistroFamily `json:"distro_family,omitempty"`
	DistroID       string       `json:"distro_id,omitempty"`
	OSName         string       `json:"os_name"`
	OSVersion      string       `json:"os_version"`
	Architecture   string       `json:"architecture"`
	KernelVersion  string       `json:"kernel_version"`
	Hostname       string       `json:"hostname"`
	PackageManager string       `json:"package_manager"`
	DetectedAt     time.Time    `json:"detected_at"`
}

// IsLinux reports whether the profile describes a Linux host
func (p Profile) IsLinux() bool {
	return p.OSFamily == FamilyLinux
}

// distroFamilies maps os-release ID values (and ID_LIKE tokens) to families
var distroFamilies = map[string]DistroFamily{
	"debian":    DistroDebian,
	"ubuntu":    DistroDebian,
	"linuxmint": DistroDebian,
	"raspbian":  DistroDebian,
	"pop":       DistroDebian,
	"kali":      DistroDebian,
	"rhel":      DistroRHEL,
	"fedora":    DistroRHEL,
	"centos":    DistroRHEL,
	"rocky":     DistroRHEL,
	"almalinux": DistroRHEL,
	"amzn":      DistroRHEL,
	"ol":        DistroRHEL,
	"arch":      DistroArch,
	"manjaro":   DistroArch,
	"endeavouros": DistroArch,
	"suse":          DistroSUSE,
	"opensuse":      DistroSUSE,
	"opensuse-leap": DistroSUSE,
	"opensuse-tumbleweed": DistroSUSE,
	"sles":      DistroSUSE,
	"alpine":    DistroAlpine,
	"gentoo":    DistroGentoo,
	"void":      DistroVoid,
	"nixos":     DistroNixOS,
	"slackware": DistroSlackware,
}

// packageManagers maps a distro family to its default package manager
var packageManagers = map[DistroFamily]string{
	DistroDebian:    "apt",
	DistroRHEL:      "dnf",
	DistroArch:      "pacman",
	DistroSUSE:      "zypper",
	DistroAlpine:    "apk",
	DistroGentoo:    "emerge",
	DistroVoid:      "xbps",
	DistroNixOS:     "nix",
	DistroSlackware: "slackpkg",
}

// FamilyForDistroID maps a raw os-release ID (or an ID_LIKE token) to a
// distro family. The second return is false when the ID is unmapped.
func FamilyForDistroID(id string) (DistroFamily, bool) {
	family, ok := distroFamilies[id]
	return family, ok
}

// PackageManagerFor returns the default package manager for a distro family,
// or an empty string when none is known.
func PackageManagerFor(family DistroFamily) string {
	return packageManagers[family]
}

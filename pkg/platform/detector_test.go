package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner returns canned output per command line
func fakeRunner(responses map[string]string) CommandRunner {
	return func(ctx context.Context, name string, args ...string) (string, error) {
		key := name
		for _, arg := range args {
			key += " " + arg
		}
		if out, ok := responses[key]; ok {
			return out, nil
		}
		return "", fmt.Errorf("no response for %q", key)
	}
}

func writeOSRelease(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "os-release"), []byte(content), 0644))
}

func TestDetector_Detect_Ubuntu(t *testing.T) {
	root := t.TempDir()
	writeOSRelease(t, root, `NAME="Ubuntu"
VERSION_ID="24.04"
ID=ubuntu
ID_LIKE=debian
`)

	d := NewDetectorWithProbes(root, fakeRunner(map[string]string{
		"uname -m": "x86_64",
		"uname -r": "6.8.0-31-generic",
	}))
	profile := d.Detect()

	assert.Equal(t, FamilyLinux, profile.OSFamily)
	assert.Equal(t, DistroDebian, profile.DistroFamily)
	assert.Equal(t, "ubuntu", profile.DistroID)
	assert.Equal(t, "Ubuntu", profile.OSName)
	assert.Equal(t, "24.04", profile.OSVersion)
	assert.Equal(t, "apt", profile.PackageManager)
	assert.Equal(t, "x86_64", profile.Architecture)
	assert.Equal(t, "6.8.0-31-generic", profile.KernelVersion)
	assert.False(t, profile.DetectedAt.IsZero())
}

func TestDetector_Detect_Fedora(t *testing.T) {
	root := t.TempDir()
	writeOSRelease(t, root, `NAME="Fedora Linux"
VERSION_ID=40
ID=fedora
`)

	profile := NewDetectorWithProbes(root, fakeRunner(nil)).Detect()

	assert.Equal(t, FamilyLinux, profile.OSFamily)
	assert.Equal(t, DistroRHEL, profile.DistroFamily)
	assert.Equal(t, "dnf", profile.PackageManager)
}

func TestDetector_Detect_IDLikeFallback(t *testing.T) {
	// elementary OS style: unmapped ID, ID_LIKE carries the family
	root := t.TempDir()
	writeOSRelease(t, root, `NAME="elementary OS"
ID=elementary
ID_LIKE="ubuntu debian"
VERSION_ID="7.1"
`)

	profile := NewDetectorWithProbes(root, fakeRunner(nil)).Detect()

	assert.Equal(t, FamilyLinux, profile.OSFamily)
	assert.Equal(t, DistroDebian, profile.DistroFamily)
	assert.Equal(t, "elementary", profile.DistroID)
}

func TestDetector_Detect_UnknownDistro(t *testing.T) {
	root := t.TempDir()
	writeOSRelease(t, root, `NAME="Mystery Linux"
ID=mystery
`)

	profile := NewDetectorWithProbes(root, fakeRunner(nil)).Detect()

	assert.Equal(t, FamilyLinux, profile.OSFamily)
	assert.Equal(t, DistroUnknown, profile.DistroFamily)
	assert.Equal(t, "Mystery Linux", profile.OSName)
}

func TestDetector_Detect_MacOS(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "usr", "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "usr", "bin", "sw_vers"), []byte{}, 0755))

	d := NewDetectorWithProbes(root, fakeRunner(map[string]string{
		"sw_vers -productName":    "macOS",
		"sw_vers -productVersion": "14.5",
		"uname -m":                "arm64",
	}))
	profile := d.Detect()

	assert.Equal(t, FamilyMacOS, profile.OSFamily)
	assert.Equal(t, DistroNone, profile.DistroFamily)
	assert.Equal(t, "14.5", profile.OSVersion)
	assert.Equal(t, "brew", profile.PackageManager)
	assert.Equal(t, "arm64", profile.Architecture)
}

func TestDetector_Detect_BSD(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "freebsd-version"), []byte{}, 0755))

	d := NewDetectorWithProbes(root, fakeRunner(map[string]string{
		"uname -sr": "FreeBSD 14.1-RELEASE",
	}))
	profile := d.Detect()

	assert.Equal(t, FamilyBSD, profile.OSFamily)
	assert.Equal(t, "FreeBSD", profile.OSName)
	assert.Equal(t, "14.1-RELEASE", profile.OSVersion)
	assert.Equal(t, "pkg", profile.PackageManager)
}

func TestDetector_Detect_FallbackUname(t *testing.T) {
	tests := []struct {
		name   string
		uname  string
		family OSFamily
	}{
		{"darwin", "Darwin", FamilyMacOS},
		{"linux", "Linux", FamilyLinux},
		{"openbsd", "OpenBSD", FamilyBSD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetectorWithProbes(t.TempDir(), fakeRunner(map[string]string{
				"uname -s": tt.uname,
			}))
			profile := d.Detect()
			assert.Equal(t, tt.family, profile.OSFamily)
		})
	}
}

func TestDetector_Detect_UnknownHost(t *testing.T) {
	// No markers and every probe fails
	profile := NewDetectorWithProbes(t.TempDir(), fakeRunner(nil)).Detect()

	assert.Equal(t, FamilyUnknown, profile.OSFamily)
	// Architecture falls back to the compile-time value
	assert.NotEmpty(t, profile.Architecture)
}

func TestParseOSRelease(t *testing.T) {
	root := t.TempDir()
	writeOSRelease(t, root, `# comment line
NAME='Alpine Linux'
ID=alpine

malformed line without equals
VERSION_ID=3.20.0
`)

	file, err := os.Open(filepath.Join(root, "etc", "os-release"))
	require.NoError(t, err)
	defer file.Close()

	fields := parseOSRelease(file)
	assert.Equal(t, "Alpine Linux", fields["NAME"])
	assert.Equal(t, "alpine", fields["ID"])
	assert.Equal(t, "3.20.0", fields["VERSION_ID"])
	assert.NotContains(t, fields, "# comment line")
}

func TestDetect_Memoized(t *testing.T) {
	first := Detect()
	second := Detect()
	assert.Equal(t, first, second)
	assert.Equal(t, first.DetectedAt, second.DetectedAt)
}

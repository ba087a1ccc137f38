package platform

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const probeTimeout = 5 * time.Second

// CommandRunner executes a probe command and returns its combined output.
// It exists so tests can detect synthetic platforms without shelling out.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

func defaultRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// Detector probes the host environment to build a Platform Profile.
// The zero value is not usable; use NewDetector.
type Detector struct {
	root   string // filesystem root for marker files, "/" on real hosts
	runner CommandRunner
}

// NewDetector creates a detector probing the real host
func NewDetector() *Detector {
	return &Detector{root: "/", runner: defaultRunner}
}

// NewDetectorWithProbes creates a detector with an alternate filesystem root
// and command runner. Used by tests to simulate foreign platforms.
func NewDetectorWithProbes(root string, runner CommandRunner) *Detector {
	if runner == nil {
		runner = defaultRunner
	}
	return &Detector{root: root, runner: runner}
}

var (
	detectOnce    sync.Once
	cachedProfile Profile
)

// Detect returns the process-wide Platform Profile. The first call probes
// the host; subsequent calls return the cached snapshot. Detection never
// fails: an undetectable host yields OSFamily == unknown.
func Detect() Profile {
	detectOnce.Do(func() {
		cachedProfile = NewDetector().Detect()
		log.Info().
			Str("os_family", string(cachedProfile.OSFamily)).
			Str("distro_family", string(cachedProfile.DistroFamily)).
			Str("arch", cachedProfile.Architecture).
			Msg("Platform detected")
	})
	return cachedProfile
}

// Detect builds a fresh Platform Profile. It never panics or returns an
// error; every probe has a fallback.
func (d *Detector) Detect() Profile {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	profile := Profile{
		OSFamily:   FamilyUnknown,
		DetectedAt: time.Now(),
	}

	switch {
	case d.detectLinux(ctx, &profile):
	case d.detectMacOS(ctx, &profile):
	case d.detectWindows(ctx, &profile):
	case d.detectBSD(ctx, &profile):
	default:
		d.detectFallback(ctx, &profile)
	}

	profile.Architecture = d.probeArchitecture(ctx)
	profile.KernelVersion = d.probeKernel(ctx)
	profile.Hostname = probeHostname()

	return profile
}

// detectLinux inspects /etc/os-release, the marker file unique to Linux
// distribution metadata.
func (d *Detector) detectLinux(ctx context.Context, profile *Profile) bool {
	path := filepath.Join(d.root, "etc", "os-release")
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	fields := parseOSRelease(file)

	profile.OSFamily = FamilyLinux
	profile.DistroID = fields["ID"]
	profile.OSName = fields["NAME"]
	if profile.OSName == "" {
		profile.OSName = "Linux"
	}
	profile.OSVersion = fields["VERSION_ID"]

	family, ok := FamilyForDistroID(profile.DistroID)
	if !ok {
		// Unmapped ID: try each ID_LIKE token in order, first match wins
		for _, like := range strings.Fields(fields["ID_LIKE"]) {
			if f, found := FamilyForDistroID(like); found {
				family, ok = f, true
				break
			}
		}
	}
	if !ok {
		family = DistroUnknown
	}

	profile.DistroFamily = family
	profile.PackageManager = PackageManagerFor(family)

	return true
}

// detectMacOS checks for the sw_vers binary marker
func (d *Detector) detectMacOS(ctx context.Context, profile *Profile) bool {
	marker := filepath.Join(d.root, "usr", "bin", "sw_vers")
	if _, err := os.Stat(marker); err != nil {
		return false
	}

	profile.OSFamily = FamilyMacOS
	profile.OSName = "macOS"
	profile.PackageManager = "brew"

	if out, err := d.runner(ctx, "sw_vers", "-productName"); err == nil && out != "" {
		profile.OSName = out
	}
	if out, err := d.runner(ctx, "sw_vers", "-productVersion"); err == nil {
		profile.OSVersion = out
	}

	return true
}

// detectWindows checks for the Windows system directory marker
func (d *Detector) detectWindows(ctx context.Context, profile *Profile) bool {
	systemRoot := os.Getenv("SystemRoot")
	if systemRoot == "" {
		systemRoot = filepath.Join(d.root, "Windows")
	}
	info, err := os.Stat(filepath.Join(systemRoot, "System32"))
	if err != nil || !info.IsDir() {
		return false
	}

	profile.OSFamily = FamilyWindows
	profile.OSName = "Windows"
	profile.PackageManager = "winget"

	if out, err := d.runner(ctx, "cmd", "/c", "ver"); err == nil && out != "" {
		profile.OSVersion = out
	}

	return true
}

// bsdMarkers are version marker files present on the BSD variants
var bsdMarkers = []string{
	"bin/freebsd-version",
	"etc/defaults/periodic.conf",
	"bsd",
}

// detectBSD checks for any of several BSD version marker files
func (d *Detector) detectBSD(ctx context.Context, profile *Profile) bool {
	found := false
	for _, marker := range bsdMarkers {
		if _, err := os.Stat(filepath.Join(d.root, marker)); err == nil {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	profile.OSFamily = FamilyBSD
	profile.OSName = "BSD"
	profile.PackageManager = "pkg"

	if out, err := d.runner(ctx, "uname", "-sr"); err == nil && out != "" {
		parts := strings.SplitN(out, " ", 2)
		profile.OSName = parts[0]
		if len(parts) == 2 {
			profile.OSVersion = parts[1]
		}
	}

	return true
}

// detectFallback invokes uname and pattern-matches its output. The profile
// keeps OSFamily == unknown when even that fails.
func (d *Detector) detectFallback(ctx context.Context, profile *Profile) {
	out, err := d.runner(ctx, "uname", "-s")
	if err != nil {
		log.Warn().Err(err).Msg("Platform detection fell through every branch")
		return
	}

	lowered := strings.ToLower(out)
	switch {
	case strings.Contains(lowered, "darwin"):
		profile.OSFamily = FamilyMacOS
		profile.OSName = "macOS"
		profile.PackageManager = "brew"
	case strings.Contains(lowered, "linux"):
		profile.OSFamily = FamilyLinux
		profile.OSName = "Linux"
		profile.DistroFamily = DistroUnknown
	case strings.Contains(lowered, "bsd"):
		profile.OSFamily = FamilyBSD
		profile.OSName = out
		profile.PackageManager = "pkg"
	}
}

func (d *Detector) probeArchitecture(ctx context.Context) string {
	if out, err := d.runner(ctx, "uname", "-m"); err == nil && out != "" {
		return out
	}
	return runtime.GOARCH
}

func (d *Detector) probeKernel(ctx context.Context) string {
	if out, err := d.runner(ctx, "uname", "-r"); err == nil {
		return out
	}
	return ""
}

func probeHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}
	return hostname
}

// parseOSRelease reads KEY=value pairs from an os-release stream, stripping
// surrounding quotes. Malformed lines are skipped.
func parseOSRelease(r interface{ Read([]byte) (int, error) }) map[string]string {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		fields[strings.TrimSpace(key)] = value
	}
	return fields
}

package oscmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlo-dev/capgate/pkg/platform"
)

func debianProfile() platform.Profile {
	return platform.Profile{
		OSFamily:     platform.FamilyLinux,
		DistroFamily: platform.DistroDebian,
		DistroID:     "ubuntu",
	}
}

func TestResolver_Resolve_DistroBeatsLinux(t *testing.T) {
	table := Table{
		"pkg_update": {
			keyLinux:  {"generic-update"},
			keyDebian: {"apt-get", "update"},
		},
	}
	r := NewResolverWithTable(table)

	resolved, err := r.Resolve("pkg_update", debianProfile(), nil)
	require.NoError(t, err)
	assert.Equal(t, KeyForDistro(platform.DistroDebian), resolved.PlatformKey)
	assert.Equal(t, []string{"apt-get", "update"}, resolved.Tokens)
}

func TestResolver_Resolve_LinuxFallback(t *testing.T) {
	// Arch host, operation only has a generic linux template
	r := NewResolverWithTable(Table{
		"os_info": {keyLinux: {"uname", "-a"}},
	})

	profile := platform.Profile{
		OSFamily:     platform.FamilyLinux,
		DistroFamily: platform.DistroArch,
	}
	resolved, err := r.Resolve("os_info", profile, nil)
	require.NoError(t, err)
	assert.Equal(t, KeyForOS(platform.FamilyLinux), resolved.PlatformKey)
	assert.Equal(t, []string{"uname", "-a"}, resolved.Tokens)
}

func TestResolver_Resolve_UnknownDistroSkipsDistroKeys(t *testing.T) {
	// Distro-only templates resolve as no-mapping when the distro is unknown
	r := NewResolverWithTable(Table{
		"pkg_update": {keyDebian: {"apt-get", "update"}},
	})

	profile := platform.Profile{
		OSFamily:     platform.FamilyLinux,
		DistroFamily: platform.DistroUnknown,
	}
	_, err := r.Resolve("pkg_update", profile, nil)

	var noMapping *NoMappingError
	require.ErrorAs(t, err, &noMapping)
	assert.Equal(t, Operation("pkg_update"), noMapping.Operation)
	assert.Equal(t, platform.FamilyLinux, noMapping.OSFamily)
}

func TestResolver_Resolve_NoCrossFamilyFallback(t *testing.T) {
	r := NewResolverWithTable(Table{
		"pkg_update": {keyLinux: {"generic-update"}},
	})

	profile := platform.Profile{OSFamily: platform.FamilyWindows}
	_, err := r.Resolve("pkg_update", profile, nil)

	var noMapping *NoMappingError
	require.ErrorAs(t, err, &noMapping)
	assert.Equal(t, platform.FamilyWindows, noMapping.OSFamily)
}

func TestResolver_Resolve_UnknownOperation(t *testing.T) {
	r := NewResolverWithTable(Table{
		"zeta":  {keyLinux: {"z"}},
		"alpha": {keyLinux: {"a"}},
		"mid":   {keyLinux: {"m"}},
	})

	_, err := r.Resolve("nonexistent", debianProfile(), nil)

	var unknown *UnknownOperationError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, Operation("nonexistent"), unknown.Operation)
	// Valid operations are sorted for deterministic messages
	assert.Equal(t, []Operation{"alpha", "mid", "zeta"}, unknown.Valid)
	assert.Contains(t, err.Error(), "alpha, mid, zeta")
}

func TestResolver_Resolve_ExtraArgsAppendedVerbatim(t *testing.T) {
	r := NewResolverWithTable(Table{
		"ping": {keyLinux: {"ping", "-c", "4"}},
	})

	profile := platform.Profile{OSFamily: platform.FamilyLinux}
	resolved, err := r.Resolve("ping", profile, []string{"example.com", "-W 2"})
	require.NoError(t, err)
	// No quoting or escaping; tokens pass through untouched
	assert.Equal(t, []string{"ping", "-c", "4", "example.com", "-W 2"}, resolved.Tokens)
}

func TestResolver_Resolve_TemplateNotMutated(t *testing.T) {
	template := []string{"ping", "-c", "4"}
	r := NewResolverWithTable(Table{
		"ping": {keyLinux: template},
	})

	profile := platform.Profile{OSFamily: platform.FamilyLinux}
	_, err := r.Resolve("ping", profile, []string{"host-a"})
	require.NoError(t, err)
	_, err = r.Resolve("ping", profile, []string{"host-b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ping", "-c", "4"}, template)
}

func TestResolver_BuiltinTable_CoreOperations(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		op      Operation
		profile platform.Profile
		first   string
	}{
		{"pkg_update", debianProfile(), "apt-get"},
		{"pkg_update", platform.Profile{OSFamily: platform.FamilyLinux, DistroFamily: platform.DistroArch}, "pacman"},
		{"pkg_update", platform.Profile{OSFamily: platform.FamilyMacOS}, "brew"},
		{"os_info", platform.Profile{OSFamily: platform.FamilyWindows}, "systeminfo"},
		{"kernel_version", platform.Profile{OSFamily: platform.FamilyBSD}, "uname"},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			resolved, err := r.Resolve(tt.op, tt.profile, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.first, resolved.Tokens[0])
		})
	}
}

func TestResolver_SupportedOn(t *testing.T) {
	r := NewResolverWithTable(Table{
		"a": {keyLinux: {"a"}},
		"b": {keyMacOS: {"b"}},
		"c": {keyLinux: {"c"}, keyMacOS: {"c"}},
	})

	linux := platform.Profile{OSFamily: platform.FamilyLinux}
	assert.Equal(t, []Operation{"a", "c"}, r.SupportedOn(linux))

	mac := platform.Profile{OSFamily: platform.FamilyMacOS}
	assert.Equal(t, []Operation{"b", "c"}, r.SupportedOn(mac))
}

func TestResolver_Supports(t *testing.T) {
	r := NewResolver()
	assert.True(t, r.Supports("pkg_update", debianProfile()))
	assert.False(t, r.Supports("pkg_update", platform.Profile{OSFamily: platform.FamilyUnknown}))
	assert.False(t, r.Supports("no_such_op", debianProfile()))
}

func TestNoMappingError_Message(t *testing.T) {
	withDistro := &NoMappingError{
		Operation:    "pkg_update",
		OSFamily:     platform.FamilyLinux,
		DistroFamily: platform.DistroUnknown,
	}
	assert.Contains(t, withDistro.Error(), "linux")
	assert.Contains(t, withDistro.Error(), "unknown")

	withoutDistro := &NoMappingError{
		Operation: "pkg_update",
		OSFamily:  platform.FamilyWindows,
	}
	assert.Contains(t, withoutDistro.Error(), "windows")
	assert.NotContains(t, withoutDistro.Error(), "()")
}

func TestErrorsAreDistinguishable(t *testing.T) {
	r := NewResolverWithTable(Table{"known": {keyLinux: {"k"}}})

	_, unknownErr := r.Resolve("missing", debianProfile(), nil)
	_, mappingErr := r.Resolve("known", platform.Profile{OSFamily: platform.FamilyWindows}, nil)

	var unknown *UnknownOperationError
	var noMapping *NoMappingError
	assert.True(t, errors.As(unknownErr, &unknown))
	assert.False(t, errors.As(unknownErr, &noMapping))
	assert.True(t, errors.As(mappingErr, &noMapping))
	assert.False(t, errors.As(mappingErr, &unknown))
}

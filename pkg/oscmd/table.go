package oscmd

import (
	"sort"

	"github.com/arlo-dev/capgate/pkg/platform"
)

// Operation is a platform-independent name for a host command
type Operation string

// PlatformKey selects a command template within an operation. Valid keys are
// OSFamily values and DistroFamily values; distro keys take precedence over
// the generic "linux" key.
type PlatformKey string

// Key constructors keep call sites from mixing families and raw strings.
func KeyForOS(family platform.OSFamily) PlatformKey {
	return PlatformKey(family)
}

func KeyForDistro(family platform.DistroFamily) PlatformKey {
	return PlatformKey(family)
}

// Table maps logical operations to per-platform command templates
type Table map[Operation]map[PlatformKey][]string

// Shorthand keys for the built-in table
const (
	keyLinux   = PlatformKey(platform.FamilyLinux)
	keyMacOS   = PlatformKey(platform.FamilyMacOS)
	keyWindows = PlatformKey(platform.FamilyWindows)
	keyBSD     = PlatformKey(platform.FamilyBSD)
	keyDebian  = PlatformKey(platform.DistroDebian)
	keyRHEL    = PlatformKey(platform.DistroRHEL)
	keyArch    = PlatformKey(platform.DistroArch)
	keySUSE    = PlatformKey(platform.DistroSUSE)
	keyAlpine  = PlatformKey(platform.DistroAlpine)
	keyGentoo  = PlatformKey(platform.DistroGentoo)
	keyVoid    = PlatformKey(platform.DistroVoid)
	keyNixOS   = PlatformKey(platform.DistroNixOS)
)

// builtinTable is the versioned vocabulary of logical operations. Omitting a
// platform key is not an error in the table; it resolves as "no mapping" on
// that platform only.
var builtinTable = Table{
	"pkg_update": {
		keyDebian:  {"apt-get", "update"},
		keyRHEL:    {"dnf", "check-update"},
		keyArch:    {"pacman", "-Sy"},
		keySUSE:    {"zypper", "refresh"},
		keyAlpine:  {"apk", "update"},
		keyGentoo:  {"emerge", "--sync"},
		keyVoid:    {"xbps-install", "-S"},
		keyNixOS:   {"nix-channel", "--update"},
		keyMacOS:   {"brew", "update"},
		keyWindows: {"winget", "source", "update"},
		keyBSD:     {"pkg", "update"},
	},
	"pkg_upgrade": {
		keyDebian:  {"apt-get", "upgrade", "-y"},
		keyRHEL:    {"dnf", "upgrade", "-y"},
		keyArch:    {"pacman", "-Syu", "--noconfirm"},
		keySUSE:    {"zypper", "update", "-y"},
		keyAlpine:  {"apk", "upgrade"},
		keyGentoo:  {"emerge", "-uDN", "@world"},
		keyVoid:    {"xbps-install", "-Su"},
		keyNixOS:   {"nixos-rebuild", "switch", "--upgrade"},
		keyMacOS:   {"brew", "upgrade"},
		keyWindows: {"winget", "upgrade", "--all"},
		keyBSD:     {"pkg", "upgrade", "-y"},
	},
	"pkg_list": {
		keyDebian:  {"dpkg", "-l"},
		keyRHEL:    {"rpm", "-qa"},
		keyArch:    {"pacman", "-Q"},
		keySUSE:    {"rpm", "-qa"},
		keyAlpine:  {"apk", "info"},
		keyGentoo:  {"qlist", "-I"},
		keyVoid:    {"xbps-query", "-l"},
		keyNixOS:   {"nix-env", "-q"},
		keyMacOS:   {"brew", "list"},
		keyWindows: {"winget", "list"},
		keyBSD:     {"pkg", "info"},
	},
	"os_info": {
		keyLinux:   {"uname", "-a"},
		keyMacOS:   {"sw_vers"},
		keyWindows: {"systeminfo"},
		keyBSD:     {"uname", "-a"},
	},
	"os_version": {
		keyLinux:   {"cat", "/etc/os-release"},
		keyMacOS:   {"sw_vers", "-productVersion"},
		keyWindows: {"cmd", "/c", "ver"},
		keyBSD:     {"uname", "-r"},
	},
	"kernel_version": {
		keyLinux:   {"uname", "-r"},
		keyMacOS:   {"uname", "-r"},
		keyWindows: {"cmd", "/c", "ver"},
		keyBSD:     {"uname", "-r"},
	},
	"arch": {
		keyLinux:   {"uname", "-m"},
		keyMacOS:   {"uname", "-m"},
		keyWindows: {"cmd", "/c", "echo", "%PROCESSOR_ARCHITECTURE%"},
		keyBSD:     {"uname", "-m"},
	},
	"cpu_info": {
		keyLinux:   {"lscpu"},
		keyMacOS:   {"sysctl", "-n", "machdep.cpu.brand_string"},
		keyWindows: {"wmic", "cpu", "get", "name"},
		keyBSD:     {"sysctl", "-n", "hw.model"},
	},
	"mem_info": {
		keyLinux:   {"free", "-h"},
		keyMacOS:   {"vm_stat"},
		keyWindows: {"wmic", "os", "get", "freephysicalmemory,totalvisiblememorysize"},
		keyBSD:     {"sysctl", "hw.physmem", "hw.usermem"},
	},
	"disk_info": {
		keyLinux:   {"df", "-h"},
		keyMacOS:   {"df", "-h"},
		keyWindows: {"wmic", "logicaldisk", "get", "size,freespace,caption"},
		keyBSD:     {"df", "-h"},
	},
	"uptime": {
		keyLinux:   {"uptime"},
		keyMacOS:   {"uptime"},
		keyWindows: {"wmic", "os", "get", "lastbootuptime"},
		keyBSD:     {"uptime"},
	},
	"hostname": {
		keyLinux:   {"hostname"},
		keyMacOS:   {"hostname"},
		keyWindows: {"hostname"},
		keyBSD:     {"hostname"},
	},
	"net_interfaces": {
		keyLinux:   {"ip", "addr"},
		keyMacOS:   {"ifconfig"},
		keyWindows: {"ipconfig", "/all"},
		keyBSD:     {"ifconfig"},
	},
	"ports_listening": {
		keyLinux:   {"ss", "-tuln"},
		keyMacOS:   {"netstat", "-an", "-f", "inet"},
		keyWindows: {"netstat", "-an"},
		keyBSD:     {"netstat", "-an"},
	},
	"dns_lookup": {
		keyLinux:   {"dig", "+short"},
		keyMacOS:   {"dscacheutil", "-q", "host", "-a", "name"},
		keyWindows: {"nslookup"},
		keyBSD:     {"drill"},
	},
	"ping": {
		keyLinux:   {"ping", "-c", "4"},
		keyMacOS:   {"ping", "-c", "4"},
		keyWindows: {"ping", "-n", "4"},
		keyBSD:     {"ping", "-c", "4"},
	},
	"proc_list": {
		keyLinux:   {"ps", "aux"},
		keyMacOS:   {"ps", "aux"},
		keyWindows: {"tasklist"},
		keyBSD:     {"ps", "aux"},
	},
	"proc_kill": {
		keyLinux:   {"kill", "-9"},
		keyMacOS:   {"kill", "-9"},
		keyWindows: {"taskkill", "/F", "/PID"},
		keyBSD:     {"kill", "-9"},
	},
	"svc_list": {
		keyLinux:   {"systemctl", "list-units", "--type=service"},
		keyAlpine:  {"rc-status"},
		keyVoid:    {"sv", "status", "/var/service/*"},
		keyMacOS:   {"launchctl", "list"},
		keyWindows: {"sc", "query"},
		keyBSD:     {"service", "-e"},
	},
	"svc_start": {
		keyLinux:   {"systemctl", "start"},
		keyAlpine:  {"rc-service"},
		keyVoid:    {"sv", "up"},
		keyMacOS:   {"launchctl", "start"},
		keyWindows: {"sc", "start"},
		keyBSD:     {"service"},
	},
	"svc_stop": {
		keyLinux:   {"systemctl", "stop"},
		keyAlpine:  {"rc-service"},
		keyVoid:    {"sv", "down"},
		keyMacOS:   {"launchctl", "stop"},
		keyWindows: {"sc", "stop"},
		keyBSD:     {"service"},
	},
	"user_list": {
		keyLinux:   {"cut", "-d:", "-f1", "/etc/passwd"},
		keyMacOS:   {"dscl", ".", "list", "/Users"},
		keyWindows: {"net", "user"},
		keyBSD:     {"cut", "-d:", "-f1", "/etc/passwd"},
	},
	"env_dump": {
		keyLinux:   {"env"},
		keyMacOS:   {"env"},
		keyWindows: {"cmd", "/c", "set"},
		keyBSD:     {"env"},
	},
}

// BuiltinTable returns the built-in command table
func BuiltinTable() Table {
	return builtinTable
}

// Operations returns the sorted list of logical operation names in the table
func (t Table) Operations() []Operation {
	ops := make([]Operation, 0, len(t))
	for op := range t {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Supports reports whether the operation has a mapping for the profile
func (t Table) Supports(op Operation, profile platform.Profile) bool {
	templates, ok := t[op]
	if !ok {
		return false
	}
	_, _, found := matchTemplate(templates, profile)
	return found
}

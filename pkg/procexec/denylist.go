package procexec

import "strings"

// destructivePatterns are substrings that identify commands the executor
// refuses to spawn when the command did not come from the command table.
// Matching is case-insensitive against the joined command string.
var destructivePatterns = []string{
	"rm -rf /",
	"rm -fr /",
	"rm -rf --no-preserve-root",
	"mkfs",
	"dd if=/dev/zero of=/dev/",
	"dd if=/dev/random of=/dev/",
	"wipefs",
	"shred /dev/",
	"> /dev/sda",
	"shutdown",
	"reboot",
	"halt -f",
	"poweroff",
	":(){ :|:& };:",
	"fork bomb",
	"chmod -r 777 /",
	"chmod 777 /",
	"chown -r / ",
	"format c:",
	"del /f /s /q c:\\",
}

// Denylist screens raw command strings for destructive patterns
type Denylist struct {
	patterns []string
}

// NewDenylist builds the static deny-list plus any extra patterns from
// configuration. Extra patterns are lowered once at construction.
func NewDenylist(extra ...string) *Denylist {
	patterns := make([]string, 0, len(destructivePatterns)+len(extra))
	patterns = append(patterns, destructivePatterns...)
	for _, p := range extra {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			patterns = append(patterns, p)
		}
	}
	return &Denylist{patterns: patterns}
}

// Match returns the matched destructive pattern and true when the joined
// command string contains one, case-insensitively.
func (d *Denylist) Match(tokens []string) (string, bool) {
	joined := strings.ToLower(strings.Join(tokens, " "))
	for _, pattern := range d.patterns {
		if strings.Contains(joined, pattern) {
			return pattern, true
		}
	}
	return "", false
}

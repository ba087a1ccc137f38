package oscmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/arlo-dev/capgate/pkg/platform"
)

// ResolvedCommand is a command template with caller-supplied extra arguments
// appended. Created per resolution call, never cached.
type ResolvedCommand struct {
	Operation   Operation   `json:"operation"`
	PlatformKey PlatformKey `json:"platform_key"`
	Tokens      []string    `json:"tokens"`
}

// UnknownOperationError is returned when the operation is absent from the
// table. It carries the sorted valid operation names to aid discovery.
type UnknownOperationError struct {
	Operation Operation
	Valid     []Operation
}

func (e *UnknownOperationError) Error() string {
	names := make([]string, len(e.Valid))
	for i, op := range e.Valid {
		names[i] = string(op)
	}
	return fmt.Sprintf("unknown operation %q, valid operations: %s",
		e.Operation, strings.Join(names, ", "))
}

// NoMappingError is returned when a valid operation has no command template
// for the detected platform. Not fatal for the caller, only for that
// operation on that host.
type NoMappingError struct {
	Operation    Operation
	OSFamily     platform.OSFamily
	DistroFamily platform.DistroFamily
}

func (e *NoMappingError) Error() string {
	if e.DistroFamily != platform.DistroNone {
		return fmt.Sprintf("no mapping for operation %q on %s (%s)",
			e.Operation, e.OSFamily, e.DistroFamily)
	}
	return fmt.Sprintf("no mapping for operation %q on %s", e.Operation, e.OSFamily)
}

// Resolver translates logical operations into native commands for a platform
type Resolver struct {
	table Table
}

// NewResolver creates a resolver over the built-in command table
func NewResolver() *Resolver {
	return &Resolver{table: BuiltinTable()}
}

// NewResolverWithTable creates a resolver over a caller-supplied table
func NewResolverWithTable(table Table) *Resolver {
	return &Resolver{table: table}
}

// Operations returns the sorted logical operation vocabulary
func (r *Resolver) Operations() []Operation {
	return r.table.Operations()
}

// Supports reports whether op resolves on the given profile
func (r *Resolver) Supports(op Operation, profile platform.Profile) bool {
	return r.table.Supports(op, profile)
}

// Resolve selects the best-matching command template for the operation on
// the given platform and appends extraArgs verbatim. Escaping and quoting
// are the process executor's concern, not the resolver's.
//
// Platform-key priority: on Linux the distro-family key is tried before the
// generic linux key; other families use their os-family key directly. There
// is no fallback across families.
func (r *Resolver) Resolve(op Operation, profile platform.Profile, extraArgs []string) (ResolvedCommand, error) {
	templates, ok := r.table[op]
	if !ok {
		return ResolvedCommand{}, &UnknownOperationError{
			Operation: op,
			Valid:     r.table.Operations(),
		}
	}

	template, key, found := matchTemplate(templates, profile)
	if !found {
		log.Debug().
			Str("operation", string(op)).
			Str("os_family", string(profile.OSFamily)).
			Str("distro_family", string(profile.DistroFamily)).
			Msg("No command mapping for platform")
		return ResolvedCommand{}, &NoMappingError{
			Operation:    op,
			OSFamily:     profile.OSFamily,
			DistroFamily: profile.DistroFamily,
		}
	}

	tokens := make([]string, 0, len(template)+len(extraArgs))
	tokens = append(tokens, template...)
	tokens = append(tokens, extraArgs...)

	return ResolvedCommand{
		Operation:   op,
		PlatformKey: key,
		Tokens:      tokens,
	}, nil
}

// matchTemplate applies the platform-key priority rules. Distro-family keys
// win over the generic linux key; platform keys are disjoint by construction
// so no other tie is possible.
func matchTemplate(templates map[PlatformKey][]string, profile platform.Profile) ([]string, PlatformKey, bool) {
	if profile.OSFamily == platform.FamilyLinux {
		if profile.DistroFamily != platform.DistroNone && profile.DistroFamily != platform.DistroUnknown {
			key := KeyForDistro(profile.DistroFamily)
			if template, ok := templates[key]; ok {
				return template, key, true
			}
		}
		key := KeyForOS(platform.FamilyLinux)
		template, ok := templates[key]
		return template, key, ok
	}

	key := KeyForOS(profile.OSFamily)
	template, ok := templates[key]
	return template, key, ok
}

// SupportedOn returns the subset of operations that resolve on the profile,
// sorted by name.
func (r *Resolver) SupportedOn(profile platform.Profile) []Operation {
	var ops []Operation
	for op := range r.table {
		if r.table.Supports(op, profile) {
			ops = append(ops, op)
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

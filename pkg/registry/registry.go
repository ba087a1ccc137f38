// Package registry owns the mapping of capability names to entries: tiered
// listing, deprecation lifecycle, handler hot-swap, and parameter schema
// validation. A Registry is constructed once at startup and passed to every
// component that needs it; there is no package-level instance.
package registry

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

var validParamTypes = map[string]bool{
	"string": true, "number": true, "boolean": true,
	"object": true, "array": true, "integer": true,
}

// Registry maps capability names to entries. Insertion order is preserved
// so listings are deterministic.
type Registry struct {
	entries map[string]*Entry
	schemas map[string]*gojsonschema.Schema
	order   []string
	mu      sync.RWMutex
}

// New creates an empty capability registry
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register inserts or overwrites the entry at its name. Re-registering an
// existing name is a valid in-place update (the handler hot-swap path), not
// an error.
func (r *Registry) Register(entry Entry) error {
	if err := validateEntry(entry); err != nil {
		return fmt.Errorf("invalid capability entry: %w", err)
	}

	schema, err := compileSchema(entry.Params)
	if err != nil {
		return fmt.Errorf("failed to compile parameter schema for %s: %w", entry.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.Name]; !exists {
		r.order = append(r.order, entry.Name)
	}
	stored := entry
	r.entries[entry.Name] = &stored
	r.schemas[entry.Name] = schema

	log.Info().
		Str("capability", entry.Name).
		Str("kind", string(entry.Handler.Kind)).
		Int("tiers", len(entry.Tiers)).
		Msg("Capability registered")

	return nil
}

// Lookup returns the entry for a name. The returned entry is a copy; the
// handler inside it is shared by reference.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// ListForTier returns descriptors for every entry whose tier set contains
// the given tier. Membership is evaluated fresh on every call; callers must
// not cache the result across invocations.
func (r *Registry) ListForTier(tier Tier) map[string]Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	visible := make(map[string]Descriptor)
	for _, name := range r.order {
		entry, ok := r.entries[name]
		if !ok {
			continue
		}
		if _, authorized := tierSet(entry.Tiers)[tier]; !authorized {
			continue
		}
		visible[name] = descriptorOf(entry)
	}
	return visible
}

// Authorized reports whether the tier is currently in the entry's tier set.
// An empty tier set authorizes nobody.
func (r *Registry) Authorized(name string, tier Tier) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return false
	}
	_, authorized := tierSet(entry.Tiers)[tier]
	return authorized
}

// Deprecate marks an entry deprecated. The entry stays callable; the flag is
// advisory and surfaced in listings. Returns false when the name is absent.
func (r *Registry) Deprecate(name, reason, replacement string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[name]
	if !ok {
		return false
	}
	entry.Deprecated = &Deprecation{Reason: reason, Replacement: replacement}

	log.Info().
		Str("capability", name).
		Str("replacement", replacement).
		Msg("Capability deprecated")
	return true
}

// Undeprecate clears deprecation metadata, restoring the entry to be
// indistinguishable from a never-deprecated one. Returns false when absent.
func (r *Registry) Undeprecate(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[name]
	if !ok {
		return false
	}
	entry.Deprecated = nil
	return true
}

// SwapHandler replaces the handler of an existing entry, preserving all
// other metadata. Returns false when the name is absent or the handler is
// malformed.
func (r *Registry) SwapHandler(name string, handler Handler) bool {
	if !handler.valid() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[name]
	if !ok {
		return false
	}
	entry.Handler = handler

	log.Info().
		Str("capability", name).
		Str("kind", string(handler.Kind)).
		Msg("Capability handler hot-swapped")
	return true
}

// SetTiers replaces the entry's authorized-tier set. Returns false when the
// name is absent.
func (r *Registry) SetTiers(name string, tiers []Tier) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[name]
	if !ok {
		return false
	}
	entry.Tiers = append([]Tier(nil), tiers...)
	return true
}

// Deregister removes the entry entirely. Subsequent lookups fail as absent,
// not as deprecated. Returns false when the name was not registered.
func (r *Registry) Deregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return false
	}
	delete(r.entries, name)
	delete(r.schemas, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	log.Info().Str("capability", name).Msg("Capability deregistered")
	return true
}

// Len returns the number of registered capabilities
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns capability names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ValidateArgs checks arguments against the entry's compiled parameter
// schema. The schema is advisory metadata; enforcement is the caller's
// choice at the invocation boundary.
func (r *Registry) ValidateArgs(name string, args map[string]any) error {
	r.mu.RLock()
	schema := r.schemas[name]
	r.mu.RUnlock()

	if schema == nil {
		return nil
	}
	return validateAgainst(schema, args)
}

func descriptorOf(entry *Entry) Descriptor {
	desc := Descriptor{
		Name:        entry.Name,
		Description: entry.Description,
	}
	if len(entry.Params) > 0 {
		params := make(map[string]ParamSpec, len(entry.Params))
		for k, v := range entry.Params {
			params[k] = v
		}
		desc.Params = params
	}
	if entry.Deprecated != nil {
		d := *entry.Deprecated
		desc.Deprecated = &d
	}
	if entry.Origin != nil {
		o := *entry.Origin
		desc.Origin = &o
	}
	return desc
}

func validateEntry(entry Entry) error {
	if entry.Name == "" {
		return fmt.Errorf("capability name cannot be empty")
	}
	if entry.Description == "" {
		return fmt.Errorf("capability description cannot be empty")
	}
	if !entry.Handler.valid() {
		return fmt.Errorf("capability handler must declare exactly one of blocking or suspending")
	}
	for name, spec := range entry.Params {
		if name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if !validParamTypes[spec.Type] {
			return fmt.Errorf("invalid parameter type %q for %s", spec.Type, name)
		}
	}
	return nil
}

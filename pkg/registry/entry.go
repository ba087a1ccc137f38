package registry

import (
	"context"
)

// Tier is an opaque trust label used as the authorization key. The registry
// imposes no structure on it beyond set membership.
type Tier string

// HandlerKind tags how a capability handler must be invoked. The kind is
// declared at registration time, never inferred at runtime.
type HandlerKind string

const (
	// KindBlocking handlers return immediately and own their time budget
	KindBlocking HandlerKind = "blocking"
	// KindSuspending handlers honor context cancellation and may block
	KindSuspending HandlerKind = "suspending"
)

// BlockingFunc is a directly-callable handler
type BlockingFunc func(args map[string]any) (any, error)

// SuspendingFunc is a handler that must be invoked with a context; it is
// expected to stop work cooperatively when the context is cancelled.
type SuspendingFunc func(ctx context.Context, args map[string]any) (any, error)

// Handler is a tagged variant over the two handler shapes. Exactly one of
// Blocking/Suspending is non-nil, matching Kind.
type Handler struct {
	Kind       HandlerKind
	Blocking   BlockingFunc
	Suspending SuspendingFunc
}

// NewBlocking wraps a directly-callable handler
func NewBlocking(fn BlockingFunc) Handler {
	return Handler{Kind: KindBlocking, Blocking: fn}
}

// NewSuspending wraps a context-aware handler
func NewSuspending(fn SuspendingFunc) Handler {
	return Handler{Kind: KindSuspending, Suspending: fn}
}

func (h Handler) valid() bool {
	switch h.Kind {
	case KindBlocking:
		return h.Blocking != nil && h.Suspending == nil
	case KindSuspending:
		return h.Suspending != nil && h.Blocking == nil
	default:
		return false
	}
}

// ParamSpec describes one capability parameter
type ParamSpec struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Optional    bool   `json:"optional,omitempty"`
}

// Deprecation is advisory lifecycle metadata; deprecated capabilities remain
// callable and the flag is surfaced in listings only.
type Deprecation struct {
	Reason      string `json:"reason"`
	Replacement string `json:"replacement,omitempty"`
}

// Origin records where an externally discovered capability came from
type Origin struct {
	Tier     Tier   `json:"tier"`
	Endpoint string `json:"endpoint"`
}

// Entry is one registered capability. Entries are owned exclusively by the
// Registry; handlers are never exposed through listings.
type Entry struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Params      map[string]ParamSpec `json:"params,omitempty"`
	Handler     Handler              `json:"-"`
	Tiers       []Tier               `json:"tiers"`
	Deprecated  *Deprecation         `json:"deprecated,omitempty"`
	Origin      *Origin              `json:"origin,omitempty"`
}

// Descriptor is the caller-visible view of an entry: everything except the
// handler reference.
type Descriptor struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Params      map[string]ParamSpec `json:"params,omitempty"`
	Deprecated  *Deprecation         `json:"deprecated,omitempty"`
	Origin      *Origin              `json:"origin,omitempty"`
}

// tierSet builds a membership set from the entry's tier slice
func tierSet(tiers []Tier) map[Tier]struct{} {
	set := make(map[Tier]struct{}, len(tiers))
	for _, t := range tiers {
		set[t] = struct{}{}
	}
	return set
}

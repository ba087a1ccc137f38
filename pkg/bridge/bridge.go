// Package bridge normalizes invocation of heterogeneous capability handlers
// into a single result shape. Blocking handlers are called directly;
// suspending handlers are awaited with the caller's context, or — when the
// caller cannot itself suspend — run to completion on a dedicated goroutine
// bounded by a ceiling timeout.
package bridge

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"

	"github.com/arlo-dev/capgate/pkg/registry"
)

// Status is the success/error discriminant of a normalized result
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// ErrorKind classifies a failed invocation
type ErrorKind string

const (
	ErrNotFound     ErrorKind = "not_found"
	ErrUnauthorized ErrorKind = "unauthorized"
	ErrInvalidArgs  ErrorKind = "invalid_args"
	ErrTimeout      ErrorKind = "timeout"
	ErrHandler      ErrorKind = "handler_error"
)

// Result is the uniform shape every invocation returns. Successful handler
// outputs are passed through unchanged; the bridge never reinterprets them.
type Result struct {
	Status       Status        `json:"status"`
	Output       any           `json:"output,omitempty"`
	Error        string        `json:"error,omitempty"`
	Kind         ErrorKind     `json:"kind,omitempty"`
	Truncated    bool          `json:"truncated,omitempty"`
	InvocationID string        `json:"invocation_id"`
	Duration     time.Duration `json:"duration"`
}

// OK reports whether the invocation succeeded
func (r Result) OK() bool {
	return r.Status == StatusOK
}

const (
	// DefaultCeilingTimeout bounds suspending handlers invoked from a
	// non-suspending context. Distinct from, and in addition to, whatever
	// timeout the handler enforces for itself.
	DefaultCeilingTimeout = 60 * time.Second

	// maxOutputBytes caps handler output carried back through the bridge
	maxOutputBytes = 10 * 1024
)

// Options configures bridge behavior
type Options struct {
	// CeilingTimeout bounds InvokeSync calls into suspending handlers.
	// When it elapses the call is abandoned: the caller gets a timeout
	// error but the underlying work is only cancelled cooperatively via
	// its context and may still be running.
	CeilingTimeout time.Duration

	// EnforceTierOnInvoke re-checks tier membership inside the invocation
	// path. Off by default: authorization is normally enforced at the
	// listing boundary and callers are trusted to have filtered there.
	EnforceTierOnInvoke bool

	// ValidateArgs checks arguments against the declared parameter schema
	// before invoking. The schema is advisory, so this is opt-in.
	ValidateArgs bool
}

// DefaultOptions returns the default bridge options
func DefaultOptions() Options {
	return Options{
		CeilingTimeout:      DefaultCeilingTimeout,
		EnforceTierOnInvoke: false,
		ValidateArgs:        false,
	}
}

// Bridge dispatches capability invocations through a registry
type Bridge struct {
	registry *registry.Registry
	opts     Options
	stats    *statsTracker
}

// New creates a bridge over the given registry
func New(reg *registry.Registry, opts Options) *Bridge {
	if opts.CeilingTimeout <= 0 {
		opts.CeilingTimeout = DefaultCeilingTimeout
	}
	return &Bridge{
		registry: reg,
		opts:     opts,
		stats:    newStatsTracker(),
	}
}

// Invoke calls a capability from a context that can suspend. Suspending
// handlers are awaited directly with ctx and no additional timeout wrapper;
// they own their own timeout semantics. Blocking handlers run synchronously.
func (b *Bridge) Invoke(ctx context.Context, name string, tier registry.Tier, args map[string]any) Result {
	invocationID, start, entry, failed := b.prepare(name, tier, args)
	if failed != nil {
		return *failed
	}

	var (
		output any
		err    error
	)
	switch entry.Handler.Kind {
	case registry.KindSuspending:
		output, err = callSuspending(ctx, entry.Handler.Suspending, args)
	default:
		output, err = callBlocking(entry.Handler.Blocking, args)
	}

	return b.finish(invocationID, name, start, output, err)
}

// InvokeSync calls a capability from a context that cannot suspend.
// Suspending handlers run on a dedicated goroutine bounded by the ceiling
// timeout; when the ceiling elapses first the result is abandoned and a
// timeout error returned. Cancellation of the abandoned work is cooperative
// only — the handler may keep consuming resources until it observes its
// context. Blocking handlers are called directly with no bridge-imposed
// timeout; they must self-limit.
func (b *Bridge) InvokeSync(name string, tier registry.Tier, args map[string]any) Result {
	invocationID, start, entry, failed := b.prepare(name, tier, args)
	if failed != nil {
		return *failed
	}

	if entry.Handler.Kind == registry.KindBlocking {
		output, err := callBlocking(entry.Handler.Blocking, args)
		return b.finish(invocationID, name, start, output, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.CeilingTimeout)
	defer cancel()

	type outcome struct {
		output any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		output, err := callSuspending(ctx, entry.Handler.Suspending, args)
		done <- outcome{output: output, err: err}
	}()

	select {
	case o := <-done:
		return b.finish(invocationID, name, start, o.output, o.err)
	case <-ctx.Done():
		duration := time.Since(start)
		b.stats.record(name, duration, false, true)
		log.Error().
			Str("invocation_id", invocationID).
			Str("capability", name).
			Dur("ceiling", b.opts.CeilingTimeout).
			Msg("Invocation abandoned at ceiling timeout")
		return Result{
			Status:       StatusError,
			Error:        fmt.Sprintf("invocation timeout after %v (result abandoned, operation may still be running)", b.opts.CeilingTimeout),
			Kind:         ErrTimeout,
			InvocationID: invocationID,
			Duration:     duration,
		}
	}
}

// prepare performs the shared lookup/authorization/validation steps. A
// non-nil Result means the invocation already failed.
func (b *Bridge) prepare(name string, tier registry.Tier, args map[string]any) (string, time.Time, registry.Entry, *Result) {
	invocationID, _ := gonanoid.New()
	start := time.Now()

	entry, ok := b.registry.Lookup(name)
	if !ok {
		return invocationID, start, registry.Entry{}, &Result{
			Status:       StatusError,
			Error:        fmt.Sprintf("capability not found: %s", name),
			Kind:         ErrNotFound,
			InvocationID: invocationID,
		}
	}

	if b.opts.EnforceTierOnInvoke && !b.registry.Authorized(name, tier) {
		log.Warn().
			Str("capability", name).
			Str("tier", string(tier)).
			Msg("Invocation rejected: tier not authorized")
		return invocationID, start, registry.Entry{}, &Result{
			Status:       StatusError,
			Error:        fmt.Sprintf("tier %q is not authorized for capability %s", tier, name),
			Kind:         ErrUnauthorized,
			InvocationID: invocationID,
		}
	}

	if b.opts.ValidateArgs {
		if err := b.registry.ValidateArgs(name, args); err != nil {
			return invocationID, start, registry.Entry{}, &Result{
				Status:       StatusError,
				Error:        err.Error(),
				Kind:         ErrInvalidArgs,
				InvocationID: invocationID,
			}
		}
	}

	return invocationID, start, entry, nil
}

// finish converts a handler outcome into a normalized result
func (b *Bridge) finish(invocationID, name string, start time.Time, output any, err error) Result {
	duration := time.Since(start)

	if err != nil {
		b.stats.record(name, duration, false, false)
		log.Error().
			Str("invocation_id", invocationID).
			Str("capability", name).
			Dur("duration", duration).
			Err(err).
			Msg("Invocation failed")
		return Result{
			Status:       StatusError,
			Error:        err.Error(),
			Kind:         ErrHandler,
			InvocationID: invocationID,
			Duration:     duration,
		}
	}

	output, truncated := truncateOutput(output)
	b.stats.record(name, duration, true, false)

	log.Debug().
		Str("invocation_id", invocationID).
		Str("capability", name).
		Dur("duration", duration).
		Msg("Invocation completed")

	return Result{
		Status:       StatusOK,
		Output:       output,
		Truncated:    truncated,
		InvocationID: invocationID,
		Duration:     duration,
	}
}

// callBlocking invokes a blocking handler, recovering panics into errors so
// nothing crosses the bridge boundary as a crash.
func callBlocking(fn registry.BlockingFunc, args map[string]any) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(args)
}

// callSuspending invokes a suspending handler with the same panic recovery
func callSuspending(ctx context.Context, fn registry.SuspendingFunc, args map[string]any) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(ctx, args)
}

// truncateOutput caps string outputs at maxOutputBytes. Non-string outputs
// pass through untouched; reinterpreting structured results is not the
// bridge's business.
func truncateOutput(output any) (any, bool) {
	str, ok := output.(string)
	if !ok || len(str) <= maxOutputBytes {
		return output, false
	}
	return str[:maxOutputBytes] + "\n... [output truncated]", true
}

package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a child process when the caller supplies none
const DefaultTimeout = 30 * time.Second

// ErrExecutionTimeout marks a child process killed by the executor's timeout
var ErrExecutionTimeout = errors.New("execution timeout exceeded")

// Result captures the outcome of one child process run. Run never returns an
// error: every failure mode is reported here, spawn failures and timeouts as
// a synthetic exit code -1 with a descriptive stderr.
type Result struct {
	RunID    string        `json:"run_id"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Blocked  bool          `json:"blocked,omitempty"`
	Duration time.Duration `json:"duration"`
}

// SpawnFunc runs a prepared command to completion. Injectable so tests can
// verify that blocked commands never reach the OS.
type SpawnFunc func(ctx context.Context, tokens []string, cwd string, stdout, stderr *bytes.Buffer) (exitCode int, err error)

func defaultSpawn(ctx context.Context, tokens []string, cwd string, stdout, stderr *bytes.Buffer) (int, error) {
	cmd := exec.CommandContext(ctx, tokens[0], tokens[1:]...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}

// Executor spawns child processes with a hard timeout and captured output
type Executor struct {
	denylist *Denylist
	spawn    SpawnFunc
	timeout  time.Duration
}

// Option configures an Executor
type Option func(*Executor)

// WithTimeout overrides the default per-run timeout
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithDenylist replaces the static deny-list (used to add config patterns)
func WithDenylist(d *Denylist) Option {
	return func(e *Executor) {
		if d != nil {
			e.denylist = d
		}
	}
}

// WithSpawn replaces the process spawn function (tests only)
func WithSpawn(spawn SpawnFunc) Option {
	return func(e *Executor) {
		if spawn != nil {
			e.spawn = spawn
		}
	}
}

// New creates a process executor
func New(opts ...Option) *Executor {
	e := &Executor{
		denylist: NewDenylist(),
		spawn:    defaultSpawn,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes command tokens that originate from a resolved command table
// lookup. No deny-list screening is applied; the table is trusted.
func (e *Executor) Run(ctx context.Context, tokens []string, timeout time.Duration, cwd string) Result {
	return e.run(ctx, tokens, timeout, cwd)
}

// RunRaw executes caller-supplied command tokens. The joined command string
// is screened against the destructive-pattern deny-list first; a match
// blocks execution entirely without spawning a process.
func (e *Executor) RunRaw(ctx context.Context, tokens []string, timeout time.Duration, cwd string) Result {
	if pattern, matched := e.denylist.Match(tokens); matched {
		runID := uuid.NewString()
		log.Warn().
			Str("run_id", runID).
			Strs("tokens", tokens).
			Str("pattern", pattern).
			Msg("Command blocked by destructive-pattern deny-list")
		return Result{
			RunID:    runID,
			ExitCode: -1,
			Blocked:  true,
			Stderr:   fmt.Sprintf("command blocked: matches destructive pattern %q", pattern),
		}
	}
	return e.run(ctx, tokens, timeout, cwd)
}

func (e *Executor) run(ctx context.Context, tokens []string, timeout time.Duration, cwd string) Result {
	runID := uuid.NewString()

	if len(tokens) == 0 {
		return Result{
			RunID:    runID,
			ExitCode: -1,
			Stderr:   "empty command",
		}
	}

	if timeout <= 0 {
		timeout = e.timeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	start := time.Now()
	exitCode, err := e.spawn(runCtx, tokens, cwd, &stdout, &stderr)
	duration := time.Since(start)

	result := Result{
		RunID:    runID,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	// Timeout wins over whatever error the killed process surfaced
	if runCtx.Err() == context.DeadlineExceeded {
		result.ExitCode = -1
		result.Stderr = fmt.Sprintf("%v after %v", ErrExecutionTimeout, timeout)
	} else if err != nil {
		result.ExitCode = -1
		result.Stderr = fmt.Sprintf("spawn failed: %v", err)
	}

	log.Debug().
		Str("run_id", runID).
		Str("command", tokens[0]).
		Int("exit_code", result.ExitCode).
		Dur("duration", duration).
		Msg("Command executed")

	return result
}

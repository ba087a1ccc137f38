package procexec

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spySpawn records calls and returns a canned outcome
type spySpawn struct {
	calls    int
	tokens   []string
	cwd      string
	exitCode int
	stdout   string
	stderr   string
	err      error
	delay    time.Duration
}

func (s *spySpawn) fn() SpawnFunc {
	return func(ctx context.Context, tokens []string, cwd string, stdout, stderr *bytes.Buffer) (int, error) {
		s.calls++
		s.tokens = tokens
		s.cwd = cwd
		if s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return -1, ctx.Err()
			}
		}
		stdout.WriteString(s.stdout)
		stderr.WriteString(s.stderr)
		return s.exitCode, s.err
	}
}

func TestExecutor_Run_Success(t *testing.T) {
	spy := &spySpawn{stdout: "hello\n", exitCode: 0}
	e := New(WithSpawn(spy.fn()))

	result := e.Run(context.Background(), []string{"echo", "hello"}, 0, "/tmp")

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Empty(t, result.Stderr)
	assert.False(t, result.Blocked)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"echo", "hello"}, spy.tokens)
	assert.Equal(t, "/tmp", spy.cwd)
}

func TestExecutor_Run_NonZeroExit(t *testing.T) {
	spy := &spySpawn{stderr: "no such file\n", exitCode: 2}
	e := New(WithSpawn(spy.fn()))

	result := e.Run(context.Background(), []string{"ls", "/nonexistent"}, 0, "")

	assert.Equal(t, 2, result.ExitCode)
	assert.Equal(t, "no such file\n", result.Stderr)
}

func TestExecutor_Run_SpawnFailure(t *testing.T) {
	spy := &spySpawn{exitCode: -1, err: errors.New("executable not found")}
	e := New(WithSpawn(spy.fn()))

	result := e.Run(context.Background(), []string{"no-such-binary"}, 0, "")

	assert.Equal(t, -1, result.ExitCode)
	assert.Contains(t, result.Stderr, "spawn failed")
	assert.Contains(t, result.Stderr, "executable not found")
}

func TestExecutor_Run_Timeout(t *testing.T) {
	spy := &spySpawn{delay: 5 * time.Second}
	e := New(WithSpawn(spy.fn()))

	start := time.Now()
	result := e.Run(context.Background(), []string{"sleep", "60"}, 50*time.Millisecond, "")
	elapsed := time.Since(start)

	assert.Equal(t, -1, result.ExitCode)
	assert.Contains(t, result.Stderr, ErrExecutionTimeout.Error())
	assert.Less(t, elapsed, 2*time.Second)
}

func TestExecutor_Run_EmptyCommand(t *testing.T) {
	spy := &spySpawn{}
	e := New(WithSpawn(spy.fn()))

	result := e.Run(context.Background(), nil, 0, "")

	assert.Equal(t, -1, result.ExitCode)
	assert.Equal(t, "empty command", result.Stderr)
	assert.Zero(t, spy.calls)
}

func TestExecutor_RunRaw_BlockedNeverSpawns(t *testing.T) {
	spy := &spySpawn{}
	e := New(WithSpawn(spy.fn()))

	result := e.RunRaw(context.Background(), []string{"rm", "-rf", "/"}, 0, "")

	assert.True(t, result.Blocked)
	assert.Equal(t, -1, result.ExitCode)
	assert.Contains(t, result.Stderr, "command blocked")
	assert.NotEmpty(t, result.RunID)
	assert.Zero(t, spy.calls, "blocked command must not reach the spawn function")
}

func TestExecutor_RunRaw_AllowedSpawns(t *testing.T) {
	spy := &spySpawn{stdout: "ok"}
	e := New(WithSpawn(spy.fn()))

	result := e.RunRaw(context.Background(), []string{"ls", "-la"}, 0, "")

	assert.False(t, result.Blocked)
	assert.Equal(t, "ok", result.Stdout)
	assert.Equal(t, 1, spy.calls)
}

func TestExecutor_Run_NoDenylistScreening(t *testing.T) {
	// Table-resolved commands bypass the deny-list entirely
	spy := &spySpawn{exitCode: 0}
	e := New(WithSpawn(spy.fn()))

	result := e.Run(context.Background(), []string{"shutdown", "-h", "now"}, 0, "")

	assert.False(t, result.Blocked)
	assert.Equal(t, 1, spy.calls)
	assert.Equal(t, 0, result.ExitCode)
}

func TestExecutor_RunRaw_ExtraConfigPattern(t *testing.T) {
	spy := &spySpawn{}
	e := New(
		WithSpawn(spy.fn()),
		WithDenylist(NewDenylist("custom-danger")),
	)

	result := e.RunRaw(context.Background(), []string{"run", "custom-danger", "now"}, 0, "")

	assert.True(t, result.Blocked)
	assert.Zero(t, spy.calls)
}

func TestExecutor_Run_NeverReturnsError(t *testing.T) {
	// Run's contract: every failure mode lands in Result, never a panic
	tests := []struct {
		name   string
		tokens []string
		spawn  *spySpawn
	}{
		{"empty tokens", nil, &spySpawn{}},
		{"spawn error", []string{"x"}, &spySpawn{exitCode: -1, err: errors.New("boom")}},
		{"nonzero exit", []string{"x"}, &spySpawn{exitCode: 127}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithSpawn(tt.spawn.fn()))
			require.NotPanics(t, func() {
				result := e.Run(context.Background(), tt.tokens, 0, "")
				assert.NotEmpty(t, result.RunID)
			})
		})
	}
}

func TestExecutor_Run_NilContext(t *testing.T) {
	spy := &spySpawn{exitCode: 0}
	e := New(WithSpawn(spy.fn()))

	result := e.Run(nil, []string{"true"}, 0, "")
	assert.Equal(t, 0, result.ExitCode)
}

func TestWithTimeout_IgnoresNonPositive(t *testing.T) {
	e := New(WithTimeout(0), WithTimeout(-time.Second))
	assert.Equal(t, DefaultTimeout, e.timeout)

	e = New(WithTimeout(5 * time.Second))
	assert.Equal(t, 5*time.Second, e.timeout)
}

// Package coretools registers the gateway's built-in capabilities: logical
// operation execution, raw command execution, platform inspection, and
// operation discovery.
package coretools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arlo-dev/capgate/pkg/oscmd"
	"github.com/arlo-dev/capgate/pkg/platform"
	"github.com/arlo-dev/capgate/pkg/procexec"
	"github.com/arlo-dev/capgate/pkg/registry"
)

// Options configures built-in capability registration
type Options struct {
	Resolver *oscmd.Resolver
	Executor *procexec.Executor
	Profile  platform.Profile

	// AdminTiers gates the capabilities that spawn processes
	AdminTiers []registry.Tier
	// ReadTiers gates the read-only discovery capabilities
	ReadTiers []registry.Tier
}

// RegisterCoreTools registers the built-in capability set
func RegisterCoreTools(reg *registry.Registry, opts Options) error {
	if reg == nil {
		return errors.New("registry is required")
	}
	if opts.Resolver == nil {
		opts.Resolver = oscmd.NewResolver()
	}
	if opts.Executor == nil {
		opts.Executor = procexec.New()
	}

	entries := []registry.Entry{
		runOpTool(opts),
		execTool(opts),
		platformTool(opts),
		opsTool(opts),
		echoTool(opts),
	}

	for _, entry := range entries {
		if err := reg.Register(entry); err != nil {
			return fmt.Errorf("failed to register capability %s: %w", entry.Name, err)
		}
	}
	return nil
}

// runOpTool executes a logical operation resolved against the host platform.
// Commands come from the command table, so no deny-list screening applies.
func runOpTool(opts Options) registry.Entry {
	return registry.Entry{
		Name:        "sys_run_op",
		Description: "Resolve a logical operation for the detected platform and execute it.",
		Params: map[string]registry.ParamSpec{
			"operation": {Type: "string", Description: "Logical operation name (see sys_ops)"},
			"args":      {Type: "array", Description: "Extra arguments appended to the resolved command", Optional: true},
			"timeout":   {Type: "number", Description: "Timeout in seconds", Optional: true},
			"cwd":       {Type: "string", Description: "Working directory", Optional: true},
		},
		Tiers: opts.AdminTiers,
		Handler: registry.NewSuspending(func(ctx context.Context, args map[string]any) (any, error) {
			opName, _ := args["operation"].(string)
			if opName == "" {
				return nil, fmt.Errorf("operation is required")
			}

			resolved, err := opts.Resolver.Resolve(
				oscmd.Operation(opName), opts.Profile, toStringSlice(args["args"]))
			if err != nil {
				return nil, err
			}

			cwd, _ := args["cwd"].(string)
			result := opts.Executor.Run(ctx, resolved.Tokens, parseDurationSeconds(args["timeout"]), cwd)
			return execResultMap(result, string(resolved.PlatformKey)), nil
		}),
	}
}

// execTool runs caller-supplied raw command tokens through the deny-list
func execTool(opts Options) registry.Entry {
	return registry.Entry{
		Name:        "sys_exec",
		Description: "Execute a raw command. Destructive command patterns are blocked.",
		Params: map[string]registry.ParamSpec{
			"command": {Type: "string", Description: "Command to execute"},
			"args":    {Type: "array", Description: "Command arguments", Optional: true},
			"timeout": {Type: "number", Description: "Timeout in seconds", Optional: true},
			"cwd":     {Type: "string", Description: "Working directory", Optional: true},
		},
		Tiers: opts.AdminTiers,
		Handler: registry.NewSuspending(func(ctx context.Context, args map[string]any) (any, error) {
			command, _ := args["command"].(string)
			if command == "" {
				return nil, fmt.Errorf("command is required")
			}

			tokens := append([]string{command}, toStringSlice(args["args"])...)
			cwd, _ := args["cwd"].(string)
			result := opts.Executor.RunRaw(ctx, tokens, parseDurationSeconds(args["timeout"]), cwd)
			if result.Blocked {
				return map[string]any{
					"blocked": true,
					"reason":  result.Stderr,
				}, nil
			}
			return execResultMap(result, ""), nil
		}),
	}
}

// platformTool returns the cached Platform Profile
func platformTool(opts Options) registry.Entry {
	return registry.Entry{
		Name:        "sys_platform",
		Description: "Return the detected host platform profile.",
		Tiers:       opts.ReadTiers,
		Handler: registry.NewBlocking(func(args map[string]any) (any, error) {
			return opts.Profile, nil
		}),
	}
}

// opsTool lists the logical operation vocabulary with per-host availability
func opsTool(opts Options) registry.Entry {
	return registry.Entry{
		Name:        "sys_ops",
		Description: "List supported logical operations and their availability on this host.",
		Tiers:       opts.ReadTiers,
		Handler: registry.NewBlocking(func(args map[string]any) (any, error) {
			all := opts.Resolver.Operations()
			ops := make([]map[string]any, 0, len(all))
			for _, op := range all {
				ops = append(ops, map[string]any{
					"operation": string(op),
					"available": opts.Resolver.Supports(op, opts.Profile),
				})
			}
			return map[string]any{"operations": ops}, nil
		}),
	}
}

// echoTool returns its arguments unchanged; useful for wiring diagnostics
func echoTool(opts Options) registry.Entry {
	return registry.Entry{
		Name:        "echo",
		Description: "Return the provided arguments unchanged.",
		Tiers:       opts.ReadTiers,
		Handler: registry.NewBlocking(func(args map[string]any) (any, error) {
			return args, nil
		}),
	}
}

func execResultMap(result procexec.Result, platformKey string) map[string]any {
	out := map[string]any{
		"run_id":    result.RunID,
		"exit_code": result.ExitCode,
		"stdout":    result.Stdout,
		"stderr":    result.Stderr,
		"duration":  result.Duration.Milliseconds(),
	}
	if platformKey != "" {
		out["platform_key"] = platformKey
	}
	return out
}

func toStringSlice(value any) []string {
	raw, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDurationSeconds(value any) time.Duration {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return time.Duration(v * float64(time.Second))
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return 0
}

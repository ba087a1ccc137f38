package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/arlo-dev/capgate/internal/config"
	"github.com/arlo-dev/capgate/internal/logger"
	"github.com/arlo-dev/capgate/pkg/bridge"
	"github.com/arlo-dev/capgate/pkg/coretools"
	"github.com/arlo-dev/capgate/pkg/oscmd"
	"github.com/arlo-dev/capgate/pkg/platform"
	"github.com/arlo-dev/capgate/pkg/procexec"
	"github.com/arlo-dev/capgate/pkg/registry"
)

// gateway bundles the wired components a command needs
type gateway struct {
	cfg      *config.Config
	log      *logger.Logger
	profile  platform.Profile
	resolver *oscmd.Resolver
	executor *procexec.Executor
	registry *registry.Registry
	bridge   *bridge.Bridge
	watcher  *registry.PolicyWatcher
}

// setup loads config, initializes logging, detects the platform, and wires
// the registry, bridge, and built-in capabilities.
func setup() (*gateway, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if errs := config.NewValidator().ValidateConfig(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %v", errs[0])
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	log, err := logger.New(logger.Config{
		Level:     level,
		File:      cfg.Logging.File,
		Console:   true,
		Pretty:    true,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	profile := platform.Detect()

	resolver := oscmd.NewResolver()
	executor := procexec.New(
		procexec.WithTimeout(time.Duration(cfg.Executor.DefaultTimeoutSeconds)*time.Second),
		procexec.WithDenylist(procexec.NewDenylist(cfg.Executor.ExtraDenyPatterns...)),
	)

	reg := registry.New()
	if err := coretools.RegisterCoreTools(reg, coretools.Options{
		Resolver:   resolver,
		Executor:   executor,
		Profile:    profile,
		AdminTiers: toTiers(cfg.Tiers.Admin),
		ReadTiers:  toTiers(cfg.Tiers.Read),
	}); err != nil {
		return nil, err
	}

	var watcher *registry.PolicyWatcher
	if cfg.PolicyPath != "" {
		if _, statErr := os.Stat(cfg.PolicyPath); statErr == nil {
			watcher, err = registry.NewPolicyWatcher(reg, cfg.PolicyPath)
			if err != nil {
				return nil, err
			}
			if err := watcher.Start(); err != nil {
				return nil, err
			}
		}
	}

	br := bridge.New(reg, bridge.Options{
		CeilingTimeout:      time.Duration(cfg.Bridge.CeilingTimeoutSeconds) * time.Second,
		EnforceTierOnInvoke: cfg.Bridge.EnforceTierOnInvoke,
		ValidateArgs:        cfg.Bridge.ValidateArgs,
	})

	return &gateway{
		cfg:      cfg,
		log:      log,
		profile:  profile,
		resolver: resolver,
		executor: executor,
		registry: reg,
		bridge:   br,
		watcher:  watcher,
	}, nil
}

// close releases the gateway's resources
func (g *gateway) close() {
	if g.watcher != nil {
		_ = g.watcher.Stop()
	}
	if g.log != nil {
		_ = g.log.Close()
	}
}

func toTiers(names []string) []registry.Tier {
	tiers := make([]registry.Tier, 0, len(names))
	for _, name := range names {
		tiers = append(tiers, registry.Tier(name))
	}
	return tiers
}

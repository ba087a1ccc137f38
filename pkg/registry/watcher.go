package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// PolicyEntry is the on-disk policy for one capability: its authorized
// tiers and optional deprecation state.
type PolicyEntry struct {
	Tiers       []Tier `json:"tiers"`
	Deprecated  bool   `json:"deprecated,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Replacement string `json:"replacement,omitempty"`
}

// PolicyFile maps capability names to policy entries
type PolicyFile map[string]PolicyEntry

// PolicyWatcher monitors a JSON policy file and applies tier and deprecation
// changes to the registry when the file is rewritten. Policies for names not
// currently registered are skipped and retried on the next change.
type PolicyWatcher struct {
	registry  *Registry
	path      string
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	timer     *time.Timer
	timerMu   sync.Mutex
	done      chan struct{}
	stopOnce  sync.Once
}

// NewPolicyWatcher creates a watcher over the given policy file path
func NewPolicyWatcher(reg *Registry, path string) (*PolicyWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &PolicyWatcher{
		registry: reg,
		path:     path,
		watcher:  watcher,
		debounce: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}, nil
}

// Start applies the current policy file (if present) and begins watching its
// directory for changes. Editors replace files on save, so the parent
// directory is watched rather than the file itself.
func (pw *PolicyWatcher) Start() error {
	if err := pw.watcher.Add(filepath.Dir(pw.path)); err != nil {
		return fmt.Errorf("failed to watch policy directory: %w", err)
	}

	if err := pw.Apply(); err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", pw.path).Msg("Initial policy load failed")
		}
	}

	go pw.eventLoop()

	log.Info().Str("path", pw.path).Msg("Capability policy watcher started")
	return nil
}

// Stop stops the watcher
func (pw *PolicyWatcher) Stop() error {
	pw.stopOnce.Do(func() {
		close(pw.done)
	})

	pw.timerMu.Lock()
	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.timerMu.Unlock()

	return pw.watcher.Close()
}

// Apply reads the policy file and applies it to the registry
func (pw *PolicyWatcher) Apply() error {
	data, err := os.ReadFile(pw.path)
	if err != nil {
		return err
	}

	var policies PolicyFile
	if err := json.Unmarshal(data, &policies); err != nil {
		return fmt.Errorf("failed to parse policy file: %w", err)
	}

	applied := 0
	for name, policy := range policies {
		if _, ok := pw.registry.Lookup(name); !ok {
			log.Debug().Str("capability", name).Msg("Policy for unregistered capability skipped")
			continue
		}
		pw.registry.SetTiers(name, policy.Tiers)
		if policy.Deprecated {
			pw.registry.Deprecate(name, policy.Reason, policy.Replacement)
		} else {
			pw.registry.Undeprecate(name)
		}
		applied++
	}

	log.Info().
		Str("path", pw.path).
		Int("applied", applied).
		Msg("Capability policy applied")
	return nil
}

func (pw *PolicyWatcher) eventLoop() {
	for {
		select {
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(pw.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pw.scheduleApply()

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Policy watcher error")

		case <-pw.done:
			return
		}
	}
}

// scheduleApply debounces rapid rewrites of the policy file
func (pw *PolicyWatcher) scheduleApply() {
	pw.timerMu.Lock()
	defer pw.timerMu.Unlock()

	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.timer = time.AfterFunc(pw.debounce, func() {
		select {
		case <-pw.done:
			return
		default:
		}
		if err := pw.Apply(); err != nil {
			log.Error().Err(err).Str("path", pw.path).Msg("Policy reload failed")
		}
	})
}

// Package plugin implements the single chokepoint through which every
// adapter execution passes, grounded on plugin_manager.py's PluginManager.
package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caldera-labs/sentryagent/pkg/adapter"
	"github.com/caldera-labs/sentryagent/pkg/policy"
)

// Manager gates every adapter execution behind the policy engine. RunAdapter
// is the ONLY path by which an adapter's Execute method may be invoked in
// this codebase — callers (the orchestrator, the agent tool wrapper) must
// not duplicate target/rate checks themselves (see SPEC_FULL.md Open
// Question #2).
type Manager struct {
	adapters *adapter.Manager
	policy   *policy.Engine
}

// NewManager constructs a Manager wired to an adapter.Manager and a
// policy.Engine.
func NewManager(adapters *adapter.Manager, policyEngine *policy.Engine) *Manager {
	return &Manager{adapters: adapters, policy: policyEngine}
}

// RunAdapter is the chokepoint described in spec.md §4.6: extract the
// target, validate it against policy, load the adapter, gate exploit-class
// adapters, enforce rate limits, validate its params, execute it, and —
// only on success — record rate-limiter usage. Every step mirrors
// plugin_manager.py's run_adapter pseudocode exactly.
//
// Rate limiting and exploit permissions are both keyed by name (the
// adapter/tool identity), never by target: spec.md §4.3's RateWindow keys
// are "global" or "adapter:<name>", and §4.5's check_exploit_permissions
// takes an exploit/module identity, not a scan target. Target authorization
// is the only check ValidateAsset performs here.
func (m *Manager) RunAdapter(ctx context.Context, name string, params map[string]any) *adapter.Result {
	log := slog.With("adapter", name)

	target := adapter.TargetFromParams(params)
	if target == "" {
		return adapter.Blocked(fmt.Sprintf("adapter %q call is missing a target/domain/host/url parameter", name))
	}

	if err := m.policy.ValidateAsset(policy.Asset{Target: target}); err != nil {
		log.Warn("adapter call blocked by policy", "target", target, "error", err)
		return adapter.Blocked(err.Error())
	}

	a, err := m.adapters.LoadAdapter(name)
	if err != nil {
		log.Error("failed to load adapter", "error", err)
		return &adapter.Result{Status: adapter.ResultError, ErrorMessage: err.Error()}
	}

	if a.GetInfo().RequiresLab {
		exploit := exploitIdentity(name, params)
		if err := m.policy.CheckExploitPermissions(exploit); err != nil {
			log.Warn("exploit adapter blocked by policy", "exploit", exploit, "error", err)
			return adapter.Blocked(err.Error())
		}
	}

	if err := m.policy.EnforceRateLimits(name); err != nil {
		log.Warn("adapter call blocked by rate limit", "error", err)
		return adapter.Blocked(err.Error())
	}

	if err := a.ValidateParams(params); err != nil {
		return &adapter.Result{Status: adapter.ResultError, ErrorMessage: err.Error()}
	}

	start := time.Now()
	result, err := a.Execute(ctx, params)
	if err != nil {
		log.Error("adapter execution errored", "error", err)
		return &adapter.Result{Status: adapter.ResultError, ErrorMessage: err.Error(), Duration: time.Since(start)}
	}

	if result.Status == adapter.ResultSuccess {
		m.policy.RecordUsage(name)
	}

	return result
}

// exploitIdentity resolves the exploit/module identity CheckExploitPermissions
// gates on: the "module" parameter when the call names one (e.g. the
// metasploit adapter's module parameter), falling back to the adapter name
// itself for exploit-class adapters with no per-call module parameter.
func exploitIdentity(adapterName string, params map[string]any) string {
	if module, ok := params["module"].(string); ok && module != "" {
		return module
	}
	return adapterName
}

// Discover registers the given factories with the adapter manager. Go has no
// runtime module loading to mirror discover_adapters' directory scan, so
// discovery here means "register the compiled-in adapter factories" — the
// adapter set is fixed at build time rather than scanned from disk.
func (m *Manager) Discover(factories map[string]adapter.Factory) {
	for name, f := range factories {
		m.adapters.Register(name, f)
	}
}

// ListAvailable returns every registered adapter name.
func (m *Manager) ListAvailable() []string { return m.adapters.ListAvailable() }

// ListLoaded returns every currently loaded adapter name.
func (m *Manager) ListLoaded() []string { return m.adapters.ListLoaded() }

// UnloadAdapter unloads a single adapter by name.
func (m *Manager) UnloadAdapter(name string) { m.adapters.UnloadAdapter(name) }

// Cleanup unloads every loaded adapter, mirroring PluginManager.cleanup.
func (m *Manager) Cleanup() { m.adapters.CleanupAll() }

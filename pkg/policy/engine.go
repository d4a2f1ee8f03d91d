package policy

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Config configures a new Engine, grounded on create_policy_engine's default
// config dict in policy_engine.py.
type Config struct {
	AuthorizedNetworks []string
	AuthorizedDomains  []string
	BlockedTargets     []string
	GlobalMaxPerMinute int
	DefaultMaxPerMinute int
	LabMode            bool
	// AllowedExploits is the flat exploit/module allow-list checked by
	// CheckExploitPermissions outside lab mode, grounded on
	// policy_engine.py's check_exploit_permissions reading
	// config["allowed_exploits"].
	AllowedExploits []string
}

// Engine is the single authority for asset authorization, rate limiting, and
// exploit gating, grounded on policy_engine.py's PolicyEngine.
//
// Engine itself performs no adapter execution — plugin.Manager.RunAdapter is
// the only caller permitted to invoke it on the hot path (see Open Question
// #2 in SPEC_FULL.md). Any other caller duplicating target/rate checks is a
// defect, not a safety margin.
type Engine struct {
	validator *TargetValidator
	limiter   *RateLimiter

	mu         sync.Mutex
	rules      []*PolicyRule
	violations []PolicyViolation

	labMode         bool
	allowedExploits map[string]bool
}

// globalRateKey is the RateLimiter key reserved for the global window,
// matching spec.md's RateWindow glossary entry ("global" or
// "adapter:<name>").
const globalRateKey = "global"

// adapterRateKey builds the per-adapter RateWindow key for name.
func adapterRateKey(name string) string { return "adapter:" + name }

// NewEngine constructs an Engine from Config.
func NewEngine(cfg Config) *Engine {
	allowed := make(map[string]bool, len(cfg.AllowedExploits))
	for _, e := range cfg.AllowedExploits {
		allowed[e] = true
	}
	return &Engine{
		validator:       NewTargetValidator(cfg.AuthorizedNetworks, cfg.AuthorizedDomains, cfg.BlockedTargets),
		limiter:         NewRateLimiter(cfg.GlobalMaxPerMinute, cfg.DefaultMaxPerMinute),
		labMode:         cfg.LabMode,
		allowedExploits: allowed,
	}
}

// ValidateAsset authorizes an asset's target against the TargetValidator.
// ValidateAsset performs target authorization only — it has no adapter/tool
// context (Asset carries no tool name) to key a rate-limit check against, so
// rate admission is EnforceRateLimits's sole responsibility, called
// separately by plugin.Manager.RunAdapter once the adapter/tool name is
// known. Mirrors policy_engine.py's validate_asset, minus its
// adapter_name=asset.tool_name rate-limit branch, which has no Go
// equivalent at this call site.
func (e *Engine) ValidateAsset(asset Asset) error {
	ok, err := e.validator.ValidateTarget(asset.Target)
	if err != nil {
		e.LogViolation(asset.Target, ViolationInvalidTarget, SeverityMedium, err.Error())
		return fmt.Errorf("%w: %s", ErrInvalidTarget, asset.Target)
	}
	if !ok {
		e.LogViolation(asset.Target, ViolationUnauthorizedTarget, SeverityHigh,
			fmt.Sprintf("target %q is not within any authorized network or domain", asset.Target))
		return fmt.Errorf("%w: %s", ErrTargetNotAuthorized, asset.Target)
	}
	return nil
}

// EnforceRateLimits checks (without consuming) whether adapterName currently
// has rate budget remaining, keyed per spec.md §4.3's RateWindow
// ("adapter:<name>") rather than by scan target — two tools sharing a
// target must not share a budget, and one tool hitting many targets must
// not be unbounded.
func (e *Engine) EnforceRateLimits(adapterName string) error {
	if !e.limiter.CheckRateLimit(adapterRateKey(adapterName), 0) {
		e.LogViolation(adapterName, ViolationRateLimitExceeded, SeverityMedium,
			fmt.Sprintf("adapter %q is at its rate limit", adapterName))
		return fmt.Errorf("%w: %s", ErrRateLimitExceeded, adapterName)
	}
	return nil
}

// RecordUsage consumes one unit of adapterName's rate budget. Call only
// after a successful adapter execution.
func (e *Engine) RecordUsage(adapterName string) {
	e.limiter.RecordRequest(adapterRateKey(adapterName), 0)
}

// CheckExploitPermissions reports whether exploit (an exploit/module name,
// not a scan target) is permitted to run. LabMode unconditionally allows
// exploits; otherwise exploit must be present in AllowedExploits — grounded
// on policy_engine.py's check_exploit_permissions(exploit_name, lab_mode).
func (e *Engine) CheckExploitPermissions(exploit string) error {
	if e.labMode {
		return nil
	}

	if e.allowedExploits[exploit] {
		return nil
	}

	e.LogViolation(exploit, ViolationExploitBlocked, SeverityCritical,
		fmt.Sprintf("exploit %q is not in the allowed list and lab mode is off", exploit))
	return fmt.Errorf("%w: %s", ErrExploitNotPermitted, exploit)
}

// ValidateTarget exposes raw target validation without rate accounting.
func (e *Engine) ValidateTarget(target string) (bool, error) {
	return e.validator.ValidateTarget(target)
}

// LogViolation records a violation and logs it at a severity-appropriate
// level, mirroring log_violation's WARNING-vs-ERROR split. subject is the
// target, adapter name, or exploit name the violation concerns, depending on
// which check raised it.
func (e *Engine) LogViolation(subject string, kind ViolationType, severity Severity, message string) {
	v := PolicyViolation{
		Target:    subject,
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now(),
	}

	e.mu.Lock()
	e.violations = append(e.violations, v)
	e.mu.Unlock()

	log := slog.With("subject", subject, "violation", kind, "severity", severity)
	if severity == SeverityHigh || severity == SeverityCritical {
		log.Error(message)
	} else {
		log.Warn(message)
	}
}

// ViolationReport returns a copy of all recorded violations.
func (e *Engine) ViolationReport() []PolicyViolation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]PolicyViolation, len(e.violations))
	copy(out, e.violations)
	return out
}

// CurrentRates returns the global and adapterName's current window rate, in
// requests per second (count_in_window / window_size).
func (e *Engine) CurrentRates(adapterName string) (global, adapterRate float64) {
	return e.limiter.GlobalRate(), e.limiter.CurrentRate(adapterRateKey(adapterName))
}

// AddRule inserts rule, keeping the rule list sorted by descending priority —
// mirrors add_rule's bisect-by-priority insertion in policy_engine.py. Rules
// are descriptive audit entries; see PolicyRule's doc comment.
func (e *Engine) AddRule(rule *PolicyRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, rule)
	sort.SliceStable(e.rules, func(i, j int) bool {
		return e.rules[i].Priority > e.rules[j].Priority
	})
}

// RemoveRule removes the rule with the given ID.
func (e *Engine) RemoveRule(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, r := range e.rules {
		if r.ID == id {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

// Rules returns a copy of the current priority-ordered rule list.
func (e *Engine) Rules() []*PolicyRule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*PolicyRule, len(e.rules))
	copy(out, e.rules)
	return out
}

package policy

import "time"

// ViolationType classifies the kind of policy violation recorded.
type ViolationType string

// Violation type constants, grounded on policy_engine.py's PolicyViolationType enum.
const (
	ViolationUnauthorizedTarget ViolationType = "unauthorized_target"
	ViolationRateLimitExceeded  ViolationType = "rate_limit_exceeded"
	ViolationExploitBlocked     ViolationType = "exploit_blocked"
	ViolationInvalidTarget      ViolationType = "invalid_target"
)

// Severity is the severity tier attached to a PolicyRule / PolicyViolation.
type Severity string

// Severity tiers. Medium and below log at Warn; High/Critical log at Error.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// PolicyRule is a descriptive, priority-ordered audit entry — grounded on
// policy_engine.py's PolicyRule dataclass, which carries a name/description/
// priority but is never consulted to decide target, rate, or exploit
// admission; those decisions come from TargetValidator, RateLimiter, and the
// flat AllowedExploits list respectively. TargetPattern is descriptive only
// (shown in reporting), not matched against incoming targets.
type PolicyRule struct {
	ID            string
	Description   string
	TargetPattern string
	Priority      int
	Severity      Severity
}

// PolicyViolation records one denied or flagged action for audit/reporting.
type PolicyViolation struct {
	Target    string
	Kind      ViolationType
	Severity  Severity
	Message   string
	Timestamp time.Time
}

// AssetKind enumerates the types of assets the policy engine authorizes.
type AssetKind string

const (
	AssetHost   AssetKind = "host"
	AssetDomain AssetKind = "domain"
	AssetVM     AssetKind = "vm"
	AssetURL    AssetKind = "url"
)

// Asset is a target registered with the orchestrator and checked against policy
// before any adapter runs against it.
type Asset struct {
	ID   string
	Kind AssetKind
	// Target is the host/IP/domain/URL string policy validation operates on.
	Target string
	Tags   []string
}

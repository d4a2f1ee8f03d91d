// Package policy implements target authorization, rate limiting, and exploit
// gating for the agent's adapter execution path.
package policy

import "errors"

var (
	// ErrTargetNotAuthorized indicates a target failed authorization checks.
	ErrTargetNotAuthorized = errors.New("target not authorized")

	// ErrRateLimitExceeded indicates the per-adapter or global rate limit was hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrExploitNotPermitted indicates the named exploit/module is not on the
	// allowed list and lab mode is off.
	ErrExploitNotPermitted = errors.New("exploit execution not permitted")

	// ErrInvalidTarget indicates an empty target string. Any other string that
	// does not parse as an IP address is treated as a domain name.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrRuleNotFound indicates a rule ID was not present in the engine.
	ErrRuleNotFound = errors.New("policy rule not found")
)

// ViolationError wraps a policy violation with the asset/target context that
// triggered it, following config.ValidationError's component+field+err shape.
type ViolationError struct {
	Target string
	Kind   ViolationType
	Err    error
}

func (e *ViolationError) Error() string {
	return e.Target + ": " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *ViolationError) Unwrap() error {
	return e.Err
}

package orchestrator

import "log/slog"

// passiveTools are the reconnaissance tools run_passive_recon fans out to,
// grounded on SPEC_FULL.md §2 item 4's passive tool list.
var passiveTools = []string{"whois", "dns_lookup", "ssl_check"}

// DefaultScanPlan returns the deterministic fallback plan for mode, used
// when the LLM planner call fails or its response cannot be parsed,
// grounded on orchestrator.py's _default_scan_plan and SPEC_FULL.md §2
// item 4's exact per-mode tool lists.
func DefaultScanPlan(mode ScanMode, target string) []WorkflowStep {
	var tools []string
	switch mode {
	case ModePassive:
		tools = passiveTools
	case ModeActive:
		tools = []string{"nmap", "sqlmap", "gobuster"}
	case ModeLab:
		tools = []string{"nmap", "sqlmap", "gobuster", "metasploit"}
	default:
		tools = passiveTools
	}

	steps := make([]WorkflowStep, 0, len(tools))
	for i, tool := range tools {
		steps = append(steps, WorkflowStep{
			Tool:       tool,
			Target:     target,
			Parameters: map[string]any{"target": target},
			Priority:   len(tools) - i,
			Rationale:  "default scan plan fallback",
		})
	}
	return steps
}

// dangerousTools are flagged for a future interactive approval gate when run
// outside lab mode, grounded on SPEC_FULL.md §2 item 5's auto-approval list.
var dangerousTools = map[string]bool{
	"sqlmap":     true,
	"metasploit": true,
	"hydra":      true,
}

// ApprovalGate decides whether a planned WorkflowStep may proceed to
// execution, grounded on orchestrator.py's approval-required branch in
// execute_scan_step.
type ApprovalGate interface {
	Approve(step WorkflowStep, mode ScanMode) bool
}

// AutoApprove is the default ApprovalGate, grounded on orchestrator.py's
// _get_user_approval: it always approves. Outside lab mode, a dangerous
// tool is still approved but flagged in the log — _get_user_approval only
// logs that it "would prompt the user in a real implementation" for
// dangerous tools; it never rejects. A real interactive gate can be
// supplied by callers that need one.
type AutoApprove struct{}

// Approve implements ApprovalGate.
func (AutoApprove) Approve(step WorkflowStep, mode ScanMode) bool {
	if mode != ModeLab && dangerousTools[step.Tool] {
		slog.Warn("dangerous tool auto-approved outside lab mode, flagged for interactive review",
			"tool", step.Tool, "target", step.Target)
	}
	return true
}

// IsDangerous reports whether tool is on the dangerous list that AutoApprove
// flags in the log outside lab mode.
func IsDangerous(tool string) bool { return dangerousTools[tool] }

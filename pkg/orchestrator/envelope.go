package orchestrator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// codeFenceRegex strips a surrounding ```json ... ``` or ``` ... ``` code
// fence, grounded on spec.md §6's "Parsers must tolerate markdown code
// fences" requirement for structured LLM envelopes.
var codeFenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

func stripCodeFence(s string) string {
	if m := codeFenceRegex.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// planStepJSON is the wire shape of one scan_plan entry.
type planStepJSON struct {
	Tool       string         `json:"tool"`
	Target     string         `json:"target"`
	Parameters map[string]any `json:"parameters"`
	Priority   int            `json:"priority"`
	Rationale  string         `json:"rationale"`
}

type scanPlanEnvelope struct {
	ScanPlan []planStepJSON `json:"scan_plan"`
}

// ParseScanPlan extracts a scan_plan JSON array from raw, tolerating a
// surrounding markdown code fence, grounded on orchestrator.py's
// _parse_planner_response.
func ParseScanPlan(raw string) ([]WorkflowStep, error) {
	cleaned := strings.TrimSpace(stripCodeFence(raw))

	var envelope scanPlanEnvelope
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse scan plan envelope: %w", err)
	}
	if len(envelope.ScanPlan) == 0 {
		return nil, fmt.Errorf("scan plan envelope contained no steps")
	}

	steps := make([]WorkflowStep, 0, len(envelope.ScanPlan))
	for _, s := range envelope.ScanPlan {
		steps = append(steps, WorkflowStep{
			Tool:       s.Tool,
			Target:     s.Target,
			Parameters: s.Parameters,
			Priority:   s.Priority,
			Rationale:  s.Rationale,
		})
	}
	return steps, nil
}

// findingJSON is the wire shape of one findings entry.
type findingJSON struct {
	Title            string `json:"title"`
	Severity         string `json:"severity"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	AffectedResource string `json:"affected_resource"`
	Remediation      string `json:"remediation"`
}

type findingsEnvelope struct {
	Findings []findingJSON `json:"findings"`
}

// ParseFindings extracts a findings JSON array from raw, tolerating a
// surrounding markdown code fence, grounded on orchestrator.py's
// _extract_findings parsing of the LLM's finding-extraction response.
func ParseFindings(raw string) ([]Finding, error) {
	cleaned := strings.TrimSpace(stripCodeFence(raw))

	var envelope findingsEnvelope
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse findings envelope: %w", err)
	}

	out := make([]Finding, 0, len(envelope.Findings))
	for _, f := range envelope.Findings {
		out = append(out, Finding{
			Title:            f.Title,
			Severity:         f.Severity,
			Description:      f.Description,
			Category:         f.Category,
			AffectedResource: f.AffectedResource,
			Remediation:      f.Remediation,
		})
	}
	return out, nil
}

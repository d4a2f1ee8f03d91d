package llmclient

import (
	"context"
	"fmt"
)

// PlanNextSteps asks c for the next scanning steps given mode and the prior
// results summary, grounded on orchestrator.py's plan_active_scans, which
// calls self.llm_client.plan_next_steps(context, objective) rather than
// building the prompt inline — the Orchestrator is expected to hand the LLM
// Client a context string and an objective, not assemble chat messages
// itself.
func PlanNextSteps(ctx context.Context, c Client, mode, target, priorResultsSummary string) (*GenerateOutput, error) {
	if c == nil {
		return nil, fmt.Errorf("no LLM client configured")
	}
	objective := fmt.Sprintf("Plan %s scanning activities against %s based on reconnaissance findings", mode, target)
	system := "You are a penetration test planner. Given prior reconnaissance results, propose the next " +
		"scanning steps as JSON: {\"scan_plan\": [{\"tool\": \"...\", \"target\": \"...\", \"parameters\": {}, " +
		"\"priority\": 1, \"rationale\": \"...\"}]}. Respond with only the JSON object, optionally inside a " +
		"```json code fence."
	user := fmt.Sprintf("Objective: %s\n\nPrior results:\n%s", objective, priorResultsSummary)

	return c.Generate(ctx, GenerateInput{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
	})
}

// AnalyzeFindings asks c to extract structured findings from a tool's raw
// output, grounded on orchestrator.py's process_tool_output, which forwards
// successful adapter output to the LLM for finding extraction before
// recording it on the ScanResult.
func AnalyzeFindings(ctx context.Context, c Client, target, rawOutput string) (*GenerateOutput, error) {
	if c == nil {
		return nil, fmt.Errorf("no LLM client configured")
	}
	system := "You are a security findings extractor. Given raw scan tool output, identify concrete " +
		"findings as JSON: {\"findings\": [{\"title\": \"...\", \"severity\": \"info|low|medium|high|critical\", " +
		"\"description\": \"...\", \"evidence\": \"...\"}]}. Respond with only the JSON object, optionally " +
		"inside a ```json code fence. If there is nothing worth reporting, return an empty findings array."
	user := fmt.Sprintf("Target: %s\n\nRaw output:\n%s", target, rawOutput)

	return c.Generate(ctx, GenerateInput{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
	})
}

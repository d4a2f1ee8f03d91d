package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/caldera-labs/sentryagent/pkg/adapter"
	"github.com/caldera-labs/sentryagent/pkg/llmclient"
	"github.com/caldera-labs/sentryagent/pkg/plugin"
	"github.com/caldera-labs/sentryagent/pkg/policy"
)

// Orchestrator owns assets and results for one run: asset ingestion,
// passive-then-active phased scanning, result normalization, and report
// assembly, grounded on orchestrator.py's PenTestOrchestrator.
//
// Orchestrator never validates targets or enforces rate limits itself —
// every adapter execution routes through Manager.RunAdapter, the single
// policy chokepoint (see Open Question #2 in SPEC_FULL.md). add_asset's
// policy.Engine.ValidateAsset call is the one exception: it is asset
// registration, not adapter dispatch, and does not duplicate RunAdapter's
// gating.
type Orchestrator struct {
	manager   *plugin.Manager
	policy    *policy.Engine
	llm       llmclient.Client
	retrieval *llmclient.RetrievalStore

	mu      sync.Mutex
	assets  []policy.Asset
	results []ScanResult
	state   WorkflowState
	started time.Time
}

// resultDocCount caps how many past results the planner's context is built
// from, via retrieval rather than naive concatenation — a long-running scan
// against many assets would otherwise grow contextSummary without bound the
// same way executor.go's transcript used to.
const resultDocCount = 8

// New constructs an Orchestrator for one run.
func New(manager *plugin.Manager, policyEngine *policy.Engine, llm llmclient.Client) *Orchestrator {
	return &Orchestrator{
		manager:   manager,
		policy:    policyEngine,
		llm:       llm,
		retrieval: llmclient.NewRetrievalStore(),
		state:     WorkflowPending,
	}
}

// AddAsset validates asset via the policy engine and, if authorized, adds
// it to the run.
func (o *Orchestrator) AddAsset(a policy.Asset) error {
	if err := o.policy.ValidateAsset(a); err != nil {
		return fmt.Errorf("asset %q rejected: %w", a.Target, err)
	}
	o.mu.Lock()
	o.assets = append(o.assets, a)
	o.mu.Unlock()
	return nil
}

// Assets returns a copy of the assets registered so far.
func (o *Orchestrator) Assets() []policy.Asset {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]policy.Asset, len(o.assets))
	copy(out, o.assets)
	return out
}

// RunPassiveRecon runs every configured passive tool against every
// registered asset, continuing past individual-step failures, grounded on
// orchestrator.py's run_passive_recon.
func (o *Orchestrator) RunPassiveRecon(ctx context.Context) []ScanResult {
	o.setState(WorkflowRunning)

	var out []ScanResult
	for _, a := range o.Assets() {
		for _, tool := range passiveTools {
			result, ok := o.runStep(ctx, WorkflowStep{
				Tool:       tool,
				Target:     a.Target,
				Parameters: map[string]any{"target": a.Target},
				Rationale:  "passive recon",
			})
			if ok {
				out = append(out, *result)
			}
		}
	}

	o.mu.Lock()
	o.results = append(o.results, out...)
	o.mu.Unlock()
	for _, r := range out {
		o.indexResult(r)
	}
	o.setState(WorkflowCompleted)
	return out
}

// PlanActiveScans asks the LLM for a plan given prior scan results, falling
// back to DefaultScanPlan on any transport or parse failure, grounded on
// orchestrator.py's plan_active_scans.
func (o *Orchestrator) PlanActiveScans(ctx context.Context, mode ScanMode, target string) []WorkflowStep {
	summary := o.contextSummary(target)

	out, err := llmclient.PlanNextSteps(ctx, o.llm, string(mode), target, summary)
	if err != nil {
		slog.Warn("planner LLM call failed, falling back to default plan", "mode", mode, "error", err)
		return DefaultScanPlan(mode, target)
	}

	steps, err := ParseScanPlan(out.Text)
	if err != nil {
		slog.Warn("planner response unparseable, falling back to default plan", "mode", mode, "error", err)
		return DefaultScanPlan(mode, target)
	}
	return steps
}

// ExecuteScanStep runs step through the policy chokepoint, optionally
// gated by an ApprovalGate, grounded on orchestrator.py's
// execute_scan_step.
func (o *Orchestrator) ExecuteScanStep(ctx context.Context, step WorkflowStep, mode ScanMode, gate ApprovalGate) (*ScanResult, error) {
	if gate == nil {
		gate = AutoApprove{}
	}
	if !gate.Approve(step, mode) {
		return nil, fmt.Errorf("step %q against %q requires explicit approval", step.Tool, step.Target)
	}

	result, ok := o.runStep(ctx, step)
	if !ok {
		return nil, fmt.Errorf("step %q against %q produced no result", step.Tool, step.Target)
	}

	o.mu.Lock()
	o.results = append(o.results, *result)
	o.mu.Unlock()
	o.indexResult(*result)
	return result, nil
}

// indexResult adds a result to the retrieval store, grounded on spec.md
// §4.8's retrieval-augmentation contract ({doc_id, content, metadata}) —
// contextSummary retrieves the top few relevant documents from this store
// rather than concatenating every result this run has ever produced.
func (o *Orchestrator) indexResult(r ScanResult) {
	docID := fmt.Sprintf("%s:%s:%d", r.Tool, r.Target, r.StartedAt.UnixNano())
	content := fmt.Sprintf("%s against %s: %s (%d findings)\n%s", r.Tool, r.Target, r.Status, len(r.Findings), r.RawOutput)
	o.retrieval.Add(llmclient.Document{
		DocID:   docID,
		Content: content,
		Metadata: map[string]any{
			"tool":   r.Tool,
			"target": r.Target,
			"status": r.Status,
		},
	})
}

// runStep dispatches the step through the plugin Manager, which performs
// every policy check, and normalizes the AdapterResult into a ScanResult via
// processToolOutput. The bool is false when the step produced nothing worth
// recording: a policy block, a timeout, an error, or an unrecognized status.
func (o *Orchestrator) runStep(ctx context.Context, step WorkflowStep) (*ScanResult, bool) {
	params := step.Parameters
	if params == nil {
		params = map[string]any{}
	}
	if _, ok := params["target"]; !ok {
		params["target"] = step.Target
	}

	start := time.Now()
	result := o.manager.RunAdapter(ctx, step.Tool, params)
	return o.processToolOutput(step, result, start)
}

// processToolOutput normalizes an adapter.Result into a ScanResult,
// grounded on orchestrator.py's process_tool_output.
func (o *Orchestrator) processToolOutput(step WorkflowStep, result *adapter.Result, started time.Time) (*ScanResult, bool) {
	sr := &ScanResult{
		Tool:      step.Tool,
		Target:    step.Target,
		RawOutput: result.RawOutput,
		StartedAt: started,
		Duration:  time.Since(started),
	}

	switch result.Status {
	case adapter.ResultSuccess, adapter.ResultPartial:
		sr.Status = string(result.Status)
		if findings, err := o.extractFindings(step.Target, result); err == nil {
			sr.Findings = findings
		}
		return sr, true

	case adapter.ResultError, adapter.ResultTimeout:
		if strings.HasPrefix(result.ErrorMessage, "BLOCKED: ") {
			slog.Info("scan step blocked by policy", "tool", step.Tool, "target", step.Target, "reason", result.ErrorMessage)
			return nil, false
		}
		slog.Warn("scan step did not complete, no result recorded", "tool", step.Tool, "target", step.Target, "status", result.Status, "error", result.ErrorMessage)
		return nil, false

	case adapter.ResultFailure:
		sr.Status = string(result.Status)
		sr.ErrorMessage = result.ErrorMessage
		return sr, true

	default:
		slog.Warn("scan step returned unrecognized status, dropping", "tool", step.Tool, "status", result.Status)
		return nil, false
	}
}

// extractFindings optionally asks the LLM to extract structured findings
// from a successful adapter result's output.
func (o *Orchestrator) extractFindings(target string, result *adapter.Result) ([]Finding, error) {
	if o.llm == nil || result.RawOutput == "" {
		return nil, nil
	}

	out, err := llmclient.AnalyzeFindings(context.Background(), o.llm, target, result.RawOutput)
	if err != nil {
		return nil, err
	}
	return ParseFindings(out.Text)
}

// contextSummary renders the results most relevant to target as a compact
// string for the planner prompt, using the retrieval store's top-k ranking
// instead of concatenating every result this run has accumulated so far.
func (o *Orchestrator) contextSummary(target string) string {
	if o.retrieval.Len() == 0 {
		return "(no prior results)"
	}

	docs := o.retrieval.TopK(target, resultDocCount)
	if len(docs) == 0 {
		return "(no prior results relevant to this target)"
	}

	summary := ""
	for _, d := range docs {
		summary += "- " + d.Content + "\n"
	}
	return summary
}

// Report is the assembled output of GenerateReport.
type Report struct {
	Summary    ReportSummary
	Assets     []policy.Asset
	Results    []ScanResult
	Findings   []Finding
	Violations []policy.PolicyViolation
	GlobalRate float64
}

// ReportSummary carries run-level counts and timing.
type ReportSummary struct {
	State          WorkflowState
	AssetCount     int
	StepCount      int
	FindingCount   int
	ViolationCount int
	Duration       time.Duration
}

// GenerateReport assembles the full run report, grounded on
// orchestrator.py's generate_report.
func (o *Orchestrator) GenerateReport() *Report {
	o.mu.Lock()
	defer o.mu.Unlock()

	var allFindings []Finding
	for _, r := range o.results {
		allFindings = append(allFindings, r.Findings...)
	}

	violations := o.policy.ViolationReport()
	globalRate, _ := o.policy.CurrentRates("")

	duration := time.Duration(0)
	if !o.started.IsZero() {
		duration = time.Since(o.started)
	}

	return &Report{
		Summary: ReportSummary{
			State:          o.state,
			AssetCount:     len(o.assets),
			StepCount:      len(o.results),
			FindingCount:   len(allFindings),
			ViolationCount: len(violations),
			Duration:       duration,
		},
		Assets:     append([]policy.Asset(nil), o.assets...),
		Results:    append([]ScanResult(nil), o.results...),
		Findings:   allFindings,
		Violations: violations,
		GlobalRate: globalRate,
	}
}

// Cleanup unloads every loaded adapter and clears in-run state, grounded on
// orchestrator.py's cleanup. Idempotent: a second call finds nothing left to
// do.
func (o *Orchestrator) Cleanup() {
	o.manager.Cleanup()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.assets = nil
	o.results = nil
	o.retrieval = llmclient.NewRetrievalStore()
	o.state = WorkflowPending
}

func (o *Orchestrator) setState(s WorkflowState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started.IsZero() {
		o.started = time.Now()
	}
	o.state = s
}

// State returns the orchestrator's current workflow state.
func (o *Orchestrator) State() WorkflowState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

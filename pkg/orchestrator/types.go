// Package orchestrator implements asset ingestion, phased scanning, result
// normalization, and report assembly, grounded on orchestrator.py's
// PenTestOrchestrator.
package orchestrator

import "time"

// WorkflowState is the small state machine the orchestrator's run moves
// through, grounded on orchestrator.py's WorkflowState enum.
type WorkflowState string

const (
	WorkflowPending   WorkflowState = "pending"
	WorkflowRunning   WorkflowState = "running"
	WorkflowPaused    WorkflowState = "paused"
	WorkflowCompleted WorkflowState = "completed"
	WorkflowFailed    WorkflowState = "failed"
	WorkflowCancelled WorkflowState = "cancelled"
)

// ScanMode selects which default tool set and exploit posture a run uses,
// grounded on orchestrator.py's ScanMode enum.
type ScanMode string

const (
	ModePassive ScanMode = "passive"
	ModeActive  ScanMode = "active"
	ModeLab     ScanMode = "lab"
)

// WorkflowStep is one planned unit of work: a tool, its target, and its
// parameters, grounded on orchestrator.py's WorkflowStep dataclass.
type WorkflowStep struct {
	Tool       string
	Target     string
	Parameters map[string]any
	Priority   int
	Rationale  string
}

// Finding is a normalized security observation tied to an asset, grounded on
// orchestrator.py's Finding dataclass.
type Finding struct {
	Title            string
	Severity         string
	Description      string
	Category         string
	AffectedResource string
	Remediation      string
}

// ScanResult is the normalized outcome of one executed WorkflowStep,
// grounded on orchestrator.py's process_tool_output's constructed
// ScanResult.
type ScanResult struct {
	Tool         string
	Target       string
	Status       string
	RawOutput    string
	EvidencePath string
	Findings     []Finding
	ErrorMessage string
	StartedAt    time.Time
	Duration     time.Duration
}

// ReportFormat enumerates the supported report renderings.
type ReportFormat string

const (
	FormatJSON     ReportFormat = "json"
	FormatMarkdown ReportFormat = "markdown"
	FormatHTML     ReportFormat = "html"
	FormatCSV      ReportFormat = "csv"
)

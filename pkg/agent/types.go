// Package agent implements the tool-calling Agent Executor: a bounded
// turn-budget loop that drives an LLM through a strict JSON action
// protocol, grounded on executor.py's AgentExecutor.
package agent

import "time"

// Role is a conversation message's speaker role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one turn of the agent's running transcript.
type ConversationMessage struct {
	Role    Role
	Content string
}

// InputSpec describes one named input an AgentDefinition requires, grounded
// on definitions.py's AgentInput.
type InputSpec struct {
	Description string
	Required    bool
}

// OutputSpec describes the shape complete_task must be called with,
// grounded on definitions.py's AgentOutput.
type OutputSpec struct {
	OutputName  string
	Description string
}

// Definition is the static configuration of one agent: its prompt, the
// tools it may call, and its input/output contract — grounded on
// definitions.py's AgentDefinition.
type Definition struct {
	Name                 string
	Description          string
	SystemPrompt         string
	InitialQueryTemplate string
	Tools                []string
	Inputs               map[string]InputSpec
	Output               *OutputSpec
	MaxTurns             int
}

// PlannerSubAgentName is the sub-agent name that receives the parent
// registry's tool catalogue as an extra string input, grounded on
// subagent_tool.py's special case for "planner_agent" — see SPEC_FULL.md §2
// item 6.
const PlannerSubAgentName = "planner_agent"

// ExecutorToolsInputKey is the synthetic input key the planner sub-agent
// receives its parent's tool catalogue under.
const ExecutorToolsInputKey = "executor_tools"

// defaultMaxTurns bounds the agent loop when a Definition does not specify
// MaxTurns, grounded on executor.py's max_turns=15 default.
const defaultMaxTurns = 15

// ActivityEvent is emitted to an Executor's activity hook at each notable
// step of the loop, grounded on executor.py's _emit.
type ActivityEvent struct {
	Kind      string
	Detail    string
	Timestamp time.Time
}

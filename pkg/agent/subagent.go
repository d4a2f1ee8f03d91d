package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/caldera-labs/sentryagent/pkg/llmclient"
	"github.com/caldera-labs/sentryagent/pkg/toolreg"
)

// SubAgentTool exposes a full Definition as a single toolreg.Tool, letting
// an outer agent delegate a bounded sub-task to an inner agent loop,
// grounded on subagent_tool.py's SubAgentTool. Each call constructs a fresh
// Executor scoped to only the tools the sub-agent's Definition names, so a
// sub-agent never gains access to tools its parent did not grant it.
type SubAgentTool struct {
	def        Definition
	llm        llmclient.Client
	parent     *toolreg.Registry
	onActivity ActivityFunc
}

// NewSubAgentTool builds a SubAgentTool for def. parent is the calling
// agent's full tool registry; def.Tools is used to carve out the scoped
// sub-registry the sub-agent actually runs against.
func NewSubAgentTool(def Definition, llm llmclient.Client, parent *toolreg.Registry, onActivity ActivityFunc) *SubAgentTool {
	return &SubAgentTool{def: def, llm: llm, parent: parent, onActivity: onActivity}
}

func (t *SubAgentTool) Name() string        { return t.def.Name }
func (t *SubAgentTool) Description() string { return t.def.Description }

func (t *SubAgentTool) ParamsSchema() map[string]any {
	props := make(map[string]any, len(t.def.Inputs))
	var required []string
	for name, spec := range t.def.Inputs {
		props[name] = map[string]any{"type": "string", "description": spec.Description}
		if spec.Required {
			required = append(required, name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Execute runs a fresh Executor for the sub-agent's Definition, scoped to
// its own tools, and returns its complete_task output rendered as a string
// observation for the parent agent's transcript.
func (t *SubAgentTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	scoped := t.parent.Scoped(t.def.Tools)

	inputs := make(map[string]string, len(params)+1)
	for k, v := range params {
		if s, ok := v.(string); ok {
			inputs[k] = s
		} else {
			inputs[k] = fmt.Sprintf("%v", v)
		}
	}

	// The planner sub-agent is special-cased to additionally see the
	// parent's full tool catalogue as a formatted string input, so it can
	// plan steps in terms of tools it does not itself call — grounded on
	// subagent_tool.py's handling of PLANNER_SUB_AGENT_NAME, see SPEC_FULL.md
	// §2 item 6.
	if t.def.Name == PlannerSubAgentName {
		inputs[ExecutorToolsInputKey] = formatToolCatalogue(t.parent)
	}

	exec := New(t.def, t.llm, scoped, t.onActivity)
	result, err := exec.Run(ctx, inputs)
	if err != nil {
		return "", fmt.Errorf("sub-agent %q failed: %w", t.def.Name, err)
	}

	return formatSubAgentOutput(result.Output), nil
}

func formatToolCatalogue(reg *toolreg.Registry) string {
	var b strings.Builder
	for _, tool := range reg.List() {
		fmt.Fprintf(&b, "- %s: %s\n", tool.Name(), tool.Description())
	}
	return b.String()
}

func formatSubAgentOutput(output map[string]any) string {
	var b strings.Builder
	for k, v := range output {
		fmt.Fprintf(&b, "%s: %v\n", k, v)
	}
	return b.String()
}

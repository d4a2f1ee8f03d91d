package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/caldera-labs/sentryagent/pkg/adapter"
	"github.com/caldera-labs/sentryagent/pkg/toolreg"
)

// AdapterTool exposes one adapter to the agent loop as a toolreg.Tool,
// grounded on tools/adapter_wrapper.py's AdapterToolWrapper: every call is
// routed through Manager.RunAdapter (the single policy chokepoint), and the
// result is flattened into the string observation the Agent Executor feeds
// back to the model.
type AdapterTool struct {
	manager *Manager
	name    string
	info    adapter.Info
}

// NewAdapterTool wraps the named adapter (which must already be registered
// with manager) as a toolreg.Tool.
func NewAdapterTool(manager *Manager, name string, info adapter.Info) *AdapterTool {
	return &AdapterTool{manager: manager, name: name, info: info}
}

func (t *AdapterTool) Name() string        { return t.name }
func (t *AdapterTool) Description() string { return t.info.Description }

func (t *AdapterTool) ParamsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target": map[string]any{"type": "string", "description": "host, domain, or URL to run this tool against"},
		},
		"required": []string{"target"},
	}
}

// Execute runs the wrapped adapter via the policy chokepoint and renders the
// result as a string observation, mirroring AdapterToolWrapper.execute's
// success/error string rendering.
func (t *AdapterTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	result := t.manager.RunAdapter(ctx, t.name, params)

	switch result.Status {
	case adapter.ResultError:
		if strings.HasPrefix(result.ErrorMessage, "BLOCKED: ") {
			return "", fmt.Errorf("%s", result.ErrorMessage)
		}
		return fmt.Sprintf("Error: %s", result.ErrorMessage), nil
	default:
		data, err := json.Marshal(result.Data)
		if err != nil {
			return result.RawOutput, nil
		}
		return string(data), nil
	}
}

// RegisterAll wraps every loaded adapter in manager as a tool and registers
// each into reg.
func RegisterAll(manager *Manager, reg *toolreg.Registry, infos map[string]adapter.Info) {
	for name, info := range infos {
		reg.Register(NewAdapterTool(manager, name, info))
	}
}

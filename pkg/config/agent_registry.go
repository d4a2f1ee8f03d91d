package config

import (
	"fmt"
	"sync"

	"github.com/caldera-labs/sentryagent/pkg/agent"
)

// AgentRegistry stores agent definitions in memory with thread-safe access,
// grounded on tarsy's pkg/config/agent.go AgentRegistry.
type AgentRegistry struct {
	mu   sync.RWMutex
	defs map[string]agent.Definition
}

// NewAgentRegistry builds a registry from configured agent entries,
// translating each AgentDefConfig into an agent.Definition.
func NewAgentRegistry(configs map[string]AgentDefConfig) *AgentRegistry {
	defs := make(map[string]agent.Definition, len(configs))
	for name, c := range configs {
		inputs := make(map[string]agent.InputSpec, len(c.Inputs))
		for inputName, in := range c.Inputs {
			inputs[inputName] = agent.InputSpec{Description: in.Description, Required: in.Required}
		}

		var output *agent.OutputSpec
		if c.Output != nil {
			output = &agent.OutputSpec{OutputName: c.Output.OutputName, Description: c.Output.Description}
		}

		defs[name] = agent.Definition{
			Name:                 name,
			Description:          c.Description,
			SystemPrompt:         c.SystemPrompt,
			InitialQueryTemplate: c.InitialQueryTemplate,
			Tools:                c.Tools,
			Inputs:               inputs,
			Output:               output,
			MaxTurns:             c.MaxTurns,
		}
	}
	return &AgentRegistry{defs: defs}
}

// Get retrieves an agent.Definition by name.
func (r *AgentRegistry) Get(name string) (agent.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	if !ok {
		return agent.Definition{}, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return d, nil
}

// Names returns every configured agent's name.
func (r *AgentRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for name := range r.defs {
		out = append(out, name)
	}
	return out
}

// Len reports how many agent definitions are registered.
func (r *AgentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

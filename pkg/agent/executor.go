package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caldera-labs/sentryagent/pkg/llmclient"
	"github.com/caldera-labs/sentryagent/pkg/toolreg"
)

// maxObservationChars truncates tool output fed back into the transcript,
// grounded on executor.py's 2000-character observation cap — without it a
// single verbose nmap/gobuster run can blow the context window.
const maxObservationChars = 2000

// maxTranscriptMessages bounds how many ConversationMessages Run accumulates
// before evicting, grounded on spec.md §9's call for "a bounded deque with
// explicit eviction policy (drop oldest non-system)... never rely on
// implicit string formatting" — executor.py's current_history list itself
// grows without bound for the lifetime of one run.
const maxTranscriptMessages = 40

// appendBounded appends msg to transcript, then, once the cap is exceeded,
// evicts the oldest non-system message — the system prompt at index 0 is
// never dropped, since it carries the tool catalogue and format contract the
// model needs every turn.
func appendBounded(transcript []ConversationMessage, msg ConversationMessage) []ConversationMessage {
	transcript = append(transcript, msg)
	for len(transcript) > maxTranscriptMessages {
		evictAt := -1
		for i, m := range transcript {
			if m.Role != RoleSystem {
				evictAt = i
				break
			}
		}
		if evictAt == -1 {
			break
		}
		transcript = append(transcript[:evictAt], transcript[evictAt+1:]...)
	}
	return transcript
}

// correctiveMalformedJSON is returned to the model verbatim when its reply
// contains no parseable action. Open Question #3 decided this text is a
// tested, load-bearing contract rather than an implementation detail, so it
// must not be reworded casually — grounded on executor.py's stern
// corrective message for malformed output.
const correctiveMalformedJSON = `Your last response did not contain a valid JSON action. ` +
	`CRITICAL: Do NOT apologize or explain. Respond with ONLY a single JSON object ` +
	`of the form {"tool": "<tool_name>", "parameters": {...}, "rationale": "..."}. ` +
	`If you are finished, call the complete_task tool instead.`

// correctiveUnknownTool is returned when the model names a tool that is not
// in its registry.
func correctiveUnknownTool(name string, available []string) string {
	return fmt.Sprintf(`Tool %q is not available. CRITICAL: Do NOT apologize or explain. `+
		`Choose only from these tools and respond with a single JSON action: %s`,
		name, strings.Join(available, ", "))
}

// correctiveMissingOutput is returned when complete_task is called without
// the Definition's required output key present in parameters.
func correctiveMissingOutput(key string) string {
	return fmt.Sprintf(`complete_task was called without the required %q parameter. `+
		`CRITICAL: Do NOT apologize or explain. Call complete_task again, including %q `+
		`in parameters.`, key, key)
}

// completeTaskTool is the sentinel tool name the model calls to end the
// loop, grounded on executor.py's "complete_task" special case.
const completeTaskTool = "complete_task"

// ActivityFunc receives each ActivityEvent the Executor emits, letting a
// caller stream progress to a UI or log sink without coupling the loop to
// any particular transport.
type ActivityFunc func(ActivityEvent)

// Result is the outcome of one Run call.
type Result struct {
	Output      map[string]any
	Transcript  []ConversationMessage
	TurnsUsed   int
	InputTokens int
	OutputTotal int
}

// ErrTurnBudgetExhausted is returned when the loop runs MaxTurns iterations
// without the model calling complete_task.
type ErrTurnBudgetExhausted struct {
	AgentName string
	MaxTurns  int
}

func (e *ErrTurnBudgetExhausted) Error() string {
	return fmt.Sprintf("agent %q did not complete within %d turns", e.AgentName, e.MaxTurns)
}

// Executor drives one Definition through the LLM in a bounded loop,
// grounded on executor.py's AgentExecutor.run.
type Executor struct {
	def        Definition
	llm        llmclient.Client
	tools      *toolreg.Registry
	onActivity ActivityFunc
}

// New constructs an Executor for def, resolving its tools against reg.
func New(def Definition, llm llmclient.Client, reg *toolreg.Registry, onActivity ActivityFunc) *Executor {
	if def.MaxTurns <= 0 {
		def.MaxTurns = defaultMaxTurns
	}
	if onActivity == nil {
		onActivity = func(ActivityEvent) {}
	}
	return &Executor{def: def, llm: llm, tools: reg, onActivity: onActivity}
}

func (e *Executor) emit(kind, detail string) {
	e.onActivity(ActivityEvent{Kind: kind, Detail: detail, Timestamp: time.Now()})
}

// Run executes the agent loop against the given inputs, returning the
// parameters passed to complete_task as Output once the model finishes.
func (e *Executor) Run(ctx context.Context, inputs map[string]string) (*Result, error) {
	for name, spec := range e.def.Inputs {
		if spec.Required {
			if _, ok := inputs[name]; !ok {
				return nil, fmt.Errorf("missing required input %q for agent %q", name, e.def.Name)
			}
		}
	}

	transcript := []ConversationMessage{
		{Role: RoleSystem, Content: e.buildSystemPrompt()},
		{Role: RoleUser, Content: e.buildInitialQuery(inputs)},
	}

	var inputTokens, outputTokens int

	for turn := 1; turn <= e.def.MaxTurns; turn++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		e.emit("turn_start", fmt.Sprintf("turn %d/%d", turn, e.def.MaxTurns))

		out, err := e.llm.Generate(ctx, llmclient.GenerateInput{Messages: toLLMMessages(transcript)})
		if err != nil {
			return nil, fmt.Errorf("agent %q turn %d: %w", e.def.Name, turn, err)
		}
		inputTokens += out.InputTokens
		outputTokens += out.OutputTokens

		transcript = appendBounded(transcript, ConversationMessage{Role: RoleAssistant, Content: out.Text})

		action, parseErr := ParseAction(out.Text)
		if parseErr != nil {
			e.emit("malformed_action", parseErr.Error())
			transcript = appendBounded(transcript, ConversationMessage{Role: RoleUser, Content: correctiveMalformedJSON})
			continue
		}

		if isNoneLike(action.Tool) {
			e.emit("malformed_action", "empty tool name")
			transcript = appendBounded(transcript, ConversationMessage{Role: RoleUser, Content: correctiveMalformedJSON})
			continue
		}

		if action.Tool == completeTaskTool {
			if e.def.Output != nil {
				if _, ok := action.Parameters[e.def.Output.OutputName]; !ok {
					e.emit("malformed_action", "complete_task missing required output")
					transcript = appendBounded(transcript, ConversationMessage{
						Role:    RoleUser,
						Content: correctiveMissingOutput(e.def.Output.OutputName),
					})
					continue
				}
			}
			e.emit("complete_task", action.Rationale)
			return &Result{
				Output:      action.Parameters,
				Transcript:  transcript,
				TurnsUsed:   turn,
				InputTokens: inputTokens,
				OutputTotal: outputTokens,
			}, nil
		}

		if !e.tools.HasTool(action.Tool) {
			e.emit("unknown_tool", action.Tool)
			transcript = appendBounded(transcript, ConversationMessage{
				Role:    RoleUser,
				Content: correctiveUnknownTool(action.Tool, e.tools.Names()),
			})
			continue
		}

		tool, err := e.tools.GetTool(action.Tool)
		if err != nil {
			return nil, err
		}

		e.emit("tool_call", fmt.Sprintf("%s: %s", action.Tool, action.Rationale))
		observation, toolErr := tool.Execute(ctx, action.Parameters)
		if toolErr != nil {
			observation = fmt.Sprintf("Error: %s", toolErr.Error())
		}
		observation = truncateObservation(observation)

		transcript = appendBounded(transcript, ConversationMessage{
			Role:    RoleUser,
			Content: fmt.Sprintf("Observation from %s:\n%s", action.Tool, observation),
		})
	}

	return nil, &ErrTurnBudgetExhausted{AgentName: e.def.Name, MaxTurns: e.def.MaxTurns}
}

func truncateObservation(s string) string {
	if len(s) <= maxObservationChars {
		return s
	}
	return s[:maxObservationChars] + fmt.Sprintf("\n...[truncated, %d bytes total]", len(s))
}

func toLLMMessages(transcript []ConversationMessage) []llmclient.Message {
	out := make([]llmclient.Message, 0, len(transcript))
	for _, m := range transcript {
		out = append(out, llmclient.Message{Role: llmclient.Role(m.Role), Content: m.Content})
	}
	return out
}

// buildSystemPrompt assembles the agent's fixed system prompt plus the tool
// catalogue and JSON format contract, grounded on executor.py's
// _build_system_prompt which appends tool descriptions and a worked example
// after the agent-specific prompt text.
func (e *Executor) buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString(e.def.SystemPrompt)
	b.WriteString("\n\nAvailable tools:\n")
	for _, t := range e.tools.List() {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	b.WriteString("\nRespond with exactly one JSON object per turn, of the form:\n")
	b.WriteString(`{"tool": "<tool_name>", "parameters": {...}, "rationale": "why this tool, now"}`)
	b.WriteString("\n\nWhen you have everything you need, call complete_task instead of a tool, ")
	b.WriteString("passing your final answer in parameters.\n")
	b.WriteString("Do not include any text outside the JSON object.\n")
	return b.String()
}

// buildInitialQuery renders InitialQueryTemplate against inputs, replacing
// each {input_name} placeholder, grounded on definitions.py's simple
// str.format-style substitution.
func (e *Executor) buildInitialQuery(inputs map[string]string) string {
	q := e.def.InitialQueryTemplate
	for name, value := range inputs {
		q = strings.ReplaceAll(q, "{"+name+"}", value)
	}
	return q
}

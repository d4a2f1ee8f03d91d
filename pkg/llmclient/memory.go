package llmclient

import "sync"

// ConversationMemory is a bounded ring of recent messages with a configured
// maximum, grounded on spec.md §4.8's LLM Client responsibility and §9's
// "bounded deque with explicit eviction policy (drop oldest non-system)" —
// the Agent Executor keeps its own transcript (see pkg/agent's
// appendBounded), so this type exists for callers that talk to a Client
// directly without going through an Executor, e.g. a sub-agent tool holding
// a running conversation across several Generate calls.
type ConversationMemory struct {
	mu       sync.Mutex
	max      int
	messages []Message
}

// NewConversationMemory constructs a ConversationMemory capped at max
// messages. A non-positive max disables eviction.
func NewConversationMemory(max int) *ConversationMemory {
	return &ConversationMemory{max: max}
}

// Append adds msg, then evicts the oldest non-system message until the
// memory is back within its cap. The first system message is never evicted.
func (m *ConversationMemory) Append(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)
	if m.max <= 0 {
		return
	}
	for len(m.messages) > m.max {
		evictAt := -1
		for i, existing := range m.messages {
			if existing.Role != RoleSystem {
				evictAt = i
				break
			}
		}
		if evictAt == -1 {
			break
		}
		m.messages = append(m.messages[:evictAt], m.messages[evictAt+1:]...)
	}
}

// GetContext returns a snapshot of the messages currently held, oldest
// first, matching spec.md §4.8's get_context responsibility.
func (m *ConversationMemory) GetContext() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len reports how many messages are currently held.
func (m *ConversationMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

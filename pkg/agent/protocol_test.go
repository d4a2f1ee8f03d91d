package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction_SimpleObject(t *testing.T) {
	action, err := ParseAction(`{"tool": "nmap", "parameters": {"target": "10.0.0.1"}, "rationale": "port scan"}`)
	require.NoError(t, err)
	assert.Equal(t, "nmap", action.Tool)
	assert.Equal(t, "10.0.0.1", action.Parameters["target"])
	assert.Equal(t, "port scan", action.Rationale)
}

func TestParseAction_StripsThinkBlock(t *testing.T) {
	raw := `<think>let me consider my options here</think>{"tool": "whois", "parameters": {}, "rationale": "lookup"}`
	action, err := ParseAction(raw)
	require.NoError(t, err)
	assert.Equal(t, "whois", action.Tool)
}

func TestParseAction_SurroundingProse(t *testing.T) {
	raw := "Sure thing, here's my action:\n" +
		`{"tool": "dns_lookup", "parameters": {"target": "example.com"}, "rationale": "resolve"}` +
		"\nLet me know if you need anything else."
	action, err := ParseAction(raw)
	require.NoError(t, err)
	assert.Equal(t, "dns_lookup", action.Tool)
}

func TestParseAction_BracesInStringValueDoNotUnbalance(t *testing.T) {
	raw := `{"tool": "ssl_check", "parameters": {"note": "looks like {nested} braces"}, "rationale": "test"}`
	action, err := ParseAction(raw)
	require.NoError(t, err)
	assert.Equal(t, "looks like {nested} braces", action.Parameters["note"])
}

func TestParseAction_NoJSON(t *testing.T) {
	_, err := ParseAction("I am not sure what to do next.")
	require.Error(t, err)
	var noJSON *ErrNoJSONFound
	assert.ErrorAs(t, err, &noJSON)
}

func TestParseAction_MalformedJSON(t *testing.T) {
	_, err := ParseAction(`{"tool": "nmap", "parameters": {`)
	require.Error(t, err)
}

func TestIsNoneLike(t *testing.T) {
	assert.True(t, isNoneLike(""))
	assert.True(t, isNoneLike("none"))
	assert.True(t, isNoneLike("NULL"))
	assert.True(t, isNoneLike("  "))
	assert.False(t, isNoneLike("nmap"))
}

func TestParseAction_CompleteTask(t *testing.T) {
	action, err := ParseAction(`{"tool": "complete_task", "parameters": {"report": "done"}, "rationale": "finished"}`)
	require.NoError(t, err)
	assert.Equal(t, completeTaskTool, action.Tool)
	assert.Equal(t, "done", action.Parameters["report"])
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sentryagent.yaml"), []byte(content), 0o644))
}

func TestInitialize_LoadsAgentsAndAdapters(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
system:
  lab_mode: true
  llm:
    base_url: http://localhost:11434/v1
    model: test-model
agents:
  recon_agent:
    description: "passive recon"
    system_prompt: "You are a recon agent."
    initial_query_template: "Investigate {target}."
    tools: ["whois", "dns_lookup"]
    inputs:
      target:
        description: "target host"
        required: true
    output:
      output_name: summary
      description: "recon summary"
    max_turns: 10
adapters:
  nmap:
    timeout: 5m
    rate_limit_rpm: 10
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, cfg.System.LabMode)
	assert.Equal(t, "test-model", cfg.System.LLM.Model)
	assert.Equal(t, 1, cfg.AgentRegistry.Len())

	def, err := cfg.AgentRegistry.Get("recon_agent")
	require.NoError(t, err)
	assert.Equal(t, "summary", def.Output.OutputName)
	assert.ElementsMatch(t, []string{"whois", "dns_lookup"}, def.Tools)

	nmapCfg, ok := cfg.Adapters["nmap"]
	require.True(t, ok)
	assert.Equal(t, 10, nmapCfg.RateLimitRPM)
	assert.Equal(t, 3, nmapCfg.Retry.MaxAttempts) // default retry merged in
}

func TestInitialize_MissingSystemPromptFailsValidation(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
agents:
  broken_agent:
    description: "missing prompt"
`)
	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
}

func TestInitialize_MissingFileReturnsLoadError(t *testing.T) {
	dir := t.TempDir()
	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestExpandEnv_ExpandsVariables(t *testing.T) {
	t.Setenv("SENTRYAGENT_TEST_VAR", "expanded-value")
	out := ExpandEnv([]byte("key: ${SENTRYAGENT_TEST_VAR}"))
	assert.Contains(t, string(out), "expanded-value")
}

func TestResolveAPIKey_ReadsEnv(t *testing.T) {
	t.Setenv("SENTRYAGENT_TEST_KEY", "secret123")
	assert.Equal(t, "secret123", ResolveAPIKey("SENTRYAGENT_TEST_KEY"))
	assert.Equal(t, "", ResolveAPIKey(""))
}

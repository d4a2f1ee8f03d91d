// Package config loads and validates the YAML configuration that drives
// agent definitions, adapter settings, and system-wide LLM/evidence
// settings, grounded on tarsy's pkg/config/loader.go and pkg/config/agent.go.
package config

import "time"

// AgentInputConfig describes one named input an agent definition requires,
// grounded on tarsy's definitions.py AgentInput (re-homed here as YAML
// config rather than a Python dataclass literal).
type AgentInputConfig struct {
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// AgentOutputConfig describes the shape complete_task must be called with.
type AgentOutputConfig struct {
	OutputName  string `yaml:"output_name"`
	Description string `yaml:"description"`
}

// AgentDefConfig is one agent's YAML configuration entry.
type AgentDefConfig struct {
	Description          string                      `yaml:"description"`
	SystemPrompt         string                      `yaml:"system_prompt"`
	InitialQueryTemplate string                      `yaml:"initial_query_template"`
	Tools                []string                    `yaml:"tools"`
	Inputs               map[string]AgentInputConfig `yaml:"inputs"`
	Output               *AgentOutputConfig          `yaml:"output"`
	MaxTurns             int                         `yaml:"max_turns"`
}

// RetryConfig is the single retry-policy shape every network-backed
// adapter consumes, grounded on the Design Notes' "Retries with
// Retry-After" guidance: one policy object, not ad-hoc per-adapter loops.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	BaseDelay       time.Duration `yaml:"base_delay"`
	Factor          float64       `yaml:"factor"`
	HonorRetryAfter bool          `yaml:"honor_retry_after"`
}

// DefaultRetryConfig returns the baseline retry policy applied when an
// adapter config omits one.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, Factor: 2.0, HonorRetryAfter: true}
}

// AdapterConfig is one adapter's uniform configuration shape, grounded on
// spec.md §6's "Adapter configuration" external interface: timeout,
// retry/backoff, per-service rate limit, optional base URL/credentials, and
// adapter-specific extras.
type AdapterConfig struct {
	Timeout      time.Duration  `yaml:"timeout"`
	Retry        *RetryConfig   `yaml:"retry"`
	RateLimitRPM int            `yaml:"rate_limit_rpm"`
	BaseURL      string         `yaml:"base_url"`
	APIKeyEnv    string         `yaml:"api_key_env"`
	Extra        map[string]any `yaml:"extra"`
}

// LLMConfig configures the system's llmclient.HTTPClient.
type LLMConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// SystemConfig groups system-wide settings that do not belong to a single
// agent or adapter, grounded on tarsy's SystemYAMLConfig grouping pattern.
type SystemConfig struct {
	LLM             LLMConfig `yaml:"llm"`
	LabMode         bool      `yaml:"lab_mode"`
	EvidenceDir     string    `yaml:"evidence_dir"`
	DefaultMaxTurns int       `yaml:"default_max_turns"`
}

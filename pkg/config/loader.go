package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// sentryagentYAML represents the complete sentryagent.yaml file structure,
// grounded on tarsy's TarsyYAMLConfig grouping of agents/system settings in
// one root document.
type sentryagentYAML struct {
	System   *SystemConfig             `yaml:"system"`
	Agents   map[string]AgentDefConfig `yaml:"agents"`
	Adapters map[string]AdapterConfig  `yaml:"adapters"`
}

// Config is the fully loaded, validated, ready-to-use configuration.
type Config struct {
	configDir     string
	System        SystemConfig
	AgentRegistry *AgentRegistry
	Adapters      map[string]AdapterConfig
}

// Initialize loads, validates, and returns ready-to-use configuration —
// the primary entry point, grounded on tarsy's pkg/config/loader.go
// Initialize.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized", "agents", cfg.AgentRegistry.Len(), "adapters", len(cfg.Adapters))
	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	var doc sentryagentYAML
	doc.Agents = make(map[string]AgentDefConfig)
	doc.Adapters = make(map[string]AdapterConfig)

	if err := loadYAML(configDir, "sentryagent.yaml", &doc); err != nil {
		return nil, NewLoadError("sentryagent.yaml", err)
	}

	system := SystemConfig{}
	if doc.System != nil {
		system = *doc.System
	}
	if system.DefaultMaxTurns == 0 {
		system.DefaultMaxTurns = 15
	}
	if system.EvidenceDir == "" {
		system.EvidenceDir = "evidence"
	}

	defaultRetry := DefaultRetryConfig()
	for name, a := range doc.Adapters {
		if a.Timeout == 0 {
			a.Timeout = 30 * time.Second
		}
		retry := defaultRetry
		if a.Retry != nil {
			if err := mergo.Merge(&retry, *a.Retry, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("failed to merge retry config for adapter %q: %w", name, err)
			}
		}
		a.Retry = &retry
		doc.Adapters[name] = a
	}

	return &Config{
		configDir:     configDir,
		System:        system,
		AgentRegistry: NewAgentRegistry(doc.Agents),
		Adapters:      doc.Adapters,
	}, nil
}

func loadYAML(configDir, filename string, target any) error {
	path := filepath.Join(configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

func validate(cfg *Config) error {
	for _, name := range cfg.AgentRegistry.Names() {
		def, _ := cfg.AgentRegistry.Get(name)
		if def.SystemPrompt == "" {
			return NewValidationError("agent", name, "system_prompt", ErrMissingRequiredField)
		}
	}
	for name, a := range cfg.Adapters {
		if a.RateLimitRPM < 0 {
			return NewValidationError("adapter", name, "rate_limit_rpm", fmt.Errorf("must be non-negative"))
		}
	}
	return nil
}

// ResolveAPIKey reads the environment variable named by envVar, returning an
// empty string if it is unset — grounded on tarsy's TokenEnv indirection
// pattern for credentials (never store secrets directly in YAML).
func ResolveAPIKey(envVar string) string {
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

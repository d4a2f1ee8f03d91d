package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig is the on-disk shape of policy.yaml, matching EXTERNAL
// INTERFACES' "policy configuration YAML shape" in spec.md.
type YAMLConfig struct {
	AuthorizedNetworks  []string     `yaml:"authorized_networks"`
	AuthorizedDomains   []string     `yaml:"authorized_domains"`
	BlockedTargets      []string     `yaml:"blocked_targets"`
	GlobalMaxPerMinute  int          `yaml:"global_max_per_minute"`
	DefaultMaxPerMinute int          `yaml:"default_max_per_minute"`
	LabMode             bool         `yaml:"lab_mode"`
	AllowedExploits     []string     `yaml:"allowed_exploits"`
	Rules               []RuleConfig `yaml:"rules"`
}

// RuleConfig is one entry under policy.yaml's `rules:` list — descriptive
// audit metadata only, per PolicyRule's doc comment.
type RuleConfig struct {
	ID            string `yaml:"id"`
	Description   string `yaml:"description"`
	TargetPattern string `yaml:"target_pattern"`
	Priority      int    `yaml:"priority"`
	Severity      string `yaml:"severity"`
}

// LoadConfig reads and parses a policy.yaml file at path.
func LoadConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy config %s: %w", path, err)
	}
	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse policy config %s: %w", path, err)
	}
	return &cfg, nil
}

// NewEngineFromYAML builds an Engine from a parsed YAMLConfig, applying each
// configured rule via AddRule so the rule list ends priority-sorted.
func NewEngineFromYAML(cfg *YAMLConfig) *Engine {
	e := NewEngine(Config{
		AuthorizedNetworks:  cfg.AuthorizedNetworks,
		AuthorizedDomains:   cfg.AuthorizedDomains,
		BlockedTargets:      cfg.BlockedTargets,
		GlobalMaxPerMinute:  cfg.GlobalMaxPerMinute,
		DefaultMaxPerMinute: cfg.DefaultMaxPerMinute,
		LabMode:             cfg.LabMode,
		AllowedExploits:     cfg.AllowedExploits,
	})
	for _, rc := range cfg.Rules {
		e.AddRule(&PolicyRule{
			ID:            rc.ID,
			Description:   rc.Description,
			TargetPattern: rc.TargetPattern,
			Priority:      rc.Priority,
			Severity:      Severity(rc.Severity),
		})
	}
	return e
}

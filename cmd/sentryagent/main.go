// sentryagent is the orchestrator server - loads configuration, wires the
// policy engine, adapter/plugin stack, and agent registry, then serves the
// HTTP control plane, grounded on cmd/tarsy/main.go's bootstrap sequence.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/caldera-labs/sentryagent/pkg/adapter"
	"github.com/caldera-labs/sentryagent/pkg/adapter/builtin"
	"github.com/caldera-labs/sentryagent/pkg/agent"
	"github.com/caldera-labs/sentryagent/pkg/config"
	"github.com/caldera-labs/sentryagent/pkg/httpapi"
	"github.com/caldera-labs/sentryagent/pkg/llmclient"
	"github.com/caldera-labs/sentryagent/pkg/orchestrator"
	"github.com/caldera-labs/sentryagent/pkg/plugin"
	"github.com/caldera-labs/sentryagent/pkg/policy"
	"github.com/caldera-labs/sentryagent/pkg/queue"
	"github.com/caldera-labs/sentryagent/pkg/store"
	"github.com/caldera-labs/sentryagent/pkg/toolreg"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// newBuiltinAdapters lists every adapter factory this binary knows how to
// load, keyed by the name used in sentryagent.yaml's adapters section and
// in scan-plan tool names. evidenceDir is threaded into every factory so
// each adapter run persists its raw output under evidenceDir/<name>/, per
// spec.md's "Evidence layout" external interface.
func newBuiltinAdapters(evidenceDir string) map[string]adapter.Factory {
	return map[string]adapter.Factory{
		"whois":      func() adapter.Adapter { return builtin.NewWhoisAdapter(evidenceDir) },
		"dns_lookup": func() adapter.Adapter { return builtin.NewDNSLookupAdapter(evidenceDir) },
		"ssl_check":  func() adapter.Adapter { return builtin.NewSSLCheckAdapter(evidenceDir) },
		"nmap":       func() adapter.Adapter { return builtin.NewNmapAdapter(evidenceDir) },
		"gobuster":   func() adapter.Adapter { return builtin.NewGobusterAdapter(evidenceDir) },
		"sqlmap":     func() adapter.Adapter { return builtin.NewSQLMapAdapter(evidenceDir) },
		"metasploit": func() adapter.Adapter { return builtin.NewMetasploitAdapter(evidenceDir) },
	}
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "debug"))

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	policyPath := filepath.Join(*configDir, "policy.yaml")
	policyYAML, err := policy.LoadConfig(policyPath)
	if err != nil {
		log.Fatalf("failed to load policy config: %v", err)
	}
	policyEngine := policy.NewEngineFromYAML(policyYAML)

	builtinAdapters := newBuiltinAdapters(cfg.System.EvidenceDir)
	adapterManager := adapter.NewManager()
	for name, factory := range builtinAdapters {
		adapterManager.Register(name, factory)
	}

	infos := make(map[string]adapter.Info, len(builtinAdapters))
	for name := range builtinAdapters {
		a, err := adapterManager.LoadAdapter(name)
		if err != nil {
			log.Fatalf("failed to load adapter %q: %v", name, err)
		}
		infos[name] = a.GetInfo()
	}

	pluginManager := plugin.NewManager(adapterManager, policyEngine)
	tools := toolreg.New()
	plugin.RegisterAll(pluginManager, tools, infos)

	apiKey := config.ResolveAPIKey(cfg.System.LLM.APIKeyEnv)
	llm := llmclient.NewHTTPClient(cfg.System.LLM.BaseURL, apiKey, cfg.System.LLM.Model)

	// Every configured agent is exposed to the others as a sub-agent tool,
	// so planner-style agents can delegate to e.g. a reporting agent by
	// name — grounded on subagent_tool.py's SubAgentTool registration.
	for _, agentName := range cfg.AgentRegistry.Names() {
		def, err := cfg.AgentRegistry.Get(agentName)
		if err != nil {
			log.Fatalf("failed to resolve agent definition %q: %v", agentName, err)
		}
		tools.Register(agent.NewSubAgentTool(def, llm, tools, nil))
		slog.Info("agent definition registered", "agent", agentName, "tools", def.Tools)
	}

	orch := orchestrator.New(pluginManager, policyEngine, llm)

	dbCfg := store.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     5432,
		User:     getEnv("DB_USER", "sentryagent"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: getEnv("DB_NAME", "sentryagent"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
	dataStore, err := store.New(ctx, dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dataStore.Close()
	slog.Info("connected to postgres and applied migrations")

	pool := queue.NewWorkerPool(4, 64)
	pool.Start(ctx)
	defer pool.Stop()

	server := httpapi.NewServer(orch, pool, policyEngine)

	slog.Info("starting sentryagent", "http_port", httpPort, "lab_mode", cfg.System.LabMode)
	if err := server.Router().Run(":" + httpPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

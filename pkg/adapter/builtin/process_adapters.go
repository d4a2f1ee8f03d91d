// Package builtin provides concrete process-backed adapters for the
// passive/active tool names referenced throughout SPEC_FULL.md's default
// scan plan, grounded on the shape of the original's individual tool
// adapters (each a thin ProcessRunner invocation plus output normalization).
package builtin

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caldera-labs/sentryagent/pkg/adapter"
	"github.com/caldera-labs/sentryagent/pkg/runner"
)

// processAdapter wraps a single command-line tool behind the Adapter
// contract: look up the target, run the binary, return raw + lightly
// parsed output. When evidenceDir is non-empty, every run's raw output is
// additionally persisted under evidence/<adapter_name>/, per spec.md's
// "Evidence layout" external interface.
type processAdapter struct {
	info        adapter.Info
	command     string
	argsFn      func(target string, params map[string]any) []string
	runner      *runner.ProcessRunner
	timeout     time.Duration
	evidenceDir string
}

// unsafeFilenameChars matches everything but alphanumerics, dot, dash, and
// underscore, grounded on docker_runner.py's path-safety normalization
// applied here to evidence filenames instead of host mount paths.
var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// writeEvidence persists raw, verbatim adapter output under
// evidenceDir/adapterName/<safe-target>_<unix-ts>.txt and returns the path
// written, grounded on spec.md's "Evidence layout" external interface
// (evidence/<adapter>/<safe-target>_<unix-ts>.<ext>).
func writeEvidence(evidenceDir, adapterName, target string, data []byte) (string, error) {
	dir := filepath.Join(evidenceDir, adapterName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create evidence dir %s: %w", dir, err)
	}

	safeTarget := unsafeFilenameChars.ReplaceAllString(target, "_")
	if safeTarget == "" {
		safeTarget = "unknown"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.txt", safeTarget, time.Now().Unix()))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write evidence file %s: %w", path, err)
	}
	return path, nil
}

func (a *processAdapter) GetInfo() adapter.Info { return a.info }

func (a *processAdapter) ValidateParams(params map[string]any) error {
	if adapter.TargetFromParams(params) == "" {
		return fmt.Errorf("%s requires a target/domain/host/url parameter", a.info.Name)
	}
	return nil
}

func (a *processAdapter) Execute(ctx context.Context, params map[string]any) (*adapter.Result, error) {
	target := adapter.TargetFromParams(params)
	args := a.argsFn(target, params)

	result, err := a.runner.Run(ctx, runner.RunSpec{
		Command: a.command,
		Args:    args,
		Timeout: a.timeout,
	})
	if err != nil {
		return nil, err
	}

	out := &adapter.Result{
		RawOutput: result.Stdout + result.Stderr,
		Duration:  result.Duration,
	}
	switch result.Status {
	case runner.StatusSuccess:
		out.Status = adapter.ResultSuccess
		out.Data = map[string]any{"target": target, "lines": strings.Split(strings.TrimSpace(result.Stdout), "\n")}
	case runner.StatusTimeout:
		out.Status = adapter.ResultTimeout
		out.ErrorMessage = result.Error
	default:
		out.Status = adapter.ResultFailure
		out.ErrorMessage = result.Error
	}

	if a.evidenceDir != "" {
		path, err := writeEvidence(a.evidenceDir, a.info.Name, target, []byte(out.RawOutput))
		if err != nil {
			slog.Warn("failed to write adapter evidence", "adapter", a.info.Name, "target", target, "error", err)
		} else {
			out.EvidencePath = path
		}
	}

	return out, nil
}

// NewWhoisAdapter wraps the `whois` CLI tool (passive recon).
func NewWhoisAdapter(evidenceDir string) adapter.Adapter {
	return &processAdapter{
		info:        adapter.Info{Name: "whois", Description: "WHOIS registration lookup", Category: "passive"},
		command:     "whois",
		argsFn:      func(target string, _ map[string]any) []string { return []string{target} },
		runner:      runner.NewProcessRunner(),
		timeout:     20 * time.Second,
		evidenceDir: evidenceDir,
	}
}

// NewDNSLookupAdapter wraps `dig` for DNS record enumeration (passive recon).
func NewDNSLookupAdapter(evidenceDir string) adapter.Adapter {
	return &processAdapter{
		info:        adapter.Info{Name: "dns_lookup", Description: "DNS record enumeration", Category: "passive"},
		command:     "dig",
		argsFn:      func(target string, _ map[string]any) []string { return []string{"+short", "ANY", target} },
		runner:      runner.NewProcessRunner(),
		timeout:     20 * time.Second,
		evidenceDir: evidenceDir,
	}
}

// NewSSLCheckAdapter wraps `openssl s_client` for a TLS certificate check
// (passive recon).
func NewSSLCheckAdapter(evidenceDir string) adapter.Adapter {
	return &processAdapter{
		info:    adapter.Info{Name: "ssl_check", Description: "TLS certificate inspection", Category: "passive"},
		command: "openssl",
		argsFn: func(target string, _ map[string]any) []string {
			return []string{"s_client", "-connect", target + ":443", "-brief"}
		},
		runner:      runner.NewProcessRunner(),
		timeout:     20 * time.Second,
		evidenceDir: evidenceDir,
	}
}

// NewNmapAdapter wraps `nmap` for port/service scanning (active recon).
func NewNmapAdapter(evidenceDir string) adapter.Adapter {
	return &processAdapter{
		info:    adapter.Info{Name: "nmap", Description: "Port and service scan", Category: "active"},
		command: "nmap",
		argsFn: func(target string, params map[string]any) []string {
			args := []string{"-sV", "-Pn"}
			if flags, ok := params["flags"].(string); ok && flags != "" {
				args = append(args, strings.Fields(flags)...)
			}
			return append(args, target)
		},
		runner:      runner.NewProcessRunner(),
		timeout:     5 * time.Minute,
		evidenceDir: evidenceDir,
	}
}

// NewGobusterAdapter wraps `gobuster` for directory/vhost enumeration
// (active recon).
func NewGobusterAdapter(evidenceDir string) adapter.Adapter {
	return &processAdapter{
		info:    adapter.Info{Name: "gobuster", Description: "Directory and vhost brute-force enumeration", Category: "active"},
		command: "gobuster",
		argsFn: func(target string, params map[string]any) []string {
			wordlist, _ := params["wordlist"].(string)
			if wordlist == "" {
				wordlist = "/usr/share/wordlists/dirb/common.txt"
			}
			return []string{"dir", "-u", target, "-w", wordlist, "-q"}
		},
		runner:      runner.NewProcessRunner(),
		timeout:     3 * time.Minute,
		evidenceDir: evidenceDir,
	}
}

// NewSQLMapAdapter wraps `sqlmap`, an exploit-class adapter gated by
// RequiresLab — the Policy Engine's CheckExploitPermissions must pass before
// plugin.Manager.RunAdapter ever reaches this adapter's Execute.
func NewSQLMapAdapter(evidenceDir string) adapter.Adapter {
	return &processAdapter{
		info:    adapter.Info{Name: "sqlmap", Description: "SQL injection detection and exploitation", Category: "active", RequiresLab: true},
		command: "sqlmap",
		argsFn: func(target string, _ map[string]any) []string {
			return []string{"-u", target, "--batch", "--level=1", "--risk=1"}
		},
		runner:      runner.NewProcessRunner(),
		timeout:     5 * time.Minute,
		evidenceDir: evidenceDir,
	}
}

// NewMetasploitAdapter wraps `msfconsole`, an exploit-class adapter
// (lab-mode-only tool list — see SPEC_FULL.md §2 item 4).
func NewMetasploitAdapter(evidenceDir string) adapter.Adapter {
	return &processAdapter{
		info:    adapter.Info{Name: "metasploit", Description: "Exploit framework module execution", Category: "active", RequiresLab: true},
		command: "msfconsole",
		argsFn: func(target string, params map[string]any) []string {
			module, _ := params["module"].(string)
			return []string{"-q", "-x", fmt.Sprintf("use %s; set RHOSTS %s; run; exit", module, target)}
		},
		runner:      runner.NewProcessRunner(),
		timeout:     5 * time.Minute,
		evidenceDir: evidenceDir,
	}
}

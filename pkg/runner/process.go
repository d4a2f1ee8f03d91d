package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// ProcessRunner executes a tool as a local subprocess with a hard timeout,
// grounded on utils/process_runner.py's ProcessRunner.
type ProcessRunner struct{}

// NewProcessRunner constructs a ProcessRunner.
func NewProcessRunner() *ProcessRunner {
	return &ProcessRunner{}
}

// Run executes spec, enforcing a timeout and rejecting any argument
// containing a shell metacharacter.
func (r *ProcessRunner) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	log := slog.With("command", spec.Command)

	if _, err := exec.LookPath(spec.Command); err != nil {
		return &RunResult{Status: StatusError, Error: fmt.Sprintf("command not found: %s", spec.Command)}, nil
	}

	if err := sanitizeArgs(spec.Args); err != nil {
		return &RunResult{Status: StatusError, Error: err.Error()}, nil
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Command, spec.Args...)
	cmd.Dir = spec.WorkDir
	cmd.Env = mergeEnv(os.Environ(), spec.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		log.Warn("process timed out", "timeout", timeout)
		return &RunResult{
			Status:   StatusTimeout,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: duration,
			Error:    fmt.Sprintf("process timed out after %s", timeout),
		}, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		exitCode := -1
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		log.Error("process failed", "error", err, "exit_code", exitCode)
		return &RunResult{
			Status:   StatusError,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: exitCode,
			Duration: duration,
			Error:    err.Error(),
		}, nil
	}

	return &RunResult{
		Status:   StatusSuccess,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
		Duration: duration,
	}, nil
}

func mergeEnv(base []string, overrides map[string]string) []string {
	merged := make([]string, len(base), len(base)+len(overrides))
	copy(merged, base)
	for k, v := range overrides {
		merged = append(merged, k+"="+v)
	}
	return merged
}

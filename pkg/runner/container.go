package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// ContainerRunner executes a tool inside a throwaway Docker container,
// grounded on utils/docker_runner.py's DockerRunner. It prefers the Docker
// Engine SDK (github.com/docker/docker/client) and falls back to shelling
// out to the docker CLI when the daemon cannot be reached via the API —
// mirroring docker_runner.py's prefer_sdk / _DOCKER_AVAILABLE dual path.
type ContainerRunner struct {
	preferSDK bool
}

// NewContainerRunner constructs a ContainerRunner. preferSDK selects the
// Docker Engine API client path; when false (or when the API client fails to
// connect) the CLI path is used instead.
func NewContainerRunner(preferSDK bool) *ContainerRunner {
	return &ContainerRunner{preferSDK: preferSDK}
}

// Run executes spec inside a container, always removing the container
// afterward regardless of outcome.
func (r *ContainerRunner) Run(ctx context.Context, spec ContainerRunSpec) (*RunResult, error) {
	if err := sanitizeArgs(spec.Args); err != nil {
		return &RunResult{Status: StatusError, Error: err.Error()}, nil
	}
	if spec.Image == "" {
		return &RunResult{Status: StatusError, Error: "image is required"}, nil
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if r.preferSDK {
		if cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation()); err == nil {
			defer cli.Close()
			result, sdkErr := r.runWithSDK(runCtx, cli, spec, timeout)
			if sdkErr == nil {
				return result, nil
			}
			slog.Warn("docker SDK path failed, falling back to CLI", "error", sdkErr)
		} else {
			slog.Warn("docker SDK client unavailable, falling back to CLI", "error", err)
		}
	}

	return r.runWithCLI(runCtx, spec, timeout)
}

func (r *ContainerRunner) runWithSDK(ctx context.Context, cli *dockerclient.Client, spec ContainerRunSpec, timeout time.Duration) (*RunResult, error) {
	start := time.Now()

	var mounts []mount.Mount
	for _, v := range spec.Volumes {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   normalizeHostPath(v.HostPath),
			Target:   v.ContainerPath,
			ReadOnly: v.ReadOnly,
		})
	}

	var env []string
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}

	netMode := container.NetworkMode("")
	if spec.Network != "" {
		netMode = container.NetworkMode(spec.Network)
	}

	created, err := cli.ContainerCreate(ctx,
		&container.Config{
			Image:      spec.Image,
			Cmd:        spec.Args,
			Env:        env,
			WorkingDir: spec.WorkDir,
			Tty:        false,
		},
		&container.HostConfig{
			Mounts:      mounts,
			NetworkMode: netMode,
			AutoRemove:  false,
		},
		nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("container create failed: %w", err)
	}

	defer func() {
		removeCtx, removeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer removeCancel()
		_ = cli.ContainerRemove(removeCtx, created.ID, container.RemoveOptions{Force: true})
	}()

	if err := cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("container start failed: %w", err)
	}

	statusCh, errCh := cli.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	var exitCode int
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("container wait failed: %w", err)
		}
	case st := <-statusCh:
		exitCode = int(st.StatusCode)
	case <-ctx.Done():
		_ = cli.ContainerStop(context.Background(), created.ID, container.StopOptions{})
		return &RunResult{
			Status:   StatusTimeout,
			Duration: time.Since(start),
			Error:    fmt.Sprintf("container timed out after %s", timeout),
		}, nil
	}

	// The container was created with Tty: false, so the Engine API
	// multiplexes stdout/stderr with an 8-byte frame header per chunk;
	// stdcopy.StdCopy is the only correct way to split that stream back
	// into the two verbatim streams the runner contract promises.
	logs, err := cli.ContainerLogs(context.Background(), created.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	var stdout, stderr bytes.Buffer
	if err == nil {
		defer logs.Close()
		_, _ = stdcopy.StdCopy(&stdout, &stderr, logs)
	}

	status := StatusSuccess
	if exitCode != 0 {
		status = StatusError
	}
	return &RunResult{
		Status:   status,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}

// runWithCLI shells out to `docker run`, grounded on docker_runner.py's
// _run_with_cli fallback path.
func (r *ContainerRunner) runWithCLI(ctx context.Context, spec ContainerRunSpec, timeout time.Duration) (*RunResult, error) {
	args := []string{"run", "--rm"}
	if spec.Network != "" {
		args = append(args, "--network", spec.Network)
	}
	if spec.WorkDir != "" {
		args = append(args, "-w", spec.WorkDir)
	}
	for k, v := range spec.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	for _, v := range spec.Volumes {
		mode := "rw"
		if v.ReadOnly {
			mode = "ro"
		}
		args = append(args, "-v", fmt.Sprintf("%s:%s:%s", normalizeHostPath(v.HostPath), v.ContainerPath, mode))
	}
	args = append(args, spec.Image)
	args = append(args, spec.Args...)

	cmd := exec.CommandContext(ctx, "docker", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &RunResult{
			Status:   StatusTimeout,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: duration,
			Error:    fmt.Sprintf("container timed out after %s", timeout),
		}, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		exitCode := -1
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
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
		Duration: duration,
	}, nil
}

// normalizeHostPath resolves host to an absolute, forward-slash path,
// grounded on docker_runner.py's _normalize_host_path.
func normalizeHostPath(host string) string {
	abs, err := filepath.Abs(host)
	if err != nil {
		abs = host
	}
	return strings.ReplaceAll(abs, "\\", "/")
}

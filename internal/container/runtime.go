// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs processes on the host and inside docker or podman
// containers. The pandoc invoker uses it for both its local and its
// container backend.
package container

import (
	"context"
	"fmt"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime provides container operations: checking availability, verifying
// images, and building the task that runs a command inside a container.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available(ctx context.Context) bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(ctx context.Context, image string) error

	// Task returns the invocation that runs image with args, bind-mounting
	// hostDir at the same path inside the container and starting in workDir.
	// Because paths are identical on both sides, args may reference host
	// paths under hostDir unchanged.
	Task(image, hostDir, workDir string, args []string) Task
}

// runtime implements Runtime for a specific container binary. Both Docker
// and Podman share the same logic; they differ only in binary name and the
// subcommand used to check image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          Executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	res, err := r.exec.Run(ctx, Task{Name: r.bin, Args: []string{"info"}})
	return err == nil && res.ExitCode == 0
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	res, err := r.exec.Run(ctx, Task{Name: r.bin, Args: args})
	if err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("image %s not found in %s: exit code %d", image, r.bin, res.ExitCode)
	}
	return nil
}

func (r *runtime) Task(image, hostDir, workDir string, args []string) Task {
	full := make([]string, 0, len(args)+8)
	full = append(full,
		"run", "--rm",
		"--network", "none",
		"-v", hostDir+":"+hostDir,
		"-w", workDir,
		image,
	)
	full = append(full, args...)
	return Task{Name: r.bin, Args: full, Dir: workDir}
}

func newDockerRuntime(exec Executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec Executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime(ctx context.Context, exec Executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available(ctx) {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available(ctx) {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}

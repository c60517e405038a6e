// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"context"
	"errors"
	"os/exec"

	execute "github.com/alexellis/go-execute/v2"
)

// Task describes one process invocation.
type Task struct {
	// Name is the executable to run.
	Name string
	// Args are passed verbatim.
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs processes to completion, capturing their output. It is the
// seam tests replace.
type Executor interface {
	// LookPath resolves an executable name the way the shell would.
	LookPath(file string) (string, error)

	// Run executes t and waits for it. A non-zero exit is reported through
	// Result.ExitCode, not the error; the error covers failures to start and
	// context cancellation.
	Run(ctx context.Context, t Task) (Result, error)
}

// NewExecutor returns the production Executor backed by go-execute.
func NewExecutor() Executor { return goExecutor{} }

type goExecutor struct{}

func (goExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (goExecutor) Run(ctx context.Context, t Task) (Result, error) {
	task := execute.ExecTask{
		Command:     t.Name,
		Args:        t.Args,
		Cwd:         t.Dir,
		StreamStdio: false,
	}
	res, err := task.Execute(ctx)
	out := Result{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, err
}

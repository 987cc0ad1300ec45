// Package demo ships the two reference TaskProcessor implementations the
// cmd/task-orchestrator CLI registers by default: a "shell.v1" kind that
// runs a command's spec.command through os/exec, and a "noop.v1" kind for
// manifests that only need to exist in the plan. Neither is part of the
// orchestration core; they exist the way cklxx-elephant.ai ships both
// ports/tools contracts and a handful of concrete *Tool adapters around the
// same agent loop.
package demo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/processor"
	"github.com/taskflowhq/taskflow/internal/taskflow/state"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
)

// ShellProcessor runs a task's spec.command (and optional spec.args) via
// os/exec.CommandContext, recording exit state and captured output in
// StatePersistence under the task's id. A task with any state already
// recorded is skipped, per spec section 4.4's convention that a non-empty
// pre-existing state means "already in desired state"; this includes the
// state recorded by an earlier failed run.
type ShellProcessor struct {
	logger logging.Logger
}

// NewShellProcessor builds a ShellProcessor. logger may be nil.
func NewShellProcessor(logger logging.Logger) *ShellProcessor {
	return &ShellProcessor{logger: logging.OrNop(logger)}
}

func (p *ShellProcessor) Kind() string               { return "shell" }
func (p *ShellProcessor) Versions() []string          { return []string{"v1"} }
func (p *ShellProcessor) SupportedCommands() []string { return processor.DefaultSupportedCommands }

// ProcessTask executes spec.command unless state already holds a non-empty
// entry for this task id, whether that entry records success or failure.
func (p *ShellProcessor) ProcessTask(ctx context.Context, t task.Task, command, environment string, kv kvstore.Store, st state.StatePersistence) (kvstore.Store, error) {
	if existing := st.GetObjectState(t.ID()); len(existing) > 0 {
		p.logger.Debug("shell: task %q already in desired state, skipping", t.ID())
		return kv, nil
	}

	rawCommand, _ := t.Spec()["command"].(string)
	if rawCommand == "" {
		return kv, fmt.Errorf("shell: task %q has no spec.command", t.ID())
	}

	var args []string
	if rawArgs, ok := t.Spec()["args"].([]any); ok {
		for _, a := range rawArgs {
			if s, ok := a.(string); ok {
				args = append(args, s)
			}
		}
	}

	cmd := exec.CommandContext(ctx, rawCommand, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	st.SaveObjectState(t.ID(), map[string]any{
		"command":  rawCommand,
		"args":     args,
		"stdout":   stdout.String(),
		"stderr":   stderr.String(),
		"success":  runErr == nil,
		"exitCode": exitCode(runErr),
	})

	if runErr != nil {
		return kv, fmt.Errorf("shell: task %q command %q failed: %w", t.ID(), rawCommand, runErr)
	}

	kv.Save(fmt.Sprintf("SHELL_OUTPUT:%s", t.ID()), stdout.String())
	return kv, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

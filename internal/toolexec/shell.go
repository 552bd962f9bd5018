// Package toolexec runs configured shell commands as tool implementations,
// with context cancellation support.
package toolexec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/chatsim-dev/chatsim/internal/config"
	"github.com/chatsim-dev/chatsim/internal/errors"
)

// ShellRunner executes tool calls as shell commands from the project
// configuration. Tool input fields are exposed to the command as
// CHATSIM_INPUT_<FIELD> environment variables.
type ShellRunner struct {
	// Tools maps tool names to their command configuration.
	Tools map[string]config.ToolConfig

	// DefaultShell is the shell used to execute commands.
	// Defaults to "/bin/sh".
	DefaultShell string
}

// NewShellRunner creates a runner over the configured tools.
func NewShellRunner(tools map[string]config.ToolConfig) *ShellRunner {
	return &ShellRunner{
		Tools:        tools,
		DefaultShell: "/bin/sh",
	}
}

// Execute runs the configured command for a tool and returns its stdout.
// When the context is cancelled, the process group is terminated
// gracefully (SIGTERM, then SIGKILL after 3s).
func (r *ShellRunner) Execute(ctx context.Context, name string, input map[string]any) (string, error) {
	tc, ok := r.Tools[name]
	if !ok {
		return "", errors.ToolNotDefined(name)
	}

	shell := r.DefaultShell
	if shell == "" {
		shell = "/bin/sh"
	}

	// Not CommandContext - cancellation is handled manually to support
	// graceful SIGTERM before SIGKILL.
	cmd := exec.Command(shell, "-c", tc.Command)

	if tc.Workdir != "" {
		cmd.Dir = tc.Workdir
	}

	cmd.Env = os.Environ()
	for key, value := range input {
		cmd.Env = append(cmd.Env, fmt.Sprintf("CHATSIM_INPUT_%s=%s", envKey(key), stringify(value)))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Set process group so we can kill the entire tree
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting tool command: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			// Try graceful termination first
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)

			select {
			case <-done:
				// Process exited
			case <-time.After(3 * time.Second):
				_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
				<-done
			}
		}
		return "", ctx.Err()

	case err := <-done:
		if err != nil {
			if _, ok := err.(*exec.ExitError); ok {
				msg := strings.TrimSpace(stderr.String())
				if msg == "" {
					msg = strings.TrimSpace(stdout.String())
				}
				return "", fmt.Errorf("tool command failed: %s", msg)
			}
			return "", err
		}
	}

	return strings.TrimSuffix(stdout.String(), "\n"), nil
}

// envKey normalizes an input field name for use in an environment
// variable: uppercased, with non-alphanumerics replaced by underscores.
func envKey(field string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(field) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// stringify renders an input value for the environment. Strings pass
// through; everything else uses its default formatting.
func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

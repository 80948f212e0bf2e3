// pkg/shell/shell.go - running the scripting host and shell commands with a deadline.

package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Result is what a finished command produced.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a program and waits for it.
// A non-zero exit is reported through Result.ExitCode, not as an error; the
// error is reserved for commands that could not start or that hit the deadline.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec, hiding their console windows.
type ExecRunner struct{}

// waitDelay bounds how long Wait lingers on pipes held open by grandchildren
// after the direct child was killed.
const waitDelay = 2 * time.Second

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	prepareCommand(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

// ShellCommand returns the argv that runs command through the platform shell.
func ShellCommand(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd.exe", []string{"/C", command}
	}
	return "/bin/sh", []string{"-c", command}
}

// PowerShellArgs returns the non-interactive argument list for a -Command script.
func PowerShellArgs(script string) []string {
	return []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", script}
}

// QuotePS wraps s in a PowerShell single-quoted literal.
func QuotePS(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// IsTimeout reports whether err came from an expired deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

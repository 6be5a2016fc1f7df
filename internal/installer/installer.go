package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"cargoupstall/internal/resolve"
)

// Request describes one cargo install invocation.
type Request struct {
	Crate    string
	Action   resolve.Action
	Features []string
	// Git installs from a repository URL instead of the registry.
	Git string
}

// ExitError reports a cargo run that finished with a non-zero status.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("cargo install exited with status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Installer runs cargo install for planned actions.
type Installer struct {
	Cargo  string
	Runner Runner
	// Env is added to cargo's environment, e.g. CARGO_HOME.
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Args builds the cargo argument list for req. It returns nil when the action
// requires no install.
func Args(req Request) []string {
	if req.Action.IsNothing() {
		return nil
	}

	args := []string{"install"}
	if req.Action.Force {
		args = append(args, "--force")
	}
	if req.Action.Version != nil {
		args = append(args, "--version="+req.Action.Version.String())
	}
	if len(req.Features) > 0 {
		args = append(args, "--features="+strings.Join(req.Features, " "))
	}
	if req.Git != "" {
		args = append(args, "--git="+req.Git)
	}
	return append(args, req.Crate)
}

// CommandLine renders the full command for display.
func (i Installer) CommandLine(req Request) string {
	args := Args(req)
	if args == nil {
		return ""
	}
	return i.cargo() + " " + strings.Join(args, " ")
}

// Run executes cargo for req. It reports whether cargo was started at all; a
// Nothing action never runs it.
func (i Installer) Run(ctx context.Context, req Request) (bool, error) {
	args := Args(req)
	if args == nil {
		return false, nil
	}

	runner := i.Runner
	if runner == nil {
		runner = CmdRunner{}
	}

	_, err := runner.Run(ctx, i.cargo(), args, RunOptions{Env: i.Env, Stdout: i.Stdout, Stderr: i.Stderr})
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, &ExitError{Code: exitErr.ExitCode(), Err: err}
		}
		return false, fmt.Errorf("start %s: %w", i.cargo(), err)
	}
	return true, nil
}

func (i Installer) cargo() string {
	if i.Cargo == "" {
		return "cargo"
	}
	return i.Cargo
}

package installer

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
)

// RunOptions controls a single Runner invocation. Env entries are added to
// the inherited environment.
type RunOptions struct {
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// RunResult holds whatever the command wrote, even when it also streamed to
// RunOptions writers.
type RunResult struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes an external command.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error)
}

// CmdRunner runs commands with os/exec, attached to the caller's stdin so
// cargo can prompt.
type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, opts.Stdout)
	cmd.Stderr = tee(&stderr, opts.Stderr)
	cmd.Stdin = os.Stdin

	err := cmd.Run()
	return RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

var _ Runner = CmdRunner{}

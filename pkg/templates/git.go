package templates

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Git runs git commands on behalf of the manager
type Git interface {
	// Run executes git in dir, streaming its output
	Run(ctx context.Context, dir string, args ...string) error
	// Output executes git in dir and returns its trimmed stdout
	Output(ctx context.Context, dir string, args ...string) (string, error)
}

type gitRunner struct {
	binary string
	env    []string
	stdout io.Writer
	stderr io.Writer
}

// GitOption configures the git runner
type GitOption func(*gitRunner)

// NewGit returns a Git backed by the git binary on PATH
func NewGit(options ...GitOption) Git {
	g := &gitRunner{
		binary: "git",
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// WithGitBinary sets the git binary path
func WithGitBinary(binary string) GitOption {
	return func(g *gitRunner) {
		g.binary = binary
	}
}

// WithGitEnv adds environment variables to every invocation
func WithGitEnv(env []string) GitOption {
	return func(g *gitRunner) {
		g.env = env
	}
}

// WithGitOutput redirects the output of Run
func WithGitOutput(stdout, stderr io.Writer) GitOption {
	return func(g *gitRunner) {
		g.stdout = stdout
		g.stderr = stderr
	}
}

func (g *gitRunner) Run(ctx context.Context, dir string, args ...string) error {
	cmd := g.command(ctx, dir, args...)
	cmd.Stdout = g.stdout
	cmd.Stderr = g.stderr
	return g.runCommand(cmd)
}

func (g *gitRunner) Output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := g.command(ctx, dir, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := g.runCommand(cmd); err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (g *gitRunner) command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, g.binary, args...) // #nosec G204 - arguments are built by the manager
	if dir != "" {
		cmd.Dir = dir
	}
	if len(g.env) > 0 {
		cmd.Env = append(os.Environ(), g.env...)
	}
	return cmd
}

func (g *gitRunner) runCommand(cmd *exec.Cmd) error {
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return errors.Wrapf(err, "git %s failed with exit code %d", strings.Join(cmd.Args[1:], " "), exitErr.ExitCode())
		}
		return errors.Wrap(err, "failed to execute git")
	}
	return nil
}

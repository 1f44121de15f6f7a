// Package executor runs external tools such as the dotnet CLI and the
// installer compiler.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/lanceccraig/Tooling.DevOps/errs"
)

// Runner executes a command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts ...Option) error
}

// Options configures a single invocation.
type Options struct {
	WorkingDir string
	// Env is appended to the current environment.
	Env    map[string]string
	Stdout io.Writer
	Stderr io.Writer
}

// Option modifies Options.
type Option func(*Options)

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnv adds an environment variable.
func WithEnv(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithStdout sets the writer receiving standard output.
func WithStdout(w io.Writer) Option {
	return func(o *Options) {
		o.Stdout = w
	}
}

// WithStderr sets the writer receiving standard error.
func WithStderr(w io.Writer) Option {
	return func(o *Options) {
		o.Stderr = w
	}
}

// ExitError reports a command that ran and exited with a non-zero code.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
}

// ErrorCode classifies exit failures.
func (e *ExitError) ErrorCode() errs.Code {
	return errs.CodeExecutionFailed
}

// IsExitError returns true if err is or wraps an *ExitError.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// Command runs processes with os/exec, streaming their output.
type Command struct {
	defaults Options
	logger   *slog.Logger
}

// New creates a Command. Output goes to the process's own streams unless
// overridden by opts.
func New(logger *slog.Logger, opts ...Option) *Command {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Command{
		defaults: Options{Stdout: os.Stdout, Stderr: os.Stderr},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(&c.defaults)
	}
	return c
}

// Run implements Runner.
func (c *Command) Run(ctx context.Context, name string, args []string, opts ...Option) error {
	o := c.defaults
	o.Env = copyEnv(c.defaults.Env)
	for _, opt := range opts {
		opt(&o)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = o.WorkingDir
	cmd.Stdout = o.Stdout
	cmd.Stderr = o.Stderr
	if len(o.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range o.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	line := Format(name, args)
	c.logger.Debug("Running command", slog.String("command", line), slog.String("dir", o.WorkingDir))

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: line, Code: exitErr.ExitCode()}
	}
	return errs.Wrap(errs.CodeExecutionFailed, "run "+name, err)
}

// Format renders a command line for display, quoting arguments that contain
// spaces.
func Format(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func copyEnv(env map[string]string) map[string]string {
	if len(env) == 0 {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

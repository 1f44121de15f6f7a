// Package scheduler runs a composed target graph in dependency order.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lanceccraig/Tooling.DevOps/errs"
	"github.com/lanceccraig/Tooling.DevOps/target"
)

// Observer receives target lifecycle events.
type Observer interface {
	TargetStarted(name string)
	StepStarted(target, item string)
	TargetFinished(name string, elapsed time.Duration, err error)
}

// Option configures Run.
type Option func(*runner)

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(r *runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type runner struct {
	observers []Observer
	logger    *slog.Logger
}

// Plan returns the targets that must run to satisfy names, dependencies
// first. Each target appears once. No names means the default target.
func Plan(g *target.Graph, names []string) ([]string, error) {
	if len(names) == 0 {
		names = []string{target.DefaultName}
	}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, g.Len())
	ordered := make([]string, 0, g.Len())

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return errs.InvalidConfig("dependency cycle: %v", append(path, name))
		}
		t, ok := g.Target(name)
		if !ok {
			return errs.InvalidConfig("target %q depends on unknown target %q", path[len(path)-1], name)
		}
		state[name] = visiting
		for _, dep := range t.DependsOn {
			if err := visit(dep, append(append([]string(nil), path...), name)); err != nil {
				return err
			}
		}
		state[name] = done
		ordered = append(ordered, name)
		return nil
	}

	for _, name := range names {
		if _, ok := g.Target(name); !ok {
			return nil, errs.InvalidInput("unknown target %q", name)
		}
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// Run executes the targets needed for names. Steps run sequentially; the
// first failure stops the run.
func Run(ctx context.Context, g *target.Graph, names []string, opts ...Option) error {
	r := &runner{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	plan, err := Plan(g, names)
	if err != nil {
		return err
	}
	r.logger.Debug("Planned targets", slog.Any("targets", plan))

	for _, name := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, _ := g.Target(name)
		if err := r.runTarget(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) runTarget(ctx context.Context, t target.Target) error {
	for _, o := range r.observers {
		o.TargetStarted(t.Name)
	}
	start := time.Now()

	err := r.runSteps(ctx, t)

	elapsed := time.Since(start)
	for _, o := range r.observers {
		o.TargetFinished(t.Name, elapsed, err)
	}
	if err != nil {
		r.logger.Debug("Target failed", slog.String("target", t.Name), slog.String("error", err.Error()))
		return err
	}
	r.logger.Debug("Target finished", slog.String("target", t.Name), slog.Duration("elapsed", elapsed))
	return nil
}

func (r *runner) runSteps(ctx context.Context, t target.Target) error {
	for _, step := range t.Steps {
		if step.Run == nil {
			continue
		}
		for _, o := range r.observers {
			o.StepStarted(t.Name, step.Item)
		}
		if err := step.Run(ctx); err != nil {
			return &TargetError{Target: t.Name, Item: step.Item, Err: err}
		}
	}
	return nil
}

// TargetError reports the target and item whose step failed.
type TargetError struct {
	Target string
	Item   string
	Err    error
}

func (e *TargetError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("%s (%s): %v", e.Target, e.Item, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

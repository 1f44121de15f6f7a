package executor

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Name string
	Args []string
	Dir  string
}

// Line renders the call as a command line.
func (c Call) Line() string {
	return Format(c.Name, c.Args)
}

// Recorder is a Runner that records calls instead of executing them. It
// backs --dry-run and tests.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	// Fail, when set, is consulted for each call and its error returned.
	Fail func(Call) error
	// Echo, when set, receives each call's command line.
	Echo io.Writer
}

// Run implements Runner.
func (r *Recorder) Run(_ context.Context, name string, args []string, opts ...Option) error {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	call := Call{Name: name, Args: append([]string(nil), args...), Dir: o.WorkingDir}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	if r.Echo != nil {
		fmt.Fprintln(r.Echo, call.Line())
	}
	r.mu.Unlock()

	if r.Fail != nil {
		return r.Fail(call)
	}
	return nil
}

// Calls returns the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns the recorded calls as command lines.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line()
	}
	return lines
}

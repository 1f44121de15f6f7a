// Package report writes progress to the terminal.
package report

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Console writes status messages to one stream and errors to another.
// Styling is dropped when a stream is not a terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer

	target  lipgloss.Style
	step    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

// NewConsole creates a Console over out and err.
func NewConsole(out, err io.Writer) *Console {
	outR := lipgloss.NewRenderer(out)
	errR := lipgloss.NewRenderer(err)
	return &Console{
		out:     out,
		err:     err,
		target:  outR.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		step:    outR.NewStyle().Foreground(lipgloss.Color("#888888")),
		success: outR.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		failure: errR.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
	}
}

// Status writes msg to the status stream unstyled. Multi-line messages such
// as a release body are written as is.
func (c *Console) Status(msg string) {
	c.println(c.out, msg)
}

// Error writes msg to the error stream.
func (c *Console) Error(msg string) {
	c.println(c.err, c.failure.Render(msg))
}

// TargetStarted prints a target header.
func (c *Console) TargetStarted(name string) {
	c.println(c.out, c.target.Render("==> "+name))
}

// StepStarted prints the item a step works on. Single-action targets have
// no item and print nothing.
func (c *Console) StepStarted(target, item string) {
	if item == "" {
		return
	}
	c.println(c.out, c.step.Render("    "+item))
}

// TargetFinished prints the outcome of a target.
func (c *Console) TargetFinished(name string, elapsed time.Duration, err error) {
	if err != nil {
		c.println(c.err, c.failure.Render(fmt.Sprintf("%s failed after %s", name, elapsed.Round(time.Millisecond))))
		return
	}
	c.println(c.out, c.success.Render(fmt.Sprintf("%s succeeded in %s", name, elapsed.Round(time.Millisecond))))
}

// Plan prints the targets a run would execute.
func (c *Console) Plan(names []string) {
	for i, name := range names {
		c.println(c.out, fmt.Sprintf("%d. %s", i+1, c.target.Render(name)))
	}
}

func (c *Console) println(w io.Writer, s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(w, s)
}

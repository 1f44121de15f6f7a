// Package metrics records target runs and issue conversions with
// Prometheus collectors and writes them in the text exposition format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "devops"

// Recorder holds the collectors for one invocation.
type Recorder struct {
	registry *prometheus.Registry

	targets        *prometheus.CounterVec
	targetDuration *prometheus.HistogramVec
	steps          *prometheus.CounterVec
	issues         *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		targets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "target",
				Name:      "runs_total",
				Help:      "Target runs by outcome.",
			},
			[]string{"target", "success"},
		),
		targetDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "target",
				Name:      "duration_seconds",
				Help:      "Target run duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
			},
			[]string{"target"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "target",
				Name:      "steps_total",
				Help:      "Target steps started.",
			},
			[]string{"target"},
		),
		issues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "release",
				Name:      "issues_total",
				Help:      "Issues seen by the converter by outcome.",
			},
			[]string{"outcome"},
		),
	}
	r.registry.MustRegister(r.targets, r.targetDuration, r.steps, r.issues)
	return r
}

// Registry returns the registry the collectors are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// TargetStarted is a no-op; runs are counted when they finish.
func (r *Recorder) TargetStarted(string) {}

// StepStarted counts a step.
func (r *Recorder) StepStarted(target, _ string) {
	r.steps.WithLabelValues(target).Inc()
}

// TargetFinished records the outcome and duration of a target.
func (r *Recorder) TargetFinished(name string, elapsed time.Duration, err error) {
	r.targets.WithLabelValues(name, fmt.Sprint(err == nil)).Inc()
	r.targetDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// ConversionFinished records a converted batch. It matches the callback
// taken by issues.WithStats.
func (r *Recorder) ConversionFinished(accepted, skipped int) {
	r.issues.WithLabelValues("accepted").Add(float64(accepted))
	r.issues.WithLabelValues("skipped").Add(float64(skipped))
}

// WriteFile writes every collected metric to path, replacing the file
// atomically.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

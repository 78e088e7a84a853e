// Package stage defines the polymorphic unit of work a Task drives to
// completion. Concrete stages are resolved dynamically by internal/dynlib
// from host-provided shared objects; this package only fixes the contract
// and a small embeddable base.
package stage

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/dagflow/internal/id"
)

// Stage is the capability interface every unit of work implements.
//
// Invariant: a Stage whose IsRunning is true must not be cloned or
// destroyed without a successful End followed by Cleanup first.
type Stage interface {
	// Label returns the stage's free-form display name.
	Label() string
	// ID returns the stage's identifier.
	ID() id.Identifier
	// Run begins executing the stage and reports success. ctx carries the
	// interrupt token: implementations that loop internally must poll
	// ctx.Err() between internal steps to honor cancellation promptly.
	Run(ctx context.Context) (bool, error)
	// IsRunning is a purely observational check.
	IsRunning() bool
	// End is a cooperative stop signal; a running stage is expected to
	// notice it and return from Run. Returns false if the stage could not
	// be stopped cleanly.
	End() bool
	// Cleanup releases any transient resources. Idempotent, and always
	// safe to call after End.
	Cleanup()
	// Clone produces a fresh Stage with the same Label and ID but
	// independent running state.
	Clone() Stage
}

// Factory constructs a new Stage given a display label. Dynamic library
// symbols resolved for stage construction must have this shape.
type Factory func(label string) Stage

// Elapsed is a small stopwatch recording how long a stage's Run call took,
// used by the worker for per-stage timing in its logs.
type Elapsed struct {
	start time.Time
	stop  time.Time
}

// Start begins timing.
func (e *Elapsed) Start() {
	e.start = time.Now()
	e.stop = time.Time{}
}

// Stop ends timing.
func (e *Elapsed) Stop() {
	e.stop = time.Now()
}

// Duration reports the elapsed time between Start and Stop. If Stop has not
// been called, it reports the elapsed time so far.
func (e *Elapsed) Duration() time.Duration {
	if e.start.IsZero() {
		return 0
	}
	if e.stop.IsZero() {
		return time.Since(e.start)
	}
	return e.stop.Sub(e.start)
}

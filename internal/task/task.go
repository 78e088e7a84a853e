// Package task implements Task: an ordered sequence of Stages plus JSON
// configuration/inputs documents and a completion callback.
package task

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/alexisbeaulieu97/dagflow/internal/id"
	"github.com/alexisbeaulieu97/dagflow/internal/stage"
	dagerrors "github.com/alexisbeaulieu97/dagflow/pkg/errors"
)

// CallbackFunc is the function-shaped completion callback.
type CallbackFunc func(status bool)

// CallbackPlugin is the object-shaped completion callback alternative.
type CallbackPlugin interface {
	Completed(status bool, t *Task)
	Clone() CallbackPlugin
}

// Visitor is invoked once per stage during IterateStages; it is expected to
// call stage.Run and report whether iteration should continue.
type Visitor func(s stage.Stage) bool

// Task owns a label, an identifier, an ordered list of Stages, JSON
// configuration/initial-inputs documents, and at most one completion
// callback.
//
// Invariants: task equality is identifier equality; a task with iterating
// true may not be cloned; Clone deep-copies stages and documents while
// preserving the identifier.
type Task struct {
	mu sync.Mutex

	label         string
	identifier    id.Identifier
	stages        []stage.Stage
	configuration json.RawMessage
	initialInputs json.RawMessage

	callbackFunc   CallbackFunc
	callbackPlugin CallbackPlugin

	// internalHook is bookkeeping wired by the DAG processor to detect
	// layer completion. It is independent of the host-configured callback
	// above and always fires in addition to it, never in place of it —
	// the exclusivity invariant applies only to the host-visible callback.
	internalHook func(bool)

	// internalStartHook is bookkeeping wired by the DAG processor to learn
	// when a worker actually begins iterating this task's stages, as
	// opposed to merely being queued.
	internalStartHook func()

	iterating atomic.Bool
	kill      atomic.Bool
}

// New constructs a Task with a fresh identifier.
func New(label string, stages []stage.Stage, configuration, initialInputs json.RawMessage) *Task {
	return &Task{
		label:         label,
		identifier:    id.New(),
		stages:        stages,
		configuration: configuration,
		initialInputs: initialInputs,
	}
}

// Label returns the task's display name.
func (t *Task) Label() string { return t.label }

// ID returns the task's identifier.
func (t *Task) ID() id.Identifier { return t.identifier }

// Stages returns the task's ordered stage list. Callers must not mutate it.
func (t *Task) Stages() []stage.Stage { return t.stages }

// Configuration returns the task's JSON configuration document.
func (t *Task) Configuration() json.RawMessage { return t.configuration }

// InitialInputs returns the task's JSON initial-inputs document.
func (t *Task) InitialInputs() json.RawMessage { return t.initialInputs }

// Equal reports task equality, which is identifier equality.
func (t *Task) Equal(other *Task) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.identifier.Equal(other.identifier)
}

// SetCallbackFunc installs a function callback. Fails if a plugin callback
// is already installed; callers must never set both.
func (t *Task) SetCallbackFunc(fn CallbackFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.callbackPlugin != nil {
		return dagerrors.New(dagerrors.CodeContractViolation, "task already has a plugin callback")
	}
	t.callbackFunc = fn
	return nil
}

// SetCallbackPlugin installs a plugin callback. Fails if a function
// callback is already installed.
func (t *Task) SetCallbackPlugin(p CallbackPlugin) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.callbackFunc != nil {
		return dagerrors.New(dagerrors.CodeContractViolation, "task already has a function callback")
	}
	t.callbackPlugin = p
	return nil
}

// IsIterating reports whether a worker is currently walking this task's
// stages.
func (t *Task) IsIterating() bool { return t.iterating.Load() }

// Kill sets the cooperative stop flag; it is checked between stages.
func (t *Task) Kill() { t.kill.Store(true) }

// Killed reports whether Kill has been called.
func (t *Task) Killed() bool { return t.kill.Load() }

// IterateStages walks the stages in order, invoking visit(stage) which is
// expected to call stage.Run. After each visit it calls stage.Cleanup and
// stage.End. Iteration stops early if the visitor returns false, End
// returns false, or kill has been set. Returns true iff every stage
// completed successfully. Concurrent entry is forbidden: a second attempt
// while one is already in flight returns false immediately.
func (t *Task) IterateStages(visit Visitor) bool {
	if !t.iterating.CompareAndSwap(false, true) {
		return false
	}
	defer t.iterating.Store(false)

	t.mu.Lock()
	start := t.internalStartHook
	t.mu.Unlock()
	if start != nil {
		start()
	}

	for _, s := range t.stages {
		if t.kill.Load() {
			return false
		}

		ok := visit(s)
		s.Cleanup()
		ended := s.End()

		if !ok || !ended {
			return false
		}
	}
	return true
}

// Complete is invoked by the worker after iteration finishes. It fires
// exactly one of the function or plugin callback, or neither if none was
// configured.
func (t *Task) Complete(status bool) {
	t.mu.Lock()
	fn := t.callbackFunc
	plugin := t.callbackPlugin
	hook := t.internalHook
	t.mu.Unlock()

	switch {
	case fn != nil:
		fn(status)
	case plugin != nil:
		plugin.Completed(status, t)
	}

	if hook != nil {
		hook(status)
	}
}

// SetInternalHook installs the processor's layer-completion bookkeeping
// callback. It is not part of the document-configured callback contract.
func (t *Task) SetInternalHook(fn func(bool)) {
	t.mu.Lock()
	t.internalHook = fn
	t.mu.Unlock()
}

// SetInternalStartHook installs the processor's run-start bookkeeping
// callback, fired once a worker begins iterating this task's stages.
func (t *Task) SetInternalStartHook(fn func()) {
	t.mu.Lock()
	t.internalStartHook = fn
	t.mu.Unlock()
}

// Clone produces a task whose stages are independently cloned, whose JSON
// documents are deep-copied, and whose identifier equals the source's.
func (t *Task) Clone() *Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	clonedStages := make([]stage.Stage, len(t.stages))
	for i, s := range t.stages {
		clonedStages[i] = s.Clone()
	}

	clone := &Task{
		label:         t.label,
		identifier:    t.identifier.Clone(),
		stages:        clonedStages,
		configuration: cloneJSON(t.configuration),
		initialInputs: cloneJSON(t.initialInputs),
	}

	if t.callbackPlugin != nil {
		clone.callbackPlugin = t.callbackPlugin.Clone()
	}
	clone.callbackFunc = t.callbackFunc

	return clone
}

func cloneJSON(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

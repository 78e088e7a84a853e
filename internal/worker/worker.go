// Package worker implements InterruptibleTaskThread: one worker goroutine
// that drives a single task's stages to completion while honoring a
// cooperative interrupt.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexisbeaulieu97/dagflow/internal/id"
	"github.com/alexisbeaulieu97/dagflow/internal/logging"
	"github.com/alexisbeaulieu97/dagflow/internal/stage"
	"github.com/alexisbeaulieu97/dagflow/internal/task"
)

// OnComplete is invoked once, after the worker finishes iterating a task's
// stages, with whether every stage ran to completion.
type OnComplete func(allRan bool)

// Worker owns one goroutine, one task slot, an interrupt flag, and a
// running flag. Move semantics do not apply in Go; the contract instead
// forbids calling SetTaskAndRun while IsRunning is true.
type Worker struct {
	index int
	log   logging.Logger

	delayBetweenStages time.Duration

	mu      sync.Mutex
	current *task.Task
	cancel  context.CancelFunc

	running     atomic.Bool
	interrupted atomic.Bool

	wg sync.WaitGroup
}

// New constructs a Worker. index is a stable identifier used only for
// logging and tie-break selection by the scheduler.
func New(index int, log logging.Logger, delayBetweenStages time.Duration) *Worker {
	if log == nil {
		log = logging.NoOp()
	}
	return &Worker{index: index, log: log, delayBetweenStages: delayBetweenStages}
}

// Index returns the worker's stable pool index.
func (w *Worker) Index() int { return w.index }

// IsRunning is a purely observational check.
func (w *Worker) IsRunning() bool { return w.running.Load() }

// WasInterrupted reports whether SetInterrupt has been called since the
// worker last started a task.
func (w *Worker) WasInterrupted() bool { return w.interrupted.Load() }

// CurrentTaskID returns the identifier of the task this worker is
// currently driving, if any.
func (w *Worker) CurrentTaskID() (id.Identifier, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return id.Identifier{}, false
	}
	return w.current.ID(), true
}

// SetTaskAndRun stores t, spawns the worker goroutine, and returns only
// after the goroutine has signaled it has started — so the caller observes
// IsRunning()==true reliably. The goroutine iterates t's stages, logging
// and timing each one, sleeping delayBetweenStages between stages, and
// checking ctx between runs. On completion it clears the task slot, clears
// running, and invokes onComplete.
func (w *Worker) SetTaskAndRun(ctx context.Context, t *task.Task, onComplete OnComplete) {
	runCtx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.current = t
	w.cancel = cancel
	w.mu.Unlock()

	w.interrupted.Store(false)
	w.running.Store(true)

	started := make(chan struct{})
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		close(started)
		allRan := w.drive(runCtx, t)

		w.mu.Lock()
		w.current = nil
		w.cancel = nil
		w.mu.Unlock()
		w.running.Store(false)

		if onComplete != nil {
			onComplete(allRan)
		}
	}()
	<-started
}

func (w *Worker) drive(ctx context.Context, t *task.Task) bool {
	return t.IterateStages(func(s stage.Stage) bool {
		var elapsed stage.Elapsed
		elapsed.Start()
		w.log.Debug(ctx, "stage starting", "stage", s.Label(), "worker", w.index)

		ok, err := s.Run(ctx)
		elapsed.Stop()

		if err != nil {
			w.log.Error(ctx, "stage failed", "stage", s.Label(), "worker", w.index, "error", err, "duration_ms", elapsed.Duration().Milliseconds())
			return false
		}
		w.log.Debug(ctx, "stage finished", "stage", s.Label(), "worker", w.index, "duration_ms", elapsed.Duration().Milliseconds())

		if w.delayBetweenStages > 0 {
			time.Sleep(w.delayBetweenStages)
		}

		if ctx.Err() != nil {
			return false
		}
		return ok
	})
}

// SetInterrupt raises the interrupt flag and, if a task is present, calls
// its Kill and cancels the run context.
func (w *Worker) SetInterrupt() {
	w.interrupted.Store(true)

	w.mu.Lock()
	current := w.current
	cancel := w.cancel
	w.mu.Unlock()

	if current != nil {
		current.Kill()
	}
	if cancel != nil {
		cancel()
	}
}

// Shutdown interrupts and joins the worker goroutine (if any is running),
// leaving the worker in a non-running, task-less state. Idempotent.
func (w *Worker) Shutdown() {
	w.SetInterrupt()
	w.wg.Wait()
}

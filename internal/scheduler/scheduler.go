// Package scheduler implements TaskScheduler: a queue plus a fixed pool of
// InterruptibleTaskThreads, with pause/resume/shutdown control.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/alexisbeaulieu97/dagflow/internal/id"
	"github.com/alexisbeaulieu97/dagflow/internal/logging"
	"github.com/alexisbeaulieu97/dagflow/internal/queue"
	"github.com/alexisbeaulieu97/dagflow/internal/task"
	"github.com/alexisbeaulieu97/dagflow/internal/worker"
)

// Config tunes the scheduler's polling and stage pacing.
type Config struct {
	// PollInterval bounds how long the dispatch loop waits on the queue
	// before re-checking the pause/kill flags. Spec default ~5ms.
	PollInterval time.Duration
	// DelayBetweenStages is the pause each worker takes between stages,
	// giving interrupts a chance to land. Spec default ~1ms.
	DelayBetweenStages time.Duration
}

// DefaultConfig returns the spec's suggested defaults.
func DefaultConfig() Config {
	return Config{PollInterval: 5 * time.Millisecond, DelayBetweenStages: time.Millisecond}
}

// Scheduler owns one queue, a pool of workers, a pause flag, and a kill
// flag. Not copyable: pass by pointer.
type Scheduler struct {
	queue   *queue.Queue
	workers []*worker.Worker
	log     logging.Logger
	cfg     Config

	paused atomic.Bool
	killed atomic.Bool
}

// New constructs a Scheduler with poolSize workers.
func New(poolSize int, log logging.Logger, cfg Config) *Scheduler {
	if log == nil {
		log = logging.NoOp()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}

	s := &Scheduler{queue: queue.New(), log: log, cfg: cfg}
	s.workers = make([]*worker.Worker, poolSize)
	for i := range s.workers {
		s.workers[i] = worker.New(i, log, cfg.DelayBetweenStages)
	}
	return s
}

// QueueTask consumes ownership of t and enqueues it. Always enqueues
// regardless of pause state: a paused scheduler stops dispatching but
// still accepts queued tasks.
func (s *Scheduler) QueueTask(t *task.Task) {
	s.queue.Push(t)
}

// KillTask removes t from the queue if present, returning true. Otherwise
// it attempts to interrupt whichever worker is currently running it.
func (s *Scheduler) KillTask(target id.Identifier) bool {
	if _, ok := s.queue.RemoveByID(target); ok {
		return true
	}
	for _, w := range s.workers {
		if current, ok := w.CurrentTaskID(); ok && current.Equal(target) {
			w.SetInterrupt()
			return true
		}
	}
	return false
}

// Pause toggles the pause flag. A paused scheduler stops dispatching but
// continues to accept queued tasks and does not interrupt running tasks.
func (s *Scheduler) Pause() { s.paused.Store(true) }

// Resume clears the pause flag.
func (s *Scheduler) Resume() { s.paused.Store(false) }

// IsPaused is observational.
func (s *Scheduler) IsPaused() bool { return s.paused.Load() }

// IsShutdown is observational.
func (s *Scheduler) IsShutdown() bool { return s.killed.Load() }

// Startup runs the dispatch loop: while not killed, poll the queue with a
// short bounded wait; if a task arrives and the scheduler is not paused,
// find a free worker (lowest index wins ties) and hand it off; repeat.
// Synchronous — hosts typically run it on a dedicated goroutine. Returns
// the kill state on exit.
func (s *Scheduler) Startup(ctx context.Context) bool {
	for {
		if s.killed.Load() {
			return true
		}
		if ctx.Err() != nil {
			return s.killed.Load()
		}
		if s.paused.Load() {
			time.Sleep(s.cfg.PollInterval)
			continue
		}

		t, ok := s.queue.WaitForAndPop(s.cfg.PollInterval)
		if !ok {
			continue
		}

		w := s.freeWorker()
		if w == nil {
			s.queue.Push(t)
			time.Sleep(s.cfg.PollInterval)
			continue
		}

		s.log.Debug(ctx, "dispatching task", "task", t.Label(), "worker", w.Index())
		w.SetTaskAndRun(ctx, t, func(allRan bool) {
			t.Complete(allRan)
		})
	}
}

// freeWorker returns the lowest-index worker currently not running a task.
func (s *Scheduler) freeWorker() *worker.Worker {
	for _, w := range s.workers {
		if !w.IsRunning() {
			return w
		}
	}
	return nil
}

// Shutdown sets the kill flag, interrupts all workers, joins them, and
// drains the queue. Idempotent.
func (s *Scheduler) Shutdown() {
	s.killed.Store(true)
	for _, w := range s.workers {
		w.Shutdown()
	}
	s.queue.Clear()
}

// QueueSize reports the current queue length (advisory).
func (s *Scheduler) QueueSize() int { return s.queue.Size() }

// PoolSize reports the number of workers in the pool.
func (s *Scheduler) PoolSize() int { return len(s.workers) }

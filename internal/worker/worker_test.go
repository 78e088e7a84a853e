package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/dagflow/internal/id"
	"github.com/alexisbeaulieu97/dagflow/internal/stage"
	"github.com/alexisbeaulieu97/dagflow/internal/task"
)

type blockingStage struct {
	label   string
	stageID id.Identifier
	started chan struct{}
	release chan struct{}
}

func newBlockingStage(label string) *blockingStage {
	return &blockingStage{label: label, stageID: id.New(), started: make(chan struct{}), release: make(chan struct{})}
}

func (s *blockingStage) Label() string     { return s.label }
func (s *blockingStage) ID() id.Identifier { return s.stageID }
func (s *blockingStage) IsRunning() bool   { return false }
func (s *blockingStage) Cleanup()          {}
func (s *blockingStage) End() bool         { return true }
func (s *blockingStage) Clone() stage.Stage {
	return newBlockingStage(s.label)
}

func (s *blockingStage) Run(ctx context.Context) (bool, error) {
	close(s.started)
	select {
	case <-s.release:
		return true, nil
	case <-ctx.Done():
		return false, nil
	}
}

func TestSetTaskAndRunReturnsAfterStart(t *testing.T) {
	s := newBlockingStage("a")
	defer close(s.release)
	tk := task.New("t", []stage.Stage{s}, nil, nil)

	w := New(1, nil, 0)
	done := make(chan bool, 1)
	w.SetTaskAndRun(context.Background(), tk, func(allRan bool) { done <- allRan })

	require.True(t, w.IsRunning())
	<-s.started
}

func TestSetInterruptStopsWorker(t *testing.T) {
	s := newBlockingStage("a")
	tk := task.New("t", []stage.Stage{s}, nil, nil)

	w := New(1, nil, 0)
	done := make(chan bool, 1)
	w.SetTaskAndRun(context.Background(), tk, func(allRan bool) { done <- allRan })
	<-s.started

	w.SetInterrupt()

	select {
	case allRan := <-done:
		require.False(t, allRan)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not complete after interrupt")
	}
	require.False(t, w.IsRunning())
	require.True(t, w.WasInterrupted())
}

func TestShutdownJoinsWorker(t *testing.T) {
	s := newBlockingStage("a")
	tk := task.New("t", []stage.Stage{s}, nil, nil)

	w := New(1, nil, 0)
	w.SetTaskAndRun(context.Background(), tk, nil)
	<-s.started

	w.Shutdown()
	require.False(t, w.IsRunning())
}

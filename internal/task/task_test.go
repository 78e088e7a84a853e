package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/dagflow/internal/id"
	"github.com/alexisbeaulieu97/dagflow/internal/stage"
)

type fakeStage struct {
	label     string
	stageID   id.Identifier
	runResult bool
	runErr    error
	ran       bool
	ended     bool
	cleaned   bool
	endResult bool
}

func newFakeStage(label string) *fakeStage {
	return &fakeStage{label: label, stageID: id.New(), runResult: true, endResult: true}
}

func (f *fakeStage) Label() string          { return f.label }
func (f *fakeStage) ID() id.Identifier      { return f.stageID }
func (f *fakeStage) IsRunning() bool        { return false }
func (f *fakeStage) Cleanup()               { f.cleaned = true }
func (f *fakeStage) End() bool              { f.ended = true; return f.endResult }
func (f *fakeStage) Clone() stage.Stage {
	return &fakeStage{label: f.label, stageID: f.stageID, runResult: f.runResult, endResult: f.endResult}
}

func (f *fakeStage) Run(ctx context.Context) (bool, error) {
	f.ran = true
	return f.runResult, f.runErr
}

func TestIterateStagesRunsAllOnSuccess(t *testing.T) {
	a, b := newFakeStage("a"), newFakeStage("b")
	tk := New("t", []stage.Stage{a, b}, nil, nil)

	visited := 0
	ok := tk.IterateStages(func(s stage.Stage) bool {
		visited++
		return true
	})

	require.True(t, ok)
	require.Equal(t, 2, visited)
	require.True(t, a.cleaned)
	require.True(t, b.cleaned)
}

func TestIterateStagesStopsWhenVisitorFails(t *testing.T) {
	a, b := newFakeStage("a"), newFakeStage("b")
	tk := New("t", []stage.Stage{a, b}, nil, nil)

	visited := 0
	ok := tk.IterateStages(func(s stage.Stage) bool {
		visited++
		return false
	})

	require.False(t, ok)
	require.Equal(t, 1, visited)
}

func TestIterateStagesStopsOnKill(t *testing.T) {
	a, b, c := newFakeStage("a"), newFakeStage("b"), newFakeStage("c")
	tk := New("t", []stage.Stage{a, b, c}, nil, nil)

	visited := 0
	ok := tk.IterateStages(func(s stage.Stage) bool {
		visited++
		if visited == 2 {
			tk.Kill()
		}
		return true
	})

	require.False(t, ok)
	require.Equal(t, 2, visited)
	require.False(t, c.ran)
}

func TestIterateStagesRejectsConcurrentEntry(t *testing.T) {
	a := newFakeStage("a")
	tk := New("t", []stage.Stage{a}, nil, nil)

	done := make(chan struct{})
	tk.IterateStages(func(s stage.Stage) bool {
		ok := tk.IterateStages(func(stage.Stage) bool { return true })
		require.False(t, ok)
		close(done)
		return true
	})
	<-done
}

func TestCompleteFiresExactlyOneCallback(t *testing.T) {
	tk := New("t", nil, nil, nil)

	funcCalls := 0
	require.NoError(t, tk.SetCallbackFunc(func(status bool) { funcCalls++ }))
	require.Error(t, tk.SetCallbackPlugin(&stubPlugin{}))

	tk.Complete(true)
	require.Equal(t, 1, funcCalls)
}

func TestInternalStartHookFiresBeforeStagesRun(t *testing.T) {
	a := newFakeStage("a")
	tk := New("t", []stage.Stage{a}, nil, nil)

	started := false
	tk.SetInternalStartHook(func() {
		started = true
		require.False(t, a.ran)
	})

	ok := tk.IterateStages(func(s stage.Stage) bool {
		s.Run(context.Background())
		return true
	})

	require.True(t, ok)
	require.True(t, started)
}

type stubPlugin struct {
	calls int
}

func (s *stubPlugin) Completed(status bool, t *Task) { s.calls++ }
func (s *stubPlugin) Clone() CallbackPlugin          { return &stubPlugin{} }

func TestCloneDeepCopiesStagesAndPreservesIdentity(t *testing.T) {
	a := newFakeStage("a")
	tk := New("t", []stage.Stage{a}, []byte(`{"k":1}`), []byte(`{"v":2}`))

	clone := tk.Clone()
	require.True(t, tk.Equal(clone))
	require.NotSame(t, tk, clone)
	require.Len(t, clone.Stages(), 1)
	require.NotSame(t, a, clone.Stages()[0])
}

// Package processor implements DagProcessor: given a DAG and a scheduler,
// it peels layers of zero-incoming-edge vertices, submits each layer's
// tasks, and awaits the layer before peeling the next.
package processor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/alexisbeaulieu97/dagflow/internal/dag"
	"github.com/alexisbeaulieu97/dagflow/internal/logging"
	"github.com/alexisbeaulieu97/dagflow/internal/scheduler"
	dagerrors "github.com/alexisbeaulieu97/dagflow/pkg/errors"
)

// Processor drives a DAG to completion through a Scheduler.
type Processor struct {
	log logging.Logger
}

// New constructs a Processor.
func New(log logging.Logger) *Processor {
	if log == nil {
		log = logging.NoOp()
	}
	return &Processor{log: log}
}

// Result describes one processing run.
type Result struct {
	// Layers is the sequence of layers as they were peeled and submitted.
	Layers [][]*dag.Vertex
	// Completed reports whether every vertex in the DAG finished, success
	// or failure. False means vertices remained: either a cycle was
	// detected during the peel or ctx ended while a layer was running.
	Completed bool
}

// Process repeatedly: collects every vertex with incoming-edge count 0
// into a layer; submits each layer's task to sched and awaits every task's
// completion before peeling the next layer; drops completed vertices from
// its working copy and decrements the incoming counters of every vertex
// they pointed to. Returns Completed=false iff any vertex remains after
// the peel terminates (a cycle, which should be impossible for a
// well-formed DAG but is checked defensively).
func (p *Processor) Process(ctx context.Context, d *dag.DAG, sched *scheduler.Scheduler) (Result, error) {
	order := make([]*dag.Vertex, 0, d.VertexCount())
	counts := make(map[string]int64, d.VertexCount())
	active := make(map[string]bool, d.VertexCount())

	d.LinearTraversal(func(v *dag.Vertex) {
		order = append(order, v)
		counts[v.ID().String()] = v.IncomingEdgeCount()
		active[v.ID().String()] = true
	})

	var layers [][]*dag.Vertex

	for len(active) > 0 {
		layer := make([]*dag.Vertex, 0)
		for _, v := range order {
			key := v.ID().String()
			if active[key] && counts[key] == 0 {
				layer = append(layer, v)
			}
		}
		if len(layer) == 0 {
			return Result{Layers: layers, Completed: false},
				dagerrors.New(dagerrors.CodeWouldBeCyclic, "cycle detected during layered peel")
		}

		for _, v := range layer {
			delete(active, v.ID().String())
		}

		if err := p.runLayer(ctx, sched, layer, counts); err != nil {
			return Result{Layers: layers, Completed: false}, err
		}

		layers = append(layers, layer)
		p.log.Info(ctx, "layer completed", "size", len(layer))
	}

	return Result{Layers: layers, Completed: true}, nil
}

// runLayer submits every vertex in layer and awaits them all. Each
// vertex's final status transition (Passed/Failed) and counts decrement
// happen on the main goroutine, sequentially, after g.Wait() returns — the
// errgroup goroutines only carry the outcome across the channel. The
// Running transition is written by the start hook on the worker's
// goroutine, before the completion that the channel carries. This keeps
// counts (shared across the whole layer) and each vertex's status field
// free of concurrent writers.
func (p *Processor) runLayer(ctx context.Context, sched *scheduler.Scheduler, layer []*dag.Vertex, counts map[string]int64) error {
	g, gctx := errgroup.WithContext(ctx)

	finished := make([]bool, len(layer))
	outcomes := make([]bool, len(layer))

	for i, v := range layer {
		vv := v
		idx := i
		done := make(chan bool, 1)
		vv.Task().SetInternalStartHook(func() {
			vv.SetStatus(dag.Running)
		})
		vv.Task().SetInternalHook(func(status bool) {
			done <- status
		})

		g.Go(func() error {
			select {
			case status := <-done:
				finished[idx] = true
				outcomes[idx] = status
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})

		vv.SetStatus(dag.Scheduled)
		sched.QueueTask(vv.Task())
	}

	err := g.Wait()

	// Status transitions and the shared counts decrement happen here,
	// sequentially on this goroutine, after every errgroup goroutine has
	// returned — never inside the goroutines themselves.
	for i, v := range layer {
		if !finished[i] {
			continue
		}
		if outcomes[i] {
			v.SetStatus(dag.Passed)
		} else {
			v.SetStatus(dag.Failed)
		}
		v.VisitAllEdges(func(e *dag.Edge) {
			if target := e.GetConnection(); target != nil {
				counts[target.ID().String()]--
			}
		})
	}

	return err
}

package dag

import (
	"sync/atomic"

	"github.com/alexisbeaulieu97/dagflow/internal/id"
	"github.com/alexisbeaulieu97/dagflow/internal/task"
)

// Vertex is a DAG node holding a Task, a status, a label, an ordered list of
// owned outgoing edges, and an atomic incoming-edge counter.
//
// Invariants: the incoming counter equals the number of live edges
// elsewhere in the DAG whose target is this vertex; vertex equality is
// identifier equality; Clone preserves identifier and label but drops
// edges.
type Vertex struct {
	identifier id.Identifier
	label      string
	status     VertexStatus
	task       *task.Task
	edges      []*Edge
	incoming   atomic.Int64
}

// NewVertex constructs a Vertex. If label is empty, the vertex's generated
// identifier is used as its fallback label — explicit labels never
// override the stored identifier.
func NewVertex(label string, t *task.Task) *Vertex {
	return NewVertexWithID(id.New(), label, t)
}

// NewVertexWithID constructs a Vertex carrying an identifier supplied by
// the caller (e.g. a document-specified UUID), rather than generating one.
func NewVertexWithID(identifier id.Identifier, label string, t *task.Task) *Vertex {
	v := &Vertex{identifier: identifier, label: label, task: t, status: Initialized}
	if v.label == "" {
		v.label = v.identifier.String()
	}
	return v
}

// ID returns the vertex's identifier.
func (v *Vertex) ID() id.Identifier { return v.identifier }

// Label returns the vertex's display label.
func (v *Vertex) Label() string { return v.label }

// Status returns the vertex's current status.
func (v *Vertex) Status() VertexStatus { return v.status }

// SetStatus updates the vertex's status.
func (v *Vertex) SetStatus(s VertexStatus) { v.status = s }

// Task returns the vertex's owned task.
func (v *Vertex) Task() *task.Task { return v.task }

// Equal reports vertex equality, which is identifier equality.
func (v *Vertex) Equal(other *Vertex) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.identifier.Equal(other.identifier)
}

// EdgeCount returns the number of owned outgoing edges.
func (v *Vertex) EdgeCount() int { return len(v.edges) }

// IncomingEdgeCount returns the current incoming-edge counter.
func (v *Vertex) IncomingEdgeCount() int64 { return v.incoming.Load() }

func (v *Vertex) addIncomingEdge() { v.incoming.Add(1) }
func (v *Vertex) subIncomingEdge() { v.incoming.Add(-1) }

// HasIncomingEdges reports whether the incoming counter is non-zero.
func (v *Vertex) HasIncomingEdges() bool { return v.incoming.Load() > 0 }

// Connect creates a new owned edge targeting target, unless target already
// appears among this vertex's edges, in which case it is a no-op and the
// existing edge is returned.
func (v *Vertex) Connect(target *Vertex) *Edge {
	for _, e := range v.edges {
		if e.IsAConnectionTo(target) {
			return e
		}
	}
	e := newEdge()
	e.ConnectTo(target)
	v.edges = append(v.edges, e)
	return e
}

// ContainsConnectionTo reports whether an owned edge already targets v2.
func (v *Vertex) ContainsConnectionTo(v2 *Vertex) bool {
	for _, e := range v.edges {
		if e.IsAConnectionTo(v2) {
			return true
		}
	}
	return false
}

// VisitAllEdges invokes visitor for each owned edge in insertion order.
func (v *Vertex) VisitAllEdges(visitor func(*Edge)) {
	for _, e := range v.edges {
		visitor(e)
	}
}

// Edges returns the vertex's owned edges. Callers must not mutate the slice.
func (v *Vertex) Edges() []*Edge { return v.edges }

// Clone returns a new vertex with the same identifier, label, status, and
// an independently cloned task, but no edges — edges are re-established
// separately by DAG.Clone via CloneAllConnections/RestablishConnections.
func (v *Vertex) Clone() *Vertex {
	clone := &Vertex{identifier: v.identifier.Clone(), label: v.label, status: v.status}
	if v.task != nil {
		clone.task = v.task.Clone()
	}
	return clone
}

// CloneAllConnections returns cloned copies of this vertex's owned edges,
// each carrying its original target identifier but no resolved target
// pointer. Used by DAG.Clone together with RestablishConnections.
func (v *Vertex) CloneAllConnections() []*Edge {
	clones := make([]*Edge, len(v.edges))
	for i, e := range v.edges {
		clones[i] = e.clone()
	}
	return clones
}

// RestablishConnections appends the given (already cloned) edges to this
// vertex and resolves each edge's target pointer via lookup, incrementing
// the resolved target's incoming counter.
func (v *Vertex) RestablishConnections(edges []*Edge, lookup func(id.Identifier) (*Vertex, bool)) error {
	for _, e := range edges {
		target, ok := lookup(e.TargetID())
		if !ok {
			return errNotFound(e.TargetID())
		}
		e.target = nil
		e.ConnectTo(target)
		v.edges = append(v.edges, e)
	}
	return nil
}

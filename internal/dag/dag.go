// Package dag implements the DAG data structure: vertices owning outgoing
// edges, acyclicity enforcement, clone semantics, and the topological /
// layered orderings the scheduler relies on.
package dag

import (
	"encoding/json"

	"github.com/alexisbeaulieu97/dagflow/internal/id"
	dagerrors "github.com/alexisbeaulieu97/dagflow/pkg/errors"
)

// DAG owns a title, a JSON configuration document, and an ordered
// collection of owned Vertices.
//
// Invariants: no directed cycle; every edge's target identifier resolves
// to a vertex also in this DAG; the sum of incoming counters equals the
// total edge count. All mutating operations are total: success, or a
// named failure that leaves the DAG unchanged.
type DAG struct {
	title         string
	configuration json.RawMessage
	vertices      []*Vertex
	byID          map[string]*Vertex
}

// New constructs an empty DAG.
func New(title string, configuration json.RawMessage) *DAG {
	return &DAG{title: title, configuration: configuration, byID: make(map[string]*Vertex)}
}

// Title returns the DAG's title.
func (d *DAG) Title() string { return d.title }

// Configuration returns the DAG's JSON configuration document.
func (d *DAG) Configuration() json.RawMessage { return d.configuration }

// VertexCount returns the number of vertices currently in the DAG.
func (d *DAG) VertexCount() int { return len(d.vertices) }

// EdgeCount returns the total number of owned edges across all vertices.
func (d *DAG) EdgeCount() int {
	total := 0
	for _, v := range d.vertices {
		total += v.EdgeCount()
	}
	return total
}

// Reset drops every vertex, returning the DAG to its newly-constructed state.
func (d *DAG) Reset() {
	d.vertices = nil
	d.byID = make(map[string]*Vertex)
}

// AddVertex takes ownership of v, failing only if v's identifier already
// exists in the DAG.
func (d *DAG) AddVertex(v *Vertex) error {
	key := v.ID().String()
	if _, exists := d.byID[key]; exists {
		return dagerrors.New(dagerrors.CodeAlreadyExists, "vertex "+key+" already exists")
	}
	d.vertices = append(d.vertices, v)
	d.byID[key] = v
	return nil
}

// Find returns the vertex equal to v, if present.
func (d *DAG) Find(v *Vertex) (*Vertex, bool) {
	if v == nil {
		return nil, false
	}
	return d.FindByID(v.ID())
}

// FindByID returns the vertex with the given identifier, if present.
func (d *DAG) FindByID(i id.Identifier) (*Vertex, bool) {
	found, ok := d.byID[i.String()]
	return found, ok
}

// FindAllByLabel returns every vertex whose label equals label, in
// insertion order.
func (d *DAG) FindAllByLabel(label string) []*Vertex {
	var out []*Vertex
	for _, v := range d.vertices {
		if v.Label() == label {
			out = append(out, v)
		}
	}
	return out
}

// WouldMakeCyclic is a read-only reachability query: it returns true iff b
// can already reach a, meaning connecting an edge from a to b would close
// a cycle.
func (d *DAG) WouldMakeCyclic(a, b *Vertex) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Equal(b) {
		return true
	}
	visited := make(map[string]bool)
	var reaches func(from, target *Vertex) bool
	reaches = func(from, target *Vertex) bool {
		key := from.ID().String()
		if visited[key] {
			return false
		}
		visited[key] = true
		for _, e := range from.Edges() {
			next := e.GetConnection()
			if next == nil {
				continue
			}
			if next.Equal(target) {
				return true
			}
			if reaches(next, target) {
				return true
			}
		}
		return false
	}
	return reaches(b, a)
}

// AreConnected reports whether a holds an owned edge whose target is b.
func (d *DAG) AreConnected(a, b *Vertex) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ContainsConnectionTo(b)
}

// Connect creates one edge from `from` to `to`, failing with WouldBeCyclic
// if it would introduce a cycle, or NotFound if either endpoint is absent
// from this DAG. A second identical connect is a no-op: it returns success
// without creating a duplicate edge.
func (d *DAG) Connect(from, to *Vertex) error {
	if _, ok := d.Find(from); !ok {
		return errNotFound(from.ID())
	}
	if _, ok := d.Find(to); !ok {
		return errNotFound(to.ID())
	}
	if from.ContainsConnectionTo(to) {
		return nil
	}
	if d.WouldMakeCyclic(from, to) {
		return dagerrors.New(dagerrors.CodeWouldBeCyclic, "connecting "+from.Label()+" to "+to.Label()+" would introduce a cycle")
	}
	from.Connect(to)
	return nil
}

// ConnectByID resolves both endpoints by identifier and connects them.
func (d *DAG) ConnectByID(fromID, toID id.Identifier) error {
	from, ok := d.FindByID(fromID)
	if !ok {
		return errNotFound(fromID)
	}
	to, ok := d.FindByID(toID)
	if !ok {
		return errNotFound(toID)
	}
	return d.Connect(from, to)
}

// ConnectAllByLabel connects the Cartesian product of every vertex labeled
// fromLabel to every vertex labeled toLabel, failing atomically (no
// partial application) if any pair would cycle.
func (d *DAG) ConnectAllByLabel(fromLabel, toLabel string) error {
	froms := d.FindAllByLabel(fromLabel)
	tos := d.FindAllByLabel(toLabel)

	for _, from := range froms {
		for _, to := range tos {
			if from.ContainsConnectionTo(to) {
				continue
			}
			if d.WouldMakeCyclic(from, to) {
				return dagerrors.New(dagerrors.CodeWouldBeCyclic, "connecting "+fromLabel+" to "+toLabel+" would introduce a cycle")
			}
		}
	}
	for _, from := range froms {
		for _, to := range tos {
			from.Connect(to)
		}
	}
	return nil
}

// LinearTraversal visits every vertex in insertion order. The callback must
// not mutate the DAG's structure.
func (d *DAG) LinearTraversal(visit func(*Vertex)) {
	for _, v := range d.vertices {
		visit(v)
	}
}

// Clone deep-copies every vertex (via Vertex.Clone) and then re-establishes
// every edge by identifier lookup. This is a structural clone: cloned
// identifiers equal their originals.
func (d *DAG) Clone() *DAG {
	clone := New(d.title, cloneJSON(d.configuration))

	connections := make([][]*Edge, len(d.vertices))
	for i, v := range d.vertices {
		cv := v.Clone()
		_ = clone.AddVertex(cv)
		connections[i] = v.CloneAllConnections()
	}

	lookup := func(target id.Identifier) (*Vertex, bool) {
		return clone.FindByID(target)
	}

	for i, v := range d.vertices {
		cv, _ := clone.FindByID(v.ID())
		_ = cv.RestablishConnections(connections[i], lookup)
	}

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

func errNotFound(target id.Identifier) error {
	return dagerrors.New(dagerrors.CodeNotFound, "identifier "+target.String()+" not found")
}

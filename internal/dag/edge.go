package dag

import (
	"github.com/alexisbeaulieu97/dagflow/internal/id"
)

// Edge is a directed connection owned by its source Vertex. It carries the
// identifier of its target plus a direct pointer into the DAG's vertex
// arena for O(1) access — there is no shared/weak-pointer machinery; the
// DAG's invariants ensure an edge never outlives the vertex it targets.
type Edge struct {
	identifier id.Identifier
	status     EdgeStatus
	targetID   id.Identifier
	target     *Vertex
}

func newEdge() *Edge {
	return &Edge{identifier: id.New(), status: EdgeInitialized}
}

// ID returns the edge's identifier.
func (e *Edge) ID() id.Identifier { return e.identifier }

// Status returns the edge's traversal status.
func (e *Edge) Status() EdgeStatus { return e.status }

// SetStatus updates the edge's traversal status.
func (e *Edge) SetStatus(s EdgeStatus) { e.status = s }

// GetConnection returns the edge's non-owning target handle. The handle is
// nil if the edge has never been connected or was retargeted to nil.
func (e *Edge) GetConnection() *Vertex { return e.target }

// ConnectTo retargets the edge to target, decrementing the previous
// target's incoming counter (if any) and incrementing the new target's.
func (e *Edge) ConnectTo(target *Vertex) {
	if e.target != nil {
		e.target.subIncomingEdge()
	}
	e.target = target
	if target != nil {
		e.targetID = target.ID()
		target.addIncomingEdge()
	} else {
		e.targetID = id.Identifier{}
	}
}

// IsAConnectionTo reports whether this edge's target is v.
func (e *Edge) IsAConnectionTo(v *Vertex) bool {
	if e.target == nil || v == nil {
		return false
	}
	return e.target.ID().Equal(v.ID())
}

// TargetID returns the identifier of the edge's target, even if the target
// pointer itself has not been resolved (e.g. immediately after a clone).
func (e *Edge) TargetID() id.Identifier { return e.targetID }

func (e *Edge) clone() *Edge {
	return &Edge{identifier: e.identifier.Clone(), status: e.status, targetID: e.targetID}
}

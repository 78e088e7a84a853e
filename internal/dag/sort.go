package dag

import (
	dagerrors "github.com/alexisbeaulieu97/dagflow/pkg/errors"
)

// TopologicalSort runs Kahn's algorithm on a working copy of the incoming
// counters, leaving the DAG itself untouched. Ties among simultaneously
// zero-incoming vertices break by insertion order. If the emitted count is
// less than the vertex count, the graph has a cycle and the sort fails.
func (d *DAG) TopologicalSort() ([]*Vertex, error) {
	counts := d.workingIncomingCounts()

	queue := make([]*Vertex, 0)
	for _, v := range d.vertices {
		if counts[v.ID().String()] == 0 {
			queue = append(queue, v)
		}
	}

	order := make([]*Vertex, 0, len(d.vertices))
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)

		for _, e := range v.Edges() {
			target := e.GetConnection()
			if target == nil {
				continue
			}
			key := target.ID().String()
			counts[key]--
			if counts[key] == 0 {
				queue = append(queue, target)
			}
		}
	}

	if len(order) < len(d.vertices) {
		return nil, dagerrors.New(dagerrors.CodeWouldBeCyclic, "graph contains a cycle; topological sort cannot complete")
	}
	return order, nil
}

// LayeredPeel performs the same peel as TopologicalSort, but each pop batch
// is the entire set of simultaneously zero-incoming vertices, emitted as
// one layer. Vertices within a layer are mutually independent and safe to
// run in parallel.
func (d *DAG) LayeredPeel() ([][]*Vertex, error) {
	counts := d.workingIncomingCounts()
	remaining := len(d.vertices)

	var layers [][]*Vertex
	active := make([]*Vertex, len(d.vertices))
	copy(active, d.vertices)

	for remaining > 0 {
		layer := make([]*Vertex, 0)
		for _, v := range active {
			if counts[v.ID().String()] == 0 {
				layer = append(layer, v)
			}
		}
		if len(layer) == 0 {
			return nil, dagerrors.New(dagerrors.CodeWouldBeCyclic, "graph contains a cycle; layered peel cannot complete")
		}

		layerKeys := make(map[string]bool, len(layer))
		for _, v := range layer {
			layerKeys[v.ID().String()] = true
		}

		next := active[:0:0]
		for _, v := range active {
			if !layerKeys[v.ID().String()] {
				next = append(next, v)
			}
		}
		active = next

		for _, v := range layer {
			for _, e := range v.Edges() {
				target := e.GetConnection()
				if target == nil {
					continue
				}
				counts[target.ID().String()]--
			}
		}

		layers = append(layers, layer)
		remaining -= len(layer)
	}

	return layers, nil
}

func (d *DAG) workingIncomingCounts() map[string]int64 {
	counts := make(map[string]int64, len(d.vertices))
	for _, v := range d.vertices {
		counts[v.ID().String()] = v.IncomingEdgeCount()
	}
	return counts
}

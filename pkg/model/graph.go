package model

import (
	"github.com/joelhi/imlet-go/pkg/geometry"
)

// ComputationGraph is a compiled, immutable evaluation plan: the
// components of one output's transitive closure in topological order,
// with input slots resolved to indices. The graph itself holds no
// evaluation state and can be shared across goroutines; each goroutine
// obtains its own Evaluator for scratch storage.
type ComputationGraph[T geometry.Float] struct {
	names      []string
	components []*Component[T]
	inputs     [][]int
	maxArity   int
}

func newComputationGraph[T geometry.Float](capacity int) *ComputationGraph[T] {
	return &ComputationGraph[T]{
		names:      make([]string, 0, capacity),
		components: make([]*Component[T], 0, capacity),
		inputs:     make([][]int, 0, capacity),
	}
}

func (g *ComputationGraph[T]) add(name string, component *Component[T], inputs []int) {
	g.names = append(g.names, name)
	g.components = append(g.components, component)
	g.inputs = append(g.inputs, inputs)
	if len(inputs) > g.maxArity {
		g.maxArity = len(inputs)
	}
}

// Size returns the number of components in the plan.
func (g *ComputationGraph[T]) Size() int { return len(g.components) }

// Names returns the component names in evaluation order.
func (g *ComputationGraph[T]) Names() []string { return g.names }

// Evaluator returns a fresh evaluator with its own scratch buffers.
// Evaluators are cheap; allocate one per goroutine.
func (g *ComputationGraph[T]) Evaluator() *Evaluator[T] {
	return &Evaluator[T]{
		graph:  g,
		values: make([]T, len(g.components)),
		args:   make([]T, g.maxArity),
	}
}

// Evaluator computes the graph output at individual points, reusing its
// intermediate value storage between calls. Not safe for concurrent use;
// evaluation is a pure function of the coordinate.
type Evaluator[T geometry.Float] struct {
	graph  *ComputationGraph[T]
	values []T
	args   []T
}

// EvaluateAt computes the graph output at (x, y, z).
func (e *Evaluator[T]) EvaluateAt(x, y, z T) T {
	g := e.graph
	for i, component := range g.components {
		args := e.args[:len(g.inputs[i])]
		for j, id := range g.inputs[i] {
			args[j] = e.values[id]
		}
		e.values[i] = component.Compute(x, y, z, args)
	}
	if len(e.values) == 0 {
		return 0
	}
	return e.values[len(e.values)-1]
}

// EvaluateVec3 computes the graph output at a point.
func (e *Evaluator[T]) EvaluateVec3(p geometry.Vec3[T]) T {
	return e.EvaluateAt(p.X, p.Y, p.Z)
}

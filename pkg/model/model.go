package model

import (
	"fmt"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/rs/zerolog/log"
)

// FormatVersion is the persistence format version written by Serialize.
const FormatVersion = 1

// ImplicitModel is a named directed acyclic graph of components. Producers
// feed the input slots of consumers; any component can be selected as an
// output and evaluated at a point in space.
//
// Mutation methods are transactional: on failure the model is unchanged.
// The model is not safe for concurrent mutation; evaluation treats the
// model as immutable and may run from any number of goroutines.
type ImplicitModel[T geometry.Float] struct {
	components map[string]*Component[T]
	// inputs maps a consumer name to its producers per slot. The empty
	// string marks an unbound slot.
	inputs map[string][]string
	// insertion records component names in creation order; it breaks ties
	// in the topological sort so evaluation order is reproducible.
	insertion []string
	bounds    *geometry.BoundingBox[T]

	// orderCache caches the topological order per output, invalidated on
	// any mutation.
	orderCache map[string][]string
}

// New creates an empty model.
func New[T geometry.Float]() *ImplicitModel[T] {
	return &ImplicitModel[T]{
		components: make(map[string]*Component[T]),
		inputs:     make(map[string][]string),
		orderCache: make(map[string][]string),
	}
}

// Bounds returns the optional model bounds, or nil.
func (m *ImplicitModel[T]) Bounds() *geometry.BoundingBox[T] { return m.bounds }

// SetBounds assigns the model bounds.
func (m *ImplicitModel[T]) SetBounds(bounds geometry.BoundingBox[T]) {
	b := bounds
	m.bounds = &b
}

// ComponentNames returns all component names in insertion order.
func (m *ImplicitModel[T]) ComponentNames() []string {
	names := make([]string, len(m.insertion))
	copy(names, m.insertion)
	return names
}

// Component returns a component by name.
func (m *ImplicitModel[T]) Component(name string) (*Component[T], error) {
	c, ok := m.components[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return c, nil
}

// Inputs returns the producer names currently wired to each slot of the
// named component. Unbound slots are empty strings.
func (m *ImplicitModel[T]) Inputs(name string) ([]string, error) {
	if _, ok := m.components[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	wired := make([]string, len(m.inputs[name]))
	copy(wired, m.inputs[name])
	return wired, nil
}

// AddFunction adds a function component and returns its name.
func (m *ImplicitModel[T]) AddFunction(name string, f Function[T]) (string, error) {
	return m.add(name, NewFunctionComponent(f))
}

// AddOperation adds an operation component with all slots unbound and
// returns its name.
func (m *ImplicitModel[T]) AddOperation(name string, op Operation[T]) (string, error) {
	return m.add(name, NewOperationComponent(op))
}

// AddConstant adds a constant component and returns its name.
func (m *ImplicitModel[T]) AddConstant(name string, value T) (string, error) {
	return m.add(name, NewConstantComponent(value))
}

// AddOperationWithInputs adds an operation and wires every slot in one
// atomic step. The number of producers must match the operation arity and
// every producer must already exist; on any failure the model is left
// unchanged.
func (m *ImplicitModel[T]) AddOperationWithInputs(name string, op Operation[T], producers []string) (string, error) {
	component := NewOperationComponent[T](op)
	if len(producers) != component.Arity() {
		return "", fmt.Errorf("%w: operation %q wants %d inputs, got %d",
			ErrArityMismatch, name, component.Arity(), len(producers))
	}
	for _, producer := range producers {
		if _, ok := m.components[producer]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownProducer, producer)
		}
		if producer == name {
			return "", fmt.Errorf("%w: %q feeding itself", ErrWouldCreateCycle, name)
		}
	}

	canonical, err := m.add(name, component)
	if err != nil {
		return "", err
	}
	copy(m.inputs[canonical], producers)
	return canonical, nil
}

func (m *ImplicitModel[T]) add(name string, component *Component[T]) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownComponent)
	}
	if _, exists := m.components[name]; exists {
		return "", fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	m.components[name] = component
	m.inputs[name] = make([]string, component.Arity())
	m.insertion = append(m.insertion, name)
	m.invalidate()
	return name, nil
}

// Wire connects the output of producer to the given input slot of
// consumer. The edge is refused when either end is missing, the slot is
// out of range, or the edge would close a directed cycle.
func (m *ImplicitModel[T]) Wire(producer, consumer string, slot int) error {
	if _, ok := m.components[producer]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProducer, producer)
	}
	slots, ok := m.inputs[consumer]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownComponent, consumer)
	}
	if slot < 0 || slot >= len(slots) {
		return fmt.Errorf("%w: slot %d of %q, arity %d", ErrArityMismatch, slot, consumer, len(slots))
	}
	if m.dependsOn(producer, consumer) {
		return fmt.Errorf("%w: %q -> %q", ErrWouldCreateCycle, producer, consumer)
	}
	slots[slot] = producer
	m.invalidate()
	log.Debug().Str("producer", producer).Str("consumer", consumer).Int("slot", slot).
		Msg("Input wired")
	return nil
}

// UnwireSlot clears a single input slot of a component.
func (m *ImplicitModel[T]) UnwireSlot(consumer string, slot int) error {
	slots, ok := m.inputs[consumer]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownComponent, consumer)
	}
	if slot < 0 || slot >= len(slots) {
		return fmt.Errorf("%w: slot %d of %q, arity %d", ErrArityMismatch, slot, consumer, len(slots))
	}
	slots[slot] = ""
	m.invalidate()
	return nil
}

// Remove deletes a component and clears every slot it feeds.
func (m *ImplicitModel[T]) Remove(name string) error {
	if _, ok := m.components[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	delete(m.components, name)
	delete(m.inputs, name)
	for i, n := range m.insertion {
		if n == name {
			m.insertion = append(m.insertion[:i], m.insertion[i+1:]...)
			break
		}
	}
	for _, slots := range m.inputs {
		for i, producer := range slots {
			if producer == name {
				slots[i] = ""
			}
		}
	}
	m.invalidate()
	return nil
}

// SetParameter assigns a typed parameter on a named component.
func (m *ImplicitModel[T]) SetParameter(name, param string, value Data[T]) error {
	c, err := m.Component(name)
	if err != nil {
		return err
	}
	return c.SetParameter(param, value)
}

// Edge is a directed producer-to-consumer link in the model.
type Edge struct {
	From string
	To   string
	Slot int
}

// Edges returns all wired edges, ordered by consumer insertion then slot.
func (m *ImplicitModel[T]) Edges() []Edge {
	var edges []Edge
	for _, consumer := range m.insertion {
		for slot, producer := range m.inputs[consumer] {
			if producer != "" {
				edges = append(edges, Edge{From: producer, To: consumer, Slot: slot})
			}
		}
	}
	return edges
}

// dependsOn reports whether start transitively depends on target through
// its wired inputs.
func (m *ImplicitModel[T]) dependsOn(start, target string) bool {
	if start == target {
		return true
	}
	visited := map[string]bool{}
	stack := []string{start}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[node] {
			continue
		}
		visited[node] = true
		for _, producer := range m.inputs[node] {
			if producer == "" {
				continue
			}
			if producer == target {
				return true
			}
			stack = append(stack, producer)
		}
	}
	return false
}

// reachable collects the transitive closure of producers feeding output,
// including output itself. Unbound slots are an error: the closure must be
// evaluable.
func (m *ImplicitModel[T]) reachable(output string) (map[string]bool, error) {
	if _, ok := m.components[output]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, output)
	}
	closure := map[string]bool{}
	stack := []string{output}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if closure[node] {
			continue
		}
		closure[node] = true
		for slot, producer := range m.inputs[node] {
			if producer == "" {
				return nil, fmt.Errorf("%w: slot %d of %q", ErrUnboundSlot, slot, node)
			}
			stack = append(stack, producer)
		}
	}
	return closure, nil
}

// TopologicalOrder returns the evaluation order for the transitive closure
// of the named output. The order is stable: ties between independent
// components resolve by insertion order. The result is cached until the
// next mutation.
func (m *ImplicitModel[T]) TopologicalOrder(output string) ([]string, error) {
	if cached, ok := m.orderCache[output]; ok {
		result := make([]string, len(cached))
		copy(result, cached)
		return result, nil
	}

	closure, err := m.reachable(output)
	if err != nil {
		return nil, err
	}

	inDegree := make(map[string]int, len(closure))
	dependents := make(map[string][]string, len(closure))
	for node := range closure {
		for _, producer := range m.inputs[node] {
			inDegree[node]++
			dependents[producer] = append(dependents[producer], node)
		}
	}

	// Kahn's algorithm, selecting ready nodes in insertion order.
	order := make([]string, 0, len(closure))
	ready := make([]string, 0, len(closure))
	for _, name := range m.insertion {
		if closure[name] && inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	position := make(map[string]int, len(m.insertion))
	for i, name := range m.insertion {
		position[name] = i
	}

	for len(ready) > 0 {
		// Pick the ready node with the smallest insertion index.
		best := 0
		for i := 1; i < len(ready); i++ {
			if position[ready[i]] < position[ready[best]] {
				best = i
			}
		}
		node := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, node)

		for _, dependent := range dependents[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(closure) {
		return nil, fmt.Errorf("%w: graph for %q is cyclic", ErrWouldCreateCycle, output)
	}

	cached := make([]string, len(order))
	copy(cached, order)
	m.orderCache[output] = cached
	return order, nil
}

// Compile flattens the transitive closure of output into a computation
// graph ready for repeated evaluation.
func (m *ImplicitModel[T]) Compile(output string) (*ComputationGraph[T], error) {
	order, err := m.TopologicalOrder(output)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling %q: %v", ErrEvaluationFailed, output, err)
	}

	index := make(map[string]int, len(order))
	for i, name := range order {
		index[name] = i
	}

	graph := newComputationGraph[T](len(order))
	for _, name := range order {
		slots := m.inputs[name]
		ids := make([]int, len(slots))
		for i, producer := range slots {
			ids[i] = index[producer]
		}
		graph.add(name, m.components[name], ids)
	}
	return graph, nil
}

// EvaluateAt evaluates the named output at a point. For repeated
// evaluation over many points, compile once and reuse an Evaluator.
func (m *ImplicitModel[T]) EvaluateAt(output string, x, y, z T) (T, error) {
	graph, err := m.Compile(output)
	if err != nil {
		return 0, err
	}
	return graph.Evaluator().EvaluateAt(x, y, z), nil
}

func (m *ImplicitModel[T]) invalidate() {
	clear(m.orderCache)
}

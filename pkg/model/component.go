// Package model implements the implicit model: a named directed acyclic
// graph of scalar field components which can be evaluated at any point in
// space. The three component kinds are functions (pure spatial fields),
// operations (pure combinations of upstream outputs) and constants.
package model

import (
	"fmt"

	"github.com/joelhi/imlet-go/pkg/geometry"
)

// Kind identifies the three component kinds of a model.
type Kind int

const (
	KindFunction Kind = iota
	KindOperation
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "Function"
	case KindOperation:
		return "Operation"
	case KindConstant:
		return "Constant"
	default:
		return "Unknown"
	}
}

// Parameterized is the shared surface of configurable components. Tags are
// stable strings used by the persistence registry.
type Parameterized[T geometry.Float] interface {
	// Tag returns the stable type identifier of the component.
	Tag() string
	// Parameters lists the settable parameters in a fixed order.
	Parameters() []Parameter
	// Parameter reads the current value of a named parameter.
	Parameter(name string) (Data[T], error)
	// SetParameter assigns a named parameter. Implementations reject
	// unknown names and mismatched types.
	SetParameter(name string, value Data[T]) error
}

// Function is a pure spatial field f(x, y, z). It depends only on the
// query point.
type Function[T geometry.Float] interface {
	Parameterized[T]
	Evaluate(x, y, z T) T
}

// Operation combines the outputs of upstream components. It depends only
// on its input values, never on the query point.
type Operation[T geometry.Float] interface {
	Parameterized[T]
	Evaluate(inputs []T) T
	// Inputs returns the ordered input slot names; its length is the arity.
	Inputs() []string
}

// constantTag is the registry tag for constant components.
const constantTag = "Constant"

// Component wraps one of the three component kinds behind the single
// Compute entry point used by the evaluation scheduler.
type Component[T geometry.Float] struct {
	kind      Kind
	constant  T
	function  Function[T]
	operation Operation[T]
}

// NewFunctionComponent wraps a function.
func NewFunctionComponent[T geometry.Float](f Function[T]) *Component[T] {
	return &Component[T]{kind: KindFunction, function: f}
}

// NewOperationComponent wraps an operation.
func NewOperationComponent[T geometry.Float](op Operation[T]) *Component[T] {
	return &Component[T]{kind: KindOperation, operation: op}
}

// NewConstantComponent wraps a constant value.
func NewConstantComponent[T geometry.Float](value T) *Component[T] {
	return &Component[T]{kind: KindConstant, constant: value}
}

// Kind returns the component kind.
func (c *Component[T]) Kind() Kind { return c.kind }

// Function returns the wrapped function, or nil for other kinds.
func (c *Component[T]) Function() Function[T] { return c.function }

// Operation returns the wrapped operation, or nil for other kinds.
func (c *Component[T]) Operation() Operation[T] { return c.operation }

// Compute evaluates the component. Functions read the coordinate and
// ignore inputs; operations read inputs and ignore the coordinate;
// constants ignore both. Compute never fails: domain errors inside
// operations resolve to documented fallback values, not NaN or Inf.
func (c *Component[T]) Compute(x, y, z T, inputs []T) T {
	switch c.kind {
	case KindConstant:
		return c.constant
	case KindFunction:
		return c.function.Evaluate(x, y, z)
	default:
		return c.operation.Evaluate(inputs)
	}
}

// InputNames returns the ordered input slot names. Functions and constants
// have none.
func (c *Component[T]) InputNames() []string {
	if c.kind == KindOperation {
		return c.operation.Inputs()
	}
	return nil
}

// Arity returns the number of input slots.
func (c *Component[T]) Arity() int {
	return len(c.InputNames())
}

// Tag returns the stable type tag used for serialization.
func (c *Component[T]) Tag() string {
	switch c.kind {
	case KindConstant:
		return constantTag
	case KindFunction:
		return c.function.Tag()
	default:
		return c.operation.Tag()
	}
}

// Parameters lists the component's parameters. Constants expose a single
// scalar parameter named Value.
func (c *Component[T]) Parameters() []Parameter {
	switch c.kind {
	case KindConstant:
		return []Parameter{{Name: "Value", Type: TypeScalar}}
	case KindFunction:
		return c.function.Parameters()
	default:
		return c.operation.Parameters()
	}
}

// Parameter reads a named parameter value.
func (c *Component[T]) Parameter(name string) (Data[T], error) {
	switch c.kind {
	case KindConstant:
		if name != "Value" {
			return Data[T]{}, fmt.Errorf("%w: %q on constant", ErrUnknownParameter, name)
		}
		return ScalarData(c.constant), nil
	case KindFunction:
		return c.function.Parameter(name)
	default:
		return c.operation.Parameter(name)
	}
}

// SetParameter assigns a named parameter value.
func (c *Component[T]) SetParameter(name string, value Data[T]) error {
	switch c.kind {
	case KindConstant:
		if name != "Value" {
			return fmt.Errorf("%w: %q on constant", ErrUnknownParameter, name)
		}
		v, ok := value.Scalar()
		if !ok {
			return fmt.Errorf("%w: parameter Value wants Scalar, got %v", ErrParameterTypeMismatch, value.Kind())
		}
		c.constant = v
		return nil
	case KindFunction:
		return c.function.SetParameter(name, value)
	default:
		return c.operation.SetParameter(name, value)
	}
}

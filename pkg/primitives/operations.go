package primitives

import (
	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
)

// divisorFloor bounds divisor magnitudes away from zero. Division by a
// smaller magnitude clamps the divisor to this value with the original
// sign, so results stay finite; a zero divisor is treated as positive.
const divisorFloor = 1e-9

func noParameters[T geometry.Float](tag, name string) (model.Data[T], error) {
	return model.Data[T]{}, unknownParam(tag, name)
}

// Add sums two inputs.
type Add[T geometry.Float] struct{}

func NewAdd[T geometry.Float]() Add[T] { return Add[T]{} }

func (Add[T]) Tag() string { return "Add" }
func (Add[T]) Inputs() []string { return []string{"A", "B"} }
func (Add[T]) Evaluate(inputs []T) T { return inputs[0] + inputs[1] }
func (Add[T]) Parameters() []model.Parameter { return nil }
func (Add[T]) Parameter(name string) (model.Data[T], error) {
	return noParameters[T]("Add", name)
}
func (Add[T]) SetParameter(name string, value model.Data[T]) error {
	return unknownParam("Add", name)
}

// Subtract computes A - B.
type Subtract[T geometry.Float] struct{}

func NewSubtract[T geometry.Float]() Subtract[T] { return Subtract[T]{} }

func (Subtract[T]) Tag() string { return "Subtract" }
func (Subtract[T]) Inputs() []string { return []string{"A", "B"} }
func (Subtract[T]) Evaluate(inputs []T) T { return inputs[0] - inputs[1] }
func (Subtract[T]) Parameters() []model.Parameter { return nil }
func (Subtract[T]) Parameter(name string) (model.Data[T], error) {
	return noParameters[T]("Subtract", name)
}
func (Subtract[T]) SetParameter(name string, value model.Data[T]) error {
	return unknownParam("Subtract", name)
}

// Multiply computes A * B.
type Multiply[T geometry.Float] struct{}

func NewMultiply[T geometry.Float]() Multiply[T] { return Multiply[T]{} }

func (Multiply[T]) Tag() string { return "Multiply" }
func (Multiply[T]) Inputs() []string { return []string{"A", "B"} }
func (Multiply[T]) Evaluate(inputs []T) T { return inputs[0] * inputs[1] }
func (Multiply[T]) Parameters() []model.Parameter { return nil }
func (Multiply[T]) Parameter(name string) (model.Data[T], error) {
	return noParameters[T]("Multiply", name)
}
func (Multiply[T]) SetParameter(name string, value model.Data[T]) error {
	return unknownParam("Multiply", name)
}

// Divide computes A / B. Divisors with magnitude below divisorFloor are
// clamped to it, keeping the result finite instead of propagating Inf or
// NaN downstream.
type Divide[T geometry.Float] struct{}

func NewDivide[T geometry.Float]() Divide[T] { return Divide[T]{} }

func (Divide[T]) Tag() string { return "Divide" }
func (Divide[T]) Inputs() []string { return []string{"A", "B"} }

func (Divide[T]) Evaluate(inputs []T) T {
	b := inputs[1]
	floor := T(divisorFloor)
	if b >= 0 && b < floor {
		b = floor
	} else if b < 0 && b > -floor {
		b = -floor
	}
	return inputs[0] / b
}

func (Divide[T]) Parameters() []model.Parameter { return nil }
func (Divide[T]) Parameter(name string) (model.Data[T], error) {
	return noParameters[T]("Divide", name)
}
func (Divide[T]) SetParameter(name string, value model.Data[T]) error {
	return unknownParam("Divide", name)
}

// Union is the boolean union of two distance fields: the minimum.
type Union[T geometry.Float] struct{}

func NewUnion[T geometry.Float]() Union[T] { return Union[T]{} }

func (Union[T]) Tag() string { return "Union" }
func (Union[T]) Inputs() []string { return []string{"A", "B"} }
func (Union[T]) Evaluate(inputs []T) T { return geometry.Min(inputs[0], inputs[1]) }
func (Union[T]) Parameters() []model.Parameter { return nil }
func (Union[T]) Parameter(name string) (model.Data[T], error) {
	return noParameters[T]("Union", name)
}
func (Union[T]) SetParameter(name string, value model.Data[T]) error {
	return unknownParam("Union", name)
}

// Intersection is the boolean intersection of two distance fields: the
// maximum.
type Intersection[T geometry.Float] struct{}

func NewIntersection[T geometry.Float]() Intersection[T] { return Intersection[T]{} }

func (Intersection[T]) Tag() string { return "Intersection" }
func (Intersection[T]) Inputs() []string { return []string{"A", "B"} }
func (Intersection[T]) Evaluate(inputs []T) T { return geometry.Max(inputs[0], inputs[1]) }
func (Intersection[T]) Parameters() []model.Parameter { return nil }
func (Intersection[T]) Parameter(name string) (model.Data[T], error) {
	return noParameters[T]("Intersection", name)
}
func (Intersection[T]) SetParameter(name string, value model.Data[T]) error {
	return unknownParam("Intersection", name)
}

// Difference subtracts the second solid from the first: max(A, -B).
type Difference[T geometry.Float] struct{}

func NewDifference[T geometry.Float]() Difference[T] { return Difference[T]{} }

func (Difference[T]) Tag() string { return "Difference" }
func (Difference[T]) Inputs() []string { return []string{"A", "B"} }
func (Difference[T]) Evaluate(inputs []T) T { return geometry.Max(inputs[0], -inputs[1]) }
func (Difference[T]) Parameters() []model.Parameter { return nil }
func (Difference[T]) Parameter(name string) (model.Data[T], error) {
	return noParameters[T]("Difference", name)
}
func (Difference[T]) SetParameter(name string, value model.Data[T]) error {
	return unknownParam("Difference", name)
}

// SmoothUnion blends two distance fields with a polynomial smoothing
// radius.
type SmoothUnion[T geometry.Float] struct {
	Smoothing T
}

// NewSmoothUnion creates a smooth union with the given blend radius.
func NewSmoothUnion[T geometry.Float](smoothing T) *SmoothUnion[T] {
	return &SmoothUnion[T]{Smoothing: smoothing}
}

func (s *SmoothUnion[T]) Tag() string { return "SmoothUnion" }
func (s *SmoothUnion[T]) Inputs() []string { return []string{"A", "B"} }

func (s *SmoothUnion[T]) Evaluate(inputs []T) T {
	a, b := inputs[0], inputs[1]
	k := s.Smoothing
	if k <= 0 {
		return geometry.Min(a, b)
	}
	h := geometry.Clamp(T(0.5)+T(0.5)*(b-a)/k, 0, 1)
	return b + h*(a-b) - k*h*(1-h)
}

func (s *SmoothUnion[T]) Parameters() []model.Parameter {
	return []model.Parameter{{Name: "Smoothing", Type: model.TypeScalar}}
}

func (s *SmoothUnion[T]) Parameter(name string) (model.Data[T], error) {
	if name == "Smoothing" {
		return model.ScalarData(s.Smoothing), nil
	}
	return model.Data[T]{}, unknownParam(s.Tag(), name)
}

func (s *SmoothUnion[T]) SetParameter(name string, value model.Data[T]) error {
	if model.ScalarParam(name, value, &s.Smoothing, "Smoothing") {
		return nil
	}
	return badParam(s.Tag(), name, value, s.Parameters())
}

// Offset shifts a distance field outward by a fixed amount, growing the
// solid.
type Offset[T geometry.Float] struct {
	Distance T
}

// NewOffset creates an offset operation.
func NewOffset[T geometry.Float](distance T) *Offset[T] {
	return &Offset[T]{Distance: distance}
}

func (o *Offset[T]) Tag() string { return "Offset" }
func (o *Offset[T]) Inputs() []string { return []string{"Field"} }
func (o *Offset[T]) Evaluate(inputs []T) T { return inputs[0] - o.Distance }

func (o *Offset[T]) Parameters() []model.Parameter {
	return []model.Parameter{{Name: "Distance", Type: model.TypeScalar}}
}

func (o *Offset[T]) Parameter(name string) (model.Data[T], error) {
	if name == "Distance" {
		return model.ScalarData(o.Distance), nil
	}
	return model.Data[T]{}, unknownParam(o.Tag(), name)
}

func (o *Offset[T]) SetParameter(name string, value model.Data[T]) error {
	if model.ScalarParam(name, value, &o.Distance, "Distance") {
		return nil
	}
	return badParam(o.Tag(), name, value, o.Parameters())
}

// Thickness turns a surface into a shell of the given thickness centered
// on the zero level set.
type Thickness[T geometry.Float] struct {
	Value T
}

// NewThickness creates a shell operation.
func NewThickness[T geometry.Float](value T) *Thickness[T] {
	return &Thickness[T]{Value: value}
}

func (t *Thickness[T]) Tag() string { return "Thickness" }
func (t *Thickness[T]) Inputs() []string { return []string{"Field"} }

func (t *Thickness[T]) Evaluate(inputs []T) T {
	return geometry.Abs(inputs[0]) - t.Value/2
}

func (t *Thickness[T]) Parameters() []model.Parameter {
	return []model.Parameter{{Name: "Thickness", Type: model.TypeScalar}}
}

func (t *Thickness[T]) Parameter(name string) (model.Data[T], error) {
	if name == "Thickness" {
		return model.ScalarData(t.Value), nil
	}
	return model.Data[T]{}, unknownParam(t.Tag(), name)
}

func (t *Thickness[T]) SetParameter(name string, value model.Data[T]) error {
	if model.ScalarParam(name, value, &t.Value, "Thickness") {
		return nil
	}
	return badParam(t.Tag(), name, value, t.Parameters())
}

// Lerp interpolates linearly between two inputs at a third input
// parameter, clamped to [0, 1].
type Lerp[T geometry.Float] struct{}

func NewLerp[T geometry.Float]() Lerp[T] { return Lerp[T]{} }

func (Lerp[T]) Tag() string { return "Lerp" }
func (Lerp[T]) Inputs() []string { return []string{"A", "B", "Parameter"} }

func (Lerp[T]) Evaluate(inputs []T) T {
	t := geometry.Clamp(inputs[2], 0, 1)
	return inputs[0] + t*(inputs[1]-inputs[0])
}

func (Lerp[T]) Parameters() []model.Parameter { return nil }
func (Lerp[T]) Parameter(name string) (model.Data[T], error) {
	return noParameters[T]("Lerp", name)
}
func (Lerp[T]) SetParameter(name string, value model.Data[T]) error {
	return unknownParam("Lerp", name)
}

// Clamp limits its input to the [Min, Max] interval.
type Clamp[T geometry.Float] struct {
	Min T
	Max T
}

// NewClamp creates a clamp operation.
func NewClamp[T geometry.Float](min, max T) *Clamp[T] {
	return &Clamp[T]{Min: min, Max: max}
}

func (c *Clamp[T]) Tag() string { return "Clamp" }
func (c *Clamp[T]) Inputs() []string { return []string{"Value"} }

func (c *Clamp[T]) Evaluate(inputs []T) T {
	return geometry.Clamp(inputs[0], c.Min, c.Max)
}

func (c *Clamp[T]) Parameters() []model.Parameter {
	return []model.Parameter{
		{Name: "Min", Type: model.TypeScalar},
		{Name: "Max", Type: model.TypeScalar},
	}
}

func (c *Clamp[T]) Parameter(name string) (model.Data[T], error) {
	switch name {
	case "Min":
		return model.ScalarData(c.Min), nil
	case "Max":
		return model.ScalarData(c.Max), nil
	}
	return model.Data[T]{}, unknownParam(c.Tag(), name)
}

func (c *Clamp[T]) SetParameter(name string, value model.Data[T]) error {
	if model.ScalarParam(name, value, &c.Min, "Min") ||
		model.ScalarParam(name, value, &c.Max, "Max") {
		return nil
	}
	return badParam(c.Tag(), name, value, c.Parameters())
}

// Remap maps an input from a source interval onto a target interval.
// A degenerate source interval maps everything to the target midpoint.
type Remap[T geometry.Float] struct {
	FromMin T
	FromMax T
	ToMin   T
	ToMax   T
}

// NewRemap creates a remap operation.
func NewRemap[T geometry.Float](fromMin, fromMax, toMin, toMax T) *Remap[T] {
	return &Remap[T]{FromMin: fromMin, FromMax: fromMax, ToMin: toMin, ToMax: toMax}
}

func (r *Remap[T]) Tag() string { return "Remap" }
func (r *Remap[T]) Inputs() []string { return []string{"Value"} }

func (r *Remap[T]) Evaluate(inputs []T) T {
	span := r.FromMax - r.FromMin
	if geometry.Abs(span) < T(divisorFloor) {
		return (r.ToMin + r.ToMax) / 2
	}
	t := (inputs[0] - r.FromMin) / span
	return r.ToMin + t*(r.ToMax-r.ToMin)
}

func (r *Remap[T]) Parameters() []model.Parameter {
	return []model.Parameter{
		{Name: "From Min", Type: model.TypeScalar},
		{Name: "From Max", Type: model.TypeScalar},
		{Name: "To Min", Type: model.TypeScalar},
		{Name: "To Max", Type: model.TypeScalar},
	}
}

func (r *Remap[T]) Parameter(name string) (model.Data[T], error) {
	switch name {
	case "From Min":
		return model.ScalarData(r.FromMin), nil
	case "From Max":
		return model.ScalarData(r.FromMax), nil
	case "To Min":
		return model.ScalarData(r.ToMin), nil
	case "To Max":
		return model.ScalarData(r.ToMax), nil
	}
	return model.Data[T]{}, unknownParam(r.Tag(), name)
}

func (r *Remap[T]) SetParameter(name string, value model.Data[T]) error {
	if model.ScalarParam(name, value, &r.FromMin, "From Min") ||
		model.ScalarParam(name, value, &r.FromMax, "From Max") ||
		model.ScalarParam(name, value, &r.ToMin, "To Min") ||
		model.ScalarParam(name, value, &r.ToMax, "To Max") {
		return nil
	}
	return badParam(r.Tag(), name, value, r.Parameters())
}

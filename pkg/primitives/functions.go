// Package primitives provides the standard library of implicit functions
// and operations: distance functions for simple solids, triply periodic
// minimal surfaces, coordinate reads, arithmetic and boolean operations,
// and adapters for external signed distance sources. All components carry
// stable tags; all but SDF3 register with the model persistence registry.
package primitives

import (
	"fmt"
	"math"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
)

// Sphere is the exact signed distance to a sphere surface. Negative
// inside.
type Sphere[T geometry.Float] struct {
	Center geometry.Vec3[T]
	Radius T
}

// NewSphere creates a sphere distance function.
func NewSphere[T geometry.Float](center geometry.Vec3[T], radius T) *Sphere[T] {
	return &Sphere[T]{Center: center, Radius: radius}
}

func (s *Sphere[T]) Tag() string { return "Sphere" }

func (s *Sphere[T]) Evaluate(x, y, z T) T {
	return geometry.NewVec3(x, y, z).DistanceTo(s.Center) - s.Radius
}

func (s *Sphere[T]) Parameters() []model.Parameter {
	return []model.Parameter{
		{Name: "Center", Type: model.TypeVec3},
		{Name: "Radius", Type: model.TypeScalar},
	}
}

func (s *Sphere[T]) Parameter(name string) (model.Data[T], error) {
	switch name {
	case "Center":
		return model.Vec3Data(s.Center), nil
	case "Radius":
		return model.ScalarData(s.Radius), nil
	}
	return model.Data[T]{}, unknownParam(s.Tag(), name)
}

func (s *Sphere[T]) SetParameter(name string, value model.Data[T]) error {
	if model.Vec3Param(name, value, &s.Center, "Center") ||
		model.ScalarParam(name, value, &s.Radius, "Radius") {
		return nil
	}
	return badParam(s.Tag(), name, value, s.Parameters())
}

// Torus is the signed distance to a torus around an axis through its
// center.
type Torus[T geometry.Float] struct {
	Center      geometry.Vec3[T]
	MajorRadius T
	MinorRadius T
}

// NewTorus creates a torus distance function with the ring in the
// xy-plane through center.
func NewTorus[T geometry.Float](center geometry.Vec3[T], major, minor T) *Torus[T] {
	return &Torus[T]{Center: center, MajorRadius: major, MinorRadius: minor}
}

func (t *Torus[T]) Tag() string { return "Torus" }

func (t *Torus[T]) Evaluate(x, y, z T) T {
	dx := x - t.Center.X
	dy := y - t.Center.Y
	dz := z - t.Center.Z
	ring := geometry.Sqrt(dx*dx+dy*dy) - t.MajorRadius
	return geometry.Sqrt(ring*ring+dz*dz) - t.MinorRadius
}

func (t *Torus[T]) Parameters() []model.Parameter {
	return []model.Parameter{
		{Name: "Center", Type: model.TypeVec3},
		{Name: "Major Radius", Type: model.TypeScalar},
		{Name: "Minor Radius", Type: model.TypeScalar},
	}
}

func (t *Torus[T]) Parameter(name string) (model.Data[T], error) {
	switch name {
	case "Center":
		return model.Vec3Data(t.Center), nil
	case "Major Radius":
		return model.ScalarData(t.MajorRadius), nil
	case "Minor Radius":
		return model.ScalarData(t.MinorRadius), nil
	}
	return model.Data[T]{}, unknownParam(t.Tag(), name)
}

func (t *Torus[T]) SetParameter(name string, value model.Data[T]) error {
	if model.Vec3Param(name, value, &t.Center, "Center") ||
		model.ScalarParam(name, value, &t.MajorRadius, "Major Radius") ||
		model.ScalarParam(name, value, &t.MinorRadius, "Minor Radius") {
		return nil
	}
	return badParam(t.Tag(), name, value, t.Parameters())
}

// BoxFunction is the signed distance to an axis-aligned box.
type BoxFunction[T geometry.Float] struct {
	Bounds geometry.BoundingBox[T]
}

// NewBoxFunction creates a box distance function.
func NewBoxFunction[T geometry.Float](bounds geometry.BoundingBox[T]) *BoxFunction[T] {
	return &BoxFunction[T]{Bounds: bounds}
}

func (b *BoxFunction[T]) Tag() string { return "Box" }

func (b *BoxFunction[T]) Evaluate(x, y, z T) T {
	c := b.Bounds.Centroid()
	hx := (b.Bounds.Max.X - b.Bounds.Min.X) / 2
	hy := (b.Bounds.Max.Y - b.Bounds.Min.Y) / 2
	hz := (b.Bounds.Max.Z - b.Bounds.Min.Z) / 2

	qx := geometry.Abs(x-c.X) - hx
	qy := geometry.Abs(y-c.Y) - hy
	qz := geometry.Abs(z-c.Z) - hz

	ox := geometry.Max(qx, 0)
	oy := geometry.Max(qy, 0)
	oz := geometry.Max(qz, 0)
	outside := geometry.Sqrt(ox*ox + oy*oy + oz*oz)
	inside := geometry.Min(geometry.Max(qx, geometry.Max(qy, qz)), 0)
	return outside + inside
}

func (b *BoxFunction[T]) Parameters() []model.Parameter {
	return []model.Parameter{{Name: "Bounds", Type: model.TypeBounds}}
}

func (b *BoxFunction[T]) Parameter(name string) (model.Data[T], error) {
	if name == "Bounds" {
		return model.BoundsData(b.Bounds), nil
	}
	return model.Data[T]{}, unknownParam(b.Tag(), name)
}

func (b *BoxFunction[T]) SetParameter(name string, value model.Data[T]) error {
	if v, ok := value.Bounds(); ok && name == "Bounds" {
		b.Bounds = v
		return nil
	}
	return badParam(b.Tag(), name, value, b.Parameters())
}

// CoordinateValue reads one coordinate of the query point, useful for
// slicing fields and for tests.
type CoordinateValue[T geometry.Float] struct {
	Axis string
}

var coordinateAxes = []string{"X", "Y", "Z"}

// NewCoordinateValue creates a coordinate function for axis "X", "Y" or
// "Z".
func NewCoordinateValue[T geometry.Float](axis string) (*CoordinateValue[T], error) {
	for _, a := range coordinateAxes {
		if axis == a {
			return &CoordinateValue[T]{Axis: axis}, nil
		}
	}
	return nil, fmt.Errorf("%w: axis %q", model.ErrParameterOutOfRange, axis)
}

func (c *CoordinateValue[T]) Tag() string { return "CoordinateValue" }

func (c *CoordinateValue[T]) Evaluate(x, y, z T) T {
	switch c.Axis {
	case "X":
		return x
	case "Y":
		return y
	default:
		return z
	}
}

func (c *CoordinateValue[T]) Parameters() []model.Parameter {
	return []model.Parameter{{Name: "Axis", Type: model.TypeEnum, Options: coordinateAxes}}
}

func (c *CoordinateValue[T]) Parameter(name string) (model.Data[T], error) {
	if name == "Axis" {
		return model.EnumData[T](c.Axis), nil
	}
	return model.Data[T]{}, unknownParam(c.Tag(), name)
}

func (c *CoordinateValue[T]) SetParameter(name string, value model.Data[T]) error {
	v, ok := value.Text()
	if !ok || name != "Axis" {
		return badParam(c.Tag(), name, value, c.Parameters())
	}
	for _, a := range coordinateAxes {
		if v == a {
			c.Axis = v
			return nil
		}
	}
	return fmt.Errorf("%w: axis %q", model.ErrParameterOutOfRange, v)
}

func unknownParam(tag, name string) error {
	return fmt.Errorf("%w: %q on %s", model.ErrUnknownParameter, name, tag)
}

func badParam[T geometry.Float](tag, name string, value model.Data[T], params []model.Parameter) error {
	for _, p := range params {
		if p.Name == name {
			return fmt.Errorf("%w: parameter %q of %s wants %v, got %v",
				model.ErrParameterTypeMismatch, name, tag, p.Type, value.Kind())
		}
	}
	return unknownParam(tag, name)
}

func sin[T geometry.Float](v T) T { return T(math.Sin(float64(v))) }
func cos[T geometry.Float](v T) T { return T(math.Cos(float64(v))) }
func asin[T geometry.Float](v T) T {
	return T(math.Asin(float64(geometry.Clamp(v, -1, 1))))
}

func pi[T geometry.Float]() T { return T(math.Pi) }

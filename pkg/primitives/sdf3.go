package primitives

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
)

// SDF3 adapts a solid from the sdfx CAD library as an implicit function,
// so models can incorporate sdfx primitives, transforms and booleans
// directly. sdfx evaluates in double precision; values convert to the
// model's scalar type.
//
// The wrapped solid is code, not data: SDF3 components have no parameters
// and are not registered for persistence.
type SDF3[T geometry.Float] struct {
	solid sdf.SDF3
}

// FromSDF3 wraps an sdfx solid.
func FromSDF3[T geometry.Float](solid sdf.SDF3) *SDF3[T] {
	return &SDF3[T]{solid: solid}
}

// Bounds returns the bounding box reported by the wrapped solid.
func (s *SDF3[T]) Bounds() geometry.BoundingBox[T] {
	bb := s.solid.BoundingBox()
	return geometry.BoundingBox[T]{
		Min: geometry.NewVec3(T(bb.Min.X), T(bb.Min.Y), T(bb.Min.Z)),
		Max: geometry.NewVec3(T(bb.Max.X), T(bb.Max.Y), T(bb.Max.Z)),
	}
}

func (s *SDF3[T]) Tag() string { return "SDF3" }

func (s *SDF3[T]) Evaluate(x, y, z T) T {
	if s.solid == nil {
		return farField[T]()
	}
	return T(s.solid.Evaluate(v3.Vec{X: float64(x), Y: float64(y), Z: float64(z)}))
}

func (s *SDF3[T]) Parameters() []model.Parameter { return nil }

func (s *SDF3[T]) Parameter(name string) (model.Data[T], error) {
	return model.Data[T]{}, unknownParam(s.Tag(), name)
}

func (s *SDF3[T]) SetParameter(name string, value model.Data[T]) error {
	return unknownParam(s.Tag(), name)
}

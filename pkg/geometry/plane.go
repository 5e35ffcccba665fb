package geometry

import "fmt"

// Plane is an infinite plane described by an origin point and a unit normal.
type Plane[T Float] struct {
	Origin Vec3[T]
	Normal Vec3[T]
}

// NewPlane creates a plane from an origin and a normal. The normal is
// normalized; a zero normal is an error.
func NewPlane[T Float](origin, normal Vec3[T]) (Plane[T], error) {
	n, err := normal.Normalized()
	if err != nil {
		return Plane[T]{}, fmt.Errorf("invalid plane: %w", err)
	}
	return Plane[T]{Origin: origin, Normal: n}, nil
}

// XYPlane returns the z=elevation plane with a +z normal.
func XYPlane[T Float](elevation T) Plane[T] {
	return Plane[T]{
		Origin: Vec3[T]{0, 0, elevation},
		Normal: Vec3[T]{0, 0, 1},
	}
}

// SignedDistanceTo returns the signed distance from p to the plane.
// Points on the normal side are positive.
func (pl Plane[T]) SignedDistanceTo(p Vec3[T]) T {
	return p.Sub(pl.Origin).Dot(pl.Normal)
}

// Project returns the orthogonal projection of p onto the plane.
func (pl Plane[T]) Project(p Vec3[T]) Vec3[T] {
	return p.Sub(pl.Normal.Scale(pl.SignedDistanceTo(p)))
}

package geometry

import (
	"fmt"
)

// BoundingBox is an axis-aligned box described by its minimum and maximum
// corners. A valid box satisfies min <= max on every axis; empty boxes are
// rejected at construction.
type BoundingBox[T Float] struct {
	Min Vec3[T] `json:"min"`
	Max Vec3[T] `json:"max"`
}

// NewBoundingBox creates a bounding box from its min and max corners.
// Returns an error if min exceeds max on any axis.
func NewBoundingBox[T Float](min, max Vec3[T]) (BoundingBox[T], error) {
	if min.X > max.X || min.Y > max.Y || min.Z > max.Z {
		return BoundingBox[T]{}, fmt.Errorf("invalid bounds: min %v exceeds max %v", min, max)
	}
	return BoundingBox[T]{Min: min, Max: max}, nil
}

// MustBoundingBox creates a bounding box and panics on invalid corners.
// Intended for literal boxes in tests and examples.
func MustBoundingBox[T Float](min, max Vec3[T]) BoundingBox[T] {
	b, err := NewBoundingBox(min, max)
	if err != nil {
		panic(err)
	}
	return b
}

// BoundsFromPoints computes the tight bounding box of a point set.
func BoundsFromPoints[T Float](points []Vec3[T]) (BoundingBox[T], error) {
	if len(points) == 0 {
		return BoundingBox[T]{}, fmt.Errorf("invalid bounds: no points")
	}
	min, max := points[0], points[0]
	for _, p := range points[1:] {
		min.X = Min(min.X, p.X)
		min.Y = Min(min.Y, p.Y)
		min.Z = Min(min.Z, p.Z)
		max.X = Max(max.X, p.X)
		max.Y = Max(max.Y, p.Y)
		max.Z = Max(max.Z, p.Z)
	}
	return BoundingBox[T]{Min: min, Max: max}, nil
}

// Dimensions returns the box extent along each axis.
func (b BoundingBox[T]) Dimensions() (T, T, T) {
	return b.Max.X - b.Min.X, b.Max.Y - b.Min.Y, b.Max.Z - b.Min.Z
}

// Centroid returns the center point of the box.
func (b BoundingBox[T]) Centroid() Vec3[T] {
	return Vec3[T]{
		(b.Min.X + b.Max.X) / 2,
		(b.Min.Y + b.Max.Y) / 2,
		(b.Min.Z + b.Max.Z) / 2,
	}
}

// Contains reports whether p lies inside or on the boundary of the box.
func (b BoundingBox[T]) Contains(p Vec3[T]) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects reports whether the two boxes overlap.
func (b BoundingBox[T]) Intersects(o BoundingBox[T]) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Offset grows the box by d on all sides. A negative d shrinks it; the
// result is clamped so min never exceeds max.
func (b BoundingBox[T]) Offset(d T) BoundingBox[T] {
	off := Vec3[T]{d, d, d}
	min := b.Min.Sub(off)
	max := b.Max.Add(off)
	c := b.Centroid()
	if min.X > max.X {
		min.X, max.X = c.X, c.X
	}
	if min.Y > max.Y {
		min.Y, max.Y = c.Y, c.Y
	}
	if min.Z > max.Z {
		min.Z, max.Z = c.Z, c.Z
	}
	return BoundingBox[T]{Min: min, Max: max}
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox[T]) Union(o BoundingBox[T]) BoundingBox[T] {
	return BoundingBox[T]{
		Min: Vec3[T]{Min(b.Min.X, o.Min.X), Min(b.Min.Y, o.Min.Y), Min(b.Min.Z, o.Min.Z)},
		Max: Vec3[T]{Max(b.Max.X, o.Max.X), Max(b.Max.Y, o.Max.Y), Max(b.Max.Z, o.Max.Z)},
	}
}

// ExpandToContain grows the box just enough to contain p.
func (b BoundingBox[T]) ExpandToContain(p Vec3[T]) BoundingBox[T] {
	return BoundingBox[T]{
		Min: Vec3[T]{Min(b.Min.X, p.X), Min(b.Min.Y, p.Y), Min(b.Min.Z, p.Z)},
		Max: Vec3[T]{Max(b.Max.X, p.X), Max(b.Max.Y, p.Y), Max(b.Max.Z, p.Z)},
	}
}

// Corners returns the eight corner points of the box. The ordering follows
// the marching cubes convention: the bottom face counter-clockwise starting
// at min, then the top face in the same order.
func (b BoundingBox[T]) Corners() [8]Vec3[T] {
	return [8]Vec3[T]{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
	}
}

// HalfDiagonal returns half the length of the box diagonal, the largest
// distance from the centroid to any point in the box.
func (b BoundingBox[T]) HalfDiagonal() T {
	return b.Min.DistanceTo(b.Max) / 2
}

// DistanceTo returns the distance from p to the closest point of the box,
// or zero when p is inside.
func (b BoundingBox[T]) DistanceTo(p Vec3[T]) T {
	dx := Max(Max(b.Min.X-p.X, 0), p.X-b.Max.X)
	dy := Max(Max(b.Min.Y-p.Y, 0), p.Y-b.Max.Y)
	dz := Max(Max(b.Min.Z-p.Z, 0), p.Z-b.Max.Z)
	return Sqrt(dx*dx + dy*dy + dz*dz)
}

// PointAt maps integer grid coordinates to a world point, with the grid
// origin at the box min corner and spacing cellSize.
func (b BoundingBox[T]) PointAt(i, j, k int, cellSize T) Vec3[T] {
	return Vec3[T]{
		b.Min.X + T(i)*cellSize,
		b.Min.Y + T(j)*cellSize,
		b.Min.Z + T(k)*cellSize,
	}
}

func (b BoundingBox[T]) String() string {
	return fmt.Sprintf("[%v .. %v]", b.Min, b.Max)
}

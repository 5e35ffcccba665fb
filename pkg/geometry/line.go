package geometry

// Line is a finite segment between two points.
type Line[T Float] struct {
	Start Vec3[T]
	End   Vec3[T]
}

// NewLine creates a segment from start to end.
func NewLine[T Float](start, end Vec3[T]) Line[T] {
	return Line[T]{Start: start, End: end}
}

// Length returns the segment length.
func (l Line[T]) Length() T {
	return l.Start.DistanceTo(l.End)
}

// Direction returns the unnormalized direction vector of the segment.
func (l Line[T]) Direction() Vec3[T] {
	return l.End.Sub(l.Start)
}

// PointAt returns the point at parameter t, where 0 maps to the start and
// 1 to the end.
func (l Line[T]) PointAt(t T) Vec3[T] {
	return Lerp(l.Start, l.End, t)
}

// ClosestParameter returns the parameter of the point on the segment
// closest to p, clamped to [0, 1].
func (l Line[T]) ClosestParameter(p Vec3[T]) T {
	d := l.Direction()
	den := d.NormSq()
	if den == 0 {
		return 0
	}
	return Clamp(p.Sub(l.Start).Dot(d)/den, 0, 1)
}

// ClosestPoint returns the point on the segment closest to p.
func (l Line[T]) ClosestPoint(p Vec3[T]) Vec3[T] {
	return l.PointAt(l.ClosestParameter(p))
}

// DistanceTo returns the distance from p to the segment.
func (l Line[T]) DistanceTo(p Vec3[T]) T {
	return l.ClosestPoint(p).DistanceTo(p)
}

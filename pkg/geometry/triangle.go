package geometry

// Triangle is a triangle defined by three corner points.
type Triangle[T Float] struct {
	P1 Vec3[T]
	P2 Vec3[T]
	P3 Vec3[T]
}

// NewTriangle creates a triangle from its three corners.
func NewTriangle[T Float](p1, p2, p3 Vec3[T]) Triangle[T] {
	return Triangle[T]{P1: p1, P2: p2, P3: p3}
}

// Normal returns the unnormalized face normal following the winding order.
func (t Triangle[T]) Normal() Vec3[T] {
	return t.P2.Sub(t.P1).Cross(t.P3.Sub(t.P1))
}

// Area returns the triangle area.
func (t Triangle[T]) Area() T {
	return t.Normal().Norm() / 2
}

// Centroid returns the average of the three corners.
func (t Triangle[T]) Centroid() Vec3[T] {
	return Vec3[T]{
		(t.P1.X + t.P2.X + t.P3.X) / 3,
		(t.P1.Y + t.P2.Y + t.P3.Y) / 3,
		(t.P1.Z + t.P2.Z + t.P3.Z) / 3,
	}
}

// Bounds returns the tight bounding box of the triangle.
func (t Triangle[T]) Bounds() BoundingBox[T] {
	b, _ := BoundsFromPoints([]Vec3[T]{t.P1, t.P2, t.P3})
	return b
}

// TriangleFeature classifies where on a triangle a closest point lies.
type TriangleFeature int

const (
	FeatureFace TriangleFeature = iota
	FeatureEdge12
	FeatureEdge23
	FeatureEdge31
	FeatureVertex1
	FeatureVertex2
	FeatureVertex3
)

// ClosestPoint returns the point on the triangle closest to p and the
// feature (face, edge or vertex) it lies on. Based on the barycentric
// region classification from Ericson, Real-Time Collision Detection.
func (t Triangle[T]) ClosestPoint(p Vec3[T]) (Vec3[T], TriangleFeature) {
	ab := t.P2.Sub(t.P1)
	ac := t.P3.Sub(t.P1)
	ap := p.Sub(t.P1)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return t.P1, FeatureVertex1
	}

	bp := p.Sub(t.P2)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return t.P2, FeatureVertex2
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return t.P1.Add(ab.Scale(v)), FeatureEdge12
	}

	cp := p.Sub(t.P3)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return t.P3, FeatureVertex3
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return t.P1.Add(ac.Scale(w)), FeatureEdge31
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return t.P2.Add(t.P3.Sub(t.P2).Scale(w)), FeatureEdge23
	}

	den := 1 / (va + vb + vc)
	v := vb * den
	w := vc * den
	return t.P1.Add(ab.Scale(v)).Add(ac.Scale(w)), FeatureFace
}

// DistanceTo returns the distance from p to the triangle.
func (t Triangle[T]) DistanceTo(p Vec3[T]) T {
	cp, _ := t.ClosestPoint(p)
	return cp.DistanceTo(p)
}

// AngleAt returns the interior angle at corner index 0, 1 or 2.
func (t Triangle[T]) AngleAt(corner int) T {
	switch corner {
	case 0:
		return t.P2.Sub(t.P1).AngleTo(t.P3.Sub(t.P1))
	case 1:
		return t.P1.Sub(t.P2).AngleTo(t.P3.Sub(t.P2))
	default:
		return t.P1.Sub(t.P3).AngleTo(t.P2.Sub(t.P3))
	}
}

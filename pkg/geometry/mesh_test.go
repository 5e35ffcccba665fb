package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitQuadTriangles returns two triangles sharing the diagonal of the unit
// quad in the xy-plane.
func unitQuadTriangles() []Triangle[float64] {
	a := NewVec3(0.0, 0.0, 0.0)
	b := NewVec3(1.0, 0.0, 0.0)
	c := NewVec3(1.0, 1.0, 0.0)
	d := NewVec3(0.0, 1.0, 0.0)
	return []Triangle[float64]{
		NewTriangle(a, b, c),
		NewTriangle(a, c, d),
	}
}

func TestFromTrianglesWeldsSharedVertices(t *testing.T) {
	mesh := FromTriangles(unitQuadTriangles(), 1e-6, false)

	assert.Equal(t, 4, mesh.NumVertices(), "shared corners should weld")
	assert.Equal(t, 2, mesh.NumFaces())
	require.NoError(t, mesh.Validate())
}

func TestFromTrianglesDropsDegenerate(t *testing.T) {
	p := NewVec3(0.0, 0.0, 0.0)
	q := NewVec3(1.0, 0.0, 0.0)
	tris := []Triangle[float64]{
		NewTriangle(p, q, q), // collapses after welding
	}
	mesh := FromTriangles(tris, 1e-6, false)
	assert.Equal(t, 0, mesh.NumFaces())
}

func TestFromTrianglesWeldTolerance(t *testing.T) {
	eps := 1e-7
	a := NewVec3(0.0, 0.0, 0.0)
	b := NewVec3(1.0, 0.0, 0.0)
	c := NewVec3(0.0, 1.0, 0.0)
	// Second triangle shares an edge, but its copy of b is perturbed by
	// less than the weld tolerance.
	bNear := NewVec3(1.0+eps, 0.0, 0.0)
	d := NewVec3(1.0, 1.0, 0.0)

	mesh := FromTriangles([]Triangle[float64]{
		NewTriangle(a, b, c),
		NewTriangle(bNear, d, c),
	}, 1e-4, false)

	assert.Equal(t, 4, mesh.NumVertices())
}

func TestComputeVertexNormalsFlatQuad(t *testing.T) {
	mesh := FromTriangles(unitQuadTriangles(), 1e-6, true)
	require.Len(t, mesh.Normals(), mesh.NumVertices())

	for i, n := range mesh.Normals() {
		assert.InDelta(t, 0.0, n.X, 1e-12, "vertex %d", i)
		assert.InDelta(t, 0.0, n.Y, 1e-12, "vertex %d", i)
		assert.InDelta(t, 1.0, n.Z, 1e-12, "vertex %d", i)
	}
}

func TestMeshValidateRejectsOutOfRange(t *testing.T) {
	mesh := NewMesh[float64]()
	mesh.AddVertices(NewVec3(0.0, 0.0, 0.0), NewVec3(1.0, 0.0, 0.0))
	mesh.AddFaces([3]int{0, 1, 2})
	assert.Error(t, mesh.Validate())
}

func TestMeshBoundsAndCentroid(t *testing.T) {
	mesh := FromTriangles(unitQuadTriangles(), 1e-6, false)

	bounds, err := mesh.Bounds()
	require.NoError(t, err)
	assert.Equal(t, NewVec3(0.0, 0.0, 0.0), bounds.Min)
	assert.Equal(t, NewVec3(1.0, 1.0, 0.0), bounds.Max)

	c := mesh.Centroid()
	assert.InDelta(t, 0.5, c.X, 1e-12)
	assert.InDelta(t, 0.5, c.Y, 1e-12)
}

func TestEdgeFaceCounts(t *testing.T) {
	mesh := FromTriangles(unitQuadTriangles(), 1e-6, false)
	counts := mesh.EdgeFaceCounts()

	shared := 0
	for _, c := range counts {
		if c == 2 {
			shared++
		}
		assert.LessOrEqual(t, c, 2)
	}
	assert.Equal(t, 1, shared, "exactly the diagonal should be shared")
}

func TestTriangleClosestPointFeatures(t *testing.T) {
	tri := NewTriangle(
		NewVec3(0.0, 0.0, 0.0),
		NewVec3(2.0, 0.0, 0.0),
		NewVec3(0.0, 2.0, 0.0),
	)

	cp, feature := tri.ClosestPoint(NewVec3(0.5, 0.5, 1.0))
	assert.Equal(t, FeatureFace, feature)
	assert.InDelta(t, 1.0, cp.DistanceTo(NewVec3(0.5, 0.5, 1.0)), 1e-12)

	_, feature = tri.ClosestPoint(NewVec3(-1.0, -1.0, 0.0))
	assert.Equal(t, FeatureVertex1, feature)

	cp, feature = tri.ClosestPoint(NewVec3(1.0, -1.0, 0.0))
	assert.Equal(t, FeatureEdge12, feature)
	assert.Equal(t, NewVec3(1.0, 0.0, 0.0), cp)
}

func TestTriangleAreaAndNormal(t *testing.T) {
	tri := NewTriangle(
		NewVec3(0.0, 0.0, 0.0),
		NewVec3(1.0, 0.0, 0.0),
		NewVec3(0.0, 1.0, 0.0),
	)
	assert.InDelta(t, 0.5, tri.Area(), 1e-12)

	n, err := tri.Normal().Normalized()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, n.Z, 1e-12)
}

func TestPlaneSignedDistance(t *testing.T) {
	pl := XYPlane(1.0)
	assert.InDelta(t, 1.0, pl.SignedDistanceTo(NewVec3(3.0, -2.0, 2.0)), 1e-12)
	assert.InDelta(t, -1.0, pl.SignedDistanceTo(NewVec3(0.0, 0.0, 0.0)), 1e-12)
}

func TestLineClosestPoint(t *testing.T) {
	l := NewLine(NewVec3(0.0, 0.0, 0.0), NewVec3(2.0, 0.0, 0.0))

	cp := l.ClosestPoint(NewVec3(1.0, 1.0, 0.0))
	assert.Equal(t, NewVec3(1.0, 0.0, 0.0), cp)

	// Beyond the end the parameter clamps.
	cp = l.ClosestPoint(NewVec3(5.0, 1.0, 0.0))
	assert.Equal(t, NewVec3(2.0, 0.0, 0.0), cp)

	assert.InDelta(t, math.Sqrt2, l.DistanceTo(NewVec3(3.0, 1.0, 0.0)), 1e-12)
}

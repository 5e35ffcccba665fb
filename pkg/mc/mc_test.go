package mc

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/joelhi/imlet-go/pkg/field"
	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// planeField builds a 2x2x2-corner field with the bottom corners at +1
// and the top corners at -1: the zero level set is the z=0.5 plane.
func planeField(t *testing.T) *field.DenseField[float64] {
	t.Helper()
	f, err := field.NewDenseField(geometry.Origin[float64](), 1.0, 2, 2, 2)
	require.NoError(t, err)
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			f.Set(i, j, 0, 1.0)
			f.Set(i, j, 1, -1.0)
		}
	}
	return f
}

func sphereField(t *testing.T, cellSize float64) (*field.DenseField[float64], geometry.Vec3[float64], float64) {
	t.Helper()
	center := geometry.NewVec3(5.0, 5.0, 5.0)
	radius := 4.0
	bounds := geometry.MustBoundingBox(geometry.Origin[float64](), geometry.NewVec3(10.0, 10.0, 10.0))
	f, err := field.DenseFromBounds(bounds, cellSize)
	require.NoError(t, err)
	f.Fill(func(x, y, z float64) float64 {
		return geometry.NewVec3(x, y, z).DistanceTo(center) - radius
	})
	return f, center, radius
}

func TestSingleCellPlane(t *testing.T) {
	tris := GenerateIsoSurface[float64](planeField(t), 0.0)
	require.Len(t, tris, 2)
	for _, tri := range tris {
		assert.InDelta(t, 0.5, tri.P1.Z, 1e-12)
		assert.InDelta(t, 0.5, tri.P2.Z, 1e-12)
		assert.InDelta(t, 0.5, tri.P3.Z, 1e-12)
		assert.InDelta(t, 0.5, tri.Area(), 1e-12)
	}
}

func TestEmptyCellsProduceNothing(t *testing.T) {
	f, err := field.NewDenseField(geometry.Origin[float64](), 1.0, 2, 2, 2)
	require.NoError(t, err)
	// All corners on the same side: no triangles, no crash.
	for k := 0; k < 2; k++ {
		for j := 0; j < 2; j++ {
			for i := 0; i < 2; i++ {
				f.Set(i, j, k, 1.0)
			}
		}
	}
	assert.Empty(t, GenerateIsoSurface[float64](f, 0.0))
}

func TestIsoTieBreak(t *testing.T) {
	// One corner exactly at the iso-value must not set its inside bit.
	values := [8]float64{0, 1, 1, 1, 1, 1, 1, 1}
	assert.Equal(t, 0, classify(values, 0.0))

	values[0] = -0.5
	assert.Equal(t, 1, classify(values, 0.0))
}

func TestDegenerateEdgeMidpoint(t *testing.T) {
	a := geometry.NewVec3(0.0, 0.0, 0.0)
	b := geometry.NewVec3(2.0, 0.0, 0.0)
	v := interpolateEdge(a, b, 1e-12, -1e-12, 0.0, 1e-7)
	assert.Equal(t, geometry.NewVec3(1.0, 0.0, 0.0), v)
}

func TestInterpolationClamped(t *testing.T) {
	a := geometry.NewVec3(0.0, 0.0, 0.0)
	b := geometry.NewVec3(1.0, 0.0, 0.0)
	// Iso outside the value range still lands inside [a, b].
	v := interpolateEdge(a, b, 1.0, 2.0, 0.0, 1e-9)
	assert.GreaterOrEqual(t, v.X, 0.0)
	assert.LessOrEqual(t, v.X, 1.0)
}

func TestSphereVertexDistances(t *testing.T) {
	cellSize := 0.5
	f, center, radius := sphereField(t, cellSize)

	tris := GenerateIsoSurface[float64](f, 0.0)
	require.NotEmpty(t, tris)

	// Every vertex lies within one cell diagonal of the sphere.
	limit := cellSize * math.Sqrt(3)
	for _, tri := range tris {
		for _, p := range []geometry.Vec3[float64]{tri.P1, tri.P2, tri.P3} {
			err := math.Abs(p.DistanceTo(center) - radius)
			assert.LessOrEqual(t, err, limit)
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	f, _, _ := sphereField(t, 0.5)

	seq := GenerateIsoSurface[float64](f, 0.0)
	par, err := GenerateIsoSurfaceParallel(context.Background(), f, 0.0)
	require.NoError(t, err)

	require.Equal(t, len(seq), len(par))
	for i := range seq {
		assert.Equal(t, seq[i], par[i], "triangle %d", i)
	}
}

func TestIndexedSharedVertices(t *testing.T) {
	f, center, radius := sphereField(t, 0.5)

	mesh, err := GenerateIndexedIsoSurface[float64](context.Background(), f, 0.0)
	require.NoError(t, err)
	require.NoError(t, mesh.Validate())
	require.NotZero(t, mesh.NumFaces())

	// The triangle soup has three corners per triangle; the indexed mesh
	// must share them. A closed triangulated surface has roughly half as
	// many vertices as faces.
	soup := GenerateIsoSurface[float64](f, 0.0)
	assert.Equal(t, len(soup), mesh.NumFaces())
	assert.Less(t, mesh.NumVertices(), len(soup)*3/2)

	// Shared edges reuse vertices, so coincident positions are rare:
	// only corners lying exactly on the iso-value can appear from more
	// than one edge.
	seen := make(map[geometry.Vec3[float64]]int, mesh.NumVertices())
	duplicates := 0
	for _, v := range mesh.Vertices() {
		if seen[v] > 0 {
			duplicates++
		}
		seen[v]++
	}
	assert.Less(t, duplicates, 16)

	// Manifold: no edge is shared by more than two faces.
	for edge, count := range mesh.EdgeFaceCounts() {
		assert.LessOrEqual(t, count, 2, "edge %v", edge)
	}

	for _, p := range mesh.Vertices() {
		err := math.Abs(p.DistanceTo(center) - radius)
		assert.LessOrEqual(t, err, 0.5*math.Sqrt(3))
	}
}

func TestExtractionCancelled(t *testing.T) {
	f, _, _ := sphereField(t, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tris, err := GenerateIsoSurfaceParallel(ctx, f, 0.0)
	assert.True(t, errors.Is(err, model.ErrCancelled), "err = %v", err)
	assert.Nil(t, tris)

	mesh, err := GenerateIndexedIsoSurface[float64](ctx, f, 0.0)
	assert.True(t, errors.Is(err, model.ErrCancelled), "err = %v", err)
	assert.Nil(t, mesh)
}

func TestNormalsFromField(t *testing.T) {
	f, center, _ := sphereField(t, 0.5)
	bounds := geometry.MustBoundingBox(geometry.Origin[float64](), geometry.NewVec3(10.0, 10.0, 10.0))

	mesh, err := GenerateIndexedIsoSurface[float64](context.Background(), f, 0.0)
	require.NoError(t, err)
	NormalsFromField(mesh, func(x, y, z float64) float64 {
		return geometry.NewVec3(x, y, z).DistanceTo(center) - 4.0
	}, bounds, 0.25)

	require.Len(t, mesh.Normals(), mesh.NumVertices())
	for vi, n := range mesh.Normals() {
		radial, err := mesh.Vertices()[vi].Sub(center).Normalized()
		require.NoError(t, err)
		assert.InDelta(t, 1.0, n.Dot(radial), 0.05, "vertex %d", vi)
	}
}

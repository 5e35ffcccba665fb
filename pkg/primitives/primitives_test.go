package primitives

import (
	"math"
	"testing"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphereDistance(t *testing.T) {
	s := NewSphere(geometry.Origin[float64](), 1.0)

	assert.InDelta(t, -1.0, s.Evaluate(0, 0, 0), 1e-12)
	assert.InDelta(t, 0.0, s.Evaluate(1, 0, 0), 1e-12)
	assert.InDelta(t, 0.5, s.Evaluate(0, 1.5, 0), 1e-12)
}

func TestSphereParameters(t *testing.T) {
	s := NewSphere(geometry.Origin[float64](), 1.0)

	require.NoError(t, s.SetParameter("Radius", model.ScalarData(4.0)))
	require.NoError(t, s.SetParameter("Center", model.Vec3Data(geometry.NewVec3(1.0, 0.0, 0.0))))
	assert.InDelta(t, -4.0, s.Evaluate(1, 0, 0), 1e-12)

	err := s.SetParameter("Radius", model.BoolData[float64](true))
	assert.ErrorIs(t, err, model.ErrParameterTypeMismatch)

	err = s.SetParameter("Missing", model.ScalarData(1.0))
	assert.ErrorIs(t, err, model.ErrUnknownParameter)

	v, err := s.Parameter("Radius")
	require.NoError(t, err)
	r, ok := v.Scalar()
	assert.True(t, ok)
	assert.Equal(t, 4.0, r)
}

func TestTorusDistance(t *testing.T) {
	tor := NewTorus(geometry.Origin[float64](), 2.0, 0.5)

	// On the ring center line.
	assert.InDelta(t, -0.5, tor.Evaluate(2, 0, 0), 1e-12)
	// On the surface.
	assert.InDelta(t, 0.0, tor.Evaluate(2.5, 0, 0), 1e-12)
	// At the center of the hole.
	assert.InDelta(t, 1.5, tor.Evaluate(0, 0, 0), 1e-12)
}

func TestBoxFunctionDistance(t *testing.T) {
	box := NewBoxFunction(geometry.MustBoundingBox(
		geometry.Origin[float64](), geometry.NewVec3(2.0, 2.0, 2.0)))

	assert.InDelta(t, -1.0, box.Evaluate(1, 1, 1), 1e-12)
	assert.InDelta(t, 0.0, box.Evaluate(0, 1, 1), 1e-12)
	assert.InDelta(t, 1.0, box.Evaluate(3, 1, 1), 1e-12)
	assert.InDelta(t, math.Sqrt(3), box.Evaluate(3, 3, 3), 1e-12)
}

func TestCoordinateValue(t *testing.T) {
	z, err := NewCoordinateValue[float64]("Z")
	require.NoError(t, err)
	assert.Equal(t, 7.5, z.Evaluate(1, 2, 7.5))

	_, err = NewCoordinateValue[float64]("W")
	assert.ErrorIs(t, err, model.ErrParameterOutOfRange)

	require.NoError(t, z.SetParameter("Axis", model.EnumData[float64]("Y")))
	assert.Equal(t, 2.0, z.Evaluate(1, 2, 7.5))

	err = z.SetParameter("Axis", model.EnumData[float64]("Q"))
	assert.ErrorIs(t, err, model.ErrParameterOutOfRange)
}

func TestGyroidPeriodicity(t *testing.T) {
	g := NewGyroid(2.0, false)

	// The gyroid repeats with period 2L on every axis.
	p := g.Evaluate(0.3, 0.7, 0.1)
	assert.InDelta(t, p, g.Evaluate(0.3+4.0, 0.7, 0.1), 1e-9)
	assert.InDelta(t, p, g.Evaluate(0.3, 0.7+4.0, 0.1), 1e-9)

	// Zero at the origin.
	assert.InDelta(t, 0.0, g.Evaluate(0, 0, 0), 1e-12)
}

func TestGyroidLinearizeStaysBounded(t *testing.T) {
	g := NewGyroid(2.0, true)
	half := 1.0
	for _, p := range [][3]float64{{0.1, 0.2, 0.3}, {1.5, -0.7, 2.2}, {5, 5, 5}} {
		v := g.Evaluate(p[0], p[1], p[2])
		assert.LessOrEqual(t, math.Abs(v), half+1e-9)
	}
}

func TestSchwarzAndNeoviusAtOrigin(t *testing.T) {
	s := NewSchwarzP(1.0, false)
	n := NewNeovius(1.0, false)

	// Both surfaces are positive at the cell origin and cross zero
	// within a period.
	assert.Greater(t, s.Evaluate(0, 0, 0), 0.0)
	assert.Greater(t, n.Evaluate(0, 0, 0), 0.0)
	assert.Less(t, s.Evaluate(0.5, 0.5, 0.5), 0.0)
}

func TestArithmeticOperations(t *testing.T) {
	assert.Equal(t, 5.0, NewAdd[float64]().Evaluate([]float64{2, 3}))
	assert.Equal(t, -1.0, NewSubtract[float64]().Evaluate([]float64{2, 3}))
	assert.Equal(t, 6.0, NewMultiply[float64]().Evaluate([]float64{2, 3}))
	assert.Equal(t, 2.0, NewDivide[float64]().Evaluate([]float64{6, 3}))
}

func TestDivideByZeroStaysFinite(t *testing.T) {
	d := NewDivide[float64]()

	v := d.Evaluate([]float64{1, 0})
	assert.False(t, math.IsInf(v, 0))
	assert.False(t, math.IsNaN(v))

	v = d.Evaluate([]float64{1, -0.0})
	assert.False(t, math.IsInf(v, 0))

	// Tiny negative divisor keeps the sign.
	v = d.Evaluate([]float64{1, -1e-30})
	assert.Negative(t, v)
}

func TestBooleanOperations(t *testing.T) {
	assert.Equal(t, -1.0, NewUnion[float64]().Evaluate([]float64{-1, 2}))
	assert.Equal(t, 2.0, NewIntersection[float64]().Evaluate([]float64{-1, 2}))
	// Difference of inside (-1) minus inside (-2) is outside.
	assert.Equal(t, 2.0, NewDifference[float64]().Evaluate([]float64{-1, -2}))
	assert.Equal(t, -1.0, NewDifference[float64]().Evaluate([]float64{-1, 3}))
}

func TestSmoothUnionBlends(t *testing.T) {
	s := NewSmoothUnion(1.0)

	// Far apart: behaves like min.
	assert.InDelta(t, -5.0, s.Evaluate([]float64{-5, 5}), 1e-9)
	// Equal inputs blend below the plain minimum.
	blended := s.Evaluate([]float64{0.5, 0.5})
	assert.Less(t, blended, 0.5)
}

func TestOffsetAndThickness(t *testing.T) {
	o := NewOffset(0.5)
	assert.Equal(t, 0.5, o.Evaluate([]float64{1.0}))

	th := NewThickness(0.5)
	// On the original surface: inside the shell.
	assert.Equal(t, -0.25, th.Evaluate([]float64{0}))
	// Far from the surface: outside.
	assert.Equal(t, 0.75, th.Evaluate([]float64{1.0}))
}

func TestClamp(t *testing.T) {
	c := NewClamp[float64](-1, 1)
	assert.Equal(t, 0.5, c.Evaluate([]float64{0.5}))
	assert.Equal(t, 1.0, c.Evaluate([]float64{7}))
	assert.Equal(t, -1.0, c.Evaluate([]float64{-7}))

	require.NoError(t, c.SetParameter("Max", model.ScalarData(2.0)))
	assert.Equal(t, 2.0, c.Evaluate([]float64{7}))

	err := c.SetParameter("Min", model.BoolData[float64](true))
	assert.ErrorIs(t, err, model.ErrParameterTypeMismatch)
}

func TestLerpAndRemap(t *testing.T) {
	l := NewLerp[float64]()
	assert.Equal(t, 1.0, l.Evaluate([]float64{0, 2, 0.5}))
	// Parameter clamps.
	assert.Equal(t, 2.0, l.Evaluate([]float64{0, 2, 7}))

	r := NewRemap[float64](0, 1, 10, 20)
	assert.Equal(t, 15.0, r.Evaluate([]float64{0.5}))

	degenerate := NewRemap[float64](1, 1, 10, 20)
	assert.Equal(t, 15.0, degenerate.Evaluate([]float64{42}))
}

func TestRegistryRoundTrip(t *testing.T) {
	m := model.New[float64]()
	m.AddFunction("Shell", NewGyroid(2.5, true))
	m.AddFunction("Bound", NewSphere(geometry.NewVec3(5.0, 5.0, 5.0), 4.0))
	m.AddOperationWithInputs("Solid", NewIntersection[float64](), []string{"Bound", "Shell"})
	m.AddOperationWithInputs("Grown", &Offset[float64]{Distance: 0.25}, []string{"Solid"})

	data, err := model.Serialize(m)
	require.NoError(t, err)

	restored, err := model.Deserialize(data, DefaultRegistry[float64]())
	require.NoError(t, err)

	points := [][3]float64{{5, 5, 5}, {1, 2, 3}, {9.5, 0.5, 4.25}}
	for _, p := range points {
		want, err := m.EvaluateAt("Grown", p[0], p[1], p[2])
		require.NoError(t, err)
		got, err := restored.EvaluateAt("Grown", p[0], p[1], p[2])
		require.NoError(t, err)
		assert.Equal(t, want, got, "at %v", p)
	}
}

func TestRegistryFloat32(t *testing.T) {
	reg := DefaultRegistry[float32]()
	m := model.New[float32]()
	m.AddFunction("S", NewSphere(geometry.NewVec3[float32](1, 2, 3), 2))

	data, err := model.Serialize(m)
	require.NoError(t, err)
	restored, err := model.Deserialize(data, reg)
	require.NoError(t, err)

	want, _ := m.EvaluateAt("S", 0, 0, 0)
	got, err := restored.EvaluateAt("S", 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

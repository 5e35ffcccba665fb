package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry[float64] {
	reg := NewRegistry[float64]()
	reg.RegisterFunction("TestSphere", func() Function[float64] { return &testSphere{} })
	reg.RegisterOperation("TestAdd", func() Operation[float64] { return testAdd{} })
	return reg
}

func TestSerializeRoundTrip(t *testing.T) {
	m := New[float64]()
	m.SetBounds(geometry.MustBoundingBox(
		geometry.NewVec3(0.0, 0.0, 0.0),
		geometry.NewVec3(10.0, 10.0, 10.0),
	))
	m.AddFunction("Sphere", &testSphere{Center: geometry.NewVec3(5.0, 5.0, 5.0), Radius: 4.0})
	m.AddConstant("Offset", 0.25)
	m.AddOperationWithInputs("Sum", testAdd{}, []string{"Sphere", "Offset"})

	data, err := Serialize(m)
	require.NoError(t, err)

	restored, err := Deserialize(data, testRegistry())
	require.NoError(t, err)

	require.NotNil(t, restored.Bounds())
	assert.Equal(t, m.Bounds().Max, restored.Bounds().Max)

	// The restored model must evaluate identically at arbitrary points.
	points := []geometry.Vec3[float64]{
		{X: 0, Y: 0, Z: 0}, {X: 5, Y: 5, Z: 5}, {X: 1.5, Y: -2, Z: 7.25},
	}
	for _, p := range points {
		want, err := m.EvaluateAt("Sum", p.X, p.Y, p.Z)
		require.NoError(t, err)
		got, err := restored.EvaluateAt("Sum", p.X, p.Y, p.Z)
		require.NoError(t, err)
		assert.Equal(t, want, got, "at %v", p)
	}
}

func TestSerializeYAMLRoundTrip(t *testing.T) {
	m := New[float64]()
	m.AddFunction("Sphere", &testSphere{Center: geometry.NewVec3(1.0, 2.0, 3.0), Radius: 2.0})

	data, err := SerializeYAML(m)
	require.NoError(t, err)

	restored, err := DeserializeYAML(data, testRegistry())
	require.NoError(t, err)

	want, _ := m.EvaluateAt("Sphere", 4, 5, 6)
	got, err := restored.EvaluateAt("Sphere", 4, 5, 6)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDeserializeUnknownTag(t *testing.T) {
	data := []byte(`{
		"version": 1,
		"bounds": null,
		"components": [
			{"name": "X", "kind": "Function", "tag": "NotRegistered", "params": {}}
		],
		"edges": []
	}`)

	_, err := Deserialize(data, testRegistry())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTag), "err = %v", err)
	assert.Contains(t, err.Error(), "NotRegistered")
}

func TestDeserializeUnsupportedVersion(t *testing.T) {
	data := []byte(`{"version": 99, "components": [], "edges": []}`)
	_, err := Deserialize(data, testRegistry())
	assert.True(t, errors.Is(err, ErrVersionUnsupported), "err = %v", err)
}

func TestDeserializeMalformed(t *testing.T) {
	_, err := Deserialize([]byte(`{not json`), testRegistry())
	assert.True(t, errors.Is(err, ErrParse), "err = %v", err)
}

func TestSerializedShape(t *testing.T) {
	m := New[float64]()
	m.AddConstant("C", 1.0)

	data, err := Serialize(m)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `"version": 1`)
	assert.Contains(t, text, `"kind": "Constant"`)
	assert.True(t, strings.Contains(text, `"components"`))
}

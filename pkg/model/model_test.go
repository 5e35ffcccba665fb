package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/joelhi/imlet-go/pkg/geometry"
)

// testSphere is a minimal distance function used by the package tests.
type testSphere struct {
	Center geometry.Vec3[float64]
	Radius float64
}

func (s *testSphere) Tag() string { return "TestSphere" }

func (s *testSphere) Evaluate(x, y, z float64) float64 {
	return geometry.NewVec3(x, y, z).DistanceTo(s.Center) - s.Radius
}

func (s *testSphere) Parameters() []Parameter {
	return []Parameter{
		{Name: "Center", Type: TypeVec3},
		{Name: "Radius", Type: TypeScalar},
	}
}

func (s *testSphere) Parameter(name string) (Data[float64], error) {
	switch name {
	case "Center":
		return Vec3Data(s.Center), nil
	case "Radius":
		return ScalarData(s.Radius), nil
	}
	return Data[float64]{}, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

func (s *testSphere) SetParameter(name string, value Data[float64]) error {
	if Vec3Param(name, value, &s.Center, "Center") ||
		ScalarParam(name, value, &s.Radius, "Radius") {
		return nil
	}
	if name == "Center" || name == "Radius" {
		return fmt.Errorf("%w: %q", ErrParameterTypeMismatch, name)
	}
	return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

// testAdd sums its two inputs.
type testAdd struct{}

func (testAdd) Tag() string { return "TestAdd" }
func (testAdd) Inputs() []string { return []string{"A", "B"} }
func (testAdd) Evaluate(inputs []float64) float64 { return inputs[0] + inputs[1] }
func (testAdd) Parameters() []Parameter { return nil }
func (testAdd) Parameter(name string) (Data[float64], error) {
	return Data[float64]{}, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}
func (testAdd) SetParameter(name string, value Data[float64]) error {
	return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

func TestAddConstantSum(t *testing.T) {
	m := New[float64]()

	first, err := m.AddConstant("First", 1.0)
	if err != nil {
		t.Fatalf("AddConstant: %v", err)
	}
	second, err := m.AddConstant("Second", 1.0)
	if err != nil {
		t.Fatalf("AddConstant: %v", err)
	}
	sum, err := m.AddOperationWithInputs("Sum", testAdd{}, []string{first, second})
	if err != nil {
		t.Fatalf("AddOperationWithInputs: %v", err)
	}

	value, err := m.EvaluateAt(sum, 0, 0, 0)
	if err != nil {
		t.Fatalf("EvaluateAt: %v", err)
	}
	if value != 2.0 {
		t.Errorf("sum = %v, want exactly 2.0", value)
	}
}

func TestDuplicateNameRejected(t *testing.T) {
	m := New[float64]()
	if _, err := m.AddConstant("A", 1.0); err != nil {
		t.Fatal(err)
	}
	_, err := m.AddConstant("A", 2.0)
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}
}

func TestWireUnknownProducer(t *testing.T) {
	m := New[float64]()
	m.AddOperation("Sum", testAdd{})

	err := m.Wire("Missing", "Sum", 0)
	if !errors.Is(err, ErrUnknownProducer) {
		t.Errorf("err = %v, want ErrUnknownProducer", err)
	}
}

func TestWireSlotOutOfRange(t *testing.T) {
	m := New[float64]()
	m.AddConstant("C", 1.0)
	m.AddOperation("Sum", testAdd{})

	err := m.Wire("C", "Sum", 2)
	if !errors.Is(err, ErrArityMismatch) {
		t.Errorf("err = %v, want ErrArityMismatch", err)
	}
}

func TestCycleRejected(t *testing.T) {
	m := New[float64]()
	m.AddOperation("A", testAdd{})
	m.AddOperation("B", testAdd{})
	m.AddOperation("C", testAdd{})

	if err := m.Wire("A", "B", 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Wire("B", "C", 0); err != nil {
		t.Fatal(err)
	}

	err := m.Wire("C", "A", 0)
	if !errors.Is(err, ErrWouldCreateCycle) {
		t.Fatalf("err = %v, want ErrWouldCreateCycle", err)
	}

	// The refused edge must leave the graph unchanged.
	inputs, _ := m.Inputs("A")
	for slot, producer := range inputs {
		if producer != "" {
			t.Errorf("slot %d of A = %q, want unbound", slot, producer)
		}
	}
}

func TestSelfCycleRejected(t *testing.T) {
	m := New[float64]()
	m.AddOperation("A", testAdd{})

	err := m.Wire("A", "A", 0)
	if !errors.Is(err, ErrWouldCreateCycle) {
		t.Errorf("err = %v, want ErrWouldCreateCycle", err)
	}
}

func TestUnboundSlotFailsEvaluation(t *testing.T) {
	m := New[float64]()
	m.AddConstant("C", 1.0)
	m.AddOperation("Sum", testAdd{})
	m.Wire("C", "Sum", 0)

	_, err := m.EvaluateAt("Sum", 0, 0, 0)
	if !errors.Is(err, ErrEvaluationFailed) {
		t.Errorf("err = %v, want ErrEvaluationFailed", err)
	}
}

func TestAddOperationWithInputsAtomic(t *testing.T) {
	m := New[float64]()
	m.AddConstant("C", 1.0)

	// Wrong arity: nothing should be added.
	_, err := m.AddOperationWithInputs("Sum", testAdd{}, []string{"C"})
	if !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("err = %v, want ErrArityMismatch", err)
	}
	if _, err := m.Component("Sum"); !errors.Is(err, ErrUnknownComponent) {
		t.Error("failed add should leave the model unchanged")
	}

	// Unknown producer: same.
	_, err = m.AddOperationWithInputs("Sum", testAdd{}, []string{"C", "Missing"})
	if !errors.Is(err, ErrUnknownProducer) {
		t.Fatalf("err = %v, want ErrUnknownProducer", err)
	}
	if _, err := m.Component("Sum"); !errors.Is(err, ErrUnknownComponent) {
		t.Error("failed add should leave the model unchanged")
	}
}

func TestRemoveClearsIncidentEdges(t *testing.T) {
	m := New[float64]()
	m.AddConstant("C", 1.0)
	m.AddOperationWithInputs("Sum", testAdd{}, []string{"C", "C"})

	if err := m.Remove("C"); err != nil {
		t.Fatal(err)
	}

	inputs, err := m.Inputs("Sum")
	if err != nil {
		t.Fatal(err)
	}
	for slot, producer := range inputs {
		if producer != "" {
			t.Errorf("slot %d still wired to %q", slot, producer)
		}
	}
}

func TestTopologicalOrderStable(t *testing.T) {
	m := New[float64]()
	m.AddConstant("B", 1.0)
	m.AddConstant("A", 2.0)
	m.AddOperationWithInputs("Sum", testAdd{}, []string{"A", "B"})

	order, err := m.TopologicalOrder("Sum")
	if err != nil {
		t.Fatal(err)
	}

	// Ties between A and B resolve by insertion order: B first.
	want := []string{"B", "A", "Sum"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}

	// Repeated calls hit the cache and must agree.
	again, _ := m.TopologicalOrder("Sum")
	for i := range order {
		if order[i] != again[i] {
			t.Fatalf("cached order differs at %d", i)
		}
	}
}

func TestEvaluationPurity(t *testing.T) {
	m := New[float64]()
	m.AddFunction("Sphere", &testSphere{Center: geometry.NewVec3(1.0, 2.0, 3.0), Radius: 2.5})

	a, err := m.EvaluateAt("Sphere", 0.3, -1.7, 4.9)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := m.EvaluateAt("Sphere", 0.3, -1.7, 4.9)
	if a != b {
		t.Errorf("evaluation not bit-identical: %v != %v", a, b)
	}
}

func TestSetParameter(t *testing.T) {
	m := New[float64]()
	sphere := &testSphere{Radius: 1.0}
	m.AddFunction("Sphere", sphere)

	if err := m.SetParameter("Sphere", "Radius", ScalarData(4.0)); err != nil {
		t.Fatal(err)
	}
	if sphere.Radius != 4.0 {
		t.Errorf("radius = %v, want 4", sphere.Radius)
	}

	err := m.SetParameter("Sphere", "Wobble", ScalarData(1.0))
	if !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("err = %v, want ErrUnknownParameter", err)
	}

	err = m.SetParameter("Sphere", "Radius", BoolData[float64](true))
	if !errors.Is(err, ErrParameterTypeMismatch) {
		t.Errorf("err = %v, want ErrParameterTypeMismatch", err)
	}
}

func TestConstantParameter(t *testing.T) {
	m := New[float64]()
	m.AddConstant("C", 1.5)

	c, _ := m.Component("C")
	v, err := c.Parameter("Value")
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := v.Scalar(); s != 1.5 {
		t.Errorf("value = %v, want 1.5", s)
	}

	if err := c.SetParameter("Value", ScalarData(2.5)); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.EvaluateAt("C", 0, 0, 0); got != 2.5 {
		t.Errorf("constant after set = %v, want 2.5", got)
	}
}

package geometry

import (
	"math"
	"testing"
)

func TestVec3Arithmetic(t *testing.T) {
	a := NewVec3(1.0, 2.0, 3.0)
	b := NewVec3(4.0, 5.0, 6.0)

	sum := a.Add(b)
	if sum != NewVec3(5.0, 7.0, 9.0) {
		t.Errorf("Add = %v, want (5, 7, 9)", sum)
	}

	diff := b.Sub(a)
	if diff != NewVec3(3.0, 3.0, 3.0) {
		t.Errorf("Sub = %v, want (3, 3, 3)", diff)
	}

	scaled := a.Scale(2)
	if scaled != NewVec3(2.0, 4.0, 6.0) {
		t.Errorf("Scale = %v, want (2, 4, 6)", scaled)
	}

	if dot := a.Dot(b); dot != 32 {
		t.Errorf("Dot = %v, want 32", dot)
	}
}

func TestVec3Cross(t *testing.T) {
	x := NewVec3(1.0, 0.0, 0.0)
	y := NewVec3(0.0, 1.0, 0.0)
	z := x.Cross(y)
	if z != NewVec3(0.0, 0.0, 1.0) {
		t.Errorf("x cross y = %v, want (0, 0, 1)", z)
	}
}

func TestVec3NormAndDistance(t *testing.T) {
	v := NewVec3(3.0, 4.0, 0.0)
	if v.Norm() != 5 {
		t.Errorf("Norm = %v, want 5", v.Norm())
	}
	if d := v.DistanceTo(Origin[float64]()); d != 5 {
		t.Errorf("DistanceTo origin = %v, want 5", d)
	}
}

func TestVec3NormalizedZeroVector(t *testing.T) {
	_, err := Origin[float64]().Normalized()
	if err == nil {
		t.Fatal("normalizing the zero vector should fail")
	}

	n, err := NewVec3(0.0, 0.0, 2.0).Normalized()
	if err != nil {
		t.Fatalf("Normalized: %v", err)
	}
	if math.Abs(n.Norm()-1) > 1e-12 {
		t.Errorf("normalized length = %v, want 1", n.Norm())
	}
}

func TestVec3Lerp(t *testing.T) {
	a := NewVec3(0.0, 0.0, 0.0)
	b := NewVec3(2.0, 4.0, 6.0)
	mid := Lerp(a, b, 0.5)
	if mid != NewVec3(1.0, 2.0, 3.0) {
		t.Errorf("Lerp mid = %v, want (1, 2, 3)", mid)
	}
}

func TestVec3Float32(t *testing.T) {
	a := NewVec3[float32](1, 2, 2)
	if a.Norm() != 3 {
		t.Errorf("float32 Norm = %v, want 3", a.Norm())
	}
}

func TestAngleTo(t *testing.T) {
	a := NewVec3(1.0, 0.0, 0.0)
	b := NewVec3(0.0, 1.0, 0.0)
	if got := a.AngleTo(b); math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("AngleTo = %v, want pi/2", got)
	}
}

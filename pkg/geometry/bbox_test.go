package geometry

import (
	"testing"
)

func TestNewBoundingBoxRejectsInverted(t *testing.T) {
	_, err := NewBoundingBox(NewVec3(1.0, 0.0, 0.0), NewVec3(0.0, 1.0, 1.0))
	if err == nil {
		t.Fatal("inverted bounds should be rejected")
	}
}

func TestBoundingBoxContains(t *testing.T) {
	b := MustBoundingBox(Origin[float64](), NewVec3(10.0, 10.0, 10.0))

	cases := []struct {
		point Vec3[float64]
		want  bool
	}{
		{NewVec3(5.0, 5.0, 5.0), true},
		{NewVec3(0.0, 0.0, 0.0), true},
		{NewVec3(10.0, 10.0, 10.0), true},
		{NewVec3(-0.1, 5.0, 5.0), false},
		{NewVec3(5.0, 10.1, 5.0), false},
	}
	for _, c := range cases {
		if got := b.Contains(c.point); got != c.want {
			t.Errorf("Contains(%v) = %v, want %v", c.point, got, c.want)
		}
	}
}

func TestBoundingBoxIntersects(t *testing.T) {
	a := MustBoundingBox(Origin[float64](), NewVec3(5.0, 5.0, 5.0))
	b := MustBoundingBox(NewVec3(4.0, 4.0, 4.0), NewVec3(8.0, 8.0, 8.0))
	c := MustBoundingBox(NewVec3(6.0, 6.0, 6.0), NewVec3(8.0, 8.0, 8.0))

	if !a.Intersects(b) {
		t.Error("a should intersect b")
	}
	if a.Intersects(c) {
		t.Error("a should not intersect c")
	}
}

func TestBoundingBoxCorners(t *testing.T) {
	b := MustBoundingBox(Origin[float64](), NewVec3(1.0, 1.0, 1.0))
	corners := b.Corners()

	if corners[0] != b.Min {
		t.Errorf("corner 0 = %v, want min", corners[0])
	}
	if corners[6] != b.Max {
		t.Errorf("corner 6 = %v, want max", corners[6])
	}
	// Bottom face at z=0, top face at z=1.
	for i := 0; i < 4; i++ {
		if corners[i].Z != 0 {
			t.Errorf("corner %d z = %v, want 0", i, corners[i].Z)
		}
		if corners[i+4].Z != 1 {
			t.Errorf("corner %d z = %v, want 1", i+4, corners[i+4].Z)
		}
	}
}

func TestBoundingBoxDistanceTo(t *testing.T) {
	b := MustBoundingBox(Origin[float64](), NewVec3(1.0, 1.0, 1.0))

	if d := b.DistanceTo(NewVec3(0.5, 0.5, 0.5)); d != 0 {
		t.Errorf("inside distance = %v, want 0", d)
	}
	if d := b.DistanceTo(NewVec3(2.0, 0.5, 0.5)); d != 1 {
		t.Errorf("outside distance = %v, want 1", d)
	}
}

func TestBoundingBoxOffsetAndPointAt(t *testing.T) {
	b := MustBoundingBox(Origin[float64](), NewVec3(2.0, 2.0, 2.0))

	grown := b.Offset(1)
	if grown.Min != NewVec3(-1.0, -1.0, -1.0) || grown.Max != NewVec3(3.0, 3.0, 3.0) {
		t.Errorf("Offset(1) = %v", grown)
	}

	p := b.PointAt(1, 2, 3, 0.5)
	if p != NewVec3(0.5, 1.0, 1.5) {
		t.Errorf("PointAt = %v, want (0.5, 1, 1.5)", p)
	}
}

package model

import (
	"fmt"

	"github.com/joelhi/imlet-go/pkg/geometry"
)

// DataType identifies the type of a component parameter.
type DataType int

const (
	// TypeScalar is a floating point value of the model's scalar type.
	TypeScalar DataType = iota
	// TypeVec3 is a 3-dimensional point or vector.
	TypeVec3
	// TypeBool is a boolean flag.
	TypeBool
	// TypeEnum is a constrained selection from a fixed option list.
	TypeEnum
	// TypeText is an unconstrained string, also used for file paths.
	TypeText
	// TypeBounds is an axis-aligned bounding box.
	TypeBounds
)

func (d DataType) String() string {
	switch d {
	case TypeScalar:
		return "Scalar"
	case TypeVec3:
		return "Vec3"
	case TypeBool:
		return "Bool"
	case TypeEnum:
		return "Enum"
	case TypeText:
		return "Text"
	case TypeBounds:
		return "Bounds"
	default:
		return "Unknown"
	}
}

// Parameter describes one externally settable value of a component.
type Parameter struct {
	// Name identifies the parameter within the component.
	Name string
	// Type is the kind of data the parameter accepts.
	Type DataType
	// Options lists the valid values for enum parameters.
	Options []string
}

// Data is a typed value passed to or read from a component parameter.
// Exactly one of the payload fields is meaningful, selected by the type.
type Data[T geometry.Float] struct {
	kind   DataType
	scalar T
	vec    geometry.Vec3[T]
	flag   bool
	text   string
	bounds geometry.BoundingBox[T]
}

// ScalarData wraps a scalar value.
func ScalarData[T geometry.Float](v T) Data[T] {
	return Data[T]{kind: TypeScalar, scalar: v}
}

// Vec3Data wraps a vector value.
func Vec3Data[T geometry.Float](v geometry.Vec3[T]) Data[T] {
	return Data[T]{kind: TypeVec3, vec: v}
}

// BoolData wraps a boolean value.
func BoolData[T geometry.Float](v bool) Data[T] {
	return Data[T]{kind: TypeBool, flag: v}
}

// TextData wraps a text or file path value.
func TextData[T geometry.Float](v string) Data[T] {
	return Data[T]{kind: TypeText, text: v}
}

// EnumData wraps an enum selection.
func EnumData[T geometry.Float](v string) Data[T] {
	return Data[T]{kind: TypeEnum, text: v}
}

// BoundsData wraps a bounding box value.
func BoundsData[T geometry.Float](v geometry.BoundingBox[T]) Data[T] {
	return Data[T]{kind: TypeBounds, bounds: v}
}

// Kind returns the data type of the value.
func (d Data[T]) Kind() DataType { return d.kind }

// Scalar returns the scalar payload; the second return reports whether the
// data holds a scalar.
func (d Data[T]) Scalar() (T, bool) { return d.scalar, d.kind == TypeScalar }

// Vec3 returns the vector payload.
func (d Data[T]) Vec3() (geometry.Vec3[T], bool) { return d.vec, d.kind == TypeVec3 }

// Bool returns the boolean payload.
func (d Data[T]) Bool() (bool, bool) { return d.flag, d.kind == TypeBool }

// Text returns the text payload for text and enum data.
func (d Data[T]) Text() (string, bool) {
	return d.text, d.kind == TypeText || d.kind == TypeEnum
}

// Bounds returns the bounding box payload.
func (d Data[T]) Bounds() (geometry.BoundingBox[T], bool) {
	return d.bounds, d.kind == TypeBounds
}

func (d Data[T]) String() string {
	switch d.kind {
	case TypeScalar:
		return fmt.Sprintf("%v", d.scalar)
	case TypeVec3:
		return d.vec.String()
	case TypeBool:
		return fmt.Sprintf("%v", d.flag)
	case TypeEnum:
		return fmt.Sprintf("Selection: %s", d.text)
	case TypeText:
		return d.text
	case TypeBounds:
		return d.bounds.String()
	default:
		return "invalid"
	}
}

// ScalarParam is a helper for SetParameter implementations: when name
// matches and the data is a scalar, it assigns target and returns true.
func ScalarParam[T geometry.Float](name string, data Data[T], target *T, match string) bool {
	if v, ok := data.Scalar(); ok && name == match {
		*target = v
		return true
	}
	return false
}

// Vec3Param assigns a vector parameter when name and type match.
func Vec3Param[T geometry.Float](name string, data Data[T], target *geometry.Vec3[T], match string) bool {
	if v, ok := data.Vec3(); ok && name == match {
		*target = v
		return true
	}
	return false
}

// BoolParam assigns a boolean parameter when name and type match.
func BoolParam[T geometry.Float](name string, data Data[T], target *bool, match string) bool {
	if v, ok := data.Bool(); ok && name == match {
		*target = v
		return true
	}
	return false
}

// TextParam assigns a text parameter when name and type match.
func TextParam[T geometry.Float](name string, data Data[T], target *string, match string) bool {
	if v, ok := data.Text(); ok && name == match {
		*target = v
		return true
	}
	return false
}

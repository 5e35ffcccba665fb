package primitives

import (
	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
)

// Register adds every standard component to a persistence registry under
// its stable tag. SDF3 is excluded: its solid is constructed in code and
// cannot be rebuilt from parameters.
func Register[T geometry.Float](reg *model.Registry[T]) {
	reg.RegisterFunction("Sphere", func() model.Function[T] { return &Sphere[T]{} })
	reg.RegisterFunction("Torus", func() model.Function[T] { return &Torus[T]{} })
	reg.RegisterFunction("Box", func() model.Function[T] { return &BoxFunction[T]{} })
	reg.RegisterFunction("CoordinateValue", func() model.Function[T] { return &CoordinateValue[T]{Axis: "X"} })
	reg.RegisterFunction("Gyroid", func() model.Function[T] { return NewGyroid[T](1, false) })
	reg.RegisterFunction("SchwarzP", func() model.Function[T] { return NewSchwarzP[T](1, false) })
	reg.RegisterFunction("Neovius", func() model.Function[T] { return NewNeovius[T](1, false) })
	reg.RegisterFunction("MeshSDF", func() model.Function[T] { return newEmptyMeshSDF[T]() })

	reg.RegisterOperation("Add", func() model.Operation[T] { return NewAdd[T]() })
	reg.RegisterOperation("Subtract", func() model.Operation[T] { return NewSubtract[T]() })
	reg.RegisterOperation("Multiply", func() model.Operation[T] { return NewMultiply[T]() })
	reg.RegisterOperation("Divide", func() model.Operation[T] { return NewDivide[T]() })
	reg.RegisterOperation("Union", func() model.Operation[T] { return NewUnion[T]() })
	reg.RegisterOperation("Intersection", func() model.Operation[T] { return NewIntersection[T]() })
	reg.RegisterOperation("Difference", func() model.Operation[T] { return NewDifference[T]() })
	reg.RegisterOperation("SmoothUnion", func() model.Operation[T] { return &SmoothUnion[T]{} })
	reg.RegisterOperation("Offset", func() model.Operation[T] { return &Offset[T]{} })
	reg.RegisterOperation("Thickness", func() model.Operation[T] { return &Thickness[T]{} })
	reg.RegisterOperation("Lerp", func() model.Operation[T] { return NewLerp[T]() })
	reg.RegisterOperation("Clamp", func() model.Operation[T] { return &Clamp[T]{} })
	reg.RegisterOperation("Remap", func() model.Operation[T] { return &Remap[T]{} })
}

// DefaultRegistry returns a registry populated with all standard
// components.
func DefaultRegistry[T geometry.Float]() *model.Registry[T] {
	reg := model.NewRegistry[T]()
	Register(reg)
	return reg
}

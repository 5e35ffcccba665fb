package script

import (
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
	"github.com/joelhi/imlet-go/pkg/primitives"
)

// builder accumulates the model while a script runs. Node names derive
// from the builtin name and a counter, so repeated evaluation of the same
// source yields the same graph.
type builder struct {
	model   *model.ImplicitModel[float64]
	output  string
	counter map[string]int
}

func newBuilder() *builder {
	return &builder{
		model:   model.New[float64](),
		counter: make(map[string]int),
	}
}

func (b *builder) nextName(kind string) string {
	b.counter[kind]++
	return fmt.Sprintf("%s_%d", kind, b.counter[kind])
}

func (b *builder) addFunction(kind string, f model.Function[float64]) (zygo.Sexp, error) {
	name, err := b.model.AddFunction(b.nextName(kind), f)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpNodeRef{name: name}, nil
}

func (b *builder) addOperation(kind string, op model.Operation[float64], inputs []string) (zygo.Sexp, error) {
	name, err := b.model.AddOperationWithInputs(b.nextName(kind), op, inputs)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpNodeRef{name: name}, nil
}

// sexpNodeRef wraps a model component name so script values can feed
// later builtins.
type sexpNodeRef struct {
	name string
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %q)", n.name)
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a coordinate triple.
type sexpVec3 struct {
	vec geometry.Vec3[float64]
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %v %v %v)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", s)
	}
}

func toVec3(s zygo.Sexp) (geometry.Vec3[float64], error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geometry.Vec3[float64]{}, fmt.Errorf("expected vec3, got %T", s)
}

func toNodeRef(s zygo.Sexp) (string, error) {
	if n, ok := s.(*sexpNodeRef); ok {
		return n.name, nil
	}
	return "", fmt.Errorf("expected node reference, got %T", s)
}

func toNodeRefs(args []zygo.Sexp) ([]string, error) {
	names := make([]string, len(args))
	for i, a := range args {
		name, err := toNodeRef(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		names[i] = name
	}
	return names, nil
}

// registerBuiltins installs the model assembly vocabulary into a fresh
// interpreter environment.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var coords [3]float64
		for i, a := range args {
			v, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
			}
			coords[i] = v
		}
		return &sexpVec3{vec: geometry.NewVec3(coords[0], coords[1], coords[2])}, nil
	})

	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("sphere requires a center and a radius")
		}
		center, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: center: %w", err)
		}
		radius, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		return b.addFunction("sphere", primitives.NewSphere(center, radius))
	})

	env.AddFunction("torus", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("torus requires a center and two radii")
		}
		center, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: center: %w", err)
		}
		major, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: major radius: %w", err)
		}
		minor, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: minor radius: %w", err)
		}
		return b.addFunction("torus", primitives.NewTorus(center, major, minor))
	})

	env.AddFunction("gyroid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("gyroid requires a period length")
		}
		length, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("gyroid: %w", err)
		}
		return b.addFunction("gyroid", primitives.NewGyroid(length, true))
	})

	env.AddFunction("constant", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("constant requires a value")
		}
		value, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("constant: %w", err)
		}
		nodeName, err := b.model.AddConstant(b.nextName("constant"), value)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpNodeRef{name: nodeName}, nil
	})

	binary := func(kind string, op func() model.Operation[float64]) {
		env.AddFunction(kind, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires two inputs", kind)
			}
			inputs, err := toNodeRefs(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", kind, err)
			}
			return b.addOperation(kind, op(), inputs)
		})
	}
	binary("union", func() model.Operation[float64] { return primitives.NewUnion[float64]() })
	binary("intersection", func() model.Operation[float64] { return primitives.NewIntersection[float64]() })
	binary("difference", func() model.Operation[float64] { return primitives.NewDifference[float64]() })
	binary("add", func() model.Operation[float64] { return primitives.NewAdd[float64]() })
	binary("multiply", func() model.Operation[float64] { return primitives.NewMultiply[float64]() })

	env.AddFunction("offset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("offset requires a node and a distance")
		}
		input, err := toNodeRef(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset: %w", err)
		}
		distance, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset: %w", err)
		}
		return b.addOperation("offset", primitives.NewOffset(distance), []string{input})
	})

	env.AddFunction("thicken", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("thicken requires a node and a thickness")
		}
		input, err := toNodeRef(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("thicken: %w", err)
		}
		thickness, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("thicken: %w", err)
		}
		return b.addOperation("thicken", primitives.NewThickness(thickness), []string{input})
	})

	env.AddFunction("output", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("output requires a node")
		}
		node, err := toNodeRef(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("output: %w", err)
		}
		b.output = node
		return args[0], nil
	})
}

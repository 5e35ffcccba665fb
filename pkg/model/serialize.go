package model

import (
	"encoding/json"
	"fmt"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"gopkg.in/yaml.v3"
)

// Registry maps stable component tags to factories producing components
// with default parameters. Deserialization looks tags up here; unknown
// tags fail loudly instead of being dropped.
type Registry[T geometry.Float] struct {
	functions  map[string]func() Function[T]
	operations map[string]func() Operation[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T geometry.Float]() *Registry[T] {
	return &Registry[T]{
		functions:  make(map[string]func() Function[T]),
		operations: make(map[string]func() Operation[T]),
	}
}

// RegisterFunction adds a function factory under its tag.
func (r *Registry[T]) RegisterFunction(tag string, factory func() Function[T]) {
	r.functions[tag] = factory
}

// RegisterOperation adds an operation factory under its tag.
func (r *Registry[T]) RegisterOperation(tag string, factory func() Operation[T]) {
	r.operations[tag] = factory
}

type boundsDoc struct {
	Min [3]float64 `json:"min" yaml:"min"`
	Max [3]float64 `json:"max" yaml:"max"`
}

type componentDoc struct {
	Name   string         `json:"name" yaml:"name"`
	Kind   string         `json:"kind" yaml:"kind"`
	Tag    string         `json:"tag" yaml:"tag"`
	Params map[string]any `json:"params" yaml:"params"`
}

type edgeDoc struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Slot int    `json:"slot" yaml:"slot"`
}

type document struct {
	Version    int            `json:"version" yaml:"version"`
	Bounds     *boundsDoc     `json:"bounds" yaml:"bounds"`
	Components []componentDoc `json:"components" yaml:"components"`
	Edges      []edgeDoc      `json:"edges" yaml:"edges"`
}

// Serialize encodes the model as versioned JSON. The format is stable and
// round-trip exact for every registered component.
func Serialize[T geometry.Float](m *ImplicitModel[T]) ([]byte, error) {
	doc, err := toDocument(m)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// SerializeYAML encodes the model in the same structure as Serialize,
// rendered as YAML.
func SerializeYAML[T geometry.Float](m *ImplicitModel[T]) ([]byte, error) {
	doc, err := toDocument(m)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// Deserialize decodes a JSON model using the registry to instantiate
// components by tag.
func Deserialize[T geometry.Float](data []byte, registry *Registry[T]) (*ImplicitModel[T], error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return fromDocument(&doc, registry)
}

// DeserializeYAML decodes a YAML model.
func DeserializeYAML[T geometry.Float](data []byte, registry *Registry[T]) (*ImplicitModel[T], error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return fromDocument(&doc, registry)
}

func toDocument[T geometry.Float](m *ImplicitModel[T]) (*document, error) {
	doc := &document{Version: FormatVersion}

	if b := m.Bounds(); b != nil {
		doc.Bounds = &boundsDoc{
			Min: [3]float64{float64(b.Min.X), float64(b.Min.Y), float64(b.Min.Z)},
			Max: [3]float64{float64(b.Max.X), float64(b.Max.Y), float64(b.Max.Z)},
		}
	}

	for _, name := range m.ComponentNames() {
		component, err := m.Component(name)
		if err != nil {
			return nil, err
		}
		params := make(map[string]any)
		for _, p := range component.Parameters() {
			value, err := component.Parameter(p.Name)
			if err != nil {
				return nil, err
			}
			params[p.Name] = encodeData(value)
		}
		doc.Components = append(doc.Components, componentDoc{
			Name:   name,
			Kind:   component.Kind().String(),
			Tag:    component.Tag(),
			Params: params,
		})
	}

	for _, e := range m.Edges() {
		doc.Edges = append(doc.Edges, edgeDoc{From: e.From, To: e.To, Slot: e.Slot})
	}
	return doc, nil
}

func fromDocument[T geometry.Float](doc *document, registry *Registry[T]) (*ImplicitModel[T], error) {
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d, supported %d", ErrVersionUnsupported, doc.Version, FormatVersion)
	}

	m := New[T]()
	if doc.Bounds != nil {
		bounds, err := geometry.NewBoundingBox(
			geometry.NewVec3(T(doc.Bounds.Min[0]), T(doc.Bounds.Min[1]), T(doc.Bounds.Min[2])),
			geometry.NewVec3(T(doc.Bounds.Max[0]), T(doc.Bounds.Max[1]), T(doc.Bounds.Max[2])),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, err)
		}
		m.SetBounds(bounds)
	}

	for _, c := range doc.Components {
		if err := addFromDoc(m, registry, c); err != nil {
			return nil, err
		}
	}

	for _, e := range doc.Edges {
		if err := m.Wire(e.From, e.To, e.Slot); err != nil {
			return nil, fmt.Errorf("%w: edge %s -> %s[%d]: %v", ErrParse, e.From, e.To, e.Slot, err)
		}
	}
	return m, nil
}

func addFromDoc[T geometry.Float](m *ImplicitModel[T], registry *Registry[T], c componentDoc) error {
	switch c.Kind {
	case "Constant":
		value, ok := decodeScalar(c.Params["Value"])
		if !ok {
			return fmt.Errorf("%w: constant %q has no scalar value", ErrParse, c.Name)
		}
		_, err := m.AddConstant(c.Name, T(value))
		return err

	case "Function":
		factory, ok := registry.functions[c.Tag]
		if !ok {
			return fmt.Errorf("%w: function tag %q for %q", ErrUnknownTag, c.Tag, c.Name)
		}
		f := factory()
		if err := applyParams[T](f, c); err != nil {
			return err
		}
		_, err := m.AddFunction(c.Name, f)
		return err

	case "Operation":
		factory, ok := registry.operations[c.Tag]
		if !ok {
			return fmt.Errorf("%w: operation tag %q for %q", ErrUnknownTag, c.Tag, c.Name)
		}
		op := factory()
		if err := applyParams[T](op, c); err != nil {
			return err
		}
		_, err := m.AddOperation(c.Name, op)
		return err

	default:
		return fmt.Errorf("%w: unknown component kind %q for %q", ErrParse, c.Kind, c.Name)
	}
}

func applyParams[T geometry.Float](target Parameterized[T], c componentDoc) error {
	for _, p := range target.Parameters() {
		raw, present := c.Params[p.Name]
		if !present {
			continue
		}
		data, err := decodeData[T](p, raw)
		if err != nil {
			return fmt.Errorf("%w: component %q parameter %q: %v", ErrParse, c.Name, p.Name, err)
		}
		if err := target.SetParameter(p.Name, data); err != nil {
			return fmt.Errorf("component %q: %w", c.Name, err)
		}
	}
	return nil
}

func encodeData[T geometry.Float](d Data[T]) any {
	switch d.Kind() {
	case TypeScalar:
		v, _ := d.Scalar()
		return float64(v)
	case TypeVec3:
		v, _ := d.Vec3()
		return [3]float64{float64(v.X), float64(v.Y), float64(v.Z)}
	case TypeBool:
		v, _ := d.Bool()
		return v
	case TypeText, TypeEnum:
		v, _ := d.Text()
		return v
	case TypeBounds:
		v, _ := d.Bounds()
		return map[string]any{
			"min": [3]float64{float64(v.Min.X), float64(v.Min.Y), float64(v.Min.Z)},
			"max": [3]float64{float64(v.Max.X), float64(v.Max.Y), float64(v.Max.Z)},
		}
	default:
		return nil
	}
}

func decodeData[T geometry.Float](p Parameter, raw any) (Data[T], error) {
	switch p.Type {
	case TypeScalar:
		v, ok := decodeScalar(raw)
		if !ok {
			return Data[T]{}, fmt.Errorf("want number, got %T", raw)
		}
		return ScalarData(T(v)), nil
	case TypeVec3:
		v, ok := decodeTriple(raw)
		if !ok {
			return Data[T]{}, fmt.Errorf("want [x, y, z], got %T", raw)
		}
		return Vec3Data(geometry.NewVec3(T(v[0]), T(v[1]), T(v[2]))), nil
	case TypeBool:
		v, ok := raw.(bool)
		if !ok {
			return Data[T]{}, fmt.Errorf("want bool, got %T", raw)
		}
		return BoolData[T](v), nil
	case TypeText:
		v, ok := raw.(string)
		if !ok {
			return Data[T]{}, fmt.Errorf("want string, got %T", raw)
		}
		return TextData[T](v), nil
	case TypeEnum:
		v, ok := raw.(string)
		if !ok {
			return Data[T]{}, fmt.Errorf("want string, got %T", raw)
		}
		return EnumData[T](v), nil
	case TypeBounds:
		m, ok := decodeMap(raw)
		if !ok {
			return Data[T]{}, fmt.Errorf("want {min, max}, got %T", raw)
		}
		min, okMin := decodeTriple(m["min"])
		max, okMax := decodeTriple(m["max"])
		if !okMin || !okMax {
			return Data[T]{}, fmt.Errorf("bounds want min/max triples")
		}
		bounds, err := geometry.NewBoundingBox(
			geometry.NewVec3(T(min[0]), T(min[1]), T(min[2])),
			geometry.NewVec3(T(max[0]), T(max[1]), T(max[2])),
		)
		if err != nil {
			return Data[T]{}, err
		}
		return BoundsData(bounds), nil
	default:
		return Data[T]{}, fmt.Errorf("unsupported parameter type %v", p.Type)
	}
}

func decodeScalar(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func decodeTriple(raw any) ([3]float64, bool) {
	switch v := raw.(type) {
	case [3]float64:
		return v, true
	case []any:
		if len(v) != 3 {
			return [3]float64{}, false
		}
		var out [3]float64
		for i, e := range v {
			f, ok := decodeScalar(e)
			if !ok {
				return [3]float64{}, false
			}
			out[i] = f
		}
		return out, true
	default:
		return [3]float64{}, false
	}
}

func decodeMap(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	default:
		return nil, false
	}
}

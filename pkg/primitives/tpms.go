package primitives

import (
	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
)

// tpms holds the shared period and linearization state of the triply
// periodic minimal surface approximations.
type tpms[T geometry.Float] struct {
	LengthX   T
	LengthY   T
	LengthZ   T
	Linearize bool
}

func (s *tpms[T]) parameters() []model.Parameter {
	return []model.Parameter{
		{Name: "Length X", Type: model.TypeScalar},
		{Name: "Length Y", Type: model.TypeScalar},
		{Name: "Length Z", Type: model.TypeScalar},
		{Name: "Linearize", Type: model.TypeBool},
	}
}

func (s *tpms[T]) parameter(tag, name string) (model.Data[T], error) {
	switch name {
	case "Length X":
		return model.ScalarData(s.LengthX), nil
	case "Length Y":
		return model.ScalarData(s.LengthY), nil
	case "Length Z":
		return model.ScalarData(s.LengthZ), nil
	case "Linearize":
		return model.BoolData[T](s.Linearize), nil
	}
	return model.Data[T]{}, unknownParam(tag, name)
}

func (s *tpms[T]) setParameter(tag, name string, value model.Data[T]) error {
	if model.ScalarParam(name, value, &s.LengthX, "Length X") ||
		model.ScalarParam(name, value, &s.LengthY, "Length Y") ||
		model.ScalarParam(name, value, &s.LengthZ, "Length Z") ||
		model.BoolParam(name, value, &s.Linearize, "Linearize") {
		return nil
	}
	return badParam(tag, name, value, s.parameters())
}

// scale converts the normalized periodic value into an approximate
// distance. When linearization is on, the arcsine straightens out the
// sinusoidal profile; the result stays a pseudo-distance either way.
func (s *tpms[T]) scale(normalized T) T {
	half := geometry.Min(s.LengthX, geometry.Min(s.LengthY, s.LengthZ)) / 2
	if s.Linearize {
		return half * asin(normalized) / (pi[T]() / 2)
	}
	return half * normalized
}

// Gyroid approximates the distance to a gyroid surface with the given
// period lengths. Values deviate from true distance away from the
// surface.
type Gyroid[T geometry.Float] struct {
	tpms[T]
}

// NewGyroid creates a gyroid with equal period lengths on all axes.
func NewGyroid[T geometry.Float](length T, linearize bool) *Gyroid[T] {
	return &Gyroid[T]{tpms[T]{LengthX: length, LengthY: length, LengthZ: length, Linearize: linearize}}
}

func (g *Gyroid[T]) Tag() string { return "Gyroid" }

func (g *Gyroid[T]) Evaluate(x, y, z T) T {
	px := pi[T]() * x / g.LengthX
	py := pi[T]() * y / g.LengthY
	pz := pi[T]() * z / g.LengthZ

	normalized := sin(px)*cos(py) + sin(py)*cos(pz) + sin(pz)*cos(px)
	if g.Linearize {
		normalized = geometry.Clamp(normalized, -1, 1)
	}
	return g.scale(normalized)
}

func (g *Gyroid[T]) Parameters() []model.Parameter { return g.parameters() }

func (g *Gyroid[T]) Parameter(name string) (model.Data[T], error) {
	return g.parameter(g.Tag(), name)
}

func (g *Gyroid[T]) SetParameter(name string, value model.Data[T]) error {
	return g.setParameter(g.Tag(), name, value)
}

// SchwarzP approximates the distance to a Schwarz P surface.
type SchwarzP[T geometry.Float] struct {
	tpms[T]
}

// NewSchwarzP creates a Schwarz P surface with equal period lengths.
func NewSchwarzP[T geometry.Float](length T, linearize bool) *SchwarzP[T] {
	return &SchwarzP[T]{tpms[T]{LengthX: length, LengthY: length, LengthZ: length, Linearize: linearize}}
}

func (s *SchwarzP[T]) Tag() string { return "SchwarzP" }

func (s *SchwarzP[T]) Evaluate(x, y, z T) T {
	two := T(2)
	normalized := (cos(two*pi[T]()*x/s.LengthX) +
		cos(two*pi[T]()*y/s.LengthY) +
		cos(two*pi[T]()*z/s.LengthZ)) / 3
	if s.Linearize {
		normalized = geometry.Clamp(normalized, -1, 1)
	}
	return s.scale(normalized)
}

func (s *SchwarzP[T]) Parameters() []model.Parameter { return s.parameters() }

func (s *SchwarzP[T]) Parameter(name string) (model.Data[T], error) {
	return s.parameter(s.Tag(), name)
}

func (s *SchwarzP[T]) SetParameter(name string, value model.Data[T]) error {
	return s.setParameter(s.Tag(), name, value)
}

// Neovius approximates the distance to a Neovius surface.
type Neovius[T geometry.Float] struct {
	tpms[T]
}

// NewNeovius creates a Neovius surface with equal period lengths.
func NewNeovius[T geometry.Float](length T, linearize bool) *Neovius[T] {
	return &Neovius[T]{tpms[T]{LengthX: length, LengthY: length, LengthZ: length, Linearize: linearize}}
}

func (n *Neovius[T]) Tag() string { return "Neovius" }

func (n *Neovius[T]) Evaluate(x, y, z T) T {
	two := T(2)
	cx := cos(two * pi[T]() * x / n.LengthX)
	cy := cos(two * pi[T]() * y / n.LengthY)
	cz := cos(two * pi[T]() * z / n.LengthZ)

	normalized := (3*(cx+cy+cz) + 4*cx*cy*cz) / 13
	if n.Linearize {
		normalized = geometry.Clamp(normalized, -1, 1)
	}
	return n.scale(normalized)
}

func (n *Neovius[T]) Parameters() []model.Parameter { return n.parameters() }

func (n *Neovius[T]) Parameter(name string) (model.Data[T], error) {
	return n.parameter(n.Tag(), name)
}

func (n *Neovius[T]) SetParameter(name string, value model.Data[T]) error {
	return n.setParameter(n.Tag(), name, value)
}

package primitives

import (
	"fmt"
	"math"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
	"github.com/joelhi/imlet-go/pkg/objio"
)

// farField is the value an unloaded mesh field reports: far outside
// anything a sampler would polygonize, but finite.
func farField[T geometry.Float]() T {
	return T(math.MaxFloat32 / 4)
}

// MeshSDF is the signed distance to a triangle mesh, accelerated by an
// octree and signed with angle-weighted pseudo-normals. The mesh can come
// from an OBJ file (the Path parameter) or be supplied directly.
type MeshSDF[T geometry.Float] struct {
	Path string
	tree *geometry.Octree[T]
}

// NewMeshSDF builds the distance function over an in-memory mesh.
func NewMeshSDF[T geometry.Float](mesh *geometry.Mesh[T]) (*MeshSDF[T], error) {
	tree, err := geometry.NewOctree(mesh, 0, 0)
	if err != nil {
		return nil, err
	}
	return &MeshSDF[T]{tree: tree}, nil
}

// LoadMeshSDF reads an OBJ file and builds the distance function.
func LoadMeshSDF[T geometry.Float](path string) (*MeshSDF[T], error) {
	m := &MeshSDF[T]{}
	if err := m.load(path); err != nil {
		return nil, err
	}
	return m, nil
}

// newEmptyMeshSDF is the registry factory; the Path parameter loads the
// mesh afterwards.
func newEmptyMeshSDF[T geometry.Float]() *MeshSDF[T] {
	return &MeshSDF[T]{}
}

func (m *MeshSDF[T]) load(path string) error {
	mesh, err := objio.Read[T](path)
	if err != nil {
		return fmt.Errorf("loading mesh %q: %w", path, err)
	}
	tree, err := geometry.NewOctree(mesh, 0, 0)
	if err != nil {
		return fmt.Errorf("building octree for %q: %w", path, err)
	}
	m.Path = path
	m.tree = tree
	return nil
}

func (m *MeshSDF[T]) Tag() string { return "MeshSDF" }

func (m *MeshSDF[T]) Evaluate(x, y, z T) T {
	if m.tree == nil {
		return farField[T]()
	}
	return m.tree.SignedDistance(geometry.NewVec3(x, y, z))
}

func (m *MeshSDF[T]) Parameters() []model.Parameter {
	return []model.Parameter{{Name: "Path", Type: model.TypeText}}
}

func (m *MeshSDF[T]) Parameter(name string) (model.Data[T], error) {
	if name == "Path" {
		return model.TextData[T](m.Path), nil
	}
	return model.Data[T]{}, unknownParam(m.Tag(), name)
}

func (m *MeshSDF[T]) SetParameter(name string, value model.Data[T]) error {
	path, ok := value.Text()
	if !ok || name != "Path" {
		return badParam(m.Tag(), name, value, m.Parameters())
	}
	return m.load(path)
}

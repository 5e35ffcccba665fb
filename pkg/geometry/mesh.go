package geometry

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Mesh is an indexed triangle mesh. Vertex normals are optional; when
// present the normals slice has the same length as the vertex slice.
type Mesh[T Float] struct {
	vertices []Vec3[T]
	faces    [][3]int
	normals  []Vec3[T]
}

// NewMesh creates an empty mesh.
func NewMesh[T Float]() *Mesh[T] {
	return &Mesh[T]{}
}

// Vertices returns the vertex positions.
func (m *Mesh[T]) Vertices() []Vec3[T] { return m.vertices }

// Faces returns the triangle index triples.
func (m *Mesh[T]) Faces() [][3]int { return m.faces }

// Normals returns the vertex normals, or nil when not computed.
func (m *Mesh[T]) Normals() []Vec3[T] { return m.normals }

// NumVertices returns the vertex count.
func (m *Mesh[T]) NumVertices() int { return len(m.vertices) }

// NumFaces returns the triangle count.
func (m *Mesh[T]) NumFaces() int { return len(m.faces) }

// AddVertices appends vertices to the mesh.
func (m *Mesh[T]) AddVertices(vertices ...Vec3[T]) {
	m.vertices = append(m.vertices, vertices...)
}

// AddFaces appends faces to the mesh. Indices must reference existing or
// subsequently added vertices; Validate checks the invariant.
func (m *Mesh[T]) AddFaces(faces ...[3]int) {
	m.faces = append(m.faces, faces...)
}

// SetNormals assigns explicit vertex normals. The slice length must match
// the vertex count.
func (m *Mesh[T]) SetNormals(normals []Vec3[T]) error {
	if len(normals) != len(m.vertices) {
		return fmt.Errorf("normal count %d does not match vertex count %d", len(normals), len(m.vertices))
	}
	m.normals = normals
	return nil
}

// Validate checks the mesh invariants: all face indices in range and, when
// present, one normal per vertex.
func (m *Mesh[T]) Validate() error {
	for fi, f := range m.faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.vertices) {
				return fmt.Errorf("face %d references vertex %d, have %d vertices", fi, idx, len(m.vertices))
			}
		}
	}
	if m.normals != nil && len(m.normals) != len(m.vertices) {
		return fmt.Errorf("normal count %d does not match vertex count %d", len(m.normals), len(m.vertices))
	}
	return nil
}

// Bounds returns the bounding box of all vertices.
func (m *Mesh[T]) Bounds() (BoundingBox[T], error) {
	return BoundsFromPoints(m.vertices)
}

// Centroid returns the average of all vertices.
func (m *Mesh[T]) Centroid() Vec3[T] {
	var c Vec3[T]
	if len(m.vertices) == 0 {
		return c
	}
	for _, v := range m.vertices {
		c = c.Add(v)
	}
	return c.Scale(1 / T(len(m.vertices)))
}

// AsTriangles expands the indexed faces into a flat triangle list.
func (m *Mesh[T]) AsTriangles() []Triangle[T] {
	tris := make([]Triangle[T], 0, len(m.faces))
	for _, f := range m.faces {
		tris = append(tris, Triangle[T]{m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]})
	}
	return tris
}

// EdgeFaceCounts returns, for every undirected edge, the number of faces
// sharing it. Used to check manifoldness of closed iso-surfaces.
func (m *Mesh[T]) EdgeFaceCounts() map[[2]int]int {
	counts := make(map[[2]int]int, 3*len(m.faces)/2)
	for _, f := range m.faces {
		for e := 0; e < 3; e++ {
			a, b := f[e], f[(e+1)%3]
			if a > b {
				a, b = b, a
			}
			counts[[2]int{a, b}]++
		}
	}
	return counts
}

// FromTriangles builds an indexed mesh from a triangle soup, welding
// coincident vertices within the tolerance and dropping triangles that
// degenerate after welding. A non-positive tolerance uses the package
// default. When computeNormals is set, smooth vertex normals are computed.
func FromTriangles[T Float](triangles []Triangle[T], tolerance T, computeNormals bool) *Mesh[T] {
	before := time.Now()
	grid := NewSpatialHashGrid(tolerance)
	mesh := NewMesh[T]()

	for _, tri := range triangles {
		ids := [3]int{
			grid.AddPoint(tri.P1),
			grid.AddPoint(tri.P2),
			grid.AddPoint(tri.P3),
		}
		if ids[0] == ids[1] || ids[0] == ids[2] || ids[1] == ids[2] {
			continue
		}
		mesh.faces = append(mesh.faces, ids)
	}
	mesh.vertices = grid.Vertices()

	log.Debug().
		Int("vertices", mesh.NumVertices()).
		Int("faces", mesh.NumFaces()).
		Dur("elapsed", time.Since(before)).
		Msg("Mesh topology generated")

	if computeNormals {
		mesh.ComputeVertexNormals()
	}
	return mesh
}

// ComputeVertexNormals computes and stores smooth vertex normals as the
// angle-weighted average of incident face normals. Vertices are processed
// in parallel; the result does not depend on the worker count.
func (m *Mesh[T]) ComputeVertexNormals() {
	before := time.Now()
	faceNormals := m.faceNormals()
	vertexFaces := m.vertexFaces()

	normals := make([]Vec3[T], len(m.vertices))
	parallelRanges(len(m.vertices), func(start, end int) {
		for vi := start; vi < end; vi++ {
			var sum Vec3[T]
			for _, fi := range vertexFaces[vi] {
				w := m.faceAngleAtVertex(vi, fi)
				sum = sum.Add(faceNormals[fi].Scale(w))
			}
			if n, err := sum.Normalized(); err == nil {
				normals[vi] = n
			}
		}
	})
	m.normals = normals

	log.Debug().
		Int("vertices", len(m.vertices)).
		Dur("elapsed", time.Since(before)).
		Msg("Vertex normals computed")
}

func (m *Mesh[T]) faceNormals() []Vec3[T] {
	normals := make([]Vec3[T], len(m.faces))
	parallelRanges(len(m.faces), func(start, end int) {
		for fi := start; fi < end; fi++ {
			f := m.faces[fi]
			tri := Triangle[T]{m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]}
			if n, err := tri.Normal().Normalized(); err == nil {
				normals[fi] = n
			}
		}
	})
	return normals
}

func (m *Mesh[T]) vertexFaces() [][]int {
	faces := make([][]int, len(m.vertices))
	for fi, f := range m.faces {
		faces[f[0]] = append(faces[f[0]], fi)
		faces[f[1]] = append(faces[f[1]], fi)
		faces[f[2]] = append(faces[f[2]], fi)
	}
	return faces
}

func (m *Mesh[T]) faceAngleAtVertex(vertexIndex, faceIndex int) T {
	f := m.faces[faceIndex]
	tri := Triangle[T]{m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]}
	for corner, idx := range f {
		if idx == vertexIndex {
			return tri.AngleAt(corner)
		}
	}
	return 0
}

// parallelRanges splits [0, n) into one contiguous range per worker and
// runs fn on each concurrently. Workers write to disjoint ranges only.
func parallelRanges(n int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

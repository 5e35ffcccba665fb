package geometry

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMaxLeafTriangles is the default triangle count threshold below
// which an octree node stops subdividing.
const DefaultMaxLeafTriangles = 32

// DefaultMaxOctreeDepth is the default recursion cap for octree builds.
const DefaultMaxOctreeDepth = 10

// Octree accelerates closest point and signed distance queries against a
// triangle mesh. Nodes store triangle indices into the source mesh rather
// than geometry, keeping the tree small.
//
// The sign of a distance query is determined from angle-weighted
// pseudo-normals (Baerentzen & Aanaes), which are precomputed per face,
// edge and vertex from the mesh topology.
type Octree[T Float] struct {
	vertices  []Vec3[T]
	faces     [][3]int
	triangles []Triangle[T]

	faceNormals   []Vec3[T]
	vertexNormals []Vec3[T]
	edgeNormals   map[[2]int]Vec3[T]

	root         *octreeNode[T]
	maxDepth     int
	maxTriangles int
}

type octreeNode[T Float] struct {
	bounds   BoundingBox[T]
	indices  []int
	children *[8]*octreeNode[T]
}

// NewOctree builds an octree over the triangles of a mesh. maxDepth and
// maxTriangles control subdivision; non-positive values use the defaults.
func NewOctree[T Float](mesh *Mesh[T], maxDepth, maxTriangles int) (*Octree[T], error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxOctreeDepth
	}
	if maxTriangles <= 0 {
		maxTriangles = DefaultMaxLeafTriangles
	}
	bounds, err := mesh.Bounds()
	if err != nil {
		return nil, err
	}

	before := time.Now()
	tree := &Octree[T]{
		vertices:     mesh.Vertices(),
		faces:        mesh.Faces(),
		triangles:    mesh.AsTriangles(),
		maxDepth:     maxDepth,
		maxTriangles: maxTriangles,
	}
	tree.computePseudoNormals()

	all := make([]int, len(tree.triangles))
	for i := range all {
		all[i] = i
	}
	// Pad the bounds slightly so triangles on the boundary stay inside.
	dx, dy, dz := bounds.Dimensions()
	pad := Max(Max(dx, dy), dz) * T(0.001)
	if pad == 0 {
		pad = DefaultTolerance[T]()
	}
	root := &octreeNode[T]{bounds: bounds.Offset(pad), indices: all}
	root.build(tree, maxDepth)
	tree.root = root

	log.Debug().
		Int("triangles", len(tree.triangles)).
		Dur("elapsed", time.Since(before)).
		Msg("Octree built")
	return tree, nil
}

// Bounds returns the padded bounds of the whole tree.
func (o *Octree[T]) Bounds() BoundingBox[T] {
	return o.root.bounds
}

func (o *Octree[T]) computePseudoNormals() {
	o.faceNormals = make([]Vec3[T], len(o.faces))
	o.vertexNormals = make([]Vec3[T], len(o.vertices))
	o.edgeNormals = make(map[[2]int]Vec3[T], 3*len(o.faces)/2)

	for fi, f := range o.faces {
		tri := o.triangles[fi]
		n, err := tri.Normal().Normalized()
		if err != nil {
			continue
		}
		o.faceNormals[fi] = n

		for corner := 0; corner < 3; corner++ {
			vi := f[corner]
			o.vertexNormals[vi] = o.vertexNormals[vi].Add(n.Scale(tri.AngleAt(corner)))

			a, b := f[corner], f[(corner+1)%3]
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			o.edgeNormals[key] = o.edgeNormals[key].Add(n)
		}
	}
}

func (n *octreeNode[T]) build(tree *Octree[T], depth int) {
	if len(n.indices) <= tree.maxTriangles || depth == 0 {
		return
	}

	center := n.bounds.Centroid()
	var children [8]*octreeNode[T]
	for i := 0; i < 8; i++ {
		min := n.bounds.Min
		max := center
		if i&1 != 0 {
			min.X, max.X = center.X, n.bounds.Max.X
		}
		if i&2 != 0 {
			min.Y, max.Y = center.Y, n.bounds.Max.Y
		}
		if i&4 != 0 {
			min.Z, max.Z = center.Z, n.bounds.Max.Z
		}
		children[i] = &octreeNode[T]{bounds: BoundingBox[T]{Min: min, Max: max}}
	}

	for _, ti := range n.indices {
		triBounds := tree.triangles[ti].Bounds()
		for _, child := range children {
			if child.bounds.Intersects(triBounds) {
				child.indices = append(child.indices, ti)
			}
		}
	}

	// Give up splitting when subdivision does not separate the set, to
	// avoid unbounded duplication of large triangles.
	for _, child := range children {
		if len(child.indices) == len(n.indices) {
			return
		}
	}

	n.indices = nil
	n.children = &children
	for _, child := range children {
		child.build(tree, depth-1)
	}
}

// initialBound returns an upper bound on the distance from the query to
// the mesh: the box distance plus twice the diagonal covers the farthest
// triangle in the tree.
func (o *Octree[T]) initialBound(query Vec3[T]) T {
	diagonal := o.root.bounds.Min.DistanceTo(o.root.bounds.Max)
	return o.root.bounds.DistanceTo(query) + 2*diagonal
}

// ClosestPoint returns the closest point on the mesh to the query point
// and the index of the triangle it lies on.
func (o *Octree[T]) ClosestPoint(query Vec3[T]) (Vec3[T], int) {
	best := distResult[T]{absDistance: o.initialBound(query), triangle: -1}
	o.search(o.root, query, &best)
	return best.point, best.triangle
}

// SignedDistance returns the signed distance from the query point to the
// mesh surface. Negative values lie inside a consistently oriented closed
// mesh.
func (o *Octree[T]) SignedDistance(query Vec3[T]) T {
	best := distResult[T]{absDistance: o.initialBound(query), triangle: -1}
	o.search(o.root, query, &best)
	if best.triangle < 0 {
		return best.absDistance
	}
	if best.normal.Dot(query.Sub(best.point)) < 0 {
		return -best.absDistance
	}
	return best.absDistance
}

type distResult[T Float] struct {
	absDistance T
	point       Vec3[T]
	normal      Vec3[T]
	triangle    int
}

func (o *Octree[T]) search(n *octreeNode[T], query Vec3[T], best *distResult[T]) {
	if n.children != nil {
		// Best-first descent: visit children ordered by their box distance
		// and prune the ones that cannot improve on the current best.
		type childDist struct {
			node *octreeNode[T]
			dist T
		}
		order := make([]childDist, 0, 8)
		for _, child := range n.children {
			order = append(order, childDist{child, child.bounds.DistanceTo(query)})
		}
		sort.SliceStable(order, func(i, j int) bool { return order[i].dist < order[j].dist })
		for _, c := range order {
			if c.dist > best.absDistance {
				break
			}
			o.search(c.node, query, best)
		}
		return
	}

	for _, ti := range n.indices {
		cp, feature := o.triangles[ti].ClosestPoint(query)
		d := cp.DistanceTo(query)
		if d < best.absDistance {
			best.absDistance = d
			best.point = cp
			best.normal = o.pseudoNormal(ti, feature)
			best.triangle = ti
		}
	}
}

// pseudoNormal returns the angle-weighted pseudo-normal for the feature
// of a triangle the closest point fell on.
func (o *Octree[T]) pseudoNormal(triangle int, feature TriangleFeature) Vec3[T] {
	f := o.faces[triangle]
	switch feature {
	case FeatureFace:
		return o.faceNormals[triangle]
	case FeatureVertex1:
		return o.vertexNormals[f[0]]
	case FeatureVertex2:
		return o.vertexNormals[f[1]]
	case FeatureVertex3:
		return o.vertexNormals[f[2]]
	case FeatureEdge12:
		return o.edgeNormal(f[0], f[1])
	case FeatureEdge23:
		return o.edgeNormal(f[1], f[2])
	default:
		return o.edgeNormal(f[2], f[0])
	}
}

func (o *Octree[T]) edgeNormal(a, b int) Vec3[T] {
	if a > b {
		a, b = b, a
	}
	return o.edgeNormals[[2]int{a, b}]
}

// Package mc implements table-driven marching cubes iso-surface
// extraction over dense and sparse scalar fields, with shared-edge vertex
// deduplication for indexed output.
package mc

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joelhi/imlet-go/pkg/field"
	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
	"github.com/rs/zerolog/log"
)

// degenerateEdgeFraction scales the cell size into the epsilon below
// which an active edge's value difference counts as degenerate and the
// midpoint is emitted.
const degenerateEdgeFraction = 1e-7

// classify returns the corner bitmask of a cell: bit n is set when corner
// n lies below the iso-value. A corner exactly at the iso-value does not
// set its bit, which keeps the table lookups consistent.
func classify[T geometry.Float](values [8]T, iso T) int {
	index := 0
	for i, v := range values {
		if v < iso {
			index |= 1 << i
		}
	}
	return index
}

// interpolateEdge places a vertex on the segment from a to b where the
// field crosses the iso-value. The parameter is clamped into [0, 1]; when
// the value difference is degenerate the midpoint is used.
func interpolateEdge[T geometry.Float](a, b geometry.Vec3[T], va, vb, iso, eps T) geometry.Vec3[T] {
	if geometry.Abs(vb-va) < eps {
		return geometry.Lerp(a, b, T(0.5))
	}
	t := geometry.Clamp((iso-va)/(vb-va), 0, 1)
	return geometry.Lerp(a, b, t)
}

// polygonizeCell appends the triangles of one cell to dst.
func polygonizeCell[T geometry.Float](dst []geometry.Triangle[T], cell field.Cell[T], iso, eps T) []geometry.Triangle[T] {
	index := classify(cell.Values, iso)
	if edgeTable[index] == 0 {
		return dst
	}

	corners := cell.Bounds.Corners()
	var vertices [12]geometry.Vec3[T]
	for e := 0; e < 12; e++ {
		if edgeTable[index]&(1<<e) == 0 {
			continue
		}
		lo, hi := canonicalEdgeCorners[e][0], canonicalEdgeCorners[e][1]
		vertices[e] = interpolateEdge(corners[lo], corners[hi], cell.Values[lo], cell.Values[hi], iso, eps)
	}

	row := &triTable[index]
	for i := 0; i < 15 && row[i] != -1; i += 3 {
		dst = append(dst, geometry.Triangle[T]{
			P1: vertices[row[i]],
			P2: vertices[row[i+1]],
			P3: vertices[row[i+2]],
		})
	}
	return dst
}

// GenerateIsoSurface polygonizes every active cell of a field into a
// triangle list, in the field's deterministic cell order.
func GenerateIsoSurface[T geometry.Float](f field.CellField[T], iso T) []geometry.Triangle[T] {
	before := time.Now()
	eps := f.CellSize() * T(degenerateEdgeFraction)

	var triangles []geometry.Triangle[T]
	f.ForEachActiveCell(func(cell field.Cell[T]) {
		triangles = polygonizeCell(triangles, cell, iso, eps)
	})

	log.Debug().
		Int("triangles", len(triangles)).
		Dur("elapsed", time.Since(before)).
		Msg("Marching cubes finished")
	return triangles
}

// GenerateIsoSurfaceParallel polygonizes a dense field with one worker
// per z-slab, polling cancellation once per slab row. Each worker emits
// to its own buffer and the buffers concatenate in slab order, so the
// triangle list is identical to the sequential result for any worker
// count. On cancellation no triangles are returned.
func GenerateIsoSurfaceParallel[T geometry.Float](ctx context.Context, f *field.DenseField[T], iso T) ([]geometry.Triangle[T], error) {
	before := time.Now()
	eps := f.CellSize() * T(degenerateEdgeFraction)
	_, _, cz := f.CellCounts()

	workers := runtime.GOMAXPROCS(0)
	if workers > cz {
		workers = cz
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (cz + workers - 1) / workers

	type slab struct {
		start, end int
	}
	var slabs []slab
	for start := 0; start < cz; start += chunk {
		end := start + chunk
		if end > cz {
			end = cz
		}
		slabs = append(slabs, slab{start, end})
	}

	var cancelled atomic.Bool
	buffers := make([][]geometry.Triangle[T], len(slabs))
	var wg sync.WaitGroup
	for si, s := range slabs {
		wg.Add(1)
		go func(si int, s slab) {
			defer wg.Done()
			var local []geometry.Triangle[T]
			for k := s.start; k < s.end; k++ {
				if ctx.Err() != nil {
					cancelled.Store(true)
					return
				}
				f.ForEachCellInSlab(k, k+1, func(cell field.Cell[T]) {
					local = polygonizeCell(local, cell, iso, eps)
				})
			}
			buffers[si] = local
		}(si, s)
	}
	wg.Wait()

	if cancelled.Load() {
		return nil, fmt.Errorf("%w: iso-surface extraction", model.ErrCancelled)
	}

	var triangles []geometry.Triangle[T]
	for _, buf := range buffers {
		triangles = append(triangles, buf...)
	}

	log.Debug().
		Int("triangles", len(triangles)).
		Int("slabs", len(slabs)).
		Dur("elapsed", time.Since(before)).
		Msg("Marching cubes finished")
	return triangles, nil
}

// edgeKey identifies a grid edge globally: the grid coordinates of its
// lower corner and its axis (0 = x, 1 = y, 2 = z). Neighboring cells
// produce the same key for a shared edge.
type edgeKey struct {
	i, j, k int
	axis    uint8
}

// canonicalEdges maps a cell's twelve edge indices to their global key
// offsets and axes.
var canonicalEdges = [12]struct {
	di, dj, dk int
	axis       uint8
}{
	{0, 0, 0, 0}, // edge 0: +x at (j, k)
	{1, 0, 0, 1}, // edge 1: +y at (i+1, k)
	{0, 1, 0, 0}, // edge 2: +x at (j+1, k)
	{0, 0, 0, 1}, // edge 3: +y at (i, k)
	{0, 0, 1, 0}, // edge 4
	{1, 0, 1, 1}, // edge 5
	{0, 1, 1, 0}, // edge 6
	{0, 0, 1, 1}, // edge 7
	{0, 0, 0, 2}, // edge 8: +z at (i, j)
	{1, 0, 0, 2}, // edge 9
	{1, 1, 0, 2}, // edge 10
	{0, 1, 0, 2}, // edge 11
}

// canonicalEdgeCorners lists each edge's two cell corners ordered by
// increasing coordinate along the edge axis, so both cells sharing an
// edge interpolate from the same endpoint and produce bit-identical
// vertices.
var canonicalEdgeCorners = [12][2]int{
	{0, 1}, {1, 2}, {3, 2}, {0, 3},
	{4, 5}, {5, 6}, {7, 6}, {4, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// GenerateIndexedIsoSurface polygonizes a field directly into an indexed
// mesh. Each grid edge owns at most one vertex, cached by its global edge
// key, so vertices shared between neighboring cells — including cells in
// different leaves of a sparse field — deduplicate exactly. Cancellation
// is polled whenever the iteration enters a new z plane; a cancelled run
// returns no mesh.
func GenerateIndexedIsoSurface[T geometry.Float](ctx context.Context, f field.CellField[T], iso T) (*geometry.Mesh[T], error) {
	before := time.Now()
	eps := f.CellSize() * T(degenerateEdgeFraction)

	mesh := geometry.NewMesh[T]()
	cache := make(map[edgeKey]int)
	var vertices []geometry.Vec3[T]

	cancelled := false
	lastPlane := -1
	f.ForEachActiveCell(func(cell field.Cell[T]) {
		if cancelled {
			return
		}
		if cell.K != lastPlane {
			lastPlane = cell.K
			if ctx.Err() != nil {
				cancelled = true
				return
			}
		}
		index := classify(cell.Values, iso)
		if edgeTable[index] == 0 {
			return
		}

		corners := cell.Bounds.Corners()
		var edgeVertex [12]int
		for e := 0; e < 12; e++ {
			if edgeTable[index]&(1<<e) == 0 {
				continue
			}
			ce := canonicalEdges[e]
			key := edgeKey{cell.I + ce.di, cell.J + ce.dj, cell.K + ce.dk, ce.axis}
			vi, seen := cache[key]
			if !seen {
				lo, hi := canonicalEdgeCorners[e][0], canonicalEdgeCorners[e][1]
				v := interpolateEdge(corners[lo], corners[hi], cell.Values[lo], cell.Values[hi], iso, eps)
				vi = len(vertices)
				vertices = append(vertices, v)
				cache[key] = vi
			}
			edgeVertex[e] = vi
		}

		row := &triTable[index]
		for i := 0; i < 15 && row[i] != -1; i += 3 {
			a := edgeVertex[row[i]]
			b := edgeVertex[row[i+1]]
			c := edgeVertex[row[i+2]]
			if a == b || b == c || a == c {
				continue
			}
			mesh.AddFaces([3]int{a, b, c})
		}
	})
	if cancelled {
		return nil, fmt.Errorf("%w: iso-surface extraction", model.ErrCancelled)
	}
	mesh.AddVertices(vertices...)

	log.Debug().
		Int("vertices", mesh.NumVertices()).
		Int("faces", mesh.NumFaces()).
		Dur("elapsed", time.Since(before)).
		Msg("Indexed marching cubes finished")
	return mesh, nil
}

// NormalsFromField assigns per-vertex normals from central differences of
// the scalar field at each vertex, falling back to one-sided differences
// where the stencil would leave the bounds. The normal points along the
// field gradient, outward for signed distance fields.
func NormalsFromField[T geometry.Float](mesh *geometry.Mesh[T], eval func(x, y, z T) T, bounds geometry.BoundingBox[T], h T) {
	normals := make([]geometry.Vec3[T], mesh.NumVertices())
	for vi, v := range mesh.Vertices() {
		g := geometry.NewVec3(
			difference(eval, v, geometry.NewVec3[T](1, 0, 0), bounds, h),
			difference(eval, v, geometry.NewVec3[T](0, 1, 0), bounds, h),
			difference(eval, v, geometry.NewVec3[T](0, 0, 1), bounds, h),
		)
		if n, err := g.Normalized(); err == nil {
			normals[vi] = n
		}
	}
	// Length matches by construction.
	_ = mesh.SetNormals(normals)
}

func difference[T geometry.Float](eval func(x, y, z T) T, p, dir geometry.Vec3[T], bounds geometry.BoundingBox[T], h T) T {
	forward := p.Add(dir.Scale(h))
	backward := p.Sub(dir.Scale(h))
	okF := bounds.Contains(forward)
	okB := bounds.Contains(backward)
	switch {
	case okF && okB:
		return (eval(forward.X, forward.Y, forward.Z) - eval(backward.X, backward.Y, backward.Z)) / (2 * h)
	case okF:
		return (eval(forward.X, forward.Y, forward.Z) - eval(p.X, p.Y, p.Z)) / h
	case okB:
		return (eval(p.X, p.Y, p.Z) - eval(backward.X, backward.Y, backward.Z)) / h
	default:
		return 0
	}
}

package field

import (
	"fmt"
	"math"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
)

// Sentinel returns the value reported for corners inside pruned regions:
// a fixed far value whose sign matches the pruning decision, so no sign
// change and no surface can appear there. sign is +1 for regions proven
// outside the surface and -1 for regions proven inside.
func Sentinel[T geometry.Float](sign int8) T {
	v := T(math.MaxFloat32 / 4)
	if sign < 0 {
		return -v
	}
	return v
}

// leafBlock owns the samples of one leaf: (L+1)^3 corner values. Corners
// on the boundary between neighboring leaves are stored redundantly in
// each, so every cell of a leaf reads all eight corners locally.
type leafBlock[T geometry.Float] struct {
	values []T
}

// internalBlock describes one internal region: either pruned as a whole
// with a known sign, or carrying per-leaf descriptors. Absent leaves keep
// the sign their pruning decision produced.
type internalBlock[T geometry.Float] struct {
	pruned    bool
	signWhole int8
	leaves    []*leafBlock[T]
	leafSigns []int8
}

// SparseField is a two-level sparse scalar field over a bounded region.
// The region is covered by a dense array of internal block descriptors;
// each internal block subdivides into leaf blocks, and only leaves the
// sampler proved potentially surface-crossing hold sample buffers.
// Memory use is bounded by the active leaf count, never the dense extent.
type SparseField[T geometry.Float] struct {
	config Config[T]
	origin geometry.Vec3[T]
	nix    int
	niy    int
	niz    int

	internals []internalBlock[T]
}

// NewSparseField creates an unsampled field covering the bounds. Every
// internal block starts unpruned with all leaves absent and marked
// outside.
func NewSparseField[T geometry.Float](bounds geometry.BoundingBox[T], config Config[T]) (*SparseField[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	dx, dy, dz := bounds.Dimensions()
	if dx < 0 || dy < 0 || dz < 0 {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidBounds, bounds)
	}

	side := T(config.InternalSize.Count()) * config.CellSize
	f := &SparseField[T]{
		config: config,
		origin: bounds.Min,
		nix:    ceilDiv(dx, side),
		niy:    ceilDiv(dy, side),
		niz:    ceilDiv(dz, side),
	}
	f.internals = make([]internalBlock[T], f.nix*f.niy*f.niz)
	leafCount := config.LeavesPerAxis() * config.LeavesPerAxis() * config.LeavesPerAxis()
	for i := range f.internals {
		f.internals[i].leaves = make([]*leafBlock[T], leafCount)
		f.internals[i].leafSigns = make([]int8, leafCount)
		for l := range f.internals[i].leafSigns {
			f.internals[i].leafSigns[l] = 1
		}
	}
	return f, nil
}

// Config returns the block configuration.
func (f *SparseField[T]) Config() Config[T] { return f.config }

// Origin returns the world position of grid corner (0, 0, 0).
func (f *SparseField[T]) Origin() geometry.Vec3[T] { return f.origin }

// CellSize returns the cell edge length.
func (f *SparseField[T]) CellSize() T { return f.config.CellSize }

// CellCounts returns the number of cells per axis covered by the block
// structure.
func (f *SparseField[T]) CellCounts() (int, int, int) {
	n := f.config.InternalSize.Count()
	return f.nix * n, f.niy * n, f.niz * n
}

// InternalCounts returns the number of internal blocks per axis.
func (f *SparseField[T]) InternalCounts() (int, int, int) { return f.nix, f.niy, f.niz }

// NumInternals returns the total number of internal blocks.
func (f *SparseField[T]) NumInternals() int { return len(f.internals) }

// InternalBounds returns the world bounds of an internal block by linear
// index.
func (f *SparseField[T]) InternalBounds(index int) geometry.BoundingBox[T] {
	ix, iy, iz := f.internalCoords(index)
	side := T(f.config.InternalSize.Count()) * f.config.CellSize
	min := geometry.NewVec3(
		f.origin.X+T(ix)*side,
		f.origin.Y+T(iy)*side,
		f.origin.Z+T(iz)*side,
	)
	return geometry.BoundingBox[T]{Min: min, Max: min.Add(geometry.NewVec3(side, side, side))}
}

// NumLeavesPerInternal returns the number of leaf slots in one internal
// block.
func (f *SparseField[T]) NumLeavesPerInternal() int {
	n := f.config.LeavesPerAxis()
	return n * n * n
}

// LeafBounds returns the world bounds of a leaf slot within an internal
// block.
func (f *SparseField[T]) LeafBounds(internalIndex, leafIndex int) geometry.BoundingBox[T] {
	internal := f.InternalBounds(internalIndex)
	lpa := f.config.LeavesPerAxis()
	lx, ly, lz := linearCoords(leafIndex, lpa, lpa)
	side := T(f.config.LeafSize.Count()) * f.config.CellSize
	min := geometry.NewVec3(
		internal.Min.X+T(lx)*side,
		internal.Min.Y+T(ly)*side,
		internal.Min.Z+T(lz)*side,
	)
	return geometry.BoundingBox[T]{Min: min, Max: min.Add(geometry.NewVec3(side, side, side))}
}

// PruneInternal marks a whole internal block as surface-free with the
// given sign, releasing any leaves.
func (f *SparseField[T]) PruneInternal(index int, sign int8) {
	b := &f.internals[index]
	b.pruned = true
	b.signWhole = sign
	for i := range b.leaves {
		b.leaves[i] = nil
		b.leafSigns[i] = sign
	}
}

// IsInternalPruned reports whether the internal block was pruned whole.
func (f *SparseField[T]) IsInternalPruned(index int) bool {
	return f.internals[index].pruned
}

// PruneLeaf marks one leaf slot as surface-free with the given sign.
func (f *SparseField[T]) PruneLeaf(internalIndex, leafIndex int, sign int8) {
	b := &f.internals[internalIndex]
	b.leaves[leafIndex] = nil
	b.leafSigns[leafIndex] = sign
}

// SetLeaf stores the sample buffer of a leaf. The buffer length must be
// (L+1)^3; the field takes ownership.
func (f *SparseField[T]) SetLeaf(internalIndex, leafIndex int, values []T) error {
	n := f.config.LeafSize.Count() + 1
	if len(values) != n*n*n {
		return fmt.Errorf("%w: leaf buffer length %d, want %d", model.ErrInvalidBlockSize, len(values), n*n*n)
	}
	f.internals[internalIndex].leaves[leafIndex] = &leafBlock[T]{values: values}
	return nil
}

// ActiveLeafCount returns the number of leaves holding samples.
func (f *SparseField[T]) ActiveLeafCount() int {
	count := 0
	for i := range f.internals {
		for _, leaf := range f.internals[i].leaves {
			if leaf != nil {
				count++
			}
		}
	}
	return count
}

// SampleCount returns the total number of stored samples.
func (f *SparseField[T]) SampleCount() int {
	n := f.config.LeafSize.Count() + 1
	return f.ActiveLeafCount() * n * n * n
}

// SampleAt returns the stored value at global grid corner (i, j, k).
// Corners inside pruned regions report the sentinel of their pruning
// sign. Corners shared between leaves are stored redundantly; any owning
// leaf answers, preferring a present one.
func (f *SparseField[T]) SampleAt(i, j, k int) T {
	if v, ok := f.lookup(i, j, k, 0, 0, 0); ok {
		return v
	}
	// Corner on a leaf boundary: the redundant copies in the leaves
	// toward lower indices may exist even when the owning leaf is absent.
	L := f.config.LeafSize.Count()
	for di := 0; di <= 1; di++ {
		for dj := 0; dj <= 1; dj++ {
			for dk := 0; dk <= 1; dk++ {
				if di == 0 && dj == 0 && dk == 0 {
					continue
				}
				if (di == 1 && i%L != 0) || (dj == 1 && j%L != 0) || (dk == 1 && k%L != 0) {
					continue
				}
				if v, ok := f.lookup(i, j, k, di, dj, dk); ok {
					return v
				}
			}
		}
	}
	return f.sentinelAt(i, j, k)
}

// lookup reads a corner from the leaf owning it. A shift of 1 on an axis
// addresses the previous leaf on that axis through its redundant far-face
// copy.
func (f *SparseField[T]) lookup(i, j, k, di, dj, dk int) (T, bool) {
	internalIdx, leafIdx, ci, cj, ck, ok := f.decompose(i, j, k, di, dj, dk)
	if !ok {
		return 0, false
	}
	leaf := f.internals[internalIdx].leaves[leafIdx]
	if leaf == nil {
		return 0, false
	}
	n := f.config.LeafSize.Count() + 1
	return leaf.values[ci+n*(cj+n*ck)], true
}

// decompose maps a global corner index to (internal, leaf, intra-leaf)
// indices. A shift of 1 on an axis selects the previous leaf on that
// axis, addressing the corner as its far-face copy.
func (f *SparseField[T]) decompose(i, j, k, si, sj, sk int) (internalIdx, leafIdx, ci, cj, ck int, ok bool) {
	I := f.config.InternalSize.Count()
	L := f.config.LeafSize.Count()
	lpa := f.config.LeavesPerAxis()

	axis := func(g, shift, internals int) (int, int, int, bool) {
		if g < 0 {
			return 0, 0, 0, false
		}
		leafGlobal := g / L
		corner := g % L
		if shift == 1 {
			if g%L != 0 || g == 0 {
				return 0, 0, 0, false
			}
			leafGlobal = g/L - 1
			corner = L
		}
		internal := leafGlobal / lpa
		leaf := leafGlobal % lpa
		if internal >= internals {
			// The very last corner plane belongs to the final leaf's far
			// face.
			if g == internals*I && shift == 0 {
				return internals - 1, lpa - 1, L, true
			}
			return 0, 0, 0, false
		}
		return internal, leaf, corner, true
	}

	ix, lx, cx, okX := axis(i, si, f.nix)
	iy, ly, cy, okY := axis(j, sj, f.niy)
	iz, lz, cz, okZ := axis(k, sk, f.niz)
	if !okX || !okY || !okZ {
		return 0, 0, 0, 0, 0, false
	}

	internalIdx = ix + f.nix*(iy+f.niy*iz)
	leafIdx = lx + lpa*(ly+lpa*lz)
	return internalIdx, leafIdx, cx, cy, cz, true
}

// sentinelAt returns the sentinel for a corner in a pruned region, signed
// by the pruning decision of the leaf slot covering it.
func (f *SparseField[T]) sentinelAt(i, j, k int) T {
	I := f.config.InternalSize.Count()
	L := f.config.LeafSize.Count()
	lpa := f.config.LeavesPerAxis()

	clampAxis := func(g, internals int) int {
		if g < 0 {
			return 0
		}
		if g >= internals*I {
			return internals*I - 1
		}
		return g
	}
	gi := clampAxis(i, f.nix)
	gj := clampAxis(j, f.niy)
	gk := clampAxis(k, f.niz)

	ix, iy, iz := gi/I, gj/I, gk/I
	internal := &f.internals[ix+f.nix*(iy+f.niy*iz)]
	if internal.pruned {
		return Sentinel[T](internal.signWhole)
	}
	lx := (gi % I) / L
	ly := (gj % I) / L
	lz := (gk % I) / L
	return Sentinel[T](internal.leafSigns[lx+lpa*(ly+lpa*lz)])
}

// ForEachActiveCell visits every cell of every present leaf, internals in
// linear order, leaves in linear order, cells in k, j, i order within a
// leaf. All eight corner values come from the leaf's own buffer.
func (f *SparseField[T]) ForEachActiveCell(fn func(Cell[T])) {
	L := f.config.LeafSize.Count()
	lpa := f.config.LeavesPerAxis()
	n := L + 1
	c := f.config.CellSize

	for internalIdx := range f.internals {
		block := &f.internals[internalIdx]
		if block.pruned {
			continue
		}
		ix, iy, iz := f.internalCoords(internalIdx)
		for leafIdx, leaf := range block.leaves {
			if leaf == nil {
				continue
			}
			lx, ly, lz := linearCoords(leafIdx, lpa, lpa)
			baseI := (ix*lpa + lx) * L
			baseJ := (iy*lpa + ly) * L
			baseK := (iz*lpa + lz) * L

			for ck := 0; ck < L; ck++ {
				for cj := 0; cj < L; cj++ {
					for ci := 0; ci < L; ci++ {
						gi, gj, gk := baseI+ci, baseJ+cj, baseK+ck
						min := geometry.NewVec3(
							f.origin.X+T(gi)*c,
							f.origin.Y+T(gj)*c,
							f.origin.Z+T(gk)*c,
						)
						at := func(dx, dy, dz int) T {
							return leaf.values[(ci+dx)+n*((cj+dy)+n*(ck+dz))]
						}
						fn(Cell[T]{
							I: gi, J: gj, K: gk,
							Bounds: geometry.BoundingBox[T]{
								Min: min,
								Max: min.Add(geometry.NewVec3(c, c, c)),
							},
							Values: [8]T{
								at(0, 0, 0), at(1, 0, 0), at(1, 1, 0), at(0, 1, 0),
								at(0, 0, 1), at(1, 0, 1), at(1, 1, 1), at(0, 1, 1),
							},
						})
					}
				}
			}
		}
	}
}

func (f *SparseField[T]) internalCoords(index int) (int, int, int) {
	return linearCoords(index, f.nix, f.niy)
}

func linearCoords(index, nx, ny int) (int, int, int) {
	z := index / (nx * ny)
	rem := index - z*nx*ny
	return rem % nx, rem / nx, z
}

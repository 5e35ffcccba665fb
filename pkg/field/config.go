// Package field provides the discrete scalar field storage the samplers
// fill and the extractor reads: a flat dense grid for small models, and a
// two-level sparse block hierarchy that stores samples only near the
// iso-surface.
package field

import (
	"fmt"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
)

// BlockSize is a power-of-two block edge length in cells.
type BlockSize int

// The permitted block sizes.
const (
	Size2   BlockSize = 2
	Size4   BlockSize = 4
	Size8   BlockSize = 8
	Size16  BlockSize = 16
	Size32  BlockSize = 32
	Size64  BlockSize = 64
	Size128 BlockSize = 128
)

// NewBlockSize validates a block size. Valid sizes are the powers of two
// from 2 through 128.
func NewBlockSize(n int) (BlockSize, error) {
	switch n {
	case 2, 4, 8, 16, 32, 64, 128:
		return BlockSize(n), nil
	default:
		return 0, fmt.Errorf("%w: %d, want a power of two in [2, 128]", model.ErrInvalidBlockSize, n)
	}
}

// Count returns the edge length in cells.
func (b BlockSize) Count() int { return int(b) }

// Total returns the number of cells in a cubic block.
func (b BlockSize) Total() int { return int(b) * int(b) * int(b) }

func (b BlockSize) valid() bool {
	_, err := NewBlockSize(int(b))
	return err == nil
}

// Config describes the sparse field structure: the internal block size I
// (cells per internal block edge), the leaf block size L (cells per leaf
// edge), the cell size, and the join tolerance by which the Lipschitz
// pruning bound is relaxed.
type Config[T geometry.Float] struct {
	InternalSize  BlockSize
	LeafSize      BlockSize
	CellSize      T
	JoinTolerance T
}

// DefaultConfig returns a config with 32-cell internal blocks, 8-cell
// leaves and unit cells.
func DefaultConfig[T geometry.Float]() Config[T] {
	return Config[T]{
		InternalSize: Size32,
		LeafSize:     Size8,
		CellSize:     1,
	}
}

// WithCellSize returns a copy with the cell size replaced.
func (c Config[T]) WithCellSize(cellSize T) Config[T] {
	c.CellSize = cellSize
	return c
}

// WithInternalSize returns a copy with the internal block size replaced.
func (c Config[T]) WithInternalSize(size BlockSize) Config[T] {
	c.InternalSize = size
	return c
}

// WithLeafSize returns a copy with the leaf block size replaced.
func (c Config[T]) WithLeafSize(size BlockSize) Config[T] {
	c.LeafSize = size
	return c
}

// WithJoinTolerance returns a copy with the join tolerance replaced.
// Enlarging the tolerance samples more leaves and lowers the risk of
// missing thin features in fields that are not quite 1-Lipschitz.
func (c Config[T]) WithJoinTolerance(tolerance T) Config[T] {
	c.JoinTolerance = tolerance
	return c
}

// Validate checks the config invariants.
func (c Config[T]) Validate() error {
	if !c.InternalSize.valid() {
		return fmt.Errorf("%w: internal size %d", model.ErrInvalidBlockSize, c.InternalSize)
	}
	if !c.LeafSize.valid() {
		return fmt.Errorf("%w: leaf size %d", model.ErrInvalidBlockSize, c.LeafSize)
	}
	if c.InternalSize < c.LeafSize {
		return fmt.Errorf("%w: internal size %d smaller than leaf size %d",
			model.ErrInvalidBlockSize, c.InternalSize, c.LeafSize)
	}
	if c.CellSize <= 0 {
		return fmt.Errorf("%w: %v", model.ErrInvalidCellSize, c.CellSize)
	}
	if c.JoinTolerance < 0 {
		return fmt.Errorf("%w: join tolerance %v", model.ErrInvalidCellSize, c.JoinTolerance)
	}
	return nil
}

// LeavesPerAxis returns the number of leaf slots per internal block axis.
func (c Config[T]) LeavesPerAxis() int {
	return c.InternalSize.Count() / c.LeafSize.Count()
}

// Cell is one marching cubes cell of a field: its global integer cell
// coordinates, its world bounds, and the field values at its eight
// corners in marching cubes corner order.
type Cell[T geometry.Float] struct {
	I, J, K int
	Bounds  geometry.BoundingBox[T]
	Values  [8]T
}

// CellField is the surface the iso-surface extractor consumes: a regular
// cell grid that can enumerate the cells which may contain surface.
type CellField[T geometry.Float] interface {
	// CellSize returns the cell edge length.
	CellSize() T
	// Origin returns the world position of grid corner (0, 0, 0).
	Origin() geometry.Vec3[T]
	// CellCounts returns the number of cells per axis.
	CellCounts() (int, int, int)
	// ForEachActiveCell calls fn for every cell that may contain the
	// iso-surface, in a fixed deterministic order.
	ForEachActiveCell(fn func(Cell[T]))
}

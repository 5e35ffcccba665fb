package field

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
	"github.com/rs/zerolog/log"
)

// DenseField stores scalar samples on every corner of a regular grid.
// The buffer is laid out x-fastest: index = i + nx*(j + ny*k), where
// nx, ny, nz are the corner counts per axis. A grid of n corners per axis
// spans n-1 cells.
type DenseField[T geometry.Float] struct {
	origin   geometry.Vec3[T]
	cellSize T
	nx       int
	ny       int
	nz       int
	data     []T
}

// NewDenseField allocates a zeroed field with the given corner counts.
func NewDenseField[T geometry.Float](origin geometry.Vec3[T], cellSize T, nx, ny, nz int) (*DenseField[T], error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidCellSize, cellSize)
	}
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("%w: corner counts (%d, %d, %d)", model.ErrInvalidBounds, nx, ny, nz)
	}
	return &DenseField[T]{
		origin:   origin,
		cellSize: cellSize,
		nx:       nx,
		ny:       ny,
		nz:       nz,
		data:     make([]T, nx*ny*nz),
	}, nil
}

// DenseFromBounds allocates a field whose cells cover the bounds at the
// given cell size. Corner counts round up so the grid never falls short
// of the bounds.
func DenseFromBounds[T geometry.Float](bounds geometry.BoundingBox[T], cellSize T) (*DenseField[T], error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidCellSize, cellSize)
	}
	dx, dy, dz := bounds.Dimensions()
	nx := ceilDiv(dx, cellSize) + 1
	ny := ceilDiv(dy, cellSize) + 1
	nz := ceilDiv(dz, cellSize) + 1
	return NewDenseField(bounds.Min, cellSize, nx, ny, nz)
}

func ceilDiv[T geometry.Float](extent, cellSize T) int {
	n := int(extent / cellSize)
	if T(n)*cellSize < extent {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Origin returns the world position of corner (0, 0, 0).
func (f *DenseField[T]) Origin() geometry.Vec3[T] { return f.origin }

// CellSize returns the cell edge length.
func (f *DenseField[T]) CellSize() T { return f.cellSize }

// CornerCounts returns the number of corners per axis.
func (f *DenseField[T]) CornerCounts() (int, int, int) { return f.nx, f.ny, f.nz }

// CellCounts returns the number of cells per axis.
func (f *DenseField[T]) CellCounts() (int, int, int) { return f.nx - 1, f.ny - 1, f.nz - 1 }

// NumCorners returns the total corner count.
func (f *DenseField[T]) NumCorners() int { return len(f.data) }

// Data returns the underlying sample buffer.
func (f *DenseField[T]) Data() []T { return f.data }

// Index returns the buffer index of corner (i, j, k).
func (f *DenseField[T]) Index(i, j, k int) int {
	return i + f.nx*(j+f.ny*k)
}

// At returns the sample at corner (i, j, k).
func (f *DenseField[T]) At(i, j, k int) T {
	return f.data[f.Index(i, j, k)]
}

// Set assigns the sample at corner (i, j, k).
func (f *DenseField[T]) Set(i, j, k int, value T) {
	f.data[f.Index(i, j, k)] = value
}

// CornerPoint returns the world position of corner (i, j, k).
func (f *DenseField[T]) CornerPoint(i, j, k int) geometry.Vec3[T] {
	return geometry.NewVec3(
		f.origin.X+T(i)*f.cellSize,
		f.origin.Y+T(j)*f.cellSize,
		f.origin.Z+T(k)*f.cellSize,
	)
}

// Fill samples fn at every grid corner. fn must be safe for concurrent
// use; for stateful evaluators use FillContext with a per-worker factory.
func (f *DenseField[T]) Fill(fn func(x, y, z T) T) {
	_ = f.FillContext(context.Background(), func() func(x, y, z T) T { return fn })
}

// FillContext samples every grid corner with one evaluation function per
// worker, obtained from makeFn. Work is split into z-slabs, one
// contiguous buffer segment per worker, so the result is bit-identical to
// a sequential fill regardless of worker count. Cancellation is polled
// once per z-slab; on cancellation the buffer contents are unspecified
// and ErrCancelled is returned.
func (f *DenseField[T]) FillContext(ctx context.Context, makeFn func() func(x, y, z T) T) error {
	before := time.Now()
	workers := runtime.GOMAXPROCS(0)
	if workers > f.nz {
		workers = f.nz
	}

	var cancelled atomic.Bool
	var wg sync.WaitGroup
	chunk := (f.nz + workers - 1) / workers
	for start := 0; start < f.nz; start += chunk {
		end := start + chunk
		if end > f.nz {
			end = f.nz
		}
		wg.Add(1)
		go func(kStart, kEnd int) {
			defer wg.Done()
			fn := makeFn()
			for k := kStart; k < kEnd; k++ {
				if ctx.Err() != nil {
					cancelled.Store(true)
					return
				}
				z := f.origin.Z + T(k)*f.cellSize
				for j := 0; j < f.ny; j++ {
					y := f.origin.Y + T(j)*f.cellSize
					row := f.nx * (j + f.ny*k)
					for i := 0; i < f.nx; i++ {
						f.data[row+i] = fn(f.origin.X+T(i)*f.cellSize, y, z)
					}
				}
			}
		}(start, end)
	}
	wg.Wait()

	if cancelled.Load() {
		return fmt.Errorf("%w: dense sampling", model.ErrCancelled)
	}

	log.Debug().
		Int("points", len(f.data)).
		Dur("elapsed", time.Since(before)).
		Msg("Dense field sampled")
	return nil
}

// Smooth applies iterations of Laplacian relaxation with the given factor,
// blending each interior sample toward the average of its six neighbors.
// Each iteration reads the previous buffer and writes a fresh one, so the
// result is independent of traversal and worker count.
func (f *DenseField[T]) Smooth(factor T, iterations int) {
	for it := 0; it < iterations; it++ {
		prev := f.data
		next := make([]T, len(prev))
		copy(next, prev)
		parallelRanges(f.nz-2, func(start, end int) {
			for k := start + 1; k < end+1; k++ {
				for j := 1; j < f.ny-1; j++ {
					for i := 1; i < f.nx-1; i++ {
						idx := f.Index(i, j, k)
						laplacian := (prev[f.Index(i-1, j, k)] + prev[f.Index(i+1, j, k)] +
							prev[f.Index(i, j-1, k)] + prev[f.Index(i, j+1, k)] +
							prev[f.Index(i, j, k-1)] + prev[f.Index(i, j, k+1)]) / 6
						next[idx] = prev[idx] + factor*(laplacian-prev[idx])
					}
				}
			}
		})
		f.data = next
	}
}

// Pad overwrites the boundary corners with a fixed value, closing any
// surface that would otherwise exit through the field boundary.
func (f *DenseField[T]) Pad(value T) {
	for k := 0; k < f.nz; k++ {
		for j := 0; j < f.ny; j++ {
			for i := 0; i < f.nx; i++ {
				if i == 0 || j == 0 || k == 0 || i == f.nx-1 || j == f.ny-1 || k == f.nz-1 {
					f.data[f.Index(i, j, k)] = value
				}
			}
		}
	}
}

// ForEachActiveCell visits every cell of the grid in k, j, i order.
func (f *DenseField[T]) ForEachActiveCell(fn func(Cell[T])) {
	cx, cy, cz := f.CellCounts()
	for k := 0; k < cz; k++ {
		for j := 0; j < cy; j++ {
			for i := 0; i < cx; i++ {
				fn(f.cell(i, j, k))
			}
		}
	}
}

// ForEachCellInSlab visits the cells of z-slab [kStart, kEnd) in k, j, i
// order.
func (f *DenseField[T]) ForEachCellInSlab(kStart, kEnd int, fn func(Cell[T])) {
	cx, cy, _ := f.CellCounts()
	for k := kStart; k < kEnd; k++ {
		for j := 0; j < cy; j++ {
			for i := 0; i < cx; i++ {
				fn(f.cell(i, j, k))
			}
		}
	}
}

func (f *DenseField[T]) cell(i, j, k int) Cell[T] {
	min := f.CornerPoint(i, j, k)
	max := f.CornerPoint(i+1, j+1, k+1)
	return Cell[T]{
		I: i, J: j, K: k,
		Bounds: geometry.BoundingBox[T]{Min: min, Max: max},
		Values: [8]T{
			f.At(i, j, k),
			f.At(i+1, j, k),
			f.At(i+1, j+1, k),
			f.At(i, j+1, k),
			f.At(i, j, k+1),
			f.At(i+1, j, k+1),
			f.At(i+1, j+1, k+1),
			f.At(i, j+1, k+1),
		},
	}
}

func parallelRanges(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
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

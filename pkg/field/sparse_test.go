package field

import (
	"errors"
	"testing"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config[float64] {
	return Config[float64]{
		InternalSize: Size8,
		LeafSize:     Size4,
		CellSize:     1,
	}
}

// fillLeaf builds a leaf buffer by evaluating fn at the leaf's corner
// positions.
func fillLeaf(f *SparseField[float64], internalIdx, leafIdx int, fn func(x, y, z float64) float64) []float64 {
	L := f.Config().LeafSize.Count()
	n := L + 1
	bounds := f.LeafBounds(internalIdx, leafIdx)
	c := f.CellSize()
	values := make([]float64, n*n*n)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				p := bounds.PointAt(i, j, k, c)
				values[i+n*(j+n*k)] = fn(p.X, p.Y, p.Z)
			}
		}
	}
	return values
}

func TestBlockSizeValidation(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 32, 64, 128} {
		if _, err := NewBlockSize(n); err != nil {
			t.Errorf("NewBlockSize(%d): %v", n, err)
		}
	}
	for _, n := range []int{0, 1, 3, 12, 256} {
		if _, err := NewBlockSize(n); !errors.Is(err, model.ErrInvalidBlockSize) {
			t.Errorf("NewBlockSize(%d) should fail", n)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.CellSize = 0
	assert.ErrorIs(t, bad.Validate(), model.ErrInvalidCellSize)

	bad = cfg
	bad.InternalSize = Size4
	bad.LeafSize = Size8
	assert.ErrorIs(t, bad.Validate(), model.ErrInvalidBlockSize)

	bad = cfg
	bad.JoinTolerance = -1
	assert.Error(t, bad.Validate())
}

func TestSparseFieldLayout(t *testing.T) {
	bounds := geometry.MustBoundingBox(geometry.Origin[float64](), geometry.NewVec3(20.0, 10.0, 8.0))
	f, err := NewSparseField(bounds, testConfig())
	require.NoError(t, err)

	// Internal blocks cover 8 cells of size 1 per axis.
	nix, niy, niz := f.InternalCounts()
	assert.Equal(t, 3, nix)
	assert.Equal(t, 2, niy)
	assert.Equal(t, 1, niz)
	assert.Equal(t, 8, f.NumLeavesPerInternal())

	first := f.InternalBounds(0)
	assert.Equal(t, bounds.Min, first.Min)
	assert.Equal(t, geometry.NewVec3(8.0, 8.0, 8.0), first.Max)

	leaf := f.LeafBounds(0, 1)
	assert.Equal(t, geometry.NewVec3(4.0, 0.0, 0.0), leaf.Min)
	assert.Equal(t, geometry.NewVec3(8.0, 4.0, 4.0), leaf.Max)
}

func TestSparseFieldSentinelForAbsentLeaves(t *testing.T) {
	bounds := geometry.MustBoundingBox(geometry.Origin[float64](), geometry.NewVec3(16.0, 16.0, 16.0))
	f, err := NewSparseField(bounds, testConfig())
	require.NoError(t, err)

	// Nothing sampled: every corner reads the positive sentinel.
	v := f.SampleAt(3, 3, 3)
	assert.Equal(t, Sentinel[float64](1), v)

	// Prune an internal block as inside: its corners read negative.
	f.PruneInternal(0, -1)
	v = f.SampleAt(1, 1, 1)
	assert.Equal(t, Sentinel[float64](-1), v)
}

func TestSparseFieldStoredSamples(t *testing.T) {
	bounds := geometry.MustBoundingBox(geometry.Origin[float64](), geometry.NewVec3(16.0, 16.0, 16.0))
	f, err := NewSparseField(bounds, testConfig())
	require.NoError(t, err)

	fn := func(x, y, z float64) float64 { return x + 100*y + 10000*z }
	require.NoError(t, f.SetLeaf(0, 0, fillLeaf(f, 0, 0, fn)))

	assert.Equal(t, 1, f.ActiveLeafCount())
	assert.Equal(t, 125, f.SampleCount())

	// Interior corner of the stored leaf.
	assert.Equal(t, fn(2, 3, 1), f.SampleAt(2, 3, 1))
	// Far-face corner stored redundantly in this leaf.
	assert.Equal(t, fn(4, 4, 4), f.SampleAt(4, 4, 4))
	// Outside the stored leaf: sentinel.
	assert.Equal(t, Sentinel[float64](1), f.SampleAt(9, 9, 9))
}

func TestSparseFieldBoundaryCornerFromLowerLeaf(t *testing.T) {
	bounds := geometry.MustBoundingBox(geometry.Origin[float64](), geometry.NewVec3(16.0, 16.0, 16.0))
	f, err := NewSparseField(bounds, testConfig())
	require.NoError(t, err)

	fn := func(x, y, z float64) float64 { return x*x + y + z }
	require.NoError(t, f.SetLeaf(0, 0, fillLeaf(f, 0, 0, fn)))

	// Corner (4, 0, 0) is owned by the absent leaf 1 but stored
	// redundantly on the far face of leaf 0.
	assert.Equal(t, fn(4, 0, 0), f.SampleAt(4, 0, 0))
}

func TestSparseFieldActiveCellIteration(t *testing.T) {
	bounds := geometry.MustBoundingBox(geometry.Origin[float64](), geometry.NewVec3(16.0, 16.0, 16.0))
	f, err := NewSparseField(bounds, testConfig())
	require.NoError(t, err)

	fn := func(x, y, z float64) float64 { return z - 2.5 }
	require.NoError(t, f.SetLeaf(0, 0, fillLeaf(f, 0, 0, fn)))

	count := 0
	f.ForEachActiveCell(func(c Cell[float64]) {
		count++
		// Corner 0 is the cell minimum; corner 6 the maximum.
		assert.Equal(t, fn(c.Bounds.Min.X, c.Bounds.Min.Y, c.Bounds.Min.Z), c.Values[0])
		assert.Equal(t, fn(c.Bounds.Max.X, c.Bounds.Max.Y, c.Bounds.Max.Z), c.Values[6])
	})
	// One leaf of 4 cells per axis.
	assert.Equal(t, 64, count)
}

func TestSparseFieldIterationDeterministic(t *testing.T) {
	bounds := geometry.MustBoundingBox(geometry.Origin[float64](), geometry.NewVec3(16.0, 16.0, 16.0))
	f, _ := NewSparseField(bounds, testConfig())

	fn := func(x, y, z float64) float64 { return x - y }
	f.SetLeaf(0, 0, fillLeaf(f, 0, 0, fn))
	f.SetLeaf(1, 3, fillLeaf(f, 1, 3, fn))

	var first []Cell[float64]
	f.ForEachActiveCell(func(c Cell[float64]) { first = append(first, c) })
	var second []Cell[float64]
	f.ForEachActiveCell(func(c Cell[float64]) { second = append(second, c) })

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestSentinelSigns(t *testing.T) {
	assert.Positive(t, Sentinel[float64](1))
	assert.Negative(t, Sentinel[float64](-1))
	assert.Equal(t, -Sentinel[float32](1), Sentinel[float32](-1))
}

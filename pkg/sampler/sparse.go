package sampler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joelhi/imlet-go/pkg/field"
	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/mc"
	"github.com/joelhi/imlet-go/pkg/model"
	"github.com/rs/zerolog/log"
)

// Compile-time interface check.
var _ Sampler[float64] = (*SparseSampler[float64])(nil)

// SparseSampler samples a model into a sparse field in two passes: a
// coarse pass pruning whole internal blocks, and a fine pass pruning and
// filling individual leaves. The pruning test assumes the field is
// 1-Lipschitz: a block is skipped only when a sign change is absent and
// every probe is further from the iso-value than the block half-diagonal
// plus the join tolerance. For fields that grow faster than distance the
// test can miss surface; the join tolerance is the user-visible slack.
type SparseSampler[T geometry.Float] struct {
	bounds       geometry.BoundingBox[T]
	config       field.Config[T]
	iso          T
	fieldNormals bool

	sparse *field.SparseField[T]
	graph  *model.ComputationGraph[T]
}

// SparseBuilder configures and creates a SparseSampler.
type SparseBuilder[T geometry.Float] struct {
	bounds       *geometry.BoundingBox[T]
	config       *field.Config[T]
	iso          T
	fieldNormals bool
}

// NewSparse returns a builder for a sparse sampler.
func NewSparse[T geometry.Float]() *SparseBuilder[T] {
	return &SparseBuilder[T]{}
}

// WithBounds sets the sampling region.
func (b *SparseBuilder[T]) WithBounds(bounds geometry.BoundingBox[T]) *SparseBuilder[T] {
	b.bounds = &bounds
	return b
}

// WithConfig sets the sparse field configuration.
func (b *SparseBuilder[T]) WithConfig(config field.Config[T]) *SparseBuilder[T] {
	b.config = &config
	return b
}

// WithIsoValue sets the iso-value the pruning passes protect. Extraction
// at a different iso-value is only safe within the join tolerance of this
// one. Defaults to zero.
func (b *SparseBuilder[T]) WithIsoValue(iso T) *SparseBuilder[T] {
	b.iso = iso
	return b
}

// WithFieldNormals selects vertex normals computed by central differences
// of the model field instead of angle-weighted face normals.
func (b *SparseBuilder[T]) WithFieldNormals(enabled bool) *SparseBuilder[T] {
	b.fieldNormals = enabled
	return b
}

// Build validates the configuration and creates the sampler.
func (b *SparseBuilder[T]) Build() (*SparseSampler[T], error) {
	if b.bounds == nil {
		return nil, fmt.Errorf("%w: bounds are required", model.ErrInvalidBounds)
	}
	if b.config == nil {
		return nil, fmt.Errorf("%w: config is required", model.ErrInvalidBlockSize)
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return &SparseSampler[T]{
		bounds:       *b.bounds,
		config:       *b.config,
		iso:          b.iso,
		fieldNormals: b.fieldNormals,
	}, nil
}

// Field returns the sampled sparse field, or nil before sampling.
func (s *SparseSampler[T]) Field() *field.SparseField[T] { return s.sparse }

// SampleField evaluates the named model output across the bounds. The
// resulting active-leaf set and every stored value are a pure function of
// model, output and configuration, independent of worker count. On error
// or cancellation the sampler retains no partial field.
func (s *SparseSampler[T]) SampleField(ctx context.Context, m *model.ImplicitModel[T], output string) error {
	before := time.Now()
	graph, err := m.Compile(output)
	if err != nil {
		return err
	}

	sparse, err := field.NewSparseField(s.bounds, s.config)
	if err != nil {
		return err
	}

	active, err := s.coarsePass(ctx, graph, sparse)
	if err != nil {
		return err
	}
	if err := s.finePass(ctx, graph, sparse, active); err != nil {
		return err
	}

	s.graph = graph
	s.sparse = sparse

	log.Info().
		Int("internals", sparse.NumInternals()).
		Int("activeLeaves", sparse.ActiveLeafCount()).
		Int("samples", sparse.SampleCount()).
		Dur("elapsed", time.Since(before)).
		Msg("Sparse field sampled")
	return nil
}

// coarsePass tests every internal block at its corners and center,
// pruning blocks that provably contain no surface. Returns the indices of
// the blocks that may.
func (s *SparseSampler[T]) coarsePass(ctx context.Context, graph *model.ComputationGraph[T], sparse *field.SparseField[T]) ([]int, error) {
	halfDiagonal := geometry.Sqrt(T(3)) * T(s.config.InternalSize.Count()) * s.config.CellSize / 2
	reach := halfDiagonal + s.config.JoinTolerance

	activeFlags := make([]bool, sparse.NumInternals())
	signs := make([]int8, sparse.NumInternals())

	err := s.forEachParallel(ctx, sparse.NumInternals(), graph, func(index int, eval *model.Evaluator[T]) {
		bounds := sparse.InternalBounds(index)
		active, sign := s.probeBlock(eval, bounds, reach)
		activeFlags[index] = active
		signs[index] = sign
	})
	if err != nil {
		return nil, err
	}

	var active []int
	for index, flag := range activeFlags {
		if flag {
			active = append(active, index)
		} else {
			sparse.PruneInternal(index, signs[index])
		}
	}
	log.Debug().
		Int("active", len(active)).
		Int("total", sparse.NumInternals()).
		Msg("Coarse pass finished")
	return active, nil
}

// finePass tests each candidate leaf of the surviving internal blocks and
// fills the sample buffers of the leaves that may contain surface.
func (s *SparseSampler[T]) finePass(ctx context.Context, graph *model.ComputationGraph[T], sparse *field.SparseField[T], active []int) error {
	halfDiagonal := geometry.Sqrt(T(3)) * T(s.config.LeafSize.Count()) * s.config.CellSize / 2
	reach := halfDiagonal + s.config.JoinTolerance
	leavesPerInternal := sparse.NumLeavesPerInternal()

	return s.forEachParallel(ctx, len(active), graph, func(slot int, eval *model.Evaluator[T]) {
		internalIndex := active[slot]
		for leafIndex := 0; leafIndex < leavesPerInternal; leafIndex++ {
			bounds := sparse.LeafBounds(internalIndex, leafIndex)
			alive, sign := s.probeBlock(eval, bounds, reach)
			if !alive {
				sparse.PruneLeaf(internalIndex, leafIndex, sign)
				continue
			}
			// The error is impossible here: the buffer length is derived
			// from the same config the field validates against.
			_ = sparse.SetLeaf(internalIndex, leafIndex, s.fillLeaf(eval, bounds))
		}
	})
}

// probeBlock evaluates the model at the eight corners and the center of a
// block. The block stays active when the probes disagree in sign or any
// probe lies within reach of the iso-value; otherwise it is pruned with
// the shared sign.
func (s *SparseSampler[T]) probeBlock(eval *model.Evaluator[T], bounds geometry.BoundingBox[T], reach T) (bool, int8) {
	center := bounds.Centroid()
	first := eval.EvaluateVec3(center)
	sign := signOf(first, s.iso)
	minAbs := geometry.Abs(first - s.iso)

	for _, corner := range bounds.Corners() {
		v := eval.EvaluateVec3(corner)
		if signOf(v, s.iso) != sign {
			return true, sign
		}
		minAbs = geometry.Min(minAbs, geometry.Abs(v-s.iso))
	}
	return minAbs <= reach, sign
}

// fillLeaf samples the (L+1)^3 corner values of a leaf.
func (s *SparseSampler[T]) fillLeaf(eval *model.Evaluator[T], bounds geometry.BoundingBox[T]) []T {
	n := s.config.LeafSize.Count() + 1
	c := s.config.CellSize
	values := make([]T, n*n*n)
	idx := 0
	for k := 0; k < n; k++ {
		z := bounds.Min.Z + T(k)*c
		for j := 0; j < n; j++ {
			y := bounds.Min.Y + T(j)*c
			for i := 0; i < n; i++ {
				values[idx] = eval.EvaluateAt(bounds.Min.X+T(i)*c, y, z)
				idx++
			}
		}
	}
	return values
}

// forEachParallel runs fn over [0, n) with one evaluator per worker,
// polling cancellation once per item. Writes inside fn must go to
// disjoint per-index locations.
func (s *SparseSampler[T]) forEachParallel(ctx context.Context, n int, graph *model.ComputationGraph[T], fn func(index int, eval *model.Evaluator[T])) error {
	if n == 0 {
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}

	var cancelled atomic.Bool
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			eval := graph.Evaluator()
			for i := from; i < to; i++ {
				if ctx.Err() != nil {
					cancelled.Store(true)
					return
				}
				fn(i, eval)
			}
		}(start, end)
	}
	wg.Wait()

	if cancelled.Load() {
		return fmt.Errorf("%w: sparse sampling", model.ErrCancelled)
	}
	return nil
}

// IsoSurface extracts the level set at the iso-value from the sampled
// field. Shared-edge vertices deduplicate exactly; the mesh carries
// smooth vertex normals. Before sampling, the result is an empty mesh.
// Cancellation is polled per z plane; a cancelled extraction returns no
// mesh.
func (s *SparseSampler[T]) IsoSurface(ctx context.Context, iso T) (*geometry.Mesh[T], error) {
	if s.sparse == nil {
		return geometry.NewMesh[T](), nil
	}
	mesh, err := mc.GenerateIndexedIsoSurface[T](ctx, s.sparse, iso)
	if err != nil {
		return nil, err
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrEvaluationFailed, err)
	}
	s.computeNormals(mesh)
	return mesh, nil
}

func (s *SparseSampler[T]) computeNormals(mesh *geometry.Mesh[T]) {
	if s.fieldNormals && s.graph != nil {
		eval := s.graph.Evaluator()
		mc.NormalsFromField(mesh, func(x, y, z T) T {
			return eval.EvaluateAt(x, y, z)
		}, s.bounds, s.config.CellSize/2)
		return
	}
	mesh.ComputeVertexNormals()
}

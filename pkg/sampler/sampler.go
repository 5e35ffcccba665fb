// Package sampler turns implicit models into discrete scalar fields and
// extracts iso-surface meshes from them. The sparse sampler prunes
// regions provably free of surface before sampling; the dense sampler
// fills a full grid. Both are deterministic for any worker count and
// support cooperative cancellation.
package sampler

import (
	"context"

	"github.com/joelhi/imlet-go/pkg/geometry"
	"github.com/joelhi/imlet-go/pkg/model"
)

// Sampler is the shared surface of the dense and sparse samplers.
type Sampler[T geometry.Float] interface {
	// SampleField evaluates the named output of the model over the
	// sampler's bounds. On failure, including cancellation, no partial
	// field is retained.
	SampleField(ctx context.Context, m *model.ImplicitModel[T], output string) error
	// IsoSurface extracts the level set at the iso-value from the sampled
	// field as a welded triangle mesh with vertex normals. Cancellation
	// is polled per z-slab; a cancelled extraction returns no mesh.
	IsoSurface(ctx context.Context, iso T) (*geometry.Mesh[T], error)
}

// signOf classifies a value against the iso-value for pruning: +1 at or
// above, -1 below.
func signOf[T geometry.Float](value, iso T) int8 {
	if value < iso {
		return -1
	}
	return 1
}

// Package render implements the render context, the narrow read-only
// capability set consumed by tile rendering (§4.6), and the TopDown/SideIso
// tile renderers themselves. The block-image atlas and overlay/shader
// logic beyond this package's interfaces are out of scope (§1); BlockImages
// and RenderMode here are the contracts a caller's real implementations of
// those satisfy, plus small concrete defaults usable stand-alone or in
// tests.
package render

import (
	"context"
	"image"
	"image/color"

	"github.com/mapcrafter-go/mapcrafter/internal/chunk"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

// BlockStateRegistry resolves a modern named block state (the "Name" plus
// "Properties" pair a chunk's palette stores, §3) to the legacy numeric
// (id, data-nibble) pair the block mask (§4.4) and old-style block-image
// atlases key on. This is the bridge component named but not detailed by
// §4.6; it owns no rendering logic itself.
type BlockStateRegistry interface {
	Resolve(name string, properties map[string]string) (id uint16, data uint8, ok bool)
}

// BlockImages is the read-only block-image atlas contract (§1: "block-image
// atlas" is out of scope; this is only its interface). Image returns the
// pixel patch for a named block state's rendered face.
type BlockImages interface {
	Image(name string, properties map[string]string) (image.Image, bool)
}

// RenderMode is the read-only overlay/shader contract (§1: "rendermode/
// overlay shader logic beyond its interface" is out of scope). Apply lets
// an overlay recolor a pixel derived from a block.
type RenderMode interface {
	Apply(c color.RGBA, state chunk.BlockState, bp pos.BlockPos) color.RGBA
}

// WorldCache is the read-through chunk cache contract consumed by tile
// rendering (§4.8); internal/worldcache provides the concrete
// implementation. Declaring it here (rather than importing that package)
// keeps this package's dependency on a single-method capability, matching
// §9's "narrow capability set" design note.
type WorldCache interface {
	GetChunk(ctx context.Context, cp pos.ChunkPos) (*chunk.ChunkData, error)
}

// DefaultShadowEdges returns the side-view shadow-edge weight tuple's
// default, per §12 item 5 (grounded on
// original_source/.../side/renderview.cpp's setShadowEdges({2,1,2,2,2})):
// indices 0, 2, 3, and 4 default to 2, index 1 defaults to 1.
func DefaultShadowEdges() [5]int {
	return [5]int{2, 1, 2, 2, 2}
}

// NoOpMode is a RenderMode that returns its input color unchanged, used as
// the default when no overlay is configured.
type NoOpMode struct{}

func (NoOpMode) Apply(c color.RGBA, _ chunk.BlockState, _ pos.BlockPos) color.RGBA { return c }

// StaticRegistry is a minimal BlockStateRegistry backed by an in-memory
// table, useful standalone and in tests; a real deployment supplies its own
// registry populated from the game's block-state data.
type StaticRegistry struct {
	ids map[string]uint16
}

// NewStaticRegistry builds a registry from a name -> numeric id table. Data
// nibbles come from the "data" property a caller passes to Resolve,
// defaulting to 0 when absent; no other property is consulted.
func NewStaticRegistry(ids map[string]uint16) *StaticRegistry {
	return &StaticRegistry{ids: ids}
}

// Resolve looks up name's numeric id; data is derived from properties["data"]
// when present (0..15), else 0. Unknown names resolve with ok=false, which
// callers treat as "no mask information available" rather than an error.
func (r *StaticRegistry) Resolve(name string, properties map[string]string) (id uint16, data uint8, ok bool) {
	id, ok = r.ids[name]
	if !ok {
		return 0, 0, false
	}
	if d, present := properties["data"]; present {
		for _, c := range d {
			if c < '0' || c > '9' {
				return id, 0, true
			}
		}
		var v int
		for _, c := range d {
			v = v*10 + int(c-'0')
		}
		if v >= 0 && v <= 15 {
			data = uint8(v)
		}
	}
	return id, data, true
}

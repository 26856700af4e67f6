package render

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/mapcrafter-go/mapcrafter/internal/chunk"
	"github.com/mapcrafter-go/mapcrafter/internal/crop"
	"github.com/mapcrafter-go/mapcrafter/internal/logging"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
	"github.com/mapcrafter-go/mapcrafter/internal/tileset"
)

// TileRenderer is the §4.6 contract: given a leaf TilePos plus this
// package's read-only capabilities, produce a tile_width x tile_width pixel
// buffer. Implementations are pure functions of their inputs and safe for
// concurrent invocation on distinct tiles, so long as WorldCache is
// read-through safe (internal/worldcache guarantees this).
//
// Per §9's design note, the two variants are two concrete types selected at
// construction by NewTileRenderer, not a deep class hierarchy.
type TileRenderer interface {
	RenderTile(ctx context.Context, leaf pos.TilePos) (*image.RGBA, error)
	ConfigureShadowEdges(edges [5]int)
}

type baseRenderer struct {
	registry   BlockStateRegistry
	images     BlockImages
	cache      WorldCache
	mode       RenderMode
	crop       *crop.WorldCrop
	tileWidth  int
	tileChunks int
	shadowEdges [5]int
	log        logging.Logger
}

type topDownRenderer struct{ baseRenderer }
type sideRenderer struct{ baseRenderer }

// NewTileRenderer builds the TileRenderer for variant, wired to the given
// read-only artifacts (§4.6).
func NewTileRenderer(variant tileset.Variant, registry BlockStateRegistry, images BlockImages,
	cache WorldCache, mode RenderMode, wc *crop.WorldCrop, tileWidth, tileChunks int,
	log logging.Logger) TileRenderer {
	if mode == nil {
		mode = NoOpMode{}
	}
	if log == nil {
		log = logging.Nop()
	}
	base := baseRenderer{
		registry:    registry,
		images:      images,
		cache:       cache,
		mode:        mode,
		crop:        wc,
		tileWidth:   tileWidth,
		tileChunks:  tileChunks,
		shadowEdges: DefaultShadowEdges(),
		log:         log,
	}
	if variant == tileset.SideIso {
		return &sideRenderer{base}
	}
	return &topDownRenderer{base}
}

// ConfigureShadowEdges sets the side-view shadow-edge weights (§4.6, §12
// item 5): any zero-valued entry in edges falls back to
// DefaultShadowEdges()'s value at that index, so a caller can pass a
// partially-specified tuple.
func (r *baseRenderer) ConfigureShadowEdges(edges [5]int) {
	defaults := DefaultShadowEdges()
	for i := range edges {
		if edges[i] == 0 {
			edges[i] = defaults[i]
		}
	}
	r.shadowEdges = edges
}

type columnHit struct {
	state chunk.BlockState
	pos   pos.BlockPos
}

// topmostVisible scans sections from the highest Y down and returns the
// first block that passes the Y/XZ crop predicates and is not hidden by
// the block mask (§4.4 filter order: block Y then block mask, XZ having
// already been checked by the caller for whole chunks).
func (r *baseRenderer) topmostVisible(cd *chunk.ChunkData, sections []chunk.Section, lx, lz int) *columnHit {
	cx := cd.Pos.X*16 + lx
	cz := cd.Pos.Z*16 + lz
	for _, sec := range sections {
		for ly := 15; ly >= 0; ly-- {
			blockY := int(sec.Y)*16 + ly
			bp := pos.BlockPos{X: cx, Y: blockY, Z: cz}
			if r.crop != nil && !r.crop.IsBlockContainedY(bp) {
				continue
			}
			bs := sec.GetBlockAt(lx, ly, lz)
			if bs.Name == "" || bs.Name == "minecraft:air" {
				continue
			}
			if r.crop != nil && r.crop.HasBlockMask() && r.registry != nil {
				if id, data, ok := r.registry.Resolve(bs.Name, bs.Properties); ok {
					if r.crop.BlockMask().IsHidden(id, data) {
						continue
					}
				}
			}
			return &columnHit{state: bs, pos: bp}
		}
	}
	return nil
}

func sortedSections(cd *chunk.ChunkData) []chunk.Section {
	sections := append([]chunk.Section(nil), cd.Sections...)
	sort.Slice(sections, func(i, j int) bool { return sections[i].Y > sections[j].Y })
	return sections
}

// colorFor resolves a hit block's average face color and applies the
// configured overlay (§4.6/§4.7: a render mode may recolor a pixel).
func (r *baseRenderer) colorFor(hit *columnHit) color.RGBA {
	c := color.RGBA{A: 255}
	if r.images != nil {
		if img, ok := r.images.Image(hit.state.Name, hit.state.Properties); ok {
			c = averageColor(img)
		}
	}
	return r.mode.Apply(c, hit.state, hit.pos)
}

func averageColor(img image.Image) color.RGBA {
	b := img.Bounds()
	if b.Empty() {
		return color.RGBA{A: 255}
	}
	var rs, gs, bs, as, n uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			rs += uint64(r)
			gs += uint64(g)
			bs += uint64(bl)
			as += uint64(a)
			n++
		}
	}
	if n == 0 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{
		R: uint8((rs / n) >> 8),
		G: uint8((gs / n) >> 8),
		B: uint8((bs / n) >> 8),
		A: uint8((as / n) >> 8),
	}
}

func fillRect(img *image.RGBA, x0, y0, size int, c color.RGBA) {
	rect := image.Rect(x0, y0, x0+size, y0+size).Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(img, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// RenderTile implements the TopDown variant: a tile is tile_chunks x
// tile_chunks chunks, each chunk's 16x16 columns scanned top-down.
func (r *topDownRenderer) RenderTile(ctx context.Context, leaf pos.TilePos) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.tileWidth, r.tileWidth))
	blockPx := r.tileWidth / (r.tileChunks * 16)
	if blockPx < 1 {
		blockPx = 1
	}
	for cz := 0; cz < r.tileChunks; cz++ {
		for cx := 0; cx < r.tileChunks; cx++ {
			select {
			case <-ctx.Done():
				return img, ctx.Err()
			default:
			}
			cp := pos.ChunkPos{X: leaf.X*r.tileChunks + cx, Z: leaf.Y*r.tileChunks + cz}
			if r.crop != nil && !r.crop.IsChunkContained(cp) {
				continue
			}
			cd, err := r.cache.GetChunk(ctx, cp)
			if err != nil {
				r.log.Warn("chunk load failed, rendering as transparent", "chunk", cp, "err", err)
				continue
			}
			sections := sortedSections(cd)
			originX, originY := cx*16*blockPx, cz*16*blockPx
			for lz := 0; lz < 16; lz++ {
				for lx := 0; lx < 16; lx++ {
					hit := r.topmostVisible(cd, sections, lx, lz)
					if hit == nil {
						continue
					}
					fillRect(img, originX+lx*blockPx, originY+lz*blockPx, blockPx, r.colorFor(hit))
				}
			}
		}
	}
	return img, nil
}

// RenderTile implements SideIso: each chunk's isometric footprint is drawn
// as a diamond of its topmost-visible columns, each column's color passed
// through shadeSide, following the same topmost-column scan as
// TopDown but projecting (x, z) onto screen space via (x-z, x+z) the way
// mapChunkToTiles does in internal/tileset (§9 Open Question (a): the
// source's exact projection wasn't retained; this applies the same
// isometric constants used there).
func (r *sideRenderer) RenderTile(ctx context.Context, leaf pos.TilePos) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.tileWidth, r.tileWidth))
	blockPx := r.tileWidth / (r.tileChunks * 32)
	if blockPx < 1 {
		blockPx = 1
	}
	half := r.tileWidth / 2

	for dz := -r.tileChunks; dz <= r.tileChunks; dz++ {
		for dx := -r.tileChunks; dx <= r.tileChunks; dx++ {
			select {
			case <-ctx.Done():
				return img, ctx.Err()
			default:
			}
			cp := pos.ChunkPos{X: leaf.X + dx, Z: leaf.Y + dz}
			if r.crop != nil && !r.crop.IsChunkContained(cp) {
				continue
			}
			cd, err := r.cache.GetChunk(ctx, cp)
			if err != nil {
				continue
			}
			sections := sortedSections(cd)
			for lz := 0; lz < 16; lz++ {
				for lx := 0; lx < 16; lx++ {
					hit := r.topmostVisible(cd, sections, lx, lz)
					if hit == nil {
						continue
					}
					gx, gz := cp.X*16+lx, cp.Z*16+lz
					sx := half + (gx-gz-leaf.X*16+leaf.Y*16)*blockPx/2
					sy := half + (gx+gz-leaf.X*16-leaf.Y*16)*blockPx/4 - hit.pos.Y*blockPx/4
					c := r.colorFor(hit)
					c = r.shadeSide(c)
					fillRect(img, sx, sy, blockPx, c)
				}
			}
		}
	}
	return img, nil
}

// shadeSide scales a color's R/G/B by shadowEdges[1]/2, clamped to 255 (the
// default weight 1 halves it; weights above 2 brighten it), the
// simplified stand-in for the real renderer's per-face shading (which
// belongs to the out-of-scope shader/overlay stage, §1).
func (r *sideRenderer) shadeSide(c color.RGBA) color.RGBA {
	weight := r.shadowEdges[1]
	if weight <= 0 {
		weight = 1
	}
	scale := func(v uint8) uint8 {
		scaled := int(v) * weight / 2
		if scaled > 255 {
			scaled = 255
		}
		return uint8(scaled)
	}
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}

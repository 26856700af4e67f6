package tileset

import (
	"math/bits"

	"github.com/mapcrafter-go/mapcrafter/internal/logging"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
	"github.com/mapcrafter-go/mapcrafter/internal/region"
	"github.com/mapcrafter-go/mapcrafter/internal/world"
)

// Variant distinguishes the two chunk-to-tile mappings named in §4.5.
type Variant int

const (
	TopDown Variant = iota
	SideIso
)

// TileSet owns the required leaf/composite sets and the incremental
// render/require subsets computed by a Scan, per §3's TileSet data model.
// It is mutated only by Scan, AddLeaf/AddRenderLeaf and Close, and is
// read-only thereafter (Freeze is
// implicit: nothing further mutates it once Close has run).
type TileSet struct {
	variant    Variant
	tileChunks int

	log logging.Logger

	leaves     map[TilePos]struct{}  // every required leaf tile
	composites map[TilePath]struct{} // every required composite node
	render     map[TilePos]struct{}  // leaves changed since last run
	require    map[TilePath]struct{} // composite ancestors of render leaves
	leafPaths  map[TilePath]TilePos  // leaf TilePath -> TilePos, built by Close
	rootDepth  int

	closed bool
}

// New returns an empty TileSet for the given variant. tileChunks is the
// number of chunks one base-zoom tile spans per side (§4.5: "tile_chunks
// derives from tile_width ... typically 1 at base zoom"); it is supplied
// by the caller, which owns the out-of-scope pixel-sizing logic (§1).
func New(variant Variant, tileChunks int, log logging.Logger) *TileSet {
	if tileChunks < 1 {
		tileChunks = 1
	}
	if log == nil {
		log = logging.Nop()
	}
	return &TileSet{
		variant:    variant,
		tileChunks: tileChunks,
		log:        log,
		leaves:     make(map[TilePos]struct{}),
		composites: make(map[TilePath]struct{}),
		render:     make(map[TilePos]struct{}),
		require:    make(map[TilePath]struct{}),
	}
}

// mapChunkToTiles returns the tile(s) a chunk contributes to, per variant.
func (ts *TileSet) mapChunkToTiles(c pos.ChunkPos) []TilePos {
	switch ts.variant {
	case SideIso:
		return ts.sideChunkToTiles(c)
	default:
		return ts.topDownChunkToTiles(c)
	}
}

// topDownChunkToTiles implements TopDown: one tile per (chunk.x/tile_chunks,
// chunk.z/tile_chunks), floor-divided since chunk coordinates can be
// negative.
func (ts *TileSet) topDownChunkToTiles(c pos.ChunkPos) []TilePos {
	return []TilePos{{X: floorDiv(c.X, ts.tileChunks), Y: floorDiv(c.Z, ts.tileChunks)}}
}

// sideChunkToTiles implements SideIso (§4.5, §9 Open Question (a)): a
// chunk's isometric footprint is the diamond (x'=cx-cz, y'=cx+cz), and a
// single chunk's column of blocks projects tall enough in screen space to
// overlap the two tile rows whose diamonds its own diamond intersects,
// while staying within one tile column. This derivation isn't in the
// kept original_source/.../side/tileset.h (its mapChunkToTiles body wasn't
// part of the retained slice); it is fixed here per the isometric
// projection constants used by SideRenderView (45-degree diamond, half-tile
// vertical overlap) and should be confirmed against a reference world
// fixture, as the open question notes.
func (ts *TileSet) sideChunkToTiles(c pos.ChunkPos) []TilePos {
	tx := floorDiv(c.X-c.Z, ts.tileChunks)
	ty := floorDiv(c.X+c.Z, ts.tileChunks*2)
	return []TilePos{{X: tx, Y: ty}, {X: tx, Y: ty + 1}}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Scan enumerates every region of w, reading mtimes, and for every chunk
// newer than lastCheckTime (or with lastCheckTime == 0, meaning never
// rendered), computes its tile(s) and inserts them into the render set
// (§4.5 step 1). Regions that fail to open are logged and skipped (§7);
// the run continues.
func (ts *TileSet) Scan(w *world.World, lastCheckTime int64) error {
	if ts.closed {
		panic("tileset: Scan called on a closed TileSet")
	}
	rpositions, err := w.ListRegions(nil)
	if err != nil {
		return err
	}
	for _, rp := range rpositions {
		rf, err := w.OpenRegion(rp)
		if err != nil {
			ts.log.Warn("skipping unreadable region", "region", rp, "err", err)
			continue
		}
		ts.scanRegion(rf, lastCheckTime)
	}
	return nil
}

func (ts *TileSet) scanRegion(rf *region.RegionFile, lastCheckTime int64) {
	for _, cp := range rf.GetContainingChunks() {
		mtime, err := rf.GetChunkTimestamp(cp)
		if err != nil {
			ts.log.Warn("skipping chunk with no timestamp", "chunk", cp, "err", err)
			continue
		}
		if lastCheckTime != 0 && mtime <= lastCheckTime {
			continue
		}
		for _, t := range ts.mapChunkToTiles(cp) {
			ts.leaves[t] = struct{}{}
			ts.render[t] = struct{}{}
		}
	}
}

// AddLeaf registers an already-known leaf tile as required without marking
// it for render, used to seed the "previously rendered, not changed"
// portion of the leaf set ahead of a Scan (e.g. from a persisted
// renderstate snapshot).
func (ts *TileSet) AddLeaf(t TilePos) {
	ts.leaves[t] = struct{}{}
}

// AddRenderLeaf registers t as both required and changed-since-last-run,
// e.g. for a caller-forced full re-render or for tests that construct a
// TileSet's render set directly rather than via Scan.
func (ts *TileSet) AddRenderLeaf(t TilePos) {
	ts.leaves[t] = struct{}{}
	ts.render[t] = struct{}{}
}

// Close computes require_composites (the transitive ancestor closure of
// render_leaves) and root_depth (§4.5 step 2), then the full composites set
// (ancestors of every required leaf, render or not). After Close, the
// TileSet is read-only.
func (ts *TileSet) Close() {
	if ts.closed {
		return
	}
	ts.rootDepth = computeRootDepth(ts.leaves)

	for t := range ts.render {
		p := fromLeafPos(t, ts.rootDepth)
		for {
			parent, ok := p.Parent()
			if !ok {
				break
			}
			if _, already := ts.require[parent]; already {
				break
			}
			ts.require[parent] = struct{}{}
			p = parent
		}
	}

	ts.leafPaths = make(map[TilePath]TilePos, len(ts.leaves))
	for t := range ts.leaves {
		p := fromLeafPos(t, ts.rootDepth)
		ts.leafPaths[p] = t
		for {
			parent, ok := p.Parent()
			if !ok {
				break
			}
			if _, already := ts.composites[parent]; already {
				break
			}
			ts.composites[parent] = struct{}{}
			p = parent
		}
	}
	ts.closed = true
}

// computeRootDepth returns the smallest power-of-two quadtree depth that
// encloses every leaf tile coordinate, per §4.5 step 2 and §12 item 4:
// ceil(log2(max |tile coord| + 1)) + 1.
func computeRootDepth(leaves map[TilePos]struct{}) int {
	maxAbs := 0
	for t := range leaves {
		if a := abs(t.X); a > maxAbs {
			maxAbs = a
		}
		if a := abs(t.Y); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return 1
	}
	return bits.Len(uint(maxAbs)) + 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RootDepth returns the computed quadtree depth; valid only after Close.
func (ts *TileSet) RootDepth() int { return ts.rootDepth }

// RenderLeaves returns the set of leaf tiles changed since the last scan.
func (ts *TileSet) RenderLeaves() []TilePos {
	out := make([]TilePos, 0, len(ts.render))
	for t := range ts.render {
		out = append(out, t)
	}
	return out
}

// RequireComposites returns the composite ancestors of every render leaf.
func (ts *TileSet) RequireComposites() []TilePath {
	out := make([]TilePath, 0, len(ts.require))
	for p := range ts.require {
		out = append(out, p)
	}
	return out
}

// Leaves returns every leaf tile this TileSet requires (render or not).
func (ts *TileSet) Leaves() []TilePos {
	out := make([]TilePos, 0, len(ts.leaves))
	for t := range ts.leaves {
		out = append(out, t)
	}
	return out
}

// Composites returns every composite node this TileSet requires.
func (ts *TileSet) Composites() []TilePath {
	out := make([]TilePath, 0, len(ts.composites))
	for p := range ts.composites {
		out = append(out, p)
	}
	return out
}

// PathForLeaf converts a leaf TilePos to its TilePath at this TileSet's
// root depth; valid only after Close.
func (ts *TileSet) PathForLeaf(t TilePos) TilePath {
	return fromLeafPos(t, ts.rootDepth)
}

// IsRequiredPath reports whether p addresses a node this TileSet actually
// needs rendered: the root, a required composite, or a required leaf.
// Valid only after Close. The dispatcher uses this to tell an absent child
// (never required, treated as transparent per §4.7) from one it must wait
// on.
func (ts *TileSet) IsRequiredPath(p TilePath) bool {
	if p.IsRoot() {
		return true
	}
	if _, ok := ts.composites[p]; ok {
		return true
	}
	_, ok := ts.leafPaths[p]
	return ok
}

// LeafAt returns the TilePos a required leaf path addresses, and true; or
// false if p does not address a required leaf. Valid only after Close.
func (ts *TileSet) LeafAt(p TilePath) (TilePos, bool) {
	t, ok := ts.leafPaths[p]
	return t, ok
}

// RequiredChildren returns the subset of p's four children that this
// TileSet actually requires (leaf or composite), used by the dispatcher to
// size a composite's pending-child count without blocking on children that
// will never be produced.
func (ts *TileSet) RequiredChildren(p TilePath) []TilePath {
	out := make([]TilePath, 0, 4)
	for _, c := range p.Children() {
		if ts.IsRequiredPath(c) {
			out = append(out, c)
		}
	}
	return out
}

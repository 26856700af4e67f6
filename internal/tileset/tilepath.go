// Package tileset implements the chunk-to-tile mapping (TopDown and SideIso
// variants), the recursive TilePath quadtree addressing, and the
// incremental-render TileSet built from chunk mtimes (§3 TilePath/TileSet,
// §4.5).
package tileset

import (
	"strconv"

	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

// TilePos is the leaf tile coordinate type (§3), re-exported here so
// callers of this package don't need to import internal/pos separately.
type TilePos = pos.TilePos

// Quadrant is one of the four children a composite tile node can have.
// Values 1-4 match the grammar of §3 ("an ordered sequence of quadrants in
// {1,2,3,4}") and the corpus's own TilePath numbering
// (original_source/src/mapcraftercore/renderer/tileset.h): 1=top-left,
// 2=top-right, 3=bottom-left, 4=bottom-right.
type Quadrant int

const (
	TopLeft     Quadrant = 1
	TopRight    Quadrant = 2
	BottomLeft  Quadrant = 3
	BottomRight Quadrant = 4
)

// Dx/Dy give the child's offset within its parent's 2x2 pixel grid, used
// both to descend from a TilePos at a known depth and by the compositor to
// place a child image within its parent.
func (q Quadrant) Dx() int {
	if q == TopRight || q == BottomRight {
		return 1
	}
	return 0
}

func (q Quadrant) Dy() int {
	if q == BottomLeft || q == BottomRight {
		return 1
	}
	return 0
}

func quadrantFor(dx, dy int) Quadrant {
	switch {
	case dx == 0 && dy == 0:
		return TopLeft
	case dx == 1 && dy == 0:
		return TopRight
	case dx == 0 && dy == 1:
		return BottomLeft
	default:
		return BottomRight
	}
}

// TilePath is an ordered sequence of quadrants from the (empty) root
// downward; its length is the tile's level in the quadtree (§3). The zero
// value is the root path.
type TilePath struct {
	quadrants []Quadrant
}

// RootPath returns the empty path addressing the root composite tile.
func RootPath() TilePath { return TilePath{} }

// Level returns len(path): 0 for the root, N for a node N levels deep.
func (p TilePath) Level() int { return len(p.quadrants) }

// IsRoot reports whether p addresses the root.
func (p TilePath) IsRoot() bool { return len(p.quadrants) == 0 }

// Child returns the path one level deeper, through quadrant q.
func (p TilePath) Child(q Quadrant) TilePath {
	nq := make([]Quadrant, len(p.quadrants)+1)
	copy(nq, p.quadrants)
	nq[len(p.quadrants)] = q
	return TilePath{quadrants: nq}
}

// Parent returns p's parent and true, or the zero value and false if p is
// already the root.
func (p TilePath) Parent() (TilePath, bool) {
	if len(p.quadrants) == 0 {
		return TilePath{}, false
	}
	return TilePath{quadrants: append([]Quadrant(nil), p.quadrants[:len(p.quadrants)-1]...)}, true
}

// Children returns p's four child paths, in quadrant order 1-4.
func (p TilePath) Children() [4]TilePath {
	return [4]TilePath{p.Child(TopLeft), p.Child(TopRight), p.Child(BottomLeft), p.Child(BottomRight)}
}

// Quadrants returns a copy of the path's quadrant sequence.
func (p TilePath) Quadrants() []Quadrant {
	return append([]Quadrant(nil), p.quadrants...)
}

// LastQuadrant returns the quadrant p descends through from its parent,
// and false if p is the root (which has none).
func (p TilePath) LastQuadrant() (Quadrant, bool) {
	if len(p.quadrants) == 0 {
		return 0, false
	}
	return p.quadrants[len(p.quadrants)-1], true
}

// Less implements the lexicographic total order over paths (§3).
func (p TilePath) Less(o TilePath) bool {
	n := len(p.quadrants)
	if len(o.quadrants) < n {
		n = len(o.quadrants)
	}
	for i := 0; i < n; i++ {
		if p.quadrants[i] != o.quadrants[i] {
			return p.quadrants[i] < o.quadrants[i]
		}
	}
	return len(p.quadrants) < len(o.quadrants)
}

// IsAncestorOf reports whether p is a strict ancestor of o.
func (p TilePath) IsAncestorOf(o TilePath) bool {
	if len(p.quadrants) >= len(o.quadrants) {
		return false
	}
	for i, q := range p.quadrants {
		if o.quadrants[i] != q {
			return false
		}
	}
	return true
}

// String renders the quadrant-path output filename stem (§6: tiles are
// named by quadrant path, e.g. "2/4/1", root is "base").
func (p TilePath) String() string {
	if len(p.quadrants) == 0 {
		return "base"
	}
	s := make([]byte, 0, len(p.quadrants)*2-1)
	for i, q := range p.quadrants {
		if i > 0 {
			s = append(s, '/')
		}
		s = strconv.AppendInt(s, int64(q), 10)
	}
	return string(s)
}

// fromLeafPos recomputes the TilePath addressing leaf tile t within a
// quadtree of the given rootDepth, descending one quadrant per level by
// examining successively lower bits of t's coordinates relative to the
// tree's origin at (-2^(rootDepth-1), -2^(rootDepth-1)).
func fromLeafPos(t TilePos, rootDepth int) TilePath {
	if rootDepth <= 0 {
		return RootPath()
	}
	half := int64(1) << uint(rootDepth-1)
	x, y := int64(t.X)+half, int64(t.Y)+half // shift into [0, 2^rootDepth)

	path := RootPath()
	for level := rootDepth - 1; level >= 0; level-- {
		bit := int64(1) << uint(level)
		dx, dy := 0, 0
		if x&bit != 0 {
			dx = 1
		}
		if y&bit != 0 {
			dy = 1
		}
		path = path.Child(quadrantFor(dx, dy))
	}
	return path
}

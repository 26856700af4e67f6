// Package pos defines the value types used to address blocks, chunks,
// regions and tiles, and the arithmetic that relates them.
package pos

// BlockPos is a block position in world coordinates.
type BlockPos struct {
	X, Y, Z int
}

// ChunkPos is a chunk position; a chunk spans 16 blocks in X and Z.
type ChunkPos struct {
	X, Z int
}

// RegionPos is a region position; a region spans 32x32 chunks.
type RegionPos struct {
	X, Z int
}

// TilePos is a tile coordinate at the leaf zoom level.
type TilePos struct {
	X, Y int
}

// Chunk returns the chunk containing block b.
func (b BlockPos) Chunk() ChunkPos {
	return ChunkPos{X: shr4(b.X), Z: shr4(b.Z)}
}

// Region returns the region containing chunk c.
func (c ChunkPos) Region() RegionPos {
	return RegionPos{X: shr5(c.X), Z: shr5(c.Z)}
}

// LocalIndex returns the chunk's index (0..1023) within its region's
// 32x32 chunk table, as used by the region file header.
func (c ChunkPos) LocalIndex() int {
	lx := c.X & 31
	lz := c.Z & 31
	return lx + lz*32
}

// Less implements the lexicographic total order (x, then z).
func (c ChunkPos) Less(o ChunkPos) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Z < o.Z
}

func (r RegionPos) Less(o RegionPos) bool {
	if r.X != o.X {
		return r.X < o.X
	}
	return r.Z < o.Z
}

func (t TilePos) Less(o TilePos) bool {
	if t.X != o.X {
		return t.X < o.X
	}
	return t.Y < o.Y
}

// shr4/shr5 are arithmetic right shifts expressed without relying on Go's
// implementation-defined behavior for negative operands of the bit-shift
// operator on signed integers (which in Go IS well defined as arithmetic
// shift, but we spell it out since the invariant is load-bearing here:
// region = chunk >> 5, chunk = block >> 4).
func shr4(v int) int { return v >> 4 }
func shr5(v int) int { return v >> 5 }

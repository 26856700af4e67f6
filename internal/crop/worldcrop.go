package crop

import (
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
	"github.com/mapcrafter-go/mapcrafter/internal/validate"
)

// Shape distinguishes the two kinds of world boundaries a WorldCrop can use.
type Shape int

const (
	Rectangular Shape = iota
	Circular
)

const (
	chunkBlocks  = 16
	regionBlocks = chunkBlocks * 32
)

// WorldCrop holds the spatial boundaries used to filter regions, chunks,
// and blocks during rendering, plus an optional block visibility mask.
type WorldCrop struct {
	shape Shape

	boundsY Bounds[int]

	// rectangular boundaries, in block/chunk/region coordinates
	boundsX, boundsZ                   Bounds[int]
	boundsChunkX, boundsChunkZ         Bounds[int]
	boundsRegionX, boundsRegionZ       Bounds[int]

	// circular boundaries
	center pos.BlockPos
	radius int64

	cropUnpopulatedChunks bool

	blockMask *BlockMask
}

// NewRectCrop returns a WorldCrop with rectangular boundaries.
func NewRectCrop() *WorldCrop {
	return &WorldCrop{shape: Rectangular}
}

// NewCircleCrop returns a WorldCrop with circular boundaries.
func NewCircleCrop(center pos.BlockPos, radius int64) *WorldCrop {
	return &WorldCrop{shape: Circular, center: center, radius: radius}
}

// Type returns the crop's shape.
func (w *WorldCrop) Type() Shape { return w.shape }

func (w *WorldCrop) SetMinY(v int) { w.boundsY.SetMin(v) }
func (w *WorldCrop) SetMaxY(v int) { w.boundsY.SetMax(v) }

// SetMinX/SetMaxX/SetMinZ/SetMaxZ set the rectangular boundaries in block
// coordinates, and keep the derived chunk/region boundaries in sync.
func (w *WorldCrop) SetMinX(v int) {
	w.boundsX.SetMin(v)
	w.boundsChunkX.SetMin(floorDiv(v, chunkBlocks))
	w.boundsRegionX.SetMin(floorDiv(v, regionBlocks))
}

func (w *WorldCrop) SetMaxX(v int) {
	w.boundsX.SetMax(v)
	w.boundsChunkX.SetMax(floorDiv(v, chunkBlocks))
	w.boundsRegionX.SetMax(floorDiv(v, regionBlocks))
}

func (w *WorldCrop) SetMinZ(v int) {
	w.boundsZ.SetMin(v)
	w.boundsChunkZ.SetMin(floorDiv(v, chunkBlocks))
	w.boundsRegionZ.SetMin(floorDiv(v, regionBlocks))
}

func (w *WorldCrop) SetMaxZ(v int) {
	w.boundsZ.SetMax(v)
	w.boundsChunkZ.SetMax(floorDiv(v, chunkBlocks))
	w.boundsRegionZ.SetMax(floorDiv(v, regionBlocks))
}

func (w *WorldCrop) SetCenter(p pos.BlockPos) { w.center = p }
func (w *WorldCrop) SetRadius(r int64)        { w.radius = r }

// IsRegionContained reports whether region could contain any block
// admitted by the crop (a conservative, bounding-box level test).
func (w *WorldCrop) IsRegionContained(r pos.RegionPos) bool {
	switch w.shape {
	case Rectangular:
		return w.boundsRegionX.Contains(r.X) && w.boundsRegionZ.Contains(r.Z)
	default:
		minX, minZ := r.X*regionBlocks, r.Z*regionBlocks
		return w.boxIntersectsCircle(minX, minZ, regionBlocks)
	}
}

// IsChunkContained reports whether chunk could contain any block
// admitted by the crop.
func (w *WorldCrop) IsChunkContained(c pos.ChunkPos) bool {
	switch w.shape {
	case Rectangular:
		return w.boundsChunkX.Contains(c.X) && w.boundsChunkZ.Contains(c.Z)
	default:
		minX, minZ := c.X*chunkBlocks, c.Z*chunkBlocks
		return w.boxIntersectsCircle(minX, minZ, chunkBlocks)
	}
}

// IsChunkCompletelyContained reports whether every block column of chunk
// (x and z only; y may still be partly excluded) is admitted by the crop.
func (w *WorldCrop) IsChunkCompletelyContained(c pos.ChunkPos) bool {
	minX, minZ := c.X*chunkBlocks, c.Z*chunkBlocks
	maxX, maxZ := minX+chunkBlocks-1, minZ+chunkBlocks-1
	switch w.shape {
	case Rectangular:
		return w.boundsX.Contains(minX) && w.boundsX.Contains(maxX) &&
			w.boundsZ.Contains(minZ) && w.boundsZ.Contains(maxZ)
	default:
		return w.boxInsideCircle(minX, minZ, chunkBlocks)
	}
}

// IsBlockContainedXZ reports whether block is admitted regarding its x/z
// coordinates only.
func (w *WorldCrop) IsBlockContainedXZ(b pos.BlockPos) bool {
	switch w.shape {
	case Rectangular:
		return w.boundsX.Contains(b.X) && w.boundsZ.Contains(b.Z)
	default:
		dx := int64(b.X - w.center.X)
		dz := int64(b.Z - w.center.Z)
		return dx*dx+dz*dz <= w.radius*w.radius
	}
}

// IsBlockContainedY reports whether block's y coordinate is admitted.
func (w *WorldCrop) IsBlockContainedY(b pos.BlockPos) bool {
	return w.boundsY.Contains(b.Y)
}

func (w *WorldCrop) HasCropUnpopulatedChunks() bool     { return w.cropUnpopulatedChunks }
func (w *WorldCrop) SetCropUnpopulatedChunks(crop bool) { w.cropUnpopulatedChunks = crop }

func (w *WorldCrop) HasBlockMask() bool       { return w.blockMask != nil }
func (w *WorldCrop) BlockMask() *BlockMask    { return w.blockMask }

// LoadBlockMask parses definition (§4.4 grammar) and installs it as this
// crop's block mask.
func (w *WorldCrop) LoadBlockMask(definition string) error {
	m, err := LoadBlockMaskFromString(definition)
	if err != nil {
		return err
	}
	w.blockMask = m
	return nil
}

// LoadBlockMaskValidated is LoadBlockMask's continue-on-error counterpart
// (§10.2/§12 item 3): malformed tokens are recorded in the returned
// validate.Result rather than aborting the parse, and the mask built from
// every token that did parse is still installed. Callers should treat the
// crop's mask as unreliable if result.HasErrors().
func (w *WorldCrop) LoadBlockMaskValidated(definition string) validate.Result {
	m, result := LoadBlockMaskFromStringValidated(definition)
	w.blockMask = m
	return result
}

// Validate checks the crop's bounds for internal consistency (§10.2/§12
// item 3, grounded on config/configparser.cpp's accumulate-while-parsing
// pattern): an inverted min/max range or a non-positive circular radius is
// recorded as an Error-severity message rather than panicking later when
// every predicate would simply reject everything.
func (w *WorldCrop) Validate() validate.Result {
	var result validate.Result

	checkRange := func(name string, b *Bounds[int]) {
		min, minSet := b.Min()
		max, maxSet := b.Max()
		if minSet && maxSet && min > max {
			result.Add(validate.NewError("worldcrop", "%s: min %d is greater than max %d", name, min, max))
		}
	}
	checkRange("x", &w.boundsX)
	checkRange("y", &w.boundsY)
	checkRange("z", &w.boundsZ)

	if w.shape == Circular && w.radius <= 0 {
		result.Add(validate.NewError("worldcrop", "circular crop radius must be positive, got %d", w.radius))
	}

	return result
}

// boxIntersectsCircle reports whether the square [x, x+size) x [z, z+size)
// comes within radius of the center, i.e. is NOT strictly outside the
// enclosing disc (§4.4: region/chunk predicates reject only boxes
// strictly outside the disc).
func (w *WorldCrop) boxIntersectsCircle(x, z, size int) bool {
	closestX := clamp(w.center.X, x, x+size-1)
	closestZ := clamp(w.center.Z, z, z+size-1)
	dx := int64(closestX - w.center.X)
	dz := int64(closestZ - w.center.Z)
	return dx*dx+dz*dz <= w.radius*w.radius
}

// boxInsideCircle reports whether the whole square is within the disc,
// i.e. its farthest corner from the center is within radius.
func (w *WorldCrop) boxInsideCircle(x, z, size int) bool {
	corners := [4][2]int{{x, z}, {x + size - 1, z}, {x, z + size - 1}, {x + size - 1, z + size - 1}}
	for _, c := range corners {
		dx := int64(c[0] - w.center.X)
		dz := int64(c[1] - w.center.Z)
		if dx*dx+dz*dz > w.radius*w.radius {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// floorDiv is integer division rounding toward negative infinity, needed
// because block coordinates can be negative and Go's / truncates toward
// zero.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

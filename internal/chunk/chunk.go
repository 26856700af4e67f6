// Package chunk decodes the logical per-chunk view (§3 "ChunkData") out of
// a chunk's already-decompressed NBT bytes: sections with their block
// palette and packed indices, height maps, and block entities.
//
// Decoding uses go-mc/nbt's typed struct unmarshalling, the same approach
// the corpus's slime-world reader takes for its own section/palette
// structs (small `nbt:"..."`-tagged Go types, one Unmarshal call) rather
// than walking a generic tag tree — that generic walk is what
// internal/nbt is for, and is reserved for the inspection CLI, which needs
// the original tool's findTag/hasTag traversal style.
package chunk

import (
	"fmt"

	gonbt "github.com/Tnze/go-mc/nbt"

	"github.com/mapcrafter-go/mapcrafter/internal/palette"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

// BlockState is one palette entry: a resource name plus optional state
// properties, both strings (§3).
type BlockState struct {
	Name       string
	Properties map[string]string
}

// Section is one 16x16x16 horizontal slice of a chunk.
type Section struct {
	Y int8

	Palette []BlockState
	// Indices holds TargetCount (4096) palette indices, decoded from the
	// section's packed "data" LongArray. A section with a single-entry
	// palette and no Indices is entirely that one block state.
	Indices []uint16

	Biomes []int32 // raw biome palette indices, when present

	biomePalette []string
}

// GetBlockAt returns the block state at local coordinates x,y,z in 0..15,
// using Minecraft's y*256 + z*16 + x section-local indexing.
func (s *Section) GetBlockAt(x, y, z int) BlockState {
	if len(s.Palette) == 0 {
		return BlockState{Name: "minecraft:air"}
	}
	if len(s.Palette) == 1 || len(s.Indices) == 0 {
		return s.Palette[0]
	}
	idx := y*256 + z*16 + x
	if idx < 0 || idx >= len(s.Indices) {
		return s.Palette[0]
	}
	paletteIdx := int(s.Indices[idx])
	if paletteIdx >= len(s.Palette) {
		return s.Palette[0]
	}
	return s.Palette[paletteIdx]
}

// BlockEntity is a raw block entity payload, kept as a generic map so the
// inspection CLI can walk arbitrary nested item data (§6) without this
// package needing to know every block entity's shape.
type BlockEntity struct {
	ID   string
	X, Y, Z int
	Data map[string]any
}

// ChunkData is the logical, already-decoded view of one chunk.
type ChunkData struct {
	Pos           pos.ChunkPos
	Sections      []Section
	BlockEntities []BlockEntity
	HeightMaps    map[string][]int64 // raw packed longs, 37 per map
}

// nbt-tagged mirror of the wire format (§6): only the fields this package
// needs are declared, following the teacher's pattern of small ad hoc
// structs per sub-tree rather than one struct modeling the whole chunk.
type wireChunk struct {
	Sections     []wireSection          `nbt:"sections"`
	BlockEntities []map[string]any      `nbt:"block_entities"`
	Heightmaps   map[string][]int64     `nbt:"Heightmaps"`
}

type wireSection struct {
	Y           int8             `nbt:"Y"`
	BlockStates *wireBlockStates `nbt:"block_states"`
}

type wireBlockStates struct {
	Palette []wirePaletteEntry `nbt:"palette"`
	Data    []int64            `nbt:"data"`
}

type wirePaletteEntry struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties"`
}

// Decode parses a chunk's already-decompressed NBT bytes (the output of
// region.GetChunkData) into a ChunkData.
func Decode(cpos pos.ChunkPos, data []byte) (*ChunkData, error) {
	var w wireChunk
	if err := gonbt.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding chunk %v: %w", cpos, err)
	}

	cd := &ChunkData{Pos: cpos, HeightMaps: w.Heightmaps}

	for _, ws := range w.Sections {
		sec := Section{Y: ws.Y}
		if ws.BlockStates != nil {
			sec.Palette = make([]BlockState, len(ws.BlockStates.Palette))
			for i, p := range ws.BlockStates.Palette {
				sec.Palette[i] = BlockState{Name: p.Name, Properties: p.Properties}
			}
			if len(ws.BlockStates.Data) > 0 && len(sec.Palette) > 1 {
				idx, err := palette.Decode(ws.BlockStates.Data, palette.TargetCount)
				if err != nil {
					return nil, fmt.Errorf("decoding chunk %v section %d palette: %w", cpos, ws.Y, err)
				}
				sec.Indices = idx
			}
		}
		cd.Sections = append(cd.Sections, sec)
	}

	for _, be := range w.BlockEntities {
		cd.BlockEntities = append(cd.BlockEntities, blockEntityFromMap(be))
	}

	return cd, nil
}

func blockEntityFromMap(m map[string]any) BlockEntity {
	be := BlockEntity{Data: m}
	if id, ok := m["id"].(string); ok {
		be.ID = id
	}
	be.X, _ = intField(m, "x")
	be.Y, _ = intField(m, "y")
	be.Z, _ = intField(m, "z")
	return be
}

func intField(m map[string]any, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// IsPopulated reports whether the chunk carries any section data at all,
// telling a chunk that has never been generated apart from one with real
// terrain. WorldCrop only stores its crop_unpopulated_chunks flag (§3);
// nothing in this module calls IsPopulated to act on it.
func (c *ChunkData) IsPopulated() bool {
	return len(c.Sections) > 0
}

// heightmapValueCount is the number of 9-bit entries packed into one
// Heightmaps LongArray (16x16 columns, §6).
const heightmapValueCount = 256

// HeightmapBits is the bit width of each packed heightmap entry (§6: "37
// longs of seven nine-bit values packed low-to-high within each long" --
// seven values of 9 bits is 63 bits per long, with one spare bit, and 37
// longs of 7 values each covers 259 slots for the 256 needed).
const HeightmapBits = 9

// DecodeHeightmap unpacks a chunk's raw Heightmaps LongArray into 256
// column heights. Heightmap entries are packed per-long, not across long
// boundaries (§6: "37 longs of seven 9-bit values packed low-to-high within
// each long"), so this uses the same per-long scheme as the v1.16+
// block-state palette (internal/palette.Decode) -- a 37-long array yields
// bits_per_value=9 and perLong=7 from that formula, matching the spare
// high bit each long discards.
func DecodeHeightmap(packed []int64) ([]int64, error) {
	idx, err := palette.Decode(packed, heightmapValueCount)
	if err != nil {
		return nil, fmt.Errorf("decoding heightmap: %w", err)
	}
	out := make([]int64, len(idx))
	for i, v := range idx {
		out[i] = int64(v)
	}
	return out, nil
}

package chunk

import (
	"testing"

	gonbt "github.com/Tnze/go-mc/nbt"

	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

func packValues(values []uint16, bitsPerValue int) []int64 {
	perLong := 64 / bitsPerValue
	longCount := (len(values) + perLong - 1) / perLong
	data := make([]int64, longCount)
	for k, v := range values {
		longIdx := k / perLong
		shift := uint(bitsPerValue * (k % perLong))
		data[longIdx] |= int64(uint64(v) << shift)
	}
	return data
}

func TestDecodeSingleSection(t *testing.T) {
	palette := []wirePaletteEntry{
		{Name: "minecraft:air"},
		{Name: "minecraft:stone"},
		{Name: "minecraft:dirt", Properties: map[string]string{"snowy": "false"}},
	}
	values := make([]uint16, 4096)
	for i := range values {
		values[i] = uint16(i % 3)
	}
	data := packValues(values, 2) // bits = ceil(log2(3)) -> 2

	w := wireChunk{
		Sections: []wireSection{
			{Y: -4, BlockStates: &wireBlockStates{Palette: palette, Data: data}},
		},
		BlockEntities: []map[string]any{
			{"id": "minecraft:chest", "x": int32(10), "y": int32(64), "z": int32(-3)},
		},
		Heightmaps: map[string][]int64{"WORLD_SURFACE": make([]int64, 37)},
	}

	raw, err := gonbt.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	cd, err := Decode(pos.ChunkPos{X: 1, Z: 2}, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(cd.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(cd.Sections))
	}
	sec := cd.Sections[0]
	if sec.Y != -4 {
		t.Fatalf("Y = %d, want -4", sec.Y)
	}
	if len(sec.Palette) != 3 {
		t.Fatalf("palette length = %d, want 3", len(sec.Palette))
	}
	if sec.Palette[2].Properties["snowy"] != "false" {
		t.Fatalf("missing palette properties")
	}
	for y := 0; y < 16; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				idx := y*256 + z*16 + x
				got := sec.GetBlockAt(x, y, z)
				want := palette[values[idx]].Name
				if got.Name != want {
					t.Fatalf("GetBlockAt(%d,%d,%d) = %s, want %s", x, y, z, got.Name, want)
				}
			}
		}
	}

	if !cd.IsPopulated() {
		t.Fatal("expected chunk to be populated")
	}

	if len(cd.BlockEntities) != 1 {
		t.Fatalf("expected 1 block entity, got %d", len(cd.BlockEntities))
	}
	be := cd.BlockEntities[0]
	if be.ID != "minecraft:chest" || be.X != 10 || be.Y != 64 || be.Z != -3 {
		t.Fatalf("unexpected block entity: %+v", be)
	}

	if len(cd.HeightMaps["WORLD_SURFACE"]) != 37 {
		t.Fatalf("expected 37-long height map, got %d", len(cd.HeightMaps["WORLD_SURFACE"]))
	}
}

func TestDecodeEmptySection(t *testing.T) {
	w := wireChunk{
		Sections: []wireSection{{Y: 0, BlockStates: &wireBlockStates{Palette: []wirePaletteEntry{{Name: "minecraft:air"}}}}},
	}
	raw, err := gonbt.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	cd, err := Decode(pos.ChunkPos{}, raw)
	if err != nil {
		t.Fatal(err)
	}
	if !cd.IsPopulated() {
		t.Fatal("a chunk with a stored (even all-air) section is populated")
	}
	blk := cd.Sections[0].GetBlockAt(0, 0, 0)
	if blk.Name != "minecraft:air" {
		t.Fatalf("got %s, want minecraft:air", blk.Name)
	}
}

func TestDecodeHeightmap(t *testing.T) {
	values := make([]uint16, heightmapValueCount)
	for i := range values {
		values[i] = uint16(i % 512) // fits in 9 bits, exercises the 7th-column wrap
	}
	packed := packValues(values, HeightmapBits)
	if len(packed) != 37 {
		t.Fatalf("expected 37 packed longs, got %d", len(packed))
	}

	got, err := DecodeHeightmap(packed)
	if err != nil {
		t.Fatalf("DecodeHeightmap: %v", err)
	}
	if len(got) != heightmapValueCount {
		t.Fatalf("got %d heights, want %d", len(got), heightmapValueCount)
	}
	for i, v := range values {
		if got[i] != int64(v) {
			t.Fatalf("height[%d] = %d, want %d", i, got[i], v)
		}
	}

	// Column 7 is the first value of the second long (per-long packing);
	// a cross-long decoder would instead straddle bit 63 of the first long
	// into the second, producing a different value here.
	if got[7] != int64(values[7]) {
		t.Fatalf("height[7] = %d, want %d (per-long packing)", got[7], values[7])
	}
}

func TestDecodeNoSections(t *testing.T) {
	raw, err := gonbt.Marshal(wireChunk{})
	if err != nil {
		t.Fatal(err)
	}
	cd, err := Decode(pos.ChunkPos{}, raw)
	if err != nil {
		t.Fatal(err)
	}
	if cd.IsPopulated() {
		t.Fatal("chunk with no sections must not be considered populated")
	}
}

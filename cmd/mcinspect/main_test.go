package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	gonbt "github.com/Tnze/go-mc/nbt"

	"github.com/mapcrafter-go/mapcrafter/internal/nbt"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
	"github.com/mapcrafter-go/mapcrafter/internal/region"
)

// Local mirrors of internal/chunk's unexported wire structs: gonbt marshals
// purely off struct tags, so a test-local type with the same tags produces
// byte-identical NBT without needing package chunk to export them.
type testWireChunk struct {
	Sections      []testWireSection   `nbt:"sections"`
	BlockEntities []map[string]any    `nbt:"block_entities"`
	Heightmaps    map[string][]int64  `nbt:"Heightmaps"`
}

type testWireSection struct {
	Y           int8                  `nbt:"Y"`
	BlockStates *testWireBlockStates  `nbt:"block_states"`
}

type testWireBlockStates struct {
	Palette []testWirePaletteEntry `nbt:"palette"`
	Data    []int64                `nbt:"data"`
}

type testWirePaletteEntry struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties"`
}

func writeTestRegion(t *testing.T, dir string) string {
	t.Helper()

	w := testWireChunk{
		Sections: []testWireSection{
			{Y: 0, BlockStates: &testWireBlockStates{
				Palette: []testWirePaletteEntry{{Name: "minecraft:stone"}},
			}},
		},
		BlockEntities: []map[string]any{
			{
				"id": "minecraft:chest", "x": int32(5), "y": int32(64), "z": int32(9),
				"Items": []any{
					map[string]any{"id": "minecraft:diamond", "Slot": int8(0), "Count": int8(3)},
				},
			},
		},
		Heightmaps: map[string][]int64{"OCEAN_FLOOR": make([]int64, 37)},
	}
	raw, err := gonbt.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	path := filepath.Join(dir, "region", "r.0.0.mca")
	chunks := []region.ChunkWrite{
		{Pos: pos.ChunkPos{X: 1, Z: 2}, Data: raw, Kind: nbt.CompressionNone, MTime: 1000},
	}
	if err := region.Save(path, pos.RegionPos{}, chunks); err != nil {
		t.Fatalf("region.Save: %v", err)
	}
	return path
}

func TestCmdDump(t *testing.T) {
	dir := t.TempDir()
	path := writeTestRegion(t, dir)

	var out, errw bytes.Buffer
	code := run([]string{"--dump", path}, &out, &errw)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errw.String())
	}
	if !strings.Contains(out.String(), "chunk 1 2") {
		t.Fatalf("expected chunk header, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "minecraft:stone") {
		t.Fatalf("expected palette name in dump, got: %s", out.String())
	}
}

func TestCmdHeightMaps(t *testing.T) {
	dir := t.TempDir()
	path := writeTestRegion(t, dir)

	var out, errw bytes.Buffer
	code := run([]string{"--height-maps", path}, &out, &errw)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errw.String())
	}
	if !strings.HasPrefix(out.String(), "1 2 ") {
		t.Fatalf("expected row starting with chunk coords, got: %s", out.String())
	}
}

func TestCmdRegionContainers(t *testing.T) {
	dir := t.TempDir()
	path := writeTestRegion(t, dir)

	var out, errw bytes.Buffer
	code := run([]string{"--region", path}, &out, &errw)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errw.String())
	}
	want := "minecraft:chest 5,64,9 item=minecraft:diamond slot=0 count=3"
	if !strings.Contains(out.String(), want) {
		t.Fatalf("expected %q in output, got: %s", want, out.String())
	}
}

func TestCmdBlockStates(t *testing.T) {
	dir := t.TempDir()
	writeTestRegion(t, dir)

	var out, errw bytes.Buffer
	code := run([]string{"--block-states", dir}, &out, &errw)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errw.String())
	}
	if !strings.Contains(out.String(), `"palette":["minecraft:stone"]`) {
		t.Fatalf("expected palette field in JSON output, got: %s", out.String())
	}
}

func TestRunMissingArgs(t *testing.T) {
	var out, errw bytes.Buffer
	code := run(nil, &out, &errw)
	if code != 1 {
		t.Fatalf("expected exit code 1 with no args, got %d", code)
	}
}

func TestParseLimitsFromTo(t *testing.T) {
	lim, err := parseLimits("1,2,3", "10,20,30")
	if err != nil {
		t.Fatalf("parseLimits: %v", err)
	}
	if !lim.x.Contains(5) || lim.x.Contains(-1) || lim.x.Contains(11) {
		t.Fatalf("x bounds not applied as expected")
	}
}

func TestParseLimitsInvalid(t *testing.T) {
	if _, err := parseLimits("not-coords", ""); err == nil {
		t.Fatalf("expected error for malformed --from")
	}
}

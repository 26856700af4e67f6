// Command mcinspect is the world/region inspection tool (§6), grounded on
// the teacher corpus's mcl.cpp: dump a region's NBT in human-readable
// form, emit per-section block-state JSON lines, dump packed heightmaps,
// or scan block-entity containers (including nested shulker-box Items)
// across a region or a whole world directory.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/mapcrafter-go/mapcrafter/internal/chunk"
	"github.com/mapcrafter-go/mapcrafter/internal/crop"
	"github.com/mapcrafter-go/mapcrafter/internal/nbt"
	"github.com/mapcrafter-go/mapcrafter/internal/palette"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
	"github.com/mapcrafter-go/mapcrafter/internal/region"
	"github.com/mapcrafter-go/mapcrafter/internal/world"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// limits is the CLI's x/y/z crop, one independent Bounds per axis (§6
// "--from"/"--to": min/max computed component-wise).
type limits struct {
	x, y, z crop.Bounds[int]
}

var coordsRE = regexp.MustCompile(`^(-?\d+),(-?\d+),(-?\d+)$`)

func parseCoords(s string) (x, y, z int, ok bool) {
	m := coordsRE.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, 0, false
	}
	x, _ = strconv.Atoi(m[1])
	y, _ = strconv.Atoi(m[2])
	z, _ = strconv.Atoi(m[3])
	return x, y, z, true
}

var regionFilenameRE = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

// parseRegionFilename recovers a region's position from its standard
// filename, falling back to the origin region if the name doesn't match
// (a raw .mca path handed in directly still reads fine; only its absolute
// chunk coordinates would be off).
func parseRegionFilename(path string) pos.RegionPos {
	m := regionFilenameRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return pos.RegionPos{}
	}
	x, _ := strconv.Atoi(m[1])
	z, _ := strconv.Atoi(m[2])
	return pos.RegionPos{X: x, Z: z}
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mcinspect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dump := fs.String("dump", "", "dump region nbt in human readable format")
	blockStates := fs.String("block-states", "", "emit block-state JSON lines for every chunk in <world-dir>")
	heightMaps := fs.String("height-maps", "", "dump OCEAN_FLOOR height-map rows for a region file")
	regionFlag := fs.String("region", "", "search block entity containers in a single region file")
	fromStr := fs.String("from", "", "inclusive crop minimum, x,y,z")
	toStr := fs.String("to", "", "inclusive crop maximum, x,y,z")
	dimension := fs.String("dimension", "overworld", "overworld|nether|end")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	lim, err := parseLimits(*fromStr, *toStr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	switch {
	case *dump != "":
		return cmdDump(stdout, stderr, *dump)
	case *blockStates != "":
		return cmdBlockStates(stdout, stderr, *blockStates, *dimension, lim)
	case *heightMaps != "":
		return cmdHeightMaps(stdout, stderr, *heightMaps)
	case *regionFlag != "":
		return cmdRegionContainers(stdout, stderr, *regionFlag, lim)
	default:
		worldDir := fs.Arg(0)
		if worldDir == "" {
			fmt.Fprintln(stderr, "usage: mcinspect [flags] <world-dir>")
			fs.PrintDefaults()
			return 1
		}
		return cmdWorldContainers(stdout, stderr, worldDir, *dimension, lim)
	}
}

func parseLimits(fromStr, toStr string) (limits, error) {
	var lim limits
	var fx, fy, fz, tx, ty, tz int
	haveFrom, haveTo := false, false

	if fromStr != "" {
		var ok bool
		fx, fy, fz, ok = parseCoords(fromStr)
		if !ok {
			return limits{}, fmt.Errorf("invalid --from %q, want x,y,z", fromStr)
		}
		haveFrom = true
	}
	if toStr != "" {
		var ok bool
		tx, ty, tz, ok = parseCoords(toStr)
		if !ok {
			return limits{}, fmt.Errorf("invalid --to %q, want x,y,z", toStr)
		}
		haveTo = true
	}

	switch {
	case haveFrom && haveTo:
		lim.x.SetMin(min(fx, tx))
		lim.x.SetMax(max(fx, tx))
		lim.y.SetMin(min(fy, ty))
		lim.y.SetMax(max(fy, ty))
		lim.z.SetMin(min(fz, tz))
		lim.z.SetMax(max(fz, tz))
	case haveFrom:
		lim.x.SetMin(fx)
		lim.y.SetMin(fy)
		lim.z.SetMin(fz)
	case haveTo:
		lim.x.SetMax(tx)
		lim.y.SetMax(ty)
		lim.z.SetMax(tz)
	}
	return lim, nil
}

func openRegion(path string) (*region.RegionFile, error) {
	rf := region.New(parseRegionFilename(path), path)
	if err := rf.Read(); err != nil {
		return nil, err
	}
	return rf, nil
}

func sortedChunks(rf *region.RegionFile) []pos.ChunkPos {
	chunks := rf.GetContainingChunks()
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Less(chunks[j]) })
	return chunks
}

// cmdDump implements "--dump <region-file>": emit human-readable NBT of
// every chunk.
func cmdDump(stdout, stderr io.Writer, path string) int {
	rf, err := openRegion(path)
	if err != nil {
		fmt.Fprintf(stderr, "reading region %s: %v\n", path, err)
		return 1
	}
	for _, cp := range sortedChunks(rf) {
		data, err := rf.GetChunkData(cp)
		if err != nil {
			fmt.Fprintf(stderr, "chunk %d,%d: %v\n", cp.X, cp.Z, err)
			continue
		}
		root, err := nbt.Decode(data, nbt.CompressionNone)
		if err != nil {
			fmt.Fprintf(stderr, "chunk %d,%d: %v\n", cp.X, cp.Z, err)
			continue
		}
		fmt.Fprintf(stdout, "chunk %d %d\n", cp.X, cp.Z)
		dumpTag(stdout, "  ", root)
	}
	return 0
}

func dumpTag(w io.Writer, indent string, t nbt.Tag) {
	for _, nt := range t.Compound {
		dumpNamed(w, indent, nt)
	}
}

func dumpNamed(w io.Writer, indent string, nt nbt.NamedTag) {
	switch nt.Tag.Kind {
	case nbt.TagCompound:
		fmt.Fprintf(w, "%s%s:\n", indent, nt.Name)
		dumpTag(w, indent+"  ", nt.Tag)
	case nbt.TagList:
		fmt.Fprintf(w, "%s%s: [%d x %s]\n", indent, nt.Name, len(nt.Tag.List), nt.Tag.ListElem)
		for i, item := range nt.Tag.List {
			if item.Kind == nbt.TagCompound {
				fmt.Fprintf(w, "%s  [%d]:\n", indent, i)
				dumpTag(w, indent+"    ", item)
			} else {
				fmt.Fprintf(w, "%s  [%d]: %s\n", indent, i, formatScalar(item))
			}
		}
	default:
		fmt.Fprintf(w, "%s%s: %s\n", indent, nt.Name, formatScalar(nt.Tag))
	}
}

func formatScalar(t nbt.Tag) string {
	switch t.Kind {
	case nbt.TagByte:
		return fmt.Sprintf("%d (byte)", t.Byte)
	case nbt.TagShort:
		return fmt.Sprintf("%d (short)", t.Short)
	case nbt.TagInt:
		return fmt.Sprintf("%d (int)", t.Int)
	case nbt.TagLong:
		return fmt.Sprintf("%d (long)", t.Long)
	case nbt.TagFloat:
		return fmt.Sprintf("%g (float)", t.Float)
	case nbt.TagDouble:
		return fmt.Sprintf("%g (double)", t.Double)
	case nbt.TagString:
		return fmt.Sprintf("%q", t.Str)
	case nbt.TagByteArray:
		return fmt.Sprintf("[%d bytes]", len(t.ByteArray))
	case nbt.TagIntArray:
		return fmt.Sprintf("[%d ints]", len(t.IntArray))
	case nbt.TagLongArray:
		return fmt.Sprintf("[%d longs]", len(t.LongArray))
	default:
		return t.Kind.String()
	}
}

// cmdHeightMaps implements "--height-maps <region-file>": emit
// "cx cz h0,h1,...,h255" rows from each chunk's OCEAN_FLOOR heightmap.
func cmdHeightMaps(stdout, stderr io.Writer, path string) int {
	rf, err := openRegion(path)
	if err != nil {
		fmt.Fprintf(stderr, "reading region %s: %v\n", path, err)
		return 1
	}
	for _, cp := range sortedChunks(rf) {
		data, err := rf.GetChunkData(cp)
		if err != nil {
			fmt.Fprintf(stderr, "chunk %d,%d: %v\n", cp.X, cp.Z, err)
			continue
		}
		cd, err := chunk.Decode(cp, data)
		if err != nil {
			fmt.Fprintf(stderr, "chunk %d,%d: %v\n", cp.X, cp.Z, err)
			continue
		}
		packed, ok := cd.HeightMaps["OCEAN_FLOOR"]
		if !ok {
			continue
		}
		heights, err := chunk.DecodeHeightmap(packed)
		if err != nil {
			fmt.Fprintf(stderr, "chunk %d,%d: %v\n", cp.X, cp.Z, err)
			continue
		}
		fmt.Fprintf(stdout, "%d %d ", cp.X, cp.Z)
		for i, h := range heights {
			if i > 0 {
				fmt.Fprint(stdout, ",")
			}
			fmt.Fprint(stdout, h)
		}
		fmt.Fprintln(stdout)
	}
	return 0
}

// blockStateLine is one JSON line emitted by --block-states (§6).
type blockStateLine struct {
	Section     [3]int   `json:"section"`
	Palette     []string `json:"palette"`
	BlockStates []int    `json:"block_states"`
}

func chunkInBounds(cp pos.ChunkPos, lim limits) bool {
	return lim.x.Overlaps(cp.X*16, cp.X*16+15) && lim.z.Overlaps(cp.Z*16, cp.Z*16+15)
}

func sectionInBounds(sectionY int8, lim limits) bool {
	y := int(sectionY) * 16
	return lim.y.Overlaps(y, y+15)
}

func blockStateIndices(sec chunk.Section) []int {
	out := make([]int, palette.TargetCount)
	if len(sec.Indices) == 0 {
		return out // single-entry palette: every index is 0
	}
	for i, v := range sec.Indices {
		out[i] = int(v)
	}
	return out
}

// cmdBlockStates implements "--block-states <world-dir>".
func cmdBlockStates(stdout, stderr io.Writer, worldDir, dimensionStr string, lim limits) int {
	dim, err := world.ParseDimension(dimensionStr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	w := world.New(worldDir, dim, nil)
	regions, err := w.ListRegions(nil)
	if err != nil {
		fmt.Fprintf(stderr, "loading world %s: %v\n", worldDir, err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	for _, rp := range regions {
		rf, err := w.OpenRegion(rp)
		if err != nil {
			fmt.Fprintf(stderr, "region %v: %v\n", rp, err)
			continue
		}
		for _, cp := range sortedChunks(rf) {
			if !chunkInBounds(cp, lim) {
				continue
			}
			data, err := rf.GetChunkData(cp)
			if err != nil {
				fmt.Fprintf(stderr, "chunk %d,%d: %v\n", cp.X, cp.Z, err)
				continue
			}
			cd, err := chunk.Decode(cp, data)
			if err != nil {
				fmt.Fprintf(stderr, "chunk %d,%d: %v\n", cp.X, cp.Z, err)
				continue
			}
			for _, sec := range cd.Sections {
				if len(sec.Palette) == 0 || !sectionInBounds(sec.Y, lim) {
					continue
				}
				line := blockStateLine{Section: [3]int{cp.X, int(sec.Y), cp.Z}}
				for _, bs := range sec.Palette {
					line.Palette = append(line.Palette, bs.Name)
				}
				line.BlockStates = blockStateIndices(sec)
				if err := enc.Encode(line); err != nil {
					fmt.Fprintf(stderr, "encoding section %v: %v\n", line.Section, err)
				}
			}
		}
	}
	return 0
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int8:
		return int(n), true
	case uint8:
		return int(n), true
	case int16:
		return int(n), true
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

func asMapSlice(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func dumpItem(w io.Writer, entityID string, x, y, z int, item map[string]any) {
	id, _ := item["id"].(string)
	slot, _ := asInt(item["Slot"])
	count, _ := asInt(item["Count"])
	fmt.Fprintf(w, "%s %d,%d,%d item=%s slot=%d count=%d\n", entityID, x, y, z, id, slot, count)
}

// dumpContainers implements the §6 container scan for one block entity:
// every entry of its own Items, plus (for shulker boxes and similar)
// Items nested under tag.BlockEntityTag.
func dumpContainers(w io.Writer, be chunk.BlockEntity, lim limits) {
	if !lim.x.Contains(be.X) || !lim.y.Contains(be.Y) || !lim.z.Contains(be.Z) {
		return
	}
	items, ok := be.Data["Items"]
	if !ok {
		return
	}
	for _, item := range asMapSlice(items) {
		dumpItem(w, be.ID, be.X, be.Y, be.Z, item)
		tag, ok := item["tag"].(map[string]any)
		if !ok {
			continue
		}
		blockEntity, ok := tag["BlockEntityTag"].(map[string]any)
		if !ok {
			continue
		}
		nested, ok := blockEntity["Items"]
		if !ok {
			continue
		}
		for _, sub := range asMapSlice(nested) {
			dumpItem(w, be.ID, be.X, be.Y, be.Z, sub)
		}
	}
}

func scanRegionContainers(w io.Writer, stderr io.Writer, rf *region.RegionFile, lim limits) {
	for _, cp := range sortedChunks(rf) {
		if !chunkInBounds(cp, lim) {
			continue
		}
		data, err := rf.GetChunkData(cp)
		if err != nil {
			fmt.Fprintf(stderr, "chunk %d,%d: %v\n", cp.X, cp.Z, err)
			continue
		}
		cd, err := chunk.Decode(cp, data)
		if err != nil {
			fmt.Fprintf(stderr, "chunk %d,%d: %v\n", cp.X, cp.Z, err)
			continue
		}
		for _, be := range cd.BlockEntities {
			dumpContainers(w, be, lim)
		}
	}
}

// cmdRegionContainers implements "--region <region-file>".
func cmdRegionContainers(stdout, stderr io.Writer, path string, lim limits) int {
	rf, err := openRegion(path)
	if err != nil {
		fmt.Fprintf(stderr, "reading region %s: %v\n", path, err)
		return 1
	}
	scanRegionContainers(stdout, stderr, rf, lim)
	return 0
}

// cmdWorldContainers implements the default "<world-dir>" action: scan
// every region of the given dimension.
func cmdWorldContainers(stdout, stderr io.Writer, worldDir, dimensionStr string, lim limits) int {
	dim, err := world.ParseDimension(dimensionStr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	w := world.New(worldDir, dim, nil)
	regions, err := w.ListRegions(nil)
	if err != nil {
		fmt.Fprintf(stderr, "loading world %s: %v\n", worldDir, err)
		return 1
	}
	for _, rp := range regions {
		rf, err := w.OpenRegion(rp)
		if err != nil {
			fmt.Fprintf(stderr, "region %v: %v\n", rp, err)
			continue
		}
		scanRegionContainers(stdout, stderr, rf, lim)
	}
	return 0
}

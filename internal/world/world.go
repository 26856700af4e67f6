// Package world enumerates a dimension's region files on disk and resolves
// their paths, per §6 "World directory layout" and §2's "World view"
// component: "enumerates regions for a dimension (overworld/nether/end)
// and resolves paths."
package world

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/mapcrafter-go/mapcrafter/internal/crop"
	"github.com/mapcrafter-go/mapcrafter/internal/logging"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
	"github.com/mapcrafter-go/mapcrafter/internal/region"
)

// Dimension selects which of a world's three region trees to read.
type Dimension int

const (
	Overworld Dimension = iota
	Nether
	End
)

// ParseDimension parses the CLI/config spelling ("overworld|nether|end",
// §6) into a Dimension.
func ParseDimension(s string) (Dimension, error) {
	switch s {
	case "overworld", "":
		return Overworld, nil
	case "nether":
		return Nether, nil
	case "end":
		return End, nil
	default:
		return 0, fmt.Errorf("unknown dimension %q", s)
	}
}

func (d Dimension) String() string {
	switch d {
	case Nether:
		return "nether"
	case End:
		return "end"
	default:
		return "overworld"
	}
}

// regionSubdir returns the path segments under the world directory that
// hold this dimension's region files (§6).
func (d Dimension) regionSubdir() []string {
	switch d {
	case Nether:
		return []string{"DIM-1", "region"}
	case End:
		return []string{"DIM1", "region"}
	default:
		return []string{"region"}
	}
}

var regionFileRE = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

// World is a read-only view over one dimension's region tree on disk.
type World struct {
	dir       string
	dimension Dimension
	log       logging.Logger
}

// New returns a World rooted at worldDir (the directory containing
// level.dat) for the given dimension.
func New(worldDir string, dim Dimension, log logging.Logger) *World {
	if log == nil {
		log = logging.Nop()
	}
	return &World{dir: worldDir, dimension: dim, log: log}
}

// Dir returns the world root directory this view was constructed with.
func (w *World) Dir() string { return w.dir }

// Dimension returns this view's dimension.
func (w *World) Dimension() Dimension { return w.dimension }

// RegionDir returns the directory holding this dimension's .mca files.
func (w *World) RegionDir() string {
	parts := append([]string{w.dir}, w.dimension.regionSubdir()...)
	return filepath.Join(parts...)
}

// RegionPath returns the on-disk path for region rp, whether or not it
// exists.
func (w *World) RegionPath(rp pos.RegionPos) string {
	return filepath.Join(w.RegionDir(), fmt.Sprintf("r.%d.%d.mca", rp.X, rp.Z))
}

// ListRegions scans the region directory and returns every region position
// present on disk, in ascending lexicographic order. If wc is non-nil, it
// is applied as the region-level predicate (§4.4's cheapest-first filter
// order: region predicate before anything else is even opened).
func (w *World) ListRegions(wc *crop.WorldCrop) ([]pos.RegionPos, error) {
	entries, err := os.ReadDir(w.RegionDir())
	if err != nil {
		return nil, fmt.Errorf("listing region dir %s: %w", w.RegionDir(), err)
	}

	var out []pos.RegionPos
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := regionFileRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		x, err1 := strconv.Atoi(m[1])
		z, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		rp := pos.RegionPos{X: x, Z: z}
		if wc != nil && !wc.IsRegionContained(rp) {
			continue
		}
		out = append(out, rp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}

// OpenRegion opens and reads the region file at rp. I/O and framing
// failures are returned to the caller, which per §7 logs them, skips the
// region, and continues the run.
func (w *World) OpenRegion(rp pos.RegionPos) (*region.RegionFile, error) {
	path := w.RegionPath(rp)
	rf := region.New(rp, path)
	if err := rf.Read(); err != nil {
		return nil, fmt.Errorf("reading region %v at %s: %w", rp, path, err)
	}
	return rf, nil
}

// Package renderstate persists the incremental-render bookkeeping a run
// needs to know which chunks changed since last time (§4.5 step 1:
// "newer than last_check_time or never rendered"). It is the new home for
// the teacher's zstd dependency, previously only exercised by the
// out-of-scope slime-world container format.
package renderstate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

// Snapshot is what a run persists so the next run's TileSet.Scan can skip
// chunks that haven't changed: the time the scan was taken, and the leaf
// tiles already known to be rendered (fed into TileSet.AddLeaf before
// re-scanning).
type Snapshot struct {
	LastCheckTime int64          `json:"last_check_time"`
	Leaves        []pos.TilePos  `json:"leaves"`
}

// Save compresses and writes snap to path (zstd, matching the teacher's
// compression stack rather than introducing a second compressor for one
// small JSON blob).
func Save(path string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("renderstate: marshal snapshot: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("renderstate: new zstd encoder: %w", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw, nil)
	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		return fmt.Errorf("renderstate: write %s: %w", path, err)
	}
	return nil
}

// Load reads and decompresses a snapshot previously written by Save. A
// missing file is reported via the returned error wrapping os.ErrNotExist,
// so callers can treat "no prior state" as "render everything."
func Load(path string) (Snapshot, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return Snapshot{}, fmt.Errorf("renderstate: new zstd decoder: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("renderstate: decompress %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("renderstate: unmarshal %s: %w", path, err)
	}
	return snap, nil
}

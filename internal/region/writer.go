package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mapcrafter-go/mapcrafter/internal/nbt"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

// ChunkWrite is one chunk to persist: its already-compressed bytes, the
// compression kind they were written under, and the mtime to record.
type ChunkWrite struct {
	Pos   pos.ChunkPos
	Data  []byte
	Kind  nbt.Compression
	MTime uint32
}

// build lays out the header tables and sector-aligned chunk data exactly as
// §4.2 describes, the way the corpus's own Anvil region writer does it.
func build(rpos pos.RegionPos, chunks []ChunkWrite) (locations, timestamps []byte, data []byte, err error) {
	locations = make([]byte, sectorSize)
	timestamps = make([]byte, sectorSize)
	var dataBuf bytes.Buffer
	currentSector := uint32(headerSectors)

	for _, c := range chunks {
		lx := c.Pos.X - rpos.X*chunksPerSide
		lz := c.Pos.Z - rpos.Z*chunksPerSide
		if lx < 0 || lx >= chunksPerSide || lz < 0 || lz >= chunksPerSide {
			return nil, nil, nil, fmt.Errorf("chunk %v is not within region %v", c.Pos, rpos)
		}
		idx := lx + lz*chunksPerSide

		payloadLen := uint32(len(c.Data)) + 1 // +1 for compression kind byte
		totalLen := 4 + payloadLen
		sectorCount := (totalLen + sectorSize - 1) / sectorSize
		if sectorCount > 0xFF {
			return nil, nil, nil, fmt.Errorf("chunk %v spans %d sectors, exceeds the u8 sector-count field", c.Pos, sectorCount)
		}

		off := idx * 4
		binary.BigEndian.PutUint32(locations[off:off+4], (currentSector<<8)|sectorCount)
		binary.BigEndian.PutUint32(timestamps[off:off+4], c.MTime)

		var header [5]byte
		binary.BigEndian.PutUint32(header[0:4], payloadLen)
		header[4] = byte(c.Kind)
		dataBuf.Write(header[:])
		dataBuf.Write(c.Data)

		paddedSize := int(sectorCount) * sectorSize
		if pad := paddedSize - int(totalLen); pad > 0 {
			dataBuf.Write(make([]byte, pad))
		}
		currentSector += sectorCount
	}
	return locations, timestamps, dataBuf.Bytes(), nil
}

// Save writes a set of chunks as a single .mca region file at path. The
// write is atomic (temp file + rename), following the pattern used to
// persist Anvil region files elsewhere in the corpus.
func Save(path string, rpos pos.RegionPos, chunks []ChunkWrite) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create region dir: %w", err)
	}
	locations, timestamps, data, err := build(rpos, chunks)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp region file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()

	if _, err := f.Write(locations); err != nil {
		return fmt.Errorf("write locations: %w", err)
	}
	if _, err := f.Write(timestamps); err != nil {
		return fmt.Errorf("write timestamps: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write chunk data: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close region file: %w", err)
	}
	return os.Rename(tmp, path)
}

// WriteTo writes the same layout Save would, directly to w, so round-trip
// tests can exercise the format without touching the filesystem.
func WriteTo(w io.Writer, rpos pos.RegionPos, chunks []ChunkWrite) error {
	locations, timestamps, data, err := build(rpos, chunks)
	if err != nil {
		return err
	}
	if _, err := w.Write(locations); err != nil {
		return err
	}
	if _, err := w.Write(timestamps); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

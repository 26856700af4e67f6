// Package region reads and writes the Anvil region file container: an 8 KiB
// header (a 4096-byte sector-offset/size table followed by a 4096-byte
// mtime table, one 4-byte entry per chunk in the region's 32x32 grid) plus
// the chunks' compressed NBT payloads (§4.2).
//
// The header tables are each 4096 BYTES (1024 entries of 4 bytes, one per
// chunk slot) rather than 4096 entries; that resolves the arithmetic
// otherwise implied by an 8 KiB header holding two tables (see DESIGN.md).
package region

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/mapcrafter-go/mapcrafter/internal/nbt"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

const (
	sectorSize    = 4096
	chunksPerSide = 32
	chunkSlots    = chunksPerSide * chunksPerSide // 1024
	headerSectors = 2
	headerBytes   = headerSectors * sectorSize // 8 KiB
)

// ChunkBlob is a chunk's owned compressed payload plus the compression kind
// it was stored under.
type ChunkBlob struct {
	Data []byte
	Kind nbt.Compression
}

// RegionFile is an immutable, already-populated view over one .mca
// container. Construct with New, then call Read once before use.
type RegionFile struct {
	pos pos.RegionPos
	path string

	// offsets[i]/sizes[i] are the raw header entries for local chunk slot i
	// (sector offset and sector count); 0 means "absent".
	offsets [chunkSlots]uint32
	sizes   [chunkSlots]byte
	mtimes  [chunkSlots]uint32

	blobs map[pos.ChunkPos]ChunkBlob
}

// New returns a RegionFile for the given region position and backing path.
// It does not touch disk; call Read to populate it.
func New(rpos pos.RegionPos, path string) *RegionFile {
	return &RegionFile{pos: rpos, path: path, blobs: make(map[pos.ChunkPos]ChunkBlob)}
}

// Pos returns this region's position.
func (r *RegionFile) Pos() pos.RegionPos { return r.pos }

// Read loads the header, then every chunk with a nonzero offset, storing
// its compressed bytes and compression kind. It fails with
// *BadRegionHeaderError on a truncated or out-of-range header.
func (r *RegionFile) Read() error {
	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.ReadFrom(f)
}

// ReadFrom populates the RegionFile from an arbitrary reader, primarily to
// keep round-trip tests free of the filesystem.
func (r *RegionFile) ReadFrom(f io.Reader) error {
	header := make([]byte, headerBytes)
	if _, err := io.ReadFull(f, header); err != nil {
		return badHeader("truncated header: %v", err)
	}
	locTable := header[:sectorSize]
	tsTable := header[sectorSize:headerBytes]

	for i := 0; i < chunkSlots; i++ {
		off := i * 4
		entry := locTable[off : off+4]
		sectorOffset := uint32(entry[0])<<16 | uint32(entry[1])<<8 | uint32(entry[2])
		sectorCount := entry[3]
		r.offsets[i] = sectorOffset
		r.sizes[i] = sectorCount
		r.mtimes[i] = binary.BigEndian.Uint32(tsTable[off : off+4])
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return badHeader("reading chunk data: %v", err)
	}

	for i := 0; i < chunkSlots; i++ {
		if r.offsets[i] == 0 && r.sizes[i] == 0 {
			continue
		}
		startByte := int64(r.offsets[i])*sectorSize - headerBytes
		sectorLen := int64(r.sizes[i]) * sectorSize
		if startByte < 0 || sectorLen <= 0 || startByte+sectorLen > int64(len(rest)) {
			return badHeader("chunk slot %d: sector range [%d,%d) out of range (have %d bytes)",
				i, startByte, startByte+sectorLen, len(rest))
		}
		chunkSector := rest[startByte : startByte+sectorLen]
		if len(chunkSector) < 5 {
			return badHeader("chunk slot %d: sector too small for header (%d bytes)", i, len(chunkSector))
		}
		length := binary.BigEndian.Uint32(chunkSector[0:4])
		if length == 0 {
			return badHeader("chunk slot %d: zero-length payload", i)
		}
		if int64(length)+4 > int64(len(chunkSector)) {
			return badHeader("chunk slot %d: declared length %d exceeds sector bytes %d", i, length, len(chunkSector)-4)
		}
		kind := nbt.Compression(chunkSector[4])
		payload := chunkSector[5 : 4+length]
		cp := make([]byte, len(payload))
		copy(cp, payload)

		lx := i % chunksPerSide
		lz := i / chunksPerSide
		cpos := pos.ChunkPos{X: r.pos.X*chunksPerSide + lx, Z: r.pos.Z*chunksPerSide + lz}
		r.blobs[cpos] = ChunkBlob{Data: cp, Kind: kind}
	}
	return nil
}

// GetContainingChunks returns the set of absolute chunk positions present
// in this region.
func (r *RegionFile) GetContainingChunks() []pos.ChunkPos {
	out := make([]pos.ChunkPos, 0, len(r.blobs))
	for cp := range r.blobs {
		out = append(out, cp)
	}
	return out
}

// GetChunkData returns the decompressed NBT bytes for a chunk, failing with
// *MissingChunkError if it is not present.
func (r *RegionFile) GetChunkData(cpos pos.ChunkPos) ([]byte, error) {
	blob, ok := r.blobs[cpos]
	if !ok {
		return nil, &MissingChunkError{X: cpos.X, Z: cpos.Z}
	}
	return decompressBlob(blob)
}

func decompressBlob(blob ChunkBlob) ([]byte, error) {
	return nbt.Decompress(blob.Data, blob.Kind)
}

// GetChunkTimestamp returns the stored mtime (seconds since epoch) for a
// chunk, used by the tile set's incremental-render scan.
func (r *RegionFile) GetChunkTimestamp(cpos pos.ChunkPos) (int64, error) {
	if _, ok := r.blobs[cpos]; !ok {
		return 0, &MissingChunkError{X: cpos.X, Z: cpos.Z}
	}
	lx := cpos.X - r.pos.X*chunksPerSide
	lz := cpos.Z - r.pos.Z*chunksPerSide
	idx := lx + lz*chunksPerSide
	return int64(r.mtimes[idx]), nil
}

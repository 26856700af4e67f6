// Package palette decodes the packed block-state index arrays stored in a
// chunk section's "data" LongArray (§4.3).
package palette

import "fmt"

// TargetCount is the number of indices packed per section (16x16x16 blocks).
const TargetCount = 4096

// Decode unpacks data (a LongArray of N longs) into M = count indices
// (TargetCount for a block-state section, 256 for a heightmap) using the
// v1.16+ scheme: bits_per_value = 64 / ceil(M/N), and
// indices are NOT packed across long boundaries — each long holds
// floor(64/bits_per_value) consecutive indices from its low bit, and any
// leftover high bits in that long are discarded.
//
// Implementers must reproduce this exact packing; it is a distinct layout
// from the pre-1.16 decoder in DecodeLegacy, which does pack across long
// boundaries.
func Decode(data []int64, count int) ([]uint16, error) {
	if count <= 0 {
		return nil, fmt.Errorf("palette: count must be positive, got %d", count)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("palette: empty data array")
	}
	bitsPerValue := 64 / ceilDiv(count, len(data))
	if bitsPerValue <= 0 || bitsPerValue > 32 {
		return nil, fmt.Errorf("palette: computed bits_per_value=%d out of range", bitsPerValue)
	}
	perLong := 64 / bitsPerValue
	mask := uint64(1)<<uint(bitsPerValue) - 1

	out := make([]uint16, count)
	for k := 0; k < count; k++ {
		longIdx := k / perLong
		if longIdx >= len(data) {
			return nil, fmt.Errorf("palette: index %d needs long %d, only %d present", k, longIdx, len(data))
		}
		shift := uint(bitsPerValue * (k % perLong))
		out[k] = uint16(uint64(data[longIdx]) >> shift & mask)
	}
	return out, nil
}

// DecodeLegacy unpacks a pre-1.16 packed index array, where indices ARE
// allowed to straddle a long boundary: bitsPerValue bits are taken starting
// at bit position k*bitsPerValue of the logical bitstream formed by
// concatenating the longs low-bit-first, with no per-long padding.
func DecodeLegacy(data []int64, count int, bitsPerValue int) ([]uint16, error) {
	if bitsPerValue <= 0 || bitsPerValue > 32 {
		return nil, fmt.Errorf("palette: bitsPerValue=%d out of range", bitsPerValue)
	}
	mask := uint64(1)<<uint(bitsPerValue) - 1
	out := make([]uint16, count)
	for k := 0; k < count; k++ {
		bitIdx := k * bitsPerValue
		startLong := bitIdx / 64
		startOffset := uint(bitIdx % 64)

		if startLong >= len(data) {
			return nil, fmt.Errorf("palette: index %d needs long %d, only %d present", k, startLong, len(data))
		}
		v := uint64(data[startLong]) >> startOffset
		bitsFromFirst := 64 - startOffset
		if uint(bitsPerValue) > bitsFromFirst && startLong+1 < len(data) {
			v |= uint64(data[startLong+1]) << bitsFromFirst
		}
		out[k] = uint16(v & mask)
	}
	return out, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

package crop

import (
	"testing"

	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

func TestBlockMaskScenarioS2(t *testing.T) {
	m, err := LoadBlockMaskFromString("!* 1 3:2 7-9")
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsHidden(0, 0) {
		t.Error("isHidden(0,0) should be true")
	}
	for d := 0; d < 16; d++ {
		if m.IsHidden(1, uint8(d)) {
			t.Errorf("isHidden(1,%d) should be false", d)
		}
	}
	if m.IsHidden(3, 2) {
		t.Error("isHidden(3,2) should be false")
	}
	if !m.IsHidden(3, 0) {
		t.Error("isHidden(3,0) should be true")
	}
	if m.IsHidden(8, 5) {
		t.Error("isHidden(8,5) should be false")
	}
	if !m.IsHidden(10, 0) {
		t.Error("isHidden(10,0) should be true")
	}
}

func TestBlockMaskScenarioS3(t *testing.T) {
	m, err := LoadBlockMaskFromString("!17:3b3 !18:3b3")
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsHidden(17, 0b0011) {
		t.Error("isHidden(17,0b0011) should be true")
	}
	if !m.IsHidden(17, 0b0111) {
		t.Error("isHidden(17,0b0111) should be true")
	}
	if m.IsHidden(17, 0b0001) {
		t.Error("isHidden(17,0b0001) should be false")
	}
	if !m.IsHidden(18, 0b1111) {
		t.Error("isHidden(18,0b1111) should be true")
	}
	for d := 0; d < 16; d++ {
		if m.IsHidden(19, uint8(d)) {
			t.Errorf("isHidden(19,%d) should be false", d)
		}
	}
}

func TestBlockMaskInvalidToken(t *testing.T) {
	_, err := LoadBlockMaskFromString("not-a-token")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*InvalidBlockMaskSpecError); !ok {
		t.Fatalf("expected *InvalidBlockMaskSpecError, got %T", err)
	}
}

func TestBlockMaskRoundTripTokens(t *testing.T) {
	def := "!* 1 3:2 7-9 !17:3b3"
	m, err := LoadBlockMaskFromString(def)
	if err != nil {
		t.Fatal(err)
	}
	if m.String() != def {
		t.Fatalf("String() = %q, want %q", m.String(), def)
	}
	m2, err := LoadBlockMaskFromString(m.String())
	if err != nil {
		t.Fatal(err)
	}
	for id := uint16(0); id < 20; id++ {
		if m.GetBlockState(id) != m2.GetBlockState(id) {
			t.Fatalf("id %d: state diverged after round trip", id)
		}
	}
}

func TestBlockMaskSummaryInvariant(t *testing.T) {
	m := NewBlockMask()
	m.Set(5, true)
	if m.GetBlockState(5) != CompletelyShown {
		t.Fatalf("expected COMPLETELY_SHOWN, got %v", m.GetBlockState(5))
	}
	m.SetData(5, 3, false)
	if m.GetBlockState(5) != PartiallyHiddenShown {
		t.Fatalf("expected PARTIALLY, got %v", m.GetBlockState(5))
	}
	m.Set(5, false)
	if m.GetBlockState(5) != CompletelyHidden {
		t.Fatalf("expected COMPLETELY_HIDDEN, got %v", m.GetBlockState(5))
	}
}

func TestCropScenarioS4(t *testing.T) {
	c := NewRectCrop()
	c.SetMinX(-10)
	c.SetMaxX(10)
	c.SetMinZ(0)
	c.SetMaxZ(31)

	if !c.IsRegionContained(pos.RegionPos{X: -1, Z: 0}) {
		t.Error("region (-1,0) should be contained")
	}
	if c.IsRegionContained(pos.RegionPos{X: 1, Z: 0}) {
		t.Error("region (1,0) should not be contained")
	}
}

// TestCropMonotonicityRect checks §8 property 5: a block admitted by the
// exact XZ predicate must have its enclosing chunk and region also report
// contained, i.e. the coarse bounding-box checks never reject something
// the finer check accepts.
func TestCropMonotonicityRect(t *testing.T) {
	c := NewRectCrop()
	c.SetMinX(-40)
	c.SetMaxX(40)
	c.SetMinZ(-40)
	c.SetMaxZ(40)

	for x := -64; x <= 64; x += 3 {
		for z := -64; z <= 64; z += 5 {
			b := pos.BlockPos{X: x, Z: z}
			if !c.IsBlockContainedXZ(b) {
				continue
			}
			ch := b.Chunk()
			if !c.IsChunkContained(ch) {
				t.Fatalf("block %v admitted but chunk %v not contained", b, ch)
			}
			if !c.IsRegionContained(ch.Region()) {
				t.Fatalf("chunk %v admitted but region %v not contained", ch, ch.Region())
			}
		}
	}
}

func TestCropMonotonicityCircle(t *testing.T) {
	c := NewCircleCrop(pos.BlockPos{X: 5, Y: 0, Z: -3}, 50)

	for x := -80; x <= 80; x += 3 {
		for z := -80; z <= 80; z += 5 {
			b := pos.BlockPos{X: x, Z: z}
			if !c.IsBlockContainedXZ(b) {
				continue
			}
			ch := b.Chunk()
			if !c.IsChunkContained(ch) {
				t.Fatalf("block %v admitted but chunk %v not contained", b, ch)
			}
			if !c.IsRegionContained(ch.Region()) {
				t.Fatalf("chunk %v admitted but region %v not contained", ch, ch.Region())
			}
		}
	}
}

func TestCropCircular(t *testing.T) {
	c := NewCircleCrop(pos.BlockPos{X: 0, Y: 0, Z: 0}, 100)
	if !c.IsBlockContainedXZ(pos.BlockPos{X: 100, Y: 0, Z: 0}) {
		t.Error("block exactly at radius should be contained")
	}
	if c.IsBlockContainedXZ(pos.BlockPos{X: 101, Y: 0, Z: 0}) {
		t.Error("block just outside radius should not be contained")
	}
	if !c.IsChunkContained(pos.ChunkPos{X: 6, Z: 0}) {
		t.Error("chunk overlapping the disc should be contained")
	}
	if c.IsChunkContained(pos.ChunkPos{X: 100, Z: 100}) {
		t.Error("chunk far outside the disc should not be contained")
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{-10, 16, -1},
		{10, 16, 0},
		{-16, 16, -1},
		{-17, 16, -2},
		{16, 16, 1},
	}
	for _, c := range cases {
		if got := floorDiv(c.a, c.b); got != c.want {
			t.Errorf("floorDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

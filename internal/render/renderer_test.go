package render

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/mapcrafter-go/mapcrafter/internal/chunk"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
	"github.com/mapcrafter-go/mapcrafter/internal/tileset"
)

type fakeCache struct {
	chunks map[pos.ChunkPos]*chunk.ChunkData
}

func (f *fakeCache) GetChunk(_ context.Context, cp pos.ChunkPos) (*chunk.ChunkData, error) {
	cd, ok := f.chunks[cp]
	if !ok {
		return nil, &notFoundErr{cp}
	}
	return cd, nil
}

type notFoundErr struct{ cp pos.ChunkPos }

func (e *notFoundErr) Error() string { return "no such chunk" }

type solidImages struct{ c color.RGBA }

func (s solidImages) Image(string, map[string]string) (image.Image, bool) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, s.c)
	return img, true
}

func uniformChunk(cp pos.ChunkPos, name string) *chunk.ChunkData {
	sec := chunk.Section{
		Y:       0,
		Palette: []chunk.BlockState{{Name: name}},
	}
	return &chunk.ChunkData{Pos: cp, Sections: []chunk.Section{sec}}
}

func TestTopDownRenderTileFillsExpectedPixels(t *testing.T) {
	cp := pos.ChunkPos{X: 0, Z: 0}
	cache := &fakeCache{chunks: map[pos.ChunkPos]*chunk.ChunkData{
		cp: uniformChunk(cp, "minecraft:stone"),
	}}
	images := solidImages{c: color.RGBA{R: 100, G: 150, B: 200, A: 255}}

	r := NewTileRenderer(tileset.TopDown, nil, images, cache, nil, nil, 16, 1, nil)
	img, err := r.RenderTile(context.Background(), pos.TilePos{X: 0, Y: 0})
	if err != nil {
		t.Fatalf("RenderTile: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Fatalf("unexpected tile size %v", img.Bounds())
	}
	got := img.RGBAAt(0, 0)
	if got.R != 100 || got.G != 150 || got.B != 200 {
		t.Fatalf("pixel (0,0) = %v, want (100,150,200,_)", got)
	}
}

func TestTopDownRenderTileMissingChunkIsTransparent(t *testing.T) {
	cache := &fakeCache{chunks: map[pos.ChunkPos]*chunk.ChunkData{}}
	r := NewTileRenderer(tileset.TopDown, nil, solidImages{}, cache, nil, nil, 16, 1, nil)
	img, err := r.RenderTile(context.Background(), pos.TilePos{X: 0, Y: 0})
	if err != nil {
		t.Fatalf("RenderTile: %v", err)
	}
	if (img.RGBAAt(0, 0) != color.RGBA{}) {
		t.Fatalf("expected fully transparent pixel for a missing chunk, got %v", img.RGBAAt(0, 0))
	}
}

func TestConfigureShadowEdgesDefaults(t *testing.T) {
	r := NewTileRenderer(tileset.SideIso, nil, solidImages{}, &fakeCache{chunks: map[pos.ChunkPos]*chunk.ChunkData{}}, nil, nil, 16, 1, nil)
	r.ConfigureShadowEdges([5]int{0, 0, 0, 0, 0})
	sr := r.(*sideRenderer)
	if sr.shadowEdges != DefaultShadowEdges() {
		t.Fatalf("shadowEdges = %v, want defaults %v", sr.shadowEdges, DefaultShadowEdges())
	}
	r.ConfigureShadowEdges([5]int{0, 9, 0, 0, 0})
	if sr.shadowEdges[1] != 9 {
		t.Fatalf("explicit index 1 should override default, got %v", sr.shadowEdges)
	}
	if sr.shadowEdges[0] != 2 || sr.shadowEdges[2] != 2 {
		t.Fatalf("unset indices should keep defaults, got %v", sr.shadowEdges)
	}
}

package dispatch

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/mapcrafter-go/mapcrafter/internal/logging"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
	"github.com/mapcrafter-go/mapcrafter/internal/tileset"
)

// solidRenderer renders every leaf as a uniformly-colored tileWidth x
// tileWidth image, recording which leaves it was asked to render.
type solidRenderer struct {
	tileWidth int

	mu      sync.Mutex
	rendered []pos.TilePos
}

func (r *solidRenderer) RenderTile(ctx context.Context, leaf pos.TilePos) (*image.RGBA, error) {
	r.mu.Lock()
	r.rendered = append(r.rendered, leaf)
	r.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, r.tileWidth, r.tileWidth))
	c := color.RGBA{R: uint8(leaf.X + 128), G: uint8(leaf.Y + 128), B: 200, A: 255}
	for y := 0; y < r.tileWidth; y++ {
		for x := 0; x < r.tileWidth; x++ {
			img.Set(x, y, c)
		}
	}
	return img, nil
}

func (r *solidRenderer) ConfigureShadowEdges(edges [5]int) {}

// TestDispatcherScenarioS5 exercises §8 scenario S5: four leaves
// {(0,0),(0,1),(1,0),(1,1)} render, and the root composite completes only
// once every leaf is done (§8 property 7).
func TestDispatcherScenarioS5(t *testing.T) {
	ts := tileset.New(tileset.TopDown, 1, logging.Nop())
	for _, p := range []tileset.TilePos{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}} {
		ts.AddRenderLeaf(p)
	}
	ts.Close()

	r := &solidRenderer{tileWidth: 16}
	d := New(r, ts, 4, logging.Nop())

	root, err := d.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if root == nil {
		t.Fatalf("expected a root composite image")
	}
	if got, want := root.Bounds().Dx(), 16; got != want {
		t.Fatalf("root width = %d, want %d", got, want)
	}

	r.mu.Lock()
	n := len(r.rendered)
	r.mu.Unlock()
	if n != 4 {
		t.Fatalf("expected all 4 leaves rendered, got %d", n)
	}
}

// TestDispatcherPrecedence verifies §8 property 7 directly: a composite
// path is never enqueued until every required child it has is present in
// rendered_tiles.
func TestDispatcherPrecedence(t *testing.T) {
	ts := tileset.New(tileset.TopDown, 1, logging.Nop())
	for _, p := range []tileset.TilePos{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}} {
		ts.AddRenderLeaf(p)
	}
	ts.Close()

	r := &solidRenderer{tileWidth: 8}
	d := New(r, ts, 1, logging.Nop())

	var order []string
	_, err := d.Run(context.Background(), progressFunc(func(res Result, done, total int) {
		order = append(order, res.Work.Path.String())
	}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	leavesDone := make(map[string]bool)
	for _, key := range order {
		if key == tileset.RootPath().String() {
			for _, child := range tileset.RootPath().Children() {
				if ts.IsRequiredPath(child) && !leavesDone[child.String()] {
					t.Fatalf("root composited before required child %s finished", child.String())
				}
			}
		}
		leavesDone[key] = true
	}
}

type progressFunc func(r Result, done, total int)

func (f progressFunc) Progress(r Result, done, total int) { f(r, done, total) }

// TestDispatcherSingleLeaf checks the minimal case: one leaf still produces
// a root composite (rootDepth is always >= 1, so even a lone leaf has a
// parent), built from that single rendered child with its other three
// quadrants transparent.
func TestDispatcherSingleLeaf(t *testing.T) {
	ts := tileset.New(tileset.TopDown, 1, logging.Nop())
	ts.AddRenderLeaf(tileset.TilePos{X: 0, Y: 0})
	ts.Close()

	r := &solidRenderer{tileWidth: 4}
	d := New(r, ts, 2, logging.Nop())

	root, err := d.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if root == nil {
		t.Fatalf("expected a root composite even for a single leaf")
	}
	if got, want := root.Bounds().Dx(), 4; got != want {
		t.Fatalf("root width = %d, want %d", got, want)
	}
}

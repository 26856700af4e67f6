package worldcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mapcrafter-go/mapcrafter/internal/chunk"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

func TestGetChunkCachesResult(t *testing.T) {
	var loads int32
	c := New(4, func(ctx context.Context, cp pos.ChunkPos) (*chunk.ChunkData, error) {
		atomic.AddInt32(&loads, 1)
		return &chunk.ChunkData{Pos: cp}, nil
	}, nil)

	cp := pos.ChunkPos{X: 1, Z: 2}
	for i := 0; i < 5; i++ {
		if _, err := c.GetChunk(context.Background(), cp); err != nil {
			t.Fatalf("GetChunk: %v", err)
		}
	}
	if atomic.LoadInt32(&loads) != 1 {
		t.Fatalf("load called %d times, want 1", loads)
	}
}

func TestGetChunkSingleFlight(t *testing.T) {
	var loads int32
	release := make(chan struct{})
	c := New(4, func(ctx context.Context, cp pos.ChunkPos) (*chunk.ChunkData, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return &chunk.ChunkData{Pos: cp}, nil
	}, nil)

	cp := pos.ChunkPos{X: 0, Z: 0}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetChunk(context.Background(), cp); err != nil {
				t.Errorf("GetChunk: %v", err)
			}
		}()
	}
	close(release)
	wg.Wait()

	if atomic.LoadInt32(&loads) != 1 {
		t.Fatalf("concurrent callers triggered %d loads, want 1 (single-flight per chunk)", loads)
	}
}

func TestGetChunkFailureNotCached(t *testing.T) {
	var loads int32
	c := New(4, func(ctx context.Context, cp pos.ChunkPos) (*chunk.ChunkData, error) {
		n := atomic.AddInt32(&loads, 1)
		if n == 1 {
			return nil, errors.New("boom")
		}
		return &chunk.ChunkData{Pos: cp}, nil
	}, nil)

	cp := pos.ChunkPos{X: 3, Z: 3}
	if _, err := c.GetChunk(context.Background(), cp); err == nil {
		t.Fatal("expected first load to fail")
	}
	var lf *ChunkLoadFailedError
	if _, err := c.GetChunk(context.Background(), cp); err != nil {
		t.Fatalf("second load should succeed (failure not cached), got %v", err)
	} else if errors.As(err, &lf) {
		t.Fatalf("unexpected ChunkLoadFailedError on success")
	}
	if atomic.LoadInt32(&loads) != 2 {
		t.Fatalf("loads = %d, want 2 (retry after failure)", loads)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, func(ctx context.Context, cp pos.ChunkPos) (*chunk.ChunkData, error) {
		return &chunk.ChunkData{Pos: cp}, nil
	}, nil)

	for i := 0; i < 3; i++ {
		cp := pos.ChunkPos{X: i, Z: 0}
		if _, err := c.GetChunk(context.Background(), cp); err != nil {
			t.Fatalf("GetChunk(%v): %v", cp, err)
		}
	}
	if got := c.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2 (capacity enforced)", got)
	}
	// (0,0) should have been evicted as least recently used.
	if _, ok := c.slots[pos.ChunkPos{X: 0, Z: 0}]; ok {
		t.Fatalf("expected (0,0) to be evicted")
	}
}

func TestErrorWrapsUnderlying(t *testing.T) {
	want := fmt.Errorf("underlying")
	c := New(1, func(ctx context.Context, cp pos.ChunkPos) (*chunk.ChunkData, error) {
		return nil, want
	}, nil)
	_, err := c.GetChunk(context.Background(), pos.ChunkPos{})
	if !errors.Is(err, want) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

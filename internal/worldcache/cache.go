// Package worldcache implements the fixed-capacity, LRU-evicted chunk
// cache §4.8 describes: readers block on a per-slot lock while a chunk is
// loading (at most one concurrent load per chunk), and a failed load
// propagates to the caller without being cached. It is internally
// synchronized, so a single Cache may be shared freely across render
// workers (§5).
//
// The single-flight-per-key pattern (a map entry holding a "ready" channel
// other callers wait on, built on a plain sync.Mutex rather than an
// external singleflight package) follows the same shape the corpus's own
// concurrent map caches use (see other_examples' TileImageStore: an
// RWMutex-guarded map plus Get/Put), extended with the readers-block-on-miss
// behavior §4.8 requires.
package worldcache

import (
	"container/list"
	"context"
	"sync"

	"github.com/mapcrafter-go/mapcrafter/internal/chunk"
	"github.com/mapcrafter-go/mapcrafter/internal/logging"
	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

// Loader decodes one chunk on a cache miss; internal/world + internal/region
// + internal/chunk compose to implement it in a real deployment.
type Loader func(ctx context.Context, cp pos.ChunkPos) (*chunk.ChunkData, error)

type slot struct {
	cp    pos.ChunkPos
	data  *chunk.ChunkData
	err   error
	ready chan struct{}
	elem  *list.Element
}

// Cache is a fixed-capacity, LRU-evicted, read-through cache of decoded
// chunks keyed by ChunkPos.
type Cache struct {
	mu       sync.Mutex
	capacity int
	slots    map[pos.ChunkPos]*slot
	lru      *list.List // front = most recently used
	load     Loader
	log      logging.Logger
}

// New returns a Cache of the given capacity (must be >= 1) backed by load.
func New(capacity int, load Loader, log logging.Logger) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Cache{
		capacity: capacity,
		slots:    make(map[pos.ChunkPos]*slot),
		lru:      list.New(),
		load:     load,
		log:      log,
	}
}

// GetChunk returns the decoded chunk at cp, loading it on a miss. Multiple
// concurrent callers for the same cp share a single load; a load failure
// is returned to every waiter as *ChunkLoadFailedError and the slot is not
// retained, so the next call retries.
func (c *Cache) GetChunk(ctx context.Context, cp pos.ChunkPos) (*chunk.ChunkData, error) {
	c.mu.Lock()
	if s, ok := c.slots[cp]; ok {
		c.lru.MoveToFront(s.elem)
		c.mu.Unlock()
		return c.await(ctx, s)
	}

	s := &slot{cp: cp, ready: make(chan struct{})}
	s.elem = c.lru.PushFront(cp)
	c.slots[cp] = s
	c.mu.Unlock()

	data, err := c.load(ctx, cp)
	s.data, s.err = data, err
	close(s.ready)

	if err != nil {
		c.mu.Lock()
		// A slot that failed to load is dropped rather than cached (§4.8).
		if c.slots[cp] == s {
			delete(c.slots, cp)
			c.lru.Remove(s.elem)
		}
		c.mu.Unlock()
		return nil, &ChunkLoadFailedError{Pos: cp, Err: err}
	}

	c.mu.Lock()
	c.evictLocked()
	c.mu.Unlock()
	return data, nil
}

func (c *Cache) await(ctx context.Context, s *slot) (*chunk.ChunkData, error) {
	select {
	case <-s.ready:
		if s.err != nil {
			return nil, &ChunkLoadFailedError{Pos: s.cp, Err: s.err}
		}
		return s.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// evictLocked drops least-recently-used slots down to capacity. Called
// with c.mu held.
func (c *Cache) evictLocked() {
	for len(c.slots) > c.capacity {
		back := c.lru.Back()
		if back == nil {
			return
		}
		cp := back.Value.(pos.ChunkPos)
		c.lru.Remove(back)
		delete(c.slots, cp)
	}
}

// Len reports the number of slots currently held (loaded or loading).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

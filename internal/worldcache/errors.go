package worldcache

import (
	"fmt"

	"github.com/mapcrafter-go/mapcrafter/internal/pos"
)

// ChunkLoadFailedError wraps a Loader failure for a given chunk, the error
// GetChunk propagates to its caller per §4.8. The failing slot is not
// cached, so a subsequent GetChunk retries the load.
type ChunkLoadFailedError struct {
	Pos pos.ChunkPos
	Err error
}

func (e *ChunkLoadFailedError) Error() string {
	return fmt.Sprintf("worldcache: loading chunk %v failed: %v", e.Pos, e.Err)
}

func (e *ChunkLoadFailedError) Unwrap() error { return e.Err }

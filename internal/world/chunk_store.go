package world

import "sync"

// ChunkStore holds map chunks by coordinate. Safe for concurrent use.
type ChunkStore struct {
	chunks map[ChunkCoord]*MapChunk
	mu     sync.RWMutex
}

// NewChunkStore creates an empty chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[ChunkCoord]*MapChunk)}
}

// Get returns the chunk at coord, if present.
func (cs *ChunkStore) Get(coord ChunkCoord) (*MapChunk, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	c, ok := cs.chunks[coord]
	return c, ok
}

// PutIfAbsent stores chunk unless its coordinate is already taken, and returns
// whichever chunk ends up stored.
func (cs *ChunkStore) PutIfAbsent(chunk *MapChunk) *MapChunk {
	cs.mu.RLock()
	existing, ok := cs.chunks[chunk.Coord]
	cs.mu.RUnlock()
	if ok {
		return existing
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	// another goroutine may have stored it while we waited for the lock
	if existing, ok := cs.chunks[chunk.Coord]; ok {
		return existing
	}
	cs.chunks[chunk.Coord] = chunk
	return chunk
}

// PutAll replaces any chunks at the given coordinates.
func (cs *ChunkStore) PutAll(chunks []*MapChunk) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, c := range chunks {
		cs.chunks[c.Coord] = c
	}
}

// Len returns the number of stored chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// Coords returns the coordinates of all stored chunks, in no particular order.
func (cs *ChunkStore) Coords() []ChunkCoord {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]ChunkCoord, 0, len(cs.chunks))
	for c := range cs.chunks {
		out = append(out, c)
	}
	return out
}

package control

import (
	"context"
	"sync"

	"lumen-live/internal/models"
)

// VideoCache is the shared resource cache the control path reconciles on
// command success. Other observers of the same video read the merged value
// immediately; the server-side store is synchronized separately.
type VideoCache interface {
	Get(ctx context.Context, id string) (models.Video, bool, error)
	Put(ctx context.Context, video models.Video) error
	Ping(ctx context.Context) error
}

// MemoryCache is a process-local VideoCache for tests and single-process use.
type MemoryCache struct {
	mu     sync.RWMutex
	videos map[string]models.Video
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{videos: make(map[string]models.Video)}
}

// Get returns the cached video and whether it was present.
func (c *MemoryCache) Get(_ context.Context, id string) (models.Video, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	video, ok := c.videos[id]
	return video, ok, nil
}

// Put stores the video keyed by its id.
func (c *MemoryCache) Put(_ context.Context, video models.Video) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos[video.ID] = video
	return nil
}

// Ping always succeeds for the in-memory cache.
func (c *MemoryCache) Ping(context.Context) error {
	return nil
}

package thumbnail

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Cache maps a source document version to a published thumbnail reference.
// A miss means the thumbnail has to be located or generated.
type Cache interface {
	Get(ctx context.Context, key string) (ref string, ok bool, err error)
	Set(ctx context.Context, key, ref string) error
	Delete(ctx context.Context, key string) error
}

// Key identifies one version of a source file: a changed modification time
// yields a new key and therefore a fresh thumbnail.
func Key(sourcePath string, modTime time.Time) string {
	return sourcePath + "@" + strconv.FormatInt(modTime.UnixNano(), 10)
}

// MemoryCache is a process-local Cache without expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.entries[key]
	return ref, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key, ref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ref
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

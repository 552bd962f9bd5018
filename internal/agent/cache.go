package agent

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chatsim-dev/chatsim/internal/errors"
)

// Registry serves agents from a base directory with an mtime-based cache.
type Registry struct {
	baseDir string

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	agent   *Agent
	modTime time.Time
}

// NewRegistry creates a registry over baseDir.
func NewRegistry(baseDir string) *Registry {
	return &Registry{
		baseDir: baseDir,
		cache:   make(map[string]cacheEntry),
	}
}

// Get returns an agent by name, re-reading the definition only when its
// file has changed on disk.
func (r *Registry) Get(name string) (*Agent, error) {
	path := filepath.Join(r.baseDir, name+".md")
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.DefNotFound(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.cache[name]; ok && entry.modTime.Equal(info.ModTime()) {
		return entry.agent, nil
	}

	a, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	r.cache[name] = cacheEntry{agent: a, modTime: info.ModTime()}
	return a, nil
}

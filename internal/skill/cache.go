package skill

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chatsim-dev/chatsim/internal/errors"
)

// Registry serves skills from a base directory with an mtime-based cache,
// so long-running commands do not re-read unchanged definitions.
type Registry struct {
	baseDir string

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	skill   *Skill
	modTime time.Time
}

// NewRegistry creates a registry over baseDir.
func NewRegistry(baseDir string) *Registry {
	return &Registry{
		baseDir: baseDir,
		cache:   make(map[string]cacheEntry),
	}
}

// Get returns a skill by name, re-reading the definition only when its
// SKILL.md has changed on disk.
func (r *Registry) Get(name string) (*Skill, error) {
	dir := filepath.Join(r.baseDir, name)
	info, err := os.Stat(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, errors.DefNotFound(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.cache[name]; ok && entry.modTime.Equal(info.ModTime()) {
		return entry.skill, nil
	}

	s, err := LoadFromDir(dir)
	if err != nil {
		return nil, err
	}
	r.cache[name] = cacheEntry{skill: s, modTime: info.ModTime()}
	return s, nil
}

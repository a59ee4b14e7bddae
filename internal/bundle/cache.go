// ABOUTME: Resident cache of parsed bundle directories
// ABOUTME: Keeps up to four archive indexes keyed case-insensitively by file name
package bundle

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DirCache resolves archive file names to parsed directory indexes. It holds a
// fixed number of slots and never evicts.
type DirCache struct {
	dir    string
	slots  [MaxCachedArchives]*Index
	mu     sync.Mutex
	logger *slog.Logger
}

// NewDirCache creates a cache that resolves archive names inside dir
func NewDirCache(dir string, logger *slog.Logger) *DirCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirCache{
		dir:    dir,
		logger: logger,
	}
}

// Resolve returns the index for fileName, parsing the archive on first use
func (c *DirCache) Resolve(fileName string) (*Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	free := -1
	for i, idx := range c.slots {
		if idx == nil {
			if free == -1 {
				free = i
			}
			continue
		}
		if strings.EqualFold(idx.fileName, fileName) {
			return idx, nil
		}
	}

	path, err := findFile(c.dir, fileName)
	if err != nil {
		return nil, err
	}

	if free == -1 {
		return nil, fmt.Errorf("%w: %s", ErrCacheFull, fileName)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle %s: %w", fileName, err)
	}
	defer f.Close()

	idx, err := ReadIndex(f, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bundle %s: %w", fileName, err)
	}
	idx.path = path

	c.slots[free] = idx
	c.logger.Debug("Bundle directory cached",
		"file", fileName,
		"slot", free,
		"entries", len(idx.entries),
		"compressed", idx.compressed)

	return idx, nil
}

// Resident returns the number of occupied slots
func (c *DirCache) Resident() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, idx := range c.slots {
		if idx != nil {
			n++
		}
	}
	return n
}

// Close frees every slot. Indexes hold no open files; archive handles
// opened from them are closed by their owners.
func (c *DirCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.slots {
		c.slots[i] = nil
	}
}

// findFile locates fileName in dir, falling back to a case-insensitive match
func findFile(dir, fileName string) (string, error) {
	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, fileName)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), fileName) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, fileName)
}

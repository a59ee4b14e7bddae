// ABOUTME: Resource stores for sounds that live outside bundles
// ABOUTME: In-memory map store and a directory store keyed by sound id
package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ResourceStore supplies the raw bytes of inline sound resources
type ResourceStore interface {
	Resource(soundID int) ([]byte, error)
}

// MapStore is an in-memory ResourceStore
type MapStore struct {
	mu        sync.RWMutex
	resources map[int][]byte
}

// NewMapStore creates an empty store
func NewMapStore() *MapStore {
	return &MapStore{resources: make(map[int][]byte)}
}

// Put stores data under soundID
func (s *MapStore) Put(soundID int, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[soundID] = data
}

// Resource returns the bytes stored under soundID
func (s *MapStore) Resource(soundID int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.resources[soundID]
	if !ok {
		return nil, fmt.Errorf("%w: resource %d", ErrNotFound, soundID)
	}
	return data, nil
}

// DirStore reads inline resources from files named "<id>.<ext>" in a directory
type DirStore struct {
	Dir string
}

// Resource returns the contents of the first file matching soundID
func (s DirStore) Resource(soundID int) ([]byte, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, fmt.Sprintf("%d.*", soundID)))
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("%w: resource %d in %s", ErrNotFound, soundID, s.Dir)
	}
	sort.Strings(matches)
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read resource %d: %w", soundID, err)
	}
	return data, nil
}

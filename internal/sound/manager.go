// ABOUTME: Sound resource manager owning the descriptor pool
// ABOUTME: Opens, clones and closes sounds from the resource store or bundle archives
package sound

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Sendspin/digimuse/internal/bundle"
)

// Manager owns a fixed pool of sound descriptors
type Manager struct {
	mu     sync.Mutex
	sounds [MaxSounds]Descriptor
	cache  *bundle.DirCache
	store  ResourceStore
	policy *TitlePolicy
	logger *slog.Logger
}

// NewManager creates a manager. cache and policy may be nil when only
// inline resources are played; store may be nil when only bundles are.
func NewManager(cache *bundle.DirCache, store ResourceStore, policy *TitlePolicy, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		cache:  cache,
		store:  store,
		policy: policy,
		logger: logger.With("component", "sound"),
	}
	for i := range m.sounds {
		m.sounds[i].slot = i
	}
	return m
}

// Policy returns the title policy
func (m *Manager) Policy() *TitlePolicy {
	return m.policy
}

// InUse returns the number of allocated descriptors
func (m *Manager) InUse() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for i := range m.sounds {
		if m.sounds[i].inUse {
			n++
		}
	}
	return n
}

func (m *Manager) allocSlot() (*Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.sounds {
		if !m.sounds[i].inUse {
			d := &m.sounds[i]
			*d = Descriptor{slot: i, inUse: true}
			return d, nil
		}
	}
	return nil, ErrPoolExhausted
}

// Open allocates a descriptor and parses the sound header. disk -1 means
// the current disk. Any failure releases the slot.
func (m *Manager) Open(soundID int, name string, kind Kind, group VolGroup, disk int) (*Descriptor, error) {
	d, err := m.allocSlot()
	if err != nil {
		m.logger.Error("Cannot open sound", "sound_id", soundID, "name", name, "error", err)
		return nil, err
	}

	d.ID = soundID
	d.Name = name
	d.Kind = kind
	d.VolGroup = group
	d.Disk = disk

	if err := m.load(d, disk); err != nil {
		m.Close(d)
		return nil, err
	}

	m.logger.Debug("Sound opened",
		"sound_id", soundID,
		"name", name,
		"kind", kind,
		"bits", d.Bits,
		"freq", d.Freq,
		"channels", d.Channels,
		"regions", len(d.Regions),
		"jumps", len(d.Jumps))
	return d, nil
}

func notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, bundle.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func (m *Manager) load(d *Descriptor, disk int) error {
	switch d.Kind {
	case KindInlineResource:
		if m.store == nil {
			return fmt.Errorf("%w: no resource store for sound %d", ErrNotFound, d.ID)
		}
		data, err := m.store.Resource(d.ID)
		if err != nil {
			return notFound(err)
		}
		if len(data) == 0 {
			return fmt.Errorf("%w: empty resource %d", ErrNotFound, d.ID)
		}
		d.resource = data
		return parseHeader(d, data)

	case KindBundle:
		return m.loadBundle(d, disk)

	default:
		return fmt.Errorf("unknown source kind %d for sound %d", d.Kind, d.ID)
	}
}

func (m *Manager) loadBundle(d *Descriptor, disk int) error {
	if m.policy == nil || m.cache == nil {
		return fmt.Errorf("%w: no bundle directory configured for sound %d", ErrNotFound, d.ID)
	}

	d.Disk = m.policy.ResolveDisk(disk)
	archiveName, err := m.policy.BundleName(d.VolGroup, d.Disk)
	if err != nil {
		return err
	}

	a, err := bundle.Open(m.cache, archiveName)
	if err != nil {
		return notFound(err)
	}
	d.archive = a
	d.headerOutside = m.policy.HeaderOutside()

	if a.Compressed() {
		d.compressed = true
		r, e, err := a.OpenFile(d.Name + ".map")
		if err != nil {
			return notFound(err)
		}
		data := make([]byte, e.Size)
		if _, err := io.ReadFull(r, data); err != nil {
			return fmt.Errorf("failed to read %s.map: %w", d.Name, err)
		}
		return parseRMAP(d, data, m.logger)
	}

	var data []byte
	if d.Name == "" {
		data, err = a.DecompressByIndex(d.ID, 0, bundle.BlockSize, 0, d.headerOutside)
	} else {
		data, err = a.DecompressByName(d.Name, 0, bundle.BlockSize, d.headerOutside)
	}
	if err != nil {
		return notFound(err)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: sound %d %q decoded to zero bytes", ErrNotFound, d.ID, d.Name)
	}
	return parseHeader(d, data)
}

// Close releases any external stream and the archive handle and returns
// the slot to the pool
func (m *Manager) Close(d *Descriptor) {
	if d == nil {
		return
	}
	m.closeStream(d)
	if d.archive != nil {
		if err := d.archive.Close(); err != nil {
			m.logger.Warn("Failed to close bundle handle", "sound_id", d.ID, "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	*d = Descriptor{slot: d.slot}
}

// CloseAll releases every open descriptor and empties the bundle cache
func (m *Manager) CloseAll() {
	for i := range m.sounds {
		if m.sounds[i].inUse {
			m.Close(&m.sounds[i])
		}
	}
	if m.cache != nil {
		m.cache.Close()
	}
}

// Clone opens an independent descriptor for the same sound, trying the
// original disk, then disk 1, then disk 2
func (m *Manager) Clone(d *Descriptor) (*Descriptor, error) {
	if d == nil || !d.inUse {
		return nil, fmt.Errorf("%w: clone of a closed descriptor", ErrNotFound)
	}

	var err error
	for _, disk := range []int{d.Disk, 1, 2} {
		var c *Descriptor
		c, err = m.Open(d.ID, d.Name, d.Kind, d.VolGroup, disk)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, err
}

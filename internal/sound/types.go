// ABOUTME: Sound descriptor types and package errors
// ABOUTME: Defines regions, jumps, syncs, markers and the descriptor pool entry
package sound

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sendspin/digimuse/internal/bundle"
	"github.com/Sendspin/digimuse/pkg/audio/decode"
)

// MaxSounds is the capacity of the descriptor pool
const MaxSounds = 16

var (
	// ErrNotFound is returned when a sound cannot be located or yields no data
	ErrNotFound = errors.New("sound not found")

	// ErrPoolExhausted is returned when every descriptor slot is in use
	ErrPoolExhausted = errors.New("sound descriptor pool exhausted")

	// ErrUnknownChunk is returned for an unrecognized container tag
	ErrUnknownChunk = errors.New("unknown chunk")

	// ErrTruncated is returned when a container ends inside a chunk
	ErrTruncated = errors.New("truncated sound header")

	// ErrInvalidVOCCode is returned for an unknown VOC block code after the retry
	ErrInvalidVOCCode = errors.New("invalid VOC block code")

	// ErrUnsupportedVersion is returned for RMAP tables other than version 3
	ErrUnsupportedVersion = errors.New("unsupported RMAP version")

	// ErrInvalidGroup is returned when a volume group cannot be served by the source kind
	ErrInvalidGroup = errors.New("invalid volume group for source")
)

// Kind tells where a sound's bytes live
type Kind int

const (
	// KindInlineResource sounds come whole from the resource store
	KindInlineResource Kind = 1
	// KindBundle sounds are sub-resources of a bundle archive
	KindBundle Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindInlineResource:
		return "resource"
	case KindBundle:
		return "bundle"
	default:
		return "unknown"
	}
}

// VolGroup is the mixer volume group of a sound
type VolGroup int

const (
	GroupVoice VolGroup = 1
	GroupSfx   VolGroup = 2
	GroupMusic VolGroup = 3
)

// ParseKind parses a Kind name as printed by String
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "resource":
		return KindInlineResource, nil
	case "bundle":
		return KindBundle, nil
	default:
		return 0, fmt.Errorf("unknown source kind %q", name)
	}
}

// ParseVolGroup parses a VolGroup name as printed by String
func ParseVolGroup(name string) (VolGroup, error) {
	switch strings.ToLower(name) {
	case "voice":
		return GroupVoice, nil
	case "sfx":
		return GroupSfx, nil
	case "music":
		return GroupMusic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGroup, name)
	}
}

func (g VolGroup) String() string {
	switch g {
	case GroupVoice:
		return "voice"
	case GroupSfx:
		return "sfx"
	case GroupMusic:
		return "music"
	default:
		return "unknown"
	}
}

// Region is an independently playable byte range of decoded data
type Region struct {
	Offset int
	Length int
}

// Jump continues playback at Dest when the region at Offset ends with a matching hook
type Jump struct {
	Offset    int
	Dest      int
	HookID    int
	FadeDelay int // milliseconds
}

// Sync is a raw lip sync table
type Sync struct {
	Data []byte
}

// Marker is a named position inside the sound
type Marker struct {
	Pos  int
	Text string
}

// Descriptor is one entry of the sound pool. The region, jump, sync and
// marker tables are immutable once Open returns.
type Descriptor struct {
	ID       int
	Name     string
	Kind     Kind
	VolGroup VolGroup
	Disk     int

	Bits     int
	Channels int
	Freq     int

	Regions []Region
	Jumps   []Jump
	Syncs   []Sync
	Markers []Marker

	OffsetData int

	slot          int
	inUse         bool
	endFlag       bool
	compressed    bool
	headerOutside bool

	resource []byte
	archive  *bundle.Archive

	stream     decode.Stream
	streamName string
}

// Compressed reports whether region data lives in external codec side files
func (d *Descriptor) Compressed() bool {
	return d.compressed
}

// InUse reports whether the descriptor is bound to an open sound
func (d *Descriptor) InUse() bool {
	return d.inUse
}

// IsEndOfRegion reports whether the last fetch reached the end of its region
func (d *Descriptor) IsEndOfRegion() bool {
	return d.endFlag
}

// NumRegions returns the region count
func (d *Descriptor) NumRegions() int {
	return len(d.Regions)
}

// RegionOffset returns the offset of region, or 0 when out of range
func (d *Descriptor) RegionOffset(region int) int {
	if region < 0 || region >= len(d.Regions) {
		return 0
	}
	return d.Regions[region].Offset
}

// JumpIDByRegionAndHook returns the jump leaving region with hookID, or -1
func (d *Descriptor) JumpIDByRegionAndHook(region, hookID int) int {
	if region < 0 || region >= len(d.Regions) {
		return -1
	}
	offset := d.Regions[region].Offset
	for i, j := range d.Jumps {
		if j.Offset == offset && j.HookID == hookID {
			return i
		}
	}
	return -1
}

// RegionIDByJump returns the region starting at the jump destination, or -1
func (d *Descriptor) RegionIDByJump(jumpID int) int {
	if jumpID < 0 || jumpID >= len(d.Jumps) {
		return -1
	}
	dest := d.Jumps[jumpID].Dest
	for i, r := range d.Regions {
		if r.Offset == dest {
			return i
		}
	}
	return -1
}

// JumpHookID returns the hook of a jump, or -1
func (d *Descriptor) JumpHookID(jumpID int) int {
	if jumpID < 0 || jumpID >= len(d.Jumps) {
		return -1
	}
	return d.Jumps[jumpID].HookID
}

// JumpFade returns the fade delay of a jump in milliseconds, or -1
func (d *Descriptor) JumpFade(jumpID int) int {
	if jumpID < 0 || jumpID >= len(d.Jumps) {
		return -1
	}
	return d.Jumps[jumpID].FadeDelay
}

// TriggerMatches reports whether a marker named text sits at the start of region
func (d *Descriptor) TriggerMatches(region int, text string) bool {
	if region < 0 || region >= len(d.Regions) {
		return false
	}
	offset := d.Regions[region].Offset
	for _, m := range d.Markers {
		if m.Pos == offset && strings.EqualFold(m.Text, text) {
			return true
		}
	}
	return false
}

// Sync returns the raw sync table syncID, or nil
func (d *Descriptor) Sync(syncID int) []byte {
	if syncID < 0 || syncID >= len(d.Syncs) {
		return nil
	}
	return d.Syncs[syncID].Data
}

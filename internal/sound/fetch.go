// ABOUTME: Region data fetching for open sounds
// ABOUTME: Reads region slices from bundles, inline resources or external codec side files
package sound

import (
	"fmt"
	"io"
	"strings"

	"github.com/Sendspin/digimuse/pkg/audio/decode"
)

// sideFileExts lists external codec extensions in lookup order
var sideFileExts = []string{".fla", ".ogg", ".mp3"}

// FetchRegion reads up to size bytes at offset inside region. A request
// running past the region end is clipped and sets the end-of-region flag.
func (m *Manager) FetchRegion(d *Descriptor, region, offset, size int) ([]byte, error) {
	if region < 0 || region >= len(d.Regions) {
		return nil, fmt.Errorf("region %d out of range for sound %d (%d regions)", region, d.ID, len(d.Regions))
	}
	reg := d.Regions[region]

	if offset+size > reg.Length {
		size = reg.Length - offset
		d.endFlag = true
	} else {
		d.endFlag = false
	}
	if size <= 0 {
		return nil, nil
	}

	switch {
	case d.compressed:
		return m.fetchExternal(d, region, offset, size)

	case d.Kind == KindBundle:
		return d.archive.DecompressByCurIndex(reg.Offset-d.OffsetData+offset, size, d.OffsetData, d.headerOutside)

	default:
		start := reg.Offset + offset
		if start < 0 || start >= len(d.resource) {
			return nil, nil
		}
		end := start + size
		if end > len(d.resource) {
			end = len(d.resource)
		}
		out := make([]byte, end-start)
		copy(out, d.resource[start:end])
		return out, nil
	}
}

// fetchExternal reads decoded PCM from the side file of region. The stream
// is opened once per side file and closed when it runs dry or the region ends.
func (m *Manager) fetchExternal(d *Descriptor, region, offset, size int) ([]byte, error) {
	base := fmt.Sprintf("%s_reg%03d", d.Name, region)

	if !strings.EqualFold(base, d.streamName) {
		m.closeStream(d)
		d.streamName = base
		d.stream = m.openSideFile(d, base)
		if d.stream != nil && offset > 0 {
			if _, err := io.CopyN(io.Discard, d.stream, int64(offset)); err != nil {
				m.logger.Warn("Side file shorter than region offset", "file", base, "offset", offset, "error", err)
			}
		}
	}

	if d.stream == nil {
		if d.endFlag {
			d.streamName = ""
		}
		return make([]byte, size), nil
	}

	buf := make([]byte, size)
	n, err := io.ReadFull(d.stream, buf)
	eof := false
	switch err {
	case nil:
	case io.EOF, io.ErrUnexpectedEOF:
		eof = true
	default:
		m.logger.Error("External codec read failed", "file", base, "error", err)
		eof = true
	}
	buf = buf[:n&^1]

	if eof || d.endFlag {
		m.closeStream(d)
		d.endFlag = true
	}
	return buf, nil
}

func (m *Manager) openSideFile(d *Descriptor, base string) decode.Stream {
	for _, ext := range sideFileExts {
		r, _, err := d.archive.OpenFile(base + ext)
		if err != nil {
			continue
		}
		s, err := decode.OpenStream(base+ext, r, d.Channels)
		if err != nil {
			m.logger.Error("Failed to open external codec stream", "file", base+ext, "error", err)
			return nil
		}
		return s
	}
	m.logger.Error("No external codec side file for region, playing silence",
		"sound_id", d.ID,
		"file", base)
	return nil
}

func (m *Manager) closeStream(d *Descriptor) {
	if d.stream != nil {
		if err := d.stream.Close(); err != nil {
			m.logger.Debug("External stream close failed", "file", d.streamName, "error", err)
		}
	}
	d.stream = nil
	d.streamName = ""
}

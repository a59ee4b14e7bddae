// ABOUTME: Sound header parsers for iMUS, Creative Voice and RMAP tables
// ABOUTME: Fills descriptor format and region, jump, sync and marker tables
package sound

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"
)

const (
	tagIMUS = "iMUS"
	tagCrea = "Crea"
	tagRMAP = "RMAP"
)

// chunkReader walks big-endian chunk data and latches the first error
type chunkReader struct {
	data []byte
	pos  int
	err  error
}

func (r *chunkReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w: need %d bytes at %d of %d", ErrTruncated, n, r.pos, len(r.data))
		return false
	}
	return true
}

func (r *chunkReader) tag() string {
	if !r.need(4) {
		return ""
	}
	t := string(r.data[r.pos : r.pos+4])
	r.pos += 4
	return t
}

func (r *chunkReader) u32() int {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return int(int32(v))
}

func (r *chunkReader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// parseHeader dispatches on the container tag
func parseHeader(d *Descriptor, data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: %d header bytes", ErrTruncated, len(data))
	}
	switch string(data[:4]) {
	case tagIMUS:
		return parseIMUS(d, data)
	case tagCrea:
		return parseVOC(d, data)
	default:
		return fmt.Errorf("%w: container tag %q", ErrUnknownChunk, data[:4])
	}
}

// isExitText reports whether a TEXT payload names the exit marker
func isExitText(payload []byte) bool {
	if len(payload) < 4 {
		return false
	}
	return strings.EqualFold(cString(payload[4:]), "exit")
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// parseIMUS reads an iMUS container. A first pass counts table entries so
// the tables are allocated at their exact size.
func parseIMUS(d *Descriptor, data []byte) error {
	var numRegions, numJumps, numSyncs, numMarkers int

	r := &chunkReader{data: data, pos: 16}
	for done := false; !done; {
		at := r.pos
		tag := r.tag()
		switch tag {
		case "FRMT", "STOP":
			r.bytes(r.u32())
		case "TEXT":
			if isExitText(r.bytes(r.u32())) {
				numMarkers++
			}
		case "REGN":
			r.bytes(r.u32())
			numRegions++
		case "JUMP":
			r.bytes(r.u32())
			numJumps++
		case "SYNC":
			r.bytes(r.u32())
			numSyncs++
		case "DATA":
			done = true
		default:
			if r.err == nil {
				return fmt.Errorf("%w: %q at %d", ErrUnknownChunk, tag, at)
			}
		}
		if r.err != nil {
			return r.err
		}
	}

	d.Regions = make([]Region, 0, numRegions)
	d.Jumps = make([]Jump, 0, numJumps)
	d.Syncs = make([]Sync, 0, numSyncs)
	d.Markers = make([]Marker, 0, numMarkers)

	r = &chunkReader{data: data, pos: 16}
	for {
		tag := r.tag()
		if tag == "DATA" {
			r.u32()
			break
		}
		payload := &chunkReader{data: r.bytes(r.u32())}
		switch tag {
		case "FRMT":
			payload.pos = 8
			d.Bits = payload.u32()
			d.Freq = payload.u32()
			d.Channels = payload.u32()
		case "TEXT":
			if isExitText(payload.data) {
				d.Markers = append(d.Markers, Marker{
					Pos:  payload.u32(),
					Text: cString(payload.data[4:]),
				})
			}
		case "REGN":
			d.Regions = append(d.Regions, Region{
				Offset: payload.u32(),
				Length: payload.u32(),
			})
		case "JUMP":
			d.Jumps = append(d.Jumps, Jump{
				Offset:    payload.u32(),
				Dest:      payload.u32(),
				HookID:    payload.u32(),
				FadeDelay: payload.u32(),
			})
		case "SYNC":
			d.Syncs = append(d.Syncs, Sync{Data: bytes.Clone(payload.data)})
		}
		if r.err != nil {
			return r.err
		}
		if payload.err != nil {
			return fmt.Errorf("%s chunk: %w", tag, payload.err)
		}
	}
	if r.err != nil {
		return r.err
	}

	d.OffsetData = r.pos
	return nil
}

// vocSampleRate converts a Creative Voice time constant to a sample rate
func vocSampleRate(tc byte) int {
	switch tc {
	case 0xa5, 0xa6:
		return 11025
	case 0xd2, 0xd3:
		return 22050
	default:
		return 1000000 / (256 - int(tc))
	}
}

func validVOCCode(code byte) bool {
	return code == 0 || code == 1 || code == 6 || code == 7
}

// parseVOC reads a Creative Voice container. Code 6 and 7 blocks form the
// single loop jump such files carry.
func parseVOC(d *Descriptor, data []byte) error {
	if len(data) < 22 {
		return fmt.Errorf("%w: VOC header", ErrTruncated)
	}
	offset := int(binary.LittleEndian.Uint16(data[20:]))

	readBlock := func(at int) (uint32, error) {
		if at < 0 || at+4 > len(data) {
			return 0, fmt.Errorf("%w: VOC block at %d", ErrTruncated, at)
		}
		return binary.LittleEndian.Uint32(data[at:]), nil
	}

	d.Bits = 8
	d.Channels = 1
	d.Regions = d.Regions[:0]
	d.Jumps = d.Jumps[:0]

	var jump Jump
	for {
		block, err := readBlock(offset)
		if err != nil {
			return err
		}
		code := byte(block)
		if !validVOCCode(code) {
			// some assets store the block two bytes late
			offset += 2
			if block, err = readBlock(offset); err != nil {
				return err
			}
			code = byte(block)
			if !validVOCCode(code) {
				return fmt.Errorf("%w: %d at %d", ErrInvalidVOCCode, code, offset)
			}
		}
		offset += 4
		length := int(block >> 8)

		switch code {
		case 0:
			return nil
		case 1:
			if offset >= len(data) {
				return fmt.Errorf("%w: VOC sound block at %d", ErrTruncated, offset)
			}
			d.Freq = vocSampleRate(data[offset])
			offset += 2
			length -= 2
			d.Regions = append(d.Regions, Region{Offset: offset, Length: length})
		case 6:
			jump.Offset = offset
			jump.Dest = offset + 8
			jump.HookID = 0
			jump.FadeDelay = 0
		case 7:
			jump.Offset = offset - 4
			d.Jumps = append(d.Jumps, jump)
			d.Regions = append(d.Regions, Region{Offset: offset - 4, Length: 0})
		}
		offset += length
	}
}

// parseRMAP reads the side table of an externally compressed sound
func parseRMAP(d *Descriptor, data []byte, logger *slog.Logger) error {
	r := &chunkReader{data: data}
	if tag := r.tag(); tag != tagRMAP {
		if r.err != nil {
			return r.err
		}
		return fmt.Errorf("%w: map tag %q", ErrUnknownChunk, tag)
	}

	version := r.u32()
	if r.err != nil {
		return r.err
	}
	if version != 3 {
		if version == 2 {
			logger.Warn("Compressed bundle map has version 2, expected 3",
				"sound", d.Name)
		}
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	d.Bits = r.u32()
	d.Freq = r.u32()
	d.Channels = r.u32()
	numRegions := r.u32()
	numJumps := r.u32()
	numSyncs := r.u32()
	numMarkers := r.u32()
	if r.err != nil {
		return r.err
	}
	for _, n := range []int{numRegions, numJumps, numSyncs, numMarkers} {
		if n < 0 || n > len(data) {
			return fmt.Errorf("%w: table count %d", ErrTruncated, n)
		}
	}

	d.Regions = make([]Region, numRegions)
	for i := range d.Regions {
		d.Regions[i] = Region{Offset: r.u32(), Length: r.u32()}
	}
	d.Jumps = make([]Jump, numJumps)
	for i := range d.Jumps {
		d.Jumps[i] = Jump{Offset: r.u32(), Dest: r.u32(), HookID: r.u32(), FadeDelay: r.u32()}
	}
	d.Syncs = make([]Sync, numSyncs)
	for i := range d.Syncs {
		d.Syncs[i] = Sync{Data: bytes.Clone(r.bytes(r.u32()))}
	}
	d.Markers = make([]Marker, numMarkers)
	for i := range d.Markers {
		pos := r.u32()
		text := r.bytes(r.u32())
		d.Markers[i] = Marker{Pos: pos, Text: cString(text)}
	}
	if r.err != nil {
		return r.err
	}

	d.OffsetData = 0
	return nil
}

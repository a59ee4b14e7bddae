// ABOUTME: Test fixtures for sound containers and bundle archives
// ABOUTME: Builds iMUS, VOC, RMAP and bundle bytes in memory
package sound

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type chunk struct {
	tag     string
	payload []byte
}

func u32s(vals ...int) []byte {
	out := make([]byte, 0, len(vals)*4)
	for _, v := range vals {
		out = binary.BigEndian.AppendUint32(out, uint32(v))
	}
	return out
}

func textPayload(pos int, text string) []byte {
	return append(append(u32s(pos), text...), 0)
}

// buildIMUS lays out an iMUS header with the given chunks, a DATA chunk and data
func buildIMUS(data []byte, chunks ...chunk) []byte {
	var buf bytes.Buffer
	buf.WriteString("iMUS")
	buf.Write(u32s(0))
	buf.WriteString("MAP ")
	buf.Write(u32s(0))
	for _, c := range chunks {
		buf.WriteString(c.tag)
		buf.Write(u32s(len(c.payload)))
		buf.Write(c.payload)
	}
	buf.WriteString("DATA")
	buf.Write(u32s(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func imusHeaderSize(chunks ...chunk) int {
	n := 16 + 8
	for _, c := range chunks {
		n += 8 + len(c.payload)
	}
	return n
}

func frmt(bits, freq, channels int) chunk {
	return chunk{"FRMT", u32s(0, 0, bits, freq, channels)}
}

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

// vocBlock encodes a VOC block header with the code in the low byte
func vocBlock(code byte, length int) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(length)<<8|uint32(code))
}

// buildVOC lays out a Creative Voice file with one sound block
func buildVOC(tc byte, samples []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("Creative Voice File\x1a")
	buf.Write([]byte{0, 0})
	b := buf.Bytes()
	binary.LittleEndian.PutUint16(b[20:], 26)
	buf.Reset()
	buf.Write(b)
	buf.Write(make([]byte, 26-buf.Len()))
	buf.Write(vocBlock(1, len(samples)+2))
	buf.Write([]byte{tc, 0})
	buf.Write(samples)
	buf.Write(vocBlock(0, 0))
	return buf.Bytes()
}

type testEntry struct {
	name string
	data []byte
}

// buildBundle lays out a bundle archive with its directory at the end
func buildBundle(tag string, entries []testEntry) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 12))
	offsets := make([]int, len(entries))
	for i, e := range entries {
		offsets[i] = buf.Len()
		buf.Write(e.data)
	}

	dirOffset := buf.Len()
	for i, e := range entries {
		if tag == "LB23" {
			name := make([]byte, 24)
			copy(name, e.name)
			buf.Write(name)
		} else {
			base, ext, _ := strings.Cut(e.name, ".")
			b := make([]byte, 12)
			copy(b, base)
			copy(b[8:], ext)
			buf.Write(b)
		}
		buf.Write(u32s(offsets[i], len(e.data)))
	}

	out := buf.Bytes()
	copy(out[0:4], tag)
	binary.BigEndian.PutUint32(out[4:], uint32(dirOffset))
	binary.BigEndian.PutUint32(out[8:], uint32(len(entries)))
	return out
}

// buildComp wraps one raw block in a COMP table using the copy codec
func buildComp(block []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("COMP")
	buf.Write(u32s(1, 0, 0))
	buf.Write(u32s(32, len(block), 0, 0))
	buf.Write(block)
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

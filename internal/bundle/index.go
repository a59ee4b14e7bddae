// ABOUTME: Bundle directory parsing and case-insensitive lookup
// ABOUTME: Reads the big-endian directory table and builds a sorted name index
package bundle

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Index is the parsed directory of one bundle archive. It is read-only after
// parsing and shared by every handle opened on the same archive.
type Index struct {
	fileName   string
	path       string
	compressed bool
	entries    []Entry
	sorted     []lookupNode
}

// ReadIndex parses a bundle directory from r
func ReadIndex(r io.ReaderAt, fileName string) (*Index, error) {
	head := make([]byte, 12)
	if _, err := r.ReadAt(head, 0); err != nil {
		return nil, fmt.Errorf("failed to read bundle header: %w", err)
	}

	var tag [4]byte
	copy(tag[:], head[0:4])
	dirOffset := binary.BigEndian.Uint32(head[4:8])
	numFiles := binary.BigEndian.Uint32(head[8:12])

	idx := &Index{
		fileName:   fileName,
		compressed: tag == tagLB23,
		entries:    make([]Entry, numFiles),
	}

	br := bufio.NewReader(io.NewSectionReader(r, int64(dirOffset), 1<<31))
	nameLen := 12
	if idx.compressed {
		nameLen = 24
	}
	rec := make([]byte, nameLen+8)

	for i := range idx.entries {
		if _, err := io.ReadFull(br, rec); err != nil {
			return nil, fmt.Errorf("failed to read directory entry %d of %d: %w", i, numFiles, err)
		}

		var name string
		if idx.compressed {
			name = cString(rec[:24])
		} else {
			name = packedName(rec[:12])
		}

		idx.entries[i] = Entry{
			Name:   name,
			Offset: binary.BigEndian.Uint32(rec[nameLen:]),
			Size:   binary.BigEndian.Uint32(rec[nameLen+4:]),
		}
	}

	idx.sorted = make([]lookupNode, len(idx.entries))
	for i, e := range idx.entries {
		idx.sorted[i] = lookupNode{key: strings.ToLower(e.Name), index: i}
	}
	sort.SliceStable(idx.sorted, func(a, b int) bool {
		return idx.sorted[a].key < idx.sorted[b].key
	})

	return idx, nil
}

// Lookup finds an entry by name, ignoring case
func (idx *Index) Lookup(name string) (Entry, int, bool) {
	key := strings.ToLower(name)
	i := sort.Search(len(idx.sorted), func(i int) bool {
		return idx.sorted[i].key >= key
	})
	if i < len(idx.sorted) && idx.sorted[i].key == key {
		n := idx.sorted[i].index
		return idx.entries[n], n, true
	}
	return Entry{}, -1, false
}

// Entry returns the entry at declaration index i
func (idx *Index) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(idx.entries) {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// Entries returns the entries in declaration order
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Name returns the archive file name the index was resolved under
func (idx *Index) Name() string { return idx.fileName }

// Path returns the on-disk path of the archive
func (idx *Index) Path() string { return idx.path }

// Compressed reports whether the archive stores externally compressed sounds
func (idx *Index) Compressed() bool { return idx.compressed }

// Len returns the number of entries
func (idx *Index) Len() int { return len(idx.entries) }

// packedName joins an 8-byte base and a 4-byte extension, dropping NUL bytes
func packedName(b []byte) string {
	var sb strings.Builder
	for _, c := range b[:8] {
		if c != 0 {
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('.')
	for _, c := range b[8:12] {
		if c != 0 {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

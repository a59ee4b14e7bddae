// ABOUTME: Block decompressor for one open bundle archive
// ABOUTME: Loads a sub-resource block table and decodes 8 KiB blocks with a single-block memo
package bundle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/Sendspin/digimuse/pkg/audio/codec"
)

// DecodeFunc decodes one compressed block
type DecodeFunc func(codecID int, src []byte) ([]byte, error)

// Archive is an open handle on a bundle file. It owns its file and its
// decode state, so two handles on the same archive read independently.
// An Archive is not safe for concurrent use.
type Archive struct {
	index  *Index
	r      io.ReaderAt
	closer io.Closer
	logger *slog.Logger

	curSampleID     int
	compTableLoaded bool
	blocks          []compBlock
	input           []byte
	output          []byte
	outputSize      int
	lastBlock       int

	decode  DecodeFunc
	decodes int
}

// Open resolves fileName through the cache and opens a handle on it
func Open(cache *DirCache, fileName string) (*Archive, error) {
	idx, err := cache.Resolve(fileName)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(idx.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, fileName, err)
		}
		return nil, fmt.Errorf("failed to open bundle %s: %w", fileName, err)
	}

	a := NewArchive(idx, f, cache.logger)
	a.closer = f
	return a, nil
}

// NewArchive creates a handle reading sub-resources of idx from r
func NewArchive(idx *Index, r io.ReaderAt, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{
		index:       idx,
		r:           r,
		logger:      logger,
		curSampleID: -1,
		lastBlock:   -1,
		decode:      codec.Decompress,
	}
}

// Index returns the shared directory index
func (a *Archive) Index() *Index { return a.index }

// Compressed reports whether sounds in this archive are stored externally compressed
func (a *Archive) Compressed() bool { return a.index.compressed }

// Decodes returns the number of codec invocations made by this handle
func (a *Archive) Decodes() int { return a.decodes }

// Close releases the underlying file
func (a *Archive) Close() error {
	a.blocks = nil
	a.input = nil
	a.output = nil
	a.compTableLoaded = false
	a.lastBlock = -1
	a.curSampleID = -1
	if a.closer != nil {
		err := a.closer.Close()
		a.closer = nil
		return err
	}
	return nil
}

// OpenFile returns a reader over the raw bytes of a named entry
func (a *Archive) OpenFile(name string) (*io.SectionReader, Entry, error) {
	e, _, ok := a.index.Lookup(name)
	if !ok {
		return nil, Entry{}, fmt.Errorf("%w: %s in %s", ErrNotFound, name, a.index.fileName)
	}
	return io.NewSectionReader(a.r, int64(e.Offset), int64(e.Size)), e, nil
}

// loadCompTable reads the block table of sub-resource index
func (a *Archive) loadCompTable(index int) error {
	e, ok := a.index.Entry(index)
	if !ok {
		return fmt.Errorf("%w: entry %d in %s", ErrNotFound, index, a.index.fileName)
	}

	head := make([]byte, 16)
	if _, err := a.r.ReadAt(head, int64(e.Offset)); err != nil {
		return fmt.Errorf("failed to read block table of entry %d: %w", index, err)
	}

	var tag [4]byte
	copy(tag[:], head[:4])
	if tag != tagCOMP {
		return fmt.Errorf("%w: entry %d (%s:%d) has tag %q", ErrBadBlockTable, index, a.index.fileName, e.Offset, tag[:])
	}

	count := binary.BigEndian.Uint32(head[4:8])
	if count == 0 {
		return fmt.Errorf("%w: entry %d has no blocks", ErrBadBlockTable, index)
	}

	table := make([]byte, int(count)*16)
	if _, err := a.r.ReadAt(table, int64(e.Offset)+16); err != nil {
		return fmt.Errorf("failed to read %d block descriptors: %w", count, err)
	}

	a.blocks = make([]compBlock, count)
	maxSize := uint32(0)
	for i := range a.blocks {
		rec := table[i*16:]
		a.blocks[i] = compBlock{
			offset: binary.BigEndian.Uint32(rec[0:]),
			size:   binary.BigEndian.Uint32(rec[4:]),
			codec:  binary.BigEndian.Uint32(rec[8:]),
		}
		if a.blocks[i].size > maxSize {
			maxSize = a.blocks[i].size
		}
	}

	// one pad byte: the IMC reader may touch the byte after the block
	a.input = make([]byte, maxSize+1)
	a.output = make([]byte, BlockSize)
	a.lastBlock = -1

	a.logger.Debug("Block table loaded",
		"bundle", a.index.fileName,
		"entry", index,
		"blocks", count,
		"max_block", maxSize)

	return nil
}

// DecompressByIndex decodes size bytes starting at offset of sub-resource index.
// headerSize shifts the window past a container header; headerOutside selects
// how that header is accounted for in the first block.
func (a *Archive) DecompressByIndex(index, offset, size, headerSize int, headerOutside bool) ([]byte, error) {
	if a.curSampleID == -1 {
		a.curSampleID = index
	}
	if a.curSampleID != index {
		return nil, fmt.Errorf("%w: active %d, requested %d", ErrIndexMismatch, a.curSampleID, index)
	}

	if !a.compTableLoaded {
		if err := a.loadCompTable(index); err != nil {
			return nil, err
		}
		a.compTableLoaded = true
	}

	if size <= 0 {
		return []byte{}, nil
	}

	e, _ := a.index.Entry(index)

	firstBlock := (offset + headerSize) / BlockSize
	lastBlock := (offset + headerSize + size - 1) / BlockSize
	if lastBlock >= len(a.blocks) {
		lastBlock = len(a.blocks) - 1
	}
	if firstBlock > lastBlock {
		return []byte{}, nil
	}

	final := make([]byte, 0, BlockSize*(1+lastBlock-firstBlock))
	skip := (offset + headerSize) % BlockSize

	for i := firstBlock; i <= lastBlock; i++ {
		if a.lastBlock != i {
			if err := a.decodeBlock(e, i); err != nil {
				a.logger.Error("Block decode failed",
					"bundle", a.index.fileName,
					"entry", index,
					"block", i,
					"error", err)
				return final, nil
			}
		}

		outputSize := a.outputSize
		if headerOutside {
			outputSize -= skip
		} else if headerSize != 0 && skip >= headerSize {
			outputSize -= skip
		}

		if outputSize+skip > BlockSize {
			outputSize -= (outputSize + skip) - BlockSize
		}
		if outputSize > size {
			outputSize = size
		}
		if outputSize < 0 {
			outputSize = 0
		}
		if skip+outputSize > a.outputSize {
			outputSize = a.outputSize - skip
			if outputSize < 0 {
				outputSize = 0
			}
		}

		final = append(final, a.output[skip:skip+outputSize]...)

		size -= outputSize
		if size == 0 {
			break
		}
		skip = 0
	}

	return final, nil
}

// decodeBlock reads and decodes block i of entry e into the memo
func (a *Archive) decodeBlock(e Entry, i int) error {
	blk := a.blocks[i]
	in := a.input[:blk.size+1]
	in[blk.size] = 0

	if _, err := a.r.ReadAt(in[:blk.size], int64(e.Offset)+int64(blk.offset)); err != nil && err != io.EOF {
		a.lastBlock = -1
		return fmt.Errorf("failed to read block %d: %w", i, err)
	}

	a.decodes++
	out, err := a.decode(int(blk.codec), in)
	if err != nil {
		a.lastBlock = -1
		return err
	}
	if len(out) > BlockSize {
		a.lastBlock = -1
		return fmt.Errorf("block %d decoded to %d bytes", i, len(out))
	}

	// copy codec output keeps the pad byte; drop it
	if int(blk.codec) == codec.Copy && len(out) > int(blk.size) {
		out = out[:blk.size]
	}

	a.outputSize = copy(a.output, out)
	a.lastBlock = i
	return nil
}

// DecompressByCurIndex decodes from the sub-resource bound by an earlier call
func (a *Archive) DecompressByCurIndex(offset, size, headerSize int, headerOutside bool) ([]byte, error) {
	if a.curSampleID == -1 {
		return nil, fmt.Errorf("%w: no active sub-resource", ErrIndexMismatch)
	}
	return a.DecompressByIndex(a.curSampleID, offset, size, headerSize, headerOutside)
}

// DecompressByName looks name up case-insensitively and decodes from it
func (a *Archive) DecompressByName(name string, offset, size int, headerOutside bool) ([]byte, error) {
	_, index, ok := a.index.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, a.index.fileName)
	}
	return a.DecompressByIndex(index, offset, size, 0, headerOutside)
}

// CurrentIndex returns the bound sub-resource index, or -1
func (a *Archive) CurrentIndex() int { return a.curSampleID }

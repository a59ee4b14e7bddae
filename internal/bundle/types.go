// ABOUTME: Bundle archive type definitions
// ABOUTME: Defines directory entries, lookup nodes and package errors
package bundle

import "errors"

const (
	// MaxCachedArchives is the number of bundle directories kept resident
	MaxCachedArchives = 4

	// BlockSize is the decoded size of one compressed block
	BlockSize = 0x2000
)

var (
	// ErrNotFound is returned when an archive or an entry does not exist
	ErrNotFound = errors.New("not found")

	// ErrCacheFull is returned when a new archive is resolved with every slot in use
	ErrCacheFull = errors.New("bundle directory cache has no free slot")

	// ErrBadBlockTable is returned when a sub-resource does not start with a COMP table
	ErrBadBlockTable = errors.New("invalid compressed block table")

	// ErrIndexMismatch is returned when a handle is asked for a second sub-resource
	ErrIndexMismatch = errors.New("sub-resource index differs from the active one")
)

var (
	tagLB23 = [4]byte{'L', 'B', '2', '3'}
	tagCOMP = [4]byte{'C', 'O', 'M', 'P'}
)

// Entry is one file inside a bundle archive
type Entry struct {
	Name   string
	Offset uint32
	Size   uint32
}

// lookupNode maps a lower-cased name to its declaration index
type lookupNode struct {
	key   string
	index int
}

// compBlock describes one compressed block relative to the sub-resource start
type compBlock struct {
	offset uint32
	size   uint32
	codec  uint32
}

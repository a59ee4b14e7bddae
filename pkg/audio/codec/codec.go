// ABOUTME: Codec id dispatch for compressed bundle blocks
// ABOUTME: Maps block codec ids to decoder functions
package codec

import (
	"errors"
	"fmt"
)

// Block codec ids
const (
	Copy      = 0
	IMCMono   = 13
	IMCStereo = 15
)

// BlockSize is the decoded size of one bundle block
const BlockSize = 0x2000

// ErrUnsupportedCodec is returned for codec ids this package cannot decode
var ErrUnsupportedCodec = errors.New("unsupported codec")

// Decompress decodes one compressed block
func Decompress(codecID int, src []byte) ([]byte, error) {
	switch codecID {
	case Copy:
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	case IMCMono:
		return DecodeIMC(src, 1)
	case IMCStereo:
		return DecodeIMC(src, 2)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCodec, codecID)
	}
}

// Name returns a short human readable codec name
func Name(codecID int) string {
	switch codecID {
	case Copy:
		return "copy"
	case IMCMono:
		return "imc-mono"
	case IMCStereo:
		return "imc-stereo"
	default:
		return fmt.Sprintf("codec-%d", codecID)
	}
}

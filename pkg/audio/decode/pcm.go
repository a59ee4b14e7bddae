// ABOUTME: PCM fragment decoder
// ABOUTME: Decodes 8-bit, 16-bit (either byte order) and 24-bit PCM to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/digimuse/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	bitDepth     int
	unsigned     bool
	littleEndian bool
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 8 && format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24)", format.BitDepth)
	}

	return &PCMDecoder{
		bitDepth:     format.BitDepth,
		unsigned:     format.Unsigned,
		littleEndian: format.LittleEndian,
	}, nil
}

// Decode converts PCM bytes to int32 samples
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	return DecodePCM(data, d.bitDepth, d.unsigned, d.littleEndian), nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}

// DecodePCM converts raw PCM bytes to int32 samples in 24-bit range
func DecodePCM(data []byte, bitDepth int, unsigned, littleEndian bool) []int32 {
	switch bitDepth {
	case 8:
		samples := make([]int32, len(data))
		for i, b := range data {
			if unsigned {
				samples[i] = audio.SampleFromUint8(b)
			} else {
				samples[i] = audio.SampleFromInt8(int8(b))
			}
		}
		return samples
	case 24:
		numSamples := len(data) / 3
		samples := make([]int32, numSamples)
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			samples[i] = audio.SampleFrom24Bit(b)
		}
		return samples
	default:
		numSamples := len(data) / 2
		samples := make([]int32, numSamples)
		for i := 0; i < numSamples; i++ {
			var v uint16
			if littleEndian {
				v = binary.LittleEndian.Uint16(data[i*2:])
			} else {
				v = binary.BigEndian.Uint16(data[i*2:])
			}
			if unsigned {
				v ^= 0x8000
			}
			samples[i] = audio.SampleFromInt16(int16(v))
		}
		return samples
	}
}

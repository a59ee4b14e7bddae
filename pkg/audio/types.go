// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM fragment formats and sample conversions
package audio

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes a raw PCM fragment as queued to a mixer channel
type Format struct {
	Codec        string
	SampleRate   int
	Channels     int
	BitDepth     int  // 8 or 16
	Unsigned     bool // 8-bit game data is unsigned
	LittleEndian bool // 16-bit bundle data is big-endian unless flagged
}

// FrameSize returns the byte size of one interleaved frame
func (f Format) FrameSize() int {
	return f.Channels * (f.BitDepth / 8)
}

// Source is PCM pulled on demand, as 24-bit range samples interleaved
// by channel
type Source interface {
	Read(samples []int32) (int, error)
	SampleRate() int
	Channels() int
}

// Buffer represents decoded PCM audio
type Buffer struct {
	Samples []int32 // PCM samples in 24-bit range
	Format  Format
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromUint8 converts an unsigned 8-bit sample to the 24-bit range
func SampleFromUint8(sample byte) int32 {
	return (int32(sample) - 0x80) << 16
}

// SampleFromInt8 converts a signed 8-bit sample to the 24-bit range
func SampleFromInt8(sample int8) int32 {
	return int32(sample) << 16
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// Clamp24 clamps a mixed value to the 24-bit sample range
func Clamp24(v int64) int32 {
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}

// ClampInt16 clamps an accumulator to the signed 16-bit range
func ClampInt16(v int32) int16 {
	if v > 0x7fff {
		return 0x7fff
	}
	if v < -0x8000 {
		return -0x8000
	}
	return int16(v)
}

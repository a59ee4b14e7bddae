// ABOUTME: 12-bit packed sample expander
// ABOUTME: Unpacks 3 bytes into two little-endian 16-bit samples
package codec

import "encoding/binary"

// Expand12Bit unpacks 12-bit sample pairs into 16-bit little-endian PCM.
// Each 3 input bytes produce 4 output bytes; a trailing partial triple is dropped.
func Expand12Bit(src []byte) []byte {
	n := len(src) / 3
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v1 := int32(src[i*3])
		v2 := int32(src[i*3+1])
		v3 := int32(src[i*3+2])

		s1 := (((v2 & 0x0F) << 8) | v1) << 4
		s2 := (((v2 & 0xF0) << 4) | v3) << 4

		binary.LittleEndian.PutUint16(out[i*4:], uint16(int16(s1-0x8000)))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(int16(s2-0x8000)))
	}
	return out
}

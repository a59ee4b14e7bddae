// ABOUTME: IMC variable-width ADPCM decoder
// ABOUTME: Decodes IMA-derived packets whose bit width follows the step index
package codec

import (
	"encoding/binary"
	"fmt"
)

var imaStepTable = [89]int32{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17,
	19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118,
	130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796,
	876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358,
	5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

// imcIndexAdjust[bits-2][data] is the step index change after a packet.
var imcIndexAdjust = [6][]int8{
	{-1, 4, -1, 4},
	{-1, -1, 2, 8, -1, -1, 2, 8},
	{
		-1, -1, -1, -1, 1, 2, 4, 6,
		-1, -1, -1, -1, 1, 2, 4, 6,
	},
	{
		-1, -1, -1, -1, -1, -1, -1, -1,
		1, 2, 4, 6, 8, 12, 16, 32,
		-1, -1, -1, -1, -1, -1, -1, -1,
		1, 2, 4, 6, 8, 12, 16, 32,
	},
	{
		-1, -1, -1, -1, -1, -1, -1, -1,
		-1, -1, -1, -1, -1, -1, -1, -1,
		1, 2, 4, 6, 8, 10, 12, 14,
		16, 18, 20, 22, 24, 26, 28, 32,
		-1, -1, -1, -1, -1, -1, -1, -1,
		-1, -1, -1, -1, -1, -1, -1, -1,
		1, 2, 4, 6, 8, 10, 12, 14,
		16, 18, 20, 22, 24, 26, 28, 32,
	},
	{
		-1, -1, -1, -1, -1, -1, -1, -1,
		-1, -1, -1, -1, -1, -1, -1, -1,
		-1, -1, -1, -1, -1, -1, -1, -1,
		-1, -1, -1, -1, -1, -1, -1, -1,
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
		17, 18, 19, 20, 21, 22, 23, 24,
		25, 26, 27, 28, 29, 30, 31, 32,
	},
}

var (
	// imcWidth maps a step index to its width, 3 to 8. Packets use width-1 bits.
	imcWidth [89]byte

	// imcContrib holds the magnitude contributed by each data pattern, per step index.
	imcContrib [89 * 64]int32
)

func init() {
	for pos, step := range imaStepTable {
		width := 1
		v := step * 4 / 7 / 2
		for v != 0 {
			v /= 2
			width++
		}
		if width < 3 {
			width = 3
		}
		if width > 8 {
			width = 8
		}
		imcWidth[pos] = byte(width)
	}

	for n := int32(0); n < 64; n++ {
		for pos, step := range imaStepTable {
			count := int32(32)
			tv := step
			var sum int32
			for count != 0 {
				if count&n != 0 {
					sum += tv
				}
				count /= 2
				tv /= 2
			}
			imcContrib[pos*64+int(n)] = sum
		}
	}
}

// Width returns the table width for a step index (exported for tooling and tests)
func Width(pos int) int {
	return int(imcWidth[pos])
}

// DecodeIMC decodes one IMC block into BlockSize bytes of big-endian 16-bit PCM.
// The source may carry one trailing pad byte; reads past the end yield zero bits.
func DecodeIMC(src []byte, channels int) ([]byte, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("unsupported channel count for IMC: %d", channels)
	}
	if len(src) < 2 {
		return nil, fmt.Errorf("IMC block too short: %d bytes", len(src))
	}

	out := make([]byte, BlockSize)
	samplesLeft := BlockSize / 2

	var (
		tablePos   [2]int
		outputWord [2]int32
	)

	firstWord := int(binary.BigEndian.Uint16(src))
	p := 2
	dst := out
	if firstWord != 0 {
		if firstWord&1 != 0 || p+firstWord > len(src) || firstWord > BlockSize {
			return nil, fmt.Errorf("invalid IMC raw prefix: %d bytes", firstWord)
		}
		copy(out, src[p:p+firstWord])
		p += firstWord
		dst = out[firstWord:]
		samplesLeft -= firstWord / 2
	} else {
		for ch := 0; ch < channels; ch++ {
			if p+9 > len(src) {
				return nil, fmt.Errorf("IMC seed truncated")
			}
			tablePos[ch] = int(src[p])
			if tablePos[ch] > 88 {
				tablePos[ch] = 88
			}
			// 4 bytes of step entry are not used by the decoder
			outputWord[ch] = int32(binary.BigEndian.Uint32(src[p+5:]))
			p += 9
		}
	}
	data := src[p:]

	bitOffset := 0
	for ch := 0; ch < channels; ch++ {
		pos := tablePos[ch]
		word := outputWord[ch]
		destPos := ch * 2

		bound := samplesLeft
		if channels == 2 {
			if ch == 0 {
				bound = (samplesLeft + 1) / 2
			} else {
				bound = samplesLeft / 2
			}
		}

		for i := 0; i < bound; i++ {
			bits := uint(imcWidth[pos]) - 1

			packet := readPacket(data, bitOffset, bits)
			bitOffset += int(bits)

			signMask := uint16(1) << (bits - 1)
			value := packet & (signMask - 1)

			delta := (imaStepTable[pos] >> (bits - 1)) + imcContrib[pos*64+int(value<<(7-bits))]
			if packet&signMask != 0 {
				delta = -delta
			}

			word += delta
			if word > 0x7fff {
				word = 0x7fff
			} else if word < -0x8000 {
				word = -0x8000
			}
			if destPos+1 < len(dst) {
				binary.BigEndian.PutUint16(dst[destPos:], uint16(int16(word)))
			}
			destPos += channels * 2

			pos += int(imcIndexAdjust[bits-2][value])
			if pos < 0 {
				pos = 0
			} else if pos > 88 {
				pos = 88
			}
		}
	}

	return out, nil
}

// readPacket extracts the top `bits` bits of the big-endian word at bitOffset
func readPacket(data []byte, bitOffset int, bits uint) uint16 {
	idx := bitOffset >> 3
	var hi, lo uint16
	if idx < len(data) {
		hi = uint16(data[idx])
	}
	if idx+1 < len(data) {
		lo = uint16(data[idx+1])
	}
	word := (hi<<8 | lo) << uint(bitOffset&7)
	return word >> (16 - bits)
}

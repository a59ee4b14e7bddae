// ABOUTME: Block codec package for bundle audio
// ABOUTME: Provides the IMC variable-width ADPCM decoder and the 12-bit expander
// Package codec turns compressed bundle blocks into PCM.
//
// Every block in a bundle sub-resource carries a codec id. Decompress
// dispatches on it:
//
//	0  raw copy
//	13 IMC ADPCM, mono
//	15 IMC ADPCM, stereo
//
// IMC blocks always decode to 0x2000 bytes of big-endian 16-bit PCM.
// Expand12Bit is applied later, by the track scheduler, to sounds whose
// container declares 12-bit samples.
//
// The decode tables are built once in init and are read-only afterwards, so
// every function here is safe for concurrent use.
package codec

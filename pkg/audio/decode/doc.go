// ABOUTME: Audio decoder package for fragments and external codec streams
// ABOUTME: Provides PCM fragment decoding and FLAC, MP3 and Vorbis streams
// Package decode provides the decoders used around the engine.
//
// PCMDecoder converts raw fragments queued by the track scheduler (unsigned
// 8-bit, 16-bit big- or little-endian) into int32 samples in 24-bit range.
//
// FLAC, MP3 and Vorbis streams decode the per-region side files of
// externally compressed bundles, and whole files played as external tracks.
// Every stream yields interleaved 16-bit little-endian PCM with the channel
// count requested by the caller:
//
//	s, err := decode.OpenStream("music_reg001.fla", r, 2)
//	n, err := s.Read(buf)
package decode

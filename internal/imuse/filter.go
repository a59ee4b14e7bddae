// ABOUTME: Radio chatter filter for unsigned 8-bit speech
// ABOUTME: Subtracts a four-sample running mean and doubles the residue
package imuse

// radioChatter returns a band-limited copy of unsigned 8-bit samples. The
// last four samples are set to silence.
func radioChatter(in []byte) []byte {
	if len(in) <= 4 {
		return in
	}
	out := make([]byte, len(in))

	value := int(in[0]) - 0x80 + int(in[1]) - 0x80 + int(in[2]) - 0x80 + int(in[3]) - 0x80
	for i := 0; i < len(in)-4; i++ {
		t := int(in[i])
		v := t - value/4
		value = int(in[i+4]) - 0x80 + (value - t + 0x80)
		out[i] = byte(v*2 + 0x80)
	}
	for i := len(in) - 4; i < len(in); i++ {
		out[i] = 0x80
	}
	return out
}

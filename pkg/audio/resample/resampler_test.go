// ABOUTME: Tests for the streaming resampler
// ABOUTME: Checks rate ratios, interpolation and continuity across chunks
package resample

import "testing"

func TestResampleIdentity(t *testing.T) {
	r := New(22050, 22050, 1)
	in := []int32{10, 20, 30, 40}
	out := make([]int32, r.OutputSamplesNeeded(len(in)))

	n := r.Resample(in, out)
	if n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
	// first output is the carried frame (silence), then the input lags one frame
	expected := []int32{0, 10, 20, 30}
	for i, e := range expected {
		if out[i] != e {
			t.Errorf("sample %d: expected %d, got %d", i, e, out[i])
		}
	}
}

func TestResampleUpsampleDoubles(t *testing.T) {
	r := New(11025, 22050, 1)
	in := []int32{100, 200, 300, 400}
	out := make([]int32, r.OutputSamplesNeeded(len(in)))

	n := r.Resample(in, out)
	if n != 8 {
		t.Fatalf("expected 8 samples, got %d", n)
	}
	if out[2] != 100 || out[3] != 150 || out[4] != 200 {
		t.Errorf("expected interpolated ramp, got %v", out[:n])
	}
}

func TestResampleDownsampleHalves(t *testing.T) {
	r := New(44100, 22050, 2)
	in := make([]int32, 16)
	for i := range in {
		in[i] = int32(i)
	}
	out := make([]int32, r.OutputSamplesNeeded(len(in)))

	n := r.Resample(in, out)
	if n != 8 {
		t.Fatalf("expected 8 samples, got %d", n)
	}
}

func TestResampleContinuousAcrossChunks(t *testing.T) {
	whole := New(11025, 22050, 1)
	split := New(11025, 22050, 1)

	in := []int32{0, 1000, 2000, 3000, 4000, 5000}
	wholeOut := make([]int32, 32)
	wn := whole.Resample(in, wholeOut)

	var splitOut []int32
	buf := make([]int32, 32)
	for _, chunk := range [][]int32{in[:3], in[3:]} {
		n := split.Resample(chunk, buf)
		splitOut = append(splitOut, buf[:n]...)
	}

	if len(splitOut) != wn {
		t.Fatalf("expected %d samples, got %d", wn, len(splitOut))
	}
	for i := range splitOut {
		if splitOut[i] != wholeOut[i] {
			t.Errorf("sample %d: expected %d, got %d", i, wholeOut[i], splitOut[i])
		}
	}
}

func TestResampleEmptyInput(t *testing.T) {
	r := New(22050, 44100, 2)
	if n := r.Resample(nil, make([]int32, 4)); n != 0 {
		t.Errorf("expected 0 samples, got %d", n)
	}
}

func TestReset(t *testing.T) {
	r := New(11025, 22050, 1)
	r.Resample([]int32{500, 600, 700}, make([]int32, 16))
	r.Reset()

	out := make([]int32, 16)
	r.Resample([]int32{100}, out)
	if out[0] != 0 {
		t.Errorf("expected carried frame cleared to 0, got %d", out[0])
	}
}

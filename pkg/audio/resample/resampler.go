// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries the last input frame across calls so chunk edges stay continuous
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	channels   int
	ratio      float64
	position   float64
	lastSample []int32 // one sample per channel
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels < 1 {
		channels = 1
	}
	return &Resampler{
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		position:   0.0,
		lastSample: make([]int32, channels),
	}
}

// Channels returns the channel count
func (r *Resampler) Channels() int {
	return r.channels
}

// Resample converts input samples to output sample rate using linear interpolation.
// Interpolation runs over the previous call's last frame followed by input,
// so consecutive chunks join without a seam. output should hold at least
// OutputSamplesNeeded(len(input)) plus one frame; when it is too small the
// remaining input is dropped.
func (r *Resampler) Resample(input []int32, output []int32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		idx := int(r.position)
		if idx >= inputFrames {
			break
		}
		frac := r.position - float64(idx)

		for ch := 0; ch < r.channels; ch++ {
			var sample1 int32
			if idx == 0 {
				sample1 = r.lastSample[ch]
			} else {
				sample1 = input[(idx-1)*r.channels+ch]
			}
			sample2 := input[idx*r.channels+ch]
			output[outIdx*r.channels+ch] = int32(float64(sample1)*(1.0-frac) + float64(sample2)*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	r.position -= float64(inputFrames)
	if r.position < 0 {
		r.position = 0
	}
	copy(r.lastSample, input[(inputFrames-1)*r.channels:inputFrames*r.channels])

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 1
	return outputFrames * r.channels
}

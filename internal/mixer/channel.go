// ABOUTME: One mixer channel with its fragment queue and resampler
// ABOUTME: Converts queued fragments or pulled source audio to stereo at the mixer rate
package mixer

import (
	"fmt"
	"io"

	"github.com/Sendspin/digimuse/pkg/audio"
	"github.com/Sendspin/digimuse/pkg/audio/decode"
	"github.com/Sendspin/digimuse/pkg/audio/resample"
)

// Source is audio pulled by a channel instead of queued to it
type Source = audio.Source

const sourceChunkFrames = 1024

type channel struct {
	id       int
	format   audio.Format
	group    int
	volume   int
	balance  int
	finished bool
	drained  bool

	dec    decode.Decoder
	queue  [][]int32
	queued int

	source Source

	rs  *resample.Resampler
	out []int32
}

func newChannel(id int, format audio.Format, group, rate int) *channel {
	channels := format.Channels
	if channels < 1 {
		channels = 1
	}
	inRate := format.SampleRate
	if inRate <= 0 {
		inRate = rate
	}
	return &channel{
		id:     id,
		format: format,
		group:  group,
		volume: MaxVolume,
		rs:     resample.New(inRate, rate, channels),
	}
}

// endOfData reports whether no audio is waiting
func (c *channel) endOfData() bool {
	return len(c.queue) == 0 && len(c.out) == 0
}

// active reports whether the channel can still produce audio
func (c *channel) active() bool {
	if c.source != nil {
		return !c.drained || len(c.out) > 0
	}
	return !(c.finished && c.endOfData())
}

func (c *channel) push(data []byte) error {
	if c.dec == nil {
		return fmt.Errorf("channel %d has no decoder for %d-bit %s", c.id, c.format.BitDepth, c.format.Codec)
	}
	samples, err := c.dec.Decode(data)
	if err != nil {
		return fmt.Errorf("channel %d: %w", c.id, err)
	}
	if len(samples) == 0 {
		return nil
	}
	c.queue = append(c.queue, samples)
	c.queued += len(samples)
	return nil
}

// next returns the next block of input samples in the channel's native layout
func (c *channel) next() []int32 {
	if c.source != nil {
		if c.drained {
			return nil
		}
		buf := make([]int32, sourceChunkFrames*c.rs.Channels())
		n, err := c.source.Read(buf)
		if err != nil {
			if err != io.EOF {
				c.drained = true
				return nil
			}
			c.drained = true
		}
		return buf[:n]
	}

	if len(c.queue) == 0 {
		return nil
	}
	frag := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	c.queued -= len(frag)
	return frag
}

// fill returns up to frames stereo frames at the mixer rate
func (c *channel) fill(frames int) []int32 {
	want := frames * 2
	for len(c.out) < want {
		in := c.next()
		if in == nil {
			break
		}
		if len(in) == 0 {
			continue
		}
		buf := make([]int32, c.rs.OutputSamplesNeeded(len(in))+c.rs.Channels())
		n := c.rs.Resample(in, buf)
		c.out = appendStereo(c.out, buf[:n], c.rs.Channels())
	}

	take := want
	if take > len(c.out) {
		take = len(c.out)
	}
	res := make([]int32, take)
	copy(res, c.out[:take])
	c.out = append(c.out[:0], c.out[take:]...)
	return res
}

// appendStereo appends interleaved samples of n channels as stereo
func appendStereo(dst, src []int32, n int) []int32 {
	switch n {
	case 1:
		for _, s := range src {
			dst = append(dst, s, s)
		}
	case 2:
		dst = append(dst, src...)
	default:
		for i := 0; i+n <= len(src); i += n {
			dst = append(dst, src[i], src[i+1])
		}
	}
	return dst
}

// gains returns the left and right gain numerators over MaxVolume*MaxVolume
func (c *channel) gains(groupVolume int) (int64, int64) {
	left := int64(c.volume) * int64(groupVolume)
	right := left
	if c.balance > 0 {
		left = left * int64(127-c.balance) / 127
	} else if c.balance < 0 {
		right = right * int64(128+c.balance) / 128
	}
	return left, right
}

// Package audio converts the chip sample stream to the rate of an output
// device.
package audio

import (
	"github.com/arl/blip"

	"opll/emu/log"
)

const (
	bufSize = blip.MaxFrame
	// Maximum number of output samples produced by one frame.
	maxFrameOut = bufSize / 2
)

// Resampler converts a mono stream of 16-bit samples from one rate to
// another with a band-limited synthesis buffer. Each input sample is an
// amplitude step at its own clock tick.
type Resampler struct {
	buf  *blip.Buffer
	prev int16

	inRate  uint32
	outRate uint32
	maxIn   int // max input samples per frame
}

// NewResampler returns a resampler from inRate to outRate Hz.
func NewResampler(inRate, outRate uint32) *Resampler {
	r := &Resampler{buf: blip.NewBuffer(bufSize)}
	r.SetRates(inRate, outRate)
	return r
}

// SetRates changes the input and output rates, dropping buffered samples.
func (r *Resampler) SetRates(inRate, outRate uint32) {
	r.inRate, r.outRate = inRate, outRate
	r.maxIn = max(int(uint64(maxFrameOut)*uint64(inRate)/uint64(outRate)), 1)
	r.buf.SetRates(float64(inRate), float64(outRate))
	r.Reset()

	log.ModSound.DebugZ("resampler rates").
		Uint32("in", inRate).
		Uint32("out", outRate).
		Int("frame", r.maxIn).
		End()
}

func (r *Resampler) InRate() uint32  { return r.inRate }
func (r *Resampler) OutRate() uint32 { return r.outRate }

func (r *Resampler) Reset() {
	r.buf.Clear()
	r.prev = 0
}

// Resample consumes in and appends the resampled samples to dst, returning
// the extended slice. Output lags the input by a few samples, the filter
// latency.
func (r *Resampler) Resample(dst, in []int16) []int16 {
	for len(in) > 0 {
		n := min(len(in), r.maxIn)
		for i, s := range in[:n] {
			if s != r.prev {
				r.buf.AddDelta(uint64(i), int32(s)-int32(r.prev))
				r.prev = s
			}
		}
		r.buf.EndFrame(n)
		in = in[n:]

		avail := r.buf.SamplesAvailable()
		dst = growSamples(dst, avail)
		read := r.buf.ReadSamples(dst[len(dst)-avail:], avail, blip.Mono)
		dst = dst[:len(dst)-avail+read]
	}
	return dst
}

func growSamples(s []int16, n int) []int16 {
	if cap(s)-len(s) < n {
		grown := make([]int16, len(s), len(s)+max(n, len(s)))
		copy(grown, s)
		s = grown
	}
	return s[:len(s)+n]
}

package audio

import (
	"hash"
	"hash/crc32"
	"math"
)

// Stats accumulates statistics about a sample stream.
type Stats struct {
	count int
	peak  int
	sumSq float64
	crc   hash.Hash32
	raw   [2]byte
}

func NewStats() *Stats {
	return &Stats{crc: crc32.NewIEEE()}
}

// Add accounts for samples.
func (st *Stats) Add(samples []int16) {
	for _, s := range samples {
		v := int(s)
		st.peak = max(st.peak, v, -v)
		st.sumSq += float64(v * v)

		st.raw[0] = byte(s)
		st.raw[1] = byte(uint16(s) >> 8)
		st.crc.Write(st.raw[:])
	}
	st.count += len(samples)
}

// Count returns the number of samples seen.
func (st *Stats) Count() int { return st.count }

// Peak returns the largest absolute sample value.
func (st *Stats) Peak() int { return st.peak }

// RMS returns the root mean square of the samples.
func (st *Stats) RMS() float64 {
	if st.count == 0 {
		return 0
	}
	return math.Sqrt(st.sumSq / float64(st.count))
}

// Sum32 returns the CRC32 (IEEE) of the samples as little-endian 16-bit
// words.
func (st *Stats) Sum32() uint32 { return st.crc.Sum32() }

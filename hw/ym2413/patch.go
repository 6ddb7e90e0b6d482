package ym2413

import (
	"fmt"

	"github.com/go-faster/errors"

	"opll/hw/hwio"
)

// Waveform selects the operator wave table.
type Waveform uint8

const (
	FullSine Waveform = iota
	HalfSine
)

// Patch holds the parameters of one operator.
type Patch struct {
	TL uint8 // total level (modulator only), 0.75dB steps
	FB uint8 // feedback (modulator only)
	ML uint8 // frequency multiplier
	AR uint8 // attack rate
	DR uint8 // decay rate
	SL uint8 // sustain level, 3dB steps
	RR uint8 // release rate
	KL uint8 // key scale level

	EG bool // sustained (true) or percussive (false) envelope
	KR bool // key scale rate
	AM bool // tremolo
	PM bool // vibrato

	WF Waveform
}

// An Instrument is a pair of patches, modulator first.
type Instrument [2]Patch

const (
	Modulator = 0
	Carrier   = 1
)

// Number of instruments: the user instrument, 15 presets and 3 rhythm
// instruments.
const NumInstruments = 19

// Size in bytes of an instrument in the dump format.
const DumpSize = 16

// ToneSet selects the factory instrument ROM.
type ToneSet int

const (
	ToneYM2413 ToneSet = iota
	ToneVRC7
)

func (ts ToneSet) String() string {
	switch ts {
	case ToneYM2413:
		return "ym2413"
	case ToneVRC7:
		return "vrc7"
	}
	return fmt.Sprintf("ToneSet(%d)", int(ts))
}

func ParseToneSet(s string) (ToneSet, error) {
	switch s {
	case "ym2413", "":
		return ToneYM2413, nil
	case "vrc7":
		return ToneVRC7, nil
	}
	return 0, errors.Errorf("unknown tone set %q", s)
}

var ErrShortDump = errors.New("instrument dump too short")

// InstrumentFromDump decodes the register image of an instrument (registers
// 0x00-0x07 layout). Only the first 8 bytes are used.
func InstrumentFromDump(dump []byte) (Instrument, error) {
	var inst Instrument
	if len(dump) < 8 {
		return inst, errors.Wrapf(ErrShortDump, "got %d bytes", len(dump))
	}
	for op := range 2 {
		inst[op].setFlags(dump[op])
		inst[op].KL = hwio.Bits8(dump[2+op], 6, 2)
		inst[op].setAttackDecay(dump[4+op])
		inst[op].setSustainRelease(dump[6+op])
	}
	inst[Modulator].TL = hwio.Bits8(dump[2], 0, 6)
	inst[Modulator].FB = hwio.Bits8(dump[3], 0, 3)
	inst[Modulator].WF = Waveform(hwio.GetBiti8(dump[3], 3))
	inst[Carrier].WF = Waveform(hwio.GetBiti8(dump[3], 4))
	return inst, nil
}

// Dump encodes the instrument into its 16-byte dump. Bytes 8 to 15 are
// always zero.
func (inst Instrument) Dump() [DumpSize]byte {
	var d [DumpSize]byte
	mod, car := &inst[Modulator], &inst[Carrier]
	d[0] = mod.flags()
	d[1] = car.flags()
	d[2] = mod.KL<<6 | mod.TL&63
	d[3] = car.KL<<6 | uint8(car.WF&1)<<4 | uint8(mod.WF&1)<<3 | mod.FB&7
	d[4] = mod.AR<<4 | mod.DR&15
	d[5] = car.AR<<4 | car.DR&15
	d[6] = mod.SL<<4 | mod.RR&15
	d[7] = car.SL<<4 | car.RR&15
	return d
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// AM/PM/EG/KR/ML byte.
func (p *Patch) flags() uint8 {
	return b2u8(p.AM)<<7 | b2u8(p.PM)<<6 | b2u8(p.EG)<<5 | b2u8(p.KR)<<4 | p.ML&15
}

func (p *Patch) setFlags(v uint8) {
	p.AM = hwio.GetBit8(v, 7)
	p.PM = hwio.GetBit8(v, 6)
	p.EG = hwio.GetBit8(v, 5)
	p.KR = hwio.GetBit8(v, 4)
	p.ML = hwio.Bits8(v, 0, 4)
}

func (p *Patch) setAttackDecay(v uint8) {
	p.AR = hwio.Bits8(v, 4, 4)
	p.DR = hwio.Bits8(v, 0, 4)
}

func (p *Patch) setSustainRelease(v uint8) {
	p.SL = hwio.Bits8(v, 4, 4)
	p.RR = hwio.Bits8(v, 0, 4)
}

// Factory instruments, 8 significant bytes each. Instrument 0 is the
// power-on content of the user instrument.
var ym2413Tones = [NumInstruments][8]byte{
	{0x03, 0x01, 0x9a, 0x04, 0xf3, 0xf4, 0x13, 0x23},
	{0x61, 0x61, 0x1e, 0x17, 0xf0, 0x7f, 0x07, 0x17}, // violin
	{0x13, 0x41, 0x0f, 0x0d, 0xce, 0xf5, 0x43, 0x23}, // guitar
	{0x03, 0x01, 0x9a, 0x04, 0xf3, 0xf4, 0x13, 0x23}, // piano
	{0x21, 0x61, 0x1d, 0x07, 0xfa, 0x64, 0x30, 0x28}, // flute
	{0x22, 0x21, 0x1e, 0x06, 0xf0, 0x76, 0x18, 0x28}, // clarinet
	{0x31, 0x02, 0x16, 0x05, 0x90, 0x71, 0x00, 0x10}, // oboe
	{0x21, 0x61, 0x1d, 0x07, 0x82, 0x80, 0x10, 0x17}, // trumpet
	{0x23, 0x21, 0x2d, 0x16, 0xc0, 0x70, 0x07, 0x07}, // organ
	{0x61, 0x21, 0x1b, 0x06, 0x64, 0x65, 0x18, 0x18}, // horn
	{0x61, 0x61, 0x0c, 0x18, 0x85, 0xa0, 0x79, 0x07}, // synthesizer
	{0x23, 0x21, 0x87, 0x11, 0xf0, 0xa4, 0x00, 0xf7}, // harpsichord
	{0x97, 0xe1, 0x28, 0x07, 0xff, 0xf3, 0x02, 0xf8}, // vibraphone
	{0x61, 0x10, 0x0c, 0x05, 0xf2, 0xc4, 0x40, 0xc8}, // synth bass
	{0x01, 0x01, 0x56, 0x03, 0xb4, 0xb2, 0x23, 0x58}, // acoustic bass
	{0x61, 0x41, 0x89, 0x03, 0xf1, 0xf4, 0xf0, 0x13}, // electric guitar
	{0x04, 0x21, 0x16, 0x00, 0xdf, 0xf8, 0xff, 0xf8}, // bass drum
	{0x23, 0x32, 0x00, 0x00, 0xd8, 0xf7, 0xf8, 0xf7}, // hi-hat, snare drum
	{0x25, 0x18, 0x00, 0x00, 0xf8, 0xda, 0xf8, 0x55}, // tom-tom, top cymbal
}

var vrc7Tones = [NumInstruments][8]byte{
	{},
	{0x03, 0x21, 0x05, 0x06, 0xe8, 0x81, 0x42, 0x27},
	{0x13, 0x41, 0x14, 0x0d, 0xd8, 0xf6, 0x23, 0x12},
	{0x11, 0x11, 0x08, 0x08, 0xfa, 0xb2, 0x20, 0x12},
	{0x31, 0x61, 0x0c, 0x07, 0xa8, 0x64, 0x61, 0x27},
	{0x32, 0x21, 0x1e, 0x06, 0xe1, 0x76, 0x01, 0x28},
	{0x02, 0x01, 0x06, 0x00, 0xa3, 0xe2, 0xf4, 0xf4},
	{0x21, 0x61, 0x1d, 0x07, 0x82, 0x81, 0x11, 0x07},
	{0x23, 0x21, 0x22, 0x17, 0xa2, 0x72, 0x01, 0x17},
	{0x35, 0x11, 0x25, 0x00, 0x40, 0x73, 0x72, 0x01},
	{0xb5, 0x01, 0x0f, 0x0f, 0xa8, 0xa5, 0x51, 0x02},
	{0x17, 0xc1, 0x24, 0x07, 0xf8, 0xf8, 0x22, 0x12},
	{0x71, 0x23, 0x11, 0x06, 0x65, 0x74, 0x18, 0x16},
	{0x01, 0x02, 0xd3, 0x05, 0xc9, 0x95, 0x03, 0x02},
	{0x61, 0x63, 0x0c, 0x00, 0x94, 0xc0, 0x33, 0xf6},
	{0x21, 0x72, 0x0d, 0x00, 0xc1, 0xd5, 0x56, 0x06},
	// The VRC7 has no rhythm section, keep the YM2413 drums.
	{0x04, 0x21, 0x16, 0x00, 0xdf, 0xf8, 0xff, 0xf8},
	{0x23, 0x32, 0x00, 0x00, 0xd8, 0xf7, 0xf8, 0xf7},
	{0x25, 0x18, 0x00, 0x00, 0xf8, 0xda, 0xf8, 0x55},
}

// DefaultInstrument returns factory instrument num (0-18) of the tone set.
func DefaultInstrument(tone ToneSet, num int) Instrument {
	rom := &ym2413Tones
	if tone == ToneVRC7 {
		rom = &vrc7Tones
	}
	inst, _ := InstrumentFromDump(rom[num%NumInstruments][:])
	return inst
}

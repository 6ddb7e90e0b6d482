// Package driver plays notes on a YM2413 through its register interface.
package driver

import (
	"math"

	"opll/emu/log"
	"opll/hw/ym2413"
)

// Writer receives register writes.
type Writer = interface {
	WriteRegister(addr, val uint8)
}

// Param identifies a Synth parameter. All parameters take values in [0, 1].
type Param int

const (
	ParamAR0 Param = iota
	ParamAR1
	ParamDR0
	ParamDR1
	ParamSL0
	ParamSL1
	ParamRR0
	ParamRR1
	ParamMUL0
	ParamMUL1
	ParamFB
	ParamTL
	ParamDM
	ParamDC
	ParamAM0
	ParamAM1
	ParamVIB0
	ParamVIB1
	ParamWheelRange
	ParamFineTune

	NumParams
)

var paramNames = [NumParams]string{
	"AR 0", "AR 1", "DR 0", "DR 1", "SL 0", "SL 1", "RR 0", "RR 1",
	"MUL 0", "MUL 1", "FB", "TL", "DM", "DC", "AM 0", "AM 1", "VIB 0", "VIB 1",
	"Wheel Range", "Fine Tune",
}

func (p Param) String() string {
	if p < 0 || p >= NumParams {
		return "?"
	}
	return paramNames[p]
}

var programNames = [16]string{
	"User", "Violin", "Guitar", "Piano", "Flute", "Clarinet", "Oboe",
	"Trumpet", "Organ", "Horn", "Synthesizer", "Harpsichord", "Vibraphone",
	"Synth Bass", "Acoustic Bass", "Electric Guitar",
}

// ProgramName returns the name of melodic instrument p (0-15).
func ProgramName(p int) string { return programNames[p&15] }

// BlockFNumber returns the block and F-number playing MIDI note, detuned
// by tune semitones.
func BlockFNumber(note int, tune float64) (block, fnum int) {
	interval := (note - 9) % 12
	fnum = int(144.1792 * math.Pow(2, (float64(interval)+tune)/12))
	block = min(max((note-9)/12, 0), 7)
	return block, fnum
}

type voice struct {
	active   bool
	note     int
	velocity float64
}

// Synth is a polyphonic synthesizer on the melodic channels. All channels
// play the same program, voices are allocated round-robin.
type Synth struct {
	w       Writer
	voices  []voice
	last    int
	program int
	wheel   float64
	params  [NumParams]float64
}

// NewSynth returns a synth using the first channels (1-9) of the chip
// behind w, and loads its default user instrument.
func NewSynth(w Writer, channels int) *Synth {
	s := &Synth{
		w:      w,
		voices: make([]voice, min(max(channels, 1), ym2413.NumChannels)),
	}
	s.params[ParamSL0] = 1
	s.params[ParamSL1] = 1
	s.params[ParamMUL0] = 1.1 / 15
	s.params[ParamMUL1] = 1.1 / 15
	s.params[ParamWheelRange] = 3.0 / 12
	s.params[ParamFineTune] = 0.5

	for op := range 2 {
		s.sendARDR(op)
		s.sendSLRR(op)
		s.sendMUL(op)
	}
	s.sendFB()
	s.sendTL()
	return s
}

func (s *Synth) Channels() int { return len(s.voices) }

// bf returns the combined block/F-number value (block in bits 9-11).
func (s *Synth) bf(note int) int {
	rng := float64(int(s.params[ParamWheelRange] * 12))
	tune := s.params[ParamFineTune] - 0.5
	block, fnum := BlockFNumber(note, s.wheel*rng+tune)
	return block<<9 + fnum
}

// next picks the first free channel after the last used one.
func (s *Synth) next() int {
	idx := s.last
	for range len(s.voices) - 1 {
		if idx++; idx == len(s.voices) {
			idx = 0
		}
		if !s.voices[idx].active {
			return idx
		}
	}
	return (s.last + 1) % len(s.voices)
}

// NoteOn plays note (MIDI number) at velocity (0-1) and returns the channel
// it's played on.
func (s *Synth) NoteOn(note int, velocity float64) int {
	ch := s.next()
	bf := s.bf(note)
	vol := int(15 - velocity*15)

	s.w.WriteRegister(0x10+uint8(ch), uint8(bf))
	s.w.WriteRegister(0x20+uint8(ch), 0x10+uint8(bf>>8))
	s.w.WriteRegister(0x30+uint8(ch), uint8(s.program<<4+vol))

	s.voices[ch] = voice{active: true, note: note, velocity: velocity}
	s.last = ch

	log.ModDriver.DebugZ("note on").
		Int("note", note).
		Int("ch", ch).
		Hex16("bf", uint16(bf)).
		End()
	return ch
}

// NoteOff releases the first channel playing note. It reports whether one
// was found.
func (s *Synth) NoteOff(note int) bool {
	for ch := range s.voices {
		v := &s.voices[ch]
		if v.active && v.note == note {
			s.keyOff(ch)
			return true
		}
	}
	return false
}

func (s *Synth) keyOff(ch int) {
	v := &s.voices[ch]
	s.w.WriteRegister(0x20+uint8(ch), uint8(s.bf(v.note)>>8))
	v.active = false
}

func (s *Synth) AllNotesOff() {
	for ch := range s.voices {
		if s.voices[ch].active {
			s.keyOff(ch)
		}
	}
}

// SetProgram selects the instrument (0-15) of the next notes.
func (s *Synth) SetProgram(p int) { s.program = p & 15 }

func (s *Synth) Program() int { return s.program }

// SetPitchWheel bends all channels by v (-1 to 1) times the wheel range.
func (s *Synth) SetPitchWheel(v float64) {
	s.wheel = v
	for ch := range s.voices {
		vc := &s.voices[ch]
		bf := s.bf(vc.note)
		var key uint8
		if vc.active {
			key = 0x10
		}
		s.w.WriteRegister(0x10+uint8(ch), uint8(bf))
		s.w.WriteRegister(0x20+uint8(ch), key+uint8(bf>>8))
	}
}

func (s *Synth) Parameter(id Param) float64 { return s.params[id] }

// SetParameter sets parameter id and writes the user instrument registers
// it affects.
func (s *Synth) SetParameter(id Param, v float64) {
	s.params[id] = min(max(v, 0), 1)

	switch id {
	case ParamAR0, ParamDR0:
		s.sendARDR(0)
	case ParamAR1, ParamDR1:
		s.sendARDR(1)
	case ParamSL0, ParamRR0:
		s.sendSLRR(0)
	case ParamSL1, ParamRR1:
		s.sendSLRR(1)
	case ParamMUL0, ParamVIB0, ParamAM0:
		s.sendMUL(0)
	case ParamMUL1, ParamVIB1, ParamAM1:
		s.sendMUL(1)
	case ParamFB, ParamDM, ParamDC:
		s.sendFB()
	case ParamTL:
		s.sendTL()
	case ParamWheelRange, ParamFineTune:
		s.SetPitchWheel(s.wheel)
	}
}

func (s *Synth) scaled(id Param, n float64) uint8  { return uint8(s.params[id] * n) }
func (s *Synth) inverse(id Param, n float64) uint8 { return uint8((1 - s.params[id]) * n) }

func (s *Synth) flag(id Param, bit uint8) uint8 {
	if s.params[id] < 0.5 {
		return 0
	}
	return bit
}

func (s *Synth) sendARDR(op int) {
	ar := s.inverse(ParamAR0+Param(op), 15)
	dr := s.inverse(ParamDR0+Param(op), 15)
	s.w.WriteRegister(4+uint8(op), ar<<4+dr)
}

func (s *Synth) sendSLRR(op int) {
	sl := s.inverse(ParamSL0+Param(op), 15)
	rr := s.inverse(ParamRR0+Param(op), 15)
	s.w.WriteRegister(6+uint8(op), sl<<4+rr)
}

// Sustained envelope (EG) is always on.
func (s *Synth) sendMUL(op int) {
	am := s.flag(ParamAM0+Param(op), 0x80)
	vib := s.flag(ParamVIB0+Param(op), 0x40)
	mul := s.scaled(ParamMUL0+Param(op), 15)
	s.w.WriteRegister(uint8(op), am+vib+0x20+mul)
}

func (s *Synth) sendFB() {
	dc := s.flag(ParamDC, 0x10)
	dm := s.flag(ParamDM, 0x08)
	fb := s.scaled(ParamFB, 7)
	s.w.WriteRegister(3, dc+dm+fb)
}

func (s *Synth) sendTL() {
	s.w.WriteRegister(2, s.inverse(ParamTL, 63))
}

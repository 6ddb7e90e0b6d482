package driver

import (
	"opll/emu/log"
	"opll/hw/ym2413"
)

// DrumVoice maps a General MIDI drum note to the rhythm voice playing it.
func DrumVoice(note int) (ym2413.Voice, bool) {
	switch note {
	case 36:
		return ym2413.VoiceBD, true
	case 38:
		return ym2413.VoiceSD, true
	case 43, 47, 50:
		return ym2413.VoiceTOM, true
	case 49, 51:
		return ym2413.VoiceCYM, true
	case 42, 44:
		return ym2413.VoiceHH, true
	}
	return 0, false
}

// Position of each voice volume in registers 0x36-0x38, as nibble index:
// register 0x36+pos/2, low nibble for even positions.
var volumePos = [ym2413.NumVoices]int{
	ym2413.VoiceBD:  0,
	ym2413.VoiceSD:  2,
	ym2413.VoiceHH:  3,
	ym2413.VoiceCYM: 4,
	ym2413.VoiceTOM: 5,
}

// Rhythm plays the 5 percussion voices of rhythm mode.
type Rhythm struct {
	w       Writer
	keys    uint8
	volumes [6]float64 // by position, 1 is unused
}

// NewRhythm returns an initialized rhythm driver.
func NewRhythm(w Writer) *Rhythm {
	r := &Rhythm{w: w}
	r.Init()
	return r
}

// Init turns rhythm mode on, with the standard drum pitches and no voice
// keyed.
func (r *Rhythm) Init() {
	r.keys = 0
	r.volumes = [6]float64{}
	for _, rw := range [...][2]uint8{
		{0x0e, 0x20},
		{0x16, 0x20}, {0x17, 0x50}, {0x18, 0xc0},
		{0x26, 0x05}, {0x27, 0x05}, {0x28, 0x01},
	} {
		r.w.WriteRegister(rw[0], rw[1])
	}
}

func (r *Rhythm) sendKeys() {
	r.w.WriteRegister(0x0e, 0x20|r.keys&0x1f)
}

func (r *Rhythm) sendVolumes(pos int) {
	lo := uint8((1 - r.volumes[pos&6]) * 15)
	hi := uint8((1 - r.volumes[pos|1]) * 15)
	r.w.WriteRegister(0x36+uint8(pos/2), lo+hi<<4)
}

// NoteOn keys the voice playing the drum note at velocity (0-1). It reports
// whether note is a known drum.
func (r *Rhythm) NoteOn(note int, velocity float64) bool {
	v, ok := DrumVoice(note)
	if !ok {
		log.ModDriver.DebugZ("unmapped drum note").Int("note", note).End()
		return false
	}

	pos := volumePos[v]
	r.volumes[pos] = min(max(velocity, 0), 1)
	r.sendVolumes(pos)

	r.keys |= v.KeyBit()
	r.sendKeys()
	return true
}

func (r *Rhythm) NoteOff(note int) bool {
	v, ok := DrumVoice(note)
	if !ok {
		return false
	}
	r.keys &^= v.KeyBit()
	r.sendKeys()
	return true
}

func (r *Rhythm) AllNotesOff() {
	r.keys = 0
	r.sendKeys()
}

// Keys returns the key bits of the voices being played, as in register 0x0E.
func (r *Rhythm) Keys() uint8 { return r.keys }

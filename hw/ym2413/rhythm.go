package ym2413

import "opll/emu/log"

//go:generate go tool stringer -type=Voice -trimprefix=Voice

// Voice is one of the rhythm mode percussion voices. The value is the bit
// number of its key line in register 0x0E.
type Voice uint8

const (
	VoiceHH  Voice = iota // hi-hat
	VoiceCYM              // top cymbal
	VoiceTOM              // tom-tom
	VoiceSD               // snare drum
	VoiceBD               // bass drum

	NumVoices = 5
)

// Slots played by the rhythm voices.
const (
	slotBD1 = 12
	slotBD2 = 13
	slotHH  = 14
	slotSD  = 15
	slotTOM = 16
	slotCYM = 17
)

// first and last slot of each voice. Only the bass drum uses two slots,
// it's a regular 2-operator FM voice on channel 6.
var voiceSlots = [NumVoices][2]int{
	VoiceHH:  {slotHH, slotHH},
	VoiceCYM: {slotCYM, slotCYM},
	VoiceTOM: {slotTOM, slotTOM},
	VoiceSD:  {slotSD, slotSD},
	VoiceBD:  {slotBD1, slotBD2},
}

// Order in which a write to 0x0E keys the voices.
var keyOrder = [NumVoices]Voice{VoiceBD, VoiceSD, VoiceTOM, VoiceCYM, VoiceHH}

// KeyBit returns the key-on bit of v in register 0x0E.
func (v Voice) KeyBit() uint8 { return 1 << v }

// Mask returns the mute mask bit of v.
func (v Voice) Mask() uint32 { return 1 << (9 + uint32(v)) }

// Channel returns the channel whose block/key register shares v's slots.
func (v Voice) Channel() int { return voiceSlots[v][0] / 2 }

// Rhythm instrument patches, by slot.
var rhythmPatches = [6]int{
	slotBD1 - slotBD1: 16 * 2,
	slotBD2 - slotBD1: 16*2 + 1,
	slotHH - slotBD1:  17 * 2,
	slotSD - slotBD1:  17*2 + 1,
	slotTOM - slotBD1: 18 * 2,
	slotCYM - slotBD1: 18*2 + 1,
}

// updateVoiceKeyLines recomputes the slot key state of the rhythm slots from
// the channel key bits and, in rhythm mode, from the key lines in r0e.
func (c *Chip) updateVoiceKeyLines(r0e uint8) {
	for v := range Voice(NumVoices) {
		on := c.ch[v.Channel()].CTRL.Value&0x10 != 0
		if c.rhythm && r0e&v.KeyBit() != 0 {
			on = true
		}
		for s := voiceSlots[v][0]; s <= voiceSlots[v][1]; s++ {
			c.slotOn[s] = on
		}
	}
}

// orVoiceKeyLines adds the 0x0E key lines of the voices played on channel
// ch to their slots key state.
func (c *Chip) orVoiceKeyLines(ch int) {
	if !c.rhythm {
		return
	}
	r0e := c.ctrl.RHYTHM.Value
	for v := range Voice(NumVoices) {
		if v.Channel() != ch || r0e&v.KeyBit() == 0 {
			continue
		}
		for s := voiceSlots[v][0]; s <= voiceSlots[v][1]; s++ {
			c.slotOn[s] = true
		}
	}
}

func (c *Chip) keyOnVoice(v Voice) {
	if v == VoiceBD {
		c.keyOn(6)
		return
	}
	if s := voiceSlots[v][0]; !c.slotOn[s] {
		c.slots[s].keyOn()
	}
}

func (c *Chip) keyOffVoice(v Voice) {
	if v == VoiceBD {
		c.keyOff(6)
		return
	}
	if s := voiceSlots[v][0]; c.slotOn[s] {
		c.slots[s].keyOff(c.st)
	}
}

// setRhythmMode switches channels 6-8 between melodic and percussion use,
// according to bit 5 of val, the value being written to 0x0E.
func (c *Chip) setRhythmMode(val uint8) {
	on := val&0x20 != 0
	if c.rhythm == on {
		return
	}
	c.rhythm = on

	log.ModRhythm.InfoZ("rhythm mode").
		Bool("on", on).
		Hex8("keys", val&0x1f).
		End()

	if on {
		for ch := 6; ch < NumChannels; ch++ {
			c.ch[ch].instrument = 16 + ch - 6
		}
		for i, p := range rhythmPatches {
			c.slots[slotBD1+i].patch = p
		}
		c.slots[slotHH].role = RolePercussion
		c.slots[slotTOM].role = RolePercussion
		return
	}

	for ch := 6; ch < NumChannels; ch++ {
		c.setInstrument(ch, int(c.ch[ch].INST.Value>>4))
	}
	c.slots[slotHH].role = RoleModulator
	c.slots[slotTOM].role = RoleModulator

	// Voices left without any key line are silenced at once.
	for v := range Voice(NumVoices) {
		if c.ch[v.Channel()].CTRL.Value&0x10 != 0 || val&v.KeyBit() != 0 {
			continue
		}
		for s := voiceSlots[v][0]; s <= voiceSlots[v][1]; s++ {
			c.slots[s].mode = EnvFinish
		}
	}
}

// WriteRHYTHM handles register 0x0E.
func (r *control) WriteRHYTHM(old, val uint8) {
	c := r.chip

	c.updateVoiceKeyLines(old)

	if (val&0x20 != 0) != c.rhythm {
		c.setRhythmMode(val)
	}

	if c.rhythm {
		for _, v := range keyOrder {
			if val&v.KeyBit() != 0 {
				c.keyOnVoice(v)
			} else {
				c.keyOffVoice(v)
			}
		}
	}

	for ch := 6; ch < NumChannels; ch++ {
		c.updateChannel(ch, refreshAll)
	}
}

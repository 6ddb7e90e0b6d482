package ym2413

import "opll/hw/hwio"

// channel holds the per-channel registers. Channel i is mapped at offset i,
// so its registers are at 0x10+i, 0x20+i and 0x30+i.
type channel struct {
	chip *Chip
	idx  int

	FNUM hwio.Reg8 `hwio:"offset=0x10,wcb"` // F-number, low 8 bits
	CTRL hwio.Reg8 `hwio:"offset=0x20,wcb"` // sustain, key, block, F-number bit 8
	INST hwio.Reg8 `hwio:"offset=0x30,wcb"` // instrument, volume

	instrument int
	key        bool
}

func (ch *channel) mod() *slot { return &ch.chip.slots[ch.idx*2] }
func (ch *channel) car() *slot { return &ch.chip.slots[ch.idx*2+1] }

func (ch *channel) setFNumber(fnum uint32) {
	ch.mod().fnum = fnum
	ch.car().fnum = fnum
}

func (ch *channel) setBlock(block uint32) {
	ch.mod().block = block
	ch.car().block = block
}

// Channels 7 and 8 pitch registers also clock the hi-hat and cymbal noise
// oscillators.
func (ch *channel) noiseIncrement() uint32 {
	ctrl := ch.CTRL.Value
	fnum := uint32(ctrl&1)<<8 | uint32(ch.FNUM.Value)
	return ch.chip.rt.noise[fnum][(ctrl>>1)&7]
}

func (ch *channel) WriteFNUM(old, val uint8) {
	c := ch.chip
	ch.setFNumber(uint32(ch.CTRL.Value&1)<<8 | uint32(val))
	c.updateChannel(ch.idx, refreshAll)

	switch ch.idx {
	case 7:
		c.noiseADphase = ch.noiseIncrement()
	case 8:
		c.noiseBDphase = ch.noiseIncrement()
	}
}

func (ch *channel) WriteCTRL(old, val uint8) {
	c := ch.chip
	ch.setFNumber(uint32(val&1)<<8 | uint32(ch.FNUM.Value))
	ch.setBlock(uint32(val>>1) & 7)

	// Key state as of before this write.
	on := old&0x10 != 0
	c.slotOn[ch.idx*2] = on
	c.slotOn[ch.idx*2+1] = on
	c.orVoiceKeyLines(ch.idx)

	switch ch.idx {
	case 7:
		c.noiseADphase = ch.noiseIncrement()
	case 8:
		c.noiseBDphase = ch.noiseIncrement()
	}

	if (old^val)&0x20 != 0 {
		c.setSustain(ch.idx, val&0x20 != 0)
	}
	if val&0x10 != 0 {
		c.keyOn(ch.idx)
	} else {
		c.keyOff(ch.idx)
	}
	c.updateChannel(ch.idx, refreshAll)
}

func (ch *channel) WriteINST(old, val uint8) {
	c := ch.chip
	inst, vol := val>>4, val&15

	if c.rhythm && ch.idx >= 6 {
		// Hi-hat and tom-tom volumes take the instrument nibble.
		switch ch.idx {
		case 7:
			c.slots[slotHH].volume = uint32(inst) << 2
		case 8:
			c.slots[slotTOM].volume = uint32(inst) << 2
		}
	} else {
		c.setInstrument(ch.idx, int(inst))
	}

	ch.car().volume = uint32(vol) << 2
	c.updateChannel(ch.idx, refreshAll)
}

func (c *Chip) setInstrument(ch, num int) {
	c.ch[ch].instrument = num
	c.slots[ch*2].patch = num * 2
	c.slots[ch*2+1].patch = num*2 + 1
}

func (c *Chip) setSustain(ch int, on bool) {
	c.slots[ch*2+1].sustain = on
	if mod := &c.slots[ch*2]; mod.role != RoleModulator {
		mod.sustain = on
	}
}

func (c *Chip) keyOn(ch int) {
	if !c.slotOn[ch*2] {
		c.slots[ch*2].keyOn()
	}
	if !c.slotOn[ch*2+1] {
		c.slots[ch*2+1].keyOn()
	}
	c.ch[ch].key = true
}

func (c *Chip) keyOff(ch int) {
	if c.slotOn[ch*2+1] {
		c.slots[ch*2+1].keyOff(c.st)
	}
	c.ch[ch].key = false
}

// What a write to one of the user instrument registers (0x00-0x07) changes,
// and which derived values of the slots playing the user instrument must be
// recomputed, per operator.
var instrumentRegs = [8]struct {
	decode func(inst *Instrument, v uint8)
	update [2]refresh
}{
	0x00: {
		decode: func(inst *Instrument, v uint8) { inst[Modulator].setFlags(v) },
		update: [2]refresh{refreshPG | refreshRKS | refreshEG, 0},
	},
	0x01: {
		decode: func(inst *Instrument, v uint8) { inst[Carrier].setFlags(v) },
		update: [2]refresh{0, refreshPG | refreshRKS | refreshEG},
	},
	0x02: {
		decode: func(inst *Instrument, v uint8) {
			inst[Modulator].KL = hwio.Bits8(v, 6, 2)
			inst[Modulator].TL = hwio.Bits8(v, 0, 6)
		},
		update: [2]refresh{refreshTLL, 0},
	},
	0x03: {
		// The carrier key scale level changes here, but only the
		// waveforms are refreshed.
		decode: func(inst *Instrument, v uint8) {
			inst[Carrier].KL = hwio.Bits8(v, 6, 2)
			inst[Carrier].WF = Waveform(hwio.GetBiti8(v, 4))
			inst[Modulator].WF = Waveform(hwio.GetBiti8(v, 3))
			inst[Modulator].FB = hwio.Bits8(v, 0, 3)
		},
		update: [2]refresh{refreshWF, refreshWF},
	},
	0x04: {
		decode: func(inst *Instrument, v uint8) { inst[Modulator].setAttackDecay(v) },
		update: [2]refresh{refreshEG, 0},
	},
	0x05: {
		decode: func(inst *Instrument, v uint8) { inst[Carrier].setAttackDecay(v) },
		update: [2]refresh{0, refreshEG},
	},
	0x06: {
		decode: func(inst *Instrument, v uint8) { inst[Modulator].setSustainRelease(v) },
		update: [2]refresh{refreshEG, 0},
	},
	0x07: {
		decode: func(inst *Instrument, v uint8) { inst[Carrier].setSustainRelease(v) },
		update: [2]refresh{0, refreshEG},
	},
}

func (r *control) ReadINSTR(addr uint8) uint8 {
	return r.chip.shadow[addr]
}

// WriteINSTR handles the user instrument registers.
func (r *control) WriteINSTR(addr uint8, val uint8) {
	c := r.chip
	c.shadow[addr] = val

	reg := &instrumentRegs[addr]
	reg.decode(&c.patches[0], val)

	for ch := range c.ch {
		if c.ch[ch].instrument != 0 {
			continue
		}
		for op, what := range reg.update {
			if what != 0 {
				c.updateSlot(ch*2+op, what)
			}
		}
	}
}

package ym2413

func (c *Chip) updateAMPM() {
	c.pmPhase = (c.pmPhase + c.rt.pmDphase) & (pmDpWidth - 1)
	c.amPhase = (c.amPhase + c.rt.amDphase) & (amDpWidth - 1)
	c.lfoAM = c.st.am[c.amPhase>>(amDpBits-amPgBits)]
	c.lfoPM = c.st.pm[c.pmPhase>>(pmDpBits-pmPgBits)]
}

func (c *Chip) updateNoise() {
	if c.noiseSeed&1 != 0 {
		c.noiseSeed ^= 0x12000
	}
	c.noiseSeed >>= 1
	if c.noiseSeed&1 != 0 {
		c.whiteNoise = noiseHigh
	} else {
		c.whiteNoise = noiseLow
	}

	c.noiseAPhase += c.noiseADphase
	c.noiseBPhase += c.noiseBDphase

	c.noiseAPhase &= (0x40 << 11) - 1
	if c.noiseAPhase&(0x03<<11) != 0 {
		c.noiseA = noiseABPos
	} else {
		c.noiseA = noiseABNeg
	}

	c.noiseBPhase &= (0x10 << 11) - 1
	if c.noiseBPhase&(0x0A<<11) != 0 {
		c.noiseB = noiseABPos
	} else {
		c.noiseB = noiseABNeg
	}
}

func (c *Chip) step(s *slot) *Patch {
	p := c.patchOf(s)
	s.egout = s.envelope(p, c.lfoAM, c.st, c.rt)
	s.pgout = s.advancePhase(p, c.lfoPM)
	return p
}

// The carrier output, and the modulator one, is the mean of the last two
// samples.
func (c *Chip) calcCarrier(s *slot, fm int32) int32 {
	c.step(s)
	s.output[1] = s.output[0]
	if s.muted() {
		s.output[0] = 0
	} else {
		s.output[0] = s.wave2lin(c.st, fm)
	}
	return (s.output[1] + s.output[0]) >> 1
}

func (c *Chip) calcModulator(s *slot) int32 {
	s.output[1] = s.output[0]
	p := c.step(s)
	switch {
	case s.muted():
		s.output[0] = 0
	case p.FB != 0:
		s.output[0] = s.wave2lin(c.st, (s.feedback>>1)>>(7-p.FB))
	default:
		s.output[0] = s.wave2lin(c.st, 0)
	}
	s.feedback = (s.output[1] + s.output[0]) >> 1
	return s.feedback
}

func (c *Chip) calcTom(s *slot) int32 {
	c.step(s)
	if s.muted() {
		return 0
	}
	return s.wave2lin(c.st, 0)
}

func (c *Chip) calcSnare(s *slot) int32 {
	c.step(s)
	if s.muted() {
		return 0
	}
	lin := &c.st.db2lin
	if s.pgout&(1<<(pgBits-1)) != 0 {
		return (lin[s.egout] + lin[s.egout+c.whiteNoise]) >> 1
	}
	return (lin[dbMute+dbMute+s.egout] + lin[s.egout+c.whiteNoise]) >> 1
}

// Cymbal and hi-hat phases are advanced by Calc.
func (c *Chip) calcCymbal(s *slot) int32 {
	s.egout = s.envelope(c.patchOf(s), c.lfoAM, c.st, c.rt)
	if s.muted() {
		return 0
	}
	lin := &c.st.db2lin
	return (lin[s.egout+c.noiseA] + lin[s.egout+c.noiseB]) >> 1
}

func (c *Chip) calcHiHat(s *slot) int32 {
	s.egout = s.envelope(c.patchOf(s), c.lfoAM, c.st, c.rt)
	if s.muted() {
		return 0
	}
	lin := &c.st.db2lin
	return (lin[s.egout+c.whiteNoise] + lin[s.egout+c.noiseA] + lin[s.egout+c.noiseB]) >> 2
}

// calcChannel returns the output of a melodic channel. Channels whose
// carrier is done are not computed at all.
func (c *Chip) calcChannel(ch int) int32 {
	car := &c.slots[ch*2+1]
	if car.mode == EnvFinish {
		return 0
	}
	return c.calcCarrier(car, c.calcModulator(&c.slots[ch*2]))
}

// Calc advances the chip by one sample and returns it. Muted channels and
// voices keep running, only their output is discarded.
func (c *Chip) Calc() int16 {
	c.updateAMPM()
	c.updateNoise()

	var inst, perc int32

	melodic := NumChannels
	if c.rhythm {
		melodic = 6
	}
	for ch := range melodic {
		if out := c.calcChannel(ch); c.mask&MaskChannel(ch) == 0 {
			inst += out
		}
	}

	if c.rhythm {
		hh, cym := &c.slots[slotHH], &c.slots[slotCYM]
		hh.pgout = hh.advancePhase(c.patchOf(hh), c.lfoPM)
		cym.pgout = cym.advancePhase(c.patchOf(cym), c.lfoPM)

		for _, v := range [NumVoices]Voice{VoiceBD, VoiceHH, VoiceSD, VoiceTOM, VoiceCYM} {
			s := &c.slots[voiceSlots[v][1]]
			if s.mode == EnvFinish {
				continue
			}

			var out int32
			switch v {
			case VoiceBD:
				out = c.calcCarrier(s, c.calcModulator(&c.slots[slotBD1]))
			case VoiceHH:
				out = c.calcHiHat(s)
			case VoiceSD:
				out = c.calcSnare(s)
			case VoiceTOM:
				out = c.calcTom(s)
			case VoiceCYM:
				out = c.calcCymbal(s)
			}
			if c.mask&v.Mask() == 0 {
				perc += out
			}
		}
	}

	out := inst + perc<<1
	return int16(min(max(out, -32768), 32767))
}

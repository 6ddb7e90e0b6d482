package ym2413

//go:generate go tool stringer -type=EnvelopeMode -trimprefix=Env

// EnvelopeMode is the state of an operator envelope generator.
type EnvelopeMode uint8

const (
	EnvSettle EnvelopeMode = iota
	EnvAttack
	EnvDecay
	EnvSustainHold
	EnvSustain
	EnvRelease
	EnvFinish
)

// Role tells how a slot derives its attenuation and sustain.
type Role uint8

const (
	// Modulators use the instrument TL.
	RoleModulator Role = iota
	// Carriers use the channel volume.
	RoleCarrier
	// Hi-hat and tom-tom: modulator slots played as rhythm voices, with
	// their own volume.
	RolePercussion
)

func (r Role) String() string {
	switch r {
	case RoleModulator:
		return "mod"
	case RoleCarrier:
		return "car"
	case RolePercussion:
		return "perc"
	}
	return "?"
}

func (r Role) usesVolume() bool { return r != RoleModulator }

// refresh selects the derived values of a slot to recompute.
type refresh uint8

const (
	refreshPG refresh = 1 << iota
	refreshTLL
	refreshRKS
	refreshWF
	refreshEG

	refreshAll = refreshPG | refreshTLL | refreshRKS | refreshWF | refreshEG
)

// slot is one operator.
type slot struct {
	patch int // index in Chip.patches
	role  Role

	feedback int32
	output   [2]int32

	// phase generator
	wave   *[pgWidth]uint32
	phase  uint32
	dphase uint32
	pgout  uint32

	// envelope generator
	fnum     uint32 // 9 bits
	block    uint32 // 3 bits
	volume   uint32 // 6 bits, register value << 2
	sustain  bool
	tll      uint32
	rks      uint32
	mode     EnvelopeMode
	egPhase  uint32
	egDphase uint32
	egout    uint32
}

func (s *slot) reset(st *staticTables) {
	*s = slot{
		role:    s.role,
		wave:    &st.waves[FullSine],
		mode:    EnvSettle,
		egPhase: egDpWidth,
	}
}

// update recomputes the values selected by what. The envelope increment
// depends on rks so it's always computed last.
func (s *slot) update(what refresh, p *Patch, st *staticTables, rt *rateTables) {
	if what&refreshPG != 0 {
		s.dphase = rt.dphase[s.fnum][s.block][p.ML]
	}
	if what&refreshTLL != 0 {
		tl := uint32(p.TL)
		if s.role.usesVolume() {
			tl = s.volume
		}
		s.tll = st.tll[s.fnum>>5][s.block][tl][p.KL]
	}
	if what&refreshRKS != 0 {
		s.rks = st.rks[s.fnum>>8][s.block][b2u8(p.KR)]
	}
	if what&refreshWF != 0 {
		s.wave = &st.waves[p.WF&1]
	}
	if what&refreshEG != 0 {
		s.egDphase = s.envelopeIncrement(p, rt)
	}
}

func (s *slot) envelopeIncrement(p *Patch, rt *rateTables) uint32 {
	switch s.mode {
	case EnvAttack:
		return rt.ar[p.AR][s.rks]
	case EnvDecay:
		return rt.dr[p.DR][s.rks]
	case EnvSustain:
		return rt.dr[p.RR][s.rks]
	case EnvRelease:
		switch {
		case s.sustain:
			return rt.dr[5][s.rks]
		case p.EG:
			return rt.dr[p.RR][s.rks]
		default:
			return rt.dr[7][s.rks]
		}
	}
	return 0
}

func (s *slot) keyOn() {
	s.mode = EnvAttack
	s.phase = 0
	s.egPhase = 0
}

func (s *slot) keyOff(st *staticTables) {
	if s.mode == EnvAttack {
		s.egPhase = st.arAdjust[s.egPhase>>(egDpBits-egBits)] << (egDpBits - egBits)
	}
	s.mode = EnvRelease
}

// advancePhase steps the phase generator and returns the wave table index.
func (s *slot) advancePhase(p *Patch, lfoPM int32) uint32 {
	if p.PM {
		s.phase += (s.dphase * uint32(lfoPM)) >> pmAmpBits
	} else {
		s.phase += s.dphase
	}
	s.phase &= dpWidth - 1
	return s.phase >> dpBaseBits
}

// envelope steps the envelope generator and returns the attenuation in dB
// steps, dbMute-1 meaning silence.
func (s *slot) envelope(p *Patch, lfoAM int32, st *staticTables, rt *rateTables) uint32 {
	const shift = egDpBits - egBits

	var egout uint32
	switch s.mode {
	case EnvAttack:
		s.egPhase += s.egDphase
		if s.egPhase&egDpWidth != 0 {
			egout = 0
			s.egPhase = 0
			s.mode = EnvDecay
			s.update(refreshEG, p, st, rt)
		} else {
			egout = st.arAdjust[s.egPhase>>shift]
		}

	case EnvDecay:
		s.egPhase += s.egDphase
		egout = s.egPhase >> shift
		if sl := st.sl[p.SL]; s.egPhase >= sl {
			s.egPhase = sl
			if p.EG {
				s.mode = EnvSustainHold
			} else {
				s.mode = EnvSustain
			}
			s.update(refreshEG, p, st, rt)
			egout = s.egPhase >> shift
		}

	case EnvSustainHold:
		egout = s.egPhase >> shift
		if !p.EG {
			s.mode = EnvSustain
			s.update(refreshEG, p, st, rt)
		}

	case EnvSustain, EnvRelease:
		s.egPhase += s.egDphase
		egout = s.egPhase >> shift
		if egout >= 1<<egBits {
			s.mode = EnvFinish
			egout = 1<<egBits - 1
		}

	default:
		egout = 1<<egBits - 1
	}

	egout = eg2db(egout + s.tll)
	if p.AM {
		egout += uint32(lfoAM)
	}
	return min(egout, dbMute-1)
}

func (s *slot) muted() bool { return s.egout >= dbMute-1 }

// Wave table lookup for the current phase offset by fm.
func (s *slot) wave2lin(st *staticTables, fm int32) int32 {
	return st.db2lin[s.wave[uint32(int32(s.pgout)+fm)&(pgWidth-1)]+s.egout]
}

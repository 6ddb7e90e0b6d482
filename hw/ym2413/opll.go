// Package ym2413 emulates the Yamaha YM2413 (OPLL) FM sound chip.
//
// A Chip is driven by register writes and produces one signed 16-bit sample
// per Calc call, at the sample rate given at construction. A Chip is not
// safe for concurrent use.
package ym2413

import (
	"github.com/go-faster/errors"

	"opll/emu/log"
	"opll/hw/hwio"
)

const (
	// Clock of NTSC machines.
	ClockNTSC = 3579545
	// Clock of the MSX-MUSIC cartridge.
	ClockMSX = 3579540

	NumChannels = 9
	NumSlots    = NumChannels * 2
	NumRegs     = 0x40

	MinSampleRate = 1000
	MaxSampleRate = 384000
)

// NativeRate returns the sample rate of a chip clocked at clock.
func NativeRate(clock uint32) uint32 { return clock / 72 }

var ErrInvalidRate = errors.New("invalid clock or sample rate")

func checkRate(clock, rate uint32) error {
	switch {
	case clock < 72:
		return errors.Wrapf(ErrInvalidRate, "clock %d Hz", clock)
	case rate < MinSampleRate || rate > MaxSampleRate:
		return errors.Wrapf(ErrInvalidRate, "rate %d Hz out of [%d, %d]", rate, MinSampleRate, MaxSampleRate)
	}
	return nil
}

// Mute masks.
const (
	MaskHH     uint32 = 1 << 9
	MaskCYM    uint32 = 1 << 10
	MaskTOM    uint32 = 1 << 11
	MaskSD     uint32 = 1 << 12
	MaskBD     uint32 = 1 << 13
	MaskRhythm        = MaskHH | MaskCYM | MaskTOM | MaskSD | MaskBD
	MaskAll           = 1<<NumChannels - 1 | MaskRhythm
)

// MaskChannel returns the mute mask of melodic channel ch.
func MaskChannel(ch int) uint32 { return 1 << ch }

type Chip struct {
	ch      [NumChannels]channel
	slots   [NumSlots]slot
	slotOn  [NumSlots]bool
	patches [NumInstruments]Instrument

	ctrl     control
	bus      *hwio.Table
	reserved hwio.Device
	shadow   [NumRegs]uint8 // user instrument and unused registers
	latch    uint8          // I/O address latch

	tone   ToneSet
	rhythm bool
	mask   uint32

	// LFOs
	pmPhase uint32
	amPhase uint32
	lfoPM   int32
	lfoAM   int32

	// Noise
	noiseSeed    uint32
	whiteNoise   uint32
	noiseA       uint32
	noiseB       uint32
	noiseAPhase  uint32
	noiseBPhase  uint32
	noiseADphase uint32
	noiseBDphase uint32

	clock uint32
	rate  uint32
	st    *staticTables
	rt    *rateTables
}

// control holds the global registers.
type control struct {
	chip *Chip

	INSTR  hwio.Device `hwio:"offset=0x00,size=0x8,rcb,wcb,pcb=ReadINSTR"`
	RHYTHM hwio.Reg8   `hwio:"offset=0x0e,wcb"`
}

// New returns a chip clocked at clock Hz, producing samples at rate Hz, in
// its power-on state with the YM2413 instruments.
func New(clock, rate uint32) (*Chip, error) {
	if err := checkRate(clock, rate); err != nil {
		return nil, err
	}

	c := &Chip{
		clock: clock,
		rate:  rate,
		st:    tables(),
		rt:    rateTablesFor(clock, rate),
		bus:   hwio.NewTable("opll"),
	}

	c.ctrl.chip = c
	hwio.MustInitRegs(&c.ctrl)
	c.bus.MapBank(0x00, &c.ctrl, 0)

	for i := range c.ch {
		c.ch[i].chip = c
		c.ch[i].idx = i
		hwio.MustInitRegs(&c.ch[i])
		c.bus.MapBank(uint8(i), &c.ch[i], 0)
	}

	c.reserved = hwio.Device{
		Name:    "reserved",
		Size:    NumRegs,
		ReadCb:  c.readShadow,
		PeekCb:  c.readShadow,
		WriteCb: c.writeShadow,
	}
	c.bus.Unmapped = &c.reserved

	c.Reset()
	return c, nil
}

func (c *Chip) readShadow(addr uint8) uint8       { return c.shadow[addr&(NumRegs-1)] }
func (c *Chip) writeShadow(addr uint8, val uint8) { c.shadow[addr&(NumRegs-1)] = val }

// Reset puts the chip back in its power-on state. The tone set is kept, but
// all instruments are restored to their factory values.
func (c *Chip) Reset() {
	c.latch = 0
	c.mask = 0
	c.rhythm = false

	c.pmPhase, c.amPhase = 0, 0
	c.lfoPM, c.lfoAM = 0, 0

	c.noiseSeed = 0xffff
	c.whiteNoise = 0
	c.noiseA, c.noiseB = 0, 0
	c.noiseAPhase, c.noiseBPhase = 0, 0
	c.noiseADphase, c.noiseBDphase = 0, 0

	c.slotOn = [NumSlots]bool{}
	for i := range c.slots {
		c.slots[i].reset(c.st)
		c.slots[i].role = Role(i & 1)
	}

	c.shadow = [NumRegs]uint8{}
	c.ctrl.RHYTHM.Value = 0
	for i := range c.ch {
		ch := &c.ch[i]
		ch.FNUM.Value, ch.CTRL.Value, ch.INST.Value = 0, 0, 0
		ch.key = false
		c.setInstrument(i, 0)
	}

	for addr := range uint8(NumRegs) {
		c.bus.Write8(addr, 0)
	}
	c.ResetPatch(c.tone)
}

// SetClock retunes the chip for a new input clock and sample rate.
func (c *Chip) SetClock(clock, rate uint32) error {
	if err := checkRate(clock, rate); err != nil {
		return err
	}

	c.clock, c.rate = clock, rate
	c.rt = rateTablesFor(clock, rate)
	c.ForceRefresh()

	log.ModSound.InfoZ("clock changed").
		Uint32("clock", clock).
		Uint32("rate", rate).
		End()
	return nil
}

// SetRate changes the output sample rate.
func (c *Chip) SetRate(rate uint32) error {
	return c.SetClock(c.clock, rate)
}

func (c *Chip) Clock() uint32 { return c.clock }
func (c *Chip) Rate() uint32  { return c.rate }

// ForceRefresh recomputes the values all slots derive from their instrument,
// pitch and volume. It must be called after instruments are modified other
// than through register writes.
func (c *Chip) ForceRefresh() {
	for i := range c.slots {
		c.updateSlot(i, refreshAll)
	}
	c.updateNoiseIncrements()
}

func (c *Chip) patchOf(s *slot) *Patch {
	return &c.patches[s.patch>>1][s.patch&1]
}

func (c *Chip) updateSlot(i int, what refresh) {
	s := &c.slots[i]
	s.update(what, c.patchOf(s), c.st, c.rt)
}

func (c *Chip) updateChannel(ch int, what refresh) {
	c.updateSlot(ch*2, what)
	c.updateSlot(ch*2+1, what)
}

func (c *Chip) updateNoiseIncrements() {
	c.noiseADphase = c.ch[7].noiseIncrement()
	c.noiseBDphase = c.ch[8].noiseIncrement()
}

// WriteRegister writes val to the register at addr. Only the 6 low bits of
// addr are decoded.
func (c *Chip) WriteRegister(addr, val uint8) {
	addr &= NumRegs - 1
	log.ModReg.DebugZ("write").
		Hex8("addr", addr).
		Hex8("val", val).
		End()
	c.bus.Write8(addr, val)
}

// WriteIO emulates the chip bus: a write to an even port latches the
// register address, a write to an odd port writes the latched register.
func (c *Chip) WriteIO(port, val uint8) {
	if port&1 != 0 {
		c.WriteRegister(c.latch, val)
		return
	}
	c.latch = val
}

// ReadRegister returns the last value written to the register at addr.
func (c *Chip) ReadRegister(addr uint8) uint8 {
	return c.bus.Peek8(addr & (NumRegs - 1))
}

// ResetPatch loads the factory instruments of tone into all 19 instruments.
func (c *Chip) ResetPatch(tone ToneSet) {
	c.tone = tone
	for i := range c.patches {
		c.patches[i] = DefaultInstrument(tone, i)
	}
	c.ForceRefresh()
}

// ToneSet returns the tone set the factory instruments come from.
func (c *Chip) ToneSet() ToneSet { return c.tone }

// LoadPatches replaces all instruments with those of dump, a sequence of 19
// 16-byte instrument dumps.
func (c *Chip) LoadPatches(dump []byte) error {
	if len(dump) < NumInstruments*DumpSize {
		return errors.Wrapf(ErrShortDump, "instrument table: %d bytes, want %d", len(dump), NumInstruments*DumpSize)
	}
	for i := range c.patches {
		inst, err := InstrumentFromDump(dump[i*DumpSize:])
		if err != nil {
			return err
		}
		c.patches[i] = inst
	}
	c.ForceRefresh()
	return nil
}

// CopyPatch replaces patch num (0-37, instrument num/2, operator num%2).
func (c *Chip) CopyPatch(num int, p Patch) {
	c.patches[num>>1][num&1] = p
	c.ForceRefresh()
}

// Patch returns patch num (0-37).
func (c *Chip) Patch(num int) Patch {
	return c.patches[num>>1][num&1]
}

// Instrument returns instrument num (0-18).
func (c *Chip) Instrument(num int) Instrument {
	return c.patches[num]
}

// SetMask sets the mute mask and returns the previous one.
func (c *Chip) SetMask(mask uint32) uint32 {
	old := c.mask
	c.mask = mask
	return old
}

// ToggleMask flips the bits of mask in the mute mask and returns the previous
// one.
func (c *Chip) ToggleMask(mask uint32) uint32 {
	old := c.mask
	c.mask ^= mask
	return old
}

func (c *Chip) Mask() uint32     { return c.mask }
func (c *Chip) RhythmMode() bool { return c.rhythm }

type ChannelState struct {
	Instrument int
	Key        bool
	FNumber    uint16
	Block      uint8
	Volume     uint8
	Sustain    bool
}

// Channel returns the state of channel ch.
func (c *Chip) Channel(ch int) ChannelState {
	car := &c.slots[ch*2+1]
	return ChannelState{
		Instrument: c.ch[ch].instrument,
		Key:        c.ch[ch].key,
		FNumber:    uint16(car.fnum),
		Block:      uint8(car.block),
		Volume:     uint8(car.volume >> 2),
		Sustain:    car.sustain,
	}
}

type SlotState struct {
	Role     Role
	Mode     EnvelopeMode
	Patch    int
	Phase    uint32
	EnvPhase uint32
	Output   int32
}

// Slot returns the state of slot i (0-17, modulator of channel i/2 when i is
// even, carrier otherwise).
func (c *Chip) Slot(i int) SlotState {
	s := &c.slots[i]
	return SlotState{
		Role:     s.role,
		Mode:     s.mode,
		Patch:    s.patch,
		Phase:    s.phase,
		EnvPhase: s.egPhase,
		Output:   s.output[0],
	}
}

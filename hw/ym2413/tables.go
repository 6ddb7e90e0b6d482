package ym2413

import (
	"math"
	"sync"
)

const (
	// Phase generator: 9-bit sine table index, 18-bit accumulator.
	pgBits     = 9
	pgWidth    = 1 << pgBits
	dpBits     = 18
	dpWidth    = 1 << dpBits
	dpBaseBits = dpBits - pgBits

	// Attenuation in 0.1875dB steps, 256 steps is silence.
	dbBits = 8
	dbStep = 48.0 / (1 << dbBits)
	dbMute = 1 << dbBits

	// Envelope in 0.375dB steps over a 22-bit accumulator.
	egStep    = 0.375
	egBits    = 7
	egDpBits  = 22
	egDpWidth = 1 << egDpBits

	tlStep = 0.75
	slStep = 3.0

	db2linAmpBits = 11

	// LFOs.
	pmPgBits  = 8
	pmPgWidth = 1 << pmPgBits
	pmDpBits  = 16
	pmDpWidth = 1 << pmDpBits
	amPgBits  = 8
	amPgWidth = 1 << amPgBits
	amDpBits  = 16
	amDpWidth = 1 << amDpBits
	pmAmpBits = 8

	pmSpeed = 6.4   // Hz
	pmDepth = 13.75 // cents
	amSpeed = 3.7   // Hz
	amDepth = 2.4   // dB

	// The value of pi the chip tables were historically generated with.
	pi = 3.14159265358979

	// rate at which rate_adjust is the identity.
	identityRate = 49716
)

func eg2db(d uint32) uint32 { return d * uint32(egStep/dbStep) }
func tl2eg(d uint32) uint32 { return d * uint32(tlStep/egStep) }
func sl2eg(d uint32) uint32 { return d * uint32(slStep/egStep) }

func dbPos(x float64) uint32 { return uint32(x / dbStep) }
func dbNeg(x float64) uint32 { return uint32(dbMute + dbMute + x/dbStep) }

var (
	noiseHigh  = dbPos(6.0)
	noiseLow   = dbNeg(6.0)
	noiseABPos = dbPos(3.0)
	noiseABNeg = dbNeg(3.0)
)

// staticTables only depend on constants, they're computed once and shared by
// all chips.
type staticTables struct {
	arAdjust [1 << egBits]uint32
	db2lin   [(dbMute + dbMute) * 2]int32
	waves    [2][pgWidth]uint32
	pm       [pmPgWidth]int32
	am       [amPgWidth]int32
	tll      [16][8][64][4]uint32
	rks      [2][8][2]uint32
	sl       [16]uint32
}

var tables = sync.OnceValue(func() *staticTables {
	t := new(staticTables)
	t.makeAdjust()
	t.makeDB2Lin()
	t.makeWaves()
	t.makeLFO()
	t.makeTLL()
	t.makeRKS()
	t.makeSL()
	return t
})

// Linear attack phase to logarithmic envelope output.
func (t *staticTables) makeAdjust() {
	t.arAdjust[0] = 1 << egBits
	for i := 1; i < len(t.arAdjust); i++ {
		v := float64(1<<egBits) - 1 - (1<<egBits)*math.Log(float64(i))/math.Log(128)
		t.arAdjust[i] = uint32(max(int32(v), 0))
	}
}

func (t *staticTables) makeDB2Lin() {
	for i := range dbMute + dbMute {
		v := int32(float64((1<<db2linAmpBits)-1) * math.Pow(10, -float64(i)*dbStep/20))
		if i >= dbMute {
			v = 0
		}
		t.db2lin[i] = v
		t.db2lin[i+dbMute+dbMute] = -v
	}
}

func lin2db(d float64) uint32 {
	if d == 0 {
		return dbMute - 1
	}
	return uint32(min(-int32(20.0*math.Log10(d)/dbStep), dbMute-1))
}

func (t *staticTables) makeWaves() {
	full := &t.waves[FullSine]
	for i := range pgWidth / 4 {
		full[i] = lin2db(math.Sin(2.0 * pi * float64(i) / pgWidth))
	}
	for i := range pgWidth / 4 {
		full[pgWidth/2-1-i] = full[i]
	}
	for i := range pgWidth / 2 {
		full[pgWidth/2+i] = dbMute + dbMute + full[i]
	}

	half := &t.waves[HalfSine]
	copy(half[:pgWidth/2], full[:pgWidth/2])
	for i := pgWidth / 2; i < pgWidth; i++ {
		half[i] = full[0]
	}
}

func (t *staticTables) makeLFO() {
	for i := range pmPgWidth {
		s := math.Sin(2.0 * pi * float64(i) / pmPgWidth)
		t.pm[i] = int32(float64(1<<pmAmpBits) * math.Pow(2, pmDepth*s/1200))
	}
	for i := range amPgWidth {
		s := math.Sin(2.0 * pi * float64(i) / pmPgWidth)
		t.am[i] = int32(amDepth / 2 / dbStep * (1.0 + s))
	}
}

// key scale level in 0.5dB units, indexed by the 4 upper F-number bits.
var kslTable = [16]int32{
	0, 18, 24, 27, 30, 32, 33, 35,
	36, 37, 38, 39, 39, 40, 41, 42,
}

func (t *staticTables) makeTLL() {
	for fnum := range 16 {
		for block := range 8 {
			for tl := range uint32(64) {
				for kl := range 4 {
					t.tll[fnum][block][tl][kl] = tl2eg(tl)
					if kl == 0 {
						continue
					}
					tmp := kslTable[fnum] - 6*int32(7-block)
					if tmp > 0 {
						t.tll[fnum][block][tl][kl] += uint32(float64(tmp>>(3-kl)) / egStep)
					}
				}
			}
		}
	}
}

func (t *staticTables) makeRKS() {
	for fnum8 := range uint32(2) {
		for block := range uint32(8) {
			t.rks[fnum8][block][0] = block >> 1
			t.rks[fnum8][block][1] = block<<1 + fnum8
		}
	}
}

// Sustain levels: 0, 3, ..., 42 and 48dB, as envelope phases.
func (t *staticTables) makeSL() {
	for i := range 15 {
		t.sl[i] = sl2eg(uint32(float64(i*3)/slStep)) << (egDpBits - egBits)
	}
	t.sl[15] = sl2eg(uint32(48/slStep)) << (egDpBits - egBits)
}

// rateTables hold the increments that depend on the input clock and the
// output sample rate. They are immutable once built and shared between chips
// running with the same clock and rate.
type rateTables struct {
	clock, rate uint32

	dphase [512][8][16]uint32
	ar     [16][16]uint32
	dr     [16][16]uint32
	noise  [512][8]uint32

	pmDphase uint32
	amDphase uint32
}

var rateCache sync.Map // [2]uint32{clock, rate} -> *rateTables

func rateTablesFor(clock, rate uint32) *rateTables {
	key := [2]uint32{clock, rate}
	if rt, ok := rateCache.Load(key); ok {
		return rt.(*rateTables)
	}
	rt, _ := rateCache.LoadOrStore(key, newRateTables(clock, rate))
	return rt.(*rateTables)
}

// adjust scales an increment computed for the native rate (clock/72) to the
// output rate.
func (rt *rateTables) adjust(x float64) uint32 {
	if rt.rate == identityRate {
		return uint32(x)
	}
	return uint32(x*float64(rt.clock)/72/float64(rt.rate) + 0.5)
}

var mlTable = [16]uint32{
	1, 1 * 2, 2 * 2, 3 * 2, 4 * 2, 5 * 2, 6 * 2, 7 * 2,
	8 * 2, 9 * 2, 10 * 2, 10 * 2, 12 * 2, 12 * 2, 15 * 2, 15 * 2,
}

func newRateTables(clock, rate uint32) *rateTables {
	rt := &rateTables{clock: clock, rate: rate}

	for fnum := range uint32(512) {
		for block := range 8 {
			for ml := range 16 {
				rt.dphase[fnum][block][ml] = rt.adjust(float64(((fnum * mlTable[ml]) << block) >> (20 - dpBits)))
			}
		}
	}

	for r := range 16 {
		for rks := range 16 {
			rm := min(r+rks>>2, 15)
			rl := rks & 3
			switch r {
			case 0:
			case 15:
				rt.ar[r][rks] = egDpWidth
			default:
				rt.ar[r][rks] = rt.adjust(float64((3 * (rl + 4)) << (rm + 1)))
			}
			if r != 0 {
				rt.dr[r][rks] = rt.adjust(float64((rl + 4) << (rm - 1)))
			}
		}
	}

	for i := range 512 {
		for j := range 8 {
			rt.noise[i][j] = rt.adjust(float64(i << j))
		}
	}

	native := float64(clock / 72)
	rt.pmDphase = rt.adjust(pmSpeed * pmDpWidth / native)
	rt.amDphase = rt.adjust(amSpeed * amDpWidth / native)
	return rt
}

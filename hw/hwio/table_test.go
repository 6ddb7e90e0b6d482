package hwio_test

import (
	"testing"

	"opll/hw/hwio"
)

type shadow struct{ mem [256]uint8 }

func (s *shadow) Read8(addr uint8, peek bool) uint8 { return s.mem[addr] }
func (s *shadow) Write8(addr uint8, val uint8)     { s.mem[addr] = val }

type testTable struct {
	t   testing.TB
	Bus *hwio.Table

	Reg0 hwio.Reg8 `hwio:"offset=0x0,reset=0x77"`
	Reg1 hwio.Reg8 `hwio:"offset=0x1,rwmask=0xF0,rcb,reset=0x99"`
	Reg2 hwio.Reg8 `hwio:"offset=0x2,readonly,pcb=PeekReg2,reset=0x05"`

	DEV hwio.Device `hwio:"bank=1,offset=0x0,size=0x8,rcb,wcb"`

	devval uint8
	back   shadow
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb}
	hwio.MustInitRegs(tbl)

	tbl.Bus = hwio.NewTable("bus")
	tbl.Bus.MapBank(0x10, tbl, 0)
	tbl.Bus.MapBank(0x20, tbl, 1)
	tbl.Bus.Unmapped = &tbl.back
	return tbl
}

func (tbl *testTable) ReadREG1(val uint8) uint8 { return tbl.Reg1.Value + 1 }
func (tbl *testTable) PeekReg2(val uint8) uint8 { return 0x12 }

func (tbl *testTable) ReadDEV(addr uint8) uint8       { return 0xE0 | addr&0xf }
func (tbl *testTable) WriteDEV(addr uint8, val uint8) { tbl.devval = addr & val }

func (tbl *testTable) wantRead8(addr uint8, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Read8(addr, false); got != want {
		tbl.t.Errorf("Read8(%02X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableRegs(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x10, 0x77)
	tbl.wantRead8(0x11, 0x9A)
	tbl.Bus.Write8(0x11, 0xFF)
	tbl.wantRead8(0x11, 0xA0)

	tbl.Bus.Write8(0x12, 0xFF)
	tbl.wantRead8(0x12, 0x05)
	if got := tbl.Bus.Peek8(0x12); got != 0x12 {
		t.Errorf("Peek8(12) = %02X, want 12", got)
	}
}

func TestTableDevice(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x23, 0xE3)
	tbl.Bus.Write8(0x27, 0xFF)
	if tbl.devval != 0x27 {
		t.Errorf("devval = %02X, want 27", tbl.devval)
	}
	if !tbl.Bus.Mapped(0x27) || tbl.Bus.Mapped(0x28) {
		t.Errorf("device should cover exactly 20-27")
	}
}

func TestTableUnmapped(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Bus.Write8(0x3f, 0xAB)
	tbl.wantRead8(0x3f, 0xAB)

	tbl.Bus.UnmapBank(0x20, tbl, 1)
	tbl.Bus.Write8(0x21, 0x5A)
	tbl.wantRead8(0x21, 0x5A)
}

func TestTableDoubleMapPanics(t *testing.T) {
	tbl := newTestTable(t)
	defer func() {
		if recover() == nil {
			t.Errorf("mapping over an existing register should panic")
		}
	}()
	tbl.Bus.MapReg8(0x10, &hwio.Reg8{})
}

package hwio

import (
	"fmt"

	"opll/emu/log"
)

type BankIO8 interface {
	// Read8 reads a byte from the given address. If peek is true, the read
	// shouldn't have any side effects (debugging/tracing).
	Read8(addr uint8, peek bool) uint8
	Write8(addr uint8, val uint8)
}

// Table dispatches accesses over an 8-bit address space to the registers and
// devices mapped in it.
type Table struct {
	Name string

	// Unmapped, if set, receives accesses to addresses nothing is mapped to.
	Unmapped BankIO8

	table8 [256]BankIO8
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.table8 = [256]BankIO8{}
}

// Map a register bank (that is, a structure containing mulitple Reg8 or
// Device fields). For this function to work, registers must have a struct tag
// "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
func (t *Table) MapBank(addr uint8, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint8, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint8(r.Size-1))
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr uint8, size int, io BankIO8) {
	if size <= 0 || int(addr)+size > len(t.table8) {
		panic(fmt.Errorf("hwio: mapping %q at %02x (size %d) overflows the bus", t.Name, addr, size))
	}
	for i := range size {
		if t.table8[int(addr)+i] != nil {
			panic(fmt.Errorf("hwio: address %02x already mapped on %q", int(addr)+i, t.Name))
		}
		t.table8[int(addr)+i] = io
	}
}

func (t *Table) MapReg8(addr uint8, io *Reg8) {
	t.mapBus8(addr, 1, io)
}

func (t *Table) MapDevice(addr uint8, dev *Device) {
	log.ModReg.DebugZ("mapping device").
		Hex8("addr", addr).
		Int("size", dev.Size).
		String("name", dev.Name).
		String("bus", t.Name).
		End()
	t.mapBus8(addr, dev.Size, dev)
}

func (t *Table) Unmap(begin, end uint8) {
	for i := int(begin); i <= int(end); i++ {
		t.table8[i] = nil
	}
}

// Mapped reports whether something other than the Unmapped fallback handles
// addr.
func (t *Table) Mapped(addr uint8) bool {
	return t.table8[addr] != nil
}

// Read8 searches in the table for the register mapped at the given address
// and forward the read to it.
func (t *Table) Read8(addr uint8, peek bool) uint8 {
	io := t.table8[addr]
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr, peek)
		}
		return 0
	}
	return io.Read8(addr, peek)
}

// Peek8 is a convenience function.
func (t *Table) Peek8(addr uint8) uint8 {
	return t.Read8(addr, true)
}

func (t *Table) Write8(addr uint8, val uint8) {
	io := t.table8[addr]
	if io == nil {
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
			return
		}
		log.ModReg.DebugZ("unmapped Write8").
			String("name", t.Name).
			Hex8("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	io.Write8(addr, val)
}

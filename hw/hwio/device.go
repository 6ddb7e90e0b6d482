package hwio

import "opll/emu/log"

// Device is a BankIO8 implementation that allows manual management of an entire
// range of registers.
type Device struct {
	Name  string // name of the register area (for debugging)
	Size  int    // number of addresses covered
	Flags RWFlags

	ReadCb  func(addr uint8) uint8
	PeekCb  func(addr uint8) uint8
	WriteCb func(addr uint8, val uint8)
}

func (d *Device) Read8(addr uint8, peek bool) uint8 {
	if peek {
		if d.PeekCb != nil {
			return d.PeekCb(addr)
		}
		return 0
	}
	switch {
	case d.Flags&WriteOnlyFlag != 0:
		log.ModReg.ErrorZ("invalid Read8 from writeonly device").
			String("name", d.Name).
			Hex8("addr", addr).
			End()
		fallthrough
	case d.ReadCb == nil:
		return 0
	}
	return d.ReadCb(addr)
}

func (d *Device) Write8(addr uint8, val uint8) {
	switch {
	case d.Flags&ReadOnlyFlag != 0:
		log.ModReg.ErrorZ("invalid Write8 to readonly device").
			String("name", d.Name).
			Hex8("addr", addr).
			End()
		fallthrough
	case d.WriteCb == nil:
		return
	}

	d.WriteCb(addr, val)
}

package ym2413

import (
	"fmt"
	"strings"
)

var userRegs = [8]string{
	"mod AM/PM/EG/KR/ML",
	"car AM/PM/EG/KR/ML",
	"mod KL/TL",
	"car KL, WF, FB",
	"mod AR/DR",
	"car AR/DR",
	"mod SL/RR",
	"car SL/RR",
}

// DescribeWrite returns a human readable description of the write of val
// into register addr.
func DescribeWrite(addr, val uint8) string {
	addr &= NumRegs - 1

	switch {
	case addr <= 0x07:
		return "user " + userRegs[addr]
	case addr == 0x0e:
		var keys []string
		for _, v := range keyOrder {
			if val&v.KeyBit() != 0 {
				keys = append(keys, v.String())
			}
		}
		mode := "off"
		if val&0x20 != 0 {
			mode = "on"
		}
		return fmt.Sprintf("rhythm %s keys=[%s]", mode, strings.Join(keys, " "))
	case addr == 0x0f:
		return "test"
	}

	ch := int(addr & 0x0f)
	if ch >= NumChannels {
		return "unused"
	}
	switch addr & 0xf0 {
	case 0x10:
		return fmt.Sprintf("ch%d fnum-lo=%d", ch, val)
	case 0x20:
		return fmt.Sprintf("ch%d fnum-hi=%d block=%d key=%t sus=%t",
			ch, val&1, val>>1&7, val&0x10 != 0, val&0x20 != 0)
	case 0x30:
		return fmt.Sprintf("ch%d inst=%d vol=%d", ch, val>>4, val&0x0f)
	}
	return "unused"
}

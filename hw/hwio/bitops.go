package hwio

func GetBit8(v uint8, n uint) bool {
	return GetBiti8(v, n) != 0
}

func GetBiti8(v uint8, n uint) uint8 {
	return v >> (n) & 0x01
}

// Bits8 extracts the field of width bits starting at bit lo.
func Bits8(v uint8, lo, width uint) uint8 {
	return (v >> lo) & (1<<width - 1)
}

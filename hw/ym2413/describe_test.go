package ym2413

import "testing"

func TestDescribeWrite(t *testing.T) {
	tests := []struct {
		addr, val uint8
		want      string
	}{
		{0x00, 0x21, "user mod AM/PM/EG/KR/ML"},
		{0x07, 0x17, "user car SL/RR"},
		{0x0e, 0x00, "rhythm off keys=[]"},
		{0x0e, 0x39, "rhythm on keys=[BD SD HH]"},
		{0x0f, 0x00, "test"},
		{0x10, 0xab, "ch0 fnum-lo=171"},
		{0x18, 0x01, "ch8 fnum-lo=1"},
		{0x19, 0x01, "unused"},
		{0x23, 0x39, "ch3 fnum-hi=1 block=4 key=true sus=true"},
		{0x25, 0x0a, "ch5 fnum-hi=0 block=5 key=false sus=false"},
		{0x37, 0x3c, "ch7 inst=3 vol=12"},
		{0x3f, 0x00, "unused"},
		{0x58, 0x00, "ch8 fnum-lo=0"},
		{0x08, 0x00, "unused"},
	}
	for _, tt := range tests {
		if got := DescribeWrite(tt.addr, tt.val); got != tt.want {
			t.Errorf("DescribeWrite(%#02x, %#02x) = %q, want %q", tt.addr, tt.val, got, tt.want)
		}
	}
}

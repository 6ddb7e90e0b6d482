package vgm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type write struct {
	block     int
	addr, val uint8
}

type recorder struct {
	block  int
	writes []write
}

func (r *recorder) WriteRegister(addr, val uint8) {
	r.writes = append(r.writes, write{r.block, addr, val})
}

// play runs p in blocks of n samples until it's over, at most max blocks.
func play(p *Player, n, max int) *recorder {
	r := &recorder{}
	for r.block = 0; r.block < max; r.block++ {
		if !p.Advance(r, n) {
			break
		}
	}
	return r
}

func TestPlayerTiming(t *testing.T) {
	f, err := Parse(newBuilder(simpleLog...).bytes())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		rate uint32
		want []write
	}{
		{
			rate: Rate,
			want: []write{{0, 0x30, 0x10}, {1, 0x10, 0x2c}, {75, 0x20, 0x19}},
		},
		{
			// Twice the rate, events land twice as far.
			rate: 2 * Rate,
			want: []write{{0, 0x30, 0x10}, {3, 0x10, 0x2c}, {151, 0x20, 0x19}},
		},
	}
	for _, tt := range tests {
		r := play(NewPlayer(f, tt.rate, 0), 10, 1000)
		if diff := cmp.Diff(tt.want, r.writes); diff != "" {
			t.Errorf("rate %d: writes mismatch (-want +got):\n%s", tt.rate, diff)
		}
	}
}

func TestPlayerEnd(t *testing.T) {
	f, err := Parse(newBuilder(simpleLog...).bytes())
	if err != nil {
		t.Fatal(err)
	}

	p := NewPlayer(f, Rate, 0)
	r := play(p, 100, 1000)
	// 755 samples: blocks 0 to 7 are needed, block 8 reports the end.
	if r.block != 8 {
		t.Errorf("player stopped at block %d, want 8", r.block)
	}
	if p.Advance(r, 100) {
		t.Errorf("Advance after the end returned true")
	}
}

func TestPlayerLoop(t *testing.T) {
	b := newBuilder(
		0x51, 0x30, 0x10,
		0x62,
		0x51, 0x20, 0x19, // loop point
		0x62,
		0x66,
	)
	b.loop = 4
	b.loopLen = 735
	f, err := Parse(b.bytes())
	if err != nil {
		t.Fatal(err)
	}
	if f.LoopIndex != 1 || f.LoopSample != 735 {
		t.Fatalf("loop at event %d sample %d, want 1 and 735", f.LoopIndex, f.LoopSample)
	}

	r := play(NewPlayer(f, Rate, 2), 735, 100)
	want := []write{
		{0, 0x30, 0x10},
		{1, 0x20, 0x19},
		{2, 0x20, 0x19},
		{3, 0x20, 0x19},
	}
	if diff := cmp.Diff(want, r.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
	if r.block != 4 {
		t.Errorf("player stopped at block %d, want 4", r.block)
	}
}

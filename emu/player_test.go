package emu

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/go-cmp/cmp"

	"opll/hw/ym2413"
)

type timedWrite struct {
	at        int
	addr, val uint8
}

// script is a Source playing writes at given sample positions, for length
// samples.
type script struct {
	writes []timedWrite
	length int

	pos  int
	next int
}

func (s *script) Advance(w Writer, n int) bool {
	end := s.pos + n
	for ; s.next < len(s.writes) && s.writes[s.next].at < end; s.next++ {
		w.WriteRegister(s.writes[s.next].addr, s.writes[s.next].val)
	}
	s.pos = end
	return end < s.length
}

type memOutput struct {
	samples []int16
	writes  int
	closed  bool

	err     error
	onWrite func(n int)
}

func (o *memOutput) Write(samples []int16) error {
	if o.err != nil {
		return o.err
	}
	o.samples = append(o.samples, samples...)
	o.writes++
	if o.onWrite != nil {
		o.onWrite(o.writes)
	}
	return nil
}

func (o *memOutput) Close() error {
	o.closed = true
	return nil
}

const nativeRate = 49716

func newChip(tb testing.TB) *ym2413.Chip {
	tb.Helper()
	c, err := ym2413.New(ym2413.ClockNTSC, nativeRate)
	if err != nil {
		tb.Fatal(err)
	}
	return c
}

var melody = []timedWrite{
	{0, 0x30, 0x00},
	{0, 0x10, 0x2c},
	{10, 0x20, 0x19},
	{500, 0x31, 0x30},
	{501, 0x11, 0x80},
	{503, 0x21, 0x1a},
	{1200, 0x20, 0x09},
}

func TestPlayerSampleAccurate(t *testing.T) {
	const frame = nativeRate / FramesPerSecond
	const length = 2 * frame

	out := &memOutput{}
	p := NewPlayer(newChip(t), out, nativeRate)
	if err := p.Run(context.Background(), &script{writes: melody, length: length}); err != nil {
		t.Fatal(err)
	}
	if p.Frames() != 2 {
		t.Fatalf("frames = %d, want 2", p.Frames())
	}

	ref := newChip(t)
	want := make([]int16, length)
	next := 0
	for i := range want {
		for ; next < len(melody) && melody[next].at <= i; next++ {
			ref.WriteRegister(melody[next].addr, melody[next].val)
		}
		want[i] = ref.Calc()
	}

	if diff := cmp.Diff(want, out.samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	if out.writes != 2 {
		t.Errorf("output writes = %d, want 2", out.writes)
	}
	if p.Stats().Count() != length {
		t.Errorf("stats count = %d, want %d", p.Stats().Count(), length)
	}
	if p.Stats().Peak() == 0 {
		t.Errorf("melody rendered silence")
	}
}

func TestPlayerResamples(t *testing.T) {
	const frame = nativeRate / FramesPerSecond

	out := &memOutput{}
	p := NewPlayer(newChip(t), out, 44100)
	if err := p.Run(context.Background(), &script{length: 60 * frame}); err != nil {
		t.Fatal(err)
	}

	want := 60 * frame * 44100 / nativeRate
	if got := len(out.samples); got < want-3 || got > want+3 {
		t.Errorf("got %d samples, want about %d", got, want)
	}
	if p.Stats().Count() != len(out.samples) {
		t.Errorf("stats count = %d, want %d", p.Stats().Count(), len(out.samples))
	}
	if p.Stats().Peak() != 0 {
		t.Errorf("peak = %d, want silence", p.Stats().Peak())
	}
}

func TestPlayerStop(t *testing.T) {
	var p *Player
	out := &memOutput{
		onWrite: func(n int) {
			if n == 3 {
				p.Stop()
			}
		},
	}
	p = NewPlayer(newChip(t), out, nativeRate)
	if err := p.Run(context.Background(), &script{length: 1 << 30}); err != nil {
		t.Fatal(err)
	}
	if p.Frames() != 3 {
		t.Errorf("frames = %d, want 3", p.Frames())
	}
}

func TestPlayerContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPlayer(newChip(t), nil, nativeRate)
	err := p.Run(ctx, &script{length: 1 << 30})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want %v", err, context.Canceled)
	}
	if p.Frames() != 0 {
		t.Errorf("frames = %d, want 0", p.Frames())
	}
}

func TestPlayerOutputError(t *testing.T) {
	errFull := errors.New("device full")
	p := NewPlayer(newChip(t), &memOutput{err: errFull}, nativeRate)

	err := p.Run(context.Background(), &script{length: 1 << 30})
	if !errors.Is(err, errFull) {
		t.Fatalf("Run() = %v, want %v", err, errFull)
	}
	if p.Frames() != 1 {
		t.Errorf("frames = %d, want 1", p.Frames())
	}
}

func TestPlayerWithoutOutput(t *testing.T) {
	const frame = nativeRate / FramesPerSecond

	p := NewPlayer(newChip(t), nil, nativeRate)
	for range 4 {
		if _, err := p.RunOneFrame(&script{length: 1 << 30}); err != nil {
			t.Fatal(err)
		}
	}
	if p.Stats().Count() != 4*frame {
		t.Errorf("stats count = %d, want %d", p.Stats().Count(), 4*frame)
	}
}

func TestWithTail(t *testing.T) {
	src := WithTail(&script{length: 10}, 5)

	var got []bool
	for range 18 {
		got = append(got, src.Advance(nil, 1))
	}

	want := []bool{
		true, true, true, true, true, true, true, true, true, true,
		true, true, true, true, false, false, false, false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Advance mismatch (-want +got):\n%s", diff)
	}
}

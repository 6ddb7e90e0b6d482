package emu

import (
	"context"
	"sync/atomic"

	"github.com/go-faster/errors"

	"opll/emu/log"
	"opll/hw/audio"
	"opll/hw/ym2413"
)

// FramesPerSecond is the number of frames a Player renders per second of
// chip output.
const FramesPerSecond = 60

// Writer is the register interface of the chip.
type Writer = interface {
	WriteRegister(addr, val uint8)
}

// Source produces the register writes that drive the chip: a VGM log, a
// song sequencer...
type Source interface {
	// Advance emits the register writes due before the next n samples. It
	// returns false when the source is finished.
	Advance(w Writer, n int) bool
}

type Output interface {
	Write(samples []int16) error
	Close() error
}

// Player renders a chip driven by a Source, frame by frame, into an Output.
type Player struct {
	chip  *ym2413.Chip
	out   Output
	rs    *audio.Resampler // nil when the chip runs at the output rate
	stats *audio.Stats

	frame  []int16
	outbuf []int16
	frames uint64

	// Accessed concurrently by the player loop and its controller.
	quit atomic.Bool
}

// NewPlayer returns a player rendering chip into out at outRate Hz. out may
// be nil, in which case samples are only accounted in the statistics.
func NewPlayer(chip *ym2413.Chip, out Output, outRate uint32) *Player {
	p := &Player{
		chip:  chip,
		out:   out,
		stats: audio.NewStats(),
		frame: make([]int16, max(chip.Rate()/FramesPerSecond, 1)),
	}
	if outRate != chip.Rate() {
		p.rs = audio.NewResampler(chip.Rate(), outRate)
	}

	log.ModEmu.InfoZ("player").
		Uint32("chip_rate", chip.Rate()).
		Uint32("out_rate", outRate).
		Int("frame", len(p.frame)).
		End()
	return p
}

// RunOneFrame renders one frame. Writes are applied at sample accuracy. It
// returns false once src is finished, the frame being rendered nonetheless.
func (p *Player) RunOneFrame(src Source) (bool, error) {
	more := true
	for i := range p.frame {
		if more {
			more = src.Advance(p.chip, 1)
		}
		p.frame[i] = p.chip.Calc()
	}
	p.frames++

	samples := p.frame
	if p.rs != nil {
		p.outbuf = p.rs.Resample(p.outbuf[:0], p.frame)
		samples = p.outbuf
	}
	p.stats.Add(samples)

	if p.out != nil {
		if err := p.out.Write(samples); err != nil {
			return false, errors.Wrapf(err, "frame %d", p.frames)
		}
	}
	return more, nil
}

// Run renders frames until src is finished, the context is done or Stop is
// called.
func (p *Player) Run(ctx context.Context, src Source) error {
	for !p.quit.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := p.RunOneFrame(src)
		if err != nil {
			return err
		}
		if !more {
			log.ModEmu.InfoZ("source finished").
				Uint64("frames", p.frames).
				End()
			return nil
		}
	}
	log.ModEmu.InfoZ("player stopped").
		Uint64("frames", p.frames).
		End()
	return nil
}

// Stop makes Run return after the current frame. Safe to call from any
// goroutine.
func (p *Player) Stop() { p.quit.Store(true) }

// Frames returns the number of frames rendered so far.
func (p *Player) Frames() uint64 { return p.frames }

// Stats returns the statistics of the output samples.
func (p *Player) Stats() *audio.Stats { return p.stats }

// AddLogContext adds the current frame number to log entries. Only register
// a player as log context when it's the only one running.
func (p *Player) AddLogContext(e *log.EntryZ) {
	e.Uint64("frame", p.frames)
}

type tail struct {
	src  Source
	done bool
	left int
}

// WithTail returns a source that keeps going for n samples after src is
// finished, letting released notes fade out.
func WithTail(src Source, n int) Source {
	return &tail{src: src, left: n}
}

func (t *tail) Advance(w Writer, n int) bool {
	if !t.done {
		t.done = !t.src.Advance(w, n)
		return true
	}
	t.left -= n
	return t.left > 0
}

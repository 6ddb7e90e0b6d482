package vgm

import "opll/emu/log"

// Writer receives register writes.
type Writer = interface {
	WriteRegister(addr, val uint8)
}

// Player replays the events of a File against a chip producing samples at
// an arbitrary rate.
type Player struct {
	file *File
	rate uint64

	pos   uint64 // chip samples rendered so far
	next  int    // next event
	base  uint64 // VGM position of the current pass start, grows with loops
	loops int    // remaining loops
}

// NewPlayer returns a player for f, for a chip running at rate Hz. loops is
// the number of times the looped section is replayed.
func NewPlayer(f *File, rate uint32, loops int) *Player {
	if f.LoopIndex < 0 {
		loops = 0
	}
	return &Player{file: f, rate: uint64(rate), loops: loops}
}

// at converts a VGM position to a chip sample position.
func (p *Player) at(sample uint64) uint64 {
	return (p.base + sample) * p.rate / Rate
}

// Position returns the number of chip samples rendered.
func (p *Player) Position() uint64 { return p.pos }

// Advance writes to w the events due before the end of the next n chip
// samples. It returns false once the log is over.
func (p *Player) Advance(w Writer, n int) bool {
	end := p.pos + uint64(n)
	f := p.file

	for {
		for p.next < len(f.Events) {
			ev := &f.Events[p.next]
			if p.at(ev.Sample) >= end {
				break
			}
			w.WriteRegister(ev.Addr, ev.Value)
			p.next++
		}
		if p.next < len(f.Events) || p.loops == 0 || p.at(f.Length) >= end {
			break
		}

		// Jump back to the loop point, the next pass starts where this one
		// ends.
		p.base += f.Length - f.LoopSample
		p.next = f.LoopIndex
		p.loops--
		log.ModVGM.DebugZ("loop").
			Int("remaining", p.loops).
			Uint64("pos", p.pos).
			End()
	}

	done := p.next >= len(f.Events) && p.pos >= p.at(f.Duration())
	p.pos = end
	return !done
}

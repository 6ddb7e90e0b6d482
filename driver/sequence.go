package driver

import (
	"cmp"
	"slices"
)

// Note is a note of a song, timed in beats.
type Note struct {
	Beat     float64
	Length   float64
	Key      int // MIDI note number
	Velocity float64
	Drum     bool
}

type event struct {
	at   uint64 // in samples
	on   bool
	note Note
}

// Sequencer plays a list of notes through a Synth, and a Rhythm when the
// song has drums. It drives a chip from sample count, as a VGM player does.
type Sequencer struct {
	program int
	drums   bool
	events  []event
	next    int
	pos     uint64

	synth  *Synth
	rhythm *Rhythm
	params []paramValue
}

type paramValue struct {
	id Param
	v  float64
}

// NewSequencer schedules notes at bpm beats per minute for a chip
// producing rate samples per second.
func NewSequencer(notes []Note, program int, bpm float64, rate uint32) *Sequencer {
	s := &Sequencer{program: program}

	spb := float64(rate) * 60 / bpm
	for _, n := range notes {
		s.drums = s.drums || n.Drum
		s.events = append(s.events,
			event{at: uint64(n.Beat * spb), on: true, note: n},
			event{at: uint64((n.Beat + n.Length) * spb), note: n},
		)
	}

	// Releases first, so that a note can be replayed right after.
	slices.SortStableFunc(s.events, func(a, b event) int {
		if c := cmp.Compare(a.at, b.at); c != 0 {
			return c
		}
		switch {
		case a.on == b.on:
			return 0
		case a.on:
			return 1
		}
		return -1
	})
	return s
}

func (s *Sequencer) bind(w Writer) {
	channels := 9
	if s.drums {
		channels = 6
		s.rhythm = NewRhythm(w)
	}
	s.synth = NewSynth(w, channels)
	s.synth.SetProgram(s.program)
	for _, p := range s.params {
		s.synth.SetParameter(p.id, p.v)
	}
}

// SetParameter sets a parameter of the synth. Before the first Advance, the
// value is kept and applied once the synth is created.
func (s *Sequencer) SetParameter(id Param, v float64) {
	if s.synth != nil {
		s.synth.SetParameter(id, v)
		return
	}
	s.params = append(s.params, paramValue{id, v})
}

// Advance writes to w the note events due before the end of the next n
// samples. It returns false once all notes have been released.
func (s *Sequencer) Advance(w Writer, n int) bool {
	if s.synth == nil {
		s.bind(w)
	}

	end := s.pos + uint64(n)
	for ; s.next < len(s.events) && s.events[s.next].at < end; s.next++ {
		ev := &s.events[s.next]
		switch {
		case ev.note.Drum && ev.on:
			s.rhythm.NoteOn(ev.note.Key, ev.note.Velocity)
		case ev.note.Drum:
			s.rhythm.NoteOff(ev.note.Key)
		case ev.on:
			s.synth.NoteOn(ev.note.Key, ev.note.Velocity)
		default:
			s.synth.NoteOff(ev.note.Key)
		}
	}
	s.pos = end
	return s.next < len(s.events)
}

// DemoSong returns 4 bars of arpeggios over a basic drum pattern.
func DemoSong() []Note {
	var notes []Note
	chords := [4][3]int{
		{57, 60, 64}, // Am
		{53, 57, 60}, // F
		{48, 52, 55}, // C
		{55, 59, 62}, // G
	}
	for bar, chord := range chords {
		base := float64(bar * 4)
		notes = append(notes, Note{Beat: base, Length: 4, Key: chord[0] - 12, Velocity: 0.8})
		for i := range 8 {
			notes = append(notes, Note{
				Beat:     base + float64(i)/2,
				Length:   0.45,
				Key:      chord[i%3] + 12*(i/3%2),
				Velocity: 0.7,
			})
		}
		for beat := range 4 {
			at := base + float64(beat)
			drum := 36
			if beat%2 == 1 {
				drum = 38
			}
			notes = append(notes,
				Note{Beat: at, Length: 0.25, Key: drum, Velocity: 1, Drum: true},
				Note{Beat: at + 0.5, Length: 0.25, Key: 42, Velocity: 0.6, Drum: true},
			)
		}
	}
	return notes
}

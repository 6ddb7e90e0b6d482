package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/go-faster/jx"

	"opll/driver"
	"opll/emu"
	"opll/hw/ym2413"
)

var rhythmNames = [3]string{"Bass Drum", "Hi-Hat/Snare", "Tom/Cymbal"}

func instrumentName(tones ym2413.ToneSet, num int) string {
	switch {
	case num >= 16:
		return rhythmNames[num-16]
	case tones == ym2413.ToneYM2413 || num == 0:
		return driver.ProgramName(num)
	}
	return fmt.Sprintf("Preset %d", num)
}

func runPresets(args Presets, cfg emu.Config) error {
	tones, err := ym2413.ParseToneSet(cfg.Chip.Tones)
	if err != nil {
		return err
	}

	out := args.Output.stdoutIfNil()
	defer out.Close()

	if args.JSON {
		return writePresetsJSON(out, tones)
	}
	return writePresetsText(out, tones)
}

func writePresetsText(w io.Writer, tones ym2413.ToneSet) error {
	fmt.Fprintf(w, "%s instruments\n", tones)
	for num := range ym2413.NumInstruments {
		inst := ym2413.DefaultInstrument(tones, num)
		dump := inst.Dump()
		fmt.Fprintf(w, "%2d %-16s % x\n", num, instrumentName(tones, num), dump[:8])
		for op, p := range inst {
			fmt.Fprintf(w, "     %s TL=%-2d FB=%d ML=%-2d AR=%-2d DR=%-2d SL=%-2d RR=%-2d KL=%d EG=%t KR=%t AM=%t PM=%t WF=%d\n",
				[2]string{"mod", "car"}[op],
				p.TL, p.FB, p.ML, p.AR, p.DR, p.SL, p.RR, p.KL, p.EG, p.KR, p.AM, p.PM, p.WF)
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func encodePatch(e *jx.Encoder, p ym2413.Patch) {
	e.Obj(func(e *jx.Encoder) {
		for _, f := range []struct {
			name string
			val  uint8
		}{
			{"tl", p.TL}, {"fb", p.FB}, {"ml", p.ML}, {"ar", p.AR},
			{"dr", p.DR}, {"sl", p.SL}, {"rr", p.RR}, {"kl", p.KL},
			{"wf", uint8(p.WF)},
		} {
			e.FieldStart(f.name)
			e.Int(int(f.val))
		}
		for _, f := range []struct {
			name string
			val  bool
		}{
			{"eg", p.EG}, {"kr", p.KR}, {"am", p.AM}, {"pm", p.PM},
		} {
			e.FieldStart(f.name)
			e.Bool(f.val)
		}
	})
}

func writePresetsJSON(w io.Writer, tones ym2413.ToneSet) error {
	var e jx.Encoder
	e.SetIdent(2)
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("tones")
		e.Str(tones.String())
		e.FieldStart("instruments")
		e.Arr(func(e *jx.Encoder) {
			for num := range ym2413.NumInstruments {
				inst := ym2413.DefaultInstrument(tones, num)
				dump := inst.Dump()
				e.Obj(func(e *jx.Encoder) {
					e.FieldStart("num")
					e.Int(num)
					e.FieldStart("name")
					e.Str(instrumentName(tones, num))
					e.FieldStart("dump")
					e.Str(hex.EncodeToString(dump[:]))
					e.FieldStart("modulator")
					encodePatch(e, inst[ym2413.Modulator])
					e.FieldStart("carrier")
					encodePatch(e, inst[ym2413.Carrier])
				})
			}
		})
	})
	e.RawStr("\n")
	_, err := e.WriteTo(w)
	return err
}

package main

import (
	"context"

	"github.com/go-faster/errors"

	"opll/driver"
	"opll/emu"
	"opll/emu/log"
	"opll/vgm"
)

// Seconds rendered after the end of the demo song.
const demoTail = 2

func runPlay(ctx context.Context, args Play, cfg emu.Config) error {
	var (
		src   emu.Source
		clock uint32
		file  *vgm.File
	)

	if args.Path != "" {
		f, err := vgm.ParseFile(args.Path)
		if err != nil {
			return err
		}
		file, clock = f, f.Clock
	}

	chip, err := newChip(cfg.Chip, clock)
	if err != nil {
		return err
	}

	if file != nil {
		src = vgm.NewPlayer(file, chip.Rate(), args.Loops)
	} else {
		program := cfg.Driver.Program
		if args.Program >= 0 {
			program = args.Program & 15
		}
		tempo := cfg.Driver.Tempo
		if args.Tempo > 0 {
			tempo = args.Tempo
		}
		log.ModDriver.InfoZ("demo song").
			String("program", driver.ProgramName(program)).
			Int("tempo", int(tempo)).
			End()

		seq := driver.NewSequencer(driver.DemoSong(), program, tempo, chip.Rate())
		seq.SetParameter(driver.ParamWheelRange, cfg.Driver.WheelRange/12)
		seq.SetParameter(driver.ParamFineTune, 0.5+cfg.Driver.FineTune/100)
		src = emu.WithTail(seq, demoTail*int(chip.Rate()))
	}

	var out emu.Output
	if cfg.Audio.DisableAudio {
		log.ModEmu.WarnZ("Audio disabled").End()
		out = newPacedOutput(cfg.Audio.SampleRate)
	} else {
		if out, err = openSDLOutput(cfg.Audio); err != nil {
			return err
		}
		log.ModEmu.InfoZ("Audio enabled").End()
	}
	defer out.Close()

	p := emu.NewPlayer(chip, out, cfg.Audio.SampleRate)
	log.AddContext(p)
	defer log.RemoveContext(p)

	if err := p.Run(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"opll/emu"
	"opll/emu/log"
	"opll/hw/ym2413"
)

const version = "0.1.0"

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case versionMode:
		fmt.Println("opll", version)
		return
	case presetsMode:
		cfg := cli.loadConfig()
		checkf(runPresets(cli.Presets, cfg), "failed to list presets")
		return
	case regsMode:
		checkf(runRegs(cli.Regs), "failed to print register log")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := cli.loadConfig()
	switch cli.mode {
	case renderMode:
		checkf(runRender(ctx, cli.Render, cfg), "render failed")
	case playMode:
		checkf(runPlay(ctx, cli.Play, cfg), "playback failed")
	}
}

// newChip returns a chip configured by cfg. A non-zero clock overrides the
// configured one, the chip then runs at its native rate unless a rate was
// configured explicitly.
func newChip(cfg emu.ChipConfig, clock uint32) (*ym2413.Chip, error) {
	rate := cfg.Rate
	if clock != 0 && clock != cfg.Clock {
		if rate == ym2413.NativeRate(cfg.Clock) {
			rate = ym2413.NativeRate(clock)
		}
	} else {
		clock = cfg.Clock
	}

	chip, err := ym2413.New(clock, rate)
	if err != nil {
		return nil, err
	}

	tones, err := ym2413.ParseToneSet(cfg.Tones)
	if err != nil {
		return nil, err
	}
	if tones != ym2413.ToneYM2413 {
		chip.ResetPatch(tones)
	}
	chip.SetMask(cfg.Mask)

	log.ModEmu.InfoZ("chip").
		Uint32("clock", clock).
		Uint32("rate", rate).
		Stringer("tones", tones).
		Hex32("mask", cfg.Mask).
		End()
	return chip, nil
}

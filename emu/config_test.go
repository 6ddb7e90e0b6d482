package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"opll/hw/ym2413"
)

func writeFile(tb testing.TB, content string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tb.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := writeFile(t, `
[chip]
tones = "vrc7"
mask = 0x1ff

[driver]
program = 7
`)
	cfg, err := LoadConfigOrDefault(path)
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultConfig()
	want.Chip.Tones = "vrc7"
	want.Chip.Mask = 0x1ff
	want.Driver.Program = 7
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeFile(t, "[chip\nclock = ")
	if _, err := LoadConfigOrDefault(path); err == nil {
		t.Fatal("LoadConfigOrDefault() succeeded on invalid TOML")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chip.Clock = ym2413.ClockMSX
	cfg.Chip.Rate = 44100
	cfg.Audio.DisableAudio = true
	cfg.Driver.WheelRange = 7
	cfg.Driver.FineTune = -12.5

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfigOrDefault(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigCheck(t *testing.T) {
	cfg := Config{
		Chip: ChipConfig{
			Clock: 10,
			Rate:  500,
			Tones: "sn76489",
			Mask:  0xffffffff,
		},
		Audio: AudioConfig{
			SampleRate: 1 << 20,
			BufferSize: 1000,
		},
		Driver: DriverConfig{
			Program:    19,
			WheelRange: 24,
			FineTune:   -80,
			Tempo:      -1,
		},
	}
	cfg.Check()

	want := DefaultConfig()
	want.Chip.Mask = ym2413.MaskAll
	want.Driver.Program = 3
	want.Driver.WheelRange = 12
	want.Driver.FineTune = -50
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigCheckKeepsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chip.Rate = 96000
	cfg.Audio.BufferSize = 512
	cfg.Chip.Tones = "vrc7"

	want := cfg
	cfg.Check()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

package emu

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"github.com/kirsle/configdir"

	"opll/emu/log"
	"opll/hw/ym2413"
)

type Config struct {
	Chip   ChipConfig   `toml:"chip"`
	Audio  AudioConfig  `toml:"audio"`
	Driver DriverConfig `toml:"driver"`
}

type ChipConfig struct {
	Clock uint32 `toml:"clock"`
	Rate  uint32 `toml:"rate"`
	Tones string `toml:"tones"`
	Mask  uint32 `toml:"mask"`
}

type AudioConfig struct {
	DisableAudio bool   `toml:"disable_audio"`
	SampleRate   uint32 `toml:"sample_rate"`
	BufferSize   int    `toml:"buffer_size"` // in samples
}

type DriverConfig struct {
	Program    int     `toml:"program"`
	WheelRange float64 `toml:"wheel_range"` // semitones
	FineTune   float64 `toml:"fine_tune"`   // cents
	Tempo      float64 `toml:"tempo"`       // beats per minute
}

func DefaultConfig() Config {
	return Config{
		Chip: ChipConfig{
			Clock: ym2413.ClockNTSC,
			Rate:  ym2413.NativeRate(ym2413.ClockNTSC),
			Tones: ym2413.ToneYM2413.String(),
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			BufferSize: 2048,
		},
		Driver: DriverConfig{
			Program:    3,
			WheelRange: 3,
			Tempo:      120,
		},
	}
}

// Check fixes invalid values, falling back to defaults.
func (cfg *Config) Check() {
	def := DefaultConfig()

	if cfg.Chip.Clock < 72 {
		log.ModEmu.Warnf("Invalid chip clock %d, fallback to %d", cfg.Chip.Clock, def.Chip.Clock)
		cfg.Chip.Clock = def.Chip.Clock
	}
	if cfg.Chip.Rate < ym2413.MinSampleRate || cfg.Chip.Rate > ym2413.MaxSampleRate {
		rate := ym2413.NativeRate(cfg.Chip.Clock)
		log.ModEmu.Warnf("Invalid chip rate %d, fallback to %d", cfg.Chip.Rate, rate)
		cfg.Chip.Rate = rate
	}
	if _, err := ym2413.ParseToneSet(cfg.Chip.Tones); err != nil {
		log.ModEmu.Warnf("Invalid tone set %q, fallback to %q", cfg.Chip.Tones, def.Chip.Tones)
		cfg.Chip.Tones = def.Chip.Tones
	}
	cfg.Chip.Mask &= ym2413.MaskAll

	if cfg.Audio.SampleRate < ym2413.MinSampleRate || cfg.Audio.SampleRate > ym2413.MaxSampleRate {
		log.ModEmu.Warnf("Invalid audio sample rate %d, fallback to %d", cfg.Audio.SampleRate, def.Audio.SampleRate)
		cfg.Audio.SampleRate = def.Audio.SampleRate
	}
	if cfg.Audio.BufferSize <= 0 || cfg.Audio.BufferSize&(cfg.Audio.BufferSize-1) != 0 {
		log.ModEmu.Warnf("Audio buffer size must be a power of 2, got %d, fallback to %d", cfg.Audio.BufferSize, def.Audio.BufferSize)
		cfg.Audio.BufferSize = def.Audio.BufferSize
	}

	cfg.Driver.Program &= 15
	cfg.Driver.WheelRange = min(max(cfg.Driver.WheelRange, 0), 12)
	cfg.Driver.FineTune = min(max(cfg.Driver.FineTune, -50), 50)
	if cfg.Driver.Tempo <= 0 {
		cfg.Driver.Tempo = def.Driver.Tempo
	}
}

var ConfigDir = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("opll")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// DefaultConfigPath returns the path of the configuration file in the opll
// config directory.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), cfgFilename)
}

// LoadConfigOrDefault loads the configuration at path. Keys absent from the
// file keep their default value, a missing file gives the default
// configuration.
func LoadConfigOrDefault(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return DefaultConfig(), errors.Wrapf(err, "config %s", path)
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.WarnZ("unknown config key").
			String("key", key.String()).
			String("file", path).
			End()
	}

	cfg.Check()
	return cfg, nil
}

// SaveConfig writes cfg to path.
func SaveConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

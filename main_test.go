package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"

	"opll/emu"
	"opll/emu/log"
	"opll/hw/ym2413"
)

func init() {
	log.Disable()
}

// writeVGM writes a version 1.50 VGM log of the given commands, followed by
// a one second wait and the end of data command.
func writeVGM(tb testing.TB, name string, cmds ...byte) string {
	tb.Helper()

	buf := make([]byte, 0x40)
	copy(buf, "Vgm ")
	le := binary.LittleEndian
	le.PutUint32(buf[0x08:], 0x150)
	le.PutUint32(buf[0x10:], ym2413.ClockNTSC)
	le.PutUint32(buf[0x18:], 44100)
	le.PutUint32(buf[0x34:], 0x40-0x34)

	buf = append(buf, cmds...)
	buf = append(buf, 0x61, 0x44, 0xac, 0x66)
	le.PutUint32(buf[0x04:], uint32(len(buf)-0x04))

	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		tb.Fatal(err)
	}
	return path
}

var tune = []byte{
	0x51, 0x30, 0x00,
	0x51, 0x10, 0x2c,
	0x51, 0x20, 0x19,
}

func TestRenderAll(t *testing.T) {
	paths := []string{
		writeVGM(t, "a.vgm", tune...),
		writeVGM(t, "silent.vgm"),
		writeVGM(t, "b.vgm", tune...),
	}

	cfg := emu.DefaultConfig()
	results, err := renderAll(context.Background(), paths, 0, cfg.Chip)
	if err != nil {
		t.Fatal(err)
	}

	frame := int(ym2413.NativeRate(ym2413.ClockNTSC)) / emu.FramesPerSecond
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("results[%d] is for %s, want %s", i, r.Path, paths[i])
		}
		if r.Rate != 49716 || r.Clock != ym2413.ClockNTSC {
			t.Errorf("%s rendered at %d Hz clock %d", r.Path, r.Rate, r.Clock)
		}
		if r.Samples < 49716 || r.Samples > 49716+frame {
			t.Errorf("%s: %d samples, want one second", r.Path, r.Samples)
		}
	}

	if results[1].Peak != 0 {
		t.Errorf("silent log peak = %d, want 0", results[1].Peak)
	}
	if results[0].Peak == 0 {
		t.Errorf("tune rendered silence")
	}
	if results[0].CRC32 != results[2].CRC32 {
		t.Errorf("same log rendered differently: crc32 %08x and %08x", results[0].CRC32, results[2].CRC32)
	}
	if results[0].CRC32 == results[1].CRC32 {
		t.Errorf("tune and silence have the same crc32")
	}
}

func TestRenderAllMissingFile(t *testing.T) {
	paths := []string{
		writeVGM(t, "a.vgm", tune...),
		filepath.Join(t.TempDir(), "missing.vgm"),
	}
	if _, err := renderAll(context.Background(), paths, 0, emu.DefaultConfig().Chip); err == nil {
		t.Fatal("renderAll() succeeded with a missing file")
	}
}

func TestWriteResultsJSON(t *testing.T) {
	results := []renderResult{
		{Path: "a.vgm", Clock: ym2413.ClockNTSC, Rate: 49716, Samples: 49716, Peak: 1200, RMS: 33.5, CRC32: 0xcafe},
	}

	var buf bytes.Buffer
	if err := writeResultsJSON(&buf, results); err != nil {
		t.Fatal(err)
	}

	got := map[string]string{}
	floats := map[string]float64{}
	d := jx.DecodeBytes(buf.Bytes())
	err := d.Arr(func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key == "seconds" || key == "rms" {
				f, err := d.Float64()
				floats[key] = f
				return err
			}
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			got[key] = raw.String()
			return nil
		})
	})
	if err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	want := map[string]string{
		"file":    `"a.vgm"`,
		"clock":   "3579545",
		"rate":    "49716",
		"samples": "49716",
		"peak":    "1200",
		"crc32":   `"0000cafe"`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]float64{"seconds": 1, "rms": 33.5}, floats); diff != "" {
		t.Errorf("JSON float fields mismatch (-want +got):\n%s", diff)
	}
}

func TestPresets(t *testing.T) {
	var buf bytes.Buffer
	if err := writePresetsText(&buf, ym2413.ToneYM2413); err != nil {
		t.Fatal(err)
	}
	text := buf.String()
	for _, name := range []string{"Violin", "Electric Guitar", "Bass Drum", "Tom/Cymbal"} {
		if !strings.Contains(text, name) {
			t.Errorf("presets listing lacks %q", name)
		}
	}

	buf.Reset()
	if err := writePresetsJSON(&buf, ym2413.ToneVRC7); err != nil {
		t.Fatal(err)
	}
	if !jx.Valid(buf.Bytes()) {
		t.Fatalf("invalid JSON:\n%s", buf.String())
	}

	var dumps []string
	d := jx.DecodeBytes(buf.Bytes())
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "instruments" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "dump" {
					return d.Skip()
				}
				s, err := d.Str()
				dumps = append(dumps, s)
				return err
			})
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(dumps) != ym2413.NumInstruments {
		t.Fatalf("got %d instruments, want %d", len(dumps), ym2413.NumInstruments)
	}
	for num, dump := range dumps {
		inst := ym2413.DefaultInstrument(ym2413.ToneVRC7, num).Dump()
		if want := hexDump(inst[:]); dump != want {
			t.Errorf("instrument %d dump = %s, want %s", num, dump, want)
		}
	}
}

func hexDump(b []byte) string {
	const digits = "0123456789abcdef"
	var sb strings.Builder
	for _, c := range b {
		sb.WriteByte(digits[c>>4])
		sb.WriteByte(digits[c&15])
	}
	return sb.String()
}

func TestInstrumentName(t *testing.T) {
	tests := []struct {
		tones ym2413.ToneSet
		num   int
		want  string
	}{
		{ym2413.ToneYM2413, 0, "User"},
		{ym2413.ToneYM2413, 3, "Piano"},
		{ym2413.ToneYM2413, 17, "Hi-Hat/Snare"},
		{ym2413.ToneVRC7, 0, "User"},
		{ym2413.ToneVRC7, 3, "Preset 3"},
		{ym2413.ToneVRC7, 16, "Bass Drum"},
	}
	for _, tt := range tests {
		if got := instrumentName(tt.tones, tt.num); got != tt.want {
			t.Errorf("instrumentName(%s, %d) = %q, want %q", tt.tones, tt.num, got, tt.want)
		}
	}
}

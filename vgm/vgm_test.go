package vgm

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/go-cmp/cmp"
)

type vgmBuilder struct {
	version uint32
	clock   uint32
	total   uint32
	loop    int // offset in cmds of the loop point, -1 for none
	loopLen uint32
	cmds    []byte
}

func (b vgmBuilder) bytes() []byte {
	hdr := make([]byte, 0x40)
	le := binary.LittleEndian
	copy(hdr, "Vgm ")
	le.PutUint32(hdr[0x04:], uint32(0x40+len(b.cmds)-4))
	le.PutUint32(hdr[0x08:], b.version)
	le.PutUint32(hdr[0x10:], b.clock)
	le.PutUint32(hdr[0x18:], b.total)
	if b.loop >= 0 {
		le.PutUint32(hdr[0x1c:], uint32(0x40+b.loop-0x1c))
		le.PutUint32(hdr[0x20:], b.loopLen)
	}
	if b.version >= 0x150 {
		le.PutUint32(hdr[0x34:], 0x40-0x34)
	}
	return append(hdr, b.cmds...)
}

func newBuilder(cmds ...byte) vgmBuilder {
	return vgmBuilder{version: 0x150, clock: 3579545, loop: -1, cmds: cmds}
}

var simpleLog = []byte{
	0x51, 0x30, 0x10,
	0x61, 0x10, 0x00, // wait 16
	0x51, 0x10, 0x2c,
	0x62,             // wait 735
	0x50, 0x9f,       // SN76489
	0x52, 0x28, 0x00, // YM2612
	0x73,             // wait 4
	0x51, 0x20, 0x19,
	0x66,
	0x51, 0x20, 0x00, // past the end
}

func TestParse(t *testing.T) {
	f, err := Parse(newBuilder(simpleLog...).bytes())
	if err != nil {
		t.Fatal(err)
	}

	want := []Event{
		{Sample: 0, Addr: 0x30, Value: 0x10},
		{Sample: 16, Addr: 0x10, Value: 0x2c},
		{Sample: 755, Addr: 0x20, Value: 0x19},
	}
	if diff := cmp.Diff(want, f.Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if f.Length != 755 {
		t.Errorf("Length = %d, want 755", f.Length)
	}
	if f.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", f.Skipped)
	}
	if f.Clock != 3579545 || f.DualChip {
		t.Errorf("Clock = %d dual %t, want 3579545", f.Clock, f.DualChip)
	}
	if f.LoopIndex != -1 {
		t.Errorf("LoopIndex = %d, want -1", f.LoopIndex)
	}
}

func TestParseGzip(t *testing.T) {
	raw := newBuilder(simpleLog...).bytes()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	want, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vgz mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInvalidHeader(t *testing.T) {
	good := newBuilder(0x66).bytes()

	badIdent := bytes.Clone(good)
	copy(badIdent, "Vgx ")

	badOffset := bytes.Clone(good)
	binary.LittleEndian.PutUint32(badOffset[0x34:], 0x1000)

	tests := map[string][]byte{
		"empty":    nil,
		"short":    good[:0x20],
		"ident":    badIdent,
		"offset":   badOffset,
		"bad gzip": {0x1f, 0x8b, 0x00},
		"not gzip": []byte("hello"),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(data)
			if err == nil {
				t.Fatal("expected an error")
			}
			if name != "bad gzip" && !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("got %v, want ErrInvalidHeader", err)
			}
		})
	}
}

func TestParseTruncated(t *testing.T) {
	tests := map[string][]byte{
		"write":      {0x51, 0x30},
		"wait":       {0x61, 0x10},
		"data block": {0x67, 0x66, 0x00, 0x10, 0x00, 0x00, 0x00, 0x01, 0x02},
		"other chip": {0xc0, 0x00},
		"seek":       {0xe0, 0x00, 0x00},
	}
	for name, cmds := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(newBuilder(cmds...).bytes())
			if !errors.Is(err, ErrTruncated) {
				t.Errorf("got %v, want ErrTruncated", err)
			}
		})
	}
}

func TestParseSkipsOtherCommands(t *testing.T) {
	cmds := []byte{
		// data block
		0x67, 0x66, 0x00, 0x03, 0x00, 0x00, 0x00, 0x51, 0x51, 0x51,
		// DAC stream setup and start
		0x90, 0x00, 0x02, 0x00, 0x2a,
		0x93, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		// PCM RAM write
		0x68, 0x66, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		// AY-3-8910
		0xa0, 0x07, 0x38,
		// YM2612 DAC write, wait 5
		0x85,
		0x51, 0x0e, 0x20,
		0x66,
	}
	f, err := Parse(newBuilder(cmds...).bytes())
	if err != nil {
		t.Fatal(err)
	}
	want := []Event{{Sample: 5, Addr: 0x0e, Value: 0x20}}
	if diff := cmp.Diff(want, f.Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if f.Skipped != 6 {
		t.Errorf("Skipped = %d, want 6", f.Skipped)
	}
}

func TestParseOldVersion(t *testing.T) {
	b := newBuilder(0x51, 0x30, 0x10, 0x66)
	b.version = 0x110
	data := b.bytes()
	// Only meaningful from 1.50 on.
	binary.LittleEndian.PutUint32(data[0x34:], 0xdeadbeef)

	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if f.DataOffset != 0x40 || len(f.Events) != 1 {
		t.Errorf("DataOffset = %#x events %d, want 0x40 and 1", f.DataOffset, len(f.Events))
	}
}

func TestParseHeader(t *testing.T) {
	b := newBuilder(0x51, 0x30, 0x10, 0x62, 0x51, 0x20, 0x19, 0x62, 0x66)
	b.clock = 3579545 | dualChip
	b.total = 2000
	b.loop = 3
	b.loopLen = 1470
	f, err := Parse(b.bytes())
	if err != nil {
		t.Fatal(err)
	}

	want := Header{
		Version:      0x150,
		Clock:        3579545,
		DualChip:     true,
		TotalSamples: 2000,
		LoopOffset:   0x43,
		LoopSamples:  1470,
		DataOffset:   0x40,
	}
	if diff := cmp.Diff(want, f.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if f.LoopIndex != 1 || f.LoopSample != 0 {
		t.Errorf("loop at event %d sample %d, want 1 and 0", f.LoopIndex, f.LoopSample)
	}
	if f.Duration() != 2000 {
		t.Errorf("Duration() = %d, want 2000", f.Duration())
	}
}

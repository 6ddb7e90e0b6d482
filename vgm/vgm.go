// Package vgm reads YM2413 register logs from VGM and VGZ files.
package vgm

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"

	"github.com/go-faster/errors"

	"opll/emu/log"
)

// Rate of the VGM timebase: all positions and waits are in 44100 Hz samples.
const Rate = 44100

const (
	headerSize    = 0x40
	ident         = "Vgm "
	defaultOffset = 0x40
	dualChip      = 1 << 30
)

var (
	ErrInvalidHeader = errors.New("invalid vgm header")
	ErrTruncated     = errors.New("truncated vgm command")
)

// Header holds the fields of the VGM header relevant to a YM2413 log.
type Header struct {
	Version      uint32 // BCD, 0x150 for 1.50
	Clock        uint32 // YM2413 clock, 0 when the log has no YM2413
	DualChip     bool
	TotalSamples uint32
	LoopOffset   uint32 // absolute file offset of the loop point, 0 if none
	LoopSamples  uint32
	DataOffset   uint32 // absolute file offset of the command stream
}

// Event is a write of Value to register Addr, at position Sample.
type Event struct {
	Sample uint64
	Addr   uint8
	Value  uint8
}

type File struct {
	Header
	Events []Event

	// Length of the log in samples, trailing waits included.
	Length uint64

	// Index of the first event after the loop point and sample position of
	// the loop point. LoopIndex is -1 when the file does not loop.
	LoopIndex  int
	LoopSample uint64

	// Number of commands for other chips that have been skipped.
	Skipped int
}

// ParseFile reads and parses a .vgm or .vgz file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return f, nil
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

func gunzip(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "vgz")
	}
	defer gz.Close()

	out, err := io.ReadAll(gz)
	if err != nil {
		return nil, errors.Wrap(err, "vgz")
	}
	return out, nil
}

// Parse decodes a VGM log, gzip compressed or not.
func Parse(data []byte) (*File, error) {
	if isGzip(data) {
		var err error
		if data, err = gunzip(data); err != nil {
			return nil, err
		}
	}

	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	f := &File{Header: hdr, LoopIndex: -1}
	if err := f.parseCommands(data); err != nil {
		return nil, err
	}

	log.ModVGM.InfoZ("parsed").
		Hex32("version", f.Version).
		Uint32("clock", f.Clock).
		Int("events", len(f.Events)).
		Int("skipped", f.Skipped).
		Int("loop", f.LoopIndex).
		End()
	return f, nil
}

func parseHeader(data []byte) (Header, error) {
	var hdr Header
	if len(data) < headerSize {
		return hdr, errors.Wrapf(ErrInvalidHeader, "%d bytes", len(data))
	}
	if string(data[:4]) != ident {
		return hdr, errors.Wrapf(ErrInvalidHeader, "ident %q", data[:4])
	}

	le := binary.LittleEndian
	hdr.Version = le.Uint32(data[0x08:])
	clock := le.Uint32(data[0x10:])
	hdr.Clock = clock &^ dualChip
	hdr.DualChip = clock&dualChip != 0
	hdr.TotalSamples = le.Uint32(data[0x18:])
	if off := le.Uint32(data[0x1c:]); off != 0 {
		hdr.LoopOffset = 0x1c + off
	}
	hdr.LoopSamples = le.Uint32(data[0x20:])

	hdr.DataOffset = defaultOffset
	if hdr.Version >= 0x150 {
		if off := le.Uint32(data[0x34:]); off != 0 {
			hdr.DataOffset = 0x34 + off
		}
	}
	if int(hdr.DataOffset) > len(data) {
		return hdr, errors.Wrapf(ErrInvalidHeader, "data offset %#x past end of file (%#x)", hdr.DataOffset, len(data))
	}
	return hdr, nil
}

// Total length in bytes of commands that only need to be skipped, by opcode
// range.
func commandSize(cmd uint8) int {
	switch {
	case cmd >= 0x30 && cmd <= 0x3f, cmd == 0x4f, cmd == 0x50, cmd == 0x94:
		return 2
	case cmd >= 0x40 && cmd <= 0x4e, cmd >= 0x52 && cmd <= 0x5f, cmd >= 0xa0 && cmd <= 0xbf:
		return 3
	case cmd >= 0xc0 && cmd <= 0xdf:
		return 4
	case cmd == 0x90, cmd == 0x91, cmd == 0x95, cmd >= 0xe0:
		return 5
	case cmd == 0x92:
		return 6
	case cmd == 0x93:
		return 11
	case cmd == 0x68:
		return 12
	}
	return 0
}

func (f *File) parseCommands(data []byte) error {
	var pos uint64
	le := binary.LittleEndian

	need := func(i, n int) error {
		if i+n > len(data) {
			return errors.Wrapf(ErrTruncated, "command %#02x at %#x", data[i], i)
		}
		return nil
	}

	i := int(f.DataOffset)
	for i < len(data) {
		if f.LoopOffset != 0 && f.LoopIndex < 0 && uint32(i) >= f.LoopOffset {
			f.LoopIndex = len(f.Events)
			f.LoopSample = pos
		}

		cmd := data[i]
		switch {
		case cmd == 0x51:
			if err := need(i, 3); err != nil {
				return err
			}
			f.Events = append(f.Events, Event{Sample: pos, Addr: data[i+1], Value: data[i+2]})
			i += 3

		case cmd == 0x61:
			if err := need(i, 3); err != nil {
				return err
			}
			pos += uint64(le.Uint16(data[i+1:]))
			i += 3
		case cmd == 0x62:
			pos += 735
			i++
		case cmd == 0x63:
			pos += 882
			i++
		case cmd&0xf0 == 0x70:
			pos += uint64(cmd&0x0f) + 1
			i++
		case cmd&0xf0 == 0x80:
			// YM2612 DAC write and wait.
			pos += uint64(cmd & 0x0f)
			i++
			f.Skipped++

		case cmd == 0x66:
			f.Length = pos
			return nil

		case cmd == 0x67:
			if err := need(i, 7); err != nil {
				return err
			}
			size := le.Uint32(data[i+3:]) & 0x7fffffff
			if err := need(i, 7+int(size)); err != nil {
				return err
			}
			i += 7 + int(size)
			f.Skipped++

		default:
			n := commandSize(cmd)
			if n == 0 {
				log.ModVGM.WarnZ("unknown command").
					Hex8("cmd", cmd).
					Int("offset", i).
					End()
				n = 1
			}
			if err := need(i, n); err != nil {
				return err
			}
			i += n
			f.Skipped++
		}
	}

	// No end command.
	f.Length = pos
	return nil
}

// Duration returns the length of the log in samples, taking the header
// total into account when it's longer than the command stream.
func (f *File) Duration() uint64 {
	return max(f.Length, uint64(f.TotalSamples))
}

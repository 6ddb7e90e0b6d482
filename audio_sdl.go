package main

import (
	"time"
	"unsafe"

	"github.com/go-faster/errors"
	"github.com/veandco/go-sdl2/sdl"

	"opll/emu"
	"opll/emu/log"
)

const (
	audioFormat   = sdl.AUDIO_S16LSB
	audioChannels = 1
)

// sdlOutput queues samples to an SDL audio device. Write blocks while more
// than 2 device buffers are queued, which paces the player in real time.
type sdlOutput struct {
	dev       sdl.AudioDeviceID
	maxQueued uint32 // in bytes
}

func openSDLOutput(cfg emu.AudioConfig) (*sdlOutput, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, errors.Wrap(err, "init audio")
	}

	want := sdl.AudioSpec{
		Freq:     int32(cfg.SampleRate),
		Format:   audioFormat,
		Channels: audioChannels,
		Samples:  uint16(cfg.BufferSize),
	}
	var have sdl.AudioSpec
	dev, err := sdl.OpenAudioDevice("", false, &want, &have, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return nil, errors.Wrap(err, "open audio device")
	}

	log.ModSound.InfoZ("audio device").
		Int("freq", int(have.Freq)).
		Uint16("samples", have.Samples).
		End()

	sdl.PauseAudioDevice(dev, false)
	return &sdlOutput{
		dev:       dev,
		maxQueued: uint32(have.Samples) * 2 * 2,
	}, nil
}

func (o *sdlOutput) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	// SDL copies the buffer.
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*2)
	if err := sdl.QueueAudio(o.dev, buf); err != nil {
		return errors.Wrap(err, "queue audio")
	}
	for sdl.GetQueuedAudioSize(o.dev) > o.maxQueued {
		time.Sleep(time.Millisecond)
	}
	return nil
}

// Close lets the queued samples play, then closes the device.
func (o *sdlOutput) Close() error {
	for sdl.GetQueuedAudioSize(o.dev) > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	sdl.CloseAudioDevice(o.dev)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
	return nil
}

// pacedOutput discards samples at the rate an audio device would consume
// them.
type pacedOutput struct {
	rate  time.Duration
	start time.Time
	count int64
}

func newPacedOutput(rate uint32) *pacedOutput {
	return &pacedOutput{rate: time.Duration(rate), start: time.Now()}
}

func (o *pacedOutput) Write(samples []int16) error {
	o.count += int64(len(samples))
	due := o.start.Add(time.Duration(o.count) * time.Second / o.rate)
	time.Sleep(time.Until(due))
	return nil
}

func (o *pacedOutput) Close() error { return nil }

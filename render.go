package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"opll/emu"
	"opll/emu/log"
	"opll/vgm"
)

type renderResult struct {
	Path    string
	Clock   uint32
	Rate    uint32
	Samples int
	Peak    int
	RMS     float64
	CRC32   uint32
	Elapsed time.Duration
}

func (r *renderResult) Seconds() float64 {
	return float64(r.Samples) / float64(r.Rate)
}

// renderFile plays a VGM file headless, at the chip rate.
func renderFile(ctx context.Context, path string, loops int, cfg emu.ChipConfig) (renderResult, error) {
	start := time.Now()

	f, err := vgm.ParseFile(path)
	if err != nil {
		return renderResult{}, err
	}
	chip, err := newChip(cfg, f.Clock)
	if err != nil {
		return renderResult{}, errors.Wrapf(err, "%s", path)
	}

	p := emu.NewPlayer(chip, nil, chip.Rate())
	if err := p.Run(ctx, vgm.NewPlayer(f, chip.Rate(), loops)); err != nil {
		return renderResult{}, errors.Wrapf(err, "%s", path)
	}

	st := p.Stats()
	return renderResult{
		Path:    path,
		Clock:   chip.Clock(),
		Rate:    chip.Rate(),
		Samples: st.Count(),
		Peak:    st.Peak(),
		RMS:     st.RMS(),
		CRC32:   st.Sum32(),
		Elapsed: time.Since(start),
	}, nil
}

// renderAll renders each file with its own chip, concurrently.
func renderAll(ctx context.Context, paths []string, loops int, cfg emu.ChipConfig) ([]renderResult, error) {
	results := make([]renderResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		g.Go(func() error {
			res, err := renderFile(ctx, path, loops, cfg)
			if err != nil {
				return err
			}
			log.ModEmu.InfoZ("rendered").
				String("file", path).
				Duration("elapsed", res.Elapsed).
				End()
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runRender(ctx context.Context, args Render, cfg emu.Config) error {
	results, err := renderAll(ctx, args.Paths, args.Loops, cfg.Chip)
	if err != nil {
		return err
	}

	out := args.Output.stdoutIfNil()
	defer out.Close()

	if args.JSON {
		return writeResultsJSON(out, results)
	}
	return writeResultsText(out, results)
}

func writeResultsText(w io.Writer, results []renderResult) error {
	for _, r := range results {
		_, err := fmt.Fprintf(w, "%s\n\tclock %d Hz, rate %d Hz, %d samples (%.2fs)\n\tpeak %d, rms %.2f, crc32 %08x\n",
			r.Path, r.Clock, r.Rate, r.Samples, r.Seconds(), r.Peak, r.RMS, r.CRC32)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeResultsJSON(w io.Writer, results []renderResult) error {
	var e jx.Encoder
	e.SetIdent(2)
	e.Arr(func(e *jx.Encoder) {
		for _, r := range results {
			e.Obj(func(e *jx.Encoder) {
				e.FieldStart("file")
				e.Str(r.Path)
				e.FieldStart("clock")
				e.Int64(int64(r.Clock))
				e.FieldStart("rate")
				e.Int64(int64(r.Rate))
				e.FieldStart("samples")
				e.Int(r.Samples)
				e.FieldStart("seconds")
				e.Float64(r.Seconds())
				e.FieldStart("peak")
				e.Int(r.Peak)
				e.FieldStart("rms")
				e.Float64(r.RMS)
				e.FieldStart("crc32")
				e.Str(fmt.Sprintf("%08x", r.CRC32))
			})
		}
	})
	e.RawStr("\n")
	_, err := e.WriteTo(w)
	return err
}

package main

import (
	"bufio"
	"fmt"

	"opll/hw/ym2413"
	"opll/vgm"
)

func runRegs(args Regs) error {
	f, err := vgm.ParseFile(args.Path)
	if err != nil {
		return err
	}

	out := args.Output.stdoutIfNil()
	defer out.Close()

	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "# version %x, clock %d Hz, %d writes, %d samples, %d skipped commands\n",
		f.Version, f.Clock, len(f.Events), f.Duration(), f.Skipped)
	for i, ev := range f.Events {
		if i == f.LoopIndex {
			fmt.Fprintf(w, "# loop (%d samples)\n", f.LoopSamples)
		}
		fmt.Fprintf(w, "%10d  %02x=%02x  %s\n", ev.Sample, ev.Addr, ev.Value, ym2413.DescribeWrite(ev.Addr, ev.Value))
	}
	return w.Flush()
}

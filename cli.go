package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"opll/emu"
	"opll/emu/log"
	"opll/hw/ym2413"
)

type mode byte

const (
	playMode    mode = iota // Play a VGM file or the demo song
	renderMode              // Render files headless
	presetsMode             // List factory instruments
	regsMode                // Print a VGM register log
	versionMode             // Show opll version
)

type (
	CLI struct {
		Play    Play    `cmd:"" help:"Play a VGM file, or the demo song, on the audio device. (default command)" default:"withargs"`
		Render  Render  `cmd:"" help:"Render files headless and print sample statistics."`
		Presets Presets `cmd:"" help:"List the factory instruments."`
		Regs    Regs    `cmd:"" help:"Print the decoded register writes of a VGM file."`
		Version Version `cmd:"" help:"Show opll version."`

		Config string     `name:"config" help:"${config_help}" type:"path" placeholder:"FILE"`
		Clock  uint32     `name:"clock" help:"Chip clock in Hz."`
		Rate   uint32     `name:"rate" help:"Chip sample rate in Hz."`
		Tones  string     `name:"tones" help:"Factory tone set (ym2413 or vrc7)."`
		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Play struct {
		Path    string  `arg:"" name:"/path/to/vgm" help:"${vgmpath_help}" optional:"" type:"existingfile"`
		Loops   int     `name:"loops" help:"Number of times the looped section is replayed." default:"1"`
		Program int     `name:"program" help:"Demo song instrument (0-15), overrides the configuration." default:"-1"`
		Tempo   float64 `name:"tempo" help:"Demo song tempo in beats per minute, overrides the configuration."`
	}

	Render struct {
		Paths  []string `arg:"" name:"/path/to/vgm" help:"VGM or VGZ files." type:"existingfile"`
		Loops  int      `name:"loops" help:"Number of times the looped section is replayed." default:"0"`
		JSON   bool     `name:"json" help:"Print JSON."`
		Output *outfile `name:"output" short:"o" help:"Write to file." placeholder:"FILE|stdout|stderr"`
	}

	Presets struct {
		JSON   bool     `name:"json" help:"Print JSON."`
		Output *outfile `name:"output" short:"o" help:"Write to file." placeholder:"FILE|stdout|stderr"`
	}

	Regs struct {
		Path   string   `arg:"" name:"/path/to/vgm" type:"existingfile"`
		Output *outfile `name:"output" short:"o" help:"Write to file." placeholder:"FILE|stdout|stderr"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"vgmpath_help": "VGM or VGZ file to play. Without it, play the demo song.",
	"config_help":  "Configuration file. (default: config.toml in the user config directory)",
	"log_help":     "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("opll"),
		kong.Description("YM2413 (OPLL) FM synthesizer emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch {
	case strings.HasPrefix(ctx.Command(), "render"):
		cfg.mode = renderMode
	case ctx.Command() == "presets":
		cfg.mode = presetsMode
	case strings.HasPrefix(ctx.Command(), "regs"):
		cfg.mode = regsMode
	case ctx.Command() == "version":
		cfg.mode = versionMode
	default:
		cfg.mode = playMode
	}
	return cfg
}

// loadConfig loads the configuration file and applies the command line
// overrides.
func (cli *CLI) loadConfig() emu.Config {
	path := cli.Config
	if path == "" {
		path = emu.DefaultConfigPath()
	}
	cfg, err := emu.LoadConfigOrDefault(path)
	checkf(err, "failed to load configuration")

	if cli.Clock != 0 {
		cfg.Chip.Clock = cli.Clock
		if cli.Rate == 0 {
			cfg.Chip.Rate = ym2413.NativeRate(cli.Clock)
		}
	}
	if cli.Rate != 0 {
		cfg.Chip.Rate = cli.Rate
	}
	if cli.Tones != "" {
		cfg.Chip.Tones = cli.Tones
	}
	cfg.Check()
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if ctx.Command() == "" || strings.HasPrefix(ctx.Command(), "play") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

// stdoutIfNil returns f, or a writer to stdout when the flag was not given.
func (f *outfile) stdoutIfNil() *outfile {
	if f == nil {
		return &outfile{w: os.Stdout, name: "stdout", close: func() error { return nil }}
	}
	return f
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}

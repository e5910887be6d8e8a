// config.go - CLI flag parsing and JSON config/DIP-switch file loading.
package main

import (
	"encoding/json"
	"flag"
	"os"
)

// Config holds the resolved options for one run, from CLI flags plus any
// JSON overrides named on the command line.
type Config struct {
	RomPath         string
	RomSet          string
	DipSwitchesPath string
	LoadStatePath   string
	SkipChecksums   bool
	WritableROM     bool
	Debug           bool
	BreakCPU1       string
	BreakCPU2       string
	BreakCPU3       string
	ReverseStep     bool

	Frames int
	OutDir string
}

// ParseConfig parses args (normally os.Args[1:]) into a Config.
func ParseConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("galaga", flag.ContinueOnError)
	cfg := &Config{}

	fs.StringVar(&cfg.RomPath, "rom_path", "", "directory to load ROM files from (required)")
	fs.StringVar(&cfg.RomSet, "rom_set", "galaga", "one of galaga/galagao/galagamw/galagamk")
	fs.StringVar(&cfg.DipSwitchesPath, "dip_switches_path", "./dip-switches.json", "JSON file with DIP-switch overrides")
	fs.StringVar(&cfg.LoadStatePath, "load_state_path", "", "snapshot file to resume from")
	fs.BoolVar(&cfg.SkipChecksums, "skip_checksums", false, "downgrade CRC32 mismatch to a warning")
	fs.BoolVar(&cfg.WritableROM, "writable_rom", false, "permit writes to 0x0000-0x3FFF")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable instrumentation and breakpoint machinery")
	fs.StringVar(&cfg.BreakCPU1, "break_cpu1", "", "hex address at which CPU1 drops into single-step")
	fs.StringVar(&cfg.BreakCPU2, "break_cpu2", "", "hex address at which CPU2 drops into single-step")
	fs.StringVar(&cfg.BreakCPU3, "break_cpu3", "", "hex address at which CPU3 drops into single-step")
	fs.BoolVar(&cfg.ReverseStep, "reverse_step", false, "record per-instruction snapshots for backstep")
	fs.IntVar(&cfg.Frames, "frames", 0, "run headlessly for N frames then exit (0 = run until cancelled)")
	fs.StringVar(&cfg.OutDir, "out_dir", "", "directory to write BMP frames into when running headlessly")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.RomPath == "" {
		return nil, &ConfigParseError{Path: "<cli>", Err: errRomPathRequired}
	}
	return cfg, nil
}

var errRomPathRequired = configErr("rom_path is required")

type configErr string

func (e configErr) Error() string { return string(e) }

// LoadDipSwitches reads a JSON DIP-switch override file, returning the
// default bank if path does not exist.
func LoadDipSwitches(path string) (DipSwitches, error) {
	d := DefaultDipSwitches()
	if path == "" {
		return d, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return d, &ConfigParseError{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, &ConfigParseError{Path: path, Err: err}
	}
	return d, nil
}

// main.go - entry point: wires ROM set, bus, PCB loop, and debug monitor
// and runs headlessly, writing BMP frames to out_dir when configured.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	cfg, err := ParseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	dip, err := LoadDipSwitches(cfg.DipSwitchesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dip switches: %v\n", err)
		os.Exit(1)
	}

	var warnings []error
	set, err := LoadRomSet(cfg.RomPath, cfg.RomSet, cfg.SkipChecksums, func(w error) {
		warnings = append(warnings, w)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "rom load: %v\n", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %v\n", w)
	}

	bus := NewGalagaBus()
	bus.WritableROM = cfg.WritableROM
	bus.SetDipSwitches(dip)
	bus.LoadROMs(set)
	bus.OnUnimplemented = func(err *UnimplementedError) {
		fmt.Fprintf(os.Stderr, "unimplemented: %v\n", err)
	}

	colors := BuildColors(set.ColorProm)
	palettes, err := BuildPalettes(set.CharLookupProm, colors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "palette build: %v\n", err)
		os.Exit(1)
	}
	tiles := NewTileRenderer(set.Tiles, palettes)

	frameCount := 0
	video := NewVideoHardware(bus, tiles, nil)
	pcb := NewPCB(bus, video)
	pcb.OnFault = func(err error) {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
	}
	pcb.OnRender = func(frame []byte) {
		frameCount++
		if cfg.OutDir == "" {
			return
		}
		path := filepath.Join(cfg.OutDir, fmt.Sprintf("frame_%04d.bmp", frameCount))
		if err := os.WriteFile(path, frame, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write frame: %v\n", err)
		}
	}

	if cfg.LoadStatePath != "" {
		snap, err := LoadPCBSnapshotFromFile(cfg.LoadStatePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load state: %v\n", err)
			os.Exit(1)
		}
		RestorePCBSnapshot(pcb, snap)
	}

	var monitor *MachineMonitor
	if cfg.Debug {
		monitor = NewMachineMonitor(bus)
		d1 := NewDebugZ80(pcb.CPU1, 1)
		d2 := NewDebugZ80(pcb.CPU2, 2)
		d3 := NewDebugZ80(pcb.CPU3, 3)
		adapters := []*DebugZ80{d1, d2, d3}
		id1 := monitor.RegisterCPU("CPU1", d1)
		id2 := monitor.RegisterCPU("CPU2", d2)
		id3 := monitor.RegisterCPU("CPU3", d3)
		monitor.StartBreakpointListener()

		applyBreak(d1, cfg.BreakCPU1)
		applyBreak(d2, cfg.BreakCPU2)
		applyBreak(d3, cfg.BreakCPU3)

		// Pre-step hook: a breakpoint match on any CPU's current PC pauses
		// the loop immediately, instead of only notifying the (async)
		// monitor listener, so "break"/"break_cpuN" actually halt execution.
		pcb.Debug = true
		pcb.AttachDebugHooks(func() {
			for _, d := range adapters {
				if d.CheckBreakpoint() {
					pcb.WaitForDebugger()
				}
			}
		}, func(cycles int) {
			if !cfg.ReverseStep {
				return
			}
			ids := map[*DebugZ80]int{d1: id1, d2: id2, d3: id3}
			for _, d := range adapters {
				monitor.recordBackstep(ids[d], d)
			}
		})

		go func() {
			if err := RunConsole(int(os.Stdin.Fd()), os.Stdin, os.Stdout, pcb, monitor); err != nil {
				fmt.Fprintf(os.Stderr, "debug console: %v\n", err)
			}
		}()
	}

	pcb.Run(uint64(cfg.Frames))
}

func applyBreak(d *DebugZ80, hexAddr string) {
	if hexAddr == "" {
		return
	}
	addr, ok := ParseAddress(hexAddr)
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid breakpoint address: %s\n", hexAddr)
		return
	}
	d.SetBreakpoint(addr)
}

// pcb.go - the 60Hz PCB loop: steps three Z80s, manages halt state, injects
// VBLANK interrupts, and throttles to real time.
//
// The loop runs on a single goroutine by design (§5): the three CPUs are
// stepped in fixed order 1,2,3 so bus writes are totally ordered with no
// need for locking, and frame composition at VBLANK always sees a
// consistent VRAM image because it runs on that same goroutine.
package main

import (
	"sync/atomic"
	"time"
)

const (
	cpuHz        = 3_072_000
	cyclesPerFrame = cpuHz / 60
	frameInterval  = time.Second / 60
)

// DebugCommand is a one-shot instruction delivered from the UI/debug side
// through PCB's command mailbox.
type DebugCommand struct {
	Kind string // "continue", "step" or "pause"; handleCommand ignores any other kind
	Arg  uint16
}

// PCB owns the bus, the three CPU instances, and the video composer, and
// drives them all from one hardware-thread loop.
type PCB struct {
	Bus   *GalagaBus
	CPU1  *CPU_Z80
	CPU2  *CPU_Z80
	CPU3  *CPU_Z80
	Video *VideoHardware

	OnRender func([]byte)
	OnFault  func(error)

	Commands chan DebugCommand

	Debug               bool
	waitingForDebugger  bool
	preStepHook         func()
	postStepHook        func(cycles int)

	cancelled atomic.Bool
	paused    atomic.Bool

	cyclesInWindow       int
	cyclesSinceInterrupt int

	frames uint64
}

// NewPCB wires a bus, three CPU instances bound through per-CPU views, and
// a video composer into one runnable hardware loop.
func NewPCB(bus *GalagaBus, video *VideoHardware) *PCB {
	p := &PCB{
		Bus:      bus,
		Video:    video,
		Commands: make(chan DebugCommand, 32),
	}
	fault := func(err error) {
		if p.OnFault != nil {
			p.OnFault(err)
		}
		p.cancelled.Store(true)
	}
	p.CPU1 = NewCPU_Z80(newBusCPUView(bus, 1, fault))
	p.CPU2 = NewCPU_Z80(newBusCPUView(bus, 2, fault))
	p.CPU3 = NewCPU_Z80(newBusCPUView(bus, 3, fault))
	p.CPU1.SetRunning(true)
	p.CPU2.SetRunning(true)
	p.CPU3.SetRunning(true)
	return p
}

// Cancel requests the loop exit at the next iteration boundary.
func (p *PCB) Cancel() { p.cancelled.Store(true) }

// SetPaused toggles the busy-wait pause state from the UI side.
func (p *PCB) SetPaused(v bool) { p.paused.Store(v) }

// Cancelled reports whether the loop has been asked to stop.
func (p *PCB) Cancelled() bool { return p.cancelled.Load() }

// FramesRendered reports the number of VBLANKs serviced so far.
func (p *PCB) FramesRendered() uint64 { return p.frames }

// Run executes the hardware loop until Cancel is called. frameBudget, when
// nonzero, stops the loop after that many VBLANKs — used by headless
// callers that want a bounded number of frames rather than running forever.
func (p *PCB) Run(frameBudget uint64) {
	var windowStart time.Time
	windowActive := false

	for !p.cancelled.Load() {
		for p.paused.Load() && !p.cancelled.Load() {
			time.Sleep(250 * time.Millisecond)
		}
		if p.cancelled.Load() {
			return
		}

		p.drainCommands()

		if p.Debug && p.preStepHook != nil {
			p.preStepHook()
		}
		for p.waitingForDebugger && !p.cancelled.Load() {
			time.Sleep(10 * time.Millisecond)
			p.drainCommands()
		}
		if p.cancelled.Load() {
			return
		}

		if !windowActive {
			windowStart = time.Now()
			windowActive = true
		}

		before1 := p.CPU1.Cycles
		p.CPU1.Step()
		c1 := int(p.CPU1.Cycles - before1)

		if !p.Bus.HaltCPU2() {
			p.CPU2.Step()
		}
		if !p.Bus.HaltCPU3() {
			p.CPU3.Step()
		}

		p.cyclesInWindow += c1
		if p.Debug && p.postStepHook != nil {
			p.postStepHook(c1)
		}

		if p.cyclesInWindow >= cyclesPerFrame {
			elapsed := time.Since(windowStart)
			if elapsed < frameInterval {
				time.Sleep(frameInterval - elapsed)
			}
			p.cyclesInWindow = 0
			windowActive = false
		}

		p.handleInterrupts(c1)

		if frameBudget != 0 && p.frames >= frameBudget {
			return
		}
	}
}

// handleInterrupts implements §4.F step 5: accumulate cycles, and on
// crossing one frame's worth, compose a frame and inject the three CPUs'
// VBLANK interrupts according to each one's latched enable flag.
func (p *PCB) handleInterrupts(c1 int) {
	p.cyclesSinceInterrupt += c1
	if p.cyclesSinceInterrupt < cyclesPerFrame {
		return
	}

	if p.Video != nil {
		frame := p.Video.ComposeFrame()
		if p.OnRender != nil {
			p.OnRender(frame)
		}
	}
	p.frames++

	if p.Bus.IRQEnabled(1) {
		p.Bus.ClearIRQEnable(1)
		p.injectMaskable(p.CPU1, p.Bus.Port0LastWrite())
	}
	if p.Bus.IRQEnabled(2) {
		p.Bus.ForceRunning(2)
		p.Bus.ClearIRQEnable(2)
		p.injectMaskable(p.CPU2, 0x00)
	}
	if p.Bus.IRQEnabled(3) {
		p.Bus.ForceRunning(3)
		p.Bus.ClearIRQEnable(3)
		p.injectNMI(p.CPU3)
	}

	p.cyclesSinceInterrupt = 0
}

// injectMaskable asserts IRQ with the given IM2 vector low byte for one
// step, then deasserts. Step() samples the IRQ line as a level while IFF1
// is set (see cpu_z80.go Step()); accepting it clears IFF1, so a held line
// would not fire again until the program re-enables interrupts, but
// deasserting keeps PCB's one-pulse-per-VBLANK model explicit.
func (p *PCB) injectMaskable(cpu *CPU_Z80, vectorLow byte) {
	cpu.SetIRQVector(vectorLow)
	cpu.SetIRQLine(true)
	cpu.Step()
	cpu.SetIRQLine(false)
}

// injectNMI pulses the NMI line for CPU3; Step() detects the rising edge
// and latches nmiPending regardless of IFF1/IFF2.
func (p *PCB) injectNMI(cpu *CPU_Z80) {
	cpu.SetNMILine(true)
	cpu.Step()
	cpu.SetNMILine(false)
}

func (p *PCB) drainCommands() {
	for {
		select {
		case cmd := <-p.Commands:
			p.handleCommand(cmd)
		default:
			return
		}
	}
}

func (p *PCB) handleCommand(cmd DebugCommand) {
	switch cmd.Kind {
	case "continue":
		p.waitingForDebugger = false
	case "step":
		p.waitingForDebugger = false
	case "pause":
		p.waitingForDebugger = true
	}
}

// AttachDebugHooks wires the pre/post-step hooks used by the debug monitor
// to implement breakpoint matching and single-step latching.
func (p *PCB) AttachDebugHooks(pre func(), post func(cycles int)) {
	p.preStepHook = pre
	p.postStepHook = post
}

// WaitForDebugger puts the loop into single-step latch mode, matching
// §4.F's "waiting_for_debugger" suspension point.
func (p *PCB) WaitForDebugger() { p.waitingForDebugger = true }

package main

import "testing"

func newTestPCB() (*PCB, *GalagaBus) {
	bus := NewGalagaBus()
	tiles := NewTileRenderer(make([]byte, tileCount*tileROMBytes), testPalettes())
	video := NewVideoHardware(bus, tiles, nil)
	return NewPCB(bus, video), bus
}

// Property 8: with a constant c1 per call, a VBLANK fires exactly every
// ceil(CPU_HZ/60/k) calls to handleInterrupts, and cyclesSinceInterrupt
// resets to 0 immediately after.
func TestHandleInterruptsSchedule(t *testing.T) {
	pcb, _ := newTestPCB()
	frames := 0
	pcb.OnRender = func([]byte) { frames++ }

	const k = 100
	stepsPerFrame := (cyclesPerFrame + k - 1) / k

	steps := 0
	for frames < 3 {
		pcb.handleInterrupts(k)
		steps++
		if steps > stepsPerFrame*4 {
			t.Fatal("VBLANK never fired within expected step budget")
		}
	}
	if steps != stepsPerFrame*3 {
		t.Errorf("steps to reach 3 frames = %d, want %d", steps, stepsPerFrame*3)
	}
	if pcb.cyclesSinceInterrupt != 0 {
		t.Errorf("cyclesSinceInterrupt = %d, want 0 right after a VBLANK", pcb.cyclesSinceInterrupt)
	}
}

// Property 9: out (0),v followed by a VBLANK injects a maskable interrupt
// whose IM2 low byte equals v.
func TestIM2VectorAssembly(t *testing.T) {
	pcb, bus := newTestPCB()

	pcb.CPU1.I = 0x10
	pcb.CPU1.IFF1 = true
	pcb.CPU1.IM = 2
	const v = 0x42

	// CPU1's port-0 out latches the low vector byte directly on the bus.
	view := newBusCPUView(bus, 1, nil)
	view.Out(0, v)
	if bus.Port0LastWrite() != v {
		t.Fatalf("Port0LastWrite() = 0x%02X, want 0x%02X", bus.Port0LastWrite(), v)
	}

	bus.irqEnableCPU1 = true
	pcb.cyclesSinceInterrupt = cyclesPerFrame
	pcb.handleInterrupts(0)

	if pcb.CPU1.irqVector != v {
		t.Errorf("injected IM2 vector low byte = 0x%02X, want 0x%02X", pcb.CPU1.irqVector, v)
	}
	if bus.IRQEnabled(1) {
		t.Error("CPU1 IRQ enable flag should be cleared after injection")
	}
}

// Property 10 cross-check at the PCB level: CPU3's NMI fires and forces
// it running even when previously halted.
func TestVBLANKForcesCPU3Running(t *testing.T) {
	pcb, bus := newTestPCB()
	bus.haltCPU3 = true
	bus.irqEnableCPU3 = true
	pcb.cyclesSinceInterrupt = cyclesPerFrame

	pcb.handleInterrupts(0)

	if bus.HaltCPU3() {
		t.Error("expected CPU3 forced running once its NMI enable flag was set")
	}
	if bus.IRQEnabled(3) {
		t.Error("expected CPU3 enable flag cleared after injection")
	}
}

// S3: 60 VBLANKs deliver exactly 60 frame buffers to the sink.
func TestSixtyVBLANKsDeliverSixtyFrames(t *testing.T) {
	pcb, bus := newTestPCB()
	// JR $ at 0x0000 keeps CPU1 inside its ROM; an all-zero ROM would run
	// into unmapped 0x4000 and fault the loop after the first frame.
	bus.cpu1Rom[0], bus.cpu1Rom[1] = 0x18, 0xFE
	var frames int
	pcb.OnRender = func([]byte) { frames++ }

	pcb.Run(60)

	if frames != 60 {
		t.Errorf("frames received = %d, want 60", frames)
	}
	if pcb.FramesRendered() != 60 {
		t.Errorf("FramesRendered() = %d, want 60", pcb.FramesRendered())
	}
}

// S5: single-stepping CPU1 must not advance CPU2/CPU3's PC while they
// remain halted.
func TestHaltedCPUsDoNotAdvance(t *testing.T) {
	pcb, bus := newTestPCB()
	pc2, pc3 := pcb.CPU2.PC, pcb.CPU3.PC

	pcb.CPU1.Step()

	if !bus.HaltCPU2() || !bus.HaltCPU3() {
		t.Fatal("expected CPU2/CPU3 to remain halted without a write to 0x6823")
	}
	if pcb.CPU2.PC != pc2 || pcb.CPU3.PC != pc3 {
		t.Error("halted CPUs must not have their PC advanced")
	}
}

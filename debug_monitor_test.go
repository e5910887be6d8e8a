package main

import "testing"

func newMonitorCPU(bus *GalagaBus, cpuID int) *DebugZ80 {
	return NewDebugZ80(NewCPU_Z80(newBusCPUView(bus, cpuID, nil)), cpuID)
}

func TestRegisterUnregisterCPU(t *testing.T) {
	bus := NewGalagaBus()
	m := NewMachineMonitor(bus)
	d1 := newMonitorCPU(bus, 1)

	id := m.RegisterCPU("CPU1", d1)
	if m.FocusedCPU() == nil || m.FocusedCPU().ID != id {
		t.Fatalf("expected first registered CPU to be focused")
	}

	m.UnregisterCPU(id)
	if m.FocusedCPU() != nil {
		t.Error("expected no focused CPU after unregistering the only one")
	}
}

func TestResetCPUsClearsState(t *testing.T) {
	bus := NewGalagaBus()
	m := NewMachineMonitor(bus)
	d1 := newMonitorCPU(bus, 1)
	id := m.RegisterCPU("CPU1", d1)
	d1.SetBreakpoint(0x1234)
	m.recordBackstep(id, d1)

	m.ResetCPUs()

	if m.FocusedCPU() != nil {
		t.Error("expected no CPUs registered after ResetCPUs")
	}
	if d1.HasBreakpoint(0x1234) {
		t.Error("expected breakpoints cleared by ResetCPUs")
	}
	if m.Backstep(id) {
		t.Error("expected no backstep history after ResetCPUs")
	}
}

func TestActivateDeactivateFreezesAndResumes(t *testing.T) {
	bus := NewGalagaBus()
	m := NewMachineMonitor(bus)
	d1 := newMonitorCPU(bus, 1)
	d1.Resume()
	m.RegisterCPU("CPU1", d1)

	m.Activate()
	if !m.IsActive() {
		t.Fatal("expected monitor active")
	}
	if d1.IsRunning() {
		t.Error("expected CPU frozen on Activate")
	}

	m.Deactivate()
	if m.IsActive() {
		t.Error("expected monitor inactive after Deactivate")
	}
	if !d1.IsRunning() {
		t.Error("expected previously-running CPU resumed on Deactivate")
	}
}

func TestFreezeAll(t *testing.T) {
	bus := NewGalagaBus()
	m := NewMachineMonitor(bus)
	d1 := newMonitorCPU(bus, 1)
	d2 := newMonitorCPU(bus, 2)
	d1.Resume()
	d2.Resume()
	m.RegisterCPU("CPU1", d1)
	m.RegisterCPU("CPU2", d2)

	m.FreezeAll()

	if d1.IsRunning() || d2.IsRunning() {
		t.Error("expected all CPUs frozen by FreezeAll")
	}
}

func TestBackstepRestoresPriorState(t *testing.T) {
	bus := NewGalagaBus()
	m := NewMachineMonitor(bus)
	d1 := newMonitorCPU(bus, 1)
	id := m.RegisterCPU("CPU1", d1)

	d1.SetPC(0x1000)
	m.recordBackstep(id, d1)
	d1.SetPC(0x2000)

	if !m.Backstep(id) {
		t.Fatal("expected Backstep to succeed with recorded history")
	}
	if d1.GetPC() != 0x1000 {
		t.Errorf("PC after Backstep = 0x%04X, want 0x1000", d1.GetPC())
	}
	if m.Backstep(id) {
		t.Error("expected Backstep to fail once history is exhausted")
	}
}

func TestHandleBreakpointHitFocusesAndFreezes(t *testing.T) {
	bus := NewGalagaBus()
	m := NewMachineMonitor(bus)
	d1 := newMonitorCPU(bus, 1)
	d2 := newMonitorCPU(bus, 2)
	d1.Resume()
	d2.Resume()
	id1 := m.RegisterCPU("CPU1", d1)
	m.RegisterCPU("CPU2", d2)

	m.handleBreakpointHit(BreakpointEvent{CPUID: id1, Address: 0x1234})

	if !m.IsActive() {
		t.Fatal("expected monitor activated on breakpoint hit")
	}
	if d1.IsRunning() || d2.IsRunning() {
		t.Error("expected all CPUs frozen on breakpoint hit")
	}
	if m.FocusedCPU() == nil || m.FocusedCPU().ID != id1 {
		t.Error("expected the hitting CPU to become focused")
	}
}

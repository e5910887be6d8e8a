// debug_monitor.go - Machine Monitor core (freeze/resume, activate/deactivate)
package main

import (
	"fmt"
	"sync"
)

// MonitorState represents whether the monitor is active.
type MonitorState int

const (
	MonitorInactive MonitorState = iota
	MonitorActive
)

// OutputLine holds styled text for the monitor scrollback buffer.
type OutputLine struct {
	Text  string
	Color uint32 // RGBA packed
}

// CPUEntry associates a stable integer ID with a debuggable CPU.
type CPUEntry struct {
	ID    int
	Label string
	CPU   DebuggableCPU
}

// MachineMonitor is the core debugger state machine attached to all three
// Galaga CPUs. It freezes/resumes on breakpoint hits, tracks per-CPU
// register-change highlighting, and keeps a per-CPU backstep ring.
type MachineMonitor struct {
	mu    sync.Mutex
	state MonitorState

	cpus      map[int]*CPUEntry
	nextID    int
	focusedID int

	breakpointChan chan BreakpointEvent

	outputLines  []OutputLine
	maxOutput    int

	wasRunning map[int]bool
	bus        *GalagaBus
	prevRegs   map[string]uint64

	// Backstep — per-CPU history keyed by CPU ID
	stepHistory map[int][]*MachineSnapshot
	maxBackstep int
}

// NewMachineMonitor creates a new monitor instance bound to bus.
func NewMachineMonitor(bus *GalagaBus) *MachineMonitor {
	return &MachineMonitor{
		state:          MonitorInactive,
		cpus:           make(map[int]*CPUEntry),
		breakpointChan: make(chan BreakpointEvent, 1),
		maxOutput:      500,
		wasRunning:     make(map[int]bool),
		bus:            bus,
		prevRegs:       make(map[string]uint64),
		stepHistory:    make(map[int][]*MachineSnapshot),
		maxBackstep:    32,
	}
}

// RegisterCPU adds a CPU to the monitor and returns its stable ID.
func (m *MachineMonitor) RegisterCPU(label string, cpu DebuggableCPU) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.cpus[id] = &CPUEntry{ID: id, Label: label, CPU: cpu}
	cpu.SetBreakpointChannel(m.breakpointChan, id)
	if len(m.cpus) == 1 {
		m.focusedID = id
	}
	return id
}

// ResetCPUs freezes and clears every registered CPU's breakpoints/
// watchpoints and forgets all of them. Call before recreating CPUs.
func (m *MachineMonitor) ResetCPUs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.cpus {
		if entry.CPU.IsRunning() {
			entry.CPU.Freeze()
		}
		entry.CPU.ClearAllBreakpoints()
		entry.CPU.ClearAllWatchpoints()
	}
	m.cpus = make(map[int]*CPUEntry)
	m.nextID = 0
	m.focusedID = 0
	m.wasRunning = make(map[int]bool)
	m.stepHistory = make(map[int][]*MachineSnapshot)
}

// UnregisterCPU removes a CPU by its stable ID.
func (m *MachineMonitor) UnregisterCPU(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.cpus[id]
	if !ok {
		return
	}
	entry.CPU.ClearAllBreakpoints()
	delete(m.cpus, id)
	delete(m.stepHistory, id)
	if m.focusedID == id {
		m.focusedID = 0
	}
}

// IsActive returns whether the monitor is currently shown.
func (m *MachineMonitor) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == MonitorActive
}

// FocusedCPU returns the currently focused CPU entry, or nil.
func (m *MachineMonitor) FocusedCPU() *CPUEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpus[m.focusedID]
}

// Activate freezes all CPUs and enters the monitor.
func (m *MachineMonitor) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MonitorActive {
		return
	}
	m.state = MonitorActive
	m.wasRunning = make(map[int]bool)

	for id, entry := range m.cpus {
		if entry.CPU.IsRunning() {
			m.wasRunning[id] = true
			entry.CPU.Freeze()
		}
	}

	m.saveCurrentRegs()
	m.appendOutput("MACHINE MONITOR - Type ? for help", colorCyan)
	m.showRegisters()
	m.showDisassembly(0, 8)
}

// Deactivate resumes previously-running CPUs and exits the monitor.
func (m *MachineMonitor) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MonitorInactive {
		return
	}
	m.state = MonitorInactive

	for id, entry := range m.cpus {
		if m.wasRunning[id] {
			entry.CPU.Resume()
		}
	}
}

// FreezeAll freezes all registered CPUs.
func (m *MachineMonitor) FreezeAll() {
	for _, entry := range m.cpus {
		if entry.CPU.IsRunning() {
			entry.CPU.Freeze()
		}
	}
}

// recordBackstep pushes a snapshot of cpu onto its backstep ring,
// trimming the oldest entry once maxBackstep is exceeded.
func (m *MachineMonitor) recordBackstep(id int, cpu DebuggableCPU) {
	hist := append(m.stepHistory[id], TakeSnapshot(cpu))
	if len(hist) > m.maxBackstep {
		hist = hist[len(hist)-m.maxBackstep:]
	}
	m.stepHistory[id] = hist
}

// Backstep restores the most recent snapshot recorded for the given CPU
// ID, popping it from the ring. Returns false if no history is available.
func (m *MachineMonitor) Backstep(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	hist := m.stepHistory[id]
	if len(hist) == 0 {
		return false
	}
	entry := m.cpus[id]
	if entry == nil {
		return false
	}
	last := hist[len(hist)-1]
	RestoreSnapshot(entry.CPU, last)
	m.stepHistory[id] = hist[:len(hist)-1]
	return true
}

// appendOutput adds a line to the scrollback buffer.
func (m *MachineMonitor) appendOutput(text string, color uint32) {
	m.outputLines = append(m.outputLines, OutputLine{Text: text, Color: color})
	if len(m.outputLines) > m.maxOutput {
		m.outputLines = m.outputLines[len(m.outputLines)-m.maxOutput:]
	}
}

// saveCurrentRegs snapshots the focused CPU's registers for change detection.
func (m *MachineMonitor) saveCurrentRegs() {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		return
	}
	m.prevRegs = make(map[string]uint64)
	for _, r := range entry.CPU.GetRegisters() {
		m.prevRegs[r.Name] = r.Value
	}
}

// showRegisters prints the focused CPU's register file to the scrollback.
func (m *MachineMonitor) showRegisters() {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		return
	}
	for _, r := range entry.CPU.GetRegisters() {
		color := colorWhite
		if prev, ok := m.prevRegs[r.Name]; ok && prev != r.Value {
			color = colorYellow
		}
		m.appendOutput(fmt.Sprintf("%-3s = $%X", r.Name, r.Value), color)
	}
}

// showDisassembly prints count instructions starting at addr for the
// focused CPU.
func (m *MachineMonitor) showDisassembly(addr uint64, count int) {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		return
	}
	for _, line := range entry.CPU.Disassemble(addr, count) {
		marker := "  "
		if line.IsPC {
			marker = "->"
		}
		m.appendOutput(fmt.Sprintf("%s $%04X: %-12s %s", marker, line.Address, line.HexBytes, line.Mnemonic), colorGreen)
	}
}

// StartBreakpointListener runs a background goroutine that watches for
// breakpoint events from any CPU and auto-activates the monitor.
func (m *MachineMonitor) StartBreakpointListener() {
	go func() {
		for ev := range m.breakpointChan {
			m.handleBreakpointHit(ev)
		}
	}()
}

// handleBreakpointHit freezes all CPUs, focuses on the one that hit,
// and activates the monitor.
func (m *MachineMonitor) handleBreakpointHit(ev BreakpointEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasRunning := make(map[int]bool)
	for id, entry := range m.cpus {
		if entry.CPU.IsRunning() {
			wasRunning[id] = true
		}
	}
	wasRunning[ev.CPUID] = true

	for _, entry := range m.cpus {
		if entry.CPU.IsRunning() {
			entry.CPU.Freeze()
		}
	}

	var msg string
	if ev.IsWatch {
		msg = fmt.Sprintf("WATCH $%X: $%02X -> $%02X at PC=$%X on %s (id:%d)",
			ev.WatchAddr, ev.WatchOldValue, ev.WatchNewValue, ev.Address, getLabelForCPU(m.cpus, ev.CPUID), ev.CPUID)
	} else {
		msg = fmt.Sprintf("BREAK at $%X on %s (id:%d)", ev.Address, getLabelForCPU(m.cpus, ev.CPUID), ev.CPUID)
	}

	if m.state == MonitorActive {
		m.focusedID = ev.CPUID
		m.appendOutput(msg, colorRed)
		m.saveCurrentRegs()
		m.showRegisters()
		m.showDisassembly(0, 8)
		return
	}

	m.state = MonitorActive
	m.wasRunning = wasRunning
	m.focusedID = ev.CPUID

	m.appendOutput(msg, colorRed)
	m.saveCurrentRegs()
	m.showRegisters()
	m.showDisassembly(0, 8)
}

func getLabelForCPU(cpus map[int]*CPUEntry, id int) string {
	if e, ok := cpus[id]; ok {
		return e.Label
	}
	return "???"
}

// Color constants (RGBA packed as 0xRRGGBBAA)
const (
	colorWhite  = 0xFFFFFFFF
	colorCyan   = 0x64C8FFFF
	colorYellow = 0xFFFF55FF
	colorRed    = 0xFF5555FF
	colorGreen  = 0x55FF55FF
)

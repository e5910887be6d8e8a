// debug_snapshot.go - state capture/restore, self-describing JSON.
//
// Two granularities are modelled: MachineSnapshot captures one CPU's
// register file plus its address space, used by the debug monitor's
// per-CPU backstep ring; PCBSnapshot captures the whole machine (all
// three CPUs, shared memory, halt/interrupt state, cycle counters) per
// the save-state record.
package main

import (
	"encoding/json"
	"os"
)

const snapshotVersion = 1

// MachineSnapshot is a point-in-time capture of one CPU's visible state.
type MachineSnapshot struct {
	Version   int            `json:"version"`
	CPUType   string         `json:"cpu_type"`
	Registers []RegisterInfo `json:"registers"`
	Memory    []byte         `json:"memory"`
}

func memSizeFromWidth(width int) int {
	switch width {
	case 16:
		return 0x10000
	case 8:
		return 0x100
	default:
		return 1 << width
	}
}

// TakeSnapshot captures cpu's full register set and address space.
func TakeSnapshot(cpu DebuggableCPU) *MachineSnapshot {
	size := memSizeFromWidth(cpu.AddressWidth())
	return &MachineSnapshot{
		Version:   snapshotVersion,
		CPUType:   cpu.CPUName(),
		Registers: cpu.GetRegisters(),
		Memory:    cpu.ReadMemory(0, size),
	}
}

// RestoreSnapshot overwrites cpu's registers and memory from snap. The
// caller must ensure cpu is frozen (or not yet started).
func RestoreSnapshot(cpu DebuggableCPU, snap *MachineSnapshot) {
	for _, r := range snap.Registers {
		cpu.SetRegister(r.Name, r.Value)
	}
	if len(snap.Memory) > 0 {
		cpu.WriteMemory(0, snap.Memory)
	}
}

// SaveSnapshotToFile writes snap as self-describing JSON.
func SaveSnapshotToFile(path string, snap *MachineSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSnapshotFromFile reads a MachineSnapshot previously written by
// SaveSnapshotToFile.
func LoadSnapshotFromFile(path string) (*MachineSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap MachineSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}
	return &snap, nil
}

// cpuCoreSnapshot is the register/flag subset of CPU_Z80 that a save
// state must reproduce bit-identically (§3).
type cpuCoreSnapshot struct {
	A, F, B, C, D, E, H, L         byte
	A2, F2, B2, C2, D2, E2, H2, L2 byte
	IX, IY, SP, PC                 uint16
	I, R, IM                       byte
	IFF1, IFF2, Halted             bool
}

func snapshotCPUCore(c *CPU_Z80) cpuCoreSnapshot {
	return cpuCoreSnapshot{
		A: c.A, F: c.F, B: c.B, C: c.C, D: c.D, E: c.E, H: c.H, L: c.L,
		A2: c.A2, F2: c.F2, B2: c.B2, C2: c.C2, D2: c.D2, E2: c.E2, H2: c.H2, L2: c.L2,
		IX: c.IX, IY: c.IY, SP: c.SP, PC: c.PC,
		I: c.I, R: c.R, IM: c.IM,
		IFF1: c.IFF1, IFF2: c.IFF2, Halted: c.Halted,
	}
}

func restoreCPUCore(c *CPU_Z80, s cpuCoreSnapshot) {
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = s.A, s.F, s.B, s.C, s.D, s.E, s.H, s.L
	c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = s.A2, s.F2, s.B2, s.C2, s.D2, s.E2, s.H2, s.L2
	c.IX, c.IY, c.SP, c.PC = s.IX, s.IY, s.SP, s.PC
	c.I, c.R, c.IM = s.I, s.R, s.IM
	c.IFF1, c.IFF2, c.Halted = s.IFF1, s.IFF2, s.Halted
}

// PCBSnapshot is the composite save-state record of §3: every CPU's
// register/flag set, the full shared memory array, and the loop's
// running counters. Code and graphics ROMs are immutable inputs and are
// deliberately excluded.
type PCBSnapshot struct {
	Version int `json:"version"`

	CPU1 cpuCoreSnapshot `json:"cpu1"`
	CPU2 cpuCoreSnapshot `json:"cpu2"`
	CPU3 cpuCoreSnapshot `json:"cpu3"`

	HaltCPU2 bool `json:"halt_cpu2"`
	HaltCPU3 bool `json:"halt_cpu3"`

	SharedMemory []byte `json:"shared_memory"`

	TotalCycles          uint64 `json:"total_cycles"`
	CyclesSinceInterrupt int    `json:"cycles_since_interrupt"`
}

// TakePCBSnapshot captures the entire machine's mutable state.
func TakePCBSnapshot(p *PCB) *PCBSnapshot {
	mem := p.Bus.SharedMemory()
	memCopy := make([]byte, len(mem))
	copy(memCopy, mem[:])

	return &PCBSnapshot{
		Version:              snapshotVersion,
		CPU1:                 snapshotCPUCore(p.CPU1),
		CPU2:                 snapshotCPUCore(p.CPU2),
		CPU3:                 snapshotCPUCore(p.CPU3),
		HaltCPU2:             p.Bus.HaltCPU2(),
		HaltCPU3:             p.Bus.HaltCPU3(),
		SharedMemory:         memCopy,
		TotalCycles:          p.CPU1.Cycles + p.CPU2.Cycles + p.CPU3.Cycles,
		CyclesSinceInterrupt: p.cyclesSinceInterrupt,
	}
}

// RestorePCBSnapshot overwrites the three CPU cores, the halt flags, the
// shared memory and cyclesSinceInterrupt from snap. TotalCycles is not
// restored: the CPUs' Cycles counters keep their current values.
// The loop must be paused (or not yet started) when this is called.
func RestorePCBSnapshot(p *PCB, snap *PCBSnapshot) {
	restoreCPUCore(p.CPU1, snap.CPU1)
	restoreCPUCore(p.CPU2, snap.CPU2)
	restoreCPUCore(p.CPU3, snap.CPU3)

	if snap.HaltCPU2 {
		p.Bus.haltCPU2 = true
	} else {
		p.Bus.ForceRunning(2)
	}
	if snap.HaltCPU3 {
		p.Bus.haltCPU3 = true
	} else {
		p.Bus.ForceRunning(3)
	}

	mem := p.Bus.SharedMemory()
	copy(mem[:], snap.SharedMemory)

	p.cyclesSinceInterrupt = snap.CyclesSinceInterrupt
}

// SavePCBSnapshotToFile writes snap as self-describing JSON.
func SavePCBSnapshotToFile(path string, snap *PCBSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadPCBSnapshotFromFile reads a PCBSnapshot previously written by
// SavePCBSnapshotToFile.
func LoadPCBSnapshotFromFile(path string) (*PCBSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap PCBSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}
	return &snap, nil
}

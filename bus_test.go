package main

import "testing"

// S1: all-ROM-0xFF bus, write to shared RAM, readable from all three CPUs.
func TestBusSharedRAMRoundTrip(t *testing.T) {
	bus := NewGalagaBus()
	for i := range bus.cpu1Rom {
		bus.cpu1Rom[i] = 0xFF
	}
	for i := range bus.cpu2Rom {
		bus.cpu2Rom[i] = 0xFF
	}
	for i := range bus.cpu3Rom {
		bus.cpu3Rom[i] = 0xFF
	}

	if err := bus.Write8(1, sharedRAM1Start, 0xAB); err != nil {
		t.Fatalf("write8: %v", err)
	}
	for _, cpu := range []int{1, 2, 3} {
		got, err := bus.Read8(cpu, sharedRAM1Start)
		if err != nil {
			t.Fatalf("cpu%d read8: %v", cpu, err)
		}
		if got != 0xAB {
			t.Errorf("cpu%d read8(0x%04X) = 0x%02X, want 0xAB", cpu, sharedRAM1Start, got)
		}
	}
}

// Property 5: bus read/write round-trip across all RAM regions and CPUs.
func TestBusRAMRoundTripAllRegions(t *testing.T) {
	bus := NewGalagaBus()
	regions := []uint16{vramTileStart, vramAttrStart, sharedRAM1Start, sharedRAM2Start, sharedRAM3Start}
	for _, cpu := range []int{1, 2, 3} {
		for _, addr := range regions {
			want := byte(cpu*40 + 7)
			if err := bus.Write8(cpu, addr, want); err != nil {
				t.Fatalf("cpu%d write8(0x%04X): %v", cpu, addr, err)
			}
			got, err := bus.Read8(cpu, addr)
			if err != nil {
				t.Fatalf("cpu%d read8(0x%04X): %v", cpu, addr, err)
			}
			if got != want {
				t.Errorf("cpu%d addr 0x%04X = 0x%02X, want 0x%02X", cpu, addr, got, want)
			}
		}
	}
}

// Property 6 / S4: ROM write protection toggled by WritableROM.
func TestBusROMWriteProtection(t *testing.T) {
	bus := NewGalagaBus()

	if err := bus.Write8(1, 0x0000, 0x00); err == nil {
		t.Fatal("expected ReadOnlyWriteError without writable_rom")
	} else if _, ok := err.(*ReadOnlyWriteError); !ok {
		t.Fatalf("expected *ReadOnlyWriteError, got %T", err)
	}

	bus.WritableROM = true
	if err := bus.Write8(1, 0x0000, 0x00); err != nil {
		t.Fatalf("write8 with writable_rom: %v", err)
	}
	got, err := bus.Read8(1, 0x0000)
	if err != nil {
		t.Fatalf("read8: %v", err)
	}
	if got != 0x00 {
		t.Errorf("read8(0x0000) = 0x%02X, want 0x00", got)
	}
}

// Property 7: 0x6823 released both CPU2 and CPU3.
func TestBusHaltRelease(t *testing.T) {
	bus := NewGalagaBus()
	if !bus.HaltCPU2() || !bus.HaltCPU3() {
		t.Fatal("expected CPU2/CPU3 halted at reset")
	}
	if err := bus.Write8(1, latchHalt23, 0); err != nil {
		t.Fatalf("write8: %v", err)
	}
	if err := bus.Write8(1, latchHalt23, 1); err != nil {
		t.Fatalf("write8: %v", err)
	}
	if bus.HaltCPU2() || bus.HaltCPU3() {
		t.Fatal("expected both CPUs released after 0x6823 <- 1")
	}
}

// Property 10: CPU3's NMI enable bit inverts the written value.
func TestBusNMIEnableInversion(t *testing.T) {
	bus := NewGalagaBus()
	if err := bus.Write8(1, latchCPU3NMI, 0); err != nil {
		t.Fatalf("write8: %v", err)
	}
	if !bus.IRQEnabled(3) {
		t.Error("writing 0 to 0x6822 should set CPU3's enable flag")
	}
	if err := bus.Write8(1, latchCPU3NMI, 1); err != nil {
		t.Fatalf("write8: %v", err)
	}
	if bus.IRQEnabled(3) {
		t.Error("writing non-zero to 0x6822 should clear CPU3's enable flag")
	}
}

func TestBusDipDefault(t *testing.T) {
	bus := NewGalagaBus()
	got, err := bus.Read8(1, dipBankStart+4)
	if err != nil {
		t.Fatalf("read8: %v", err)
	}
	if got != 0b00000010 {
		t.Errorf("dip[0x6804] = 0b%08b, want 0b00000010", got)
	}
}

// Read16/Write16 are little-endian: lo = addr, hi = addr+1.
func TestBusRead16Write16LittleEndian(t *testing.T) {
	bus := NewGalagaBus()
	if err := bus.Write16(1, sharedRAM1Start, 0xBEEF); err != nil {
		t.Fatalf("write16: %v", err)
	}
	lo, err := bus.Read8(1, sharedRAM1Start)
	if err != nil {
		t.Fatalf("read8 lo: %v", err)
	}
	hi, err := bus.Read8(1, sharedRAM1Start+1)
	if err != nil {
		t.Fatalf("read8 hi: %v", err)
	}
	if lo != 0xEF || hi != 0xBE {
		t.Fatalf("bytes = (lo=0x%02X, hi=0x%02X), want (lo=0xEF, hi=0xBE)", lo, hi)
	}

	got, err := bus.Read16(1, sharedRAM1Start)
	if err != nil {
		t.Fatalf("read16: %v", err)
	}
	if got != 0xBEEF {
		t.Errorf("read16 = 0x%04X, want 0xBEEF", got)
	}
}

func TestBusFailClosedDecode(t *testing.T) {
	bus := NewGalagaBus()
	_, err := bus.Read8(1, 0xFFFF)
	if err == nil {
		t.Fatal("expected UnmappedAddressError for 0xFFFF")
	}
	if _, ok := err.(*UnmappedAddressError); !ok {
		t.Fatalf("expected *UnmappedAddressError, got %T", err)
	}
}

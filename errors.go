// errors.go - typed error kinds for ROM loading, bus decode, and config.

package main

import "fmt"

// RomMissingError reports a ROM file that could not be found under rom_path.
type RomMissingError struct {
	RomSet   string
	Ident    string
	Filename string
}

func (e *RomMissingError) Error() string {
	return fmt.Sprintf("rom set %q: missing %q (%s)", e.RomSet, e.Ident, e.Filename)
}

// RomSizeMismatchError reports a ROM file whose length does not match the set definition.
type RomSizeMismatchError struct {
	Ident    string
	Filename string
	Want     int
	Got      int
}

func (e *RomSizeMismatchError) Error() string {
	return fmt.Sprintf("rom %q (%s): size mismatch, want %d got %d", e.Ident, e.Filename, e.Want, e.Got)
}

// RomChecksumMismatchError reports a CRC32 mismatch; fatal unless skip-checksums is set.
type RomChecksumMismatchError struct {
	Ident    string
	Filename string
	Want     uint32
	Got      uint32
}

func (e *RomChecksumMismatchError) Error() string {
	return fmt.Sprintf("rom %q (%s): checksum mismatch, want %08X got %08X", e.Ident, e.Filename, e.Want, e.Got)
}

// UnknownRomSetError reports a rom_set name not in the recognised list.
type UnknownRomSetError struct {
	Name string
}

func (e *UnknownRomSetError) Error() string {
	return fmt.Sprintf("unknown rom set %q", e.Name)
}

// ConfigParseError wraps a failure to parse a configuration or DIP-switch file.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// UnmappedAddressError is raised by the bus decoder for any access outside
// the defined memory map. Fatal by default.
type UnmappedAddressError struct {
	CPU  int
	Addr uint16
	Op   string // "read" or "write"
}

func (e *UnmappedAddressError) Error() string {
	return fmt.Sprintf("cpu%d: unmapped %s at $%04X", e.CPU, e.Op, e.Addr)
}

// ReadOnlyWriteError is raised when a CPU writes into ROM without the
// writable-ROM override set.
type ReadOnlyWriteError struct {
	CPU  int
	Addr uint16
}

func (e *ReadOnlyWriteError) Error() string {
	return fmt.Sprintf("cpu%d: write to read-only ROM at $%04X", e.CPU, e.Addr)
}

// UnimplementedError reports a recognised-but-unimplemented register access.
// Non-fatal: execution continues with a logged warning and a safe default value.
type UnimplementedError struct {
	Subsystem string
	Addr      uint16
	Value     byte
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("unimplemented %s register at $%04X (value=$%02X)", e.Subsystem, e.Addr, e.Value)
}

// DeviceFaultError reports an internal invariant violation raised by a
// stepping engine. Fatal; the hardware loop dumps state and terminates.
type DeviceFaultError struct {
	CPU    int
	Reason string
}

func (e *DeviceFaultError) Error() string {
	return fmt.Sprintf("cpu%d: device fault: %s", e.CPU, e.Reason)
}

// debug_backtrace.go - Z80 stack backtrace for the machine monitor

package main

import "encoding/binary"

// backtrace walks the Z80 stack of the given CPU and returns up to depth
// return addresses, most recent first.
func backtrace(cpu DebuggableCPU, depth int) []uint64 {
	sp, _ := cpu.GetRegister("SP")
	var result []uint64
	for range depth {
		data := cpu.ReadMemory(sp, 2)
		if len(data) < 2 {
			break
		}
		addr := uint64(binary.LittleEndian.Uint16(data))
		result = append(result, addr)
		sp += 2
	}
	return result
}

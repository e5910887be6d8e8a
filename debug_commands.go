// debug_commands.go - command parsing and the scripting/raw-console front
// ends for the machine monitor.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/term"
)

// MonitorCommand is a parsed command with name and arguments.
type MonitorCommand struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a command name and arguments.
func ParseCommand(input string) MonitorCommand {
	input = strings.TrimSpace(input)
	if input == "" {
		return MonitorCommand{}
	}
	parts := strings.Fields(input)
	return MonitorCommand{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// ParseAddress parses a monitor address in $hex, 0xhex, bare-hex, or
// #decimal form.
func ParseAddress(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasPrefix(s, "#") {
		v, err := strconv.ParseUint(s[1:], 10, 64)
		return v, err == nil
	}
	if strings.HasPrefix(s, "$") {
		v, err := strconv.ParseUint(s[1:], 16, 64)
		return v, err == nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	return v, err == nil
}

// EvalAddress evaluates a simple expression: <term> [+|- <term>]*, where
// each term is a register name or a numeric address.
func EvalAddress(expr string, cpu DebuggableCPU) (uint64, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, false
	}

	type token struct {
		text string
		op   byte
	}
	var tokens []token
	var current strings.Builder
	currentOp := byte(0)

	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if (ch == '+' || ch == '-') && i > 0 {
			if t := strings.TrimSpace(current.String()); t != "" {
				tokens = append(tokens, token{text: t, op: currentOp})
			}
			currentOp = ch
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}
	if t := strings.TrimSpace(current.String()); t != "" {
		tokens = append(tokens, token{text: t, op: currentOp})
	}
	if len(tokens) == 0 {
		return 0, false
	}

	var result uint64
	for _, tok := range tokens {
		var val uint64
		var ok bool
		if cpu != nil {
			val, ok = cpu.GetRegister(strings.ToUpper(tok.text))
		}
		if !ok {
			val, ok = ParseAddress(tok.text)
		}
		if !ok {
			return 0, false
		}
		switch tok.op {
		case 0, '+':
			result += val
		case '-':
			result -= val
		}
	}
	return result, true
}

// RunScript evaluates a Lua snippet against cpu, exposing a `cpu` table
// with pc(), reg(name), peek(addr), and poke(addr, value). Used by the
// monitor's "script" command for batch inspection and scripted
// conditions without inventing a bespoke expression language.
func RunScript(source string, cpu DebuggableCPU) error {
	L := lua.NewState()
	defer L.Close()

	cpuTable := L.NewTable()
	L.SetField(cpuTable, "pc", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(cpu.GetPC()))
		return 1
	}))
	L.SetField(cpuTable, "reg", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		val, ok := cpu.GetRegister(name)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(val))
		return 1
	}))
	L.SetField(cpuTable, "peek", L.NewFunction(func(L *lua.LState) int {
		addr := uint64(L.CheckNumber(1))
		data := cpu.ReadMemory(addr, 1)
		if len(data) == 0 {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(data[0]))
		return 1
	}))
	L.SetField(cpuTable, "poke", L.NewFunction(func(L *lua.LState) int {
		addr := uint64(L.CheckNumber(1))
		value := byte(L.CheckNumber(2))
		cpu.WriteMemory(addr, []byte{value})
		return 0
	}))
	L.SetGlobal("cpu", cpuTable)

	return L.DoString(source)
}

// RawConsole puts fd into raw mode for the duration of the call,
// delivering single keystrokes read from r to handle rather than waiting
// for a newline — used by the interactive debug console for
// single-keystroke step/continue commands when debug is enabled on a TTY.
func RawConsole(fd int, r io.Reader, handle func(r *bufio.Reader) error) error {
	if !term.IsTerminal(fd) {
		return fmt.Errorf("fd %d is not a terminal", fd)
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)

	return handle(bufio.NewReader(r))
}

// RunConsole drives the interactive single-keystroke debug console on fd
// (see §4.I): 'c' resumes, 's' sends a "step" command, which releases the
// loop's debugger wait like "continue" (the monitor stays active) and does
// not stop the loop again after one iteration, 'b' prints a
// backtrace of the focused CPU, ':' drops into line mode for one multi-word
// command (break/clear/script/quit), anything else is ignored. Returns once
// the underlying reader is closed, fd is not a terminal, or 'q' is seen.
func RunConsole(fd int, r io.Reader, w io.Writer, pcb *PCB, monitor *MachineMonitor) error {
	return RawConsole(fd, r, func(br *bufio.Reader) error {
		for {
			b, err := br.ReadByte()
			if err != nil {
				return err
			}
			switch b {
			case 'c':
				monitor.Deactivate()
				pcb.Commands <- DebugCommand{Kind: "continue"}
			case 's':
				pcb.Commands <- DebugCommand{Kind: "step"}
			case 'b':
				entry := monitor.FocusedCPU()
				if entry == nil {
					continue
				}
				for _, addr := range backtrace(entry.CPU, 8) {
					fmt.Fprintf(w, "  $%04X\n", addr)
				}
			case ':':
				line, _ := br.ReadString('\n')
				runLineCommand(pcb, monitor, strings.TrimSpace(line), w)
			case 'q':
				pcb.Cancel()
				return nil
			}
		}
	})
}

// runLineCommand dispatches one multi-word monitor command entered through
// RunConsole's ':' escape: break/clear set or clear a breakpoint on the
// focused CPU via EvalAddress, script runs a Lua file against it, quit
// cancels the PCB loop.
func runLineCommand(pcb *PCB, monitor *MachineMonitor, line string, w io.Writer) {
	cmd := ParseCommand(line)
	entry := monitor.FocusedCPU()
	switch cmd.Name {
	case "break":
		if entry == nil || len(cmd.Args) == 0 {
			return
		}
		if addr, ok := EvalAddress(cmd.Args[0], entry.CPU); ok {
			entry.CPU.SetBreakpoint(addr)
		}
	case "clear":
		if entry == nil || len(cmd.Args) == 0 {
			return
		}
		if addr, ok := EvalAddress(cmd.Args[0], entry.CPU); ok {
			entry.CPU.ClearBreakpoint(addr)
		}
	case "script":
		if entry == nil || len(cmd.Args) == 0 {
			return
		}
		source, err := os.ReadFile(cmd.Args[0])
		if err != nil {
			fmt.Fprintf(w, "script: %v\n", err)
			return
		}
		if err := RunScript(string(source), entry.CPU); err != nil {
			fmt.Fprintf(w, "script error: %v\n", err)
		}
	case "quit":
		pcb.Cancel()
	}
}

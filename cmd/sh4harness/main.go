// sh4harness runs and inspects the end-to-end scenarios internal/scenario
// builds: plain mode runs them all and reports pass/fail, -i drops into an
// interactive monitor that steps a single scenario's CPU one compiled
// block at a time.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/sh4jit/core"
	"github.com/sh4jit/core/internal/logging"
	"github.com/sh4jit/core/internal/scenario"
)

func main() {
	var (
		list        = flag.Bool("list", false, "list scenario names and exit")
		only        = flag.String("scenario", "", "run a single scenario by name instead of all six")
		interactive = flag.Bool("i", false, "drop into an interactive monitor on the named -scenario (or the first one)")
		debug       = flag.Bool("debug", false, "mirror logs to stderr regardless of level")
	)
	flag.Parse()

	log := logging.New(os.Stderr, slog.LevelInfo, *debug)
	all := scenario.All()

	if *list {
		for _, s := range all {
			fmt.Println(s.Name)
		}
		return
	}

	if *interactive {
		s, err := pick(all, *only)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := runMonitor(s, log); err != nil {
			fmt.Fprintln(os.Stderr, "monitor:", err)
			os.Exit(1)
		}
		return
	}

	toRun := all
	if *only != "" {
		s, err := pick(all, *only)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		toRun = []scenario.Scenario{s}
	}

	failed := 0
	for _, s := range toRun {
		if err := scenario.RunOne(s); err != nil {
			fmt.Printf("FAIL %s: %v\n", s.Name, err)
			failed++
			continue
		}
		fmt.Printf("PASS %s\n", s.Name)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func pick(all []scenario.Scenario, name string) (scenario.Scenario, error) {
	if name == "" {
		return all[0], nil
	}
	for _, s := range all {
		if s.Name == name {
			return s, nil
		}
	}
	return scenario.Scenario{}, fmt.Errorf("no such scenario %q", name)
}

// monitorCommand is a parsed monitor input line: a command name and its
// raw argument list, the same two-field shape debug_commands.go's
// MonitorCommand parses into for the machine monitor this mirrors.
type monitorCommand struct {
	name string
	args []string
}

func parseCommand(line string) monitorCommand {
	line = strings.TrimSpace(line)
	if line == "" {
		return monitorCommand{}
	}
	fields := strings.Fields(line)
	return monitorCommand{name: strings.ToLower(fields[0]), args: fields[1:]}
}

// parseAddress accepts $hex, 0xhex, or bare hex, mirroring
// debug_commands.go's ParseAddress formats.
func parseAddress(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "$"):
		v, err := strconv.ParseUint(s[1:], 16, 32)
		return uint32(v), err == nil
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err := strconv.ParseUint(s[2:], 16, 32)
		return uint32(v), err == nil
	default:
		v, err := strconv.ParseUint(s, 16, 32)
		return uint32(v), err == nil
	}
}

// runMonitor builds s's CPU via Setup only (skipping Run/Check, since the
// point is to watch the scenario unfold step by step) and drives it from
// raw stdin the way terminal_host.go drives TerminalMMIO: raw mode, a
// manual byte-at-a-time read loop, CR normalized to LF, DEL normalized to
// backspace, restored on exit.
func runMonitor(s scenario.Scenario, log *slog.Logger) error {
	cpu, err := scenario.NewCPUFor(s)
	if err != nil {
		return fmt.Errorf("building CPU: %w", err)
	}
	defer cpu.Close()
	if err := s.Setup(cpu); err != nil {
		return fmt.Errorf("scenario setup: %w", err)
	}

	fmt.Printf("sh4harness monitor: scenario %q loaded, PC=%#x\n", s.Name, cpu.Ctx.PC)
	fmt.Println("commands: step [n], regs, mem <addr>, run, check, quit")

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return monitorLoop(cpu, s, os.Stdin)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	return monitorRawLoop(cpu, s, fd)
}

// monitorLoop is the non-terminal fallback (piped stdin, e.g. scripted
// input in tests) using ordinary line buffering.
func monitorLoop(cpu *core.CPU, s scenario.Scenario, in *os.File) error {
	buf := make([]byte, 4096)
	var line []byte
	for {
		n, err := in.Read(buf)
		if n > 0 {
			for _, b := range buf[:n] {
				if b == '\n' {
					if dispatch(cpu, s, string(line)) {
						return nil
					}
					line = line[:0]
					continue
				}
				line = append(line, b)
			}
		}
		if err != nil {
			return nil
		}
	}
}

func monitorRawLoop(cpu *core.CPU, s scenario.Scenario, fd int) error {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := syscall.Read(fd, buf)
		if err != nil {
			return nil
		}
		if n == 0 {
			continue
		}
		b := buf[0]
		if b == '\r' {
			b = '\n'
		}
		if b == 0x7f {
			b = 0x08
		}
		switch b {
		case '\n':
			fmt.Print("\r\n")
			if dispatch(cpu, s, string(line)) {
				return nil
			}
			line = line[:0]
			fmt.Print("> ")
		case 0x08:
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Print("\b \b")
			}
		case 0x03: // Ctrl-C
			return nil
		default:
			line = append(line, b)
			fmt.Print(string(b))
		}
	}
}

// dispatch runs one monitor command against cpu, returning true if the
// monitor should exit.
func dispatch(cpu *core.CPU, s scenario.Scenario, input string) bool {
	cmd := parseCommand(input)
	switch cmd.name {
	case "":
		return false
	case "quit", "q", "exit":
		return true
	case "regs":
		printRegs(cpu)
	case "step":
		n := 1
		if len(cmd.args) > 0 {
			if v, ok := parseAddress(cmd.args[0]); ok {
				n = int(v)
			}
		}
		for i := 0; i < n && cpu.Ctx.PC != core.SentinelStopPC; i++ {
			cpu.Execute(1)
		}
		fmt.Printf("PC=%#x\r\n", cpu.Ctx.PC)
	case "mem":
		if len(cmd.args) == 0 {
			fmt.Print("usage: mem <addr>\r\n")
			break
		}
		addr, ok := parseAddress(cmd.args[0])
		if !ok {
			fmt.Print("bad address\r\n")
			break
		}
		fmt.Printf("[%#x] = %#08x\r\n", addr, cpu.Mem.AS.Read32(addr))
	case "run":
		cpu.Execute(1 << 20)
		fmt.Printf("halted at PC=%#x\r\n", cpu.Ctx.PC)
	case "check":
		if err := s.Check(cpu); err != nil {
			fmt.Printf("FAIL: %v\r\n", err)
		} else {
			fmt.Print("PASS\r\n")
		}
	default:
		fmt.Printf("unknown command %q\r\n", cmd.name)
	}
	return false
}

func printRegs(cpu *core.CPU) {
	for i := 0; i < 16; i += 4 {
		fmt.Printf("R%-2d=%#08x R%-2d=%#08x R%-2d=%#08x R%-2d=%#08x\r\n",
			i, cpu.Ctx.R[i], i+1, cpu.Ctx.R[i+1], i+2, cpu.Ctx.R[i+2], i+3, cpu.Ctx.R[i+3])
	}
	fmt.Printf("PC=%#08x SR=%#08x VBR=%#08x FPSCR=%#08x\r\n", cpu.Ctx.PC, cpu.Ctx.SR, cpu.Ctx.VBR, cpu.Ctx.FPSCR)
}

// Package cmd holds the mipssim sub-commands: run, asm, disasm, help.
// Grounded on the teacher's internal/cli/cmd package (exec.go, asm.go,
// help.go), generalized from the LC-3's single image file to the MIPS
// kernel-text-plus-user-units model of spec section 4.10/4.11.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mipssim/r2000/internal/asm"
	"github.com/mipssim/r2000/internal/cli"
	"github.com/mipssim/r2000/internal/log"
	"github.com/mipssim/r2000/internal/monitor"
	"github.com/mipssim/r2000/internal/vm"
)

// breakpointList collects repeated -b flags into a slice of addresses,
// accepting decimal or 0x-prefixed hex the same way the assembler's integer
// literals do.
type breakpointList []vm.Word

func (b *breakpointList) String() string {
	if b == nil {
		return ""
	}

	parts := make([]string, len(*b))
	for i, w := range *b {
		parts[i] = w.String()
	}

	return strings.Join(parts, ",")
}

func (b *breakpointList) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return fmt.Errorf("run: bad breakpoint %q: %w", s, err)
	}

	*b = append(*b, vm.Word(n))

	return nil
}

// Run is the run sub-command: it assembles the kernel text and the named
// user programs (or stdin), boots a Machine at __start, and executes it to
// completion or to the first unhandled condition.
func Run() cli.Command {
	r := &runner{
		pseudo:     true,
		exceptions: true,
		devices:    true,
		delaySlots: true,
		caches:     true,
		blockSize:  vm.DefaultBlockSize,
	}

	return r
}

type runner struct {
	breakpoints breakpointList
	pseudo      bool
	trace       bool
	exceptions  bool
	devices     bool
	delaySlots  bool
	caches      bool
	blockSize   int
}

func (runner) Description() string {
	return "assemble and run a MIPS program"
}

func (runner) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `run [options] file...

Assemble the named files (or stdin, if none given) together with the kernel
text and run the result to completion.`)

	return err
}

func (r *runner) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Var(&r.breakpoints, "b", "add a PC `breakpoint` (repeatable)")
	toggle(fs, &r.pseudo, "p", "P", "pseudo-instruction expansion")
	fs.BoolVar(&r.trace, "v", false, "trace each executed instruction to stderr")
	toggle(fs, &r.exceptions, "e", "E", "the full exception handler")
	toggle(fs, &r.devices, "i", "I", "memory-mapped I/O devices")
	toggle(fs, &r.delaySlots, "d", "D", "branch delay slots")
	fs.IntVar(&r.blockSize, "m", vm.DefaultBlockSize, "memory block `size` in bytes")
	toggle(fs, &r.caches, "c", "C", "the standard cache")

	return fs
}

// toggle registers a pair of flags that set *v to true/false respectively,
// e.g. -d/-D. Grounded on spec section 6's flag table, where every on/off
// pair shares one field and the later flag on the command line wins;
// flag.BoolFunc (rather than two BoolVars racing for the same field with no
// defined order) makes that explicit.
func toggle(fs *cli.FlagSet, v *bool, on, off, what string) {
	fs.BoolFunc(on, "enable "+what, func(string) error { *v = true; return nil })
	fs.BoolFunc(off, "disable "+what, func(string) error { *v = false; return nil })
}

// Stdin overrides the reader the machine's keyboard device polls. Left nil,
// Run uses os.Stdin directly, which is correct for piped or redirected
// input. cmd/mipssim's run wrapper sets this to a real terminal's raw-mode
// key stream (cmd/internal/tty.Console) when stdin is a TTY, since raw-mode
// terminal setup is a CLI-shell concern (spec section 6), not something
// this package or the engine depends on directly.
var Stdin io.Reader

func (r *runner) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	units, err := readUnits(args)
	if err != nil {
		logger.Error("read failed", "err", err)
		return 1
	}

	if r.exceptions {
		units = append(monitor.Units(), units...)
	} else {
		units = append([]asm.Unit{{Name: "start", Source: startOnlySource}}, units...)
	}

	stdin := Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	opts := []vm.OptionFn{
		vm.WithBlockSize(r.blockSize),
		vm.WithDevices(r.devices),
		vm.WithDelaySlots(r.delaySlots),
		vm.WithVirtualSyscalls(!r.exceptions),
		vm.WithBreakpoints(r.breakpoints...),
		vm.WithStdio(stdin, stdout),
	}

	if r.caches {
		opts = append(opts, vm.WithCaches(vm.DefaultCacheConfig()))
	}

	m := vm.New(opts...)

	// The kernel units write kernel text and data, so assembly runs with
	// Status cleared (kernel mode); the configured mode is restored for Boot.
	status := m.CP0.Status
	m.CP0.Status = 0

	p, err := asm.Assemble(m.Mem, units, r.pseudo)
	m.CP0.Status = status
	if err != nil {
		logger.Error("assemble failed", "err", err)
		return 1
	}

	entry, ok := p.Global().Get("__start")
	if !ok {
		logger.Error("assemble failed", "err", asm.ErrMissingStart)
		return 1
	}

	m.Boot(vm.Word(entry))

	if r.trace {
		err = r.runTraced(ctx, m, logger)
	} else {
		err = m.Run(ctx)
	}

	if err != nil {
		logger.Error("run failed", "err", err)
		return 1
	}

	if m.Breakpointed() {
		fmt.Fprintf(stdout, "stopped at breakpoint, PC=%s\n", m.PC.String())
		return 2
	}

	return m.ExitCode()
}

// runTraced steps the machine one instruction at a time, logging the PC
// before each step, the way the teacher's -v flag drives verboseSteps in its
// own exec command.
func (r *runner) runTraced(ctx context.Context, m *vm.Machine, logger *log.Logger) error {
	for m.Running() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		logger.Info("step", "pc", m.PC.String())

		if err := m.Step(); err != nil {
			if errors.Is(err, vm.ErrHalt) {
				return nil
			}

			return err
		}
	}

	return nil
}

// startOnlySource replaces monitor's kernel text when the exception handler
// is disabled (-E): just enough to reach main without a trap vector or
// syscall handler backing it, matching processException's own direct
// dispatch of exit/exit2 and virtualSyscall's direct dispatch of the rest.
const startOnlySource = `
.ktext 0x80000000
.globl __start
__start:
    lw    $a0, 0($sp)
    addi  $a1, $sp, 4
    li    $a2, 0
    la    $t0, main
    jalr  $t0
    sll   $zero, $zero, 0
    li    $v0, 10
    syscall
`

// readUnits turns command-line filenames (or stdin, if none) into
// translation units.
func readUnits(args []string) ([]asm.Unit, error) {
	if len(args) == 0 {
		src, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return nil, err
		}

		return []asm.Unit{{Name: "stdin", Source: string(src)}}, nil
	}

	units := make([]asm.Unit, 0, len(args))

	for _, fn := range args {
		b, err := os.ReadFile(fn)
		if err != nil {
			return nil, err
		}

		units = append(units, asm.Unit{Name: fn, Source: string(b)})
	}

	return units, nil
}

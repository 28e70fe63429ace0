package vm

// cpu.go assembles the Machine: the register file, CP0, memory and devices,
// wired together by a functional-options constructor. Grounded on the
// teacher's LC3 struct and New(opts ...OptionFn) (internal/vm/cpu.go in the
// retrieval pack), generalized from the LC-3's 8 registers and flat memory
// to the MIPS register/CP0/segmented-memory aggregate.

import (
	"bufio"
	"io"
	"os"

	"github.com/mipssim/r2000/internal/log"
)

// Machine is the complete architectural state of one MIPS R2000: general
// registers, HI/LO, PC, coprocessor-0, memory (with its cache hierarchy and
// devices), and the bookkeeping the engine needs to run it.
type Machine struct {
	PC Word
	HI Word
	LO Word

	Reg RegisterFile
	CP0 CP0
	Mem *Memory

	delaySlotsEnabled bool
	virtualSyscalls   bool

	breakpoints  map[Word]bool
	breakpointed bool
	running      bool
	exited       bool
	exitCode     int

	stdin  *bufio.Reader
	stdout io.Writer

	log *log.Logger
}

// config accumulates functional-option settings before New builds the
// Machine. Kept private: callers only see OptionFn.
type config struct {
	blockSize       int
	caches          *CacheConfig
	devicesEnabled  bool
	delaySlots      bool
	virtualSyscalls bool
	kernelMode      bool
	breakpoints     []Word
	stdin           io.Reader
	stdout          io.Writer
	clockPeriod     int
}

// OptionFn configures a Machine at construction time.
type OptionFn func(*config)

// WithBlockSize sets the memory manager's block size in bytes (CLI -m).
func WithBlockSize(bytes int) OptionFn {
	return func(c *config) { c.blockSize = bytes }
}

// WithCaches attaches a cache hierarchy to the memory manager (CLI -c/-C).
func WithCaches(cfg CacheConfig) OptionFn {
	return func(c *config) { c.caches = &cfg }
}

// WithDevices enables or disables the memory-mapped I/O devices (CLI -i/-I).
func WithDevices(enabled bool) OptionFn {
	return func(c *config) { c.devicesEnabled = enabled }
}

// WithDelaySlots enables or disables branch-delay-slot semantics (CLI -d/-D).
func WithDelaySlots(enabled bool) OptionFn {
	return func(c *config) { c.delaySlots = enabled }
}

// WithVirtualSyscalls short-circuits syscalls against the host stdio instead
// of running the simulated kernel text's syscall handler.
func WithVirtualSyscalls(enabled bool) OptionFn {
	return func(c *config) { c.virtualSyscalls = enabled }
}

// WithKernelMode boots the machine already in kernel mode (Status.KU=0)
// instead of the default user mode.
func WithKernelMode(kernel bool) OptionFn {
	return func(c *config) { c.kernelMode = kernel }
}

// WithBreakpoints preloads PC breakpoints (CLI -b, repeatable).
func WithBreakpoints(pcs ...Word) OptionFn {
	return func(c *config) { c.breakpoints = append(c.breakpoints, pcs...) }
}

// WithStdio overrides the console keyboard/screen's backing reader/writer;
// nil keeps the default of os.Stdin/os.Stdout.
func WithStdio(in io.Reader, out io.Writer) OptionFn {
	return func(c *config) { c.stdin, c.stdout = in, out }
}

// WithClockPeriod sets the clock device's tick period. CP0.Compare is not
// affected; Boot sets it to 1500.
func WithClockPeriod(ticks int) OptionFn {
	return func(c *config) { c.clockPeriod = ticks }
}

// New builds a Machine from the given options, wiring memory, an optional
// cache hierarchy, and the console devices, the way the teacher's New wires
// the LC-3's keyboard/display.
func New(opts ...OptionFn) *Machine {
	cfg := config{
		blockSize:      DefaultBlockSize,
		devicesEnabled: true,
		delaySlots:     true,
		clockPeriod:    1500,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Machine{
		delaySlotsEnabled: cfg.delaySlots,
		virtualSyscalls:   cfg.virtualSyscalls,
		breakpoints:       make(map[Word]bool, len(cfg.breakpoints)),
		log:               log.DefaultLogger(),
	}

	m.Mem = NewMemory(&m.CP0, cfg.blockSize)

	if cfg.caches != nil {
		m.Mem.AttachCaches(*cfg.caches)
	}

	if cfg.stdin == nil {
		cfg.stdin = os.Stdin
	}

	if cfg.stdout == nil {
		cfg.stdout = os.Stdout
	}

	m.stdin = bufio.NewReader(cfg.stdin)
	m.stdout = cfg.stdout

	if cfg.devicesEnabled {
		kb := NewKeyboard(cfg.stdin)
		scr := NewScreen(cfg.stdout)
		clk := NewClock(cfg.clockPeriod)

		m.Mem.Devices().Map(AddrKeyboardCtrl, kb)
		m.Mem.Devices().Map(AddrKeyboardData, kb)
		m.Mem.Devices().Map(AddrScreenCtrl, scr)
		m.Mem.Devices().Map(AddrScreenData, scr)
		m.Mem.Devices().Map(AddrClockCtrl, clk)
	}

	for _, bp := range cfg.breakpoints {
		m.breakpoints[bp] = true
	}

	m.CP0.Status = 0
	if !cfg.kernelMode {
		m.CP0.Status |= StatusKU
	}

	return m
}

// Boot sets up the machine for execution at entry, per spec section 4.12:
// enables all interrupt masks and IE, sets the timer budget, and fakes an
// argc/argv stack frame.
func (m *Machine) Boot(entry Word) {
	m.PC = entry
	m.CP0.Status |= StatusIMMask | StatusIE
	m.CP0.Compare = 1500
	m.Reg.Set(SP, 0x7FFFFFF4)
	m.running = true
}

// Breakpointed reports whether the engine is paused at a breakpoint.
func (m *Machine) Breakpointed() bool { return m.breakpointed }

// Resume clears the breakpoint pause so the next Step executes normally.
func (m *Machine) Resume() { m.breakpointed = false }

// Running reports whether the fetch/execute loop should keep going.
func (m *Machine) Running() bool { return m.running && !m.breakpointed }

// Exited and ExitCode report how the machine stopped.
func (m *Machine) Exited() bool  { return m.exited }
func (m *Machine) ExitCode() int { return m.exitCode }

func (m *Machine) String() string {
	return "PC: " + m.PC.String() + "\n" + m.Reg.String() + "\n" + m.CP0.String()
}

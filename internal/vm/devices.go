package vm

// devices.go implements the memory-mapped I/O controller and the three
// console devices (keyboard, screen, clock). Grounded on the teacher's
// Device/Driver/DeviceReader/DeviceWriter split (internal/vm/devices.go,
// io.go in the retrieval pack), generalized from the LC-3's keyboard/display
// pair to the MIPS window described in spec section 4.5 and the register
// table in section 6.

import (
	"bufio"
	"io"
	"os"

	"github.com/mipssim/r2000/internal/log"
)

// Device addresses. Devices mask the bottom two bits of any address they are
// asked to service (spec section 4.5).
const (
	AddrKeyboardCtrl  Word = 0xFFFF0000
	AddrKeyboardData  Word = 0xFFFF0004
	AddrScreenCtrl    Word = 0xFFFF0008
	AddrScreenData    Word = 0xFFFF000C
	AddrClockCtrl     Word = 0xFFFF0010
	IOPageStart       Word = 0xFFFF0000
)

// Interrupt source numbers, assigned by this simulator (spec section 3 only
// fixes the mask/IP bit layout, not which source maps to which device).
const (
	IntSourceKeyboard uint8 = 0
	IntSourceScreen   uint8 = 1
	IntSourceClock    uint8 = 2
)

// Device is a memory-mapped peripheral: it services reads/writes at its
// mapped addresses and advances its internal state once per fetch/execute
// turn via Tick.
type Device interface {
	Read(addr Word, size int) Word
	Write(addr Word, size int, v Word)
	Tick(raise func(source uint8))
}

// MMIO is the machine's memory-mapped I/O window: a small address range
// where reads/writes are redirected to Device implementations instead of
// main memory.
type MMIO struct {
	devs map[Word]Device
	log  *log.Logger
}

// NewMMIO creates an empty device table.
func NewMMIO() *MMIO {
	return &MMIO{devs: make(map[Word]Device), log: log.DefaultLogger()}
}

// Map registers a device to service the given base address (and, implicitly,
// every address that aliases to it once the bottom two bits are masked).
func (m *MMIO) Map(addr Word, d Device) {
	m.devs[addr&^0x3] = d
}

// Lookup returns the device mapped at addr, if any. Addresses are masked to
// their containing word, matching the "devices mask the bottom two bits"
// rule.
func (m *MMIO) Lookup(addr Word) (Device, bool) {
	if addr < IOPageStart {
		return nil, false
	}

	d, ok := m.devs[addr&^0x3]

	return d, ok
}

// Tick advances every mapped device by one turn. raise is called for each
// interrupt a device wants to signal.
func (m *MMIO) Tick(raise func(source uint8)) {
	ticked := make(map[Device]bool, len(m.devs))

	for _, d := range m.devs {
		if ticked[d] {
			continue
		}

		ticked[d] = true
		d.Tick(raise)
	}
}

// ctrlReady and ctrlIntEnable are the two control-register bits shared by
// all three devices.
const (
	ctrlReady     Word = 1 << 0
	ctrlIntEnable Word = 1 << 1
	ctrlTick      Word = 1 << 1 // clock control reuses bit 1 as "tick" per spec section 6
)

// Keyboard is the console keyboard device: a non-blocking stdin reader that
// fills its data register and raises an interrupt on a new character.
type Keyboard struct {
	ctrl Word
	data Word
	in   *bufio.Reader
}

// NewKeyboard wraps r (typically os.Stdin put into raw/non-blocking mode by
// the CLI layer) as the console keyboard.
func NewKeyboard(r io.Reader) *Keyboard {
	if r == nil {
		r = os.Stdin
	}

	return &Keyboard{in: bufio.NewReader(r)}
}

func (k *Keyboard) Read(addr Word, size int) Word {
	switch addr &^ 0x3 {
	case AddrKeyboardCtrl:
		return k.ctrl
	case AddrKeyboardData:
		v := k.data
		k.ctrl &^= ctrlReady

		return v
	default:
		return 0
	}
}

func (k *Keyboard) Write(addr Word, size int, v Word) {
	if addr&^0x3 == AddrKeyboardCtrl {
		k.ctrl = v & (ctrlReady | ctrlIntEnable)
	}
}

// Tick polls stdin without blocking the fetch/execute loop: ReadByte on a
// buffered reader over a non-canonical, non-blocking terminal (set up by the
// CLI) returns a non-nil error immediately when no input is pending, rather
// than blocking, so this can run once per turn with no separate reader
// goroutine. A previous byte that the running program has not yet consumed
// (ctrlReady still set) is left in place rather than overwritten.
func (k *Keyboard) Tick(raise func(source uint8)) {
	if k.ctrl&ctrlReady != 0 {
		return
	}

	b, err := k.in.ReadByte()
	if err != nil {
		return
	}

	k.data = Word(b)
	k.ctrl |= ctrlReady

	if k.ctrl&ctrlIntEnable != 0 {
		raise(IntSourceKeyboard)
	}
}

// Screen is the console screen device: writes to DATA are latched and,
// after a short simulated delay, emitted to stdout.
type Screen struct {
	ctrl    Word
	data    Word
	delay   int
	out     io.Writer
}

// ScreenDelayTicks is the number of ticks a byte sits in the screen's
// register before being emitted, matching spec section 4.5's example.
const ScreenDelayTicks = 5

// NewScreen wraps w (typically os.Stdout) as the console screen.
func NewScreen(w io.Writer) *Screen {
	if w == nil {
		w = os.Stdout
	}

	return &Screen{ctrl: ctrlReady, out: w}
}

func (s *Screen) Read(addr Word, size int) Word {
	if addr&^0x3 == AddrScreenCtrl {
		return s.ctrl
	}

	return 0
}

func (s *Screen) Write(addr Word, size int, v Word) {
	switch addr &^ 0x3 {
	case AddrScreenCtrl:
		s.ctrl = (s.ctrl &^ ctrlIntEnable) | (v & ctrlIntEnable) | (s.ctrl & ctrlReady)
	case AddrScreenData:
		if s.ctrl&ctrlReady == 0 {
			return
		}

		s.data = v
		s.ctrl &^= ctrlReady
		s.delay = ScreenDelayTicks
	}
}

func (s *Screen) Tick(raise func(source uint8)) {
	if s.delay == 0 {
		return
	}

	s.delay--

	if s.delay == 0 {
		_, _ = s.out.Write([]byte{byte(s.data)})
		s.ctrl |= ctrlReady

		if s.ctrl&ctrlIntEnable != 0 {
			raise(IntSourceScreen)
		}
	}
}

// Clock is the console timer device: every configured period it sets its
// ready bit and optionally raises an interrupt.
type Clock struct {
	ctrl   Word
	period int
	count  int
}

// NewClock creates a clock that ticks over every period turns.
func NewClock(period int) *Clock {
	if period <= 0 {
		period = 1500
	}

	return &Clock{period: period}
}

func (c *Clock) Read(addr Word, size int) Word {
	if addr&^0x3 == AddrClockCtrl {
		return c.ctrl
	}

	return 0
}

func (c *Clock) Write(addr Word, size int, v Word) {
	if addr&^0x3 == AddrClockCtrl {
		c.ctrl = (c.ctrl &^ ctrlIntEnable) | (v & ctrlIntEnable)

		if v&ctrlTick != 0 {
			c.count = 0
		}
	}
}

func (c *Clock) Tick(raise func(source uint8)) {
	c.count++

	if c.count < c.period {
		return
	}

	c.count = 0
	c.ctrl |= ctrlReady

	if c.ctrl&ctrlIntEnable != 0 {
		raise(IntSourceClock)
	}
}

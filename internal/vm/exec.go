package vm

// exec.go implements the fetch/execute loop and trap dispatch. Grounded on
// the teacher's Run/Step/serviceInterrupts (internal/vm/exec.go in the
// retrieval pack) and on original_source/spym/vm/core.py's __vm_loop and
// processException, which this generalizes from the LC-3's single-cycle
// fetch to the MIPS delay-slot-aware cycle described in spec section 4.12.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrHalt is returned by Step when the program stops normally: no
// instruction at the fetch address, or a syscall 10/17 exit. Run treats it
// as a normal stop and returns nil.
// It is not an architectural trap and never reaches processException.
var ErrHalt = errors.New("vm: halted")

// Run drives the fetch/execute loop until the machine stops running, is
// paused at a breakpoint, or ctx is canceled.
func (m *Machine) Run(ctx context.Context) error {
	for m.Running() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := m.Step(); err != nil {
			if errors.Is(err, ErrHalt) {
				return nil
			}

			return err
		}
	}

	return nil
}

// Step executes exactly one fetch/execute turn: tick devices, service a
// pending interrupt, fetch (and, if applicable, execute the delay slot
// first), execute, and advance PC.
func (m *Machine) Step() error {
	interrupted := false

	m.Mem.Devices().Tick(func(source uint8) {
		m.CP0.SetPending(source)
		interrupted = true
	})

	if interrupted {
		if trap := m.pendingInterrupt(); trap != nil {
			return m.processException(trap)
		}
	}

	oldPC := m.PC

	instr, ok := m.fetch(oldPC)
	if !ok {
		m.running = false
		return ErrHalt
	}

	advance := Word(4)

	if m.delaySlotsEnabled && instr.Branch {
		if delayInstr, dok := m.fetch(oldPC + 4); dok {
			if err := delayInstr.Exec(m); err != nil {
				if trap, ok := asTrap(err); ok {
					// EnterException latches whatever m.PC holds as EPC; set it
					// to the delay slot's address first so the kernel vector
					// (or rfe, on return) sees the address that actually
					// faulted, per spec section 4.12 step 4.
					m.PC = oldPC + 4

					return m.processException(trap)
				}

				return err
			}
		}

		advance = 8
	}

	if err := instr.Exec(m); err != nil {
		if trap, ok := asTrap(err); ok {
			return m.processException(trap)
		}

		return err
	}

	if m.PC == oldPC {
		m.PC = oldPC + advance
	}

	if m.breakpoints[m.PC] {
		m.breakpointed = true
	}

	return nil
}

// fetch returns the semantic instruction at addr: the one the assembler
// placed there, or one freshly decoded from a raw word (self-modified or
// otherwise non-assembled text).
func (m *Machine) fetch(addr Word) (*Instruction, bool) {
	if instr, ok := m.Mem.FetchInstruction(addr); ok {
		return instr, true
	}

	raw, err := m.Mem.Load(addr, 4)
	if err != nil || raw == 0 {
		return nil, false
	}

	instr, err := Decode(Encoding(raw))
	if err != nil {
		return nil, false
	}

	return instr, true
}

// pendingInterrupt returns a Trap for the lowest-numbered unmasked pending
// interrupt source, or nil if none should be delivered right now (spec
// section 4.12: "honor only if Status.IE=1 and the matching mask bit is
// set; otherwise silently drop").
func (m *Machine) pendingInterrupt() *Trap {
	if !m.CP0.InterruptsEnabled() {
		return nil
	}

	for source := uint8(0); source < 8; source++ {
		if m.CP0.Cause&(1<<(CauseIPShift+source)) == 0 {
			continue
		}

		if m.CP0.MaskEnabled(source) {
			return &Trap{Code: ExcINT}
		}
	}

	return nil
}

// processException dispatches one architectural trap, per spec section
// 4.12. SYSCALL/BKPT/ADDRL/ADDRS are special-cased; everything else enters
// the kernel vector.
func (m *Machine) processException(t *Trap) error {
	switch t.Code {
	case ExcADDRL, ExcADDRS:
		m.CP0.BadVAddr = t.Addr
	case ExcSYSCALL:
		v0 := m.Reg.Get(V0)

		if v0 == 10 || v0 == 17 {
			m.running = false
			m.exited = true

			if v0 == 17 {
				m.exitCode = int(m.Reg.Get(A0).Signed())
			}

			return ErrHalt
		}

		if m.virtualSyscalls {
			if err := m.virtualSyscall(v0); err != nil {
				return err
			}

			m.PC += 4

			return nil
		}
	case ExcBKPT:
		m.breakpointed = true
		return nil
	}

	m.CP0.EnterException(t.Code, m.PC)
	m.PC = TrapVectorAddr

	return nil
}

// virtualSyscall implements the syscall ABI (spec section 6) directly
// against the host's stdin/stdout, bypassing the simulated kernel text.
// Grounded on original_source/spym/vm/core.py's __syscallVirtualization.
func (m *Machine) virtualSyscall(v0 Word) error {
	switch v0 {
	case 1: // print_int
		fmt.Fprint(m.stdout, m.Reg.Get(A0).Signed())
	case 4: // print_string
		addr := m.Reg.Get(A0)
		for {
			b, err := m.Mem.Load(addr, 1)
			if err != nil {
				return err
			}

			if b == 0 {
				break
			}

			_, _ = m.stdout.Write([]byte{byte(b)})
			addr++
		}
	case 5: // read_int
		line, err := m.stdin.ReadString('\n')
		if err != nil && line == "" {
			return err
		}

		n, _ := strconv.ParseInt(trimNewline(line), 10, 32)
		m.Reg.Set(V0, Word(int32(n)))
	case 8: // read_string
		addr := m.Reg.Get(A0)
		maxLen := m.Reg.Get(A1)

		var i Word
		for i = 0; i+1 < maxLen; i++ {
			b, err := m.stdin.ReadByte()
			if err != nil || b == '\n' {
				break
			}

			if werr := m.Mem.Store(addr+i, 1, Word(b)); werr != nil {
				return werr
			}
		}

		return m.Mem.Store(addr+i, 1, 0)
	}

	return nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}

	return s
}

package vm

// trap.go defines the architectural exception codes and the Trap error type
// that execution and memory errors are raised as. Grounded on the teacher's
// interrupt/acv error types (internal/vm/intr.go, traps.go in the retrieval
// pack) which implement errors.Is/As so callers can match either a concrete
// trap or a broader sentinel; generalized here from the LC-3's single
// interrupt-descriptor table to the MIPS R2000 exception-code set in
// original_source/spym/vm/core.py's EXCEPTIONS table.

import (
	"errors"
	"fmt"
)

// Exception codes, matching the Cause.ExcCode encoding (spec section 3 and
// section 7's error taxonomy).
const (
	ExcINT     uint8 = 0
	ExcTLBPF   uint8 = 1
	ExcTLBML   uint8 = 2
	ExcTLBMS   uint8 = 3
	ExcADDRL   uint8 = 4
	ExcADDRS   uint8 = 5
	ExcIBUS    uint8 = 6
	ExcDBUS    uint8 = 7
	ExcSYSCALL uint8 = 8
	ExcBKPT    uint8 = 9
	ExcRI      uint8 = 10
	ExcCU      uint8 = 11
	ExcOVF     uint8 = 12
)

var excNames = map[uint8]string{
	ExcINT: "INT", ExcTLBPF: "TLBPF", ExcTLBML: "TLBML", ExcTLBMS: "TLBMS",
	ExcADDRL: "ADDRL", ExcADDRS: "ADDRS", ExcIBUS: "IBUS", ExcDBUS: "DBUS",
	ExcSYSCALL: "SYSCALL", ExcBKPT: "BKPT", ExcRI: "RI", ExcCU: "CU", ExcOVF: "OVF",
}

// Fixed architectural addresses the kernel text and the engine agree on
// (spec section 6).
const (
	TrapVectorAddr      Word = 0x80000080
	SyscallHandlerAddr  Word = 0x80001000
	InterruptRouterAddr Word = 0x80002000
)

// Trap is an architectural exception: one of the codes above, raised by
// instruction execution or by a memory access, and dispatched by
// (*Machine).processException. It implements Is so callers can match a
// specific trap's code with errors.Is(err, vm.TrapCode(vm.ExcOVF)).
type Trap struct {
	Code uint8
	Addr Word // meaningful for ADDRL/ADDRS; latched into BadVAddr
}

func (t *Trap) Error() string {
	return fmt.Sprintf("vm: trap %s", excNames[t.Code])
}

// TrapCode is a sentinel usable with errors.Is to match any Trap carrying a
// given exception code, regardless of its address payload.
func TrapCode(code uint8) error {
	return &Trap{Code: code}
}

func (t *Trap) Is(target error) bool {
	var other *Trap
	if errors.As(target, &other) {
		return other.Code == t.Code
	}

	return false
}

// asTrap normalizes any error that should surface as an architectural trap:
// Traps pass through; AccessErrors from the memory layer become ADDRL/ADDRS
// traps carrying the faulting address.
func asTrap(err error) (*Trap, bool) {
	var t *Trap
	if errors.As(err, &t) {
		return t, true
	}

	var a *AccessError
	if errors.As(err, &a) {
		return &Trap{Code: a.Code, Addr: a.Addr}, true
	}

	return nil, false
}

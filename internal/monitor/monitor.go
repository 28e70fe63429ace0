// Package monitor builds the kernel text every machine starts with: the
// trap vector, the syscall handler, the interrupt router, and the __start
// stub that hands control to a user program's main. Grounded on the
// teacher's internal/monitor package, which assembles the LC-3's trap table
// from a small set of named Routine values; generalized here from a single
// HALT vector to the MIPS kernel text described in spec section 4.11.
package monitor

import (
	"github.com/mipssim/r2000/internal/asm"
	"github.com/mipssim/r2000/internal/vm"
)

// Routine is one piece of kernel text: assembly source that belongs at a
// fixed address. It generalizes the teacher's Routine{Vector, Orig, Code
// []asm.Operation} (internal/monitor/traps.go in the retrieval pack) from a
// list of pre-built Operation values to a span of MIPS source text, since
// this simulator's assembler takes textual units rather than an AST.
type Routine struct {
	Name   string
	Addr   vm.Word
	Source string
}

// Unit turns a Routine into a translation unit ready for asm.Assemble.
func (r Routine) Unit() asm.Unit {
	return asm.Unit{Name: r.Name, Source: r.Source}
}

// Routines returns every kernel-text and kernel-data routine this simulator
// ships with: the startup stub, the re-entrancy save area, the trap vector,
// the syscall handler, and the interrupt router. A caller assembles these
// together with the user's own translation units in one asm.Assemble call
// so that __start's reference to the user's main resolves in the same
// global symbol table (spec section 4.12: "load all user translation
// units, then trigger resolveGlobalDependencies").
func Routines() []Routine {
	return []Routine{
		{Name: "kernel_data", Addr: kernelDataOrigin, Source: kernelDataSource},
		{Name: "__start", Addr: vm.Word(0x80000000), Source: startSource},
		{Name: "trap_vector", Addr: vm.TrapVectorAddr, Source: trapVectorSource},
		{Name: "syscall_handler", Addr: vm.SyscallHandlerAddr, Source: syscallHandlerSource},
		{Name: "interrupt_router", Addr: vm.InterruptRouterAddr, Source: interruptRouterSource},
	}
}

// Units is a convenience wrapper returning Routines already converted to
// asm.Unit, in a fixed, deterministic order.
func Units() []asm.Unit {
	routines := Routines()
	units := make([]asm.Unit, 0, len(routines))

	for _, r := range routines {
		units = append(units, r.Unit())
	}

	return units
}

package vm

// regs.go implements the general-purpose register file and its register-name
// table; HI/LO are fields of Machine (cpu.go) and the coprocessor-0 bank is
// CP0 (cp0.go). Grounded on the teacher's
// RegisterFile/ProcessorStatus design (internal/vm/words.go, vm.go in the
// retrieval pack) generalized from 8 LC-3 registers to 32 MIPS registers plus
// CP0.

import (
	"fmt"
	"strings"

	"github.com/mipssim/r2000/internal/log"
)

// GPR is the index of a general-purpose register.
type GPR uint8

// General-purpose register indices and their conventional aliases.
const (
	R0 GPR = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	R16
	R17
	R18
	R19
	R20
	R21
	R22
	R23
	R24
	R25
	R26
	R27
	R28
	R29
	R30
	R31

	NumGPR = 32

	Zero = R0
	AT   = R1
	V0   = R2
	V1   = R3
	A0   = R4
	A1   = R5
	A2   = R6
	A3   = R7
	T0   = R8
	T1   = R9
	T2   = R10
	T3   = R11
	T4   = R12
	T5   = R13
	T6   = R14
	T7   = R15
	S0   = R16
	S1   = R17
	S2   = R18
	S3   = R19
	S4   = R20
	S5   = R21
	S6   = R22
	S7   = R23
	T8   = R24
	T9   = R25
	K0   = R26
	K1   = R27
	GP   = R28
	SP   = R29
	FP   = R30
	RA   = R31
)

// gprNames maps a register's symbolic name (without the leading '$') to its
// index, used by the assembler front-end.
var gprNames = map[string]GPR{
	"zero": Zero, "at": AT, "v0": V0, "v1": V1,
	"a0": A0, "a1": A1, "a2": A2, "a3": A3,
	"t0": T0, "t1": T1, "t2": T2, "t3": T3, "t4": T4, "t5": T5, "t6": T6, "t7": T7,
	"s0": S0, "s1": S1, "s2": S2, "s3": S3, "s4": S4, "s5": S5, "s6": S6, "s7": S7,
	"t8": T8, "t9": T9, "k0": K0, "k1": K1,
	"gp": GP, "sp": SP, "fp": FP, "ra": RA,
}

// GPRName returns the canonical alias for a register index, e.g. "t0".
func GPRName(r GPR) string {
	for name, idx := range gprNames {
		if idx == r {
			return name
		}
	}

	return fmt.Sprintf("%d", r)
}

// LookupGPR resolves a register name or decimal index (without the '$'
// sigil) to a register number. It returns false if the name is not a valid
// register.
func LookupGPR(name string) (GPR, bool) {
	name = strings.ToLower(name)

	if r, ok := gprNames[name]; ok {
		return r, true
	}

	var n int

	if _, err := fmt.Sscanf(name, "%d", &n); err == nil && n >= 0 && n < NumGPR {
		return GPR(n), true
	}

	return 0, false
}

// RegisterFile is the set of 32 general-purpose registers. Register 0 always
// reads as zero and discards writes; that invariant is enforced by Get/Set
// rather than by special-casing every caller.
type RegisterFile [NumGPR]Word

// Get reads a register. $zero always reads as zero.
func (rf *RegisterFile) Get(r GPR) Word {
	return rf[r]
}

// Set writes a register. Writes to $zero are silently discarded.
func (rf *RegisterFile) Set(r GPR, v Word) {
	if r == Zero {
		return
	}

	rf[r] = v
}

func (rf RegisterFile) String() string {
	b := strings.Builder{}

	for i := 0; i < NumGPR; i += 2 {
		fmt.Fprintf(&b, "$%-4s %s  $%-4s %s\n",
			GPRName(GPR(i)), rf[i], GPRName(GPR(i+1)), rf[i+1])
	}

	return b.String()
}

func (rf RegisterFile) LogValue() log.Value {
	attrs := make([]log.Attr, 0, NumGPR)

	for i := 0; i < NumGPR; i++ {
		attrs = append(attrs, log.String(fmt.Sprintf("$%s", GPRName(GPR(i))), rf[i].String()))
	}

	return log.GroupValue(attrs...)
}

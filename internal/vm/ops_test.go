package vm_test

import (
	"testing"

	"github.com/mipssim/r2000/internal/vm"
)

func newTestMachine(t *testing.T) *vm.Machine {
	t.Helper()
	return vm.New(vm.WithDevices(false), vm.WithKernelMode(true))
}

func TestBuildADDComputesSum(t *testing.T) {
	m := newTestMachine(t)

	m.Reg.Set(vm.T0, 2)
	m.Reg.Set(vm.T1, 3)

	instr := vm.BuildADD(vm.T2, vm.T0, vm.T1)
	if err := instr.Exec(m); err != nil {
		t.Fatalf("ADD exec: %v", err)
	}

	if got := m.Reg.Get(vm.T2); got != 5 {
		t.Fatalf("$t2 = %d, want 5", got)
	}
}

func TestBuildADDTrapsOnSignedOverflow(t *testing.T) {
	m := newTestMachine(t)

	m.Reg.Set(vm.T0, 0x7fffffff)
	m.Reg.Set(vm.T1, 1)

	instr := vm.BuildADD(vm.T2, vm.T0, vm.T1)

	err := instr.Exec(m)
	if err == nil {
		t.Fatal("ADD overflow did not trap")
	}

	var trap *vm.Trap
	if tr, ok := err.(*vm.Trap); ok {
		trap = tr
	} else {
		t.Fatalf("ADD overflow error = %v, want *vm.Trap", err)
	}

	if trap.Code != vm.ExcOVF {
		t.Fatalf("trap code = %d, want ExcOVF", trap.Code)
	}
}

func TestBuildADDUNeverTrapsOnOverflow(t *testing.T) {
	m := newTestMachine(t)

	m.Reg.Set(vm.T0, 0xffffffff)
	m.Reg.Set(vm.T1, 2)

	instr := vm.BuildADDU(vm.T2, vm.T0, vm.T1)
	if err := instr.Exec(m); err != nil {
		t.Fatalf("ADDU should never trap, got %v", err)
	}

	if got := m.Reg.Get(vm.T2); got != 1 {
		t.Fatalf("$t2 = %d, want 1 (wrapped)", got)
	}
}

func TestBuildSLTSignedComparison(t *testing.T) {
	m := newTestMachine(t)

	m.Reg.Set(vm.T0, vm.U32(-1))
	m.Reg.Set(vm.T1, 1)

	instr := vm.BuildSLT(vm.T2, vm.T0, vm.T1)
	_ = instr.Exec(m)

	if got := m.Reg.Get(vm.T2); got != 1 {
		t.Fatalf("slt(-1, 1) = %d, want 1", got)
	}
}

func TestBuildDIVQuotientInLORemainderInHI(t *testing.T) {
	m := newTestMachine(t)

	m.Reg.Set(vm.T0, 7)
	m.Reg.Set(vm.T1, 2)

	instr := vm.BuildDIV(vm.T0, vm.T1)
	if err := instr.Exec(m); err != nil {
		t.Fatalf("DIV exec: %v", err)
	}

	if m.LO != 3 {
		t.Fatalf("LO = %d, want 3 (quotient)", m.LO)
	}

	if m.HI != 1 {
		t.Fatalf("HI = %d, want 1 (remainder)", m.HI)
	}
}

func TestBuildLUILoadsUpperHalf(t *testing.T) {
	m := newTestMachine(t)

	instr := vm.BuildLUI(vm.T0, 0xbeef)
	_ = instr.Exec(m)

	if got := m.Reg.Get(vm.T0); got != 0xbeef0000 {
		t.Fatalf("$t0 = %#x, want 0xbeef0000", uint32(got))
	}
}

func TestBuildSWThenLWRoundTrips(t *testing.T) {
	m := newTestMachine(t)

	m.Reg.Set(vm.SP, 0x10000100)
	m.Reg.Set(vm.T0, 0x12345678)

	sw := vm.BuildSW(vm.T0, vm.SP, 0)
	if err := sw.Exec(m); err != nil {
		t.Fatalf("sw exec: %v", err)
	}

	lw := vm.BuildLW(vm.T1, vm.SP, 0)
	if err := lw.Exec(m); err != nil {
		t.Fatalf("lw exec: %v", err)
	}

	if got := m.Reg.Get(vm.T1); got != 0x12345678 {
		t.Fatalf("$t1 = %#x, want 0x12345678", uint32(got))
	}
}

func TestBuildLBSignExtendsNegativeByte(t *testing.T) {
	m := newTestMachine(t)

	m.Reg.Set(vm.SP, 0x10000100)
	_ = m.Mem.Store(0x10000100, 1, 0xff)

	lb := vm.BuildLB(vm.T0, vm.SP, 0)
	_ = lb.Exec(m)

	if got := m.Reg.Get(vm.T0).Signed(); got != -1 {
		t.Fatalf("$t0 = %d, want -1", got)
	}
}

func TestBuildLBUZeroExtendsNegativeByte(t *testing.T) {
	m := newTestMachine(t)

	m.Reg.Set(vm.SP, 0x10000100)
	_ = m.Mem.Store(0x10000100, 1, 0xff)

	lbu := vm.BuildLBU(vm.T0, vm.SP, 0)
	_ = lbu.Exec(m)

	if got := m.Reg.Get(vm.T0); got != 0xff {
		t.Fatalf("$t0 = %#x, want 0xff", uint32(got))
	}
}

func TestBuildBEQTakenAdvancesByDisplacement(t *testing.T) {
	m := newTestMachine(t)
	m.PC = 0x00400010

	m.Reg.Set(vm.T0, 5)
	m.Reg.Set(vm.T1, 5)

	beq := vm.BuildBEQ(vm.T0, vm.T1, 2) // +2 words
	_ = beq.Exec(m)

	if want := vm.Word(0x00400010 + 4 + 2*4); m.PC != want {
		t.Fatalf("PC = %s, want %s", m.PC, want)
	}
}

func TestBuildBEQNotTakenLeavesPCForCallerToAdvance(t *testing.T) {
	m := newTestMachine(t)
	m.PC = 0x00400010

	m.Reg.Set(vm.T0, 5)
	m.Reg.Set(vm.T1, 6)

	beq := vm.BuildBEQ(vm.T0, vm.T1, 2)
	_ = beq.Exec(m)

	if m.PC != 0x00400010 {
		t.Fatalf("PC = %s, want unchanged 0x00400010", m.PC)
	}
}

func TestBuildJALLinksReturnAddressWithDelaySlot(t *testing.T) {
	m := vm.New(vm.WithDevices(false), vm.WithKernelMode(true), vm.WithDelaySlots(true))
	m.PC = 0x00400000

	jal := vm.BuildJAL(0x00400100)
	_ = jal.Exec(m)

	if got := m.Reg.Get(vm.RA); got != 0x00400000+8 {
		t.Fatalf("$ra = %s, want PC+8 with delay slots enabled", got)
	}
}

func TestEncodeDecodeRoundTripsADD(t *testing.T) {
	orig := vm.BuildADD(vm.T2, vm.T0, vm.T1)

	decoded, err := vm.Decode(orig.Encoding)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.Mnemonic != "add" {
		t.Fatalf("decoded mnemonic = %q, want add", decoded.Mnemonic)
	}
}

func TestEncodeBranchImmAndTargetHelpers(t *testing.T) {
	imm := vm.EncodeBranchImm(0x00400000, 0x00400010)
	if imm != 3 {
		t.Fatalf("EncodeBranchImm = %d, want 3", int16(imm))
	}

	target := vm.EncodeJumpTarget(0x00400100)
	if target != 0x00400100>>2 {
		t.Fatalf("EncodeJumpTarget = %#x, want %#x", target, 0x00400100>>2)
	}
}

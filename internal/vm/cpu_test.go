package vm_test

import (
	"context"
	"testing"

	"github.com/mipssim/r2000/internal/vm"
)

func TestBootEnablesInterruptsAndSetsStackPointer(t *testing.T) {
	m := vm.New(vm.WithDevices(false))
	m.Boot(0x00400000)

	if m.PC != 0x00400000 {
		t.Fatalf("PC = %s, want entry point", m.PC)
	}

	if !m.Running() {
		t.Fatal("Running() = false after Boot")
	}

	if m.Reg.Get(vm.SP) == 0 {
		t.Fatal("Boot left $sp at zero")
	}
}

func TestStepHaltsAtUnpopulatedAddress(t *testing.T) {
	m := vm.New(vm.WithDevices(false))
	m.Boot(0x00400000)

	err := m.Step()
	if err == nil {
		t.Fatal("Step at an empty address succeeded, want ErrHalt")
	}

	if err != vm.ErrHalt {
		t.Fatalf("Step error = %v, want ErrHalt", err)
	}

	if m.Running() {
		t.Fatal("Running() = true after halting")
	}
}

func TestRunExecutesAddiThenHalts(t *testing.T) {
	m := vm.New(vm.WithDevices(false))

	_ = m.Mem.StoreInstruction(0x00400000, vm.BuildADDI(vm.T0, vm.Zero, 41))
	_ = m.Mem.StoreInstruction(0x00400004, vm.BuildADDI(vm.T0, vm.T0, 1))

	m.Boot(0x00400000)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := m.Reg.Get(vm.T0); got != 42 {
		t.Fatalf("$t0 = %d, want 42", got)
	}

	if !m.Exited() && m.Running() {
		t.Fatal("machine is still running after falling off the end")
	}
}

func TestRunStopsAtBreakpoint(t *testing.T) {
	m := vm.New(vm.WithDevices(false), vm.WithBreakpoints(0x00400004))

	_ = m.Mem.StoreInstruction(0x00400000, vm.BuildADDI(vm.T0, vm.Zero, 1))
	_ = m.Mem.StoreInstruction(0x00400004, vm.BuildADDI(vm.T0, vm.T0, 1))

	m.Boot(0x00400000)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !m.Breakpointed() {
		t.Fatal("Breakpointed() = false, want true at $t0 breakpoint")
	}

	if m.PC != 0x00400004 {
		t.Fatalf("PC = %s, want breakpoint address", m.PC)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	m := vm.New(vm.WithDevices(false))

	_ = m.Mem.StoreInstruction(0x00400000, vm.BuildADDI(vm.T0, vm.Zero, 1))

	m.Boot(0x00400000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Run(ctx); err == nil {
		t.Fatal("Run with a canceled context returned nil error")
	}
}

func TestExitSyscall17SetsExitCodeFromA0(t *testing.T) {
	m := vm.New(vm.WithDevices(false), vm.WithVirtualSyscalls(true))

	_ = m.Mem.StoreInstruction(0x00400000, vm.BuildADDI(vm.V0, vm.Zero, 17))
	_ = m.Mem.StoreInstruction(0x00400004, vm.BuildADDI(vm.A0, vm.Zero, 7))
	_ = m.Mem.StoreInstruction(0x00400008, vm.BuildSYSCALL())

	m.Boot(0x00400000)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !m.Exited() {
		t.Fatal("Exited() = false after syscall 17")
	}

	if m.ExitCode() != 7 {
		t.Fatalf("ExitCode() = %d, want 7", m.ExitCode())
	}
}

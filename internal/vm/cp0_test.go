package vm_test

import (
	"testing"

	"github.com/mipssim/r2000/internal/vm"
)

func TestCP0GetSetRoundTrips(t *testing.T) {
	var c vm.CP0

	c.Set(vm.CP0Status, 0xabcd)

	if got := c.Get(vm.CP0Status); got != 0xabcd {
		t.Fatalf("Get(CP0Status) = %#x, want 0xabcd", uint32(got))
	}
}

func TestCP0SetUnmodeledRegisterIsDiscarded(t *testing.T) {
	var c vm.CP0

	c.Set(vm.CP0Reg(0x1f), 0xff)

	if got := c.Get(vm.CP0Reg(0x1f)); got != 0 {
		t.Fatalf("Get of unmodeled register = %#x, want 0", uint32(got))
	}
}

func TestUserModeReflectsStatusKU(t *testing.T) {
	var c vm.CP0

	c.Status = vm.StatusKU
	if !c.UserMode() {
		t.Fatal("UserMode() = false with StatusKU set, want true")
	}

	c.Status = 0
	if c.UserMode() {
		t.Fatal("UserMode() = true with StatusKU clear, want false")
	}
}

func TestEnterExceptionShiftsKUAndIEAndSavesEPC(t *testing.T) {
	var c vm.CP0

	c.Status = vm.StatusIE // kernel-mode code (KU=0) running with interrupts enabled
	c.EnterException(vm.ExcSYSCALL, 0x00400020)

	if c.EPC != 0x00400020 {
		t.Fatalf("EPC = %s, want 0x00400020", c.EPC)
	}

	if c.ExcCode() != vm.ExcSYSCALL {
		t.Fatalf("ExcCode() = %d, want ExcSYSCALL", c.ExcCode())
	}

	// Previous IE/KU (bits 0:1 = 0b01) must now sit in the "previous" slot (bits 2:3).
	if prev := (c.Status >> 2) & 0x3; prev != 0x1 {
		t.Fatalf("previous IE/KU = %#x, want 0x1", uint32(prev))
	}

	// Entering an exception always disables interrupts and enters kernel mode.
	if c.Status&0x3 != 0 {
		t.Fatalf("current IE/KU = %#x, want 0 (kernel mode, interrupts disabled)", uint32(c.Status&0x3))
	}
}

func TestReturnFromExceptionRestoresPreviousIEAndKU(t *testing.T) {
	var c vm.CP0

	c.Status = vm.StatusIE
	c.EnterException(vm.ExcSYSCALL, 0)
	c.ReturnFromException()

	if c.Status&0x3 != vm.StatusIE {
		t.Fatalf("Status after RFE = %#x, want StatusIE restored", uint32(c.Status))
	}
}

func TestMaskEnabledChecksCorrectBit(t *testing.T) {
	var c vm.CP0

	c.Status = 1 << (vm.StatusIMShift + 2)

	if !c.MaskEnabled(2) {
		t.Fatal("MaskEnabled(2) = false, want true")
	}

	if c.MaskEnabled(3) {
		t.Fatal("MaskEnabled(3) = true, want false")
	}
}

func TestSetPendingLatchesCauseIP(t *testing.T) {
	var c vm.CP0

	c.SetPending(0)

	if c.Cause&(1<<vm.CauseIPShift) == 0 {
		t.Fatal("SetPending(0) did not set Cause.IP bit 0")
	}
}

package vm_test

import (
	"testing"

	"github.com/mipssim/r2000/internal/vm"
)

func TestRegisterFileZeroRegisterAlwaysReadsZero(t *testing.T) {
	var rf vm.RegisterFile

	rf.Set(vm.Zero, 42)

	if got := rf.Get(vm.Zero); got != 0 {
		t.Fatalf("Get(Zero) = %d, want 0 after Set(Zero, 42)", got)
	}
}

func TestRegisterFileOrdinaryRegisterRoundTrips(t *testing.T) {
	var rf vm.RegisterFile

	rf.Set(vm.T0, 0xcafe)

	if got := rf.Get(vm.T0); got != 0xcafe {
		t.Fatalf("Get(T0) = %#x, want 0xcafe", uint32(got))
	}
}

func TestLookupGPRResolvesNameAndIndex(t *testing.T) {
	r, ok := vm.LookupGPR("sp")
	if !ok || r != vm.SP {
		t.Fatalf("LookupGPR(sp) = (%v, %v), want (%v, true)", r, ok, vm.SP)
	}

	r, ok = vm.LookupGPR("29")
	if !ok || r != vm.SP {
		t.Fatalf("LookupGPR(29) = (%v, %v), want (%v, true)", r, ok, vm.SP)
	}
}

func TestLookupGPRRejectsUnknownName(t *testing.T) {
	if _, ok := vm.LookupGPR("not-a-register"); ok {
		t.Fatalf("LookupGPR(not-a-register) reported ok, want false")
	}
}

func TestGPRNameRoundTripsLookupGPR(t *testing.T) {
	for _, r := range []vm.GPR{vm.Zero, vm.V0, vm.A0, vm.T0, vm.S0, vm.RA} {
		name := vm.GPRName(r)

		got, ok := vm.LookupGPR(name)
		if !ok || got != r {
			t.Fatalf("LookupGPR(GPRName(%v)) = (%v, %v), want (%v, true)", r, got, ok, r)
		}
	}
}

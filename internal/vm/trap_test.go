package vm_test

import (
	"errors"
	"testing"

	"github.com/mipssim/r2000/internal/vm"
)

func TestTrapMatchesTrapCodeSentinelByCode(t *testing.T) {
	err := error(&vm.Trap{Code: vm.ExcOVF, Addr: 0x1234})

	if !errors.Is(err, vm.TrapCode(vm.ExcOVF)) {
		t.Fatal("errors.Is(trap, TrapCode(ExcOVF)) = false, want true")
	}

	if errors.Is(err, vm.TrapCode(vm.ExcADDRL)) {
		t.Fatal("errors.Is(trap, TrapCode(ExcADDRL)) = true, want false")
	}
}

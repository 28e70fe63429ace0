package vm_test

import (
	"testing"

	"github.com/mipssim/r2000/internal/vm"
)

func TestSextSignExtendsNegativeByte(t *testing.T) {
	got := vm.Sext(0xff, 1)
	if got != 0xffffffff {
		t.Fatalf("Sext(0xff, 1) = %#x, want 0xffffffff", uint32(got))
	}
}

func TestSextLeavesPositiveHalfwordUnchanged(t *testing.T) {
	got := vm.Sext(0x7fff, 2)
	if got != 0x00007fff {
		t.Fatalf("Sext(0x7fff, 2) = %#x, want 0x00007fff", uint32(got))
	}
}

func TestZextDiscardsHighBits(t *testing.T) {
	got := vm.Zext(0xdeadbeef, 1)
	if got != 0xef {
		t.Fatalf("Zext(0xdeadbeef, 1) = %#x, want 0xef", uint32(got))
	}
}

func TestSignExtend16NegativeImmediate(t *testing.T) {
	got := vm.SignExtend16(0xffff)
	if got.Signed() != -1 {
		t.Fatalf("SignExtend16(0xffff) = %d, want -1", got.Signed())
	}
}

func TestZeroExtend16NeverSignExtends(t *testing.T) {
	got := vm.ZeroExtend16(0xffff)
	if got != 0x0000ffff {
		t.Fatalf("ZeroExtend16(0xffff) = %#x, want 0x0000ffff", uint32(got))
	}
}

func TestWordStringIsZeroPaddedHex(t *testing.T) {
	w := vm.Word(0x1234)
	if got, want := w.String(), "0x00001234"; got != want {
		t.Fatalf("Word.String() = %q, want %q", got, want)
	}
}

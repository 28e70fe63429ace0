package vm_test

import (
	"errors"
	"testing"

	"github.com/mipssim/r2000/internal/vm"
)

func TestLookupSegmentBoundaries(t *testing.T) {
	cases := []struct {
		addr vm.Word
		want vm.Segment
	}{
		{0x00000000, vm.SegKernelDataLow},
		{0x00400000, vm.SegUserText},
		{0x0FFFFFFF, vm.SegUserText},
		{0x10000000, vm.SegUserData},
		{0x7FFFFFFF, vm.SegUserData},
		{0x80000000, vm.SegKernelText},
		{0x8FFFFFFF, vm.SegKernelText},
		{0x90000000, vm.SegKernelData},
		{0xFFFFFFFF, vm.SegKernelData},
	}

	for _, c := range cases {
		if got := vm.LookupSegment(c.addr); got != c.want {
			t.Errorf("LookupSegment(%s) = %s, want %s", c.addr, got, c.want)
		}
	}
}

func TestMemoryStoreLoadRoundTripsWord(t *testing.T) {
	m := vm.NewMemory(nil, vm.DefaultBlockSize)

	if err := m.Store(0x10000000, 4, 0xdeadbeef); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := m.Load(0x10000000, 4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got != 0xdeadbeef {
		t.Fatalf("Load = %#x, want 0xdeadbeef", uint32(got))
	}
}

func TestMemoryStoreLoadByteWithinWord(t *testing.T) {
	m := vm.NewMemory(nil, vm.DefaultBlockSize)

	if err := m.Store(0x10000000, 4, 0x11223344); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := m.Store(0x10000001, 1, 0xff); err != nil {
		t.Fatalf("Store byte: %v", err)
	}

	got, err := m.Load(0x10000000, 4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got != 0x1122ff44 {
		t.Fatalf("Load = %#x, want 0x1122ff44", uint32(got))
	}
}

func TestMemoryMisalignedAccessFaults(t *testing.T) {
	m := vm.NewMemory(nil, vm.DefaultBlockSize)

	_, err := m.Load(0x10000001, 4)
	if err == nil {
		t.Fatal("Load at unaligned address succeeded, want AccessError")
	}

	var ae *vm.AccessError
	if !errors.As(err, &ae) {
		t.Fatalf("Load error = %v, want *vm.AccessError", err)
	}

	if ae.Code != vm.ExcADDRL {
		t.Fatalf("AccessError.Code = %d, want ExcADDRL", ae.Code)
	}
}

func TestMemoryUserModeCannotStoreOutsideUserData(t *testing.T) {
	priv := &fakePriv{user: true}
	m := vm.NewMemory(priv, vm.DefaultBlockSize)

	err := m.Store(0x80000000, 4, 1)
	if err == nil {
		t.Fatal("Store to kernel text in user mode succeeded, want AccessError")
	}

	var ae *vm.AccessError
	if !errors.As(err, &ae) || ae.Code != vm.ExcADDRS {
		t.Fatalf("Store error = %v, want AccessError{Code: ExcADDRS}", err)
	}
}

func TestMemoryUserModeCanStoreWithinUserData(t *testing.T) {
	priv := &fakePriv{user: true}
	m := vm.NewMemory(priv, vm.DefaultBlockSize)

	if err := m.Store(0x10000000, 4, 7); err != nil {
		t.Fatalf("Store to user data in user mode failed: %v", err)
	}
}

func TestStoreInstructionRejectsDataSegment(t *testing.T) {
	m := vm.NewMemory(nil, vm.DefaultBlockSize)

	instr := &vm.Instruction{Mnemonic: "nop"}

	err := m.StoreInstruction(0x10000000, instr)
	if err == nil {
		t.Fatal("StoreInstruction into a data segment succeeded, want error")
	}
}

func TestStoreAndFetchInstructionRoundTrips(t *testing.T) {
	m := vm.NewMemory(nil, vm.DefaultBlockSize)

	instr := &vm.Instruction{Mnemonic: "add"}

	if err := m.StoreInstruction(0x00400000, instr); err != nil {
		t.Fatalf("StoreInstruction: %v", err)
	}

	got, ok := m.FetchInstruction(0x00400000)
	if !ok || got != instr {
		t.Fatalf("FetchInstruction = (%v, %v), want (%v, true)", got, ok, instr)
	}
}

func TestWalkVisitsEveryPopulatedWordInAddressOrder(t *testing.T) {
	m := vm.NewMemory(nil, vm.DefaultBlockSize)

	_ = m.Store(0x10000010, 4, 0xaa)
	_ = m.Store(0x10000000, 4, 0xbb)
	_ = m.StoreInstruction(0x00400000, &vm.Instruction{Mnemonic: "add", Text: "add $t0, $t1, $t2"})

	var addrs []vm.Word

	m.Walk(func(e vm.DumpEntry) { addrs = append(addrs, e.Addr) })

	if len(addrs) != 3 {
		t.Fatalf("Walk visited %d entries, want 3: %v", len(addrs), addrs)
	}

	for i := 1; i < len(addrs); i++ {
		if addrs[i-1] > addrs[i] {
			t.Fatalf("Walk order not ascending: %v", addrs)
		}
	}
}

func TestNextFreeBlockSkipsPopulatedBlocks(t *testing.T) {
	m := vm.NewMemory(nil, vm.DefaultBlockSize)

	_ = m.Store(0x10000000, 4, 1)

	next := m.NextFreeBlock(0x10000000)
	if next == 0x10000000 {
		t.Fatal("NextFreeBlock returned an already-populated block")
	}
}

type fakePriv struct{ user bool }

func (f *fakePriv) UserMode() bool { return f.user }

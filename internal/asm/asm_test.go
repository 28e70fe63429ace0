package asm_test

import (
	"strings"
	"testing"

	"github.com/mipssim/r2000/internal/asm"
	"github.com/mipssim/r2000/internal/vm"
)

func assembleSource(t *testing.T, src string) (*vm.Memory, *asm.Parser) {
	t.Helper()

	mem := vm.NewMemory(nil, vm.DefaultBlockSize)

	p, err := asm.Assemble(mem, []asm.Unit{{Name: "test", Source: src}}, true)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	return mem, p
}

func TestAssembleSimpleProgramPlacesInstructions(t *testing.T) {
	src := `
.text
.globl main
main:
    addi $t0, $zero, 41
    addi $t0, $t0, 1
    jr   $ra
`
	mem, p := assembleSource(t, src)

	entry, ok := p.Global().Get("main")
	if !ok {
		t.Fatal("main not exported via .globl")
	}

	instr, ok := mem.FetchInstruction(vm.Word(entry))
	if !ok {
		t.Fatal("no instruction at main")
	}

	if instr.Mnemonic != "addi" {
		t.Fatalf("first instruction at main = %q, want addi", instr.Mnemonic)
	}
}

func TestAssembleForwardBranchResolvesWithinUnit(t *testing.T) {
	src := `
.text
main:
    addi $t0, $zero, 0
    beq  $t0, $zero, skip
    addi $t0, $zero, 99
skip:
    jr   $ra
`
	mem, p := assembleSource(t, src)

	entry, _ := p.Global().Get("main")
	_ = entry

	// The beq at main+4 must resolve against "skip" without leaving a
	// pending cross-unit reference.
	instr, ok := mem.FetchInstruction(0x00400004)
	if !ok || instr.Mnemonic != "beq" {
		t.Fatalf("expected a resolved beq at 0x00400004, got %v (ok=%v)", instr, ok)
	}
}

func TestAssembleCrossUnitLabelResolvesInSecondPass(t *testing.T) {
	caller := asm.Unit{Name: "caller", Source: `
.text
.globl main
main:
    jal helper
    jr  $ra
`}
	callee := asm.Unit{Name: "callee", Source: `
.text
.globl helper
helper:
    jr $ra
`}

	mem := vm.NewMemory(nil, vm.DefaultBlockSize)

	p, err := asm.Assemble(mem, []asm.Unit{caller, callee}, true)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	mainAddr, _ := p.Global().Get("main")

	instr, ok := mem.FetchInstruction(vm.Word(mainAddr))
	if !ok || instr.Mnemonic != "jal" {
		t.Fatalf("expected jal at main, got %v (ok=%v)", instr, ok)
	}
}

func TestAssembleUnresolvedLabelFails(t *testing.T) {
	mem := vm.NewMemory(nil, vm.DefaultBlockSize)

	_, err := asm.Assemble(mem, []asm.Unit{{Name: "bad", Source: `
.text
main:
    jal nowhere
`}}, true)

	if err == nil {
		t.Fatal("Assemble with an undefined label succeeded, want an error")
	}

	if !strings.Contains(err.Error(), "nowhere") {
		t.Fatalf("error = %v, want it to name the unresolved label", err)
	}
}

func TestAssembleRejectsUnknownMnemonic(t *testing.T) {
	mem := vm.NewMemory(nil, vm.DefaultBlockSize)

	_, err := asm.Assemble(mem, []asm.Unit{{Name: "bad", Source: `
.text
main:
    frobnicate $t0, $t1
`}}, true)

	if err == nil {
		t.Fatal("Assemble of an unknown mnemonic succeeded, want an error")
	}
}

func TestAssembleRejectsPseudoInstructionsWhenDisabled(t *testing.T) {
	mem := vm.NewMemory(nil, vm.DefaultBlockSize)

	_, err := asm.Assemble(mem, []asm.Unit{{Name: "bad", Source: `
.text
main:
    li $t0, 5
`}}, false)

	if err == nil {
		t.Fatal("Assemble of li with pseudo-instructions disabled succeeded, want an error")
	}
}

func TestAssembleLIExpandsToRealInstructionsWhenEnabled(t *testing.T) {
	mem, _ := assembleSource(t, `
.text
main:
    li $t0, 5
`)

	instr, ok := mem.FetchInstruction(0x00400000)
	if !ok {
		t.Fatal("no instruction emitted for li")
	}

	// li with a small positive immediate expands to a single ori against
	// $zero, not a literal "li" mnemonic (invariant 4: pseudo-instructions
	// always expand).
	if instr.Mnemonic != "ori" {
		t.Fatalf("li expanded to %q, want ori", instr.Mnemonic)
	}
}

func TestAssembleDataDirectivesPlaceWords(t *testing.T) {
	mem, p := assembleSource(t, `
.data
.globl buf
buf:
    .word 1, 2, 3
.text
main:
    jr $ra
`)

	addr, ok := p.Global().Get("buf")
	if !ok {
		t.Fatal("buf not exported")
	}

	got, err := mem.Load(vm.Word(addr)+4, 4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got != 2 {
		t.Fatalf("buf[1] = %d, want 2", got)
	}
}

func TestAssembleAsciizTerminatesWithZero(t *testing.T) {
	mem, p := assembleSource(t, `
.data
.globl msg
msg:
    .asciiz "hi"
.text
main:
    jr $ra
`)

	addr, _ := p.Global().Get("msg")

	b0, _ := mem.Load(vm.Word(addr), 1)
	b1, _ := mem.Load(vm.Word(addr)+1, 1)
	b2, _ := mem.Load(vm.Word(addr)+2, 1)

	if b0 != 'h' || b1 != 'i' || b2 != 0 {
		t.Fatalf("asciiz bytes = %d %d %d, want 'h' 'i' 0", b0, b1, b2)
	}
}

func TestAssembleAlignRoundsUpCursor(t *testing.T) {
	_, p := assembleSource(t, `
.data
.globl a
a:
    .byte 1
.align 2
.globl b
b:
    .word 7
.text
main:
    jr $ra
`)

	addrA, _ := p.Global().Get("a")
	addrB, _ := p.Global().Get("b")

	if addrB%4 != 0 {
		t.Fatalf("b address %s not 4-byte aligned after .align 2", vm.Word(addrB))
	}

	if addrB <= addrA {
		t.Fatalf("b (%s) did not advance past a (%s)", vm.Word(addrB), vm.Word(addrA))
	}
}

func TestAssembleRedefinedLabelFails(t *testing.T) {
	mem := vm.NewMemory(nil, vm.DefaultBlockSize)

	_, err := asm.Assemble(mem, []asm.Unit{{Name: "bad", Source: `
.text
main:
    jr $ra
main:
    jr $ra
`}}, true)

	if err == nil {
		t.Fatal("Assemble with a redefined label succeeded, want an error")
	}
}

func TestAssembleInstructionInDataSegmentFails(t *testing.T) {
	mem := vm.NewMemory(nil, vm.DefaultBlockSize)

	_, err := asm.Assemble(mem, []asm.Unit{{Name: "bad", Source: `
.data
main:
    jr $ra
`}}, true)

	if err == nil {
		t.Fatal("Assemble of an instruction in a data segment succeeded, want an error")
	}
}

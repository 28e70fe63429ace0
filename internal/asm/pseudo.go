package asm

// pseudo.go expands the synthetic mnemonics of spec section 4.8 into one or
// more real instructions, reserving $at as the scratch register every
// expansion is allowed to clobber. Grounded on
// original_source/spym/vm/pseudoinstructions.py, built in the same
// interface-driven style as the teacher's internal/asm Operation table
// (each entry here is a handler over parsed operands, the same shape as
// realOps).

import (
	"fmt"

	"github.com/mipssim/r2000/internal/vm"
)

var pseudoOps = map[string]opHandler{
	"li":   opLI,
	"la":   opLA,
	"move": opMove,
	"abs":  opAbs,
	"neg":  negOp(vm.BuildSUB),
	"negu": negOp(vm.BuildSUBU),
	"not":  opNot,
	"mul":  opMul,

	"beqz": branchZero(vm.BuildBEQ),
	"bnez": branchZero(vm.BuildBNE),

	"bge":  compareBranch(vm.BuildSUB, vm.BuildBGEZ),
	"bgt":  compareBranch(vm.BuildSUB, vm.BuildBGTZ),
	"ble":  compareBranch(vm.BuildSUB, vm.BuildBLEZ),
	"blt":  compareBranch(vm.BuildSUB, vm.BuildBLTZ),
	"bgeu": compareBranch(vm.BuildSUBU, vm.BuildBGEZ),
	"bgtu": compareBranch(vm.BuildSUBU, vm.BuildBGTZ),
	"bleu": compareBranch(vm.BuildSUBU, vm.BuildBLEZ),
	"bltu": compareBranch(vm.BuildSUBU, vm.BuildBLTZ),
}

func opLI(p *Parser, operands []string) error {
	if err := want(operands, 2); err != nil {
		return err
	}

	rd, err := p.regOperand(operands[0])
	if err != nil {
		return err
	}

	val, _, isLabel, err := parseImmOrLabel(operands[1])
	if err != nil || isLabel {
		return fmt.Errorf("%w: %q", ErrBadImmediate, operands[1])
	}

	return p.emitLoadImmediate(rd, uint32(val))
}

func opLA(p *Parser, operands []string) error {
	if err := want(operands, 2); err != nil {
		return err
	}

	rd, err := p.regOperand(operands[0])
	if err != nil {
		return err
	}

	return p.emitAddress(rd, operands[1])
}

func opMove(p *Parser, operands []string) error {
	if err := want(operands, 2); err != nil {
		return err
	}

	rd, err := p.regOperand(operands[0])
	if err != nil {
		return err
	}

	rs, err := p.regOperand(operands[1])
	if err != nil {
		return err
	}

	_, err = p.emit(vm.BuildOR(rd, vm.Zero, rs))

	return err
}

// opAbs expands "abs rd, rs" → "sra $at, rs, 31; xor rd, $at, rs; sub rd, rd, $at".
func opAbs(p *Parser, operands []string) error {
	if err := want(operands, 2); err != nil {
		return err
	}

	rd, err := p.regOperand(operands[0])
	if err != nil {
		return err
	}

	rs, err := p.regOperand(operands[1])
	if err != nil {
		return err
	}

	if _, err := p.emit(vm.BuildSRA(vm.AT, rs, 31)); err != nil {
		return err
	}

	if _, err := p.emit(vm.BuildXOR(rd, vm.AT, rs)); err != nil {
		return err
	}

	_, err = p.emit(vm.BuildSUB(rd, rd, vm.AT))

	return err
}

func negOp(build func(rd, rs, rt vm.GPR) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 2); err != nil {
			return err
		}

		rd, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		rs, err := p.regOperand(operands[1])
		if err != nil {
			return err
		}

		_, err = p.emit(build(rd, vm.Zero, rs))

		return err
	}
}

func opNot(p *Parser, operands []string) error {
	if err := want(operands, 2); err != nil {
		return err
	}

	rd, err := p.regOperand(operands[0])
	if err != nil {
		return err
	}

	rs, err := p.regOperand(operands[1])
	if err != nil {
		return err
	}

	_, err = p.emit(vm.BuildNOR(rd, rs, rs))

	return err
}

// opMul expands "mul rd, rs, rt" → "mult rs, rt; mflo rd".
func opMul(p *Parser, operands []string) error {
	if err := want(operands, 3); err != nil {
		return err
	}

	rd, err := p.regOperand(operands[0])
	if err != nil {
		return err
	}

	rs, err := p.regOperand(operands[1])
	if err != nil {
		return err
	}

	rt, err := p.materialize(operands[2])
	if err != nil {
		return err
	}

	if _, err := p.emit(vm.BuildMULT(rs, rt)); err != nil {
		return err
	}

	_, err = p.emit(vm.BuildMFLO(rd))

	return err
}

// branchZero expands "beqz/bnez rs, label" → "beq/bne rs, $0, label".
func branchZero(build func(rs, rt vm.GPR, imm uint16) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 2); err != nil {
			return err
		}

		rs, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		return p.emitBranch(operands[1], func(imm uint16) *vm.Instruction { return build(rs, vm.Zero, imm) })
	}
}

// compareBranch expands "bge/bgt/ble/blt[u] rs, rt, label" →
// "sub[u] $at, rs, rt; bgez/bgtz/blez/bltz $at, label".
func compareBranch(sub func(rd, rs, rt vm.GPR) *vm.Instruction, branch func(rs vm.GPR, imm uint16) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 3); err != nil {
			return err
		}

		rs, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		rt, err := p.regOperand(operands[1])
		if err != nil {
			return err
		}

		if _, err := p.emit(sub(vm.AT, rs, rt)); err != nil {
			return err
		}

		return p.emitBranch(operands[2], func(imm uint16) *vm.Instruction { return branch(vm.AT, imm) })
	}
}

// materialize resolves a register-or-immediate operand. A bare $register
// passes through; an immediate or label is loaded into $at first (spec
// section 4.8: "first materialize the immediate into $at via li, then
// dispatch the real register form").
func (p *Parser) materialize(tok string) (vm.GPR, error) {
	if len(tok) > 0 && tok[0] == '$' {
		return parseRegister(tok)
	}

	if !p.pseudoEnabled {
		return 0, fmt.Errorf("%w: %q (pseudo-instructions disabled)", ErrBadRegister, tok)
	}

	if err := p.emitAddress(vm.AT, tok); err != nil {
		return 0, err
	}

	return vm.AT, nil
}

// emitLoadImmediate implements li's expansion rule exactly (spec section 4.8).
func (p *Parser) emitLoadImmediate(rd vm.GPR, v uint32) error {
	switch {
	case v == 0:
		_, err := p.emit(vm.BuildOR(rd, vm.Zero, vm.Zero))
		return err
	case v < 1<<16:
		_, err := p.emit(vm.BuildORI(rd, vm.Zero, uint16(v)))
		return err
	default:
		if _, err := p.emit(vm.BuildLUI(rd, uint16(v>>16))); err != nil {
			return err
		}

		_, err := p.emit(vm.BuildORI(rd, rd, uint16(v)))

		return err
	}
}

// emitAddress implements la's expansion ("la rd, label" → "li rd,
// address_of(label)"), deferring to a pair of pendingRefs when label is a
// forward reference whose address isn't known yet.
func (p *Parser) emitAddress(rd vm.GPR, tok string) error {
	val, label, isLabel, err := parseImmOrLabel(tok)
	if err != nil {
		return err
	}

	if !isLabel {
		return p.emitLoadImmediate(rd, uint32(val))
	}

	if a, ok := p.lookupLabel(label); ok {
		return p.emitLoadImmediate(rd, uint32(int64(a)+val))
	}

	luiAddr, err := p.emit(vm.BuildLUI(rd, 0))
	if err != nil {
		return err
	}

	oriAddr, err := p.emit(vm.BuildORI(rd, rd, 0))
	if err != nil {
		return err
	}

	p.pending = append(p.pending,
		&pendingRef{
			addr: luiAddr, label: label, unit: p.unit, line: p.lineNo, text: tok,
			build: func(target vm.Word) *vm.Instruction {
				return vm.BuildLUI(rd, uint16(uint32(target+vm.Word(val))>>16))
			},
		},
		&pendingRef{
			addr: oriAddr, label: label, unit: p.unit, line: p.lineNo, text: tok,
			build: func(target vm.Word) *vm.Instruction {
				return vm.BuildORI(rd, rd, uint16(uint32(target+vm.Word(val))))
			},
		},
	)

	return nil
}

package asm

// ops.go is the real-mnemonic builder table: for each of the ~40 mnemonics
// spec section 4.7 names, a handler that parses textual operands and calls
// the matching vm.Build* constructor, tagging any error with the current
// source line. Grounded on the teacher's per-mnemonic Operation table
// (internal/asm/ops.go in the retrieval pack), generalized from the LC-3's
// single encoding form to MIPS's R/I/J forms and from a table of Parse+Generate
// pairs to a table of operand-parsing closures over vm.Build* functions.

import (
	"fmt"
	"strconv"

	"github.com/mipssim/r2000/internal/vm"
)

type opHandler func(p *Parser, operands []string) error

// realOps maps every real (non-pseudo) mnemonic to its handler.
var realOps = map[string]opHandler{
	"add": rtype(vm.BuildADD), "addu": rtype(vm.BuildADDU),
	"sub": rtype(vm.BuildSUB), "subu": rtype(vm.BuildSUBU),
	"and": rtype(vm.BuildAND), "or": rtype(vm.BuildOR), "xor": rtype(vm.BuildXOR), "nor": rtype(vm.BuildNOR),
	"slt": rtype(vm.BuildSLT), "sltu": rtype(vm.BuildSLTU),

	"sll": shiftImm(vm.BuildSLL), "srl": shiftImm(vm.BuildSRL), "sra": shiftImm(vm.BuildSRA),
	"sllv": shiftVar(vm.BuildSLLV), "srlv": shiftVar(vm.BuildSRLV), "srav": shiftVar(vm.BuildSRAV),

	"mult": rtype2(vm.BuildMULT), "multu": rtype2(vm.BuildMULTU),
	"div":  divOp(vm.BuildDIV),
	"divu": divOp(vm.BuildDIVU),

	"mfhi": rtype1(vm.BuildMFHI), "mthi": rtype1(vm.BuildMTHI),
	"mflo": rtype1(vm.BuildMFLO), "mtlo": rtype1(vm.BuildMTLO),

	"jr":   opJR,
	"jalr": opJALR,
	"j":    jtype(vm.BuildJ),
	"jal":  jtype(vm.BuildJAL),

	"beq": branch2(vm.BuildBEQ), "bne": branch2(vm.BuildBNE),
	"blez": branch1(vm.BuildBLEZ), "bgtz": branch1(vm.BuildBGTZ),
	"bltz": branch1(vm.BuildBLTZ), "bgez": branch1(vm.BuildBGEZ),
	"bltzal": branch1(vm.BuildBLTZAL), "bgezal": branch1(vm.BuildBGEZAL),

	"lb": load(vm.BuildLB), "lbu": load(vm.BuildLBU), "lh": load(vm.BuildLH), "lhu": load(vm.BuildLHU), "lw": load(vm.BuildLW),
	"sb": store(vm.BuildSB), "sh": store(vm.BuildSH), "sw": store(vm.BuildSW),

	"addi": immOp(vm.BuildADDI), "addiu": immOp(vm.BuildADDIU),
	"slti": immOp(vm.BuildSLTI), "sltiu": immOp(vm.BuildSLTIU),
	"andi": immOp(vm.BuildANDI), "ori": immOp(vm.BuildORI), "xori": immOp(vm.BuildXORI),
	"lui": opLUI,

	"syscall": opNoOperand(vm.BuildSYSCALL),
	"break":   opNoOperand(vm.BuildBREAK),
	"mfc0":    opMFC0,
	"mtc0":    opMTC0,
	"rfe":     opNoOperand(vm.BuildRFE),
}

// regOperand resolves a register operand, enforcing the $at reservation
// (spec section 3: "writes from hand-written code raise an assembly-time
// error unless .set noat is in effect").
func (p *Parser) regOperand(tok string) (vm.GPR, error) {
	r, err := parseRegister(tok)
	if err != nil {
		return 0, err
	}

	if r == vm.AT && p.atReserved {
		return 0, ErrReservedAT
	}

	return r, nil
}

func want(operands []string, n int) error {
	if len(operands) != n {
		return fmt.Errorf("%w: want %d, got %d", ErrBadOperandCount, n, len(operands))
	}

	return nil
}

// rtype builds the common three-register ALU form: "op rd, rs, rt".
func rtype(build func(rd, rs, rt vm.GPR) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
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

		_, err = p.emit(build(rd, rs, rt))

		return err
	}
}

// rtype1 builds the single-register hi/lo transfer form: "op rd".
func rtype1(build func(r vm.GPR) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 1); err != nil {
			return err
		}

		r, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		_, err = p.emit(build(r))

		return err
	}
}

// rtype2 builds the two-register mult/div form: "op rs, rt".
func rtype2(build func(rs, rt vm.GPR) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 2); err != nil {
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

		_, err = p.emit(build(rs, rt))

		return err
	}
}

// divOp implements div/divu, whose mnemonic is overloaded by arity: the
// 2-operand form ("div rs, rt") is the real instruction; the 3-operand form
// ("div rd, rs, rt") is pseudo sugar for "div rs, rt; mflo rd" (spec section
// 4.8 — "the 2-operand form stays a real instruction").
func divOp(build func(rs, rt vm.GPR) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		switch len(operands) {
		case 2:
			rs, err := p.regOperand(operands[0])
			if err != nil {
				return err
			}

			rt, err := p.regOperand(operands[1])
			if err != nil {
				return err
			}

			_, err = p.emit(build(rs, rt))

			return err
		case 3:
			if !p.pseudoEnabled {
				return fmt.Errorf("%w: 3-operand div requires pseudo-instructions enabled", ErrBadOperandCount)
			}

			rd, err := p.regOperand(operands[0])
			if err != nil {
				return err
			}

			rs, err := p.regOperand(operands[1])
			if err != nil {
				return err
			}

			rt, err := p.regOperand(operands[2])
			if err != nil {
				return err
			}

			if _, err := p.emit(build(rs, rt)); err != nil {
				return err
			}

			_, err = p.emit(vm.BuildMFLO(rd))

			return err
		default:
			return fmt.Errorf("%w: want 2 or 3, got %d", ErrBadOperandCount, len(operands))
		}
	}
}

func shiftImm(build func(rd, rt vm.GPR, shamt uint8) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 3); err != nil {
			return err
		}

		rd, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		rt, err := p.regOperand(operands[1])
		if err != nil {
			return err
		}

		n, _, isLabel, err := parseImmOrLabel(operands[2])
		if err != nil || isLabel {
			return fmt.Errorf("%w: %q", ErrBadImmediate, operands[2])
		}

		_, err = p.emit(build(rd, rt, uint8(n&0x1f)))

		return err
	}
}

func shiftVar(build func(rd, rt, rs vm.GPR) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 3); err != nil {
			return err
		}

		rd, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		rt, err := p.regOperand(operands[1])
		if err != nil {
			return err
		}

		rs, err := p.regOperand(operands[2])
		if err != nil {
			return err
		}

		_, err = p.emit(build(rd, rt, rs))

		return err
	}
}

func opJR(p *Parser, operands []string) error {
	if err := want(operands, 1); err != nil {
		return err
	}

	rs, err := p.regOperand(operands[0])
	if err != nil {
		return err
	}

	_, err = p.emit(vm.BuildJR(rs))

	return err
}

func opJALR(p *Parser, operands []string) error {
	switch len(operands) {
	case 1:
		rs, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		_, err = p.emit(vm.BuildJALR(vm.RA, rs))

		return err
	case 2:
		rd, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		rs, err := p.regOperand(operands[1])
		if err != nil {
			return err
		}

		_, err = p.emit(vm.BuildJALR(rd, rs))

		return err
	default:
		return fmt.Errorf("%w: want 1 or 2, got %d", ErrBadOperandCount, len(operands))
	}
}

// jtype builds j/jal's label-or-address operand, deferring to a pendingRef
// when the label hasn't been seen yet.
func jtype(build func(target vm.Word) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 1); err != nil {
			return err
		}

		return p.emitJump(operands[0], build)
	}
}

func (p *Parser) emitJump(tok string, build func(target vm.Word) *vm.Instruction) error {
	val, label, isLabel, err := parseImmOrLabel(tok)
	if err != nil {
		return err
	}

	if !isLabel {
		_, err = p.emit(build(vm.Word(val)))
		return err
	}

	if a, ok := p.lookupLabel(label); ok {
		_, err = p.emit(build(a + vm.Word(val)))
		return err
	}

	addr, err := p.emit(build(0))
	if err != nil {
		return err
	}

	p.pending = append(p.pending, &pendingRef{
		addr: addr, label: label, unit: p.unit, line: p.lineNo, text: tok,
		build: func(target vm.Word) *vm.Instruction { return build(target + vm.Word(val)) },
	})

	return nil
}

// branch2 builds the two-register branches: "op rs, rt, label".
func branch2(build func(rs, rt vm.GPR, imm uint16) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 3); err != nil {
			return err
		}

		rs, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		rt, err := p.materialize(operands[1])
		if err != nil {
			return err
		}

		return p.emitBranch(operands[2], func(imm uint16) *vm.Instruction { return build(rs, rt, imm) })
	}
}

// branch1 builds the one-register branches: "op rs, label".
func branch1(build func(rs vm.GPR, imm uint16) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 2); err != nil {
			return err
		}

		rs, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		return p.emitBranch(operands[1], func(imm uint16) *vm.Instruction { return build(rs, imm) })
	}
}

// emitBranch resolves a branch's label operand, computing the PC-relative
// immediate (testable property 5) either immediately or once a forward
// reference resolves.
func (p *Parser) emitBranch(tok string, build func(imm uint16) *vm.Instruction) error {
	addr := p.cur()

	val, label, isLabel, err := parseImmOrLabel(tok)
	if err != nil {
		return err
	}

	if !isLabel {
		_, err = p.emit(build(vm.EncodeBranchImm(addr, vm.Word(val))))
		return err
	}

	if a, ok := p.lookupLabel(label); ok {
		_, err = p.emit(build(vm.EncodeBranchImm(addr, a+vm.Word(val))))
		return err
	}

	if _, err := p.emit(build(0)); err != nil {
		return err
	}

	p.pending = append(p.pending, &pendingRef{
		addr: addr, label: label, unit: p.unit, line: p.lineNo, text: tok,
		build: func(target vm.Word) *vm.Instruction {
			return build(vm.EncodeBranchImm(addr, target+vm.Word(val)))
		},
	})

	return nil
}

// load/store share the `rt, imm($rs)` operand form.
func load(build func(rt, rs vm.GPR, offset uint16) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 2); err != nil {
			return err
		}

		rt, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		rs, offset, err := p.memOperand(operands[1])
		if err != nil {
			return err
		}

		_, err = p.emit(build(rt, rs, offset))

		return err
	}
}

func store(build func(rt, rs vm.GPR, offset uint16) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 2); err != nil {
			return err
		}

		rt, err := p.regOperand(operands[0])
		if err != nil {
			return err
		}

		rs, offset, err := p.memOperand(operands[1])
		if err != nil {
			return err
		}

		_, err = p.emit(build(rt, rs, offset))

		return err
	}
}

// memOperand parses a load/store memory operand: `imm($reg)`, `imm`,
// `label($reg)`, `label+N($reg)`, or bare `label`/`label+N`. A label operand
// is lowered per spec section 4.8's load/store rule: `li $at, label+offset;
// add $at, $at, $reg; <op> rt, 0($at)`, with the add and the base register
// both omitted when absent.
func (p *Parser) memOperand(operand string) (vm.GPR, uint16, error) {
	exprTok, regTok, hasParen := parseMemOperand(operand)
	if !hasParen {
		exprTok, regTok = operand, ""
	} else if exprTok == "" {
		exprTok = "0"
	}

	val, _, isLabel, err := parseImmOrLabel(exprTok)
	if err != nil {
		return 0, 0, err
	}

	if !isLabel {
		base := vm.Zero
		if regTok != "" {
			base, err = p.regOperand("$" + regTok)
			if err != nil {
				return 0, 0, err
			}
		}

		return base, uint16(val), nil
	}

	if err := p.emitAddress(vm.AT, exprTok); err != nil {
		return 0, 0, err
	}

	if regTok != "" {
		base, err := p.regOperand("$" + regTok)
		if err != nil {
			return 0, 0, err
		}

		if _, err := p.emit(vm.BuildADD(vm.AT, vm.AT, base)); err != nil {
			return 0, 0, err
		}
	}

	return vm.AT, 0, nil
}

// immOp builds the two-register-and-immediate form ("op rt, rs, imm").
// When given only two operands it is the "op rd, imm" two-operand sugar of
// spec section 4.8 ("op rd, rd, imm"), valid only with pseudo-instructions
// enabled.
func immOp(build func(rt, rs vm.GPR, imm uint16) *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		var rt, rs vm.GPR

		var immTok string

		switch len(operands) {
		case 2:
			if !p.pseudoEnabled {
				return fmt.Errorf("%w: 2-operand form requires pseudo-instructions enabled", ErrBadOperandCount)
			}

			r, err := p.regOperand(operands[0])
			if err != nil {
				return err
			}

			rt, rs, immTok = r, r, operands[1]
		case 3:
			r, err := p.regOperand(operands[0])
			if err != nil {
				return err
			}

			s, err := p.regOperand(operands[1])
			if err != nil {
				return err
			}

			rt, rs, immTok = r, s, operands[2]
		default:
			return fmt.Errorf("%w: want 2 or 3, got %d", ErrBadOperandCount, len(operands))
		}

		val, _, isLabel, err := parseImmOrLabel(immTok)
		if err != nil || isLabel {
			return fmt.Errorf("%w: %q", ErrBadImmediate, immTok)
		}

		_, err = p.emit(build(rt, rs, uint16(val)))

		return err
	}
}

func opLUI(p *Parser, operands []string) error {
	if err := want(operands, 2); err != nil {
		return err
	}

	rt, err := p.regOperand(operands[0])
	if err != nil {
		return err
	}

	val, _, isLabel, err := parseImmOrLabel(operands[1])
	if err != nil || isLabel {
		return fmt.Errorf("%w: %q", ErrBadImmediate, operands[1])
	}

	_, err = p.emit(vm.BuildLUI(rt, uint16(val)))

	return err
}

func opNoOperand(build func() *vm.Instruction) opHandler {
	return func(p *Parser, operands []string) error {
		if err := want(operands, 0); err != nil {
			return err
		}

		_, err := p.emit(build())

		return err
	}
}

func parseCP0(tok string) (vm.CP0Reg, error) {
	name := tok
	if len(name) > 0 && name[0] == '$' {
		name = name[1:]
	}

	if r, ok := vm.LookupCP0(name); ok {
		return r, nil
	}

	if n, err := strconv.ParseUint(name, 10, 8); err == nil {
		return vm.CP0Reg(n), nil
	}

	return 0, fmt.Errorf("%w: %q", ErrBadRegister, tok)
}

func opMFC0(p *Parser, operands []string) error {
	if err := want(operands, 2); err != nil {
		return err
	}

	rt, err := p.regOperand(operands[0])
	if err != nil {
		return err
	}

	cp0, err := parseCP0(operands[1])
	if err != nil {
		return err
	}

	_, err = p.emit(vm.BuildMFC0(rt, cp0))

	return err
}

func opMTC0(p *Parser, operands []string) error {
	if err := want(operands, 2); err != nil {
		return err
	}

	rt, err := p.regOperand(operands[0])
	if err != nil {
		return err
	}

	cp0, err := parseCP0(operands[1])
	if err != nil {
		return err
	}

	_, err = p.emit(vm.BuildMTC0(rt, cp0))

	return err
}

package vm

// ops.go builds the semantic Instruction for every mnemonic this simulator
// implements: an Exec closure over the already-resolved operands, paired
// with its binary encoding. Grounded on the teacher's per-opcode Operation
// structs (internal/vm/exec.go's Decode switch and internal/asm/ops.go in
// the retrieval pack, where each opcode's executable/addressable behavior is
// a small dedicated type); generalized here from the LC-3's 16 opcodes to
// the ~40-mnemonic R2000 subset named in spec section 4.7. These builders
// are shared by Decode (for instructions reconstructed from raw words) and
// by the assembler (internal/asm), which calls them directly with parsed
// operands.

import "fmt"

// linkAddr returns the return address jal/jalr/bgezal/bltzal write into the
// link register: PC+8 with delay slots enabled (the slot executes before
// control transfers), PC+4 without them (testable property 7).
func (m *Machine) linkAddr() Word {
	if m.delaySlotsEnabled {
		return m.PC + 8
	}

	return m.PC + 4
}

// --- R-type ALU ---

func buildALU(mnemonic string, funct uint8, rd, rs, rt GPR, reduce func(a, b Word) (Word, bool)) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, rs, rt, rd, 0, funct),
		Mnemonic: mnemonic,
		Text:     fmt.Sprintf("%s $%s, $%s, $%s", mnemonic, GPRName(rd), GPRName(rs), GPRName(rt)),
		Exec: func(m *Machine) error {
			v, overflow := reduce(m.Reg.Get(rs), m.Reg.Get(rt))
			if overflow {
				return &Trap{Code: ExcOVF}
			}

			m.Reg.Set(rd, v)

			return nil
		},
	}
}

func noOverflow(v Word) (Word, bool) { return v, false }

func BuildADD(rd, rs, rt GPR) *Instruction {
	return buildALU("add", FnAdd, rd, rs, rt, func(a, b Word) (Word, bool) {
		sum := int64(a.Signed()) + int64(b.Signed())
		if sum > int64(int32(0x7fffffff)) || sum < int64(int32(-0x80000000)) {
			return 0, true
		}

		return noOverflow(a + b)
	})
}

func BuildADDU(rd, rs, rt GPR) *Instruction {
	return buildALU("addu", FnAddu, rd, rs, rt, func(a, b Word) (Word, bool) { return noOverflow(a + b) })
}

func BuildSUB(rd, rs, rt GPR) *Instruction {
	return buildALU("sub", FnSub, rd, rs, rt, func(a, b Word) (Word, bool) {
		diff := int64(a.Signed()) - int64(b.Signed())
		if diff > int64(int32(0x7fffffff)) || diff < int64(int32(-0x80000000)) {
			return 0, true
		}

		return noOverflow(a - b)
	})
}

func BuildSUBU(rd, rs, rt GPR) *Instruction {
	return buildALU("subu", FnSubu, rd, rs, rt, func(a, b Word) (Word, bool) { return noOverflow(a - b) })
}

func BuildAND(rd, rs, rt GPR) *Instruction {
	return buildALU("and", FnAnd, rd, rs, rt, func(a, b Word) (Word, bool) { return noOverflow(a & b) })
}

func BuildOR(rd, rs, rt GPR) *Instruction {
	return buildALU("or", FnOr, rd, rs, rt, func(a, b Word) (Word, bool) { return noOverflow(a | b) })
}

func BuildXOR(rd, rs, rt GPR) *Instruction {
	return buildALU("xor", FnXor, rd, rs, rt, func(a, b Word) (Word, bool) { return noOverflow(a ^ b) })
}

func BuildNOR(rd, rs, rt GPR) *Instruction {
	return buildALU("nor", FnNor, rd, rs, rt, func(a, b Word) (Word, bool) { return noOverflow(^(a | b)) })
}

func BuildSLT(rd, rs, rt GPR) *Instruction {
	return buildALU("slt", FnSlt, rd, rs, rt, func(a, b Word) (Word, bool) {
		if a.Signed() < b.Signed() {
			return 1, false
		}

		return 0, false
	})
}

func BuildSLTU(rd, rs, rt GPR) *Instruction {
	return buildALU("sltu", FnSltu, rd, rs, rt, func(a, b Word) (Word, bool) {
		if a < b {
			return 1, false
		}

		return 0, false
	})
}

// --- Shifts ---

func buildShift(mnemonic string, funct uint8, rd, rt GPR, shamt uint8, rs GPR, variable bool, fn func(v Word, n uint8) Word) *Instruction {
	text := fmt.Sprintf("%s $%s, $%s, %d", mnemonic, GPRName(rd), GPRName(rt), shamt)
	if variable {
		text = fmt.Sprintf("%s $%s, $%s, $%s", mnemonic, GPRName(rd), GPRName(rt), GPRName(rs))
	}

	return &Instruction{
		Encoding: EncodeR(OpSpecial, rs, rt, rd, shamt, funct),
		Mnemonic: mnemonic,
		Text:     text,
		Exec: func(m *Machine) error {
			n := shamt
			if variable {
				n = uint8(m.Reg.Get(rs) & 0x1f)
			}

			m.Reg.Set(rd, fn(m.Reg.Get(rt), n))

			return nil
		},
	}
}

func BuildSLL(rd, rt GPR, shamt uint8) *Instruction {
	return buildShift("sll", FnSll, rd, rt, shamt, Zero, false, func(v Word, n uint8) Word { return v << n })
}

func BuildSRL(rd, rt GPR, shamt uint8) *Instruction {
	return buildShift("srl", FnSrl, rd, rt, shamt, Zero, false, func(v Word, n uint8) Word { return v >> n })
}

func BuildSRA(rd, rt GPR, shamt uint8) *Instruction {
	return buildShift("sra", FnSra, rd, rt, shamt, Zero, false, func(v Word, n uint8) Word {
		return Word(v.Signed() >> n)
	})
}

func BuildSLLV(rd, rt, rs GPR) *Instruction {
	return buildShift("sllv", FnSllv, rd, rt, 0, rs, true, func(v Word, n uint8) Word { return v << n })
}

func BuildSRLV(rd, rt, rs GPR) *Instruction {
	return buildShift("srlv", FnSrlv, rd, rt, 0, rs, true, func(v Word, n uint8) Word { return v >> n })
}

func BuildSRAV(rd, rt, rs GPR) *Instruction {
	return buildShift("srav", FnSrav, rd, rt, 0, rs, true, func(v Word, n uint8) Word {
		return Word(v.Signed() >> n)
	})
}

// --- Mult/div, HI/LO transfer ---

func BuildMULT(rs, rt GPR) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, rs, rt, 0, 0, FnMult),
		Mnemonic: "mult",
		Text:     fmt.Sprintf("mult $%s, $%s", GPRName(rs), GPRName(rt)),
		Exec: func(m *Machine) error {
			prod := int64(m.Reg.Get(rs).Signed()) * int64(m.Reg.Get(rt).Signed())
			m.LO = Word(uint32(prod))
			m.HI = Word(uint32(prod >> 32))

			return nil
		},
	}
}

func BuildMULTU(rs, rt GPR) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, rs, rt, 0, 0, FnMultu),
		Mnemonic: "multu",
		Text:     fmt.Sprintf("multu $%s, $%s", GPRName(rs), GPRName(rt)),
		Exec: func(m *Machine) error {
			prod := uint64(m.Reg.Get(rs)) * uint64(m.Reg.Get(rt))
			m.LO = Word(uint32(prod))
			m.HI = Word(uint32(prod >> 32))

			return nil
		},
	}
}

// BuildDIV implements signed division: LO=quotient, HI=remainder (open
// question in spec section 9, resolved against the MIPS architecture
// manual, which defines LO=quotient/HI=remainder for DIV/DIVU).
func BuildDIV(rs, rt GPR) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, rs, rt, 0, 0, FnDiv),
		Mnemonic: "div",
		Text:     fmt.Sprintf("div $%s, $%s", GPRName(rs), GPRName(rt)),
		Exec: func(m *Machine) error {
			divisor := m.Reg.Get(rt).Signed()
			if divisor == 0 {
				return &Trap{Code: ExcOVF}
			}

			dividend := m.Reg.Get(rs).Signed()
			m.LO = Word(dividend / divisor)
			m.HI = Word(dividend % divisor)

			return nil
		},
	}
}

func BuildDIVU(rs, rt GPR) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, rs, rt, 0, 0, FnDivu),
		Mnemonic: "divu",
		Text:     fmt.Sprintf("divu $%s, $%s", GPRName(rs), GPRName(rt)),
		Exec: func(m *Machine) error {
			divisor := uint32(m.Reg.Get(rt))
			if divisor == 0 {
				return &Trap{Code: ExcOVF}
			}

			dividend := uint32(m.Reg.Get(rs))
			m.LO = Word(dividend / divisor)
			m.HI = Word(dividend % divisor)

			return nil
		},
	}
}

func buildHiLoMove(mnemonic string, funct uint8, rd GPR, fromHi, toHi bool) *Instruction {
	enc := EncodeR(OpSpecial, 0, 0, rd, 0, funct)
	if toHi {
		enc = EncodeR(OpSpecial, rd, 0, 0, 0, funct)
	}

	return &Instruction{
		Encoding: enc,
		Mnemonic: mnemonic,
		Text:     fmt.Sprintf("%s $%s", mnemonic, GPRName(rd)),
		Exec: func(m *Machine) error {
			switch {
			case fromHi:
				m.Reg.Set(rd, m.HI)
			case toHi:
				m.HI = m.Reg.Get(rd)
			default:
			}

			return nil
		},
	}
}

func BuildMFHI(rd GPR) *Instruction { return buildHiLoMove("mfhi", FnMfhi, rd, true, false) }
func BuildMTHI(rs GPR) *Instruction { return buildHiLoMove("mthi", FnMthi, rs, false, true) }

func BuildMFLO(rd GPR) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, 0, 0, rd, 0, FnMflo),
		Mnemonic: "mflo",
		Text:     fmt.Sprintf("mflo $%s", GPRName(rd)),
		Exec:     func(m *Machine) error { m.Reg.Set(rd, m.LO); return nil },
	}
}

func BuildMTLO(rs GPR) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, rs, 0, 0, 0, FnMtlo),
		Mnemonic: "mtlo",
		Text:     fmt.Sprintf("mtlo $%s", GPRName(rs)),
		Exec:     func(m *Machine) error { m.LO = m.Reg.Get(rs); return nil },
	}
}

// --- Control flow ---

func BuildJR(rs GPR) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, rs, 0, 0, 0, FnJr),
		Mnemonic: "jr",
		Text:     fmt.Sprintf("jr $%s", GPRName(rs)),
		Branch:   true,
		Exec:     func(m *Machine) error { m.PC = m.Reg.Get(rs); return nil },
	}
}

func BuildJALR(rd, rs GPR) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, rs, 0, rd, 0, FnJalr),
		Mnemonic: "jalr",
		Text:     fmt.Sprintf("jalr $%s, $%s", GPRName(rd), GPRName(rs)),
		Branch:   true,
		Exec: func(m *Machine) error {
			link := m.linkAddr()
			target := m.Reg.Get(rs)
			m.Reg.Set(rd, link)
			m.PC = target

			return nil
		},
	}
}

func BuildJ(target Word) *Instruction {
	return &Instruction{
		Encoding: EncodeJ(OpJ, uint32(target>>2)),
		Mnemonic: "j",
		Text:     fmt.Sprintf("j %s", target),
		Branch:   true,
		Exec: func(m *Machine) error {
			m.PC = ((m.PC + 4) & 0xf0000000) | (target & 0x0fffffff)

			return nil
		},
	}
}

func BuildJAL(target Word) *Instruction {
	return &Instruction{
		Encoding: EncodeJ(OpJal, uint32(target>>2)),
		Mnemonic: "jal",
		Text:     fmt.Sprintf("jal %s", target),
		Branch:   true,
		Exec: func(m *Machine) error {
			m.Reg.Set(RA, m.linkAddr())
			m.PC = ((m.PC + 4) & 0xf0000000) | (target & 0x0fffffff)

			return nil
		},
	}
}

// buildBranch builds a conditional PC-relative branch. imm is the already
// word-shifted, sign-extended displacement a resolved label produces (see
// EncodeBranchImm); cond is evaluated against rs (and rt, for beq/bne).
func buildBranch(mnemonic string, op uint8, rs, rt GPR, imm uint16, link bool, cond func(a, b Word) bool) *Instruction {
	enc := EncodeI(op, rs, rt, imm)

	text := fmt.Sprintf("%s $%s, $%s, %s", mnemonic, GPRName(rs), GPRName(rt), SignExtend16(imm))
	if op == OpRegimm || op == OpBlez || op == OpBgtz {
		text = fmt.Sprintf("%s $%s, %s", mnemonic, GPRName(rs), SignExtend16(imm))
	}

	return &Instruction{
		Encoding: enc,
		Mnemonic: mnemonic,
		Text:     text,
		Branch:   true,
		Exec: func(m *Machine) error {
			taken := cond(m.Reg.Get(rs), m.Reg.Get(rt))

			if link {
				m.Reg.Set(RA, m.linkAddr())
			}

			if taken {
				m.PC = m.PC + 4 + Word(int32(SignExtend16(imm))<<2)
			}

			return nil
		},
	}
}

// EncodeBranchImm computes the 16-bit signed field for a branch at address
// addr targeting target: ((target - (addr+4)) >> 2) & 0xFFFF (testable
// property 5).
func EncodeBranchImm(addr, target Word) uint16 {
	return uint16((int32(target) - int32(addr+4)) >> 2)
}

// EncodeJumpTarget computes the 26-bit field for a j/jal at addr targeting
// target: (target >> 2) & 0x3FFFFFF (testable property 6).
func EncodeJumpTarget(target Word) uint32 {
	return uint32(target>>2) & 0x3ffffff
}

func BuildBEQ(rs, rt GPR, imm uint16) *Instruction {
	return buildBranch("beq", OpBeq, rs, rt, imm, false, func(a, b Word) bool { return a == b })
}

func BuildBNE(rs, rt GPR, imm uint16) *Instruction {
	return buildBranch("bne", OpBne, rs, rt, imm, false, func(a, b Word) bool { return a != b })
}

func BuildBLEZ(rs GPR, imm uint16) *Instruction {
	return buildBranch("blez", OpBlez, rs, Zero, imm, false, func(a, _ Word) bool { return a.Signed() <= 0 })
}

func BuildBGTZ(rs GPR, imm uint16) *Instruction {
	return buildBranch("bgtz", OpBgtz, rs, Zero, imm, false, func(a, _ Word) bool { return a.Signed() > 0 })
}

func BuildBLTZ(rs GPR, imm uint16) *Instruction {
	return buildBranch("bltz", OpRegimm, rs, GPR(RtBltz), imm, false, func(a, _ Word) bool { return a.Signed() < 0 })
}

func BuildBGEZ(rs GPR, imm uint16) *Instruction {
	return buildBranch("bgez", OpRegimm, rs, GPR(RtBgez), imm, false, func(a, _ Word) bool { return a.Signed() >= 0 })
}

func BuildBLTZAL(rs GPR, imm uint16) *Instruction {
	return buildBranch("bltzal", OpRegimm, rs, GPR(RtBltzal), imm, true, func(a, _ Word) bool { return a.Signed() < 0 })
}

func BuildBGEZAL(rs GPR, imm uint16) *Instruction {
	return buildBranch("bgezal", OpRegimm, rs, GPR(RtBgezal), imm, true, func(a, _ Word) bool { return a.Signed() >= 0 })
}

// --- Loads/stores ---

func buildLoad(mnemonic string, op uint8, rt, rs GPR, offset uint16, size int, signed bool) *Instruction {
	return &Instruction{
		Encoding: EncodeI(op, rs, rt, offset),
		Mnemonic: mnemonic,
		Text:     fmt.Sprintf("%s $%s, %d($%s)", mnemonic, GPRName(rt), int16(offset), GPRName(rs)),
		Exec: func(m *Machine) error {
			addr := m.Reg.Get(rs) + SignExtend16(offset)

			v, err := m.Mem.Load(addr, size)
			if err != nil {
				return err
			}

			if signed {
				m.Reg.Set(rt, Sext(v, size))
			} else {
				m.Reg.Set(rt, Zext(v, size))
			}

			return nil
		},
	}
}

func buildStore(mnemonic string, op uint8, rt, rs GPR, offset uint16, size int) *Instruction {
	return &Instruction{
		Encoding: EncodeI(op, rs, rt, offset),
		Mnemonic: mnemonic,
		Text:     fmt.Sprintf("%s $%s, %d($%s)", mnemonic, GPRName(rt), int16(offset), GPRName(rs)),
		Exec: func(m *Machine) error {
			addr := m.Reg.Get(rs) + SignExtend16(offset)
			return m.Mem.Store(addr, size, m.Reg.Get(rt))
		},
	}
}

func BuildLB(rt, rs GPR, offset uint16) *Instruction  { return buildLoad("lb", OpLb, rt, rs, offset, 1, true) }
func BuildLBU(rt, rs GPR, offset uint16) *Instruction { return buildLoad("lbu", OpLbu, rt, rs, offset, 1, false) }
func BuildLH(rt, rs GPR, offset uint16) *Instruction  { return buildLoad("lh", OpLh, rt, rs, offset, 2, true) }
func BuildLHU(rt, rs GPR, offset uint16) *Instruction { return buildLoad("lhu", OpLhu, rt, rs, offset, 2, false) }
func BuildLW(rt, rs GPR, offset uint16) *Instruction  { return buildLoad("lw", OpLw, rt, rs, offset, 4, true) }

func BuildSB(rt, rs GPR, offset uint16) *Instruction { return buildStore("sb", OpSb, rt, rs, offset, 1) }
func BuildSH(rt, rs GPR, offset uint16) *Instruction { return buildStore("sh", OpSh, rt, rs, offset, 2) }
func BuildSW(rt, rs GPR, offset uint16) *Instruction { return buildStore("sw", OpSw, rt, rs, offset, 4) }

// --- Immediates ---

func buildImm(mnemonic string, op uint8, rt, rs GPR, imm uint16, fn func(a Word, imm uint16) (Word, bool)) *Instruction {
	return &Instruction{
		Encoding: EncodeI(op, rs, rt, imm),
		Mnemonic: mnemonic,
		Text:     fmt.Sprintf("%s $%s, $%s, %d", mnemonic, GPRName(rt), GPRName(rs), imm),
		Exec: func(m *Machine) error {
			v, overflow := fn(m.Reg.Get(rs), imm)
			if overflow {
				return &Trap{Code: ExcOVF}
			}

			m.Reg.Set(rt, v)

			return nil
		},
	}
}

func BuildADDI(rt, rs GPR, imm uint16) *Instruction {
	return buildImm("addi", OpAddi, rt, rs, imm, func(a Word, imm uint16) (Word, bool) {
		sum := int64(a.Signed()) + int64(int16(imm))
		if sum > int64(int32(0x7fffffff)) || sum < int64(int32(-0x80000000)) {
			return 0, true
		}

		return noOverflow(a + SignExtend16(imm))
	})
}

func BuildADDIU(rt, rs GPR, imm uint16) *Instruction {
	return buildImm("addiu", OpAddiu, rt, rs, imm, func(a Word, imm uint16) (Word, bool) {
		return noOverflow(a + SignExtend16(imm))
	})
}

func BuildSLTI(rt, rs GPR, imm uint16) *Instruction {
	return buildImm("slti", OpSlti, rt, rs, imm, func(a Word, imm uint16) (Word, bool) {
		if a.Signed() < int32(int16(imm)) {
			return 1, false
		}

		return 0, false
	})
}

func BuildSLTIU(rt, rs GPR, imm uint16) *Instruction {
	return buildImm("sltiu", OpSltiu, rt, rs, imm, func(a Word, imm uint16) (Word, bool) {
		if a < SignExtend16(imm) {
			return 1, false
		}

		return 0, false
	})
}

func BuildANDI(rt, rs GPR, imm uint16) *Instruction {
	return buildImm("andi", OpAndi, rt, rs, imm, func(a Word, imm uint16) (Word, bool) {
		return noOverflow(a & ZeroExtend16(imm))
	})
}

func BuildORI(rt, rs GPR, imm uint16) *Instruction {
	return buildImm("ori", OpOri, rt, rs, imm, func(a Word, imm uint16) (Word, bool) {
		return noOverflow(a | ZeroExtend16(imm))
	})
}

func BuildXORI(rt, rs GPR, imm uint16) *Instruction {
	return buildImm("xori", OpXori, rt, rs, imm, func(a Word, imm uint16) (Word, bool) {
		return noOverflow(a ^ ZeroExtend16(imm))
	})
}

func BuildLUI(rt GPR, imm uint16) *Instruction {
	return &Instruction{
		Encoding: EncodeI(OpLui, 0, rt, imm),
		Mnemonic: "lui",
		Text:     fmt.Sprintf("lui $%s, %d", GPRName(rt), imm),
		Exec: func(m *Machine) error {
			m.Reg.Set(rt, Word(uint32(imm)<<16))
			return nil
		},
	}
}

// --- Syscall, break, CP0 ---

func BuildSYSCALL() *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, 0, 0, 0, 0, FnSyscall),
		Mnemonic: "syscall",
		Text:     "syscall",
		Exec:     func(m *Machine) error { return &Trap{Code: ExcSYSCALL} },
	}
}

func BuildBREAK() *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpSpecial, 0, 0, 0, 0, FnBreak),
		Mnemonic: "break",
		Text:     "break",
		Exec:     func(m *Machine) error { return &Trap{Code: ExcBKPT} },
	}
}

func BuildMFC0(rt GPR, cp0 CP0Reg) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpCop0, GPR(CopMf), rt, GPR(cp0), 0, 0),
		Mnemonic: "mfc0",
		Text:     fmt.Sprintf("mfc0 $%s, $%d", GPRName(rt), cp0),
		Exec: func(m *Machine) error {
			if m.CP0.UserMode() {
				return &Trap{Code: ExcRI}
			}

			m.Reg.Set(rt, m.CP0.Get(cp0))

			return nil
		},
	}
}

func BuildMTC0(rt GPR, cp0 CP0Reg) *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpCop0, GPR(CopMt), rt, GPR(cp0), 0, 0),
		Mnemonic: "mtc0",
		Text:     fmt.Sprintf("mtc0 $%s, $%d", GPRName(rt), cp0),
		Exec: func(m *Machine) error {
			if m.CP0.UserMode() {
				return &Trap{Code: ExcRI}
			}

			m.CP0.Set(cp0, m.Reg.Get(rt))

			return nil
		},
	}
}

// BuildRFE returns from exception: restores the IE/KU pair saved by the
// trap entry shift (spec section 4.7, CP0.ReturnFromException).
func BuildRFE() *Instruction {
	return &Instruction{
		Encoding: EncodeR(OpCop0, GPR(CopRfe), 0, 0, 0, 0),
		Mnemonic: "rfe",
		Text:     "rfe",
		Exec: func(m *Machine) error {
			if m.CP0.UserMode() {
				return &Trap{Code: ExcRI}
			}

			m.CP0.ReturnFromException()

			return nil
		},
	}
}

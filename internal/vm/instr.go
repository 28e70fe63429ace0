package vm

// instr.go defines the MIPS R2000 instruction encodings (R/I/J forms) and
// the Instruction type that couples a decoded encoding to its semantic
// action. Grounded on the teacher's Instruction bit-accessor methods
// (internal/vm/types.go in the retrieval pack), generalized from the LC-3's
// single 16-bit opcode/operand layout to the three 32-bit MIPS forms
// described in spec section 4.6.

import "fmt"

// Encoding is the raw 32-bit bit pattern of one MIPS instruction. Its
// accessor methods read the R, I and J instruction forms; callers know from
// the opcode/funct which form applies.
type Encoding Word

// Op returns the 6-bit primary opcode, bits 31:26.
func (e Encoding) Op() uint8 { return uint8((e >> 26) & 0x3f) }

// Rs returns the first source register, bits 25:21.
func (e Encoding) Rs() GPR { return GPR((e >> 21) & 0x1f) }

// Rt returns the second source (or I-form destination) register, bits 20:16.
func (e Encoding) Rt() GPR { return GPR((e >> 16) & 0x1f) }

// Rd returns the R-form destination register, bits 15:11.
func (e Encoding) Rd() GPR { return GPR((e >> 11) & 0x1f) }

// Shamt returns the 5-bit shift amount, bits 10:6.
func (e Encoding) Shamt() uint8 { return uint8((e >> 6) & 0x1f) }

// Funct returns the 6-bit function code, bits 5:0.
func (e Encoding) Funct() uint8 { return uint8(e & 0x3f) }

// ImmU returns the 16-bit I-form immediate, unextended.
func (e Encoding) ImmU() uint16 { return uint16(e & 0xffff) }

// ImmS sign-extends the 16-bit I-form immediate to a full word.
func (e Encoding) ImmS() Word { return SignExtend16(e.ImmU()) }

// Target returns the 26-bit J-form jump target.
func (e Encoding) Target() uint32 { return uint32(e & 0x3ffffff) }

func (e Encoding) String() string {
	return fmt.Sprintf("%0#10x", uint32(e))
}

// EncodeR builds an R-form instruction: op(6) rs(5) rt(5) rd(5) shamt(5) funct(6).
func EncodeR(op uint8, rs, rt, rd GPR, shamt, funct uint8) Encoding {
	return Encoding(uint32(op&0x3f)<<26 |
		uint32(rs&0x1f)<<21 |
		uint32(rt&0x1f)<<16 |
		uint32(rd&0x1f)<<11 |
		uint32(shamt&0x1f)<<6 |
		uint32(funct&0x3f))
}

// EncodeI builds an I-form instruction: op(6) rs(5) rt(5) imm(16).
func EncodeI(op uint8, rs, rt GPR, imm uint16) Encoding {
	return Encoding(uint32(op&0x3f)<<26 |
		uint32(rs&0x1f)<<21 |
		uint32(rt&0x1f)<<16 |
		uint32(imm))
}

// EncodeJ builds a J-form instruction: op(6) target(26).
func EncodeJ(op uint8, target uint32) Encoding {
	return Encoding(uint32(op&0x3f)<<26 | (target & 0x3ffffff))
}

// Opcodes and SPECIAL/REGIMM function codes this simulator implements. Named
// the way the teacher names its LC-3 opcode constants (internal/vm/types.go).
const (
	OpSpecial uint8 = 0x00
	OpRegimm  uint8 = 0x01
	OpJ       uint8 = 0x02
	OpJal     uint8 = 0x03
	OpBeq     uint8 = 0x04
	OpBne     uint8 = 0x05
	OpBlez    uint8 = 0x06
	OpBgtz    uint8 = 0x07
	OpAddi    uint8 = 0x08
	OpAddiu   uint8 = 0x09
	OpSlti    uint8 = 0x0a
	OpSltiu   uint8 = 0x0b
	OpAndi    uint8 = 0x0c
	OpOri     uint8 = 0x0d
	OpXori    uint8 = 0x0e
	OpLui     uint8 = 0x0f
	OpCop0    uint8 = 0x10
	OpLb      uint8 = 0x20
	OpLh      uint8 = 0x21
	OpLwl     uint8 = 0x22
	OpLw      uint8 = 0x23
	OpLbu     uint8 = 0x24
	OpLhu     uint8 = 0x25
	OpLwr     uint8 = 0x26
	OpSb      uint8 = 0x28
	OpSh      uint8 = 0x29
	OpSwl     uint8 = 0x2a
	OpSw      uint8 = 0x2b
	OpSwr     uint8 = 0x2e
)

// SPECIAL (op == OpSpecial) function codes.
const (
	FnSll     uint8 = 0x00
	FnSrl     uint8 = 0x02
	FnSra     uint8 = 0x03
	FnSllv    uint8 = 0x04
	FnSrlv    uint8 = 0x06
	FnSrav    uint8 = 0x07
	FnJr      uint8 = 0x08
	FnJalr    uint8 = 0x09
	FnSyscall uint8 = 0x0c
	FnBreak   uint8 = 0x0d
	FnMfhi    uint8 = 0x10
	FnMthi    uint8 = 0x11
	FnMflo    uint8 = 0x12
	FnMtlo    uint8 = 0x13
	FnMult    uint8 = 0x18
	FnMultu   uint8 = 0x19
	FnDiv     uint8 = 0x1a
	FnDivu    uint8 = 0x1b
	FnAdd     uint8 = 0x20
	FnAddu    uint8 = 0x21
	FnSub     uint8 = 0x22
	FnSubu    uint8 = 0x23
	FnAnd     uint8 = 0x24
	FnOr      uint8 = 0x25
	FnXor     uint8 = 0x26
	FnNor     uint8 = 0x27
	FnSlt     uint8 = 0x2a
	FnSltu    uint8 = 0x2b
)

// REGIMM (op == OpRegimm) rt-field sub-opcodes.
const (
	RtBltz   uint8 = 0x00
	RtBgez   uint8 = 0x01
	RtBltzal uint8 = 0x10
	RtBgezal uint8 = 0x11
)

// COP0 (op == OpCop0) rs-field sub-opcodes.
const (
	CopMf  uint8 = 0x00
	CopMt  uint8 = 0x04
	CopRfe uint8 = 0x10
)

// Instruction couples a decoded/assembled encoding to its semantic action
// and its disassembled text. The assembler produces these directly (spec
// section 4.7: "a builder ... returns a semantic instruction (action +
// encoding)"); the execution engine also decodes raw words fetched from
// memory into one when no assembler-produced instruction is present at that
// address (e.g. self-modifying code, or code loaded as raw words).
type Instruction struct {
	Encoding Encoding
	Mnemonic string
	Text     string // disassembled form, e.g. "add $t0, $t1, $t2"
	Branch   bool   // true if this instruction has an architectural delay slot
	Exec     func(m *Machine) error
}

func (i *Instruction) String() string {
	if i.Text != "" {
		return i.Text
	}

	return i.Encoding.String()
}

// Decode builds an Instruction from a raw fetched word by dispatching on
// opcode/funct and synthesizing the same Exec closures the assembler would
// have produced for that mnemonic. It is the fallback path used when a word
// was stored as data rather than assembled as text (see decode.go).
func Decode(enc Encoding) (*Instruction, error) {
	return decodeTable(enc)
}

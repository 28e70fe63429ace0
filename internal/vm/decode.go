package vm

// decode.go reconstructs a semantic Instruction from a raw 32-bit encoding
// by dispatching on opcode/funct and calling the same Build* constructors
// the assembler uses. It is the fallback path for any text-segment word that
// was not placed by the assembler as a ready-made semantic instruction
// (spec section 4.6: "a bijection between semantic form and 32-bit R/I/J
// encoding"). Grounded on the teacher's Decode switch
// (internal/vm/exec.go in the retrieval pack).

import "fmt"

func decodeTable(enc Encoding) (*Instruction, error) {
	switch enc.Op() {
	case OpSpecial:
		return decodeSpecial(enc)
	case OpRegimm:
		return decodeRegimm(enc)
	case OpCop0:
		return decodeCop0(enc)
	case OpJ:
		return BuildJ(Word(enc.Target() << 2)), nil
	case OpJal:
		return BuildJAL(Word(enc.Target() << 2)), nil
	case OpBeq:
		return BuildBEQ(enc.Rs(), enc.Rt(), enc.ImmU()), nil
	case OpBne:
		return BuildBNE(enc.Rs(), enc.Rt(), enc.ImmU()), nil
	case OpBlez:
		return BuildBLEZ(enc.Rs(), enc.ImmU()), nil
	case OpBgtz:
		return BuildBGTZ(enc.Rs(), enc.ImmU()), nil
	case OpAddi:
		return BuildADDI(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpAddiu:
		return BuildADDIU(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpSlti:
		return BuildSLTI(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpSltiu:
		return BuildSLTIU(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpAndi:
		return BuildANDI(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpOri:
		return BuildORI(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpXori:
		return BuildXORI(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpLui:
		return BuildLUI(enc.Rt(), enc.ImmU()), nil
	case OpLb:
		return BuildLB(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpLbu:
		return BuildLBU(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpLh:
		return BuildLH(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpLhu:
		return BuildLHU(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpLw:
		return BuildLW(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpSb:
		return BuildSB(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpSh:
		return BuildSH(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	case OpSw:
		return BuildSW(enc.Rt(), enc.Rs(), enc.ImmU()), nil
	default:
		return nil, fmt.Errorf("vm: decode: unsupported opcode %#x", enc.Op())
	}
}

func decodeSpecial(enc Encoding) (*Instruction, error) {
	switch enc.Funct() {
	case FnAdd:
		return BuildADD(enc.Rd(), enc.Rs(), enc.Rt()), nil
	case FnAddu:
		return BuildADDU(enc.Rd(), enc.Rs(), enc.Rt()), nil
	case FnSub:
		return BuildSUB(enc.Rd(), enc.Rs(), enc.Rt()), nil
	case FnSubu:
		return BuildSUBU(enc.Rd(), enc.Rs(), enc.Rt()), nil
	case FnAnd:
		return BuildAND(enc.Rd(), enc.Rs(), enc.Rt()), nil
	case FnOr:
		return BuildOR(enc.Rd(), enc.Rs(), enc.Rt()), nil
	case FnXor:
		return BuildXOR(enc.Rd(), enc.Rs(), enc.Rt()), nil
	case FnNor:
		return BuildNOR(enc.Rd(), enc.Rs(), enc.Rt()), nil
	case FnSlt:
		return BuildSLT(enc.Rd(), enc.Rs(), enc.Rt()), nil
	case FnSltu:
		return BuildSLTU(enc.Rd(), enc.Rs(), enc.Rt()), nil
	case FnSll:
		return BuildSLL(enc.Rd(), enc.Rt(), enc.Shamt()), nil
	case FnSrl:
		return BuildSRL(enc.Rd(), enc.Rt(), enc.Shamt()), nil
	case FnSra:
		return BuildSRA(enc.Rd(), enc.Rt(), enc.Shamt()), nil
	case FnSllv:
		return BuildSLLV(enc.Rd(), enc.Rt(), enc.Rs()), nil
	case FnSrlv:
		return BuildSRLV(enc.Rd(), enc.Rt(), enc.Rs()), nil
	case FnSrav:
		return BuildSRAV(enc.Rd(), enc.Rt(), enc.Rs()), nil
	case FnMult:
		return BuildMULT(enc.Rs(), enc.Rt()), nil
	case FnMultu:
		return BuildMULTU(enc.Rs(), enc.Rt()), nil
	case FnDiv:
		return BuildDIV(enc.Rs(), enc.Rt()), nil
	case FnDivu:
		return BuildDIVU(enc.Rs(), enc.Rt()), nil
	case FnMfhi:
		return BuildMFHI(enc.Rd()), nil
	case FnMthi:
		return BuildMTHI(enc.Rs()), nil
	case FnMflo:
		return BuildMFLO(enc.Rd()), nil
	case FnMtlo:
		return BuildMTLO(enc.Rs()), nil
	case FnJr:
		return BuildJR(enc.Rs()), nil
	case FnJalr:
		return BuildJALR(enc.Rd(), enc.Rs()), nil
	case FnSyscall:
		return BuildSYSCALL(), nil
	case FnBreak:
		return BuildBREAK(), nil
	default:
		return nil, fmt.Errorf("vm: decode: unsupported SPECIAL funct %#x", enc.Funct())
	}
}

func decodeRegimm(enc Encoding) (*Instruction, error) {
	switch uint8(enc.Rt()) {
	case RtBltz:
		return BuildBLTZ(enc.Rs(), enc.ImmU()), nil
	case RtBgez:
		return BuildBGEZ(enc.Rs(), enc.ImmU()), nil
	case RtBltzal:
		return BuildBLTZAL(enc.Rs(), enc.ImmU()), nil
	case RtBgezal:
		return BuildBGEZAL(enc.Rs(), enc.ImmU()), nil
	default:
		return nil, fmt.Errorf("vm: decode: unsupported REGIMM rt %#x", enc.Rt())
	}
}

func decodeCop0(enc Encoding) (*Instruction, error) {
	switch uint8(enc.Rs()) {
	case CopMf:
		return BuildMFC0(enc.Rt(), CP0Reg(enc.Rd())), nil
	case CopMt:
		return BuildMTC0(enc.Rt(), CP0Reg(enc.Rd())), nil
	case CopRfe:
		return BuildRFE(), nil
	default:
		return nil, fmt.Errorf("vm: decode: unsupported COP0 rs %#x", enc.Rs())
	}
}

package cpu

import (
	"fmt"
)

// Opcode is a three bit instruction selector.
type Opcode uint8

const (
	OP_ADV = Opcode(0) // adv
	OP_BXL = Opcode(1) // bxl
	OP_BST = Opcode(2) // bst
	OP_JNZ = Opcode(3) // jnz
	OP_BXC = Opcode(4) // bxc
	OP_OUT = Opcode(5) // out
	OP_BDV = Opcode(6) // bdv
	OP_CDV = Opcode(7) // cdv
)

var _opcode_name = [...]string{"adv", "bxl", "bst", "jnz", "bxc", "out", "bdv", "cdv"}

func (op Opcode) String() string {
	if int(op) < len(_opcode_name) {
		return _opcode_name[op]
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// Valid returns true if the opcode fits in three bits.
func (op Opcode) Valid() bool {
	return op <= OP_CDV
}

// OperandMode is the addressing mode an opcode applies to its operand.
type OperandMode int

const (
	MODE_LITERAL = OperandMode(0) // Operand is used verbatim.
	MODE_COMBO   = OperandMode(1) // Operand selects a constant or a register.
	MODE_IGNORED = OperandMode(2) // Operand is present but unused.
)

// Mode returns the addressing mode of the opcode's operand.
func (op Opcode) Mode() OperandMode {
	switch op {
	case OP_BXL, OP_JNZ:
		return MODE_LITERAL
	case OP_BXC:
		return MODE_IGNORED
	default:
		return MODE_COMBO
	}
}

// Combo operand encodings.
const (
	COMBO_REG_A    = uint8(4) // a
	COMBO_REG_B    = uint8(5) // b
	COMBO_REG_C    = uint8(6) // c
	COMBO_RESERVED = uint8(7) // never valid
)

// Register indexes.
const (
	REG_A = 0
	REG_B = 1
	REG_C = 2
)

var _register_name = [...]string{"a", "b", "c"}

// Instruction is a decoded (opcode, operand) pair.
type Instruction struct {
	Opcode  Opcode
	Operand uint8
}

// Decode the instruction at ip in memory. Returns ok == false if a full
// instruction cannot be read at ip.
func Decode(memory []uint8, ip int) (ins Instruction, ok bool, err error) {
	if ip < 0 || ip+1 >= len(memory) {
		return
	}

	ok = true
	ins = Instruction{Opcode: Opcode(memory[ip]), Operand: memory[ip+1]}
	if !ins.Opcode.Valid() {
		err = ErrOpcodeInvalid
		return
	}
	if ins.Operand > 7 {
		err = ErrOperandInvalid
		return
	}

	return
}

// operandString returns the assembly text for the operand.
func (ins Instruction) operandString() string {
	switch ins.Opcode.Mode() {
	case MODE_IGNORED:
		return ""
	case MODE_COMBO:
		switch {
		case ins.Operand < COMBO_REG_A:
			return fmt.Sprintf("%d", ins.Operand)
		case ins.Operand < COMBO_RESERVED:
			return _register_name[ins.Operand-COMBO_REG_A]
		default:
			return fmt.Sprintf("?%d", ins.Operand)
		}
	}

	return fmt.Sprintf("%d", ins.Operand)
}

// String returns the assembly language representation of the instruction.
func (ins Instruction) String() string {
	operand := ins.operandString()
	if len(operand) == 0 {
		return ins.Opcode.String()
	}

	return ins.Opcode.String() + " " + operand
}

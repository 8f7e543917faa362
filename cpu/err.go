package cpu

import (
	"errors"

	"github.com/ezrec/chrono/translate"
)

var f = translate.From

var (
	// Instruction decode errors
	ErrOpcodeInvalid    = errors.New(f("opcode invalid"))
	ErrOperandInvalid   = errors.New(f("operand invalid"))
	ErrComboReserved    = errors.New(f("combo operand 7 is reserved"))
	ErrExponentNegative = errors.New(f("negative divisor exponent"))

	// Program text errors
	ErrRegisterMissing = errors.New(f("register missing"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrProgramMissing  = errors.New(f("program missing"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrDirectiveSyntax    = errors.New(f("directive syntax"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOperandMissing     = errors.New(f("operand missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrInstruction annotates a failure with the instruction that caused it.
type ErrInstruction struct {
	Ip          int
	Instruction Instruction
}

func (ei ErrInstruction) Error() string {
	return f("ip %v: bad instruction %v,%v (%v)", ei.Ip,
		uint8(ei.Instruction.Opcode), ei.Instruction.Operand, ei.Instruction.String())
}

func (ei ErrInstruction) Is(err error) (ok bool) {
	_, ok = err.(ErrInstruction)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

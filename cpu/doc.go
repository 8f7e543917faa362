// Package cpu implements the three bit register machine and its assembler.
//
// The CPU consists of an instruction pointer (IP), three signed 64-bit
// registers (A, B and C), an immutable program memory of three bit values,
// and an append-only output stream. Memory is read as (opcode, operand)
// pairs; the machine halts when IP no longer addresses a full pair.
//
// Operands are either literal, used as-is, or combo, where 0-3 are
// constants, 4-6 select registers A-C, and 7 is reserved.
//
// The assembler provides a small mnemonic language for the instruction set,
// supporting labels, equates, register directives, and compile-time
// expression evaluation.
package cpu

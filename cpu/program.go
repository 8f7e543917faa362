package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Statement is a line of assembled source with the memory it generated.
type Statement struct {
	LineNo int
	Ip     int
	Words  []string
	Codes  []uint8
}

// Program is a loaded memory image and its initial register values.
type Program struct {
	Register   [3]int64    // Initial A, B and C.
	Memory     []uint8     // Program memory.
	Statements []Statement // Source statements, if assembled.
}

type Debug struct {
	*Statement
	Index int
}

// Debug finds the assembler statement that generated memory at ip.
func (prog *Program) Debug(ip int) (dbg Debug) {
	for n, st := range prog.Statements {
		if ip >= st.Ip && ip < st.Ip+len(st.Codes) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     ip - st.Ip,
			}
			break
		}
	}

	return
}

// NewCpu creates a CPU loaded with the program memory and registers.
func (prog *Program) NewCpu() *Cpu {
	return NewCpu(prog.Memory, prog.Register[REG_A], prog.Register[REG_B], prog.Register[REG_C])
}

// Instructions iterates over the instruction pairs at even addresses.
// A dangling final opcode is not yielded.
func (prog *Program) Instructions() iter.Seq2[int, Instruction] {
	return func(yield func(ip int, ins Instruction) bool) {
		for ip := 0; ip+1 < len(prog.Memory); ip += 2 {
			ins := Instruction{Opcode: Opcode(prog.Memory[ip]), Operand: prog.Memory[ip+1]}
			if !yield(ip, ins) {
				return
			}
		}
	}
}

// Listing writes a disassembly of the program, one instruction per line.
func (prog *Program) Listing(w io.Writer) (err error) {
	for ip, ins := range prog.Instructions() {
		_, err = fmt.Fprintf(w, "%02d: %v\n", ip, ins)
		if err != nil {
			return
		}
	}

	if len(prog.Memory)%2 == 1 {
		ip := len(prog.Memory) - 1
		_, err = fmt.Fprintf(w, "%02d: .byte %d\n", ip, prog.Memory[ip])
	}

	return
}

// String renders the program in its textual form.
func (prog *Program) String() string {
	values := make([]string, len(prog.Memory))
	for n, value := range prog.Memory {
		values[n] = strconv.Itoa(int(value))
	}

	return fmt.Sprintf("Register A: %d\nRegister B: %d\nRegister C: %d\n\nProgram: %s\n",
		prog.Register[REG_A], prog.Register[REG_B], prog.Register[REG_C],
		strings.Join(values, ","))
}

// parseMemory parses a comma separated list of three bit values.
func parseMemory(text string) (memory []uint8, err error) {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return
	}

	for _, word := range strings.Split(text, ",") {
		word = strings.TrimSpace(word)
		var value uint64
		value, err = strconv.ParseUint(word, 10, 8)
		if err != nil {
			err = ErrParseNumber(word)
			return
		}
		if value > 7 {
			err = ErrOperandInvalid
			return
		}
		memory = append(memory, uint8(value))
	}

	return
}

// ParseProgram reads a program in its textual form:
//
//	Register A: <int>
//	Register B: <int>
//	Register C: <int>
//
//	Program: <int>,<int>,...
func ParseProgram(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err == nil {
			return
		}
		prog = nil
		var syntax ErrSyntax
		if lineno > 0 && !errors.As(err, &syntax) {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	var seen [3]bool
	var program bool

	prog = &Program{}

	for scanner.Scan() {
		lineno += 1
		line = strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			err = ErrDirectiveSyntax
			return
		}

		key = strings.TrimSpace(key)
		switch {
		case key == "Program":
			if program {
				err = ErrDirectiveSyntax
				return
			}
			prog.Memory, err = parseMemory(value)
			if err != nil {
				return
			}
			program = true
		case strings.HasPrefix(key, "Register "):
			name := strings.TrimSpace(strings.TrimPrefix(key, "Register "))
			index := strings.Index("ABC", name)
			if len(name) != 1 || index < 0 || seen[index] {
				err = ErrRegisterInvalid
				return
			}
			word := strings.TrimSpace(value)
			prog.Register[index], err = strconv.ParseInt(word, 10, 64)
			if err != nil {
				err = ErrParseNumber(word)
				return
			}
			seen[index] = true
		default:
			err = ErrDirectiveSyntax
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	lineno = 0
	for _, ok := range seen {
		if !ok {
			err = ErrRegisterMissing
			return
		}
	}
	if !program {
		err = ErrProgramMissing
		return
	}

	return
}

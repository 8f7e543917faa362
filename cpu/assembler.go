// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// opcodeMap maps mnemonics to opcodes.
var opcodeMap = map[string]Opcode{
	"adv": OP_ADV,
	"bxl": OP_BXL,
	"bst": OP_BST,
	"jnz": OP_JNZ,
	"bxc": OP_BXC,
	"out": OP_OUT,
	"bdv": OP_BDV,
	"cdv": OP_CDV,
}

// comboMap maps register names to combo operands.
var comboMap = map[string]uint8{
	"a": COMBO_REG_A,
	"b": COMBO_REG_B,
	"c": COMBO_REG_C,
}

// Assembler is a single pass assembler for the three bit machine.
type Assembler struct {
	Verbose    bool        // If set, verbosely logs the assembler actions.
	Statements []Statement // List of generated statements.
	Register   [3]int64    // Initial registers set by .reg

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of jump labels to memory addresses.
	Equate    map[string]string // Map of equates.

	links []link // Unresolved jump labels.
}

// link is a jump whose target label is resolved after parsing.
type link struct {
	Statement int
	Label     string
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	return
}

// threeBit returns the value of a word that must fit in three bits.
func (asm *Assembler) threeBit(word string) (value uint8, err error) {
	v64, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if v64 < 0 || v64 > 7 {
		err = ErrOperandInvalid
		return
	}

	value = uint8(v64)
	return
}

// combo returns the encoding of a combo operand.
func (asm *Assembler) combo(word string) (operand uint8, err error) {
	operand, ok := comboMap[strings.ToLower(word)]
	if ok {
		return
	}

	operand, err = asm.threeBit(word)
	if err != nil {
		return
	}

	if operand == COMBO_RESERVED {
		err = ErrComboReserved
		return
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for n, name := range _register_name {
		pred[strings.ToUpper(name)] = starlark.MakeInt64(asm.Register[n])
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine parses a single line into words, handling equates and labels.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.currentIp()
		words = words[1:]
	}

	return
}

// currentIp gets the current memory address.
func (asm *Assembler) currentIp() int {
	if len(asm.Statements) == 0 {
		return 0
	}

	last := asm.Statements[len(asm.Statements)-1]

	return last.Ip + len(last.Codes)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			var serr ErrSyntax
			if !errors.As(err, &serr) {
				err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
			}
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.links = asm.links[:0]
	asm.Statements = asm.Statements[:0]
	asm.Register = [3]int64{}
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment, _, _ := strings.Cut(text, ";")
		line = strings.TrimSpace(text_comment)

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of jump labels.
	for _, ln := range asm.links {
		st := &asm.Statements[ln.Statement]
		ip, ok := asm.Label[ln.Label]
		if !ok {
			err = ErrSyntax{LineNo: st.LineNo, Line: strings.Join(st.Words, " "), Err: ErrLabelMissing(ln.Label)}
			return
		}
		if ip < 0 || ip > 7 {
			err = ErrSyntax{LineNo: st.LineNo, Line: strings.Join(st.Words, " "), Err: ErrOperandInvalid}
			return
		}
		st.Codes[1] = uint8(ip)
	}

	prog = &Program{
		Register:   asm.Register,
		Statements: slices.Clone(asm.Statements),
	}
	for _, st := range prog.Statements {
		prog.Memory = append(prog.Memory, st.Codes...)
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []uint8
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(codes) == 0 {
			return
		}
		if len(label) != 0 {
			asm.links = append(asm.links, link{Statement: len(asm.Statements), Label: label})
		}
		st := Statement{LineNo: lineno, Ip: asm.currentIp(), Words: initial_words, Codes: codes}
		asm.Statements = append(asm.Statements, st)
	}()

	switch words[0] {
	case ".reg":
		if len(words) != 3 {
			err = ErrDirectiveSyntax
			return
		}
		index := slices.Index(_register_name[:], strings.ToLower(words[1]))
		if index < 0 {
			err = ErrRegisterInvalid
			return
		}
		asm.Register[index], err = asm.valueOf(words[2])
		return
	case ".byte":
		if len(words) < 2 {
			err = ErrOperandMissing
			return
		}
		for _, word := range words[1:] {
			var value uint8
			value, err = asm.threeBit(word)
			if err != nil {
				return
			}
			codes = append(codes, value)
		}
		return
	}

	op, ok := opcodeMap[strings.ToLower(words[0])]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	args := words[1:]
	if op == OP_BXC && len(args) == 0 {
		args = []string{"0"}
	}
	if len(args) == 0 {
		err = ErrOperandMissing
		return
	}
	if len(args) > 1 {
		err = ErrOpcodeExtraArgs
		return
	}

	var operand uint8
	switch op.Mode() {
	case MODE_COMBO:
		operand, err = asm.combo(args[0])
	case MODE_LITERAL, MODE_IGNORED:
		operand, err = asm.threeBit(args[0])
		if op == OP_JNZ && errors.As(err, new(ErrParseNumber)) {
			// Linked after all labels are known.
			err = nil
			label = args[0]
		}
	}
	if err != nil {
		return
	}

	codes = []uint8{uint8(op), operand}

	return
}

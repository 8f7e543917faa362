package cpu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

const exampleText = "Register A: 729\nRegister B: 0\nRegister C: 0\n\nProgram: 0,1,5,4,3,0"

func TestParseProgram(t *testing.T) {
	assert := assert.New(t)

	prog, err := ParseProgram(strings.NewReader(exampleText))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal([3]int64{729, 0, 0}, prog.Register)
	assert.Equal([]uint8{0, 1, 5, 4, 3, 0}, prog.Memory)
	assert.Empty(prog.Statements)

	output, err := prog.NewCpu().Run()
	assert.NoError(err)
	assert.Equal([]uint8{4, 6, 3, 5, 6, 3, 5, 2, 1, 0}, output)

	// Round trip through the textual form.
	again, err := ParseProgram(strings.NewReader(prog.String()))
	assert.NoError(err)
	assert.Equal(prog, again)
	assert.Equal(exampleText+"\n", prog.String())
}

func TestParseProgram_Loose(t *testing.T) {
	assert := assert.New(t)

	text := "  Register C: -3\nRegister A: 10\r\nRegister B:7\n\n\nProgram: 5, 0 ,5,1\n"
	prog, err := ParseProgram(strings.NewReader(text))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal([3]int64{10, 7, -3}, prog.Register)
	assert.Equal([]uint8{5, 0, 5, 1}, prog.Memory)

	prog, err = ParseProgram(strings.NewReader("Register A: 0\nRegister B: 0\nRegister C: 0\nProgram:\n"))
	assert.NoError(err)
	assert.Empty(prog.Memory)
}

func TestParseProgram_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		text   string
		err    error
		lineno int
	}){
		{"no_program", "Register A: 1\nRegister B: 2\nRegister C: 3\n", ErrProgramMissing, 0},
		{"no_register", "Register A: 1\nRegister B: 2\n\nProgram: 0,1", ErrRegisterMissing, 0},
		{"dup_register", "Register A: 1\nRegister A: 2\n", ErrRegisterInvalid, 2},
		{"bad_register", "Register D: 1\n", ErrRegisterInvalid, 1},
		{"bad_value", "Register A: x\n", ErrParseNumber("x"), 1},
		{"bad_memory", "Program: 0,1,q\n", ErrParseNumber("q"), 1},
		{"wide_memory", "Program: 0,8\n", ErrOperandInvalid, 1},
		{"dup_program", "Program: 0\nProgram: 1\n", ErrDirectiveSyntax, 2},
		{"junk", "Register A 1\n", ErrDirectiveSyntax, 1},
		{"unknown", "Accumulator: 1\n", ErrDirectiveSyntax, 1},
	}

	for _, entry := range table {
		prog, err := ParseProgram(strings.NewReader(entry.text))
		assert.Nil(prog, entry.name)
		assert.ErrorIs(err, entry.err, entry.name)

		var serr ErrSyntax
		if entry.lineno == 0 {
			assert.False(errors.As(err, &serr), entry.name)
		} else if assert.True(errors.As(err, &serr), entry.name) {
			assert.Equal(entry.lineno, serr.LineNo, entry.name)
		}
	}
}

func TestProgram_Instructions(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{Memory: []uint8{0, 1, 5, 4, 3, 0, 5}}

	var ips []int
	var code []Instruction
	for ip, ins := range prog.Instructions() {
		ips = append(ips, ip)
		code = append(code, ins)
	}

	assert.Equal([]int{0, 2, 4}, ips)
	assert.Equal([]Instruction{{OP_ADV, 1}, {OP_OUT, 4}, {OP_JNZ, 0}}, code)

	// Early stop.
	count := 0
	for range prog.Instructions() {
		count++
		break
	}
	assert.Equal(1, count)
}

func TestProgram_Listing(t *testing.T) {
	g := goldie.New(t)

	table := [](struct {
		name   string
		memory []uint8
	}){
		{"listing", []uint8{2, 4, 1, 1, 7, 5, 1, 5, 4, 0, 0, 3, 5, 5, 3, 0}},
		{"listing_dangling", []uint8{0, 1, 5, 4, 3, 0, 5}},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			prog := &Program{Memory: entry.memory}

			buf := &bytes.Buffer{}
			err := prog.Listing(buf)
			assert.NoError(t, err)

			g.Assert(t, entry.name, buf.Bytes())
		})
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Memory: []uint8{0, 1, 5, 4, 3, 0},
		Statements: []Statement{
			{LineNo: 1, Ip: 0, Words: []string{"adv", "1"}, Codes: []uint8{0, 1}},
			{LineNo: 3, Ip: 2, Words: []string{"out", "a"}, Codes: []uint8{5, 4}},
			{LineNo: 4, Ip: 4, Words: []string{"jnz", "0"}, Codes: []uint8{3, 0}},
		},
	}

	dbg := prog.Debug(0)
	assert.NotNil(dbg.Statement)
	assert.Equal(1, dbg.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(3)
	assert.NotNil(dbg.Statement)
	assert.Equal(3, dbg.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(6)
	assert.Nil(dbg.Statement)
	assert.Equal(0, dbg.Index)
}

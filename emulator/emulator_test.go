package emulator

import (
	"bytes"
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/ezrec/chrono/cpu"
	"github.com/ezrec/chrono/io"
)

type registers struct {
	A int64 `yaml:"a"`
	B int64 `yaml:"b"`
	C int64 `yaml:"c"`
}

type vector struct {
	Name      string    `yaml:"name"`
	Program   []int     `yaml:"program"`
	Registers registers `yaml:"registers"`
	Output    []int     `yaml:"output"`
	Final     registers `yaml:"final"`
}

func loadVectors(t *testing.T) (vectors []vector) {
	data, err := os.ReadFile("testdata/vectors.yaml")
	if err != nil {
		t.Fatal(err)
	}

	err = yaml.Unmarshal(data, &vectors)
	if err != nil {
		t.Fatal(err)
	}

	return
}

func vectorProgram(v vector) (prog *cpu.Program) {
	prog = &cpu.Program{
		Register: [3]int64{v.Registers.A, v.Registers.B, v.Registers.C},
	}
	for _, value := range v.Program {
		prog.Memory = append(prog.Memory, uint8(value))
	}
	return
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(&emu.Tape, emu.Output)

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
}

func TestEmulatorVectors(t *testing.T) {
	vectors := loadVectors(t)
	assert.NotEmpty(t, vectors)

	for _, v := range vectors {
		t.Run(v.Name, func(t *testing.T) {
			assert := assert.New(t)

			emu := NewEmulator()
			emu.Program = vectorProgram(v)

			buf := &bytes.Buffer{}
			emu.Tape.Output = buf

			assert.NoError(emu.Reset())
			assert.NoError(emu.Run())

			text := make([]string, len(v.Output))
			for n, value := range v.Output {
				text[n] = strconv.Itoa(value)
			}
			assert.Equal(strings.Join(text, ",")+"\n", buf.String())

			state := emu.Snapshot()
			assert.Equal(v.Output, state.Output)
			assert.Equal(v.Final, registers{state.A, state.B, state.C})
			assert.True(state.Halted)
			assert.Equal(v.Program, state.Memory)
		})
	}
}

func TestEmulatorRerun(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Program = &cpu.Program{Register: [3]int64{729, 0, 0}, Memory: []uint8{0, 1, 5, 4, 3, 0}}

	buf := &bytes.Buffer{}
	emu.Tape.Output = buf

	for range 2 {
		assert.NoError(emu.Reset())
		assert.NoError(emu.Run())
	}

	assert.Equal("4,6,3,5,6,3,5,2,1,0\n4,6,3,5,6,3,5,2,1,0\n", buf.String())
	assert.Equal(30, emu.Ticks())
	assert.Equal(6, emu.Ip())
}

func TestEmulatorTickLimit(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Program = &cpu.Program{Register: [3]int64{1, 0, 0}, Memory: []uint8{5, 0, 3, 0}}
	emu.Limit = 10

	temp := &io.Temporary{}
	emu.Output = temp

	assert.NoError(emu.Reset())
	err := emu.Run()
	assert.ErrorIs(err, ErrTickLimit)

	var rt *ErrRuntime
	if assert.True(errors.As(err, &rt)) {
		assert.Equal(0, rt.Ip)
		assert.Equal(0, rt.LineNo)
	}

	assert.Equal(10, emu.Ticks())
	assert.Equal([]uint8{0, 0, 0, 0, 0}, temp.Data)
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		".reg a 3",
		"out a",
		".byte 5 7 ; out with reserved combo",
	}, "\n")))
	assert.NoError(err)

	emu := NewEmulator()
	emu.Program = prog
	buf := &bytes.Buffer{}
	emu.Tape.Output = buf

	assert.NoError(emu.Reset())

	ins, ok := emu.Instruction()
	assert.True(ok)
	assert.Equal("out a", ins.String())
	assert.Equal(2, emu.LineNo())

	err = emu.Run()
	assert.ErrorIs(err, cpu.ErrComboReserved)
	assert.ErrorIs(err, cpu.ErrInstruction{})

	var rt *ErrRuntime
	if assert.True(errors.As(err, &rt)) {
		assert.Equal(2, rt.Ip)
		assert.Equal(3, rt.LineNo)
	}

	// Values emitted before the failure reach the tape.
	assert.Equal("3", buf.String())
}

func TestEmulatorChannelFull(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Program = &cpu.Program{Register: [3]int64{2024, 0, 0}, Memory: []uint8{0, 1, 5, 4, 3, 0}}

	temp := &io.Temporary{Capacity: 4}
	emu.Output = temp

	assert.NoError(emu.Reset())
	err := emu.Run()
	assert.ErrorIs(err, io.ErrChannelFull)
	assert.Equal([]uint8{4, 2, 5, 6}, temp.Data)
	assert.Equal([]uint8{4, 2, 5, 6, 7}, emu.Cpu.Output)
}

func TestEmulatorWriteState(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Program = &cpu.Program{Register: [3]int64{10, 0, 0}, Memory: []uint8{5, 0, 5, 1, 5, 4}}

	assert.NoError(emu.Reset())
	assert.NoError(emu.Run())

	buf := &bytes.Buffer{}
	assert.NoError(emu.WriteState(buf))

	var state State
	assert.NoError(yaml.Unmarshal(buf.Bytes(), &state))
	assert.Equal(emu.Snapshot(), state)
	assert.Equal([]int{0, 1, 2}, state.Output)
	assert.Equal(3, state.Ticks)
	assert.False(state.Assembled)
	assert.Contains(buf.String(), "output: [0, 1, 2]")
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	var keys []string
	defines := map[string]string{}
	for key, value := range emu.Defines() {
		keys = append(keys, key)
		defines[key] = value
	}

	assert.True(slices.IsSorted(keys))
	assert.Equal("7", defines["JUMP_LIMIT"])
	assert.Equal("4", defines["REG_A"])
	assert.Equal("6", defines["REG_C"])
	assert.Equal("10", defines["TAPE_RADIX"])

	// Defines feed the assembler.
	asm := &cpu.Assembler{}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}
	prog, err := asm.Parse(strings.NewReader("out REG_C\njnz $(JUMP_LIMIT - 7)"))
	assert.NoError(err)
	assert.Equal([]uint8{5, 6, 3, 0}, prog.Memory)
}

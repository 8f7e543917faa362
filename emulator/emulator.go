// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	gio "io"
	"iter"
	"log"
	"maps"

	"gopkg.in/yaml.v3"

	"github.com/ezrec/chrono/cpu"
	"github.com/ezrec/chrono/internal"
	"github.com/ezrec/chrono/io"
)

const (
	JUMP_LIMIT = 7 // Highest address reachable by jnz.
)

var _emulator_defines = map[string]string{
	"JUMP_LIMIT": fmt.Sprintf("%v", JUMP_LIMIT),
}

// Emulator state. CPU + program + output channel.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program.

	Limit int // Maximum ticks per run; 0 is unbounded.

	Tape   io.Tape    // Tape IO channel.
	Output io.Channel // Channel receiving emitted values; defaults to Tape.

	sent int // Values forwarded to Output.
}

// flusher is an output channel that terminates a run.
type flusher interface {
	Flush() error
}

// NewEmulator creates a new emulator with an empty program.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
	}

	emu.Output = &emu.Tape
	emu.Cpu = emu.Program.NewCpu()

	return
}

// Defines returns an iterator over all of the defines, ordered by name.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Sorted(internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Output.Defines(),
	))
}

// Reset reloads the CPU from the program, and rewinds the output.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu = emu.Program.NewCpu()
	emu.Cpu.Verbose = emu.Verbose

	emu.Output.Rewind()
	emu.sent = 0

	if emu.Verbose {
		log.Printf("emulator: reset, %d words of memory", len(emu.Program.Memory))
	}

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int {
	return emu.Cpu.Ip
}

// Instruction returns the instruction at the current IP.
func (emu *Emulator) Instruction() (ins cpu.Instruction, ok bool) {
	ins, ok, _ = cpu.Decode(emu.Program.Memory, emu.Cpu.Ip)
	return
}

// LineNo returns the current line number for the executing instruction,
// or 0 if the program was not assembled.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Ip)
	if dbg.Statement == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	ip := emu.Cpu.Ip
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Ip: ip, LineNo: lineno, Err: err}
		}
	}()

	if emu.Cpu.Halted() {
		done = true
		return
	}

	if emu.Limit > 0 && emu.Cpu.Ticks >= emu.Limit {
		err = ErrTickLimit
		return
	}

	done, err = emu.Cpu.Tick()
	if err != nil {
		return
	}

	for emu.sent < len(emu.Cpu.Output) {
		err = emu.Output.Send(emu.Cpu.Output[emu.sent])
		if err != nil {
			return
		}
		emu.sent++
	}

	return
}

// Run ticks the emulator until the program halts, then flushes the output.
func (emu *Emulator) Run() (err error) {
	for done, err := emu.Tick(); !done; done, err = emu.Tick() {
		if err != nil {
			return err
		}
	}

	fl, ok := emu.Output.(flusher)
	if ok {
		err = fl.Flush()
	}

	return
}

// State is a snapshot of the machine.
type State struct {
	Ip        int   `yaml:"ip"`
	A         int64 `yaml:"a"`
	B         int64 `yaml:"b"`
	C         int64 `yaml:"c"`
	Output    []int `yaml:"output,flow"`
	Ticks     int   `yaml:"ticks"`
	Halted    bool  `yaml:"halted"`
	Memory    []int `yaml:"memory,flow"`
	Assembled bool  `yaml:"assembled,omitempty"`
}

// Snapshot returns the current machine state.
func (emu *Emulator) Snapshot() (state State) {
	state = State{
		Ip:        emu.Cpu.Ip,
		A:         emu.Cpu.Register[cpu.REG_A],
		B:         emu.Cpu.Register[cpu.REG_B],
		C:         emu.Cpu.Register[cpu.REG_C],
		Ticks:     emu.Cpu.Ticks,
		Halted:    emu.Cpu.Halted(),
		Assembled: len(emu.Program.Statements) > 0,
		Output:    []int{},
		Memory:    []int{},
	}

	for _, value := range emu.Cpu.Output {
		state.Output = append(state.Output, int(value))
	}
	for _, value := range emu.Cpu.Memory() {
		state.Memory = append(state.Memory, int(value))
	}

	return
}

// WriteState writes the machine state as YAML.
func (emu *Emulator) WriteState(w gio.Writer) (err error) {
	enc := yaml.NewEncoder(w)
	defer func() {
		cerr := enc.Close()
		if err == nil {
			err = cerr
		}
	}()

	err = enc.Encode(emu.Snapshot())
	return
}

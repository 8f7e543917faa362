package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"slices"
)

var _cpu_defines = map[string]string{
	"OUTPUT_MASK": fmt.Sprintf("%d", 7),
	"REG_A":       fmt.Sprintf("%d", COMBO_REG_A),
	"REG_B":       fmt.Sprintf("%d", COMBO_REG_B),
	"REG_C":       fmt.Sprintf("%d", COMBO_REG_C),
}

// Cpu is the simulation context for the three bit register machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Ip       int      // Current instruction pointer.
	Register [3]int64 // Register bank: A, B, C.
	Output   []uint8  // Values emitted by 'out', oldest first.

	Ticks int // Instructions executed since reset.

	memory []uint8 // Program memory; never modified after construction.
}

// NewCpu creates a new CPU running memory with initial registers a, b and c.
func NewCpu(memory []uint8, a, b, c int64) (cpu *Cpu) {
	cpu = &Cpu{
		memory: slices.Clone(memory),
	}
	cpu.Reset(a, b, c)

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Memory returns a copy of the program memory.
func (cpu *Cpu) Memory() []uint8 {
	return slices.Clone(cpu.memory)
}

// Reset the CPU state.
// - Loads registers A, B and C.
// - Sets IP to 0.
// - Clears the output stream and tick counter.
func (cpu *Cpu) Reset(a, b, c int64) {
	if cpu.Verbose {
		log.Printf("cpu: reset a=%d b=%d c=%d", a, b, c)
	}

	cpu.Ip = 0
	cpu.Register = [3]int64{a, b, c}
	cpu.Output = nil
	cpu.Ticks = 0
}

// Halted returns true if no full instruction can be read at IP.
func (cpu *Cpu) Halted() bool {
	return cpu.Ip+1 >= len(cpu.memory)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %d\n", "ip", cpu.Ip)
	for n, name := range _register_name {
		text += fmt.Sprintf("% 5s: %d\n", name, cpu.Register[n])
	}
	text += fmt.Sprintf("% 5s: %v\n", "out", cpu.Output)

	return
}

// Combo resolves a combo operand to its value.
func (cpu *Cpu) Combo(operand uint8) (value int64, err error) {
	switch operand {
	case 0, 1, 2, 3:
		value = int64(operand)
	case COMBO_REG_A, COMBO_REG_B, COMBO_REG_C:
		value = cpu.Register[operand-COMBO_REG_A]
	case COMBO_RESERVED:
		err = ErrComboReserved
	default:
		err = ErrOperandInvalid
	}

	return
}

// Tick executes a single instruction cycle.
// Returns halted == true, without executing anything, once IP has run
// off the end of memory.
func (cpu *Cpu) Tick() (halted bool, err error) {
	ins, ok, err := Decode(cpu.memory, cpu.Ip)
	if !ok {
		halted = true
		return
	}
	if err != nil {
		err = errors.Join(ErrInstruction{Ip: cpu.Ip, Instruction: ins}, err)
		return
	}

	err = cpu.Execute(ins)
	return
}

// Run ticks the CPU until it halts, and returns the output stream.
// There is no bound on the number of ticks.
func (cpu *Cpu) Run() (output []uint8, err error) {
	for {
		var halted bool
		halted, err = cpu.Tick()
		if err != nil {
			return
		}
		if halted {
			break
		}
	}

	output = slices.Clone(cpu.Output)
	return
}

// Execute executes a single decoded instruction at the current IP.
func (cpu *Cpu) Execute(ins Instruction) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrInstruction{Ip: cpu.Ip, Instruction: ins}, err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%02d: %v", cpu.Ip, ins)
	}

	if !ins.Opcode.Valid() {
		return ErrOpcodeInvalid
	}
	if ins.Operand > 7 {
		return ErrOperandInvalid
	}

	next_ip := cpu.Ip + 2

	reg := &cpu.Register

	switch ins.Opcode {
	case OP_ADV, OP_BDV, OP_CDV:
		var exp int64
		exp, err = cpu.Combo(ins.Operand)
		if err != nil {
			return
		}
		if exp < 0 {
			return ErrExponentNegative
		}
		value := divPow2(reg[REG_A], exp)
		switch ins.Opcode {
		case OP_ADV:
			reg[REG_A] = value
		case OP_BDV:
			reg[REG_B] = value
		case OP_CDV:
			reg[REG_C] = value
		}
	case OP_BXL:
		reg[REG_B] ^= int64(ins.Operand)
	case OP_BST:
		var value int64
		value, err = cpu.Combo(ins.Operand)
		if err != nil {
			return
		}
		reg[REG_B] = int64(mod8(value))
	case OP_JNZ:
		if reg[REG_A] != 0 {
			next_ip = int(ins.Operand)
		}
	case OP_BXC:
		reg[REG_B] ^= reg[REG_C]
	case OP_OUT:
		var value int64
		value, err = cpu.Combo(ins.Operand)
		if err != nil {
			return
		}
		cpu.Output = append(cpu.Output, mod8(value))
	}

	cpu.Ip = next_ip
	cpu.Ticks += 1

	return
}

// mod8 returns the Euclidean residue of value modulo 8.
func mod8(value int64) uint8 {
	return uint8(value & 7)
}

// divPow2 divides value by 2**exp, truncating toward zero.
// An arithmetic shift would round toward negative infinity instead.
func divPow2(value int64, exp int64) int64 {
	if exp >= 64 {
		return 0
	}

	negative := value < 0
	magnitude := uint64(value)
	if negative {
		magnitude = -magnitude
	}

	quotient := magnitude >> uint(exp)
	if negative {
		return -int64(quotient)
	}

	return int64(quotient)
}

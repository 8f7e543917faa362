// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"github.com/ezrec/chrono/cpu"
	"github.com/ezrec/chrono/emulator"
	"github.com/ezrec/chrono/translate"
)

// options collected from the command line.
type options struct {
	input    string
	compile  string
	output   string
	state    string
	lang     string
	limit    int
	listing  bool
	print    bool
	verbose  bool
	register [3]int64
	override [3]bool
}

func parseFlags(args []string) (opts options, err error) {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	fs.StringVar(&opts.input, "i", "-", "Program text input")
	fs.StringVar(&opts.compile, "c", "", "Assembly source to compile instead of program text")
	fs.StringVar(&opts.output, "o", "-", "Tape output")
	fs.StringVar(&opts.state, "state", "", "Write final machine state as YAML to file")
	fs.StringVar(&opts.lang, "lang", "", "Language for messages")
	fs.IntVar(&opts.limit, "n", 0, "Tick limit (0 is unlimited)")
	fs.BoolVar(&opts.listing, "l", false, "Print listing, do not execute")
	fs.BoolVar(&opts.print, "p", false, "Print program text, do not execute")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose mode")
	fs.Int64Var(&opts.register[cpu.REG_A], "A", 0, "Override register A")
	fs.Int64Var(&opts.register[cpu.REG_B], "B", 0, "Override register B")
	fs.Int64Var(&opts.register[cpu.REG_C], "C", 0, "Override register C")

	err = fs.Parse(args[1:])
	if err != nil {
		return
	}

	if fs.NArg() != 0 {
		err = ErrArguments(fs.Args())
		return
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "A":
			opts.override[cpu.REG_A] = true
		case "B":
			opts.override[cpu.REG_B] = true
		case "C":
			opts.override[cpu.REG_C] = true
		}
	})

	return
}

// load reads the program from the assembly source or the program text.
func load(opts options, emu *emulator.Emulator, stdin io.Reader) (prog *cpu.Program, err error) {
	if len(opts.compile) != 0 {
		var inf *os.File
		inf, err = os.Open(opts.compile)
		if err != nil {
			return
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: opts.verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		return asm.Parse(inf)
	}

	in := stdin
	if opts.input != "-" {
		var inf *os.File
		inf, err = os.Open(opts.input)
		if err != nil {
			return
		}
		defer inf.Close()
		in = inf
	}

	return cpu.ParseProgram(in)
}

func run(args []string, stdin io.Reader, stdout io.Writer) (err error) {
	opts, err := parseFlags(args)
	if err != nil {
		return
	}

	if len(opts.lang) != 0 {
		err = translate.SetLanguage(opts.lang)
		if err != nil {
			return
		}
	}

	emu := emulator.NewEmulator()
	emu.Verbose = opts.verbose
	emu.Limit = opts.limit

	prog, err := load(opts, emu, stdin)
	if err != nil {
		return
	}

	for n, ok := range opts.override {
		if ok {
			prog.Register[n] = opts.register[n]
		}
	}

	if opts.print {
		_, err = io.WriteString(stdout, prog.String())
		return
	}

	if opts.listing {
		return prog.Listing(stdout)
	}

	emu.Program = prog

	if opts.output == "-" {
		emu.Tape.Output = stdout
	} else {
		var ouf *os.File
		ouf, err = os.Create(opts.output)
		if err != nil {
			return
		}
		defer ouf.Close()
		emu.Tape.Output = ouf
	}

	err = emu.Reset()
	if err != nil {
		return
	}

	err = emu.Run()

	if len(opts.state) != 0 {
		ouf, serr := os.Create(opts.state)
		if serr != nil {
			log.Printf("%v: %v", opts.state, serr)
			return
		}
		defer ouf.Close()
		serr = emu.WriteState(ouf)
		if serr != nil {
			log.Printf("%v: %v", opts.state, serr)
		}
	}

	if opts.verbose {
		translate.Fprint(os.Stderr, "%d ticks\n", emu.Ticks())
	}

	return
}

func main() {
	err := run(os.Args, os.Stdin, os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}

// Package compiler orchestrates the compilation pipeline: lex, parse
// and bind, then generate assembly. It is the single public entry
// point the CLI driver calls.
package compiler

import (
	"github.com/pkg/errors"

	"github.com/skx/cc/internal/codegen"
	"github.com/skx/cc/internal/source"
	"github.com/skx/cc/parser"
)

// Compiler holds the compiler's object-state: the program text and
// whether to emit a debug breakpoint in the generated assembly.
type Compiler struct {
	// name is used as the source buffer's name, reported in errors.
	name string

	// program holds the C source we're compiling.
	program string

	// debug enables an int3 breakpoint at the top of main in the
	// generated assembly.
	debug bool
}

// New creates a new compiler, given the program in the constructor.
func New(program string) *Compiler {
	return &Compiler{name: "input", program: program}
}

// SetDebug changes the debug-flag for our output.
func (c *Compiler) SetDebug(val bool) {
	c.debug = val
}

// SetName sets the name reported alongside parse/lex errors, typically
// the source file's path.
func (c *Compiler) SetName(name string) {
	c.name = name
}

// Compile converts the input program into x86-64 assembly language.
func (c *Compiler) Compile() (string, error) {
	buf := source.New(c.name, c.program)

	p, err := parser.New(buf)
	if err != nil {
		return "", errors.Wrap(err, "lexing input")
	}

	tu, err := p.Parse()
	if err != nil {
		return "", errors.Wrap(err, "parsing input")
	}

	gen := codegen.New(p.Global())
	gen.SetDebug(c.debug)

	out, err := gen.Generate(tu)
	if err != nil {
		return "", errors.Wrap(err, "generating assembly")
	}
	return out, nil
}

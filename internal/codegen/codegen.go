// Package codegen is the stack-machine x86-64 emitter: it walks the
// typed AST the parser produced and writes Intel-syntax assembly,
// suitable for a host assembler and linker, following the System V
// AMD64 calling convention.
//
// Every expression is generated so that its value ends up pushed onto
// the real runtime stack (see genVal/genAddr in expr.go); every binary
// operator pops its two operands and pushes the result. There is no
// separate intermediate form - the generator walks the AST directly,
// the same discipline the teacher compiler used for its RPN
// expressions, generalized here to statements and control flow.
package codegen

import (
	"fmt"
	"strings"

	"github.com/klauspost/asmfmt"
	"github.com/pkg/errors"

	"github.com/skx/cc/ast"
	"github.com/skx/cc/internal/symbols"
	"github.com/skx/cc/internal/types"
	"github.com/skx/cc/stack"
)

// loopLabels is the (break, continue) label pair pushed for the
// duration of an enclosing loop body.
type loopLabels struct {
	brk, cont string
}

// Generator holds the code generator's mutable state while walking one
// translation unit.
type Generator struct {
	global *symbols.Global

	// debug emits an int3 breakpoint at the top of main when set,
	// mirroring the teacher's debug flag.
	debug bool

	labelCounter int
	loops        *stack.Stack[loopLabels]

	// fnName and retLabel describe the function currently being
	// generated, needed by `return` to jump to the right epilogue.
	fnName   string
	retLabel string
}

// New creates a Generator over the given global scope, which supplies
// the globals and interned string literals to emit.
func New(global *symbols.Global) *Generator {
	return &Generator{
		global: global,
		loops:  stack.New[loopLabels](),
	}
}

// SetDebug toggles emission of an int3 breakpoint at the top of main.
func (g *Generator) SetDebug(val bool) {
	g.debug = val
}

// Generate walks tu and returns the complete assembly-language program.
func (g *Generator) Generate(tu *ast.TranslationUnit) (string, error) {
	var body strings.Builder

	for _, fn := range tu.Functions {
		out, err := g.genFunction(fn)
		if err != nil {
			return "", errors.Wrapf(err, "generating function %q", fn.Name)
		}
		body.WriteString(out)
	}

	var out strings.Builder
	out.WriteString(".intel_syntax noprefix\n\n")
	out.WriteString(g.genDataSection())
	out.WriteString("\n.text\n")
	out.WriteString(body.String())
	out.WriteString("\n.section .note.GNU-stack,\"\",@progbits\n")

	formatted, err := asmfmt.Format(strings.NewReader(out.String()))
	if err != nil {
		// asmfmt is cosmetic only; fall back to the unformatted
		// text rather than fail the whole compile over it.
		return out.String(), nil
	}
	return string(formatted), nil
}

// genDataSection emits `.data` for every global variable, zero-filled
// and sized by its type, and `.rodata` for every interned string
// literal, NUL-terminated.
func (g *Generator) genDataSection() string {
	var b strings.Builder

	vars := g.global.Variables()
	if len(vars) > 0 {
		b.WriteString(".data\n")
		for _, v := range vars {
			b.WriteString(fmt.Sprintf("%s:\n\t.zero %d\n", v.Name, types.SizeOf(v.Type)))
		}
	}

	lits := g.global.StringLiterals()
	if len(lits) > 0 {
		b.WriteString(".section .rodata\n")
		for _, lit := range lits {
			b.WriteString(fmt.Sprintf("%s:\n\t.asciz %q\n", lit.Label, lit.Bytes))
		}
	}

	return b.String()
}

// genFunction emits one function's prologue, body, and epilogue.
func (g *Generator) genFunction(fn *ast.Function) (string, error) {
	g.fnName = fn.Name
	g.retLabel = fmt.Sprintf(".L.return.%s", fn.Name)

	var b strings.Builder
	b.WriteString(fmt.Sprintf(".globl %s\n", fn.Name))
	b.WriteString(fmt.Sprintf("%s:\n", fn.Name))
	b.WriteString("\tpush rbp\n")
	b.WriteString("\tmov rbp, rsp\n")
	if fn.FrameSize > 0 {
		b.WriteString(fmt.Sprintf("\tsub rsp, %d\n", fn.FrameSize))
	}

	if fn.Name == "main" && g.debug {
		b.WriteString("\tint3\n")
	}

	for i, slot := range fn.ParamSlots {
		if i >= len(argRegisters) {
			return "", fmt.Errorf("function %q has more than %d parameters", fn.Name, len(argRegisters))
		}
		b.WriteString(storeWidth(slot.ResolvedType(), string(argRegisters[i]), slot.RBPOffset))
	}

	bodyOut, err := g.genStmt(fn.Body)
	if err != nil {
		return "", err
	}
	b.WriteString(bodyOut)

	b.WriteString(fmt.Sprintf("%s:\n", g.retLabel))
	b.WriteString("\tmov rsp, rbp\n")
	b.WriteString("\tpop rbp\n")
	b.WriteString("\tret\n\n")

	return b.String(), nil
}

// newLabel returns a fresh, function-unique control-flow label.
func (g *Generator) newLabel(tag string) string {
	g.labelCounter++
	return fmt.Sprintf(".L.%s.%d", tag, g.labelCounter)
}

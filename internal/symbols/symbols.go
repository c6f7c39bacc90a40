// Package symbols implements the storage-resolution side of the binder:
// a flat per-function local scope, and a single global scope shared by
// functions, global variables, and interned string literals.
package symbols

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/skx/cc/internal/types"
)

// Kind tags which variant of Symbol a value holds.
type Kind int

const (
	KindLocal Kind = iota
	KindGlobal
	KindFunction
	KindStringLiteral
)

// Symbol is a tagged variant over the four kinds of name a program can
// resolve to.
type Symbol struct {
	Kind Kind
	Name string
	Type *types.Type

	// RBPOffset is populated for KindLocal: a positive byte count,
	// subtracted from rbp to reach the slot.
	RBPOffset int

	// Label is populated for KindStringLiteral: the generated
	// ".LC<n>" data label.
	Label string

	// Bytes is populated for KindStringLiteral: the literal's raw
	// decoded bytes, NUL-terminated by the code generator on emit.
	Bytes string

	// Params is populated for KindFunction.
	Params []*types.Type

	// Defined records whether a KindFunction symbol has a body, as
	// opposed to being only a prototype or an implicitly-assumed
	// external declaration.
	Defined bool
}

// Global is the single, program-wide scope holding functions, global
// variables, and interned string literals.
type Global struct {
	symbols map[string]*Symbol
	strings map[string]*Symbol
	order   []string
	strOrd  []string
	nextStr int
}

// NewGlobal creates an empty global scope.
func NewGlobal() *Global {
	return &Global{
		symbols: make(map[string]*Symbol),
		strings: make(map[string]*Symbol),
	}
}

// DeclareVariable registers a global variable. Redeclaration with the
// same type is tolerated as a no-op, matching this subset's relaxed
// rules around repeated top-level declarations.
func (g *Global) DeclareVariable(name string, t *types.Type) *Symbol {
	if sym, ok := g.symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Kind: KindGlobal, Name: name, Type: t}
	g.symbols[name] = sym
	g.order = append(g.order, name)
	return sym
}

// DeclareFunction registers a function prototype or definition. Calling
// it again for the same name upgrades a prototype to a definition but
// never downgrades one.
func (g *Global) DeclareFunction(name string, ret *types.Type, params []*types.Type, defined bool) *Symbol {
	if sym, ok := g.symbols[name]; ok && sym.Kind == KindFunction {
		if defined {
			sym.Defined = true
		}
		return sym
	}
	sym := &Symbol{Kind: KindFunction, Name: name, Type: ret, Params: params, Defined: defined}
	g.symbols[name] = sym
	g.order = append(g.order, name)
	return sym
}

// Lookup resolves a name against the global scope only.
func (g *Global) Lookup(name string) (*Symbol, bool) {
	sym, ok := g.symbols[name]
	return sym, ok
}

// Intern returns the Symbol for a string literal's bytes, creating and
// labeling it the first time a given byte string is seen so repeated
// literals share one .rodata entry.
func (g *Global) Intern(bytes string) *Symbol {
	if sym, ok := g.strings[bytes]; ok {
		return sym
	}
	sym := &Symbol{
		Kind:  KindStringLiteral,
		Type:  types.Ptr(types.Char),
		Label: fmt.Sprintf(".LC%d", g.nextStr),
		Bytes: bytes,
	}
	g.nextStr++
	g.strings[bytes] = sym
	g.strOrd = append(g.strOrd, bytes)
	return sym
}

// Variables returns every declared global variable, in declaration order.
func (g *Global) Variables() []*Symbol {
	return collectInOrder(g.symbols, g.order, func(s *Symbol) bool { return s.Kind == KindGlobal })
}

// Functions returns every declared function, in declaration order.
func (g *Global) Functions() []*Symbol {
	return collectInOrder(g.symbols, g.order, func(s *Symbol) bool { return s.Kind == KindFunction })
}

// StringLiterals returns every interned string literal, in first-seen order.
func (g *Global) StringLiterals() []*Symbol {
	return lo.Map(g.strOrd, func(b string, _ int) *Symbol { return g.strings[b] })
}

func collectInOrder(m map[string]*Symbol, order []string, keep func(*Symbol) bool) []*Symbol {
	out := make([]*Symbol, 0, len(order))
	for _, name := range order {
		if sym := m[name]; keep(sym) {
			out = append(out, sym)
		}
	}
	return out
}

// Function is one function's flat local-variable scope: every `int x;`
// anywhere in the body shares this single namespace, per this subset's
// rules (no block-local shadowing).
type Function struct {
	global  *Global
	locals  map[string]*Symbol
	order   []string
	offset  int // next free byte, growing downward from rbp
	labels  map[string]bool
}

// NewFunction creates a local scope backed by the given global scope for
// fallback lookups.
func NewFunction(global *Global) *Function {
	return &Function{
		global: global,
		locals: make(map[string]*Symbol),
		labels: make(map[string]bool),
	}
}

// Declare reserves a local slot for name, sized by t, rounded up to an
// 8-byte slot (every local - even a `char` - occupies a full machine
// word of frame space, matching the teacher's one-slot-per-declaration
// layout). A duplicate declaration is accepted as a no-op.
func (f *Function) Declare(name string, t *types.Type) *Symbol {
	if sym, ok := f.locals[name]; ok {
		return sym
	}
	size := types.SizeOf(t)
	slots := (size + 7) / 8
	if slots < 1 {
		slots = 1
	}
	f.offset += slots * 8
	sym := &Symbol{Kind: KindLocal, Name: name, Type: t, RBPOffset: f.offset}
	f.locals[name] = sym
	f.order = append(f.order, name)
	return sym
}

// Lookup resolves name against the local scope first, falling back to
// globals (functions and global variables).
func (f *Function) Lookup(name string) (*Symbol, bool) {
	if sym, ok := f.locals[name]; ok {
		return sym, true
	}
	return f.global.Lookup(name)
}

// FrameSize returns the function's stack-frame size, aligned up to 16
// bytes as SysV requires at a call boundary.
func (f *Function) FrameSize() int {
	return (f.offset + 15) &^ 15
}

// DeclareLabel records a goto-target label as the function body is
// parsed; once the whole body has been seen the parser checks every
// `goto` against these, so a goto to a name never declared is caught
// before code generation begins.
func (f *Function) DeclareLabel(name string) {
	f.labels[name] = true
}

// HasLabel reports whether name was declared as a label anywhere in
// this function.
func (f *Function) HasLabel(name string) bool {
	return f.labels[name]
}

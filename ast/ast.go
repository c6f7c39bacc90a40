// Package ast defines the typed syntax tree the parser builds and the
// code generator walks. Every expression node carries the types.Type the
// binder resolved for it; there is no separate type-checking pass.
package ast

import "github.com/skx/cc/internal/types"

// Expr is implemented by every expression node.
type Expr interface {
	exprNode()
	ResolvedType() *types.Type
}

// Stmt is implemented by every statement node.
type Stmt interface {
	stmtNode()
}

// base carries the resolved type shared by every expression node.
type base struct {
	Type *types.Type
}

func (b base) ResolvedType() *types.Type { return b.Type }

// IntLiteral is an integer constant.
type IntLiteral struct {
	base
	Value int64
}

func (*IntLiteral) exprNode() {}

// StringLiteral references an interned string constant by its data label.
type StringLiteral struct {
	base
	Label string
	Bytes string
}

func (*StringLiteral) exprNode() {}

// VarRef is a use of a previously-declared variable: a local or a
// global. Calls are represented by Call, never by a VarRef.
type VarRef struct {
	base
	Name string

	// one of the following resolution markers is set by the binder,
	// mirroring the Symbol kinds in package symbols.
	IsLocal  bool
	IsGlobal bool

	RBPOffset int // valid when IsLocal

	// DeclaredType is the symbol's type before array-to-pointer decay;
	// used by `&` and `sizeof`, which inspect the declared storage
	// rather than the decayed rvalue type everyone else sees.
	DeclaredType *types.Type
}

func (*VarRef) exprNode() {}

// UnaryOp is prefix unary operators: address-of, dereference, +, -, ~,
// !, and pre-increment/decrement.
type UnaryOp struct {
	base
	Op      string // one of token.AMPERSAND, ASTERISK, PLUS, MINUS, TILDE, BANG, INC, DEC
	Operand Expr

	// Step is the amount a pre-inc/dec changes the operand by: 1 for
	// int/char, size_of(pointee) for pointers.
	Step int
}

func (*UnaryOp) exprNode() {}

// PostfixOp is x++ / x--: returns the value before the mutation.
type PostfixOp struct {
	base
	Op      string // token.INC or token.DEC
	Operand Expr
	Step    int
}

func (*PostfixOp) exprNode() {}

// BinaryOp covers every C binary operator except assignment and comma,
// which get their own node types because of their distinct evaluation
// and lvalue rules.
type BinaryOp struct {
	base
	Op          string
	Left, Right Expr

	// Scale is non-zero only for pointer +/- int and pointer - pointer,
	// recording size_of(pointee) so codegen never re-derives it.
	Scale int

	// PointerDiff marks `ptr - ptr`, whose result is divided by Scale
	// rather than multiplied.
	PointerDiff bool
}

func (*BinaryOp) exprNode() {}

// LogicalOp is && or ||, kept distinct from BinaryOp so the generator
// knows to short-circuit rather than evaluate both sides unconditionally.
type LogicalOp struct {
	base
	Op          string // token.ANDAND or token.OROR
	Left, Right Expr
}

func (*LogicalOp) exprNode() {}

// Assign is plain `lhs = rhs`.
type Assign struct {
	base
	Target Expr
	Value  Expr
}

func (*Assign) exprNode() {}

// CompoundAssign is `lhs op= rhs`, lowered as "lhs = lhs op rhs" but
// keeping the lvalue evaluated exactly once at code-generation time.
type CompoundAssign struct {
	base
	Op     string // the underlying binary op, e.g. token.PLUS for +=
	Target Expr
	Value  Expr
	Scale  int // pointer scaling, as in BinaryOp
}

func (*CompoundAssign) exprNode() {}

// Comma is the sequencing operator `a, b`: evaluates Left for effect,
// yields Right's value and type.
type Comma struct {
	base
	Left, Right Expr
}

func (*Comma) exprNode() {}

// Conditional is the ternary `cond ? then : els`.
type Conditional struct {
	base
	Cond, Then, Else Expr
}

func (*Conditional) exprNode() {}

// Call is a function invocation.
type Call struct {
	base
	Callee string
	Args   []Expr
}

func (*Call) exprNode() {}

// SizeofType is `sizeof(T)`: its value is computed at parse time and no
// code is generated for it at all, it behaves exactly like IntLiteral to
// the generator.
type SizeofType struct {
	base
	Of    *types.Type
	Value int64
}

func (*SizeofType) exprNode() {}

// SizeofExpr is `sizeof expr`: only the static type of expr matters; its
// side effects, if any, are never generated - the generator pushes Value
// directly and never visits Of.
type SizeofExpr struct {
	base
	Of    Expr
	Value int64
}

func (*SizeofExpr) exprNode() {}

// Index is `a[i]`, kept as its own node (rather than desugared away
// entirely) to simplify type derivation, even though code generation
// treats it identically to *(a+i).
type Index struct {
	base
	Array Expr
	Idx   Expr
	Scale int
}

func (*Index) exprNode() {}

// --- statements ---

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	X Expr
}

func (*ExprStmt) stmtNode() {}

// Block is `{ ... }`.
type Block struct {
	Stmts []Stmt
}

func (*Block) stmtNode() {}

// If is `if (Cond) Then [else Else]`.
type If struct {
	Cond       Expr
	Then, Else Stmt
}

func (*If) stmtNode() {}

// While is `while (Cond) Body`.
type While struct {
	Cond Expr
	Body Stmt
}

func (*While) stmtNode() {}

// DoWhile is `do Body while (Cond);`.
type DoWhile struct {
	Body Stmt
	Cond Expr
}

func (*DoWhile) stmtNode() {}

// For is `for (Init; Cond; Step) Body`; any of Init/Cond/Step may be nil.
type For struct {
	Init Stmt
	Cond Expr
	Step Expr
	Body Stmt
}

func (*For) stmtNode() {}

// Break is `break;`.
type Break struct{}

func (*Break) stmtNode() {}

// Continue is `continue;`.
type Continue struct{}

func (*Continue) stmtNode() {}

// Return is `return [X];`.
type Return struct {
	X Expr // nil for a bare `return;`
}

func (*Return) stmtNode() {}

// Goto is `goto Label;`.
type Goto struct {
	Label string
}

func (*Goto) stmtNode() {}

// Labeled is `Label: Stmt`.
type Labeled struct {
	Label string
	Stmt  Stmt
}

func (*Labeled) stmtNode() {}

// LocalDecl is a local variable declaration, optionally with an
// initializer, which is lowered to an assignment at the declaration site.
type LocalDecl struct {
	Name string
	Type *types.Type
	Init Expr // nil if uninitialized
	// Ref is the VarRef the binder produced for this declaration's
	// storage, reused to generate the initializer assignment.
	Ref *VarRef
}

func (*LocalDecl) stmtNode() {}

// Function is a top-level function definition.
type Function struct {
	Name       string
	Return     *types.Type
	Params     []*types.Type
	ParamNames []string
	ParamSlots []*VarRef
	Body       *Block
	FrameSize  int
}

// GlobalVar is a top-level global variable declaration.
type GlobalVar struct {
	Name string
	Type *types.Type
}

// FunctionDecl is a top-level function prototype with no body.
type FunctionDecl struct {
	Name   string
	Return *types.Type
	Params []*types.Type
}

// TranslationUnit is the ordered list of top-level items the parser
// produced. The global scope and interned string table the code
// generator needs to emit .data/.rodata are not part of it; they come
// from the parser's Global().
type TranslationUnit struct {
	Functions     []*Function
	FunctionDecls []*FunctionDecl
	Globals       []*GlobalVar
}

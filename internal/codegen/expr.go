package codegen

import (
	"fmt"
	"strings"

	"github.com/skx/cc/ast"
	"github.com/skx/cc/instructions"
	"github.com/skx/cc/internal/types"
	"github.com/skx/cc/token"
)

// argRegisters holds the SysV AMD64 integer/pointer argument registers,
// in calling-convention order.
var argRegisters = instructions.ArgRegisters

// loadWidth returns the instruction that loads the value at [addr] into
// rax, sized and sign/zero-extended according to t.
func loadWidth(t *types.Type, addr string) string {
	switch types.Decay(t).Kind {
	case types.KindChar:
		return fmt.Sprintf("\tmovsx rax, byte ptr [%s]\n", addr)
	case types.KindInt:
		return fmt.Sprintf("\tmov eax, dword ptr [%s]\n", addr)
	default: // pointer, or a decayed array: an 8-byte load through addr
		return fmt.Sprintf("\tmov rax, qword ptr [%s]\n", addr)
	}
}

// storeWidth returns the instruction that stores src into the slot at
// rbp-off, sized according to t. Used both by ordinary assignment and
// by the function prologue spilling parameters from registers.
func storeWidth(t *types.Type, src string, off int) string {
	switch types.Decay(t).Kind {
	case types.KindChar:
		return fmt.Sprintf("\tmov byte ptr [rbp-%d], %s\n", off, narrow8(src))
	case types.KindInt:
		return fmt.Sprintf("\tmov dword ptr [rbp-%d], %s\n", off, narrow32(src))
	default:
		return fmt.Sprintf("\tmov qword ptr [rbp-%d], %s\n", off, src)
	}
}

// narrow32/narrow8 return the sub-register name used when storing a
// register's low bytes, since Intel syntax gives each width its own
// register name for the same physical register.
func narrow32(reg string) string {
	sub := map[string]string{"rdi": "edi", "rsi": "esi", "rdx": "edx", "rcx": "ecx", "r8": "r8d", "r9": "r9d", "rax": "eax"}
	if s, ok := sub[reg]; ok {
		return s
	}
	return reg
}

func narrow8(reg string) string {
	sub := map[string]string{"rdi": "dil", "rsi": "sil", "rdx": "dl", "rcx": "cl", "r8": "r8b", "r9": "r9b", "rax": "al"}
	if s, ok := sub[reg]; ok {
		return s
	}
	return reg
}

// genVal generates code that leaves e's value pushed on top of the
// runtime stack: for anything that fits in a register it loads through
// the effective address; for an array it pushes the address itself,
// since an array decays to a pointer at every use site.
func (g *Generator) genVal(e ast.Expr) (string, error) {
	switch v := e.(type) {
	case *ast.IntLiteral:
		return fmt.Sprintf("\tmov rax, %d\n\tpush rax\n", v.Value), nil

	case *ast.StringLiteral:
		return fmt.Sprintf("\tlea rax, [rip+%s]\n\tpush rax\n", v.Label), nil

	case *ast.SizeofType:
		return fmt.Sprintf("\tmov rax, %d\n\tpush rax\n", v.Value), nil

	case *ast.SizeofExpr:
		// Of is never visited: its static type was already resolved
		// at parse time, and the subset guarantees no side effect
		// of evaluating it may be observed.
		return fmt.Sprintf("\tmov rax, %d\n\tpush rax\n", v.Value), nil

	case *ast.VarRef:
		addr, err := g.genAddr(e)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		b.WriteString(addr)
		b.WriteString("\tpop rax\n")
		if v.DeclaredType != nil && v.DeclaredType.Kind == types.KindArray {
			b.WriteString("\tpush rax\n")
		} else {
			b.WriteString(loadWidth(v.ResolvedType(), "rax"))
			b.WriteString("\tpush rax\n")
		}
		return b.String(), nil

	case *ast.UnaryOp:
		return g.genUnary(v)

	case *ast.PostfixOp:
		return g.genPostfix(v)

	case *ast.BinaryOp:
		return g.genBinary(v)

	case *ast.LogicalOp:
		return g.genLogical(v)

	case *ast.Assign:
		return g.genAssign(v)

	case *ast.CompoundAssign:
		return g.genCompoundAssign(v)

	case *ast.Comma:
		left, err := g.genVal(v.Left)
		if err != nil {
			return "", err
		}
		right, err := g.genVal(v.Right)
		if err != nil {
			return "", err
		}
		return left + "\tpop rax\n" + right, nil

	case *ast.Conditional:
		return g.genConditional(v)

	case *ast.Call:
		return g.genCall(v)

	case *ast.Index:
		return g.genIndexValue(v)

	default:
		return "", fmt.Errorf("codegen: no genVal case for %T", e)
	}
}

// genAddr generates code that pushes e's effective address. e must be
// an lvalue - the parser rejects every case that would not be.
func (g *Generator) genAddr(e ast.Expr) (string, error) {
	switch v := e.(type) {
	case *ast.VarRef:
		if v.IsLocal {
			return fmt.Sprintf("\tlea rax, [rbp-%d]\n\tpush rax\n", v.RBPOffset), nil
		}
		return fmt.Sprintf("\tlea rax, [rip+%s]\n\tpush rax\n", v.Name), nil

	case *ast.UnaryOp:
		if v.Op != token.ASTERISK {
			return "", fmt.Errorf("codegen: %q is not an lvalue", v.Op)
		}
		// *p's address is just p's value.
		return g.genVal(v.Operand)

	case *ast.Index:
		return g.genIndexAddr(v)

	default:
		return "", fmt.Errorf("codegen: %T is not an lvalue", e)
	}
}

func (g *Generator) genIndexAddr(idx *ast.Index) (string, error) {
	base, err := g.genVal(idx.Array)
	if err != nil {
		return "", err
	}
	index, err := g.genVal(idx.Idx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString(index)
	b.WriteString("\tpop rcx\n") // index
	b.WriteString("\tpop rax\n") // base address (already decayed)
	if idx.Scale != 1 {
		b.WriteString(fmt.Sprintf("\timul rcx, rcx, %d\n", idx.Scale))
	}
	b.WriteString("\tadd rax, rcx\n")
	b.WriteString("\tpush rax\n")
	return b.String(), nil
}

func (g *Generator) genIndexValue(idx *ast.Index) (string, error) {
	addr, err := g.genIndexAddr(idx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(addr)
	b.WriteString("\tpop rax\n")
	b.WriteString(loadWidth(idx.ResolvedType(), "rax"))
	b.WriteString("\tpush rax\n")
	return b.String(), nil
}

func (g *Generator) genUnary(u *ast.UnaryOp) (string, error) {
	switch u.Op {
	case token.AMPERSAND:
		return g.genAddr(u.Operand)

	case token.ASTERISK:
		addr, err := g.genVal(u.Operand)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		b.WriteString(addr)
		b.WriteString("\tpop rax\n")
		b.WriteString(loadWidth(u.ResolvedType(), "rax"))
		b.WriteString("\tpush rax\n")
		return b.String(), nil

	case token.PLUS:
		return g.genVal(u.Operand)

	case token.MINUS:
		v, err := g.genVal(u.Operand)
		if err != nil {
			return "", err
		}
		return v + "\tpop rax\n\tneg rax\n\tpush rax\n", nil

	case token.TILDE:
		v, err := g.genVal(u.Operand)
		if err != nil {
			return "", err
		}
		return v + "\tpop rax\n\tnot rax\n\tpush rax\n", nil

	case token.BANG:
		v, err := g.genVal(u.Operand)
		if err != nil {
			return "", err
		}
		return v + "\tpop rax\n\tcmp rax, 0\n\tsete al\n\tmovzx rax, al\n\tpush rax\n", nil

	case token.INC, token.DEC:
		return g.genPreIncDec(u)

	default:
		return "", fmt.Errorf("codegen: unknown unary operator %q", u.Op)
	}
}

// genPreIncDec lowers `++x`/`--x`: load, adjust by Step, store back,
// push the new value.
func (g *Generator) genPreIncDec(u *ast.UnaryOp) (string, error) {
	addr, err := g.genAddr(u.Operand)
	if err != nil {
		return "", err
	}
	op := "add"
	if u.Op == token.DEC {
		op = "sub"
	}
	var b strings.Builder
	b.WriteString(addr)
	b.WriteString("\tpop rcx\n") // address
	b.WriteString(loadWidth(u.Operand.ResolvedType(), "rcx"))
	b.WriteString(fmt.Sprintf("\t%s rax, %d\n", op, u.Step))
	b.WriteString(storeThroughReg(u.Operand.ResolvedType(), "rcx", "rax"))
	b.WriteString("\tpush rax\n")
	return b.String(), nil
}

// genPostfix lowers `x++`/`x--`: load, push the old value, adjust by
// Step, store back.
func (g *Generator) genPostfix(p *ast.PostfixOp) (string, error) {
	addr, err := g.genAddr(p.Operand)
	if err != nil {
		return "", err
	}
	op := "add"
	if p.Op == token.DEC {
		op = "sub"
	}
	var b strings.Builder
	b.WriteString(addr)
	b.WriteString("\tpop rcx\n") // address
	b.WriteString(loadWidth(p.Operand.ResolvedType(), "rcx"))
	b.WriteString("\tpush rax\n") // old value, the expression's result
	b.WriteString(fmt.Sprintf("\tmov rdx, rax\n\t%s rdx, %d\n", op, p.Step))
	b.WriteString(storeThroughReg(p.Operand.ResolvedType(), "rcx", "rdx"))
	return b.String(), nil
}

// storeThroughReg stores src into the address held in addrReg, sized by t.
func storeThroughReg(t *types.Type, addrReg, src string) string {
	switch types.Decay(t).Kind {
	case types.KindChar:
		return fmt.Sprintf("\tmov byte ptr [%s], %s\n", addrReg, narrow8(src))
	case types.KindInt:
		return fmt.Sprintf("\tmov dword ptr [%s], %s\n", addrReg, narrow32(src))
	default:
		return fmt.Sprintf("\tmov qword ptr [%s], %s\n", addrReg, src)
	}
}

func (g *Generator) genBinary(b *ast.BinaryOp) (string, error) {
	left, err := g.genVal(b.Left)
	if err != nil {
		return "", err
	}
	right, err := g.genVal(b.Right)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString(left)
	out.WriteString(right)
	out.WriteString("\tpop rcx\n") // right
	out.WriteString("\tpop rax\n") // left

	if b.Scale != 0 && !b.PointerDiff {
		out.WriteString(fmt.Sprintf("\timul rcx, rcx, %d\n", b.Scale))
	}

	switch b.Op {
	case token.PLUS:
		out.WriteString("\tadd rax, rcx\n")
	case token.MINUS:
		out.WriteString("\tsub rax, rcx\n")
		if b.PointerDiff {
			out.WriteString(fmt.Sprintf("\tmov rcx, %d\n\tcqo\n\tidiv rcx\n", b.Scale))
		}
	case token.ASTERISK:
		out.WriteString("\timul rax, rcx\n")
	case token.SLASH:
		out.WriteString("\tcqo\n\tidiv rcx\n")
	case token.PERCENT:
		out.WriteString("\tcqo\n\tidiv rcx\n\tmov rax, rdx\n")
	case token.PIPE:
		out.WriteString("\tor rax, rcx\n")
	case token.CARET:
		out.WriteString("\txor rax, rcx\n")
	case token.AMPERSAND:
		out.WriteString("\tand rax, rcx\n")
	case token.SHL:
		out.WriteString("\tsal rax, cl\n")
	case token.SHR:
		out.WriteString("\tsar rax, cl\n")
	case token.EQ:
		out.WriteString("\tcmp rax, rcx\n\tsete al\n\tmovzx rax, al\n")
	case token.NOTEQ:
		out.WriteString("\tcmp rax, rcx\n\tsetne al\n\tmovzx rax, al\n")
	case token.LT:
		out.WriteString("\tcmp rax, rcx\n\tsetl al\n\tmovzx rax, al\n")
	case token.LTEQ:
		out.WriteString("\tcmp rax, rcx\n\tsetle al\n\tmovzx rax, al\n")
	case token.GT:
		out.WriteString("\tcmp rax, rcx\n\tsetg al\n\tmovzx rax, al\n")
	case token.GTEQ:
		out.WriteString("\tcmp rax, rcx\n\tsetge al\n\tmovzx rax, al\n")
	default:
		return "", fmt.Errorf("codegen: unknown binary operator %q", b.Op)
	}

	out.WriteString("\tpush rax\n")
	return out.String(), nil
}

// genLogical lowers short-circuit && and ||: the right operand's code
// is only reachable when the left operand has not already determined
// the result.
func (g *Generator) genLogical(l *ast.LogicalOp) (string, error) {
	left, err := g.genVal(l.Left)
	if err != nil {
		return "", err
	}
	right, err := g.genVal(l.Right)
	if err != nil {
		return "", err
	}

	falseLabel := g.newLabel("false")
	endLabel := g.newLabel("end")

	var b strings.Builder
	b.WriteString(left)
	b.WriteString("\tpop rax\n")
	b.WriteString("\tcmp rax, 0\n")

	if l.Op == token.ANDAND {
		b.WriteString(fmt.Sprintf("\tje %s\n", falseLabel))
		b.WriteString(right)
		b.WriteString("\tpop rax\n")
		b.WriteString("\tcmp rax, 0\n")
		b.WriteString(fmt.Sprintf("\tje %s\n", falseLabel))
		b.WriteString("\tpush 1\n")
		b.WriteString(fmt.Sprintf("\tjmp %s\n", endLabel))
		b.WriteString(fmt.Sprintf("%s:\n", falseLabel))
		b.WriteString("\tpush 0\n")
		b.WriteString(fmt.Sprintf("%s:\n", endLabel))
	} else { // ||
		trueLabel := g.newLabel("true")
		b.WriteString(fmt.Sprintf("\tjne %s\n", trueLabel))
		b.WriteString(right)
		b.WriteString("\tpop rax\n")
		b.WriteString("\tcmp rax, 0\n")
		b.WriteString(fmt.Sprintf("\tje %s\n", falseLabel))
		b.WriteString(fmt.Sprintf("%s:\n", trueLabel))
		b.WriteString("\tpush 1\n")
		b.WriteString(fmt.Sprintf("\tjmp %s\n", endLabel))
		b.WriteString(fmt.Sprintf("%s:\n", falseLabel))
		b.WriteString("\tpush 0\n")
		b.WriteString(fmt.Sprintf("%s:\n", endLabel))
	}

	return b.String(), nil
}

func (g *Generator) genAssign(a *ast.Assign) (string, error) {
	addr, err := g.genAddr(a.Target)
	if err != nil {
		return "", err
	}
	val, err := g.genVal(a.Value)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(addr)
	b.WriteString(val)
	b.WriteString("\tpop rax\n") // value
	b.WriteString("\tpop rcx\n") // address
	b.WriteString(storeThroughReg(a.Target.ResolvedType(), "rcx", "rax"))
	b.WriteString("\tpush rax\n")
	return b.String(), nil
}

// genCompoundAssign lowers `lhs op= rhs` by evaluating the target's
// address exactly once into r8 - left free of every operator below,
// including the ones that need rcx as a second operand - then
// loading/combining/storing through it.
func (g *Generator) genCompoundAssign(c *ast.CompoundAssign) (string, error) {
	addr, err := g.genAddr(c.Target)
	if err != nil {
		return "", err
	}
	val, err := g.genVal(c.Value)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(addr)
	b.WriteString(val)
	b.WriteString("\tpop rdx\n") // rhs value
	b.WriteString("\tpop r8\n")  // address, held for the whole sequence
	b.WriteString(loadWidth(c.Target.ResolvedType(), "r8"))

	if c.Scale != 0 {
		b.WriteString(fmt.Sprintf("\timul rdx, rdx, %d\n", c.Scale))
	}

	switch c.Op {
	case token.PLUS:
		b.WriteString("\tadd rax, rdx\n")
	case token.MINUS:
		b.WriteString("\tsub rax, rdx\n")
	case token.ASTERISK:
		b.WriteString("\timul rax, rdx\n")
	case token.SLASH:
		b.WriteString("\tmov rcx, rdx\n\tcqo\n\tidiv rcx\n")
	case token.PERCENT:
		b.WriteString("\tmov rcx, rdx\n\tcqo\n\tidiv rcx\n\tmov rax, rdx\n")
	case token.PIPE:
		b.WriteString("\tor rax, rdx\n")
	case token.AMPERSAND:
		b.WriteString("\tand rax, rdx\n")
	case token.CARET:
		b.WriteString("\txor rax, rdx\n")
	case token.SHL:
		b.WriteString("\tmov rcx, rdx\n\tsal rax, cl\n")
	case token.SHR:
		b.WriteString("\tmov rcx, rdx\n\tsar rax, cl\n")
	default:
		return "", fmt.Errorf("codegen: unknown compound-assignment operator %q", c.Op)
	}

	b.WriteString(storeThroughReg(c.Target.ResolvedType(), "r8", "rax"))
	b.WriteString("\tpush rax\n")
	return b.String(), nil
}

func (g *Generator) genConditional(c *ast.Conditional) (string, error) {
	cond, err := g.genVal(c.Cond)
	if err != nil {
		return "", err
	}
	then, err := g.genVal(c.Then)
	if err != nil {
		return "", err
	}
	els, err := g.genVal(c.Else)
	if err != nil {
		return "", err
	}

	elseLabel := g.newLabel("ternelse")
	endLabel := g.newLabel("ternend")

	var b strings.Builder
	b.WriteString(cond)
	b.WriteString("\tpop rax\n")
	b.WriteString("\tcmp rax, 0\n")
	b.WriteString(fmt.Sprintf("\tje %s\n", elseLabel))
	b.WriteString(then)
	b.WriteString(fmt.Sprintf("\tjmp %s\n", endLabel))
	b.WriteString(fmt.Sprintf("%s:\n", elseLabel))
	b.WriteString(els)
	b.WriteString(fmt.Sprintf("%s:\n", endLabel))
	return b.String(), nil
}

// genCall lowers a function call: arguments are evaluated left to
// right onto the stack, then popped off into the SysV argument
// registers in order, rsp is aligned to 16 bytes, rax is zeroed (SysV
// requires this for variadic callees such as printf), and the result
// is pushed.
func (g *Generator) genCall(c *ast.Call) (string, error) {
	if len(c.Args) > len(argRegisters) {
		return "", fmt.Errorf("codegen: call to %q passes more than %d arguments", c.Callee, len(argRegisters))
	}

	var b strings.Builder
	for _, arg := range c.Args {
		v, err := g.genVal(arg)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
	}
	for i := len(c.Args) - 1; i >= 0; i-- {
		b.WriteString(fmt.Sprintf("\tpop %s\n", argRegisters[i]))
	}

	// Align rsp to 16 bytes immediately before `call`. The unaligned
	// rsp is pushed onto the aligned stack (after 8 bytes of padding,
	// so the push keeps the alignment) and `pop rsp` restores it once
	// the call returns.
	b.WriteString("\tmov r10, rsp\n")
	b.WriteString("\tand rsp, -16\n")
	b.WriteString("\tsub rsp, 8\n")
	b.WriteString("\tpush r10\n")
	b.WriteString("\txor rax, rax\n")
	b.WriteString(fmt.Sprintf("\tcall %s\n", c.Callee))
	b.WriteString("\tpop rsp\n")
	b.WriteString("\tpush rax\n")
	return b.String(), nil
}

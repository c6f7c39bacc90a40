package codegen

import (
	"fmt"
	"strings"

	"github.com/skx/cc/ast"
)

// genStmt generates code for one statement. Every statement emits code
// that leaves the runtime stack exactly as deep as it found it -
// expression-statements discard their one pushed value explicitly.
func (g *Generator) genStmt(s ast.Stmt) (string, error) {
	switch v := s.(type) {
	case *ast.Block:
		var b strings.Builder
		for _, inner := range v.Stmts {
			out, err := g.genStmt(inner)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
		}
		return b.String(), nil

	case *ast.ExprStmt:
		val, err := g.genVal(v.X)
		if err != nil {
			return "", err
		}
		return val + "\tpop rax\n", nil

	case *ast.If:
		return g.genIf(v)

	case *ast.While:
		return g.genWhile(v)

	case *ast.DoWhile:
		return g.genDoWhile(v)

	case *ast.For:
		return g.genFor(v)

	case *ast.Break:
		pair, err := g.loops.Top()
		if err != nil {
			return "", fmt.Errorf("codegen: break outside of a loop")
		}
		return fmt.Sprintf("\tjmp %s\n", pair.brk), nil

	case *ast.Continue:
		pair, err := g.loops.Top()
		if err != nil {
			return "", fmt.Errorf("codegen: continue outside of a loop")
		}
		return fmt.Sprintf("\tjmp %s\n", pair.cont), nil

	case *ast.Return:
		if v.X == nil {
			return fmt.Sprintf("\tjmp %s\n", g.retLabel), nil
		}
		val, err := g.genVal(v.X)
		if err != nil {
			return "", err
		}
		return val + fmt.Sprintf("\tpop rax\n\tjmp %s\n", g.retLabel), nil

	case *ast.Goto:
		return fmt.Sprintf("\tjmp %s\n", g.userLabel(v.Label)), nil

	case *ast.Labeled:
		inner, err := g.genStmt(v.Stmt)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:\n%s", g.userLabel(v.Label), inner), nil

	case *ast.LocalDecl:
		return g.genLocalDecl(v)

	default:
		return "", fmt.Errorf("codegen: no genStmt case for %T", s)
	}
}

// userLabel namespaces a source-level goto label by function, so
// identically-named labels in different functions never collide.
func (g *Generator) userLabel(name string) string {
	return fmt.Sprintf(".L.user.%s.%s", g.fnName, name)
}

func (g *Generator) genIf(i *ast.If) (string, error) {
	cond, err := g.genVal(i.Cond)
	if err != nil {
		return "", err
	}
	then, err := g.genStmt(i.Then)
	if err != nil {
		return "", err
	}

	elseLabel := g.newLabel("else")
	endLabel := g.newLabel("end")

	var b strings.Builder
	b.WriteString(cond)
	b.WriteString("\tpop rax\n")
	b.WriteString("\tcmp rax, 0\n")
	b.WriteString(fmt.Sprintf("\tje %s\n", elseLabel))
	b.WriteString(then)
	b.WriteString(fmt.Sprintf("\tjmp %s\n", endLabel))
	b.WriteString(fmt.Sprintf("%s:\n", elseLabel))
	if i.Else != nil {
		els, err := g.genStmt(i.Else)
		if err != nil {
			return "", err
		}
		b.WriteString(els)
	}
	b.WriteString(fmt.Sprintf("%s:\n", endLabel))
	return b.String(), nil
}

func (g *Generator) genWhile(w *ast.While) (string, error) {
	contLabel := g.newLabel("while_cont")
	brkLabel := g.newLabel("while_brk")

	cond, err := g.genVal(w.Cond)
	if err != nil {
		return "", err
	}

	g.loops.Push(loopLabels{brk: brkLabel, cont: contLabel})
	body, err := g.genStmt(w.Body)
	g.loops.Pop() //nolint:errcheck // pushed immediately above, pop cannot fail
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s:\n", contLabel))
	b.WriteString(cond)
	b.WriteString("\tpop rax\n")
	b.WriteString("\tcmp rax, 0\n")
	b.WriteString(fmt.Sprintf("\tje %s\n", brkLabel))
	b.WriteString(body)
	b.WriteString(fmt.Sprintf("\tjmp %s\n", contLabel))
	b.WriteString(fmt.Sprintf("%s:\n", brkLabel))
	return b.String(), nil
}

// genFor gives `for`'s continue target as the step expression, not the
// loop top, matching C semantics: `continue` must still run the step
// before re-testing the condition.
func (g *Generator) genFor(f *ast.For) (string, error) {
	var init string
	if f.Init != nil {
		var err error
		init, err = g.genStmt(f.Init)
		if err != nil {
			return "", err
		}
	}

	startLabel := g.newLabel("for_start")
	stepLabel := g.newLabel("for_step")
	brkLabel := g.newLabel("for_brk")

	var cond string
	if f.Cond != nil {
		var err error
		cond, err = g.genVal(f.Cond)
		if err != nil {
			return "", err
		}
	}

	g.loops.Push(loopLabels{brk: brkLabel, cont: stepLabel})
	body, err := g.genStmt(f.Body)
	g.loops.Pop() //nolint:errcheck
	if err != nil {
		return "", err
	}

	var step string
	if f.Step != nil {
		stepVal, err := g.genVal(f.Step)
		if err != nil {
			return "", err
		}
		step = stepVal + "\tpop rax\n"
	}

	var b strings.Builder
	b.WriteString(init)
	b.WriteString(fmt.Sprintf("%s:\n", startLabel))
	if f.Cond != nil {
		b.WriteString(cond)
		b.WriteString("\tpop rax\n")
		b.WriteString("\tcmp rax, 0\n")
		b.WriteString(fmt.Sprintf("\tje %s\n", brkLabel))
	}
	b.WriteString(body)
	b.WriteString(fmt.Sprintf("%s:\n", stepLabel))
	b.WriteString(step)
	b.WriteString(fmt.Sprintf("\tjmp %s\n", startLabel))
	b.WriteString(fmt.Sprintf("%s:\n", brkLabel))
	return b.String(), nil
}

func (g *Generator) genDoWhile(d *ast.DoWhile) (string, error) {
	bodyLabel := g.newLabel("do_body")
	contLabel := g.newLabel("do_cont")
	brkLabel := g.newLabel("do_brk")

	g.loops.Push(loopLabels{brk: brkLabel, cont: contLabel})
	body, err := g.genStmt(d.Body)
	g.loops.Pop() //nolint:errcheck
	if err != nil {
		return "", err
	}

	cond, err := g.genVal(d.Cond)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s:\n", bodyLabel))
	b.WriteString(body)
	b.WriteString(fmt.Sprintf("%s:\n", contLabel))
	b.WriteString(cond)
	b.WriteString("\tpop rax\n")
	b.WriteString("\tcmp rax, 0\n")
	b.WriteString(fmt.Sprintf("\tjne %s\n", bodyLabel))
	b.WriteString(fmt.Sprintf("%s:\n", brkLabel))
	return b.String(), nil
}

// genLocalDecl emits the initializer assignment, if any; the slot
// itself was already reserved in the stack frame during parsing, so an
// uninitialized declaration generates no code at all.
func (g *Generator) genLocalDecl(d *ast.LocalDecl) (string, error) {
	if d.Init == nil {
		return "", nil
	}
	addr, err := g.genAddr(d.Ref)
	if err != nil {
		return "", err
	}
	val, err := g.genVal(d.Init)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(addr)
	b.WriteString(val)
	b.WriteString("\tpop rax\n") // value
	b.WriteString("\tpop rcx\n") // address
	b.WriteString(storeThroughReg(d.Ref.ResolvedType(), "rcx", "rax"))
	return b.String(), nil
}

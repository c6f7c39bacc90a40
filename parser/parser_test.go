package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skx/cc/ast"
	"github.com/skx/cc/internal/source"
	"github.com/skx/cc/internal/types"
)

func parseProgram(t *testing.T, src string) *ast.TranslationUnit {
	t.Helper()
	buf := source.New("test.c", src)
	p, err := New(buf)
	assert.NoError(t, err)
	tu, err := p.Parse()
	assert.NoError(t, err)
	return tu
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	buf := source.New("test.c", src)
	p, err := New(buf)
	assert.NoError(t, err)
	_, err = p.Parse()
	return err
}

func TestArithmeticPrecedence(t *testing.T) {
	tu := parseProgram(t, `int main(){ return 5 + 6 * 7; }`)
	fn := tu.Functions[0]
	ret := fn.Body.Stmts[0].(*ast.Return)
	bin := ret.X.(*ast.BinaryOp)
	assert.Equal(t, "+", bin.Op)
	rhs := bin.Right.(*ast.BinaryOp)
	assert.Equal(t, "*", rhs.Op)
}

func TestForLoopAccumulator(t *testing.T) {
	tu := parseProgram(t, `int main(){ int i; int s; s=0; for(i=1;i<=10;i=i+1) s=s+i; return s; }`)
	fn := tu.Functions[0]
	var forStmt *ast.For
	for _, s := range fn.Body.Stmts {
		if f, ok := s.(*ast.For); ok {
			forStmt = f
		}
	}
	assert.NotNil(t, forStmt)
	assert.NotNil(t, forStmt.Step)
}

func TestPointerAddressAndDeref(t *testing.T) {
	tu := parseProgram(t, `int main(){ int a; int *p; a=3; p=&a; *p=7; return a; }`)
	fn := tu.Functions[0]
	sym, ok := (*ast.VarRef)(nil), false
	for _, s := range fn.Body.Stmts {
		if decl, isDecl := s.(*ast.LocalDecl); isDecl && decl.Name == "p" {
			sym, ok = decl.Ref, true
		}
	}
	assert.True(t, ok)
	assert.True(t, types.IsPointerLike(sym.ResolvedType()))
}

func TestArrayIndexingYieldsElementType(t *testing.T) {
	tu := parseProgram(t, `int main(){ int a[5]; a[0]=3; a[1]=5; return a[0]+a[1]; }`)
	fn := tu.Functions[0]
	ret := fn.Body.Stmts[len(fn.Body.Stmts)-1].(*ast.Return)
	bin := ret.X.(*ast.BinaryOp)
	assert.Equal(t, types.Int, bin.Left.ResolvedType())
}

func TestFunctionCallAcrossDefinitions(t *testing.T) {
	tu := parseProgram(t, `int add(int x,int y){return x+y;} int main(){return add(2,5);}`)
	assert.Len(t, tu.Functions, 2)
	mainFn := tu.Functions[1]
	ret := mainFn.Body.Stmts[0].(*ast.Return)
	call := ret.X.(*ast.Call)
	assert.Equal(t, "add", call.Callee)
	assert.Len(t, call.Args, 2)
}

func TestStringLiteralIndexYieldsChar(t *testing.T) {
	tu := parseProgram(t, `int main(){ char *a; a="abc"; return a[1]; }`)
	fn := tu.Functions[0]
	ret := fn.Body.Stmts[len(fn.Body.Stmts)-1].(*ast.Return)
	idx := ret.X.(*ast.Index)
	assert.Equal(t, types.Char, idx.ResolvedType())
}

func TestWhileWithBreak(t *testing.T) {
	tu := parseProgram(t, `int main(){ int i; i=0; while(1){ i=i+1; if(i==3) break; } return i; }`)
	fn := tu.Functions[0]
	w := fn.Body.Stmts[2].(*ast.While)
	block := w.Body.(*ast.Block)
	ifStmt := block.Stmts[1].(*ast.If)
	_, isBreak := ifStmt.Then.(*ast.Break)
	assert.True(t, isBreak)
}

func TestGotoForwardReference(t *testing.T) {
	tu := parseProgram(t, `int main(){ int a; a=0; goto L; a=10; L: a=a+5; return a; }`)
	fn := tu.Functions[0]
	var sawGoto, sawLabel bool
	for _, s := range fn.Body.Stmts {
		if _, ok := s.(*ast.Goto); ok {
			sawGoto = true
		}
		if _, ok := s.(*ast.Labeled); ok {
			sawLabel = true
		}
	}
	assert.True(t, sawGoto)
	assert.True(t, sawLabel)
}

func TestGotoUndeclaredLabelIsAnError(t *testing.T) {
	err := parseErr(t, `int main(){ goto nowhere; return 0; }`)
	assert.Error(t, err)
}

func TestStructDeclarationParsesButCarriesNoLayout(t *testing.T) {
	tu := parseProgram(t, `struct point { int x; int y; }; int main(){ return 0; }`)
	assert.Len(t, tu.Functions, 1)
}

func TestUndeclaredFunctionIsTolerated(t *testing.T) {
	tu := parseProgram(t, `int main(){ return foo(); }`)
	fn := tu.Functions[0]
	ret := fn.Body.Stmts[0].(*ast.Return)
	call := ret.X.(*ast.Call)
	assert.Equal(t, "foo", call.Callee)
}

func TestSizeofConstants(t *testing.T) {
	tu := parseProgram(t, `int main(){ int a[4]; return sizeof(int)+sizeof(char)+sizeof(int*)+sizeof(a); }`)
	fn := tu.Functions[0]
	ret := fn.Body.Stmts[1].(*ast.Return)

	var values []int64
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch v := e.(type) {
		case *ast.BinaryOp:
			walk(v.Left)
			walk(v.Right)
		case *ast.SizeofType:
			values = append(values, v.Value)
		case *ast.SizeofExpr:
			values = append(values, v.Value)
		}
	}
	walk(ret.X)
	assert.Equal(t, []int64{4, 1, 8, 16}, values)
}

func TestSizeofNeverEvaluatesItsOperand(t *testing.T) {
	tu := parseProgram(t, `int main(){ int x; x=1; return sizeof(x=5) + x; }`)
	fn := tu.Functions[0]
	ret := fn.Body.Stmts[2].(*ast.Return)
	bin := ret.X.(*ast.BinaryOp)
	szExpr, ok := bin.Left.(*ast.SizeofExpr)
	assert.True(t, ok)
	assert.Equal(t, int64(4), szExpr.Value)
}

func TestFrameSizeAlignedTo16(t *testing.T) {
	tu := parseProgram(t, `int main(){ int a; int b[5]; return 0; }`)
	fn := tu.Functions[0]
	assert.Equal(t, 0, fn.FrameSize%16)
}

func TestMultipleCommaDeclarators(t *testing.T) {
	tu := parseProgram(t, `int main(){ int a, b, c; a=1; b=2; c=3; return a+b+c; }`)
	fn := tu.Functions[0]
	block, ok := fn.Body.Stmts[0].(*ast.Block)
	assert.True(t, ok)
	assert.Len(t, block.Stmts, 3)
}

func TestOctalAndHexLiterals(t *testing.T) {
	tu := parseProgram(t, `int main(){ return 010 + 0x10; }`)
	fn := tu.Functions[0]
	ret := fn.Body.Stmts[0].(*ast.Return)
	bin := ret.X.(*ast.BinaryOp)
	left := bin.Left.(*ast.IntLiteral)
	right := bin.Right.(*ast.IntLiteral)
	assert.Equal(t, int64(8), left.Value)
	assert.Equal(t, int64(16), right.Value)
}

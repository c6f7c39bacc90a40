package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skx/cc/internal/source"
	"github.com/skx/cc/parser"
)

func compileToAsm(t *testing.T, src string) string {
	t.Helper()
	buf := source.New("test.c", src)
	p, err := parser.New(buf)
	assert.NoError(t, err)
	tu, err := p.Parse()
	assert.NoError(t, err)
	gen := New(p.Global())
	out, err := gen.Generate(tu)
	assert.NoError(t, err)
	return out
}

func TestForContinueTargetsStep(t *testing.T) {
	out := compileToAsm(t, `int main(){ int i; for (i=0; i<10; i=i+1) { continue; } return i; }`)

	stepIdx := strings.Index(out, ".L.for_step")
	contJumpIdx := strings.Index(out, "jmp .L.for_step")
	assert.Greater(t, stepIdx, -1, "step label must be emitted")
	assert.Greater(t, contJumpIdx, -1, "continue must jump to the step label, not the loop top")
}

func TestShortCircuitAndSkipsRightOperand(t *testing.T) {
	out := compileToAsm(t, `int main(){ int x; x=1; 0 && (x=5); return x; }`)
	assert.Contains(t, out, "je ")
	assert.Contains(t, out, ".L.false")
}

func TestSizeofEmitsConstantOnly(t *testing.T) {
	out := compileToAsm(t, `int main(){ int a[4]; return sizeof(a); }`)
	assert.Contains(t, out, "mov rax, 16")
}

func TestGotoIsNamespacedPerFunction(t *testing.T) {
	out := compileToAsm(t, `int f(){ goto L; L: return 1; } int g(){ goto L; L: return 2; }`)
	assert.Contains(t, out, ".L.user.f.L")
	assert.Contains(t, out, ".L.user.g.L")
}

func TestFunctionPrologueAndEpilogue(t *testing.T) {
	out := compileToAsm(t, `int add(int a, int b){ return a+b; }`)
	assert.Contains(t, out, "add:")
	assert.Contains(t, out, "push rbp")
	assert.Contains(t, out, "mov rbp, rsp")
	assert.Contains(t, out, ".L.return.add:")
	assert.Contains(t, out, "pop rbp")
	assert.Contains(t, out, "ret")
}

func TestStringLiteralInterned(t *testing.T) {
	out := compileToAsm(t, `int main(){ char *a; a="abc"; return a[1]; }`)
	assert.Contains(t, out, ".rodata")
	assert.Contains(t, out, ".LC0")
}

func TestCallZeroesRaxForVariadicLinkage(t *testing.T) {
	out := compileToAsm(t, `int printf(); int main(){ printf("hi"); return 0; }`)
	idx := strings.Index(out, "call printf")
	assert.Greater(t, idx, -1)
	before := out[:idx]
	lastXor := strings.LastIndex(before, "xor rax, rax")
	assert.Greater(t, lastXor, -1, "rax must be zeroed before a call for variadic callees")
}

func TestTrailerSuppressesExecStackWarning(t *testing.T) {
	out := compileToAsm(t, `int main(){ return 0; }`)
	assert.Contains(t, out, ".note.GNU-stack")
}

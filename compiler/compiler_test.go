package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBogusInput(t *testing.T) {
	tests := []string{
		"",
		"+",
		"int main() { return",
		"int main() { int a a; }",
		"int main() { goto nowhere; }",
	}

	for _, test := range tests {
		c := New(test)
		_, err := c.Compile()
		assert.Error(t, err, "expected an error compiling %q", test)
	}
}

func TestValidPrograms(t *testing.T) {
	tests := []string{
		`int main() { return 1+2*3; }`,
		`int add(int a, int b) { return a+b; } int main() { return add(2,3); }`,
		`int main() { int i; int total; total=0; for (i=0;i<5;i=i+1) total=total+i; return total; }`,
		`int main() { int a[3]; a[0]=1; a[1]=2; a[2]=3; return a[1]; }`,
		`int main() { char *a; a="abc"; return a[1]; }`,
	}

	for _, test := range tests {
		c := New(test)
		out, err := c.Compile()
		assert.NoError(t, err, "did not expect an error compiling %q", test)
		assert.Contains(t, out, ".intel_syntax noprefix")
		assert.Contains(t, out, "main:")
	}
}

func TestOutputIsCompleteAssembly(t *testing.T) {
	c := New(`int main() { return 0; }`)
	out, err := c.Compile()
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), ".intel_syntax noprefix"))
	assert.Contains(t, out, ".section .note.GNU-stack")
}

func TestSetDebugAddsBreakpoint(t *testing.T) {
	c := New(`int main() { return 0; }`)
	c.SetDebug(true)
	out, err := c.Compile()
	assert.NoError(t, err)
	assert.Contains(t, out, "int3")
}

func TestSetNameAppearsInErrors(t *testing.T) {
	c := New(`int main() { return`)
	c.SetName("broken.c")
	_, err := c.Compile()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken.c")
}

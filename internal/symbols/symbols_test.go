package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skx/cc/internal/types"
)

func TestGlobalVariables(t *testing.T) {
	g := NewGlobal()
	a := g.DeclareVariable("counter", types.Int)
	b := g.DeclareVariable("counter", types.Int)
	assert.Same(t, a, b, "redeclaring a global should be a no-op")
	assert.Len(t, g.Variables(), 1)
}

func TestGlobalFunctions(t *testing.T) {
	g := NewGlobal()
	g.DeclareFunction("add", types.Int, []*types.Type{types.Int, types.Int}, false)
	sym := g.DeclareFunction("add", types.Int, []*types.Type{types.Int, types.Int}, true)
	assert.True(t, sym.Defined, "a later definition should upgrade a prototype")
}

func TestInternSharesLabel(t *testing.T) {
	g := NewGlobal()
	a := g.Intern("hello")
	b := g.Intern("hello")
	c := g.Intern("world")
	assert.Equal(t, a.Label, b.Label, "identical literals should share one label")
	assert.NotEqual(t, a.Label, c.Label)
	assert.Len(t, g.StringLiterals(), 2)
}

func TestFunctionLocalsAndFrame(t *testing.T) {
	g := NewGlobal()
	fn := NewFunction(g)

	a := fn.Declare("a", types.Int)
	assert.Equal(t, 8, a.RBPOffset)

	arr := fn.Declare("arr", types.Array(types.Int, 5))
	// 20 bytes rounds up to 3 slots (24 bytes), stacked after `a`.
	assert.Equal(t, 8+24, arr.RBPOffset)

	assert.Equal(t, 32, fn.FrameSize())
}

func TestFunctionLookupFallsBackToGlobal(t *testing.T) {
	g := NewGlobal()
	g.DeclareVariable("g_count", types.Int)
	fn := NewFunction(g)

	sym, ok := fn.Lookup("g_count")
	assert.True(t, ok)
	assert.Equal(t, KindGlobal, sym.Kind)

	_, ok = fn.Lookup("missing")
	assert.False(t, ok)
}

func TestLabels(t *testing.T) {
	g := NewGlobal()
	fn := NewFunction(g)
	assert.False(t, fn.HasLabel("L"))
	fn.DeclareLabel("L")
	assert.True(t, fn.HasLabel("L"))
}

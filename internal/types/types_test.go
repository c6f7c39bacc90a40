package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizes(t *testing.T) {
	assert.Equal(t, 4, SizeOf(Int))
	assert.Equal(t, 1, SizeOf(Char))
	assert.Equal(t, 8, SizeOf(Ptr(Int)))
	assert.Equal(t, 20, SizeOf(Array(Int, 5)))
	assert.Equal(t, 8, SizeOf(Ptr(Char)))
}

func TestDecay(t *testing.T) {
	arr := Array(Int, 5)
	decayed := Decay(arr)
	assert.Equal(t, KindPtr, decayed.Kind)
	assert.True(t, Equal(decayed.Inner, Int))

	assert.True(t, Equal(Decay(Int), Int))
}

func TestPointerInner(t *testing.T) {
	assert.True(t, Equal(PointerInner(Ptr(Char)), Char))
	assert.True(t, Equal(PointerInner(Array(Int, 3)), Int))
}

func TestCommonArithmetic(t *testing.T) {
	assert.True(t, Equal(CommonArithmetic(Char, Int), Int))
	assert.True(t, Equal(CommonArithmetic(Int, Int), Int))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Ptr(Int), Ptr(Int)))
	assert.False(t, Equal(Ptr(Int), Ptr(Char)))
	assert.False(t, Equal(Array(Int, 3), Array(Int, 4)))
	assert.True(t, Equal(Func(Int, []*Type{Int, Int}), Func(Int, []*Type{Int, Int})))
}

func TestString(t *testing.T) {
	assert.Equal(t, "int", Int.String())
	assert.Equal(t, "int*", Ptr(Int).String())
	assert.Equal(t, "char[4]", Array(Char, 4).String())
}

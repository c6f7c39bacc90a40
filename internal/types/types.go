// Package types implements the small C type universe this compiler
// supports: int, char, pointer-to-T, array-of-N-T, and function types.
package types

import (
	"fmt"

	"github.com/samber/lo"
)

// Kind tags which variant of Type a value holds.
type Kind int

const (
	KindInt Kind = iota
	KindChar
	KindPtr
	KindArray
	KindFunc
)

// Type is a tagged variant over the subset's type universe. Only the
// fields relevant to Kind are populated.
type Type struct {
	Kind Kind

	// Inner is the pointee/element type, for Ptr and Array.
	Inner *Type

	// Len is the element count, for Array.
	Len int

	// Return and Params describe a Func type.
	Return *Type
	Params []*Type
}

// Int, Char are the two scalar base types; every other Type value is
// built from these with Ptr/Array/Func.
var (
	Int  = &Type{Kind: KindInt}
	Char = &Type{Kind: KindChar}
)

// Ptr returns the type "pointer to inner".
func Ptr(inner *Type) *Type {
	return &Type{Kind: KindPtr, Inner: inner}
}

// Array returns the type "array of length n of inner".
func Array(inner *Type, n int) *Type {
	return &Type{Kind: KindArray, Inner: inner, Len: n}
}

// Func returns a function type.
func Func(ret *Type, params []*Type) *Type {
	return &Type{Kind: KindFunc, Return: ret, Params: params}
}

// SizeOf returns the size in bytes of t.
func SizeOf(t *Type) int {
	switch t.Kind {
	case KindInt:
		return 4
	case KindChar:
		return 1
	case KindPtr:
		return 8
	case KindArray:
		return t.Len * SizeOf(t.Inner)
	default:
		panic(fmt.Sprintf("types: SizeOf has no meaning for %s", t))
	}
}

// AlignOf returns the alignment in bytes of t. In this subset alignment
// always equals size.
func AlignOf(t *Type) int {
	return SizeOf(t)
}

// Decay converts an Array(T,N) rvalue type to Ptr(T); every other type
// is returned unchanged. Decay is applied at expression use sites, never
// at the point a symbol's storage is declared.
func Decay(t *Type) *Type {
	if t.Kind == KindArray {
		return Ptr(t.Inner)
	}
	return t
}

// PointerInner returns the pointee type of t, decaying arrays first. It
// panics if t is not a pointer or array type; callers are expected to
// have already validated that via IsPointerLike.
func PointerInner(t *Type) *Type {
	d := Decay(t)
	if d.Kind != KindPtr {
		panic(fmt.Sprintf("types: PointerInner called on non-pointer %s", t))
	}
	return d.Inner
}

// IsPointerLike reports whether t is a pointer, or an array that would
// decay to one.
func IsPointerLike(t *Type) bool {
	d := Decay(t)
	return d.Kind == KindPtr
}

// IsScalar reports whether values of t fit in a general-purpose register
// (everything except Array and Func).
func IsScalar(t *Type) bool {
	return t.Kind == KindInt || t.Kind == KindChar || t.Kind == KindPtr
}

// CommonArithmetic computes the unified type of a binary arithmetic
// operation's two operands. Char operands are promoted to Int; this
// subset has no rank beyond Int, so the result is always Int, whatever
// the operands. Pointer arithmetic is typed by the parser itself and
// does not go through this function.
func CommonArithmetic(a, b *Type) *Type {
	return Int
}

// Equal reports whether two types describe the same C type.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt, KindChar:
		return true
	case KindPtr:
		return Equal(a.Inner, b.Inner)
	case KindArray:
		return a.Len == b.Len && Equal(a.Inner, b.Inner)
	case KindFunc:
		if !Equal(a.Return, b.Return) || len(a.Params) != len(b.Params) {
			return false
		}
		return lo.EveryBy(lo.Zip2(a.Params, b.Params), func(pp lo.Tuple2[*Type, *Type]) bool {
			return Equal(pp.A, pp.B)
		})
	}
	return false
}

// String renders t the way a C programmer would write it, used in error
// messages and debug output.
func (t *Type) String() string {
	switch t.Kind {
	case KindInt:
		return "int"
	case KindChar:
		return "char"
	case KindPtr:
		return t.Inner.String() + "*"
	case KindArray:
		return fmt.Sprintf("%s[%d]", t.Inner.String(), t.Len)
	case KindFunc:
		parts := lo.Map(t.Params, func(p *Type, _ int) string { return p.String() })
		return fmt.Sprintf("%s(%s)", t.Return.String(), joinComma(parts))
	default:
		return "<unknown type>"
	}
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

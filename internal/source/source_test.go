package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition(t *testing.T) {
	b := New("<inline>", "int a;\nint b;\nreturn 0;\n")

	line, col := b.Position(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	// "int b;" starts at offset 7
	line, col = b.Position(7)
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	line, col = b.Position(9)
	assert.Equal(t, 2, line)
	assert.Equal(t, 3, col)
}

func TestSnippet(t *testing.T) {
	b := New("<inline>", "int a;\nint b;\n")
	assert.Equal(t, "int b;", b.Snippet(7))
}

// Package source wraps the raw bytes of a program being compiled, and
// tracks the line/column of any byte offset within it so that lexer,
// parser, and semantic errors can report a useful position.
package source

import "strings"

// Buffer holds an immutable program source and a precomputed table of
// line-start offsets, used to turn a byte offset into a line/column pair
// on demand.
type Buffer struct {
	Name  string
	Text  string
	lines []int
}

// New builds a Buffer from program text. name is used only in error
// messages (a file path, or "<inline>").
func New(name, text string) *Buffer {
	b := &Buffer{Name: name, Text: text}
	b.lines = append(b.lines, 0)
	for i, ch := range text {
		if ch == '\n' {
			b.lines = append(b.lines, i+1)
		}
	}
	return b
}

// Position returns the 1-indexed line and column of the given byte offset.
func (b *Buffer) Position(offset int) (line, column int) {
	// binary search would be overkill for the program sizes this
	// compiler is meant for; a linear scan keeps this readable.
	line = 1
	for i := 1; i < len(b.lines); i++ {
		if b.lines[i] > offset {
			break
		}
		line++
	}
	column = offset - b.lines[line-1] + 1
	return line, column
}

// Snippet returns the single line of text containing offset, for
// inclusion in error messages.
func (b *Buffer) Snippet(offset int) string {
	line, _ := b.Position(offset)
	start := b.lines[line-1]
	end := len(b.Text)
	if line < len(b.lines) {
		end = b.lines[line] - 1
	}
	return strings.TrimRight(b.Text[start:end], "\r")
}

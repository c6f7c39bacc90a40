package cc

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadProgramInline(t *testing.T) {
	inline = true
	defer func() { inline = false }()

	text, name, err := readProgram([]string{"int main(){ return 0; }"})
	assert.NoError(t, err)
	assert.Equal(t, "int main(){ return 0; }", text)
	assert.Equal(t, "<inline>", name)
}

func TestReadProgramFilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.c")
	assert.NoError(t, os.WriteFile(path, []byte("int main(){ return 1; }"), 0o644))

	text, name, err := readProgram([]string{path})
	assert.NoError(t, err)
	assert.Equal(t, "int main(){ return 1; }", text)
	assert.Equal(t, path, name)
}

func TestReadProgramTreatsNonexistentPathAsInline(t *testing.T) {
	text, name, err := readProgram([]string{"int main(){ return 2; }"})
	assert.NoError(t, err)
	assert.Equal(t, "int main(){ return 2; }", text)
	assert.Equal(t, "<inline>", name)
}

func TestRunEmitsAssemblyToStdout(t *testing.T) {
	var out bytes.Buffer
	Command.SetOut(&out)
	Command.SetArgs([]string{"-i", "int main(){ return 0; }"})

	assert.NoError(t, Command.Execute())
	assert.Contains(t, out.String(), ".intel_syntax noprefix")
}

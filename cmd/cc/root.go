// Package cc implements the command-line driver: it reads a program
// (a file path, inline source, or stdin), runs it through the
// compiler, and streams the resulting assembly to standard output.
package cc

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/skx/cc/compiler"
)

var (
	inline bool
	debug  bool
)

// Command is the root cobra command for the cc CLI.
var Command = &cobra.Command{
	Use:   "cc [path-or-program]",
	Short: "Compile a C subset to x86-64 assembly",
	Args:  cobra.MaximumNArgs(1),
	RunE:  run,
}

func init() {
	Command.Flags().BoolVarP(&inline, "inline", "i", false, "treat the argument as program text rather than a file path")
	Command.Flags().BoolVar(&debug, "debug", false, "insert a debug breakpoint at the top of main")
}

func run(cmd *cobra.Command, args []string) error {
	src, name, err := readProgram(args)
	if err != nil {
		return err
	}

	c := compiler.New(src)
	c.SetName(name)
	c.SetDebug(debug)

	out, err := c.Compile()
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// readProgram resolves the CLI's single positional argument into
// program text and a name to report in diagnostics: `-i` forces the
// argument to be read as inline text; otherwise a path that exists on
// disk is read as a file, and anything else is treated as inline text.
// With no argument at all, the program is read from standard input.
func readProgram(args []string) (text string, name string, err error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(data), "<stdin>", nil
	}

	arg := args[0]

	if inline {
		return arg, "<inline>", nil
	}

	if info, statErr := os.Stat(arg); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(arg)
		if readErr != nil {
			return "", "", fmt.Errorf("reading %q: %w", arg, readErr)
		}
		return string(data), arg, nil
	}

	return arg, "<inline>", nil
}

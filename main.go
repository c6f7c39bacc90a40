// Command cc is the entry point for the C-subset compiler.
package main

import (
	"fmt"
	"os"

	"github.com/skx/cc/cmd/cc"
)

func main() {
	if err := cc.Command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

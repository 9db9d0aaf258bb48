package cmd

import (
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/jz-lang/jzc/pkg/cmd/util"
)

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// reportError prints a fatal compile-time error to stderr, coloured red
// when stderr is a terminal, and exits the process.
func reportError(err error) {
	if util.IsTerminal() {
		fmt.Fprintf(os.Stderr, "%serror:%s %s\n", ansiRed, ansiReset, err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
	}

	os.Exit(1)
}

// reportWarnings prints every warning multierr aggregated, one per line,
// coloured yellow when stderr is a terminal. A nil warnings error prints
// nothing.
func reportWarnings(warnings error) {
	if warnings == nil {
		return
	}

	colour := util.IsTerminal()

	for _, w := range multierr.Errors(warnings) {
		if colour {
			fmt.Fprintf(os.Stderr, "%swarning:%s %s\n", ansiYellow, ansiReset, w)
		} else {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
	}
}

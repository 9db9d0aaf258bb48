package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether stderr (where diagnostics are written) is
// attached to an interactive terminal, so the reporter knows whether
// ANSI severity colouring is safe to emit.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

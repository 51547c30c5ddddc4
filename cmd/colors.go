package cmd

import (
	"io"
	"os"

	"golang.org/x/term"
)

// useColors reports whether output written to w should be colorized.
// Colors are controlled by the showColors config option, the --no-color
// flag and whether w is a terminal.
func useColors(showColors, noColor bool, w io.Writer) bool {
	return showColors && !noColor && isTerminal(w)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

package cliui

import (
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/papercomputeco/marquee/pkg/logger"
)

// NewLogger returns the logger commands write diagnostics to. Output goes to
// stderr so results on stdout stay pipeable, and is colorized when stderr is
// a terminal.
func NewLogger(debug bool) *slog.Logger {
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(term.IsTerminal(int(os.Stderr.Fd()))),
		logger.WithWriter(os.Stderr),
	)
}

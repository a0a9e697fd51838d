// Package logging builds the structured logger shared by the commands.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a text logger writing to w, or stderr when w is nil. Debug
// records are kept only when verbose is set.
func New(verbose bool, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

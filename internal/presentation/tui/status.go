package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// Success prints a green status line.
func Success(w io.Writer, format string, args ...any) {
	status(w, "#22c55e", "✓ ", format, args...)
}

// Warn prints a yellow status line.
func Warn(w io.Writer, format string, args ...any) {
	status(w, "#eab308", "! ", format, args...)
}

// Fail prints a red status line.
func Fail(w io.Writer, format string, args ...any) {
	status(w, "#ef4444", "✗ ", format, args...)
}

func status(w io.Writer, color, prefix, format string, args ...any) {
	msg := prefix + fmt.Sprintf(format, args...)
	if !IsTerminal(w) {
		fmt.Fprintln(w, msg)
		return
	}
	p := termenv.ColorProfile()
	fmt.Fprintln(w, termenv.String(msg).Foreground(p.Color(color)))
}

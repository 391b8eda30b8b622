package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Markdown writes a markdown report to w, styled when w is a terminal and
// verbatim otherwise so that pipes and files keep the plain text.
func Markdown(w io.Writer, markdown string) error {
	if !IsTerminal(w) {
		_, err := io.WriteString(w, markdown)
		return err
	}
	out, err := NewRenderer()(markdown)
	if err != nil {
		_, err = io.WriteString(w, markdown)
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

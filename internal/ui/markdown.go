package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

// RenderMarkdown writes md to stdout, styled when stdout is a terminal.
func RenderMarkdown(md string) {
	plain := !isatty.IsTerminal(os.Stdout.Fd()) || os.Getenv("NO_COLOR") != ""
	WriteMarkdown(os.Stdout, md, plain)
}

// WriteMarkdown renders md to w. plain selects glamour's no-colour style.
func WriteMarkdown(w io.Writer, md string, plain bool) {
	style := glamour.WithAutoStyle()
	if plain {
		style = glamour.WithStandardStyle("notty")
	}
	renderer, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(100),
	)
	if err != nil {
		// Fallback: print raw
		fmt.Fprintln(w, md)
		return
	}

	out, err := renderer.Render(md)
	if err != nil {
		fmt.Fprintln(w, md)
		return
	}

	fmt.Fprint(w, out)
}

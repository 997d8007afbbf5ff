// Package ui styles the operator-facing console output.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

type palette struct {
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
	Border  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var defaultPalette = palette{
	Text:    lipgloss.Color("#cdd6f4"),
	Muted:   lipgloss.Color("#a6adc8"),
	Accent:  lipgloss.Color("#cba6f7"),
	Border:  lipgloss.Color("#585b70"),
	Success: lipgloss.Color("#a6e3a1"),
	Warning: lipgloss.Color("#f9e2af"),
	Error:   lipgloss.Color("#f38ba8"),
}

// Theme renders styled text to one writer. Colors are dropped automatically
// when the writer is not a terminal.
type Theme struct {
	w io.Writer

	heading lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
}

// NewTheme returns a Theme writing to w.
func NewTheme(w io.Writer) *Theme {
	r := lipgloss.NewRenderer(w)
	p := defaultPalette
	return &Theme{
		w:       w,
		heading: r.NewStyle().Bold(true).Foreground(p.Accent),
		success: r.NewStyle().Bold(true).Foreground(p.Success),
		failure: r.NewStyle().Bold(true).Foreground(p.Error),
		warning: r.NewStyle().Foreground(p.Warning),
		muted:   r.NewStyle().Foreground(p.Muted),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
	}
}

// Writer is the underlying output.
func (t *Theme) Writer() io.Writer { return t.w }

// Heading prints a bold section title.
func (t *Theme) Heading(format string, a ...any) {
	fmt.Fprintln(t.w, t.heading.Render(fmt.Sprintf(format, a...)))
}

// Success prints a line prefixed with a check mark.
func (t *Theme) Success(format string, a ...any) {
	fmt.Fprintln(t.w, t.success.Render("✔ "+fmt.Sprintf(format, a...)))
}

// Failure prints a line prefixed with a cross.
func (t *Theme) Failure(format string, a ...any) {
	fmt.Fprintln(t.w, t.failure.Render("✘ "+fmt.Sprintf(format, a...)))
}

// Warning prints a line prefixed with "!".
func (t *Theme) Warning(format string, a ...any) {
	fmt.Fprintln(t.w, t.warning.Render("! "+fmt.Sprintf(format, a...)))
}

// Muted prints a dimmed hint.
func (t *Theme) Muted(format string, a ...any) {
	fmt.Fprintln(t.w, t.muted.Render(fmt.Sprintf(format, a...)))
}

// Plain prints an unstyled line.
func (t *Theme) Plain(format string, a ...any) {
	fmt.Fprintf(t.w, format+"\n", a...)
}

// Box prints body inside a rounded border.
func (t *Theme) Box(body string) {
	fmt.Fprintln(t.w, t.box.Render(body))
}

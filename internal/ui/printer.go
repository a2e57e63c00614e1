package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes UI components to a writer.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer. A nil writer means os.Stdout.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Width returns the width components are rendered at.
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width.
func (p *Printer) SetWidth(width int) {
	p.width = clampWidth(width)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader renders h at the printer width.
func (p *Printer) PrintHeader(h *Header) {
	p.Println(h.SetWidth(p.width).Render())
	p.Newline()
}

// PrintResult renders r at the printer width.
func (p *Printer) PrintResult(r *Result) {
	p.Newline()
	p.Println(r.SetWidth(p.width).Render())
}

// PrintTable renders a titled two-column table.
func (p *Printer) PrintTable(title string, rows []Field) {
	p.Println(Table(title, rows))
}

// Table renders rows as aligned key/value lines under a title.
func Table(title string, rows []Field) string {
	keyWidth := 0
	for _, r := range rows {
		keyWidth = max(keyWidth, lipgloss.Width(r.Key))
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(TableHeaderStyle.Render(title))
		b.WriteByte('\n')
	}
	keyStyle := lipgloss.NewStyle().Foreground(MutedColor).Width(keyWidth + 2)
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(keyStyle.Render(r.Key))
		b.WriteString(ResultValueStyle.Render(r.Value))
		b.WriteByte('\n')
	}
	return b.String()
}

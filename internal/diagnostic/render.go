package diagnostic

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Display selects how Render formats diagnostics (§6.3).
type Display int

const (
	Plain Display = iota
	AnsiColor
)

// styles mirrors the muted/bold/error palette the CLI's own renderer uses
// elsewhere for status output, scoped down to what a diagnostic needs.
type styles struct {
	class   lipgloss.Style
	code    lipgloss.Style
	message lipgloss.Style
	caret   lipgloss.Style
	hint    lipgloss.Style
}

func plainStyles() styles {
	id := lipgloss.NewStyle()
	return styles{class: id, code: id, message: id, caret: id, hint: id}
}

func ansiStyles() styles {
	return styles{
		class:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		code:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		message: lipgloss.NewStyle().Bold(true),
		caret:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Render formats errs in source order, one diagnostic per error (§7
// "prints one diagnostic per error in source order"), with a caret under
// the offending span when Error.HasSpan and src is non-empty.
func Render(errs []*Error, src string, display Display) string {
	st := plainStyles()
	if display == AnsiColor {
		st = ansiStyles()
	}

	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeOne(&b, e, src, st)
	}
	return b.String()
}

func writeOne(b *strings.Builder, e *Error, src string, st styles) {
	label := st.class.Render(e.Class.String() + " error")
	if e.Code != "" {
		label += " " + st.code.Render("["+e.Code+"]")
	}
	fmt.Fprintf(b, "%s: %s\n", label, st.message.Render(e.Reason))

	if e.HasSpan && src != "" {
		if line, col, text, ok := locate(src, int(e.Span.Start)); ok {
			fmt.Fprintf(b, "  %d:%d | %s\n", line, col, text)
			b.WriteString("       | ")
			b.WriteString(st.caret.Render(strings.Repeat(" ", col-1) + "^"))
			b.WriteByte('\n')
		}
	}

	for _, h := range e.Hints {
		b.WriteString(st.hint.Render("  hint: " + h))
		b.WriteByte('\n')
	}
}

// locate finds the 1-based line/column of a byte offset and returns that
// line's text, for the caret display.
func locate(src string, offset int) (line, col int, text string, ok bool) {
	if offset < 0 || offset > len(src) {
		return 0, 0, "", false
	}
	line = 1
	lineStart := 0
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := strings.IndexByte(src[lineStart:], '\n')
	if lineEnd < 0 {
		text = src[lineStart:]
	} else {
		text = src[lineStart : lineStart+lineEnd]
	}
	col = offset - lineStart + 1
	return line, col, text, true
}

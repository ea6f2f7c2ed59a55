// Package colorize adds terminal colour to listing rows. Plain rendering in
// the analysis package stays colour-free; this package only decorates it.
package colorize

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss/v2"

	"merlview/internal/analysis"
	merlstyles "merlview/internal/merlview/styles"
)

var disabled atomic.Bool

// SetEnabled turns colouring on or off for the whole process, e.g. when
// stdout is not a terminal.
func SetEnabled(on bool) {
	disabled.Store(!on)
}

// Enabled reports whether output should be coloured. MERLVIEW_NO_COLOR always wins.
func Enabled() bool {
	return !disabled.Load() && os.Getenv("MERLVIEW_NO_COLOR") == ""
}

// getAssemblyLexer returns an assembly lexer with fallbacks
func getAssemblyLexer() chroma.Lexer {
	for _, name := range []string{"gas", "GAS", "nasm"} {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getListingStyle returns the listing style with fallbacks
func getListingStyle() *chroma.Style {
	for _, name := range []string{"merl-dark", "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeAssembly applies syntax highlighting to MIPS assembly text.
func ColorizeAssembly(code string) (string, error) {
	if !Enabled() || code == "" {
		return code, nil
	}

	lexer := getAssemblyLexer()
	if lexer == nil {
		return code, nil
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getListingStyle(), iterator); err != nil {
		return code, err
	}
	// Lexers append a newline; the column is a single line.
	return strings.ReplaceAll(buf.String(), "\n", ""), nil
}

func fg(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}

// CategoryStyle returns the lipgloss style for a category label.
func CategoryStyle(c analysis.Category) lipgloss.Style {
	if hex, ok := merlstyles.CategoryColors[c.String()]; ok {
		return fg(hex)
	}
	return fg(merlstyles.Foreground)
}

// ColorizeRow renders a listing line like analysis.FormatRow, with colour.
// Columns are padded before styling so alignment matches the plain output.
func ColorizeRow(row analysis.Row, opts analysis.RenderOptions) string {
	if !Enabled() {
		return analysis.FormatRow(row, opts)
	}

	offset := fg(merlstyles.Rule).Render(fmt.Sprintf("%08X", row.Offset))
	raw := fg(merlstyles.Muted).Render(fmt.Sprintf("%-12s", analysis.FormatRaw(row, opts.ShowHex)))
	cat := CategoryStyle(row.Category).Render(fmt.Sprintf("%-8s", row.Category))
	desc := fmt.Sprintf("%-20s", row.Description)

	line := strings.Join([]string{offset, raw, cat, desc}, " ")
	if !opts.ShowAssembly || row.Assembly == "" {
		return strings.TrimRight(line, " ")
	}

	asm := row.Assembly
	switch row.Category {
	case analysis.CategoryCode:
		if colored, err := ColorizeAssembly(asm); err == nil {
			asm = colored
		}
	case analysis.CategoryESR, analysis.CategoryESD:
		asm = fg(merlstyles.Symbol).Render(asm)
	default:
		asm = fg(merlstyles.Subtle).Render(asm)
	}
	return line + " " + asm
}

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

package analysis

import (
	"fmt"
	"io"
	"strings"
)

// ExportFormat selects the serialization of a rendered report.
type ExportFormat int

const (
	FormatPlain ExportFormat = iota
	FormatMarkdown
)

func (f ExportFormat) String() string {
	if f == FormatMarkdown {
		return "markdown"
	}
	return "plain"
}

// RenderOptions controls how a report is serialized.
type RenderOptions struct {
	ShowHex      bool // raw words as 0x%08X, otherwise zero-padded decimal
	ShowAssembly bool
	Format       ExportFormat
	Title        string // usually the input file name
}

// DefaultRenderOptions returns hex values, assembly on, plain text.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{ShowHex: true, ShowAssembly: true, Format: FormatPlain}
}

const bannerWidth = 80

// Render serializes r. Rendering never modifies the report, so the same
// report always renders to the same string.
func Render(r *Report, opts RenderOptions) string {
	var sb strings.Builder
	_ = Write(&sb, r, opts)
	return sb.String()
}

// Write renders r to w.
func Write(w io.Writer, r *Report, opts RenderOptions) error {
	if opts.Format == FormatMarkdown {
		return writeMarkdown(w, r, opts)
	}
	return writePlain(w, r, opts)
}

// FormatRaw renders the raw column of a row.
func FormatRaw(row Row, showHex bool) string {
	switch {
	case row.Incomplete():
		return "<incomplete>"
	case showHex:
		return fmt.Sprintf("0x%08X", row.Raw)
	default:
		return fmt.Sprintf("%010d", row.Raw)
	}
}

// FormatRow renders one plain-text listing line without a trailing newline.
func FormatRow(row Row, opts RenderOptions) string {
	line := fmt.Sprintf("%08X %-12s %-8s %-20s", row.Offset, FormatRaw(row, opts.ShowHex), row.Category, row.Description)
	if opts.ShowAssembly && row.Assembly != "" {
		line += " " + row.Assembly
	}
	return strings.TrimRight(line, " ")
}

// HeaderLine returns the column titles matching FormatRow.
func HeaderLine(opts RenderOptions) string {
	line := fmt.Sprintf("%-8s %-12s %-8s %-20s", "Offset", "Raw Value", "Category", "Description")
	if opts.ShowAssembly {
		line += " Assembly"
	}
	return strings.TrimRight(line, " ")
}

func writePlain(w io.Writer, r *Report, opts RenderOptions) error {
	var sb strings.Builder
	rule := strings.Repeat("=", bannerWidth)

	sb.WriteString(rule + "\n")
	sb.WriteString("MERL File Visualization")
	if opts.Title != "" {
		sb.WriteString(": " + opts.Title)
	}
	sb.WriteString("\n" + rule + "\n")
	for _, kv := range summary(r) {
		fmt.Fprintf(&sb, "%s: %s\n", kv[0], kv[1])
	}
	sb.WriteString("\n")

	sb.WriteString(HeaderLine(opts) + "\n")
	sb.WriteString(strings.Repeat("-", bannerWidth) + "\n")
	for _, row := range r.Rows {
		sb.WriteString(FormatRow(row, opts) + "\n")
	}

	if entries := r.Entries(); len(entries) > 0 {
		sb.WriteString("\nSymbol Table:\n")
		for _, e := range entries {
			sb.WriteString("  " + EntrySummary(e) + "\n")
		}
	}

	if errs := SplitErrors(r.Err); len(errs) > 0 {
		sb.WriteString("\nDiagnostics:\n")
		for _, err := range errs {
			sb.WriteString("  - " + err.Error() + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeMarkdown(w io.Writer, r *Report, opts RenderOptions) error {
	var sb strings.Builder

	sb.WriteString("# MERL File Analysis")
	if opts.Title != "" {
		sb.WriteString(": " + mdEscape(opts.Title))
	}
	sb.WriteString("\n\n## File Information\n\n")
	for _, kv := range summary(r) {
		fmt.Fprintf(&sb, "- **%s**: %s\n", kv[0], kv[1])
	}

	sb.WriteString("\n## MERL File Contents\n\n")
	if opts.ShowAssembly {
		sb.WriteString("| Offset | Raw Value | Category | Description | Assembly |\n")
		sb.WriteString("|--------|-----------|----------|-------------|----------|\n")
	} else {
		sb.WriteString("| Offset | Raw Value | Category | Description |\n")
		sb.WriteString("|--------|-----------|----------|-------------|\n")
	}
	for _, row := range r.Rows {
		fmt.Fprintf(&sb, "| 0x%08X | `%s` | %s | %s |", row.Offset, FormatRaw(row, opts.ShowHex), row.Category, mdEscape(row.Description))
		if opts.ShowAssembly {
			asm := ""
			if row.Assembly != "" {
				asm = "`" + mdEscape(row.Assembly) + "`"
			}
			fmt.Fprintf(&sb, " %s |", asm)
		}
		sb.WriteString("\n")
	}

	if entries := r.Entries(); len(entries) > 0 {
		sb.WriteString("\n## Symbol Table\n\n")
		sb.WriteString("| Kind | Offset | Address | Length | Name |\n")
		sb.WriteString("|------|--------|---------|--------|------|\n")
		for _, e := range entries {
			length, name := "", ""
			if e.Kind != EntryRelocation {
				length = fmt.Sprint(e.Length)
				name = "`" + mdEscape(EscapeUnprintable(e.Name)) + "`"
			}
			fmt.Fprintf(&sb, "| %s | 0x%08X | 0x%08X | %s | %s |\n", e.Kind, e.Offset, e.Address, length, name)
		}
	}

	if errs := SplitErrors(r.Err); len(errs) > 0 {
		sb.WriteString("\n## Diagnostics\n\n")
		for _, err := range errs {
			sb.WriteString("- " + mdEscape(err.Error()) + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// EntrySummary is the one-line description of a symbol table entry.
func EntrySummary(e Entry) string {
	if e.Kind == EntryRelocation {
		return fmt.Sprintf("%-3s @0x%08X address=0x%08X", e.Kind, e.Offset, e.Address)
	}
	return fmt.Sprintf("%-3s @0x%08X address=0x%08X length=%d name=%q", e.Kind, e.Offset, e.Address, e.Length, EscapeUnprintable(e.Name))
}

func summary(r *Report) [][2]string {
	out := [][2]string{}
	if l := r.Layout; l != nil {
		rel := "No"
		if l.HasRelocation() {
			rel = "Yes"
		}
		out = append(out,
			[2]string{"Format", l.Format.String()},
			[2]string{"Code Size", fmt.Sprintf("%d bytes", l.CodeSize)},
		)
		if l.HasRelocation() {
			out = append(out,
				[2]string{"End of Code", fmt.Sprintf("0x%08X", l.EndOfCode)},
				[2]string{"End of Module", fmt.Sprintf("0x%08X", l.EndOfModule)},
			)
		}
		out = append(out, [2]string{"Has Relocation Records", rel})
	} else {
		out = append(out, [2]string{"Format", "Unknown"})
	}
	out = append(out, [2]string{"Total Size", fmt.Sprintf("%d bytes", r.TotalBytes)})
	return out
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

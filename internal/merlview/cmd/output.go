package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"merlview/internal/analysis"
	"merlview/internal/merlview/styles"
	"merlview/internal/ui/colorize"
)

// errDiagnostics marks a run whose listing was printed but whose module
// carried analysis errors; it only decides the exit status.
var errDiagnostics = errors.New("module has diagnostics")

// JSONOutput represents the JSON output structure for regression testing
type JSONOutput struct {
	File        string         `json:"file"`
	Format      string         `json:"format"`
	TotalBytes  int            `json:"total_bytes"`
	CodeStart   int            `json:"code_start"`
	CodeEnd     int            `json:"code_end"`
	ModuleEnd   int            `json:"module_end"`
	CodeSize    int            `json:"code_size"`
	Rows        int            `json:"rows"`
	Categories  map[string]int `json:"categories"`
	Entries     []JSONEntry    `json:"entries"`
	Diagnostics []string       `json:"diagnostics"`
}

// JSONEntry is one symbol table entry in JSON output
type JSONEntry struct {
	Kind    string `json:"kind"`
	Offset  string `json:"offset"`
	Address string `json:"address"`
	Length  uint32 `json:"length,omitempty"`
	Name    string `json:"name,omitempty"`
}

// sanitizeForJSON cleans a string to be valid UTF-8 and safe for JSON encoding
func sanitizeForJSON(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

func buildJSON(path string, r *analysis.Report) JSONOutput {
	out := JSONOutput{
		File:        displayName(path),
		Format:      "Unknown",
		TotalBytes:  r.TotalBytes,
		Rows:        len(r.Rows),
		Categories:  map[string]int{},
		Entries:     []JSONEntry{},
		Diagnostics: []string{},
	}
	if l := r.Layout; l != nil {
		out.Format = l.Format.String()
		out.CodeStart = l.CodeStart
		out.CodeEnd = l.CodeEnd
		out.ModuleEnd = l.ModuleEnd
		out.CodeSize = l.CodeSize
	}
	for _, row := range r.Rows {
		out.Categories[row.Category.String()]++
	}
	for _, e := range r.Entries() {
		out.Entries = append(out.Entries, JSONEntry{
			Kind:    e.Kind.String(),
			Offset:  fmt.Sprintf("0x%08X", e.Offset),
			Address: fmt.Sprintf("0x%08X", e.Address),
			Length:  e.Length,
			Name:    sanitizeForJSON(e.Name),
		})
	}
	for _, err := range analysis.SplitErrors(r.Err) {
		out.Diagnostics = append(out.Diagnostics, err.Error())
	}
	return out
}

func runJSON(w io.Writer, path string, opts options) error {
	r, err := opts.analyzeFile(path)
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}

	jsonData, err := json.MarshalIndent(buildJSON(path, r), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(jsonData))

	if r.Err != nil {
		return errDiagnostics
	}
	return nil
}

// runNoTUI prints the listing of one file. Markdown goes through glamour when
// colour is on; the plain listing is coloured row by row.
func runNoTUI(w io.Writer, path string, opts options) error {
	r, err := opts.analyzeFile(path)
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}

	ropts := opts.render
	ropts.Title = displayName(path)

	switch {
	case opts.markdown:
		ropts.Format = analysis.FormatMarkdown
		md := analysis.Render(r, ropts)
		if colorize.Enabled() {
			md = styles.RenderMarkdown(md, 120)
		}
		if _, err := io.WriteString(w, md); err != nil {
			return err
		}
	case colorize.Enabled():
		if _, err := io.WriteString(w, colorListing(r, ropts)); err != nil {
			return err
		}
	default:
		if err := analysis.Write(w, r, ropts); err != nil {
			return err
		}
	}

	if opts.export {
		dest := opts.exportPath(path)
		if err := exportMarkdown(dest, r, ropts); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nMarkdown table exported to: %s\n", dest)
	}

	if r.Err != nil {
		slog.Debug("analysis finished with diagnostics", "file", path, "error", r.Err)
		return errDiagnostics
	}
	return nil
}

func exportMarkdown(dest string, r *analysis.Report, ropts analysis.RenderOptions) error {
	ropts.Format = analysis.FormatMarkdown
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := analysis.Write(f, r, ropts); err != nil {
		f.Close()
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return f.Close()
}

// colorListing is the plain listing with coloured rows. The banner and
// summary blocks come from the plain renderer unchanged.
func colorListing(r *analysis.Report, ropts analysis.RenderOptions) string {
	plain := analysis.Render(r, ropts)
	lines := strings.Split(plain, "\n")

	rowIdx := 0
	for i, line := range lines {
		if rowIdx >= len(r.Rows) {
			break
		}
		if line == analysis.FormatRow(r.Rows[rowIdx], ropts) {
			lines[i] = colorize.ColorizeRow(r.Rows[rowIdx], ropts)
			rowIdx++
		}
	}
	return strings.Join(lines, "\n")
}

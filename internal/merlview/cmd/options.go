package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"merlview/internal/analysis"
	"merlview/internal/detectors"
	"merlview/internal/merlx"
)

// stdinPath names standard input in place of a file argument.
const stdinPath = "-"

// options is the resolved view of flags and config file for one invocation.
type options struct {
	render   analysis.RenderOptions
	names    string
	maxStray int
	markdown bool
	export   bool
	output   string
	noColor  bool
	stdin    io.Reader
}

func defaultOptions() options {
	return options{
		render:   analysis.DefaultRenderOptions(),
		names:    "lowbyte",
		maxStray: analysis.DefaultMaxStrayWords,
	}
}

// resolveOptions merges the --config file with the command's flags. Flags
// only override the file when they were set explicitly.
func resolveOptions(cmd *cobra.Command) (options, error) {
	opts := defaultOptions()
	opts.stdin = cmd.InOrStdin()
	flags := cmd.Flags()

	if path, _ := flags.GetString("config"); path != "" {
		cfg, err := LoadConfig(path)
		if err != nil {
			return opts, err
		}
		if cfg.ShowHex != nil {
			opts.render.ShowHex = *cfg.ShowHex
		}
		if cfg.ShowAssembly != nil {
			opts.render.ShowAssembly = *cfg.ShowAssembly
		}
		if cfg.Names != "" {
			opts.names = cfg.Names
		}
		if cfg.MaxStray > 0 {
			opts.maxStray = cfg.MaxStray
		}
		opts.noColor = cfg.NoColor
	}

	if flags.Lookup("no-hex") != nil && flags.Changed("no-hex") {
		noHex, _ := flags.GetBool("no-hex")
		opts.render.ShowHex = !noHex
	}
	if flags.Lookup("no-assembly") != nil && flags.Changed("no-assembly") {
		noAsm, _ := flags.GetBool("no-assembly")
		opts.render.ShowAssembly = !noAsm
	}
	if flags.Lookup("names") != nil && flags.Changed("names") {
		opts.names, _ = flags.GetString("names")
	}
	if flags.Lookup("max-stray") != nil && flags.Changed("max-stray") {
		opts.maxStray, _ = flags.GetInt("max-stray")
		if opts.maxStray <= 0 {
			return opts, fmt.Errorf("--max-stray must be positive")
		}
	}
	if flags.Lookup("markdown") != nil {
		opts.markdown, _ = flags.GetBool("markdown")
	}
	if flags.Lookup("export") != nil {
		opts.export, _ = flags.GetBool("export")
	}
	if flags.Lookup("output") != nil {
		opts.output, _ = flags.GetString("output")
		if opts.output != "" {
			opts.export = true
		}
	}

	if _, err := analysis.NameDecoderFor(opts.names); err != nil {
		return opts, err
	}
	return opts, nil
}

// newAnalyzer builds the analyzer the options describe.
func (o options) newAnalyzer() *analysis.Analyzer {
	a := analysis.NewAnalyzer(detectors.Default()...)
	if dec, err := analysis.NameDecoderFor(o.names); err == nil {
		a.Symbols.DecodeName = dec
	}
	a.Symbols.MaxStrayWords = o.maxStray
	return a
}

// openStream reads path, or all of in when path is "-".
func openStream(in io.Reader, path string) (*merlx.Stream, error) {
	if path == stdinPath {
		if in == nil {
			return nil, fmt.Errorf("no standard input")
		}
		return merlx.ReadFrom(in)
	}
	return merlx.Open(path)
}

// displayName is the title used for path in listings.
func displayName(path string) string {
	if path == stdinPath {
		return "<stdin>"
	}
	return filepath.Base(path)
}

// analyzeFile reads path and analyzes it. The error is only non-nil when the
// file could not be read; analysis diagnostics live in Report.Err.
func (o options) analyzeFile(path string) (*analysis.Report, error) {
	s, err := openStream(o.stdin, path)
	if err != nil {
		return nil, err
	}
	r, _ := o.newAnalyzer().AnalyzeStream(s)
	return r, nil
}

// exportPath returns where --export writes the Markdown table.
func (o options) exportPath(input string) string {
	if o.output != "" {
		return o.output
	}
	if input == stdinPath {
		return "stdin_merl_table.md"
	}
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	return stem + "_merl_table.md"
}

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [file...]",
	Short: "Analyze one or more modules non-interactively",
	Long: `Run the analysis on each file in non-interactive mode and exit.
Every listing is printed even when an earlier file reports diagnostics; the exit
status is non-zero if any file did.`,
	Example: `
# List several modules
merlview run a.merl b.merl

# Export Markdown tables next to each input, without the listing
merlview run -q --export *.merl
  `,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var failed []string
		for i, path := range args {
			if quiet {
				slog.Info("Running analysis", "file", path)
			} else if i > 0 {
				fmt.Fprintln(out)
			}

			var err error
			if quiet {
				err = runExportOnly(out, path, opts)
			} else {
				err = runNoTUI(out, path, opts)
			}
			switch {
			case errors.Is(err, errDiagnostics):
				failed = append(failed, path)
			case err != nil:
				return err
			}
		}

		if len(failed) > 0 {
			return fmt.Errorf("%d of %d files reported diagnostics: %w", len(failed), len(args), errDiagnostics)
		}
		return nil
	},
}

// runExportOnly analyzes path, writes the export file when asked and prints
// only the diagnostics.
func runExportOnly(w io.Writer, path string, opts options) error {
	r, err := opts.analyzeFile(path)
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}
	if opts.export {
		ropts := opts.render
		ropts.Title = displayName(path)
		if err := exportMarkdown(opts.exportPath(path), r, ropts); err != nil {
			return err
		}
	}
	if r.Err != nil {
		fmt.Fprintf(w, "%s: %v\n", path, r.Err)
		return errDiagnostics
	}
	return nil
}

func init() {
	runCmd.Flags().BoolP("quiet", "q", false, "Only print diagnostics")
	addListingFlags(runCmd)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"merlview/internal/merlview/log"
	"merlview/internal/ui/colorize"
)

// addListingFlags registers the flags shared by the root and run commands.
func addListingFlags(c *cobra.Command) {
	c.Flags().Bool("no-hex", false, "Print raw words in decimal")
	c.Flags().Bool("no-assembly", false, "Hide the assembly column")
	c.Flags().BoolP("markdown", "m", false, "Print the listing as Markdown")
	c.Flags().BoolP("export", "e", false, "Also write a Markdown table to <file>_merl_table.md")
	c.Flags().StringP("output", "o", "", "Path of the exported Markdown table (implies --export)")
	c.Flags().String("names", "lowbyte", "Symbol name decoding: lowbyte or codepoint")
	c.Flags().Int("max-stray", 256, "Unrecognized symbol table words tolerated before giving up")
}

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().String("config", "", "JSON configuration file")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Print the listing without the TUI")
	rootCmd.Flags().BoolP("json", "j", false, "Output results as JSON for regression testing")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")
	addListingFlags(rootCmd)

	rootCmd.AddCommand(runCmd)
}

var rootCmd = &cobra.Command{
	Use:   "merlview [file|-]",
	Short: "Terminal-based MERL object file analyzer",
	Long: `Merlview decodes MERL object modules produced by the MIPS-subset assembler.
It detects the header format, disassembles the code segment, parses the
relocation and external symbol table, and shows every word with its meaning.`,
	Example: `
# Explore a module interactively
merlview program.merl

# Print the listing with decimal raw values
merlview -n --no-hex program.merl

# Export a Markdown table next to the input
merlview -n --export program.merl

# Read a module from standard input
cat program.merl | merlview -
  `,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		if path, _ := cmd.Flags().GetString("config"); path != "" && !debug {
			if cfg, err := LoadConfig(path); err == nil {
				debug = cfg.Debug
			}
		}
		if debug {
			os.Setenv("MERLVIEW_LOG_LEVEL", "debug")
		}
		logFile, _ := cmd.Flags().GetString("log-file")
		log.Setup(logFile, debug)

		if _, err := ResolveCwd(cmd); err != nil {
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup CPU profiling if requested
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		// Setup memory profiling if requested
		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")

		absPath := args[0]
		if absPath == stdinPath {
			// the TUI needs the terminal on stdin
			noTUI = true
		} else {
			absPath, err = pathpkg.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve path: %v", err)
			}
			if _, err := os.Stat(absPath); err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("file not found: %s", args[0])
				}
				return fmt.Errorf("cannot access file: %v", err)
			}
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")

		// Markdown and export are batch outputs
		if opts.markdown || opts.export {
			noTUI = true
		}

		// Also use no-tui mode and plain text when output is being piped
		if !term.IsTerminal(os.Stdout.Fd()) {
			noTUI = true
			colorize.SetEnabled(false)
		}
		if opts.noColor {
			colorize.SetEnabled(false)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return runJSON(out, absPath, opts)
		}
		if noTUI {
			return runNoTUI(out, absPath, opts)
		}

		program := tea.NewProgram(
			NewModel(absPath, opts),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		final, err := program.Run()
		if err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		if m, ok := final.(model); ok && m.report != nil && m.report.Err != nil {
			return errDiagnostics
		}
		return nil
	},
}

func Execute() {
	// Bypass fang's styled output for batch modes and pipes
	noTUI := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--no-tui", "-n", "--json", "-j", "--markdown", "-m", "run", "words", stdinPath:
			noTUI = true
		}
	}
	if !noTUI && !term.IsTerminal(os.Stdout.Fd()) {
		noTUI = true
	}

	var err error
	if noTUI {
		err = rootCmd.Execute()
	} else {
		err = fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		)
	}
	if cerr := log.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "close log file: %v\n", cerr)
	}
	if err != nil {
		if errors.Is(err, errDiagnostics) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"merlview/internal/merlx"
)

var wordsCmd = &cobra.Command{
	Use:   "words [file|-]",
	Short: "Dump the raw big-endian words of a file",
	Long: `Print every complete 32-bit word of a file in hexadecimal, one per line,
without interpreting the MERL structure.`,
	Example: `
# Dump a module
merlview words program.merl

# Prefix each word with its offset
merlview words --offsets program.merl
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offsets, _ := cmd.Flags().GetBool("offsets")
		return runWords(cmd.OutOrStdout(), cmd.InOrStdin(), args[0], offsets)
	},
}

func runWords(w io.Writer, in io.Reader, path string, offsets bool) error {
	s, err := openStream(in, path)
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}

	for off := 0; off < s.AlignedLen(); off += merlx.WordSize {
		word, _ := s.WordAt(off)
		if offsets {
			fmt.Fprintf(w, "%08X: 0x%08X\n", off, word)
		} else {
			fmt.Fprintf(w, "0x%08X\n", word)
		}
	}
	if s.HasPartial() {
		_, rest := s.Partial()
		fmt.Fprintf(w, "Warning: Incomplete word at end of file: %d bytes\n", len(rest))
	}
	return nil
}

func init() {
	wordsCmd.Flags().Bool("offsets", false, "Prefix each word with its byte offset")
	rootCmd.AddCommand(wordsCmd)
}

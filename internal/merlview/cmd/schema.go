package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"merlview/internal/analysis"
)

// Config is the optional JSON configuration file read with --config.
// Flags given on the command line override its values.
type Config struct {
	Debug        bool   `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	ShowHex      *bool  `json:"showHex,omitempty" jsonschema:"title=Show Hex,description=Print raw words in hexadecimal instead of decimal,default=true"`
	ShowAssembly *bool  `json:"showAssembly,omitempty" jsonschema:"title=Show Assembly,description=Print the assembly column,default=true"`
	Names        string `json:"names,omitempty" jsonschema:"title=Name Decoding,description=How ESR/ESD name words become characters,enum=lowbyte,enum=codepoint,default=lowbyte"`
	MaxStray     int    `json:"maxStray,omitempty" jsonschema:"title=Max Stray Words,description=Unrecognized symbol table words tolerated before giving up,minimum=1,default=256"`
	NoColor      bool   `json:"noColor,omitempty" jsonschema:"title=No Color,description=Disable ANSI colours"`
}

// LoadConfig reads a JSON config file. Unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Names != "" {
		if _, err := analysis.NameDecoderFor(cfg.Names); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if cfg.MaxStray < 0 {
		return cfg, fmt.Errorf("config %s: maxStray must be positive", path)
	}
	return cfg, nil
}

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate JSON schema for configuration",
	Long:   "Generate JSON schema for the merlview configuration file",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := new(jsonschema.Reflector)
		bts, err := json.MarshalIndent(reflector.Reflect(&Config{}), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

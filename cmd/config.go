package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/bpsniff/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration bpsniff would run with, after the config file,
BPSNIFF_* environment overrides and defaults are applied. The output is valid
input for --config.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConfigShow(cfg, os.Stdout); err != nil {
			exitWithError("failed to print config", err)
		}
	},
}

func runConfigShow(c *config.GlobalConfig, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]*config.GlobalConfig{"bpsniff": c}); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

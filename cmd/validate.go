package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/bpsniff/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a bpsniff configuration file (YAML) without starting capture.

Unlike --config, a missing file is an error here.

Examples:
  bpsniff validate -f bpsniff.yml`,
	// Validation must not depend on the config it is checking.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(validateConfigFile, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
			os.Exit(1)
		}
	},
}

var validateConfigFile string

func init() {
	validateCmd.Flags().StringVarP(&validateConfigFile, "file", "f", "",
		"configuration file to validate (required)")
	validateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string, w io.Writer) error {
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	device := "auto"
	if c.Capture.Device >= 0 {
		device = fmt.Sprintf("#%d", c.Capture.Device)
	}
	fmt.Fprintf(w, "VALID: device %s via %s, filter %q, queue %d, console=%t websocket=%t metrics=%t\n",
		device,
		c.Capture.Backend,
		c.Capture.BPFFilter,
		c.Sink.QueueCapacity,
		c.Sink.Console.Enabled,
		c.Sink.WebSocket.Enabled,
		c.Metrics.Enabled,
	)
	return nil
}

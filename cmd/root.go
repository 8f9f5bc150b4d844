// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/bpsniff/internal/config"
	"firestige.xyz/bpsniff/internal/log"
)

var (
	// Global flags
	configFile string
	logLevel   string

	// cfg is loaded before any subcommand runs.
	cfg *config.GlobalConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bpsniff",
	Short: "bpsniff - passive combat telemetry from game traffic",
	Long: `bpsniff passively captures the TCP traffic of the game client, finds the game
server conversation, reassembles and decodes its frames, and emits combat and
position events (damage, healing, names, entity positions, module data).

Events are printed to stdout and can be served to local tools over a websocket
feed. Nothing is ever sent to the game server.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "bpsniff.yml",
		"config file path (defaults apply when it does not exist)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override log level (debug|info|warn|error)")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() error {
	c, err := config.LoadOrDefault(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if err := log.Init(c.Log); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	cfg = c
	return nil
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}

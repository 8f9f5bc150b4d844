package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/bpsniff/internal/capture"
	"firestige.xyz/bpsniff/internal/device"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file.pcap>",
	Short: "Decode events from a capture file",
	Long: `Feed a pcap file through the same pipeline as live capture and print the
events. Packet timestamps drive the reassembly and idle timers, so a replay
behaves the way the original capture did.

Examples:
  bpsniff replay session.pcap
  bpsniff replay --filter "tcp port 5003" session.pcap`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runReplay(args[0]); err != nil {
			exitWithError("replay failed", err)
		}
	},
}

var replayFilter string

func init() {
	replayCmd.Flags().StringVarP(&replayFilter, "filter", "f", "tcp",
		"BPF filter applied to the file")
}

func runReplay(path string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	devs := []device.Device{{Index: 0, Name: path, DisplayName: filepath.Base(path)}}
	open := func(d device.Device) (capture.Source, error) {
		return capture.OpenOffline(d.Name, replayFilter)
	}
	return session{
		cfg:     cfg,
		devices: devs,
		open:    open,
		out:     os.Stdout,
	}.run(ctx)
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/bpsniff/internal/capture"
	"firestige.xyz/bpsniff/internal/core"
	"firestige.xyz/bpsniff/internal/device"
	"firestige.xyz/bpsniff/internal/log"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture live traffic and print events",
	Long: `Capture live traffic on one interface and emit decoded events until
interrupted (SIGINT, SIGTERM).

Without --device the interface is picked automatically: the default-route
interface first, then the first wired and then wireless interface that is up
with an IPv4 address. Connected websocket clients may switch the device at any
time with {"type":"switch_device","index":N}.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCapture(); err != nil {
			exitWithError("capture failed", err)
		}
	},
}

var (
	captureDevice  int
	captureBackend string
)

func init() {
	captureCmd.Flags().IntVarP(&captureDevice, "device", "d", -1,
		"device index from 'bpsniff devices' (-1: config or auto-select)")
	captureCmd.Flags().StringVarP(&captureBackend, "backend", "b", "",
		"capture backend: pcap | afpacket (default from config)")
}

func runCapture() error {
	if captureBackend != "" {
		cfg.Capture.Backend = captureBackend
	}
	if captureDevice >= 0 {
		cfg.Capture.Device = captureDevice
	}

	devs, auto, err := device.Auto()
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		return core.ErrNoDevices
	}
	initial := auto
	if cfg.Capture.Device >= 0 {
		if _, err := device.ByIndex(devs, cfg.Capture.Device); err != nil {
			return err
		}
		initial = cfg.Capture.Device
	}

	open, err := capture.NewOpener(cfg.Capture)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.WithComponent("cmd").
		WithField("device", initial).
		WithField("backend", cfg.Capture.Backend).
		Info("starting capture")

	return session{
		cfg:     cfg,
		devices: devs,
		initial: initial,
		open:    open,
		out:     os.Stdout,
		live:    true,
	}.run(ctx)
}

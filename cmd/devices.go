package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"firestige.xyz/bpsniff/internal/core"
	"firestige.xyz/bpsniff/internal/device"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture devices",
	Long: `List the interfaces available for capture with their index, kind and
addresses. The device that would be picked automatically is marked with '*'.

Pass the index to 'bpsniff capture --device N' to capture on a specific one.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDevices(systemDevices{}, os.Stdout); err != nil {
			exitWithError("failed to list devices", err)
		}
	},
}

// deviceSource abstracts the host for tests.
type deviceSource interface {
	List() ([]device.Device, error)
	DefaultInterface() (string, error)
}

type systemDevices struct{}

func (systemDevices) List() ([]device.Device, error)     { return device.List() }
func (systemDevices) DefaultInterface() (string, error) { return device.DefaultRouteInterface() }

func runDevices(src deviceSource, w io.Writer) error {
	devs, err := src.List()
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		return core.ErrNoDevices
	}
	iface, _ := src.DefaultInterface()
	selected := device.Select(devs, iface)

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"", "Index", "Device", "Kind", "Up", "Addresses"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, d := range devs {
		mark := ""
		if d.Index == selected {
			mark = "*"
		}
		addrs := make([]string, 0, len(d.Addresses))
		for _, a := range d.Addresses {
			addrs = append(addrs, a.String())
		}
		tw.Append([]string{
			mark,
			strconv.Itoa(d.Index),
			d.DisplayName,
			d.Kind.String(),
			strconv.FormatBool(d.Up),
			strings.Join(addrs, ", "),
		})
	}
	tw.Render()

	if iface != "" {
		fmt.Fprintf(w, "default route: %s\n", iface)
	}
	return nil
}

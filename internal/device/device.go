// Package device enumerates capture interfaces and picks a sensible default.
package device

import (
	"fmt"
	"net"
	"net/netip"
	"regexp"
	"slices"
	"strings"

	"github.com/google/gopacket/pcap"
	psnet "github.com/shirou/gopsutil/v3/net"

	"firestige.xyz/bpsniff/internal/core"
)

// Kind is the heuristic classification of an interface.
type Kind int

const (
	KindUnknown Kind = iota
	KindEthernet
	KindWiFi
	KindVirtual
)

func (k Kind) String() string {
	switch k {
	case KindEthernet:
		return "ethernet"
	case KindWiFi:
		return "wifi"
	case KindVirtual:
		return "virtual"
	default:
		return "unknown"
	}
}

// Device is one capture interface in enumeration order.
type Device struct {
	Index       int
	Name        string // name passed to the capture library
	Description string
	DisplayName string
	Addresses   []netip.Addr
	Up          bool
	Kind        Kind
}

// HasUsableIPv4 reports whether d holds an IPv4 address that is neither
// unspecified, loopback nor link-local.
func (d Device) HasUsableIPv4() bool {
	return slices.ContainsFunc(d.Addresses, usableIPv4)
}

func usableIPv4(a netip.Addr) bool {
	return a.Is4() && !a.IsUnspecified() && !a.IsLoopback() && !a.IsLinkLocalUnicast()
}

// Seams for tests.
var (
	findAllDevs  = pcap.FindAllDevs
	osInterfaces = psnet.Interfaces
)

// pcapIfUp is PCAP_IF_UP.
const pcapIfUp = 0x00000002

// List enumerates the capture interfaces.
func List() ([]Device, error) {
	ifs, err := findAllDevs()
	if err != nil {
		return nil, fmt.Errorf("find devices: %w", err)
	}
	if len(ifs) == 0 {
		return nil, core.ErrNoDevices
	}
	// Interface state is best effort: without it only pcap flags are used.
	stats, _ := osInterfaces()

	devs := make([]Device, 0, len(ifs))
	for i, itf := range ifs {
		d := Device{
			Index:       i,
			Name:        itf.Name,
			Description: itf.Description,
			DisplayName: CleanName(itf.Name, itf.Description),
			Up:          itf.Flags&pcapIfUp != 0,
			Kind:        Classify(itf.Name, itf.Description),
		}
		for _, a := range itf.Addresses {
			if addr, ok := netip.AddrFromSlice(a.IP); ok {
				d.Addresses = append(d.Addresses, addr.Unmap())
			}
		}
		if st, ok := matchInterface(d, stats); ok {
			d.Up = slices.Contains(st.Flags, "up")
			if slices.Contains(st.Flags, "loopback") {
				d.Kind = KindVirtual
			}
		}
		devs = append(devs, d)
	}
	return devs, nil
}

// matchInterface finds the OS interface behind a capture device, first by
// name and then by a shared address.
func matchInterface(d Device, stats []psnet.InterfaceStat) (psnet.InterfaceStat, bool) {
	for _, st := range stats {
		if sameInterface(d.Name, st.Name) {
			return st, true
		}
	}
	for _, st := range stats {
		for _, a := range st.Addrs {
			ip, _, err := net.ParseCIDR(a.Addr)
			if err != nil {
				continue
			}
			if addr, ok := netip.AddrFromSlice(ip); ok && slices.Contains(d.Addresses, addr.Unmap()) {
				return st, true
			}
		}
	}
	return psnet.InterfaceStat{}, false
}

// npfPrefix starts the capture name of every Npcap device.
const npfPrefix = `\Device\NPF_`

// sameInterface reports whether the capture device devName is the OS
// interface osName: an exact match, or the Npcap form \Device\NPF_<osName>.
func sameInterface(devName, osName string) bool {
	if osName == "" {
		return false
	}
	return devName == osName || devName == npfPrefix+osName
}

// ByIndex returns the device at index.
func ByIndex(devs []Device, index int) (Device, error) {
	if index < 0 || index >= len(devs) {
		return Device{}, fmt.Errorf("%w: index %d of %d", core.ErrDeviceNotFound, index, len(devs))
	}
	return devs[index], nil
}

var guidName = regexp.MustCompile(`^\{[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\}$`)

// CleanName derives a readable name: the NPF prefix is stripped and a bare
// GUID is replaced by the description.
func CleanName(name, description string) string {
	name = strings.TrimPrefix(name, npfPrefix)
	if !guidName.MatchString(name) {
		return name
	}
	if description != "" {
		return description
	}
	return "Unknown device"
}

type kindRule struct {
	kind     Kind
	prefixes []string // matched against the start of the interface name
	keywords []string // matched anywhere in the name or description
}

// rules are checked in order. Virtual comes first so that a "Virtual
// Ethernet Adapter" is not mistaken for a physical port.
var rules = []kindRule{
	{
		kind:     KindVirtual,
		prefixes: []string{"lo", "tun", "tap", "veth", "docker", "br-", "virbr", "vmnet", "wg", "utun", "zt"},
		keywords: []string{
			"virtual", "vmware", "virtualbox", "vbox", "hyper-v", "vethernet", "docker",
			"tunnel", "vpn", "wireguard", "tailscale", "zerotier",
			"bluetooth", "wan miniport", "loopback",
		},
	},
	{
		kind:     KindWiFi,
		prefixes: []string{"wl"},
		keywords: []string{"wi-fi", "wifi", "wireless", "wlan", "802.11", "centrino", "dual band"},
	},
	{
		kind:     KindEthernet,
		prefixes: []string{"eth", "enp", "eno", "ens", "enx", "em"},
		keywords: []string{"ethernet", "gigabit", "gbe", "realtek pcie", "family controller", "killer e"},
	},
}

// Classify guesses the kind of an interface from its name and description.
func Classify(name, description string) Kind {
	lname, ldesc := strings.ToLower(name), strings.ToLower(description)
	for _, r := range rules {
		for _, p := range r.prefixes {
			if strings.HasPrefix(lname, p) {
				return r.kind
			}
		}
		for _, k := range r.keywords {
			if strings.Contains(lname, k) || strings.Contains(ldesc, k) {
				return r.kind
			}
		}
	}
	return KindUnknown
}

// Select picks the device to capture on. defaultIface names the interface of
// the OS default route and may be empty.
func Select(devs []Device, defaultIface string) int {
	if len(devs) == 0 {
		return 0
	}
	if defaultIface != "" {
		for _, d := range devs {
			if sameInterface(d.Name, defaultIface) && d.Up && d.HasUsableIPv4() {
				return d.Index
			}
		}
	}
	for _, want := range []Kind{KindEthernet, KindWiFi} {
		for _, d := range devs {
			if d.Kind == want && d.Up && d.HasUsableIPv4() {
				return d.Index
			}
		}
	}
	for _, d := range devs {
		if d.Kind != KindVirtual {
			return d.Index
		}
	}
	return 0
}

// Auto lists the devices and selects one.
func Auto() ([]Device, int, error) {
	devs, err := List()
	if err != nil {
		return nil, 0, err
	}
	// A missing default route only skips the first preference.
	iface, _ := DefaultRouteInterface()
	return devs, Select(devs, iface), nil
}

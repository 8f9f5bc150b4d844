package device

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/google/gopacket/pcap"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/bpsniff/internal/core"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		name, desc, want string
	}{
		{`\Device\NPF_{4D36E972-E325-11CE-BFC1-08002BE10318}`, "Intel(R) Ethernet Connection", "Intel(R) Ethernet Connection"},
		{`\Device\NPF_{4D36E972-E325-11CE-BFC1-08002BE10318}`, "", "Unknown device"},
		{`\Device\NPF_Loopback`, "Adapter for loopback traffic capture", "Loopback"},
		{"eth0", "", "eth0"},
		{"{not-a-guid}", "desc", "{not-a-guid}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanName(tt.name, tt.desc), tt.name)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name, desc string
		want       Kind
	}{
		{"eth0", "", KindEthernet},
		{"enp3s0", "", KindEthernet},
		{`\Device\NPF_{X}`, "Realtek PCIe GbE Family Controller", KindEthernet},
		{"wlp2s0", "", KindWiFi},
		{`\Device\NPF_{X}`, "Intel(R) Wi-Fi 6 AX201 160MHz", KindWiFi},
		{"lo", "", KindVirtual},
		{"docker0", "", KindVirtual},
		{`\Device\NPF_{X}`, "Hyper-V Virtual Ethernet Adapter", KindVirtual},
		{`\Device\NPF_{X}`, "WAN Miniport (IP)", KindVirtual},
		{`\Device\NPF_{X}`, "Bluetooth Device (Personal Area Network)", KindVirtual},
		{`\Device\NPF_{X}`, "Local Area Connection", KindUnknown},
		{"any", "Pseudo-device that captures on all interfaces", KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.name, tt.desc), "%s / %s", tt.name, tt.desc)
	}
}

func addrs(s ...string) []netip.Addr {
	out := make([]netip.Addr, 0, len(s))
	for _, a := range s {
		out = append(out, netip.MustParseAddr(a))
	}
	return out
}

func TestSelect(t *testing.T) {
	virtual := Device{Index: 0, Name: "docker0", Kind: KindVirtual, Up: true, Addresses: addrs("172.17.0.1")}
	wifi := Device{Index: 1, Name: "wlp2s0", Kind: KindWiFi, Up: true, Addresses: addrs("192.168.1.7")}
	ethDown := Device{Index: 2, Name: "eth0", Kind: KindEthernet, Up: false, Addresses: addrs("10.0.0.5")}
	ethLinkLocal := Device{Index: 3, Name: "eth1", Kind: KindEthernet, Up: true, Addresses: addrs("169.254.3.3")}
	eth := Device{Index: 4, Name: "eth2", Kind: KindEthernet, Up: true, Addresses: addrs("fe80::1", "10.1.0.9")}
	unknown := Device{Index: 5, Name: "any", Kind: KindUnknown}

	t.Run("default route wins", func(t *testing.T) {
		assert.Equal(t, 1, Select([]Device{virtual, wifi, eth}, "wlp2s0"))
	})
	t.Run("default route must be usable", func(t *testing.T) {
		assert.Equal(t, 4, Select([]Device{virtual, wifi, ethDown, eth}, "eth0"))
	})
	t.Run("ethernet before wifi", func(t *testing.T) {
		assert.Equal(t, 4, Select([]Device{virtual, wifi, ethDown, ethLinkLocal, eth}, ""))
	})
	t.Run("wifi before the rest", func(t *testing.T) {
		assert.Equal(t, 1, Select([]Device{virtual, wifi, ethDown}, ""))
	})
	t.Run("first non virtual", func(t *testing.T) {
		assert.Equal(t, 2, Select([]Device{virtual, ethDown, unknown}, ""))
	})
	t.Run("default route name must match exactly", func(t *testing.T) {
		vlan := Device{Index: 6, Name: "eth2.100", Kind: KindEthernet, Up: true, Addresses: addrs("10.2.0.1")}
		npf := Device{Index: 7, Name: `\Device\NPF_eth3`, Kind: KindEthernet, Up: true, Addresses: addrs("10.3.0.1")}
		assert.Equal(t, 4, Select([]Device{virtual, vlan, eth}, "eth2"))
		assert.Equal(t, 7, Select([]Device{virtual, vlan, npf}, "eth3"))
	})
	t.Run("index zero", func(t *testing.T) {
		assert.Equal(t, 0, Select([]Device{virtual}, ""))
		assert.Equal(t, 0, Select(nil, ""))
	})
}

func TestList(t *testing.T) {
	origDevs, origIfs := findAllDevs, osInterfaces
	t.Cleanup(func() { findAllDevs, osInterfaces = origDevs, origIfs })

	findAllDevs = func() ([]pcap.Interface, error) {
		return []pcap.Interface{
			{Name: "lo", Flags: pcapIfUp, Addresses: []pcap.InterfaceAddress{{IP: net.IPv4(127, 0, 0, 1)}}},
			{Name: `\Device\NPF_{4D36E972-E325-11CE-BFC1-08002BE10318}`, Description: "Realtek PCIe GbE Family Controller",
				Addresses: []pcap.InterfaceAddress{{IP: net.IPv4(192, 168, 0, 10)}}},
		}, nil
	}
	osInterfaces = func() (psnet.InterfaceStatList, error) {
		return psnet.InterfaceStatList{
			{Name: "Ethernet", Flags: []string{"up", "broadcast"}, Addrs: psnet.InterfaceAddrList{{Addr: "192.168.0.10/24"}}},
		}, nil
	}

	devs, err := List()
	require.NoError(t, err)
	require.Len(t, devs, 2)

	assert.Equal(t, KindVirtual, devs[0].Kind)
	assert.True(t, devs[0].Up, "pcap flags apply without an OS match")

	assert.Equal(t, "Realtek PCIe GbE Family Controller", devs[1].DisplayName)
	assert.Equal(t, KindEthernet, devs[1].Kind)
	assert.True(t, devs[1].Up, "state comes from the OS interface sharing its address")
	assert.True(t, devs[1].HasUsableIPv4())
	assert.Equal(t, 1, Select(devs, ""))
}

func TestList_NamesMatchExactly(t *testing.T) {
	origDevs, origIfs := findAllDevs, osInterfaces
	t.Cleanup(func() { findAllDevs, osInterfaces = origDevs, origIfs })

	findAllDevs = func() ([]pcap.Interface, error) {
		return []pcap.Interface{
			{Name: "wlo1", Addresses: []pcap.InterfaceAddress{{IP: net.IPv4(192, 168, 1, 7)}}},
			{Name: "lo", Addresses: []pcap.InterfaceAddress{{IP: net.IPv4(127, 0, 0, 1)}}},
		}, nil
	}
	osInterfaces = func() (psnet.InterfaceStatList, error) {
		return psnet.InterfaceStatList{
			{Name: "lo", Flags: []string{"up", "loopback"}, Addrs: psnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}}},
			{Name: "wlo1", Flags: []string{"up", "broadcast"}, Addrs: psnet.InterfaceAddrList{{Addr: "192.168.1.7/24"}}},
		}, nil
	}

	devs, err := List()
	require.NoError(t, err)
	require.Len(t, devs, 2)

	assert.Equal(t, KindWiFi, devs[0].Kind)
	assert.True(t, devs[0].Up)
	assert.Equal(t, KindVirtual, devs[1].Kind)
	assert.Equal(t, 0, Select(devs, ""))
}

func TestListErrors(t *testing.T) {
	orig := findAllDevs
	t.Cleanup(func() { findAllDevs = orig })

	findAllDevs = func() ([]pcap.Interface, error) { return nil, nil }
	_, err := List()
	assert.ErrorIs(t, err, core.ErrNoDevices)

	findAllDevs = func() ([]pcap.Interface, error) { return nil, errors.New("permission denied") }
	_, err = List()
	assert.Error(t, err)
}

func TestByIndex(t *testing.T) {
	devs := []Device{{Index: 0, Name: "eth0"}}
	d, err := ByIndex(devs, 0)
	require.NoError(t, err)
	assert.Equal(t, "eth0", d.Name)

	_, err = ByIndex(devs, 3)
	assert.ErrorIs(t, err, core.ErrDeviceNotFound)
}

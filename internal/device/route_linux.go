//go:build linux

package device

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// DefaultRouteInterface returns the interface of the IPv4 default route.
func DefaultRouteInterface() (string, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return "", fmt.Errorf("list routes: %w", err)
	}
	for _, r := range routes {
		if r.Dst != nil {
			if ones, _ := r.Dst.Mask.Size(); ones != 0 {
				continue
			}
		}
		link, err := netlink.LinkByIndex(r.LinkIndex)
		if err != nil {
			return "", fmt.Errorf("default route link %d: %w", r.LinkIndex, err)
		}
		return link.Attrs().Name, nil
	}
	return "", nil
}

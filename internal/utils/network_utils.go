package utils

import (
	"net"
	"strings"
)

// cgnatBlock is shared by carrier-grade NAT, Tailscale and Cloudflare WARP.
var cgnatBlock = mustCIDR("100.64.0.0/10")

// vpnInterfacePrefixes are interface name fragments used by tunnel adapters.
var vpnInterfacePrefixes = []string{"tun", "tap", "wg", "ppp", "warp", "utun"}

// ShouldForceRelay reports whether an active interface looks like a VPN
// tunnel or sits in the CGNAT range, where direct ICE candidates rarely
// connect and TURN relaying should be forced.
func ShouldForceRelay() bool {
	interfaces, err := net.Interfaces()
	if err != nil {
		return false
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if looksLikeTunnel(iface.Name) {
			return true
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && cgnatBlock.Contains(ipnet.IP) {
				return true
			}
		}
	}
	return false
}

func looksLikeTunnel(name string) bool {
	name = strings.ToLower(name)
	for _, p := range vpnInterfacePrefixes {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

func mustCIDR(s string) *net.IPNet {
	_, block, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return block
}

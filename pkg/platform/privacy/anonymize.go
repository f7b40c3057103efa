// Package privacy minimizes personal data (client IPs, user agents) before it
// is written to logs or audit records.
package privacy

import (
	"net/netip"
	"strings"
)

// AnonymizeIP truncates an address to its network prefix: /24 for IPv4
// (and IPv4-mapped IPv6), /48 for IPv6. Ports and zones are dropped.
//
// Returns "unknown" for empty input and "invalid" for unparseable input.
func AnonymizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		ap, apErr := netip.ParseAddrPort(ip)
		if apErr != nil {
			return "invalid"
		}
		addr = ap.Addr()
	}
	addr = addr.Unmap().WithZone("")

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

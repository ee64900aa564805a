package httputil

import (
	"fmt"
	"net"
)

// BlockedAddressError reports a redirect target on a non-public network.
type BlockedAddressError struct {
	Host   string
	IP     net.IP
	Reason string
}

func (e *BlockedAddressError) Error() string {
	return fmt.Sprintf("refusing redirect to %s IP: %s (%s)", e.Reason, e.Host, e.IP)
}

// addressChecks are evaluated in order; the first match blocks the address.
var addressChecks = []struct {
	reason string
	match  func(net.IP) bool
}{
	{"private", net.IP.IsPrivate},
	{"loopback", net.IP.IsLoopback},
	{"link-local", net.IP.IsLinkLocalUnicast},
	{"link-local multicast", net.IP.IsLinkLocalMulticast},
	{"multicast", net.IP.IsMulticast},
	{"unspecified", net.IP.IsUnspecified},
}

// CheckAddress returns a *BlockedAddressError when ip is private,
// loopback, link-local (which includes cloud metadata endpoints),
// multicast or unspecified. host is reported in the error.
func CheckAddress(ip net.IP, host string) error {
	for _, c := range addressChecks {
		if c.match(ip) {
			return &BlockedAddressError{Host: host, IP: ip, Reason: c.reason}
		}
	}
	return nil
}

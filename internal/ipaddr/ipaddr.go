// Package ipaddr holds the prefix/binary-string math shared by the
// prefix registry (S4/S5.1) and the ROA store (§4.5.2). Grounded on
// the teacher's ip_addresses.go, trimmed of the cgo shared-library
// exports and random-IP helpers that only the active-probing simulator
// needed.
package ipaddr

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const ipv4Bits = 8 * net.IPv4len

// ParseNetwork parses prefix (e.g. "10.0.0.0/24") into a *net.IPNet and
// reports whether it is well-formed with no host bits set — the host-
// bits check spec.md §4.5.1/§7 requires for "malformed prefix" drops.
func ParseNetwork(prefix string) (*net.IPNet, error) {
	ip, network, err := net.ParseCIDR(prefix)
	if err != nil {
		return nil, fmt.Errorf("parse prefix %q: %w", prefix, err)
	}
	if !ip.Equal(network.IP) {
		return nil, fmt.Errorf("prefix %q has host bits set", prefix)
	}
	return network, nil
}

// BinaryString renders prefix as a bit string truncated at its mask
// length, e.g. "10.0.0.0/22" -> 22 leading bits of the address. This is
// the radix-tree key format the teacher's overlays_processing.go used
// for its LPM trie, reused here as the ROA store's trie key.
func BinaryString(prefix string) (string, error) {
	parts := strings.SplitN(prefix, "/", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("prefix %q has no mask", prefix)
	}
	ip := net.ParseIP(parts[0])
	if ip == nil {
		return "", fmt.Errorf("prefix %q: bad address", prefix)
	}
	maskLen, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("prefix %q: bad mask: %w", prefix, err)
	}

	var bits strings.Builder
	if v4 := ip.To4(); v4 != nil {
		for _, b := range v4 {
			fmt.Fprintf(&bits, "%08b", b)
		}
		if maskLen > ipv4Bits {
			return "", fmt.Errorf("prefix %q: mask exceeds IPv4 width", prefix)
		}
	} else {
		v6 := ip.To16()
		for _, b := range v6 {
			fmt.Fprintf(&bits, "%08b", b)
		}
		if maskLen > 128 {
			return "", fmt.Errorf("prefix %q: mask exceeds IPv6 width", prefix)
		}
	}
	s := bits.String()
	if maskLen > len(s) {
		maskLen = len(s)
	}
	return s[:maskLen], nil
}

// IsSubsetOrEqual reports whether child's bit string is prefixed by
// parent's — i.e. parent's network covers child's, the relation the
// ROA store's longest-prefix-match walk relies on.
func IsSubsetOrEqual(parentBinary, childBinary string) bool {
	return len(childBinary) >= len(parentBinary) && strings.HasPrefix(childBinary, parentBinary)
}

package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
)

// digestLen is the width of the address digest: 8 groups of 4 hex digits.
const digestLen = 32

// Compute derives the client fingerprint from a remote address and the
// User-Agent string. remoteAddr may be a comma-separated proxy chain, in which
// case only the first entry is used.
//
// It reports false when the address is neither IPv4 nor IPv6; the caller then
// has no fingerprint to bind or compare.
func Compute(remoteAddr, userAgent string) (string, bool) {
	digest, ok := Digest(remoteAddr)
	if !ok {
		return "", false
	}

	sum := md5.Sum([]byte(userAgent + digest))
	return hex.EncodeToString(sum[:]), true
}

// FromRequest computes the fingerprint for an incoming request using the
// default clientip resolver, which trusts clientip.DefaultHeaders. Use it only
// behind a proxy that overwrites those headers; session.Manager resolves the
// address with its own configured resolver instead.
func FromRequest(r *http.Request) (string, bool) {
	return Compute(clientip.Chain(r), r.UserAgent())
}

// Digest returns the address as a lowercase 32 digit hex string. IPv4
// addresses and their IPv4-compatible IPv6 spelling (::c0a8:101) produce the
// same digest.
func Digest(remoteAddr string) (string, bool) {
	ip := clientip.First(remoteAddr)

	addr, err := netip.ParseAddr(ip)
	if err != nil || addr.Zone() != "" {
		return "", false
	}

	var hexDigits, rebuilt string
	if addr.Is4() {
		hexDigits, rebuilt = expandIPv4(addr)
	} else {
		hexDigits, rebuilt = expandIPv6(ip)
	}

	if _, err := netip.ParseAddr(rebuilt); err != nil {
		return "", false
	}

	return strings.ToLower(leftPad(hexDigits, digestLen)), true
}

// expandIPv4 returns the 8 hex digit form of a and its ::aabb:ccdd spelling.
func expandIPv4(a netip.Addr) (string, string) {
	b := a.As4()
	hi := fmt.Sprintf("%02x%02x", b[0], b[1])
	lo := fmt.Sprintf("%02x%02x", b[2], b[3])
	return hi + lo, "::" + hi + ":" + lo
}

// expandIPv6 rewrites a textual IPv6 address into exactly 8 four digit groups.
// A trailing dotted IPv4 group is converted to two hex groups first, then the
// first empty group coming from "::" is widened to the missing zero groups.
func expandIPv6(ip string) (string, string) {
	parts := strings.Split(ip, ":")

	last := len(parts) - 1
	if v4, err := netip.ParseAddr(parts[last]); err == nil && v4.Is4() {
		b := v4.As4()
		parts[last] = fmt.Sprintf("%02x%02x", b[0], b[1])
		parts = append(parts, fmt.Sprintf("%02x%02x", b[2], b[3]))
	}

	missing := 8 - len(parts)
	groups := make([]string, 0, 8)
	elided := false

	for _, part := range parts {
		if !elided && part == "" {
			for i := 0; i <= missing; i++ {
				groups = append(groups, "0000")
			}
			elided = true
			continue
		}
		groups = append(groups, leftPad(part, 4))
	}

	return strings.Join(groups, ""), strings.Join(groups, ":")
}

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

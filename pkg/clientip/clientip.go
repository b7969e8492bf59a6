package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders lists the proxy headers consulted by the package level
// helpers, highest priority first.
var DefaultHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

var defaultResolver = New()

// Resolver extracts the originating client address from a request.
// Only the configured headers are trusted; RemoteAddr is the fallback.
type Resolver struct {
	headers []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTrustedHeaders replaces the list of proxy headers the resolver reads.
// Passing no headers makes the resolver rely on RemoteAddr only.
func WithTrustedHeaders(headers ...string) Option {
	return func(r *Resolver) {
		r.headers = headers
	}
}

// New creates a resolver trusting DefaultHeaders unless overridden.
func New(opts ...Option) *Resolver {
	r := &Resolver{headers: DefaultHeaders}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Chain returns the raw client address value: the first trusted header whose
// leading entry is a valid IP (it may still be a comma-separated proxy chain),
// or the host part of RemoteAddr.
func (r *Resolver) Chain(req *http.Request) string {
	for _, name := range r.headers {
		value := strings.TrimSpace(req.Header.Get(name))
		if value == "" {
			continue
		}
		if _, ok := parse(First(value)); ok {
			return value
		}
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

// GetIP returns the normalized client IP or an empty string when no valid
// address could be found.
func (r *Resolver) GetIP(req *http.Request) string {
	addr, ok := parse(First(r.Chain(req)))
	if !ok {
		return ""
	}
	return addr.String()
}

// GetIP resolves the client IP with the default resolver.
func GetIP(r *http.Request) string {
	return defaultResolver.GetIP(r)
}

// Chain returns the raw client address value with the default resolver.
func Chain(r *http.Request) string {
	return defaultResolver.Chain(r)
}

// First returns the first entry of a comma-separated address list, trimmed.
func First(chain string) string {
	first, _, _ := strings.Cut(chain, ",")
	return strings.TrimSpace(first)
}

// parse validates an address. Zoned IPv6 literals are rejected: the zone is
// local to the peer and never identifies a remote client.
func parse(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return netip.Addr{}, false
	}
	return addr, true
}

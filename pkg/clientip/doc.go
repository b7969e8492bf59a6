// Package clientip extracts the originating client address from an
// *http.Request when the service runs behind reverse proxies.
//
// A Resolver consults a list of trusted proxy headers in priority order and
// falls back to the TCP peer address. By default the list is:
//
//  1. CF-Connecting-IP
//  2. DO-Connecting-IP
//  3. X-Forwarded-For (comma-separated, first entry wins)
//  4. X-Real-IP
//
// Only trust headers that your edge proxy overwrites; a client talking to the
// service directly can set any of them. Use WithTrustedHeaders to narrow the
// list, or pass no headers at all to rely on RemoteAddr.
//
// Chain returns the raw header value (possibly a proxy chain) so that callers
// such as the fingerprint package can apply their own normalization. GetIP
// returns a single normalized address.
//
// # Usage
//
//	import "github.com/dmitrymomot/sessionguard/pkg/clientip"
//
//	resolver := clientip.New(clientip.WithTrustedHeaders("X-Forwarded-For"))
//	ip := resolver.GetIP(r)
//
//	mux.Handle("/", resolver.Middleware(handler))
//	// later: clientip.GetIPFromContext(r.Context())
package clientip

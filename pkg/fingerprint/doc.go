// Package fingerprint derives a stable client identity hash from the client
// network address and the User-Agent string. Sessions bind the first
// fingerprint they see and compare every later request against it, which
// makes a stolen session id useless from a different address or browser.
//
// # Algorithm
//
// The address is reduced to a 32 hex digit digest:
//
//   - a comma-separated proxy chain contributes only its first entry;
//   - IPv4 octets become two hex digits each, left padded with zeros;
//   - IPv6 groups are expanded ("::" widened once, a trailing dotted IPv4
//     group converted to two hex groups) and padded to four digits;
//   - the rebuilt address is validated again.
//
// The fingerprint is the hex MD5 of the User-Agent followed by the digest.
// MD5 is used as a cheap deterministic mixer, not as a secret: the
// fingerprint is a hijacking heuristic. An IPv4 address and its
// IPv4-compatible IPv6 spelling (for example 192.168.1.1 and ::c0a8:101)
// yield the same fingerprint.
//
// # Usage
//
//	fp, ok := fingerprint.Compute("192.168.1.1", r.UserAgent())
//	if !ok {
//	    // unparseable address: no fingerprint protection for this client
//	}
//
//	// or straight from the request, honouring proxy headers:
//	fp, ok = fingerprint.FromRequest(r)
//
// Middleware stores the value in the request context where
// GetFingerprintFromContext can retrieve it.
//
// # Error Handling
//
// Nothing here returns an error. A malformed address yields ok == false and
// the caller decides how to treat a client without a fingerprint.
package fingerprint

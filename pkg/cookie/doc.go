// Package cookie writes, reads and expires HTTP cookies with a shared set of
// default attributes.
//
// A Manager is created once with the attributes every cookie should carry
// (path, domain, lifetime, Secure, HttpOnly, SameSite). Individual calls can
// override them through Option values.
//
//	cookies, err := cookie.New(nil,
//		cookie.WithSecure(true),
//		cookie.WithSameSite(http.SameSiteStrictMode),
//	)
//	cookies.Set(w, "sid", id)
//	id, err := cookies.Get(r, "sid")
//	cookies.Delete(w, "sid")
//
// Delete sends an empty value, MaxAge -1 and an Expires one day in the past so
// that old user agents drop the cookie too.
//
// # Signed cookies
//
// When the manager is given one or more secrets (at least 32 characters each),
// SetSigned and GetSigned append and verify an HMAC-SHA256 signature. The first
// secret signs; all secrets are accepted on verification, which allows
// rotation without logging users out.
//
// # Error Handling
//
// Get returns ErrCookieNotFound when the cookie is missing. GetSigned returns
// ErrInvalidFormat or ErrInvalidSignature for tampered values and ErrNoSecret
// when the manager has no secrets.
package cookie

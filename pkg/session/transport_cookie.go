package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/sessionguard/pkg/cookie"
)

// CookieTransport implements Transport using a cookie
type CookieTransport struct {
	cookies *cookie.Manager
	name    string
	signed  bool
}

// CookieTransportOption configures a CookieTransport
type CookieTransportOption func(*CookieTransport)

// WithSignedCookie signs the cookie value with the cookie manager's secrets
func WithSignedCookie() CookieTransportOption {
	return func(t *CookieTransport) {
		t.signed = true
	}
}

// NewCookieTransport creates a cookie based transport
func NewCookieTransport(cookies *cookie.Manager, name string, opts ...CookieTransportOption) *CookieTransport {
	t := &CookieTransport{
		cookies: cookies,
		name:    name,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewCookieTransportFromConfig creates a cookie transport from cfg. The cookie
// is signed when cfg.Secrets is not empty.
func NewCookieTransportFromConfig(cfg CookieConfig) (*CookieTransport, error) {
	cookies, err := cookie.NewFromConfig(cookie.Config{
		Secrets:  strings.Join(cfg.Secrets, ","),
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Lifetime: cfg.Lifetime,
		Secure:   cfg.Secure,
		HttpOnly: cfg.HTTPOnly,
		SameSite: cfg.SameSite,
	})
	if err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = DefaultConfig().Cookie.Name
	}

	var opts []CookieTransportOption
	if len(cfg.Secrets) > 0 {
		opts = append(opts, WithSignedCookie())
	}
	return NewCookieTransport(cookies, name, opts...), nil
}

// GetToken reads the session id from the cookie. Missing and tampered
// cookies are both reported as ErrSessionNotFound.
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	var (
		token string
		err   error
	)
	if t.signed {
		token, err = t.cookies.GetSigned(r, t.name)
	} else {
		token, err = t.cookies.Get(r, t.name)
	}
	if err != nil || token == "" {
		return "", ErrSessionNotFound
	}
	return token, nil
}

// SetToken stores the session id in the cookie. A zero ttl keeps the
// manager's configured lifetime.
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	var opts []cookie.Option
	if ttl > 0 {
		opts = append(opts, cookie.WithLifetime(ttl))
	}

	if t.signed {
		return t.cookies.SetSigned(w, t.name, token, opts...)
	}
	t.cookies.Set(w, t.name, token, opts...)
	return nil
}

// ClearToken expires the session cookie
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookies.Delete(w, t.name)
	return nil
}

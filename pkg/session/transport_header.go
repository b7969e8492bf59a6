package session

import (
	"net/http"
	"strings"
	"time"
)

// DefaultHeaderName is used when NewHeaderTransport gets an empty name.
const DefaultHeaderName = "Authorization"

// HeaderTransport implements Transport using HTTP headers, for API clients
// that cannot keep cookies.
type HeaderTransport struct {
	headerName     string
	responseHeader string
	prefix         string
	now            func() time.Time
}

// HeaderOption is a functional option for HeaderTransport
type HeaderOption func(*HeaderTransport)

// WithHeaderPrefix sets a custom prefix for the header value
func WithHeaderPrefix(prefix string) HeaderOption {
	return func(t *HeaderTransport) {
		t.prefix = prefix
	}
}

// WithResponseHeader sets the header the id is returned in. It defaults to
// the request header name.
func WithResponseHeader(name string) HeaderOption {
	return func(t *HeaderTransport) {
		t.responseHeader = name
	}
}

// NewHeaderTransport creates a header based transport
func NewHeaderTransport(headerName string, opts ...HeaderOption) *HeaderTransport {
	if headerName == "" {
		headerName = DefaultHeaderName
	}

	t := &HeaderTransport{
		headerName: headerName,
		prefix:     "Bearer ",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.responseHeader == "" {
		t.responseHeader = t.headerName
	}
	return t
}

// GetToken extracts the session id from the request header
func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	value := strings.TrimSpace(r.Header.Get(t.headerName))
	if t.prefix != "" {
		trimmed, ok := strings.CutPrefix(value, t.prefix)
		if !ok {
			return "", ErrSessionNotFound
		}
		value = strings.TrimSpace(trimmed)
	}
	if value == "" {
		return "", ErrSessionNotFound
	}
	return value, nil
}

// SetToken sends the session id in the response header
func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	w.Header().Set(t.responseHeader, t.prefix+token)
	if ttl > 0 {
		w.Header().Set(t.responseHeader+"-Expires", t.now().Add(ttl).UTC().Format(time.RFC3339))
	}
	return nil
}

// ClearToken removes the session header from the response
func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.responseHeader)
	w.Header().Del(t.responseHeader + "-Expires")
	return nil
}

package requestid

import (
	"net/http"

	"github.com/google/uuid"
)

// Header is the default header carrying the request id in both directions.
const Header = "X-Request-ID"

const maxIDLength = 128

// Option configures Middleware.
type Option func(*options)

type options struct {
	header   string
	generate func() string
}

// WithHeader reads and echoes the id under name instead of X-Request-ID.
func WithHeader(name string) Option {
	return func(o *options) {
		if name != "" {
			o.header = name
		}
	}
}

// WithGenerator replaces the UUIDv4 generator.
func WithGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.generate = fn
		}
	}
}

// Middleware attaches a request id to every request. A well-formed id sent by
// the client is reused; anything else is replaced with a fresh one.
func Middleware(next http.Handler) http.Handler {
	return New()(next)
}

// New builds a configurable request id middleware.
func New(opts ...Option) func(http.Handler) http.Handler {
	o := options{
		header:   Header,
		generate: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(o.header)
			if !valid(id) {
				id = o.generate()
			}
			w.Header().Set(o.header, id)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
		})
	}
}

func valid(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

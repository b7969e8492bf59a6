package session

import (
	"errors"
	"net/http"
	"time"
)

// CompositeTransport reads the id from the first transport that carries one
// and writes it through all of them
type CompositeTransport struct {
	transports []Transport
}

// NewCompositeTransport creates a composite transport
func NewCompositeTransport(transports ...Transport) *CompositeTransport {
	return &CompositeTransport{transports: transports}
}

func (t *CompositeTransport) GetToken(r *http.Request) (string, error) {
	for _, transport := range t.transports {
		token, err := transport.GetToken(r)
		if err == nil && token != "" {
			return token, nil
		}
	}
	return "", ErrSessionNotFound
}

func (t *CompositeTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	var errs []error
	for _, transport := range t.transports {
		errs = append(errs, transport.SetToken(w, token, ttl))
	}
	return errors.Join(errs...)
}

func (t *CompositeTransport) ClearToken(w http.ResponseWriter) error {
	var errs []error
	for _, transport := range t.transports {
		errs = append(errs, transport.ClearToken(w))
	}
	return errors.Join(errs...)
}

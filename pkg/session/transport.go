package session

import (
	"net/http"
	"time"
)

// Transport defines how session ids travel between client and server
type Transport interface {
	// GetToken extracts the session id from the request.
	// It returns ErrSessionNotFound when the request carries none.
	GetToken(r *http.Request) (string, error)

	// SetToken sends the session id in the response
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error

	// ClearToken instructs the client to drop the session id
	ClearToken(w http.ResponseWriter) error
}

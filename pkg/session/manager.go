package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
	"github.com/dmitrymomot/sessionguard/pkg/fingerprint"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
)

// Codec seals and opens session records. *codec.Codec satisfies it.
type Codec interface {
	Encode(plaintext []byte) ([]byte, error)
	Decode(sealed []byte) ([]byte, error)
}

// FingerprintFunc derives a client fingerprint. The bool is false when none
// can be computed.
type FingerprintFunc func(remoteAddr, userAgent string) (string, bool)

// Client carries the identity inputs of the request a Guard serves.
type Client struct {
	// RemoteAddr may be a single address or a comma separated proxy chain.
	RemoteAddr string
	UserAgent  string
}

// Manager holds the long lived collaborators and hands out per-request Guards.
type Manager struct {
	store           Store
	codec           Codec
	transport       Transport
	config          Config
	fingerprintFunc FingerprintFunc
	resolver        *clientip.Resolver
	logger          *slog.Logger
	now             func() time.Time
}

// New creates a session manager. Store and codec are required.
func New(store Store, c Codec, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if c == nil {
		return nil, ErrNoCodec
	}

	m := &Manager{
		store:           store,
		codec:           c,
		config:          DefaultConfig(),
		fingerprintFunc: fingerprint.Compute,
		logger:          logger.Nop(),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.resolver == nil {
		m.resolver = clientip.New(clientip.WithTrustedHeaders(m.config.TrustedHeaders...))
	}

	m.logger = m.logger.With(logger.Component("session"))
	return m, nil
}

// Resolver returns the client address resolver used for fingerprints.
func (m *Manager) Resolver() *clientip.Resolver {
	return m.resolver
}

// ClientFromRequest builds the identity inputs of r with the manager's resolver.
func (m *Manager) ClientFromRequest(r *http.Request) Client {
	return Client{RemoteAddr: m.resolver.Chain(r), UserAgent: r.UserAgent()}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Guard returns a new uninitialized handle bound to client. The fingerprint
// is computed once here.
func (m *Manager) Guard(client Client) *Guard {
	fp, ok := m.fingerprintFunc(client.RemoteAddr, client.UserAgent)
	return &Guard{
		m:              m,
		client:         client,
		fingerprint:    fp,
		hasFingerprint: ok && fp != "",
		state:          StateUninitialized,
		payload:        Payload{},
	}
}

// Start resolves the session for an HTTP request. The inbound id comes from
// the transport and the token is written back whenever the id changed.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Guard, error) {
	if m.transport == nil {
		return nil, ErrNoTransport
	}

	token, err := m.transport.GetToken(r)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	g := m.Guard(m.ClientFromRequest(r))
	g.w = w

	if err := g.Start(ctx, token); err != nil {
		return nil, err
	}

	if g.id != token || m.config.Cookie.Lifetime > 0 {
		if err := m.transport.SetToken(w, g.id, m.config.Cookie.Lifetime); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (m *Manager) encode(p Payload) ([]byte, error) {
	data, err := marshalPayload(p)
	if err != nil {
		return nil, err
	}
	return m.codec.Encode(data)
}

// decode treats an empty record as an empty payload. Anything that fails to
// open or parse is reported as ErrCorruptSession.
func (m *Manager) decode(raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, nil
	}

	data, err := m.codec.Decode(raw)
	if err != nil {
		return nil, errors.Join(ErrCorruptSession, err)
	}

	p, err := unmarshalPayload(data)
	if err != nil {
		return nil, errors.Join(ErrCorruptSession, err)
	}
	return p, nil
}

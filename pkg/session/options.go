package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithConfig sets custom configuration
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithTTL sets the idle timeout used by IsExpiredDefault and IsValid
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.config.TTL = ttl
	}
}

// WithFailClosed treats sessions without a bound fingerprint as invalid
func WithFailClosed(failClosed bool) Option {
	return func(m *Manager) {
		m.config.FailClosed = failClosed
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger for lifecycle events
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = log
	}
}

// WithTransport sets the transport used by the HTTP helpers
func WithTransport(transport Transport) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithFingerprintFunc replaces the fingerprint calculation
func WithFingerprintFunc(fn FingerprintFunc) Option {
	return func(m *Manager) {
		m.fingerprintFunc = fn
	}
}

// WithClientIPResolver sets which headers are trusted for the client address.
// It takes precedence over Config.TrustedHeaders.
func WithClientIPResolver(resolver *clientip.Resolver) Option {
	return func(m *Manager) {
		m.resolver = resolver
	}
}

package session

import "time"

// Config holds session configuration
type Config struct {
	// TTL is the idle timeout checked by IsExpiredDefault and IsValid
	TTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	// RecordTTL bounds how long a store keeps a record after its last write
	RecordTTL time.Duration `env:"SESSION_RECORD_TTL" envDefault:"24h"`

	// CleanupInterval for the in-memory store (0 to disable)
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	// FailClosed makes sessions without a bound fingerprint invalid
	FailClosed bool `env:"SESSION_FAIL_CLOSED" envDefault:"false"`

	// TrustedHeaders are proxy headers read for the client address, highest
	// priority first. Empty means RemoteAddr only; set it only behind a proxy
	// that overwrites these headers.
	TrustedHeaders []string `env:"SESSION_TRUSTED_HEADERS" envSeparator:","`

	Cookie CookieConfig `envPrefix:"SESSION_COOKIE_"`
}

// CookieConfig describes the cookie that carries the session id.
type CookieConfig struct {
	Name string `env:"NAME" envDefault:"sid"`

	// Lifetime of the cookie; 0 makes it a browser-session cookie
	Lifetime time.Duration `env:"LIFETIME" envDefault:"0s"`

	Path     string `env:"PATH" envDefault:"/"`
	Domain   string `env:"DOMAIN" envDefault:""`
	Secure   bool   `env:"SECURE" envDefault:"false"`
	HTTPOnly bool   `env:"HTTP_ONLY" envDefault:"true"`
	SameSite string `env:"SAME_SITE" envDefault:"lax"`

	// Secrets, when set, sign the cookie value (comma separated, first one signs)
	Secrets []string `env:"SECRETS" envSeparator:","`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		TTL:             30 * time.Minute,
		RecordTTL:       24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		Cookie: CookieConfig{
			Name:     "sid",
			Path:     "/",
			HTTPOnly: true,
			SameSite: "lax",
		},
	}
}

// NewFromConfig creates a Manager from cfg. Options are applied after the config.
func NewFromConfig(cfg Config, store Store, c Codec, opts ...Option) (*Manager, error) {
	return New(store, c, append([]Option{WithConfig(cfg)}, opts...)...)
}

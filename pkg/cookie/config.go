package cookie

import (
	"fmt"
	"strings"
	"time"
)

// Config holds cookie manager configuration.
type Config struct {
	Secrets  string        `env:"COOKIE_SECRETS" envDefault:""`
	Path     string        `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string        `env:"COOKIE_DOMAIN" envDefault:""`
	Lifetime time.Duration `env:"COOKIE_LIFETIME" envDefault:"0s"`
	Secure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
	HttpOnly bool          `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite string        `env:"COOKIE_SAME_SITE" envDefault:"lax"`
}

func (c Config) parseSecrets() []string {
	if c.Secrets == "" {
		return nil
	}

	parts := strings.Split(c.Secrets, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// NewFromConfig creates a new Manager from the provided Config. Extra options
// are applied after the configured attributes.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	sameSite, err := ParseSameSite(cfg.SameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, cfg.SameSite)
	}

	path := cfg.Path
	if path == "" {
		path = "/"
	}

	configOpts := []Option{
		WithPath(path),
		WithDomain(cfg.Domain),
		WithLifetime(cfg.Lifetime),
		WithSecure(cfg.Secure),
		WithHTTPOnly(cfg.HttpOnly),
		WithSameSite(sameSite),
	}

	return New(cfg.parseSecrets(), append(configOpts, opts...)...)
}

package codec

import "fmt"

// Config holds codec settings loaded from the environment.
type Config struct {
	// Key is the primary key, hex or base64 encoded.
	Key string `env:"SESSION_CIPHER_KEY,required"`

	// PreviousKeys are retired keys still accepted when decoding.
	PreviousKeys []string `env:"SESSION_CIPHER_PREVIOUS_KEYS" envSeparator:","`

	// Algorithm is "aes-gcm" or "xchacha20-poly1305".
	Algorithm string `env:"SESSION_CIPHER_ALGORITHM" envDefault:"aes-gcm"`
}

// NewFromConfig parses the configured keys and creates a Codec.
func NewFromConfig(cfg Config, opts ...Option) (*Codec, error) {
	key, err := ParseKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("primary key: %w", err)
	}

	alg, err := ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	previous := make([][]byte, 0, len(cfg.PreviousKeys))
	for i, s := range cfg.PreviousKeys {
		if s == "" {
			continue
		}
		k, err := ParseKey(s)
		if err != nil {
			return nil, fmt.Errorf("previous key %d: %w", i, err)
		}
		previous = append(previous, k)
	}

	configOpts := []Option{WithAlgorithm(alg)}
	if len(previous) > 0 {
		configOpts = append(configOpts, WithPreviousKeys(previous...))
	}
	configOpts = append(configOpts, opts...)

	return New(key, configOpts...)
}

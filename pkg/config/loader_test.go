package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/config"
)

type sampleConfig struct {
	Name    string        `env:"NAME" envDefault:"sid"`
	TTL     time.Duration `env:"TTL" envDefault:"30m"`
	Secure  bool          `env:"SECURE" envDefault:"true"`
	Secrets []string      `env:"SECRETS" envSeparator:","`
}

type requiredConfig struct {
	Key string `env:"KEY,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg sampleConfig
		require.NoError(t, config.Load(&cfg, config.WithEnvironment(map[string]string{})))
		assert.Equal(t, "sid", cfg.Name)
		assert.Equal(t, 30*time.Minute, cfg.TTL)
		assert.True(t, cfg.Secure)
		assert.Empty(t, cfg.Secrets)
	})

	t.Run("process environment with prefix", func(t *testing.T) {
		t.Setenv("APP_NAME", "session")
		t.Setenv("APP_TTL", "10m")
		t.Setenv("APP_SECRETS", "a,b")

		var cfg sampleConfig
		require.NoError(t, config.Load(&cfg, config.WithPrefix("APP_")))
		assert.Equal(t, "session", cfg.Name)
		assert.Equal(t, 10*time.Minute, cfg.TTL)
		assert.Equal(t, []string{"a", "b"}, cfg.Secrets)
	})

	t.Run("required value missing", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("invalid value", func(t *testing.T) {
		var cfg sampleConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{"TTL": "soon"}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[sampleConfig](nil), config.ErrNilPointer)
	})

	t.Run("must load panics", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg, config.WithEnvironment(map[string]string{}))
		})
	})
}

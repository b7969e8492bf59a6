// Package config loads configuration structs from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for tag-driven parsing and
// github.com/joho/godotenv so that a local .env file is honoured during
// development. Every package in this module exposes a Config struct with
// `env` / `envDefault` tags that can be loaded with Load:
//
//	var sessCfg session.Config
//	config.MustLoad(&sessCfg)
//
//	var cipherCfg codec.Config
//	if err := config.Load(&cipherCfg); err != nil {
//	    // SESSION_CIPHER_KEY is required
//	}
//
// Errors wrap ErrParsingConfig; use errors.Is to detect them.
package config

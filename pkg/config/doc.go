// Package config loads typed configuration structs from environment
// variables, with optional .env file bootstrap.
//
// It wraps github.com/caarlos0/env and github.com/joho/godotenv behind a
// small generic API: declare a struct with `env` tags, then Load (or
// MustLoad) it anywhere it is needed. Each configuration type is parsed once
// per process and cached, so packages can load their own config independently
// without re-reading the environment.
//
//	type Config struct {
//	    Level  string `env:"LOG_LEVEL" envDefault:"info"`
//	    Format string `env:"LOG_FORMAT" envDefault:"json"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Tests that change environment variables between loads should call
// ResetCache to drop the per-type cache.
package config

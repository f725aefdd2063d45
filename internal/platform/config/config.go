// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, SMS) via constructors.
  - Fail Fast: Missing credentials or an unusable signing secret abort startup.
*/
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// minJWTSecretBytes mirrors the HS256 key size enforced by the token engine.
const minJWTSecretBytes = 32

// ErrWeakJWTSecret is returned when JWT_SECRET does not decode to a usable key.
var ErrWeakJWTSecret = errors.New("config: JWT_SECRET must be base64 and decode to at least 32 bytes")

// # Configuration Schema

// Config holds all runtime configuration for the Asha Assist API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL      string        `env:"REDIS_URL,required,notEmpty"`
	VisitCacheTTL time.Duration `env:"VISIT_CACHE_TTL" envDefault:"1m"`

	// JWTSecret is the base64 encoded HS256 signing key.
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// SMS provider (Twilio)
	TwilioAccountSID  string `env:"TWILIO_ACCOUNT_SID,required,notEmpty"`
	TwilioAuthToken   string `env:"TWILIO_AUTH_TOKEN,required,notEmpty"`
	TwilioPhoneNumber string `env:"TWILIO_PHONE_NUMBER,required,notEmpty"`
	TwilioAPIURL      string `env:"TWILIO_API_URL" envDefault:"https://api.twilio.com"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate performs the checks struct tags cannot express.
func (c *Config) validate() error {
	secret, err := base64.StdEncoding.DecodeString(c.JWTSecret)
	if err != nil || len(secret) < minJWTSecretBytes {
		return ErrWeakJWTSecret
	}

	for i, origin := range c.AllowedOrigins {
		c.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsOriginAllowed reports whether a browser origin may call the API.
func (c *Config) IsOriginAllowed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

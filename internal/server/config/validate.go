package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinSecretLength is the minimum HMAC key size in bytes.
const MinSecretLength = 32

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if len(c.SecretKey) < MinSecretLength {
		errs = append(errs, fmt.Errorf("secret key must be at least %d bytes", MinSecretLength))
	}
	if c.Issuer == "" || c.Audience == "" {
		errs = append(errs, errors.New("token issuer and audience are required"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token validity must be positive"))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("refresh token validity must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.TenantRole == "" {
		errs = append(errs, errors.New("tenant role is required"))
	}
	if !strings.HasPrefix(c.CookiePath, "/") {
		errs = append(errs, errors.New("cookie path must start with /"))
	}
	// zero disables the sweeper
	if c.CleanupInterval < 0 {
		errs = append(errs, errors.New("cleanup interval must not be negative"))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.IsProduction() {
		if !c.CookieSecure {
			errs = append(errs, errors.New("secure cookies are mandatory in production"))
		}
		if c.BcryptCost < 12 {
			errs = append(errs, errors.New("bcrypt cost below 12 is not allowed in production"))
		}
	}

	return errors.Join(errs...)
}

// SlogLevel returns LogLevel parsed as a slog.Level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

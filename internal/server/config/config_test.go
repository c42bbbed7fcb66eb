package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Empty(t, c.SecretKey, "there must be no default secret")
	assert.Equal(t, 30*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, 12, c.BcryptCost)
	assert.Equal(t, "authenticated", c.TenantRole)
	assert.True(t, c.CookieSecure)
	assert.Equal(t, "/auth", c.CookiePath)
	assert.Equal(t, "#7A5BFF", c.DefaultAccentColor)
}

func TestLoadConfig_FailsWithoutSecret(t *testing.T) {
	t.Setenv(EnvPrefix+"SECRET_KEY", "")

	_, err := LoadConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key must be at least 32 bytes")
}

func TestLoadConfig_LayersAndValidates(t *testing.T) {
	t.Setenv(EnvPrefix+"SECRET_KEY", testSecret)
	t.Setenv(EnvPrefix+"ACCESS_TOKEN_TTL", "15m")

	path := writeTempJSON(t, "", "", map[string]any{
		"issuer":                         "file-issuer",
		"access_token_validity_duration": "5m",
	})

	c, err := LoadConfig([]string{"-c", path, "-r", "3"})
	require.NoError(t, err)

	assert.Equal(t, testSecret, c.SecretKey)
	assert.Equal(t, "file-issuer", c.Issuer)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration, "env beats json")
	assert.Equal(t, 3*24*time.Hour, c.RefreshTokenValidityDuration, "flags beat everything")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		c.SecretKey = testSecret
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "short secret", mutate: func(c *Config) { c.SecretKey = strings.Repeat("x", 31) }, wantErr: "secret key"},
		{name: "no audience", mutate: func(c *Config) { c.Audience = "" }, wantErr: "issuer and audience"},
		{name: "zero access ttl", mutate: func(c *Config) { c.AccessTokenValidityDuration = 0 }, wantErr: "access token validity"},
		{name: "negative refresh ttl", mutate: func(c *Config) { c.RefreshTokenValidityDuration = -time.Hour }, wantErr: "refresh token validity"},
		{name: "cost too high", mutate: func(c *Config) { c.BcryptCost = 40 }, wantErr: "bcrypt cost"},
		{name: "empty role", mutate: func(c *Config) { c.TenantRole = "" }, wantErr: "tenant role"},
		{name: "relative cookie path", mutate: func(c *Config) { c.CookiePath = "auth" }, wantErr: "cookie path"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log level"},
		{name: "cleanup disabled", mutate: func(c *Config) { c.CleanupInterval = 0 }},
		{name: "negative cleanup", mutate: func(c *Config) { c.CleanupInterval = -time.Minute }, wantErr: "cleanup interval"},
		{name: "insecure cookie in prod", mutate: func(c *Config) {
			c.Environment = "production"
			c.CookieSecure = false
		}, wantErr: "secure cookies"},
		{name: "insecure cookie in dev", mutate: func(c *Config) { c.CookieSecure = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	c := &Config{LogLevel: "debug"}
	assert.Equal(t, "DEBUG", c.SlogLevel().String())

	c.LogLevel = "nonsense"
	assert.Equal(t, "INFO", c.SlogLevel().String())
}

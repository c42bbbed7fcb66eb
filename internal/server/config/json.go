package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/myplanner/internal/flagx"
	"github.com/dmitrijs2005/myplanner/internal/timex"
)

// JsonConfig is the DTO for the optional JSON config file. Duration fields
// accept "30m" style strings or integer nanoseconds. Pointer fields tell
// "absent" apart from an explicit zero value.
type JsonConfig struct {
	EndpointAddrHTTP             string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string          `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SecretKey                    string          `json:"secret_key"`
	Issuer                       string          `json:"issuer"`
	Audience                     string          `json:"audience"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
	TenantRole                   string          `json:"tenant_role"`
	CookieSecure                 *bool           `json:"cookie_secure"`
	CookiePath                   string          `json:"cookie_path"`
	CleanupInterval              *timex.Duration `json:"cleanup_interval"`
	DefaultAccentColor           string          `json:"default_accent_color"`
	Environment                  string          `json:"environment"`
	LogLevel                     string          `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config (or the
// MYPLANNER_CONFIG variable) onto config. Fields missing from the file are
// left as they are. No path means nothing to do.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigPath(args, EnvPrefix+"CONFIG")

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Issuer, c.Issuer)
	setString(&config.Audience, c.Audience)
	setString(&config.TenantRole, c.TenantRole)
	setString(&config.CookiePath, c.CookiePath)
	setString(&config.DefaultAccentColor, c.DefaultAccentColor)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.CleanupInterval != nil {
		config.CleanupInterval = c.CleanupInterval.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

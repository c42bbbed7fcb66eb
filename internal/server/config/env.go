package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv loads dotenvPath into the process environment when the file
// exists (already-set variables are kept), then overlays MYPLANNER_*
// variables onto config. Unset variables leave fields untouched.
func parseEnv(config *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix})
}

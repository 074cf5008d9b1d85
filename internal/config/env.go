package config

import "github.com/caarlos0/env/v6"

// parseEnv overlays values from environment variables named by the env
// tags on Config. Unset variables leave the current value untouched.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}

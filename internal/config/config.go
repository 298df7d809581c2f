// Package config holds the process configuration. It replaces import-time
// globals with an explicit struct constructed once at startup and injected
// into the server, authenticator and upstream clients, so tests can run
// with fixture credentials.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full gateway configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Keys      KeysConfig      `mapstructure:"keys" yaml:"keys"`
	LastFM    LastFMConfig    `mapstructure:"lastfm" yaml:"lastfm"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host        string   `mapstructure:"host" yaml:"host"`
	Port        int      `mapstructure:"port" yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// AuthConfig holds the master credential. The master key bypasses the key
// store and additionally gates privileged operations.
type AuthConfig struct {
	MasterKey string `mapstructure:"master_key" yaml:"master_key"`
}

// KeysConfig locates the API key snapshot file.
type KeysConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LastFMConfig describes the upstream scrobbler API: a base URL plus the
// static query parameters (upstream api key, user, method, format) sent on
// every request.
type LastFMConfig struct {
	BaseURL string            `mapstructure:"base_url" yaml:"base_url"`
	Params  map[string]string `mapstructure:"params" yaml:"params"`
}

// RateLimitConfig holds the two stacked request windows.
type RateLimitConfig struct {
	PerHour int `mapstructure:"per_hour" yaml:"per_hour"`
	PerDay  int `mapstructure:"per_day" yaml:"per_day"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        43333,
			CORSOrigins: []string{"*"},
		},
		Keys: KeysConfig{
			Path: "api_keys.json",
		},
		LastFM: LastFMConfig{
			BaseURL: "https://ws.audioscrobbler.com/2.0/",
			Params: map[string]string{
				"method": "user.getrecenttracks",
				"format": "json",
				"limit":  "50",
			},
		},
		RateLimit: RateLimitConfig{
			PerHour: 50,
			PerDay:  200,
		},
	}
}

// Load unmarshals the viper-managed configuration (file + ZLAPI_* env
// vars) on top of the defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

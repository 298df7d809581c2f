package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 43333 {
		t.Errorf("port = %d, want 43333", cfg.Server.Port)
	}
	if cfg.Keys.Path != "api_keys.json" {
		t.Errorf("keys path = %q", cfg.Keys.Path)
	}
	if cfg.LastFM.BaseURL == "" || cfg.LastFM.Params["format"] != "json" {
		t.Errorf("unexpected upstream defaults: %+v", cfg.LastFM)
	}
	if cfg.RateLimit.PerHour != 50 || cfg.RateLimit.PerDay != 200 {
		t.Errorf("unexpected rate limits: %+v", cfg.RateLimit)
	}
	if cfg.Auth.MasterKey != "" {
		t.Error("master key must default to unset")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("server.port", 8080)
	viper.Set("auth.master_key", "configured-master")
	viper.Set("ratelimit.per_hour", 0)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want override 8080", cfg.Server.Port)
	}
	if cfg.Auth.MasterKey != "configured-master" {
		t.Errorf("master key = %q", cfg.Auth.MasterKey)
	}
	if cfg.RateLimit.PerHour != 0 {
		t.Errorf("per_hour = %d, want 0", cfg.RateLimit.PerHour)
	}
	// Untouched sections keep their defaults.
	if cfg.Keys.Path != "api_keys.json" {
		t.Errorf("keys path = %q", cfg.Keys.Path)
	}
}

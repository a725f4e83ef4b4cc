package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.API.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 0 {
		t.Errorf("expected no timeout by default, got %s", cfg.API.Timeout)
	}
	if cfg.Session.Backend != BackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.Session.Backend)
	}
	if cfg.Session.KeyPrefix != "fleet:session" {
		t.Errorf("unexpected key prefix %q", cfg.Session.KeyPrefix)
	}
	if !cfg.Pretty() {
		t.Error("development env should log pretty")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":               "production",
		"FLEET_API_URL":     "https://fleet.example.com",
		"FLEET_API_TIMEOUT": "3s",
		"SESSION_BACKEND":   "redis",
		"SESSION_PROFILE":   "kiosk-7",
		"REDIS_DB":          "2",
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Session.Backend != BackendRedis || cfg.Session.Profile != "kiosk-7" {
		t.Errorf("unexpected session config %+v", cfg.Session)
	}
	if cfg.Redis.DB != 2 {
		t.Errorf("expected redis db 2, got %d", cfg.Redis.DB)
	}
	if cfg.Pretty() {
		t.Error("production env should log json")
	}
}

func TestLoadWith_UnknownBackend(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"SESSION_BACKEND": "cookie",
	}))
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"AI_PROVIDER", "SESSION_STORE", "DB_DRIVER", "STUCK_ERROR_THRESHOLD",
		"STUCK_IDLE_SECONDS", "SESSION_TIMEOUT_MINUTES", "JUDGE0_ENDPOINT", "JUDGE0_LANGUAGE_ID", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Provider != "gemini" {
		t.Fatalf("expected provider gemini, got %s", cfg.Provider)
	}
	if cfg.StuckErrorThreshold != 3 || cfg.StuckIdleThreshold != 120*time.Second {
		t.Fatalf("unexpected stuck thresholds: %d %v", cfg.StuckErrorThreshold, cfg.StuckIdleThreshold)
	}
	if cfg.SessionTimeout != time.Hour {
		t.Fatalf("expected 60 minute session timeout, got %v", cfg.SessionTimeout)
	}
	if cfg.Judge.LanguageID != 63 {
		t.Fatalf("expected language id 63, got %d", cfg.Judge.LanguageID)
	}
	if cfg.SessionStore != "memory" || !cfg.DatabaseEnabled {
		t.Fatalf("unexpected store defaults: store=%s db=%v", cfg.SessionStore, cfg.DatabaseEnabled)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", "offline")
	t.Setenv("STUCK_ERROR_THRESHOLD", "5")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("DB_DRIVER", "none")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("FEEDBACK_CACHE_TTL", "5m")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Provider != "offline" || cfg.StuckErrorThreshold != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.DatabaseEnabled {
		t.Fatalf("DB_DRIVER=none should disable the database")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.FeedbackCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected cache ttl %v", cfg.FeedbackCacheTTL)
	}
}

func TestLoadConfig_UnsupportedProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "unknown")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"store":     {"SESSION_STORE": "etcd"},
		"threshold": {"STUCK_ERROR_THRESHOLD": "0"},
		"driver":    {"DB_DRIVER": "mysql"},
		"timeout":   {"SESSION_TIMEOUT_MINUTES": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("AI_PROVIDER", "offline")
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected validation error for %v", env)
			}
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("UNIT_TEST_ENV", "value")
	if got := getEnvOrDefault("UNIT_TEST_ENV", "fallback"); got != "value" {
		t.Fatalf("expected env value, got %s", got)
	}

	t.Setenv("UNIT_TEST_ENV", "")
	if got := getEnvOrDefault("UNIT_TEST_ENV", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback value, got %s", got)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("UNIT_TEST_INT", "abc")
	if got := getEnvInt("UNIT_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}

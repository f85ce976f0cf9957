package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(engineBackendEnv, "")
	t.Setenv(logLevelEnv, "")

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
	if cfg.Pipeline.FallbackWindow != 24*time.Hour {
		t.Fatalf("unexpected fallback window: %v", cfg.Pipeline.FallbackWindow)
	}
	if cfg.Pipeline.CategoryWindow != 72*time.Hour {
		t.Fatalf("unexpected category window: %v", cfg.Pipeline.CategoryWindow)
	}
	if len(cfg.Sites) != 2 {
		t.Fatalf("expected default sites, got %d", len(cfg.Sites))
	}
	if cfg.Scheduler.Location() == nil {
		t.Fatalf("scheduler location must be bound")
	}
}

func TestLoadMergesYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
database:
  dsn: postgres://file/db
scheduler:
  cronExpression: "0 * * * *"
  timezone: UTC
engine:
  backend: chatgpt
  targets: [en]
pipeline:
  displayCap: 3
  fallbackWindow: 12h
sites:
  - name: feed
    scanner: rss
    categories:
      - name: top
        url: https://example.org/rss.xml
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env/db")
	t.Setenv(engineBackendEnv, "")
	t.Setenv(logLevelEnv, "")

	cfg := Load()

	if cfg.Database.DSN != "postgres://env/db" {
		t.Fatalf("env override not applied: %s", cfg.Database.DSN)
	}
	if cfg.Scheduler.CronExpression != "0 * * * *" || cfg.Scheduler.Location() != time.UTC {
		t.Fatalf("unexpected scheduler: %+v", cfg.Scheduler)
	}
	if cfg.Engine.Backend != BackendChatGPT || len(cfg.Engine.Targets) != 1 || cfg.Engine.BaseLang != "de" {
		t.Fatalf("unexpected engine: %+v", cfg.Engine)
	}
	if cfg.Pipeline.DisplayCap != 3 || cfg.Pipeline.PersistCap != 20 {
		t.Fatalf("unexpected caps: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.FallbackWindow != 12*time.Hour || cfg.Pipeline.CategoryWindow != 72*time.Hour {
		t.Fatalf("unexpected windows: %+v", cfg.Pipeline)
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0].Scanner != "rss" {
		t.Fatalf("unexpected sites: %+v", cfg.Sites)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "threshold zero", mutate: func(c *Config) { c.Pipeline.SimilarityThreshold = 0 }},
		{name: "threshold above one", mutate: func(c *Config) { c.Pipeline.SimilarityThreshold = 1.5 }},
		{name: "display above persist", mutate: func(c *Config) { c.Pipeline.DisplayCap = 30 }},
		{name: "min above max", mutate: func(c *Config) { c.Pipeline.MinLen = 100 }},
		{name: "no window", mutate: func(c *Config) { c.Pipeline.CategoryWindow = 0 }},
		{name: "unknown backend", mutate: func(c *Config) { c.Engine.Backend = "gpu" }},
		{name: "no base lang", mutate: func(c *Config) { c.Engine.BaseLang = "" }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestMetricsAddressOverride(t *testing.T) {
	t.Setenv(configPathEnv, "")

	t.Setenv(metricsAddrEnv, "")
	if addr := Load().Metrics.ListenAddr; addr != "" {
		t.Fatalf("empty env must disable metrics, got %q", addr)
	}

	t.Setenv(metricsAddrEnv, "127.0.0.1:9100")
	if addr := Load().Metrics.ListenAddr; addr != "127.0.0.1:9100" {
		t.Fatalf("unexpected metrics address: %q", addr)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"CONFIG_FILE", "PORT", "LISTEN_ADDR", "GIN_MODE", "DATABASE_DRIVER", "DATABASE_PATH",
	"DATABASE_DSN", "DATABASE_REPLICA_DSNS", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"API_KEYS", "CORS_ORIGINS", "CACHE_TTL", "RECONCILE_INTERVAL", "STORE_TIMEOUT",
	"VIEW_WORKERS", "VIEW_QUEUE_SIZE", "VIEW_TRANSPORT", "AMQP_URL", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
	// 避免读取到仓库根目录下的 .env
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected listen addr :8080, got %q", cfg.ListenAddr)
	}
	if cfg.DatabaseDriver != "sqlite" || cfg.DatabasePath != "blogpulse.db" {
		t.Fatalf("unexpected database defaults: %s %s", cfg.DatabaseDriver, cfg.DatabasePath)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected cache ttl 5m, got %v", cfg.CacheTTL)
	}
	if cfg.ReconcileInterval != time.Minute {
		t.Fatalf("expected reconcile interval 1m, got %v", cfg.ReconcileInterval)
	}
	if cfg.StoreTimeout != 200*time.Millisecond {
		t.Fatalf("expected store timeout 200ms, got %v", cfg.StoreTimeout)
	}
	if cfg.ViewWorkers != 4 || cfg.ViewQueueSize != 1024 || cfg.ViewTransport != "memory" {
		t.Fatalf("unexpected view defaults: %+v", cfg)
	}
	if cfg.RedisAddr != "" || len(cfg.APIKeys) != 0 {
		t.Fatalf("expected no redis and no api keys by default, got %q %v", cfg.RedisAddr, cfg.APIKeys)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("API_KEYS", " key-a, ,key-b ")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("VIEW_TRANSPORT", "AMQP")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != ":9000" {
		t.Fatalf("expected :9000, got %q", cfg.ListenAddr)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[0] != "key-a" || cfg.APIKeys[1] != "key-b" {
		t.Fatalf("unexpected api keys: %v", cfg.APIKeys)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %v", cfg.CacheTTL)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Fatalf("unexpected redis config: %q db=%d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.ViewTransport != "amqp" {
		t.Fatalf("expected amqp transport, got %q", cfg.ViewTransport)
	}
}

func TestLoadYAMLFileWithEnvPriority(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("port: \"7000\"\nreconcile_interval: 10s\napi_keys: file-key\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_KEYS", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7000" {
		t.Fatalf("expected port from file, got %q", cfg.Port)
	}
	if cfg.ReconcileInterval != 10*time.Second {
		t.Fatalf("expected interval from file, got %v", cfg.ReconcileInterval)
	}
	if len(cfg.APIKeys) != 1 || cfg.APIKeys[0] != "env-key" {
		t.Fatalf("expected env to override file, got %v", cfg.APIKeys)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "driver", key: "DATABASE_DRIVER", value: "mysql"},
		{name: "duration", key: "CACHE_TTL", value: "soon"},
		{name: "negative workers", key: "VIEW_WORKERS", value: "-1"},
		{name: "transport", key: "VIEW_TRANSPORT", value: "kafka"},
		{name: "postgres without dsn", key: "DATABASE_DRIVER", value: "postgres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

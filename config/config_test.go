package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENVIRONMENT", "production")
	for _, key := range []string{"APP_PORT", "APP_MODE", "RAG_SERVICE_URL", "ALLOW_INSECURE_UPSTREAM", "RAG_TIMEOUT_SECONDS", "PRESENCE_ENABLED"} {
		unsetEnv(t, key)
	}

	cfg := LoadConfig()

	if cfg.AppPort != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.AppPort)
	}
	if cfg.RAGServiceURL != "" {
		t.Errorf("expected empty RAG service url, got %q", cfg.RAGServiceURL)
	}
	if cfg.AllowInsecureUpstream {
		t.Error("insecure upstream must be opt-in")
	}
	if cfg.RAGTimeout != 0 {
		t.Errorf("expected no upstream timeout, got %s", cfg.RAGTimeout)
	}
	if cfg.PresenceEnabled {
		t.Error("presence should be disabled by default")
	}
	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("RAG_SERVICE_URL", "  https://rag.internal:8443  ")
	t.Setenv("ALLOW_INSECURE_UPSTREAM", "true")
	t.Setenv("RAG_TIMEOUT_SECONDS", "15")
	t.Setenv("PRESENCE_ENABLED", "1")
	t.Setenv("REDIS_DB", "3")

	cfg := LoadConfig()

	if cfg.RAGServiceURL != "https://rag.internal:8443" {
		t.Errorf("expected trimmed url, got %q", cfg.RAGServiceURL)
	}
	if !cfg.AllowInsecureUpstream {
		t.Error("expected insecure upstream to be enabled")
	}
	if cfg.RAGTimeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cfg.RAGTimeout)
	}
	if !cfg.PresenceEnabled {
		t.Error("expected presence to be enabled")
	}
	if cfg.RedisDB != 3 {
		t.Errorf("expected redis db 3, got %d", cfg.RedisDB)
	}
}

func TestLoadConfig_DevelopmentFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	unsetEnv(t, "ENVIRONMENT")
	unsetEnv(t, "RAG_SERVICE_URL")

	content := "RAG_SERVICE_URL=http://localhost:9000\n"
	if err := os.WriteFile(filepath.Join(dir, DevelopmentEnvFile), []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("RAG_SERVICE_URL") })

	cfg := LoadConfig()

	if cfg.RAGServiceURL != "http://localhost:9000" {
		t.Errorf("expected url from %s, got %q", DevelopmentEnvFile, cfg.RAGServiceURL)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected development environment, got %s", cfg.Environment)
	}
}

func TestLoadConfig_ProductionIgnoresDevelopmentFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("ENVIRONMENT", "production")
	unsetEnv(t, "RAG_SERVICE_URL")

	if err := os.WriteFile(filepath.Join(dir, DevelopmentEnvFile), []byte("RAG_SERVICE_URL=http://dev\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg := LoadConfig()

	if cfg.RAGServiceURL != "" {
		t.Errorf("production must not load %s, got url %q", DevelopmentEnvFile, cfg.RAGServiceURL)
	}
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, ok := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if ok {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore dir: %v", err)
		}
	})
}

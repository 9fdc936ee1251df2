package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hasty.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppConfigDefaults(t *testing.T) {
	cfg, err := LoadAppConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Report.Concurrency != 1 || cfg.Storage.Type != "minio" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Report.PreviewRows != 20 || cfg.Report.PreviewTechRows != 31 {
		t.Errorf("unexpected preview sizes %+v", cfg.Report)
	}
}

func TestLoadAppConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
queue:
  redisAddr: redis:6379
  retryDelay: 30s
storage:
  type: s3
report:
  concurrency: 3
  retention: 48h
auth:
  password: pw
  secret: file-secret
`)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("HASTY_REPORT_CONCURRENCY", "8")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"addr from file", cfg.Server.Addr, ":9000"},
		{"redis from file", cfg.Queue.RedisAddr, "redis:6379"},
		{"duration from file", cfg.Queue.RetryDelay, 30 * time.Second},
		{"storage from file", cfg.Storage.Type, "s3"},
		{"env overrides file", cfg.Report.Concurrency, 8},
		{"retention from file", cfg.Report.Retention, 48 * time.Hour},
		{"secret from env", cfg.Auth.Secret, "env-secret"},
		{"default kept", cfg.Auth.Username, "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadAppConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "server: [unclosed"},
		{"bad storage", "storage:\n  type: ftp\n"},
		{"bad concurrency", "report:\n  concurrency: 0\n"},
		{"password without secret", "auth:\n  password: pw\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			if _, err := LoadAppConfig(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
app:
  name: manthan-feedback
  version: "1.2.0"
server:
  port: 8080
  read_timeout: 5s
  allowed_origins:
    - https://manthan-2025-xi.vercel.app
    - http://localhost:5173
  public_form_url: https://manthan-2025-xi.vercel.app/
database:
  driver: mysql
  host: db
  port: 3306
  user: feedback
  password: from-file
  name: feedback
  parse_time: true
kiosk:
  server_url: http://api:8080
  submit_timeout: 3s
  store:
    driver: redis
    key: kiosk-a
`

func TestParse_Values(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.App.Name != "manthan-feedback" {
		t.Errorf("expected app name manthan-feedback, got %s", cfg.App.Name)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected read timeout 5s, got %s", cfg.Server.ReadTimeout)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("expected 2 allowed origins, got %d", len(cfg.Server.AllowedOrigins))
	}
	if cfg.Kiosk.SubmitTimeout != 3*time.Second {
		t.Errorf("expected submit timeout 3s, got %s", cfg.Kiosk.SubmitTimeout)
	}
	if cfg.Kiosk.Store.Driver != "redis" || cfg.Kiosk.Store.Key != "kiosk-a" {
		t.Errorf("unexpected kiosk store config: %+v", cfg.Kiosk.Store)
	}

	want := "feedback:from-file@tcp(db:3306)/feedback?charset=utf8mb4&parseTime=true&loc=UTC"
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DatabaseDSN() = %q, want %q", got, want)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("app:\n  version: dev\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected default driver sqlite, got %s", cfg.Database.Driver)
	}
	if cfg.Kiosk.Store.Key != "pendingFeedback" {
		t.Errorf("expected default slot key pendingFeedback, got %s", cfg.Kiosk.Store.Key)
	}
	if cfg.Export.SheetName != "Feedback_Report" {
		t.Errorf("expected default sheet Feedback_Report, got %s", cfg.Export.SheetName)
	}
	if cfg.Admin.TokenTTL != 8*time.Hour {
		t.Errorf("expected default token TTL 8h, got %s", cfg.Admin.TokenTTL)
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "from-env")
	t.Setenv("TOKEN_SECRET", "env-secret")
	t.Setenv("PORT", "9000")

	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Database.Password != "from-env" {
		t.Errorf("env should override file: got %s", cfg.Database.Password)
	}
	if cfg.Admin.TokenSecret != "env-secret" {
		t.Errorf("expected token secret from env, got %q", cfg.Admin.TokenSecret)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000 from env, got %d", cfg.Server.Port)
	}
}

func TestParse_InvalidPortEnv(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	if _, err := Parse([]byte(sampleYAML)); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoad_UsesConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("expected mysql driver from %s, got %s", path, cfg.Database.Driver)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

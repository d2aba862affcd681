package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `api:
  addr: ":9090"
  token: "secret"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "hkroster"
  username: "user"
  password: "pass"
  topic_prefix: "hotel/staff"
  use_tls: false
metrics:
  prometheus_enabled: true
  prometheus_port: "2113"
logging:
  backend: "sqlite"
  path: "runs.db"
effort:
  minutes:
    DEPARTURE: 45
    WEEKLY: 90
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"api.addr", cfg.API.Addr, ":9090"},
		{"api.token", cfg.API.Token, "secret"},
		{"mqtt.enabled", cfg.MQTT.Enabled, true},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "hkroster"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "hotel/staff"},
		{"prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, "2113"},
		{"logging.backend", cfg.Logging.Backend, "sqlite"},
		{"logging.path", cfg.Logging.Path, "runs.db"},
		{"effort.departure", cfg.Effort.Minutes["DEPARTURE"], 45},
		{"effort.weekly", cfg.Effort.Minutes["WEEKLY"], 90},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api: {}\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.API.Addr != ":8080" {
		t.Errorf("default addr = %q", cfg.API.Addr)
	}
	if cfg.Logging.Backend != "jsonl" || cfg.Logging.Path != "assignments.log" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Metrics.PrometheusPort != "2112" {
		t.Errorf("prometheus port default = %q", cfg.Metrics.PrometheusPort)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  addr: \":8080\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HK_API__ADDR", ":7070")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.API.Addr != ":7070" {
		t.Errorf("env override ignored: %q", cfg.API.Addr)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load("missing.yaml"); err == nil {
		t.Errorf("expected error for missing file")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected error for unsupported format")
	}
	bad := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(bad, []byte("logging:\n  backend: \"mongo\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Errorf("expected error for unknown logging backend")
	}
}

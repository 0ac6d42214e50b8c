package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Port != 8080 || cfg.MethodNotAllowedStatus != 405 || cfg.IdleTimeout != 5*time.Second {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("Expected :8080, got %s", cfg.Addr())
	}
	if !cfg.Development() {
		t.Error("Expected development by default")
	}
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"-port", "9090",
		"-host", "127.0.0.1",
		"-idle-timeout", "30s",
		"-method-not-allowed-status", "404",
		"-max-connections", "100",
		"-stats",
	})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Errorf("Expected 127.0.0.1:9090, got %s", cfg.Addr())
	}
	if cfg.IdleTimeout != 30*time.Second || cfg.MethodNotAllowedStatus != 404 || cfg.MaxConnections != 100 || !cfg.Stats {
		t.Errorf("Flags not applied: %+v", cfg)
	}
}

// TestLoadPrecedence tests defaults < flags < JSON file < environment
func TestLoadPrecedence(t *testing.T) {
	file := filepath.Join(t.TempDir(), "minihttp.json")
	data := `{"port": 7000, "read_timeout": "3s", "write_timeout": 4, "env": "production", "log_level": "warn"}`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MINIHTTP_LOG_LEVEL", "debug")
	t.Setenv("MINIHTTP_REUSE_PORT", "true")

	cfg, err := Load([]string{"-config", file, "-port", "6000", "-host", "localhost"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Port != 7000 {
		t.Errorf("JSON should override flags: port %d", cfg.Port)
	}
	if cfg.Host != "localhost" {
		t.Errorf("Flag should survive when JSON is silent: host %q", cfg.Host)
	}
	if cfg.ReadTimeout != 3*time.Second || cfg.WriteTimeout != 4*time.Second {
		t.Errorf("Durations not decoded: %v %v", cfg.ReadTimeout, cfg.WriteTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Environment should override JSON: log level %q", cfg.LogLevel)
	}
	if !cfg.ReusePort {
		t.Error("Expected MINIHTTP_REUSE_PORT to apply")
	}
	if cfg.Development() {
		t.Error("Expected production env from JSON")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"bad port", []string{"-port", "70000"}, nil},
		{"bad status", []string{"-method-not-allowed-status", "400"}, nil},
		{"zero timeout", []string{"-read-timeout", "0s"}, nil},
		{"bad level", []string{"-log-level", "loud"}, nil},
		{"bad env int", nil, map[string]string{"MINIHTTP_PORT": "eighty"}},
		{"bad env bool", nil, map[string]string{"MINIHTTP_STATS": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.args)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if _, err := Load([]string{"-config", filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("Expected error for missing config file")
	}
	if _, err := Load([]string{"-no-such-flag"}); err == nil {
		t.Error("Expected error for unknown flag")
	}
}

func TestManagerGetters(t *testing.T) {
	m := NewManager()
	m.Set("name", "minihttp")
	m.Set("port", float64(8080))

	if m.GetString("name") != "minihttp" {
		t.Errorf("GetString: %q", m.GetString("name"))
	}
	if m.GetString("port") != "" {
		t.Error("GetString should ignore non-string values")
	}
	if m.GetString("missing", "fallback") != "fallback" {
		t.Error("GetString default not used")
	}

	all := m.GetAll()
	if len(all) != 2 {
		t.Errorf("GetAll: expected 2 keys, got %d", len(all))
	}
	all["name"] = "changed"
	if m.GetString("name") != "minihttp" {
		t.Error("GetAll must return a copy")
	}
}

// TestLoadConfigFromEnv tests a file named by MINIHTTP_CONFIG and the
// recorded overrides
func TestLoadConfigFromEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "minihttp.json")
	if err := os.WriteFile(file, []byte(`{"port": 7100, "stats": true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MINIHTTP_CONFIG", file)
	t.Setenv("MINIHTTP_PORT", "7200")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.File != file {
		t.Errorf("Expected file %s, got %q", file, cfg.File)
	}
	if cfg.Port != 7200 || !cfg.Stats {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.Overrides["port"] != "7200" || cfg.Overrides["stats"] != true {
		t.Errorf("Unexpected overrides %v", cfg.Overrides)
	}
}

func TestManagerEnviron(t *testing.T) {
	m := NewManager()
	m.loadFromEnviron("MINIHTTP", []string{
		"MINIHTTP_IDLE_TIMEOUT=7s",
		"MINIHTTPX_PORT=1",
		"HOME=/root",
		"MALFORMED",
	})

	all := m.GetAll()
	if len(all) != 1 || all["idle_timeout"] != "7s" {
		t.Errorf("Unexpected keys %v", all)
	}
}

func TestManagerNestedJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested.json")
	os.WriteFile(file, []byte(`{"server": {"port": 1234, "limits": {"body": 10}}}`), 0o644)

	m := NewManager()
	if err := m.LoadFromJSON(file); err != nil {
		t.Fatalf("LoadFromJSON error: %v", err)
	}

	var server struct {
		Port int `config:"port"`
		Host string
	}
	if err := m.Unmarshal("server", &server); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if server.Port != 1234 {
		t.Errorf("Expected port 1234, got %d", server.Port)
	}
	if v, _ := m.Get("server.limits.body"); v != float64(10) {
		t.Errorf("Expected nested key, got %v", m.GetAll())
	}
}

func TestManagerUnmarshalErrors(t *testing.T) {
	m := NewManager()
	var cfg Config

	if err := m.Unmarshal("", cfg); err == nil {
		t.Error("Expected error for non-pointer target")
	}
	n := 1
	if err := m.Unmarshal("", &n); err == nil {
		t.Error("Expected error for non-struct target")
	}

	m.Set("port", 80.5)
	if err := m.Unmarshal("", &cfg); err == nil {
		t.Error("Expected error for fractional integer")
	}
}

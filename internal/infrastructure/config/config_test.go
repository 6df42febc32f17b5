package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
app:
  identifier: "si.test.tskpay"
database:
  path: "/tmp/test.db"
  busy_timeout: 3
logging:
  level: debug
  format: json
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Identifier != "si.test.tskpay" {
		t.Errorf("App.Identifier = %q, want %q", cfg.App.Identifier, "si.test.tskpay")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Database.BusyTimeout != 3 {
		t.Errorf("Database.BusyTimeout = %d, want 3", cfg.Database.BusyTimeout)
	}
	// Unset keys keep their defaults
	if cfg.Database.Filename != "tskpay.db" {
		t.Errorf("Database.Filename = %q, want default %q", cfg.Database.Filename, "tskpay.db")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
database:
  filename: "nested/tskpay.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "database.filename") {
		t.Errorf("error = %v, want mention of database.filename", err)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Database.Filename != "tskpay.db" {
		t.Errorf("Database.Filename = %q, want %q", cfg.Database.Filename, "tskpay.db")
	}
}

func TestLoadOrDefault_EmptyPath(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.App.Identifier == "" {
		t.Error("App.Identifier should default to a non-empty value")
	}
}

func TestLoadOrDefault_InvalidYAMLStillFails(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("database: [broken"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadOrDefault(configPath); err == nil {
		t.Error("LoadOrDefault() expected parse error, got nil")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TSKPAY_DATABASE_PATH", "/env/override.db")
	t.Setenv("TSKPAY_DATA_DIR", "/env/data")
	t.Setenv("TSKPAY_LOG_LEVEL", "warn")
	t.Setenv("TSKPAY_MQTT_HOST", "broker.local")
	t.Setenv("TSKPAY_MQTT_USERNAME", "club")
	t.Setenv("TSKPAY_MQTT_PASSWORD", "secret")

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/env/override.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/env/override.db")
	}
	if cfg.App.DataDir != "/env/data" {
		t.Errorf("App.DataDir = %q, want %q", cfg.App.DataDir, "/env/data")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if cfg.ChangeFeed.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT host = %q, want %q", cfg.ChangeFeed.MQTT.Broker.Host, "broker.local")
	}
	if cfg.ChangeFeed.MQTT.Auth.Username != "club" || cfg.ChangeFeed.MQTT.Auth.Password != "secret" {
		t.Error("MQTT credentials were not overridden from the environment")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name: "explicit path needs no identifier",
			mutate: func(c *Config) {
				c.App.Identifier = ""
				c.Database.Path = "/tmp/x.db"
			},
		},
		{
			name: "missing identifier and data dir",
			mutate: func(c *Config) {
				c.App.Identifier = ""
			},
			wantErr: "app.identifier",
		},
		{
			name: "negative busy timeout",
			mutate: func(c *Config) {
				c.Database.BusyTimeout = -1
			},
			wantErr: "busy_timeout",
		},
		{
			name: "change feed with bad qos",
			mutate: func(c *Config) {
				c.ChangeFeed.Enabled = true
				c.ChangeFeed.MQTT.QoS = 3
			},
			wantErr: "qos",
		},
		{
			name: "change feed without host",
			mutate: func(c *Config) {
				c.ChangeFeed.Enabled = true
				c.ChangeFeed.MQTT.Broker.Host = ""
			},
			wantErr: "broker.host",
		},
		{
			name: "disabled change feed is not validated",
			mutate: func(c *Config) {
				c.ChangeFeed.MQTT.QoS = 9
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the TSK Pay data engine.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Backup     BackupConfig     `yaml:"backup"`
	ChangeFeed ChangeFeedConfig `yaml:"changefeed"`
}

// AppConfig identifies the application and its private data directory.
type AppConfig struct {
	Name string `yaml:"name"`

	// Identifier names the application-private directory below the
	// user's configuration directory (e.g. ~/.config/si.tsk.tskpay).
	Identifier string `yaml:"identifier"`

	// DataDir overrides the resolved application data directory.
	DataDir string `yaml:"data_dir"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	// Path is a full override of the database file location.
	// When empty the file lives in the application data directory.
	Path string `yaml:"path"`

	// Filename is the fixed database filename inside the data directory.
	Filename string `yaml:"filename"`

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// BackupConfig contains export/import settings.
type BackupConfig struct {
	// Dir is where pre-import backups are written.
	// When empty they are written next to the database file.
	Dir string `yaml:"dir"`
}

// ChangeFeedConfig controls the optional record change feed.
type ChangeFeedConfig struct {
	Enabled     bool       `yaml:"enabled"`
	TopicPrefix string     `yaml:"topic_prefix"`
	MQTT        MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TSKPAY_SECTION_KEY
// For example: TSKPAY_DATABASE_PATH, TSKPAY_LOG_LEVEL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but treats a missing file as an empty one.
// A desktop install has no config file on first run.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		cfg, err := Load(path)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}

	cfg := Default()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:       "TSK Pay",
			Identifier: "si.tsk.tskpay",
		},
		Database: DatabaseConfig{
			Filename:    "tskpay.db",
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		ChangeFeed: ChangeFeedConfig{
			Enabled:     false,
			TopicPrefix: "tskpay",
			MQTT: MQTTConfig{
				Broker: MQTTBrokerConfig{
					Host:     "localhost",
					Port:     1883,
					ClientID: "tskpay-desktop",
				},
				QoS: 1,
				Reconnect: MQTTReconnectConfig{
					InitialDelay: 1,
					MaxDelay:     60,
				},
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TSKPAY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TSKPAY_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("TSKPAY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TSKPAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Broker credentials should never live in the config file
	if v := os.Getenv("TSKPAY_MQTT_HOST"); v != "" {
		cfg.ChangeFeed.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TSKPAY_MQTT_USERNAME"); v != "" {
		cfg.ChangeFeed.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TSKPAY_MQTT_PASSWORD"); v != "" {
		cfg.ChangeFeed.MQTT.Auth.Password = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		if c.App.Identifier == "" && c.App.DataDir == "" {
			errs = append(errs, "app.identifier or app.data_dir is required when database.path is empty")
		}
		if c.Database.Filename == "" {
			errs = append(errs, "database.filename is required when database.path is empty")
		}
	}
	if strings.ContainsAny(c.Database.Filename, `/\`) {
		errs = append(errs, "database.filename must be a bare file name")
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, "database.busy_timeout must not be negative")
	}

	if c.ChangeFeed.Enabled {
		mqttCfg := c.ChangeFeed.MQTT
		if mqttCfg.Broker.Host == "" {
			errs = append(errs, "changefeed.mqtt.broker.host is required when the change feed is enabled")
		}
		if mqttCfg.Broker.Port < 1 || mqttCfg.Broker.Port > 65535 {
			errs = append(errs, "changefeed.mqtt.broker.port must be between 1 and 65535")
		}
		if mqttCfg.QoS < 0 || mqttCfg.QoS > 2 {
			errs = append(errs, "changefeed.mqtt.qos must be 0, 1, or 2")
		}
		if c.ChangeFeed.TopicPrefix == "" {
			errs = append(errs, "changefeed.topic_prefix is required when the change feed is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

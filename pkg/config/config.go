// Package config loads the application configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Params  ParamsConfig  `yaml:"params"`
	Model   ModelConfig   `yaml:"model"`
}

// HTTPConfig configures the REST server.
type HTTPConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	Port        int    `yaml:"port"`
	TLSCertPath string `yaml:"tls_cert_path,omitempty"`
	TLSKeyPath  string `yaml:"tls_key_path,omitempty"`
}

// StorageConfig configures optional run archival.
type StorageConfig struct {
	Postgres *PostgresConfig `yaml:"postgres,omitempty"`
}

// PostgresConfig holds the archival database connection settings.
type PostgresConfig struct {
	ConnectionString string `yaml:"connection_string"`
}

// ParamsConfig configures parameter-set persistence.
type ParamsConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// ModelConfig holds the default model settings applied when a request does
// not override them.
type ModelConfig struct {
	IntervalMinutes       int `yaml:"interval_minutes"`
	InterEventGapMinutes  int `yaml:"inter_event_gap_minutes"`
	IntraEventGapMinutes  int `yaml:"intra_event_gap_minutes"`
	DisaggIntervalMinutes int `yaml:"disagg_interval_minutes"`
}

// Load reads and validates the configuration file, applying defaults for
// omitted settings.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, used by tools
// that run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = "0.0.0.0"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Params.Backend == "" {
		c.Params.Backend = "yaml"
	}
	if c.Params.Path == "" {
		c.Params.Path = "params.yaml"
	}
	if c.Model.IntervalMinutes == 0 {
		c.Model.IntervalMinutes = 10
	}
	if c.Model.InterEventGapMinutes == 0 {
		c.Model.InterEventGapMinutes = 30
	}
	if c.Model.IntraEventGapMinutes == 0 {
		c.Model.IntraEventGapMinutes = 15
	}
	if c.Model.DisaggIntervalMinutes == 0 {
		c.Model.DisaggIntervalMinutes = 10
	}
}

// Validate rejects configurations the application cannot run with.
func (c *Config) Validate() error {
	if c.Params.Backend != "yaml" && c.Params.Backend != "sqlite" {
		return fmt.Errorf("unsupported params backend: %s. Use 'yaml' or 'sqlite'", c.Params.Backend)
	}
	if c.Model.IntervalMinutes <= 0 {
		return fmt.Errorf("model.interval_minutes must be positive, got %d", c.Model.IntervalMinutes)
	}
	if c.Model.InterEventGapMinutes <= 0 {
		return fmt.Errorf("model.inter_event_gap_minutes must be positive, got %d", c.Model.InterEventGapMinutes)
	}
	if c.Model.IntraEventGapMinutes <= 0 {
		return fmt.Errorf("model.intra_event_gap_minutes must be positive, got %d", c.Model.IntraEventGapMinutes)
	}
	if c.Model.DisaggIntervalMinutes <= 0 {
		return fmt.Errorf("model.disagg_interval_minutes must be positive, got %d", c.Model.DisaggIntervalMinutes)
	}
	return nil
}

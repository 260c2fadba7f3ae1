// Package config loads the service configuration (config.yaml) and resolves
// secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServiceConfig is the v1 config.yaml.
type ServiceConfig struct {
	Version int `yaml:"version"`
	Service struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"service"`
	Map struct {
		Path string `yaml:"path"`
	} `yaml:"map"`
	Network struct {
		UIPort  int    `yaml:"ui_port"`
		TLSCert string `yaml:"tls_cert"`
		TLSKey  string `yaml:"tls_key"`
	} `yaml:"network"`
	MQTT struct {
		Enabled  bool   `yaml:"enabled"`
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"mqtt"`
	Storage struct {
		SQLitePath string `yaml:"sqlite_path"`
		Postgres   bool   `yaml:"postgres"`
	} `yaml:"storage"`
	Renderer struct {
		Engine string `yaml:"engine"`
	} `yaml:"renderer"`
}

// UIPort returns the configured UI port, defaulting to 8080 if not set.
func (c *ServiceConfig) UIPort() int {
	if c.Network.UIPort == 0 {
		return 8080
	}
	return c.Network.UIPort
}

// MQTTURL returns the broker URL. MQTT_URL overrides the file.
func (c *ServiceConfig) MQTTURL() string {
	if url := os.Getenv("MQTT_URL"); url != "" {
		return url
	}
	if c.MQTT.URL != "" {
		return c.MQTT.URL
	}
	return "tcp://localhost:1883"
}

// MQTTClientID returns the MQTT client id, defaulting to "gamemap-<service id>".
func (c *ServiceConfig) MQTTClientID() string {
	if c.MQTT.ClientID != "" {
		return c.MQTT.ClientID
	}
	return "gamemap-" + c.Service.ID
}

// SQLitePath returns where saved progress lives.
func (c *ServiceConfig) SQLitePath() string {
	if c.Storage.SQLitePath == "" {
		return "~/.gamemap/progress.db"
	}
	return c.Storage.SQLitePath
}

// Parse decodes and validates config.yaml contents.
func Parse(b []byte) (*ServiceConfig, error) {
	var cfg ServiceConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config.yaml version: %d", cfg.Version)
	}
	if cfg.Service.ID == "" {
		return nil, fmt.Errorf("config.yaml: service.id is required")
	}
	if cfg.Map.Path == "" {
		return nil, fmt.Errorf("config.yaml: map.path is required")
	}

	return &cfg, nil
}

// LoadServiceConfig reads and validates config.yaml.
func LoadServiceConfig(path string) (*ServiceConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

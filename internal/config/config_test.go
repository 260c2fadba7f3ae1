package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
version: 1
service:
  id: demo
  name: Demo Map
map:
  path: map.json
network:
  ui_port: 9090
mqtt:
  enabled: true
  url: tcp://broker:1883
storage:
  sqlite_path: /tmp/progress.db
renderer:
  engine: blink
`

func TestLoadServiceConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("MQTT_URL", "")

	cfg, err := LoadServiceConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.ID != "demo" {
		t.Errorf("got service id %q", cfg.Service.ID)
	}
	if cfg.UIPort() != 9090 {
		t.Errorf("got port %d", cfg.UIPort())
	}
	if cfg.MQTTURL() != "tcp://broker:1883" {
		t.Errorf("got mqtt url %q", cfg.MQTTURL())
	}
	if cfg.MQTTClientID() != "gamemap-demo" {
		t.Errorf("got client id %q", cfg.MQTTClientID())
	}
	if cfg.SQLitePath() != "/tmp/progress.db" {
		t.Errorf("got sqlite path %q", cfg.SQLitePath())
	}
	if cfg.Renderer.Engine != "blink" {
		t.Errorf("got engine %q", cfg.Renderer.Engine)
	}
}

func TestParseDefaults(t *testing.T) {
	t.Setenv("MQTT_URL", "")
	cfg, err := Parse([]byte("version: 1\nservice:\n  id: x\nmap:\n  path: m.json\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UIPort() != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.UIPort())
	}
	if cfg.MQTTURL() != "tcp://localhost:1883" {
		t.Errorf("expected default broker, got %q", cfg.MQTTURL())
	}
	if cfg.SQLitePath() != "~/.gamemap/progress.db" {
		t.Errorf("expected default sqlite path, got %q", cfg.SQLitePath())
	}
}

func TestMQTTURLEnvOverride(t *testing.T) {
	t.Setenv("MQTT_URL", "tcp://env:1883")
	cfg := &ServiceConfig{}
	cfg.MQTT.URL = "tcp://file:1883"
	if cfg.MQTTURL() != "tcp://env:1883" {
		t.Errorf("expected env to win, got %q", cfg.MQTTURL())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad version", "version: 2\nservice:\n  id: x\nmap:\n  path: m.json\n"},
		{"missing id", "version: 1\nmap:\n  path: m.json\n"},
		{"missing map", "version: 1\nservice:\n  id: x\n"},
		{"invalid yaml", "version: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

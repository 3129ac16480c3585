package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bleboxd.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker:
    host: "mqtt.lan"
    port: 1883
    client_id: "test-client"
  qos: 1
  topic_prefix: "home/blebox"
api:
  host: "127.0.0.1"
  port: 9090
blebox:
  poll_interval: 10s
  request_timeout: 3s
  devices:
    - host: 192.168.1.20
      name: blinds
    - host: 192.168.1.21
      port: 8080
  discovery:
    enabled: true
    interface: eth0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "mqtt.lan" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.lan")
	}
	if cfg.MQTT.TopicPrefix != "home/blebox" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "home/blebox")
	}
	if cfg.BleBox.PollInterval != 10*time.Second {
		t.Errorf("BleBox.PollInterval = %v, want 10s", cfg.BleBox.PollInterval)
	}
	if cfg.BleBox.RequestTimeout != 3*time.Second {
		t.Errorf("BleBox.RequestTimeout = %v, want 3s", cfg.BleBox.RequestTimeout)
	}
	// Unset keys keep their defaults.
	if cfg.BleBox.FreshnessWindow != 2*time.Second {
		t.Errorf("BleBox.FreshnessWindow = %v, want 2s", cfg.BleBox.FreshnessWindow)
	}
	if cfg.BleBox.Discovery.BrowseTimeout != 5*time.Second {
		t.Errorf("BleBox.Discovery.BrowseTimeout = %v, want 5s", cfg.BleBox.Discovery.BrowseTimeout)
	}
	if len(cfg.BleBox.Devices) != 2 {
		t.Fatalf("len(BleBox.Devices) = %d, want 2", len(cfg.BleBox.Devices))
	}
	if d := cfg.BleBox.Devices[1]; d.Host != "192.168.1.21" || d.Port != 8080 {
		t.Errorf("Devices[1] = %+v", d)
	}
	if !cfg.BleBox.Discovery.Enabled || cfg.BleBox.Discovery.Interface != "eth0" {
		t.Errorf("Discovery = %+v", cfg.BleBox.Discovery)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.MQTT.TopicPrefix != "blebox" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "blebox")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/bleboxd.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "blebox:\n  poll_interval: often\n")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid duration, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
blebox:
  devices:
    - name: nameless
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "blebox.devices[0].host is required") {
		t.Errorf("Load() error = %v, want missing host", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "empty topic prefix",
			mutate:  func(c *Config) { c.MQTT.TopicPrefix = "" },
			wantErr: "mqtt.topic_prefix",
		},
		{
			name:    "wildcard topic prefix",
			mutate:  func(c *Config) { c.MQTT.TopicPrefix = "blebox/#" },
			wantErr: "mqtt.topic_prefix",
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name:    "zero websocket ping interval",
			mutate:  func(c *Config) { c.API.WebSocket.PingInterval = 0 },
			wantErr: "api.websocket",
		},
		{
			name: "auth enabled with short secret",
			mutate: func(c *Config) {
				c.API.Auth.Enabled = true
				c.API.Auth.JWTSecret = "short"
			},
			wantErr: "api.auth.jwt_secret",
		},
		{
			name: "influxdb without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Org = "home"
				c.InfluxDB.Bucket = "blebox"
			},
			wantErr: "influxdb.url",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.BleBox.PollInterval = 0 },
			wantErr: "blebox.poll_interval",
		},
		{
			name:    "zero request timeout",
			mutate:  func(c *Config) { c.BleBox.RequestTimeout = 0 },
			wantErr: "blebox.request_timeout",
		},
		{
			name:    "device port out of range",
			mutate:  func(c *Config) { c.BleBox.Devices = []DeviceConfig{{Host: "box", Port: 70000}} },
			wantErr: "blebox.devices[0].port",
		},
		{
			name: "discovery without browse timeout",
			mutate: func(c *Config) {
				c.BleBox.Discovery.Enabled = true
				c.BleBox.Discovery.BrowseTimeout = 0
			},
			wantErr: "blebox.discovery.browse_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateJoinsErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.MQTT.QoS = 5
	cfg.API.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	if !strings.Contains(err.Error(), "mqtt.qos") || !strings.Contains(err.Error(), "; api.port") {
		t.Errorf("Validate() error = %v, want both problems joined", err)
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()
	cfg.BleBox.Devices = []DeviceConfig{{Host: "from-file"}}

	t.Setenv("BLEBOXD_MQTT_HOST", "mqtt.example.com")
	t.Setenv("BLEBOXD_MQTT_USERNAME", "testuser")
	t.Setenv("BLEBOXD_MQTT_PASSWORD", "testpass")
	t.Setenv("BLEBOXD_MQTT_TOPIC_PREFIX", "site/blebox")
	t.Setenv("BLEBOXD_API_HOST", "192.168.1.1")
	t.Setenv("BLEBOXD_API_PORT", "9191")
	t.Setenv("BLEBOXD_API_JWT_SECRET", "jwt-secret-from-env")
	t.Setenv("BLEBOXD_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("BLEBOXD_LOG_LEVEL", "debug")
	t.Setenv("BLEBOXD_BLEBOX_DEVICES", "10.0.0.5, 10.0.0.6:8080,")
	t.Setenv("BLEBOXD_BLEBOX_POLL_INTERVAL", "30s")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v", cfg.MQTT.Auth)
	}
	if cfg.MQTT.TopicPrefix != "site/blebox" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "site/blebox")
	}
	if cfg.API.Host != "192.168.1.1" || cfg.API.Port != 9191 {
		t.Errorf("API = %s:%d", cfg.API.Host, cfg.API.Port)
	}
	if cfg.API.Auth.JWTSecret != "jwt-secret-from-env" {
		t.Errorf("API.Auth.JWTSecret = %q, want %q", cfg.API.Auth.JWTSecret, "jwt-secret-from-env")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.BleBox.PollInterval != 30*time.Second {
		t.Errorf("BleBox.PollInterval = %v, want 30s", cfg.BleBox.PollInterval)
	}

	wantHosts := []string{"from-file", "10.0.0.5", "10.0.0.6:8080"}
	if len(cfg.BleBox.Devices) != len(wantHosts) {
		t.Fatalf("Devices = %+v, want hosts %v", cfg.BleBox.Devices, wantHosts)
	}
	for i, want := range wantHosts {
		if got := cfg.BleBox.Devices[i].Host; got != want {
			t.Errorf("Devices[%d].Host = %q, want %q", i, got, want)
		}
	}
}

func TestApplyEnvOverrides_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"BLEBOXD_API_PORT", "eighty"},
		{"BLEBOXD_BLEBOX_POLL_INTERVAL", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if err := applyEnvOverrides(defaultConfig()); err == nil {
				t.Errorf("applyEnvOverrides() with %s=%q error = nil", tt.key, tt.value)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
	if cfg.BleBox.PollInterval != 5*time.Second || cfg.BleBox.RequestTimeout != 5*time.Second {
		t.Errorf("defaultConfig BleBox = %+v", cfg.BleBox)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() error = %v", err)
	}
}

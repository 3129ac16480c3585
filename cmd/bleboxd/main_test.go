package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-blebox/internal/auth"
	"github.com/nerrad567/gray-logic-blebox/internal/bridge"
	"github.com/nerrad567/gray-logic-blebox/internal/discovery"
	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/mqtt"
)

const (
	sensorID    = "5ccf7f0a1b2c"
	sensorInfo  = `{"id":"5ccf7f0a1b2c","type":"tempSensor","deviceName":"Attic","apiLevel":20180604}`
	sensorState = `{"tempSensor":{"sensors":[{"id":0,"value":2150}]}}`
)

// ============================================================================
// Test Helpers
// ============================================================================

// newBoxServer serves a temperature sensor. While down is set every request
// fails with 503.
func newBoxServer(t *testing.T, down *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down != nil && down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		switch r.URL.Path {
		case "/info":
			io.WriteString(w, sensorInfo)
		case "/api/tempsensor/state":
			io.WriteString(w, sensorState)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func serverAddr(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

// nopMQTT satisfies bridge.MQTTClient without a broker.
type nopMQTT struct{}

func (nopMQTT) Publish(string, []byte, byte, bool) error           { return nil }
func (nopMQTT) Subscribe(string, byte, mqtt.MessageHandler) error { return nil }
func (nopMQTT) IsConnected() bool                                 { return true }

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

func newTestFleet(t *testing.T, cfg config.BleBoxConfig) (*fleet, *bridge.Bridge) {
	t.Helper()
	gw, err := bridge.New(bridge.Options{MQTT: nopMQTT{}})
	if err != nil {
		t.Fatalf("bridge.New() error = %v", err)
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = time.Second
	}
	return newFleet(cfg, gw, testLogger()), gw
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// ============================================================================
// Command Tree
// ============================================================================

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "probe", "discover", "token", "version"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v; want the %s command", name, cmd, err, name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "bleboxd "+version) {
		t.Errorf("version output = %q, want prefix %q", out, "bleboxd "+version)
	}
}

func TestRunCmd_InvalidConfig(t *testing.T) {
	_, err := execute(t, "run", "--config", "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("run should fail with invalid config path")
	}
}

// ============================================================================
// Configuration
// ============================================================================

func TestLoadConfig_FromEnvWithLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
blebox:
  devices:
    - host: 192.168.1.20
      name: attic
logging:
  level: info
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv(configEnv, path)

	opts := &rootOptions{logLevel: "debug"}
	cfg, err := opts.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if len(cfg.BleBox.Devices) != 1 || cfg.BleBox.Devices[0].Name != "attic" {
		t.Errorf("Devices = %+v, want one device named attic", cfg.BleBox.Devices)
	}
}

func TestLoadConfig_FlagBeatsEnv(t *testing.T) {
	t.Setenv(configEnv, "/nonexistent/env.yaml")
	opts := &rootOptions{configPath: "/flag.yaml"}
	if got := opts.resolveConfigPath(); got != "/flag.yaml" {
		t.Errorf("resolveConfigPath() = %q, want %q", got, "/flag.yaml")
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("blebox:\n  poll_interval: -1s\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	opts := &rootOptions{configPath: path}
	if _, err := opts.loadConfig(); err == nil {
		t.Error("loadConfig() should fail validation")
	}
}

// ============================================================================
// Token
// ============================================================================

func TestTokenCmd(t *testing.T) {
	const secret = "cli-test-secret-key-for-jwt-signing-0123"
	t.Setenv("BLEBOXD_API_JWT_SECRET", secret)
	t.Setenv(configEnv, "")

	out, err := execute(t, "token", "--subject", "dashboard", "--role", "operator", "--ttl", "1h")
	if err != nil {
		t.Fatalf("token error = %v", err)
	}
	claims, err := auth.ParseToken(strings.TrimSpace(out), secret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "dashboard" || claims.Role != auth.RoleOperator {
		t.Errorf("claims = %s/%s, want dashboard/operator", claims.Subject, claims.Role)
	}
}

func TestTokenCmd_Errors(t *testing.T) {
	t.Setenv(configEnv, "")

	t.Run("no secret", func(t *testing.T) {
		t.Setenv("BLEBOXD_API_JWT_SECRET", "")
		if _, err := execute(t, "token", "--subject", "dashboard"); err == nil {
			t.Error("token without a secret should fail")
		}
	})
	t.Run("bad role", func(t *testing.T) {
		t.Setenv("BLEBOXD_API_JWT_SECRET", "cli-test-secret-key-for-jwt-signing-0123")
		if _, err := execute(t, "token", "--subject", "dashboard", "--role", "admin"); err == nil {
			t.Error("token with an unknown role should fail")
		}
	})
	t.Run("missing subject", func(t *testing.T) {
		t.Setenv("BLEBOXD_API_JWT_SECRET", "cli-test-secret-key-for-jwt-signing-0123")
		if _, err := execute(t, "token"); err == nil {
			t.Error("token without --subject should fail")
		}
	})
}

// ============================================================================
// Probe
// ============================================================================

func TestProbeCmd(t *testing.T) {
	srv := newBoxServer(t, nil)

	out, err := execute(t, "probe", serverAddr(srv))
	if err != nil {
		t.Fatalf("probe error = %v", err)
	}

	var st bridge.DeviceStatus
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("probe output is not JSON: %v\n%s", err, out)
	}
	if st.ID != sensorID {
		t.Errorf("ID = %q, want %q", st.ID, sensorID)
	}
	if !st.Reachable {
		t.Error("Reachable = false, want true")
	}
	if len(st.Features) != 1 || st.Features[0].Alias != "0.temperature" {
		t.Errorf("Features = %+v, want one 0.temperature feature", st.Features)
	}
}

func TestProbeCmd_Unreachable(t *testing.T) {
	var down atomic.Bool
	down.Store(true)
	srv := newBoxServer(t, &down)

	if _, err := execute(t, "probe", serverAddr(srv), "--timeout", "1s"); err == nil {
		t.Error("probe should fail when the box answers 503")
	}
}

func TestProbeCmd_RequiresAddress(t *testing.T) {
	if _, err := execute(t, "probe"); err == nil {
		t.Error("probe without an address should fail")
	}
}

// ============================================================================
// Discover Output
// ============================================================================

func TestPrintHosts(t *testing.T) {
	tests := []struct {
		name  string
		hosts []discovery.Host
		want  []string
	}{
		{
			name: "none",
			want: []string{"No boxes found."},
		},
		{
			name: "one",
			hosts: []discovery.Host{
				{Instance: "shutterBox-1afe34e750b8", HostName: "shutterbox.local.", Addr: "192.168.1.20", Port: 80},
			},
			want: []string{"INSTANCE", "shutterBox-1afe34e750b8", "192.168.1.20:80", "shutterbox.local.", "1 box(es) found."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printHosts(&buf, tt.hosts)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("printHosts() output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

// ============================================================================
// Fleet
// ============================================================================

func TestFleet_OpenConfigured(t *testing.T) {
	srv := newBoxServer(t, nil)
	host, port := splitHostPort(t, srv)

	f, gw := newTestFleet(t, config.BleBoxConfig{
		Devices: []config.DeviceConfig{{Host: host, Port: port, Name: "attic"}},
	})
	f.openConfigured(context.Background())

	if !gw.Has(sensorID) {
		t.Errorf("bridge does not manage %s after openConfigured", sensorID)
	}
	if n := f.pendingCount(); n != 0 {
		t.Errorf("pendingCount() = %d, want 0", n)
	}

	// Same address again is ignored
	f.add(context.Background(), serverAddr(srv), "attic")
	if n := len(gw.Devices()); n != 1 {
		t.Errorf("len(Devices()) = %d, want 1", n)
	}
}

func TestFleet_RetryPending(t *testing.T) {
	var down atomic.Bool
	down.Store(true)
	srv := newBoxServer(t, &down)

	f, gw := newTestFleet(t, config.BleBoxConfig{})
	ctx := context.Background()

	f.add(ctx, serverAddr(srv), "attic")
	if n := f.pendingCount(); n != 1 {
		t.Fatalf("pendingCount() = %d, want 1", n)
	}
	if gw.Has(sensorID) {
		t.Fatal("bridge manages a box that failed to open")
	}

	f.retryPending(ctx)
	if n := f.pendingCount(); n != 1 {
		t.Errorf("pendingCount() after failed retry = %d, want 1", n)
	}

	down.Store(false)
	f.retryPending(ctx)
	if n := f.pendingCount(); n != 0 {
		t.Errorf("pendingCount() after successful retry = %d, want 0", n)
	}
	if !gw.Has(sensorID) {
		t.Errorf("bridge does not manage %s after retry", sensorID)
	}
}

func TestFleet_DuplicateIDIsNotPending(t *testing.T) {
	first := newBoxServer(t, nil)
	second := newBoxServer(t, nil)

	f, gw := newTestFleet(t, config.BleBoxConfig{})
	f.add(context.Background(), serverAddr(first), "")
	f.add(context.Background(), serverAddr(second), "")

	if n := len(gw.Devices()); n != 1 {
		t.Errorf("len(Devices()) = %d, want 1", n)
	}
	if n := f.pendingCount(); n != 0 {
		t.Errorf("pendingCount() = %d, want 0", n)
	}
}

func splitHostPort(t *testing.T, srv *httptest.Server) (string, int) {
	t.Helper()
	u := srv.Listener.Addr().(*net.TCPAddr)
	return u.IP.String(), u.Port
}

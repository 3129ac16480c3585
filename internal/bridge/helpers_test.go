package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-blebox/internal/blebox"
	"github.com/nerrad567/gray-logic-blebox/internal/blebox/session"
	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/mqtt"
)

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu            sync.Mutex
	published     []mockPublish
	subscriptions []mockSubscription
	connected     bool
	handlers      map[string]mqtt.MessageHandler
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

type mockSubscription struct {
	Topic string
	QoS   byte
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		connected: true,
		handlers:  make(map[string]mqtt.MessageHandler),
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, mockPublish{
		Topic:    topic,
		Payload:  payload,
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, mockSubscription{Topic: topic, QoS: qos})
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

func (m *MockMQTTClient) GetPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockPublish(nil), m.published...)
}

func (m *MockMQTTClient) GetSubscriptions() []mockSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockSubscription(nil), m.subscriptions...)
}

func (m *MockMQTTClient) ClearPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = nil
}

// PublishedOn returns the messages published on topic.
func (m *MockMQTTClient) PublishedOn(topic string) []mockPublish {
	var out []mockPublish
	for _, p := range m.GetPublished() {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// SimulateMessage delivers payload to the handler subscribed on filter.
func (m *MockMQTTClient) SimulateMessage(filter, topic string, payload []byte) error {
	m.mu.Lock()
	handler := m.handlers[filter]
	m.mu.Unlock()
	if handler == nil {
		return nil
	}
	return handler(topic, payload)
}

// mockMetrics records feature metrics.
type mockMetrics struct {
	mu     sync.Mutex
	points []mockPoint
}

type mockPoint struct {
	DeviceID, Feature, Kind string
	Fields                  map[string]float64
}

func (m *mockMetrics) WriteFeatureMetric(deviceID, feature, kind string, fields map[string]float64, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, mockPoint{deviceID, feature, kind, fields})
}

func (m *mockMetrics) find(feature string) (mockPoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.points {
		if p.Feature == feature {
			return p, true
		}
	}
	return mockPoint{}, false
}

// fakeTransport serves canned replies keyed by "METHOD path".
type fakeTransport struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{replies: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeTransport) Get(_ context.Context, path string) (any, error) {
	return f.reply("GET " + path)
}

func (f *fakeTransport) Post(_ context.Context, path, _ string) (any, error) {
	return f.reply("POST " + path)
}

func (f *fakeTransport) set(key, reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[key] = reply
	delete(f.errs, key)
}

func (f *fakeTransport) fail(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[key] = err
}

func (f *fakeTransport) reply(key string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	payload, ok := f.replies[key]
	if !ok {
		return nil, &session.HTTPError{Status: 404, Path: key}
	}
	if payload == "" {
		return nil, nil
	}
	return decodeJSON(payload)
}

func (f *fakeTransport) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == key {
			n++
		}
	}
	return n
}

func decodeJSON(payload string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

const (
	shutterID    = "1afe34e750b8"
	shutterInfo  = `{"device":{"id":"1afe34e750b8","type":"shutterBox","deviceName":"Blinds","apiLevel":"20180604"}}`
	shutterState = `{"shutter":{"state":2,"currentPos":{"position":34},"desiredPos":{"position":78}}}`

	sensorID    = "5ccf7f0a1b2c"
	sensorInfo  = `{"id":"5ccf7f0a1b2c","type":"tempSensor","deviceName":"Attic","apiLevel":20180604}`
	sensorState = `{"tempSensor":{"sensors":[{"id":0,"value":2150}]}}`
)

// openDevice opens a session device over a fake transport seeded with info
// and state.
func openDevice(t *testing.T, info, statePath, state string) (*session.Device, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	ft.set("GET /info", info)
	if statePath != "" {
		ft.set("GET "+statePath, state)
	}
	dev, err := session.Open(context.Background(), ft, session.Options{Addr: "10.0.0.5:80", FreshnessWindow: -1})
	if err != nil {
		t.Fatalf("session.Open() error = %v", err)
	}
	return dev, ft
}

func newTestBridge(t *testing.T, devices ...Device) (*Bridge, *MockMQTTClient, *mockMetrics) {
	t.Helper()
	client := NewMockMQTTClient()
	metrics := &mockMetrics{}
	b, err := New(Options{
		MQTT:         client,
		Metrics:      metrics,
		PollInterval: time.Hour,
		Version:      "test",
		Now:          func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, dev := range devices {
		if err := b.Add(dev); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	t.Cleanup(b.Stop)
	return b, client, metrics
}

// testFeature builds a box of boxType with state applied and returns the
// feature named alias.
func testFeature[F blebox.Feature](t *testing.T, boxType string, level int, alias, state string) F {
	t.Helper()
	box, err := blebox.NewBox(blebox.Identity{ID: "abc", Type: boxType, Name: "Test", APILevel: level}, nil)
	if err != nil {
		t.Fatalf("NewBox(%s) error = %v", boxType, err)
	}
	if state != "" {
		data, err := decodeJSON(state)
		if err != nil {
			t.Fatalf("decoding state: %v", err)
		}
		if err := box.Update(data); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}
	f, ok := box.Feature(alias)
	if !ok {
		t.Fatalf("feature %q not found", alias)
	}
	typed, ok := f.(F)
	if !ok {
		t.Fatalf("feature %q is %T", alias, f)
	}
	return typed
}

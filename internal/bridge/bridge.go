package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-blebox/internal/blebox"
	"github.com/nerrad567/gray-logic-blebox/internal/blebox/session"
	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/mqtt"
)

// Default values for bridge options.
const (
	DefaultPollInterval = 5 * time.Second
	defaultQoS          = 1
)

// MQTTClient is the MQTT surface the bridge needs. *mqtt.Client satisfies it.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Device is one opened box. *session.Device satisfies it. Inspect may hold
// the device lock, so its callback must not call back into the device.
type Device interface {
	ID() string
	Addr() string
	Identity() blebox.Identity
	LastRefresh() (time.Time, error)
	Refresh(ctx context.Context) error
	Command(ctx context.Context, alias string, encode func(blebox.Feature) (blebox.Request, error)) error
	Inspect(fn func(b *blebox.Box))
}

// Listener receives the messages the bridge publishes.
type Listener interface {
	StateChanged(msg StateMessage)
	HealthChanged(msg HealthMessage)
}

// Logger is the logging surface the bridge needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Bridge.
type Options struct {
	// MQTT publishes state and receives commands. Required.
	MQTT MQTTClient

	// Metrics stores numeric readings. Optional.
	Metrics MetricsWriter

	// Topics builds topic names. The zero value uses the default prefix.
	Topics mqtt.Topics

	// PollInterval is the time between polls. Zero means DefaultPollInterval.
	PollInterval time.Duration

	// Version is reported in health messages.
	Version string

	// Logger receives diagnostics. Optional.
	Logger Logger

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// Bridge polls BleBox devices and relays their state and commands over MQTT.
//
// Thread Safety: all methods are safe for concurrent use.
type Bridge struct {
	mqtt         MQTTClient
	metrics      MetricsWriter
	topics       mqtt.Topics
	pollInterval time.Duration
	version      string
	now          func() time.Time
	startTime    time.Time

	logger   Logger
	loggerMu sync.RWMutex

	devicesMu sync.RWMutex
	devices   map[string]Device

	// stateCache holds the last published state payload per topic.
	stateMu    sync.Mutex
	stateCache map[string]string

	ctx       context.Context
	ctxCancel context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once

	statsMu sync.Mutex
	stats   Stats

	listenersMu sync.RWMutex
	listeners   []Listener
}

// Stats holds bridge counters.
type Stats struct {
	Polls            uint64 `json:"polls"`
	RefreshErrors    uint64 `json:"refresh_errors"`
	StatesPublished  uint64 `json:"states_published"`
	CommandsReceived uint64 `json:"commands_received"`
	CommandsFailed   uint64 `json:"commands_failed"`
}

// New creates a bridge. Devices are added with Add.
//
// Returns:
//   - *Bridge: Configured bridge, not yet started
//   - error: if a required option is missing
func New(opts Options) (*Bridge, error) {
	if opts.MQTT == nil {
		return nil, errors.New("bridge: mqtt client is required")
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		mqtt:         opts.MQTT,
		metrics:      opts.Metrics,
		topics:       opts.Topics,
		pollInterval: interval,
		version:      opts.Version,
		now:          now,
		startTime:    now(),
		logger:       opts.Logger,
		devices:      make(map[string]Device),
		stateCache:   make(map[string]string),
		ctx:          ctx,
		ctxCancel:    cancel,
	}, nil
}

// Add starts managing dev.
//
// Returns:
//   - error: ErrDuplicateDevice if a device with the same id is managed
func (b *Bridge) Add(dev Device) error {
	b.devicesMu.Lock()
	defer b.devicesMu.Unlock()
	id := dev.ID()
	if _, ok := b.devices[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, id)
	}
	b.devices[id] = dev
	b.logInfo("device added", "device_id", id, "addr", dev.Addr())
	return nil
}

// Has reports whether a device with id is managed.
func (b *Bridge) Has(id string) bool {
	b.devicesMu.RLock()
	defer b.devicesMu.RUnlock()
	_, ok := b.devices[id]
	return ok
}

// Device returns the managed device with id.
func (b *Bridge) Device(id string) (Device, bool) {
	b.devicesMu.RLock()
	defer b.devicesMu.RUnlock()
	dev, ok := b.devices[id]
	return dev, ok
}

// Devices returns the managed devices sorted by id.
func (b *Bridge) Devices() []Device {
	b.devicesMu.RLock()
	out := make([]Device, 0, len(b.devices))
	for _, dev := range b.devices {
		out = append(out, dev)
	}
	b.devicesMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Start subscribes to command topics and starts the poll loop. The first
// poll runs immediately.
//
// Returns:
//   - error: if the command subscription fails
func (b *Bridge) Start(ctx context.Context) error {
	var err error
	b.startOnce.Do(func() {
		b.publishHealth(b.healthMessage(HealthStarting, "bridge starting"))

		if err = b.mqtt.Subscribe(b.topics.AllCommands(), defaultQoS, b.handleMQTTMessage); err != nil {
			err = fmt.Errorf("subscribing to commands: %w", err)
			return
		}

		b.wg.Add(1)
		go b.pollLoop(ctx)

		b.logInfo("bridge started",
			"devices", len(b.Devices()),
			"poll_interval", b.pollInterval.String(),
			"commands", b.topics.AllCommands(),
		)
	})
	return err
}

// Stop halts the poll loop and publishes a stopping health message.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.ctxCancel()
		b.wg.Wait()
		b.publishHealth(b.healthMessage(HealthStopping, "bridge shutting down"))
		b.logInfo("bridge stopped")
	})
}

func (b *Bridge) pollLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	b.PollOnce(b.ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.PollOnce(b.ctx)
		}
	}
}

// PollOnce refreshes every device concurrently, publishes feature states
// and metrics, then publishes health.
func (b *Bridge) PollOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, dev := range b.Devices() {
		wg.Add(1)
		go func(dev Device) {
			defer wg.Done()
			b.pollDevice(ctx, dev)
		}(dev)
	}
	wg.Wait()

	b.statsMu.Lock()
	b.stats.Polls++
	b.statsMu.Unlock()

	b.publishHealth(b.healthMessage("", ""))
}

func (b *Bridge) pollDevice(ctx context.Context, dev Device) {
	err := dev.Refresh(ctx)
	if err != nil {
		b.statsMu.Lock()
		b.stats.RefreshErrors++
		b.statsMu.Unlock()
		if isTransportError(err) {
			b.logWarn("device unreachable", "device_id", dev.ID(), "error", err)
			return
		}
		// Decode errors leave the other features updated.
		b.logWarn("device state partially decoded", "device_id", dev.ID(), "error", err)
	}
	b.publishDevice(dev, true)
}

// publishDevice publishes the state of every feature of dev and, when
// withMetrics is set, writes their readings.
func (b *Bridge) publishDevice(dev Device, withMetrics bool) {
	ts := b.now()
	id := dev.ID()
	var msgs []StateMessage
	type metric struct {
		alias, kind string
		fields      map[string]float64
	}
	var metrics []metric

	dev.Inspect(func(box *blebox.Box) {
		for _, f := range box.Features() {
			msgs = append(msgs, stateMessage(id, f, ts))
			if withMetrics && b.metrics != nil {
				if fields := FeatureFields(f); len(fields) > 0 {
					metrics = append(metrics, metric{f.Alias(), f.Kind().String(), fields})
				}
			}
		}
	})

	for _, msg := range msgs {
		b.publishState(msg)
	}
	for _, m := range metrics {
		b.metrics.WriteFeatureMetric(id, m.alias, m.kind, m.fields, ts)
	}
}

func stateMessage(deviceID string, f blebox.Feature, ts time.Time) StateMessage {
	return StateMessage{
		DeviceID:  deviceID,
		Feature:   f.Alias(),
		Kind:      f.Kind().String(),
		UniqueID:  f.UniqueID(),
		Name:      f.FullName(),
		Timestamp: ts,
		State:     f.State(),
	}
}

// publishState publishes msg retained unless the state is unchanged since
// the last publish on its topic.
func (b *Bridge) publishState(msg StateMessage) {
	topic := b.topics.State(msg.DeviceID, msg.Feature)

	stateJSON, err := json.Marshal(msg.State)
	if err != nil {
		b.logError("marshalling state", err, "topic", topic)
		return
	}
	b.stateMu.Lock()
	unchanged := b.stateCache[topic] == string(stateJSON)
	b.stateMu.Unlock()
	if unchanged {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("marshalling state message", err, "topic", topic)
		return
	}
	if err := b.mqtt.Publish(topic, payload, defaultQoS, true); err != nil {
		b.logError("publishing state", err, "topic", topic)
		return
	}

	b.stateMu.Lock()
	b.stateCache[topic] = string(stateJSON)
	b.stateMu.Unlock()

	b.statsMu.Lock()
	b.stats.StatesPublished++
	b.statsMu.Unlock()

	for _, l := range b.getListeners() {
		l.StateChanged(msg)
	}
}

// AddListener registers l for state and health messages. Listeners are
// called synchronously and must not block.
func (b *Bridge) AddListener(l Listener) {
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	b.listeners = append(b.listeners, l)
}

func (b *Bridge) getListeners() []Listener {
	b.listenersMu.RLock()
	defer b.listenersMu.RUnlock()
	return append([]Listener(nil), b.listeners...)
}

// handleMQTTMessage processes one command message.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) error {
	category, deviceID, alias, ok := b.topics.ParseDeviceTopic(topic)
	if !ok || category != "command" {
		b.logDebug("ignoring message on unexpected topic", "topic", topic)
		return nil
	}

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logError("invalid command payload", err, "topic", topic)
		return nil
	}
	if cmd.Source == "" {
		cmd.Source = "mqtt"
	}

	ack := b.Execute(b.ctx, deviceID, alias, cmd)
	b.publishAck(ack)
	return nil
}

// Execute runs cmd on the feature alias of device deviceID and returns the
// acknowledgement. On success the feature states of the device are
// republished.
//
// A command refused because the device was never refreshed triggers one
// refresh and one retry.
func (b *Bridge) Execute(ctx context.Context, deviceID, alias string, cmd CommandMessage) AckMessage {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	b.statsMu.Lock()
	b.stats.CommandsReceived++
	b.statsMu.Unlock()

	ack := AckMessage{
		CommandID: cmd.ID,
		DeviceID:  deviceID,
		Feature:   alias,
		Status:    AckAccepted,
	}

	dev, ok := b.Device(deviceID)
	if !ok {
		return b.failAck(ack, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID))
	}

	encode := func(f blebox.Feature) (blebox.Request, error) { return Encode(f, cmd) }
	err := dev.Command(ctx, alias, encode)
	if errors.Is(err, blebox.ErrStateNotAvailable) {
		if refreshErr := dev.Refresh(ctx); refreshErr == nil {
			err = dev.Command(ctx, alias, encode)
		}
	}
	if err != nil {
		return b.failAck(ack, err)
	}

	b.logInfo("command executed",
		"command_id", cmd.ID,
		"device_id", deviceID,
		"feature", alias,
		"command", cmd.Command,
		"source", cmd.Source,
	)
	b.publishDevice(dev, false)
	ack.Timestamp = b.now()
	return ack
}

func (b *Bridge) failAck(ack AckMessage, err error) AckMessage {
	b.statsMu.Lock()
	b.stats.CommandsFailed++
	b.statsMu.Unlock()

	code := ErrorCode(err)
	ack.Status = AckFailed
	if code == ErrCodeTimeout {
		ack.Status = AckTimeout
	}
	ack.Timestamp = b.now()
	ack.Error = &AckError{Code: code, Message: err.Error()}
	b.logWarn("command failed",
		"command_id", ack.CommandID,
		"device_id", ack.DeviceID,
		"feature", ack.Feature,
		"code", code,
		"error", err,
	)
	return ack
}

// ErrorCode maps a command error to its acknowledgement code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		return ErrCodeDeviceNotFound
	case errors.Is(err, session.ErrUnknownFeature):
		return ErrCodeFeatureNotFound
	case errors.Is(err, ErrUnknownCommand), errors.Is(err, blebox.ErrUnknownCommand):
		return ErrCodeInvalidCommand
	case errors.Is(err, ErrInvalidParameters), errors.Is(err, blebox.ErrBadValue):
		return ErrCodeInvalidParameters
	case errors.Is(err, blebox.ErrMisconfiguredDevice):
		return ErrCodeNotSupported
	case errors.Is(err, blebox.ErrStateNotAvailable):
		return ErrCodeStateNotAvailable
	case errors.Is(err, session.ErrTimeout):
		return ErrCodeTimeout
	case errors.Is(err, session.ErrConnection):
		return ErrCodeDeviceUnreachable
	case errors.Is(err, session.ErrHTTPStatus), errors.Is(err, session.ErrClient):
		return ErrCodeProtocolError
	}
	return ErrCodeBridgeError
}

func isTransportError(err error) bool {
	return errors.Is(err, session.ErrTimeout) ||
		errors.Is(err, session.ErrConnection) ||
		errors.Is(err, session.ErrHTTPStatus) ||
		errors.Is(err, session.ErrClient)
}

func (b *Bridge) publishAck(ack AckMessage) {
	topic := b.topics.Ack(ack.DeviceID, ack.Feature)
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("marshalling ack", err, "topic", topic)
		return
	}
	if err := b.mqtt.Publish(topic, payload, defaultQoS, false); err != nil {
		b.logError("publishing ack", err, "topic", topic)
	}
}

// GetStats returns a copy of the bridge counters.
func (b *Bridge) GetStats() Stats {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	return b.stats
}

// SetLogger replaces the logger.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	defer b.loggerMu.Unlock()
	b.logger = logger
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logDebug(msg string, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Debug(msg, args...)
	}
}

func (b *Bridge) logInfo(msg string, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Info(msg, args...)
	}
}

func (b *Bridge) logWarn(msg string, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Warn(msg, args...)
	}
}

func (b *Bridge) logError(msg string, err error, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Error(msg, append(args, "error", err)...)
	}
}

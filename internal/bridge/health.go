package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-blebox/internal/blebox"
)

// Health returns the current health message without publishing it.
func (b *Bridge) Health() HealthMessage {
	return b.healthMessage("", "")
}

// healthMessage builds a health message. An empty status is derived from
// device reachability and the MQTT connection.
func (b *Bridge) healthMessage(status HealthStatus, reason string) HealthMessage {
	devices := b.Devices()
	msg := HealthMessage{
		Timestamp:      b.now(),
		Version:        b.version,
		UptimeSeconds:  int64(b.now().Sub(b.startTime).Seconds()),
		DevicesManaged: len(devices),
		Devices:        make([]DeviceHealth, 0, len(devices)),
	}

	for _, dev := range devices {
		h := deviceHealth(dev)
		if h.Reachable {
			msg.DevicesReachable++
		}
		msg.Devices = append(msg.Devices, h)
	}

	if status == "" {
		status, reason = b.determineStatus(msg.DevicesManaged, msg.DevicesReachable)
	}
	msg.Status = status
	msg.Reason = reason
	return msg
}

// determineStatus derives the health status from reachability.
func (b *Bridge) determineStatus(managed, reachable int) (HealthStatus, string) {
	switch {
	case !b.mqtt.IsConnected():
		return HealthDegraded, "mqtt disconnected"
	case managed == 0:
		return HealthHealthy, "no devices managed"
	case reachable == 0:
		return HealthUnhealthy, "no device reachable"
	case reachable < managed:
		return HealthDegraded, fmt.Sprintf("%d of %d devices unreachable", managed-reachable, managed)
	}
	return HealthHealthy, ""
}

// deviceHealth reports dev reachable unless its last refresh failed in
// transport. An opened device that was never refreshed counts as reachable.
func deviceHealth(dev Device) DeviceHealth {
	last, err := dev.LastRefresh()
	h := DeviceHealth{
		ID:        dev.ID(),
		Type:      dev.Identity().Type,
		Addr:      dev.Addr(),
		Reachable: !isTransportError(err),
	}
	if !last.IsZero() {
		h.LastRefresh = &last
	}
	if err != nil {
		h.Error = err.Error()
	}
	return h
}

func (b *Bridge) publishHealth(msg HealthMessage) {
	topic := b.topics.Health()
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("marshalling health", err)
		return
	}
	if err := b.mqtt.Publish(topic, payload, defaultQoS, true); err != nil {
		b.logError("publishing health", err, "topic", topic)
	}
	for _, l := range b.getListeners() {
		l.HealthChanged(msg)
	}
}

// DeviceStatus describes one managed device and its features.
type DeviceStatus struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Product     string          `json:"product,omitempty"`
	Model       string          `json:"model"`
	Firmware    string          `json:"firmware,omitempty"`
	APILevel    int             `json:"api_level"`
	TierLevel   int             `json:"tier_level"`
	Outdated    bool            `json:"outdated"`
	Addr        string          `json:"addr,omitempty"`
	Reachable   bool            `json:"reachable"`
	LastRefresh *time.Time      `json:"last_refresh,omitempty"`
	Error       string          `json:"error,omitempty"`
	Features    []FeatureStatus `json:"features"`
}

// FeatureStatus describes one feature of a device.
type FeatureStatus struct {
	Alias    string         `json:"alias"`
	Kind     string         `json:"kind"`
	UniqueID string         `json:"unique_id"`
	Name     string         `json:"name"`
	State    map[string]any `json:"state"`
}

// Describe returns the status of dev.
func Describe(dev Device) DeviceStatus {
	h := deviceHealth(dev)
	id := dev.Identity()
	st := DeviceStatus{
		ID:          id.ID,
		Name:        id.Name,
		Type:        id.Type,
		Product:     id.Product,
		Firmware:    id.FirmwareVersion,
		APILevel:    id.APILevel,
		Addr:        dev.Addr(),
		Reachable:   h.Reachable,
		LastRefresh: h.LastRefresh,
		Error:       h.Error,
	}
	dev.Inspect(func(box *blebox.Box) {
		st.Model = box.Model()
		st.TierLevel = box.TierLevel()
		st.Outdated = box.Outdated()
		for _, f := range box.Features() {
			st.Features = append(st.Features, FeatureStatus{
				Alias:    f.Alias(),
				Kind:     f.Kind().String(),
				UniqueID: f.UniqueID(),
				Name:     f.FullName(),
				State:    f.State(),
			})
		}
	})
	if st.Features == nil {
		st.Features = []FeatureStatus{}
	}
	return st
}

// Status returns the status of every managed device sorted by id.
func (b *Bridge) Status() []DeviceStatus {
	devices := b.Devices()
	out := make([]DeviceStatus, 0, len(devices))
	for _, dev := range devices {
		out = append(out, Describe(dev))
	}
	return out
}

package bridge

import (
	"time"
)

// CommandMessage asks the bridge to run a command on one feature.
// Topic: {prefix}/command/{device_id}/{feature}
type CommandMessage struct {
	// ID correlates the command with its acknowledgement. The bridge fills
	// it in when empty.
	ID string `json:"id"`

	// Timestamp is when the command was issued.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// Command is the command name (e.g., "on", "set_position").
	Command string `json:"command"`

	// Parameters contains command-specific values.
	// Examples:
	//   {"position": 75} for set_position
	//   {"brightness": 128, "color": "ff8000"} for a light "on"
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the command originated ("mqtt", "api").
	Source string `json:"source,omitempty"`
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckAccepted indicates the box accepted the command.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command could not be executed.
	AckFailed AckStatus = "failed"

	// AckTimeout indicates the box did not answer in time.
	AckTimeout AckStatus = "timeout"
)

// AckMessage reports the outcome of a command.
// Topic: {prefix}/ack/{device_id}/{feature}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Feature   string    `json:"feature"`
	Status    AckStatus `json:"status"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	// Code is the error code (e.g., "DEVICE_UNREACHABLE", "INVALID_COMMAND").
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeDeviceNotFound    = "DEVICE_NOT_FOUND"
	ErrCodeFeatureNotFound   = "FEATURE_NOT_FOUND"
	ErrCodeDeviceUnreachable = "DEVICE_UNREACHABLE"
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeNotSupported      = "NOT_SUPPORTED"
	ErrCodeStateNotAvailable = "STATE_NOT_AVAILABLE"
	ErrCodeProtocolError     = "PROTOCOL_ERROR"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeBridgeError       = "BRIDGE_ERROR"
)

// Failed reports whether the command was not executed.
func (a AckMessage) Failed() bool { return a.Status != AckAccepted }

// StateMessage carries the decoded state of one feature.
// Topic: {prefix}/state/{device_id}/{feature}
// QoS: 1, Retained: Yes
type StateMessage struct {
	DeviceID  string         `json:"device_id"`
	Feature   string         `json:"feature"`
	Kind      string         `json:"kind"`
	UniqueID  string         `json:"unique_id"`
	Name      string         `json:"name"`
	Timestamp time.Time      `json:"timestamp"`
	State     map[string]any `json:"state"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates every device answered the last poll.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates some devices did not answer.
	HealthDegraded HealthStatus = "degraded"

	// HealthUnhealthy indicates no device answered.
	HealthUnhealthy HealthStatus = "unhealthy"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports the bridge status after each poll.
// Topic: {prefix}/health
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Timestamp        time.Time      `json:"timestamp"`
	Status           HealthStatus   `json:"status"`
	Version          string         `json:"version"`
	UptimeSeconds    int64          `json:"uptime_seconds"`
	DevicesManaged   int            `json:"devices_managed"`
	DevicesReachable int            `json:"devices_reachable"`
	Devices          []DeviceHealth `json:"devices,omitempty"`
	Reason           string         `json:"reason,omitempty"`
}

// DeviceHealth is one device's entry in a HealthMessage.
type DeviceHealth struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Addr        string     `json:"addr,omitempty"`
	Reachable   bool       `json:"reachable"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	Error       string     `json:"error,omitempty"`
}

package mqtt

import (
	"encoding/json"
	"time"
)

// Gateway availability values published on Topics.SystemStatus.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Reasons attached to offline status messages.
const (
	ReasonShutdown   = "graceful_shutdown"
	ReasonConnLost   = "unexpected_disconnect"
	ReasonRetryLimit = "reconnect_attempts_exhausted"
)

// StatusMessage is the retained availability message for the gateway. The
// broker publishes the offline variant as the Last Will when the gateway
// vanishes without a clean disconnect.
type StatusMessage struct {
	Status    string    `json:"status"`
	ClientID  string    `json:"client_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// statusPayload encodes a StatusMessage stamped at now, to the second.
func statusPayload(status, clientID, reason string, now time.Time) []byte {
	//nolint:errchkjson // fixed struct of strings and a time cannot fail to encode
	payload, _ := json.Marshal(StatusMessage{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: now.UTC().Truncate(time.Second),
	})
	return payload
}

package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout bounds the first connection attempt.
	defaultConnectTimeout = 10 * time.Second

	// defaultOperationTimeout bounds a publish or subscribe round trip.
	defaultOperationTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the grace period for in-flight messages, in ms.
	defaultDisconnectQuiesce = 1000

	// defaultKeepAlive is the PINGREQ interval.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the highest QoS level MQTT defines.
	maxQoS = 2

	// tlsMinVersion is the oldest TLS version accepted from the broker.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions maps the mqtt config section onto paho options.
//
// The broker URL uses ssl:// when TLS is enabled. Sessions are clean, so
// subscriptions are tracked by Client and replayed after every reconnect.
// Retry delays come from reconnect.initial_delay and reconnect.max_delay.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second).
		SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second).
		SetConnectTimeout(defaultConnectTimeout).
		SetKeepAlive(defaultKeepAlive)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}
	return opts
}

// configureLWT registers the offline StatusMessage as the Last Will on
// {prefix}/system/status, retained at QoS 1.
func configureLWT(opts *pahomqtt.ClientOptions, topics Topics, clientID string) {
	payload := statusPayload(StatusOffline, clientID, ReasonConnLost, time.Now())
	opts.SetBinaryWill(topics.SystemStatus(), payload, 1, true)
}

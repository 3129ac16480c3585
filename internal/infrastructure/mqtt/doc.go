// Package mqtt provides MQTT client connectivity for bleboxd.
//
// The client connects with auto-reconnect, publishes retained state and
// health, tracks command subscriptions for replay after reconnects, and
// announces gateway availability with a Last Will on {prefix}/system/status.
// Reconnecting stops after reconnect.max_attempts consecutive failures when
// that limit is set.
//
// # Topics
//
// Every topic starts with the configured prefix (default "blebox"):
//
//	{prefix}/state/{device_id}/{feature}    retained feature state
//	{prefix}/command/{device_id}/{feature}  commands to a feature
//	{prefix}/ack/{device_id}/{feature}      command acknowledgements
//	{prefix}/health                         retained gateway health
//	{prefix}/system/status                  online/offline (LWT)
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) when the broker is not on localhost
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}
//	err = client.Subscribe(topics.AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(topic, payload)
//	    })
package mqtt

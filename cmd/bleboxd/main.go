// bleboxd - BleBox gateway for MQTT, InfluxDB and HTTP.
//
// bleboxd opens BleBox boxes over their local HTTP API, polls them and
// publishes decoded feature state to MQTT. Commands arrive over MQTT or the
// REST API and are encoded per feature before being sent to the box.
//
// Usage:
//
//	bleboxd run --config /etc/bleboxd/config.yaml
//	bleboxd probe 192.168.1.20
//	bleboxd discover --timeout 5s
//	bleboxd token --subject dashboard --role operator
//	bleboxd version
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// Package api provides the HTTP REST API and WebSocket live feed for bleboxd.
//
// It exposes bridge health, the status of every managed box and a command
// endpoint that runs through the same path as MQTT commands.
//
//	GET  /api/v1/health
//	GET  /api/v1/devices
//	GET  /api/v1/devices/{id}
//	POST /api/v1/devices/{id}/features/{alias}/commands
//	GET  /api/v1/ws
//
// When api.auth is enabled every route except health requires a bearer token
// issued by the auth package. Viewers may read; operators may also command.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

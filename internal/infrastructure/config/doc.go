// Package config loads bleboxd.yaml.
//
// Load applies defaults, then the YAML file, then BLEBOXD_* environment
// overrides, and validates the result. Secrets (mqtt password, influxdb
// token, api.auth.jwt_secret) are best supplied through the environment:
//
//	BLEBOXD_MQTT_PASSWORD=... BLEBOXD_API_JWT_SECRET=... bleboxd run -c bleboxd.yaml
//
// The blebox section lists boxes by host[:port] and sets the poll interval,
// request timeout and freshness window shared by every box.
package config

// Package logging builds the slog loggers used across bleboxd.
//
// Every record carries service=bleboxd and the build version. Components
// get a child logger through Component, so poll, fleet and mqtt records can
// be told apart:
//
//	log := logging.New(cfg.Logging, version)
//	log.Component("fleet").Warn("box unreachable", "address", addr)
//
// Values under the keys password, token, secret and jwt_secret are
// replaced with [REDACTED] before they reach the output.
package logging

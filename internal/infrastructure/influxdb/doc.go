// Package influxdb stores bleboxd feature readings in InfluxDB v2.
//
// Each numeric reading of a polled feature becomes a field of one point in
// the blebox_metrics measurement, tagged with device_id, feature (the
// alias) and type (the feature kind):
//
//	blebox_metrics,device_id=1afe34e750b8,feature=position,type=cover position=78 1700000000
//
// Points are batched by the client's non-blocking write API. Write
// failures never reach the poll loop; register SetOnError to log them.
// Connect returns ErrDisabled when telemetry is switched off so the
// gateway can carry on without it.
package influxdb

// Package bridge connects opened BleBox devices to MQTT and InfluxDB.
//
// The bridge polls every device on a fixed interval and publishes one
// retained state message per feature, followed by a retained health
// message. It subscribes to feature command topics, encodes each command
// through the feature codec, executes it on the box and acknowledges it.
// Numeric readings are written to InfluxDB when a metrics writer is set.
//
// # Topics
//
//	{prefix}/state/{device_id}/{feature}    StateMessage, retained
//	{prefix}/command/{device_id}/{feature}  CommandMessage
//	{prefix}/ack/{device_id}/{feature}      AckMessage
//	{prefix}/health                         HealthMessage, retained
//
// # Commands
//
//	switch   on, off
//	cover    open, close, stop, set_position{position}, set_tilt{tilt}
//	light    on{value, brightness, color, color_temp, white}, off,
//	         set_effect{effect}
//	climate  on, off, set_temperature{temperature}
//	button   press
//
// # Thread Safety
//
// All Bridge methods are safe for concurrent use. Each device serialises
// its own refreshes and commands.
package bridge

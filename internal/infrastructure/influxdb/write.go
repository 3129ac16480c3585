package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// FeatureMeasurement is the measurement every feature reading is written to.
const FeatureMeasurement = "blebox_metrics"

// NewFeaturePoint builds the point for one feature reading.
//
// Tags are device_id, feature (the feature alias) and type (the feature
// kind). Each numeric reading becomes one field.
//
// Parameters:
//   - deviceID: Box id (e.g., "1afe34e750b8")
//   - feature: Feature alias (e.g., "position", "0.temperature")
//   - kind: Feature kind (e.g., "cover", "sensor")
//   - fields: Numeric readings keyed by field name
//   - ts: Observation time
func NewFeaturePoint(deviceID, feature, kind string, fields map[string]float64, ts time.Time) *write.Point {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return write.NewPoint(
		FeatureMeasurement,
		map[string]string{
			"device_id": deviceID,
			"feature":   feature,
			"type":      kind,
		},
		values,
		ts,
	)
}

// WriteFeatureMetric queues one feature reading. Readings without fields
// and writes on a closed client are dropped.
func (c *Client) WriteFeatureMetric(deviceID, feature, kind string, fields map[string]float64, ts time.Time) {
	if !c.IsConnected() || len(fields) == 0 {
		return
	}
	c.writeAPI.WritePoint(NewFeaturePoint(deviceID, feature, kind, fields, ts))
}

package bridge

import (
	"time"

	"github.com/nerrad567/gray-logic-blebox/internal/blebox"
)

// MetricsWriter stores numeric feature readings. *influxdb.Client satisfies
// it.
type MetricsWriter interface {
	WriteFeatureMetric(deviceID, feature, kind string, fields map[string]float64, ts time.Time)
}

// airQualityFields are the particulate readings written for air quality
// features.
var airQualityFields = []string{"pm1", "pm2_5", "pm10"}

// FeatureFields returns the known numeric readings of f. Features without
// numeric readings, or whose readings are unknown, return an empty map.
func FeatureFields(f blebox.Feature) map[string]float64 {
	fields := make(map[string]float64)
	switch feat := f.(type) {
	case *blebox.Sensor:
		if v, ok := feat.Value(); ok {
			fields["value"] = v
		}
	case *blebox.AirQuality:
		for _, name := range airQualityFields {
			if v, ok := feat.Reading(name); ok {
				fields[name] = float64(v)
			}
		}
	case *blebox.Climate:
		if v, ok := feat.Current(); ok {
			fields["temperature"] = v
		}
		if v, ok := feat.Desired(); ok {
			fields["desired"] = v
		}
	case *blebox.Cover:
		if v, ok := feat.Current(); ok {
			fields["position"] = float64(v)
		}
		if feat.SupportsTilt() {
			if v, ok := feat.Tilt(); ok {
				fields["tilt"] = float64(v)
			}
		}
	case *blebox.Light:
		if v, ok := feat.Brightness(); ok {
			fields["brightness"] = float64(v)
		}
	}
	return fields
}

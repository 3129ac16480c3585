package blebox

// SensorKind is the quantity a numeric sensor reports.
type SensorKind int

// Sensor kinds.
const (
	SensorTemperature SensorKind = iota + 1
	SensorHumidity
)

// sensorTraits are the per-kind constants of a numeric sensor. Raw values
// are hundredths of the unit.
type sensorTraits struct {
	unit     string
	maxValue int
	minValue int
}

func (k SensorKind) traits() sensorTraits {
	switch k {
	case SensorHumidity:
		return sensorTraits{unit: "%", maxValue: 10000, minValue: 0}
	default:
		return sensorTraits{unit: "°C", maxValue: 12500, minValue: -5500}
	}
}

func (k SensorKind) String() string {
	switch k {
	case SensorTemperature:
		return "temperature"
	case SensorHumidity:
		return "humidity"
	default:
		return "unknown"
	}
}

// sensorKindFor maps a multiSensor unit type to a kind.
func sensorKindFor(unitType string) (SensorKind, bool) {
	switch unitType {
	case "temperature":
		return SensorTemperature, true
	case "humidity":
		return SensorHumidity, true
	}
	return 0, false
}

// Sensor is a numeric reading such as a temperature probe.
type Sensor struct {
	base
	sensor SensorKind
	value  *float64
}

func newSensor(b base, spec FeatureSpec) *Sensor {
	kind := spec.Sensor
	if kind == 0 {
		kind = SensorTemperature
	}
	return &Sensor{base: b, sensor: kind}
}

// Refresh decodes the current reading.
func (s *Sensor) Refresh(data any) error {
	if err := s.begin(data); err != nil {
		return err
	}
	t := s.sensor.traits()
	v, err := s.readScaled(data, "value", t.maxValue, t.minValue)
	if err != nil {
		return err
	}
	if v != nil {
		s.value = v
	}
	return nil
}

// SensorKind returns the measured quantity.
func (s *Sensor) SensorKind() SensorKind { return s.sensor }

// Unit returns the unit of Value.
func (s *Sensor) Unit() string { return s.sensor.traits().unit }

// Value returns the last reading and whether one was decoded.
func (s *Sensor) Value() (float64, bool) {
	if s.value == nil {
		return 0, false
	}
	return *s.value, true
}

func (s *Sensor) State() map[string]any {
	return map[string]any{
		"sensor": s.sensor.String(),
		"value":  deref(s.value),
		"unit":   s.Unit(),
	}
}

// binaryDeviceClass maps a multiSensor unit type to a binary sensor class.
func binaryDeviceClass(unitType string) (string, bool) {
	switch unitType {
	case "rain", "flood":
		return "moisture", true
	}
	return "", false
}

// BinarySensor reports a detected condition such as rain or flooding.
type BinarySensor struct {
	base
	deviceClass string
	value       *int
}

func newBinarySensor(b base, deviceClass string) *BinarySensor {
	return &BinarySensor{base: b, deviceClass: deviceClass}
}

// Refresh decodes the raw value; anything above zero is "detected".
func (s *BinarySensor) Refresh(data any) error {
	if err := s.begin(data); err != nil {
		return err
	}
	v, err := s.readInt(data, "value", -1, 0)
	if err != nil {
		return err
	}
	if v != nil {
		s.value = v
	}
	return nil
}

// DeviceClass returns the sensor class, e.g. "moisture".
func (s *BinarySensor) DeviceClass() string { return s.deviceClass }

// Detected returns whether the condition is present and whether it is known.
func (s *BinarySensor) Detected() (detected, known bool) {
	if s.value == nil {
		return false, false
	}
	return *s.value > 0, true
}

func (s *BinarySensor) State() map[string]any {
	var detected any
	if on, known := s.Detected(); known {
		detected = on
	}
	return map[string]any{"device_class": s.deviceClass, "detected": detected}
}

// Air quality particulate fields and their bound in µg/m³.
const pmMax = 3000

var pmFields = []string{"pm1", "pm2_5", "pm10"}

// AirQuality reports particulate matter concentrations.
type AirQuality struct {
	base
	readings map[string]int
}

func newAirQuality(b base) *AirQuality {
	return &AirQuality{base: b, readings: make(map[string]int)}
}

// Refresh decodes every configured particulate field.
func (a *AirQuality) Refresh(data any) error {
	if err := a.begin(data); err != nil {
		return err
	}
	for _, field := range pmFields {
		if !a.has(field) {
			continue
		}
		v, err := a.readInt(data, field, pmMax, 0)
		if err != nil {
			return err
		}
		if v != nil {
			a.readings[field] = *v
		}
	}
	return nil
}

// Reading returns one concentration, e.g. Reading("pm2_5").
func (a *AirQuality) Reading(field string) (int, bool) {
	v, ok := a.readings[field]
	return v, ok
}

func (a *AirQuality) State() map[string]any {
	state := make(map[string]any, len(pmFields))
	for _, field := range pmFields {
		if v, ok := a.readings[field]; ok {
			state[field] = v
		} else {
			state[field] = nil
		}
	}
	return state
}

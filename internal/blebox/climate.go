package blebox

import (
	"fmt"
	"math"
)

// Temperature bounds in hundredths of a degree.
const (
	tempMax = 12500
	tempMin = -5500
)

// Climate is a heating controller with a target temperature.
type Climate struct {
	base
	isOn    *bool
	desired *float64
	current *float64
	minimum *float64
	maximum *float64
}

func newClimate(b base) *Climate {
	return &Climate{base: b}
}

// Refresh decodes on/off state and temperatures.
func (c *Climate) Refresh(data any) error {
	if err := c.begin(data); err != nil {
		return err
	}
	state, err := c.readInt(data, "state", 1, 0)
	if err != nil {
		return err
	}
	if state != nil {
		on := *state == 1
		c.isOn = &on
	}

	targets := []struct {
		field string
		dst   **float64
	}{
		{"desired", &c.desired},
		{"temperature", &c.current},
		{"minimum", &c.minimum},
		{"maximum", &c.maximum},
	}
	for _, t := range targets {
		if !c.has(t.field) {
			continue
		}
		v, err := c.readScaled(data, t.field, tempMax, tempMin)
		if err != nil {
			return err
		}
		if v != nil {
			*t.dst = v
		}
	}
	return nil
}

// IsOn returns whether the controller is enabled and whether that is known.
func (c *Climate) IsOn() (on, known bool) {
	if c.isOn == nil {
		return false, false
	}
	return *c.isOn, true
}

// IsHeating reports an enabled controller below its target.
func (c *Climate) IsHeating() bool {
	return c.isOn != nil && *c.isOn &&
		c.current != nil && c.desired != nil &&
		*c.current < *c.desired
}

// Desired returns the target temperature in °C.
func (c *Climate) Desired() (float64, bool) { return optional(c.desired) }

// Current returns the measured temperature in °C.
func (c *Climate) Current() (float64, bool) { return optional(c.current) }

// TurnOn encodes the "on" command.
func (c *Climate) TurnOn() (Request, error) {
	if err := c.ready(); err != nil {
		return Request{}, err
	}
	return c.commands.Build("on")
}

// TurnOff encodes the "off" command.
func (c *Climate) TurnOff() (Request, error) {
	if err := c.ready(); err != nil {
		return Request{}, err
	}
	return c.commands.Build("off")
}

// SetTemperature encodes a new target in °C. The wire value is hundredths.
// Targets outside the reported minimum and maximum are rejected.
func (c *Climate) SetTemperature(celsius float64) (Request, error) {
	if err := c.ready(); err != nil {
		return Request{}, err
	}
	if (c.minimum != nil && celsius < *c.minimum) || (c.maximum != nil && celsius > *c.maximum) {
		return Request{}, fmt.Errorf("%w: %.1f°C outside %s range", ErrBadValue, celsius, c.alias)
	}
	return c.commands.Build("set", int(math.Round(celsius*100)))
}

func (c *Climate) State() map[string]any {
	return map[string]any{
		"on":          deref(c.isOn),
		"heating":     c.IsHeating(),
		"desired":     deref(c.desired),
		"temperature": deref(c.current),
		"min":         deref(c.minimum),
		"max":         deref(c.maximum),
	}
}

func optional(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

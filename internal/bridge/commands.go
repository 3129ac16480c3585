package bridge

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/nerrad567/gray-logic-blebox/internal/blebox"
)

// Command names accepted by Encode.
const (
	CommandOn             = "on"
	CommandOff            = "off"
	CommandOpen           = "open"
	CommandClose          = "close"
	CommandStop           = "stop"
	CommandSetPosition    = "set_position"
	CommandSetTilt        = "set_tilt"
	CommandSetEffect      = "set_effect"
	CommandSetTemperature = "set_temperature"
	CommandPress          = "press"
)

// Encode builds the box request for cmd on feature f.
//
// Parameters:
//   - f: the target feature, with state applied
//   - cmd: command name and parameters
//
// Returns:
//   - blebox.Request: the request to perform
//   - error: ErrUnknownCommand, ErrInvalidParameters, or a feature codec error
//     (blebox.ErrBadValue, blebox.ErrStateNotAvailable, ...)
func Encode(f blebox.Feature, cmd CommandMessage) (blebox.Request, error) {
	switch feat := f.(type) {
	case *blebox.Switch:
		return encodeSwitch(feat, cmd)
	case *blebox.Cover:
		return encodeCover(feat, cmd)
	case *blebox.Light:
		return encodeLight(feat, cmd)
	case *blebox.Climate:
		return encodeClimate(feat, cmd)
	case *blebox.Button:
		if cmd.Command == CommandPress {
			return feat.Press()
		}
	default:
		return blebox.Request{}, fmt.Errorf("%w: %s features accept no commands", ErrUnknownCommand, f.Kind())
	}
	return blebox.Request{}, unknownCommand(f, cmd)
}

func unknownCommand(f blebox.Feature, cmd CommandMessage) error {
	return fmt.Errorf("%w: %q on %s feature", ErrUnknownCommand, cmd.Command, f.Kind())
}

func encodeSwitch(s *blebox.Switch, cmd CommandMessage) (blebox.Request, error) {
	switch cmd.Command {
	case CommandOn:
		return s.TurnOn()
	case CommandOff:
		return s.TurnOff()
	}
	return blebox.Request{}, unknownCommand(s, cmd)
}

func encodeCover(c *blebox.Cover, cmd CommandMessage) (blebox.Request, error) {
	switch cmd.Command {
	case CommandOpen:
		return c.Open()
	case CommandClose:
		return c.Close()
	case CommandStop:
		return c.Stop()
	case CommandSetPosition:
		pos, err := requireInt(cmd.Parameters, "position")
		if err != nil {
			return blebox.Request{}, err
		}
		return c.SetPosition(pos)
	case CommandSetTilt:
		tilt, err := requireInt(cmd.Parameters, "tilt")
		if err != nil {
			return blebox.Request{}, err
		}
		return c.SetTilt(tilt)
	}
	return blebox.Request{}, unknownCommand(c, cmd)
}

func encodeClimate(c *blebox.Climate, cmd CommandMessage) (blebox.Request, error) {
	switch cmd.Command {
	case CommandOn:
		return c.TurnOn()
	case CommandOff:
		return c.TurnOff()
	case CommandSetTemperature:
		temp, ok, err := floatParam(cmd.Parameters, "temperature")
		if err != nil {
			return blebox.Request{}, err
		}
		if !ok {
			return blebox.Request{}, fmt.Errorf("%w: temperature is required", ErrInvalidParameters)
		}
		return c.SetTemperature(temp)
	}
	return blebox.Request{}, unknownCommand(c, cmd)
}

func encodeLight(l *blebox.Light, cmd CommandMessage) (blebox.Request, error) {
	switch cmd.Command {
	case CommandOff:
		return l.TurnOff()
	case CommandSetEffect:
		effect, err := requireInt(cmd.Parameters, "effect")
		if err != nil {
			return blebox.Request{}, err
		}
		return l.SetEffect(effect)
	case CommandOn:
		value, err := lightOnValue(l, cmd.Parameters)
		if err != nil {
			return blebox.Request{}, err
		}
		if value != "" && !blebox.IsLightOn(value, 0) {
			return l.TurnOff()
		}
		return l.TurnOn(value)
	}
	return blebox.Request{}, unknownCommand(l, cmd)
}

// lightOnValue composes the value for an "on" command. The base is the
// explicit value, else the current value when lit, else the sensible on
// value. Colour, white and temperature are applied before brightness. An
// empty result lets TurnOn pick the sensible on value.
func lightOnValue(l *blebox.Light, params map[string]any) (string, error) {
	value, _, err := stringParam(params, "value")
	if err != nil {
		return "", err
	}
	color, hasColor, err := stringParam(params, "color")
	if err != nil {
		return "", err
	}
	white, hasWhite, err := intParam(params, "white")
	if err != nil {
		return "", err
	}
	temp, hasTemp, err := intParam(params, "color_temp")
	if err != nil {
		return "", err
	}
	brightness, hasBrightness, err := intParam(params, "brightness")
	if err != nil {
		return "", err
	}

	if !hasColor && !hasWhite && !hasTemp && !hasBrightness {
		return value, nil
	}
	if value == "" {
		if l.IsOn() {
			value = l.Value()
		} else if value, err = l.SensibleOnValue(); err != nil {
			return "", err
		}
	}
	if hasColor {
		if value, err = l.ApplyColor(value, color); err != nil {
			return "", err
		}
	}
	if hasWhite {
		if value, err = l.ApplyWhite(value, white); err != nil {
			return "", err
		}
	}
	if hasTemp {
		if value, err = l.ApplyColorTemp(value, temp); err != nil {
			return "", err
		}
	}
	if hasBrightness {
		if value, err = l.ApplyBrightness(value, brightness); err != nil {
			return "", err
		}
	}
	return value, nil
}

// requireInt reads a mandatory integer parameter.
func requireInt(params map[string]any, name string) (int, error) {
	v, ok, err := intParam(params, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidParameters, name)
	}
	return v, nil
}

// intParam reads an optional integer parameter. JSON numbers must be whole.
func intParam(params map[string]any, name string) (int, bool, error) {
	f, ok, err := floatParam(params, name)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParameters, name, f)
	}
	return int(f), true, nil
}

// floatParam reads an optional numeric parameter.
func floatParam(params map[string]any, name string) (float64, bool, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s: %w", ErrInvalidParameters, name, err)
		}
		return f, true, nil
	}
	return 0, false, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidParameters, name, raw)
}

// stringParam reads an optional string parameter.
func stringParam(params map[string]any, name string) (string, bool, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidParameters, name, raw)
	}
	return s, true, nil
}

package blebox

import (
	"fmt"
	"strings"
)

// LightModel selects how a light's value travels on the wire.
type LightModel int

// Light models.
const (
	// LightHex carries a hex colour string (wLightBox, wLightBoxS).
	LightHex LightModel = iota
	// LightDimmer carries a single integer brightness (dimmerBox).
	LightDimmer
)

// lightCodec is the immutable codec configuration of one light instance.
type lightCodec struct {
	model LightModel
	mode  ColorMode
	mask  Mask
}

func (c lightCodec) width() int { return c.mode.Channels() }

func (c lightCodec) offValue() string { return strings.Repeat("00", c.width()) }

func (c lightCodec) fullScale() string { return strings.Repeat("ff", c.width()) }

// Light is a dimmer or colour light. Its value is the hex fragment it owns:
// one byte per channel in the mode's channel order.
type Light struct {
	base
	codec   lightCodec
	effects []string

	desired string
	lastOn  string
	effect  int
}

func newLight(b base, spec FeatureSpec, effects []string) *Light {
	mode := spec.Mode
	if !mode.Valid() {
		mode = ColorModeMono
	}
	mask := spec.Mask
	if mask.Width == 0 {
		mask = NewMask(0, mode.Channels(), mode.Channels())
	}
	return &Light{
		base:    b,
		codec:   lightCodec{model: spec.Light, mode: mode, mask: mask},
		effects: effects,
	}
}

// Refresh decodes the desired value, the effect and the last-on value. An
// unreported desired value keeps the previous one; the first refresh must
// carry it.
func (l *Light) Refresh(data any) error {
	if err := l.begin(data); err != nil {
		return err
	}
	desired, err := l.readValue(data, "desired")
	if err != nil {
		return err
	}
	switch {
	case desired != "":
		l.desired = desired
	case l.desired == "":
		return &FieldError{Kind: ErrFieldMissing, Device: l.check.Device, Field: l.fieldName("desired")}
	}
	desired = l.desired

	if l.has("effect") {
		effect, err := l.readInt(data, "effect", -1, 0)
		if err != nil {
			return err
		}
		if effect != nil {
			l.effect = *effect
		}
	}

	if !allZero(desired) {
		l.lastOn = desired
		return nil
	}
	if l.has("lastColor") {
		last, err := l.readValue(data, "lastColor")
		if err != nil {
			return err
		}
		if last != "" && !allZero(last) {
			l.lastOn = last
		}
	}
	return nil
}

// readValue returns the fragment this instance owns, or "" for null.
func (l *Light) readValue(data any, field string) (string, error) {
	raw, err := l.raw(data, field)
	if err != nil || raw == nil {
		return "", err
	}
	name := l.fieldName(field)

	if l.codec.model == LightDimmer {
		n, err := l.check.ExpectInt(name, raw, channelMax, 0)
		if err != nil {
			return "", err
		}
		return FormatChannels([]int{n}), nil
	}

	wire, err := l.check.ExpectRGBW(name, raw)
	if err != nil {
		return "", err
	}
	fragment, ok := l.codec.mask.Extract(wire)
	if !ok {
		return "", &FieldError{Kind: ErrFieldNotRGBW, Device: l.check.Device, Field: name, Value: wire}
	}
	return l.check.ExpectHex(name, fragment, 2*l.codec.width())
}

// Mode returns the colour mode.
func (l *Light) Mode() ColorMode { return l.codec.mode }

// Mask returns the instance's mask.
func (l *Light) Mask() Mask { return l.codec.mask }

// Effects returns effect names indexed by effect id.
func (l *Light) Effects() []string { return l.effects }

// Effect returns the active effect id.
func (l *Light) Effect() int { return l.effect }

// Value returns the desired fragment.
func (l *Light) Value() string { return l.desired }

// IsOn reports a non-zero value or an active effect.
func (l *Light) IsOn() bool {
	return IsLightOn(l.desired, l.effect)
}

// IsLightOn is the off-value rule: the all-zero pattern with no effect is off.
func IsLightOn(value string, effect int) bool {
	if effect != 0 {
		return true
	}
	return value != "" && !allZero(value)
}

// Brightness returns the level of the current value.
func (l *Light) Brightness() (int, bool) {
	if l.desired == "" {
		return 0, false
	}
	b, err := l.BrightnessOf(l.desired)
	return b, err == nil
}

// BrightnessOf returns the level encoded in value: the raw channel for mono,
// the larger of the CT pair, or the strongest lit colour channel.
func (l *Light) BrightnessOf(value string) (int, error) {
	ch, err := l.channels(value)
	if err != nil {
		return 0, err
	}
	peak := 0
	for _, i := range l.codec.mode.brightnessChannels(ch) {
		peak = max(peak, ch[i])
	}
	return peak, nil
}

// ColorTemp returns the 0..255 colour temperature for CT modes.
func (l *Light) ColorTemp() (int, bool) {
	if !l.codec.mode.HasColorTemp() || l.desired == "" {
		return 0, false
	}
	ch, err := l.channels(l.desired)
	if err != nil {
		return 0, false
	}
	o := l.codec.mode.ctOffset()
	t, _ := WarmColdToTemperature(ch[o], ch[o+1])
	return t, true
}

// White returns the white channel for RGBW modes.
func (l *Light) White() (int, bool) {
	if !l.codec.mode.HasWhite() || l.desired == "" {
		return 0, false
	}
	ch, err := l.channels(l.desired)
	if err != nil {
		return 0, false
	}
	return ch[3], true
}

// RGB returns the colour channels as a six-digit hex string.
func (l *Light) RGB() (string, bool) {
	if !l.codec.mode.HasColor() || len(l.desired) < 6 {
		return "", false
	}
	return l.desired[:6], true
}

// SensibleOnValue returns the value to use when turning on without one: the
// last non-zero value, or full scale for the mode.
func (l *Light) SensibleOnValue() (string, error) {
	if err := l.ready(); err != nil {
		return "", err
	}
	if l.lastOn != "" && !allZero(l.lastOn) {
		return l.lastOn, nil
	}
	return l.codec.fullScale(), nil
}

// ApplyBrightness returns value with its level set to brightness.
//
// Mono sets the channel. CT modes keep the colour temperature and rescale the
// pair. Colour modes normalise the lit channels to full scale and then scale
// them by brightness/255; other channels are left alone.
func (l *Light) ApplyBrightness(value string, brightness int) (string, error) {
	if brightness < 0 || brightness > channelMax {
		return "", fmt.Errorf("%w: adjust_brightness called with bad parameter (%d is outside 0..255)", ErrBadValue, brightness)
	}
	ch, err := l.channels(value)
	if err != nil {
		return "", err
	}

	mode := l.codec.mode
	idx := mode.brightnessChannels(ch)
	if mode.HasColorTemp() && len(idx) == 2 && idx[0] == mode.ctOffset() {
		t, _ := WarmColdToTemperature(ch[idx[0]], ch[idx[1]])
		ch[idx[0]], ch[idx[1]] = TemperatureToWarmCold(t, brightness)
		return FormatChannels(ch), nil
	}

	lit := make([]int, len(idx))
	for i, c := range idx {
		lit[i] = ch[c]
	}
	scaled := ScaleChannels(NormalizeChannels(lit), brightness)
	for i, c := range idx {
		ch[c] = scaled[i]
	}
	return FormatChannels(ch), nil
}

// ApplyColor returns value with its R, G and B channels replaced by rgb (six
// hex digits). In RGBorW mode white is cleared so the colour shows.
func (l *Light) ApplyColor(value, rgb string) (string, error) {
	if !l.codec.mode.HasColor() {
		return "", fmt.Errorf("%w: %s mode has no colour channels", ErrMisconfiguredDevice, l.codec.mode)
	}
	ch, err := l.channels(value)
	if err != nil {
		return "", err
	}
	color, err := ParseChannels(rgb)
	if err != nil || len(color) != 3 {
		return "", fmt.Errorf("%w: rgb %q", ErrBadValue, rgb)
	}
	copy(ch, color)
	if l.codec.mode == ColorModeRGBorW {
		ch[3] = 0
	}
	return FormatChannels(ch), nil
}

// ApplyWhite returns value with its white channel set.
func (l *Light) ApplyWhite(value string, white int) (string, error) {
	if !l.codec.mode.HasWhite() {
		return "", fmt.Errorf("%w: %s mode has no white channel", ErrMisconfiguredDevice, l.codec.mode)
	}
	if white < 0 || white > channelMax {
		return "", fmt.Errorf("%w: white %d", ErrBadValue, white)
	}
	ch, err := l.channels(value)
	if err != nil {
		return "", err
	}
	ch[3] = white
	return FormatChannels(ch), nil
}

// ApplyColorTemp returns value with its CT pair set to temperature at the
// pair's current level, or full level when the pair is dark. In RGBWW mode
// the colour channels are cleared.
func (l *Light) ApplyColorTemp(value string, temperature int) (string, error) {
	mode := l.codec.mode
	if !mode.HasColorTemp() {
		return "", fmt.Errorf("%w: %s mode has no colour temperature", ErrMisconfiguredDevice, mode)
	}
	if temperature < 0 || temperature > channelMax {
		return "", fmt.Errorf("%w: colour temperature %d", ErrBadValue, temperature)
	}
	ch, err := l.channels(value)
	if err != nil {
		return "", err
	}
	o := mode.ctOffset()
	level := max(ch[o], ch[o+1])
	if level == 0 {
		level = channelMax
	}
	ch[o], ch[o+1] = TemperatureToWarmCold(temperature, level)
	if mode == ColorModeRGBWW {
		ch[0], ch[1], ch[2] = 0, 0, 0
	}
	return FormatChannels(ch), nil
}

// TurnOn encodes a "set" command for value. An empty value uses
// SensibleOnValue; an all-zero value is rejected.
func (l *Light) TurnOn(value string) (Request, error) {
	if err := l.ready(); err != nil {
		return Request{}, err
	}
	if value == "" {
		v, err := l.SensibleOnValue()
		if err != nil {
			return Request{}, err
		}
		value = v
	}
	if _, err := l.channels(value); err != nil {
		return Request{}, err
	}
	if allZero(value) {
		return Request{}, fmt.Errorf("%w: turn on requested with off value %q", ErrBadValue, value)
	}
	return l.set(value)
}

// TurnOff encodes a "set" command for the mode's off value.
func (l *Light) TurnOff() (Request, error) {
	if err := l.ready(); err != nil {
		return Request{}, err
	}
	return l.set(l.codec.offValue())
}

// SetEffect encodes an effect change.
func (l *Light) SetEffect(id int) (Request, error) {
	if err := l.ready(); err != nil {
		return Request{}, err
	}
	if _, ok := l.commands["effect"]; !ok {
		return Request{}, fmt.Errorf("%w: effects not supported", ErrMisconfiguredDevice)
	}
	if id < 0 || (len(l.effects) > 0 && id >= len(l.effects)) {
		return Request{}, fmt.Errorf("%w: effect %d", ErrBadValue, id)
	}
	return l.commands.Build("effect", id)
}

// set encodes an owned fragment onto the wire.
func (l *Light) set(value string) (Request, error) {
	if l.codec.model == LightDimmer {
		ch, err := ParseChannels(value)
		if err != nil {
			return Request{}, err
		}
		return l.commands.Build("set", ch[0])
	}
	return l.commands.Build("set", l.codec.mask.Apply(strings.ToLower(value)))
}

// channels parses value and checks it has the mode's channel count.
func (l *Light) channels(value string) ([]int, error) {
	ch, err := ParseChannels(value)
	if err != nil {
		return nil, err
	}
	if len(ch) != l.codec.width() {
		return nil, fmt.Errorf("%w: %q has %d channels, %s needs %d", ErrBadValue, value, len(ch), l.codec.mode, l.codec.width())
	}
	return ch, nil
}

func (l *Light) State() map[string]any {
	state := map[string]any{
		"on":         l.IsOn(),
		"value":      l.desired,
		"color_mode": l.codec.mode.String(),
	}
	if b, ok := l.Brightness(); ok {
		state["brightness"] = b
	}
	if t, ok := l.ColorTemp(); ok {
		state["color_temp"] = t
	}
	if w, ok := l.White(); ok {
		state["white"] = w
	}
	if rgb, ok := l.RGB(); ok {
		state["rgb"] = rgb
	}
	if len(l.effects) > 0 {
		state["effect"] = l.effect
		state["effects"] = l.effects
	}
	return state
}

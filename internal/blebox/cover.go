package blebox

import "fmt"

// CoverVariant identifies the hardware family of a cover.
type CoverVariant int

// Cover variants.
const (
	// CoverShutter reports state directly and may support tilt.
	CoverShutter CoverVariant = iota + 1
	// CoverGateController reports state directly.
	CoverGateController
	// CoverGateBox reports only positions; stop depends on the second
	// button's configuration.
	CoverGateBox
	// CoverGateBoxB reports only the current position and always has stop.
	CoverGateBoxB
)

// CoverState is the unified movement state of a cover. The values match the
// raw state of boxes that report it directly.
type CoverState int

// Cover states. Overload, motor failure and safety stop are only ever
// reported by hardware.
const (
	CoverMovingDown        CoverState = 0
	CoverMovingUp          CoverState = 1
	CoverManuallyStopped   CoverState = 2
	CoverLowerLimitReached CoverState = 3
	CoverUpperLimitReached CoverState = 4
	CoverOverload          CoverState = 5
	CoverMotorFailure      CoverState = 6
	CoverSafetyStop        CoverState = 8
)

func (s CoverState) String() string {
	switch s {
	case CoverMovingDown:
		return "moving_down"
	case CoverMovingUp:
		return "moving_up"
	case CoverManuallyStopped:
		return "manually_stopped"
	case CoverLowerLimitReached:
		return "lower_limit_reached"
	case CoverUpperLimitReached:
		return "upper_limit_reached"
	case CoverOverload:
		return "overload"
	case CoverMotorFailure:
		return "motor_failure"
	case CoverSafetyStop:
		return "safety_stop"
	default:
		return fmt.Sprintf("state_%d", int(s))
	}
}

// Position bounds. -1 is the vendor's "unknown".
const (
	positionUnknown = -1
	positionClosed  = 0
	positionOpen    = 100
)

// controlTypeTilt is the shutter control type with a tilt axis.
const controlTypeTilt = 3

// extraButtonStop is the gateBox second-button setting that means "stop".
const extraButtonStop = 1

type stateSource int

const (
	stateReported stateSource = iota
	statePositionPair
	stateCurrentOnly
)

type stopSupport int

const (
	stopAlways stopSupport = iota
	stopFromExtraButton
	stopAssumed
)

// coverTraits are the per-variant constants of the cover codec.
type coverTraits struct {
	deviceClass string
	states      stateSource
	maxState    int
	minPosition int
	slider      bool
	open        string
	close       string
	stop        string
	stopSupport stopSupport
}

func (v CoverVariant) traits() coverTraits {
	switch v {
	case CoverShutter:
		return coverTraits{
			deviceClass: "shutter", states: stateReported, maxState: int(CoverSafetyStop),
			minPosition: positionUnknown, slider: true,
			open: "open", close: "close", stop: "stop", stopSupport: stopAlways,
		}
	case CoverGateController:
		return coverTraits{
			deviceClass: "gate", states: stateReported, maxState: int(CoverUpperLimitReached),
			minPosition: positionClosed, slider: true,
			open: "open", close: "close", stop: "stop", stopSupport: stopAlways,
		}
	case CoverGateBox:
		return coverTraits{
			deviceClass: "gatebox", states: statePositionPair,
			minPosition: positionUnknown,
			open: "primary", close: "primary", stop: "secondary", stopSupport: stopFromExtraButton,
		}
	case CoverGateBoxB:
		return coverTraits{
			deviceClass: "gatebox", states: stateCurrentOnly,
			minPosition: positionUnknown,
			open: "primary", close: "primary", stop: "secondary", stopSupport: stopAssumed,
		}
	default:
		panic(fmt.Sprintf("blebox: unknown cover variant %d", int(v)))
	}
}

// SynthesizeCoverState derives a state from a (current, desired) position
// pair for boxes that do not report state. It returns false when either
// position is unknown.
func SynthesizeCoverState(current, desired int) (CoverState, bool) {
	switch {
	case current == positionUnknown || desired == positionUnknown:
		return 0, false
	case desired < current:
		return CoverMovingDown, true
	case desired > current:
		return CoverMovingUp, true
	case current == positionClosed:
		return CoverLowerLimitReached, true
	case current == positionOpen:
		return CoverUpperLimitReached, true
	default:
		return CoverManuallyStopped, true
	}
}

// Cover is a shutter, gate or garage gate.
type Cover struct {
	base
	variant CoverVariant
	traits  coverTraits

	state    *CoverState
	position *int
	tilt     *int
	hasStop  *bool
	canTilt  bool
}

func newCover(b base, spec FeatureSpec) *Cover {
	return &Cover{base: b, variant: spec.Cover, traits: spec.Cover.traits()}
}

// Refresh decodes state, position, tilt and stop capability.
func (c *Cover) Refresh(data any) error {
	if err := c.begin(data); err != nil {
		return err
	}
	if err := c.refreshState(data); err != nil {
		return err
	}
	if err := c.refreshPosition(data); err != nil {
		return err
	}
	if err := c.refreshStop(data); err != nil {
		return err
	}
	return c.refreshTilt(data)
}

func (c *Cover) refreshState(data any) error {
	switch c.traits.states {
	case stateReported:
		raw, err := c.readInt(data, "state", c.traits.maxState, 0)
		if err != nil || raw == nil {
			return err
		}
		s := CoverState(*raw)
		c.state = &s

	case statePositionPair:
		current, err := c.readInt(data, "current", positionOpen, positionUnknown)
		if err != nil {
			return err
		}
		desired, err := c.readInt(data, "desired", positionOpen, positionUnknown)
		if err != nil {
			return err
		}
		if current == nil || desired == nil {
			return nil
		}
		c.state = nil
		if s, ok := SynthesizeCoverState(*current, *desired); ok {
			c.state = &s
		}

	case stateCurrentOnly:
		current, err := c.readInt(data, "current", positionOpen, positionUnknown)
		if err != nil || current == nil {
			return err
		}
		c.state = nil
		switch *current {
		case positionUnknown:
		case positionClosed:
			s := CoverLowerLimitReached
			c.state = &s
		default:
			s := CoverUpperLimitReached
			c.state = &s
		}
	}
	return nil
}

// refreshPosition tracks the desired position, or the current position for
// variants that do not report one.
func (c *Cover) refreshPosition(data any) error {
	field := "desired"
	if !c.has(field) {
		field = "current"
	}
	p, err := c.readInt(data, field, positionOpen, c.traits.minPosition)
	if err != nil || p == nil {
		return err
	}
	if *p == positionUnknown {
		c.position = nil
		return nil
	}
	c.position = p
	return nil
}

func (c *Cover) refreshStop(data any) error {
	switch c.traits.stopSupport {
	case stopAlways, stopAssumed:
		yes := true
		c.hasStop = &yes
	case stopFromExtraButton:
		v, err := c.readInt(data, "extraButtonType", 3, 0)
		if err != nil || v == nil {
			return err
		}
		has := *v == extraButtonStop
		c.hasStop = &has
	}
	return nil
}

func (c *Cover) refreshTilt(data any) error {
	if !c.has("controlType") || !c.has("tilt") {
		return nil
	}
	ct, err := c.readInt(data, "controlType", -1, 0)
	if err != nil {
		return err
	}
	if ct != nil {
		c.canTilt = *ct == controlTypeTilt
	}
	if !c.canTilt {
		c.tilt = nil
		return nil
	}
	t, err := c.readInt(data, "tilt", positionOpen, c.traits.minPosition)
	if err != nil || t == nil {
		return err
	}
	if *t == positionUnknown {
		c.tilt = nil
		return nil
	}
	c.tilt = t
	return nil
}

// Variant returns the hardware family.
func (c *Cover) Variant() CoverVariant { return c.variant }

// DeviceClass returns "shutter", "gate" or "gatebox".
func (c *Cover) DeviceClass() string { return c.traits.deviceClass }

// CoverState returns the movement state and whether it is known.
func (c *Cover) CoverState() (CoverState, bool) {
	if c.state == nil {
		return 0, false
	}
	return *c.state, true
}

// Current returns the position in percent (0 closed, 100 open) and whether it
// is known.
func (c *Cover) Current() (int, bool) {
	if c.position == nil {
		return 0, false
	}
	return *c.position, true
}

// Tilt returns the tilt position when the shutter supports it.
func (c *Cover) Tilt() (int, bool) {
	if !c.canTilt || c.tilt == nil {
		return 0, false
	}
	return *c.tilt, true
}

// SupportsTilt reports whether the configured control type has a tilt axis.
func (c *Cover) SupportsTilt() bool { return c.canTilt }

// SupportsPosition reports whether the cover accepts an absolute position.
func (c *Cover) SupportsPosition() bool { return c.traits.slider }

// HasStop reports whether a stop command is available.
func (c *Cover) HasStop() bool { return c.hasStop != nil && *c.hasStop }

// Open encodes an open command.
func (c *Cover) Open() (Request, error) { return c.command(c.traits.open) }

// Close encodes a close command.
func (c *Cover) Close() (Request, error) { return c.command(c.traits.close) }

// Stop encodes a stop command. Boxes whose second output is not wired as
// stop return ErrMisconfiguredDevice.
func (c *Cover) Stop() (Request, error) {
	if err := c.ready(); err != nil {
		return Request{}, err
	}
	if !c.HasStop() {
		return Request{}, fmt.Errorf("%w: second button not configured as 'stop'", ErrMisconfiguredDevice)
	}
	return c.commands.Build(c.traits.stop)
}

// SetPosition encodes a move to percent (0 closed, 100 open).
func (c *Cover) SetPosition(percent int) (Request, error) {
	if err := c.ready(); err != nil {
		return Request{}, err
	}
	if !c.traits.slider {
		return Request{}, fmt.Errorf("%w: %s does not support positioning", ErrMisconfiguredDevice, c.traits.deviceClass)
	}
	if percent < positionClosed || percent > positionOpen {
		return Request{}, fmt.Errorf("%w: position %d", ErrBadValue, percent)
	}
	return c.commands.Build("position", percent)
}

// SetTilt encodes a tilt move in percent.
func (c *Cover) SetTilt(percent int) (Request, error) {
	if err := c.ready(); err != nil {
		return Request{}, err
	}
	if !c.canTilt {
		return Request{}, fmt.Errorf("%w: tilt not supported by this control type", ErrMisconfiguredDevice)
	}
	if percent < positionClosed || percent > positionOpen {
		return Request{}, fmt.Errorf("%w: tilt %d", ErrBadValue, percent)
	}
	return c.commands.Build("tilt", percent)
}

func (c *Cover) command(name string) (Request, error) {
	if err := c.ready(); err != nil {
		return Request{}, err
	}
	return c.commands.Build(name)
}

func (c *Cover) State() map[string]any {
	var state any
	if c.state != nil {
		state = c.state.String()
	}
	out := map[string]any{
		"device_class": c.traits.deviceClass,
		"state":        state,
		"position":     deref(c.position),
		"has_stop":     c.HasStop(),
	}
	if c.canTilt {
		out["tilt"] = deref(c.tilt)
	}
	return out
}

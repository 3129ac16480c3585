package blebox

// Switch is a relay output.
type Switch struct {
	base
	unit *int
	isOn *bool
}

func newSwitch(b base, spec FeatureSpec) *Switch {
	return &Switch{base: b, unit: spec.Unit}
}

// Refresh decodes the relay state (0 or 1).
func (s *Switch) Refresh(data any) error {
	if err := s.begin(data); err != nil {
		return err
	}
	state, err := s.readInt(data, "state", 1, 0)
	if err != nil {
		return err
	}
	if state != nil {
		on := *state == 1
		s.isOn = &on
	}
	return nil
}

// IsOn returns the relay state and whether it is known.
func (s *Switch) IsOn() (on, known bool) {
	if s.isOn == nil {
		return false, false
	}
	return *s.isOn, true
}

// Unit returns the relay index on multi-relay boxes.
func (s *Switch) Unit() (int, bool) {
	if s.unit == nil {
		return 0, false
	}
	return *s.unit, true
}

// TurnOn encodes the "on" command.
func (s *Switch) TurnOn() (Request, error) { return s.command("on") }

// TurnOff encodes the "off" command.
func (s *Switch) TurnOff() (Request, error) { return s.command("off") }

func (s *Switch) command(name string) (Request, error) {
	if err := s.ready(); err != nil {
		return Request{}, err
	}
	if s.unit != nil {
		return s.commands.Build(name, *s.unit)
	}
	return s.commands.Build(name)
}

func (s *Switch) State() map[string]any {
	return map[string]any{"on": deref(s.isOn)}
}

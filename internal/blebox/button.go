package blebox

import "strings"

// ButtonControl is what pressing a button does.
type ButtonControl int

// Button controls.
const (
	ButtonUnknown ButtonControl = iota
	ButtonUp
	ButtonDown
	ButtonFavorite
	ButtonOpen
	ButtonClose
)

func (c ButtonControl) String() string {
	switch c {
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	case ButtonFavorite:
		return "favorite"
	case ButtonOpen:
		return "open"
	case ButtonClose:
		return "close"
	default:
		return "unknown"
	}
}

// controlFor infers the control from an endpoint name.
func controlFor(endpoint string) ButtonControl {
	switch {
	case strings.Contains(endpoint, "up"):
		return ButtonUp
	case strings.Contains(endpoint, "down"):
		return ButtonDown
	case strings.Contains(endpoint, "fav"):
		return ButtonFavorite
	case strings.Contains(endpoint, "open"):
		return ButtonOpen
	case strings.Contains(endpoint, "close"):
		return ButtonClose
	}
	return ButtonUnknown
}

// tvLiftEndpoints lists the endpoints of a tvLiftBox control type. Unknown
// control types have none.
func tvLiftEndpoints(controlType int) []string {
	switch controlType {
	case 0:
		return []string{"open_or_stop", "close_or_stop"}
	case 1, 2, 3:
		return []string{"up_or_stop", "down_or_stop"}
	case 4:
		return []string{"open_or_stop", "close_or_stop", "to_fav"}
	}
	return nil
}

// Button is a momentary control.
type Button struct {
	base
	endpoint string
	control  ButtonControl
}

func newButton(b base, spec FeatureSpec) *Button {
	return &Button{base: b, endpoint: spec.Endpoint, control: controlFor(spec.Endpoint)}
}

// Refresh only records that the box has reported; buttons carry no state.
func (b *Button) Refresh(data any) error { return b.begin(data) }

// Endpoint returns the box endpoint the button triggers.
func (b *Button) Endpoint() string { return b.endpoint }

// Control returns what the button does.
func (b *Button) Control() ButtonControl { return b.control }

// Press encodes the button press.
func (b *Button) Press() (Request, error) {
	if err := b.ready(); err != nil {
		return Request{}, err
	}
	return b.commands.Build("set", b.endpoint)
}

func (b *Button) State() map[string]any {
	return map[string]any{"endpoint": b.endpoint, "control": b.control.String()}
}

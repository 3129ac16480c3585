package blebox

import (
	"errors"
	"fmt"
)

// Domain errors for the blebox package.
var (
	// ErrPathFailed is returned when a path expression cannot be resolved
	// against a payload.
	ErrPathFailed = errors.New("blebox: path lookup failed")

	// ErrFieldMissing is returned when a required field is null or absent.
	ErrFieldMissing = errors.New("blebox: field missing")

	// ErrFieldNotANumber is returned when a field is not an integer.
	ErrFieldNotANumber = errors.New("blebox: field not a number")

	// ErrFieldNotAString is returned when a field is not a string.
	ErrFieldNotAString = errors.New("blebox: field not a string")

	// ErrFieldExceedsMax is returned when a field is above its upper bound.
	ErrFieldExceedsMax = errors.New("blebox: field exceeds maximum")

	// ErrFieldLessThanMin is returned when a field is below its lower bound.
	ErrFieldLessThanMin = errors.New("blebox: field below minimum")

	// ErrFieldNotValidHex is returned when a field is not valid hex.
	ErrFieldNotValidHex = errors.New("blebox: field not valid hex")

	// ErrFieldNotRGBW is returned when a colour string has an impossible length.
	ErrFieldNotRGBW = errors.New("blebox: field not an rgbw string")

	// ErrUnsupportedType is returned when a box type has no capability table.
	ErrUnsupportedType = errors.New("blebox: unsupported box type")

	// ErrUnsupportedVersion is returned when no capability tier applies to
	// the reported api level.
	ErrUnsupportedVersion = errors.New("blebox: unsupported api version")

	// ErrUnsupportedResponse is returned when device info lacks identity fields.
	ErrUnsupportedResponse = errors.New("blebox: unsupported device info response")

	// ErrMisconfiguredDevice is returned when a capability is invoked that the
	// resolved variant does not provide.
	ErrMisconfiguredDevice = errors.New("blebox: misconfigured device")

	// ErrStateNotAvailable is returned when decoding or encoding is attempted
	// before any telemetry was applied.
	ErrStateNotAvailable = errors.New("blebox: device state not available yet")

	// ErrBadValue is returned when a command argument is out of range.
	ErrBadValue = errors.New("blebox: bad value")

	// ErrUnknownCommand is returned when a command is not in the resolved tier.
	ErrUnknownCommand = errors.New("blebox: unknown command")
)

// PathError describes a failed path lookup. It unwraps to ErrPathFailed.
type PathError struct {
	Segment string // failing segment
	Path    string // full expression
	Data    any    // subtree the segment was applied to
	Reason  string
	Absent  bool // missing key or unmatched filter, not a malformed tree
}

func (e *PathError) Error() string {
	return fmt.Sprintf("blebox: path %q failed at %q: %s", e.Path, e.Segment, e.Reason)
}

func (e *PathError) Unwrap() error { return ErrPathFailed }

// FieldError describes a validation failure for one field of one device.
// Kind is one of the ErrField* sentinels and is what Unwrap returns.
type FieldError struct {
	Kind   error
	Device string
	Field  string
	Value  any
	Bound  int // violated bound for range errors
}

func (e *FieldError) Error() string {
	subject := e.Device + "." + e.Field
	switch e.Kind {
	case ErrFieldMissing:
		return subject + " is missing"
	case ErrFieldExceedsMax:
		return fmt.Sprintf("%s is %v which exceeds max (%d)", subject, e.Value, e.Bound)
	case ErrFieldLessThanMin:
		return fmt.Sprintf("%s is %v which is less than minimum (%d)", subject, e.Value, e.Bound)
	case ErrFieldNotANumber:
		return fmt.Sprintf("%s is '%v' which is not a number", subject, e.Value)
	case ErrFieldNotAString:
		return fmt.Sprintf("%s is '%v' which is not a string", subject, e.Value)
	case ErrFieldNotValidHex:
		return fmt.Sprintf("%s is '%v' which is not valid hex", subject, e.Value)
	case ErrFieldNotRGBW:
		return fmt.Sprintf("%s is '%v' which is not a rgbw string", subject, e.Value)
	default:
		return fmt.Sprintf("%s is '%v' which is invalid", subject, e.Value)
	}
}

func (e *FieldError) Unwrap() error { return e.Kind }

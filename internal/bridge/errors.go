package bridge

import "errors"

// Domain errors for the bridge package.
var (
	// ErrDeviceNotFound is returned when a command names an unknown device.
	ErrDeviceNotFound = errors.New("bridge: device not found")

	// ErrDuplicateDevice is returned when a device id is added twice.
	ErrDuplicateDevice = errors.New("bridge: device already managed")

	// ErrUnknownCommand is returned when a feature kind does not accept a
	// command name.
	ErrUnknownCommand = errors.New("bridge: unknown command")

	// ErrInvalidParameters is returned when command parameters are missing
	// or have the wrong type.
	ErrInvalidParameters = errors.New("bridge: invalid parameters")
)

package ptz

import "errors"

// The error kinds surfaced to callers. Validation errors are detected
// before any device command is issued; device errors come back from the
// camera's control interface.
var (
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrOutOfRange        = errors.New("out of range")
	ErrMissingParameter  = errors.New("missing parameter")
	ErrDeviceUnreachable = errors.New("device unreachable")
	ErrDeviceRejected    = errors.New("device rejected command")
)

// Code maps an error to the response code exposed upward.
func Code(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, ErrInvalidDirection):
		return "InvalidDirection"
	case errors.Is(err, ErrOutOfRange):
		return "OutOfRange"
	case errors.Is(err, ErrMissingParameter):
		return "MissingParameter"
	case errors.Is(err, ErrDeviceUnreachable):
		return "DeviceUnreachable"
	case errors.Is(err, ErrDeviceRejected):
		return "DeviceRejected"
	default:
		return "InternalError"
	}
}

package ptz

import (
	"fmt"
	"time"

	"github.com/kerberos-io/ptz-proxy/src/models"
)

// Compiled fallbacks, used when the configuration does not provide
// bounds. The maximum duration is the safety net: no request can command
// the camera to move longer than this.
const (
	DefaultSpeed    = 0.5
	DefaultDuration = 1.0
	MaxDuration     = 10.0
)

// Translator maps relative move requests onto device-native velocity
// vectors and a concrete stop deadline. It's pure computation, no device
// commands are issued from here.
type Translator struct {
	configuration *models.Configuration
}

func NewTranslator(configuration *models.Configuration) *Translator {
	return &Translator{configuration: configuration}
}

// Bounds returns the configured PTZ defaults, falling back to the
// compiled values for anything left at zero.
func (translator *Translator) Bounds() models.PTZ {
	bounds := translator.configuration.Config.PTZ
	if bounds.DefaultSpeed == 0 {
		bounds.DefaultSpeed = DefaultSpeed
	}
	if bounds.DefaultDuration == 0 {
		bounds.DefaultDuration = DefaultDuration
	}
	if bounds.MaxDuration == 0 {
		bounds.MaxDuration = MaxDuration
	}
	return bounds
}

// Translate validates a move request and computes the velocity vector
// and duration to drive the camera with. Out-of-range values are
// rejected, not clamped.
func (translator *Translator) Translate(request models.MoveRequest) (models.MoveVector, time.Duration, error) {
	bounds := translator.Bounds()

	speed := bounds.DefaultSpeed
	if request.Speed != nil {
		speed = *request.Speed
	}
	if speed < 0 || speed > 1 {
		return models.MoveVector{}, 0, fmt.Errorf("%w: speed %.2f not in [0, 1]", ErrOutOfRange, speed)
	}

	duration := bounds.DefaultDuration
	if request.Duration != nil {
		duration = *request.Duration
	}
	if duration <= 0 || duration > bounds.MaxDuration {
		return models.MoveVector{}, 0, fmt.Errorf("%w: duration %.2fs not in (0, %.2fs]", ErrOutOfRange, duration, bounds.MaxDuration)
	}

	var velocity models.MoveVector
	if request.Direction != "" {
		switch request.Direction {
		case models.DirectionUp:
			velocity.Tilt = speed
		case models.DirectionDown:
			velocity.Tilt = -speed
		case models.DirectionLeft:
			velocity.Pan = -speed
		case models.DirectionRight:
			velocity.Pan = speed
		case models.DirectionZoomIn:
			velocity.Zoom = speed
		case models.DirectionZoomOut:
			velocity.Zoom = -speed
		default:
			return models.MoveVector{}, 0, fmt.Errorf("%w: %s", ErrInvalidDirection, request.Direction)
		}
	} else if request.Pan != nil || request.Tilt != nil || request.Zoom != nil {
		// An explicit vector is speed-scaled componentwise; each
		// component must already lie in [-1, 1].
		if request.Pan != nil {
			if *request.Pan < -1 || *request.Pan > 1 {
				return models.MoveVector{}, 0, fmt.Errorf("%w: pan %.2f not in [-1, 1]", ErrOutOfRange, *request.Pan)
			}
			velocity.Pan = *request.Pan * speed
		}
		if request.Tilt != nil {
			if *request.Tilt < -1 || *request.Tilt > 1 {
				return models.MoveVector{}, 0, fmt.Errorf("%w: tilt %.2f not in [-1, 1]", ErrOutOfRange, *request.Tilt)
			}
			velocity.Tilt = *request.Tilt * speed
		}
		if request.Zoom != nil {
			if *request.Zoom < -1 || *request.Zoom > 1 {
				return models.MoveVector{}, 0, fmt.Errorf("%w: zoom %.2f not in [-1, 1]", ErrOutOfRange, *request.Zoom)
			}
			velocity.Zoom = *request.Zoom * speed
		}
	} else {
		return models.MoveVector{}, 0, fmt.Errorf("%w: a direction or a pan/tilt/zoom vector is required", ErrMissingParameter)
	}

	return velocity, time.Duration(duration * float64(time.Second)), nil
}

// ResolveDevice maps a requested device name onto a configured camera.
// An empty name selects the first configured camera, which keeps the
// single-camera deployment simple.
func (translator *Translator) ResolveDevice(name string) (models.Camera, error) {
	cameras := translator.configuration.Config.Cameras
	if len(cameras) == 0 {
		return models.Camera{}, fmt.Errorf("%w: no cameras configured", ErrDeviceUnreachable)
	}
	if name == "" {
		return cameras[0], nil
	}
	for _, camera := range cameras {
		if camera.Name == name {
			return camera, nil
		}
	}
	return models.Camera{}, fmt.Errorf("%w: unknown camera %s", ErrDeviceUnreachable, name)
}

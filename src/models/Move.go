package models

// The named directions accepted by the move API. A direction maps to a
// unit vector on the corresponding axis, scaled by the requested speed.
const (
	DirectionUp      = "up"
	DirectionDown    = "down"
	DirectionLeft    = "left"
	DirectionRight   = "right"
	DirectionZoomIn  = "zoom_in"
	DirectionZoomOut = "zoom_out"
)

// MoveRequest is a relative move: a bounded, self-terminating amount of
// motion expressed as a direction (or an explicit pan/tilt/zoom vector),
// a speed and a duration. Optional fields are pointers so that an absent
// field can fall back to the configured default.
type MoveRequest struct {
	Device    string   `json:"device,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Pan       *float64 `json:"pan,omitempty"`
	Tilt      *float64 `json:"tilt,omitempty"`
	Zoom      *float64 `json:"zoom,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
}

// StopRequest stops the in-flight move of a device, if any.
type StopRequest struct {
	Device string `json:"device,omitempty"`
}

// MoveVector is a device-native velocity vector, each axis in [-1, 1].
type MoveVector struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
	Zoom float64 `json:"zoom"`
}

// MoveStatus reports whether a device has a move in flight, and at which
// velocity. Cameras without native status support get this simulated
// view from the scheduler.
type MoveStatus struct {
	Device   string     `json:"device"`
	Status   string     `json:"status"`
	Velocity MoveVector `json:"velocity"`
}

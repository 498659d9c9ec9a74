package models

import (
	"time"

	"github.com/tevino/abool"
)

// The communication struct that is managing all the communication
// between the different goroutines: the MQTT listener pushes move and
// stop requests into the channels, the PTZ action handler consumes them,
// and HandleBootstrap drives the restart/stop loop.
type Communication struct {
	HandleBootstrap chan string
	HandleMove      chan MoveRequest
	HandleStop      chan StopRequest
	IsConfiguring   *abool.AtomicBool
	CameraConnected bool
	UptimeStart     time.Time
}

package ptz

import (
	"sync"
	"time"

	"github.com/kerberos-io/ptz-proxy/src/log"
	"github.com/kerberos-io/ptz-proxy/src/models"
)

// DeviceSink is the camera control surface the scheduler drives. Both
// operations are fallible; a duplicate StopMove must be harmless for the
// device.
type DeviceSink interface {
	StartMove(device string, velocity models.MoveVector) error
	StopMove(device string) error
}

// The move status values reported by Status.
const (
	StatusIdle   = "IDLE"
	StatusMoving = "MOVING"
)

// activeMove is the per-device record of an in-flight continuous move
// and its pending stop action. It exists only while a move is in flight.
type activeMove struct {
	velocity   models.MoveVector
	generation uint64
	timer      Timer
}

// deviceState serializes all move handling for a single device. The
// generation counter increases on every move or stop; a stop timer only
// fires when the generation that armed it is still the current one, so a
// stale timer can never stop a newer move.
type deviceState struct {
	mu         sync.Mutex
	generation uint64
	active     *activeMove
}

// Scheduler sequences start and stop commands per device and guarantees
// at most one active move per device at any instant. Devices are
// independent: a move on one camera never blocks another.
type Scheduler struct {
	sink  DeviceSink
	clock Clock

	mu      sync.Mutex
	devices map[string]*deviceState
}

func NewScheduler(sink DeviceSink, clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	return &Scheduler{
		sink:    sink,
		clock:   clock,
		devices: make(map[string]*deviceState),
	}
}

func (scheduler *Scheduler) state(device string) *deviceState {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	state, ok := scheduler.devices[device]
	if !ok {
		state = &deviceState{}
		scheduler.devices[device] = state
	}
	return state
}

// Move preempts any in-flight move for the device and sequences
// stop-old, start-new, arm-timer as a single critical section. When the
// start command fails no timer is armed and the device is left idle; the
// error is surfaced to the caller, never retried here.
func (scheduler *Scheduler) Move(device string, velocity models.MoveVector, duration time.Duration) error {
	state := scheduler.state(device)
	state.mu.Lock()
	defer state.mu.Unlock()

	// Invalidate any pending stop before issuing a new command, so a
	// stale timer can never fire after the new move has started.
	state.generation++
	if state.active != nil {
		state.active.timer.Stop()
		state.active = nil
		if err := scheduler.sink.StopMove(device); err != nil {
			log.Log.Error("ptz.scheduler.Move(): stop of previous move failed for " + device + ": " + err.Error())
		}
	}

	if err := scheduler.sink.StartMove(device, velocity); err != nil {
		return err
	}

	generation := state.generation
	move := &activeMove{
		velocity:   velocity,
		generation: generation,
	}
	move.timer = scheduler.clock.AfterFunc(duration, func() {
		scheduler.expire(device, generation)
	})
	state.active = move
	return nil
}

// expire is the timer callback: it stops the device only when the move
// that armed the timer is still the current one.
func (scheduler *Scheduler) expire(device string, generation uint64) {
	state := scheduler.state(device)
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.active == nil || state.active.generation != generation {
		return
	}
	state.active = nil
	if err := scheduler.sink.StopMove(device); err != nil {
		log.Log.Error("ptz.scheduler.expire(): stop failed for " + device + ": " + err.Error())
	}
}

// Stop cancels the pending stop action and stops the device. The local
// state always transitions to idle, even when the device reports an
// error on the stop command; we cannot guarantee the physical state, but
// no timer stays pending after this returns.
func (scheduler *Scheduler) Stop(device string) error {
	state := scheduler.state(device)
	state.mu.Lock()
	defer state.mu.Unlock()

	state.generation++
	if state.active != nil {
		state.active.timer.Stop()
		state.active = nil
	}
	if err := scheduler.sink.StopMove(device); err != nil {
		log.Log.Error("ptz.scheduler.Stop(): stop failed for " + device + ": " + err.Error())
		return err
	}
	return nil
}

// Status reports the scheduler's view of a device.
func (scheduler *Scheduler) Status(device string) models.MoveStatus {
	state := scheduler.state(device)
	state.mu.Lock()
	defer state.mu.Unlock()

	status := models.MoveStatus{
		Device: device,
		Status: StatusIdle,
	}
	if state.active != nil {
		status.Status = StatusMoving
		status.Velocity = state.active.velocity
	}
	return status
}

// StopAll issues a best-effort stop for every device with a move in
// flight. Used on shutdown and restart: in-flight moves are abandoned,
// but we try to leave the cameras stationary.
func (scheduler *Scheduler) StopAll() {
	scheduler.mu.Lock()
	devices := make([]string, 0, len(scheduler.devices))
	for device := range scheduler.devices {
		devices = append(devices, device)
	}
	scheduler.mu.Unlock()

	for _, device := range devices {
		if scheduler.Status(device).Status == StatusMoving {
			scheduler.Stop(device)
		}
	}
}

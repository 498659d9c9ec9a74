package ptz

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerberos-io/ptz-proxy/src/models"
)

// recordingSink records the commands the scheduler issues, so the tests
// can verify the ordering guarantees without a camera.
type recordingSink struct {
	mu       sync.Mutex
	commands []string
	startErr error
	stopErr  error
}

func (sink *recordingSink) StartMove(device string, velocity models.MoveVector) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.startErr != nil {
		return sink.startErr
	}
	sink.commands = append(sink.commands, "start "+device)
	return nil
}

func (sink *recordingSink) StopMove(device string) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.stopErr != nil {
		return sink.stopErr
	}
	sink.commands = append(sink.commands, "stop "+device)
	return nil
}

func (sink *recordingSink) recorded() []string {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return append([]string{}, sink.commands...)
}

// manualClock hands out timers that only fire when the test fires them,
// so timing behaviour is tested without sleeping.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	duration time.Duration
	f        func()
	stopped  bool
	fired    bool
}

func (timer *manualTimer) Stop() bool {
	pending := !timer.stopped && !timer.fired
	timer.stopped = true
	return pending
}

func (clock *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	timer := &manualTimer{duration: d, f: f}
	clock.timers = append(clock.timers, timer)
	return timer
}

// fire runs the callback of the timer at the given index, unless it was
// cancelled. A real time.Timer behaves the same way: Stop prevents the
// callback from running.
func (clock *manualClock) fire(t *testing.T, index int) {
	clock.mu.Lock()
	require.Greater(t, len(clock.timers), index)
	timer := clock.timers[index]
	clock.mu.Unlock()

	if timer.stopped {
		return
	}
	timer.fired = true
	timer.f()
}

// fireStale runs the callback even after cancellation, simulating the
// race where the timer goroutine already started before Stop was called.
func (clock *manualClock) fireStale(t *testing.T, index int) {
	clock.mu.Lock()
	require.Greater(t, len(clock.timers), index)
	timer := clock.timers[index]
	clock.mu.Unlock()

	timer.fired = true
	timer.f()
}

func TestSchedulerMoveAndExpire(t *testing.T) {
	sink := &recordingSink{}
	clock := &manualClock{}
	scheduler := NewScheduler(sink, clock)

	err := scheduler.Move("front", models.MoveVector{Pan: 0.5}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusMoving, scheduler.Status("front").Status)
	assert.Equal(t, models.MoveVector{Pan: 0.5}, scheduler.Status("front").Velocity)

	clock.fire(t, 0)

	assert.Equal(t, StatusIdle, scheduler.Status("front").Status)
	assert.Equal(t, []string{"start front", "stop front"}, sink.recorded())
}

func TestSchedulerPreemption(t *testing.T) {
	sink := &recordingSink{}
	clock := &manualClock{}
	scheduler := NewScheduler(sink, clock)

	require.NoError(t, scheduler.Move("front", models.MoveVector{Pan: 0.5}, time.Second))
	require.NoError(t, scheduler.Move("front", models.MoveVector{Tilt: 0.5}, time.Second))

	// The first move is stopped before the second one starts.
	assert.Equal(t, []string{"start front", "stop front", "start front"}, sink.recorded())
	assert.Equal(t, models.MoveVector{Tilt: 0.5}, scheduler.Status("front").Velocity)

	// Only the second timer is still pending.
	clock.fire(t, 0)
	assert.Equal(t, StatusMoving, scheduler.Status("front").Status)

	clock.fire(t, 1)
	assert.Equal(t, StatusIdle, scheduler.Status("front").Status)
	assert.Equal(t, []string{"start front", "stop front", "start front", "stop front"}, sink.recorded())
}

func TestSchedulerStaleTimerNeverStopsNewerMove(t *testing.T) {
	sink := &recordingSink{}
	clock := &manualClock{}
	scheduler := NewScheduler(sink, clock)

	require.NoError(t, scheduler.Move("front", models.MoveVector{Pan: 0.5}, time.Second))
	require.NoError(t, scheduler.Move("front", models.MoveVector{Tilt: 0.5}, time.Second))

	// The first timer goroutine raced past its cancellation: its callback
	// still runs, but the generation check makes it a no-op.
	before := sink.recorded()
	clock.fireStale(t, 0)

	assert.Equal(t, before, sink.recorded())
	assert.Equal(t, StatusMoving, scheduler.Status("front").Status)
	assert.Equal(t, models.MoveVector{Tilt: 0.5}, scheduler.Status("front").Velocity)
}

func TestSchedulerExplicitStop(t *testing.T) {
	sink := &recordingSink{}
	clock := &manualClock{}
	scheduler := NewScheduler(sink, clock)

	require.NoError(t, scheduler.Move("front", models.MoveVector{Pan: 0.5}, time.Second))
	require.NoError(t, scheduler.Stop("front"))

	assert.Equal(t, StatusIdle, scheduler.Status("front").Status)
	assert.Equal(t, []string{"start front", "stop front"}, sink.recorded())

	// The timer was cancelled, firing it later does nothing.
	clock.fire(t, 0)
	assert.Equal(t, []string{"start front", "stop front"}, sink.recorded())
}

func TestSchedulerStopWhileIdle(t *testing.T) {
	sink := &recordingSink{}
	scheduler := NewScheduler(sink, &manualClock{})

	// Stopping an idle device still sends the stop command, which is
	// harmless for the camera.
	require.NoError(t, scheduler.Stop("front"))
	assert.Equal(t, []string{"stop front"}, sink.recorded())
	assert.Equal(t, StatusIdle, scheduler.Status("front").Status)
}

func TestSchedulerStartFailure(t *testing.T) {
	sink := &recordingSink{startErr: errors.New("camera is offline")}
	clock := &manualClock{}
	scheduler := NewScheduler(sink, clock)

	err := scheduler.Move("front", models.MoveVector{Pan: 0.5}, time.Second)
	require.Error(t, err)

	// No timer is armed and the device stays idle, there is nothing to
	// stop and nothing is retried.
	assert.Empty(t, clock.timers)
	assert.Equal(t, StatusIdle, scheduler.Status("front").Status)
}

func TestSchedulerStopFailureStillGoesIdle(t *testing.T) {
	sink := &recordingSink{}
	clock := &manualClock{}
	scheduler := NewScheduler(sink, clock)

	require.NoError(t, scheduler.Move("front", models.MoveVector{Pan: 0.5}, time.Second))

	sink.mu.Lock()
	sink.stopErr = errors.New("camera went away")
	sink.mu.Unlock()

	err := scheduler.Stop("front")
	require.Error(t, err)

	// The error is surfaced, but locally the move is gone.
	assert.Equal(t, StatusIdle, scheduler.Status("front").Status)
}

func TestSchedulerDevicesAreIndependent(t *testing.T) {
	sink := &recordingSink{}
	clock := &manualClock{}
	scheduler := NewScheduler(sink, clock)

	require.NoError(t, scheduler.Move("front", models.MoveVector{Pan: 0.5}, time.Second))
	require.NoError(t, scheduler.Move("back", models.MoveVector{Tilt: 0.5}, time.Second))

	assert.Equal(t, StatusMoving, scheduler.Status("front").Status)
	assert.Equal(t, StatusMoving, scheduler.Status("back").Status)

	// Expiring the front move leaves the back move untouched.
	clock.fire(t, 0)
	assert.Equal(t, StatusIdle, scheduler.Status("front").Status)
	assert.Equal(t, StatusMoving, scheduler.Status("back").Status)
}

func TestSchedulerStopAll(t *testing.T) {
	sink := &recordingSink{}
	clock := &manualClock{}
	scheduler := NewScheduler(sink, clock)

	require.NoError(t, scheduler.Move("front", models.MoveVector{Pan: 0.5}, time.Second))
	require.NoError(t, scheduler.Move("back", models.MoveVector{Tilt: 0.5}, time.Second))

	scheduler.StopAll()

	assert.Equal(t, StatusIdle, scheduler.Status("front").Status)
	assert.Equal(t, StatusIdle, scheduler.Status("back").Status)
}

func TestSchedulerConcurrentMoves(t *testing.T) {
	sink := &recordingSink{}
	clock := &manualClock{}
	scheduler := NewScheduler(sink, clock)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Move("front", models.MoveVector{Pan: 0.5}, time.Second)
		}()
	}
	wg.Wait()

	// Twenty moves give twenty starts and nineteen preemption stops,
	// strictly alternating: a start is always preceded by a stop of the
	// previous move.
	commands := sink.recorded()
	require.Len(t, commands, 39)
	for i, command := range commands {
		if i%2 == 0 {
			assert.Equal(t, "start front", command)
		} else {
			assert.Equal(t, "stop front", command)
		}
	}
	assert.Equal(t, StatusMoving, scheduler.Status("front").Status)
}

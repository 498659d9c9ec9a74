package ptz

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kerberos-io/ptz-proxy/src/models"
)

func TestHandlePTZActions(t *testing.T) {
	sink := &recordingSink{}
	clock := &manualClock{}
	scheduler := NewScheduler(sink, clock)
	translator := NewTranslator(&models.Configuration{
		Config: models.Config{
			Cameras: []models.Camera{{Name: "front"}},
			PTZ: models.PTZ{
				DefaultSpeed:    0.5,
				DefaultDuration: 1.0,
				MaxDuration:     10.0,
			},
		},
	})

	communication := &models.Communication{
		HandleMove: make(chan models.MoveRequest),
		HandleStop: make(chan models.StopRequest),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		HandlePTZActions(communication, translator, scheduler)
	}()

	communication.HandleMove <- models.MoveRequest{Direction: "right"}
	communication.HandleStop <- models.StopRequest{}

	// Invalid requests are logged and dropped, they must not kill the
	// handler.
	communication.HandleMove <- models.MoveRequest{Direction: "sideways"}
	communication.HandleMove <- models.MoveRequest{Device: "garden", Direction: "up"}

	close(communication.HandleMove)
	close(communication.HandleStop)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not return after the channels were closed")
	}

	assert.Equal(t, []string{"start front", "stop front"}, sink.recorded())
	assert.Equal(t, StatusIdle, scheduler.Status("front").Status)
}

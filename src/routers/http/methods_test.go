package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerberos-io/ptz-proxy/src/models"
	"github.com/kerberos-io/ptz-proxy/src/ptz"
)

// fakeSink accepts every command, or fails them when an error is set.
type fakeSink struct {
	startErr error
	stopErr  error
}

func (sink *fakeSink) StartMove(device string, velocity models.MoveVector) error {
	return sink.startErr
}

func (sink *fakeSink) StopMove(device string) error {
	return sink.stopErr
}

func newTestRouter(sink ptz.DeviceSink) (*gin.Engine, *ptz.Scheduler) {
	gin.SetMode(gin.TestMode)

	configuration := &models.Configuration{
		Config: models.Config{
			Cameras: []models.Camera{
				{Name: "front"},
			},
			PTZ: models.PTZ{
				DefaultSpeed:    0.5,
				DefaultDuration: 1.0,
				MaxDuration:     10.0,
			},
		},
	}

	translator := ptz.NewTranslator(configuration)
	scheduler := ptz.NewScheduler(sink, nil)

	r := gin.New()
	r.POST("/api/ptz/move", func(c *gin.Context) {
		DoMove(c, translator, scheduler)
	})
	r.GET("/api/ptz/move/:direction", func(c *gin.Context) {
		DoDirectionalMove(c, translator, scheduler)
	})
	r.POST("/api/ptz/stop", func(c *gin.Context) {
		DoStop(c, translator, scheduler)
	})
	r.GET("/api/ptz/status", func(c *gin.Context) {
		GetStatus(c, translator, scheduler)
	})
	return r, scheduler
}

func performRequest(r *gin.Engine, method string, path string, body string) *httptest.ResponseRecorder {
	var request *http.Request
	if body != "" {
		request = httptest.NewRequest(method, path, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	} else {
		request = httptest.NewRequest(method, path, nil)
	}
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, request)
	return recorder
}

func TestDirectionalMove(t *testing.T) {
	r, scheduler := newTestRouter(&fakeSink{})

	recorder := performRequest(r, "GET", "/api/ptz/move/left?speed=0.3&duration=2", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var response models.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))

	payload, err := json.Marshal(response.Data)
	require.NoError(t, err)
	var move models.MoveResponse
	require.NoError(t, json.Unmarshal(payload, &move))

	assert.Equal(t, "front", move.Device)
	assert.InDelta(t, -0.3, move.Velocity.Pan, 1e-9)
	assert.Equal(t, 2.0, move.Duration)
	assert.NotEmpty(t, move.AcceptedAt)

	assert.Equal(t, ptz.StatusMoving, scheduler.Status("front").Status)
}

func TestMoveWithBody(t *testing.T) {
	r, scheduler := newTestRouter(&fakeSink{})

	recorder := performRequest(r, "POST", "/api/ptz/move", `{"direction": "up", "speed": 0.7}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, ptz.StatusMoving, scheduler.Status("front").Status)
	assert.InDelta(t, 0.7, scheduler.Status("front").Velocity.Tilt, 1e-9)
}

func TestMoveValidation(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
	}{
		{"unknown direction", "/api/ptz/move/sideways", "InvalidDirection"},
		{"speed above range", "/api/ptz/move/up?speed=1.5", "OutOfRange"},
		{"speed not a number", "/api/ptz/move/up?speed=fast", "OutOfRange"},
		{"duration above maximum", "/api/ptz/move/up?duration=60", "OutOfRange"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, scheduler := newTestRouter(&fakeSink{})

			recorder := performRequest(r, "GET", test.path, "")
			assert.Equal(t, http.StatusBadRequest, recorder.Code)

			var response models.APIResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
			assert.Equal(t, test.code, response.Data)

			// A rejected request never reaches the camera.
			assert.Equal(t, ptz.StatusIdle, scheduler.Status("front").Status)
		})
	}
}

func TestMoveUnknownDevice(t *testing.T) {
	r, _ := newTestRouter(&fakeSink{})

	recorder := performRequest(r, "GET", "/api/ptz/move/up?device=garden", "")
	assert.Equal(t, http.StatusBadGateway, recorder.Code)

	var response models.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "DeviceUnreachable", response.Data)
}

func TestMoveDeviceRejected(t *testing.T) {
	sink := &fakeSink{
		startErr: fmt.Errorf("%w: simulated failure", ptz.ErrDeviceRejected),
	}
	r, scheduler := newTestRouter(sink)

	recorder := performRequest(r, "GET", "/api/ptz/move/up", "")
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	var response models.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "DeviceRejected", response.Data)

	// A failed start leaves the device idle, nothing is retried.
	assert.Equal(t, ptz.StatusIdle, scheduler.Status("front").Status)
}

func TestStop(t *testing.T) {
	r, scheduler := newTestRouter(&fakeSink{})

	performRequest(r, "GET", "/api/ptz/move/up", "")
	require.Equal(t, ptz.StatusMoving, scheduler.Status("front").Status)

	recorder := performRequest(r, "POST", "/api/ptz/stop", `{"device": "front"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, ptz.StatusIdle, scheduler.Status("front").Status)
}

func TestStopWithoutBody(t *testing.T) {
	r, scheduler := newTestRouter(&fakeSink{})

	recorder := performRequest(r, "POST", "/api/ptz/stop", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, ptz.StatusIdle, scheduler.Status("front").Status)
}

func TestStatus(t *testing.T) {
	r, _ := newTestRouter(&fakeSink{})

	recorder := performRequest(r, "GET", "/api/ptz/status", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var response models.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))

	payload, err := json.Marshal(response.Data)
	require.NoError(t, err)
	var status models.MoveStatus
	require.NoError(t, json.Unmarshal(payload, &status))

	assert.Equal(t, "front", status.Device)
	assert.Equal(t, ptz.StatusIdle, status.Status)
}

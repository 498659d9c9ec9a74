package http

import (
	"net/http"
	"strconv"

	"github.com/dromara/carbon/v2"
	"github.com/gin-gonic/gin"

	"github.com/kerberos-io/ptz-proxy/src/config"
	"github.com/kerberos-io/ptz-proxy/src/models"
	"github.com/kerberos-io/ptz-proxy/src/onvif"
	"github.com/kerberos-io/ptz-proxy/src/ptz"
)

// DoMove accepts a relative move request as a JSON body: a direction or
// an explicit pan/tilt/zoom vector, with optional speed and duration.
// The request is acknowledged once the camera accepted the start
// command; the stop is scheduled, not awaited.
func DoMove(c *gin.Context, translator *ptz.Translator, scheduler *ptz.Scheduler) {
	var request models.MoveRequest
	if err := c.BindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Message: "Something went wrong: " + err.Error(),
		})
		return
	}
	handleMove(c, translator, scheduler, request)
}

// DoDirectionalMove is the convenience form used by simple controllers:
// GET /api/ptz/move/up?speed=0.5&duration=1.0&device=front
func DoDirectionalMove(c *gin.Context, translator *ptz.Translator, scheduler *ptz.Scheduler) {
	request := models.MoveRequest{
		Device:    c.Query("device"),
		Direction: c.Param("direction"),
	}

	if value := c.Query("speed"); value != "" {
		speed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.APIResponse{
				Data:    ptz.Code(ptz.ErrOutOfRange),
				Message: "Something went wrong: speed is not a number",
			})
			return
		}
		request.Speed = &speed
	}

	if value := c.Query("duration"); value != "" {
		duration, err := strconv.ParseFloat(value, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.APIResponse{
				Data:    ptz.Code(ptz.ErrOutOfRange),
				Message: "Something went wrong: duration is not a number",
			})
			return
		}
		request.Duration = &duration
	}

	handleMove(c, translator, scheduler, request)
}

func handleMove(c *gin.Context, translator *ptz.Translator, scheduler *ptz.Scheduler, request models.MoveRequest) {
	camera, err := translator.ResolveDevice(request.Device)
	if err != nil {
		respondError(c, err)
		return
	}

	velocity, duration, err := translator.Translate(request)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := scheduler.Move(camera.Name, velocity, duration); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Data: models.MoveResponse{
			Device:     camera.Name,
			Velocity:   velocity,
			Duration:   duration.Seconds(),
			AcceptedAt: carbon.Now().ToIso8601String(),
		},
	})
}

// DoStop stops the in-flight move of a device, if any. Stopping an idle
// device is not an error.
func DoStop(c *gin.Context, translator *ptz.Translator, scheduler *ptz.Scheduler) {
	var request models.StopRequest
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, models.APIResponse{
				Message: "Something went wrong: " + err.Error(),
			})
			return
		}
	}

	camera, err := translator.ResolveDevice(request.Device)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := scheduler.Stop(camera.Name); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Data: scheduler.Status(camera.Name),
	})
}

// GetStatus reports the scheduler's view of a device: IDLE or MOVING
// with the active velocity.
func GetStatus(c *gin.Context, translator *ptz.Translator, scheduler *ptz.Scheduler) {
	camera, err := translator.ResolveDevice(c.Query("device"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Data: scheduler.Status(camera.Name),
	})
}

// GetCameraCapabilities lists the ONVIF services a configured camera
// exposes.
func GetCameraCapabilities(c *gin.Context, translator *ptz.Translator, sink *onvif.CameraSink) {
	camera, err := translator.ResolveDevice(c.Query("device"))
	if err != nil {
		respondError(c, err)
		return
	}

	capabilities, err := sink.Capabilities(camera.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Data: capabilities,
	})
}

// UpdateConfig persists a new configuration and triggers a restart so
// the new settings are picked up.
func UpdateConfig(c *gin.Context, configDirectory string, configuration *models.Configuration, communication *models.Communication) {
	var conf models.Config
	if err := c.BindJSON(&conf); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Message: "Something went wrong: " + err.Error(),
		})
		return
	}

	if err := config.SaveConfig(configDirectory, conf, configuration, communication); err != nil {
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Message: "Something went wrong: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Data: "Config updated, restarting proxy.",
	})
}

// respondError maps the error taxonomy onto HTTP status codes: request
// validation gives a 400, an unreachable camera a 502 and a camera that
// rejected the command a 500.
func respondError(c *gin.Context, err error) {
	code := ptz.Code(err)

	status := http.StatusInternalServerError
	switch code {
	case "InvalidDirection", "OutOfRange", "MissingParameter":
		status = http.StatusBadRequest
	case "DeviceUnreachable":
		status = http.StatusBadGateway
	case "DeviceRejected":
		status = http.StatusInternalServerError
	}

	c.JSON(status, models.APIResponse{
		Data:    code,
		Message: "Something went wrong: " + err.Error(),
	})
}

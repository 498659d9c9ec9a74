package onvif

import (
	"fmt"
	"sync"

	"github.com/kerberos-io/onvif"
	ptzservice "github.com/kerberos-io/onvif/ptz"
	xsd "github.com/kerberos-io/onvif/xsd/onvif"

	"github.com/kerberos-io/ptz-proxy/src/log"
	"github.com/kerberos-io/ptz-proxy/src/models"
	"github.com/kerberos-io/ptz-proxy/src/ptz"
)

// CameraSink drives the configured ONVIF cameras on behalf of the move
// scheduler. It resolves device names to cameras and keeps the device
// handle, profile token and PTZ configurations cached per camera; a
// failing command invalidates the cache so the next one reconnects.
type CameraSink struct {
	configuration *models.Configuration

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	device         *onvif.Device
	token          xsd.ReferenceToken
	configurations ptzservice.GetConfigurationsResponse
}

func NewCameraSink(configuration *models.Configuration) *CameraSink {
	return &CameraSink{
		configuration: configuration,
		sessions:      make(map[string]*session),
	}
}

func (sink *CameraSink) camera(name string) (models.Camera, error) {
	for _, camera := range sink.configuration.Config.Cameras {
		if camera.Name == name {
			return camera, nil
		}
	}
	return models.Camera{}, fmt.Errorf("%w: unknown camera %s", ptz.ErrDeviceUnreachable, name)
}

// session returns a cached session for the camera, connecting and
// fetching the profile token and PTZ configurations when needed.
func (sink *CameraSink) session(name string) (*session, error) {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if existing, ok := sink.sessions[name]; ok {
		return existing, nil
	}

	camera, err := sink.camera(name)
	if err != nil {
		return nil, err
	}

	device, err := ConnectToOnvifDevice(&camera)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ptz.ErrDeviceUnreachable, err.Error())
	}

	token, err := GetTokenFromProfile(device, camera.ONVIFProfile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ptz.ErrDeviceUnreachable, err.Error())
	}

	configurations, err := GetPTZConfigurationsFromDevice(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ptz.ErrDeviceUnreachable, err.Error())
	}

	created := &session{
		device:         device,
		token:          token,
		configurations: configurations,
	}
	sink.sessions[name] = created
	return created, nil
}

func (sink *CameraSink) invalidate(name string) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	delete(sink.sessions, name)
}

// StartMove issues a continuous move at the given velocity. The camera
// keeps moving until StopMove is issued; the scheduler owns the stop.
func (sink *CameraSink) StartMove(device string, velocity models.MoveVector) error {
	session, err := sink.session(device)
	if err != nil {
		return err
	}

	if velocity.Pan != 0 || velocity.Tilt != 0 {
		if err := ContinuousPanTilt(session.device, session.configurations, session.token, velocity.Pan, velocity.Tilt); err != nil {
			sink.invalidate(device)
			return fmt.Errorf("%w: %s", ptz.ErrDeviceRejected, err.Error())
		}
	}
	if velocity.Zoom != 0 {
		if err := ContinuousZoom(session.device, session.configurations, session.token, velocity.Zoom); err != nil {
			sink.invalidate(device)
			return fmt.Errorf("%w: %s", ptz.ErrDeviceRejected, err.Error())
		}
	}
	return nil
}

// StopMove stops all movement of the camera.
func (sink *CameraSink) StopMove(device string) error {
	session, err := sink.session(device)
	if err != nil {
		return err
	}

	if err := StopPanTiltZoom(session.device, session.token); err != nil {
		sink.invalidate(device)
		return fmt.Errorf("%w: %s", ptz.ErrDeviceRejected, err.Error())
	}
	return nil
}

// Capabilities lists the ONVIF services a configured camera exposes.
func (sink *CameraSink) Capabilities(device string) ([]string, error) {
	session, err := sink.session(device)
	if err != nil {
		return nil, err
	}
	capabilities := GetCapabilitiesFromDevice(session.device)
	log.Log.Debug("onvif.sink.Capabilities(): " + device + " exposes " + fmt.Sprint(len(capabilities)) + " services")
	return capabilities, nil
}

package onvif

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/kerberos-io/onvif"
	"github.com/kerberos-io/onvif/media"
	"github.com/kerberos-io/onvif/ptz"
	xsd "github.com/kerberos-io/onvif/xsd/onvif"

	"github.com/kerberos-io/ptz-proxy/src/log"
	"github.com/kerberos-io/ptz-proxy/src/models"
)

// ConnectToOnvifDevice opens a connection to the camera's ONVIF control
// endpoint.
func ConnectToOnvifDevice(camera *models.Camera) (*onvif.Device, error) {
	log.Log.Debug("onvif.main.ConnectToOnvifDevice(): started")

	device, err := onvif.NewDevice(onvif.DeviceParams{
		Xaddr:    camera.ONVIFXAddr,
		Username: camera.ONVIFUsername,
		Password: camera.ONVIFPassword,
	})

	if err != nil {
		log.Log.Error("onvif.main.ConnectToOnvifDevice(): " + err.Error())
	}

	log.Log.Debug("onvif.main.ConnectToOnvifDevice(): finished")
	return device, err
}

// GetTokenFromProfile fetches the media profiles from the camera and
// returns the reference token of the requested profile.
func GetTokenFromProfile(device *onvif.Device, profileId int) (xsd.ReferenceToken, error) {
	var profileToken xsd.ReferenceToken

	resp, err := device.CallMethod(media.GetProfiles{})
	if err == nil {
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err == nil {
			stringBody := string(b)
			decodedXML, et, err := getXMLNode(stringBody, "GetProfilesResponse")
			if err != nil {
				log.Log.Error("onvif.main.GetTokenFromProfile(): " + err.Error())
				return profileToken, err
			}

			var mProfilesResp media.GetProfilesResponse
			if err := decodedXML.DecodeElement(&mProfilesResp, et); err != nil {
				log.Log.Error("onvif.main.GetTokenFromProfile(): " + err.Error())
			}

			for i, profile := range mProfilesResp.Profiles {
				if profileId == i {
					profileToken = profile.Token
				}
			}
		}
	}
	return profileToken, err
}

// GetPTZConfigurationsFromDevice returns the PTZ configurations, which
// carry the velocity spaces used for continuous moves.
func GetPTZConfigurationsFromDevice(device *onvif.Device) (ptz.GetConfigurationsResponse, error) {
	var configurations ptz.GetConfigurationsResponse

	resp, err := device.CallMethod(ptz.GetConfigurations{})
	if err == nil {
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err == nil {
			stringBody := string(b)
			decodedXML, et, err := getXMLNode(stringBody, "GetConfigurationsResponse")
			if err != nil {
				log.Log.Error("onvif.main.GetPTZConfigurationsFromDevice(): " + err.Error())
				return configurations, err
			}
			if err := decodedXML.DecodeElement(&configurations, et); err != nil {
				log.Log.Error("onvif.main.GetPTZConfigurationsFromDevice(): " + err.Error())
				return configurations, err
			}
		}
	}
	return configurations, err
}

// ContinuousPanTilt starts a continuous pan/tilt move. The camera keeps
// moving until an explicit stop is issued; the caller owns the stop.
func ContinuousPanTilt(device *onvif.Device, configuration ptz.GetConfigurationsResponse, token xsd.ReferenceToken, pan float64, tilt float64) error {
	panTiltVector := xsd.Vector2D{
		X:     pan,
		Y:     tilt,
		Space: configuration.PTZConfiguration.DefaultContinuousPanTiltVelocitySpace,
	}

	res, err := device.CallMethod(ptz.ContinuousMove{
		ProfileToken: token,
		Velocity: xsd.PTZSpeedPanTilt{
			PanTilt: panTiltVector,
		},
	})

	if err != nil {
		log.Log.Error("onvif.main.ContinuousPanTilt(): " + err.Error())
		return err
	}

	bs, _ := io.ReadAll(res.Body)
	res.Body.Close()
	log.Log.Debug("onvif.main.ContinuousPanTilt(): " + string(bs))

	if res.StatusCode != 200 {
		return errors.New("camera rejected continuous pan/tilt move")
	}
	return nil
}

// ContinuousZoom starts a continuous zoom move, stopped by the caller.
func ContinuousZoom(device *onvif.Device, configuration ptz.GetConfigurationsResponse, token xsd.ReferenceToken, zoom float64) error {
	zoomVector := xsd.Vector1D{
		X:     zoom,
		Space: configuration.PTZConfiguration.DefaultContinuousZoomVelocitySpace,
	}

	res, err := device.CallMethod(ptz.ContinuousMove{
		ProfileToken: token,
		Velocity: xsd.PTZSpeedZoom{
			Zoom: zoomVector,
		},
	})

	if err != nil {
		log.Log.Error("onvif.main.ContinuousZoom(): " + err.Error())
		return err
	}

	bs, _ := io.ReadAll(res.Body)
	res.Body.Close()
	log.Log.Debug("onvif.main.ContinuousZoom(): " + string(bs))

	if res.StatusCode != 200 {
		return errors.New("camera rejected continuous zoom move")
	}
	return nil
}

// StopPanTiltZoom stops all movement on both axes. Sending a stop to a
// camera that is not moving is harmless.
func StopPanTiltZoom(device *onvif.Device, token xsd.ReferenceToken) error {
	res, err := device.CallMethod(ptz.Stop{
		ProfileToken: token,
		PanTilt:      true,
		Zoom:         true,
	})

	if err != nil {
		log.Log.Error("onvif.main.StopPanTiltZoom(): " + err.Error())
		return err
	}

	bs, _ := io.ReadAll(res.Body)
	res.Body.Close()
	log.Log.Debug("onvif.main.StopPanTiltZoom(): " + string(bs))

	if res.StatusCode != 200 {
		return errors.New("camera rejected stop")
	}
	return nil
}

// GetCapabilitiesFromDevice lists the services the camera exposes.
func GetCapabilitiesFromDevice(device *onvif.Device) []string {
	var capabilities []string
	services := device.GetServices()
	for key := range services {
		log.Log.Debug("onvif.main.GetCapabilitiesFromDevice(): has key: " + key)
		if key != "" {
			keyParts := strings.Split(key, "/")
			if len(keyParts) > 0 {
				capability := keyParts[len(keyParts)-1]
				capabilities = append(capabilities, capability)
			}
		}
	}
	return capabilities
}

func getXMLNode(xmlBody string, nodeName string) (*xml.Decoder, *xml.StartElement, error) {
	xmlBytes := bytes.NewBufferString(xmlBody)
	decodedXML := xml.NewDecoder(xmlBytes)
	for {
		token, err := decodedXML.Token()
		if err != nil {
			break
		}
		switch et := token.(type) {
		case xml.StartElement:
			if et.Name.Local == nodeName {
				return decodedXML, &et, nil
			}
		}
	}
	return nil, nil, errors.New("error in NodeName - username and password might be wrong")
}

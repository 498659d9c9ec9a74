package models

// Config is the highlevel struct which contains all the configuration of
// your PTZ Proxy instance.
type Config struct {
	Type         string   `json:"type"`
	Key          string   `json:"key"`
	FriendlyName string   `json:"friendly_name,omitempty"`
	Timezone     string   `json:"timezone,omitempty"`
	LogLevel     string   `json:"log_level,omitempty"`
	Cameras      []Camera `json:"cameras"`
	PTZ          PTZ      `json:"ptz"`
	MQTTURI      string   `json:"mqtturi,omitempty"`
	MQTTUsername string   `json:"mqtt_username,omitempty"`
	MQTTPassword string   `json:"mqtt_password,omitempty"`
}

// Camera is the identity of an ONVIF camera the proxy controls: where to
// reach its control interface and how to authenticate. Cameras are owned
// by the configuration and read-only for the move handling.
type Camera struct {
	Name          string `json:"name"`
	ONVIFXAddr    string `json:"onvif_xaddr"`
	ONVIFUsername string `json:"onvif_username"`
	ONVIFPassword string `json:"onvif_password"`
	ONVIFProfile  int    `json:"onvif_profile"`
}

// PTZ contains the device-safe bounds and defaults for relative moves.
// MaxDuration guarantees the camera never moves unbounded, even if a
// stop command would get lost.
type PTZ struct {
	DefaultSpeed    float64 `json:"default_speed"`
	DefaultDuration float64 `json:"default_duration"`
	MaxDuration     float64 `json:"max_duration"`
}

// Configuration wraps the different configuration layers: the compiled
// defaults (GlobalConfig), the configuration read from disk
// (CustomConfig) and the merged result (Config) which is used everywhere.
type Configuration struct {
	Name         string `json:"name"`
	Port         string `json:"port"`
	Config       Config `json:"config"`
	CustomConfig Config `json:"custom"`
	GlobalConfig Config `json:"global"`
}

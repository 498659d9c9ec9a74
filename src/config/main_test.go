package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerberos-io/ptz-proxy/src/models"
)

func writeConfig(t *testing.T, directory string, config models.Config) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(directory, "data", "config"), 0755))
	payload, err := json.MarshalIndent(config, "", "\t")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(directory, "data", "config", "config.json"), payload, 0644))
}

func TestOpenConfigMergesOverDefaults(t *testing.T) {
	directory := t.TempDir()
	writeConfig(t, directory, models.Config{
		Key: "garage",
		Cameras: []models.Camera{
			{Name: "front", ONVIFXAddr: "192.168.1.10:80"},
		},
		PTZ: models.PTZ{
			DefaultSpeed: 0.8,
		},
	})

	configuration := &models.Configuration{}
	OpenConfig(directory, configuration)

	// Values from the file win over the defaults.
	assert.Equal(t, "garage", configuration.Config.Key)
	assert.Equal(t, 0.8, configuration.Config.PTZ.DefaultSpeed)
	require.Len(t, configuration.Config.Cameras, 1)
	assert.Equal(t, "front", configuration.Config.Cameras[0].Name)

	// Defaults fill in what the file leaves out.
	assert.Equal(t, "UTC", configuration.Config.Timezone)
	assert.Equal(t, "info", configuration.Config.LogLevel)
	assert.Equal(t, 1.0, configuration.Config.PTZ.DefaultDuration)
	assert.Equal(t, 10.0, configuration.Config.PTZ.MaxDuration)
}

func TestOverrideWithEnvironmentVariables(t *testing.T) {
	t.Setenv("PTZPROXY_KEY", "driveway")
	t.Setenv("PTZPROXY_CAMERA_ONVIF_XADDR", "192.168.1.20:80")
	t.Setenv("PTZPROXY_CAMERA_ONVIF_USERNAME", "admin")
	t.Setenv("PTZPROXY_CAMERA_ONVIF_PASSWORD", "secret")
	t.Setenv("PTZPROXY_PTZ_MAX_DURATION", "5")

	configuration := &models.Configuration{
		Config: Defaults(),
	}
	OverrideWithEnvironmentVariables(configuration)

	assert.Equal(t, "driveway", configuration.Config.Key)
	require.Len(t, configuration.Config.Cameras, 1)
	assert.Equal(t, "192.168.1.20:80", configuration.Config.Cameras[0].ONVIFXAddr)
	assert.Equal(t, "admin", configuration.Config.Cameras[0].ONVIFUsername)
	assert.Equal(t, "secret", configuration.Config.Cameras[0].ONVIFPassword)
	assert.Equal(t, 5.0, configuration.Config.PTZ.MaxDuration)
}

func TestOverrideWithMultipleCameras(t *testing.T) {
	t.Setenv("PTZPROXY_CAMERAS", "front,192.168.1.10:80,admin,secret;back,192.168.1.11:80,admin,secret")

	configuration := &models.Configuration{
		Config: Defaults(),
	}
	OverrideWithEnvironmentVariables(configuration)

	require.Len(t, configuration.Config.Cameras, 2)
	assert.Equal(t, "front", configuration.Config.Cameras[0].Name)
	assert.Equal(t, "back", configuration.Config.Cameras[1].Name)
	assert.Equal(t, "192.168.1.11:80", configuration.Config.Cameras[1].ONVIFXAddr)
}

func TestReadUserConfigFallsBackToDefaults(t *testing.T) {
	userConfig := ReadUserConfig(t.TempDir())
	assert.Equal(t, "root", userConfig.Username)
	assert.Equal(t, "root", userConfig.Password)
}

func TestReadUserConfigFromFile(t *testing.T) {
	directory := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(directory, "data", "config"), 0755))
	payload, err := json.Marshal(models.User{
		Installed: true,
		Username:  "operator",
		Password:  "hunter2",
		Role:      "admin",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(directory, "data", "config", "user.json"), payload, 0644))

	userConfig := ReadUserConfig(directory)
	assert.Equal(t, "operator", userConfig.Username)
	assert.Equal(t, "hunter2", userConfig.Password)
}

func TestStoreConfigRoundTrip(t *testing.T) {
	directory := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(directory, "data", "config"), 0755))

	stored := Defaults()
	stored.Key = "garden"
	require.NoError(t, StoreConfig(directory, stored))

	configuration := &models.Configuration{}
	OpenConfig(directory, configuration)
	assert.Equal(t, "garden", configuration.Config.Key)
}

package config

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/InVisionApp/conjungo"

	"github.com/kerberos-io/ptz-proxy/src/log"
	"github.com/kerberos-io/ptz-proxy/src/models"
)

// Defaults returns the compiled configuration defaults: a 0.5 speed and
// 1 second duration like the cameras we ship with, and a 10 second cap
// so no request can command unbounded motion.
func Defaults() models.Config {
	return models.Config{
		Type:     "config",
		Key:      "ptzproxy",
		Timezone: "UTC",
		LogLevel: "info",
		PTZ: models.PTZ{
			DefaultSpeed:    0.5,
			DefaultDuration: 1.0,
			MaxDuration:     10.0,
		},
	}
}

// ReadUserConfig reads the user configuration, which holds the
// credentials for the REST API. Without a user.json we fall back to the
// default credentials, like a fresh installation.
func ReadUserConfig(configDirectory string) (userConfig models.User) {
	userConfig = models.User{
		Username: "root",
		Password: "root",
		Role:     "admin",
	}

	jsonFile, err := os.Open(configDirectory + "/data/config/user.json")
	if err != nil {
		log.Log.Warning("config.main.ReadUserConfig(): user.json not found, using default credentials")
		return
	}
	defer jsonFile.Close()

	byteValue, _ := io.ReadAll(jsonFile)
	if err := json.Unmarshal(byteValue, &userConfig); err != nil {
		log.Log.Error("config.main.ReadUserConfig(): JSON file not valid: " + err.Error())
	}
	return
}

// OpenConfig reads the configuration from disk and merges it over the
// compiled defaults. Please note that the configuration might be changed
// at runtime through the REST API or the MQTT handler.
func OpenConfig(configDirectory string, configuration *models.Configuration) {

	for {
		jsonFile, err := os.Open(configDirectory + "/data/config/config.json")
		if err != nil {
			log.Log.Error("config.main.OpenConfig(): config file is not found " + configDirectory + "/data/config/config.json, trying again in 5s.")
			time.Sleep(5 * time.Second)
			continue
		}

		log.Log.Info("config.main.OpenConfig(): successfully opened config.json")
		byteValue, _ := io.ReadAll(jsonFile)
		jsonFile.Close()

		var fileConfig models.Config
		if err := json.Unmarshal(byteValue, &fileConfig); err != nil {
			log.Log.Error("config.main.OpenConfig(): JSON file not valid: " + err.Error())
			time.Sleep(5 * time.Second)
			continue
		}

		configuration.CustomConfig = fileConfig
		break
	}

	// We will merge the configuration file over the compiled defaults
	// into a single config. A string in the file only wins when set.
	opts := conjungo.NewOptions()
	opts.SetTypeMergeFunc(
		reflect.TypeOf(""),
		func(t, s reflect.Value, o *conjungo.Options) (reflect.Value, error) {
			targetStr, _ := t.Interface().(string)
			sourceStr, _ := s.Interface().(string)
			finalStr := targetStr
			if sourceStr != "" {
				finalStr = sourceStr
			}
			return reflect.ValueOf(finalStr), nil
		},
	)

	configuration.GlobalConfig = Defaults()
	configuration.Config = models.Config{}
	conjungo.Merge(&configuration.Config, configuration.GlobalConfig, opts)
	conjungo.Merge(&configuration.Config, configuration.CustomConfig, opts)

	// Arrays are replaced, not merged.
	configuration.Config.Cameras = configuration.CustomConfig.Cameras

	// Zero bounds would disable moving altogether, fall back to defaults.
	if configuration.Config.PTZ.DefaultSpeed == 0 {
		configuration.Config.PTZ.DefaultSpeed = configuration.GlobalConfig.PTZ.DefaultSpeed
	}
	if configuration.Config.PTZ.DefaultDuration == 0 {
		configuration.Config.PTZ.DefaultDuration = configuration.GlobalConfig.PTZ.DefaultDuration
	}
	if configuration.Config.PTZ.MaxDuration == 0 {
		configuration.Config.PTZ.MaxDuration = configuration.GlobalConfig.PTZ.MaxDuration
	}
}

// OverrideWithEnvironmentVariables overrides the configuration with
// environment variables, which is how container deployments inject
// camera credentials and broker settings.
func OverrideWithEnvironmentVariables(configuration *models.Configuration) {
	environmentVariables := os.Environ()
	for _, env := range environmentVariables {
		if strings.Contains(env, "PTZPROXY_") {
			key := strings.Split(env, "=")[0]
			value := os.Getenv(key)
			switch key {

			/* General configuration */
			case "PTZPROXY_KEY":
				configuration.Config.Key = value
			case "PTZPROXY_NAME":
				configuration.Config.FriendlyName = value
			case "PTZPROXY_TIMEZONE":
				configuration.Config.Timezone = value
			case "PTZPROXY_LOG_LEVEL":
				configuration.Config.LogLevel = value

			/* Single camera connnection settings */
			case "PTZPROXY_CAMERA_ONVIF_XADDR":
				defaultCamera(configuration).ONVIFXAddr = value
			case "PTZPROXY_CAMERA_ONVIF_USERNAME":
				defaultCamera(configuration).ONVIFUsername = value
			case "PTZPROXY_CAMERA_ONVIF_PASSWORD":
				defaultCamera(configuration).ONVIFPassword = value

			case "PTZPROXY_CAMERAS":
				var cameras []models.Camera

				// Convert value to a camera array with
				// (name, xaddr, username, password) per camera.
				// Cameras are limited by ; and fields by ,
				// front,1.2.3.4:80,admin,secret;back,1.2.3.5:80,admin,secret
				camerasString := strings.Split(value, ";")
				for _, cameraString := range camerasString {
					fields := strings.Split(cameraString, ",")
					if len(fields) == 4 {
						cameras = append(cameras, models.Camera{
							Name:          fields[0],
							ONVIFXAddr:    fields[1],
							ONVIFUsername: fields[2],
							ONVIFPassword: fields[3],
						})
					}
				}
				if len(cameras) > 0 {
					configuration.Config.Cameras = cameras
				}

			/* Device-safe bounds */
			case "PTZPROXY_PTZ_DEFAULT_SPEED":
				speed, err := strconv.ParseFloat(value, 64)
				if err == nil {
					configuration.Config.PTZ.DefaultSpeed = speed
				}
			case "PTZPROXY_PTZ_DEFAULT_DURATION":
				duration, err := strconv.ParseFloat(value, 64)
				if err == nil {
					configuration.Config.PTZ.DefaultDuration = duration
				}
			case "PTZPROXY_PTZ_MAX_DURATION":
				duration, err := strconv.ParseFloat(value, 64)
				if err == nil {
					configuration.Config.PTZ.MaxDuration = duration
				}

			/* MQTT settings for bi-directional communication */
			case "PTZPROXY_MQTT_URI":
				configuration.Config.MQTTURI = value
			case "PTZPROXY_MQTT_USERNAME":
				configuration.Config.MQTTUsername = value
			case "PTZPROXY_MQTT_PASSWORD":
				configuration.Config.MQTTPassword = value
			}
		}
	}
}

// defaultCamera returns the first configured camera, creating it when
// the configuration has none yet.
func defaultCamera(configuration *models.Configuration) *models.Camera {
	if len(configuration.Config.Cameras) == 0 {
		configuration.Config.Cameras = append(configuration.Config.Cameras, models.Camera{
			Name: "camera",
		})
	}
	return &configuration.Config.Cameras[0]
}

// SaveConfig updates the configuration on disk and asks for a restart so
// the new settings are picked up.
func SaveConfig(configDirectory string, config models.Config, configuration *models.Configuration, communication *models.Communication) error {
	if !communication.IsConfiguring.IsSet() {
		communication.IsConfiguring.Set()

		err := StoreConfig(configDirectory, config)
		if err != nil {
			communication.IsConfiguring.UnSet()
			return err
		}

		select {
		case communication.HandleBootstrap <- "restart":
			log.Log.Info("config.main.SaveConfig(): updated config, restarting proxy.")
		case <-time.After(1 * time.Second):
			log.Log.Info("config.main.SaveConfig(): updated config, restart already pending.")
		}

		communication.IsConfiguring.UnSet()

		return nil
	}
	return errors.New("already reconfiguring")
}

func StoreConfig(configDirectory string, config models.Config) error {
	res, _ := json.MarshalIndent(config, "", "\t")
	return os.WriteFile(configDirectory+"/data/config/config.json", res, 0644)
}

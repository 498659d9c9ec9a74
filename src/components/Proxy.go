package components

import (
	"time"

	"github.com/tevino/abool"

	configService "github.com/kerberos-io/ptz-proxy/src/config"
	"github.com/kerberos-io/ptz-proxy/src/log"
	"github.com/kerberos-io/ptz-proxy/src/models"
	"github.com/kerberos-io/ptz-proxy/src/onvif"
	"github.com/kerberos-io/ptz-proxy/src/ptz"
	routers "github.com/kerberos-io/ptz-proxy/src/routers/mqtt"
)

// Bootstrap wires up the proxy and keeps it running until a "stop" is
// received on the bootstrap channel. Every other signal ("restart")
// tears the proxy down and brings it back up with a fresh configuration.
func Bootstrap(configDirectory string, configuration *models.Configuration, communication *models.Communication, translator *ptz.Translator, scheduler *ptz.Scheduler, sink *onvif.CameraSink) {
	log.Log.Debug("components.main.Bootstrap(): started")

	// We will keep track of the proxy up time, this is shown on the
	// dashboard and send along with MQTT acknowledgements.
	communication.UptimeStart = time.Now()
	communication.IsConfiguring = abool.New()

	// We'll create a MQTT handler, which is used for bi-directional
	// communication: move and stop requests come in, acks go out.
	mqttClient := routers.ConfigureMQTT(configuration, communication)

	for {

		// This will block until receiving a signal to be restarted,
		// reconfigured or stopped.
		status := RunProxy(configDirectory, configuration, communication, translator, scheduler, sink)

		if status == "stop" {
			break
		}

		// Reset the MQTT client, might have provided new information,
		// so we need to reconnect.
		if routers.HasMQTTClientModified(configuration) {
			routers.DisconnectMQTT(mqttClient, &configuration.Config)
			mqttClient = routers.ConfigureMQTT(configuration, communication)
		}
	}

	// Leave the cameras stationary on the way out.
	scheduler.StopAll()
	routers.DisconnectMQTT(mqttClient, &configuration.Config)

	log.Log.Debug("components.main.Bootstrap(): finished")
}

// RunProxy verifies the camera connections, starts the PTZ action
// handler and blocks until the bootstrap channel tells it to restart or
// stop. On the way out any move still in flight is stopped.
func RunProxy(configDirectory string, configuration *models.Configuration, communication *models.Communication, translator *ptz.Translator, scheduler *ptz.Scheduler, sink *onvif.CameraSink) string {

	log.Log.Debug("components.main.RunProxy(): bootstrapping proxy")
	config := configuration.Config

	status := "not started"

	// Probe the configured cameras: we verify the ONVIF endpoint is
	// reachable and log the services it exposes. An unreachable camera
	// does not keep the proxy from starting, moves for it will fail with
	// a device error until it comes back.
	connected := 0
	for _, camera := range config.Cameras {
		capabilities, err := sink.Capabilities(camera.Name)
		if err != nil {
			log.Log.Warning("components.main.RunProxy(): camera " + camera.Name + " not reachable: " + err.Error())
			continue
		}
		connected++
		for _, capability := range capabilities {
			log.Log.Info("components.main.RunProxy(): camera " + camera.Name + " has capability: " + capability)
		}
	}
	communication.CameraConnected = connected > 0

	// Recreate the request channels; the previous run closed them.
	communication.HandleMove = make(chan models.MoveRequest, 1)
	communication.HandleStop = make(chan models.StopRequest, 1)

	// Consume move and stop requests coming from the MQTT listener.
	go ptz.HandlePTZActions(communication, translator, scheduler)

	// !!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!
	// This will go into a blocking state, once this channel is triggered
	// the proxy will cleanup and restart.

	status = <-communication.HandleBootstrap

	communication.CameraConnected = false

	// We will re open the configuration, might have changed :O!
	configService.OpenConfig(configDirectory, configuration)

	// We will override the configuration with the environment variables
	configService.OverrideWithEnvironmentVariables(configuration)

	// Close the request channels, this stops the PTZ action handler.
	// We nil the references first so the MQTT listener stops pushing.
	handleMove := communication.HandleMove
	handleStop := communication.HandleStop
	communication.HandleMove = nil
	communication.HandleStop = nil
	close(handleMove)
	close(handleStop)

	// Abandon in-flight moves, but leave the cameras stationary.
	scheduler.StopAll()

	log.Log.Info("components.main.RunProxy(): waiting for next cycle with status: " + status)

	return status
}

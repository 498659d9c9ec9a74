package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kerberos-io/ptz-proxy/src/components"
	configService "github.com/kerberos-io/ptz-proxy/src/config"
	"github.com/kerberos-io/ptz-proxy/src/log"
	"github.com/kerberos-io/ptz-proxy/src/models"
	"github.com/kerberos-io/ptz-proxy/src/onvif"
	"github.com/kerberos-io/ptz-proxy/src/ptz"
	"github.com/kerberos-io/ptz-proxy/src/routers"
)

const VERSION = "1.0"

func main() {

	if len(os.Args) < 2 {
		fmt.Println("Sorry I don't understand :(")
		return
	}
	action := os.Args[1]

	switch action {
	case "version":
		fmt.Println("You are currently running PTZ Proxy " + VERSION)

	case "run":
		{
			name := os.Args[2]
			port := os.Args[3]

			// The configuration directory can be overridden for
			// container deployments that mount the config elsewhere.
			configDirectory := os.Getenv("PTZPROXY_CONFIG_DIR")
			if configDirectory == "" {
				configDirectory = "."
			}

			// Read the config on start, and pass it to the other
			// functions and features. Please note that this might be
			// changed when saving or updating the configuration through
			// the REST api or MQTT handler.
			configuration := &models.Configuration{
				Name: name,
				Port: port,
			}

			configService.OpenConfig(configDirectory, configuration)
			configService.OverrideWithEnvironmentVariables(configuration)

			// Set timezone, the bounded move durations are wall-clock
			// but the logs should be in the configured zone.
			timezone, err := time.LoadLocation(configuration.Config.Timezone)
			if err != nil {
				timezone = time.UTC
			}

			// Initialize the logging framework (both a file and stdout logger).
			logLevel := configuration.Config.LogLevel
			if logLevel == "" {
				logLevel = "info"
			}
			log.Log.Init(logLevel, configDirectory, timezone)

			// Bootstrapping the communication channel between the
			// webserver, the MQTT listener and the PTZ handler.
			communication := &models.Communication{
				HandleBootstrap: make(chan string, 1),
			}

			// The translator maps relative moves onto velocities and
			// durations, the sink talks ONVIF to the cameras, and the
			// scheduler owns the timed stops.
			translator := ptz.NewTranslator(configuration)
			sink := onvif.NewCameraSink(configuration)
			scheduler := ptz.NewScheduler(sink, nil)

			// Start the REST API.
			go routers.StartWebserver(configDirectory, configuration, communication, translator, scheduler, sink)

			// Bootstrapping the proxy, this is blocking until a "stop"
			// is received over the bootstrap channel.
			components.Bootstrap(configDirectory, configuration, communication, translator, scheduler, sink)
		}

	default:
		fmt.Println("Sorry I don't understand :(")
	}
}

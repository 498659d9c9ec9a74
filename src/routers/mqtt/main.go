package mqtt

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kerberos-io/ptz-proxy/src/log"
	"github.com/kerberos-io/ptz-proxy/src/models"
)

// We remember the broker settings of the previous connection, so we can
// detect a configuration change and reconnect with the new settings.
var previousURI = ""
var previousUsername = ""
var previousPassword = ""

// ConfigureMQTT creates the MQTT client used for bi-directional
// communication: move and stop requests come in on the request topics,
// acknowledgements go out on the ack topic. Without a broker URI the
// proxy runs HTTP-only and a nil client is returned.
func ConfigureMQTT(configuration *models.Configuration, communication *models.Communication) mqtt.Client {

	config := configuration.Config

	previousURI = config.MQTTURI
	previousUsername = config.MQTTUsername
	previousPassword = config.MQTTPassword

	if config.MQTTURI == "" {
		log.Log.Info("routers.mqtt.ConfigureMQTT(): no broker configured, skipping MQTT")
		return nil
	}

	opts := mqtt.NewClientOptions()

	// We will set the MQTT endpoint to which we want to connect
	// and share and receive messages to/from.
	mqttURL := config.MQTTURI
	opts.AddBroker(mqttURL)
	log.Log.Info("routers.mqtt.ConfigureMQTT(): set broker uri " + mqttURL)

	// Our MQTT broker can have username/password credentials
	// to protect it from the outside.
	mqtt_username := config.MQTTUsername
	mqtt_password := config.MQTTPassword
	if mqtt_username != "" || mqtt_password != "" {
		opts.SetUsername(mqtt_username)
		opts.SetPassword(mqtt_password)
		log.Log.Info("routers.mqtt.ConfigureMQTT(): set username " + mqtt_username)
	}

	// Some extra options to make sure the connection behaves
	// properly. More information here: github.com/eclipse/paho.mqtt.golang.
	opts.SetCleanSession(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(30 * time.Second)

	random := rand.Intn(100)
	mqttClientID := config.Key + strconv.Itoa(random) // this random int is to avoid conflicts.
	opts.SetClientID(mqttClientID)
	log.Log.Info("routers.mqtt.ConfigureMQTT(): set ClientID " + mqttClientID)

	opts.OnConnect = func(c mqtt.Client) {

		// We managed to connect to the MQTT broker, hurray!
		log.Log.Info("routers.mqtt.ConfigureMQTT(): " + mqttClientID + " connected to " + mqttURL)

		// Create a subscription to listen for move requests.
		MQTTListenerHandleMove(c, configuration, communication)

		// Create a subscription to listen for stop requests.
		MQTTListenerHandleStop(c, configuration, communication)
	}

	mqc := mqtt.NewClient(opts)
	if token := mqc.Connect(); token.WaitTimeout(3 * time.Second) {
		if token.Error() != nil {
			log.Log.Error("routers.mqtt.ConfigureMQTT(): unable to establish mqtt broker connection, error was: " + token.Error().Error())
		}
	}
	return mqc
}

func MQTTListenerHandleMove(mqttClient mqtt.Client, configuration *models.Configuration, communication *models.Communication) {
	config := configuration.Config
	topicMove := "ptzproxy/" + config.Key + "/move"
	mqttClient.Subscribe(topicMove, 0, func(c mqtt.Client, msg mqtt.Message) {
		var request models.MoveRequest
		if err := json.Unmarshal(msg.Payload(), &request); err != nil {
			log.Log.Error("routers.mqtt.MQTTListenerHandleMove(): invalid payload: " + err.Error())
			msg.Ack()
			return
		}
		select {
		case communication.HandleMove <- request:
			log.Log.Info("routers.mqtt.MQTTListenerHandleMove(): received move request - " + request.Direction)
			PublishAck(c, configuration, "move", request.Device)
		default:
			log.Log.Warning("routers.mqtt.MQTTListenerHandleMove(): proxy is restarting, dropping move request")
		}
		msg.Ack()
	})
}

func MQTTListenerHandleStop(mqttClient mqtt.Client, configuration *models.Configuration, communication *models.Communication) {
	config := configuration.Config
	topicStop := "ptzproxy/" + config.Key + "/stop"
	mqttClient.Subscribe(topicStop, 0, func(c mqtt.Client, msg mqtt.Message) {
		var request models.StopRequest
		if err := json.Unmarshal(msg.Payload(), &request); err != nil {
			log.Log.Error("routers.mqtt.MQTTListenerHandleStop(): invalid payload: " + err.Error())
			msg.Ack()
			return
		}
		select {
		case communication.HandleStop <- request:
			log.Log.Info("routers.mqtt.MQTTListenerHandleStop(): received stop request")
			PublishAck(c, configuration, "stop", request.Device)
		default:
			log.Log.Warning("routers.mqtt.MQTTListenerHandleStop(): proxy is restarting, dropping stop request")
		}
		msg.Ack()
	})
}

// PublishAck acknowledges a received request on the ack topic, so the
// other side knows the request was picked up.
func PublishAck(mqttClient mqtt.Client, configuration *models.Configuration, action string, device string) {
	config := configuration.Config
	message := models.Message{
		DeviceId: config.Key,
		Payload: models.Payload{
			Action:   action,
			DeviceId: config.Key,
			Value: map[string]interface{}{
				"device": device,
			},
		},
	}
	payload, err := models.PackageMQTTMessage(message)
	if err != nil {
		log.Log.Error("routers.mqtt.PublishAck(): failed to package message: " + err.Error())
		return
	}
	topicAck := "ptzproxy/" + config.Key + "/ack"
	mqttClient.Publish(topicAck, 0, false, payload)
}

// HasMQTTClientModified checks if the broker settings changed since the
// client was created, which means we need to reconnect.
func HasMQTTClientModified(configuration *models.Configuration) bool {
	config := configuration.Config
	return previousURI != config.MQTTURI ||
		previousUsername != config.MQTTUsername ||
		previousPassword != config.MQTTPassword
}

func DisconnectMQTT(mqttClient mqtt.Client, config *models.Config) {
	if mqttClient == nil {
		return
	}
	log.Log.Info("routers.mqtt.DisconnectMQTT(): disconnecting from " + config.MQTTURI)
	mqttClient.Disconnect(1000)
}

package models

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"

	"github.com/kerberos-io/ptz-proxy/src/log"
)

// The message structure which is used to send over and receive messages
// from the MQTT broker.
type Message struct {
	Mid       string  `json:"mid"`
	DeviceId  string  `json:"device_id"`
	Timestamp int64   `json:"timestamp"`
	Payload   Payload `json:"payload"`
}

// The payload structure which is used to send over and receive messages
// from the MQTT broker.
type Payload struct {
	Action   string                 `json:"action"`
	DeviceId string                 `json:"device_id"`
	Value    map[string]interface{} `json:"value"`
}

// PackageMQTTMessage stamps a message with a unique id and a timestamp
// and marshals it for publishing.
func PackageMQTTMessage(msg Message) ([]byte, error) {
	u2, err := uuid.NewV4()
	if err != nil {
		log.Log.Error("models.MQTT.PackageMQTTMessage(): failed to generate UUID: " + err.Error())
		return nil, err
	}

	msg.Mid = u2.String()
	msg.DeviceId = msg.Payload.DeviceId
	msg.Timestamp = time.Now().Unix()

	payload, err := json.Marshal(msg)
	return payload, err
}

package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kerberos-io/ptz-proxy/src/log"
	"github.com/kerberos-io/ptz-proxy/src/models"
	"github.com/kerberos-io/ptz-proxy/src/ptz"
)

type Message struct {
	ClientID    string            `json:"client_id"`
	MessageType string            `json:"message_type"`
	Payload     json.RawMessage   `json:"payload,omitempty"`
	Message     map[string]string `json:"message,omitempty"`
}

type Connection struct {
	Socket *websocket.Conn
	mu     sync.Mutex
}

// Concurrency handling - sending messages
func (c *Connection) WriteJson(message Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Socket.WriteJSON(message)
}

var socketsMu sync.Mutex
var sockets = make(map[string]*Connection)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler gives low-latency PTZ control: a joystick UI sends
// ptz-move and ptz-stop messages and gets the resulting status back on
// the same connection.
func WebsocketHandler(c *gin.Context, translator *ptz.Translator, scheduler *ptz.Scheduler) {
	w := c.Writer
	r := c.Request
	conn, err := upgrader.Upgrade(w, r, nil)
	// error handling here
	if err == nil {
		defer conn.Close()

		var message Message
		err = conn.ReadJSON(&message)
		clientID := message.ClientID

		socketsMu.Lock()
		if sockets[clientID] == nil {
			connection := new(Connection)
			connection.Socket = conn
			sockets[clientID] = connection
		}
		connection := sockets[clientID]
		socketsMu.Unlock()

		// Continuously read messages
		for {
			switch message.MessageType {
			case "hello":
				bePolite := Message{
					ClientID:    clientID,
					MessageType: "hello-back",
					Message: map[string]string{
						"message": "Hello " + clientID + "!",
					},
				}
				connection.WriteJson(bePolite)

			case "ptz-move":
				var request models.MoveRequest
				if err := json.Unmarshal(message.Payload, &request); err != nil {
					connection.WriteJson(errorMessage(clientID, "InternalError", err))
					break
				}
				camera, err := translator.ResolveDevice(request.Device)
				if err != nil {
					connection.WriteJson(errorMessage(clientID, ptz.Code(err), err))
					break
				}
				velocity, duration, err := translator.Translate(request)
				if err != nil {
					connection.WriteJson(errorMessage(clientID, ptz.Code(err), err))
					break
				}
				if err := scheduler.Move(camera.Name, velocity, duration); err != nil {
					connection.WriteJson(errorMessage(clientID, ptz.Code(err), err))
					break
				}
				connection.WriteJson(statusMessage(clientID, scheduler.Status(camera.Name)))

			case "ptz-stop":
				var request models.StopRequest
				if err := json.Unmarshal(message.Payload, &request); err != nil {
					connection.WriteJson(errorMessage(clientID, "InternalError", err))
					break
				}
				camera, err := translator.ResolveDevice(request.Device)
				if err != nil {
					connection.WriteJson(errorMessage(clientID, ptz.Code(err), err))
					break
				}
				if err := scheduler.Stop(camera.Name); err != nil {
					connection.WriteJson(errorMessage(clientID, ptz.Code(err), err))
					break
				}
				connection.WriteJson(statusMessage(clientID, scheduler.Status(camera.Name)))

			case "ptz-status":
				var request models.StopRequest
				json.Unmarshal(message.Payload, &request)
				camera, err := translator.ResolveDevice(request.Device)
				if err != nil {
					connection.WriteJson(errorMessage(clientID, ptz.Code(err), err))
					break
				}
				connection.WriteJson(statusMessage(clientID, scheduler.Status(camera.Name)))
			}

			err = conn.ReadJSON(&message)
			if err != nil {
				break
			}
		}

		socketsMu.Lock()
		// If clientID is in sockets
		_, exists := sockets[clientID]
		if exists {
			delete(sockets, clientID)
			log.Log.Info("routers.websocket.WebsocketHandler(): " + clientID + ": terminated and disconnected websocket connection.")
		}
		socketsMu.Unlock()
	}
}

func statusMessage(clientID string, status models.MoveStatus) Message {
	payload, _ := json.Marshal(status)
	return Message{
		ClientID:    clientID,
		MessageType: "ptz-status",
		Payload:     payload,
	}
}

func errorMessage(clientID string, code string, err error) Message {
	return Message{
		ClientID:    clientID,
		MessageType: "error",
		Message: map[string]string{
			"code":    code,
			"message": err.Error(),
		},
	}
}

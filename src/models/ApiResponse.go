package models

type APIResponse struct {
	Data    interface{} `json:"data"`
	Message interface{} `json:"message"`
}

// MoveResponse is returned when a move was accepted and sequenced. The
// response is sent before the physical move has finished.
type MoveResponse struct {
	Device     string     `json:"device"`
	Velocity   MoveVector `json:"velocity"`
	Duration   float64    `json:"duration"`
	AcceptedAt string     `json:"accepted_at"`
}

package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewPollUpdateMessage builds the serialized message broadcast to a poll's
// subscribers after a vote is recorded.
func NewPollUpdateMessage(payload interface{}) []byte {
	msg, _ := json.Marshal(Message{Action: "poll_update", Payload: payload})
	return msg
}

// NewErrorMessage builds a serialized error message for a single client.
func NewErrorMessage(reason string) []byte {
	msg, _ := json.Marshal(Message{Action: "error", Payload: reason})
	return msg
}

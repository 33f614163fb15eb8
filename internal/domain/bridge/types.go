package bridge

import "github.com/google/uuid"

// Message is one inbound call from hosted content
type Message struct {
	ID     string   `json:"id"`
	Method string   `json:"method"`
	Params []string `json:"params"`
}

// NewMessage builds a message with a fresh correlation id
func NewMessage(method string, params ...string) Message {
	return Message{
		ID:     uuid.NewString(),
		Method: method,
		Params: params,
	}
}

// Result is the outcome of a successful dispatch.
// Unhandled marks a browser-control message the runtime does not recognize.
type Result struct {
	Payload   string
	Unhandled bool
}

// Response is what hosted content receives. A failed call carries only OK=false.
type Response struct {
	ID        string `json:"id"`
	OK        bool   `json:"ok"`
	Payload   string `json:"payload,omitempty"`
	Unhandled bool   `json:"unhandled,omitempty"`
}

package protocol

import (
	"encoding/json"
	"errors"
)

// ErrEmptyEvent is returned by Decode for frames without an event name.
var ErrEmptyEvent = errors.New("frame has no event name")

// Envelope is the wire framing used in both directions: an event name and an
// event-specific JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode frames an event and its payload for the wire.
func Encode(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Decode parses a raw frame into an Envelope. The payload is left raw so the
// caller can unmarshal it into the type the event calls for.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, ErrEmptyEvent
	}
	return env, nil
}

// Package task provides the task domain types shared by the stdio runtime
// and the queue client.
package task

import (
	"encoding/json"
	"maps"
)

// Request is a single unit of work received from the worker.
// A Request is immutable once parsed.
type Request struct {
	id      string
	payload map[string]any
}

// NewRequest creates a Request with the given task ID and payload.
func NewRequest(id string, payload map[string]any) Request {
	return Request{
		id:      id,
		payload: copyPayload(payload),
	}
}

// ID returns the task ID.
func (r Request) ID() string { return r.id }

// Payload returns a copy of the task payload.
func (r Request) Payload() map[string]any {
	return copyPayload(r.payload)
}

// PayloadJSON returns the payload as JSON bytes.
func (r Request) PayloadJSON() ([]byte, error) {
	return json.Marshal(r.payload)
}

// copyPayload creates a shallow copy of the payload map.
func copyPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return make(map[string]any)
	}
	result := make(map[string]any, len(payload))
	maps.Copy(result, payload)
	return result
}

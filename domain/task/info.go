package task

import "encoding/json"

// Info describes a task as reported by the runqy server.
type Info struct {
	id       string
	queue    string
	state    State
	result   any
	lastErr  string
	payload  map[string]any
}

// NewInfo creates an Info for a task.
func NewInfo(id, queue string, state State) Info {
	return Info{
		id:    id,
		queue: queue,
		state: state,
	}
}

// ID returns the task ID.
func (i Info) ID() string { return i.id }

// Queue returns the queue the task was submitted to.
func (i Info) Queue() string { return i.queue }

// State returns the task state.
func (i Info) State() State { return i.state }

// Result returns the task result, or nil if the task has none yet.
func (i Info) Result() any { return i.result }

// LastError returns the last error message reported for the task, or "" if
// there is none.
func (i Info) LastError() string { return i.lastErr }

// Payload returns a copy of the original payload, or nil if unknown.
func (i Info) Payload() map[string]any {
	if i.payload == nil {
		return nil
	}
	return copyPayload(i.payload)
}

// WithResult returns a copy of the info with the given result.
func (i Info) WithResult(result any) Info {
	i.result = result
	return i
}

// WithLastError returns a copy of the info with the given error message.
func (i Info) WithLastError(msg string) Info {
	i.lastErr = msg
	return i
}

// WithPayload returns a copy of the info with the given payload.
func (i Info) WithPayload(payload map[string]any) Info {
	if payload == nil {
		i.payload = nil
		return i
	}
	i.payload = copyPayload(payload)
	return i
}

type infoJSON struct {
	TaskID  string         `json:"task_id"`
	Queue   string         `json:"queue"`
	State   State          `json:"state"`
	Result  any            `json:"result"`
	Error   *string        `json:"error"`
	Payload map[string]any `json:"payload,omitempty"`
}

// MarshalJSON encodes the info with snake_case field names. A task without
// an error message is written with "error": null.
func (i Info) MarshalJSON() ([]byte, error) {
	out := infoJSON{
		TaskID:  i.id,
		Queue:   i.queue,
		State:   i.state,
		Result:  i.result,
		Payload: i.payload,
	}
	if i.lastErr != "" {
		msg := i.lastErr
		out.Error = &msg
	}
	return json.Marshal(out)
}

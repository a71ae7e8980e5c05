// Package protocol implements the line-delimited JSON protocol spoken between
// a runqy worker and a task process over standard input and output.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/runqy/runqy-go/domain/task"
)

// StatusReady is the status value of the readiness message.
const StatusReady = "ready"

// ErrMalformed indicates an input line that is not a valid task request.
var ErrMalformed = errors.New("malformed task request")

// MalformedError describes why an input line could not be parsed.
// TaskID is set when the line was an object carrying a string task_id.
type MalformedError struct {
	TaskID string
	Reason string
}

func (e *MalformedError) Error() string {
	return "invalid task request: " + e.Reason
}

// Is reports whether target is ErrMalformed.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// readyMessage is the single line written once the process can accept tasks.
type readyMessage struct {
	Status string `json:"status"`
}

// responseMessage is the wire form of a task.Response.
// Field order matches the order written by other runqy SDKs.
type responseMessage struct {
	TaskID string  `json:"task_id"`
	Result any     `json:"result"`
	Error  *string `json:"error"`
	Retry  bool    `json:"retry"`
}

func toResponseMessage(r task.Response) responseMessage {
	msg := responseMessage{
		TaskID: r.TaskID(),
		Retry:  r.Retry(),
	}
	if errMsg, failed := r.Error(); failed {
		msg.Error = &errMsg
		return msg
	}
	msg.Result = r.Result()
	return msg
}

// DecodeRequest parses one input line into a task.Request.
// The payload may be omitted or null, in which case it is empty.
func DecodeRequest(line []byte) (task.Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return task.Request{}, &MalformedError{Reason: err.Error()}
	}
	if fields == nil {
		return task.Request{}, &MalformedError{Reason: "expected a JSON object, got null"}
	}

	rawID, ok := fields["task_id"]
	if !ok {
		return task.Request{}, &MalformedError{Reason: "missing task_id"}
	}
	var id string
	if err := json.Unmarshal(rawID, &id); err != nil || isNull(rawID) {
		return task.Request{}, &MalformedError{Reason: "task_id must be a string"}
	}
	if id == "" {
		return task.Request{}, &MalformedError{Reason: "task_id must not be empty"}
	}

	rawPayload, ok := fields["payload"]
	if !ok || isNull(rawPayload) {
		return task.NewRequest(id, nil), nil
	}
	var payload map[string]any
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return task.Request{}, &MalformedError{
			TaskID: id,
			Reason: fmt.Sprintf("payload must be a JSON object: %v", err),
		}
	}
	return task.NewRequest(id, payload), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

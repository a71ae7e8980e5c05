package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/runqy/runqy-go/domain/task"
)

// object is a JSON object whose fields are decoded lazily. The server has
// used both Go-style (ID, State) and snake_case (id, state) field names.
type object map[string]json.RawMessage

func decodeObject(raw []byte) (object, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return object{}, nil
	}
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return object{}, nil
	}
	return obj, nil
}

// field returns the first of keys that is present and not null.
func (o object) field(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := o[k]
		if ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func (o object) str(fallback string, keys ...string) (string, error) {
	raw, ok := o.field(keys...)
	if !ok {
		return fallback, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %s: expected a string", keys[0])
	}
	return s, nil
}

func (o object) nested(keys ...string) (object, error) {
	raw, ok := o.field(keys...)
	if !ok {
		return object{}, nil
	}
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", keys[0], err)
	}
	return obj, nil
}

// embeddedJSON decodes a field value. A string holding JSON text is decoded
// once more; any other string is returned as is.
func (o object) embeddedJSON(keys ...string) (any, error) {
	raw, ok := o.field(keys...)
	if !ok {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("field %s: %w", keys[0], err)
	}
	s, isString := v.(string)
	if !isString || s == "" {
		return v, nil
	}
	var inner any
	if err := json.Unmarshal([]byte(s), &inner); err != nil {
		return s, nil
	}
	return inner, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseEnqueueResponse reads {"info":{"id","queue","state"}}. Missing fields
// default to the requested queue and the pending state.
func parseEnqueueResponse(raw []byte, queue string, payload map[string]any) (task.Info, error) {
	body, err := decodeObject(raw)
	if err != nil {
		return task.Info{}, err
	}
	info, err := body.nested("info")
	if err != nil {
		return task.Info{}, err
	}

	id, err := info.str("", "id")
	if err != nil {
		return task.Info{}, err
	}
	q, err := info.str(queue, "queue")
	if err != nil {
		return task.Info{}, err
	}
	state, err := info.str(string(task.StatePending), "state")
	if err != nil {
		return task.Info{}, err
	}

	return task.NewInfo(id, q, task.ParseState(state)).WithPayload(payload), nil
}

// parseTaskResponse reads the body of GET /queue/{id}. The task id defaults
// to the one requested.
func parseTaskResponse(raw []byte, id string) (task.Info, error) {
	body, err := decodeObject(raw)
	if err != nil {
		return task.Info{}, err
	}
	info, err := body.nested("Info", "info")
	if err != nil {
		return task.Info{}, err
	}

	var errs []error
	taskID, err := info.str(id, "ID", "id")
	errs = append(errs, err)
	queue, err := info.str("", "Queue", "queue")
	errs = append(errs, err)
	state, err := info.str("", "State", "state")
	errs = append(errs, err)
	lastErr, err := info.str("", "LastErr", "last_err")
	errs = append(errs, err)
	result, err := info.embeddedJSON("Result", "result")
	errs = append(errs, err)
	payload, err := info.embeddedJSON("Payload", "payload")
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return task.Info{}, err
	}

	out := task.NewInfo(taskID, queue, task.ParseState(state)).
		WithResult(result).
		WithLastError(lastErr)
	if p, ok := payload.(map[string]any); ok {
		out = out.WithPayload(p)
	}
	return out, nil
}

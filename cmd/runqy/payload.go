package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var errEmptyPayload = errors.New("payload is empty")

// readPayload returns the payload given inline or read from a file.
// A file path of "-" reads from stdin. With neither set the payload is {}.
func readPayload(inline, path string, stdin io.Reader) (map[string]any, error) {
	switch {
	case inline != "" && path != "":
		return nil, errors.New("--payload and --payload-file are mutually exclusive")
	case inline != "":
		return parsePayload([]byte(inline))
	case path == "-":
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read payload from stdin: %w", err)
		}
		return parsePayload(raw)
	case path != "":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		return parsePayload(raw)
	default:
		return map[string]any{}, nil
	}
}

// parsePayload decodes a JSON or YAML object.
func parsePayload(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errEmptyPayload
	}

	if raw[0] == '{' {
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err == nil {
			return payload, nil
		}
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	payload, ok := normalizeYAML(doc).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload must be an object, got %T", doc)
	}
	return payload, nil
}

// normalizeYAML converts maps with non-string keys so the value can be
// encoded as JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeYAML(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeYAML(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalizeYAML(e)
		}
		return t
	default:
		return v
	}
}

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the uniform result of every successful request.
// Data holds the payload with the backend's own top-level "data" wrapper
// already removed; Raw keeps the untouched response body.
type Envelope struct {
	Data    json.RawMessage `json:"data"`
	Raw     json.RawMessage `json:"-"`
	Success bool            `json:"success"`
}

var emptyList = json.RawMessage("[]")

func newEnvelope(body []byte) (*Envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &Envelope{Data: json.RawMessage("null"), Raw: body, Success: true}, nil
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to unmarshal response: invalid JSON body")
	}

	env := &Envelope{Data: body, Raw: body, Success: true}
	if inner, ok := field(body, "data"); ok {
		env.Data = inner
	}
	return env, nil
}

// List decodes the envelope payload as a list of T
func List[T any](env *Envelope) ([]T, error) {
	if env == nil {
		return []T{}, nil
	}
	return DecodeList[T](env.Data)
}

// Object decodes the envelope payload as a single T
func Object[T any](env *Envelope) (T, error) {
	if env == nil {
		var zero T
		return zero, nil
	}
	return DecodeObject[T](env.Data)
}

// UnwrapList finds the list inside raw. It accepts a bare array, an object
// whose "data" is an array, or one whose "data.data" is an array. Anything
// else yields an empty array.
func UnwrapList(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if isArray(raw) {
		return raw
	}

	inner, ok := field(raw, "data")
	if !ok {
		return emptyList
	}
	if isArray(inner) {
		return inner
	}

	innermost, ok := field(inner, "data")
	if ok && isArray(innermost) {
		return innermost
	}
	return emptyList
}

// DecodeList decodes the list found by UnwrapList. The result is never nil
// when err is nil.
func DecodeList[T any](raw json.RawMessage) ([]T, error) {
	items := []T{}
	if err := json.Unmarshal(UnwrapList(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// DecodeObject decodes raw as T, first peeling a lone "data" wrapper
func DecodeObject[T any](raw json.RawMessage) (T, error) {
	var out T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil && len(fields) == 1 {
		if inner, ok := fields["data"]; ok {
			raw = inner
		}
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode object: %w", err)
	}
	return out, nil
}

func isArray(raw json.RawMessage) bool {
	return len(raw) > 0 && raw[0] == '['
}

// field returns the raw value of key when raw is a JSON object holding it
func field(raw json.RawMessage, key string) (json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	v, ok := fields[key]
	if !ok {
		return nil, false
	}
	return bytes.TrimSpace(v), true
}

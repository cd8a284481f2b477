package models

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
)

// decodeLenient fills the struct dst points to one JSON field at a time.
// A field that does not fit its Go type is left zero and logged. Only a
// value that is not an object, or an unusable id, fails the record.
func decodeLenient(data []byte, dst any, kind string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to decode %s: %w", kind, err)
	}

	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		value, ok := fields[name]
		if !ok {
			continue
		}

		field := v.Field(i)
		if err := json.Unmarshal(value, field.Addr().Interface()); err != nil {
			if name == "id" {
				return fmt.Errorf("failed to decode %s id: %w", kind, err)
			}
			field.Set(reflect.Zero(sf.Type))
			slog.Warn("ignoring malformed field",
				"kind", kind,
				"field", name,
				"record_id", string(fields["id"]),
				"error", err,
			)
		}
	}
	return nil
}

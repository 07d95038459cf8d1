// Package jsonb renders json and jsonb cell values as single-line text.
package jsonb

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Compact formats a JSON value as compact single-line JSON. Strings and
// byte slices are taken as JSON text and keep their key order; anything
// else is marshaled.
func Compact(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return compactText([]byte(v))
	case []byte:
		return compactText(v)
	case json.RawMessage:
		return compactText(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to compact: %w", err)
		}
		return string(b), nil
	}
}

func compactText(text []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, text); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return buf.String(), nil
}

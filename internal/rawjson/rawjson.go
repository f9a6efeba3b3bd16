// Package rawjson encodes JSON without touching raw values. encoding/json compacts every
// json.RawMessage it encodes, so objects holding payloads that must reach the other side
// unchanged are assembled here instead.
package rawjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Encode encodes v without HTML escaping and without a trailing newline. Raw values
// nested in v are compacted; use Object to keep them as they are.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Object writes fields as a JSON object with sorted keys. Each value is copied byte for
// byte and must be valid JSON.
func Object(fields map[string]json.RawMessage) (json.RawMessage, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		v := fields[k]
		if !json.Valid(v) {
			return nil, fmt.Errorf("field '%s' is not valid JSON", k)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := Encode(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Fields encodes each value of values with Encode, leaving json.RawMessage values as
// they are.
func Fields(values map[string]any) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		if raw, ok := v.(json.RawMessage); ok {
			out[k] = raw
			continue
		}
		b, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field '%s': %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}

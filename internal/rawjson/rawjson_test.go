package rawjson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_KeepsRawValues(t *testing.T) {
	blob := json.RawMessage("{\"version\": 2,\n  \"tables\": [ \"a\" ]}")

	out, err := Object(map[string]json.RawMessage{
		"serialized_space": blob,
		"title":            json.RawMessage(`"a < b"`),
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"serialized_space\":{\"version\": 2,\n  \"tables\": [ \"a\" ]},\"title\":\"a < b\"}", string(out))
	assert.True(t, json.Valid(out))
}

func TestObject_Empty(t *testing.T) {
	out, err := Object(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestObject_RejectsInvalidValue(t *testing.T) {
	_, err := Object(map[string]json.RawMessage{"serialized_space": {}})
	require.ErrorContains(t, err, "serialized_space")

	_, err = Object(map[string]json.RawMessage{"x": json.RawMessage(`{"open":`)})
	require.Error(t, err)
}

func TestFields(t *testing.T) {
	raw := json.RawMessage("[ 1,  2 ]")
	fields, err := Fields(map[string]any{"n": 3, "s": "a & b", "raw": raw})
	require.NoError(t, err)
	assert.Equal(t, "3", string(fields["n"]))
	assert.Equal(t, `"a & b"`, string(fields["s"]))
	assert.Equal(t, "[ 1,  2 ]", string(fields["raw"]))

	_, err = Fields(map[string]any{"bad": make(chan int)})
	require.ErrorContains(t, err, "bad")
}

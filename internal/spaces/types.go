package spaces

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cchalm/genie-spaces/internal/rawjson"
)

// Space is a Genie space as returned by the workspace.
//
// SerializedSpace is only populated by an export and is kept as the raw JSON value the
// server sent. Its shape is versioned by the server, so it is never decoded here.
type Space struct {
	SpaceID         string          `json:"space_id"`
	Title           string          `json:"title,omitempty"`
	Description     string          `json:"description,omitempty"`
	WarehouseID     string          `json:"warehouse_id,omitempty"`
	ParentPath      string          `json:"parent_path,omitempty"`
	SerializedSpace json.RawMessage `json:"serialized_space,omitempty"`

	// Fields holds every attribute of the response as received, including server
	// assigned metadata such as the creator and creation time
	Fields map[string]json.RawMessage `json:"-"`
}

func (s *Space) UnmarshalJSON(data []byte) error {
	type plain Space
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = Space(p)
	s.Fields = fields
	return nil
}

// MarshalJSON writes the response fields back unchanged. A Space built in code, without
// Fields, is written from its typed fields. Called directly, the result keeps
// SerializedSpace byte for byte; encoding/json compacts it when the Space is nested in
// another value.
func (s Space) MarshalJSON() ([]byte, error) {
	if s.Fields != nil {
		return rawjson.Object(s.Fields)
	}
	type plain Space
	return rawjson.Encode(plain(s))
}

// Field decodes a response attribute that has no typed accessor. It reports false if
// the server did not send the attribute.
func (s *Space) Field(name string, v any) (bool, error) {
	raw, ok := s.Fields[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to decode space field '%s': %w", name, err)
	}
	return true, nil
}

// HasSerializedSpace reports whether the space carries an exported configuration
func (s *Space) HasSerializedSpace() bool {
	return !isEmptyPayload(s.SerializedSpace)
}

// SerializedSpaceFromString wraps a configuration held as text, such as the contents
// of a file, in the JSON string form the API exchanges.
func SerializedSpaceFromString(config string) json.RawMessage {
	b, _ := rawjson.Encode(config)
	return b
}

// ListSpacesOptions selects a page of spaces. Zero values are omitted from the request.
type ListSpacesOptions struct {
	PageSize  int
	PageToken string
}

// ListSpacesResponse is one page of spaces. NextPageToken is empty on the last page.
type ListSpacesResponse struct {
	Spaces        []Space `json:"spaces"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// CreateSpaceRequest is the body of a create call
type CreateSpaceRequest struct {
	WarehouseID     string          `json:"warehouse_id" validate:"required"`
	ParentPath      string          `json:"parent_path" validate:"required"`
	SerializedSpace json.RawMessage `json:"serialized_space" validate:"payload"`
	Title           string          `json:"title,omitempty"`
	Description     string          `json:"description,omitempty"`
}

func (r CreateSpaceRequest) body() map[string]any {
	body := map[string]any{
		"warehouse_id":     r.WarehouseID,
		"parent_path":      r.ParentPath,
		"serialized_space": r.SerializedSpace,
	}
	if r.Title != "" {
		body["title"] = r.Title
	}
	if r.Description != "" {
		body["description"] = r.Description
	}
	return body
}

// UpdateSpaceRequest lists the fields to change. Nil fields are left out of the request
// and keep their current value on the server.
type UpdateSpaceRequest struct {
	Title           *string
	Description     *string
	WarehouseID     *string
	ParentPath      *string
	SerializedSpace json.RawMessage
	// Extra carries fields the server accepts that have no typed counterpart here.
	// Typed fields win over Extra entries with the same name.
	Extra map[string]any
}

func (r UpdateSpaceRequest) body(spaceID string) map[string]any {
	body := map[string]any{}
	for k, v := range r.Extra {
		body[k] = v
	}
	if r.Title != nil {
		body["title"] = *r.Title
	}
	if r.Description != nil {
		body["description"] = *r.Description
	}
	if r.WarehouseID != nil {
		body["warehouse_id"] = *r.WarehouseID
	}
	if r.ParentPath != nil {
		body["parent_path"] = *r.ParentPath
	}
	if r.SerializedSpace != nil {
		body["serialized_space"] = r.SerializedSpace
	}
	delete(body, "space_id")
	if len(body) == 0 {
		return nil
	}
	body["space_id"] = spaceID
	return body
}

func isEmptyPayload(b json.RawMessage) bool {
	t := bytes.TrimSpace(b)
	return len(t) == 0 || bytes.Equal(t, []byte("null")) || bytes.Equal(t, []byte(`""`))
}

// encodeBody assembles a request body, copying raw values such as serialized_space
// without re-encoding them
func encodeBody(values map[string]any) (json.RawMessage, error) {
	fields, err := rawjson.Fields(values)
	if err != nil {
		return nil, &ValidationError{Field: "body", Message: err.Error()}
	}
	for k, v := range fields {
		if !json.Valid(v) {
			return nil, &ValidationError{Field: k, Message: "is not valid JSON"}
		}
	}
	return rawjson.Object(fields)
}

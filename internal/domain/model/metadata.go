package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metadata is a loosely-typed JSON metadata payload. Rows written by older
// clients sometimes carry a JSON object encoded as a JSON string, so reads
// must always go through AsMap instead of assuming the shape.
type Metadata json.RawMessage

// MarshalJSON implements json.Marshaler.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.RawMessage(m).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	*m = Metadata(bytes.Clone(data))
	return nil
}

// AsMap decodes the metadata into a map. It accepts a JSON object, a JSON
// string containing an encoded object, or null/empty (decoded as an empty map).
func (m Metadata) AsMap() (map[string]any, error) {
	raw := bytes.TrimSpace([]byte(m))
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("decode metadata string: %w", err)
		}
		raw = []byte(encoded)
	}

	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode metadata object: %w", err)
	}
	return out, nil
}

// Merge returns a copy of m with all keys from patch applied on top. Unreadable
// inputs are treated as empty rather than failing the merge, so a malformed
// legacy value can still be amended by a later delivery.
func (m Metadata) Merge(patch Metadata) Metadata {
	base, err := m.AsMap()
	if err != nil {
		base = map[string]any{}
	}
	over, err := patch.AsMap()
	if err != nil {
		over = map[string]any{}
	}
	for k, v := range over {
		base[k] = v
	}
	return MetadataFromMap(base)
}

// MetadataFromMap encodes a map as Metadata. Encoding a plain map cannot fail.
func MetadataFromMap(values map[string]any) Metadata {
	if values == nil {
		return Metadata(`{}`)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return Metadata(`{}`)
	}
	return Metadata(raw)
}

// StringValue returns the string stored under key, if any.
func (m Metadata) StringValue(key string) (string, bool) {
	values, err := m.AsMap()
	if err != nil {
		return "", false
	}
	s, ok := values[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Package types provides type definitions for structured data used throughout the catalog enrichment system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a single key/value cell of a catalog row
type Field struct {
	Key   string
	Value string
}

// RawRecord is one parsed catalog row. Field order follows the source
// (header order for CSV, key order for JSON) and is kept for column rendering.
type RawRecord []Field

// NewRawRecord builds a record from alternating key/value pairs.
// A trailing key without a value gets an empty string.
func NewRawRecord(kv ...string) RawRecord {
	rec := make(RawRecord, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		value := ""
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		rec.Set(kv[i], value)
	}
	return rec
}

// Get returns the value stored under key and whether it exists
func (r RawRecord) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Value returns the value stored under key, or "" when missing
func (r RawRecord) Value(key string) string {
	v, _ := r.Get(key)
	return v
}

// Set stores value under key. A repeated key keeps its first position and
// takes the latest value.
func (r *RawRecord) Set(key, value string) {
	for i := range *r {
		if (*r)[i].Key == key {
			(*r)[i].Value = value
			return
		}
	}
	*r = append(*r, Field{Key: key, Value: value})
}

// Keys returns the field names in source order
func (r RawRecord) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// FirstValue returns the value of the first field, or "" for an empty record
func (r RawRecord) FirstValue() string {
	if len(r) == 0 {
		return ""
	}
	return r[0].Value
}

// Clone returns an independent copy of the record
func (r RawRecord) Clone() RawRecord {
	if r == nil {
		return nil
	}
	out := make(RawRecord, len(r))
	copy(out, r)
	return out
}

// MarshalJSON renders the record as a JSON object in field order
func (r RawRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping key order. Scalars are
// stringified (null becomes ""), nested objects and arrays keep their
// compact JSON text.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	rec := make(RawRecord, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected record key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value, err := stringifyJSON(raw)
		if err != nil {
			return err
		}
		rec.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = rec
	return nil
}

// stringifyJSON converts a raw JSON value into the string form kept in a record
func stringifyJSON(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case 'n':
		return "", nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return string(trimmed), nil
	}
}

// Package record models the case record: the JSON object threaded through
// every remote processing step. Fields the service adds are carried through
// untouched and in the order the service produced them.
package record

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Known field names.
const (
	FieldReferences         = "references"
	FieldRejectedClaimsList = "rejected_claims_list"
	FieldResponses          = "responses"
	FieldStrategy           = "strategy"
	FieldResponse           = "response"
	FieldDraft              = "draft"
)

var emptyObject = []byte("{}")

// Record is a JSON object kept as the compact bytes the service sent.
// Reads and writes address fields by path, so untouched fields keep their
// bytes and their position. The zero value is an empty record ready to use.
type Record struct {
	raw []byte
}

// Parse validates data as a single JSON object and compacts it.
func Parse(data []byte) (*Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrNotObject)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, ErrNotObject
	}
	return &Record{raw: pretty.Ugly(data)}, nil
}

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	var keys []string
	gjson.ParseBytes(r.bytes()).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.Keys())
}

// Get returns the raw JSON of a field.
func (r *Record) Get(key string) (json.RawMessage, bool) {
	res := r.field(key)
	if !res.Exists() {
		return nil, false
	}
	return json.RawMessage(res.Raw), true
}

// SetRaw stores raw JSON under key. Existing keys keep their position; new
// keys are appended.
func (r *Record) SetRaw(key string, raw json.RawMessage) error {
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("set %s: invalid JSON", key)
	}
	out, err := sjson.SetRawBytes(r.bytes(), gjson.Escape(key), pretty.Ugly(raw))
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	r.raw = out
	return nil
}

// Set encodes v and stores it under key.
func (r *Record) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.SetRaw(key, raw)
}

// String returns a field rendered as text: strings are unquoted, null and
// missing fields are empty, anything else is its compact JSON.
func (r *Record) String(key string) string {
	return text(r.field(key))
}

// Draft returns the exported draft text.
func (r *Record) Draft() string {
	return r.String(FieldDraft)
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	return &Record{raw: bytes.Clone(r.raw)}
}

// MarshalJSON returns the stored object.
func (r *Record) MarshalJSON() ([]byte, error) {
	return bytes.Clone(r.bytes()), nil
}

// UnmarshalJSON replaces the record with data, which must be an object.
func (r *Record) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	r.raw = parsed.raw
	return nil
}

// Value stores the record in a json column.
func (r *Record) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return string(r.bytes()), nil
}

// Scan reads the record from a json column. NULL yields an empty record.
func (r *Record) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = Record{}
		return nil
	case []byte:
		return r.UnmarshalJSON(v)
	case string:
		return r.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("scan record: unsupported type %T", src)
}

func (r *Record) bytes() []byte {
	if len(r.raw) == 0 {
		return emptyObject
	}
	return r.raw
}

func (r *Record) field(key string) gjson.Result {
	return gjson.GetBytes(r.bytes(), gjson.Escape(key))
}

func text(res gjson.Result) string {
	switch {
	case !res.Exists(), res.Type == gjson.Null:
		return ""
	case res.Type == gjson.String:
		return res.Str
	}
	return res.Raw
}
